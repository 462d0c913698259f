package patient

import (
	"errors"
	"fmt"
)

var (
	ErrPatientNotFound     = errors.New("patient not found with provided email and health care number")
	ErrDuplicateIdentifier = errors.New("duplicate identifier")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidOrExpiredOTP = errors.New("invalid or expired OTP")
	ErrPasswordMismatch    = errors.New("passwords do not match")
	ErrDeliveryFailed      = errors.New("failed to send OTP email")

	ErrHealthCareNumberTaken = fmt.Errorf("%w: health care number already in use", ErrDuplicateIdentifier)
	ErrInsuranceIDTaken      = fmt.Errorf("%w: insurance ID already registered", ErrDuplicateIdentifier)
)
