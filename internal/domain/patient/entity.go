package patient

import (
	"crypto/subtle"
	"time"
)

// Sex is the administrative sex recorded at intake
type Sex string

const (
	SexFemale Sex = "Female"
	SexMale   Sex = "Male"
	SexNA     Sex = "N/A"
)

func (s Sex) IsValid() bool {
	switch s {
	case SexFemale, SexMale, SexNA:
		return true
	}
	return false
}

// MaritalStatus of the patient at registration
type MaritalStatus string

const (
	MaritalSingle           MaritalStatus = "Single"
	MaritalMarried          MaritalStatus = "Married"
	MaritalDivorced         MaritalStatus = "Divorced"
	MaritalLegallySeparated MaritalStatus = "Legally Separated"
	MaritalWidowed          MaritalStatus = "Widowed"
)

func (m MaritalStatus) IsValid() bool {
	switch m {
	case MaritalSingle, MaritalMarried, MaritalDivorced, MaritalLegallySeparated, MaritalWidowed:
		return true
	}
	return false
}

// ResetState describes where a record sits in the password reset flow
type ResetState string

const (
	ResetNone    ResetState = "no_active_reset"
	ResetPending ResetState = "reset_pending"
	ResetExpired ResetState = "reset_expired"
)

// Patient represents a registered patient record in the domain
type Patient struct {
	HealthCareNumber string
	RegistrationDate time.Time
	RegistrationTime string

	FirstName       string
	LastName        string
	Sex             Sex
	BirthMonth      string
	BirthDay        int
	BirthYear       int
	IsYoungerThan18 bool

	PhoneNumber    string
	Email          string
	PasswordHashed string

	StreetAddress      string
	StreetAddressLine2 *string
	City               *string
	StateOrProvince    string
	PostalOrZipCode    *string

	MaritalStatus MaritalStatus

	EmergencyContactFirstName    string
	EmergencyContactLastName     string
	EmergencyContactRelationship string
	EmergencyContactPhoneNumber  string

	FamilyDoctorFirstName   *string
	FamilyDoctorLastName    *string
	FamilyDoctorPhoneNumber *string
	PreferredPharmacy       *string
	PharmacyPhoneNumber     *string

	ReasonForRegistration string
	AdditionalNotes       *string
	TakingMedications     bool

	InsuranceCompany        *string
	InsuranceID             string
	PolicyHolderFirstName   *string
	PolicyHolderLastName    *string
	PolicyHolderDateOfBirth *time.Time

	// OTP and OTPExpiresAt are both nil unless a reset is in progress.
	OTP          *string
	OTPExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResetStateAt reports the reset state as observed at now.
func (p *Patient) ResetStateAt(now time.Time) ResetState {
	if p.OTP == nil || p.OTPExpiresAt == nil {
		return ResetNone
	}
	if !p.OTPExpiresAt.After(now) {
		return ResetExpired
	}
	return ResetPending
}

// IssueOTP overwrites any previous code.
func (p *Patient) IssueOTP(code string, expiresAt time.Time) {
	p.OTP = &code
	p.OTPExpiresAt = &expiresAt
}

func (p *Patient) ClearOTP() {
	p.OTP = nil
	p.OTPExpiresAt = nil
}

// VerifyOTP checks, in order, that a code is pending, that it matches and
// that it has not expired. The returned reason names the first failing check.
func (p *Patient) VerifyOTP(code string, now time.Time) (reason string, err error) {
	if p.OTP == nil || p.OTPExpiresAt == nil {
		return "no_pending_code", ErrInvalidOrExpiredOTP
	}
	if subtle.ConstantTimeCompare([]byte(*p.OTP), []byte(code)) != 1 {
		return "code_mismatch", ErrInvalidOrExpiredOTP
	}
	if !p.OTPExpiresAt.After(now) {
		return "code_expired", ErrInvalidOrExpiredOTP
	}
	return "", nil
}
