package patient

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mocks/mock_patient.go -package=mocks . Repository,Notifier,EventPublisher

// Repository defines the interface for patient record storage
type Repository interface {
	// Create inserts a new record. Returns ErrHealthCareNumberTaken or
	// ErrInsuranceIDTaken when a unique constraint rejects the row.
	Create(ctx context.Context, p *Patient) error
	GetByEmailAndHealthCareNumber(ctx context.Context, email, healthCareNumber string) (*Patient, error)
	SaveOTP(ctx context.Context, healthCareNumber, code string, expiresAt time.Time) error
	// CompletePasswordReset stores the new hash and clears the reset state
	// only while the stored code equals code and expires after now.
	CompletePasswordReset(ctx context.Context, healthCareNumber, code, passwordHash string, now time.Time) error
}

// Notifier delivers a one-time code to a patient
type Notifier interface {
	SendOTP(ctx context.Context, email, code string) error
}
