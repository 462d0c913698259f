package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"patient-registration/internal/domain/patient"
	"patient-registration/internal/infrastructure/database/postgres/models"
)

const pgUniqueViolation = "23505"

// PatientRepository implements patient.Repository on gorm
type PatientRepository struct {
	db *DB
}

func NewPatientRepository(db *DB) patient.Repository {
	return &PatientRepository{db: db}
}

func (r *PatientRepository) Create(ctx context.Context, p *patient.Patient) error {
	dbModel := toPatientModel(p)
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		if dupErr := duplicateError(err); dupErr != nil {
			return dupErr
		}
		return fmt.Errorf("failed to create patient: %w", err)
	}

	p.CreatedAt = dbModel.CreatedAt
	p.UpdatedAt = dbModel.UpdatedAt

	return nil
}

func (r *PatientRepository) GetByEmailAndHealthCareNumber(ctx context.Context, email, healthCareNumber string) (*patient.Patient, error) {
	var dbModel models.PatientModel
	err := r.db.DB.WithContext(ctx).
		Where("email = ? AND health_care_number = ?", email, healthCareNumber).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, patient.ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	return toPatientEntity(&dbModel), nil
}

func (r *PatientRepository) SaveOTP(ctx context.Context, healthCareNumber, code string, expiresAt time.Time) error {
	result := r.db.DB.WithContext(ctx).Model(&models.PatientModel{}).
		Where("health_care_number = ?", healthCareNumber).
		Updates(map[string]interface{}{
			"otp":            code,
			"otp_expires_at": expiresAt.UTC(),
			"updated_at":     time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to save OTP: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return patient.ErrPatientNotFound
	}

	return nil
}

// CompletePasswordReset is a conditional update: a code replaced or expired
// since it was read leaves the row untouched.
func (r *PatientRepository) CompletePasswordReset(ctx context.Context, healthCareNumber, code, passwordHash string, now time.Time) error {
	result := r.db.DB.WithContext(ctx).Model(&models.PatientModel{}).
		Where("health_care_number = ? AND otp = ? AND otp_expires_at > ?", healthCareNumber, code, now.UTC()).
		Updates(map[string]interface{}{
			"password_hashed": passwordHash,
			"otp":             nil,
			"otp_expires_at":  nil,
			"updated_at":      time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to reset password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return patient.ErrInvalidOrExpiredOTP
	}

	return nil
}

// duplicateError maps a unique-constraint violation to the matching domain
// error, or returns nil for any other failure.
func duplicateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return nil
		}
		if strings.Contains(pgErr.ConstraintName, "insurance") {
			return patient.ErrInsuranceIDTaken
		}
		return patient.ErrHealthCareNumberTaken
	}

	errStr := strings.ToLower(err.Error())
	if !strings.Contains(errStr, "duplicate key") && !strings.Contains(errStr, "unique constraint") {
		return nil
	}
	if strings.Contains(errStr, "insurance") {
		return patient.ErrInsuranceIDTaken
	}
	return patient.ErrHealthCareNumberTaken
}

// Helper functions to convert between domain entities and database models

func toPatientModel(p *patient.Patient) *models.PatientModel {
	return &models.PatientModel{
		HealthCareNumber:             p.HealthCareNumber,
		RegistrationDate:             p.RegistrationDate,
		RegistrationTime:             p.RegistrationTime,
		PatientFirstName:             p.FirstName,
		PatientLastName:              p.LastName,
		Sex:                          string(p.Sex),
		BirthMonth:                   p.BirthMonth,
		BirthDay:                     p.BirthDay,
		BirthYear:                    p.BirthYear,
		IsYoungerThan18:              p.IsYoungerThan18,
		PhoneNumber:                  p.PhoneNumber,
		Email:                        p.Email,
		PasswordHashed:               p.PasswordHashed,
		StreetAddress:                p.StreetAddress,
		StreetAddressLine2:           p.StreetAddressLine2,
		City:                         p.City,
		StateOrProvince:              p.StateOrProvince,
		PostalOrZipCode:              p.PostalOrZipCode,
		MaritalStatus:                string(p.MaritalStatus),
		EmergencyContactFirstName:    p.EmergencyContactFirstName,
		EmergencyContactLastName:     p.EmergencyContactLastName,
		EmergencyContactRelationship: p.EmergencyContactRelationship,
		EmergencyContactPhoneNumber:  p.EmergencyContactPhoneNumber,
		FamilyDoctorFirstName:        p.FamilyDoctorFirstName,
		FamilyDoctorLastName:         p.FamilyDoctorLastName,
		FamilyDoctorPhoneNumber:      p.FamilyDoctorPhoneNumber,
		PreferredPharmacy:            p.PreferredPharmacy,
		PharmacyPhoneNumber:          p.PharmacyPhoneNumber,
		ReasonForRegistration:        p.ReasonForRegistration,
		AdditionalNotes:              p.AdditionalNotes,
		TakingMedications:            p.TakingMedications,
		InsuranceCompany:             p.InsuranceCompany,
		InsuranceID:                  p.InsuranceID,
		PolicyHolderFirstName:        p.PolicyHolderFirstName,
		PolicyHolderLastName:         p.PolicyHolderLastName,
		PolicyHolderDateOfBirth:      p.PolicyHolderDateOfBirth,
		OTP:                          p.OTP,
		OTPExpiresAt:                 p.OTPExpiresAt,
		CreatedAt:                    p.CreatedAt,
		UpdatedAt:                    p.UpdatedAt,
	}
}

func toPatientEntity(m *models.PatientModel) *patient.Patient {
	return &patient.Patient{
		HealthCareNumber:             m.HealthCareNumber,
		RegistrationDate:             m.RegistrationDate,
		RegistrationTime:             m.RegistrationTime,
		FirstName:                    m.PatientFirstName,
		LastName:                     m.PatientLastName,
		Sex:                          patient.Sex(m.Sex),
		BirthMonth:                   m.BirthMonth,
		BirthDay:                     m.BirthDay,
		BirthYear:                    m.BirthYear,
		IsYoungerThan18:              m.IsYoungerThan18,
		PhoneNumber:                  m.PhoneNumber,
		Email:                        m.Email,
		PasswordHashed:               m.PasswordHashed,
		StreetAddress:                m.StreetAddress,
		StreetAddressLine2:           m.StreetAddressLine2,
		City:                         m.City,
		StateOrProvince:              m.StateOrProvince,
		PostalOrZipCode:              m.PostalOrZipCode,
		MaritalStatus:                patient.MaritalStatus(m.MaritalStatus),
		EmergencyContactFirstName:    m.EmergencyContactFirstName,
		EmergencyContactLastName:     m.EmergencyContactLastName,
		EmergencyContactRelationship: m.EmergencyContactRelationship,
		EmergencyContactPhoneNumber:  m.EmergencyContactPhoneNumber,
		FamilyDoctorFirstName:        m.FamilyDoctorFirstName,
		FamilyDoctorLastName:         m.FamilyDoctorLastName,
		FamilyDoctorPhoneNumber:      m.FamilyDoctorPhoneNumber,
		PreferredPharmacy:            m.PreferredPharmacy,
		PharmacyPhoneNumber:          m.PharmacyPhoneNumber,
		ReasonForRegistration:        m.ReasonForRegistration,
		AdditionalNotes:              m.AdditionalNotes,
		TakingMedications:            m.TakingMedications,
		InsuranceCompany:             m.InsuranceCompany,
		InsuranceID:                  m.InsuranceID,
		PolicyHolderFirstName:        m.PolicyHolderFirstName,
		PolicyHolderLastName:         m.PolicyHolderLastName,
		PolicyHolderDateOfBirth:      m.PolicyHolderDateOfBirth,
		OTP:                          m.OTP,
		OTPExpiresAt:                 m.OTPExpiresAt,
		CreatedAt:                    m.CreatedAt,
		UpdatedAt:                    m.UpdatedAt,
	}
}
