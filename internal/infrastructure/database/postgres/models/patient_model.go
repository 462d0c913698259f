package models

import (
	"time"
)

// PatientModel represents the database model for a patient record
type PatientModel struct {
	HealthCareNumber string    `gorm:"type:varchar(14);primaryKey"`
	RegistrationDate time.Time `gorm:"type:date;not null"`
	RegistrationTime string    `gorm:"type:varchar(5);not null"`

	PatientFirstName string `gorm:"type:varchar(55);not null"`
	PatientLastName  string `gorm:"type:varchar(55);not null"`
	Sex              string `gorm:"type:varchar(10);not null"`
	BirthMonth       string `gorm:"type:varchar(20);not null"`
	BirthDay         int    `gorm:"not null"`
	BirthYear        int    `gorm:"not null"`
	IsYoungerThan18  bool   `gorm:"not null;default:false"`

	PhoneNumber    string `gorm:"type:varchar(14);not null"`
	Email          string `gorm:"type:varchar(100);not null;index:idx_patients_email"`
	PasswordHashed string `gorm:"type:varchar(255);not null"`

	StreetAddress      string  `gorm:"type:varchar(100);not null"`
	StreetAddressLine2 *string `gorm:"type:varchar(100)"`
	City               *string `gorm:"type:varchar(50)"`
	StateOrProvince    string  `gorm:"type:varchar(50);not null"`
	PostalOrZipCode    *string `gorm:"type:varchar(20)"`

	MaritalStatus string `gorm:"type:varchar(20);not null"`

	EmergencyContactFirstName    string `gorm:"type:varchar(55);not null"`
	EmergencyContactLastName     string `gorm:"type:varchar(55);not null"`
	EmergencyContactRelationship string `gorm:"type:varchar(55);not null"`
	EmergencyContactPhoneNumber  string `gorm:"type:varchar(14);not null"`

	FamilyDoctorFirstName   *string `gorm:"type:varchar(55)"`
	FamilyDoctorLastName    *string `gorm:"type:varchar(55)"`
	FamilyDoctorPhoneNumber *string `gorm:"type:varchar(14)"`
	PreferredPharmacy       *string `gorm:"type:varchar(55)"`
	PharmacyPhoneNumber     *string `gorm:"type:varchar(14)"`

	ReasonForRegistration string  `gorm:"type:varchar(500);not null"`
	AdditionalNotes       *string `gorm:"type:varchar(500)"`
	TakingMedications     bool    `gorm:"not null;default:false"`

	InsuranceCompany        *string    `gorm:"type:varchar(55)"`
	InsuranceID             string     `gorm:"column:insurance_id;type:varchar(55);not null;uniqueIndex:idx_patients_insurance_id"`
	PolicyHolderFirstName   *string    `gorm:"type:varchar(55)"`
	PolicyHolderLastName    *string    `gorm:"type:varchar(55)"`
	PolicyHolderDateOfBirth *time.Time `gorm:"type:date"`

	OTP          *string    `gorm:"column:otp;type:varchar(6)"`
	OTPExpiresAt *time.Time `gorm:"column:otp_expires_at"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (PatientModel) TableName() string {
	return "patients"
}
