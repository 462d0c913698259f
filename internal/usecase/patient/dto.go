package patient

import (
	"fmt"
	"time"

	domainPatient "patient-registration/internal/domain/patient"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

type RegisterRequest struct {
	PatientFirstName string `json:"patientFirstName" validate:"required,max=55"`
	PatientLastName  string `json:"patientLastName" validate:"required,max=55"`
	Sex              string `json:"sex" validate:"required,sex"`
	BirthMonth       string `json:"birthMonth" validate:"required,max=20"`
	BirthDay         int    `json:"birthDay" validate:"min=1,max=31"`
	BirthYear        int    `json:"birthYear" validate:"min=1900,max=2024"`
	IsYoungerThan18  bool   `json:"isYoungerThan18"`

	PhoneNumber string `json:"phoneNumber" validate:"required,phone"`
	Email       string `json:"email" validate:"required,email,max=100"`
	Password    string `json:"password" validate:"required,password"`

	StreetAddress      string  `json:"streetAddress" validate:"required,max=100"`
	StreetAddressLine2 *string `json:"streetAddressLine2" validate:"omitempty,max=100"`
	City               *string `json:"city" validate:"omitempty,max=50"`
	StateOrProvince    string  `json:"stateOrProvince" validate:"required,max=50"`
	PostalOrZipCode    *string `json:"postalOrZipCode" validate:"omitempty,max=20"`

	MaritalStatus string `json:"maritalStatus" validate:"required,marital_status"`

	EmergencyContactFirstName    string `json:"emergencyContactFirstName" validate:"required,max=55"`
	EmergencyContactLastName     string `json:"emergencyContactLastName" validate:"required,max=55"`
	EmergencyContactRelationship string `json:"emergencyContactRelationship" validate:"required,max=55"`
	EmergencyContactPhoneNumber  string `json:"emergencyContactPhoneNumber" validate:"required,phone"`

	FamilyDoctorFirstName   *string `json:"familyDoctorFirstName" validate:"omitempty,max=55"`
	FamilyDoctorLastName    *string `json:"familyDoctorLastName" validate:"omitempty,max=55"`
	FamilyDoctorPhoneNumber *string `json:"familyDoctorPhoneNumber" validate:"omitempty,phone"`
	PreferredPharmacy       *string `json:"preferredPharmacy" validate:"omitempty,max=55"`
	PharmacyPhoneNumber     *string `json:"pharmacyPhoneNumber" validate:"omitempty,phone"`

	ReasonForRegistration string  `json:"reasonForRegistration" validate:"required,max=500"`
	AdditionalNotes       *string `json:"additionalNotes" validate:"omitempty,max=500"`
	TakingMedications     bool    `json:"takingMedications"`

	InsuranceCompany        *string `json:"insuranceCompany" validate:"omitempty,max=55"`
	InsuranceID             string  `json:"insuranceID" validate:"required,insurance_id"`
	PolicyHolderFirstName   *string `json:"policyHolderFirstName" validate:"omitempty,max=55"`
	PolicyHolderLastName    *string `json:"policyHolderLastName" validate:"omitempty,max=55"`
	PolicyHolderDateOfBirth *string `json:"policyHolderDateOfBirth" validate:"omitempty,datetime=2006-01-02"`
}

type LoginRequest struct {
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password" validate:"required"`
	HealthCareNumber string `json:"healthCareNumber" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email            string `json:"email" validate:"required,email"`
	HealthCareNumber string `json:"healthCareNumber" validate:"required"`
}

// ResetPasswordRequest leaves the confirmation comparison to the service so
// that it is reported after the code checks.
type ResetPasswordRequest struct {
	Email            string `json:"email" validate:"required,email"`
	HealthCareNumber string `json:"healthCareNumber" validate:"required"`
	OTP              string `json:"otp" validate:"required"`
	NewPassword      string `json:"newPassword" validate:"required,password"`
	ConfirmPassword  string `json:"confirmPassword" validate:"required"`
}

type PatientResponse struct {
	HealthCareNumber string `json:"healthCareNumber"`
	RegistrationDate string `json:"registrationDate"`
	RegistrationTime string `json:"registrationTime"`

	PatientFirstName string `json:"patientFirstName"`
	PatientLastName  string `json:"patientLastName"`
	Sex              string `json:"sex"`
	BirthMonth       string `json:"birthMonth"`
	BirthDay         int    `json:"birthDay"`
	BirthYear        int    `json:"birthYear"`
	IsYoungerThan18  bool   `json:"isYoungerThan18"`

	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`

	StreetAddress      string  `json:"streetAddress"`
	StreetAddressLine2 *string `json:"streetAddressLine2"`
	City               *string `json:"city"`
	StateOrProvince    string  `json:"stateOrProvince"`
	PostalOrZipCode    *string `json:"postalOrZipCode"`

	MaritalStatus string `json:"maritalStatus"`

	EmergencyContactFirstName    string `json:"emergencyContactFirstName"`
	EmergencyContactLastName     string `json:"emergencyContactLastName"`
	EmergencyContactRelationship string `json:"emergencyContactRelationship"`
	EmergencyContactPhoneNumber  string `json:"emergencyContactPhoneNumber"`

	FamilyDoctorFirstName   *string `json:"familyDoctorFirstName"`
	FamilyDoctorLastName    *string `json:"familyDoctorLastName"`
	FamilyDoctorPhoneNumber *string `json:"familyDoctorPhoneNumber"`
	PreferredPharmacy       *string `json:"preferredPharmacy"`
	PharmacyPhoneNumber     *string `json:"pharmacyPhoneNumber"`

	ReasonForRegistration string  `json:"reasonForRegistration"`
	AdditionalNotes       *string `json:"additionalNotes"`
	TakingMedications     bool    `json:"takingMedications"`

	InsuranceCompany        *string `json:"insuranceCompany"`
	InsuranceID             string  `json:"insuranceID"`
	PolicyHolderFirstName   *string `json:"policyHolderFirstName"`
	PolicyHolderLastName    *string `json:"policyHolderLastName"`
	PolicyHolderDateOfBirth *string `json:"policyHolderDateOfBirth"`
}

type LoginResponse struct {
	PatientFirstName string `json:"patientFirstName"`
	PatientLastName  string `json:"patientLastName"`
}

func (r *RegisterRequest) toEntity() (*domainPatient.Patient, error) {
	p := &domainPatient.Patient{
		FirstName:                    r.PatientFirstName,
		LastName:                     r.PatientLastName,
		Sex:                          domainPatient.Sex(r.Sex),
		BirthMonth:                   r.BirthMonth,
		BirthDay:                     r.BirthDay,
		BirthYear:                    r.BirthYear,
		IsYoungerThan18:              r.IsYoungerThan18,
		PhoneNumber:                  r.PhoneNumber,
		Email:                        r.Email,
		StreetAddress:                r.StreetAddress,
		StreetAddressLine2:           r.StreetAddressLine2,
		City:                         r.City,
		StateOrProvince:              r.StateOrProvince,
		PostalOrZipCode:              r.PostalOrZipCode,
		MaritalStatus:                domainPatient.MaritalStatus(r.MaritalStatus),
		EmergencyContactFirstName:    r.EmergencyContactFirstName,
		EmergencyContactLastName:     r.EmergencyContactLastName,
		EmergencyContactRelationship: r.EmergencyContactRelationship,
		EmergencyContactPhoneNumber:  r.EmergencyContactPhoneNumber,
		FamilyDoctorFirstName:        r.FamilyDoctorFirstName,
		FamilyDoctorLastName:         r.FamilyDoctorLastName,
		FamilyDoctorPhoneNumber:      r.FamilyDoctorPhoneNumber,
		PreferredPharmacy:            r.PreferredPharmacy,
		PharmacyPhoneNumber:          r.PharmacyPhoneNumber,
		ReasonForRegistration:        r.ReasonForRegistration,
		AdditionalNotes:              r.AdditionalNotes,
		TakingMedications:            r.TakingMedications,
		InsuranceCompany:             r.InsuranceCompany,
		InsuranceID:                  r.InsuranceID,
		PolicyHolderFirstName:        r.PolicyHolderFirstName,
		PolicyHolderLastName:         r.PolicyHolderLastName,
	}

	if r.PolicyHolderDateOfBirth != nil {
		dob, err := time.Parse(dateLayout, *r.PolicyHolderDateOfBirth)
		if err != nil {
			return nil, fmt.Errorf("invalid policy holder date of birth: %w", err)
		}
		p.PolicyHolderDateOfBirth = &dob
	}

	return p, nil
}

func ToPatientResponse(p *domainPatient.Patient) *PatientResponse {
	if p == nil {
		return nil
	}

	resp := &PatientResponse{
		HealthCareNumber:             p.HealthCareNumber,
		RegistrationDate:             p.RegistrationDate.Format(dateLayout),
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
	}

	if p.PolicyHolderDateOfBirth != nil {
		dob := p.PolicyHolderDateOfBirth.Format(dateLayout)
		resp.PolicyHolderDateOfBirth = &dob
	}

	return resp
}
