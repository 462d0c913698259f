package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainPatient "patient-registration/internal/domain/patient"
	"patient-registration/internal/logger"
	"patient-registration/internal/middleware"
	"patient-registration/internal/usecase/patient"
	appErrors "patient-registration/pkg/errors"
	"patient-registration/pkg/utils"
)

type PatientHandler struct {
	service *patient.Service
}

func NewPatientHandler(service *patient.Service) *PatientHandler {
	return &PatientHandler{service: service}
}

func (h *PatientHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.POST("/register", h.Register)
		users.POST("/login", h.Login)
		users.POST("/forgot-password", h.ForgotPassword)
		users.POST("/reset-password", h.ResetPassword)
	}
}

func (h *PatientHandler) Register(c *gin.Context) {
	var req patient.RegisterRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	sanitizeRegisterRequest(&req)

	resp, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Registration successful", resp)
}

func (h *PatientHandler) Login(c *gin.Context) {
	var req patient.LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = utils.SanitizeEmail(req.Email)
	req.HealthCareNumber = utils.SanitizeString(req.HealthCareNumber)

	resp, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Login Successful", resp)
}

func (h *PatientHandler) ForgotPassword(c *gin.Context) {
	var req patient.ForgotPasswordRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = utils.SanitizeEmail(req.Email)
	req.HealthCareNumber = utils.SanitizeString(req.HealthCareNumber)

	message, err := h.service.ForgotPassword(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, message, nil)
}

func (h *PatientHandler) ResetPassword(c *gin.Context) {
	var req patient.ResetPasswordRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = utils.SanitizeEmail(req.Email)
	req.HealthCareNumber = utils.SanitizeString(req.HealthCareNumber)
	req.OTP = utils.SanitizeString(req.OTP)

	message, err := h.service.ResetPassword(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, message, nil)
}

// Passwords are left untouched.
func sanitizeRegisterRequest(req *patient.RegisterRequest) {
	req.PatientFirstName = utils.SanitizeString(req.PatientFirstName)
	req.PatientLastName = utils.SanitizeString(req.PatientLastName)
	req.Sex = utils.SanitizeString(req.Sex)
	req.BirthMonth = utils.SanitizeString(req.BirthMonth)
	req.PhoneNumber = utils.SanitizePhone(req.PhoneNumber)
	req.Email = utils.SanitizeEmail(req.Email)

	req.StreetAddress = utils.SanitizeText(req.StreetAddress)
	req.StreetAddressLine2 = utils.SanitizeOptional(req.StreetAddressLine2)
	req.City = utils.SanitizeOptional(req.City)
	req.StateOrProvince = utils.SanitizeString(req.StateOrProvince)
	req.PostalOrZipCode = utils.SanitizeOptional(req.PostalOrZipCode)
	req.MaritalStatus = utils.SanitizeString(req.MaritalStatus)

	req.EmergencyContactFirstName = utils.SanitizeString(req.EmergencyContactFirstName)
	req.EmergencyContactLastName = utils.SanitizeString(req.EmergencyContactLastName)
	req.EmergencyContactRelationship = utils.SanitizeString(req.EmergencyContactRelationship)
	req.EmergencyContactPhoneNumber = utils.SanitizePhone(req.EmergencyContactPhoneNumber)

	req.FamilyDoctorFirstName = utils.SanitizeOptional(req.FamilyDoctorFirstName)
	req.FamilyDoctorLastName = utils.SanitizeOptional(req.FamilyDoctorLastName)
	req.FamilyDoctorPhoneNumber = utils.SanitizeOptional(req.FamilyDoctorPhoneNumber)
	req.PreferredPharmacy = utils.SanitizeOptional(req.PreferredPharmacy)
	req.PharmacyPhoneNumber = utils.SanitizeOptional(req.PharmacyPhoneNumber)

	req.ReasonForRegistration = utils.SanitizeText(req.ReasonForRegistration)
	req.AdditionalNotes = utils.SanitizeOptional(req.AdditionalNotes)

	req.InsuranceCompany = utils.SanitizeOptional(req.InsuranceCompany)
	req.InsuranceID = utils.SanitizeString(req.InsuranceID)
	req.PolicyHolderFirstName = utils.SanitizeOptional(req.PolicyHolderFirstName)
	req.PolicyHolderLastName = utils.SanitizeOptional(req.PolicyHolderLastName)
	req.PolicyHolderDateOfBirth = utils.SanitizeOptional(req.PolicyHolderDateOfBirth)
}

func respondWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var appErr *appErrors.AppError
	switch {
	case errors.As(err, &appErr) && appErr.Code == appErrors.CodeValidation:
		utils.ValidationErrorResponse(c, http.StatusBadRequest, appErr.Message, appErr.Fields)
	case errors.Is(err, domainPatient.ErrInsuranceIDTaken):
		utils.ErrorResponse(c, http.StatusConflict, "Insurance ID already registered")
	case errors.Is(err, domainPatient.ErrDuplicateIdentifier):
		utils.ErrorResponse(c, http.StatusConflict, "Health care number already in use")
	case errors.Is(err, domainPatient.ErrInvalidCredentials):
		utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, domainPatient.ErrPatientNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "User not found with provided email and health care number")
	case errors.Is(err, domainPatient.ErrInvalidOrExpiredOTP):
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid or expired OTP")
	case errors.Is(err, domainPatient.ErrPasswordMismatch):
		utils.ErrorResponse(c, http.StatusBadRequest, "Passwords do not match")
	case errors.Is(err, domainPatient.ErrDeliveryFailed):
		utils.ErrorResponse(c, http.StatusBadGateway, "Failed to send OTP email")
	default:
		requestID := middleware.GetRequestID(c)
		logger.Error("Internal server error",
			zap.String("request_id", requestID),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Error(err),
		)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
	}
}
