package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"patient-registration/internal/config"
	"patient-registration/internal/infrastructure/database/postgres"
	"patient-registration/internal/infrastructure/events"
	"patient-registration/internal/infrastructure/lock"
)

type captureNotifier struct {
	mu    sync.Mutex
	email string
	code  string
	err   error
}

func (n *captureNotifier) SendOTP(_ context.Context, email, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.email = email
	n.code = code
	return n.err
}

func (n *captureNotifier) lastCode() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.code
}

type apiResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    map[string]any    `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func newTestRouter(t *testing.T, notifier *captureNotifier) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	db := &postgres.DB{DB: gormDB}
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{
		Server: config.ServerConfig{Environment: "test"},
		SMTP:   config.SMTPConfig{TimeoutSeconds: 5},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"http://localhost:4200"},
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"*"},
		},
		Reset: config.ResetConfig{OTPTTLMinutes: 15, LockTTLSeconds: 30},
	}

	return SetupRoutes(cfg, Dependencies{
		DB:       db,
		Notifier: notifier,
		Events:   events.NoopPublisher{},
		Locker:   lock.NewLocalLocker(),
	})
}

func doJSON(t *testing.T, r *gin.Engine, path string, body any) (int, apiResponse) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func registrationBody(insuranceID string) map[string]any {
	return map[string]any{
		"patientFirstName":             "Jane",
		"patientLastName":              "Doe",
		"sex":                          "Female",
		"birthMonth":                   "March",
		"birthDay":                     14,
		"birthYear":                    1990,
		"isYoungerThan18":              false,
		"phoneNumber":                  "(555) 123-4567",
		"email":                        "Jane@Example.com",
		"password":                     "Passw0rd!",
		"streetAddress":                "1 Main St",
		"city":                         "Toronto",
		"stateOrProvince":              "Ontario",
		"postalOrZipCode":              "",
		"maritalStatus":                "Single",
		"emergencyContactFirstName":    "John",
		"emergencyContactLastName":     "Doe",
		"emergencyContactRelationship": "Brother",
		"emergencyContactPhoneNumber":  "(555) 765-4321",
		"familyDoctorPhoneNumber":      "",
		"reasonForRegistration":        "Annual checkup",
		"takingMedications":            false,
		"insuranceID":                  insuranceID,
		"policyHolderDateOfBirth":      "1960-01-31",
	}
}

func register(t *testing.T, r *gin.Engine, insuranceID string) string {
	t.Helper()

	code, resp := doJSON(t, r, "/api/users/register", registrationBody(insuranceID))
	require.Equal(t, http.StatusCreated, code, resp.Message)

	hcn, ok := resp.Data["healthCareNumber"].(string)
	require.True(t, ok)
	return hcn
}

func TestPasswordResetFlow(t *testing.T) {
	notifier := &captureNotifier{}
	r := newTestRouter(t, notifier)

	hcn := register(t, r, "H123456789")
	assert.Len(t, hcn, 14)

	code, resp := doJSON(t, r, "/api/users/forgot-password", map[string]any{
		"email":            "jane@example.com",
		"healthCareNumber": hcn,
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OTP sent to your email", resp.Message)
	assert.Equal(t, "jane@example.com", notifier.email)
	require.Len(t, notifier.lastCode(), 6)

	code, resp = doJSON(t, r, "/api/users/reset-password", map[string]any{
		"email":            "jane@example.com",
		"healthCareNumber": hcn,
		"otp":              notifier.lastCode(),
		"newPassword":      "NewPass1!",
		"confirmPassword":  "NewPass1!",
	})
	require.Equal(t, http.StatusOK, code, resp.Message)
	assert.Equal(t, "Password successfully reset", resp.Message)

	code, resp = doJSON(t, r, "/api/users/login", map[string]any{
		"email":            "jane@example.com",
		"healthCareNumber": hcn,
		"password":         "NewPass1!",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Login Successful", resp.Message)
	assert.Equal(t, "Jane", resp.Data["patientFirstName"])
	assert.Equal(t, "Doe", resp.Data["patientLastName"])

	code, _ = doJSON(t, r, "/api/users/login", map[string]any{
		"email":            "jane@example.com",
		"healthCareNumber": hcn,
		"password":         "Passw0rd!",
	})
	assert.Equal(t, http.StatusUnauthorized, code)

	// the code was consumed
	code, resp = doJSON(t, r, "/api/users/reset-password", map[string]any{
		"email":            "jane@example.com",
		"healthCareNumber": hcn,
		"otp":              notifier.lastCode(),
		"newPassword":      "Another1!",
		"confirmPassword":  "Another1!",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid or expired OTP", resp.Message)
}

func TestRegister_ResponseOmitsSecrets(t *testing.T) {
	r := newTestRouter(t, &captureNotifier{})

	code, resp := doJSON(t, r, "/api/users/register", registrationBody("H123456789"))
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "Registration successful", resp.Message)
	assert.NotContains(t, resp.Data, "password")
	assert.NotContains(t, resp.Data, "passwordHashed")
	assert.NotContains(t, resp.Data, "otp")
	assert.Equal(t, "jane@example.com", resp.Data["email"])
	assert.Equal(t, "1960-01-31", resp.Data["policyHolderDateOfBirth"])
	assert.Nil(t, resp.Data["postalOrZipCode"])
}

func TestRegister_ValidationErrors(t *testing.T) {
	r := newTestRouter(t, &captureNotifier{})

	body := registrationBody("X123")
	body["password"] = "weak"
	body["sex"] = "Other"

	code, resp := doJSON(t, r, "/api/users/register", body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, resp.Success)
	assert.Equal(t, "Validation errors", resp.Message)
	assert.Contains(t, resp.Errors, "insuranceID")
	assert.Contains(t, resp.Errors, "password")
	assert.Contains(t, resp.Errors, "sex")
}

func TestRegister_DuplicateInsuranceID(t *testing.T) {
	r := newTestRouter(t, &captureNotifier{})
	register(t, r, "H123456789")

	code, resp := doJSON(t, r, "/api/users/register", registrationBody("H123456789"))
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, resp.Success)
}

func TestRegister_MalformedBody(t *testing.T) {
	r := newTestRouter(t, &captureNotifier{})

	req := httptest.NewRequest(http.MethodPost, "/api/users/register", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request body")
}

func TestForgotPassword_Errors(t *testing.T) {
	notifier := &captureNotifier{}
	r := newTestRouter(t, notifier)
	hcn := register(t, r, "H123456789")

	code, _ := doJSON(t, r, "/api/users/forgot-password", map[string]any{
		"email":            "someone@example.com",
		"healthCareNumber": hcn,
	})
	assert.Equal(t, http.StatusNotFound, code)

	notifier.err = errors.New("smtp down")
	code, resp := doJSON(t, r, "/api/users/forgot-password", map[string]any{
		"email":            "jane@example.com",
		"healthCareNumber": hcn,
	})
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "Failed to send OTP email", resp.Message)
}

func TestResetPassword_Errors(t *testing.T) {
	notifier := &captureNotifier{}
	r := newTestRouter(t, notifier)
	hcn := register(t, r, "H123456789")

	resetBody := func(otp, newPassword, confirm string) map[string]any {
		return map[string]any{
			"email":            "jane@example.com",
			"healthCareNumber": hcn,
			"otp":              otp,
			"newPassword":      newPassword,
			"confirmPassword":  confirm,
		}
	}

	// no code pending
	code, _ := doJSON(t, r, "/api/users/reset-password", resetBody("123456", "NewPass1!", "NewPass1!"))
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = doJSON(t, r, "/api/users/forgot-password", map[string]any{
		"email":            "jane@example.com",
		"healthCareNumber": hcn,
	})
	require.Equal(t, http.StatusOK, code)
	issued := notifier.lastCode()

	wrong := "100000"
	if issued == wrong {
		wrong = "100001"
	}
	code, resp := doJSON(t, r, "/api/users/reset-password", resetBody(wrong, "NewPass1!", "NewPass1!"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid or expired OTP", resp.Message)

	code, resp = doJSON(t, r, "/api/users/reset-password", resetBody(issued, "NewPass1!", "NewPass2!"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Passwords do not match", resp.Message)

	code, resp = doJSON(t, r, "/api/users/reset-password", resetBody(issued, "short", "short"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Errors, "newPassword")

	// a failed attempt leaves the code usable
	code, _ = doJSON(t, r, "/api/users/reset-password", resetBody(issued, "NewPass1!", "NewPass1!"))
	assert.Equal(t, http.StatusOK, code)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, &captureNotifier{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestRegister_StoresNamesAsSubmitted(t *testing.T) {
	r := newTestRouter(t, &captureNotifier{})

	body := registrationBody("H123456789")
	body["patientFirstName"] = "O'Brien"
	body["patientLastName"] = "Smith & Jones"

	code, resp := doJSON(t, r, "/api/users/register", body)
	require.Equal(t, http.StatusCreated, code, resp.Errors)
	assert.Equal(t, "O'Brien", resp.Data["patientFirstName"])
	assert.Equal(t, "Smith & Jones", resp.Data["patientLastName"])
	hcn := resp.Data["healthCareNumber"].(string)

	code, resp = doJSON(t, r, "/api/users/login", map[string]any{
		"email":            "jane@example.com",
		"healthCareNumber": hcn,
		"password":         "Passw0rd!",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "O'Brien", resp.Data["patientFirstName"])
	assert.Equal(t, "Smith & Jones", resp.Data["patientLastName"])
}

func TestRegister_LengthLimitsApplyToSubmittedText(t *testing.T) {
	r := newTestRouter(t, &captureNotifier{})

	body := registrationBody("H123456789")
	body["patientFirstName"] = strings.Repeat("a", 51) + "&"

	code, resp := doJSON(t, r, "/api/users/register", body)
	require.Equal(t, http.StatusCreated, code, resp.Errors)
	assert.Equal(t, body["patientFirstName"], resp.Data["patientFirstName"])
}

func TestLogin_RejectsAnyWrongField(t *testing.T) {
	r := newTestRouter(t, &captureNotifier{})
	hcn := register(t, r, "H123456789")

	otherHCN := "00000000000000"
	if hcn == otherHCN {
		otherHCN = "00000000000001"
	}

	tests := []struct {
		name     string
		email    string
		hcn      string
		password string
	}{
		{"wrong email", "someone@example.com", hcn, "Passw0rd!"},
		{"wrong health care number", "jane@example.com", otherHCN, "Passw0rd!"},
		{"wrong password", "jane@example.com", hcn, "Wrong0rd!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := doJSON(t, r, "/api/users/login", map[string]any{
				"email":            tt.email,
				"healthCareNumber": tt.hcn,
				"password":         tt.password,
			})
			assert.Equal(t, http.StatusUnauthorized, code)
			assert.Equal(t, "Invalid credentials", resp.Message)
			assert.Nil(t, resp.Data)
		})
	}

	code, _ := doJSON(t, r, "/api/users/login", map[string]any{
		"email":            "jane@example.com",
		"healthCareNumber": hcn,
		"password":         "Passw0rd!",
	})
	assert.Equal(t, http.StatusOK, code)
}
