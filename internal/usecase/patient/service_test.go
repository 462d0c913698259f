package patient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"patient-registration/internal/config"
	domainPatient "patient-registration/internal/domain/patient"
	"patient-registration/internal/domain/patient/mocks"
	"patient-registration/internal/infrastructure/lock"
	appErrors "patient-registration/pkg/errors"
	"patient-registration/pkg/utils"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type serviceMocks struct {
	repo     *mocks.MockRepository
	notifier *mocks.MockNotifier
	events   *mocks.MockEventPublisher
}

func newTestService(t *testing.T) (*Service, serviceMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	m := serviceMocks{
		repo:     mocks.NewMockRepository(ctrl),
		notifier: mocks.NewMockNotifier(ctrl),
		events:   mocks.NewMockEventPublisher(ctrl),
	}

	cfg := &config.Config{
		SMTP:  config.SMTPConfig{TimeoutSeconds: 1},
		Reset: config.ResetConfig{OTPTTLMinutes: 15},
	}
	s := NewService(m.repo, m.notifier, m.events, lock.NewLocalLocker(), cfg)
	s.now = func() time.Time { return testNow }
	s.newOTP = func() (string, error) { return "123456", nil }

	return s, m
}

func validRegisterRequest() *RegisterRequest {
	dob := "1960-01-31"
	return &RegisterRequest{
		PatientFirstName:             "Jane",
		PatientLastName:              "Doe",
		Sex:                          "Female",
		BirthMonth:                   "March",
		BirthDay:                     14,
		BirthYear:                    1990,
		PhoneNumber:                  "(555) 123-4567",
		Email:                        "jane@example.com",
		Password:                     "Passw0rd!",
		StreetAddress:                "1 Main St",
		StateOrProvince:              "Ontario",
		MaritalStatus:                "Single",
		EmergencyContactFirstName:    "John",
		EmergencyContactLastName:     "Doe",
		EmergencyContactRelationship: "Brother",
		EmergencyContactPhoneNumber:  "(555) 765-4321",
		ReasonForRegistration:        "Checkup",
		InsuranceID:                  "H123456789",
		PolicyHolderDateOfBirth:      &dob,
	}
}

func storedPatient(t *testing.T, password string) *domainPatient.Patient {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)
	return &domainPatient.Patient{
		HealthCareNumber: "00000000000001",
		FirstName:        "Jane",
		LastName:         "Doe",
		Email:            "jane@example.com",
		PasswordHashed:   hash,
	}
}

func TestService_Register(t *testing.T) {
	s, m := newTestService(t)
	s.newHealthCareNumber = func() (string, error) { return "00000000000042", nil }

	var created *domainPatient.Patient
	m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p *domainPatient.Patient) error {
			created = p
			return nil
		})
	m.events.EXPECT().Publish(gomock.Any(), domainPatient.Event{
		Type:             domainPatient.EventRegistered,
		HealthCareNumber: "00000000000042",
		OccurredAt:       testNow,
	}).Return(nil)

	resp, err := s.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	assert.Equal(t, "00000000000042", resp.HealthCareNumber)
	assert.Equal(t, "2024-05-01", resp.RegistrationDate)
	assert.Equal(t, "12:00", resp.RegistrationTime)
	require.NotNil(t, resp.PolicyHolderDateOfBirth)
	assert.Equal(t, "1960-01-31", *resp.PolicyHolderDateOfBirth)

	require.NotNil(t, created)
	assert.NotEqual(t, "Passw0rd!", created.PasswordHashed)
	assert.True(t, utils.CheckPassword(created.PasswordHashed, "Passw0rd!"))
	assert.Nil(t, created.OTP)
	assert.Nil(t, created.OTPExpiresAt)
}

func TestService_Register_RetriesOnNumberCollision(t *testing.T) {
	s, m := newTestService(t)

	numbers := []string{"00000000000001", "00000000000002"}
	s.newHealthCareNumber = func() (string, error) {
		n := numbers[0]
		numbers = numbers[1:]
		return n, nil
	}

	gomock.InOrder(
		m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(domainPatient.ErrHealthCareNumberTaken),
		m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil),
	)
	m.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	resp, err := s.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)
	assert.Equal(t, "00000000000002", resp.HealthCareNumber)
}

func TestService_Register_GivesUpAfterRepeatedCollisions(t *testing.T) {
	s, m := newTestService(t)

	m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(domainPatient.ErrHealthCareNumberTaken).
		Times(maxHealthCareNumberAttempts)

	_, err := s.Register(context.Background(), validRegisterRequest())
	assert.ErrorIs(t, err, domainPatient.ErrDuplicateIdentifier)
}

func TestService_Register_DuplicateInsuranceID(t *testing.T) {
	s, m := newTestService(t)
	m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(domainPatient.ErrInsuranceIDTaken)

	_, err := s.Register(context.Background(), validRegisterRequest())
	assert.ErrorIs(t, err, domainPatient.ErrInsuranceIDTaken)
}

func TestService_Register_ValidationFailed(t *testing.T) {
	s, _ := newTestService(t)

	req := validRegisterRequest()
	req.InsuranceID = "123456789"
	req.PhoneNumber = "555-123-4567"

	_, err := s.Register(context.Background(), req)

	var appErr *appErrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Fields, "insuranceID")
	assert.Contains(t, appErr.Fields, "phoneNumber")
}

func TestService_Register_EventFailureIgnored(t *testing.T) {
	s, m := newTestService(t)
	m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	m.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	_, err := s.Register(context.Background(), validRegisterRequest())
	assert.NoError(t, err)
}

func TestService_Login(t *testing.T) {
	tests := []struct {
		name     string
		found    *domainPatient.Patient
		findErr  error
		password string
		wantErr  error
	}{
		{"success", storedPatient(t, "Passw0rd!"), nil, "Passw0rd!", nil},
		{"wrong password", storedPatient(t, "Passw0rd!"), nil, "Wrong0rd!", domainPatient.ErrInvalidCredentials},
		{"unknown patient", nil, domainPatient.ErrPatientNotFound, "Passw0rd!", domainPatient.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, m := newTestService(t)
			m.repo.EXPECT().
				GetByEmailAndHealthCareNumber(gomock.Any(), "jane@example.com", "00000000000001").
				Return(tt.found, tt.findErr)
			if tt.wantErr == nil {
				m.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
			}

			resp, err := s.Login(context.Background(), &LoginRequest{
				Email:            "jane@example.com",
				Password:         tt.password,
				HealthCareNumber: "00000000000001",
			})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, resp)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, &LoginResponse{PatientFirstName: "Jane", PatientLastName: "Doe"}, resp)
		})
	}
}

func TestService_Login_StoreFailure(t *testing.T) {
	s, m := newTestService(t)
	m.repo.EXPECT().GetByEmailAndHealthCareNumber(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection reset"))

	_, err := s.Login(context.Background(), &LoginRequest{
		Email: "jane@example.com", Password: "x", HealthCareNumber: "00000000000001",
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domainPatient.ErrInvalidCredentials)
}

func TestService_ForgotPassword(t *testing.T) {
	s, m := newTestService(t)
	p := storedPatient(t, "Passw0rd!")

	gomock.InOrder(
		m.repo.EXPECT().GetByEmailAndHealthCareNumber(gomock.Any(), "jane@example.com", "00000000000001").Return(p, nil),
		m.repo.EXPECT().SaveOTP(gomock.Any(), "00000000000001", "123456", testNow.Add(15*time.Minute)).Return(nil),
		m.notifier.EXPECT().SendOTP(gomock.Any(), "jane@example.com", "123456").DoAndReturn(
			func(ctx context.Context, _, _ string) error {
				_, hasDeadline := ctx.Deadline()
				assert.True(t, hasDeadline)
				return nil
			}),
	)
	m.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	msg, err := s.ForgotPassword(context.Background(), &ForgotPasswordRequest{
		Email:            "jane@example.com",
		HealthCareNumber: "00000000000001",
	})
	require.NoError(t, err)
	assert.Equal(t, MessageOTPSent, msg)
}

func TestService_ForgotPassword_NotFound(t *testing.T) {
	s, m := newTestService(t)
	m.repo.EXPECT().GetByEmailAndHealthCareNumber(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, domainPatient.ErrPatientNotFound)

	_, err := s.ForgotPassword(context.Background(), &ForgotPasswordRequest{
		Email:            "jane@example.com",
		HealthCareNumber: "00000000000001",
	})
	assert.ErrorIs(t, err, domainPatient.ErrPatientNotFound)
}

func TestService_ForgotPassword_DeliveryFailedKeepsCode(t *testing.T) {
	s, m := newTestService(t)
	p := storedPatient(t, "Passw0rd!")

	m.repo.EXPECT().GetByEmailAndHealthCareNumber(gomock.Any(), gomock.Any(), gomock.Any()).Return(p, nil)
	m.repo.EXPECT().SaveOTP(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	m.notifier.EXPECT().SendOTP(gomock.Any(), gomock.Any(), gomock.Any()).Return(context.DeadlineExceeded)

	_, err := s.ForgotPassword(context.Background(), &ForgotPasswordRequest{
		Email:            "jane@example.com",
		HealthCareNumber: "00000000000001",
	})
	assert.ErrorIs(t, err, domainPatient.ErrDeliveryFailed)
}

func TestService_ResetPassword(t *testing.T) {
	code := "123456"
	future := testNow.Add(time.Minute)
	past := testNow.Add(-time.Minute)

	tests := []struct {
		name       string
		otp        *string
		expiresAt  *time.Time
		submitted  string
		confirm    string
		completeOK bool
		wantErr    error
	}{
		{"no pending code", nil, nil, "123456", "NewPass1!", false, domainPatient.ErrInvalidOrExpiredOTP},
		{"wrong code", &code, &future, "654321", "NewPass1!", false, domainPatient.ErrInvalidOrExpiredOTP},
		{"expired code", &code, &past, "123456", "NewPass1!", false, domainPatient.ErrInvalidOrExpiredOTP},
		{"expired code with mismatched confirmation", &code, &past, "123456", "Other1!x", false, domainPatient.ErrInvalidOrExpiredOTP},
		{"confirmation mismatch", &code, &future, "123456", "NewPass2!", false, domainPatient.ErrPasswordMismatch},
		{"success", &code, &future, "123456", "NewPass1!", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, m := newTestService(t)
			p := storedPatient(t, "Passw0rd!")
			p.OTP = tt.otp
			p.OTPExpiresAt = tt.expiresAt

			m.repo.EXPECT().GetByEmailAndHealthCareNumber(gomock.Any(), "jane@example.com", "00000000000001").Return(p, nil)
			if tt.completeOK {
				m.repo.EXPECT().CompletePasswordReset(gomock.Any(), "00000000000001", "123456", gomock.Any(), testNow).
					DoAndReturn(func(_ context.Context, _, _, hash string, _ time.Time) error {
						assert.True(t, utils.CheckPassword(hash, "NewPass1!"))
						return nil
					})
				m.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
			}

			msg, err := s.ResetPassword(context.Background(), &ResetPasswordRequest{
				Email:            "jane@example.com",
				HealthCareNumber: "00000000000001",
				OTP:              tt.submitted,
				NewPassword:      "NewPass1!",
				ConfirmPassword:  tt.confirm,
			})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, MessagePasswordReset, msg)
		})
	}
}

func TestService_ResetPassword_CodeSupersededDuringReset(t *testing.T) {
	s, m := newTestService(t)
	p := storedPatient(t, "Passw0rd!")
	p.IssueOTP("123456", testNow.Add(time.Minute))

	m.repo.EXPECT().GetByEmailAndHealthCareNumber(gomock.Any(), gomock.Any(), gomock.Any()).Return(p, nil)
	m.repo.EXPECT().CompletePasswordReset(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domainPatient.ErrInvalidOrExpiredOTP)

	_, err := s.ResetPassword(context.Background(), &ResetPasswordRequest{
		Email:            "jane@example.com",
		HealthCareNumber: "00000000000001",
		OTP:              "123456",
		NewPassword:      "NewPass1!",
		ConfirmPassword:  "NewPass1!",
	})
	assert.ErrorIs(t, err, domainPatient.ErrInvalidOrExpiredOTP)
}

func TestService_ResetPassword_WeakPassword(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.ResetPassword(context.Background(), &ResetPasswordRequest{
		Email:            "jane@example.com",
		HealthCareNumber: "00000000000001",
		OTP:              "123456",
		NewPassword:      "password",
		ConfirmPassword:  "password",
	})

	var appErr *appErrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "newPassword")
}
