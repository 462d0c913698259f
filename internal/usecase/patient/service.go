package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"patient-registration/internal/config"
	domainPatient "patient-registration/internal/domain/patient"
	"patient-registration/internal/logger"
	"patient-registration/pkg/utils"
)

const (
	maxHealthCareNumberAttempts = 5

	MessageOTPSent       = "OTP sent to your email"
	MessagePasswordReset = "Password successfully reset"
)

// Locker serializes read-modify-write sequences on a single record.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Service implements the registration, login and password reset workflow
type Service struct {
	repo     domainPatient.Repository
	notifier domainPatient.Notifier
	events   domainPatient.EventPublisher
	locker   Locker

	otpTTL          time.Duration
	deliveryTimeout time.Duration

	now                 func() time.Time
	newHealthCareNumber func() (string, error)
	newOTP              func() (string, error)
}

// NewService creates a new patient service
func NewService(
	repo domainPatient.Repository,
	notifier domainPatient.Notifier,
	events domainPatient.EventPublisher,
	locker Locker,
	cfg *config.Config,
) *Service {
	return &Service{
		repo:                repo,
		notifier:            notifier,
		events:              events,
		locker:              locker,
		otpTTL:              cfg.Reset.OTPTTL(),
		deliveryTimeout:     cfg.SMTP.SendTimeout(),
		now:                 time.Now,
		newHealthCareNumber: GenerateHealthCareNumber,
		newOTP:              GenerateOTP,
	}
}

func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*PatientResponse, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	p, err := req.toEntity()
	if err != nil {
		return nil, err
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	p.PasswordHashed = hashedPassword

	now := s.now()
	p.RegistrationDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	p.RegistrationTime = now.Format(timeLayout)
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.create(ctx, p); err != nil {
		return nil, err
	}

	logger.Info("Patient registered successfully",
		zap.String("health_care_number", p.HealthCareNumber),
		zap.String("event", "patient_registered"),
	)
	s.publish(ctx, domainPatient.EventRegistered, p.HealthCareNumber)

	return ToPatientResponse(p), nil
}

// create assigns a fresh health care number and inserts, retrying when the
// store reports that the number is already taken.
func (s *Service) create(ctx context.Context, p *domainPatient.Patient) error {
	for attempt := 1; attempt <= maxHealthCareNumberAttempts; attempt++ {
		number, err := s.newHealthCareNumber()
		if err != nil {
			return err
		}
		p.HealthCareNumber = number

		err = s.repo.Create(ctx, p)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, domainPatient.ErrHealthCareNumberTaken):
			logger.Warn("Health care number collision, regenerating",
				zap.Int("attempt", attempt),
				zap.String("event", "health_care_number_collision"),
			)
		case errors.Is(err, domainPatient.ErrInsuranceIDTaken):
			logger.Warn("Registration attempt with existing insurance ID",
				zap.String("event", "registration_failed_duplicate_insurance_id"),
			)
			return err
		default:
			return fmt.Errorf("failed to create patient: %w", err)
		}
	}

	return domainPatient.ErrHealthCareNumberTaken
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByEmailAndHealthCareNumber(ctx, req.Email, req.HealthCareNumber)
	if err != nil {
		if errors.Is(err, domainPatient.ErrPatientNotFound) {
			logger.Warn("Login attempt for unknown patient",
				zap.String("event", "login_failed"),
				zap.String("reason", "not_found"),
			)
			return nil, domainPatient.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to retrieve patient: %w", err)
	}

	if !utils.CheckPassword(p.PasswordHashed, req.Password) {
		logger.Warn("Login attempt with invalid password",
			zap.String("health_care_number", p.HealthCareNumber),
			zap.String("event", "login_failed"),
			zap.String("reason", "invalid_password"),
		)
		return nil, domainPatient.ErrInvalidCredentials
	}

	logger.Info("Patient logged in successfully",
		zap.String("health_care_number", p.HealthCareNumber),
		zap.String("event", "login_success"),
	)
	s.publish(ctx, domainPatient.EventLoginSucceeded, p.HealthCareNumber)

	return &LoginResponse{
		PatientFirstName: p.FirstName,
		PatientLastName:  p.LastName,
	}, nil
}

// ForgotPassword issues a new one-time code, persists it and mails it. A
// persisted code is not rolled back when delivery fails.
func (s *Service) ForgotPassword(ctx context.Context, req *ForgotPasswordRequest) (string, error) {
	if err := ValidateStruct(req); err != nil {
		return "", err
	}

	unlock, err := s.locker.Lock(ctx, lockKey(req.HealthCareNumber))
	if err != nil {
		return "", fmt.Errorf("failed to lock patient record: %w", err)
	}
	defer unlock()

	p, err := s.repo.GetByEmailAndHealthCareNumber(ctx, req.Email, req.HealthCareNumber)
	if err != nil {
		if errors.Is(err, domainPatient.ErrPatientNotFound) {
			logger.Info("Password reset requested for unknown patient",
				zap.String("event", "password_reset_requested_unknown_patient"),
			)
			return "", err
		}
		return "", fmt.Errorf("failed to retrieve patient: %w", err)
	}

	code, err := s.newOTP()
	if err != nil {
		return "", err
	}
	expiresAt := s.now().Add(s.otpTTL)

	if err := s.repo.SaveOTP(ctx, p.HealthCareNumber, code, expiresAt); err != nil {
		return "", fmt.Errorf("failed to save OTP: %w", err)
	}
	p.IssueOTP(code, expiresAt)

	sendCtx, cancel := context.WithTimeout(ctx, s.deliveryTimeout)
	defer cancel()

	if err := s.notifier.SendOTP(sendCtx, p.Email, code); err != nil {
		logger.Error("Failed to deliver OTP",
			zap.String("health_care_number", p.HealthCareNumber),
			zap.String("event", "otp_delivery_failed"),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %v", domainPatient.ErrDeliveryFailed, err)
	}

	logger.Info("OTP issued",
		zap.String("health_care_number", p.HealthCareNumber),
		zap.Time("expires_at", expiresAt),
		zap.String("event", "otp_issued"),
	)
	s.publish(ctx, domainPatient.EventOTPIssued, p.HealthCareNumber)

	return MessageOTPSent, nil
}

// ResetPassword checks the pending code, then the confirmation, and only then
// replaces the password and clears the reset state.
func (s *Service) ResetPassword(ctx context.Context, req *ResetPasswordRequest) (string, error) {
	if err := ValidateStruct(req); err != nil {
		return "", err
	}

	unlock, err := s.locker.Lock(ctx, lockKey(req.HealthCareNumber))
	if err != nil {
		return "", fmt.Errorf("failed to lock patient record: %w", err)
	}
	defer unlock()

	p, err := s.repo.GetByEmailAndHealthCareNumber(ctx, req.Email, req.HealthCareNumber)
	if err != nil {
		if errors.Is(err, domainPatient.ErrPatientNotFound) {
			return "", err
		}
		return "", fmt.Errorf("failed to retrieve patient: %w", err)
	}

	now := s.now()
	if reason, err := p.VerifyOTP(req.OTP, now); err != nil {
		logger.Warn("Password reset rejected",
			zap.String("health_care_number", p.HealthCareNumber),
			zap.String("event", "password_reset_rejected"),
			zap.String("reason", reason),
		)
		return "", err
	}

	if req.NewPassword != req.ConfirmPassword {
		return "", domainPatient.ErrPasswordMismatch
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.CompletePasswordReset(ctx, p.HealthCareNumber, req.OTP, hashedPassword, now); err != nil {
		if errors.Is(err, domainPatient.ErrInvalidOrExpiredOTP) {
			logger.Warn("Password reset rejected",
				zap.String("health_care_number", p.HealthCareNumber),
				zap.String("event", "password_reset_rejected"),
				zap.String("reason", "code_superseded"),
			)
			return "", err
		}
		return "", fmt.Errorf("failed to reset password: %w", err)
	}
	p.ClearOTP()

	logger.Info("Password reset successfully",
		zap.String("health_care_number", p.HealthCareNumber),
		zap.String("event", "password_reset_success"),
	)
	s.publish(ctx, domainPatient.EventPasswordReset, p.HealthCareNumber)

	return MessagePasswordReset, nil
}

func (s *Service) publish(ctx context.Context, eventType domainPatient.EventType, healthCareNumber string) {
	event := domainPatient.Event{
		Type:             eventType,
		HealthCareNumber: healthCareNumber,
		OccurredAt:       s.now(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish audit event",
			zap.String("type", string(eventType)),
			zap.Error(err),
		)
	}
}

func lockKey(healthCareNumber string) string {
	return "patient:" + healthCareNumber
}
