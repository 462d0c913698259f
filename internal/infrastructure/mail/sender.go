package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"patient-registration/internal/config"
	"patient-registration/internal/logger"
)

const otpSubject = "Your OTP for Password Reset"

// SMTPSender delivers reset codes over SMTP
type SMTPSender struct {
	client    *gomail.Client
	from      string
	resetLink string
}

func NewSMTPSender(cfg *config.Config) (*SMTPSender, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.SMTP.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(cfg.SMTP.SendTimeout()),
	}
	if cfg.SMTP.User != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.SMTP.User),
			gomail.WithPassword(cfg.SMTP.Password),
		)
	}

	client, err := gomail.NewClient(cfg.SMTP.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	from := cfg.SMTP.From
	if from == "" {
		from = cfg.SMTP.User
	}

	return &SMTPSender{
		client:    client,
		from:      from,
		resetLink: cfg.Reset.Link,
	}, nil
}

func (s *SMTPSender) SendOTP(ctx context.Context, email, code string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(email); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(otpSubject)
	msg.SetBodyString(gomail.TypeTextPlain, otpBody(code, s.resetLink))

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send OTP email: %w", err)
	}

	logger.Info("OTP email sent", zap.String("event", "otp_email_sent"))
	return nil
}

// LogSender stands in for SMTP in development. It writes the code to the
// debug log instead of mailing it.
type LogSender struct {
	resetLink string
}

func NewLogSender(cfg *config.Config) *LogSender {
	return &LogSender{resetLink: cfg.Reset.Link}
}

func (s *LogSender) SendOTP(ctx context.Context, email, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	logger.Debug("OTP email not sent, SMTP is not configured",
		zap.String("to", email),
		zap.String("subject", otpSubject),
		zap.String("body", otpBody(code, s.resetLink)),
	)
	return nil
}

func otpBody(code, resetLink string) string {
	return fmt.Sprintf("Your OTP is: %s\nReset Password Link: %s", code, resetLink)
}
