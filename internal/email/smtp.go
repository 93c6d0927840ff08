package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/bloodsight/bloodsight-api/pkg/logger"
)

// Config carries the SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
	logger *logger.Logger
}

// NewSMTPService returns a Service backed by an SMTP relay.
func NewSMTPService(cfg Config, logger *logger.Logger) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger,
	}
}

func (s *smtpService) SendOTP(ctx context.Context, email, name, otp string) error {
	body := fmt.Sprintf(
		"Hello %s,\n\nYour password reset code is: %s\n\nThe code expires in 10 minutes. If you did not request a reset, you can ignore this email.\n",
		name, otp)
	return s.send(ctx, email, "Your password reset code", body)
}

func (s *smtpService) SendWelcome(ctx context.Context, email, name string) error {
	body := fmt.Sprintf(
		"Hello %s,\n\nWelcome aboard. Upload your first blood report to get a personalized analysis.\n",
		name)
	return s.send(ctx, email, "Welcome to BloodSight", body)
}

func (s *smtpService) SendCustom(ctx context.Context, to, subject, content string) error {
	return s.send(ctx, to, subject, content)
}

func (s *smtpService) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	s.logger.WithFields(map[string]interface{}{"to": to, "subject": subject}).Info("email sent")
	return nil
}

// noopService logs instead of sending. Used in development when no
// SMTP relay is configured; the OTP still lands in the logs.
type noopService struct {
	logger *logger.Logger
}

func NewNoopService(logger *logger.Logger) Service {
	return &noopService{logger: logger}
}

func (s *noopService) SendOTP(ctx context.Context, email, name, otp string) error {
	s.logger.WithFields(map[string]interface{}{"to": email, "otp": otp}).Info("email disabled, OTP logged")
	return nil
}

func (s *noopService) SendWelcome(ctx context.Context, email, name string) error {
	s.logger.WithFields(map[string]interface{}{"to": email}).Info("email disabled, welcome skipped")
	return nil
}

func (s *noopService) SendCustom(ctx context.Context, to, subject, content string) error {
	s.logger.WithFields(map[string]interface{}{"to": to, "subject": subject}).Info("email disabled, message skipped")
	return nil
}
