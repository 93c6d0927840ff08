package email

import (
	"context"
)

// Service sends transactional mail to end users.
type Service interface {
	SendOTP(ctx context.Context, email, name, otp string) error
	SendWelcome(ctx context.Context, email, name string) error
	SendCustom(ctx context.Context, to, subject, content string) error
}
