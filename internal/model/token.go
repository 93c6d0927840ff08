package model

import (
	"time"

	"github.com/google/uuid"
)

// PasswordResetOTP is a single-use 6-digit code mailed to the user
// during the forgot-password flow.
type PasswordResetOTP struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UserID    uuid.UUID  `db:"user_id" json:"user_id"`
	Email     string     `db:"email" json:"email"`
	OTP       string     `db:"otp" json:"-"`
	Used      bool       `db:"used" json:"used"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	UsedAt    *time.Time `db:"used_at" json:"used_at,omitempty"`
}

// Expired reports whether the OTP is past its expiry.
func (t *PasswordResetOTP) Expired() bool {
	return time.Now().After(t.ExpiresAt)
}
