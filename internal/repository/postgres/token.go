package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bloodsight/bloodsight-api/internal/model"
	"github.com/bloodsight/bloodsight-api/internal/repository"
)

type otpRepository struct {
	BaseRepository
}

func NewOTPRepository(base BaseRepository) repository.OTPRepository {
	return &otpRepository{base}
}

// Store invalidates earlier codes for the same email and inserts the
// new one, so only the most recent OTP is redeemable.
func (r *otpRepository) Store(ctx context.Context, otp *model.PasswordResetOTP) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		invalidate := `
			UPDATE password_reset_otps
			SET used = TRUE, used_at = NOW()
			WHERE LOWER(email) = LOWER($1) AND used = FALSE
		`
		if _, err := tx.ExecContext(ctx, invalidate, otp.Email); err != nil {
			return fmt.Errorf("failed to invalidate previous OTPs: %w", err)
		}

		insert := `
			INSERT INTO password_reset_otps (
				id, user_id, email, otp, used, created_at, expires_at
			) VALUES ($1, $2, $3, $4, FALSE, NOW(), $5)
		`
		otp.ID = uuid.New()
		_, err := tx.ExecContext(ctx, insert, otp.ID, otp.UserID, otp.Email, otp.OTP, otp.ExpiresAt)
		return err
	})
}

func (r *otpRepository) GetActive(ctx context.Context, email, code string) (*model.PasswordResetOTP, error) {
	query := `
		SELECT id, user_id, email, otp, used, created_at, expires_at, used_at
		FROM password_reset_otps
		WHERE LOWER(email) = LOWER($1)
		AND otp = $2
		AND used = FALSE
		AND expires_at > NOW()
		ORDER BY created_at DESC
		LIMIT 1
	`

	var otp model.PasswordResetOTP
	if err := r.db.GetContext(ctx, &otp, query, email, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrInvalidOTP
		}
		return nil, fmt.Errorf("failed to look up OTP: %w", err)
	}

	return &otp, nil
}

func (r *otpRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE password_reset_otps
		SET used = TRUE, used_at = $1
		WHERE id = $2 AND used = FALSE
	`

	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark OTP used: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrInvalidOTP
	}

	return nil
}

func (r *otpRepository) InvalidateForEmail(ctx context.Context, email string) error {
	query := `
		UPDATE password_reset_otps
		SET used = TRUE, used_at = NOW()
		WHERE LOWER(email) = LOWER($1) AND used = FALSE
	`

	_, err := r.db.ExecContext(ctx, query, email)
	if err != nil {
		return fmt.Errorf("failed to invalidate OTPs: %w", err)
	}

	return nil
}
