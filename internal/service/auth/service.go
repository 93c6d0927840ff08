package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/bloodsight/bloodsight-api/internal/email"
	"github.com/bloodsight/bloodsight-api/internal/model"
	"github.com/bloodsight/bloodsight-api/internal/repository"
	"github.com/bloodsight/bloodsight-api/internal/service/event"
	"github.com/bloodsight/bloodsight-api/pkg/auth"
	"github.com/bloodsight/bloodsight-api/pkg/logger"
	"github.com/bloodsight/bloodsight-api/pkg/security"
)

const (
	otpExpiry        = 10 * time.Minute
	maxLoginAttempts = 5
	lockoutDuration  = 15 * time.Minute
)

type Service struct {
	userRepo repository.UserRepository
	otpRepo  repository.OTPRepository
	jwtSvc   auth.JWTService
	hasher   security.PasswordHasher
	emailSvc email.Service
	events   *event.EventService
	logger   *logger.Logger

	// revoked holds logged-out tokens until their natural expiry.
	revoked *gocache.Cache
}

func NewService(userRepo repository.UserRepository, otpRepo repository.OTPRepository,
	jwtSvc auth.JWTService, hasher security.PasswordHasher, emailSvc email.Service,
	events *event.EventService, logger *logger.Logger) *Service {
	return &Service{
		userRepo: userRepo,
		otpRepo:  otpRepo,
		jwtSvc:   jwtSvc,
		hasher:   hasher,
		emailSvc: emailSvc,
		events:   events,
		logger:   logger,
		revoked:  gocache.New(time.Hour, 10*time.Minute),
	}
}

// Login verifies the credentials and returns a token pair plus the
// authenticated user. A run of failed attempts locks the account for a
// cooldown period.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, *model.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, nil, model.ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if user.Status == model.UserStatusLocked {
		if time.Since(user.LastLoginAttempt) < lockoutDuration {
			return nil, nil, fmt.Errorf("account is locked, please try again later")
		}
		user.Status = model.UserStatusActive
		user.LoginAttempts = 0
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		user.LoginAttempts++
		user.LastLoginAttempt = time.Now()
		if user.LoginAttempts >= maxLoginAttempts {
			user.Status = model.UserStatusLocked
		}
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, nil, fmt.Errorf("failed to update login attempts: %w", err)
		}
		return nil, nil, model.ErrInvalidCredentials
	}

	user.LoginAttempts = 0
	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("failed to update login timestamp: %w", err)
	}

	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate tokens: %w", err)
	}
	return tokens, user, nil
}

// Signup creates the account. The duplicate check is case-insensitive
// on email.
func (s *Service) Signup(ctx context.Context, req *model.SignupRequest) (*model.TokenResponse, *model.User, error) {
	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, model.ErrUserNotFound) {
		return nil, nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, nil, model.ErrEmailTaken
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Base: model.Base{
			ID: uuid.New(),
		},
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         req.Name,
		PasswordHash: hash,
		Phone:        req.Phone,
		DateOfBirth:  req.DateOfBirth,
		Gender:       req.Gender,
		Status:       model.UserStatusActive,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.events != nil {
		if err := s.events.Emit(ctx, model.EventUserCreated, user); err != nil {
			s.logger.Error(err, "failed to emit user.created event")
		}
	}
	if err := s.emailSvc.SendWelcome(ctx, user.Email, user.Name); err != nil {
		s.logger.Error(err, "failed to send welcome email")
	}

	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate tokens: %w", err)
	}
	return tokens, user, nil
}

func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	user, err := s.userRepo.Get(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}
	return tokens, nil
}

// Logout revokes the presented access token for the remainder of its
// lifetime. Refresh tokens are not tracked; the client discards them.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID, token string) error {
	if token != "" {
		if claims, err := s.jwtSvc.ValidateToken(token); err == nil && claims.ExpiresAt != nil {
			if ttl := time.Until(claims.ExpiresAt.Time); ttl > 0 {
				s.revoked.Set(token, struct{}{}, ttl)
			}
		}
	}
	s.logger.Info("user logged out", "user_id", userID.String())
	return nil
}

// IsRevoked reports whether a token was logged out before expiry.
func (s *Service) IsRevoked(token string) bool {
	_, found := s.revoked.Get(token)
	return found
}

// ForgotPassword issues a fresh OTP and mails it. Unknown emails
// return success so the endpoint does not leak which accounts exist.
func (s *Service) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	code, err := generateOTP()
	if err != nil {
		return fmt.Errorf("failed to generate OTP: %w", err)
	}

	otp := &model.PasswordResetOTP{
		ID:        uuid.New(),
		UserID:    user.ID,
		Email:     user.Email,
		OTP:       code,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(otpExpiry),
	}
	if err := s.otpRepo.Store(ctx, otp); err != nil {
		return fmt.Errorf("failed to store OTP: %w", err)
	}

	if err := s.emailSvc.SendOTP(ctx, user.Email, user.Name, code); err != nil {
		return fmt.Errorf("failed to send OTP email: %w", err)
	}
	return nil
}

// VerifyOTP checks the code without consuming it, so the reset form
// can validate before asking for the new password.
func (s *Service) VerifyOTP(ctx context.Context, emailAddr, code string) error {
	otp, err := s.otpRepo.GetActive(ctx, emailAddr, code)
	if err != nil || otp == nil || otp.Expired() {
		return model.ErrInvalidOTP
	}
	return nil
}

// ResetPassword consumes the OTP and replaces the password.
func (s *Service) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return model.ErrPasswordMismatch
	}

	otp, err := s.otpRepo.GetActive(ctx, req.Email, req.OTP)
	if err != nil || otp == nil || otp.Expired() {
		return model.ErrInvalidOTP
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, otp.UserID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if err := s.otpRepo.MarkUsed(ctx, otp.ID); err != nil {
		return fmt.Errorf("failed to mark OTP used: %w", err)
	}

	if s.events != nil {
		if err := s.events.Emit(ctx, model.EventPasswordReset, map[string]interface{}{
			"user_id": otp.UserID,
			"email":   otp.Email,
		}); err != nil {
			s.logger.Error(err, "failed to emit password.reset event")
		}
	}
	return nil
}

func (s *Service) ValidateToken(token string) (*model.TokenClaims, error) {
	return s.jwtSvc.ValidateToken(token)
}

func (s *Service) generateTokens(user *model.User) (*model.TokenResponse, error) {
	accessToken, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwtSvc.GenerateRefreshToken(user)
	if err != nil {
		return nil, err
	}
	return &model.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
