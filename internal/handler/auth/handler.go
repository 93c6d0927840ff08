package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bloodsight/bloodsight-api/internal/model"
	"github.com/bloodsight/bloodsight-api/internal/service/auth"
	"github.com/bloodsight/bloodsight-api/pkg/httputil"
	"github.com/bloodsight/bloodsight-api/pkg/validator"
)

type Handler struct {
	svc      *auth.Service
	validate validator.Validator
}

func NewHandler(svc *auth.Service) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/login", h.Login)
	r.POST("/signup", h.Signup)
	r.POST("/refresh", h.RefreshToken)
	r.POST("/forgot-password", h.ForgotPassword)
	r.POST("/verify-otp", h.VerifyOTP)
	r.POST("/reset-password", h.ResetPassword)
}

func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	r.POST("/logout", h.Logout)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	tokens, user, err := h.svc.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			httputil.Fail(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		httputil.Fail(c, http.StatusUnauthorized, err.Error())
		return
	}

	httputil.OK(c, gin.H{
		"token":         tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"user":          user,
	})
}

func (h *Handler) Signup(c *gin.Context) {
	var req model.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	tokens, user, err := h.svc.Signup(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			httputil.Fail(c, http.StatusConflict, "Email is already registered")
			return
		}
		httputil.Fail(c, http.StatusInternalServerError, "Failed to create account")
		return
	}

	httputil.Created(c, gin.H{
		"token":         tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"user":          user,
	})
}

func (h *Handler) RefreshToken(c *gin.Context) {
	var req model.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	tokens, err := h.svc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		httputil.Fail(c, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	httputil.OK(c, gin.H{
		"token":         tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	userID, _ := c.Get("user_id")
	id, _ := userID.(uuid.UUID)
	token, _ := c.Get("token")
	raw, _ := token.(string)

	if err := h.svc.Logout(c.Request.Context(), id, raw); err != nil {
		httputil.Fail(c, http.StatusInternalServerError, "Failed to log out")
		return
	}
	httputil.OK(c, gin.H{"message": "Logged out successfully"})
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		httputil.Fail(c, http.StatusInternalServerError, "Failed to process request")
		return
	}

	// Same response whether or not the account exists.
	httputil.OK(c, gin.H{"message": "If the email is registered, a reset code has been sent"})
}

func (h *Handler) VerifyOTP(c *gin.Context) {
	var req model.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.validate.ValidateVar("otp", req.OTP, "len=6,numeric"); err != nil {
		httputil.Fail(c, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}

	if err := h.svc.VerifyOTP(c.Request.Context(), req.Email, req.OTP); err != nil {
		httputil.Fail(c, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}
	httputil.OK(c, gin.H{"message": "OTP verified"})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.validate.ValidateVar("otp", req.OTP, "len=6,numeric"); err != nil {
		httputil.Fail(c, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}

	if err := h.svc.ResetPassword(c.Request.Context(), &req); err != nil {
		switch {
		case errors.Is(err, model.ErrPasswordMismatch):
			httputil.Fail(c, http.StatusBadRequest, "Passwords do not match")
		case errors.Is(err, model.ErrInvalidOTP):
			httputil.Fail(c, http.StatusBadRequest, "Invalid or expired OTP")
		default:
			httputil.Fail(c, http.StatusInternalServerError, "Failed to reset password")
		}
		return
	}
	httputil.OK(c, gin.H{"message": "Password reset successfully"})
}
