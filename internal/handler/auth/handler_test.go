package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloodsight/bloodsight-api/internal/model"
	authsvc "github.com/bloodsight/bloodsight-api/internal/service/auth"
	pkgauth "github.com/bloodsight/bloodsight-api/pkg/auth"
	"github.com/bloodsight/bloodsight-api/pkg/logger"
	"github.com/bloodsight/bloodsight-api/pkg/security"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[strings.ToLower(user.Email)] = user
	return nil
}

func (r *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[strings.ToLower(email)]; ok {
		return u, nil
	}
	return nil, model.ErrUserNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	return r.Create(ctx, user)
}

func (r *fakeUserRepo) UpdateProfile(ctx context.Context, id uuid.UUID, req *model.UpdateProfileRequest) (*model.User, error) {
	return r.Get(ctx, id)
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	u, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

type fakeOTPRepo struct {
	mu   sync.Mutex
	otps []*model.PasswordResetOTP
}

func (r *fakeOTPRepo) Store(ctx context.Context, otp *model.PasswordResetOTP) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.otps {
		if strings.EqualFold(o.Email, otp.Email) {
			o.Used = true
		}
	}
	r.otps = append(r.otps, otp)
	return nil
}

func (r *fakeOTPRepo) GetActive(ctx context.Context, email, code string) (*model.PasswordResetOTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.otps {
		if strings.EqualFold(o.Email, email) && o.OTP == code && !o.Used && !o.Expired() {
			return o, nil
		}
	}
	return nil, model.ErrInvalidOTP
}

func (r *fakeOTPRepo) MarkUsed(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.otps {
		if o.ID == id {
			o.Used = true
		}
	}
	return nil
}

func (r *fakeOTPRepo) InvalidateForEmail(ctx context.Context, email string) error { return nil }

type recordingEmail struct {
	mu   sync.Mutex
	otps map[string]string
}

func (e *recordingEmail) SendOTP(ctx context.Context, email, name, otp string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.otps[email] = otp
	return nil
}

func (e *recordingEmail) SendWelcome(ctx context.Context, email, name string) error { return nil }

func (e *recordingEmail) SendCustom(ctx context.Context, to, subject, content string) error {
	return nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *recordingEmail) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mail := &recordingEmail{otps: make(map[string]string)}
	jwtSvc := pkgauth.NewJWTService(pkgauth.Config{
		Secret:        "test-secret",
		RefreshSecret: "test-refresh-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
	})
	svc := authsvc.NewService(&fakeUserRepo{users: make(map[string]*model.User)}, &fakeOTPRepo{},
		jwtSvc, security.NewBcryptHasher(4), mail, nil, logger.NewLogger(nil))

	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group(""))
	return r, mail
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	return w, parsed
}

func TestSignupAndLogin(t *testing.T) {
	r, _ := newTestRouter(t)

	w, body := postJSON(t, r, "/signup", gin.H{
		"email":    "jane@example.com",
		"password": "password123",
		"name":     "Jane Doe",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, body["refresh_token"])

	user, ok := body["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "jane@example.com", user["email"])

	w, body = postJSON(t, r, "/login", gin.H{
		"email":    "jane@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["token"])
}

func TestSignupDuplicateEmail(t *testing.T) {
	r, _ := newTestRouter(t)

	w, _ := postJSON(t, r, "/signup", gin.H{
		"email":    "jane@example.com",
		"password": "password123",
		"name":     "Jane Doe",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, body := postJSON(t, r, "/signup", gin.H{
		"email":    "Jane@Example.com",
		"password": "different456",
		"name":     "Someone Else",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Email is already registered", body["error"])
}

func TestLoginInvalidCredentials(t *testing.T) {
	r, _ := newTestRouter(t)

	postJSON(t, r, "/signup", gin.H{
		"email":    "jane@example.com",
		"password": "password123",
		"name":     "Jane Doe",
	})

	w, body := postJSON(t, r, "/login", gin.H{
		"email":    "jane@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid email or password", body["error"])

	// Unknown accounts get the same message as bad passwords.
	w, body = postJSON(t, r, "/login", gin.H{
		"email":    "nobody@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid email or password", body["error"])
}

func TestRefreshEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	_, body := postJSON(t, r, "/signup", gin.H{
		"email":    "jane@example.com",
		"password": "password123",
		"name":     "Jane Doe",
	})
	refresh, _ := body["refresh_token"].(string)
	require.NotEmpty(t, refresh)

	w, body := postJSON(t, r, "/refresh", gin.H{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, body["token"])

	w, _ = postJSON(t, r, "/refresh", gin.H{"refresh_token": "not-a-token"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestForgotPasswordSilentForUnknownEmail(t *testing.T) {
	r, mail := newTestRouter(t)

	w, body := postJSON(t, r, "/forgot-password", gin.H{"email": "nobody@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "If the email is registered, a reset code has been sent", body["message"])
	assert.Empty(t, mail.otps)
}

func TestVerifyOTPRejectsMalformedCode(t *testing.T) {
	r, _ := newTestRouter(t)

	// Right length, not numeric.
	w, body := postJSON(t, r, "/verify-otp", gin.H{
		"email": "jane@example.com",
		"otp":   "12ab56",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid or expired OTP", body["error"])
}

func TestPasswordResetFlow(t *testing.T) {
	r, mail := newTestRouter(t)

	postJSON(t, r, "/signup", gin.H{
		"email":    "jane@example.com",
		"password": "password123",
		"name":     "Jane Doe",
	})

	w, _ := postJSON(t, r, "/forgot-password", gin.H{"email": "jane@example.com"})
	require.Equal(t, http.StatusOK, w.Code)

	otp := mail.otps["jane@example.com"]
	require.Len(t, otp, 6)

	w, _ = postJSON(t, r, "/verify-otp", gin.H{"email": "jane@example.com", "otp": otp})
	require.Equal(t, http.StatusOK, w.Code)

	w, body := postJSON(t, r, "/reset-password", gin.H{
		"email":            "jane@example.com",
		"otp":              otp,
		"new_password":     "newpassword456",
		"confirm_password": "does-not-match",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Passwords do not match", body["error"])

	w, _ = postJSON(t, r, "/reset-password", gin.H{
		"email":            "jane@example.com",
		"otp":              otp,
		"new_password":     "newpassword456",
		"confirm_password": "newpassword456",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// The code is single use.
	w, _ = postJSON(t, r, "/reset-password", gin.H{
		"email":            "jane@example.com",
		"otp":              otp,
		"new_password":     "another789",
		"confirm_password": "another789",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = postJSON(t, r, "/login", gin.H{
		"email":    "jane@example.com",
		"password": "newpassword456",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}
