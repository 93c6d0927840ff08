package user

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloodsight/bloodsight-api/internal/model"
	usersvc "github.com/bloodsight/bloodsight-api/internal/service/user"
)

// mergingUserRepo applies the same nil-skipping merge the COALESCE
// update performs against Postgres.
type mergingUserRepo struct {
	user *model.User
}

func (r *mergingUserRepo) Create(ctx context.Context, user *model.User) error { return nil }

func (r *mergingUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if r.user != nil && r.user.ID == id {
		return r.user, nil
	}
	return nil, model.ErrUserNotFound
}

func (r *mergingUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, model.ErrUserNotFound
}

func (r *mergingUserRepo) Update(ctx context.Context, user *model.User) error { return nil }

func (r *mergingUserRepo) UpdateProfile(ctx context.Context, id uuid.UUID, req *model.UpdateProfileRequest) (*model.User, error) {
	u, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Phone != nil {
		u.Phone = req.Phone
	}
	if req.DateOfBirth != nil {
		u.DateOfBirth = req.DateOfBirth
	}
	if req.Gender != nil {
		u.Gender = req.Gender
	}
	if req.BloodType != nil {
		u.BloodType = req.BloodType
	}
	if req.Allergies != nil {
		u.Allergies = req.Allergies
	}
	if req.CurrentMedications != nil {
		u.CurrentMedications = req.CurrentMedications
	}
	if req.MedicalHistory != nil {
		u.MedicalHistory = req.MedicalHistory
	}
	if req.EmergencyContact != nil {
		u.EmergencyContact = req.EmergencyContact
	}
	return u, nil
}

func (r *mergingUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return nil
}

func (r *mergingUserRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func strPtr(s string) *string { return &s }

func newTestRouter(t *testing.T, u *model.User) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewHandler(usersvc.NewService(&mergingUserRepo{user: u}))

	r := gin.New()
	group := r.Group("")
	group.Use(func(c *gin.Context) {
		c.Set("user_id", u.ID)
		c.Next()
	})
	h.RegisterRoutes(group)
	return r
}

func TestUpdateProfileMergesPartialFields(t *testing.T) {
	userID := uuid.New()
	r := newTestRouter(t, &model.User{
		Base:      model.Base{ID: userID},
		Email:     "jane@example.com",
		Name:      "Jane Doe",
		Phone:     strPtr("555-0100"),
		BloodType: strPtr("O+"),
	})

	payload, err := json.Marshal(gin.H{"phone": "555-0199"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/profile", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var parsed struct {
		User struct {
			Name      string  `json:"name"`
			Phone     *string `json:"phone"`
			BloodType *string `json:"blood_type"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))

	// The submitted field changed; everything omitted survived.
	require.NotNil(t, parsed.User.Phone)
	assert.Equal(t, "555-0199", *parsed.User.Phone)
	assert.Equal(t, "Jane Doe", parsed.User.Name)
	require.NotNil(t, parsed.User.BloodType)
	assert.Equal(t, "O+", *parsed.User.BloodType)
}

func TestGetProfile(t *testing.T) {
	userID := uuid.New()
	r := newTestRouter(t, &model.User{
		Base:  model.Base{ID: userID},
		Email: "jane@example.com",
		Name:  "Jane Doe",
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/profile", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	user := parsed["user"].(map[string]interface{})
	assert.Equal(t, "jane@example.com", user["email"])
}
