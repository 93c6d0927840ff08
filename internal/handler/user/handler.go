package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bloodsight/bloodsight-api/internal/model"
	"github.com/bloodsight/bloodsight-api/internal/service/user"
	"github.com/bloodsight/bloodsight-api/pkg/httputil"
)

type Handler struct {
	svc *user.Service
}

func NewHandler(svc *user.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/profile", h.GetProfile)
	r.PUT("/profile", h.UpdateProfile)
}

func (h *Handler) GetProfile(c *gin.Context) {
	id, ok := currentUserID(c)
	if !ok {
		httputil.Fail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	u, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		httputil.Fail(c, http.StatusNotFound, "User not found")
		return
	}
	httputil.OK(c, gin.H{"user": u})
}

// UpdateProfile merges the submitted fields; anything omitted keeps
// its stored value.
func (h *Handler) UpdateProfile(c *gin.Context) {
	id, ok := currentUserID(c)
	if !ok {
		httputil.Fail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.svc.UpdateProfile(c.Request.Context(), id, &req)
	if err != nil {
		httputil.Fail(c, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	httputil.OK(c, gin.H{"user": u})
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}
