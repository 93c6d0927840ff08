package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCacheHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Cache(CacheConfig{Private: true, NoStore: true}))
	r.GET("/profile", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/profile", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/profile", nil))
	assert.Equal(t, "private, no-store", w.Header().Get("Cache-Control"))

	// Mutating requests are never cached, whatever the config says.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/profile", nil))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestCachePublicMaxAge(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Cache(CacheConfig{MaxAge: 5}))
	r.GET("/health/live", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, "public, max-age=5", w.Header().Get("Cache-Control"))
}
