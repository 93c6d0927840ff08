package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bloodsight/bloodsight-api/pkg/auth"
	"github.com/bloodsight/bloodsight-api/pkg/httputil"
)

// TokenRevoker reports whether a token was invalidated before its
// expiry, e.g. by logout.
type TokenRevoker interface {
	IsRevoked(token string) bool
}

type AuthMiddleware struct {
	jwtSvc  auth.JWTService
	revoker TokenRevoker
}

func NewAuthMiddleware(jwtSvc auth.JWTService, revoker TokenRevoker) *AuthMiddleware {
	return &AuthMiddleware{jwtSvc: jwtSvc, revoker: revoker}
}

// Authenticate verifies the bearer token and sets the user identity in
// context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			httputil.Fail(c, http.StatusUnauthorized, "Missing or malformed authorization header")
			c.Abort()
			return
		}

		claims, err := m.jwtSvc.ValidateToken(token)
		if err != nil {
			httputil.Fail(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}
		if m.revoker != nil && m.revoker.IsRevoked(token) {
			httputil.Fail(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("token", token)
		c.Next()
	}
}

// OptionalAuthenticate sets the user identity when a valid token is
// presented but lets anonymous requests through. Upload and the intake
// wizard work before an account exists.
func (m *AuthMiddleware) OptionalAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if claims, err := m.jwtSvc.ValidateToken(token); err == nil {
				if m.revoker == nil || !m.revoker.IsRevoked(token) {
					c.Set("user_id", claims.UserID)
					c.Set("email", claims.Email)
					c.Set("token", token)
				}
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
