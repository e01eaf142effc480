package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/rentalhub/internal/auth"
	"github.com/geocoder89/rentalhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt        TokenVerifier
	cookieName string
}

func NewAuthMiddleware(jwt TokenVerifier, cookieName string) *AuthMiddleware {
	if cookieName == "" {
		cookieName = "token"
	}
	return &AuthMiddleware{jwt: jwt, cookieName: cookieName}
}

// RequireAuth accepts a bearer token, falling back to the session cookie.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := m.tokenFrom(c)
		if raw == "" {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Not authorized to access this route")
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired access token")
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxEmail, claims.Email)
		c.Set(CtxRole, claims.Role)

		c.Next()
	}
}

func (m *AuthMiddleware) tokenFrom(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}

	if v, err := c.Cookie(m.cookieName); err == nil {
		return strings.TrimSpace(v)
	}
	return ""
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	id := c.GetString(CtxUserID)
	return id, id != ""
}

func RoleFromContext(c *gin.Context) (string, bool) {
	role := c.GetString(CtxRole)
	return role, role != ""
}

// ActorFromContext returns the authenticated caller set by RequireAuth.
func ActorFromContext(c *gin.Context) (user.Actor, bool) {
	id, ok := UserIDFromContext(c)
	if !ok {
		return user.Actor{}, false
	}
	role, _ := RoleFromContext(c)
	return user.Actor{ID: id, Role: role}, true
}
