package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-accounts/internal/domain/entity"
	"github.com/oksasatya/go-user-accounts/pkg/helpers"
	"github.com/oksasatya/go-user-accounts/pkg/response"
)

const (
	CtxUserIDKey = "userID"
	CtxClaimsKey = "authClaims"
)

const (
	msgNoToken      = "Access denied. No token provided."
	msgInvalidToken = "Invalid token."
	msgAdminOnly    = "Access denied. Admin privileges required."
)

// TokenVerifier validates a bearer token, including revocation.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*helpers.Claims, error)
}

// UserLookup loads the caller for authorization decisions.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*entity.User, error)
}

// BearerToken returns the Authorization header value, with an optional
// "Bearer " prefix removed.
func BearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return h
}

// Auth rejects requests without a valid token and stores the verified
// claims in the Gin context.
func Auth(tokens TokenVerifier, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			response.Abort(c, http.StatusForbidden, msgNoToken)
			return
		}
		claims, err := tokens.VerifyToken(c.Request.Context(), token)
		if err != nil {
			if logger != nil {
				logger.WithError(err).WithField("request_id", c.GetString("request_id")).Debug("token rejected")
			}
			response.Abort(c, http.StatusBadRequest, msgInvalidToken)
			return
		}
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxClaimsKey, claims)
		c.Next()
	}
}

// RequireAdmin must run after Auth. It allows only admins that are not blocked.
func RequireAdmin(users UserLookup, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := users.GetUser(c.Request.Context(), c.GetString(CtxUserIDKey))
		if err != nil || !u.IsAdmin || u.IsBlocked {
			if err != nil && logger != nil {
				logger.WithError(err).WithField("user_id", c.GetString(CtxUserIDKey)).Debug("admin lookup failed")
			}
			response.Abort(c, http.StatusForbidden, msgAdminOnly)
			return
		}
		c.Next()
	}
}

// GetAuthClaims returns the claims stored by Auth, if any.
func GetAuthClaims(c *gin.Context) (*helpers.Claims, bool) {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*helpers.Claims)
	return claims, ok
}
