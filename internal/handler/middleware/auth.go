package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"ticketgate/internal/pkg/jwt"
	"ticketgate/internal/usecase/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ctxAuthKey     = "operator_auth"
	ctxDeviceIDKey = "device_id"
)

type AuthMiddleware struct {
	verifier *jwt.Verifier
}

func NewAuthMiddleware(verifier *jwt.Verifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth verifies the bearer token and stashes the operator's event
// grants. A missing or bad token is a 401 before the engine is reached;
// a valid token for the wrong event surfaces later as the Unauthorized
// scan outcome, not an HTTP error.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimSpace(authHeader[len("Bearer "):])
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Access token required",
			})
			c.Abort()
			return
		}

		claims, err := m.verifier.Verify(token)
		if err != nil {
			slog.Warn("Token verification failed in auth middleware", "error", err.Error())
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set(ctxAuthKey, commands.Authorization{
			OperatorID: claims.OperatorID,
			EventIDs:   claims.EventIDs,
		})
		c.Set(ctxDeviceIDKey, claims.DeviceID)
		c.Next()
	}
}

func GetAuthorization(c *gin.Context) (commands.Authorization, bool) {
	v, exists := c.Get(ctxAuthKey)
	if !exists {
		return commands.Authorization{}, false
	}
	auth, ok := v.(commands.Authorization)
	return auth, ok
}

func GetDeviceID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(ctxDeviceIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
