//go:build unit

package middleware_test

import (
	"net/http"
	"testing"

	"ticketgate/internal/handler/middleware"
	"ticketgate/internal/pkg/jwt"
	"ticketgate/tests/common/authtest"
	"ticketgate/tests/common/httptest"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	authMiddleware := middleware.NewAuthMiddleware(jwt.NewVerifier(testSecret))
	router.GET("/probe", authMiddleware.RequireAuth(), func(c *gin.Context) {
		auth, ok := middleware.GetAuthorization(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		deviceID, ok := middleware.GetDeviceID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"operator_id": auth.OperatorID,
			"device_id":   deviceID,
			"event_ids":   auth.EventIDs,
		})
	})
	return router
}

func TestRequireAuth(t *testing.T) {
	router := newAuthRouter()
	helper := authtest.NewJWTHelper(testSecret)

	operatorID := uuid.New()
	deviceID := uuid.New()
	eventID := uuid.New()

	t.Run("valid token reaches the handler with the grants", func(t *testing.T) {
		token := helper.GenerateToken(t, operatorID, deviceID, eventID)

		w := httptest.PerformRequest(t, router, "GET", "/probe", nil, token)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			OperatorID uuid.UUID   `json:"operator_id"`
			DeviceID   uuid.UUID   `json:"device_id"`
			EventIDs   []uuid.UUID `json:"event_ids"`
		}
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &resp))
		assert.Equal(t, operatorID, resp.OperatorID)
		assert.Equal(t, deviceID, resp.DeviceID)
		assert.Equal(t, []uuid.UUID{eventID}, resp.EventIDs)
	})

	t.Run("missing token", func(t *testing.T) {
		w := httptest.PerformRequest(t, router, "GET", "/probe", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		token := helper.CreateExpiredToken(t, operatorID, deviceID, eventID)

		w := httptest.PerformRequest(t, router, "GET", "/probe", nil, token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token signed with another key", func(t *testing.T) {
		token := authtest.NewJWTHelper("other-secret").GenerateToken(t, operatorID, deviceID, eventID)

		w := httptest.PerformRequest(t, router, "GET", "/probe", nil, token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
