//go:build unit || e2e

// Package authtest mints operator tokens the way the venue's provisioning
// backend would. The service under test only verifies tokens, so the signing
// half lives here.
package authtest

import (
	"testing"
	"time"

	pkgjwt "ticketgate/internal/pkg/jwt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type JWTHelper struct {
	secret string
}

func NewJWTHelper(secret string) *JWTHelper {
	return &JWTHelper{secret: secret}
}

func (h *JWTHelper) GenerateToken(t *testing.T, operatorID, deviceID uuid.UUID, eventIDs ...uuid.UUID) string {
	t.Helper()
	return h.sign(t, operatorID, deviceID, eventIDs, time.Now().Add(12*time.Hour))
}

func (h *JWTHelper) CreateExpiredToken(t *testing.T, operatorID, deviceID uuid.UUID, eventIDs ...uuid.UUID) string {
	t.Helper()
	return h.sign(t, operatorID, deviceID, eventIDs, time.Now().Add(-time.Minute))
}

func (h *JWTHelper) sign(t *testing.T, operatorID, deviceID uuid.UUID, eventIDs []uuid.UUID, expiresAt time.Time) string {
	t.Helper()
	claims := pkgjwt.Claims{
		OperatorID: operatorID,
		DeviceID:   deviceID,
		EventIDs:   eventIDs,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.secret))
	require.NoError(t, err)
	return token
}
