package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ivms-api/internal/models"
	"github.com/noah-isme/ivms-api/pkg/config"
)

func signTestToken(t *testing.T, secret, issuer string, expiresIn time.Duration) string {
	t.Helper()
	claims := &models.JWTClaims{
		UserID: "user-1",
		Role:   models.RoleStudent,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthServiceValidateToken(t *testing.T) {
	svc := NewAuthService(config.JWTConfig{Secret: "test-secret", Issuer: "ivms-api"}, nil)

	claims, err := svc.ValidateToken(signTestToken(t, "test-secret", "ivms-api", time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestAuthServiceRejectsWrongSecret(t *testing.T) {
	svc := NewAuthService(config.JWTConfig{Secret: "test-secret"}, nil)

	_, err := svc.ValidateToken(signTestToken(t, "other-secret", "", time.Minute))
	require.Error(t, err)
}

func TestAuthServiceRejectsExpired(t *testing.T) {
	svc := NewAuthService(config.JWTConfig{Secret: "test-secret"}, nil)

	_, err := svc.ValidateToken(signTestToken(t, "test-secret", "", -time.Minute))
	require.Error(t, err)
}

func TestAuthServiceRejectsWrongIssuer(t *testing.T) {
	svc := NewAuthService(config.JWTConfig{Secret: "test-secret", Issuer: "ivms-api"}, nil)

	_, err := svc.ValidateToken(signTestToken(t, "test-secret", "someone-else", time.Minute))
	require.Error(t, err)
}
