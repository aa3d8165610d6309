package server

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonathan/cleanops/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

func setupTestJWTService(_ *testing.T, expirationHours int) *JWTService {
	return NewJWTService(&config.JWTConfig{
		Secret:          testJWTSecret,
		ExpirationHours: expirationHours,
		Issuer:          config.DefaultIssuer,
	})
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	service := setupTestJWTService(t, 24)
	userID := uuid.New()

	token, err := service.GenerateToken(userID)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3, "JWT should have 3 parts separated by dots")

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID, claims.GetUserID())
	assert.Equal(t, config.DefaultIssuer, claims.Issuer)
	assert.Equal(t, userID.String(), claims.Subject)
}

func TestJWTService_Expiration(t *testing.T) {
	service := setupTestJWTService(t, 2)
	issued := time.Date(2024, time.June, 4, 9, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return issued }

	token, err := service.GenerateToken(uuid.New())
	require.NoError(t, err)

	service.now = func() time.Time { return issued.Add(time.Hour) }
	_, err = service.ValidateToken(token)
	assert.NoError(t, err, "token is valid within its lifetime")

	service.now = func() time.Time { return issued.Add(3 * time.Hour) }
	_, err = service.ValidateToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token expired")
}

func TestJWTService_RejectsForeignTokens(t *testing.T) {
	service := setupTestJWTService(t, 24)
	userID := uuid.New()

	otherSecret := NewJWTService(&config.JWTConfig{Secret: "another-secret-key-of-enough-length", ExpirationHours: 24, Issuer: config.DefaultIssuer})
	token, err := otherSecret.GenerateToken(userID)
	require.NoError(t, err)
	_, err = service.ValidateToken(token)
	assert.ErrorContains(t, err, "invalid token signature")

	otherIssuer := NewJWTService(&config.JWTConfig{Secret: testJWTSecret, ExpirationHours: 24, Issuer: "someone-else"})
	token, err = otherIssuer.GenerateToken(userID)
	require.NoError(t, err)
	_, err = service.ValidateToken(token)
	assert.Error(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: userID})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = service.ValidateToken(unsigned)
	assert.Error(t, err)
}

func TestJWTService_MalformedTokens(t *testing.T) {
	service := setupTestJWTService(t, 24)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := service.ValidateToken(token)
		assert.Error(t, err, "token %q", token)
	}
}

func TestJWTService_RejectsNilUser(t *testing.T) {
	service := setupTestJWTService(t, 24)

	token, err := service.GenerateToken(uuid.Nil)
	require.NoError(t, err)
	_, err = service.ValidateToken(token)
	assert.ErrorContains(t, err, "not valid")
}
