package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vending/internal/model"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, model.RoleSeller)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, model.RoleSeller, claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestJWTService_TokensAreUnique(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)
	userID := uuid.New()

	a, err := svc.GenerateToken(userID, model.RoleBuyer)
	require.NoError(t, err)
	b, err := svc.GenerateToken(userID, model.RoleBuyer)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestJWTService_RejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("one", time.Hour).GenerateToken(uuid.New(), model.RoleBuyer)
	require.NoError(t, err)

	_, err = NewJWTService("two", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsExpired(t *testing.T) {
	svc := NewJWTService("secret", time.Nanosecond)
	token, err := svc.GenerateToken(uuid.New(), model.RoleBuyer)
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_DefaultTTL(t *testing.T) {
	svc := NewJWTService("secret", 0)
	assert.Equal(t, DefaultTokenTTL, svc.ttl)
}
