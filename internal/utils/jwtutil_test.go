package utils

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	JwtSecret = []byte("test-secret")
	os.Exit(m.Run())
}

func TestOwnerTokenRoundTrip(t *testing.T) {
	token, exp, err := GenerateOwnerToken(42, "owner@store.com", "Owner", time.Hour)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "owner@store.com", claims.Email)
	assert.False(t, claims.IsEmployee)
	assert.Zero(t, claims.OwnerID)
}

func TestEmployeeTokenCarriesOwner(t *testing.T) {
	token, _, err := GenerateEmployeeToken(7, 42, "emp@store.com", "Employee", "sales", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, int64(42), claims.OwnerID)
	assert.Equal(t, "sales", claims.Role)
	assert.True(t, claims.IsEmployee)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, _, err := GenerateOwnerToken(42, "owner@store.com", "Owner", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken("not.a.token")
	assert.Error(t, err)
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	original := JwtSecret
	defer func() { JwtSecret = original }()

	JwtSecret = []byte("other-secret")
	token, _, err := GenerateOwnerToken(1, "a@b.com", "A", time.Hour)
	require.NoError(t, err)

	JwtSecret = original
	_, err = ParseToken(token)
	assert.Error(t, err)
}
