package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/itdesk/internal/domain"
)

func TestGeneratePairRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 15*time.Minute, 7*24*time.Hour)

	pair, err := tm.GeneratePair("staff-1", domain.StaffRoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.True(t, pair.RefreshExpiresAt.After(pair.AccessExpiresAt))

	claims, err := tm.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "staff-1", claims.StaffID)
	assert.Equal(t, domain.StaffRoleAdmin, claims.Role)
	assert.Equal(t, domain.TokenKindAccess, claims.Kind)
	assert.NotEmpty(t, claims.ID)

	refreshClaims, err := tm.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, domain.TokenKindRefresh, refreshClaims.Kind)
	assert.NotEqual(t, claims.ID, refreshClaims.ID)
}

func TestParseRejectsWrongKind(t *testing.T) {
	tm := NewTokenManager("test-secret", 15*time.Minute, 7*24*time.Hour)
	pair, err := tm.GeneratePair("staff-1", domain.StaffRoleUser)
	require.NoError(t, err)

	_, err = tm.ParseAccess(pair.RefreshToken)
	assert.Error(t, err)
	_, err = tm.ParseRefresh(pair.AccessToken)
	assert.Error(t, err)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	tm := NewTokenManager("test-secret", 15*time.Minute, 7*24*time.Hour)
	other := NewTokenManager("other-secret", 15*time.Minute, 7*24*time.Hour)

	pair, err := tm.GeneratePair("staff-1", domain.StaffRoleUser)
	require.NoError(t, err)

	_, err = other.ParseAccess(pair.AccessToken)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", -time.Minute, 7*24*time.Hour)
	// Negative TTL is replaced by the default, so force expiry directly.
	tm.accessTTL = -time.Minute

	token, _, err := tm.generate("staff-1", domain.StaffRoleUser, domain.TokenKindAccess, tm.accessTTL)
	require.NoError(t, err)

	_, err = tm.ParseAccess(token)
	assert.Error(t, err)
}

func TestGeneratePasscode(t *testing.T) {
	code, err := GeneratePasscode(6)
	require.NoError(t, err)
	require.Len(t, code, 6)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9')
	}

	// Zero length falls back to six digits.
	code, err = GeneratePasscode(0)
	require.NoError(t, err)
	assert.Len(t, code, 6)
}

func TestHashAndComparePasscode(t *testing.T) {
	hash, err := HashPasscode("482915", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "482915", hash)

	assert.NoError(t, ComparePasscode(hash, "482915"))
	assert.Error(t, ComparePasscode(hash, "482916"))
}
