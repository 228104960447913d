package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTokens() TokenService {
	return TokenService{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		Issuer:        "moviehub-test",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	ts := testTokens()
	u := &User{ID: "u1", Username: "neo", Email: "neo@example.com", Role: RoleAdmin}

	raw, exp, err := ts.SignAccess(u)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 2*time.Second)

	claims, err := ts.ParseAccess(raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "neo", claims.Username)
	assert.True(t, claims.IsAdmin())
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	ts := testTokens()
	u := &User{ID: "u1", Role: RoleUser}

	access, _, err := ts.SignAccess(u)
	require.NoError(t, err)
	refresh, jti, _, err := ts.SignRefresh(u)
	require.NoError(t, err)
	assert.NotEmpty(t, jti)

	_, err = ts.ParseRefresh(access)
	assert.Error(t, err)
	_, err = ts.ParseAccess(refresh)
	assert.Error(t, err)

	claims, err := ts.ParseRefresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, jti, claims.ID)
}

func TestParseRejectsExpiredAndForeignTokens(t *testing.T) {
	ts := testTokens()
	ts.AccessTTL = -time.Minute
	raw, _, err := ts.SignAccess(&User{ID: "u1"})
	require.NoError(t, err)
	_, err = ts.ParseAccess(raw)
	assert.Error(t, err)

	other := testTokens()
	other.AccessSecret = []byte("someone-else")
	raw, _, err = other.SignAccess(&User{ID: "u1"})
	require.NoError(t, err)
	_, err = testTokens().ParseAccess(raw)
	assert.Error(t, err)

	other = testTokens()
	other.Issuer = "elsewhere"
	raw, _, err = other.SignAccess(&User{ID: "u1"})
	require.NoError(t, err)
	_, err = testTokens().ParseAccess(raw)
	assert.Error(t, err)
}
