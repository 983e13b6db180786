package accounts_test

import (
	"strings"
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenService() *accounts.TokenService {
	return accounts.NewTokenService(
		[]byte("test-signing-key"),
		time.Minute*15,
		time.Hour*24*30,
		testLogger{},
	)
}

func TestTokenServiceRoundTrip(t *testing.T) {
	ts := newTokenService()

	t.Run("access token carries full identity", func(t *testing.T) {
		token, err := ts.IssueAccess("user@example.com", "user")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, expiry, err := ts.Decode(token)
		require.NoError(t, err)

		assert.Equal(t, "user@example.com", claims.Email)
		assert.Equal(t, "user", claims.Username)
		assert.False(t, accounts.IsExpired(expiry, time.Now()))
		assert.WithinDuration(t, time.Now().Add(time.Minute*15), expiry, time.Second*5)
	})

	t.Run("refresh token claims are email only", func(t *testing.T) {
		token, err := ts.IssueRefresh("user@example.com")
		require.NoError(t, err)

		claims, expiry, err := ts.Decode(token)
		require.NoError(t, err)

		assert.Equal(t, "user@example.com", claims.Email)
		assert.Empty(t, claims.Username)
		assert.WithinDuration(t, time.Now().Add(time.Hour*24*30), expiry, time.Second*5)
	})
}

func TestTokenServiceDecodeRejectsBadTokens(t *testing.T) {
	ts := newTokenService()

	token, err := ts.IssueAccess("user@example.com", "user")
	require.NoError(t, err)

	t.Run("wrong signing key", func(t *testing.T) {
		other := accounts.NewTokenService([]byte("another-key"), time.Minute, time.Minute, testLogger{})

		_, _, err := other.Decode(token)
		require.Error(t, err)
		assert.True(t, accounts.IsUnauthorized(err))
	})

	t.Run("tampered payload", func(t *testing.T) {
		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)
		parts[1] = parts[1][:len(parts[1])-2] + "xx"

		_, _, err := ts.Decode(strings.Join(parts, "."))
		assert.Error(t, err)
	})

	t.Run("tampered expiry header", func(t *testing.T) {
		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)
		parts[0] = parts[0][:len(parts[0])-2] + "xx"

		_, _, err := ts.Decode(strings.Join(parts, "."))
		assert.Error(t, err)
	})

	t.Run("not a token at all", func(t *testing.T) {
		_, _, err := ts.Decode("garbage")
		require.Error(t, err)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, accounts.TextCodeTokenInvalid, richErr.TextCode)
	})
}

func TestTokenServiceDecodeDoesNotEnforceExpiry(t *testing.T) {
	ts := newTokenService()

	token, err := ts.SignClaims(accounts.AccessClaims("user@example.com", "user"), -time.Minute)
	require.NoError(t, err)

	claims, expiry, err := ts.Decode(token)
	require.NoError(t, err)
	require.Equal(t, "user@example.com", claims.Email)

	assert.True(t, accounts.IsExpired(expiry, time.Now()))
}

func TestIsExpired(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		expiry time.Time
		want   bool
	}{
		{"future expiry", now.Add(time.Minute), false},
		{"past expiry", now.Add(-time.Minute), true},
		{"exact instant counts as expired", now, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, accounts.IsExpired(tt.expiry, now))
		})
	}
}
