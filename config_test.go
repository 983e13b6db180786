package accounts_test

import (
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("ACCOUNTS_JWT_SECRET", "jwt-secret")
		t.Setenv("ACCOUNTS_VERIFICATION_SECRET", "verification-secret")

		cfg, err := accounts.LoadConfigFromEnv()
		require.NoError(t, err)

		assert.Equal(t, "http://localhost", cfg.BaseURL)
		assert.Equal(t, 8000, cfg.ListenPort)
		assert.Equal(t, time.Minute*15, cfg.AccessTokenTTL)
		assert.Equal(t, time.Hour*720, cfg.RefreshTokenTTL)
		assert.Equal(t, time.Hour*24, cfg.VerificationTTL)
		assert.Equal(t, "Token", cfg.AccessTokenPrefix)
		assert.Equal(t, "RefreshToken", cfg.RefreshTokenPrefix)
		assert.Equal(t, 587, cfg.SMTP.Port)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("ACCOUNTS_JWT_SECRET", "jwt-secret")
		t.Setenv("ACCOUNTS_VERIFICATION_SECRET", "verification-secret")
		t.Setenv("ACCOUNTS_BASE_URL", "https://accounts.example.com")
		t.Setenv("ACCOUNTS_LISTEN_PORT", "9000")
		t.Setenv("ACCOUNTS_ACCESS_TOKEN_TTL", "5m")
		t.Setenv("ACCOUNTS_SMTP_HOST", "mail.example.com")

		cfg, err := accounts.LoadConfigFromEnv()
		require.NoError(t, err)

		assert.Equal(t, "https://accounts.example.com", cfg.BaseURL)
		assert.Equal(t, 9000, cfg.ListenPort)
		assert.Equal(t, time.Minute*5, cfg.AccessTokenTTL)
		assert.Equal(t, "mail.example.com", cfg.SMTP.Host)
	})

	t.Run("missing secrets fail", func(t *testing.T) {
		t.Setenv("ACCOUNTS_JWT_SECRET", "")
		t.Setenv("ACCOUNTS_VERIFICATION_SECRET", "")

		_, err := accounts.LoadConfigFromEnv()
		assert.Error(t, err)
	})
}

func TestVerificationURL(t *testing.T) {
	cfg := &accounts.Config{BaseURL: "http://localhost", ListenPort: 8000}

	assert.Equal(t, "http://localhost:8000/verify/abc.def.ghi", cfg.VerificationURL("abc.def.ghi"))
}

func TestAddr(t *testing.T) {
	cfg := &accounts.Config{ListenPort: 9000}
	assert.Equal(t, ":9000", cfg.Addr())
}
