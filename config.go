package accounts

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config carries every process-wide setting: signing secrets, token TTLs,
// credential header prefixes, and the collaborator endpoints. It is built
// once at startup and treated as immutable afterwards; components receive it
// by reference and never mutate it.
type Config struct {
	BaseURL    string `env:"ACCOUNTS_BASE_URL"    envDefault:"http://localhost"`
	ListenPort int    `env:"ACCOUNTS_LISTEN_PORT" envDefault:"8000"`

	JWTSecret          string        `env:"ACCOUNTS_JWT_SECRET,notEmpty"`
	AccessTokenTTL     time.Duration `env:"ACCOUNTS_ACCESS_TOKEN_TTL"  envDefault:"15m"`
	RefreshTokenTTL    time.Duration `env:"ACCOUNTS_REFRESH_TOKEN_TTL" envDefault:"720h"`
	VerificationSecret string        `env:"ACCOUNTS_VERIFICATION_SECRET,notEmpty"`
	VerificationTTL    time.Duration `env:"ACCOUNTS_VERIFICATION_TTL" envDefault:"24h"`

	AccessTokenPrefix  string `env:"ACCOUNTS_ACCESS_TOKEN_PREFIX"  envDefault:"Token"`
	RefreshTokenPrefix string `env:"ACCOUNTS_REFRESH_TOKEN_PREFIX" envDefault:"RefreshToken"`

	DSN string `env:"ACCOUNTS_DSN" envDefault:"file:accounts.db?cache=shared"`

	SMTP SMTPConfig `envPrefix:"ACCOUNTS_SMTP_"`
}

// SMTPConfig holds the outbound mail transport settings
type SMTPConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"587"`
	Login    string `env:"LOGIN"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM" envDefault:"admin@localhost"`
}

// LoadConfigFromEnv loads the service configuration from the environment.
// Secrets have no defaults on purpose; a missing secret is a startup error,
// never a silently generated value.
func LoadConfigFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("accounts config: %w", err)
	}
	return cfg, nil
}

// VerificationURL builds the link embedded in the verification email
func (c *Config) VerificationURL(token string) string {
	return fmt.Sprintf("%s:%d/verify/%s", c.BaseURL, c.ListenPort, token)
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.ListenPort)
}

// GetDSN satisfies the persistence client config contract
func (c *Config) GetDSN() string {
	return c.DSN
}

// GetPingTimeout satisfies the persistence client config contract
func (c *Config) GetPingTimeout() time.Duration {
	return 5 * time.Second
}
