package identity

import (
	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
)

// EnvConfig is the env-backed Config implementation. The signing key is
// read once at process start and threaded through constructors from here.
type EnvConfig struct {
	SigningKey      string   `env:"AUTH_SIGNING_KEY,required"`
	TokenExpiration int      `env:"AUTH_TOKEN_EXPIRATION" envDefault:"168"`
	Issuer          string   `env:"AUTH_ISSUER" envDefault:"pawdoption"`
	Audience        []string `env:"AUTH_AUDIENCE" envSeparator:","`
	AuthScheme      string   `env:"AUTH_SCHEME" envDefault:"Bearer"`
	BcryptCost      int      `env:"AUTH_BCRYPT_COST" envDefault:"12"`
	ResetTokenTTL   int      `env:"AUTH_RESET_TOKEN_TTL_MINUTES" envDefault:"10"`
	ResetBaseURL    string   `env:"AUTH_RESET_BASE_URL" envDefault:"http://localhost:3000"`
	DSN             string   `env:"AUTH_DSN" envDefault:"file::memory:?cache=shared"`
	HTTPAddr        string   `env:"AUTH_HTTP_ADDR" envDefault:":8572"`
	Debug           bool     `env:"AUTH_DEBUG" envDefault:"false"`
}

// LoadConfig parses the process environment into an EnvConfig.
func LoadConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to parse environment configuration")
	}
	return cfg, nil
}

func (c *EnvConfig) GetSigningKey() string   { return c.SigningKey }
func (c *EnvConfig) GetTokenExpiration() int { return c.TokenExpiration }
func (c *EnvConfig) GetIssuer() string       { return c.Issuer }
func (c *EnvConfig) GetAudience() []string   { return c.Audience }
func (c *EnvConfig) GetAuthScheme() string   { return c.AuthScheme }
func (c *EnvConfig) GetBcryptCost() int      { return c.BcryptCost }
func (c *EnvConfig) GetResetTokenTTL() int   { return c.ResetTokenTTL }
func (c *EnvConfig) GetResetBaseURL() string { return c.ResetBaseURL }

var _ Config = (*EnvConfig)(nil)
