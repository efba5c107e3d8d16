package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TSM_SERVER_ADDR.
const EnvPrefix = "TSM"

// DemoPassword is the built-in password of the demo account.
const DemoPassword = "demo"

// Config is the server configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Session   SessionConfig   `mapstructure:"session"`
	Auth      AuthConfig      `mapstructure:"auth"`
	OAuth     OAuthConfig     `mapstructure:"oauth"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Secure    SecureConfig    `mapstructure:"secure"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Store     StoreConfig     `mapstructure:"store"`

	// GeneratedSecret is set when no session secret was configured and a
	// random one was created for this process.
	GeneratedSecret bool `mapstructure:"-"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// TrustedProxy honours X-Forwarded-For when the server sits behind a
	// proxy that sets it.
	TrustedProxy bool `mapstructure:"trusted_proxy"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "console" or "json"
}

type SessionConfig struct {
	Secret       string        `mapstructure:"secret"`
	CookieName   string        `mapstructure:"cookie_name"`
	MaxAge       time.Duration `mapstructure:"max_age"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	SecureCookie bool          `mapstructure:"secure_cookie"`
}

// AuthConfig holds the single set of credentials accepted by /login.
type AuthConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// OAuthConfig enables sign-in through an OAuth2 provider when ClientID and
// AuthURL are set.
type OAuthConfig struct {
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	AuthURL      string   `mapstructure:"auth_url"`
	TokenURL     string   `mapstructure:"token_url"`
	UserInfoURL  string   `mapstructure:"userinfo_url"`
	RedirectURL  string   `mapstructure:"redirect_url"`
	Scopes       []string `mapstructure:"scopes"`
}

// RateLimitConfig uses the limiter notation "<limit>-<period>", e.g. "10-M".
// An empty value disables the limit.
type RateLimitConfig struct {
	PerIP string `mapstructure:"per_ip"`
	Login string `mapstructure:"login"`
}

type SecureConfig struct {
	Development bool `mapstructure:"development"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type StoreConfig struct {
	SeedDemo bool `mapstructure:"seed_demo"`
}

// defaults are the built-in values; every key must appear here so env
// overrides are picked up on unmarshal.
var defaults = map[string]interface{}{
	"server.addr":          ":8080",
	"server.read_timeout":  15 * time.Second,
	"server.write_timeout": 15 * time.Second,
	"server.trusted_proxy": false,

	"log.level":  "info",
	"log.format": "console",

	"session.secret":        "",
	"session.cookie_name":   "tsm_session",
	"session.max_age":       8 * time.Hour,
	"session.token_ttl":     8 * time.Hour,
	"session.secure_cookie": false,

	"auth.email":    "demo@example.com",
	"auth.password": DemoPassword,

	"oauth.client_id":     "",
	"oauth.client_secret": "",
	"oauth.auth_url":      "",
	"oauth.token_url":     "",
	"oauth.userinfo_url":  "",
	"oauth.redirect_url":  "http://localhost:8080/login/oauth/callback",
	"oauth.scopes":        []string{"openid", "email"},

	"ratelimit.per_ip": "300-M",
	"ratelimit.login":  "10-M",

	"secure.development": false,
	"metrics.enabled":    true,
	"store.seed_demo":    true,
}

// Load reads defaults, then the YAML file at path (or $TSM_CONFIG when path
// is empty), then TSM_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Session.Secret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.Session.Secret = secret
		cfg.GeneratedSecret = true
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	if c.Session.CookieName == "" {
		errs = append(errs, errors.New("session.cookie_name must not be empty"))
	}
	if c.Session.MaxAge <= 0 || c.Session.TokenTTL <= 0 {
		errs = append(errs, errors.New("session.max_age and session.token_ttl must be positive"))
	}
	if c.Auth.Email != "" && c.Auth.Password == "" {
		errs = append(errs, errors.New("auth.password is required when auth.email is set"))
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
