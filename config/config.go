// Package config loads the jwtguard-server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/kelseyhightower/envconfig"

	"github.com/jwtdemo/jwtguard/validator"
)

// EnvPrefix prefixes every variable, e.g. JWTGUARD_LISTEN_ADDR.
const EnvPrefix = "JWTGUARD"

// Key sources.
const (
	KeySourcePEM           = "pem"
	KeySourceJWKS          = "jwks"
	KeySourceSecretManager = "secretmanager"
)

type Config struct {
	ListenAddr string `envconfig:"LISTEN_ADDR" default:":8080"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat  string `envconfig:"LOG_FORMAT" default:"text"`

	KeySource string `envconfig:"KEY_SOURCE" default:"pem"`
	KeyID     string `envconfig:"KEY_ID"`
	Algorithm string `envconfig:"ALGORITHM" default:"RS256"`

	PublicKeyFile string `envconfig:"PUBLIC_KEY_FILE"`

	IssuerURL string        `envconfig:"ISSUER_URL"`
	JWKSURL   string        `envconfig:"JWKS_URL"`
	CacheTTL  time.Duration `envconfig:"CACHE_TTL" default:"15m"`
	RedisAddr string        `envconfig:"REDIS_ADDR"`

	GCPProject string `envconfig:"GCP_PROJECT"`

	ClockSkew    time.Duration `envconfig:"CLOCK_SKEW" default:"0s"`
	LegacyPrefix bool          `envconfig:"LEGACY_PREFIX" default:"false"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem with c at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		result = multierror.Append(result, fmt.Errorf("log format %q must be text or json", c.LogFormat))
	}

	if _, err := validator.ParseAlgorithm(c.Algorithm); err != nil {
		result = multierror.Append(result, err)
	}
	if c.ClockSkew < 0 {
		result = multierror.Append(result, errors.New("clock skew cannot be negative"))
	}

	switch c.KeySource {
	case KeySourcePEM:
		if c.PublicKeyFile == "" {
			result = multierror.Append(result, errors.New("JWTGUARD_PUBLIC_KEY_FILE is required for the pem key source"))
		}
	case KeySourceJWKS:
		if c.IssuerURL == "" && c.JWKSURL == "" {
			result = multierror.Append(result, errors.New("JWTGUARD_ISSUER_URL or JWTGUARD_JWKS_URL is required for the jwks key source"))
		}
		if err := checkURL("issuer URL", c.IssuerURL); err != nil {
			result = multierror.Append(result, err)
		}
		if err := checkURL("JWKS URL", c.JWKSURL); err != nil {
			result = multierror.Append(result, err)
		}
		if c.CacheTTL <= 0 {
			result = multierror.Append(result, errors.New("cache TTL must be positive"))
		}
	case KeySourceSecretManager:
		if c.GCPProject == "" {
			result = multierror.Append(result, errors.New("JWTGUARD_GCP_PROJECT is required for the secretmanager key source"))
		}
		if c.KeyID == "" {
			result = multierror.Append(result, errors.New("JWTGUARD_KEY_ID names the secret and is required for the secretmanager key source"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unknown key source %q", c.KeySource))
	}

	return result.ErrorOrNil()
}

func checkURL(name, raw string) error {
	if raw == "" {
		return nil
	}
	if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s %q is not an absolute URL", name, raw)
	}
	return nil
}
