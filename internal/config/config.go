package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

const insecureJWTSecret = "supersecretkey"

type Config struct {
	Addr          string        `yaml:"addr"`
	JWTSecret     string        `yaml:"jwt_secret"`
	APITimeout    time.Duration `yaml:"timeout"`
	DatabasePath  string        `yaml:"database_path"`
	TokenDuration time.Duration `yaml:"token_duration"`
	BcryptCost    int           `yaml:"bcrypt_cost"`
	SiteURL       string        `yaml:"site_url"`
	CORSOrigins   []string      `yaml:"cors_origins"`
	Workers       int           `yaml:"workers"`

	// TrustedProxies lists CIDRs or addresses whose forwarding headers are
	// believed when resolving the client IP.
	TrustedProxies []string `yaml:"trusted_proxies"`

	Lockout   LockoutConfig   `yaml:"lockout"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
}

// LockoutConfig controls failed-login lockout.
type LockoutConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Duration    time.Duration `yaml:"duration"`
}

// RateLimitConfig limits public write endpoints per client IP.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type AnalyticsConfig struct {
	Retention     time.Duration `yaml:"retention"`
	PruneInterval time.Duration `yaml:"prune_interval"`
}

// BootstrapConfig seeds the first super_admin on an empty database.
type BootstrapConfig struct {
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:          getEnv("SHOWCASE_ADDR", ":8080"),
		JWTSecret:     getEnv("SHOWCASE_JWT_SECRET", insecureJWTSecret),
		APITimeout:    15 * time.Second,
		DatabasePath:  getEnv("SHOWCASE_DATABASE_PATH", "showcase.db"),
		TokenDuration: 24 * time.Hour,
		BcryptCost:    12,
		SiteURL:       getEnv("SHOWCASE_SITE_URL", "http://localhost:3000"),
		CORSOrigins:   splitList(getEnv("SHOWCASE_CORS_ORIGINS", "*")),
		Workers:       2,

		TrustedProxies: splitList(os.Getenv("SHOWCASE_TRUSTED_PROXIES")),
		Lockout: LockoutConfig{
			MaxAttempts: 5,
			Duration:    30 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			RPS:   0.2,
			Burst: 5,
		},
		Analytics: AnalyticsConfig{
			Retention:     365 * 24 * time.Hour,
			PruneInterval: 24 * time.Hour,
		},
		Bootstrap: BootstrapConfig{
			Email:    os.Getenv("SHOWCASE_ADMIN_EMAIL"),
			Name:     getEnv("SHOWCASE_ADMIN_NAME", "Administrator"),
			Password: os.Getenv("SHOWCASE_ADMIN_PASSWORD"),
		},
	}
	if v := os.Getenv("SHOWCASE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("SHOWCASE_WORKERS: %w", err)
		}
		cfg.Workers = n
	}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
// The default JWT secret is only accepted when SHOWCASE_ENV=development.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt_secret is required"))
	} else if c.JWTSecret == insecureJWTSecret && os.Getenv("SHOWCASE_ENV") != "development" {
		errs = append(errs, errors.New("jwt_secret uses the insecure default; set SHOWCASE_JWT_SECRET"))
	}
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database_path is required"))
	}
	if c.APITimeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}
	if c.TokenDuration <= 0 {
		errs = append(errs, errors.New("token_duration must be positive"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.Lockout.MaxAttempts < 1 {
		errs = append(errs, errors.New("lockout.max_attempts must be at least 1"))
	}
	if c.Lockout.Duration <= 0 {
		errs = append(errs, errors.New("lockout.duration must be positive"))
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst < 1 {
		errs = append(errs, errors.New("rate_limit.rps and rate_limit.burst must be positive"))
	}
	if c.Analytics.Retention <= 0 || c.Analytics.PruneInterval <= 0 {
		errs = append(errs, errors.New("analytics.retention and analytics.prune_interval must be positive"))
	}
	for _, p := range c.TrustedProxies {
		if _, err := netip.ParsePrefix(p); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(p); err != nil {
			errs = append(errs, fmt.Errorf("trusted_proxies: %q is not an IP or CIDR", p))
		}
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
