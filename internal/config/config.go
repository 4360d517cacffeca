// Package config defines the daemon configuration and its loading rules.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const (
	defaultListen        = ":3000"
	defaultCodeTTL       = 600  // seconds, 10 minutes
	defaultSweepInterval = 60   // seconds
	defaultTokenTTL      = 3600 // seconds, 1 hour
)

// Config is the main configuration structure.
type Config struct {
	Listen string `json:"listen" mapstructure:"listen"`

	// JWTSecret signs bearer tokens. Left empty, a random secret is
	// generated at startup, which is fine for a test double: tokens are
	// not meant to survive a restart.
	JWTSecret string `json:"jwt_secret,omitempty" mapstructure:"jwt-secret"`

	// AllowedOrigins is the CORS allowlist for the dashboard and test
	// client. Empty means same-origin only (server-to-server callers are
	// unaffected either way).
	AllowedOrigins []string `json:"allowed_origins,omitempty" mapstructure:"allowed-origins"`

	// SecureCookies marks session cookies Secure; enable behind TLS.
	SecureCookies bool `json:"secure_cookies" mapstructure:"secure-cookies"`

	CodeTTLSeconds       int `json:"code_ttl_seconds" mapstructure:"code-ttl-seconds"`
	TokenTTLSeconds      int `json:"token_ttl_seconds" mapstructure:"token-ttl-seconds"`
	SweepIntervalSeconds int `json:"sweep_interval_seconds" mapstructure:"sweep-interval-seconds"`

	// Logging configuration
	Logging *LogConfig `json:"logging,omitempty" mapstructure:"logging"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Level         string `json:"level" mapstructure:"level"`
	EnableFile    bool   `json:"enable_file" mapstructure:"enable-file"`
	EnableConsole bool   `json:"enable_console" mapstructure:"enable-console"`
	Filename      string `json:"filename" mapstructure:"filename"`
	LogDir        string `json:"log_dir,omitempty" mapstructure:"log-dir"`
	MaxSize       int    `json:"max_size" mapstructure:"max-size"`       // MB
	MaxBackups    int    `json:"max_backups" mapstructure:"max-backups"` // number of backup files
	MaxAge        int    `json:"max_age" mapstructure:"max-age"`         // days
	Compress      bool   `json:"compress" mapstructure:"compress"`
	JSONFormat    bool   `json:"json_format" mapstructure:"json-format"`
}

// DefaultConfig returns the configuration used when nothing is specified.
func DefaultConfig() *Config {
	return &Config{
		Listen:               defaultListen,
		CodeTTLSeconds:       defaultCodeTTL,
		TokenTTLSeconds:      defaultTokenTTL,
		SweepIntervalSeconds: defaultSweepInterval,
		Logging: &LogConfig{
			Level:         "info",
			EnableConsole: true,
			Filename:      "devauth.log",
			MaxSize:       10,
			MaxBackups:    5,
			MaxAge:        30,
			Compress:      true,
		},
	}
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if !strings.Contains(c.Listen, ":") {
		return fmt.Errorf("listen address %q must be host:port or :port", c.Listen)
	}
	if c.CodeTTLSeconds <= 0 {
		return fmt.Errorf("code_ttl_seconds must be positive, got %d", c.CodeTTLSeconds)
	}
	if c.TokenTTLSeconds <= 0 {
		return fmt.Errorf("token_ttl_seconds must be positive, got %d", c.TokenTTLSeconds)
	}
	if c.SweepIntervalSeconds <= 0 {
		return fmt.Errorf("sweep_interval_seconds must be positive, got %d", c.SweepIntervalSeconds)
	}
	return nil
}

// CodeTTL returns the authorization-code validity window.
func (c *Config) CodeTTL() time.Duration {
	return time.Duration(c.CodeTTLSeconds) * time.Second
}

// TokenTTL returns the credential lifetime for both issuance variants.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLSeconds) * time.Second
}

// SweepInterval returns the period of the background expiry sweep.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// EnsureJWTSecret fills in a random signing secret when none is configured.
func (c *Config) EnsureJWTSecret() error {
	if c.JWTSecret != "" {
		return nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	c.JWTSecret = hex.EncodeToString(buf)
	return nil
}
