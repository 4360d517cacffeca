package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load builds the configuration from defaults, an optional JSON config
// file, and DEVAUTH_* environment variables, in increasing precedence.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadConfigFile merges a JSON config file over the current values.
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// applyEnvOverrides lets DEVAUTH_* environment variables win over the file.
func applyEnvOverrides(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix("DEVAUTH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if s := v.GetString("listen"); s != "" {
		cfg.Listen = s
	}
	if s := v.GetString("jwt-secret"); s != "" {
		cfg.JWTSecret = s
	}
	if s := v.GetString("allowed-origins"); s != "" {
		cfg.AllowedOrigins = splitOrigins(s)
	}
	if v.IsSet("secure-cookies") {
		cfg.SecureCookies = v.GetBool("secure-cookies")
	}
	if n := v.GetInt("code-ttl-seconds"); n > 0 {
		cfg.CodeTTLSeconds = n
	}
	if n := v.GetInt("token-ttl-seconds"); n > 0 {
		cfg.TokenTTLSeconds = n
	}
	if s := v.GetString("log-level"); s != "" {
		cfg.Logging.Level = s
	}
}

// splitOrigins parses a comma-separated origin list.
func splitOrigins(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
