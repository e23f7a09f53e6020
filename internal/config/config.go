// Package config loads gateway configuration from an optional YAML file with
// environment variable overrides.
package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Auth      AuthConfig      `koanf:"auth"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	OpenAI    OpenAIConfig    `koanf:"openai"`
	Inventory InventoryConfig `koanf:"inventory"`
	Scraper   ScraperConfig   `koanf:"scraper"`
	Geocode   GeocodeConfig   `koanf:"geocode"`
	Analytics AnalyticsConfig `koanf:"analytics"`
}

type ServerConfig struct {
	Port        int    `koanf:"port"`
	FrontendURL string `koanf:"frontend_url"`
}

// AuthConfig configures the token verifier and API key derivation. JWTSecret
// enables verification of HMAC-signed tokens; JWKSURL enables the remote key
// set for asymmetric tokens. Leaving both empty makes protected routes fail
// with 503 rather than silently bypassing authentication.
type AuthConfig struct {
	JWTSecret  string `koanf:"jwt_secret"`
	JWKSURL    string `koanf:"jwks_url"`
	Issuer     string `koanf:"issuer"`
	APIKeySalt string `koanf:"api_key_salt"`
}

type RateLimitConfig struct {
	PerMinute     int `koanf:"per_minute"`
	WindowSeconds int `koanf:"window_seconds"`
	BlockSeconds  int `koanf:"block_seconds"`
}

type OpenAIConfig struct {
	APIKey  string `koanf:"api_key"`
	Model   string `koanf:"model"`
	BaseURL string `koanf:"base_url"`
}

type InventoryConfig struct {
	BaseURL string `koanf:"base_url"`
	Region  string `koanf:"region"`
}

type ScraperConfig struct {
	BaseURL string `koanf:"base_url"`
}

type GeocodeConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
}

type AnalyticsConfig struct {
	DBPath string `koanf:"db_path"`
}

// Load reads config.yaml when present, then applies OMNIDEV_* environment
// variables on top. Double underscores in variable names become key
// separators, e.g. OMNIDEV_AUTH__JWT_SECRET sets auth.jwt_secret.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider("config.yaml"), yaml.Parser()); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("OMNIDEV_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "OMNIDEV_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	defaults := map[string]any{
		"server.port":              8080,
		"server.frontend_url":      "http://localhost:3000",
		"ratelimit.per_minute":     60,
		"ratelimit.window_seconds": 60,
		"ratelimit.block_seconds":  60,
		"openai.model":             "gpt-5-nano",
		"analytics.db_path":        "analytics.db",
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
