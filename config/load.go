package config

import (
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Load reads config.yaml (CONFIG_FILE overrides the path) when present,
// then lets environment variables win over file values.
func Load() App {
	cfg := App{
		Port:        "8080",
		JWTTTLHours: 24,
		Env:         "dev",
	}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	if raw, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			slog.Error("config file unreadable", "path", path, "err", err)
			panic("bad config file " + path)
		}
	}

	cfg.Port = getenv("APP_PORT", cfg.Port)
	cfg.DatabaseURL = getenv("DATABASE_URL", cfg.DatabaseURL)
	cfg.JWTSecret = getenv("JWT_SECRET", cfg.JWTSecret)
	cfg.Env = getenv("APP_ENV", cfg.Env)
	if v := os.Getenv("JWT_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.JWTTTLHours = n
		}
	}

	if cfg.DatabaseURL == "" {
		must("DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "local_dev_secret"
	}
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("required env missing", "key", k)
		panic("missing env " + k)
	}
	return v
}
