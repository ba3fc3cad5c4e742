// Package config reads the service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	// Server Settings
	Port    string
	AppEnv  string
	BaseURL string

	// Storage Settings
	StoreDriver string // "mysql" or "memory"
	DatabaseDSN string
	UploadDir   string

	// JWT Settings
	JWTSecret string
	JWTTTL    time.Duration

	// CORS Settings
	CORSOrigins []string

	// Shipment simulator
	ShipmentInterval time.Duration // 0 disables the worker
	ShipAfter        time.Duration

	// Email Settings; an empty EmailHost logs mail instead of sending it
	EmailHost string
	EmailPort string
	EmailUser string
	EmailPass string
	EmailFrom string
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

// IsDevelopment reports whether internal error details may be shown to clients.
func (c *Config) IsDevelopment() bool { return c.AppEnv == "development" }

// Load builds the Config from environment variables, applying defaults.
// Call godotenv.Load first to pick up a .env file.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		AppEnv:      getEnv("APP_ENV", "development"),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", "mysql")),
		DatabaseDSN: os.Getenv("DB_DSN_PRIMARY"),
		UploadDir:   getEnv("UPLOAD_DIR", "./uploads"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:5174")),
		EmailHost:   os.Getenv("EMAIL_HOST"),
		EmailPort:   getEnv("EMAIL_PORT", "587"),
		EmailUser:   os.Getenv("EMAIL_USER"),
		EmailPass:   os.Getenv("EMAIL_PASS"),
		EmailFrom:   getEnv("EMAIL_FROM", "no-reply@ecofinds.dev"),
	}
	cfg.BaseURL = strings.TrimSuffix(getEnv("BASE_URL", "http://localhost:"+cfg.Port), "/")

	var err error
	if cfg.JWTTTL, err = getDuration("JWT_TTL", 72*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ShipmentInterval, err = getDuration("SHIPMENT_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.ShipAfter, err = getDuration("SHIP_AFTER", 24*time.Hour); err != nil {
		return nil, err
	}

	switch cfg.StoreDriver {
	case "mysql":
		if cfg.DatabaseDSN == "" {
			return nil, errors.New("DB_DSN_PRIMARY is required when STORE_DRIVER=mysql")
		}
	case "memory":
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q (want mysql or memory)", cfg.StoreDriver)
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev-only-secret-change-me"
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s %q: want a duration like 90s or 24h", key, v)
	}
	return d, nil
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
