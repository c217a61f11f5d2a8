package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// APIConfig is the environment-driven configuration for the HTTP
// API server and its admin auth.
type APIConfig struct {
	Addr        string
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration

	// InviteCode gates operator registration; empty disables it.
	InviteCode string
}

// LoadAPI reads API settings from the environment, after loading a
// .env file when one is present. Dev defaults keep a bare checkout
// runnable.
func LoadAPI() APIConfig {
	_ = godotenv.Load()

	secret := os.Getenv("SCENTDB_JWT_SECRET")
	if secret == "" {
		// dev default (change for demo / production)
		secret = "dev-secret-change-me"
	}

	issuer := os.Getenv("SCENTDB_JWT_ISSUER")
	if issuer == "" {
		issuer = "scentdb"
	}

	addr := os.Getenv("SCENTDB_API_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	ttl := 24 * time.Hour
	if raw := os.Getenv("SCENTDB_JWT_TTL_HOURS"); raw != "" {
		if hours, err := strconv.Atoi(raw); err == nil && hours > 0 {
			ttl = time.Duration(hours) * time.Hour
		}
	}

	return APIConfig{
		Addr:        addr,
		JWTSecret:   secret,
		JWTIssuer:   issuer,
		JWTDuration: ttl,
		InviteCode:  os.Getenv("SCENTDB_INVITE_CODE"),
	}
}
