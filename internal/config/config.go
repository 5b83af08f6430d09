// Package config loads application configuration from environment variables.
package config

import (
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"
)

// Config holds the required runtime configuration.  Each field maps to an
// environment variable; optional groups (rate limiting, caching, redis,
// notifications, booking engine) have their own loaders with defaults.
type Config struct {
	Env          string // APP_ENV, e.g. "dev" or "prod"
	Port         string // APP_PORT
	DBUser       string // DB_USER
	DBPass       string // DB_PASS (empty allowed)
	DBHost       string // DB_HOST
	DBPort       string // DB_PORT
	DBName       string // DB_NAME
	JWTSecret    string // JWT_SECRET, signs admin access tokens
	AccessTTLMin int    // ACCESS_TOKEN_TTL_MIN
	BcryptCost   int    // BCRYPT_COST, used when seeding admin passwords
	AutoMigrate  bool   // DB_AUTO_MIGRATE, apply schema.sql on startup

	// Optional bootstrap super admin, created on startup when the username
	// is not taken yet.  Leave SEED_ADMIN_USERNAME empty to disable.
	SeedAdminUsername string // SEED_ADMIN_USERNAME
	SeedAdminEmail    string // SEED_ADMIN_EMAIL
	SeedAdminPassword string // SEED_ADMIN_PASSWORD
}

// Load reads the required configuration.  Missing or malformed required
// variables terminate the process.
func Load() Config {
	return Config{
		Env:          must("APP_ENV"),
		Port:         must("APP_PORT"),
		DBUser:       must("DB_USER"),
		DBPass:       os.Getenv("DB_PASS"),
		DBHost:       must("DB_HOST"),
		DBPort:       must("DB_PORT"),
		DBName:       must("DB_NAME"),
		JWTSecret:    must("JWT_SECRET"),
		AccessTTLMin: mustInt("ACCESS_TOKEN_TTL_MIN"),
		BcryptCost:   envInt("BCRYPT_COST", 12),
		AutoMigrate:  envBool("DB_AUTO_MIGRATE", true),

		SeedAdminUsername: envStr("SEED_ADMIN_USERNAME", ""),
		SeedAdminEmail:    envStr("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword: envStr("SEED_ADMIN_PASSWORD", ""),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must but converts the value to an int.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
