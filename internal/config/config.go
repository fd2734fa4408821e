// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values.  Required variables are
// enforced by must(); missing values cause the program to exit with a fatal
// log message so a misconfigured instance never starts half-working.
type Config struct {
	Env            string // application environment (dev/test/prod)
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
	AMQPURL        string // RabbitMQ connection URL (optional; events disabled when empty)
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		Env:            getenv("APP_ENV", "dev"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 15),
		RefreshTTLDays: envInt("REFRESH_TOKEN_TTL_DAYS", 30),
		BcryptCost:     envInt("BCRYPT_COST", 12),
		AMQPURL:        os.Getenv("RABBITMQ_URL"),
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

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return def
}

func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}
