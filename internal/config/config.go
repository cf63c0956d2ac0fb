package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=duck_inventory port=5432 sslmode=disable"

type Config struct {
	HTTPPort         string
	DatabaseDSN      string
	JWTSecret        string
	CORSOrigins      string
	RedisAddr        string // empty disables the branding cache
	RedisPass        string
	BrandingCacheTTL time.Duration
	ReconcileCron    string // RECONCILE_SCHEDULE=off disables scheduled reconciliation
	GormLog          string
	InviteTTL        time.Duration
}

// LoadEnv reads a .env file if one exists. Missing files are not an error.
func LoadEnv() {
	if err := godotenv.Load(); err == nil {
		log.Println("[config] .env loaded")
	}
}

func read() *Config {
	LoadEnv()

	cfg := &Config{
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:      getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		CORSOrigins:      getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPass:        getEnv("REDIS_PASS", ""),
		BrandingCacheTTL: getDuration("BRANDING_CACHE_TTL", 10*time.Minute),
		ReconcileCron:    getEnv("RECONCILE_SCHEDULE", "0 3 * * *"),
		GormLog:          getEnv("GORM_LOG", "warn"),
		InviteTTL:        getDuration("INVITE_TTL", 72*time.Hour),
	}
	if cfg.ReconcileCron == "off" {
		cfg.ReconcileCron = ""
	}
	return cfg
}

// Load reads the configuration of the HTTP server and exits on unsafe values.
func Load() *Config {
	cfg := read()

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET is not set")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET must be at least 32 characters")
	}
	if cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN uses the default local value, set your own Postgres DSN in production.")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS uses the default value, set your own domain in production.")
	}
	if cfg.RedisAddr == "" {
		log.Println("[config] REDIS_ADDR not set, branding cache disabled")
	}

	return cfg
}

// LoadTooling reads the configuration for command line tools, which never
// issue tokens and so do not need JWT_SECRET.
func LoadTooling() *Config {
	return read()
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[WARN] %s=%q is not a duration, using %s", key, v, def)
		return def
	}
	return d
}
