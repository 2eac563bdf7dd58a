// Package config loads runtime settings from a .env file and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	MongoURI      string
	MongoDatabase string
	Store         string
	Port          string
	JWTSecret     string
	TokenTTL      time.Duration
	CORSOrigins   []string
	LogLevel      string
	MaxPhotoBytes int
	MailWebhook   string
	PublicBaseURL string
	// PasswordCost is the bcrypt work factor; zero picks the hasher default.
	PasswordCost    int
	VerificationTTL time.Duration

	// Optional admin account created at startup.
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// Load reads .env (if present) and then the process environment.
// The returned bool reports whether a .env file was found.
func Load() (*Config, bool, error) {
	found := godotenv.Load() == nil
	cfg, err := FromEnv(os.Getenv)
	return cfg, found, err
}

func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		MongoURI:        getenv("MONGO_URI"),
		MongoDatabase:   orDefault(getenv("MONGO_DATABASE"), "aguapp"),
		Store:           orDefault(getenv("STORE"), StoreMongo),
		Port:            orDefault(getenv("API_PORT"), "8080"),
		JWTSecret:       getenv("JWT_SECRET"),
		TokenTTL:        24 * time.Hour,
		LogLevel:        orDefault(getenv("LOG_LEVEL"), "info"),
		MaxPhotoBytes:   5 << 20,
		VerificationTTL: 24 * time.Hour,
		MailWebhook:     getenv("MAIL_WEBHOOK_URL"),
		PublicBaseURL:   strings.TrimRight(orDefault(getenv("PUBLIC_BASE_URL"), "http://localhost:8080"), "/"),
		AdminEmail:      getenv("ADMIN_EMAIL"),
		AdminPassword:   getenv("ADMIN_PASSWORD"),
		AdminName:       orDefault(getenv("ADMIN_NAME"), "Administrador"),
	}

	for _, o := range strings.Split(getenv("CORS_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"http://localhost:8100", "capacitor://localhost", "http://localhost"}
	}

	if v := getenv("MAX_PHOTO_BYTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid MAX_PHOTO_BYTES %q", v)
		}
		cfg.MaxPhotoBytes = n
	}
	if v := getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid TOKEN_TTL %q", v)
		}
		cfg.TokenTTL = d
	}

	if v := getenv("VERIFICATION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid VERIFICATION_TTL %q", v)
		}
		cfg.VerificationTTL = d
	}
	if v := getenv("BCRYPT_COST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid BCRYPT_COST %q", v)
		}
		cfg.PasswordCost = n
	}

	if cfg.Store != StoreMongo && cfg.Store != StoreMemory {
		return nil, fmt.Errorf("unknown STORE %q", cfg.Store)
	}
	if cfg.Store == StoreMongo && cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI is required when STORE=%s", StoreMongo)
	}
	if cfg.AdminEmail != "" && cfg.AdminPassword == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD is required when ADMIN_EMAIL is set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not configured")
	}
	return cfg, nil
}

// MaxBodyBytes is the request body cap: room for two base64 photos at
// MaxPhotoBytes each plus the JSON around them.
func (c *Config) MaxBodyBytes() int64 {
	encoded := int64(c.MaxPhotoBytes+2) / 3 * 4
	return 2*encoded + 64<<10
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
