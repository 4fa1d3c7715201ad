// Package Config reads service settings from .env and the environment.
package Config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"Chronos/Models"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const defaultJWTSecret = "change-me"

type Config struct {
	Environment string
	Port        string

	Database Models.DatabaseConfig

	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	FrontendURL        string
	DesktopDownloadURL string
	AllowedOrigins     string

	SMTP Models.EmailConfig

	UploadDir    string
	LogDir       string
	TemplatesDir string

	SlackWebhookURL  string
	SlackChannel     string
	DigestSchedule   string
	DigestRecipients []string

	AdminEmail    string
	AdminPassword string
}

// Load reads .env (if present) and then the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnv("PORT", "3001"),
		Database: Models.DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "sqlite"),
			DSN:    getEnv("DB_DSN", "chronos.db"),
			Debug:  getBool("DB_DEBUG", false),
		},
		JWTSecret:          getEnv("JWT_SECRET", defaultJWTSecret),
		TokenTTL:           getDuration("TOKEN_TTL", 12*time.Hour),
		BcryptCost:         getInt("BCRYPT_COST", bcrypt.DefaultCost),
		FrontendURL:        strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		DesktopDownloadURL: getEnv("DESKTOP_APP_DOWNLOAD_URL", ""),
		AllowedOrigins:     getEnv("ALLOWED_ORIGINS", "*"),
		SMTP: Models.EmailConfig{
			SMTPServer:   getEnv("SMTP_HOST", ""),
			SMTPPort:     getInt("SMTP_PORT", 587),
			Username:     getEnv("SMTP_USER", ""),
			Password:     getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("EMAIL_FROM", ""),
			FromName:     getEnv("EMAIL_FROM_NAME", "Chronos"),
			TLSEnabled:   getBool("SMTP_TLS", false),
			SkipTLSCheck: getBool("SMTP_SKIP_TLS_CHECK", false),
		},
		UploadDir:       getEnv("UPLOAD_DIR", "uploads"),
		LogDir:          getEnv("LOG_DIR", "logs"),
		TemplatesDir:    getEnv("TEMPLATES_DIR", ""),
		SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),
		SlackChannel:    getEnv("SLACK_CHANNEL", ""),
		DigestSchedule:  getEnv("DIGEST_SCHEDULE", ""),
		AdminEmail:      getEnv("ADMIN_EMAIL", ""),
		AdminPassword:   getEnv("ADMIN_PASSWORD", ""),
	}
	if recipients := getEnv("DIGEST_RECIPIENTS", ""); recipients != "" {
		for _, r := range strings.Split(recipients, ",") {
			if r = strings.TrimSpace(r); r != "" {
				cfg.DigestRecipients = append(cfg.DigestRecipients, r)
			}
		}
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
