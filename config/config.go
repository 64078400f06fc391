package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	GinMode         string
	LogLevel        string
	ShutdownTimeout time.Duration
	DB              DBConfig
	Auth            AuthConfig
	Broadcast       BroadcastConfig
	Telegram        TelegramConfig
	Admin           AdminConfig
}

type DBConfig struct {
	Driver string // sqlite, postgres or mysql
	DSN    string
}

type AuthConfig struct {
	JWTSecret []byte
	TokenTTL  time.Duration
}

type BroadcastConfig struct {
	Buffer int // per-subscriber event buffer
}

type TelegramConfig struct {
	Token  string
	ChatID int64 // kitchen chat receiving order notifications
}

// Enabled reports whether order notifications should be sent
func (t TelegramConfig) Enabled() bool {
	return t.Token != "" && t.ChatID != 0
}

// AdminConfig bootstraps an admin account at startup when all fields are set
type AdminConfig struct {
	Phone    string
	Email    string
	Password string
}

func (a AdminConfig) Enabled() bool {
	return a.Phone != "" && a.Email != "" && a.Password != ""
}

// Load reads .env (if present) and the environment, falling back to defaults
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		GinMode:         getEnv("GIN_MODE", "debug"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		DB: DBConfig{
			Driver: getEnv("DB_DRIVER", "sqlite"),
			DSN:    getEnv("DB_DSN", "canteen.db"),
		},
		Auth: AuthConfig{
			JWTSecret: []byte(getEnv("JWT_SECRET", "canteen_super_secret_2024")),
			TokenTTL:  getDuration("JWT_TTL", 24*time.Hour),
		},
		Broadcast: BroadcastConfig{
			Buffer: getInt("BROADCAST_BUFFER", 16),
		},
		Telegram: TelegramConfig{
			Token:  getEnv("TELEGRAM_TOKEN", ""),
			ChatID: int64(getInt("TELEGRAM_CHAT_ID", 0)),
		},
		Admin: AdminConfig{
			Phone:    getEnv("ADMIN_PHONE", ""),
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
