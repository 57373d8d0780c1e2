// Package config loads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/database"
	"github.com/joho/godotenv"
)

// Storage backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Ownership modes for booking updates.
const (
	OwnershipUser = "user"
	OwnershipPath = "path"
)

// Config holds every setting the service reads at startup.
type Config struct {
	Port  string
	Store string
	DB    database.Config

	JWTSecret string

	RabbitMQURL string
	Exchange    string

	LogLevel  string
	LogFormat string

	RevalidateOnUpdate bool
	Ownership          string
	SinglePerUser      bool
}

// Load reads envFile (if it exists) into the process environment and then
// builds a Config from well-known variables, falling back to local
// development defaults.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Store: strings.ToLower(getEnv("BOOKING_STORE", StorePostgres)),
		DB: database.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "hotelbooking"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWTSecret:          getEnv("JWT_SECRET", ""),
		RabbitMQURL:        getEnv("RABBITMQ_URL", ""),
		Exchange:           getEnv("RABBITMQ_EXCHANGE", "hotel-booking"),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
		RevalidateOnUpdate: getEnvAsBool("BOOKING_REVALIDATE_ON_UPDATE", true),
		Ownership:          strings.ToLower(getEnv("BOOKING_OWNERSHIP", OwnershipUser)),
		SinglePerUser:      getEnvAsBool("BOOKING_SINGLE_PER_USER", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.Store {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("BOOKING_STORE must be %q or %q, got %q", StorePostgres, StoreMemory, c.Store)
	}
	switch c.Ownership {
	case OwnershipUser, OwnershipPath:
	default:
		return fmt.Errorf("BOOKING_OWNERSHIP must be %q or %q, got %q", OwnershipUser, OwnershipPath, c.Ownership)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
