package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the runtime settings of the API.
type Config struct {
	AppPort string

	DBDriver    string
	DatabaseDSN string
	DBDebug     bool

	JWTSecret string
	JWTTTL    time.Duration

	RabbitMQURL   string
	RabbitMQQueue string

	AdminEmail    string
	AdminPassword string
	AdminName     string
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_DSN", "file:quickpoll.db?_foreign_keys=on")
	v.SetDefault("DB_DEBUG", false)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", 7*24*time.Hour)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_QUEUE", "poll_events")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("ADMIN_NAME", "")
}

// Load reads an optional .env file, then the environment, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Could not load .env file: %v", err)
	}

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:       v.GetString("APP_PORT"),
		DBDriver:      strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:   v.GetString("DATABASE_DSN"),
		DBDebug:       v.GetBool("DB_DEBUG"),
		JWTSecret:     v.GetString("JWT_SECRET"),
		JWTTTL:        v.GetDuration("JWT_TTL"),
		RabbitMQURL:   v.GetString("RABBITMQ_URL"),
		RabbitMQQueue: v.GetString("RABBITMQ_QUEUE"),
		AdminEmail:    v.GetString("ADMIN_EMAIL"),
		AdminPassword: v.GetString("ADMIN_PASSWORD"),
		AdminName:     v.GetString("ADMIN_NAME"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is not set")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}

// EventsEnabled reports whether poll events should be published to RabbitMQ.
func (c *Config) EventsEnabled() bool {
	return c.RabbitMQURL != ""
}
