package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/thedigitalgifter/gifter/internal/logger"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultProviderAddr = "localhost:3000"
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the gifter service will be run
	ListenAddr string

	// Render provider address to poll for generation results
	ProviderAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret key the hosted auth provider signs access tokens with
	SecretKey string

	// Secret the payment provider signs webhook deliveries with
	WebhookSecret string

	// Bcrypt hash of the admin bearer token
	AdminTokenHash string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:     defaultLoggingLevel,
		ListenAddr:   defaultListenAddr,
		ProviderAddr: defaultProviderAddr,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":      setString(&c.ListenAddr),
		"DATABASE_URI":     setString(&c.DatabaseDSN),
		"SECRET_KEY":       setString(&c.SecretKey),
		"WEBHOOK_SECRET":   setString(&c.WebhookSecret),
		"ADMIN_TOKEN_HASH": setString(&c.AdminTokenHash),
		"LOG_LEVEL":        setString(&c.LogLevel),
		"PROVIDER_ADDRESS": setString(&c.ProviderAddr),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("gifter", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Access token secret key")
	fs.StringVarP(&c.WebhookSecret, "webhook-secret", "w", c.WebhookSecret, "Payment webhook signing secret")
	fs.StringVar(&c.AdminTokenHash, "admin-token-hash", c.AdminTokenHash, "Bcrypt hash of the admin bearer token")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.ProviderAddr, "provider", "r", c.ProviderAddr, "Render provider address")

	return fs.Parse(args)
}
