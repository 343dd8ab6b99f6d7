package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting. All of it comes from the environment;
// a local .env file is honored when present.
type Config struct {
	DatabaseURL      string
	JWTSecretKey     string
	ServerPort       int
	MasterAdminEmail string

	DuprBaseURL      string
	DuprClientKey    string
	DuprClientSecret string
	DuprClubID       string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	cfg := &Config{
		DatabaseURL:      dbURL,
		JWTSecretKey:     jwtKey,
		ServerPort:       port,
		MasterAdminEmail: os.Getenv("MASTER_ADMIN_EMAIL"),

		DuprBaseURL:      os.Getenv("DUPR_BASE_URL"),
		DuprClientKey:    os.Getenv("DUPR_CLIENT_KEY"),
		DuprClientSecret: os.Getenv("DUPR_CLIENT_SECRET"),
		DuprClubID:       os.Getenv("DUPR_CLUB_ID"),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	return cfg, nil
}

// R2Configured reports whether all object storage settings are present. Logo
// uploads are disabled without them.
func (c *Config) R2Configured() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" &&
		c.R2SecretAccessKey != "" && c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

// DuprConfigured reports whether the rating provider credentials are present.
func (c *Config) DuprConfigured() bool {
	return c.DuprBaseURL != "" && c.DuprClientKey != "" &&
		c.DuprClientSecret != "" && c.DuprClubID != ""
}
