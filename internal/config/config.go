// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	AllowedOrigins []string

	// Data paths.
	AuditDBPath string
	DatabaseDir string
	UploadDir   string

	// Local LLM settings (Ollama).
	OllamaBaseURL  string
	LLMModel       string
	GatewayTimeout time.Duration

	// Auth.
	JWTSecret        string
	TokenTTL         time.Duration
	AdminPassword    string
	ManagerPassword  string
	MaxLoginAttempts int
	LockoutDuration  time.Duration

	// Max upload size in bytes.
	MaxUploadBytes int64
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		AllowedOrigins:   splitOrigins(getEnv("ALLOWED_ORIGINS", "*")),
		AuditDBPath:      getEnv("AUDIT_DB_PATH", "./data/databases/audit.db"),
		DatabaseDir:      getEnv("DATABASE_DIR", "./data/databases"),
		UploadDir:        getEnv("UPLOAD_DIR", "./data/uploads"),
		OllamaBaseURL:    getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		LLMModel:         getEnv("LLM_MODEL", "llama3.2:3b"),
		GatewayTimeout:   time.Duration(getEnvInt("GATEWAY_TIMEOUT_SECONDS", 60)) * time.Second,
		JWTSecret:        getEnv("SECRET_KEY", "change-this-to-a-random-secret-key"),
		TokenTTL:         time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 480)) * time.Minute,
		AdminPassword:    getEnv("ADMIN_PASSWORD", "Admin@2024"),
		ManagerPassword:  getEnv("MANAGER_PASSWORD", "Manager@2024"),
		MaxLoginAttempts: getEnvInt("MAX_LOGIN_ATTEMPTS", 5),
		LockoutDuration:  time.Duration(getEnvInt("LOCKOUT_MINUTES", 15)) * time.Minute,
		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_SIZE_MB", 500)) << 20,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.AuditDBPath == "" {
		return fmt.Errorf("AUDIT_DB_PATH cannot be empty")
	}
	if c.DatabaseDir == "" {
		return fmt.Errorf("DATABASE_DIR cannot be empty")
	}
	if c.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR cannot be empty")
	}
	if c.OllamaBaseURL == "" {
		return fmt.Errorf("OLLAMA_BASE_URL cannot be empty")
	}
	if c.LLMModel == "" {
		return fmt.Errorf("LLM_MODEL cannot be empty")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("SECRET_KEY cannot be empty")
	}
	if c.MaxLoginAttempts <= 0 {
		return fmt.Errorf("MAX_LOGIN_ATTEMPTS must be > 0")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE_MB must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env == "development"
	}
	for _, o := range c.AllowedOrigins {
		if o == "*" || strings.Contains(o, "localhost") || strings.Contains(o, "127.0.0.1") {
			return true
		}
	}
	return false
}

func splitOrigins(v string) []string {
	parts := strings.Split(v, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
