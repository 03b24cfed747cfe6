// Package config loads memoya settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath       string
	Horizon      int
	LogLevel     string
	HistoryLimit int
	// Server
	Addr     string
	APIToken string
	// Backups
	BackupDir string
	// Assistant
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int
}

// LoadDotenv seeds the environment from the given files, or ./.env when none
// are given. Variables already set win. Missing files are not an error.
func LoadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func Load() (*Config, error) {
	home, _ := os.UserHomeDir()
	cfg := &Config{
		DBPath:       envStr("MEMOYA_DB", filepath.Join(home, ".memoya", "memoya.db")),
		Horizon:      envInt("MEMOYA_HORIZON", 12),
		LogLevel:     envStr("MEMOYA_LOG_LEVEL", "info"),
		HistoryLimit: envInt("MEMOYA_HISTORY_LIMIT", 10),
		Addr:         envAddr("MEMOYA_ADDR", ":8080"),
		APIToken:     envStr("MEMOYA_API_TOKEN", ""),
		BackupDir:    envStr("MEMOYA_BACKUP_DIR", filepath.Join(home, ".memoya", "backups")),
		Model:        envStr("MEMOYA_MODEL", ""),
		APIKey:       envStr("ANTHROPIC_API_KEY", ""),
		BaseURL:      envStr("ANTHROPIC_BASE_URL", ""),
		MaxTokens:    envInt("MEMOYA_MAX_TOKENS", 1024),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("MEMOYA_DB must not be empty")
	}
	if c.Horizon < 1 {
		return fmt.Errorf("MEMOYA_HORIZON must be positive, got %d", c.Horizon)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("MEMOYA_HISTORY_LIMIT must not be negative, got %d", c.HistoryLimit)
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("MEMOYA_MAX_TOKENS must be positive, got %d", c.MaxTokens)
	}
	return nil
}

// AssistantEnabled reports whether an API key is configured.
func (c *Config) AssistantEnabled() bool {
	return c.APIKey != ""
}

func envStr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return fallback
}

// envAddr accepts a bare port ("8080") or a full listen address.
func envAddr(key, fallback string) string {
	v := envStr(key, "")
	switch {
	case v == "":
		return fallback
	case strings.Contains(v, ":"):
		return v
	default:
		return ":" + v
	}
}
