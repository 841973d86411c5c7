package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"blackjack/internal/client"
)

// Config holds client configuration.
type Config struct {
	ServerURL      string
	Port           string
	RequestTimeout time.Duration
	Backoff        client.Backoff
	ReadLimit      int64
	LogLevel       string
	LogFile        string
	PlayerName     string
	PlayerFile     string
}

// Load reads an optional .env file from the working directory and then the
// environment, falling back to defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		ServerURL:  getEnv("BLACKJACK_SERVER_URL", "http://localhost:5000"),
		Port:       getEnv("PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFile:    getEnv("LOG_FILE", "blackjack.log"),
		PlayerName: strings.TrimSpace(os.Getenv("PLAYER_NAME")),
		PlayerFile: getEnv("PLAYER_FILE", ".blackjack-player"),
	}

	var err error
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.Backoff.Initial, err = getDuration("RECONNECT_INITIAL", client.DefaultBackoff.Initial); err != nil {
		return nil, err
	}
	if cfg.Backoff.Max, err = getDuration("RECONNECT_MAX", client.DefaultBackoff.Max); err != nil {
		return nil, err
	}
	retries, err := getInt("RECONNECT_RETRIES", int64(client.DefaultBackoff.Retries))
	if err != nil {
		return nil, err
	}
	if retries < 0 {
		return nil, fmt.Errorf("RECONNECT_RETRIES must not be negative")
	}
	cfg.Backoff.Retries = int(retries)
	if cfg.ReadLimit, err = getInt("READ_LIMIT", 1<<20); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Manager returns the connection manager settings.
func (c *Config) Manager() client.Config {
	return client.Config{
		RequestTimeout: c.RequestTimeout,
		ReadLimit:      c.ReadLimit,
		Backoff:        c.Backoff,
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

func getInt(key string, defaultValue int64) (int64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
