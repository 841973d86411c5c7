package config

import (
	"testing"
	"time"

	"blackjack/internal/client"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"BLACKJACK_SERVER_URL", "PORT", "REQUEST_TIMEOUT", "RECONNECT_RETRIES",
		"RECONNECT_INITIAL", "RECONNECT_MAX", "LOG_LEVEL", "LOG_FILE",
		"PLAYER_NAME", "PLAYER_FILE", "READ_LIMIT",
	} {
		t.Setenv(key, "")
	}
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.ServerURL != "http://localhost:5000" || cfg.Port != "8080" {
		t.Errorf("got server %q port %q", cfg.ServerURL, cfg.Port)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout %v, want 10s", cfg.RequestTimeout)
	}
	if cfg.Backoff != client.DefaultBackoff {
		t.Errorf("Backoff %+v, want %+v", cfg.Backoff, client.DefaultBackoff)
	}
	if cfg.ReadLimit != 1<<20 || cfg.LogLevel != "info" || cfg.PlayerName != "" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("BLACKJACK_SERVER_URL", "https://table.example.com")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("RECONNECT_RETRIES", "0")
	t.Setenv("RECONNECT_INITIAL", "250ms")
	t.Setenv("RECONNECT_MAX", "4s")
	t.Setenv("READ_LIMIT", "4096")
	t.Setenv("PLAYER_NAME", "  quiet-amber-fox-1a2b3  ")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	want := client.Backoff{Initial: 250 * time.Millisecond, Max: 4 * time.Second, Retries: 0}
	if cfg.Backoff != want {
		t.Errorf("Backoff %+v, want %+v", cfg.Backoff, want)
	}
	mc := cfg.Manager()
	if mc.RequestTimeout != 3*time.Second || mc.ReadLimit != 4096 {
		t.Errorf("Manager config %+v", mc)
	}
	if cfg.PlayerName != "quiet-amber-fox-1a2b3" {
		t.Errorf("PlayerName %q", cfg.PlayerName)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	cases := map[string]string{
		"REQUEST_TIMEOUT":   "soon",
		"RECONNECT_MAX":     "-1s",
		"RECONNECT_RETRIES": "-2",
		"READ_LIMIT":        "lots",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := FromEnv(); err == nil {
				t.Errorf("%s=%q should be rejected", key, value)
			}
		})
	}
}
