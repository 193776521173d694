package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr      string
	LogMode   string
	MatchWait time.Duration
}

// Load reads configuration from the environment with production defaults.
// MATCH_TIMEOUT_MS is the reaction-race window; 5000ms is the game rule,
// overridable mostly so the window can be shortened under test.
func Load() Config {
	cfg := Config{
		Addr:      ":3001",
		LogMode:   "prod",
		MatchWait: 5000 * time.Millisecond,
	}

	if v := strings.TrimSpace(os.Getenv("REFLEKS_ADDR")); v != "" {
		cfg.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_MODE")); v != "" {
		cfg.LogMode = v
	}
	if v := strings.TrimSpace(os.Getenv("MATCH_TIMEOUT_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MatchWait = time.Duration(n) * time.Millisecond
		}
	}
	return cfg
}
