// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/optekal/fabprice/internal/aggregate"
)

const (
	// EnvSources is a comma-separated list of enabled source IDs.
	EnvSources = "FABPRICE_SOURCES"
	// EnvTimeoutMS bounds one adapter call, in milliseconds.
	EnvTimeoutMS = "FABPRICE_TIMEOUT_MS"
	// EnvMaxCards caps how many cards one batch may search.
	EnvMaxCards = "FABPRICE_MAX_CARDS"

	DefaultMaxCards = 50
)

// DefaultSources is the out-of-the-box source set; Girafull is the primary
// source, the rest are opt-in.
var DefaultSources = []string{"girafull"}

type Config struct {
	EnabledSources []string
	Timeout        time.Duration
	MaxCards       int
}

// Load reads configuration from the environment. A .env file in the
// working directory is merged in when present; real environment variables
// win.
func Load() Config {
	_ = godotenv.Load() // missing .env is fine

	cfg := Config{
		EnabledSources: DefaultSources,
		Timeout:        aggregate.DefaultTimeout,
		MaxCards:       DefaultMaxCards,
	}

	if v := os.Getenv(EnvSources); v != "" {
		var sources []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				sources = append(sources, s)
			}
		}
		if len(sources) > 0 {
			cfg.EnabledSources = sources
		}
	}

	if v := os.Getenv(EnvTimeoutMS); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.Timeout = time.Duration(ms) * time.Millisecond
		}
	}

	if v := os.Getenv(EnvMaxCards); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxCards = n
		}
	}

	return cfg
}
