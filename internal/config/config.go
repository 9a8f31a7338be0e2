package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/restartfu/grid-bench/internal/bench"
	"github.com/restartfu/grid-bench/internal/lock"
	"github.com/restartfu/grid-bench/internal/observability"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Addr           string        `toml:"addr"`
	DBPath         string        `toml:"db_path"`
	LockPath       string        `toml:"lock_path"`
	SampleInterval time.Duration `toml:"sample_interval"`
	HistoryLimit   int           `toml:"history_limit"`
	WebhookURL     string        `toml:"webhook_url"`
	Benchmark      Benchmark     `toml:"benchmark"`
	Sentry         Sentry        `toml:"sentry"`
}

type Benchmark struct {
	HashCount int           `toml:"hash_count"`
	Threads   int           `toml:"threads"`
	Algorithm string        `toml:"algorithm"`
	Timeout   time.Duration `toml:"timeout"`
}

type Sentry struct {
	DSN         string `toml:"dsn"`
	Environment string `toml:"environment"`
	Release     string `toml:"release"`
}

func Default() Config {
	return Config{
		Addr:           ":8080",
		DBPath:         defaultDBPath(),
		LockPath:       lock.DefaultPath(),
		SampleInterval: 500 * time.Millisecond,
		HistoryLimit:   250,
		Benchmark: Benchmark{
			HashCount: bench.DefaultHashCount,
			Algorithm: bench.AlgorithmSHA256,
		},
	}
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "grid-bench", "history.db")
}

// Load layers the defaults, the TOML file at path (skipped when path is
// empty) and the GRID_* and SENTRY_* environment variables, in that order.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	setString := func(key string, dst *string) {
		if value := strings.TrimSpace(getenv(key)); value != "" {
			*dst = value
		}
	}
	setInt := func(key string, dst *int) error {
		value := strings.TrimSpace(getenv(key))
		if value == "" {
			return nil
		}
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
		}
		*dst = parsed
		return nil
	}
	setDuration := func(key string, dst *time.Duration) error {
		value := strings.TrimSpace(getenv(key))
		if value == "" {
			return nil
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
		}
		*dst = parsed
		return nil
	}

	setString("GRID_ADDR", &cfg.Addr)
	setString("GRID_DB_PATH", &cfg.DBPath)
	setString("GRID_LOCK_PATH", &cfg.LockPath)
	setString("GRID_ALGORITHM", &cfg.Benchmark.Algorithm)
	setString("GRID_WEBHOOK_URL", &cfg.WebhookURL)
	setString("SENTRY_DSN", &cfg.Sentry.DSN)
	setString("SENTRY_ENVIRONMENT", &cfg.Sentry.Environment)
	setString("SENTRY_RELEASE", &cfg.Sentry.Release)
	if err := setInt("GRID_HASH_COUNT", &cfg.Benchmark.HashCount); err != nil {
		return err
	}
	if err := setInt("GRID_THREADS", &cfg.Benchmark.Threads); err != nil {
		return err
	}
	if err := setInt("GRID_HISTORY_LIMIT", &cfg.HistoryLimit); err != nil {
		return err
	}
	if err := setDuration("GRID_BENCHMARK_TIMEOUT", &cfg.Benchmark.Timeout); err != nil {
		return err
	}
	return setDuration("GRID_SAMPLE_INTERVAL", &cfg.SampleInterval)
}

func (c Config) Validate() error {
	if err := c.BenchConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !slices.Contains(bench.Algorithms(), strings.ToLower(c.Benchmark.Algorithm)) {
		return fmt.Errorf("%w: algorithm %q, want one of %s", ErrInvalid, c.Benchmark.Algorithm, strings.Join(bench.Algorithms(), ", "))
	}
	if c.SampleInterval <= 0 {
		return fmt.Errorf("%w: sample interval must be positive", ErrInvalid)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("%w: history limit must be positive", ErrInvalid)
	}
	return nil
}

func (c Config) BenchConfig() bench.Config {
	return bench.Config{
		HashCount: c.Benchmark.HashCount,
		Threads:   c.Benchmark.Threads,
		Algorithm: strings.ToLower(c.Benchmark.Algorithm),
		Payload:   bench.DefaultPayload,
		Timeout:   c.Benchmark.Timeout,
	}
}

func (c Config) SentryConfig() observability.SentryConfig {
	return observability.SentryConfig{
		DSN:         c.Sentry.DSN,
		Environment: c.Sentry.Environment,
		Release:     c.Sentry.Release,
	}
}
