package utils

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// DevModeEnv enables dev mode when set to a true value.
const DevModeEnv = "VYBIUM_ZKVM_DEV_MODE"

// Backend names.
const (
	BackendGroth16 = "groth16"
	BackendDev     = "dev"
)

// Config represents the configuration for proving and verifying guest runs
type Config struct {
	// Backend is the proof system used by the prover
	Backend string `yaml:"backend"`

	// DevMode lets verifiers accept dev seals
	DevMode bool `yaml:"dev_mode"`

	// Execution limits
	SessionTimeout  time.Duration `yaml:"session_timeout"`
	MaxSegments     int           `yaml:"max_segments"`      // 0 = unlimited
	MaxJournalBytes int           `yaml:"max_journal_bytes"` // 0 = unlimited

	// Parallelism bounds concurrent runs in ProveAll
	Parallelism int `yaml:"parallelism"`

	// LogLevel is a zerolog level name
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Backend:         BackendGroth16,
		DevMode:         false,
		SessionTimeout:  time.Minute,
		MaxSegments:     0,
		MaxJournalBytes: 1 << 20,
		Parallelism:     runtime.GOMAXPROCS(0),
		LogLevel:        "info",
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Backend != BackendGroth16 && c.Backend != BackendDev {
		return fmt.Errorf("backend must be '%s' or '%s', got '%s'", BackendGroth16, BackendDev, c.Backend)
	}

	if c.Backend == BackendDev && !c.DevMode {
		return fmt.Errorf("backend '%s' requires dev mode", BackendDev)
	}

	if c.SessionTimeout < 0 {
		return fmt.Errorf("session timeout must not be negative")
	}

	if c.MaxSegments < 0 {
		return fmt.Errorf("max segments must not be negative")
	}

	if c.MaxJournalBytes < 0 {
		return fmt.Errorf("max journal bytes must not be negative")
	}

	if c.Parallelism <= 0 {
		return fmt.Errorf("parallelism must be positive")
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level '%s'", c.LogLevel)
	}

	return nil
}

// Level returns the parsed log level, or info if it does not parse.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// WithBackend sets the backend
func (c *Config) WithBackend(name string) *Config {
	c.Backend = name
	return c
}

// WithDevMode sets dev mode
func (c *Config) WithDevMode(enabled bool) *Config {
	c.DevMode = enabled
	return c
}

// WithSessionTimeout sets the session timeout
func (c *Config) WithSessionTimeout(d time.Duration) *Config {
	c.SessionTimeout = d
	return c
}

// WithMaxSegments sets the segment limit
func (c *Config) WithMaxSegments(n int) *Config {
	c.MaxSegments = n
	return c
}

// WithMaxJournalBytes sets the journal size limit
func (c *Config) WithMaxJournalBytes(n int) *Config {
	c.MaxJournalBytes = n
	return c
}

// WithParallelism sets the number of concurrent runs
func (c *Config) WithParallelism(n int) *Config {
	c.Parallelism = n
	return c
}

// WithLogLevel sets the log level
func (c *Config) WithLogLevel(level string) *Config {
	c.LogLevel = level
	return c
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// LoadConfig reads a YAML file over the defaults, then applies the
// environment. Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig is LoadConfig on bytes.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment settings.
func (c *Config) ApplyEnv() error {
	v, ok := os.LookupEnv(DevModeEnv)
	if !ok || v == "" {
		return nil
	}
	on, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s value '%s'", DevModeEnv, v)
	}
	c.DevMode = on
	return nil
}
