package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that provide defaults for command flags.
const (
	EnvWorkers    = "STDCONTRAST_WORKERS"
	EnvScale      = "STDCONTRAST_SCALE"
	EnvMethods    = "STDCONTRAST_METHODS"
	EnvMethodFile = "STDCONTRAST_METHOD_FILE"
	EnvVerbose    = "STDCONTRAST_VERBOSE"
)

// Config holds the settings shared by the processing commands.
type Config struct {
	Workers    int
	Scale      float64
	Methods    string
	MethodFile string
	Verbose    bool
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Workers: 1,
		Scale:   1,
		Methods: "all",
	}
}

// LoadConfig loads envFile (if it exists) into the environment and reads the
// STDCONTRAST_* variables on top of the defaults. Variables already set in
// the environment win over the file.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	cfg := DefaultConfig()
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := lookup(EnvWorkers); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	if v, ok := lookup(EnvScale); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvScale, err)
		}
		if f <= 0 {
			return fmt.Errorf("%s: scale must be positive, got %v", EnvScale, f)
		}
		c.Scale = f
	}
	if v, ok := lookup(EnvMethods); ok {
		c.Methods = v
	}
	if v, ok := lookup(EnvMethodFile); ok {
		c.MethodFile = v
	}
	if v, ok := lookup(EnvVerbose); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvVerbose, err)
		}
		c.Verbose = b
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
