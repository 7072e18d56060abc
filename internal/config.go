package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds the defaults the command line falls back to when a flag is not
// given. It is read from a TOML file.
type Config struct {
	Extensions    []string `toml:"extensions"`
	Nested        bool     `toml:"nested"`
	CaseSensitive bool     `toml:"case_sensitive"`
	Delimiter     string   `toml:"delimiter"`
	IntervalMS    int      `toml:"interval_ms"` // progress refresh period
	LogLevel      string   `toml:"log_level"`
	LogFile       string   `toml:"log_file"`
}

func DefaultConfig() Config {
	return Config{
		Extensions: []string{"jar", "war", "ear", "zip"},
		Delimiter:  ",",
		IntervalMS: 350,
		LogLevel:   "warn",
	}
}

// DefaultConfigPath returns <user config dir>/zipsearch/config.toml.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			home = "."
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "zipsearch", "config.toml")
}

// LoadConfig reads path over the defaults. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.IntervalMS <= 0 {
		cfg.IntervalMS = DefaultConfig().IntervalMS
	}
	return cfg, nil
}

func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}
