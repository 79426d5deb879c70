package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	File          string `toml:"file"`
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	AvgRecordSize int    `toml:"avg_record_size"`
	ProgressStep  int    `toml:"progress_step"`
	Top           int    `toml:"top"`
	Output        string `toml:"output"`
	Format        string `toml:"format"`
	Concurrency   int    `toml:"concurrency"`
	Debounce      string `toml:"debounce"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.npss/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".npss", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("file", fc.File, &cfg.File)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-format", fc.LogFormat, &cfg.LogFormat)
	s.setString("output", fc.Output, &cfg.Output)
	s.setString("format", fc.Format, &cfg.Format)

	if err := s.setDuration("debounce", fc.Debounce, &cfg.Debounce); err != nil {
		return err
	}

	s.setInt("avg-record-size", fc.AvgRecordSize, &cfg.AvgRecordSize)
	s.setInt("progress-step", fc.ProgressStep, &cfg.ProgressStep)
	s.setInt("top", fc.Top, &cfg.Top)
	s.setInt("concurrency", fc.Concurrency, &cfg.Concurrency)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
