package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Output formats of the snapshot command.
const (
	FormatTree  = "tree"
	FormatTop   = "top"
	FormatPprof = "pprof"
)

// Config holds CLI configuration for npss.
type Config struct {
	File string

	LogLevel  string
	LogFormat string

	AvgRecordSize int
	ProgressStep  int

	Top    int
	Output string
	Format string

	Concurrency int
	Debounce    time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		LogLevel:      "info",
		LogFormat:     "auto",
		AvgRecordSize: 130,
		ProgressStep:  10,
		Top:           20,
		Format:        FormatTree,
		Concurrency:   4,
		Debounce:      250 * time.Millisecond,
	}
}

// Validate checks the configuration for errors and normalizes values.
func (c *Config) Validate() error {
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	if c.Format == "" {
		c.Format = FormatTree
	}
	switch c.Format {
	case FormatTree, FormatTop, FormatPprof:
	default:
		return fmt.Errorf("format %q: want %s, %s or %s", c.Format, FormatTree, FormatTop, FormatPprof)
	}

	switch c.LogFormat {
	case "", "auto", "console", "json":
	default:
		return fmt.Errorf("log format %q: want auto, console or json", c.LogFormat)
	}

	if c.AvgRecordSize <= 0 {
		return fmt.Errorf("avg record size must be positive")
	}
	if c.Top < 0 {
		return fmt.Errorf("top must not be negative")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}
	if c.Debounce < 0 {
		return fmt.Errorf("debounce must not be negative")
	}
	if c.ProgressStep <= 0 || c.ProgressStep > 100 {
		return fmt.Errorf("progress step must be between 1 and 100")
	}
	return nil
}

// RequireFile returns an error when no sample file is configured.
func (c *Config) RequireFile() error {
	if c.File == "" {
		return fmt.Errorf("file is required (--file, NPSS_FILE or config file)")
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}
