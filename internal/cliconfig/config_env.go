package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (NPSS_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("file", os.Getenv("NPSS_FILE"), &cfg.File)
	s.setString("log-level", os.Getenv("NPSS_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-format", os.Getenv("NPSS_LOG_FORMAT"), &cfg.LogFormat)
	s.setString("output", os.Getenv("NPSS_OUTPUT"), &cfg.Output)
	s.setString("format", os.Getenv("NPSS_FORMAT"), &cfg.Format)

	if err := s.setDuration("debounce", os.Getenv("NPSS_DEBOUNCE"), &cfg.Debounce); err != nil {
		return err
	}

	if err := s.setIntFromString("avg-record-size", os.Getenv("NPSS_AVG_RECORD_SIZE"), &cfg.AvgRecordSize); err != nil {
		return err
	}
	if err := s.setIntFromString("progress-step", os.Getenv("NPSS_PROGRESS_STEP"), &cfg.ProgressStep); err != nil {
		return err
	}
	if err := s.setIntFromString("top", os.Getenv("NPSS_TOP"), &cfg.Top); err != nil {
		return err
	}
	if err := s.setIntFromString("concurrency", os.Getenv("NPSS_CONCURRENCY"), &cfg.Concurrency); err != nil {
		return err
	}

	return nil
}
