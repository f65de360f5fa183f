package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultListenAddr   = "127.0.0.1:7666"
	DefaultStartTimeout = 90 * time.Second
)

// Config holds CLI configuration for scenevisor.
type Config struct {
	ListenAddr string

	ContentURL string
	ScenesDir  string

	StartTimeout time.Duration
	HTTPTimeout  time.Duration

	AnalyticsURL           string
	AnalyticsKey           string
	AnalyticsFlushInterval time.Duration
	AnalyticsBatchSize     int

	AuthSecret  string
	WatchScenes bool

	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		ListenAddr:             DefaultListenAddr,
		StartTimeout:           DefaultStartTimeout,
		HTTPTimeout:            15 * time.Second,
		AnalyticsFlushInterval: 5 * time.Second,
		AnalyticsBatchSize:     50,
		WatchScenes:            true,
		LogLevel:               "info",
		LogMaxSizeMB:           100,
		LogMaxBackups:          3,
		LogMaxAgeDays:          28,
	}
}

// Validate checks the configuration for errors and normalizes values.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen-addr is required")
	}

	switch {
	case c.ContentURL == "" && c.ScenesDir == "":
		return fmt.Errorf("content-url or scenes-dir is required")
	case c.ContentURL != "" && c.ScenesDir != "":
		return fmt.Errorf("content-url and scenes-dir are mutually exclusive")
	}

	// Ensure no trailing slash
	c.ContentURL = strings.TrimRight(c.ContentURL, "/")

	if c.StartTimeout <= 0 {
		return fmt.Errorf("start timeout must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}
	if c.AnalyticsFlushInterval <= 0 {
		return fmt.Errorf("analytics flush interval must be positive")
	}
	if c.AnalyticsBatchSize <= 0 {
		return fmt.Errorf("analytics batch size must be positive")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}

	return nil
}

// Masked returns a copy with secrets replaced, for logging.
func (c Config) Masked() Config {
	if c.AnalyticsKey != "" {
		c.AnalyticsKey = "*****"
	}
	if c.AuthSecret != "" {
		c.AuthSecret = "*****"
	}
	return c
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

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
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

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
