package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	ListenAddr             string `toml:"listen_addr"`
	ContentURL             string `toml:"content_url"`
	ScenesDir              string `toml:"scenes_dir"`
	StartTimeout           string `toml:"start_timeout"`
	HTTPTimeout            string `toml:"http_timeout"`
	AnalyticsURL           string `toml:"analytics_url"`
	AnalyticsKey           string `toml:"analytics_key"`
	AnalyticsFlushInterval string `toml:"analytics_flush_interval"`
	AnalyticsBatchSize     int    `toml:"analytics_batch_size"`
	AuthSecret             string `toml:"auth_secret"`
	WatchScenes            *bool  `toml:"watch_scenes"`
	LogLevel               string `toml:"log_level"`
	LogFile                string `toml:"log_file"`
	LogMaxSizeMB           int    `toml:"log_max_size_mb"`
	LogMaxBackups          int    `toml:"log_max_backups"`
	LogMaxAgeDays          int    `toml:"log_max_age_days"`
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
// Returns ~/.scenevisor/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".scenevisor", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("listen-addr", fc.ListenAddr, &cfg.ListenAddr)
	s.setString("content-url", fc.ContentURL, &cfg.ContentURL)
	s.setString("scenes-dir", fc.ScenesDir, &cfg.ScenesDir)
	s.setString("analytics-url", fc.AnalyticsURL, &cfg.AnalyticsURL)
	s.setString("analytics-key", fc.AnalyticsKey, &cfg.AnalyticsKey)
	s.setString("auth-secret", fc.AuthSecret, &cfg.AuthSecret)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-file", fc.LogFile, &cfg.LogFile)

	if err := s.setDuration("start-timeout", fc.StartTimeout, &cfg.StartTimeout); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("analytics-flush-interval", fc.AnalyticsFlushInterval, &cfg.AnalyticsFlushInterval); err != nil {
		return err
	}

	s.setInt("analytics-batch-size", fc.AnalyticsBatchSize, &cfg.AnalyticsBatchSize)
	s.setInt("log-max-size", fc.LogMaxSizeMB, &cfg.LogMaxSizeMB)
	s.setInt("log-max-backups", fc.LogMaxBackups, &cfg.LogMaxBackups)
	s.setInt("log-max-age", fc.LogMaxAgeDays, &cfg.LogMaxAgeDays)

	s.setBool("watch-scenes", fc.WatchScenes, &cfg.WatchScenes)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
