package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (SCENEVISOR_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("listen-addr", os.Getenv("SCENEVISOR_LISTEN_ADDR"), &cfg.ListenAddr)
	s.setString("content-url", os.Getenv("SCENEVISOR_CONTENT_URL"), &cfg.ContentURL)
	s.setString("scenes-dir", os.Getenv("SCENEVISOR_SCENES_DIR"), &cfg.ScenesDir)
	s.setString("analytics-url", os.Getenv("SCENEVISOR_ANALYTICS_URL"), &cfg.AnalyticsURL)
	s.setString("analytics-key", os.Getenv("SCENEVISOR_ANALYTICS_KEY"), &cfg.AnalyticsKey)
	s.setString("auth-secret", os.Getenv("SCENEVISOR_AUTH_SECRET"), &cfg.AuthSecret)
	s.setString("log-level", os.Getenv("SCENEVISOR_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-file", os.Getenv("SCENEVISOR_LOG_FILE"), &cfg.LogFile)

	if err := s.setDuration("start-timeout", os.Getenv("SCENEVISOR_START_TIMEOUT"), &cfg.StartTimeout); err != nil {
		return err
	}
	if err := s.setDuration("timeout", os.Getenv("SCENEVISOR_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("analytics-flush-interval", os.Getenv("SCENEVISOR_ANALYTICS_FLUSH_INTERVAL"), &cfg.AnalyticsFlushInterval); err != nil {
		return err
	}

	if err := s.setIntFromString("analytics-batch-size", os.Getenv("SCENEVISOR_ANALYTICS_BATCH_SIZE"), &cfg.AnalyticsBatchSize); err != nil {
		return err
	}
	if err := s.setIntFromString("log-max-size", os.Getenv("SCENEVISOR_LOG_MAX_SIZE_MB"), &cfg.LogMaxSizeMB); err != nil {
		return err
	}
	if err := s.setIntFromString("log-max-backups", os.Getenv("SCENEVISOR_LOG_MAX_BACKUPS"), &cfg.LogMaxBackups); err != nil {
		return err
	}
	if err := s.setIntFromString("log-max-age", os.Getenv("SCENEVISOR_LOG_MAX_AGE_DAYS"), &cfg.LogMaxAgeDays); err != nil {
		return err
	}

	s.setBoolFromString("watch-scenes", os.Getenv("SCENEVISOR_WATCH_SCENES"), &cfg.WatchScenes)

	return nil
}
