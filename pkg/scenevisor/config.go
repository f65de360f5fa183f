package scenevisor

import (
	"fmt"
	"strings"
	"time"

	"github.com/bft-labs/scenevisor/internal/app"
)

// Config holds the settings of an Orchestrator.
type Config struct {
	// ContentURL is the base URL of the content server serving
	// /scenes/{sceneId} and /contents/{hash}.
	ContentURL string

	// ScenesDir is a directory of <sceneId>.json descriptors, used instead
	// of ContentURL.
	ScenesDir string

	// StartTimeout bounds the wait for the first status of a started scene.
	// Default: 90 seconds
	StartTimeout time.Duration

	// HTTPTimeout is the timeout for content and analytics requests.
	// Default: 15 seconds
	HTTPTimeout time.Duration

	// AnalyticsURL receives tracking batches. Empty discards them.
	AnalyticsURL string
	AnalyticsKey string

	// Default: 5 seconds
	AnalyticsFlushInterval time.Duration
	// Default: 50
	AnalyticsBatchSize int
}

// SetDefaults fills zero values with defaults.
func (c *Config) SetDefaults() {
	if c.StartTimeout <= 0 {
		c.StartTimeout = app.DefaultStartTimeout
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 15 * time.Second
	}
	def := app.DefaultTrackingConfig()
	if c.AnalyticsFlushInterval <= 0 {
		c.AnalyticsFlushInterval = def.FlushInterval
	}
	if c.AnalyticsBatchSize <= 0 {
		c.AnalyticsBatchSize = def.BatchSize
	}
	c.ContentURL = strings.TrimRight(c.ContentURL, "/")
}

// Validate checks the configuration. A descriptor source injected with
// WithDescriptorFetcher makes ContentURL and ScenesDir optional.
func (c *Config) Validate() error {
	if c.ContentURL != "" && c.ScenesDir != "" {
		return fmt.Errorf("%w: ContentURL and ScenesDir are mutually exclusive", ErrInvalidConfig)
	}
	if c.StartTimeout <= 0 {
		return fmt.Errorf("%w: StartTimeout must be positive", ErrInvalidConfig)
	}
	return nil
}
