package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/scenevisor/internal/cliconfig"
	"github.com/bft-labs/scenevisor/internal/server"
)

const helpDescription = `
Supervise the parcel scenes of a world client.

The script host connects to /ws/lifecycle and asks for scenes to be
prefetched, started and unloaded. The renderer connects to /ws/renderer,
reports scene statuses and player movement, and is told which scenes to
load. A scene that reports nothing within the start timeout is marked
failed.

Highlights:
  - One worker per scene, never more, however often a start is requested.
  - Descriptors from a content server or a local scenes directory, with
    live reload of changed files.
  - Optional HS256 bearer tokens on both endpoints (see "scenevisor token").
`

var longHelp = strings.TrimSpace(helpDescription)

var exampleUsage = strings.TrimSpace(`
  scenevisor --content-url https://content.example.org
  scenevisor --scenes-dir ./scenes --auth-secret s3cr3t
  scenevisor token --subject script-host --ttl 24h
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "scenevisor",
		Short:   "Supervise parcel scene lifecycles for a world client",
		Long:    longHelp,
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, &cfg, cfgPath); err != nil {
				return err
			}

			// Validate and set derived defaults
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, closer, err := cliconfig.NewLogger(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			logger.Info().Interface("config", cfg.Masked()).Msg("configuration")

			// Setup signal handling for graceful shutdown
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return server.Run(ctx, cfg, logger)
		},
	}

	// Flags
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.scenevisor/config.toml)")
	root.PersistentFlags().StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "HS256 secret for endpoint tokens (empty disables auth)")

	root.Flags().StringVar(&cfg.ListenAddr, "listen-addr", cfg.ListenAddr, "address serving the WebSocket endpoints and /healthz")
	root.Flags().StringVar(&cfg.ContentURL, "content-url", cfg.ContentURL, "content server base URL serving /scenes/{id} and /contents/{hash}")
	root.Flags().StringVar(&cfg.ScenesDir, "scenes-dir", cfg.ScenesDir, "directory of <sceneId>.json descriptors (instead of --content-url)")
	root.Flags().BoolVar(&cfg.WatchScenes, "watch-scenes", cfg.WatchScenes, "reload descriptors changed in --scenes-dir")

	root.Flags().DurationVar(&cfg.StartTimeout, "start-timeout", cfg.StartTimeout, "time a started scene has to report its first status")
	root.Flags().DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP timeout")

	root.Flags().StringVar(&cfg.AnalyticsURL, "analytics-url", cfg.AnalyticsURL, "endpoint receiving tracking batches (empty discards them)")
	root.Flags().StringVar(&cfg.AnalyticsKey, "analytics-key", cfg.AnalyticsKey, "bearer key for --analytics-url")
	root.Flags().DurationVar(&cfg.AnalyticsFlushInterval, "analytics-flush-interval", cfg.AnalyticsFlushInterval, "maximum delay before a partial tracking batch is sent")
	root.Flags().IntVar(&cfg.AnalyticsBatchSize, "analytics-batch-size", cfg.AnalyticsBatchSize, "tracking events per batch")

	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug|info|warn|error)")
	root.Flags().StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "write JSON logs to a rotated file instead of stderr")
	root.Flags().IntVar(&cfg.LogMaxSizeMB, "log-max-size", cfg.LogMaxSizeMB, "log file size in MB before rotation")
	root.Flags().IntVar(&cfg.LogMaxBackups, "log-max-backups", cfg.LogMaxBackups, "rotated log files to keep")
	root.Flags().IntVar(&cfg.LogMaxAgeDays, "log-max-age", cfg.LogMaxAgeDays, "days to keep rotated log files")

	root.AddCommand(newTokenCommand(&cfg, &cfgPath))

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("scenevisor")
		os.Exit(1)
	}
}

// loadConfig applies the config file (default $HOME/.scenevisor/config.toml)
// and SCENEVISOR_* variables to cfg without overriding flags set on cmd.
func loadConfig(cmd *cobra.Command, cfg *cliconfig.Config, cfgPath string) error {
	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	// Build set of changed flags
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	} else if cfgPath != "" {
		return fmt.Errorf("config file %s not found", cfgPath)
	}

	// Environment overrides the file but not flags.
	return cliconfig.ApplyEnvConfig(cfg, changed)
}
