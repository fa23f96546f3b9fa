// Package cmd implements the statebridge CLI commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/statebridge/internal/infrastructure/config"
	"github.com/nerrad567/statebridge/internal/metric"
)

var (
	cfgFile  string
	logLevel string
)

// Build info set from main.
var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

// SetVersionInfo sets the version info from build-time ldflags.
func SetVersionInfo(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	rootCmd.Version = buildVersion
	rootCmd.SetVersionTemplate(fmt.Sprintf("statebridge version {{.Version}}\ncommit: %s\nbuilt: %s\n", buildCommit, buildDate))
}

var rootCmd = &cobra.Command{
	Use:   "statebridge",
	Short: "statebridge exports home-automation state to a time-series database",
	Long: "statebridge converts Home Assistant state changes into numeric time-series\n" +
		"observations and delivers them to VictoriaMetrics or a Graphite-compatible\n" +
		"socket, either live from the event stream or as a historical backfill.",
	// No Run function — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "/etc/statebridge/config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error; overrides config)")

	rootCmd.Version = buildVersion
	rootCmd.SetVersionTemplate(fmt.Sprintf("statebridge version {{.Version}}\ncommit: %s\nbuilt: %s\n", buildCommit, buildDate))
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// vocabulary builds the on/off literal set, falling back to the
// defaults per list so a config can extend just one side.
func vocabulary(states config.StatesConfig) metric.Vocabulary {
	vocab := metric.DefaultVocabulary()
	if len(states.On) > 0 {
		vocab.On = states.On
	}
	if len(states.Off) > 0 {
		vocab.Off = states.Off
	}
	return vocab
}
