package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/statebridge/internal/feed"
	"github.com/nerrad567/statebridge/internal/hass"
	"github.com/nerrad567/statebridge/internal/infrastructure/config"
	"github.com/nerrad567/statebridge/internal/infrastructure/logging"
	"github.com/nerrad567/statebridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/statebridge/internal/metric"
	"github.com/nerrad567/statebridge/internal/sink"
)

// healthProbeTimeout bounds the advisory sink probe at startup.
const healthProbeTimeout = 5 * time.Second

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Stream state changes to the sink",
	Long: "Connect to the configured event source (Home Assistant WebSocket API or\n" +
		"MQTT eventstream) and deliver every state change to the sink as it arrives.",
	RunE: runLive,
}

func init() {
	rootCmd.AddCommand(liveCmd)
}

func runLive(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("statebridge live: %w", err)
	}
	if err := cfg.ValidateLive(); err != nil {
		return fmt.Errorf("statebridge live: %w", err)
	}

	logger := logging.New(cfg.Logging, buildVersion)
	logger.Info("starting statebridge",
		"mode", "live",
		"source", cfg.Source.Type,
		"sink", cfg.Sink.Type,
	)

	target, err := sink.New(cfg.Sink, logger.With("component", "sink"))
	if err != nil {
		return fmt.Errorf("statebridge live: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// The probe is advisory: a sink that is down at startup may well be
	// up by the time the first record arrives.
	probeCtx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	if err := target.HealthCheck(probeCtx); err != nil {
		logger.Warn("sink health probe failed, continuing", "error", err)
	}
	cancel()

	pipeline := feed.NewPipeline(
		cfg.Prefix,
		vocabulary(cfg.States),
		nil,
		target,
		logger.With("component", "feed"),
	)
	// The consumer gets its own context: a shutdown signal must not
	// cancel deliveries still draining from the queue.
	dispatcher := feed.NewDispatcher(pipeline.Process, logger.With("component", "feed"))
	if err := dispatcher.Start(context.Background()); err != nil {
		return fmt.Errorf("statebridge live: %w", err)
	}

	closeSource, err := startSource(ctx, stop, cfg, dispatcher, logger)
	if err != nil {
		dispatcher.Shutdown()
		return fmt.Errorf("statebridge live: %w", err)
	}

	<-ctx.Done()
	logger.Info("shutting down", "reason", ctx.Err())

	// Stop the source first so nothing new is enqueued, then drain.
	closeSource()
	dispatcher.Shutdown()

	logger.Info("statebridge stopped")
	return nil
}

// startSource connects the configured event source and begins feeding
// the dispatcher. The returned function stops the source.
func startSource(ctx context.Context, stop context.CancelFunc, cfg *config.Config, dispatcher *feed.Dispatcher, logger *logging.Logger) (func(), error) {
	handle := func(rec metric.ChangeRecord) error {
		dispatcher.HandleRecord(rec)
		return nil
	}

	switch cfg.Source.Type {
	case "hass":
		client := hass.New(cfg.Source.Hass, logger.With("component", "hass"))
		go func() {
			if err := client.Run(ctx, handle); err != nil && ctx.Err() == nil {
				// Terminal source failure (bad token); shut the process down.
				logger.Error("event source failed", "error", err)
				stop()
			}
		}()
		return func() {}, nil

	case "mqtt":
		client, err := mqtt.Connect(cfg.Source.MQTT)
		if err != nil {
			return nil, err
		}
		client.SetLogger(logger.With("component", "mqtt"))
		client.SetOnDisconnect(func(err error) {
			logger.Warn("broker connection lost, reconnecting", "error", err)
		})
		if err := client.SubscribeEvents(handle); err != nil {
			client.Close()
			return nil, err
		}
		return func() { client.Close() }, nil

	default:
		return nil, fmt.Errorf("unsupported source type %q", cfg.Source.Type)
	}
}
