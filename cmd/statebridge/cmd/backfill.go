package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/statebridge/internal/backfill"
	"github.com/nerrad567/statebridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/statebridge/internal/infrastructure/logging"
	"github.com/nerrad567/statebridge/internal/sink"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Bulk-import historical state records into the sink",
	Long: "Query the configured InfluxDB v2 bucket for historical state records in the\n" +
		"configured time window and deliver them to the sink, one entity at a time.",
	RunE: runBackfill,
}

func init() {
	rootCmd.AddCommand(backfillCmd)
}

func runBackfill(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("statebridge backfill: %w", err)
	}
	if err := cfg.ValidateBackfill(); err != nil {
		return fmt.Errorf("statebridge backfill: %w", err)
	}

	logger := logging.New(cfg.Logging, buildVersion)
	logger.Info("starting statebridge",
		"mode", "backfill",
		"input", cfg.Backfill.Input.Type,
		"sink", cfg.Sink.Type,
	)

	target, err := sink.New(cfg.Sink, logger.With("component", "sink"))
	if err != nil {
		return fmt.Errorf("statebridge backfill: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := target.HealthCheck(ctx); err != nil {
		return fmt.Errorf("statebridge backfill: sink unreachable: %w", err)
	}

	input, err := influxdb.Connect(ctx, cfg.Backfill.Input)
	if err != nil {
		return fmt.Errorf("statebridge backfill: %w", err)
	}
	defer input.Close()

	importer, err := backfill.NewImporter(
		cfg.Backfill,
		cfg.Prefix,
		vocabulary(cfg.States),
		influxInput{client: input},
		target,
		logger.With("component", "backfill"),
	)
	if err != nil {
		return fmt.Errorf("statebridge backfill: %w", err)
	}

	started := time.Now()
	if err := importer.Run(ctx); err != nil {
		return fmt.Errorf("statebridge backfill: %w", err)
	}

	logger.Info("backfill finished", "elapsed", time.Since(started).String())
	return nil
}

// influxInput adapts the InfluxDB client to the importer's Input
// interface.
type influxInput struct {
	client *influxdb.Client
}

func (a influxInput) UniqueEntities(ctx context.Context, start, end time.Time) ([]string, error) {
	return a.client.UniqueEntities(ctx, start, end)
}

func (a influxInput) ExportEntity(ctx context.Context, entity string, start, end time.Time) (backfill.Rows, error) {
	rows, err := a.client.ExportEntity(ctx, entity, start, end)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
