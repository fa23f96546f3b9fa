package sink

import (
	"context"
	"fmt"

	"github.com/nerrad567/statebridge/internal/infrastructure/config"
	"github.com/nerrad567/statebridge/internal/metric"
)

// Sink accepts encoded metric batches for delivery.
type Sink interface {
	// Deliver encodes and transmits one batch. An empty batch is a no-op.
	Deliver(ctx context.Context, batch *metric.Batch) error

	// HealthCheck probes sink connectivity without sending data.
	HealthCheck(ctx context.Context) error
}

// Logger is the logging interface consumed by sink clients.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// New creates the sink selected by configuration.
//
// Supported types:
//   - "victoriametrics": HTTP batch import with bounded retry
//   - "graphite": TCP or UDP plaintext line protocol, best-effort
//
// Returns ErrUnsupportedType for anything else; this is a configuration
// fault and fatal before any record is processed.
func New(cfg config.SinkConfig, log Logger) (Sink, error) {
	switch cfg.Type {
	case "victoriametrics":
		return NewVictoria(cfg, log), nil
	case "graphite":
		return NewGraphite(cfg, log)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, cfg.Type)
	}
}
