package backfill

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/statebridge/internal/infrastructure/config"
	"github.com/nerrad567/statebridge/internal/metric"
	"github.com/nerrad567/statebridge/internal/sink"
)

// Rows iterates the rows of one entity export. Implementations return
// io.EOF when the export is exhausted.
type Rows interface {
	Next() ([]string, error)
}

// Input is the historical query backend the importer reads from.
type Input interface {
	// UniqueEntities returns the distinct entity identifiers recorded
	// in the [start, end) window.
	UniqueEntities(ctx context.Context, start, end time.Time) ([]string, error)

	// ExportEntity returns one entity's history for the [start, end)
	// window as annotated CSV rows.
	ExportEntity(ctx context.Context, entity string, start, end time.Time) (Rows, error)
}

// Logger is the minimal logging interface the importer needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Importer drives one backfill run: entity discovery, per-entity export,
// row conversion and batch delivery.
//
// Thread Safety:
//   - Run must not be called concurrently; a run processes entities
//     sequentially on the calling goroutine.
type Importer struct {
	input   Input
	target  sink.Sink
	builder *metric.Builder
	vocab   *metric.Classifier

	allow    []string
	deny     map[string]struct{}
	denyTags map[string]struct{}

	start time.Time
	end   time.Time

	log Logger
}

// NewImporter creates an Importer from the backfill configuration.
//
// Parameters:
//   - cfg: Backfill section of the configuration
//   - prefix: Metric name prefix, already stripped of trailing separators
//   - vocab: On/off state literal vocabulary
//   - input: Historical query backend
//   - target: Delivery sink
//   - log: Logger for progress and row faults
//
// Returns:
//   - *Importer: Importer ready for a single Run
//   - error: If the configured time window cannot be parsed
func NewImporter(cfg config.BackfillConfig, prefix string, vocab metric.Vocabulary, input Input, target sink.Sink, log Logger) (*Importer, error) {
	start, end, err := cfg.Window()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoWindow, err)
	}

	deny := make(map[string]struct{}, len(cfg.BlacklistEntities))
	for _, e := range cfg.BlacklistEntities {
		deny[e] = struct{}{}
	}
	denyTags := make(map[string]struct{}, len(cfg.BlacklistTags))
	for _, t := range cfg.BlacklistTags {
		denyTags[t] = struct{}{}
	}

	return &Importer{
		input:    input,
		target:   target,
		builder:  metric.NewBuilder(prefix),
		vocab:    metric.NewClassifier(vocab, cfg.BlacklistTags),
		allow:    cfg.WhitelistEntities,
		deny:     deny,
		denyTags: denyTags,
		start:    start,
		end:      end,
		log:      log,
	}, nil
}

// Run executes the backfill: one export and one delivery per entity, in
// order. The first query or delivery failure aborts the run.
func (i *Importer) Run(ctx context.Context) error {
	entities, err := i.entities(ctx)
	if err != nil {
		return err
	}
	i.log.Info("starting backfill",
		"entities", len(entities),
		"start", i.start.Format(time.RFC3339),
		"end", i.end.Format(time.RFC3339))

	var delivered int
	for _, entity := range entities {
		if _, skip := i.deny[entity]; skip {
			i.log.Debug("entity excluded by blacklist", "entity", entity)
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		i.log.Info("exporting entity", "entity", entity)
		rows, err := i.input.ExportEntity(ctx, entity, i.start, i.end)
		if err != nil {
			return fmt.Errorf("exporting %s: %w", entity, err)
		}

		batch, err := i.collect(entity, rows)
		if err != nil {
			return fmt.Errorf("reading export for %s: %w", entity, err)
		}
		if batch.IsEmpty() {
			i.log.Debug("no samples in window", "entity", entity)
			continue
		}

		if err := i.target.Deliver(ctx, batch); err != nil {
			return fmt.Errorf("delivering %s: %w", entity, err)
		}
		delivered += batch.Samples()
		i.log.Info("entity delivered", "entity", entity, "samples", batch.Samples())
	}

	i.log.Info("backfill complete", "samples", delivered)
	return nil
}

// entities resolves the entity set for this run. A non-empty allow-list
// is taken verbatim and the discovery query is skipped.
func (i *Importer) entities(ctx context.Context) ([]string, error) {
	if len(i.allow) > 0 {
		return i.allow, nil
	}
	entities, err := i.input.UniqueEntities(ctx, i.start, i.end)
	if err != nil {
		return nil, fmt.Errorf("discovering entities: %w", err)
	}
	return entities, nil
}
