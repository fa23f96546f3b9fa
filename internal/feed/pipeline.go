package feed

import (
	"context"
	"fmt"

	"github.com/nerrad567/statebridge/internal/metric"
	"github.com/nerrad567/statebridge/internal/sink"
)

// Pipeline converts one change record into observations and delivers
// them. Its Process method is the dispatcher's Processor in live mode.
//
// Immutable after construction; safe for concurrent use, though the
// dispatcher only ever calls it from its single consumer goroutine.
type Pipeline struct {
	classifier *metric.Classifier
	builder    *metric.Builder
	target     sink.Sink
	log        Logger
}

// NewPipeline wires the classification and naming stages to a sink.
//
// Parameters:
//   - prefix: Metric name prefix
//   - vocab: On/off state literal vocabulary
//   - denyTags: Tag names dropped from every record
//   - target: Delivery sink
//   - log: Logger for per-record delivery results
func NewPipeline(prefix string, vocab metric.Vocabulary, denyTags []string, target sink.Sink, log Logger) *Pipeline {
	return &Pipeline{
		classifier: metric.NewClassifier(vocab, denyTags),
		builder:    metric.NewBuilder(prefix),
		target:     target,
		log:        log,
	}
}

// Process classifies one record, builds its batch and delivers it.
// Classification guarantees at least one sample, so every record
// reaches the sink.
func (p *Pipeline) Process(ctx context.Context, rec metric.ChangeRecord) error {
	cls := p.classifier.Classify(rec)

	batch := metric.NewBatch()
	p.builder.Append(batch, rec, cls)

	if err := p.target.Deliver(ctx, batch); err != nil {
		return fmt.Errorf("delivering %s: %w", rec.EntityID, err)
	}

	p.log.Debug("record delivered",
		"entity_id", rec.EntityID,
		"samples", batch.Samples(),
	)
	return nil
}
