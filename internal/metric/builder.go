package metric

import (
	"strings"
)

// Builder constructs fully-qualified metric names from a configured
// prefix, an entity path and a classified attribute name.
//
// Immutable after construction; safe for concurrent use.
type Builder struct {
	prefix string
}

// NewBuilder creates a Builder for the given metric-name prefix.
//
// Trailing dots are stripped once here, so "ha." and "ha" configure the
// same namespace.
func NewBuilder(prefix string) *Builder {
	return &Builder{prefix: strings.TrimRight(prefix, ".")}
}

// MetricName joins prefix, entity path and attribute name with dots and
// replaces embedded spaces with underscores.
//
// The result is deterministic and idempotent: building a name from an
// already-built name yields the same characters.
//
// Example:
//
//	NewBuilder("ha").MetricName("sensor.temp", "value")
//	// "ha.sensor.temp.value"
func (b *Builder) MetricName(path, attribute string) string {
	var sb strings.Builder
	if b.prefix != "" {
		sb.WriteString(b.prefix)
		sb.WriteByte('.')
	}
	sb.WriteString(path)
	sb.WriteByte('.')
	sb.WriteString(attribute)
	return strings.ReplaceAll(sb.String(), " ", "_")
}

// Append adds every classified sample from one record to the batch.
//
// Each sample becomes an observation named after the record's entity
// path and the attribute, tagged with the record's full tag set, and
// timestamped with the record's event time in milliseconds.
func (b *Builder) Append(batch *Batch, rec ChangeRecord, cls Classification) {
	ts := rec.Time.UnixMilli()
	for _, kv := range cls.KeyValues {
		batch.Add(b.MetricName(rec.EntityID, kv.Name), cls.Tags, kv.Value, ts)
	}
}
