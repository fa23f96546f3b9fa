package metric

import (
	"sort"
	"strings"
)

// Series is one aggregated metric series: every sample sharing an
// identical (name, tag-set) within a batch.
//
// Invariant: len(Values) == len(Timestamps), and neither is empty while
// the series is stored in a batch.
type Series struct {
	Name       string
	Tags       map[string]string
	Values     []float64
	Timestamps []int64 // milliseconds since epoch
}

// Batch accumulates samples grouped by aggregation key, preserving the
// order in which series first appeared so encoding is deterministic for
// identical input ordering.
//
// Not safe for concurrent use; each flush owns its own batch.
type Batch struct {
	order  []string
	series map[string]*Series
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{series: make(map[string]*Series)}
}

// Add appends one (value, timestamp) sample to the series identified by
// (name, tags), creating the series on first use. The tag map is copied;
// the caller may reuse it.
func (b *Batch) Add(name string, tags map[string]string, value float64, timestampMS int64) {
	key := aggregationKey(name, tags)
	s, ok := b.series[key]
	if !ok {
		copied := make(map[string]string, len(tags))
		for k, v := range tags {
			copied[k] = v
		}
		s = &Series{Name: name, Tags: copied}
		b.series[key] = s
		b.order = append(b.order, key)
	}
	s.Values = append(s.Values, value)
	s.Timestamps = append(s.Timestamps, timestampMS)
}

// Len returns the number of series in the batch.
func (b *Batch) Len() int {
	return len(b.series)
}

// Samples returns the total number of samples across all series.
func (b *Batch) Samples() int {
	n := 0
	for _, s := range b.series {
		n += len(s.Values)
	}
	return n
}

// IsEmpty reports whether the batch holds no series.
func (b *Batch) IsEmpty() bool {
	return len(b.series) == 0
}

// Series returns the batch's series in first-appearance order.
func (b *Batch) Series() []*Series {
	out := make([]*Series, 0, len(b.order))
	for _, key := range b.order {
		out = append(out, b.series[key])
	}
	return out
}

// aggregationKey derives the string form of (name, tag-set). Tag keys are
// sorted so the key is independent of map iteration order.
func aggregationKey(name string, tags map[string]string) string {
	if len(tags) == 0 {
		return name
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(name)
	for _, k := range keys {
		sb.WriteByte(';')
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(tags[k])
	}
	return sb.String()
}
