package metric

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Vocabulary is the closed set of on/off-style state literals that map
// directly to numeric 1/0. Matching is case-insensitive.
//
// The default set carries the literals observed in deployed systems,
// including their Czech variants; deployments with other locales extend
// it via configuration.
type Vocabulary struct {
	On  []string
	Off []string
}

// DefaultVocabulary returns the built-in on/off literal set.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		On:  []string{"on", "zapnuto", "zap"},
		Off: []string{"off", "vypnuto", "vyp"},
	}
}

// KeyValue is one classified numeric sample: an attribute name and its
// coerced value.
type KeyValue struct {
	Name  string
	Value float64
}

// Classification is the output of classifying one record: numeric samples
// and string tags, mutually exclusive by construction.
type Classification struct {
	KeyValues []KeyValue
	Tags      map[string]string
}

// Classifier partitions a record's attributes into numeric observations
// and string tags using an ordered type-coercion chain.
//
// Immutable after construction; safe for concurrent use.
type Classifier struct {
	on       map[string]struct{}
	off      map[string]struct{}
	denyTags map[string]struct{}
}

// NewClassifier creates a Classifier with the given on/off vocabulary and
// an optional tag deny-list. Denied tag names are dropped from the output
// instead of becoming tags.
func NewClassifier(vocab Vocabulary, denyTags []string) *Classifier {
	c := &Classifier{
		on:       make(map[string]struct{}, len(vocab.On)),
		off:      make(map[string]struct{}, len(vocab.Off)),
		denyTags: make(map[string]struct{}, len(denyTags)),
	}
	for _, s := range vocab.On {
		c.on[strings.ToLower(s)] = struct{}{}
	}
	for _, s := range vocab.Off {
		c.off[strings.ToLower(s)] = struct{}{}
	}
	for _, s := range denyTags {
		c.denyTags[s] = struct{}{}
	}
	return c
}

// Classify applies the coercion chain to the record's primary state and
// every attribute.
//
// The chain, in order:
//  1. Null values are dropped.
//  2. Composite (list/map) values are dropped.
//  3. Temporal values become epoch seconds.
//  4. Booleans become 0/1.
//  5. Numbers pass through.
//  6. Text parseable as an ISO-8601 timestamp becomes epoch milliseconds.
//  7. Everything else becomes a tag, with delimiter characters replaced.
//
// The primary state goes through the same chain under the name "value",
// with the on/off vocabulary checked before numeric parsing. If the chain
// yields no numeric samples at all, a single synthetic sample
// {value, 0} is emitted and the raw state is kept as the "value" tag, so
// a record never classifies to nothing.
//
// Classification cannot fail; unrecognised values degrade to tags.
func (c *Classifier) Classify(rec ChangeRecord) Classification {
	cls := Classification{Tags: make(map[string]string)}

	if num, ok := c.stateAsNumber(rec.State); ok {
		cls.KeyValues = append(cls.KeyValues, KeyValue{Name: "value", Value: num})
	}

	// Sorted attribute order keeps output deterministic across runs.
	names := make([]string, 0, len(rec.Attributes))
	for name := range rec.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		c.classifyAttribute(name, rec.Attributes[name], &cls)
	}

	if len(cls.KeyValues) == 0 {
		// No numeric state at all: post a zero so the tags still land.
		cls.KeyValues = append(cls.KeyValues, KeyValue{Name: "value", Value: 0})
		c.addTag(&cls, "value", rec.State)
	}

	return cls
}

// classifyAttribute applies steps 1-7 of the chain to one attribute.
func (c *Classifier) classifyAttribute(name string, v Value, cls *Classification) {
	switch v.Kind() {
	case KindNull, KindComposite:
		// Not representable as a scalar sample or a label.
		return
	case KindTemporal:
		seconds := float64(v.instant.UnixNano()) / float64(time.Second)
		cls.KeyValues = append(cls.KeyValues, KeyValue{Name: name, Value: seconds})
	case KindBool:
		num := 0.0
		if v.boolean {
			num = 1.0
		}
		cls.KeyValues = append(cls.KeyValues, KeyValue{Name: name, Value: num})
	case KindNumber:
		cls.KeyValues = append(cls.KeyValues, KeyValue{Name: name, Value: v.number})
	case KindText:
		if ts, ok := parseTimestamp(v.text); ok {
			cls.KeyValues = append(cls.KeyValues, KeyValue{Name: name, Value: float64(ts.UnixMilli())})
			return
		}
		c.addTag(cls, name, v.text)
	}
}

// OnOff checks a state string against the on/off vocabulary alone,
// returning 1 or 0. Used where numeric state arrives through a separate,
// already-typed channel and only the literal mapping applies.
func (c *Classifier) OnOff(state string) (float64, bool) {
	lowered := strings.ToLower(strings.TrimSpace(state))
	if _, ok := c.on[lowered]; ok {
		return 1, true
	}
	if _, ok := c.off[lowered]; ok {
		return 0, true
	}
	return 0, false
}

// stateAsNumber coerces the primary state string to a number.
//
// Order: on/off vocabulary, numeric parse, ISO-8601 parse. Returns false
// if none apply.
func (c *Classifier) stateAsNumber(state string) (float64, bool) {
	if num, ok := c.OnOff(state); ok {
		return num, true
	}
	if num, err := strconv.ParseFloat(strings.TrimSpace(state), 64); err == nil {
		return num, true
	}
	if ts, ok := parseTimestamp(state); ok {
		return float64(ts.UnixNano()) / float64(time.Second), true
	}
	return 0, false
}

// addTag records a tag unless its name is on the deny-list.
func (c *Classifier) addTag(cls *Classification, name, value string) {
	if _, denied := c.denyTags[name]; denied {
		return
	}
	cls.Tags[SanitizeTag(name)] = SanitizeTag(value)
}

// tagSanitizer substitutes the delimiter characters that would corrupt
// the plaintext line protocol or the aggregation key.
var tagSanitizer = strings.NewReplacer(" ", "_", ";", "_")

// SanitizeTag replaces delimiter characters (space, ';') with '_'.
func SanitizeTag(s string) string {
	return tagSanitizer.Replace(s)
}

// timestampLayouts are the accepted ISO-8601 shapes, most specific first.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp attempts to parse a string as an ISO-8601 timestamp.
// Layouts without an explicit offset are interpreted as UTC.
func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
