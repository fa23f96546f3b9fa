package metric

import (
	"strings"
	"time"
)

// ChangeRecord is one state-change notification from an event source.
//
// A record is consumed exactly once: it yields zero or more observations
// into the batch being built and is then discarded.
type ChangeRecord struct {
	// EntityID is the full entity identifier, e.g. "sensor.temp".
	EntityID string

	// State is the primary state string, e.g. "21.5" or "on".
	State string

	// Time is the event timestamp.
	Time time.Time

	// Attributes is the open-ended attribute map.
	Attributes map[string]Value
}

// Domain returns the entity's domain, the part of the identifier before
// the first dot ("sensor" for "sensor.temp"). Empty if the identifier has
// no domain prefix.
func (r ChangeRecord) Domain() string {
	if i := strings.IndexByte(r.EntityID, '.'); i >= 0 {
		return r.EntityID[:i]
	}
	return ""
}

// DecodeAttributes converts a raw attribute map, as produced by
// encoding/json, into the closed tagged value type.
func DecodeAttributes(raw map[string]any) map[string]Value {
	attrs := make(map[string]Value, len(raw))
	for name, v := range raw {
		attrs[name] = DecodeValue(v)
	}
	return attrs
}
