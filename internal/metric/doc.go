// Package metric converts loosely-typed state records into numeric
// time-series observations.
//
// It contains the three stages that sit between an event source and the
// delivery client:
//
//   - Classifier: partitions a record's attributes into numeric samples
//     and string tags using an ordered type-coercion chain
//   - Builder: turns classified samples into fully-qualified metric names
//   - Batch: groups samples sharing a (name, tag-set) into one series and
//     encodes the result as JSON lines or plaintext line protocol
//
// # Classification
//
// Attribute values are modelled as a closed tagged type (Null, Bool,
// Number, Temporal, Text, Composite) rather than inspected reflectively.
// The chain is ordered: null and composite values are dropped, temporal
// and boolean values coerce to numbers, text that parses as an ISO-8601
// timestamp coerces to an epoch value, and everything else degrades to a
// sanitized tag. No record ever fails classification.
//
// A record with no numeric attributes still yields exactly one synthetic
// observation (value 0) carrying the raw primary state as a tag, so
// descriptive-only records are never silently lost.
//
// # Usage
//
//	classifier := metric.NewClassifier(metric.DefaultVocabulary(), nil)
//	builder := metric.NewBuilder("ha")
//
//	batch := metric.NewBatch()
//	cls := classifier.Classify(rec)
//	builder.Append(batch, rec, cls)
//	payload, err := batch.EncodeJSONLines()
//
// # Thread Safety
//
// Classifier and Builder are immutable after construction and safe for
// concurrent use. Batch is not safe for concurrent use; each flush owns
// its own batch.
package metric
