// Package backfill bulk-imports historical state records into the
// configured time-series sink.
//
// # Overview
//
// A backfill run discovers the entities recorded in the configured time
// window (or takes an explicit allow-list), exports each entity's
// history from the query backend one at a time, converts the exported
// rows into numeric samples and tags, and delivers one batch per entity
// to the sink. Entities are processed strictly sequentially.
//
// # Row Format
//
// The query backend returns annotated CSV: a #datatype annotation row
// naming each column's type, a header row, then data rows. Columns
// typed "double" become numeric samples named after their column; the
// state column is checked against the on/off vocabulary; every other
// non-empty column becomes a tag. A row with no numeric samples at all
// degrades to a single zero-valued sample so its tags still land.
//
// # Failure Handling
//
// A malformed data row is logged and skipped; the rest of the entity's
// export still imports. A query or delivery failure aborts the whole
// run, since continuing would leave silent gaps in the imported series.
package backfill
