package influxdb

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/domain"
)

// entityColumn is the index of the entity_id column in the
// unique-entities query result.
const entityColumn = 3

// Rows iterates the tabular rows of one annotated CSV export: a
// datatype-annotation row, a header row, then data rows.
type Rows struct {
	reader *csv.Reader
}

// Next returns the next row, or io.EOF when the export is exhausted.
func (r *Rows) Next() ([]string, error) {
	row, err := r.reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: reading row: %w", ErrQueryFailed, err)
	}
	return row, nil
}

// UniqueEntities returns the distinct entity identifiers recorded in the
// [start, end) window.
func (c *Client) UniqueEntities(ctx context.Context, start, end time.Time) ([]string, error) {
	if c == nil || !c.IsConnected() {
		return nil, ErrNotConnected
	}

	flux := fmt.Sprintf(`
from(bucket: %q)
    |> range(start: %s, stop: %s)
    |> keep(columns: ["entity_id"])
    |> unique(column: "entity_id")
`, c.cfg.Bucket, start.Format(time.RFC3339), end.Format(time.RFC3339))

	rows, err := c.query(ctx, flux, nil)
	if err != nil {
		return nil, err
	}

	var entities []string
	for {
		row, err := rows.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		// Skip the header row and anything that is not a data row.
		if len(row) == entityColumn+1 && row[entityColumn] != "entity_id" {
			entities = append(entities, row[entityColumn])
		}
	}
	return entities, nil
}

// ExportEntity returns one entity's time-series export for the
// [start, end) window as annotated CSV rows.
//
// The underlying Flux query pivots fields into columns, so each data row
// carries the record time, domain, entity_id and one column per field;
// the leading datatype annotation row tells the importer which columns
// are numeric.
func (c *Client) ExportEntity(ctx context.Context, entity string, start, end time.Time) (*Rows, error) {
	if c == nil || !c.IsConnected() {
		return nil, ErrNotConnected
	}

	flux := fmt.Sprintf(`
from(bucket: %q)
    |> range(start: %s, stop: %s)
    |> filter(fn: (r) => r["entity_id"] == %q)
    |> pivot(
        rowKey: ["_time"],
        columnKey: ["_field"],
        valueColumn: "_value"
    )
    |> drop(columns: ["_start", "_stop"])
`, c.cfg.Bucket, start.Format(time.RFC3339), end.Format(time.RFC3339), entity)

	annotations := []domain.DialectAnnotations{domain.DialectAnnotationsDatatype}
	return c.query(ctx, flux, &annotations)
}

// query executes a raw Flux query and wraps the CSV response for row
// iteration.
func (c *Client) query(ctx context.Context, flux string, annotations *[]domain.DialectAnnotations) (*Rows, error) {
	dialect := &domain.Dialect{Annotations: annotations}

	raw, err := c.queryAPI.QueryRaw(ctx, flux, dialect)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	return newRows(raw), nil
}

// newRows wraps a CSV payload for row-at-a-time iteration. Split out so
// row handling is testable without a server.
func newRows(payload string) *Rows {
	reader := csv.NewReader(strings.NewReader(payload))
	// Annotation rows and data rows have different widths.
	reader.FieldsPerRecord = -1
	return &Rows{reader: reader}
}
