package backfill

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nerrad567/statebridge/internal/metric"
)

// skipColumns are the bookkeeping columns of an annotated CSV export
// that never carry record data.
var skipColumns = map[string]struct{}{
	"":       {},
	"result": {},
	"table":  {},
}

// collect converts one entity's export rows into a batch.
//
// The export interleaves structure rows with data rows: a #datatype
// annotation row describes column types, a header row (recognised by
// "result" in its second column) names the columns, and every following
// row is data until the next annotation. Data rows arriving before any
// header are dropped. Malformed data rows are logged and skipped; a
// failure of the row stream itself is returned.
func (i *Importer) collect(entity string, rows Rows) (*metric.Batch, error) {
	batch := metric.NewBatch()

	var datatypes, header []string
	for {
		row, err := rows.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) < 2 {
			continue
		}
		if row[0] == "#datatype" {
			datatypes = row
			continue
		}
		if row[1] == "result" {
			header = row
			continue
		}
		if header == nil {
			continue
		}
		if err := i.addRow(batch, row, datatypes, header); err != nil {
			i.log.Warn("skipping export row", "entity", entity, "error", err)
		}
	}
	return batch, nil
}

// addRow converts one data row into samples and tags and adds them to
// the batch.
//
// Per column: the record time comes from _time, the metric path from
// domain and entity_id, "double"-typed non-empty cells become numeric
// samples, a state cell matching the on/off vocabulary becomes the
// "value" sample, and every other non-empty cell becomes a tag unless
// its transformed name is blacklisted. A row yielding no numeric sample
// gets a single zero-valued "value" sample so its tags still land.
func (i *Importer) addRow(batch *metric.Batch, row, datatypes, header []string) error {
	var (
		keyValues []metric.KeyValue
		tags      = make(map[string]string)
		domain    string
		entityID  string
		stamp     int64
		haveStamp bool
	)

	for idx, value := range row {
		if idx >= len(header) {
			break
		}
		name := header[idx]
		if _, skip := skipColumns[name]; skip {
			continue
		}

		switch name {
		case "_time":
			ts, err := time.Parse(time.RFC3339Nano, value)
			if err != nil {
				return fmt.Errorf("%w: _time %q: %w", ErrMalformedRow, value, err)
			}
			stamp = ts.UnixMilli()
			haveStamp = true
		case "domain":
			domain = value
		case "entity_id":
			entityID = value
		default:
			if idx < len(datatypes) && datatypes[idx] == "double" && value != "" {
				num, err := strconv.ParseFloat(value, 64)
				if err != nil {
					return fmt.Errorf("%w: column %s: %w", ErrMalformedRow, name, err)
				}
				keyValues = append(keyValues, metric.KeyValue{Name: name, Value: num})
				continue
			}
			if name == "state" {
				if num, ok := i.vocab.OnOff(value); ok {
					keyValues = append(keyValues, metric.KeyValue{Name: "value", Value: num})
					continue
				}
			}
			if value == "" {
				continue
			}
			key := transformTag(name)
			if _, denied := i.denyTags[key]; denied {
				continue
			}
			tags[metric.SanitizeTag(key)] = metric.SanitizeTag(value)
		}
	}

	if !haveStamp {
		return fmt.Errorf("%w: no _time column", ErrMalformedRow)
	}
	if domain == "" || entityID == "" {
		return fmt.Errorf("%w: no domain or entity_id column", ErrMalformedRow)
	}

	if len(keyValues) == 0 {
		// No numeric columns in this row: post a zero so the tags land.
		keyValues = append(keyValues, metric.KeyValue{Name: "value", Value: 0})
	}

	path := domain + "." + entityID
	for _, kv := range keyValues {
		batch.Add(i.builder.MetricName(path, kv.Name), tags, kv.Value, stamp)
	}
	return nil
}

// transformTag maps export column names to their tag names: the
// _measurement column holds the unit, and "_str" columns shadow their
// numeric counterparts.
func transformTag(name string) string {
	if name == "_measurement" {
		return "unit_of_measurement"
	}
	return strings.TrimSuffix(name, "_str")
}
