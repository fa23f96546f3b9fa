package metric

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// nameLabel is the reserved label carrying the metric name in the
// JSON-lines representation.
const nameLabel = "__name__"

// jsonSeries is the wire shape of one series in the JSON-lines format.
type jsonSeries struct {
	Metric     map[string]string `json:"metric"`
	Values     []float64         `json:"values"`
	Timestamps []int64           `json:"timestamps"`
}

// EncodeJSONLines serializes the batch as newline-separated JSON objects,
// one per series, timestamps in milliseconds:
//
//	{"metric":{"__name__":"ha.sensor.temp.value","unit_of_measurement":"°C"},"values":[21.5],"timestamps":[1700000000000]}
//
// Output is deterministic for identical input ordering and never contains
// a series with empty values or timestamps.
func (b *Batch) EncodeJSONLines() ([]byte, error) {
	var buf bytes.Buffer
	for i, s := range b.Series() {
		labels := make(map[string]string, len(s.Tags)+1)
		labels[nameLabel] = s.Name
		for k, v := range s.Tags {
			labels[k] = v
		}

		line, err := json.Marshal(jsonSeries{
			Metric:     labels,
			Values:     s.Values,
			Timestamps: s.Timestamps,
		})
		if err != nil {
			return nil, fmt.Errorf("encoding series %q: %w", s.Name, err)
		}

		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(line)
	}
	return buf.Bytes(), nil
}

// DecodeJSONLines parses a JSON-lines payload back into a batch. Used to
// verify round-trip fidelity; blank lines are skipped.
func DecodeJSONLines(payload []byte) (*Batch, error) {
	batch := NewBatch()
	scanner := bufio.NewScanner(bytes.NewReader(payload))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var s jsonSeries
		if err := json.Unmarshal(line, &s); err != nil {
			return nil, fmt.Errorf("decoding series line: %w", err)
		}
		if len(s.Values) != len(s.Timestamps) {
			return nil, fmt.Errorf("decoding series line: %d values but %d timestamps", len(s.Values), len(s.Timestamps))
		}

		name := s.Metric[nameLabel]
		if name == "" {
			return nil, fmt.Errorf("decoding series line: missing %s label", nameLabel)
		}
		tags := make(map[string]string, len(s.Metric)-1)
		for k, v := range s.Metric {
			if k != nameLabel {
				tags[k] = v
			}
		}

		for i := range s.Values {
			batch.Add(name, tags, s.Values[i], s.Timestamps[i])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}
	return batch, nil
}

// EncodeLineProtocol serializes the batch as plaintext line protocol, one
// line per sample, timestamps in Unix seconds:
//
//	ha.sensor.temp.value;unit_of_measurement=°C 21.5 1700000000
//
// Tag order within a line is sorted by key, so key uniqueness holds and
// output is deterministic.
func (b *Batch) EncodeLineProtocol() []byte {
	var buf bytes.Buffer
	first := true
	for _, s := range b.Series() {
		keys := make([]string, 0, len(s.Tags))
		for k := range s.Tags {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for i := range s.Values {
			if !first {
				buf.WriteByte('\n')
			}
			first = false

			buf.WriteString(s.Name)
			for _, k := range keys {
				buf.WriteByte(';')
				buf.WriteString(k)
				buf.WriteByte('=')
				buf.WriteString(s.Tags[k])
			}
			buf.WriteByte(' ')
			buf.WriteString(strconv.FormatFloat(s.Values[i], 'g', -1, 64))
			buf.WriteByte(' ')
			buf.WriteString(strconv.FormatInt(s.Timestamps[i]/1000, 10))
		}
	}
	return buf.Bytes()
}
