package influxdb

import (
	"io"
	"reflect"
	"testing"
)

const sampleExport = `#datatype,string,long,dateTime:RFC3339,string,string,double,string
,result,table,_time,domain,entity_id,value,state
,_result,0,2023-01-01T00:00:00Z,sensor,temp,21.5,
,_result,0,2023-01-01T00:01:00Z,sensor,temp,22,
`

func TestRows_IteratesAnnotatedCSV(t *testing.T) {
	rows := newRows(sampleExport)

	first, err := rows.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if first[0] != "#datatype" {
		t.Errorf("first row starts %q, want #datatype annotation", first[0])
	}

	header, err := rows.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if header[1] != "result" {
		t.Errorf("header row = %v, want result marker in column 1", header)
	}

	var data [][]string
	for {
		row, err := rows.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		data = append(data, row)
	}

	if len(data) != 2 {
		t.Fatalf("got %d data rows, want 2", len(data))
	}
	want := []string{"", "_result", "0", "2023-01-01T00:00:00Z", "sensor", "temp", "21.5", ""}
	if !reflect.DeepEqual(data[0], want) {
		t.Errorf("data row = %v, want %v", data[0], want)
	}
}

func TestRows_VariableWidth(t *testing.T) {
	rows := newRows("#datatype,string\n,result,table,extra\n")

	if _, err := rows.Next(); err != nil {
		t.Fatalf("Next() error = %v for short annotation row", err)
	}
	if _, err := rows.Next(); err != nil {
		t.Fatalf("Next() error = %v for wider row", err)
	}
	if _, err := rows.Next(); err != io.EOF {
		t.Errorf("Next() error = %v, want io.EOF", err)
	}
}

func TestRows_Empty(t *testing.T) {
	rows := newRows("")
	if _, err := rows.Next(); err != io.EOF {
		t.Errorf("Next() error = %v for empty payload, want io.EOF", err)
	}
}
