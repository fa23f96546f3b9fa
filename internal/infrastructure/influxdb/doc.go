// Package influxdb provides the historical query backend for backfill
// runs.
//
// It wraps the InfluxDB v2 client to expose exactly what the importer
// needs: the set of unique entity identifiers seen in a time window, and
// a per-entity export of annotated CSV rows (a datatype annotation row,
// a header row, then data rows) produced by a pivoted Flux query.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.Backfill.Input)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	entities, err := client.UniqueEntities(ctx, start, end)
//	rows, err := client.ExportEntity(ctx, "sensor.temp", start, end)
//	for {
//	    row, err := rows.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    ...
//	}
//
// # Error Handling
//
// Connection errors are returned from Connect; query errors from the
// query methods. Check sentinel errors with errors.Is().
package influxdb
