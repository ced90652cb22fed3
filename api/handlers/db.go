package handlers

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/ryanpate/cqxdash/api/metrics"
)

// Executor runs a statement against the warehouse and hands back generic
// rows for the normalizer. It has no knowledge of what the statement
// computes.
type Executor struct {
	conn driver.Conn
}

// NewExecutor wraps a ClickHouse connection pool.
func NewExecutor(conn driver.Conn) *Executor {
	return &Executor{conn: conn}
}

// Query executes stmt with positional args and materializes the full result
// set as column names plus generic row tuples. The rows handle is always
// closed, on success and on failure. Errors are classified into the
// connectivity/query taxonomy.
var errNoConnection = errors.New("clickhouse connection not configured")

func (e *Executor) Query(ctx context.Context, stmt string, args ...any) ([]string, [][]any, error) {
	if e.conn == nil {
		return nil, nil, &ConnectivityError{Err: errNoConnection}
	}
	start := time.Now()
	rows, err := e.conn.Query(ctx, stmt, args...)
	metrics.RecordClickHouseQuery(time.Since(start), err)
	if err != nil {
		return nil, nil, classifyQueryErr(err)
	}
	defer rows.Close()

	columnTypes := rows.ColumnTypes()
	columns := make([]string, len(columnTypes))
	for i, ct := range columnTypes {
		columns[i] = ct.Name()
	}

	var out [][]any
	for rows.Next() {
		scan := make([]any, len(columnTypes))
		for i, ct := range columnTypes {
			scan[i] = reflect.New(ct.ScanType()).Interface()
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, nil, classifyQueryErr(err)
		}
		row := make([]any, len(scan))
		for i, v := range scan {
			row[i] = reflect.ValueOf(v).Elem().Interface()
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, classifyQueryErr(err)
	}

	return columns, out, nil
}

// queryStrings runs a statement expected to return a single string column,
// for the distinct-value lookups behind /filters.
func (e *Executor) queryStrings(ctx context.Context, stmt string, args ...any) ([]string, error) {
	if e.conn == nil {
		return nil, &ConnectivityError{Err: errNoConnection}
	}
	start := time.Now()
	rows, err := e.conn.Query(ctx, stmt, args...)
	metrics.RecordClickHouseQuery(time.Since(start), err)
	if err != nil {
		return nil, classifyQueryErr(err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, classifyQueryErr(err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyQueryErr(err)
	}
	return out, nil
}
