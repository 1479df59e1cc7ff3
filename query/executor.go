// Package query executes validated SELECT statements and renders the
// results. Execution is always bounded by a timeout and, when enabled, is
// preceded by an EXPLAIN round trip so syntactically broken statements never
// reach the engine for real.
package query

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	askql "github.com/askql/askql"
	"github.com/askql/askql/validate"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver (CGO)
)

// Error definitions
var (
	ErrQueryExecution      = errors.New("query execution failed")
	ErrInvalidOutputFormat = errors.New("invalid output format")
)

// DefaultTimeout bounds a single statement's wall-clock execution.
const DefaultTimeout = 30 * time.Second

// Options controls a single execution.
type Options struct {
	// Timeout overrides DefaultTimeout when positive.
	Timeout time.Duration

	// Explain runs an EXPLAIN pre-check before the real query.
	Explain bool

	// MaxRows caps the number of rows fetched. Zero means unlimited.
	MaxRows int
}

// Result holds the outcome of one executed statement.
type Result struct {
	SQL      string           `json:"sql"`
	Columns  []string         `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	Count    int              `json:"count"`
	Duration time.Duration    `json:"duration"`
}

// Executor runs statements against one open connection pool.
type Executor struct {
	db      *sql.DB
	dialect askql.Dialect
}

// NewExecutor creates an executor for the given connection.
func NewExecutor(db *sql.DB, dialect askql.Dialect) *Executor {
	return &Executor{db: db, dialect: dialect}
}

// Execute runs one SELECT statement. The EXPLAIN pre-check, when requested,
// fails the whole call so the caller never sees partial results from a
// statement the planner rejected.
func (e *Executor) Execute(ctx context.Context, query string, options Options) (*Result, error) {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// The session cap and the statement must share one connection; pool
	// routing would otherwise apply the cap to a session the query never
	// touches.
	conn, err := e.db.Conn(queryCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecution, err)
	}
	defer conn.Close()

	// MySQL enforces the cap server side as well, so a runaway statement is
	// killed even if the client goes away without cancelling.
	if e.dialect == askql.DialectMySQL {
		capMillis := timeout.Milliseconds()
		if _, err := conn.ExecContext(queryCtx, fmt.Sprintf("SET SESSION MAX_EXECUTION_TIME = %d", capMillis)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQueryExecution, err)
		}
	}

	if options.Explain {
		if err := validate.ExplainCheck(queryCtx, conn, query); err != nil {
			return nil, err
		}
	}

	startTime := time.Now()
	rows, err := conn.QueryContext(queryCtx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecution, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecution, err)
	}

	result := &Result{
		SQL:     query,
		Columns: columns,
	}

	values := make([]any, len(columns))
	scanArgs := make([]any, len(columns))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	for rows.Next() {
		if options.MaxRows > 0 && len(result.Rows) >= options.MaxRows {
			break
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQueryExecution, err)
		}

		record := make(map[string]any, len(columns))
		for i, column := range columns {
			record[column] = convertSQLValue(values[i])
		}
		result.Rows = append(result.Rows, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecution, err)
	}

	result.Count = len(result.Rows)
	result.Duration = time.Since(startTime)

	return result, nil
}

// convertSQLValue converts driver values to display-friendly Go types.
// Drivers commonly hand back []byte for text and decimal columns.
func convertSQLValue(v any) any {
	if v == nil {
		return nil
	}

	switch value := v.(type) {
	case []byte:
		str := string(value)
		if len(str) > 1 && ((str[0] == '{' && str[len(str)-1] == '}') || (str[0] == '[' && str[len(str)-1] == ']')) {
			var jsonValue any
			if err := json.Unmarshal(value, &jsonValue); err == nil {
				return jsonValue
			}
		}
		return str
	default:
		return value
	}
}

// OpenDatabase opens and pings a connection pool for the given dialect.
func OpenDatabase(dialect askql.Dialect, connectionString string, timeout time.Duration) (*sql.DB, error) {
	if !dialect.Valid() {
		return nil, fmt.Errorf("%w: %s", askql.ErrUnsupportedDialect, dialect)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	db, err := sql.Open(dialect.DriverName(), connectionString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", askql.ErrDatabaseConnection, err)
	}

	db.SetConnMaxLifetime(timeout)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", askql.ErrDatabaseConnection, err)
	}

	return db, nil
}
