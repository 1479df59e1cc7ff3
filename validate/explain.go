package validate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrExplainFailed indicates the engine rejected the statement's plan.
var ErrExplainFailed = errors.New("EXPLAIN validation failed")

// planQuerier is satisfied by *sql.DB and *sql.Conn, so the check can run
// on the pool or on a pinned connection.
type planQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// ExplainCheck asks the database's query planner to plan the statement
// without executing it. A planner error is treated as a validation failure.
func ExplainCheck(ctx context.Context, db planQuerier, query string) error {
	rows, err := db.QueryContext(ctx, "EXPLAIN "+query)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExplainFailed, err)
	}
	defer rows.Close()

	// The plan itself is not inspected; planning succeeding is the check.
	for rows.Next() {
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrExplainFailed, err)
	}

	return nil
}
