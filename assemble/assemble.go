// Package assemble builds a single SELECT statement out of the fragments the
// pipeline stages produce: an ordered table list, inferred join edges, a
// column list, and an optional WHERE fragment.
package assemble

import (
	"errors"
	"fmt"
	"strings"

	askql "github.com/askql/askql"
)

// ErrEmptyTableList is returned when assembly is attempted without tables.
var ErrEmptyTableList = errors.New("no tables identified for the query")

// JoinEdge is one inferred join between two candidate tables.
type JoinEdge struct {
	FromTable  string `json:"from_table"`
	ToTable    string `json:"to_table"`
	FromColumn string `json:"from_column"`
	ToColumn   string `json:"to_column"`
}

// PlanJoins derives join edges by pairwise-scanning the candidate table list
// for foreign keys whose endpoints are both in the list. There is no
// transitive closure: a relationship through an absent intermediate table
// produces no edge.
func PlanJoins(snapshot *askql.Snapshot, tables []string) []JoinEdge {
	var joins []JoinEdge

	if len(tables) < 2 {
		return joins
	}

	for _, from := range tables {
		fromTable, ok := snapshot.Table(from)
		if !ok {
			continue
		}
		for _, to := range tables {
			if from == to {
				continue
			}
			for _, fk := range fromTable.ForeignKeys {
				if fk.ToTable == to {
					joins = append(joins, JoinEdge{
						FromTable:  from,
						ToTable:    to,
						FromColumn: fk.FromColumn,
						ToColumn:   fk.ToColumn,
					})
				}
			}
		}
	}

	return joins
}

// Build combines the fragments into one SQL statement. Clause order is fixed:
// SELECT, FROM, JOIN*, WHERE, joined with single spaces. The function is pure
// over its inputs and the immutable snapshot.
func Build(snapshot *askql.Snapshot, tables []string, joins []JoinEdge, columns []string, where string) (string, error) {
	if len(tables) == 0 {
		return "", ErrEmptyTableList
	}

	parts := []string{
		buildSelectClause(snapshot, tables, columns),
		"FROM " + tables[0],
	}

	for _, join := range joins {
		parts = append(parts, fmt.Sprintf("JOIN %s ON %s.%s = %s.%s",
			join.ToTable, join.FromTable, join.FromColumn, join.ToTable, join.ToColumn))
	}

	if where != "" {
		parts = append(parts, "WHERE "+where)
	}

	return strings.Join(parts, " "), nil
}

// buildSelectClause qualifies each column with the first candidate table that
// owns it. Columns found in no table pass through unqualified so aggregate
// expressions like COUNT(*) survive.
func buildSelectClause(snapshot *askql.Snapshot, tables, columns []string) string {
	if len(columns) == 0 {
		return "SELECT *"
	}

	qualified := make([]string, 0, len(columns))
	for _, col := range columns {
		if table, ok := snapshot.QualifyingTable(col, tables); ok {
			qualified = append(qualified, table+"."+col)
		} else {
			qualified = append(qualified, col)
		}
	}

	return "SELECT " + strings.Join(qualified, ", ")
}
