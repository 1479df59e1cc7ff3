package pull

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	askql "github.com/askql/askql"
)

// MySQLExtractor handles MySQL-specific schema extraction via
// information_schema.
type MySQLExtractor struct{}

// NewMySQLExtractor creates a MySQL extractor.
func NewMySQLExtractor() *MySQLExtractor {
	return &MySQLExtractor{}
}

// Extract reads the current database's full schema.
func (e *MySQLExtractor) Extract(ctx context.Context, db *sql.DB) (*askql.Snapshot, error) {
	info, err := e.databaseInfo(ctx, db)
	if err != nil {
		return nil, err
	}

	snapshot := askql.NewSnapshot(info)

	tableNames, err := e.tableNames(ctx, db, info.Name)
	if err != nil {
		return nil, err
	}

	for _, tableName := range tableNames {
		table := &askql.Table{Name: tableName}

		if err := e.fillColumns(ctx, db, info.Name, table); err != nil {
			return nil, err
		}
		if err := e.fillForeignKeys(ctx, db, info.Name, table); err != nil {
			return nil, err
		}
		if err := e.fillIndexes(ctx, db, info.Name, table); err != nil {
			return nil, err
		}

		snapshot.AddTable(table)
	}

	return snapshot, nil
}

func (e *MySQLExtractor) databaseInfo(ctx context.Context, db *sql.DB) (askql.DatabaseInfo, error) {
	var version, dbName string

	if err := db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version); err != nil {
		return askql.DatabaseInfo{}, e.wrapError(err)
	}
	if err := db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&dbName); err != nil {
		return askql.DatabaseInfo{}, e.wrapError(err)
	}

	return askql.DatabaseInfo{Type: "mysql", Version: version, Name: dbName}, nil
}

func (e *MySQLExtractor) tableNames(ctx context.Context, db *sql.DB, schemaName string) ([]string, error) {
	query := `
		SELECT TABLE_NAME
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ?
		  AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`

	rows, err := db.QueryContext(ctx, query, schemaName)
	if err != nil {
		return nil, e.wrapError(err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, e.wrapError(err)
		}
		names = append(names, name)
	}
	return names, e.wrapError(rows.Err())
}

func (e *MySQLExtractor) fillColumns(ctx context.Context, db *sql.DB, schemaName string, table *askql.Table) error {
	query := `
		SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_KEY, COLUMN_DEFAULT
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ?
		  AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`

	rows, err := db.QueryContext(ctx, query, schemaName, table.Name)
	if err != nil {
		return e.wrapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var columnName, columnType, isNullable, columnKey string
		var columnDefault sql.NullString

		if err := rows.Scan(&columnName, &columnType, &isNullable, &columnKey, &columnDefault); err != nil {
			return e.wrapError(err)
		}

		column := askql.Column{
			Name:         columnName,
			DataType:     columnType,
			Nullable:     isNullable == "YES",
			IsPrimaryKey: columnKey == "PRI",
		}
		if columnDefault.Valid {
			column.DefaultValue = columnDefault.String
		}

		table.Columns = append(table.Columns, column)
		if column.IsPrimaryKey {
			table.PrimaryKeys = append(table.PrimaryKeys, columnName)
		}
	}

	return e.wrapError(rows.Err())
}

func (e *MySQLExtractor) fillForeignKeys(ctx context.Context, db *sql.DB, schemaName string, table *askql.Table) error {
	query := `
		SELECT CONSTRAINT_NAME, COLUMN_NAME, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ?
		  AND TABLE_NAME = ?
		  AND REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY CONSTRAINT_NAME, ORDINAL_POSITION`

	rows, err := db.QueryContext(ctx, query, schemaName, table.Name)
	if err != nil {
		return e.wrapError(err)
	}
	defer rows.Close()

	// One edge per constraint: a composite key collapses to its first
	// column pair.
	seen := map[string]bool{}
	for rows.Next() {
		var constraintName, columnName, referencedTable, referencedColumn string
		if err := rows.Scan(&constraintName, &columnName, &referencedTable, &referencedColumn); err != nil {
			return e.wrapError(err)
		}
		if seen[constraintName] {
			continue
		}
		seen[constraintName] = true

		table.ForeignKeys = append(table.ForeignKeys, askql.ForeignKey{
			FromTable:  table.Name,
			FromColumn: columnName,
			ToTable:    referencedTable,
			ToColumn:   referencedColumn,
		})
	}

	return e.wrapError(rows.Err())
}

func (e *MySQLExtractor) fillIndexes(ctx context.Context, db *sql.DB, schemaName string, table *askql.Table) error {
	query := `
		SELECT INDEX_NAME, NON_UNIQUE, COLUMN_NAME
		FROM information_schema.STATISTICS
		WHERE TABLE_SCHEMA = ?
		  AND TABLE_NAME = ?
		ORDER BY INDEX_NAME, SEQ_IN_INDEX`

	rows, err := db.QueryContext(ctx, query, schemaName, table.Name)
	if err != nil {
		return e.wrapError(err)
	}
	defer rows.Close()

	indexMap := map[string]*askql.Index{}
	var order []string
	for rows.Next() {
		var indexName, columnName string
		var nonUnique int

		if err := rows.Scan(&indexName, &nonUnique, &columnName); err != nil {
			return e.wrapError(err)
		}

		index, exists := indexMap[indexName]
		if !exists {
			index = &askql.Index{Name: indexName, IsUnique: nonUnique == 0}
			indexMap[indexName] = index
			order = append(order, indexName)
		}
		index.Columns = append(index.Columns, columnName)
	}
	if err := rows.Err(); err != nil {
		return e.wrapError(err)
	}

	for _, name := range order {
		table.Indexes = append(table.Indexes, *indexMap[name])
	}
	return nil
}

// wrapError classifies MySQL errors into the package's sentinel space.
func (e *MySQLExtractor) wrapError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "Access denied"):
		return fmt.Errorf("%w: permission denied: %v", ErrSchemaExtraction, err)
	case strings.Contains(errStr, "doesn't exist"):
		return fmt.Errorf("%w: schema not found: %v", ErrSchemaExtraction, err)
	default:
		return fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
	}
}
