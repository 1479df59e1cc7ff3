package pull

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	askql "github.com/askql/askql"
)

// SQLiteExtractor handles SQLite-specific schema extraction via the
// sqlite_master catalog and PRAGMA calls.
type SQLiteExtractor struct{}

// NewSQLiteExtractor creates a SQLite extractor.
func NewSQLiteExtractor() *SQLiteExtractor {
	return &SQLiteExtractor{}
}

// Extract reads the full schema of the attached database.
func (e *SQLiteExtractor) Extract(ctx context.Context, db *sql.DB) (*askql.Snapshot, error) {
	info, err := e.databaseInfo(ctx, db)
	if err != nil {
		return nil, err
	}

	snapshot := askql.NewSnapshot(info)

	tableNames, err := e.tableNames(ctx, db)
	if err != nil {
		return nil, err
	}

	for _, tableName := range tableNames {
		table := &askql.Table{Name: tableName}

		if err := e.fillColumns(ctx, db, table); err != nil {
			return nil, err
		}
		if err := e.fillForeignKeys(ctx, db, table); err != nil {
			return nil, err
		}
		if err := e.fillIndexes(ctx, db, table); err != nil {
			return nil, err
		}

		snapshot.AddTable(table)
	}

	return snapshot, nil
}

func (e *SQLiteExtractor) databaseInfo(ctx context.Context, db *sql.DB) (askql.DatabaseInfo, error) {
	var version string
	if err := db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&version); err != nil {
		return askql.DatabaseInfo{}, fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
	}

	return askql.DatabaseInfo{Type: "sqlite", Version: version, Name: "main"}, nil
}

func (e *SQLiteExtractor) tableNames(ctx context.Context, db *sql.DB) ([]string, error) {
	query := `SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
	}
	return names, nil
}

func (e *SQLiteExtractor) fillColumns(ctx context.Context, db *sql.DB, table *askql.Table) error {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table.Name))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
	}
	defer rows.Close()

	for rows.Next() {
		var cid, notNull, pk int
		var name, dataType string
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultValue, &pk); err != nil {
			return fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
		}

		column := askql.Column{
			Name:         name,
			DataType:     dataType,
			Nullable:     notNull == 0,
			IsPrimaryKey: pk > 0,
		}
		if defaultValue.Valid {
			column.DefaultValue = defaultValue.String
		}

		table.Columns = append(table.Columns, column)
		if column.IsPrimaryKey {
			table.PrimaryKeys = append(table.PrimaryKeys, name)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
	}
	return nil
}

func (e *SQLiteExtractor) fillForeignKeys(ctx context.Context, db *sql.DB, table *askql.Table) error {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", table.Name))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, seq int
		var referencedTable, fromColumn, toColumn string
		var onUpdate, onDelete, match string

		if err := rows.Scan(&id, &seq, &referencedTable, &fromColumn, &toColumn, &onUpdate, &onDelete, &match); err != nil {
			return fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
		}

		// Composite keys collapse to their first column pair (seq 0).
		if seq != 0 {
			continue
		}

		table.ForeignKeys = append(table.ForeignKeys, askql.ForeignKey{
			FromTable:  table.Name,
			FromColumn: fromColumn,
			ToTable:    referencedTable,
			ToColumn:   toColumn,
		})
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
	}
	return nil
}

func (e *SQLiteExtractor) fillIndexes(ctx context.Context, db *sql.DB, table *askql.Table) error {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s)", table.Name))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
	}
	defer rows.Close()

	type indexEntry struct {
		name   string
		unique bool
	}
	var entries []indexEntry
	for rows.Next() {
		var seq, unique, partial int
		var name, origin string

		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
		}

		// Auto-created primary key indexes carry no extra information.
		if strings.HasPrefix(name, "sqlite_autoindex_") {
			continue
		}
		entries = append(entries, indexEntry{name: name, unique: unique == 1})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
	}

	for _, entry := range entries {
		columns, err := e.indexColumns(ctx, db, entry.name)
		if err != nil {
			return err
		}
		table.Indexes = append(table.Indexes, askql.Index{
			Name:     entry.name,
			Columns:  columns,
			IsUnique: entry.unique,
		})
	}
	return nil
}

func (e *SQLiteExtractor) indexColumns(ctx context.Context, db *sql.DB, indexName string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s)", indexName))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var columnName string
		if err := rows.Scan(&seqno, &cid, &columnName); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
		}
		columns = append(columns, columnName)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
	}
	return columns, nil
}
