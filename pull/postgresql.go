package pull

import (
	"context"
	"database/sql"
	"fmt"

	askql "github.com/askql/askql"
)

// PostgresExtractor handles PostgreSQL-specific schema extraction. Only the
// public schema is read; system schemas never matter for question answering.
type PostgresExtractor struct{}

// NewPostgresExtractor creates a PostgreSQL extractor.
func NewPostgresExtractor() *PostgresExtractor {
	return &PostgresExtractor{}
}

// Extract reads the public schema of the connected database.
func (e *PostgresExtractor) Extract(ctx context.Context, db *sql.DB) (*askql.Snapshot, error) {
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
		if err := e.fillPrimaryKeys(ctx, db, table); err != nil {
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

func (e *PostgresExtractor) databaseInfo(ctx context.Context, db *sql.DB) (askql.DatabaseInfo, error) {
	var version, dbName string

	if err := db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return askql.DatabaseInfo{}, fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
	}
	if err := db.QueryRowContext(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
		return askql.DatabaseInfo{}, fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
	}

	return askql.DatabaseInfo{Type: "postgres", Version: version, Name: dbName}, nil
}

func (e *PostgresExtractor) tableNames(ctx context.Context, db *sql.DB) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`

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

func (e *PostgresExtractor) fillColumns(ctx context.Context, db *sql.DB, table *askql.Table) error {
	query := `
		SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = 'public'
		  AND table_name = $1
		ORDER BY ordinal_position`

	rows, err := db.QueryContext(ctx, query, table.Name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
	}
	defer rows.Close()

	for rows.Next() {
		var columnName, dataType, isNullable string
		var columnDefault sql.NullString

		if err := rows.Scan(&columnName, &dataType, &isNullable, &columnDefault); err != nil {
			return fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
		}

		column := askql.Column{
			Name:     columnName,
			DataType: dataType,
			Nullable: isNullable == "YES",
		}
		if columnDefault.Valid {
			column.DefaultValue = columnDefault.String
		}
		table.Columns = append(table.Columns, column)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
	}
	return nil
}

func (e *PostgresExtractor) fillPrimaryKeys(ctx context.Context, db *sql.DB, table *askql.Table) error {
	query := `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.table_schema = 'public'
		  AND tc.table_name = $1
		  AND tc.constraint_type = 'PRIMARY KEY'
		ORDER BY kcu.ordinal_position`

	rows, err := db.QueryContext(ctx, query, table.Name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
	}
	defer rows.Close()

	pk := map[string]bool{}
	for rows.Next() {
		var columnName string
		if err := rows.Scan(&columnName); err != nil {
			return fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
		}
		table.PrimaryKeys = append(table.PrimaryKeys, columnName)
		pk[columnName] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
	}

	for i := range table.Columns {
		if pk[table.Columns[i].Name] {
			table.Columns[i].IsPrimaryKey = true
		}
	}
	return nil
}

func (e *PostgresExtractor) fillForeignKeys(ctx context.Context, db *sql.DB, table *askql.Table) error {
	// pg_constraint exposes the constrained/referenced column arrays in
	// matching order; taking conkey[1]/confkey[1] collapses a composite key
	// to its first column pair. information_schema cannot express this: its
	// constraint_column_usage view has no position, so joining it against
	// key_column_usage cross-products the columns of composite keys.
	query := `
		SELECT att_from.attname, cl_to.relname, att_to.attname
		FROM pg_constraint con
		JOIN pg_class cl_from ON cl_from.oid = con.conrelid
		JOIN pg_namespace ns ON ns.oid = cl_from.relnamespace
		JOIN pg_class cl_to ON cl_to.oid = con.confrelid
		JOIN pg_attribute att_from ON att_from.attrelid = con.conrelid AND att_from.attnum = con.conkey[1]
		JOIN pg_attribute att_to ON att_to.attrelid = con.confrelid AND att_to.attnum = con.confkey[1]
		WHERE con.contype = 'f'
		  AND ns.nspname = 'public'
		  AND cl_from.relname = $1
		ORDER BY con.conname`

	rows, err := db.QueryContext(ctx, query, table.Name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
	}
	defer rows.Close()

	for rows.Next() {
		var columnName, referencedTable, referencedColumn string
		if err := rows.Scan(&columnName, &referencedTable, &referencedColumn); err != nil {
			return fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
		}
		table.ForeignKeys = append(table.ForeignKeys, askql.ForeignKey{
			FromTable:  table.Name,
			FromColumn: columnName,
			ToTable:    referencedTable,
			ToColumn:   referencedColumn,
		})
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
	}
	return nil
}

func (e *PostgresExtractor) fillIndexes(ctx context.Context, db *sql.DB, table *askql.Table) error {
	query := `
		SELECT i.relname, ix.indisunique, a.attname
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE t.relname = $1
		  AND NOT ix.indisprimary
		ORDER BY i.relname, a.attnum`

	rows, err := db.QueryContext(ctx, query, table.Name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
	}
	defer rows.Close()

	indexMap := map[string]*askql.Index{}
	var order []string
	for rows.Next() {
		var indexName, columnName string
		var unique bool

		if err := rows.Scan(&indexName, &unique, &columnName); err != nil {
			return fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
		}

		index, exists := indexMap[indexName]
		if !exists {
			index = &askql.Index{Name: indexName, IsUnique: unique}
			indexMap[indexName] = index
			order = append(order, indexName)
		}
		index.Columns = append(index.Columns, columnName)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaExtraction, err)
	}

	for _, name := range order {
		table.Indexes = append(table.Indexes, *indexMap[name])
	}
	return nil
}
