// Package pull extracts a schema snapshot from a live database. Each engine
// has its own extractor because the catalog surfaces differ: MySQL and
// PostgreSQL expose information_schema, SQLite answers through PRAGMA calls.
package pull

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"

	askql "github.com/askql/askql"
)

// Error definitions
var (
	ErrEmptyDatabaseType   = errors.New("database type cannot be empty")
	ErrUnsupportedDatabase = errors.New("unsupported database type")
	ErrSchemaExtraction    = errors.New("schema extraction failed")
)

// Extractor reads the full schema of one database.
type Extractor interface {
	Extract(ctx context.Context, db *sql.DB) (*askql.Snapshot, error)
}

// NewExtractor creates an extractor for the specified database type.
func NewExtractor(databaseType string) (Extractor, error) {
	if databaseType == "" {
		return nil, ErrEmptyDatabaseType
	}

	switch strings.ToLower(databaseType) {
	case "postgresql", "postgres":
		return NewPostgresExtractor(), nil
	case "mysql":
		return NewMySQLExtractor(), nil
	case "sqlite", "sqlite3":
		return NewSQLiteExtractor(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDatabase, databaseType)
	}
}

// Snapshot pulls the schema using the extractor matching the dialect.
func Snapshot(ctx context.Context, db *sql.DB, dialect askql.Dialect) (*askql.Snapshot, error) {
	extractor, err := NewExtractor(string(dialect))
	if err != nil {
		return nil, err
	}
	return extractor.Extract(ctx, db)
}

// snapshotDocument is the serialized layout of a snapshot dump.
type snapshotDocument struct {
	Database askql.DatabaseInfo `yaml:"database"`
	Tables   []*askql.Table     `yaml:"tables"`
}

// ToYAML serializes a snapshot for caching or inspection.
func ToYAML(snapshot *askql.Snapshot) ([]byte, error) {
	doc := snapshotDocument{
		Database: snapshot.DatabaseInfo,
		Tables:   snapshot.Tables,
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

// FromYAML restores a snapshot produced by ToYAML.
func FromYAML(data []byte) (*askql.Snapshot, error) {
	var doc snapshotDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	snapshot := askql.NewSnapshot(doc.Database)
	for _, table := range doc.Tables {
		snapshot.AddTable(table)
	}
	return snapshot, nil
}
