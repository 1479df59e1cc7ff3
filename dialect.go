package askql

// Dialect represents supported database dialects
// This type is shared across all packages
type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Valid reports whether the dialect is one of the supported engines.
func (d Dialect) Valid() bool {
	switch d {
	case DialectMySQL, DialectPostgres, DialectSQLite:
		return true
	}
	return false
}

// DriverName returns the database/sql driver name for the dialect.
func (d Dialect) DriverName() string {
	switch d {
	case DialectPostgres:
		return "pgx"
	case DialectSQLite:
		return "sqlite3"
	default:
		return "mysql"
	}
}

// DialectFromDriver maps a database/sql driver name back to a dialect.
func DialectFromDriver(driver string) Dialect {
	switch driver {
	case "pgx", "postgres", "postgresql":
		return DialectPostgres
	case "sqlite", "sqlite3":
		return DialectSQLite
	default:
		return DialectMySQL
	}
}
