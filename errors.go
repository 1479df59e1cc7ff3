package askql

import "errors"

// Common errors shared across the askql packages
var (
	// ErrConfigValidation is returned when configuration validation fails.
	ErrConfigValidation = errors.New("configuration validation failed")
	// ErrUnsupportedDialect indicates a dialect other than mysql, postgres or sqlite.
	ErrUnsupportedDialect = errors.New("unsupported database dialect")
	// ErrDatabaseConnection indicates the database could not be opened or pinged.
	ErrDatabaseConnection = errors.New("database connection failed")
)
