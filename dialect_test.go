package askql

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestDialectValid(t *testing.T) {
	assert.True(t, DialectMySQL.Valid())
	assert.True(t, DialectPostgres.Valid())
	assert.True(t, DialectSQLite.Valid())
	assert.False(t, Dialect("oracle").Valid())
	assert.False(t, Dialect("").Valid())
}

func TestDialectDriverName(t *testing.T) {
	assert.Equal(t, "mysql", DialectMySQL.DriverName())
	assert.Equal(t, "pgx", DialectPostgres.DriverName())
	assert.Equal(t, "sqlite3", DialectSQLite.DriverName())
}

func TestDialectFromDriver(t *testing.T) {
	testCases := []struct {
		driver   string
		expected Dialect
	}{
		{"mysql", DialectMySQL},
		{"pgx", DialectPostgres},
		{"postgres", DialectPostgres},
		{"postgresql", DialectPostgres},
		{"sqlite", DialectSQLite},
		{"sqlite3", DialectSQLite},
	}

	for _, tc := range testCases {
		t.Run(tc.driver, func(t *testing.T) {
			assert.Equal(t, tc.expected, DialectFromDriver(tc.driver))
		})
	}
}
