package pull

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/alecthomas/assert/v2"
)

func TestSQLiteExtract(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT sqlite_version").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("3.45.0"))

	mock.ExpectQuery("FROM sqlite_master WHERE type='table'").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("orders"))

	mock.ExpectQuery(`PRAGMA table_info\(orders\)`).
		WillReturnRows(sqlmock.NewRows([]string{"cid", "name", "type", "notnull", "dflt_value", "pk"}).
			AddRow(0, "id", "INTEGER", 1, nil, 1).
			AddRow(1, "customer_id", "INTEGER", 1, nil, 0).
			AddRow(2, "total", "REAL", 0, "0", 0))

	// The second row is the second column of a composite key; only the
	// first pair (seq 0) becomes an edge.
	mock.ExpectQuery(`PRAGMA foreign_key_list\(orders\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seq", "table", "from", "to", "on_update", "on_delete", "match"}).
			AddRow(0, 0, "customers", "customer_id", "id", "NO ACTION", "NO ACTION", "NONE").
			AddRow(0, 1, "customers", "customer_region", "region", "NO ACTION", "NO ACTION", "NONE"))

	mock.ExpectQuery(`PRAGMA index_list\(orders\)`).
		WillReturnRows(sqlmock.NewRows([]string{"seq", "name", "unique", "origin", "partial"}).
			AddRow(0, "sqlite_autoindex_orders_1", 1, "pk", 0).
			AddRow(1, "idx_orders_customer", 0, "c", 0))

	mock.ExpectQuery(`PRAGMA index_info\(idx_orders_customer\)`).
		WillReturnRows(sqlmock.NewRows([]string{"seqno", "cid", "name"}).
			AddRow(0, 1, "customer_id"))

	snapshot, err := NewSQLiteExtractor().Extract(context.Background(), db)
	assert.NoError(t, err)

	assert.Equal(t, "sqlite", snapshot.DatabaseInfo.Type)
	assert.Equal(t, []string{"orders"}, snapshot.TableNames())

	orders, ok := snapshot.Table("orders")
	assert.True(t, ok)
	assert.Equal(t, []string{"id", "customer_id", "total"}, orders.ColumnNames())
	assert.Equal(t, []string{"id"}, orders.PrimaryKeys)
	assert.True(t, orders.Columns[2].Nullable)
	assert.Equal(t, "0", orders.Columns[2].DefaultValue)

	assert.Equal(t, 1, len(orders.ForeignKeys))
	assert.Equal(t, "customers", orders.ForeignKeys[0].ToTable)

	// The primary key auto-index is skipped.
	assert.Equal(t, 1, len(orders.Indexes))
	assert.Equal(t, []string{"customer_id"}, orders.Indexes[0].Columns)
	assert.NoError(t, mock.ExpectationsWereMet())
}
