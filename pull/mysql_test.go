package pull

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/alecthomas/assert/v2"
)

func TestMySQLExtract(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT VERSION").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("8.4.0"))
	mock.ExpectQuery("SELECT DATABASE").
		WillReturnRows(sqlmock.NewRows([]string{"database"}).AddRow("store"))

	mock.ExpectQuery("FROM information_schema.TABLES").
		WithArgs("store").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME"}).AddRow("customers").AddRow("orders"))

	// customers
	mock.ExpectQuery("FROM information_schema.COLUMNS").
		WithArgs("store", "customers").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "COLUMN_TYPE", "IS_NULLABLE", "COLUMN_KEY", "COLUMN_DEFAULT"}).
			AddRow("id", "int", "NO", "PRI", nil).
			AddRow("city", "varchar(50)", "YES", "", "NYC"))
	mock.ExpectQuery("FROM information_schema.KEY_COLUMN_USAGE").
		WithArgs("store", "customers").
		WillReturnRows(sqlmock.NewRows([]string{"CONSTRAINT_NAME", "COLUMN_NAME", "REFERENCED_TABLE_NAME", "REFERENCED_COLUMN_NAME"}))
	mock.ExpectQuery("FROM information_schema.STATISTICS").
		WithArgs("store", "customers").
		WillReturnRows(sqlmock.NewRows([]string{"INDEX_NAME", "NON_UNIQUE", "COLUMN_NAME"}).
			AddRow("idx_city", 1, "city"))

	// orders
	mock.ExpectQuery("FROM information_schema.COLUMNS").
		WithArgs("store", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "COLUMN_TYPE", "IS_NULLABLE", "COLUMN_KEY", "COLUMN_DEFAULT"}).
			AddRow("id", "int", "NO", "PRI", nil).
			AddRow("customer_id", "int", "NO", "MUL", nil))
	mock.ExpectQuery("FROM information_schema.KEY_COLUMN_USAGE").
		WithArgs("store", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"CONSTRAINT_NAME", "COLUMN_NAME", "REFERENCED_TABLE_NAME", "REFERENCED_COLUMN_NAME"}).
			AddRow("fk_orders_customers", "customer_id", "customers", "id"))
	mock.ExpectQuery("FROM information_schema.STATISTICS").
		WithArgs("store", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"INDEX_NAME", "NON_UNIQUE", "COLUMN_NAME"}))

	snapshot, err := NewMySQLExtractor().Extract(context.Background(), db)
	assert.NoError(t, err)

	assert.Equal(t, "mysql", snapshot.DatabaseInfo.Type)
	assert.Equal(t, "store", snapshot.DatabaseInfo.Name)
	assert.Equal(t, []string{"customers", "orders"}, snapshot.TableNames())

	customers, ok := snapshot.Table("customers")
	assert.True(t, ok)
	assert.Equal(t, []string{"id", "city"}, customers.ColumnNames())
	assert.Equal(t, []string{"id"}, customers.PrimaryKeys)
	assert.True(t, customers.Columns[1].Nullable)
	assert.Equal(t, "NYC", customers.Columns[1].DefaultValue)
	assert.Equal(t, 1, len(customers.Indexes))
	assert.False(t, customers.Indexes[0].IsUnique)

	orders, ok := snapshot.Table("orders")
	assert.True(t, ok)
	assert.Equal(t, 1, len(orders.ForeignKeys))
	assert.Equal(t, "customers", orders.ForeignKeys[0].ToTable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLExtractCompositeForeignKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT VERSION").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("8.4.0"))
	mock.ExpectQuery("SELECT DATABASE").
		WillReturnRows(sqlmock.NewRows([]string{"database"}).AddRow("store"))

	mock.ExpectQuery("FROM information_schema.TABLES").
		WithArgs("store").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME"}).AddRow("order_items"))

	mock.ExpectQuery("FROM information_schema.COLUMNS").
		WithArgs("store", "order_items").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "COLUMN_TYPE", "IS_NULLABLE", "COLUMN_KEY", "COLUMN_DEFAULT"}).
			AddRow("order_id", "int", "NO", "PRI", nil).
			AddRow("line_no", "int", "NO", "PRI", nil))

	// A two-column key yields one edge, the first column pair. A second edge
	// would become a duplicate JOIN clause during assembly.
	mock.ExpectQuery("FROM information_schema.KEY_COLUMN_USAGE").
		WithArgs("store", "order_items").
		WillReturnRows(sqlmock.NewRows([]string{"CONSTRAINT_NAME", "COLUMN_NAME", "REFERENCED_TABLE_NAME", "REFERENCED_COLUMN_NAME"}).
			AddRow("fk_items_orders", "order_id", "orders", "id").
			AddRow("fk_items_orders", "line_no", "orders", "line_no"))

	mock.ExpectQuery("FROM information_schema.STATISTICS").
		WithArgs("store", "order_items").
		WillReturnRows(sqlmock.NewRows([]string{"INDEX_NAME", "NON_UNIQUE", "COLUMN_NAME"}))

	snapshot, err := NewMySQLExtractor().Extract(context.Background(), db)
	assert.NoError(t, err)

	items, ok := snapshot.Table("order_items")
	assert.True(t, ok)
	assert.Equal(t, 1, len(items.ForeignKeys))
	assert.Equal(t, "order_id", items.ForeignKeys[0].FromColumn)
	assert.Equal(t, "id", items.ForeignKeys[0].ToColumn)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLExtractPermissionDenied(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT VERSION").
		WillReturnError(errors.New("Error 1045: Access denied for user"))

	_, err = NewMySQLExtractor().Extract(context.Background(), db)
	assert.IsError(t, err, ErrSchemaExtraction)
}
