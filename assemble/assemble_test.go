package assemble

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	askql "github.com/askql/askql"
)

func storeSnapshot() *askql.Snapshot {
	snapshot := askql.NewSnapshot(askql.DatabaseInfo{Type: "mysql", Name: "store"})
	snapshot.AddTable(&askql.Table{
		Name: "customers",
		Columns: []askql.Column{
			{Name: "id", DataType: "int", IsPrimaryKey: true},
			{Name: "first_name", DataType: "varchar(50)"},
			{Name: "last_name", DataType: "varchar(50)"},
			{Name: "city", DataType: "varchar(50)", Nullable: true},
		},
		PrimaryKeys: []string{"id"},
	})
	snapshot.AddTable(&askql.Table{
		Name: "orders",
		Columns: []askql.Column{
			{Name: "id", DataType: "int", IsPrimaryKey: true},
			{Name: "customer_id", DataType: "int"},
			{Name: "order_date", DataType: "date"},
			{Name: "total", DataType: "decimal(10,2)"},
		},
		PrimaryKeys: []string{"id"},
		ForeignKeys: []askql.ForeignKey{
			{FromTable: "orders", FromColumn: "customer_id", ToTable: "customers", ToColumn: "id"},
		},
	})
	snapshot.AddTable(&askql.Table{
		Name: "products",
		Columns: []askql.Column{
			{Name: "id", DataType: "int", IsPrimaryKey: true},
			{Name: "name", DataType: "varchar(100)"},
			{Name: "category_id", DataType: "int"},
		},
		ForeignKeys: []askql.ForeignKey{
			{FromTable: "products", FromColumn: "category_id", ToTable: "categories", ToColumn: "id"},
		},
	})
	return snapshot
}

func TestBuild(t *testing.T) {
	snapshot := storeSnapshot()

	testCases := []struct {
		name     string
		tables   []string
		joins    []JoinEdge
		columns  []string
		where    string
		expected string
	}{
		{
			name:     "no columns no joins selects star from first table",
			tables:   []string{"customers"},
			expected: "SELECT * FROM customers",
		},
		{
			name:     "columns qualified with owning table",
			tables:   []string{"customers"},
			columns:  []string{"first_name", "last_name"},
			expected: "SELECT customers.first_name, customers.last_name FROM customers",
		},
		{
			name:   "join clause follows plan order",
			tables: []string{"orders", "customers"},
			joins: []JoinEdge{
				{FromTable: "orders", ToTable: "customers", FromColumn: "customer_id", ToColumn: "id"},
			},
			expected: "SELECT * FROM orders JOIN customers ON orders.customer_id = customers.id",
		},
		{
			name:     "where fragment appended verbatim",
			tables:   []string{"customers"},
			columns:  []string{"first_name"},
			where:    "city = 'NYC'",
			expected: "SELECT customers.first_name FROM customers WHERE city = 'NYC'",
		},
		{
			name:     "unknown column passes through for aggregates",
			tables:   []string{"orders"},
			columns:  []string{"COUNT(*)"},
			expected: "SELECT COUNT(*) FROM orders",
		},
		{
			name:     "shared column name qualified by first candidate table",
			tables:   []string{"orders", "customers"},
			columns:  []string{"id"},
			expected: "SELECT orders.id FROM orders",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sql, err := Build(snapshot, tc.tables, tc.joins, tc.columns, tc.where)
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, sql)
		})
	}
}

func TestBuildEmptyTableList(t *testing.T) {
	_, err := Build(storeSnapshot(), nil, nil, nil, "")
	assert.IsError(t, err, ErrEmptyTableList)
}

func TestPlanJoins(t *testing.T) {
	snapshot := storeSnapshot()

	t.Run("single table produces no joins", func(t *testing.T) {
		assert.Equal(t, 0, len(PlanJoins(snapshot, []string{"orders"})))
	})

	t.Run("foreign key between candidates produces one edge", func(t *testing.T) {
		joins := PlanJoins(snapshot, []string{"orders", "customers"})
		assert.Equal(t, []JoinEdge{
			{FromTable: "orders", ToTable: "customers", FromColumn: "customer_id", ToColumn: "id"},
		}, joins)
	})

	t.Run("no transitive closure through absent table", func(t *testing.T) {
		// products references categories, but categories is not a candidate
		joins := PlanJoins(snapshot, []string{"products", "customers"})
		assert.Equal(t, 0, len(joins))
	})
}
