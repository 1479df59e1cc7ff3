package query

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/alecthomas/assert/v2"

	askql "github.com/askql/askql"
	"github.com/askql/askql/validate"
)

func TestExecute(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, city FROM customers")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "city"}).
			AddRow(1, "NYC").
			AddRow(2, "Boston"))

	executor := NewExecutor(db, askql.DialectSQLite)
	result, err := executor.Execute(context.Background(), "SELECT id, city FROM customers", Options{})
	assert.NoError(t, err)

	assert.Equal(t, []string{"id", "city"}, result.Columns)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, "NYC", result.Rows[0]["city"])
	assert.Equal(t, "Boston", result.Rows[1]["city"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteWithExplainPreCheck(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("EXPLAIN SELECT total FROM orders")).
		WillReturnRows(sqlmock.NewRows([]string{"plan"}).AddRow("SCAN orders"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT total FROM orders")).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(42.5))

	executor := NewExecutor(db, askql.DialectSQLite)
	result, err := executor.Execute(context.Background(), "SELECT total FROM orders", Options{Explain: true})
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteExplainFailureBlocksQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("EXPLAIN SELECT * FROM missing")).
		WillReturnError(errors.New("no such table: missing"))

	executor := NewExecutor(db, askql.DialectSQLite)
	_, err = executor.Execute(context.Background(), "SELECT * FROM missing", Options{Explain: true})
	assert.IsError(t, err, validate.ErrExplainFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteMySQLSetsSessionCap(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	// The cap and the statement run on one pinned connection, SET first.
	mock.ExpectExec(regexp.QuoteMeta("SET SESSION MAX_EXECUTION_TIME = 30000")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM dual")).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	executor := NewExecutor(db, askql.DialectMySQL)
	_, err = executor.Execute(context.Background(), "SELECT 1 FROM dual", Options{})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM orders")).
		WillReturnError(errors.New("connection reset"))

	executor := NewExecutor(db, askql.DialectSQLite)
	_, err = executor.Execute(context.Background(), "SELECT * FROM orders", Options{})
	assert.IsError(t, err, ErrQueryExecution)
}

func TestExecuteMaxRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id"})
	for i := 1; i <= 5; i++ {
		rows.AddRow(i)
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM orders")).WillReturnRows(rows)

	executor := NewExecutor(db, askql.DialectSQLite)
	result, err := executor.Execute(context.Background(), "SELECT id FROM orders", Options{MaxRows: 3})
	assert.NoError(t, err)
	assert.Equal(t, 3, result.Count)
}

func TestConvertSQLValue(t *testing.T) {
	testCases := []struct {
		name     string
		input    any
		expected any
	}{
		{name: "nil passes through", input: nil, expected: nil},
		{name: "bytes become string", input: []byte("hello"), expected: "hello"},
		{name: "json object decoded", input: []byte(`{"a":1}`), expected: map[string]any{"a": float64(1)}},
		{name: "int passes through", input: 42, expected: 42},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, convertSQLValue(tc.input))
		})
	}
}
