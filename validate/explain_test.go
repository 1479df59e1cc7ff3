package validate

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/alecthomas/assert/v2"
)

func TestExplainCheck(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("EXPLAIN SELECT * FROM orders")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "select_type"}).AddRow(1, "SIMPLE"))

	err = ExplainCheck(context.Background(), db, "SELECT * FROM orders")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExplainCheckPlannerError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("EXPLAIN SELECT * FROM missing")).
		WillReturnError(errors.New("Table 'store.missing' doesn't exist"))

	err = ExplainCheck(context.Background(), db, "SELECT * FROM missing")
	assert.IsError(t, err, ErrExplainFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
