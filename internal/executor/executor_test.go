package executor

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/shopquery/shopquery/internal/config"
	"github.com/shopquery/shopquery/internal/schema"
	"github.com/shopquery/shopquery/internal/sqlgen"
)

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}

func testExecutorCatalog() *schema.Catalog {
	return schema.New([]schema.Table{
		{
			Name: "sales_summary",
			Columns: []schema.Column{
				{Name: "date", NativeType: "date", Kind: schema.KindTemporal},
				{Name: "item_id", NativeType: "bigint", Kind: schema.KindCategorical},
				{Name: "total_sales", NativeType: "numeric", Kind: schema.KindNumeric},
			},
		},
	})
}

func validCandidate(statement string) sqlgen.Candidate {
	return sqlgen.Candidate{StatementText: statement, Valid: true}
}

func newTestExecutor(t *testing.T, db *sql.DB, rowLimit int) *Executor {
	t.Helper()
	exec, err := New(db, testExecutorCatalog(), config.ExecutorConfig{
		RowLimit:     rowLimit,
		QueryTimeout: time.Second,
		BrowseTables: []string{"sales_summary"},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return exec
}

func TestExecuteRefusesInvalidCandidate(t *testing.T) {
	db, mock := newSQLMock(t)
	exec := newTestExecutor(t, db, 10)

	candidate := sqlgen.Candidate{
		StatementText: "DROP TABLE users;",
		Violations:    []sqlgen.Violation{{Rule: sqlgen.RuleNotSelect, Message: "only SELECT statements are allowed"}},
	}
	_, err := exec.Execute(context.Background(), candidate)
	var invalidErr *InvalidCandidateError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("expected InvalidCandidateError, got %v", err)
	}
	assertSQLMock(t, mock)
}

func TestExecuteMaterializesResult(t *testing.T) {
	db, mock := newSQLMock(t)
	exec := newTestExecutor(t, db, 10)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT date, total_sales FROM sales_summary")).
		WillReturnRows(sqlmock.NewRows([]string{"date", "total_sales"}).
			AddRow(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), 120.5).
			AddRow(time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), 98.25))

	result, err := exec.Execute(context.Background(), validCandidate("SELECT date, total_sales FROM sales_summary"))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(result.Rows))
	}
	if result.Truncated {
		t.Fatal("result should not be truncated")
	}
	if result.Columns[0].Kind != schema.KindTemporal {
		t.Fatalf("date kind = %q", result.Columns[0].Kind)
	}
	if result.Columns[1].Kind != schema.KindNumeric {
		t.Fatalf("total_sales kind = %q", result.Columns[1].Kind)
	}
	assertSQLMock(t, mock)
}

func TestExecuteTruncatesAtRowLimit(t *testing.T) {
	db, mock := newSQLMock(t)
	exec := newTestExecutor(t, db, 2)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT item_id FROM sales_summary")).
		WillReturnRows(sqlmock.NewRows([]string{"item_id"}).
			AddRow(int64(1)).AddRow(int64(2)).AddRow(int64(3)))

	result, err := exec.Execute(context.Background(), validCandidate("SELECT item_id FROM sales_summary"))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("rows = %d, want rowLimit 2", len(result.Rows))
	}
	if !result.Truncated {
		t.Fatal("expected truncated result")
	}
	assertSQLMock(t, mock)
}

func TestExecuteSurfacesEngineError(t *testing.T) {
	db, mock := newSQLMock(t)
	exec := newTestExecutor(t, db, 10)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT total_sales FROM sales_summary")).
		WillReturnError(errors.New("relation does not exist"))

	_, err := exec.Execute(context.Background(), validCandidate("SELECT total_sales FROM sales_summary"))
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ExecutionError, got %v", err)
	}
	if execErr.Err == nil || execErr.Err.Error() != "relation does not exist" {
		t.Fatalf("engine message should be preserved, got %v", execErr.Err)
	}
	assertSQLMock(t, mock)
}

func TestExecuteNormalizesByteSlices(t *testing.T) {
	db, mock := newSQLMock(t)
	exec := newTestExecutor(t, db, 10)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT item_id, total_sales FROM sales_summary")).
		WillReturnRows(sqlmock.NewRows([]string{"item_id", "total_sales"}).
			AddRow(int64(7), []byte("120.50")))

	result, err := exec.Execute(context.Background(), validCandidate("SELECT item_id, total_sales FROM sales_summary"))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got, ok := result.Rows[0][1].(string); !ok || got != "120.50" {
		t.Fatalf("expected byte slice normalized to string, got %#v", result.Rows[0][1])
	}
	assertSQLMock(t, mock)
}

func TestExecuteRefinesDerivedColumnKind(t *testing.T) {
	db, mock := newSQLMock(t)
	exec := newTestExecutor(t, db, 10)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT SUM(total_sales) AS revenue FROM sales_summary")).
		WillReturnRows(sqlmock.NewRows([]string{"revenue"}).AddRow(1004904.56))

	result, err := exec.Execute(context.Background(), validCandidate("SELECT SUM(total_sales) AS revenue FROM sales_summary"))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Columns[0].Kind != schema.KindNumeric {
		t.Fatalf("revenue kind = %q, want numeric", result.Columns[0].Kind)
	}
	assertSQLMock(t, mock)
}

func TestBrowseWhitelist(t *testing.T) {
	db, mock := newSQLMock(t)
	exec := newTestExecutor(t, db, 10)

	if _, err := exec.Browse(context.Background(), "tenant"); err == nil {
		t.Fatal("expected refusal for non-whitelisted table")
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM sales_summary")).
		WillReturnRows(sqlmock.NewRows([]string{"item_id"}).AddRow(int64(1)))

	result, err := exec.Browse(context.Background(), "sales_summary")
	if err != nil {
		t.Fatalf("Browse() error = %v", err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(result.Rows))
	}
	assertSQLMock(t, mock)
}
