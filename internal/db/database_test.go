package db_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wuwenbin0122/sqlassist/internal/db"
	"github.com/wuwenbin0122/sqlassist/internal/utils"
)

func openSQLite(t *testing.T, mutate func(*utils.DatabaseConfig)) *db.Database {
	t.Helper()

	cfg := utils.DatabaseConfig{
		Driver:         utils.DriverSQLite,
		DSN:            fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns:   1,
		ConnectTimeout: time.Second,
		QueryTimeout:   5 * time.Second,
		MaxRows:        100,
		SampleRows:     2,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	store, err := db.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	statements := []string{
		"CREATE TABLE employees (emp_no INTEGER PRIMARY KEY, first_name TEXT NOT NULL, hire_date TEXT)",
		"CREATE TABLE salaries (emp_no INTEGER NOT NULL, salary INTEGER NOT NULL)",
		"INSERT INTO employees (emp_no, first_name, hire_date) VALUES (10001, 'Georgi', '1986-06-26'), (10002, 'Bezalel', NULL), (10003, 'Parto', '1986-08-28')",
		"INSERT INTO salaries (emp_no, salary) VALUES (10001, 60117), (10002, 65828), (10003, 40006)",
	}
	for _, stmt := range statements {
		if _, err := store.DB.Exec(stmt); err != nil {
			t.Fatalf("failed to seed sqlite: %v", err)
		}
	}

	return store
}

func TestRunReturnsColumnsAndRows(t *testing.T) {
	store := openSQLite(t, nil)

	table, err := store.Run(context.Background(), "SELECT employees.emp_no, employees.first_name FROM employees ORDER BY employees.emp_no")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if strings.Join(table.Columns, ",") != "emp_no,first_name" {
		t.Fatalf("unexpected columns %v", table.Columns)
	}
	if table.RowCount() != 3 {
		t.Fatalf("expected 3 rows, got %d", table.RowCount())
	}
	if table.Rows[0][1] != "Georgi" {
		t.Fatalf("expected first name Georgi, got %v", table.Rows[0][1])
	}
	if table.Truncated {
		t.Fatalf("did not expect truncation")
	}
}

func TestRunTruncatesAtMaxRows(t *testing.T) {
	store := openSQLite(t, func(cfg *utils.DatabaseConfig) { cfg.MaxRows = 2 })

	table, err := store.Run(context.Background(), "SELECT emp_no FROM employees")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if table.RowCount() != 2 || !table.Truncated {
		t.Fatalf("expected 2 truncated rows, got %d truncated=%v", table.RowCount(), table.Truncated)
	}
}

func TestRunEmptyResult(t *testing.T) {
	store := openSQLite(t, nil)

	table, err := store.Run(context.Background(), "SELECT emp_no FROM employees WHERE emp_no < 0")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if table.RowCount() != 0 {
		t.Fatalf("expected no rows, got %d", table.RowCount())
	}
}

func TestRunRejectsBlankQuery(t *testing.T) {
	store := openSQLite(t, nil)

	if _, err := store.Run(context.Background(), "   "); err != db.ErrEmptyQuery {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestRunSurfacesDriverErrors(t *testing.T) {
	store := openSQLite(t, nil)

	if _, err := store.Run(context.Background(), "SELECT missing_column FROM employees"); err == nil {
		t.Fatalf("expected error for unknown column")
	}
}

func TestTableInfoDescribesTablesWithSamples(t *testing.T) {
	store := openSQLite(t, nil)

	info, err := store.TableInfo(context.Background())
	if err != nil {
		t.Fatalf("table info failed: %v", err)
	}

	for _, want := range []string{
		"CREATE TABLE employees (",
		"\temp_no INTEGER NOT NULL,",
		"\tfirst_name TEXT NOT NULL,",
		"\thire_date TEXT\n)",
		"CREATE TABLE salaries (",
		"2 rows from employees table:",
		"emp_no\tfirst_name\thire_date",
		"10002\tBezalel\tNULL",
	} {
		if !strings.Contains(info, want) {
			t.Fatalf("expected schema text to contain %q, got:\n%s", want, info)
		}
	}
	if strings.Contains(info, "Parto") {
		t.Fatalf("expected only two sample rows, got:\n%s", info)
	}
}

func TestTableInfoIsCachedUntilRefresh(t *testing.T) {
	store := openSQLite(t, nil)
	ctx := context.Background()

	if _, err := store.TableInfo(ctx); err != nil {
		t.Fatalf("table info failed: %v", err)
	}

	if _, err := store.DB.Exec("CREATE TABLE titles (emp_no INTEGER, title TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}

	cached, _ := store.TableInfo(ctx)
	if strings.Contains(cached, "titles") {
		t.Fatalf("expected cached schema without new table")
	}

	store.Refresh()
	fresh, err := store.TableInfo(ctx)
	if err != nil {
		t.Fatalf("table info failed: %v", err)
	}
	if !strings.Contains(fresh, "CREATE TABLE titles (") {
		t.Fatalf("expected refreshed schema to include titles, got:\n%s", fresh)
	}
}

func TestTableInfoHonoursIncludeList(t *testing.T) {
	store := openSQLite(t, func(cfg *utils.DatabaseConfig) {
		cfg.IncludeTables = []string{"SALARIES"}
		cfg.SampleRows = 0
	})

	info, err := store.TableInfo(context.Background())
	if err != nil {
		t.Fatalf("table info failed: %v", err)
	}

	if strings.Contains(info, "employees") {
		t.Fatalf("expected employees to be filtered out, got:\n%s", info)
	}
	if !strings.Contains(info, "CREATE TABLE salaries (") || strings.Contains(info, "/*") {
		t.Fatalf("expected salaries without samples, got:\n%s", info)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := db.Open(context.Background(), utils.DatabaseConfig{Driver: "oracle", DSN: "x"})
	if err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
