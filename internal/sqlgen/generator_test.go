package sqlgen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/wuwenbin0122/sqlassist/internal/utils"
)

type stubSchema struct {
	text    string
	dialect string
	err     error
}

func (s stubSchema) TableInfo(ctx context.Context) (string, error) { return s.text, s.err }
func (s stubSchema) Dialect() string { return s.dialect }

type stubCompleter struct {
	prompt string
	reply  string
	err    error
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.reply, s.err
}

const employeeSchema = "CREATE TABLE employees (\n\temp_no INT NOT NULL\n)"

func TestGenerateReturnsCleanedQuery(t *testing.T) {
	llm := &stubCompleter{reply: "```sql\nSELECT TOP 5 employees.emp_no FROM employees;\n```"}
	gen := NewGenerator(stubSchema{text: employeeSchema, dialect: utils.DriverSQLServer}, llm, nil)

	sql, err := gen.Generate(context.Background(), "  five employees ")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if sql != "SELECT TOP 5 employees.emp_no FROM employees" {
		t.Fatalf("unexpected sql %q", sql)
	}

	for _, want := range []string{
		"You are a Microsoft SQL Server Expert (T-SQL).",
		"Database Schema:\n" + employeeSchema,
		"Use 'SELECT TOP X' instead of 'LIMIT'",
		"Question: five employees\nSQL Query:",
	} {
		if !strings.Contains(llm.prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, llm.prompt)
		}
	}
}

func TestGenerateRejectsUnsafeOutput(t *testing.T) {
	llm := &stubCompleter{reply: "UPDATE employees SET salary = 0"}
	gen := NewGenerator(stubSchema{text: employeeSchema, dialect: utils.DriverSQLServer}, llm, nil)

	_, err := gen.Generate(context.Background(), "give everyone a raise")
	if !IsSecurityError(err) {
		t.Fatalf("expected security error, got %v", err)
	}
}

func TestGeneratePropagatesFailures(t *testing.T) {
	gen := NewGenerator(stubSchema{dialect: utils.DriverSQLServer}, &stubCompleter{}, nil)
	if _, err := gen.Generate(context.Background(), "   "); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("expected ErrEmptyQuestion, got %v", err)
	}

	schemaErr := errors.New("login failed")
	gen = NewGenerator(stubSchema{err: schemaErr}, &stubCompleter{}, nil)
	if _, err := gen.Generate(context.Background(), "q"); !errors.Is(err, schemaErr) {
		t.Fatalf("expected schema error, got %v", err)
	}

	llmErr := errors.New("503 from provider")
	gen = NewGenerator(stubSchema{dialect: utils.DriverSQLServer}, &stubCompleter{err: llmErr}, nil)
	if _, err := gen.Generate(context.Background(), "q"); !errors.Is(err, llmErr) {
		t.Fatalf("expected llm error, got %v", err)
	}
}

func TestBuildPromptDialects(t *testing.T) {
	pg := BuildPrompt(utils.DriverPostgres, "schema", "q")
	if !strings.HasPrefix(pg, "You are a PostgreSQL Expert.") || !strings.Contains(pg, "Use 'LIMIT X'") {
		t.Fatalf("unexpected postgres prompt:\n%s", pg)
	}

	unknown := BuildPrompt("oracle", "schema", "q")
	if !strings.HasPrefix(unknown, "You are a Microsoft SQL Server Expert (T-SQL).") {
		t.Fatalf("expected T-SQL fallback:\n%s", unknown)
	}
}
