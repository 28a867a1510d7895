package sqlgen

import (
	"fmt"
	"strings"

	"github.com/wuwenbin0122/sqlassist/internal/utils"
)

type dialectRules struct {
	expert string
	limit  string
}

var dialects = map[string]dialectRules{
	utils.DriverSQLServer: {
		expert: "You are a Microsoft SQL Server Expert (T-SQL).",
		limit:  "4. SYNTAX: Use 'SELECT TOP X' instead of 'LIMIT'.",
	},
	utils.DriverPostgres: {
		expert: "You are a PostgreSQL Expert.",
		limit:  "4. SYNTAX: Use 'LIMIT X' to restrict rows; never use 'TOP'.",
	},
	utils.DriverSQLite: {
		expert: "You are a SQLite Expert.",
		limit:  "4. SYNTAX: Use 'LIMIT X' to restrict rows; never use 'TOP'.",
	},
}

// BuildPrompt renders the single-turn instruction sent to the model.
func BuildPrompt(dialect, schema, question string) string {
	rules, ok := dialects[dialect]
	if !ok {
		rules = dialects[utils.DriverSQLServer]
	}

	var builder strings.Builder
	builder.WriteString(rules.expert)
	builder.WriteString("\n")
	builder.WriteString(fmt.Sprintf("Database Schema:\n%s\n\n", strings.TrimSpace(schema)))
	builder.WriteString("STRICT SQL RULES:\n")
	builder.WriteString("1. AMBIGUITY: Always prefix columns with table names (e.g., employees.emp_no).\n")
	builder.WriteString("2. OVERFLOW: Always use CAST(salary AS BIGINT) for SUM/AVG calculations.\n")
	builder.WriteString("3. SECURITY: Only generate SELECT statements. Forbidden: DROP, DELETE, INSERT, UPDATE, TRUNCATE.\n")
	builder.WriteString(rules.limit)
	builder.WriteString("\n")
	builder.WriteString("5. CLEAN OUTPUT: Return ONLY the raw SQL code. No explanation, no markdown blocks.\n\n")
	builder.WriteString(fmt.Sprintf("Question: %s\n", strings.TrimSpace(question)))
	builder.WriteString("SQL Query:")

	return builder.String()
}
