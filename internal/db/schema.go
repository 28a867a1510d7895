package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/wuwenbin0122/sqlassist/internal/utils"
)

type tableRef struct {
	Schema string `db:"table_schema"`
	Name   string `db:"table_name"`
}

type columnInfo struct {
	Name     string `db:"column_name"`
	DataType string `db:"data_type"`
	Nullable string `db:"is_nullable"`
}

// TableInfo returns the schema description handed to the model: one CREATE
// TABLE block per table followed by a few sample rows. The text is cached
// until Refresh is called.
func (d *Database) TableInfo(ctx context.Context) (string, error) {
	d.schemaMu.Lock()
	defer d.schemaMu.Unlock()

	if d.schema != "" {
		return d.schema, nil
	}

	tables, err := d.listTables(ctx)
	if err != nil {
		return "", err
	}

	blocks := make([]string, 0, len(tables))
	for _, table := range tables {
		block, err := d.describeTable(ctx, table)
		if err != nil {
			return "", err
		}
		blocks = append(blocks, block)
	}

	d.schema = strings.Join(blocks, "\n\n")
	return d.schema, nil
}

// Refresh drops the cached schema text.
func (d *Database) Refresh() {
	d.schemaMu.Lock()
	d.schema = ""
	d.schemaMu.Unlock()
}

func (d *Database) listTables(ctx context.Context) ([]tableRef, error) {
	var query string
	switch d.dialect {
	case utils.DriverSQLite:
		query = `SELECT '' AS table_schema, name AS table_name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	case utils.DriverPostgres:
		query = `SELECT table_schema, table_name FROM information_schema.tables WHERE table_type = 'BASE TABLE' AND table_schema NOT IN ('pg_catalog', 'information_schema') ORDER BY table_schema, table_name`
	default:
		query = `SELECT TABLE_SCHEMA AS table_schema, TABLE_NAME AS table_name FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_SCHEMA, TABLE_NAME`
	}

	var tables []tableRef
	if err := d.DB.SelectContext(ctx, &tables, query); err != nil {
		return nil, fmt.Errorf("db: list tables: %w", err)
	}

	if len(d.includeTables) == 0 {
		return tables, nil
	}

	filtered := make([]tableRef, 0, len(tables))
	for _, table := range tables {
		if d.included(table) {
			filtered = append(filtered, table)
		}
	}
	return filtered, nil
}

func (d *Database) included(table tableRef) bool {
	qualified := table.Name
	if table.Schema != "" {
		qualified = table.Schema + "." + table.Name
	}
	for _, name := range d.includeTables {
		if strings.EqualFold(name, table.Name) || strings.EqualFold(name, qualified) {
			return true
		}
	}
	return false
}

func (d *Database) describeTable(ctx context.Context, table tableRef) (string, error) {
	columns, err := d.listColumns(ctx, table)
	if err != nil {
		return "", err
	}

	displayName := d.displayName(table)

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("CREATE TABLE %s (\n", displayName))
	for i, column := range columns {
		builder.WriteString("\t")
		builder.WriteString(column.Name)
		builder.WriteString(" ")
		builder.WriteString(strings.ToUpper(column.DataType))
		if strings.EqualFold(column.Nullable, "NO") {
			builder.WriteString(" NOT NULL")
		}
		if i < len(columns)-1 {
			builder.WriteString(",")
		}
		builder.WriteString("\n")
	}
	builder.WriteString(")")

	if d.sampleRows <= 0 {
		return builder.String(), nil
	}

	sample, err := d.Run(ctx, d.sampleQuery(table))
	if err != nil {
		return "", fmt.Errorf("db: sample rows of %s: %w", displayName, err)
	}

	builder.WriteString(fmt.Sprintf("\n\n/*\n%d rows from %s table:\n", d.sampleRows, displayName))
	builder.WriteString(strings.Join(sample.Columns, "\t"))
	for _, row := range sample.Rows {
		cells := make([]string, len(row))
		for i, value := range row {
			cells[i] = formatCell(value)
		}
		builder.WriteString("\n")
		builder.WriteString(strings.Join(cells, "\t"))
	}
	builder.WriteString("\n*/")

	return builder.String(), nil
}

func (d *Database) listColumns(ctx context.Context, table tableRef) ([]columnInfo, error) {
	if d.dialect == utils.DriverSQLite {
		return d.sqliteColumns(ctx, table)
	}

	query := d.DB.Rebind(`SELECT COLUMN_NAME AS column_name, DATA_TYPE AS data_type, IS_NULLABLE AS is_nullable FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION`)

	var columns []columnInfo
	if err := d.DB.SelectContext(ctx, &columns, query, table.Schema, table.Name); err != nil {
		return nil, fmt.Errorf("db: list columns of %s: %w", table.Name, err)
	}
	return columns, nil
}

func (d *Database) sqliteColumns(ctx context.Context, table tableRef) ([]columnInfo, error) {
	rows, err := d.DB.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(d.dialect, table.Name)))
	if err != nil {
		return nil, fmt.Errorf("db: list columns of %s: %w", table.Name, err)
	}
	defer rows.Close()

	var columns []columnInfo
	for rows.Next() {
		var (
			cid        int
			name       string
			dataType   string
			notNull    int
			defaultVal sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultVal, &primaryKey); err != nil {
			return nil, fmt.Errorf("db: scan column of %s: %w", table.Name, err)
		}

		nullable := "YES"
		if notNull == 1 || primaryKey > 0 {
			nullable = "NO"
		}
		columns = append(columns, columnInfo{Name: name, DataType: dataType, Nullable: nullable})
	}

	return columns, rows.Err()
}

func (d *Database) sampleQuery(table tableRef) string {
	name := quoteIdent(d.dialect, table.Name)
	if table.Schema != "" {
		name = quoteIdent(d.dialect, table.Schema) + "." + name
	}

	if d.dialect == utils.DriverSQLServer {
		return fmt.Sprintf("SELECT TOP (%d) * FROM %s", d.sampleRows, name)
	}
	return fmt.Sprintf("SELECT * FROM %s LIMIT %d", name, d.sampleRows)
}

// displayName omits the default schema so prompts read like the model expects.
func (d *Database) displayName(table tableRef) string {
	switch strings.ToLower(table.Schema) {
	case "", "dbo", "public":
		return table.Name
	}
	return table.Schema + "." + table.Name
}

func quoteIdent(dialect, ident string) string {
	if dialect == utils.DriverSQLServer {
		return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func formatCell(value any) string {
	if value == nil {
		return "NULL"
	}
	return fmt.Sprint(value)
}
