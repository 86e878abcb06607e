package schema

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
)

// ColumnKind is the semantic classification used by the shaper and the
// prompt composer.
type ColumnKind string

const (
	KindNumeric     ColumnKind = "numeric"
	KindCategorical ColumnKind = "categorical"
	KindTemporal    ColumnKind = "temporal"
	KindText        ColumnKind = "text"
)

type Column struct {
	Name       string
	NativeType string
	Kind       ColumnKind
}

type Table struct {
	Name    string
	Columns []Column
}

// Catalog is the warehouse schema metadata, queried once at startup and
// immutable afterwards.
type Catalog struct {
	tables  []Table
	idents  map[string]struct{}
	summary string
}

const columnsQuery = `
SELECT table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema = $1
ORDER BY table_name, ordinal_position`

// Load introspects the warehouse schema. schemaName is "public" for postgres
// and "main" for duckdb.
func Load(ctx context.Context, db *sql.DB, schemaName string) (*Catalog, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	if strings.TrimSpace(schemaName) == "" {
		return nil, fmt.Errorf("schema name is required")
	}

	rows, err := db.QueryContext(ctx, columnsQuery, schemaName)
	if err != nil {
		return nil, fmt.Errorf("query information_schema: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []Table
	for rows.Next() {
		var tableName, columnName, dataType string
		if err := rows.Scan(&tableName, &columnName, &dataType); err != nil {
			return nil, fmt.Errorf("scan schema row: %w", err)
		}
		column := Column{
			Name:       columnName,
			NativeType: dataType,
			Kind:       InferKind(dataType, columnName),
		}
		if len(tables) == 0 || tables[len(tables)-1].Name != tableName {
			tables = append(tables, Table{Name: tableName})
		}
		last := &tables[len(tables)-1]
		last.Columns = append(last.Columns, column)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schema rows: %w", err)
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("schema %q has no tables", schemaName)
	}

	return New(tables), nil
}

// New builds a catalog from already-known tables. Used by Load and by tests.
func New(tables []Table) *Catalog {
	idents := make(map[string]struct{})
	var summary strings.Builder
	for _, table := range tables {
		idents[strings.ToLower(table.Name)] = struct{}{}
		summary.WriteString("Table: ")
		summary.WriteString(table.Name)
		summary.WriteString("\n")
		for _, column := range table.Columns {
			idents[strings.ToLower(column.Name)] = struct{}{}
			summary.WriteString("  - ")
			summary.WriteString(column.Name)
			summary.WriteString(" (")
			summary.WriteString(column.NativeType)
			summary.WriteString(", ")
			summary.WriteString(string(column.Kind))
			summary.WriteString(")\n")
		}
	}
	return &Catalog{tables: tables, idents: idents, summary: summary.String()}
}

func (c *Catalog) Tables() []Table {
	return c.tables
}

func (c *Catalog) HasTable(name string) bool {
	lowered := strings.ToLower(name)
	for _, table := range c.tables {
		if strings.ToLower(table.Name) == lowered {
			return true
		}
	}
	return false
}

// KnownIdentifier reports whether name is a known table or column name.
func (c *Catalog) KnownIdentifier(name string) bool {
	_, ok := c.idents[strings.ToLower(name)]
	return ok
}

// Summary renders the schema as the plain-text block embedded in prompts.
func (c *Catalog) Summary() string {
	return c.summary
}

var idPattern = regexp.MustCompile(`(?i)(^|_)id$`)

// InferKind maps a native database type plus the column name onto the
// semantic kind. Numeric columns named like identifiers are categorical.
func InferKind(nativeType, columnName string) ColumnKind {
	lowered := strings.ToLower(nativeType)
	switch {
	case strings.Contains(lowered, "int"),
		strings.Contains(lowered, "numeric"),
		strings.Contains(lowered, "decimal"),
		strings.Contains(lowered, "real"),
		strings.Contains(lowered, "double"),
		strings.Contains(lowered, "float"):
		if idPattern.MatchString(columnName) {
			return KindCategorical
		}
		return KindNumeric
	case strings.Contains(lowered, "date"),
		strings.Contains(lowered, "time"):
		return KindTemporal
	case strings.Contains(lowered, "bool"):
		return KindCategorical
	default:
		return KindText
	}
}
