// Package ddl defines a small, backend-agnostic model for the warehouse
// tables and a renderer that turns it into CREATE TABLE statements.
//
// Columns carry logical kinds ("int", "text", "numeric", "bool") rather than
// concrete SQL types; each storage backend supplies a Dialect that maps the
// kinds to its own types and quotes identifiers its own way.
package ddl

import (
	"fmt"
	"strings"
)

// ColumnDef describes a single column in a table definition.
type ColumnDef struct {
	// Name is the logical column name (unquoted; quoting happens at render time).
	Name string

	// Kind is the logical type: "int", "text", "numeric", or "bool".
	Kind string

	// Nullable controls whether NULL is allowed.
	Nullable bool

	// PrimaryKey marks the column as part of the primary key.
	PrimaryKey bool
}

// ForeignKey declares a single-column reference to another table.
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

// TableDef holds a table name, its ordered columns, foreign keys, and
// natural-key unique constraints.
type TableDef struct {
	Name        string
	Columns     []ColumnDef
	ForeignKeys []ForeignKey

	// Uniques lists column groups that must be unique (the dimension natural
	// keys). Rendered as UNIQUE table constraints.
	Uniques [][]string
}

// ColumnNames returns the ordered column names.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Dialect adapts rendering to one SQL backend.
type Dialect struct {
	// MapType maps a logical kind to a concrete SQL type.
	MapType func(kind string) string

	// QuoteIdent quotes a single identifier.
	QuoteIdent func(ident string) string
}

// BuildCreateTableSQL renders a CREATE TABLE statement of the form:
//
//	CREATE TABLE "t" (
//	  "c1" TYPE [NOT NULL],
//	  ...,
//	  PRIMARY KEY ("pk"),
//	  UNIQUE ("nk1", "nk2"),
//	  FOREIGN KEY ("fk") REFERENCES "other" ("col")
//	);
func BuildCreateTableSQL(d Dialect, t TableDef) (string, error) {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return "", fmt.Errorf("ddl: table name must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, len(t.Columns))

	for _, c := range t.Columns {
		cn := strings.TrimSpace(c.Name)
		if cn == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", name)
		}
		typ := d.MapType(c.Kind)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s has unmapped kind %q", cn, c.Kind)
		}

		var sb strings.Builder
		sb.WriteString(d.QuoteIdent(cn))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, d.QuoteIdent(cn))
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}
	for _, u := range t.Uniques {
		quoted := make([]string, len(u))
		for i, c := range u {
			quoted[i] = d.QuoteIdent(c)
		}
		cols = append(cols, fmt.Sprintf("UNIQUE (%s)", strings.Join(quoted, ", ")))
	}
	for _, fk := range t.ForeignKeys {
		cols = append(cols, fmt.Sprintf(
			"FOREIGN KEY (%s) REFERENCES %s (%s)",
			d.QuoteIdent(fk.Column), d.QuoteIdent(fk.RefTable), d.QuoteIdent(fk.RefColumn),
		))
	}

	stmt := fmt.Sprintf(
		"CREATE TABLE %s (\n  %s\n);",
		d.QuoteIdent(name),
		strings.Join(cols, ",\n  "),
	)
	return stmt, nil
}

// BuildInsertSQL renders a single-row INSERT statement with one placeholder
// per column. placeholder receives the 1-based parameter ordinal.
func BuildInsertSQL(d Dialect, t TableDef, placeholder func(i int) string) string {
	cols := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = d.QuoteIdent(c.Name)
		marks[i] = placeholder(i + 1)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdent(t.Name),
		strings.Join(cols, ", "),
		strings.Join(marks, ", "),
	)
}

// QuoteDouble implements standard SQL double-quote identifier quoting, used
// by the SQLite and Postgres dialects.
func QuoteDouble(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
