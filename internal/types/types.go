package types

import (
	"sort"
	"strings"
)

type ConstraintType string

const (
	ConstraintPrimaryKey ConstraintType = "primary_key"
	ConstraintUnique     ConstraintType = "unique"
	ConstraintForeignKey ConstraintType = "foreign_key"
)

// Schema is the normalized result of parsing a DDL script.
type Schema struct {
	Tables        []Table        `json:"tables" yaml:"tables"`
	Relationships []Relationship `json:"relationships" yaml:"relationships"`
	Enums         []Enum         `json:"enums,omitempty" yaml:"enums,omitempty"`
	Error         string         `json:"error,omitempty" yaml:"error,omitempty"`
}

type Table struct {
	Name        string       `json:"name" yaml:"name"`
	Columns     []Column     `json:"columns" yaml:"columns"`
	Constraints []Constraint `json:"constraints" yaml:"constraints"`
	Indexes     []Index      `json:"indexes" yaml:"indexes"`
}

type Column struct {
	Name          string  `json:"name" yaml:"name"`
	DataType      string  `json:"dataType" yaml:"dataType"`
	Nullable      bool    `json:"nullable" yaml:"nullable"`
	DefaultValue  *string `json:"defaultValue" yaml:"defaultValue"`
	AutoIncrement bool    `json:"autoIncrement" yaml:"autoIncrement"`
	IsPrimaryKey  bool    `json:"isPrimaryKey" yaml:"isPrimaryKey"`
	IsForeignKey  bool    `json:"isForeignKey" yaml:"isForeignKey"`
	IsUnique      bool    `json:"isUnique" yaml:"isUnique"`
}

type Constraint struct {
	Type             ConstraintType `json:"type" yaml:"type"`
	Name             string         `json:"name,omitempty" yaml:"name,omitempty"`
	Table            string         `json:"table" yaml:"table"`
	Columns          []string       `json:"columns" yaml:"columns"`
	ReferenceTable   string         `json:"referenceTable,omitempty" yaml:"referenceTable,omitempty"`
	ReferenceColumns []string       `json:"referenceColumns,omitempty" yaml:"referenceColumns,omitempty"`
}

// Key identifies a constraint for de-duplication. The constraint name is not
// part of the key.
func (c Constraint) Key() string {
	parts := []string{
		string(c.Type),
		strings.ToLower(c.Table),
		strings.ToLower(strings.Join(c.Columns, ",")),
		strings.ToLower(c.ReferenceTable),
		strings.ToLower(strings.Join(c.ReferenceColumns, ",")),
	}
	return strings.Join(parts, "|")
}

// IsUniqueKind reports whether rows must be distinct over the constraint columns.
func (c Constraint) IsUniqueKind() bool {
	return c.Type == ConstraintPrimaryKey || c.Type == ConstraintUnique
}

// Index is informational only; generation never reads it.
type Index struct {
	Table   string   `json:"table" yaml:"table"`
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"`
	Columns []string `json:"columns" yaml:"columns"`
	Unique  bool     `json:"unique" yaml:"unique"`
}

func (i Index) Key() string {
	return strings.Join([]string{
		strings.ToLower(i.Table),
		strings.ToLower(strings.Join(i.Columns, ",")),
		strings.ToLower(i.Name),
	}, "|")
}

type Relationship struct {
	FromTable  string `json:"from_table" yaml:"from_table"`
	FromColumn string `json:"from_column" yaml:"from_column"`
	ToTable    string `json:"to_table" yaml:"to_table"`
	ToColumn   string `json:"to_column" yaml:"to_column"`
}

// Enum is a named enumerated type declared with CREATE TYPE ... AS ENUM.
type Enum struct {
	Name   string   `json:"name" yaml:"name"`
	Values []string `json:"values" yaml:"values"`
}

// SQLExpr is a value that must be written to SQL output unquoted, such as a
// column default of CURRENT_TIMESTAMP.
type SQLExpr string

// Table returns the table with the given name, or nil.
func (s *Schema) Table(name string) *Table {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}

// Enum returns the labels of the named enum type, matched case-insensitively.
func (s *Schema) Enum(name string) ([]string, bool) {
	for _, e := range s.Enums {
		if strings.EqualFold(e.Name, name) {
			return e.Values, true
		}
	}
	return nil, false
}

func (s *Schema) TableNames() []string {
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = t.Name
	}
	return names
}

// RelationshipFor returns the relationship leaving table.column, if any.
func (s *Schema) RelationshipFor(table, column string) (Relationship, bool) {
	for _, rel := range s.Relationships {
		if rel.FromTable == table && rel.FromColumn == column {
			return rel, true
		}
	}
	return Relationship{}, false
}

func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// PrimaryKey returns the columns of the table's primary key constraint.
func (t *Table) PrimaryKey() []string {
	for _, c := range t.Constraints {
		if c.Type == ConstraintPrimaryKey {
			return c.Columns
		}
	}
	return nil
}

// UniqueConstraints returns every primary key and unique constraint.
func (t *Table) UniqueConstraints() []Constraint {
	var out []Constraint
	for _, c := range t.Constraints {
		if c.IsUniqueKind() {
			out = append(out, c)
		}
	}
	return out
}

type Format string

const (
	FormatSQL Format = "sql"
	FormatCSV Format = "csv"
)

// Extension is the output file extension for the format, including the dot.
func (f Format) Extension() string {
	if f == FormatCSV {
		return ".zip"
	}
	return ".sql"
}

// GenerationConfig is supplied once per generation request.
type GenerationConfig struct {
	Format Format                 `json:"format" yaml:"format" mapstructure:"format"`
	Seed   *int64                 `json:"seed,omitempty" yaml:"seed,omitempty" mapstructure:"seed"`
	Tables map[string]TableConfig `json:"tables" yaml:"tables" mapstructure:"tables"`
}

type TableConfig struct {
	RowCount uint                    `json:"rowCount" yaml:"rowCount" mapstructure:"rowCount"`
	Columns  map[string]ColumnConfig `json:"columns" yaml:"columns" mapstructure:"columns"`
}

type ColumnConfig struct {
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty" mapstructure:"provider"`
}

// RowCount returns the configured row count for a table. Tables without a
// configuration entry generate no rows.
func (g *GenerationConfig) RowCount(table string) (uint, bool) {
	tc, ok := g.Tables[table]
	if !ok {
		return 0, false
	}
	return tc.RowCount, true
}

func (g *GenerationConfig) Provider(table, column string) string {
	return g.Tables[table].Columns[column].Provider
}

// ConfiguredTables returns the configured table names in sorted order.
func (g *GenerationConfig) ConfiguredTables() []string {
	names := make([]string, 0, len(g.Tables))
	for name := range g.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
