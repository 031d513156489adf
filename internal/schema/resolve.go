package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Rana718/ddlseed/internal/types"
)

// collector accumulates drafts from every statement of a script. Nothing is
// applied until resolve runs, so ALTER TABLE statements may appear before
// or after the tables they touch.
type collector struct {
	tables      []*tableDraft
	constraints []types.Constraint
	indexes     []types.Index
	overrides   []columnOverride
}

func (c *collector) addTable(d *tableDraft) {
	c.tables = append(c.tables, d)
}

func (c *collector) addAlter(d *alterDraft) {
	c.constraints = append(c.constraints, d.constraints...)
	c.indexes = append(c.indexes, d.indexes...)
	c.overrides = append(c.overrides, d.overrides...)
}

func (c *collector) addIndex(idx types.Index) {
	c.indexes = append(c.indexes, idx)
	if idx.Unique {
		c.constraints = append(c.constraints, types.Constraint{
			Type:    types.ConstraintUnique,
			Name:    idx.Name,
			Table:   idx.Table,
			Columns: idx.Columns,
		})
	}
}

type resolver struct {
	tables []*types.Table
	byName map[string]*types.Table
	issues []string
}

func (r *resolver) issuef(format string, args ...interface{}) {
	r.issues = append(r.issues, fmt.Sprintf(format, args...))
}

func (r *resolver) table(name string) *types.Table {
	return r.byName[strings.ToLower(name)]
}

// resolve merges everything collected into a Schema. Problems that do not
// prevent a usable schema (dangling constraints, truncated foreign keys) are
// returned as issues.
func (c *collector) resolve() (*types.Schema, []string) {
	r := &resolver{byName: make(map[string]*types.Table)}

	var constraints []types.Constraint
	var indexes []types.Index

	for _, d := range c.tables {
		if existing := r.table(d.name); existing != nil {
			r.issuef("table %s is declared more than once; columns were merged", d.name)
			for _, col := range d.columns {
				if findColumn(existing, col.Name) == nil {
					existing.Columns = append(existing.Columns, col)
				}
			}
		} else {
			t := &types.Table{Name: d.name, Columns: append([]types.Column(nil), d.columns...)}
			r.tables = append(r.tables, t)
			r.byName[strings.ToLower(d.name)] = t
		}
		constraints = append(constraints, d.constraints...)
		indexes = append(indexes, d.indexes...)
	}
	constraints = append(constraints, c.constraints...)
	indexes = append(indexes, c.indexes...)

	r.applyOverrides(c.overrides)
	r.applyConstraints(constraints)
	r.applyIndexes(indexes)
	r.deriveFlags()

	schema := &types.Schema{
		Tables:        make([]types.Table, 0, len(r.tables)),
		Relationships: []types.Relationship{},
	}
	for _, t := range r.tables {
		if t.Constraints == nil {
			t.Constraints = []types.Constraint{}
		}
		if t.Indexes == nil {
			t.Indexes = []types.Index{}
		}
		schema.Tables = append(schema.Tables, *t)
	}
	schema.Relationships = deriveRelationships(schema.Tables)
	return schema, r.issues
}

func (r *resolver) applyOverrides(overrides []columnOverride) {
	for _, o := range overrides {
		t := r.table(o.table)
		if t == nil {
			r.issuef("alter table %s: table is not declared", o.table)
			continue
		}
		col := findColumn(t, o.name)
		switch {
		case o.column != nil && col == nil:
			t.Columns = append(t.Columns, *o.column)
		case o.column != nil:
			*col = *o.column
		case col == nil:
			r.issuef("alter table %s: column %s is not declared", t.Name, o.name)
		default:
			o.patch(col)
		}
	}
}

func (r *resolver) applyConstraints(constraints []types.Constraint) {
	// Keys first, so foreign keys without a column list can fall back to
	// the referenced table's primary key.
	sort.SliceStable(constraints, func(i, j int) bool {
		return constraints[i].Type != types.ConstraintForeignKey && constraints[j].Type == types.ConstraintForeignKey
	})

	seen := make(map[string]bool)
	for _, con := range constraints {
		t := r.table(con.Table)
		if t == nil {
			r.issuef("%s constraint on undeclared table %s was dropped", con.Type, con.Table)
			continue
		}
		con.Table = t.Name

		cols, ok := canonicalColumns(t, con.Columns)
		if !ok {
			r.issuef("%s constraint on %s(%s) names an unknown column and was dropped",
				con.Type, t.Name, strings.Join(con.Columns, ", "))
			continue
		}
		con.Columns = cols

		if con.Type == types.ConstraintForeignKey && !r.resolveReference(&con) {
			continue
		}

		if con.Type == types.ConstraintPrimaryKey {
			if pk := t.PrimaryKey(); pk != nil && !sameColumns(pk, con.Columns) {
				r.issuef("table %s declares more than one primary key; (%s) was dropped",
					t.Name, strings.Join(con.Columns, ", "))
				continue
			}
		}

		key := con.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		t.Constraints = append(t.Constraints, con)
	}
}

// resolveReference canonicalizes the referenced table and columns of a
// foreign key. Length mismatches are tolerated: pairing stops at the
// shorter list.
func (r *resolver) resolveReference(con *types.Constraint) bool {
	ref := r.table(con.ReferenceTable)
	if ref == nil {
		r.issuef("foreign key %s(%s) references undeclared table %s",
			con.Table, strings.Join(con.Columns, ", "), con.ReferenceTable)
		if len(con.ReferenceColumns) == 0 {
			return false
		}
		return true
	}
	con.ReferenceTable = ref.Name

	if len(con.ReferenceColumns) == 0 {
		con.ReferenceColumns = ref.PrimaryKey()
		if len(con.ReferenceColumns) == 0 {
			r.issuef("foreign key %s(%s) references %s, which has no primary key; dropped",
				con.Table, strings.Join(con.Columns, ", "), ref.Name)
			return false
		}
	} else if cols, ok := canonicalColumns(ref, con.ReferenceColumns); ok {
		con.ReferenceColumns = cols
	}

	if len(con.Columns) != len(con.ReferenceColumns) {
		r.issuef("foreign key %s(%s) -> %s(%s) has mismatched column counts; only the first %d pair(s) are used",
			con.Table, strings.Join(con.Columns, ", "), con.ReferenceTable,
			strings.Join(con.ReferenceColumns, ", "), min(len(con.Columns), len(con.ReferenceColumns)))
	}
	return true
}

func (r *resolver) applyIndexes(indexes []types.Index) {
	seen := make(map[string]bool)
	for _, idx := range indexes {
		t := r.table(idx.Table)
		if t == nil {
			r.issuef("index %s on undeclared table %s was dropped", idx.Name, idx.Table)
			continue
		}
		idx.Table = t.Name
		if cols, ok := canonicalColumns(t, idx.Columns); ok {
			idx.Columns = cols
		}
		key := idx.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		t.Indexes = append(t.Indexes, idx)
	}
}

// deriveFlags replays constraint effects onto the column records.
func (r *resolver) deriveFlags() {
	for _, t := range r.tables {
		for i := range t.Columns {
			t.Columns[i].IsPrimaryKey = false
			t.Columns[i].IsUnique = false
			t.Columns[i].IsForeignKey = false
		}
		for _, con := range t.Constraints {
			switch con.Type {
			case types.ConstraintPrimaryKey:
				for _, name := range con.Columns {
					col := t.Column(name)
					col.IsPrimaryKey = true
					col.Nullable = false
				}
			case types.ConstraintUnique:
				if len(con.Columns) == 1 {
					t.Column(con.Columns[0]).IsUnique = true
				}
			case types.ConstraintForeignKey:
				n := min(len(con.Columns), len(con.ReferenceColumns))
				for _, name := range con.Columns[:n] {
					t.Column(name).IsForeignKey = true
				}
			}
		}
	}
}

// deriveRelationships pairs foreign key columns with referenced columns
// positionally, truncated to the shorter list.
func deriveRelationships(tables []types.Table) []types.Relationship {
	rels := []types.Relationship{}
	for _, t := range tables {
		for _, con := range t.Constraints {
			if con.Type != types.ConstraintForeignKey {
				continue
			}
			n := min(len(con.Columns), len(con.ReferenceColumns))
			for i := 0; i < n; i++ {
				rels = append(rels, types.Relationship{
					FromTable:  con.Table,
					FromColumn: con.Columns[i],
					ToTable:    con.ReferenceTable,
					ToColumn:   con.ReferenceColumns[i],
				})
			}
		}
	}
	return rels
}

func findColumn(t *types.Table, name string) *types.Column {
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return &t.Columns[i]
		}
	}
	return nil
}

// canonicalColumns maps names to their declared spelling.
func canonicalColumns(t *types.Table, names []string) ([]string, bool) {
	if len(names) == 0 {
		return nil, false
	}
	out := make([]string, len(names))
	for i, name := range names {
		col := findColumn(t, name)
		if col == nil {
			return nil, false
		}
		out[i] = col.Name
	}
	return out, true
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}
