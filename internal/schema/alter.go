package schema

import (
	"fmt"

	"github.com/Rana718/ddlseed/internal/types"
)

// alterDraft holds what one ALTER TABLE statement adds to the schema.
type alterDraft struct {
	table       string
	constraints []types.Constraint
	indexes     []types.Index
	overrides   []columnOverride
}

// parseAlterTable parses ALTER TABLE statements. Supported clauses add
// foreign, primary, unique and plain keys, and add or modify columns.
// Other clauses (DROP, RENAME, OWNER TO, ...) are ignored. It returns
// nil, nil for statements of any other kind.
func parseAlterTable(stmt string, toks []token, lenient bool) (*alterDraft, error) {
	p := newParser(stmt, toks, lenient)
	if !p.acceptWords("ALTER", "TABLE") {
		return nil, nil
	}
	p.acceptWords("IF", "EXISTS")
	p.acceptWords("ONLY")

	name, err := p.qualifiedName()
	if err != nil {
		return nil, err
	}
	draft := &alterDraft{table: name}

	for _, clause := range splitTopLevel(toks[p.pos:]) {
		if len(clause) == 0 {
			continue
		}
		cp := newParser(stmt, clause, lenient)
		if err := cp.parseAlterClause(draft); err != nil {
			if lenient {
				continue
			}
			return nil, fmt.Errorf("alter table %s: %w", name, err)
		}
	}
	return draft, nil
}

func (p *parser) parseAlterClause(draft *alterDraft) error {
	switch {
	case p.acceptWords("ADD"):
		if p.acceptWords("COLUMN") {
			p.acceptWords("IF", "NOT", "EXISTS")
			return p.alterColumn(draft)
		}
		constraints, indexes, isConstraint, err := p.parseTableConstraint(draft.table)
		if err != nil {
			return err
		}
		if !isConstraint {
			return p.alterColumn(draft)
		}
		draft.constraints = append(draft.constraints, constraints...)
		draft.indexes = append(draft.indexes, indexes...)
		return p.finish()

	case p.acceptWords("MODIFY"):
		p.acceptWords("COLUMN")
		return p.alterColumn(draft)

	case p.acceptWords("CHANGE"):
		p.acceptWords("COLUMN")
		oldName, err := p.ident()
		if err != nil {
			return err
		}
		col, inline, err := p.parseColumnDefinition(draft.table)
		if err != nil {
			return err
		}
		draft.overrides = append(draft.overrides, columnOverride{table: draft.table, name: oldName, column: &col})
		draft.constraints = append(draft.constraints, inline...)
		return nil

	case p.acceptWords("ALTER"):
		p.acceptWords("COLUMN")
		name, err := p.ident()
		if err != nil {
			return err
		}
		return p.alterColumnAttribute(draft, name)
	}
	return nil
}

// alterColumnAttribute handles ALTER COLUMN c SET DEFAULT / DROP DEFAULT /
// SET NOT NULL / DROP NOT NULL, the form pg_dump uses to attach sequences.
func (p *parser) alterColumnAttribute(draft *alterDraft, name string) error {
	var patch func(*types.Column)
	switch {
	case p.acceptWords("SET", "DEFAULT"):
		expr, nextval, err := p.parseDefault()
		if err != nil {
			return err
		}
		patch = func(c *types.Column) {
			if nextval {
				c.AutoIncrement = true
				c.DefaultValue = nil
				return
			}
			c.DefaultValue = &expr
		}
	case p.acceptWords("DROP", "DEFAULT"):
		patch = func(c *types.Column) { c.DefaultValue = nil }
	case p.acceptWords("SET", "NOT", "NULL"):
		patch = func(c *types.Column) { c.Nullable = false }
	case p.acceptWords("DROP", "NOT", "NULL"):
		patch = func(c *types.Column) { c.Nullable = true }
	case p.acceptWords("ADD", "GENERATED"):
		col := types.Column{Nullable: true}
		if err := p.parseGenerated(&col); err != nil {
			return err
		}
		patch = func(c *types.Column) {
			if col.AutoIncrement {
				c.AutoIncrement = true
				c.Nullable = false
			}
		}
	default:
		return nil
	}
	draft.overrides = append(draft.overrides, columnOverride{table: draft.table, name: name, patch: patch})
	return p.finish()
}

func (p *parser) alterColumn(draft *alterDraft) error {
	col, inline, err := p.parseColumnDefinition(draft.table)
	if err != nil {
		return err
	}
	draft.overrides = append(draft.overrides, columnOverride{table: draft.table, name: col.Name, column: &col})
	draft.constraints = append(draft.constraints, inline...)
	return nil
}

// parseCreateIndex parses CREATE [UNIQUE] INDEX name ON table (cols). It
// returns nil, nil for statements of any other kind.
func parseCreateIndex(stmt string, toks []token, lenient bool) (*types.Index, error) {
	p := newParser(stmt, toks, lenient)
	if !p.acceptWords("CREATE") {
		return nil, nil
	}
	unique := p.acceptWords("UNIQUE")
	for p.acceptWords("FULLTEXT") || p.acceptWords("SPATIAL") || p.acceptWords("CLUSTERED") || p.acceptWords("NONCLUSTERED") {
	}
	if !p.acceptWords("INDEX") {
		return nil, nil
	}
	p.acceptWords("CONCURRENTLY")
	p.acceptWords("IF", "NOT", "EXISTS")

	var name string
	if !p.isWord("ON") {
		n, err := p.qualifiedName()
		if err != nil {
			return nil, err
		}
		name = n
	}
	if err := p.expectWords("ON"); err != nil {
		return nil, err
	}
	p.acceptWords("ONLY")
	table, err := p.qualifiedName()
	if err != nil {
		return nil, err
	}
	if p.acceptWords("USING") {
		p.next()
	}
	cols, err := p.columnList()
	if err != nil {
		return nil, err
	}
	return &types.Index{Table: table, Name: name, Columns: cols, Unique: unique}, nil
}
