package schema

import (
	"fmt"
	"strings"

	"github.com/Rana718/ddlseed/internal/types"
)

// tableDraft collects what a single CREATE TABLE statement declares before
// the merge phase resolves it against the rest of the script.
type tableDraft struct {
	name        string
	columns     []types.Column
	constraints []types.Constraint
	indexes     []types.Index
}

// columnOverride is a column change coming from ALTER TABLE: either a full
// (re)definition of the column called name, or a patch to its attributes.
type columnOverride struct {
	table  string
	name   string
	column *types.Column
	patch  func(*types.Column)
}

type parser struct {
	src     string
	toks    []token
	pos     int
	lenient bool
}

func newParser(src string, toks []token, lenient bool) *parser {
	return &parser{src: src, toks: toks, lenient: lenient}
}

func (p *parser) atEnd() bool {
	return p.pos >= len(p.toks)
}

func (p *parser) peek() token {
	if p.atEnd() {
		return token{kind: tokPunct, pos: len(p.src), end: len(p.src)}
	}
	return p.toks[p.pos]
}

func (p *parser) peekAt(offset int) token {
	if p.pos+offset >= len(p.toks) {
		return token{kind: tokPunct, pos: len(p.src), end: len(p.src)}
	}
	return p.toks[p.pos+offset]
}

func (p *parser) next() token {
	t := p.peek()
	if !p.atEnd() {
		p.pos++
	}
	return t
}

func (p *parser) isWord(keywords ...string) bool {
	for i, kw := range keywords {
		if p.peekAt(i).upper() != kw {
			return false
		}
	}
	return true
}

// acceptWords consumes the keyword sequence if it is next.
func (p *parser) acceptWords(keywords ...string) bool {
	if !p.isWord(keywords...) {
		return false
	}
	p.pos += len(keywords)
	return true
}

func (p *parser) expectWords(keywords ...string) error {
	if !p.acceptWords(keywords...) {
		return p.errorf("expected %s", strings.Join(keywords, " "))
	}
	return nil
}

func (p *parser) isPunct(s string) bool {
	t := p.peek()
	return t.kind == tokPunct && t.text == s && !p.atEnd()
}

func (p *parser) acceptPunct(s string) bool {
	if p.isPunct(s) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expectPunct(s string) error {
	if !p.acceptPunct(s) {
		return p.errorf("expected %q", s)
	}
	return nil
}

func (p *parser) errorf(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if p.atEnd() {
		return fmt.Errorf("%s at end of statement", msg)
	}
	return fmt.Errorf("%s near %q", msg, p.peek().text)
}

// ident reads a bare or quoted identifier.
func (p *parser) ident() (string, error) {
	t := p.peek()
	if p.atEnd() || (t.kind != tokWord && t.kind != tokIdent) {
		return "", p.errorf("expected identifier")
	}
	p.pos++
	return t.text, nil
}

// qualifiedName reads schema.table and keeps the last part.
func (p *parser) qualifiedName() (string, error) {
	name, err := p.ident()
	if err != nil {
		return "", err
	}
	for p.acceptPunct(".") {
		if name, err = p.ident(); err != nil {
			return "", err
		}
	}
	return name, nil
}

// skipGroup consumes a balanced parenthesized group starting at "(".
func (p *parser) skipGroup() error {
	start := p.pos
	if err := p.expectPunct("("); err != nil {
		return err
	}
	depth := 1
	for !p.atEnd() {
		t := p.next()
		if t.kind != tokPunct {
			continue
		}
		switch t.text {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				return nil
			}
		}
	}
	p.pos = start
	return p.errorf("unbalanced parentheses")
}

// rawGroup consumes a parenthesized group and returns its source text.
func (p *parser) rawGroup() (string, error) {
	start := p.peek().pos
	if err := p.skipGroup(); err != nil {
		return "", err
	}
	return p.src[start:p.toks[p.pos-1].end], nil
}

// columnList reads "(a, b(10), c DESC)" keeping only the column names.
func (p *parser) columnList() ([]string, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var cols []string
	for {
		if p.isPunct("(") {
			// functional index part; nothing to record
			if err := p.skipGroup(); err != nil {
				return nil, err
			}
		} else {
			name, err := p.ident()
			if err != nil {
				return nil, err
			}
			cols = append(cols, name)
		}
		for !p.atEnd() && !p.isPunct(",") && !p.isPunct(")") {
			if p.isPunct("(") {
				if err := p.skipGroup(); err != nil {
					return nil, err
				}
				continue
			}
			p.next()
		}
		if p.acceptPunct(",") {
			continue
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return cols, nil
	}
}

// splitTopLevel splits tokens on commas that are not nested in parentheses.
func splitTopLevel(toks []token) [][]token {
	var parts [][]token
	depth, start := 0, 0
	for i, t := range toks {
		if t.kind != tokPunct {
			continue
		}
		switch t.text {
		case "(":
			depth++
		case ")":
			depth--
		case ",":
			if depth == 0 {
				parts = append(parts, toks[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, toks[start:])
}

// parseCreateTable parses CREATE TABLE statements. It returns nil, nil for
// statements of any other kind.
func parseCreateTable(stmt string, toks []token, lenient bool) (*tableDraft, error) {
	p := newParser(stmt, toks, lenient)
	if !p.acceptWords("CREATE") {
		return nil, nil
	}
	p.acceptWords("OR", "REPLACE")
	for p.acceptWords("GLOBAL") || p.acceptWords("LOCAL") || p.acceptWords("TEMPORARY") ||
		p.acceptWords("TEMP") || p.acceptWords("UNLOGGED") {
	}
	if !p.acceptWords("TABLE") {
		return nil, nil
	}
	p.acceptWords("IF", "NOT", "EXISTS")

	name, err := p.qualifiedName()
	if err != nil {
		return nil, err
	}
	draft := &tableDraft{name: name}

	if !p.isPunct("(") {
		return nil, p.errorf("table %s has no column list", name)
	}
	bodyStart := p.pos + 1
	if err := p.skipGroup(); err != nil {
		return nil, err
	}
	body := toks[bodyStart : p.pos-1]

	for _, element := range splitTopLevel(body) {
		if len(element) == 0 {
			if lenient {
				continue
			}
			return nil, fmt.Errorf("empty element in table %s", name)
		}
		ep := newParser(stmt, element, lenient)
		if err := ep.parseTableElement(draft); err != nil {
			if lenient {
				continue
			}
			return nil, fmt.Errorf("table %s: %w", name, err)
		}
	}

	if len(draft.columns) == 0 {
		return nil, fmt.Errorf("table %s declares no columns", name)
	}
	return draft, nil
}

// parseTableElement parses one comma-separated entry of a table body, either
// a column definition or a table-level constraint.
func (p *parser) parseTableElement(draft *tableDraft) error {
	constraints, indexes, isConstraint, err := p.parseTableConstraint(draft.name)
	if err != nil {
		return err
	}
	if isConstraint {
		draft.constraints = append(draft.constraints, constraints...)
		draft.indexes = append(draft.indexes, indexes...)
		return p.finish()
	}

	col, inline, err := p.parseColumnDefinition(draft.name)
	if err != nil {
		return err
	}
	replaced := false
	for i := range draft.columns {
		if strings.EqualFold(draft.columns[i].Name, col.Name) {
			draft.columns[i] = col
			replaced = true
			break
		}
	}
	if !replaced {
		draft.columns = append(draft.columns, col)
	}
	draft.constraints = append(draft.constraints, inline...)
	return p.finish()
}

// finish reports trailing tokens the element parser did not understand.
func (p *parser) finish() error {
	if p.atEnd() || p.lenient {
		return nil
	}
	return p.errorf("unexpected token")
}

// parseTableConstraint recognizes table-level constraint and index
// declarations. isConstraint is false when the element is a column.
func (p *parser) parseTableConstraint(table string) ([]types.Constraint, []types.Index, bool, error) {
	var name string
	if p.isWord("CONSTRAINT") {
		p.next()
		if !p.isWord("PRIMARY") && !p.isWord("UNIQUE") && !p.isWord("FOREIGN") && !p.isWord("CHECK") {
			n, err := p.ident()
			if err != nil {
				return nil, nil, true, err
			}
			name = n
		}
	}

	switch {
	case p.acceptWords("PRIMARY", "KEY"):
		p.skipIndexOptions()
		cols, err := p.columnList()
		if err != nil {
			return nil, nil, true, err
		}
		p.skipIndexOptions()
		return []types.Constraint{{Type: types.ConstraintPrimaryKey, Name: name, Table: table, Columns: cols}}, nil, true, nil

	case p.acceptWords("UNIQUE"):
		_ = p.acceptWords("KEY") || p.acceptWords("INDEX")
		if n, ok := p.optionalIndexName(); ok {
			name = n
		}
		p.skipIndexOptions()
		cols, err := p.columnList()
		if err != nil {
			return nil, nil, true, err
		}
		p.skipIndexOptions()
		return []types.Constraint{{Type: types.ConstraintUnique, Name: name, Table: table, Columns: cols}}, nil, true, nil

	case p.acceptWords("FOREIGN", "KEY"):
		if n, ok := p.optionalIndexName(); ok && name == "" {
			name = n
		}
		cols, err := p.columnList()
		if err != nil {
			return nil, nil, true, err
		}
		refTable, refCols, err := p.parseReferences()
		if err != nil {
			return nil, nil, true, err
		}
		return []types.Constraint{{
			Type:             types.ConstraintForeignKey,
			Name:             name,
			Table:            table,
			Columns:          cols,
			ReferenceTable:   refTable,
			ReferenceColumns: refCols,
		}}, nil, true, nil

	case p.acceptWords("CHECK"):
		if err := p.skipGroup(); err != nil {
			return nil, nil, true, err
		}
		p.acceptWords("NOT", "ENFORCED")
		p.acceptWords("ENFORCED")
		return nil, nil, true, nil

	case name == "" && (p.isWord("FULLTEXT") || p.isWord("SPATIAL")):
		p.next()
		_ = p.acceptWords("KEY") || p.acceptWords("INDEX")
		return p.parseIndexBody(table)

	case name == "" && (p.isWord("KEY") || p.isWord("INDEX")) && p.looksLikeIndex():
		p.next()
		return p.parseIndexBody(table)

	case p.isWord("EXCLUDE") || p.isWord("PERIOD"):
		if p.lenient {
			p.pos = len(p.toks)
			return nil, nil, true, nil
		}
		return nil, nil, true, p.errorf("unsupported table element")
	}

	if name != "" {
		return nil, nil, true, p.errorf("expected constraint body")
	}
	return nil, nil, false, nil
}

// looksLikeIndex distinguishes "KEY idx (a)" from a column named key.
func (p *parser) looksLikeIndex() bool {
	first, second, third := p.peekAt(1), p.peekAt(2), p.peekAt(3)
	switch {
	case first.kind == tokPunct && first.text == "(":
		return true
	case first.kind != tokWord && first.kind != tokIdent:
		return false
	case second.upper() == "USING":
		return true
	case second.kind == tokPunct && second.text == "(":
		return third.kind != tokNumber
	}
	return false
}

func (p *parser) parseIndexBody(table string) ([]types.Constraint, []types.Index, bool, error) {
	idxName, _ := p.optionalIndexName()
	p.skipIndexOptions()
	cols, err := p.columnList()
	if err != nil {
		return nil, nil, true, err
	}
	p.skipIndexOptions()
	return nil, []types.Index{{Table: table, Name: idxName, Columns: cols}}, true, nil
}

// optionalIndexName reads an index name that precedes a column list.
func (p *parser) optionalIndexName() (string, bool) {
	t := p.peek()
	if p.atEnd() || (t.kind != tokWord && t.kind != tokIdent) || p.isWord("USING") {
		return "", false
	}
	p.next()
	return t.text, true
}

// skipIndexOptions drops USING BTREE, KEY_BLOCK_SIZE = n, COMMENT '...' and
// similar trailers. It stops at a column list.
func (p *parser) skipIndexOptions() {
	for !p.atEnd() && !p.isPunct("(") {
		switch {
		case p.acceptWords("USING"):
			p.next()
		case p.acceptWords("COMMENT"):
			p.next()
		case p.acceptWords("KEY_BLOCK_SIZE"):
			p.acceptPunct("=")
			p.next()
		case p.acceptWords("WITH", "PARSER"):
			p.next()
		case p.acceptWords("VISIBLE") || p.acceptWords("INVISIBLE") ||
			p.acceptWords("NOT", "DEFERRABLE") || p.acceptWords("DEFERRABLE") ||
			p.acceptWords("INITIALLY", "DEFERRED") || p.acceptWords("INITIALLY", "IMMEDIATE"):
		default:
			return
		}
	}
}

// parseReferences reads REFERENCES t [(cols)] and any referential actions.
func (p *parser) parseReferences() (string, []string, error) {
	if err := p.expectWords("REFERENCES"); err != nil {
		return "", nil, err
	}
	refTable, err := p.qualifiedName()
	if err != nil {
		return "", nil, err
	}
	var refCols []string
	if p.isPunct("(") {
		if refCols, err = p.columnList(); err != nil {
			return "", nil, err
		}
	}
	for {
		switch {
		case p.acceptWords("MATCH"):
			p.next()
		case p.acceptWords("ON", "DELETE"), p.acceptWords("ON", "UPDATE"):
			if err := p.referentialAction(); err != nil {
				return "", nil, err
			}
		case p.acceptWords("NOT", "DEFERRABLE"), p.acceptWords("DEFERRABLE"),
			p.acceptWords("INITIALLY", "DEFERRED"), p.acceptWords("INITIALLY", "IMMEDIATE"):
		default:
			return refTable, refCols, nil
		}
	}
}

func (p *parser) referentialAction() error {
	switch {
	case p.acceptWords("CASCADE"), p.acceptWords("RESTRICT"),
		p.acceptWords("NO", "ACTION"), p.acceptWords("SET", "NULL"), p.acceptWords("SET", "DEFAULT"):
		return nil
	}
	return p.errorf("expected referential action")
}
