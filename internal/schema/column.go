package schema

import (
	"strings"

	"github.com/Rana718/ddlseed/internal/types"
)

// typeModifiers may follow a type name (and its length) and belong to it.
var typeModifiers = map[string]bool{
	"UNSIGNED":  true,
	"SIGNED":    true,
	"ZEROFILL":  true,
	"VARYING":   true,
	"PRECISION": true,
	"BINARY":    true,
}

var serialTypes = map[string]bool{
	"SERIAL":      true,
	"SERIAL2":     true,
	"SERIAL4":     true,
	"SERIAL8":     true,
	"SMALLSERIAL": true,
	"BIGSERIAL":   true,
}

// parseColumnDefinition parses "name type [attributes...]". Inline PRIMARY
// KEY, UNIQUE and REFERENCES attributes are returned as constraints so the
// merge phase treats them exactly like table-level declarations.
func (p *parser) parseColumnDefinition(table string) (types.Column, []types.Constraint, error) {
	name, err := p.ident()
	if err != nil {
		return types.Column{}, nil, err
	}

	col := types.Column{Name: name, Nullable: true}

	if p.atEnd() {
		// SQLite allows columns without a declared type
		return col, nil, nil
	}
	dataType, err := p.parseDataType()
	if err != nil {
		return types.Column{}, nil, err
	}
	col.DataType = dataType
	if serialTypes[strings.ToUpper(dataType)] {
		col.AutoIncrement = true
		col.Nullable = false
	}

	var inline []types.Constraint
	var constraintName string

	for !p.atEnd() {
		switch {
		case p.acceptWords("NOT", "NULL"):
			col.Nullable = false

		case p.acceptWords("NULL"):
			col.Nullable = true

		case p.acceptWords("DEFAULT"):
			expr, nextval, err := p.parseDefault()
			if err != nil {
				return types.Column{}, nil, err
			}
			if nextval {
				col.AutoIncrement = true
				col.DefaultValue = nil
			} else {
				col.DefaultValue = &expr
			}

		case p.acceptWords("AUTO_INCREMENT"), p.acceptWords("AUTOINCREMENT"):
			col.AutoIncrement = true

		case p.acceptWords("IDENTITY"):
			col.AutoIncrement = true
			if p.isPunct("(") {
				if err := p.skipGroup(); err != nil {
					return types.Column{}, nil, err
				}
			}

		case p.acceptWords("GENERATED"):
			if err := p.parseGenerated(&col); err != nil {
				return types.Column{}, nil, err
			}

		case p.acceptWords("AS"):
			// MySQL generated column: AS (expr) [VIRTUAL|STORED]
			if err := p.skipGroup(); err != nil {
				return types.Column{}, nil, err
			}

		case p.acceptWords("PRIMARY", "KEY"):
			col.Nullable = false
			inline = append(inline, types.Constraint{
				Type: types.ConstraintPrimaryKey, Name: constraintName, Table: table, Columns: []string{name},
			})
			constraintName = ""

		case p.acceptWords("UNIQUE"):
			p.acceptWords("KEY")
			inline = append(inline, types.Constraint{
				Type: types.ConstraintUnique, Name: constraintName, Table: table, Columns: []string{name},
			})
			constraintName = ""

		case p.acceptWords("KEY"):
			// MySQL shorthand for PRIMARY KEY
			col.Nullable = false
			inline = append(inline, types.Constraint{
				Type: types.ConstraintPrimaryKey, Table: table, Columns: []string{name},
			})

		case p.isWord("REFERENCES"):
			refTable, refCols, err := p.parseReferences()
			if err != nil {
				return types.Column{}, nil, err
			}
			inline = append(inline, types.Constraint{
				Type:             types.ConstraintForeignKey,
				Name:             constraintName,
				Table:            table,
				Columns:          []string{name},
				ReferenceTable:   refTable,
				ReferenceColumns: refCols,
			})
			constraintName = ""

		case p.acceptWords("CONSTRAINT"):
			if constraintName, err = p.ident(); err != nil {
				return types.Column{}, nil, err
			}

		case p.acceptWords("CHECK"):
			if err := p.skipGroup(); err != nil {
				return types.Column{}, nil, err
			}

		case p.acceptWords("COLLATE"), p.acceptWords("CHARACTER", "SET"),
			p.acceptWords("CHARSET"), p.acceptWords("COMMENT"),
			p.acceptWords("COLUMN_FORMAT"), p.acceptWords("STORAGE"),
			p.acceptWords("COMPRESSION"):
			p.acceptPunct("=")
			p.next()

		case p.acceptWords("AFTER"):
			p.next()

		case p.acceptWords("FIRST"):

		case p.acceptWords("ON", "UPDATE"):
			if _, _, err := p.parseDefault(); err != nil {
				return types.Column{}, nil, err
			}

		case p.acceptWords("VIRTUAL"), p.acceptWords("STORED"), p.acceptWords("PERSISTENT"),
			p.acceptWords("VISIBLE"), p.acceptWords("INVISIBLE"),
			p.acceptWords("NOT", "DEFERRABLE"), p.acceptWords("DEFERRABLE"),
			p.acceptWords("INITIALLY", "DEFERRED"), p.acceptWords("INITIALLY", "IMMEDIATE"),
			p.acceptWords("UNSIGNED"), p.acceptWords("ZEROFILL"):

		default:
			if !p.lenient {
				return types.Column{}, nil, p.errorf("unexpected column attribute")
			}
			if p.isPunct("(") {
				if err := p.skipGroup(); err != nil {
					return types.Column{}, nil, err
				}
			} else {
				p.next()
			}
		}
	}

	return col, inline, nil
}

// parseDataType reads a type name with its optional length, modifiers and
// array suffix, preserving the declared spelling: "varchar(255)",
// "int(10) unsigned", "timestamp with time zone".
func (p *parser) parseDataType() (string, error) {
	first, err := p.ident()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(first)
	// a leading "(" would be a type argument such as enum('a','b')
	hasArgs := false

	for !p.atEnd() {
		switch {
		case !hasArgs && p.isPunct("("):
			raw, err := p.rawGroup()
			if err != nil {
				return "", err
			}
			b.WriteString(compactArgs(raw))
			hasArgs = true

		case typeModifiers[p.peek().upper()]:
			b.WriteString(" " + p.next().text)

		case p.isWord("WITH", "TIME", "ZONE"), p.isWord("WITHOUT", "TIME", "ZONE"):
			for i := 0; i < 3; i++ {
				b.WriteString(" " + p.next().text)
			}

		case p.isWord("WITH", "LOCAL", "TIME", "ZONE"):
			for i := 0; i < 4; i++ {
				b.WriteString(" " + p.next().text)
			}

		case p.isPunct("[]"):
			p.next()
			b.WriteString("[]")

		case strings.EqualFold(first, "LONG") && (p.isWord("VARCHAR") || p.isWord("VARBINARY")):
			b.WriteString(" " + p.next().text)

		default:
			return b.String(), nil
		}
	}
	return b.String(), nil
}

// compactArgs normalizes "( 10 , 2 )" to "(10,2)".
func compactArgs(raw string) string {
	inner := strings.TrimSpace(raw[1 : len(raw)-1])
	parts := strings.Split(inner, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// parseDefault reads a DEFAULT expression and returns its source text with
// any trailing ::casts removed. nextval reports a sequence-backed default,
// which marks the column as auto-increment.
func (p *parser) parseDefault() (expr string, nextval bool, err error) {
	if p.atEnd() {
		return "", false, p.errorf("expected default value")
	}
	start := p.peek()
	end := start.end

	switch {
	case p.isPunct("("):
		if _, err := p.rawGroup(); err != nil {
			return "", false, err
		}
		end = p.toks[p.pos-1].end

	case p.isPunct("-") || p.isPunct("+"):
		p.next()
		num := p.next()
		if num.kind != tokNumber {
			return "", false, p.errorf("expected number")
		}
		end = num.end

	case start.kind == tokWord && isStringPrefix(start.text) && p.peekAt(1).kind == tokString && p.peekAt(1).pos == start.end:
		// E'...', N'...', _utf8mb4'...'
		p.next()
		str := p.next()
		start = str
		end = str.end

	case start.kind == tokWord:
		p.next()
		if p.isPunct("(") {
			if _, err := p.rawGroup(); err != nil {
				return "", false, err
			}
			end = p.toks[p.pos-1].end
			nextval = strings.EqualFold(start.text, "nextval")
		}

	case start.kind == tokString || start.kind == tokNumber || start.kind == tokIdent:
		p.next()

	default:
		return "", false, p.errorf("unexpected default value")
	}

	expr = p.src[start.pos:end]

	for p.acceptPunct("::") {
		if _, err := p.parseDataType(); err != nil {
			return "", false, err
		}
	}
	return expr, nextval, nil
}

func isStringPrefix(word string) bool {
	switch strings.ToUpper(word) {
	case "E", "N", "B", "X":
		return true
	}
	return strings.HasPrefix(word, "_")
}

// parseGenerated handles GENERATED {ALWAYS | BY DEFAULT} AS IDENTITY and
// GENERATED ALWAYS AS (expr) [STORED].
func (p *parser) parseGenerated(col *types.Column) error {
	if !p.acceptWords("ALWAYS") && !p.acceptWords("BY", "DEFAULT") {
		return p.errorf("expected ALWAYS or BY DEFAULT")
	}
	p.acceptWords("ON", "NULL")
	if err := p.expectWords("AS"); err != nil {
		return err
	}
	if p.acceptWords("IDENTITY") {
		col.AutoIncrement = true
		col.Nullable = false
		if p.isPunct("(") {
			return p.skipGroup()
		}
		return nil
	}
	return p.skipGroup()
}
