package schema

import (
	"strings"
)

const utf8BOM = "\ufeff"

// SplitStatements breaks a DDL script into statements on terminating
// semicolons. Semicolons inside quoted literals, quoted identifiers,
// dollar-quoted bodies and comments never split. Comments are dropped from
// the returned statements.
func SplitStatements(sql string) []string {
	sql = strings.TrimPrefix(sql, utf8BOM)

	var statements []string
	var current strings.Builder

	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for i := 0; i < len(sql); {
		ch := sql[i]

		switch {
		case ch == '-' && i+1 < len(sql) && sql[i+1] == '-', ch == '#':
			end := strings.IndexByte(sql[i:], '\n')
			if end == -1 {
				i = len(sql)
			} else {
				i += end
			}
			current.WriteByte(' ')

		case ch == '/' && i+1 < len(sql) && sql[i+1] == '*':
			end := strings.Index(sql[i+2:], "*/")
			if end == -1 {
				i = len(sql)
			} else {
				i += end + 4
			}
			current.WriteByte(' ')

		case ch == '\'' || ch == '"' || ch == '`':
			end := scanQuoted(sql, i, ch)
			current.WriteString(sql[i:end])
			i = end

		case ch == '$' && (i == 0 || !isIdentByte(sql[i-1])):
			if end, ok := scanDollarQuoted(sql, i); ok {
				current.WriteString(sql[i:end])
				i = end
				continue
			}
			current.WriteByte(ch)
			i++

		case ch == ';':
			flush()
			i++

		default:
			current.WriteByte(ch)
			i++
		}
	}
	flush()

	return statements
}

// scanQuoted returns the index just past the closing quote of the literal
// starting at start. Doubled quotes and backslash escapes are honored; an
// unterminated literal runs to the end of input.
func scanQuoted(s string, start int, quote byte) int {
	i := start + 1
	for i < len(s) {
		switch s[i] {
		case '\\':
			if quote != '`' {
				i += 2
				continue
			}
		case quote:
			if i+1 < len(s) && s[i+1] == quote {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(s)
}

// scanDollarQuoted recognizes PostgreSQL $tag$ ... $tag$ bodies.
func scanDollarQuoted(s string, start int) (int, bool) {
	j := start + 1
	for j < len(s) && s[j] != '$' && isIdentByte(s[j]) {
		if j == start+1 && s[j] >= '0' && s[j] <= '9' {
			return 0, false
		}
		j++
	}
	if j >= len(s) || s[j] != '$' {
		return 0, false
	}
	tag := s[start : j+1]
	end := strings.Index(s[j+1:], tag)
	if end == -1 {
		return len(s), true
	}
	return j + 1 + end + len(tag), true
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '$' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9') ||
		b >= 0x80
}
