package schema

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokWord   tokenKind = iota // bare identifier or keyword
	tokIdent                   // quoted identifier: "x", `x`, [x]
	tokString                  // 'literal' or $$body$$
	tokNumber
	tokPunct
)

type token struct {
	kind tokenKind
	text string // unquoted text for identifiers and strings
	pos  int
	end  int
}

func (t token) String() string {
	return t.text
}

// upper returns the keyword form of a bare word.
func (t token) upper() string {
	if t.kind != tokWord {
		return ""
	}
	return strings.ToUpper(t.text)
}

// tokenize scans one comment-free statement.
func tokenize(stmt string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(stmt) {
		ch := stmt[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f':
			i++

		case ch == '\'':
			end := scanQuoted(stmt, i, ch)
			if end > len(stmt) || stmt[end-1] != '\'' || end-i < 2 {
				return nil, fmt.Errorf("unterminated string literal at offset %d", i)
			}
			toks = append(toks, token{kind: tokString, text: unquote(stmt[i:end], '\''), pos: i, end: end})
			i = end

		case ch == '"' || ch == '`':
			end := scanQuoted(stmt, i, ch)
			if stmt[end-1] != ch || end-i < 2 {
				return nil, fmt.Errorf("unterminated quoted identifier at offset %d", i)
			}
			toks = append(toks, token{kind: tokIdent, text: unquote(stmt[i:end], ch), pos: i, end: end})
			i = end

		case ch == '[':
			end := strings.IndexByte(stmt[i:], ']')
			if end == -1 {
				return nil, fmt.Errorf("unterminated bracketed identifier at offset %d", i)
			}
			text := stmt[i+1 : i+end]
			if text == "" {
				// array suffix such as integer[]
				toks = append(toks, token{kind: tokPunct, text: "[]", pos: i, end: i + 2})
			} else {
				toks = append(toks, token{kind: tokIdent, text: text, pos: i, end: i + end + 1})
			}
			i += end + 1

		case ch == '$' && i+1 < len(stmt) && (stmt[i+1] == '$' || isIdentStart(stmt[i+1])):
			if end, ok := scanDollarQuoted(stmt, i); ok {
				tagEnd := strings.IndexByte(stmt[i+1:], '$') + i + 2
				body := stmt[tagEnd:end]
				if tagLen := tagEnd - i; len(body) >= tagLen && strings.HasSuffix(body, stmt[i:tagEnd]) {
					body = body[:len(body)-tagLen]
				}
				toks = append(toks, token{kind: tokString, text: body, pos: i, end: end})
				i = end
				continue
			}
			toks = append(toks, token{kind: tokPunct, text: "$", pos: i, end: i + 1})
			i++

		case ch >= '0' && ch <= '9', ch == '.' && i+1 < len(stmt) && stmt[i+1] >= '0' && stmt[i+1] <= '9':
			j := i
			for j < len(stmt) && (isDigit(stmt[j]) || stmt[j] == '.') {
				j++
			}
			if j < len(stmt) && (stmt[j] == 'e' || stmt[j] == 'E') {
				k := j + 1
				if k < len(stmt) && (stmt[k] == '+' || stmt[k] == '-') {
					k++
				}
				if k < len(stmt) && isDigit(stmt[k]) {
					j = k
					for j < len(stmt) && isDigit(stmt[j]) {
						j++
					}
				}
			}
			if j < len(stmt) && isIdentStart(stmt[j]) {
				// identifiers such as 2fa_enabled
				for j < len(stmt) && isIdentByte(stmt[j]) {
					j++
				}
				toks = append(toks, token{kind: tokWord, text: stmt[i:j], pos: i, end: j})
			} else {
				toks = append(toks, token{kind: tokNumber, text: stmt[i:j], pos: i, end: j})
			}
			i = j

		case isIdentStart(ch):
			j := i
			for j < len(stmt) && isIdentByte(stmt[j]) {
				j++
			}
			toks = append(toks, token{kind: tokWord, text: stmt[i:j], pos: i, end: j})
			i = j

		case ch == ':' && i+1 < len(stmt) && stmt[i+1] == ':':
			toks = append(toks, token{kind: tokPunct, text: "::", pos: i, end: i + 2})
			i += 2

		default:
			toks = append(toks, token{kind: tokPunct, text: string(ch), pos: i, end: i + 1})
			i++
		}
	}
	return toks, nil
}

func unquote(s string, quote byte) string {
	inner := s[1 : len(s)-1]
	q := string(quote)
	inner = strings.ReplaceAll(inner, q+q, q)
	if quote != '`' && strings.IndexByte(inner, '\\') >= 0 {
		var b strings.Builder
		for i := 0; i < len(inner); i++ {
			if inner[i] == '\\' && i+1 < len(inner) {
				i++
				switch inner[i] {
				case 'n':
					b.WriteByte('\n')
				case 't':
					b.WriteByte('\t')
				case 'r':
					b.WriteByte('\r')
				case '0':
					b.WriteByte(0)
				default:
					b.WriteByte(inner[i])
				}
				continue
			}
			b.WriteByte(inner[i])
		}
		inner = b.String()
	}
	return inner
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b >= 0x80
}
