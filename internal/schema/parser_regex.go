package schema

import (
	"regexp"
	"strings"

	"github.com/Rana718/ddlseed/internal/types"
)

// Compiled once; ParseSchema classifies every statement of a script.
var (
	createTableStmtRegex = regexp.MustCompile(`(?i)^\s*CREATE\s+(?:OR\s+REPLACE\s+)?(?:(?:GLOBAL|LOCAL|TEMPORARY|TEMP|UNLOGGED)\s+)*TABLE\b`)
	createIndexStmtRegex = regexp.MustCompile(`(?i)^\s*CREATE\s+(?:UNIQUE\s+)?(?:(?:FULLTEXT|SPATIAL|CLUSTERED|NONCLUSTERED)\s+)*INDEX\b`)
	alterTableStmtRegex  = regexp.MustCompile(`(?i)^\s*ALTER\s+TABLE\b`)
	createTypeStmtRegex  = regexp.MustCompile(`(?i)^\s*CREATE\s+TYPE\s+\S+\s+AS\s+ENUM\b`)

	enumRegex      = regexp.MustCompile(`(?is)CREATE\s+TYPE\s+(?:[\w"]+\.)?"?(\w+)"?\s+AS\s+ENUM\s*\((.*)\)`)
	enumValueRegex = regexp.MustCompile(`'((?:[^']|'')*)'`)
)

type statementKind int

const (
	stmtOther statementKind = iota
	stmtCreateTable
	stmtCreateIndex
	stmtAlterTable
	stmtCreateType
)

func (k statementKind) String() string {
	switch k {
	case stmtCreateTable:
		return "CREATE TABLE"
	case stmtCreateIndex:
		return "CREATE INDEX"
	case stmtAlterTable:
		return "ALTER TABLE"
	case stmtCreateType:
		return "CREATE TYPE"
	}
	return "statement"
}

func classifyStatement(stmt string) statementKind {
	switch {
	case createTableStmtRegex.MatchString(stmt):
		return stmtCreateTable
	case createIndexStmtRegex.MatchString(stmt):
		return stmtCreateIndex
	case alterTableStmtRegex.MatchString(stmt):
		return stmtAlterTable
	case createTypeStmtRegex.MatchString(stmt):
		return stmtCreateType
	}
	return stmtOther
}

// parseCreateType reads a PostgreSQL enum type declaration.
func parseCreateType(stmt string) (types.Enum, bool) {
	m := enumRegex.FindStringSubmatch(stmt)
	if m == nil {
		return types.Enum{}, false
	}
	return types.Enum{Name: m[1], Values: EnumValues(m[2])}, true
}

// EnumValues extracts the quoted labels of an enum list such as
// "'draft', 'it''s done'" or a MySQL type like "enum('a','b')".
func EnumValues(list string) []string {
	matches := enumValueRegex.FindAllStringSubmatch(list, -1)
	values := make([]string, 0, len(matches))
	for _, m := range matches {
		values = append(values, strings.ReplaceAll(m[1], "''", "'"))
	}
	return values
}
