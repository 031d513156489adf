package schema

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Rana718/ddlseed/internal/types"
)

// ErrNoTables is returned when a script declares no parseable table.
var ErrNoTables = errors.New("no tables found in schema")

// StatementError records one statement that could not be parsed even in
// lenient mode.
type StatementError struct {
	Index   int
	Kind    string
	Snippet string
	Err     error
}

func (e StatementError) Error() string {
	return fmt.Sprintf("statement %d (%s %q): %v", e.Index+1, e.Kind, e.Snippet, e.Err)
}

func (e StatementError) Unwrap() error { return e.Err }

// ParseError aggregates every statement failure and resolution issue of a
// script. It is returned together with the partial schema built from the
// statements that did parse.
type ParseError struct {
	Failures []StatementError
	Issues   []string
}

func (e *ParseError) Error() string {
	var parts []string
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	parts = append(parts, e.Issues...)
	return fmt.Sprintf("schema parsed with %d problem(s): %s", len(parts), strings.Join(parts, "; "))
}

func (e *ParseError) empty() bool {
	return len(e.Failures) == 0 && len(e.Issues) == 0
}

// ParseSchema turns a DDL script into a normalized schema. Statements other
// than CREATE TABLE, CREATE INDEX, CREATE TYPE ... AS ENUM and ALTER TABLE
// are ignored.
//
// A non-nil *ParseError comes with a usable schema whose Error field holds
// the same message. ErrNoTables is returned when nothing could be parsed.
func ParseSchema(ddl string) (*types.Schema, error) {
	var (
		c      collector
		enums  []types.Enum
		perr   = &ParseError{}
		failed = func(i int, kind statementKind, stmt string, err error) {
			perr.Failures = append(perr.Failures, StatementError{
				Index: i, Kind: kind.String(), Snippet: snippet(stmt), Err: err,
			})
		}
	)

	for i, stmt := range SplitStatements(ddl) {
		kind := classifyStatement(stmt)
		if kind == stmtOther {
			continue
		}
		if kind == stmtCreateType {
			if enum, ok := parseCreateType(stmt); ok {
				enums = append(enums, enum)
			}
			continue
		}

		toks, err := tokenize(stmt)
		if err != nil {
			failed(i, kind, stmt, err)
			continue
		}

		switch kind {
		case stmtCreateTable:
			draft, err := strictThenLenient(stmt, toks, parseCreateTable)
			if err != nil {
				failed(i, kind, stmt, err)
				continue
			}
			c.addTable(draft)

		case stmtAlterTable:
			draft, err := strictThenLenient(stmt, toks, parseAlterTable)
			if err != nil {
				failed(i, kind, stmt, err)
				continue
			}
			c.addAlter(draft)

		case stmtCreateIndex:
			idx, err := strictThenLenient(stmt, toks, parseCreateIndex)
			if err != nil {
				failed(i, kind, stmt, err)
				continue
			}
			c.addIndex(*idx)
		}
	}

	if len(c.tables) == 0 {
		if len(perr.Failures) > 0 {
			return nil, fmt.Errorf("%w: %v", ErrNoTables, perr)
		}
		return nil, ErrNoTables
	}

	schema, issues := c.resolve()
	schema.Enums = enums
	perr.Issues = issues
	if perr.empty() {
		return schema, nil
	}
	schema.Error = perr.Error()
	return schema, perr
}

// strictThenLenient runs parse strictly and, on failure, once more in
// lenient mode. The strict error is reported when both fail.
func strictThenLenient[T any](stmt string, toks []token, parse func(string, []token, bool) (*T, error)) (*T, error) {
	v, err := parse(stmt, toks, false)
	if err == nil && v != nil {
		return v, nil
	}
	if err == nil {
		return nil, fmt.Errorf("unrecognized statement")
	}
	if lv, lerr := parse(stmt, toks, true); lerr == nil && lv != nil {
		return lv, nil
	}
	return nil, err
}

func snippet(stmt string) string {
	s := strings.Join(strings.Fields(stmt), " ")
	if len(s) > 60 {
		s = s[:57] + "..."
	}
	return s
}

// ParseSchemaFile reads and parses a single .sql file.
func ParseSchemaFile(path string) (*types.Schema, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return ParseSchema(string(content))
}

// ParseSchemaDir parses every .sql file of a directory as one script, in
// file name order. A table declared in several files has its columns
// merged.
func ParseSchemaDir(dir string) (*types.Schema, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory: %w", err)
	}

	var sqlFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			sqlFiles = append(sqlFiles, entry.Name())
		}
	}
	sort.Strings(sqlFiles)

	var script strings.Builder
	for _, name := range sqlFiles {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read schema file %s: %w", name, err)
		}
		script.WriteString(strings.TrimPrefix(string(content), utf8BOM))
		// a file whose last statement lacks a semicolon must not run into the next
		script.WriteString("\n;\n")
	}
	return ParseSchema(script.String())
}

// ParseSchemaPath parses a file or, when path is a directory, every .sql
// file inside it.
func ParseSchemaPath(path string) (*types.Schema, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat schema path: %w", err)
	}
	if info.IsDir() {
		return ParseSchemaDir(path)
	}
	return ParseSchemaFile(path)
}
