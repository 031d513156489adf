package seeder

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Rana718/ddlseed/internal/export"
	"github.com/Rana718/ddlseed/internal/schema"
	"github.com/Rana718/ddlseed/internal/types"
)

const shopDDL = `
CREATE TABLE child (
  id INT AUTO_INCREMENT PRIMARY KEY,
  parent_id INT NOT NULL,
  code VARCHAR(20) UNIQUE,
  status VARCHAR(10) NOT NULL DEFAULT 'new',
  FOREIGN KEY (parent_id) REFERENCES parent(id)
);
CREATE TABLE parent (
  id INT AUTO_INCREMENT PRIMARY KEY,
  name VARCHAR(50) NOT NULL
);`

func mustParse(t *testing.T, ddl string) *types.Schema {
	t.Helper()
	s, err := schema.ParseSchema(ddl)
	if err != nil {
		t.Fatalf("Failed to parse schema: %v", err)
	}
	return s
}

func seedOf(n int64) *int64 { return &n }

func generateRows(t *testing.T, s *types.Schema, cfg *types.GenerationConfig, seed int64) []export.TableRows {
	t.Helper()
	out, err := newGenerator(s, cfg, seed, Options{Quiet: true}).run(context.Background(), SortTables(s.Tables, s.Relationships))
	if err != nil {
		t.Fatalf("Failed to generate rows: %v", err)
	}
	return out
}

func rowsOf(t *testing.T, out []export.TableRows, table string) export.TableRows {
	t.Helper()
	for _, tr := range out {
		if tr.Table == table {
			return tr
		}
	}
	t.Fatalf("No rows generated for %s", table)
	return export.TableRows{}
}

func column(t *testing.T, tr export.TableRows, name string) []interface{} {
	t.Helper()
	for i, c := range tr.Columns {
		if c == name {
			values := make([]interface{}, len(tr.Rows))
			for r, row := range tr.Rows {
				values[r] = row[i]
			}
			return values
		}
	}
	t.Fatalf("Table %s has no column %s", tr.Table, name)
	return nil
}

func TestGenerateParentBeforeChild(t *testing.T) {
	s := mustParse(t, shopDDL)
	cfg := &types.GenerationConfig{
		Format: types.FormatSQL,
		Tables: map[string]types.TableConfig{
			"parent": {RowCount: 2},
			"child":  {RowCount: 2},
		},
	}

	out := generateRows(t, s, cfg, 1)
	if len(out) != 2 || out[0].Table != "parent" || out[1].Table != "child" {
		t.Fatalf("Expected parent before child, got %v", out)
	}
}

func TestGenerateAutoIncrementSequence(t *testing.T) {
	s := mustParse(t, shopDDL)
	cfg := &types.GenerationConfig{
		Format: types.FormatSQL,
		Tables: map[string]types.TableConfig{"parent": {RowCount: 5}},
	}

	ids := column(t, rowsOf(t, generateRows(t, s, cfg, 1), "parent"), "id")
	for i, id := range ids {
		if id != int64(i+1) {
			t.Errorf("Expected id %d at row %d, got %v", i+1, i, id)
		}
	}
}

func TestGenerateForeignKeysReferenceParents(t *testing.T) {
	s := mustParse(t, shopDDL)
	cfg := &types.GenerationConfig{
		Format: types.FormatSQL,
		Tables: map[string]types.TableConfig{
			"parent": {RowCount: 5, Columns: map[string]types.ColumnConfig{"name": {Provider: "person.name"}}},
			"child":  {RowCount: 50},
		},
	}
	out := generateRows(t, s, cfg, 7)

	parents := make(map[interface{}]bool)
	for _, id := range column(t, rowsOf(t, out, "parent"), "id") {
		parents[id] = true
	}
	child := rowsOf(t, out, "child")
	if len(child.Rows) != 50 {
		t.Fatalf("Expected 50 child rows, got %d", len(child.Rows))
	}
	for _, v := range column(t, child, "parent_id") {
		if !parents[v] {
			t.Errorf("Expected parent_id %v to exist in parent", v)
		}
	}
	for _, v := range column(t, child, "status") {
		if v != "new" {
			t.Errorf("Expected declared default 'new', got %v", v)
		}
	}

	codes := make(map[interface{}]bool)
	for _, v := range column(t, child, "code") {
		if codes[v] {
			t.Errorf("Expected unique code, got duplicate %v", v)
		}
		codes[v] = true
	}
}

func TestGenerateCompositeUniqueTuples(t *testing.T) {
	s := mustParse(t, `
CREATE TABLE posts (id INT PRIMARY KEY);
CREATE TABLE tags (id INT PRIMARY KEY);
CREATE TABLE post_tags (
  post_id INT NOT NULL REFERENCES posts(id),
  tag_id INT NOT NULL REFERENCES tags(id),
  PRIMARY KEY (post_id, tag_id)
);`)
	cfg := &types.GenerationConfig{
		Format: types.FormatSQL,
		Tables: map[string]types.TableConfig{
			"posts":     {RowCount: 4},
			"tags":      {RowCount: 4},
			"post_tags": {RowCount: 10},
		},
	}

	links := rowsOf(t, generateRows(t, s, cfg, 3), "post_tags")
	seen := make(map[string]bool)
	for _, row := range links.Rows {
		key := fmt.Sprint(row[0], "/", row[1])
		if seen[key] {
			t.Errorf("Expected unique (post_id, tag_id), got duplicate %s", key)
		}
		seen[key] = true
	}
	if len(seen) != 10 {
		t.Errorf("Expected 10 distinct pairs, got %d", len(seen))
	}
}

func TestGenerateOneToOneUsesEveryParentOnce(t *testing.T) {
	s := mustParse(t, `
CREATE TABLE users (id INT AUTO_INCREMENT PRIMARY KEY);
CREATE TABLE profiles (user_id INT NOT NULL UNIQUE REFERENCES users(id), bio TEXT);`)
	cfg := &types.GenerationConfig{
		Format: types.FormatSQL,
		Tables: map[string]types.TableConfig{
			"users":    {RowCount: 200},
			"profiles": {RowCount: 200},
		},
	}

	seen := make(map[interface{}]bool)
	for _, v := range column(t, rowsOf(t, generateRows(t, s, cfg, 11), "profiles"), "user_id") {
		if seen[v] {
			t.Errorf("Expected each user referenced once, got duplicate %v", v)
		}
		seen[v] = true
	}
	if len(seen) != 200 {
		t.Errorf("Expected 200 distinct users, got %d", len(seen))
	}
}

func TestGenerateMutualCycle(t *testing.T) {
	s := mustParse(t, `
CREATE TABLE a (id INT PRIMARY KEY, b_id INT REFERENCES b(id));
CREATE TABLE b (id INT PRIMARY KEY, a_id INT REFERENCES a(id));`)
	cfg := &types.GenerationConfig{
		Format: types.FormatSQL,
		Tables: map[string]types.TableConfig{
			"a": {RowCount: 3},
			"b": {RowCount: 3},
		},
	}

	out := generateRows(t, s, cfg, 5)
	if out[0].Table != "a" || out[1].Table != "b" {
		t.Fatalf("Expected cycle members in declaration order, got %s, %s", out[0].Table, out[1].Table)
	}
	for _, v := range column(t, rowsOf(t, out, "a"), "b_id") {
		if v != nil {
			t.Errorf("Expected NULL b_id before b has rows, got %v", v)
		}
	}
	for _, v := range column(t, rowsOf(t, out, "b"), "a_id") {
		if v == nil {
			t.Error("Expected a_id to reference a generated row")
		}
	}
}

func TestGenerateRequiredParentWithoutRows(t *testing.T) {
	s := mustParse(t, shopDDL)
	cfg := &types.GenerationConfig{
		Format: types.FormatSQL,
		Tables: map[string]types.TableConfig{"child": {RowCount: 1}},
	}

	_, err := newGenerator(s, cfg, 1, Options{Quiet: true}).run(context.Background(), SortTables(s.Tables, s.Relationships))
	if !errors.Is(err, ErrParentEmpty) {
		t.Fatalf("Expected ErrParentEmpty, got %v", err)
	}
	var genErr *GenerationError
	if !errors.As(err, &genErr) || genErr.Table != "child" || genErr.Column != "parent_id" {
		t.Errorf("Expected GenerationError for child.parent_id, got %v", err)
	}
}

func TestGenerateUniqueExhausted(t *testing.T) {
	s := mustParse(t, `CREATE TABLE flags (flag BOOLEAN UNIQUE);`)
	cfg := &types.GenerationConfig{
		Format: types.FormatSQL,
		Tables: map[string]types.TableConfig{
			"flags": {RowCount: 3, Columns: map[string]types.ColumnConfig{"flag": {Provider: "misc.boolean"}}},
		},
	}

	_, err := newGenerator(s, cfg, 1, Options{Quiet: true}).run(context.Background(), s.Tables)
	if !errors.Is(err, ErrUniqueExhausted) {
		t.Fatalf("Expected ErrUniqueExhausted, got %v", err)
	}
}

func TestGenerateTypeDefaults(t *testing.T) {
	s := mustParse(t, `
CREATE TYPE mood AS ENUM ('happy', 'sad');
CREATE TABLE samples (
  n SMALLINT,
  label VARCHAR(10),
  born DATE,
  seen_at TIMESTAMP,
  active BOOLEAN,
  price DECIMAL(10,2),
  feeling mood,
  size ENUM('s','m','l'),
  payload BYTEA
);`)
	cfg := &types.GenerationConfig{
		Format: types.FormatSQL,
		Tables: map[string]types.TableConfig{"samples": {RowCount: 20}},
	}

	tr := rowsOf(t, generateRows(t, s, cfg, 9), "samples")
	for _, row := range tr.Rows {
		if n, ok := row[0].(int64); !ok || n < 0 || n >= 32768 {
			t.Errorf("Expected smallint value, got %v", row[0])
		}
		if _, ok := row[1].(string); !ok {
			t.Errorf("Expected word for varchar, got %v", row[1])
		}
		if s, ok := row[2].(string); !ok || len(s) != len(dateLayout) {
			t.Errorf("Expected date, got %v", row[2])
		}
		if s, ok := row[3].(string); !ok || len(s) != len(dateTimeLayout) {
			t.Errorf("Expected timestamp, got %v", row[3])
		}
		if _, ok := row[4].(bool); !ok {
			t.Errorf("Expected bool, got %v", row[4])
		}
		if _, ok := row[5].(float64); !ok {
			t.Errorf("Expected float for decimal, got %v", row[5])
		}
		if row[6] != "happy" && row[6] != "sad" {
			t.Errorf("Expected mood label, got %v", row[6])
		}
		if row[7] != "s" && row[7] != "m" && row[7] != "l" {
			t.Errorf("Expected size label, got %v", row[7])
		}
		if row[8] != nil {
			t.Errorf("Expected NULL for unknown type, got %v", row[8])
		}
	}
}

func TestGenerateFallbackUniqueShapes(t *testing.T) {
	s := mustParse(t, `
CREATE TABLE events (
  id BIGINT PRIMARY KEY,
  day DATE UNIQUE,
  at TIME UNIQUE,
  stamp TIMESTAMP UNIQUE,
  slug VARCHAR(40) UNIQUE
);`)
	cfg := &types.GenerationConfig{
		Format: types.FormatSQL,
		Tables: map[string]types.TableConfig{"events": {RowCount: 2}},
	}

	tr := rowsOf(t, generateRows(t, s, cfg, 1), "events")
	want := [][]interface{}{
		{int64(1), "2000-01-02", "00:00:01", "2000-01-01 00:00:01", "slug_1"},
		{int64(2), "2000-01-03", "00:00:02", "2000-01-01 00:00:02", "slug_2"},
	}
	for r, row := range tr.Rows {
		for c := range row {
			if row[c] != want[r][c] {
				t.Errorf("Expected %v at row %d column %s, got %v", want[r][c], r, tr.Columns[c], row[c])
			}
		}
	}
}

func TestGenerateStopsOnCancel(t *testing.T) {
	s := mustParse(t, shopDDL)
	cfg := &types.GenerationConfig{
		Format: types.FormatSQL,
		Tables: map[string]types.TableConfig{"parent": {RowCount: 1}},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newGenerator(s, cfg, 1, Options{Quiet: true}).run(ctx, s.Tables)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestDefaultValue(t *testing.T) {
	tests := []struct {
		expr string
		want interface{}
	}{
		{"'abc'", "abc"},
		{"('x')", "x"},
		{"'it''s'", "it's"},
		{"0", int64(0)},
		{"-1.5", -1.5},
		{"NULL", nil},
		{"true", true},
		{"FALSE", false},
		{"CURRENT_TIMESTAMP", types.SQLExpr("CURRENT_TIMESTAMP")},
		{"now()", types.SQLExpr("now()")},
		{"(1 + 2)", types.SQLExpr("1 + 2")},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			if got := defaultValue(tt.expr); got != tt.want {
				t.Errorf("Expected %#v, got %#v", tt.want, got)
			}
		})
	}
}
