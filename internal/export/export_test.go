package export

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Rana718/ddlseed/internal/types"
	"github.com/klauspost/compress/zip"
)

var sampleTables = []TableRows{
	{Table: "users", Columns: []string{"id", "name", "active"}, Rows: [][]interface{}{
		{int64(1), "O'Brien", true},
		{int64(2), "Lee, Ann", false},
	}},
	{Table: "empty", Columns: []string{"id"}},
	{Table: "`posts`", Columns: []string{"id", "user_id", "body", "created_at"}, Rows: [][]interface{}{
		{int64(1), int64(2), nil, types.SQLExpr("CURRENT_TIMESTAMP")},
	}},
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		dir, name string
		format    types.Format
		want      string
	}{
		{"out", "data", types.FormatSQL, filepath.Join("out", "data.sql")},
		{"out", "data.sql", types.FormatSQL, filepath.Join("out", "data.sql")},
		{"out", "data", types.FormatCSV, filepath.Join("out", "data.zip")},
		{"", "DATA.ZIP", types.FormatCSV, "DATA.ZIP"},
	}

	for _, tt := range tests {
		if got := OutputPath(tt.dir, tt.name, tt.format); got != tt.want {
			t.Errorf("Expected %s, got %s", tt.want, got)
		}
	}
}

func TestEncodeSQL(t *testing.T) {
	tests := []struct {
		dialect Dialect
		want    string
	}{
		{DialectMySQL, "INSERT INTO `users` (`id`,`name`,`active`) VALUES (1,'O''Brien',1);\n" +
			"INSERT INTO `users` (`id`,`name`,`active`) VALUES (2,'Lee, Ann',0);\n" +
			"INSERT INTO `posts` (`id`,`user_id`,`body`,`created_at`) VALUES (1,2,NULL,CURRENT_TIMESTAMP);\n"},
		{DialectPostgres, `INSERT INTO "users" ("id","name","active") VALUES (1,'O''Brien',TRUE);` + "\n" +
			`INSERT INTO "users" ("id","name","active") VALUES (2,'Lee, Ann',FALSE);` + "\n" +
			`INSERT INTO "posts" ("id","user_id","body","created_at") VALUES (1,2,NULL,CURRENT_TIMESTAMP);` + "\n"},
		{DialectSQLite, `INSERT INTO "users" ("id","name","active") VALUES (1,'O''Brien',1);` + "\n" +
			`INSERT INTO "users" ("id","name","active") VALUES (2,'Lee, Ann',0);` + "\n" +
			`INSERT INTO "posts" ("id","user_id","body","created_at") VALUES (1,2,NULL,CURRENT_TIMESTAMP);` + "\n"},
	}

	for _, tt := range tests {
		t.Run(string(tt.dialect), func(t *testing.T) {
			var buf bytes.Buffer
			if err := EncodeSQL(&buf, sampleTables, tt.dialect); err != nil {
				t.Fatalf("Failed to encode: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("Expected:\n%s\ngot:\n%s", tt.want, buf.String())
			}
		})
	}
}

func TestLiteral(t *testing.T) {
	tests := []struct {
		dialect Dialect
		value   interface{}
		want    string
	}{
		{DialectMySQL, `back\slash`, `'back\\slash'`},
		{DialectSQLite, `back\slash`, `'back\slash'`},
		{DialectPostgres, `back\slash`, `E'back\\slash'`},
		{DialectMySQL, 2.5, "2.5"},
		{DialectMySQL, uint(7), "7"},
		{DialectMySQL, time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC), "'2024-02-03 04:05:06'"},
		{DialectMySQL, []byte("raw"), "'raw'"},
	}

	for _, tt := range tests {
		if got := tt.dialect.Literal(tt.value); got != tt.want {
			t.Errorf("Expected %s for %v in %s, got %s", tt.want, tt.value, tt.dialect, got)
		}
	}
}

func TestParseDialect(t *testing.T) {
	tests := map[string]Dialect{
		"":         DialectMySQL,
		"MariaDB":  DialectMySQL,
		"postgres": DialectPostgres,
		"pg":       DialectPostgres,
		"sqlite3":  DialectSQLite,
	}
	for in, want := range tests {
		got, err := ParseDialect(in)
		if err != nil || got != want {
			t.Errorf("Expected %s for %q, got %s (%v)", want, in, got, err)
		}
	}
	if _, err := ParseDialect("oracle"); err == nil {
		t.Error("Expected unsupported dialect to fail")
	}
}

func TestEncodeCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeCSV(&buf, sampleTables[0]); err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	want := "id,name,active\n1,O'Brien,1\n2,\"Lee, Ann\",0\n"
	if buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}

	buf.Reset()
	if err := EncodeCSV(&buf, sampleTables[2]); err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	if want := "id,user_id,body,created_at\n1,2,,CURRENT_TIMESTAMP\n"; buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}
}

func TestWriteSQL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.sql")

	if err := WriteSQL(path, sampleTables, DialectMySQL); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if strings.Count(string(data), "INSERT INTO") != 3 {
		t.Errorf("Expected 3 inserts, got %s", data)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("Expected only the output file, got %d entries", len(entries))
	}
}

func TestWriteAtomicRemovesTempOnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.sql")
	boom := errors.New("boom")

	err := writeAtomic(path, func(w io.Writer) error {
		io.WriteString(w, "partial")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("Expected no files after failure, got %d", len(entries))
	}
}

func TestWriteCSVArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.zip")

	if err := WriteCSVArchive(path, sampleTables); err != nil {
		t.Fatalf("Failed to write archive: %v", err)
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}
	defer r.Close()

	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	if strings.Join(names, ",") != "users.csv,posts.csv" {
		t.Errorf("Expected users.csv,posts.csv, got %v", names)
	}

	rc, err := r.File[0].Open()
	if err != nil {
		t.Fatalf("Failed to open entry: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if !strings.HasPrefix(string(data), "id,name,active\n") {
		t.Errorf("Expected header row, got %q", data)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected scratch files removed, got %d entries", len(entries))
	}
}
