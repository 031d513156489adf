package schema

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Rana718/ddlseed/internal/types"
)

func mustTable(t *testing.T, s *types.Schema, name string) *types.Table {
	t.Helper()
	table := s.Table(name)
	if table == nil {
		t.Fatalf("Expected table %s, got tables %v", name, s.TableNames())
	}
	return table
}

func mustColumn(t *testing.T, table *types.Table, name string) *types.Column {
	t.Helper()
	col := table.Column(name)
	if col == nil {
		t.Fatalf("Expected column %s.%s, got columns %v", table.Name, name, table.ColumnNames())
	}
	return col
}

func TestParseSchemaMySQLTable(t *testing.T) {
	ddl := `
CREATE TABLE IF NOT EXISTS users (
  id INT NOT NULL AUTO_INCREMENT,
  email VARCHAR(255) NOT NULL UNIQUE,
  name varchar(100),
  balance DECIMAL(10, 2) UNSIGNED DEFAULT '0.00',
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
  PRIMARY KEY (id),
  KEY idx_name (name(20))
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

	s, err := ParseSchema(ddl)
	if err != nil {
		t.Fatalf("ParseSchema failed: %v", err)
	}
	users := mustTable(t, s, "users")

	if len(users.Columns) != 5 {
		t.Fatalf("Expected 5 columns, got %d", len(users.Columns))
	}

	id := mustColumn(t, users, "id")
	if !id.AutoIncrement || !id.IsPrimaryKey || id.Nullable {
		t.Errorf("Expected id to be a non-null auto-increment primary key, got %+v", id)
	}

	email := mustColumn(t, users, "email")
	if email.DataType != "VARCHAR(255)" {
		t.Errorf("Expected email type 'VARCHAR(255)', got '%s'", email.DataType)
	}
	if !email.IsUnique || email.Nullable {
		t.Errorf("Expected email to be unique and NOT NULL, got %+v", email)
	}

	if !mustColumn(t, users, "name").Nullable {
		t.Error("Expected name to be nullable")
	}

	balance := mustColumn(t, users, "balance")
	if balance.DataType != "DECIMAL(10,2) UNSIGNED" {
		t.Errorf("Expected balance type 'DECIMAL(10,2) UNSIGNED', got '%s'", balance.DataType)
	}
	if balance.DefaultValue == nil || *balance.DefaultValue != "'0.00'" {
		t.Errorf("Expected balance default '0.00' literal, got %v", balance.DefaultValue)
	}

	created := mustColumn(t, users, "created_at")
	if created.DefaultValue == nil || *created.DefaultValue != "CURRENT_TIMESTAMP" {
		t.Errorf("Expected created_at default CURRENT_TIMESTAMP, got %v", created.DefaultValue)
	}

	if len(users.Indexes) != 1 || users.Indexes[0].Name != "idx_name" {
		t.Errorf("Expected index idx_name, got %+v", users.Indexes)
	}
}

func TestParseSchemaPostgresForeignKeys(t *testing.T) {
	ddl := `
CREATE TABLE users (id serial PRIMARY KEY, email text NOT NULL);
CREATE TABLE "public"."orders" (
  id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
  user_id integer NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  status text DEFAULT 'new'::text,
  placed_at timestamp with time zone DEFAULT now(),
  total numeric(10, 2) DEFAULT 0.00
);`

	s, err := ParseSchema(ddl)
	if err != nil {
		t.Fatalf("ParseSchema failed: %v", err)
	}

	orders := mustTable(t, s, "orders")
	if !mustColumn(t, orders, "id").AutoIncrement {
		t.Error("Expected identity column to be auto-increment")
	}
	if !mustColumn(t, mustTable(t, s, "users"), "id").AutoIncrement {
		t.Error("Expected serial column to be auto-increment")
	}

	userID := mustColumn(t, orders, "user_id")
	if !userID.IsForeignKey || userID.Nullable {
		t.Errorf("Expected user_id to be a NOT NULL foreign key, got %+v", userID)
	}

	if got := *mustColumn(t, orders, "status").DefaultValue; got != "'new'" {
		t.Errorf("Expected cast stripped from default, got %s", got)
	}
	if got := mustColumn(t, orders, "placed_at").DataType; got != "timestamp with time zone" {
		t.Errorf("Expected 'timestamp with time zone', got '%s'", got)
	}
	if got := *mustColumn(t, orders, "placed_at").DefaultValue; got != "now()" {
		t.Errorf("Expected default now(), got %s", got)
	}

	want := types.Relationship{FromTable: "orders", FromColumn: "user_id", ToTable: "users", ToColumn: "id"}
	if len(s.Relationships) != 1 || s.Relationships[0] != want {
		t.Errorf("Expected relationship %+v, got %+v", want, s.Relationships)
	}
}

func TestParseSchemaAlterTableAnywhere(t *testing.T) {
	ddl := `
ALTER TABLE comments ADD CONSTRAINT fk_post FOREIGN KEY (post_id) REFERENCES posts (id);
CREATE TABLE posts (id bigint PRIMARY KEY);
CREATE TABLE comments (id bigint PRIMARY KEY, post_id bigint);`

	s, err := ParseSchema(ddl)
	if err != nil {
		t.Fatalf("ParseSchema failed: %v", err)
	}

	comments := mustTable(t, s, "comments")
	if !mustColumn(t, comments, "post_id").IsForeignKey {
		t.Error("Expected post_id to be flagged as a foreign key")
	}
	if len(s.Relationships) != 1 || s.Relationships[0].ToTable != "posts" {
		t.Errorf("Expected one relationship to posts, got %+v", s.Relationships)
	}
}

func TestParseSchemaPgDump(t *testing.T) {
	ddl := `
SET statement_timeout = 0;
CREATE TABLE public.items (
    id integer NOT NULL,
    sku character varying(32) NOT NULL
);
CREATE SEQUENCE public.items_id_seq AS integer START WITH 1;
ALTER TABLE ONLY public.items ALTER COLUMN id SET DEFAULT nextval('public.items_id_seq'::regclass);
ALTER TABLE ONLY public.items
    ADD CONSTRAINT items_pkey PRIMARY KEY (id);
ALTER TABLE ONLY public.items
    ADD CONSTRAINT items_sku_key UNIQUE (sku);`

	s, err := ParseSchema(ddl)
	if err != nil {
		t.Fatalf("ParseSchema failed: %v", err)
	}

	items := mustTable(t, s, "items")
	id := mustColumn(t, items, "id")
	if !id.AutoIncrement || !id.IsPrimaryKey || id.DefaultValue != nil {
		t.Errorf("Expected sequence-backed primary key without default, got %+v", id)
	}

	sku := mustColumn(t, items, "sku")
	if sku.DataType != "character varying(32)" {
		t.Errorf("Expected 'character varying(32)', got '%s'", sku.DataType)
	}
	if !sku.IsUnique {
		t.Error("Expected sku to be unique")
	}
}

func TestParseSchemaMySQLDumpAlters(t *testing.T) {
	ddl := "CREATE TABLE `t` (`id` int(11) NOT NULL, `label` varchar(20));\n" +
		"ALTER TABLE `t` ADD PRIMARY KEY (`id`), ADD KEY `idx_label` (`label`);\n" +
		"ALTER TABLE `t` MODIFY `id` int(11) NOT NULL AUTO_INCREMENT;"

	s, err := ParseSchema(ddl)
	if err != nil {
		t.Fatalf("ParseSchema failed: %v", err)
	}

	table := mustTable(t, s, "t")
	id := mustColumn(t, table, "id")
	if !id.AutoIncrement || !id.IsPrimaryKey || id.DataType != "int(11)" {
		t.Errorf("Expected MODIFY to make id auto-increment, got %+v", id)
	}
	if len(table.Indexes) != 1 || table.Indexes[0].Name != "idx_label" {
		t.Errorf("Expected index idx_label, got %+v", table.Indexes)
	}
}

func TestParseSchemaDeduplicatesConstraints(t *testing.T) {
	ddl := `
CREATE TABLE accounts (
  id int PRIMARY KEY,
  email text UNIQUE,
  CONSTRAINT accounts_email_key UNIQUE (email),
  PRIMARY KEY (id)
);
CREATE UNIQUE INDEX accounts_email_idx ON accounts (email);`

	s, err := ParseSchema(ddl)
	if err != nil {
		t.Fatalf("ParseSchema failed: %v", err)
	}

	accounts := mustTable(t, s, "accounts")
	if got := len(accounts.UniqueConstraints()); got != 2 {
		t.Errorf("Expected 2 unique constraints (primary key and email), got %d: %+v", got, accounts.Constraints)
	}
	if len(accounts.Indexes) != 1 || !accounts.Indexes[0].Unique {
		t.Errorf("Expected one unique index, got %+v", accounts.Indexes)
	}
}

func TestParseSchemaTruncatesMismatchedForeignKeys(t *testing.T) {
	ddl := `
CREATE TABLE p (a int, b int, PRIMARY KEY (a, b));
CREATE TABLE c (x int, FOREIGN KEY (x) REFERENCES p (a, b));`

	s, err := ParseSchema(ddl)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected *ParseError, got %v", err)
	}
	if len(perr.Issues) != 1 {
		t.Errorf("Expected one reported issue, got %v", perr.Issues)
	}
	if s == nil || s.Error == "" {
		t.Fatal("Expected a partial schema carrying the error message")
	}

	want := types.Relationship{FromTable: "c", FromColumn: "x", ToTable: "p", ToColumn: "a"}
	if len(s.Relationships) != 1 || s.Relationships[0] != want {
		t.Errorf("Expected only %+v, got %+v", want, s.Relationships)
	}
}

func TestParseSchemaLenientRetry(t *testing.T) {
	ddl := `
CREATE TABLE bookings (
  id int PRIMARY KEY,
  room int,
  during tsrange,
  EXCLUDE USING gist (room WITH =, during WITH &&)
);`

	s, err := ParseSchema(ddl)
	if err != nil {
		t.Fatalf("Expected lenient parse to succeed, got %v", err)
	}
	if got := len(mustTable(t, s, "bookings").Columns); got != 3 {
		t.Errorf("Expected 3 columns, got %d", got)
	}
}

func TestParseSchemaCollectsFailures(t *testing.T) {
	ddl := `
CREATE TABLE good (id int);
CREATE TABLE broken (id int, name varchar(20;`

	s, err := ParseSchema(ddl)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected *ParseError, got %v", err)
	}
	if len(perr.Failures) != 1 {
		t.Errorf("Expected 1 failed statement, got %d", len(perr.Failures))
	}
	if len(s.Tables) != 1 || s.Tables[0].Name != "good" {
		t.Errorf("Expected only table good, got %v", s.TableNames())
	}
}

func TestParseSchemaNoTables(t *testing.T) {
	for _, ddl := range []string{"", "SELECT 1;", "-- only a comment"} {
		if _, err := ParseSchema(ddl); !errors.Is(err, ErrNoTables) {
			t.Errorf("ParseSchema(%q): expected ErrNoTables, got %v", ddl, err)
		}
	}
}

func TestParseSchemaReferenceDefaultsToPrimaryKey(t *testing.T) {
	ddl := `
CREATE TABLE a (id int PRIMARY KEY);
CREATE TABLE b (a_id int REFERENCES a);`

	s, err := ParseSchema(ddl)
	if err != nil {
		t.Fatalf("ParseSchema failed: %v", err)
	}
	want := types.Relationship{FromTable: "b", FromColumn: "a_id", ToTable: "a", ToColumn: "id"}
	if len(s.Relationships) != 1 || s.Relationships[0] != want {
		t.Errorf("Expected %+v, got %+v", want, s.Relationships)
	}
}

func TestParseSchemaCaseInsensitiveNames(t *testing.T) {
	ddl := `
CREATE TABLE Users (ID int, x int, x text);
ALTER TABLE users ADD PRIMARY KEY (id);`

	s, err := ParseSchema(ddl)
	if err != nil {
		t.Fatalf("ParseSchema failed: %v", err)
	}
	users := mustTable(t, s, "Users")
	if pk := users.PrimaryKey(); len(pk) != 1 || pk[0] != "ID" {
		t.Errorf("Expected primary key [ID], got %v", pk)
	}
	if len(users.Columns) != 2 || mustColumn(t, users, "x").DataType != "text" {
		t.Errorf("Expected the later definition of x to win, got %+v", users.Columns)
	}
}

func TestParseSchemaEnums(t *testing.T) {
	ddl := `
CREATE TYPE mood AS ENUM ('happy', 'it''s complicated');
CREATE TABLE people (id int, feeling mood, size ENUM('s','m','l'));`

	s, err := ParseSchema(ddl)
	if err != nil {
		t.Fatalf("ParseSchema failed: %v", err)
	}
	values, ok := s.Enum("mood")
	if !ok || len(values) != 2 || values[1] != "it's complicated" {
		t.Errorf("Expected enum mood with 2 labels, got %v", values)
	}
	size := mustColumn(t, mustTable(t, s, "people"), "size")
	if got := EnumValues(size.DataType); len(got) != 3 {
		t.Errorf("Expected 3 inline enum labels in %q, got %v", size.DataType, got)
	}
}

func TestParseSchemaDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"001_users.sql": "CREATE TABLE users (id int PRIMARY KEY)",
		"002_posts.sql": "CREATE TABLE posts (id int PRIMARY KEY, user_id int REFERENCES users (id));",
		"notes.txt":     "CREATE TABLE ignored (id int);",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	s, err := ParseSchemaPath(dir)
	if err != nil {
		t.Fatalf("ParseSchemaPath failed: %v", err)
	}
	if got := s.TableNames(); len(got) != 2 || got[0] != "users" || got[1] != "posts" {
		t.Errorf("Expected [users posts], got %v", got)
	}
	if len(s.Relationships) != 1 {
		t.Errorf("Expected 1 relationship, got %d", len(s.Relationships))
	}
}
