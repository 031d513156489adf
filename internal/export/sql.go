package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/Rana718/ddlseed/internal/types"
	"github.com/lib/pq"
)

// Dialect selects identifier and literal quoting for SQL output.
type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgresql"
	DialectSQLite   Dialect = "sqlite"
)

// ParseDialect accepts the provider names used in configuration, including
// the common aliases.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mysql", "mariadb":
		return DialectMySQL, nil
	case "postgresql", "postgres", "pg":
		return DialectPostgres, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	}
	return "", fmt.Errorf("unsupported dialect %q (use mysql, postgresql or sqlite)", name)
}

const timestampLayout = "2006-01-02 15:04:05"

// QuoteIdentifier strips any quoting already present and quotes name for
// the dialect.
func (d Dialect) QuoteIdentifier(name string) string {
	name = stripQuotes(name)
	switch d {
	case DialectPostgres:
		return pq.QuoteIdentifier(name)
	case DialectSQLite:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	default:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
}

// QuoteLiteral renders s as a string literal.
func (d Dialect) QuoteLiteral(s string) string {
	switch d {
	case DialectPostgres:
		// pq prefixes E-strings with a space
		return strings.TrimSpace(pq.QuoteLiteral(s))
	case DialectMySQL:
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Literal renders a generated value as SQL.
func (d Dialect) Literal(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case types.SQLExpr:
		return string(val)
	case string:
		return d.QuoteLiteral(val)
	case bool:
		if d == DialectPostgres {
			if val {
				return "TRUE"
			}
			return "FALSE"
		}
		if val {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return d.QuoteLiteral(val.Format(timestampLayout))
	case []byte:
		return d.QuoteLiteral(string(val))
	}
	return d.QuoteLiteral(fmt.Sprint(v))
}

// EncodeSQL writes one INSERT statement per row, tables in the given order.
func EncodeSQL(w io.Writer, tables []TableRows, dialect Dialect) error {
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Question)

	for _, t := range tables {
		if len(t.Rows) == 0 {
			continue
		}
		columns := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			columns[i] = dialect.QuoteIdentifier(col)
		}
		into := dialect.QuoteIdentifier(t.Table)

		for _, row := range t.Rows {
			values := make([]interface{}, len(row))
			for i, v := range row {
				values[i] = sq.Expr(dialect.Literal(v))
			}
			stmt, _, err := builder.Insert(into).Columns(columns...).Values(values...).ToSql()
			if err != nil {
				return fmt.Errorf("failed to build insert for %s: %w", t.Table, err)
			}
			if _, err := io.WriteString(w, stmt+";\n"); err != nil {
				return fmt.Errorf("failed to write insert for %s: %w", t.Table, err)
			}
		}
	}
	return nil
}

func csvValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case types.SQLExpr:
		return string(val)
	case bool:
		if val {
			return "1"
		}
		return "0"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.Format(timestampLayout)
	case []byte:
		return string(val)
	}
	return fmt.Sprint(v)
}

// stripQuotes removes one level of identifier quoting.
func stripQuotes(name string) string {
	if len(name) >= 2 {
		first, last := name[0], name[len(name)-1]
		if (first == '`' && last == '`') || (first == '"' && last == '"') || (first == '[' && last == ']') {
			return name[1 : len(name)-1]
		}
	}
	return name
}
