package seeder

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/Rana718/ddlseed/internal/export"
	"github.com/Rana718/ddlseed/internal/schema"
	"github.com/Rana718/ddlseed/internal/types"
)

// Fallback unique values for date and time columns count up from here.
var fallbackBase = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// tableState is the key pool of one table: the rows finalized so far.
type tableState struct {
	table    *types.Table
	rows     [][]interface{}
	colIndex map[string]int
}

// fkRef ties a column to the foreign key constraint that supplies it.
type fkRef struct {
	constraint int
	parent     string
	columns    []string // paired child columns
	parentCols []string // referenced columns, same length as columns
	position   int
	exclusive  bool // the columns cover a unique key, so each parent row is used once
}

type poolKey struct {
	table   string
	columns string
}

// parentPool caches which parent rows carry non-null values in every
// referenced column. It is extended as the parent grows.
type parentPool struct {
	scanned int
	rows    []int
}

// exclusivePool hands out parent rows that no earlier child row uses.
type exclusivePool struct {
	taken int
	avail []int
}

// generator holds all mutable state of one Generate call. Nothing outlives
// the call.
type generator struct {
	schema     *types.Schema
	cfg        *types.GenerationConfig
	rand       *rand.Rand
	faker      *Faker
	values     ValueSource
	maxRetries int
	progress   progress

	keyPools      map[string]*tableState
	parentPools   map[poolKey]*parentPool
	exclusive     map[poolKey]*exclusivePool
	uniqueSeen    map[string]map[int]map[string]struct{}
	autoIncrement map[string]int64
	fallback      map[string]int64
}

func newGenerator(s *types.Schema, cfg *types.GenerationConfig, seed int64, opts Options) *generator {
	r := rand.New(rand.NewSource(seed))
	faker := NewFaker(r)
	var values ValueSource = faker
	if opts.Values != nil {
		values = opts.Values
	}
	return &generator{
		schema:        s,
		cfg:           cfg,
		rand:          r,
		faker:         faker,
		values:        values,
		maxRetries:    opts.maxRetries(),
		progress:      progress{quiet: opts.Quiet},
		keyPools:      make(map[string]*tableState),
		parentPools:   make(map[poolKey]*parentPool),
		exclusive:     make(map[poolKey]*exclusivePool),
		uniqueSeen:    make(map[string]map[int]map[string]struct{}),
		autoIncrement: make(map[string]int64),
		fallback:      make(map[string]int64),
	}
}

// run generates every table in the given order. Tables without a config
// entry produce no rows.
func (g *generator) run(ctx context.Context, order []types.Table) ([]export.TableRows, error) {
	out := make([]export.TableRows, 0, len(order))
	for i := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t := &order[i]
		count, _ := g.cfg.RowCount(t.Name)
		if count > 0 {
			g.progress.info("  📝 Generating %s (%d rows)...", t.Name, count)
		}
		rows, err := g.generateTable(ctx, t, int(count))
		if err != nil {
			return nil, err
		}
		out = append(out, export.TableRows{Table: t.Name, Columns: t.ColumnNames(), Rows: rows})
	}
	return out, nil
}

func (g *generator) generateTable(ctx context.Context, t *types.Table, count int) ([][]interface{}, error) {
	state := &tableState{
		table:    t,
		rows:     make([][]interface{}, 0, count),
		colIndex: make(map[string]int, len(t.Columns)),
	}
	for i, col := range t.Columns {
		state.colIndex[col.Name] = i
	}
	// registered before generating so self references see earlier rows
	g.keyPools[t.Name] = state

	fks := foreignKeys(t)
	uniques := t.UniqueConstraints()
	seen := make(map[int]map[string]struct{}, len(uniques))
	for i := range uniques {
		seen[i] = make(map[string]struct{})
	}
	g.uniqueSeen[t.Name] = seen

	for r := 0; r < count; r++ {
		if r > 0 && r%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row, err := g.generateRow(state, fks, uniques)
		if err != nil {
			return nil, err
		}
		state.rows = append(state.rows, row)
	}
	return state.rows, nil
}

// foreignKeys maps each paired foreign key column to its constraint.
func foreignKeys(t *types.Table) map[string]fkRef {
	refs := make(map[string]fkRef)
	uniques := t.UniqueConstraints()
	for ci, con := range t.Constraints {
		if con.Type != types.ConstraintForeignKey {
			continue
		}
		n := min(len(con.Columns), len(con.ReferenceColumns))
		exclusive := false
		for _, u := range uniques {
			if containsAll(con.Columns[:n], u.Columns) {
				exclusive = true
				break
			}
		}
		for i := 0; i < n; i++ {
			if _, ok := refs[con.Columns[i]]; ok {
				continue
			}
			refs[con.Columns[i]] = fkRef{
				constraint: ci,
				parent:     con.ReferenceTable,
				columns:    con.Columns[:n],
				parentCols: con.ReferenceColumns[:n],
				position:   i,
				exclusive:  exclusive,
			}
		}
	}
	return refs
}

func containsAll(set, sub []string) bool {
	for _, s := range sub {
		found := false
		for _, v := range set {
			if v == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (g *generator) generateRow(state *tableState, fks map[string]fkRef, uniques []types.Constraint) ([]interface{}, error) {
	t := state.table
	row := make([]interface{}, len(t.Columns))
	picks := make(map[int]int)

	for i := range t.Columns {
		v, err := g.columnValue(state, i, fks, picks)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}

	seen := g.uniqueSeen[t.Name]
	for attempt := 0; ; attempt++ {
		dup := -1
		for ci, con := range uniques {
			key, ok := tupleKey(state, con, row)
			if !ok {
				continue
			}
			if _, exists := seen[ci][key]; exists {
				dup = ci
				break
			}
		}
		if dup < 0 {
			break
		}

		con := uniques[dup]
		columns := strings.Join(con.Columns, ", ")
		implicated := g.implicatedColumns(state, con, fks)
		if attempt >= g.maxRetries || len(implicated) == 0 {
			return nil, &GenerationError{
				Table:  t.Name,
				Column: columns,
				Reason: fmt.Sprintf("no unused value for (%s) after %d attempts; the constraint cannot fit %d rows",
					columns, attempt, len(state.rows)+1),
				Err: ErrUniqueExhausted,
			}
		}

		for _, i := range implicated {
			ref, ok := fks[t.Columns[i].Name]
			if !ok {
				continue
			}
			if idx, picked := picks[ref.constraint]; picked && ref.exclusive {
				g.releaseExclusive(t.Name, ref, idx)
			}
			delete(picks, ref.constraint)
		}
		for _, i := range implicated {
			v, err := g.columnValue(state, i, fks, picks)
			if err != nil {
				return nil, err
			}
			row[i] = v
		}
	}

	for ci, con := range uniques {
		if key, ok := tupleKey(state, con, row); ok {
			seen[ci][key] = struct{}{}
		}
	}
	return row, nil
}

// implicatedColumns lists the columns to regenerate after a collision on
// con. Auto-increment columns are never regenerated; a foreign key column
// pulls in the rest of its constraint so composite references stay whole.
func (g *generator) implicatedColumns(state *tableState, con types.Constraint, fks map[string]fkRef) []int {
	t := state.table
	marked := make(map[int]bool)
	for _, name := range con.Columns {
		i, ok := state.colIndex[name]
		if !ok || t.Columns[i].AutoIncrement {
			continue
		}
		marked[i] = true
		if ref, ok := fks[name]; ok {
			for _, sibling := range ref.columns {
				if j, ok := state.colIndex[sibling]; ok && !t.Columns[j].AutoIncrement {
					marked[j] = true
				}
			}
		}
	}
	out := make([]int, 0, len(marked))
	for i := range t.Columns {
		if marked[i] {
			out = append(out, i)
		}
	}
	return out
}

// tupleKey encodes the values of con's columns. Tuples holding a NULL never
// collide, as in SQL.
func tupleKey(state *tableState, con types.Constraint, row []interface{}) (string, bool) {
	var b strings.Builder
	for _, name := range con.Columns {
		i, ok := state.colIndex[name]
		if !ok || row[i] == nil {
			return "", false
		}
		fmt.Fprintf(&b, "%T\x00%v\x1f", row[i], row[i])
	}
	return b.String(), true
}

// columnValue applies the value precedence for one column: auto-increment,
// foreign key, unique, provider, declared default, type default.
func (g *generator) columnValue(state *tableState, i int, fks map[string]fkRef, picks map[int]int) (interface{}, error) {
	t := state.table
	col := &t.Columns[i]
	provider := g.cfg.Provider(t.Name, col.Name)

	if col.AutoIncrement {
		g.autoIncrement[t.Name]++
		return g.autoIncrement[t.Name], nil
	}

	if ref, ok := fks[col.Name]; ok {
		return g.foreignKeyValue(t, col, ref, picks)
	}

	if col.IsUnique || col.IsPrimaryKey {
		if provider != "" {
			return g.draw(t, col, provider, true)
		}
		return g.fallbackUnique(t, col), nil
	}

	if provider != "" {
		return g.draw(t, col, provider, false)
	}

	if col.DefaultValue != nil {
		return defaultValue(*col.DefaultValue), nil
	}

	return g.typeDefault(col), nil
}

func (g *generator) draw(t *types.Table, col *types.Column, provider string, unique bool) (interface{}, error) {
	v, err := g.values.Draw(provider, unique)
	if err != nil {
		return nil, &GenerationError{Table: t.Name, Column: col.Name, Reason: err.Error(), Err: err}
	}
	return v, nil
}

// foreignKeyValue picks a parent row uniformly at random and returns its
// referenced value. Columns of one composite key share the same pick.
func (g *generator) foreignKeyValue(t *types.Table, col *types.Column, ref fkRef, picks map[int]int) (interface{}, error) {
	parent := g.keyPools[ref.parent]

	idx, ok := picks[ref.constraint]
	if !ok && ref.exclusive {
		if idx, ok = g.takeExclusive(t.Name, ref); !ok {
			if col.Nullable {
				return nil, nil
			}
			if len(g.candidates(ref)) > 0 {
				return nil, &GenerationError{
					Table:  t.Name,
					Column: col.Name,
					Reason: fmt.Sprintf("every row of parent table %s is already referenced", ref.parent),
					Err:    ErrUniqueExhausted,
				}
			}
		}
	} else if !ok {
		if candidates := g.candidates(ref); len(candidates) > 0 {
			idx, ok = candidates[g.rand.Intn(len(candidates))], true
		}
	}
	if !ok {
		if col.Nullable {
			return nil, nil
		}
		return nil, &GenerationError{
			Table:  t.Name,
			Column: col.Name,
			Reason: fmt.Sprintf("column is required but parent table %s has no rows to reference", ref.parent),
			Err:    ErrParentEmpty,
		}
	}
	picks[ref.constraint] = idx
	return parent.rows[idx][parent.colIndex[ref.parentCols[ref.position]]], nil
}

// takeExclusive removes a random unused parent row from the pool of a
// unique foreign key.
func (g *generator) takeExclusive(table string, ref fkRef) (int, bool) {
	key := poolKey{table: table, columns: strconv.Itoa(ref.constraint)}
	pool := g.exclusive[key]
	if pool == nil {
		pool = &exclusivePool{}
		g.exclusive[key] = pool
	}
	candidates := g.candidates(ref)
	for ; pool.taken < len(candidates); pool.taken++ {
		pool.avail = append(pool.avail, candidates[pool.taken])
	}
	if len(pool.avail) == 0 {
		return 0, false
	}
	j := g.rand.Intn(len(pool.avail))
	idx := pool.avail[j]
	pool.avail[j] = pool.avail[len(pool.avail)-1]
	pool.avail = pool.avail[:len(pool.avail)-1]
	return idx, true
}

func (g *generator) releaseExclusive(table string, ref fkRef, idx int) {
	key := poolKey{table: table, columns: strconv.Itoa(ref.constraint)}
	if pool := g.exclusive[key]; pool != nil {
		pool.avail = append(pool.avail, idx)
	}
}

// candidates returns the parent rows that can be referenced by ref.
func (g *generator) candidates(ref fkRef) []int {
	parent := g.keyPools[ref.parent]
	if parent == nil {
		return nil
	}
	cols := make([]int, len(ref.parentCols))
	for i, name := range ref.parentCols {
		idx, ok := parent.colIndex[name]
		if !ok {
			return nil
		}
		cols[i] = idx
	}

	key := poolKey{table: ref.parent, columns: strings.Join(ref.parentCols, ",")}
	pool := g.parentPools[key]
	if pool == nil {
		pool = &parentPool{}
		g.parentPools[key] = pool
	}
	for ; pool.scanned < len(parent.rows); pool.scanned++ {
		row := parent.rows[pool.scanned]
		usable := true
		for _, c := range cols {
			if row[c] == nil {
				usable = false
				break
			}
		}
		if usable {
			pool.rows = append(pool.rows, pool.scanned)
		}
	}
	return pool.rows
}

// fallbackUnique synthesizes a never-repeating value from a per-column
// counter, shaped by the declared type.
func (g *generator) fallbackUnique(t *types.Table, col *types.Column) interface{} {
	key := t.Name + "." + col.Name
	g.fallback[key]++
	n := g.fallback[key]

	dt := strings.ToLower(col.DataType)
	switch {
	case isNumericType(dt):
		return n
	case strings.Contains(dt, "uuid"):
		return g.faker.uuid()
	case strings.Contains(dt, "date") && !strings.Contains(dt, "time"):
		return fallbackBase.AddDate(0, 0, int(n)).Format(dateLayout)
	case strings.Contains(dt, "time"):
		ts := fallbackBase.Add(time.Duration(n) * time.Second)
		if strings.Contains(dt, "stamp") || strings.Contains(dt, "date") {
			return ts.Format(dateTimeLayout)
		}
		return ts.Format(timeLayout)
	}
	return fmt.Sprintf("%s_%d", col.Name, n)
}

func isNumericType(dt string) bool {
	for _, kw := range []string{"int", "serial", "decimal", "numeric", "number", "float", "double", "real"} {
		if strings.Contains(dt, kw) {
			return true
		}
	}
	return false
}

// typeDefault derives a value from keywords in the declared type.
func (g *generator) typeDefault(col *types.Column) interface{} {
	if labels := g.enumLabels(col.DataType); len(labels) > 0 {
		return g.faker.pick(labels)
	}

	dt := strings.ToLower(col.DataType)
	switch {
	case strings.Contains(dt, "int"):
		return g.randomInt(dt)
	case strings.Contains(dt, "char") || strings.Contains(dt, "text") || strings.Contains(dt, "string"):
		return g.faker.pick(words)
	case strings.Contains(dt, "date") || strings.Contains(dt, "time"):
		ts := g.faker.moment(epoch, horizon)
		switch {
		case strings.Contains(dt, "stamp") || strings.Contains(dt, "datetime"):
			return ts.Format(dateTimeLayout)
		case strings.Contains(dt, "date"):
			return ts.Format(dateLayout)
		}
		return ts.Format(timeLayout)
	case strings.Contains(dt, "bool"):
		return g.rand.Intn(2) == 1
	case strings.Contains(dt, "decimal") || strings.Contains(dt, "numeric") || strings.Contains(dt, "float") ||
		strings.Contains(dt, "double") || strings.Contains(dt, "real"):
		return math.Round(g.rand.Float64()*1000000) / 100
	case strings.Contains(dt, "uuid"):
		return g.faker.uuid()
	case strings.Contains(dt, "json"):
		return "{}"
	}
	return nil
}

// enumLabels resolves inline enum('a','b') types and named enum types.
func (g *generator) enumLabels(dataType string) []string {
	lower := strings.ToLower(dataType)
	if strings.HasPrefix(lower, "enum(") || strings.HasPrefix(lower, "set(") {
		return schema.EnumValues(dataType)
	}
	if labels, ok := g.schema.Enum(dataType); ok {
		return labels
	}
	return nil
}

func (g *generator) randomInt(dt string) int64 {
	switch {
	case strings.Contains(dt, "tinyint"):
		return g.rand.Int63n(128)
	case strings.Contains(dt, "smallint"):
		return g.rand.Int63n(32768)
	case strings.Contains(dt, "mediumint"):
		return g.rand.Int63n(8388608)
	}
	return g.rand.Int63n(1000000) + 1
}

// defaultValue interprets a declared DEFAULT expression. Literals become Go
// values; anything else (CURRENT_TIMESTAMP, now(), ...) is kept as an
// expression and written unquoted.
func defaultValue(expr string) interface{} {
	s := strings.TrimSpace(expr)
	for wrappedInParens(s) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	switch {
	case len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'':
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	case strings.EqualFold(s, "NULL"):
		return nil
	case strings.EqualFold(s, "TRUE"):
		return true
	case strings.EqualFold(s, "FALSE"):
		return false
	}

	if s != "" && strings.ContainsRune("+-.0123456789", rune(s[0])) {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return types.SQLExpr(s)
}

// wrappedInParens reports whether the first "(" of s closes at its end.
func wrappedInParens(s string) bool {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return false
	}
	depth := 0
	inString := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\'':
			inString = !inString
		case inString:
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				return false
			}
		}
	}
	return depth == 0
}
