package seeder

import "github.com/Rana718/ddlseed/internal/types"

// DependencyGraph orders tables so that every parent precedes the tables
// holding foreign keys to it.
type DependencyGraph struct {
	names    []string
	index    map[string][]int
	children map[int][]int
	edges    map[[2]int]bool
	inDegree []int
	order    []int
	cycles   []string
}

func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		index:    make(map[string][]int),
		children: make(map[int][]int),
		edges:    make(map[[2]int]bool),
	}
}

// AddTable registers a table. Tables are remembered in the order added,
// which breaks ties in the resulting order.
func (g *DependencyGraph) AddTable(name string) {
	g.index[name] = append(g.index[name], len(g.names))
	g.names = append(g.names, name)
	g.inDegree = append(g.inDegree, 0)
}

// AddDependency records that child references parent. Self references,
// unknown tables and repeated edges are ignored.
func (g *DependencyGraph) AddDependency(child, parent string) {
	if child == parent {
		return
	}
	for _, p := range g.index[parent] {
		for _, c := range g.index[child] {
			edge := [2]int{p, c}
			if g.edges[edge] {
				continue
			}
			g.edges[edge] = true
			g.children[p] = append(g.children[p], c)
			g.inDegree[c]++
		}
	}
}

// BuildInsertionOrder runs Kahn's algorithm. Tables caught in a cycle are
// appended after everything else in their original relative order, so an
// order is always produced.
func (g *DependencyGraph) BuildInsertionOrder() []string {
	inDegree := append([]int(nil), g.inDegree...)
	placed := make([]bool, len(g.names))

	var queue []int
	for i, d := range inDegree {
		if d == 0 {
			queue = append(queue, i)
		}
	}

	g.order = g.order[:0]
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		g.order = append(g.order, n)
		placed[n] = true
		for _, c := range g.children[n] {
			inDegree[c]--
			if inDegree[c] == 0 {
				queue = append(queue, c)
			}
		}
	}

	g.cycles = nil
	for i := range g.names {
		if !placed[i] {
			g.order = append(g.order, i)
			g.cycles = append(g.cycles, g.names[i])
		}
	}

	return g.GetOrder()
}

func (g *DependencyGraph) GetOrder() []string {
	order := make([]string, len(g.order))
	for i, n := range g.order {
		order[i] = g.names[n]
	}
	return order
}

// Cycles returns the tables the last BuildInsertionOrder could not place
// topologically.
func (g *DependencyGraph) Cycles() []string {
	return g.cycles
}

// SortTables returns tables reordered so parents come before children. The
// result is a permutation of the input and is deterministic.
func SortTables(tables []types.Table, relationships []types.Relationship) []types.Table {
	sorted, _ := sortTables(tables, relationships)
	return sorted
}

func sortTables(tables []types.Table, relationships []types.Relationship) ([]types.Table, []string) {
	g := NewDependencyGraph()
	for _, t := range tables {
		g.AddTable(t.Name)
	}
	for _, rel := range relationships {
		g.AddDependency(rel.FromTable, rel.ToTable)
	}
	g.BuildInsertionOrder()

	sorted := make([]types.Table, len(g.order))
	for i, n := range g.order {
		sorted[i] = tables[n]
	}
	return sorted, g.Cycles()
}

// SortSchema rewrites s.Tables into dependency order and returns the tables
// involved in foreign key cycles, if any.
func SortSchema(s *types.Schema) []string {
	sorted, cycles := sortTables(s.Tables, s.Relationships)
	s.Tables = sorted
	return cycles
}
