// Package symbol holds the symbol tables built during Symbol Discovery
// and consulted during Reference Validation:
// a global table per Def of variables/states/objects/sets/run targets, and a
// per-CTN local table for scoped names. Lookup is mutex-guarded since a
// symbol table built by one file's single-threaded pipeline may later be
// read concurrently by parallel batch workers (internal/batch).
package symbol

import (
	"sort"
	"sync"

	"github.com/esp-lang/espcore/internal/source"
)

// Kind classifies what a Symbol names.
type Kind string

const (
	KindVariable Kind = "variable"
	KindState    Kind = "state"
	KindObject   Kind = "object"
	KindSet      Kind = "set"
)

// Symbol is one declared name: its kind and declaration span. A local
// symbol's owning CTN is recorded on its LocalSymbolTable, not here.
type Symbol struct {
	Name string
	Kind Kind
	Span source.Span
}

// GlobalSymbolTable indexes every declaration of one Def by name, keyed
// separately per Kind so a VARIABLE and an OBJECT may not collide:
// names are unique within their own declaration kind, not globally.
type GlobalSymbolTable struct {
	mu      sync.RWMutex
	symbols map[Kind]map[string]Symbol
}

// NewGlobalSymbolTable builds an empty table.
func NewGlobalSymbolTable() *GlobalSymbolTable {
	return &GlobalSymbolTable{symbols: make(map[Kind]map[string]Symbol)}
}

// Declare registers name under kind. It returns the prior Symbol and false
// if name is already declared for that kind (a duplicate-symbol error,
// E060, is the caller's responsibility to raise).
func (t *GlobalSymbolTable) Declare(kind Kind, name string, span source.Span) (prior Symbol, added bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	bucket, ok := t.symbols[kind]
	if !ok {
		bucket = make(map[string]Symbol)
		t.symbols[kind] = bucket
	}
	if existing, exists := bucket[name]; exists {
		return existing, false
	}
	bucket[name] = Symbol{Name: name, Kind: kind, Span: span}
	return Symbol{}, true
}

// Lookup finds a declared symbol of the given kind by name.
func (t *GlobalSymbolTable) Lookup(kind Kind, name string) (Symbol, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	bucket, ok := t.symbols[kind]
	if !ok {
		return Symbol{}, false
	}
	s, ok := bucket[name]
	return s, ok
}

// LookupAny finds name across every kind, for diagnostics that need to
// report "did you mean a VARIABLE instead of a STATE?"-style messages.
func (t *GlobalSymbolTable) LookupAny(name string) (Symbol, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, bucket := range t.symbols {
		if s, ok := bucket[name]; ok {
			return s, true
		}
	}
	return Symbol{}, false
}

// Names returns every declared name for a kind, for topological-sort input
// and for test assertions. Order is unspecified; callers needing source
// order must sort separately using each Symbol's Span.
func (t *GlobalSymbolTable) Names(kind Kind) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	bucket := t.symbols[kind]
	out := make([]string, 0, len(bucket))
	for name := range bucket {
		out = append(out, name)
	}
	return out
}

// LocalSymbolTable holds names scoped to a single CTN: its local STATE
// declarations and at most one local OBJECT, none of which pollute the
// enclosing Def's global namespace.
type LocalSymbolTable struct {
	Owner   string // the enclosing CTN's contract type
	symbols map[string]Symbol
}

// NewLocalSymbolTable builds an empty local table scoped to owner.
func NewLocalSymbolTable(owner string) *LocalSymbolTable {
	return &LocalSymbolTable{Owner: owner, symbols: make(map[string]Symbol)}
}

// Declare registers a locally scoped name, returning false if it is
// already present in this scope.
func (t *LocalSymbolTable) Declare(name string, kind Kind, span source.Span) bool {
	if _, exists := t.symbols[name]; exists {
		return false
	}
	t.symbols[name] = Symbol{Name: name, Kind: kind, Span: span}
	return true
}

// Len returns the number of locally declared symbols.
func (t *LocalSymbolTable) Len() int { return len(t.symbols) }

// Lookup finds a locally scoped name.
func (t *LocalSymbolTable) Lookup(name string) (Symbol, bool) {
	s, ok := t.symbols[name]
	return s, ok
}

// ReferenceGraph tracks named references between declarations (VARIABLE
// referencing VARIABLE, RUN referencing the VARIABLEs it reads, SET
// referencing OBJECT/SET, OBJECT referencing the SET it wraps)
// for both cycle detection and the dependency DAG the
// resolver builds on top of the same edges.
type ReferenceGraph struct {
	edges map[string][]string // referrer -> referents, in Edge() call order
}

// NewReferenceGraph builds an empty graph.
func NewReferenceGraph() *ReferenceGraph {
	return &ReferenceGraph{edges: make(map[string][]string)}
}

// Edge records that referrer depends on referent.
func (g *ReferenceGraph) Edge(referrer, referent string) {
	g.edges[referrer] = append(g.edges[referrer], referent)
}

// Edges returns the dependency list for referrer, in the order recorded.
func (g *ReferenceGraph) Edges(referrer string) []string {
	return g.edges[referrer]
}

// Nodes returns every node that has at least one outgoing edge recorded.
func (g *ReferenceGraph) Nodes() []string {
	out := make([]string, 0, len(g.edges))
	for n := range g.edges {
		out = append(out, n)
	}
	return out
}

// FindCycle runs depth-first search from every node and returns the first
// cycle found as a path (start...start), or nil if the graph is acyclic.
// DFS starts are ordered lexicographically (the same tie-break the
// resolver's topological sort uses) so the same graph always reports the
// same cycle path, whatever order its edges were recorded in.
// Used both by Reference Validation (E082/E083) and, before the resolver's
// topological sort, as a cheap pre-check that gives a readable cycle path
// rather than Kahn's algorithm's bare "graph has a cycle" signal.
func (g *ReferenceGraph) FindCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int)
	var path []string

	var visit func(n string) []string
	visit = func(n string) []string {
		color[n] = gray
		path = append(path, n)
		for _, next := range g.edges[n] {
			switch color[next] {
			case white:
				if cyc := visit(next); cyc != nil {
					return cyc
				}
			case gray:
				// Found the back edge; slice path from next's first occurrence.
				for i, p := range path {
					if p == next {
						cyc := append(append([]string{}, path[i:]...), next)
						return cyc
					}
				}
				return append(append([]string{}, path...), next)
			}
		}
		path = path[:len(path)-1]
		color[n] = black
		return nil
	}

	nodes := g.Nodes()
	sort.Strings(nodes)
	for _, n := range nodes {
		if color[n] == white {
			if cyc := visit(n); cyc != nil {
				return cyc
			}
		}
	}
	return nil
}

// DescribeCycle renders a cycle path for diagnostic messages, e.g.
// "a -> b -> c -> a".
func DescribeCycle(cycle []string) string {
	s := ""
	for i, n := range cycle {
		if i > 0 {
			s += " -> "
		}
		s += n
	}
	return s
}
