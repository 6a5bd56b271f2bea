// Package structural implements Structural Validation: the
// final cheap checks performed before handoff to the resolver — CRI-forest
// shape, a CTN's TEST clause (a belt-and-braces re-check of what the parser
// already enforces fatally), and the eleven implementation limits that
// bound how large a single compile unit may grow.
package structural

import (
	"fmt"

	"github.com/esp-lang/espcore/internal/ast"
	"github.com/esp-lang/espcore/internal/diagnostics"
	"github.com/esp-lang/espcore/internal/discovery"
	"github.com/esp-lang/espcore/internal/reference"
	"github.com/esp-lang/espcore/internal/symbol"
)

// Limits bounds the size of a single compiled file, guarding the resolver
// and set-expansion stages against pathological input.
type Limits struct {
	MaxGlobalSymbols       int
	MaxLocalSymbolsPerCTN  int
	MaxSymbolRelationships int
	MaxReferenceDepth      int
	MaxReferencesPerSymbol int
	MaxDependencyNodes     int
	MaxSemanticErrors      int
	MaxSetOperands         int
	MaxCriNestingDepth     int
	MaxCriteriaBlocks      int
	MaxSymbolsPerDef       int
}

// DefaultLimits holds the production limit defaults.
var DefaultLimits = Limits{
	MaxGlobalSymbols:       50_000,
	MaxLocalSymbolsPerCTN:  1_000,
	MaxSymbolRelationships: 100_000,
	MaxReferenceDepth:      50,
	MaxReferencesPerSymbol: 10_000,
	MaxDependencyNodes:     100_000,
	MaxSemanticErrors:      1_000,
	MaxSetOperands:         100,
	MaxCriNestingDepth:     10,
	MaxCriteriaBlocks:      1_000,
	MaxSymbolsPerDef:       10_000,
}

var globalKinds = []symbol.Kind{symbol.KindVariable, symbol.KindState, symbol.KindObject, symbol.KindSet}

// Validate reports, against file's parsed shape plus the symbol tables and
// reference graphs already built for it:
//   - E121 when a Def declares zero CRI trees
//   - E122 when a CRI declares zero children (belt-and-braces; the parser
//     already makes this fatal at parse time)
//   - E120 when a CTN under a CRI combinator lacks its TEST clause
//     (belt-and-braces)
//   - E123 when any configured implementation limit is exceeded
//
// Breach of any limit is fatal, so Validate keeps accumulating
// every other check's diagnostics but the caller is expected to halt the
// pipeline on any E123 exactly as it would for any other Error diagnostic.
func Validate(file *ast.EspFile, tables *discovery.Tables, graphs reference.FileGraphs, diags *diagnostics.List, lim Limits) {
	if lim == (Limits{}) {
		lim = DefaultLimits
	}

	globalTotal := 0
	for _, d := range file.Defs {
		checkDefShape(d, diags)
		checkDefLimits(d, tables, graphs, diags, lim)
		if tbl, ok := tables.Global[d]; ok {
			for _, k := range globalKinds {
				globalTotal += len(tbl.Names(k))
			}
		}
	}
	checkLimit(diags, "global symbols", globalTotal, lim.MaxGlobalSymbols)
}

func checkDefShape(d *ast.Def, diags *diagnostics.List) {
	if len(d.CriteriaTrees) == 0 {
		diags.Add(diagnostics.New(diagnostics.CodeMissingDef,
			"DEF declares no CRI trees; a def must contain at least one", &d.Span))
	}
	for _, cri := range d.CriteriaTrees {
		checkCriShape(cri, diags, 1)
	}
}

func checkCriShape(block *ast.CriteriaBlock, diags *diagnostics.List, depth int) {
	if block == nil {
		return
	}
	if block.Kind != ast.CriteriaCombinator {
		return
	}
	if len(block.Children) == 0 {
		diags.Add(diagnostics.New(diagnostics.CodeMissingCTN,
			"CRI requires at least one child", &block.Span))
	}
	checkCriterionOrder(block, diags)
	for _, c := range block.Children {
		checkCriShape(c, diags, depth+1)
	}
}

// checkCriterionOrder re-checks that each CTN leaf directly under block
// carries its TEST clause, a belt-and-braces re-check of the parser's
// fatal E120; the order of the remaining elements is not re-checked.
func checkCriterionOrder(block *ast.CriteriaBlock, diags *diagnostics.List) {
	for _, c := range block.Children {
		if c.Kind != ast.CriteriaLeaf || c.Leaf == nil {
			continue
		}
		node := c.Leaf
		if node.Test == nil {
			diags.Add(diagnostics.New(diagnostics.CodeInvalidBlockOrdering,
				"CTN "+node.Type+" is missing its TEST clause", &node.Span))
		}
	}
}

func checkDefLimits(d *ast.Def, tables *discovery.Tables, graphs reference.FileGraphs, diags *diagnostics.List, lim Limits) {
	defTotal := len(d.Variables) + len(d.States) + len(d.Objects) + len(d.Sets) + len(d.Runs)
	checkLimit(diags, "symbols per definition", defTotal, lim.MaxSymbolsPerDef)

	nestDepth := criNestingDepth(d.CriteriaTrees)
	checkLimit(diags, "CRI nesting depth", nestDepth, lim.MaxCriNestingDepth)

	blocks := 0
	for _, cri := range d.CriteriaTrees {
		blocks += countCriteriaBlocks(cri)
	}
	checkLimit(diags, "criteria blocks", blocks, lim.MaxCriteriaBlocks)

	walkLocal(d.CriteriaTrees, func(node *ast.CriterionNode) {
		local, ok := tables.Local[node]
		if !ok {
			return
		}
		count := len(node.LocalStates)
		if node.LocalObject != nil {
			count++
		}
		_ = local
		checkLimit(diags, "local symbols in CTN "+node.Type, count, lim.MaxLocalSymbolsPerCTN)
	})

	for _, s := range d.Sets {
		checkLimit(diags, "SET operands in "+s.Name, len(s.Op.Operands), lim.MaxSetOperands)
	}
	for _, o := range d.Objects {
		for _, el := range o.Elements {
			if el.InlineSet != nil {
				checkLimit(diags, "SET operands in inline set", len(el.InlineSet.Op.Operands), lim.MaxSetOperands)
			}
		}
	}

	if g, ok := graphs[d]; ok {
		checkGraphLimits(g.Variables, diags, lim)
		checkGraphLimits(g.Sets, diags, lim)
	}
}

func checkGraphLimits(g *symbol.ReferenceGraph, diags *diagnostics.List, lim Limits) {
	if g == nil {
		return
	}
	nodes := g.Nodes()
	checkLimit(diags, "dependency nodes", len(nodes), lim.MaxDependencyNodes)

	relationships := 0
	for _, n := range nodes {
		edges := g.Edges(n)
		relationships += len(edges)
		checkLimit(diags, "references from "+n, len(edges), lim.MaxReferencesPerSymbol)
	}
	checkLimit(diags, "symbol relationships", relationships, lim.MaxSymbolRelationships)

	depth := longestPath(g, nodes)
	checkLimit(diags, "reference depth", depth, lim.MaxReferenceDepth)
}

// longestPath returns the longest simple path length reachable from any
// node in g, memoizing per node since the graph is expected acyclic by the
// time structural validation runs (a cycle would already have halted the
// pipeline at Reference Validation).
func longestPath(g *symbol.ReferenceGraph, nodes []string) int {
	memo := make(map[string]int)
	var visit func(n string) int
	visit = func(n string) int {
		if d, ok := memo[n]; ok {
			return d
		}
		best := 0
		for _, next := range g.Edges(n) {
			if d := visit(next) + 1; d > best {
				best = d
			}
		}
		memo[n] = best
		return best
	}
	max := 0
	for _, n := range nodes {
		if d := visit(n); d > max {
			max = d
		}
	}
	return max
}

func criNestingDepth(blocks []*ast.CriteriaBlock) int {
	max := 0
	for _, b := range blocks {
		if d := blockDepth(b); d > max {
			max = d
		}
	}
	return max
}

func blockDepth(b *ast.CriteriaBlock) int {
	if b == nil || b.Kind == ast.CriteriaLeaf {
		return 1
	}
	max := 0
	for _, c := range b.Children {
		if d := blockDepth(c); d > max {
			max = d
		}
	}
	return max + 1
}

func countCriteriaBlocks(b *ast.CriteriaBlock) int {
	if b == nil {
		return 0
	}
	total := 1
	for _, c := range b.Children {
		total += countCriteriaBlocks(c)
	}
	return total
}

func walkLocal(blocks []*ast.CriteriaBlock, fn func(*ast.CriterionNode)) {
	for _, b := range blocks {
		if b == nil {
			continue
		}
		if b.Kind == ast.CriteriaLeaf && b.Leaf != nil {
			fn(b.Leaf)
			continue
		}
		walkLocal(b.Children, fn)
	}
}

func checkLimit(diags *diagnostics.List, what string, count, max int) {
	if max > 0 && count > max {
		diags.Add(diagnostics.New(diagnostics.CodeLimitExceeded,
			fmt.Sprintf("%s: %d exceeds the configured limit of %d", what, count, max), nil))
	}
}
