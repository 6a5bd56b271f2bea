// Package discovery implements Symbol Discovery: a pass over
// the parsed AST that declares every named construct into a per-Def
// symbol.GlobalSymbolTable (declarations are scoped
// to their enclosing Def, not to the whole file) plus a per-CTN
// symbol.LocalSymbolTable for local STATE/OBJECT declarations, catching
// duplicate declarations (E060) before any reference is resolved.
package discovery

import (
	"github.com/esp-lang/espcore/internal/ast"
	"github.com/esp-lang/espcore/internal/diagnostics"
	"github.com/esp-lang/espcore/internal/source"
	"github.com/esp-lang/espcore/internal/symbol"
	"github.com/esp-lang/espcore/internal/token"
)

// Tables holds the symbol tables produced for one file: one global table
// per Def, and one local table per CTN leaf that declares local symbols.
type Tables struct {
	Global map[*ast.Def]*symbol.GlobalSymbolTable
	Local  map[*ast.CriterionNode]*symbol.LocalSymbolTable
}

// TotalSymbols counts every declared symbol across all Defs' global
// tables and all CTN-local tables, the symbol-count figure reported in a
// run's processing stats.
func (t *Tables) TotalSymbols() int {
	total := 0
	for _, tbl := range t.Global {
		for _, k := range []symbol.Kind{symbol.KindVariable, symbol.KindState, symbol.KindObject, symbol.KindSet} {
			total += len(tbl.Names(k))
		}
	}
	for _, local := range t.Local {
		total += local.Len()
	}
	return total
}

// Discover walks file and returns its Tables, recording a
// CodeDuplicateSymbol diagnostic for every redeclaration within the same
// Kind and scope. Discovery never halts early: every declaration is visited
// so the tables reflect as much of the file as possible even when
// duplicates are present; the compiler halts after this pass if any of
// them were reported.
func Discover(file *ast.EspFile, diags *diagnostics.List) *Tables {
	tables := &Tables{
		Global: make(map[*ast.Def]*symbol.GlobalSymbolTable),
		Local:  make(map[*ast.CriterionNode]*symbol.LocalSymbolTable),
	}
	for _, d := range file.Defs {
		tables.Global[d] = discoverDef(d, diags, tables)
	}
	return tables
}

func discoverDef(d *ast.Def, diags *diagnostics.List, tables *Tables) *symbol.GlobalSymbolTable {
	tbl := symbol.NewGlobalSymbolTable()

	for _, v := range d.Variables {
		declareOne(tbl, diags, symbol.KindVariable, v.Name, v.Span)
	}
	for _, s := range d.States {
		declareOne(tbl, diags, symbol.KindState, s.Name, s.Span)
	}
	for _, o := range d.Objects {
		declareOne(tbl, diags, symbol.KindObject, o.Name, o.Span)
	}
	for _, s := range d.Sets {
		declareOne(tbl, diags, symbol.KindSet, s.Name, s.Span)
	}
	for _, r := range d.Runs {
		// A RUN's target shares the VARIABLE namespace: the grammar's only
		// reference form for a computed value is `VAR <name>`, whether that
		// name was bound by VAR or assigned to by RUN.
		declareOne(tbl, diags, symbol.KindVariable, r.Target, r.Span)
	}

	walkCriteria(d.CriteriaTrees, func(ctn *ast.CriterionNode) {
		tables.Local[ctn] = discoverLocal(ctn, diags)
	})

	return tbl
}

// discoverLocal builds the CTN-local table from its local STATE
// declarations and at most one local OBJECT (the parser already reports
// E061 for a second local OBJECT and keeps only the last one it parsed;
// this pass declares that one).
func discoverLocal(ctn *ast.CriterionNode, diags *diagnostics.List) *symbol.LocalSymbolTable {
	tbl := symbol.NewLocalSymbolTable(ctn.Type)
	for _, s := range ctn.LocalStates {
		if !tbl.Declare(s.Name, symbol.KindState, s.Span) {
			diags.Add(diagnostics.New(diagnostics.CodeDuplicateSymbol,
				"duplicate local state declaration: "+s.Name, &s.Span))
		}
	}
	if ctn.LocalObject != nil {
		if !tbl.Declare(ctn.LocalObject.Name, symbol.KindObject, ctn.LocalObject.Span) {
			diags.Add(diagnostics.New(diagnostics.CodeDuplicateSymbol,
				"duplicate local object declaration: "+ctn.LocalObject.Name, &ctn.LocalObject.Span))
		}
	}
	return tbl
}

// walkCriteria visits every CTN leaf in a Def's CRI forest, recursing
// through nested CRI combinators.
func walkCriteria(blocks []*ast.CriteriaBlock, fn func(*ast.CriterionNode)) {
	for _, b := range blocks {
		if b == nil {
			continue
		}
		if b.Kind == ast.CriteriaLeaf && b.Leaf != nil {
			fn(b.Leaf)
			continue
		}
		walkCriteria(b.Children, fn)
	}
}

func declareOne(tbl *symbol.GlobalSymbolTable, diags *diagnostics.List, kind symbol.Kind, name string, span source.Span) {
	// Belt-and-braces: the lexer already refuses reserved keywords in
	// identifier position, but a hand-built AST (tests, tooling) can still
	// smuggle one in.
	if token.IsReserved(name) {
		diags.Add(diagnostics.New(diagnostics.CodeReservedKeyword,
			"reserved keyword used as a "+string(kind)+" name: "+name, &span))
	}
	prior, added := tbl.Declare(kind, name, span)
	if !added {
		diags.Add(diagnostics.New(diagnostics.CodeDuplicateSymbol,
			"duplicate "+string(kind)+" declaration: "+name, &span).
			WithContext("first declared", prior.Span.String()))
	}
}
