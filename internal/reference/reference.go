// Package reference implements Reference Validation: every
// named reference in a Def's declarations — VAR uses, SET operand
// references, OBJECT's FILTER/SET_REF, CTN's STATE_REF/OBJECT_REF — must
// resolve against that Def's GlobalSymbolTable, and the VARIABLE and SET
// dependency graphs must be acyclic. The per-CTN LocalSymbolTables are not
// consulted: a CTN-local STATE or OBJECT is never a reference target.
package reference

import (
	"github.com/esp-lang/espcore/internal/ast"
	"github.com/esp-lang/espcore/internal/diagnostics"
	"github.com/esp-lang/espcore/internal/discovery"
	"github.com/esp-lang/espcore/internal/source"
	"github.com/esp-lang/espcore/internal/symbol"
)

// Graphs bundles the two independent dependency graphs Reference
// Validation builds for one Def: VARIABLE-to-VARIABLE (the resolver's
// resolution DAG, which also carries RUN-target-to-VARIABLE edges since a
// RUN assigns into the same namespace a VAR declares into) and
// SET-to-(SET|OBJECT) (set expansion).
type Graphs struct {
	Variables *symbol.ReferenceGraph
	Sets      *symbol.ReferenceGraph
}

// FileGraphs holds one Graphs per Def in a file.
type FileGraphs map[*ast.Def]*Graphs

// Validate walks file's Defs against tables, emitting:
//   - E080 for any reference to an undeclared name
//   - E081 when a name resolves but under the wrong Kind (e.g. a SET_REF
//     naming a STATE)
//   - E082 for a VARIABLE/RUN-target dependency cycle
//   - E083 for a SET dependency cycle
//   - E104 for a FILTER referencing anything but a declared global state
//
// It returns a Graphs per Def regardless of whether errors were found, so
// the resolver can still inspect acyclic portions of a partially broken
// file during tests and tooling.
func Validate(file *ast.EspFile, tables *discovery.Tables, diags *diagnostics.List) FileGraphs {
	out := make(FileGraphs, len(file.Defs))
	for _, d := range file.Defs {
		out[d] = validateDef(d, tables, diags)
	}
	return out
}

func validateDef(d *ast.Def, tables *discovery.Tables, diags *diagnostics.List) *Graphs {
	tbl := tables.Global[d]
	g := &Graphs{Variables: symbol.NewReferenceGraph(), Sets: symbol.NewReferenceGraph()}

	for _, v := range d.Variables {
		if v.Initial.IsVarRef() {
			checkRef(tbl, diags, v.Initial.VarRef, symbol.KindVariable, v.Initial.Span)
			g.Variables.Edge(v.Name, v.Initial.VarRef)
		}
	}

	for _, s := range d.States {
		checkFields(tbl, diags, s.Fields)
		checkRecordChecks(tbl, diags, s.Checks)
	}

	for _, o := range d.Objects {
		validateObjectRefs(tbl, diags, g, o)
	}

	for _, s := range d.Sets {
		walkSetOp(tbl, diags, g.Sets, s.Name, s.Op)
	}

	for _, r := range d.Runs {
		for _, p := range r.Params {
			if p.VarRef != "" {
				checkRef(tbl, diags, p.VarRef, symbol.KindVariable, p.Span)
				g.Variables.Edge(r.Target, p.VarRef)
			}
			if p.SetRef != "" {
				checkRef(tbl, diags, p.SetRef, symbol.KindSet, p.Span)
			}
			if p.Obj != nil {
				checkRef(tbl, diags, p.Obj.Object, symbol.KindObject, p.Span)
			}
		}
	}

	for _, cri := range d.CriteriaTrees {
		validateCriteria(tbl, tables, diags, g, cri)
	}

	if cyc := g.Variables.FindCycle(); cyc != nil {
		diags.Add(diagnostics.New(diagnostics.CodeCircularDependency,
			"circular VARIABLE/RUN dependency: "+symbol.DescribeCycle(cyc), nil))
	}
	if cyc := g.Sets.FindCycle(); cyc != nil {
		diags.Add(diagnostics.New(diagnostics.CodeSetCycle,
			"circular SET dependency: "+symbol.DescribeCycle(cyc), nil))
	}

	return g
}

func validateObjectRefs(tbl *symbol.GlobalSymbolTable, diags *diagnostics.List, g *Graphs, o *ast.ObjectDecl) {
	for _, el := range o.Elements {
		switch {
		case el.Field != nil && el.Field.Value.IsVarRef():
			checkRef(tbl, diags, el.Field.Value.VarRef, symbol.KindVariable, el.Span)
		case el.Select != nil && el.Select.Rhs.IsVarRef():
			checkRef(tbl, diags, el.Select.Rhs.VarRef, symbol.KindVariable, el.Span)
		case el.Behavior != nil && el.Behavior.Value.IsVarRef():
			checkRef(tbl, diags, el.Behavior.Value.VarRef, symbol.KindVariable, el.Span)
		case el.Filter != nil:
			checkFilterStates(tbl, diags, el.Filter.States, el.Span)
		case el.SetRef != nil:
			checkRef(tbl, diags, el.SetRef.Name, symbol.KindSet, el.Span)
			g.Sets.Edge(o.Name, el.SetRef.Name)
		case el.RecordChk != nil:
			checkFields(tbl, diags, el.RecordChk.Fields)
			checkRecordChecks(tbl, diags, el.RecordChk.Nested)
		case el.InlineSet != nil:
			walkSetOp(tbl, diags, g.Sets, o.Name, el.InlineSet.Op)
		}
	}
}

func checkFields(tbl *symbol.GlobalSymbolTable, diags *diagnostics.List, fields []*ast.StateField) {
	for _, f := range fields {
		if f.Value.IsVarRef() {
			checkRef(tbl, diags, f.Value.VarRef, symbol.KindVariable, f.Span)
		}
	}
}

func checkRecordChecks(tbl *symbol.GlobalSymbolTable, diags *diagnostics.List, checks []*ast.RecordCheck) {
	for _, c := range checks {
		checkFields(tbl, diags, c.Fields)
		checkRecordChecks(tbl, diags, c.Nested)
	}
}

func walkSetOp(tbl *symbol.GlobalSymbolTable, diags *diagnostics.List, g *symbol.ReferenceGraph, owner string, op *ast.SetOp) {
	if op == nil {
		return
	}
	for _, operand := range op.Operands {
		switch operand.Kind {
		case ast.OperandObjectRef:
			checkRef(tbl, diags, operand.Name, symbol.KindObject, operand.Span)
		case ast.OperandSetRef:
			checkRef(tbl, diags, operand.Name, symbol.KindSet, operand.Span)
			g.Edge(owner, operand.Name)
		}
	}
	if op.Filter != nil {
		checkFilterStates(tbl, diags, op.Filter.States, op.Span)
	}
}

// validateCriteria walks a Def's CRI forest, checking each CTN leaf's
// STATE_REF/OBJECT_REF against the Def's global table and descending into
// nested CRI combinators.
func validateCriteria(tbl *symbol.GlobalSymbolTable, tables *discovery.Tables, diags *diagnostics.List, g *Graphs, block *ast.CriteriaBlock) {
	if block == nil {
		return
	}
	if block.Kind == ast.CriteriaLeaf {
		validateCriterion(tbl, diags, block.Leaf)
		return
	}
	for _, child := range block.Children {
		validateCriteria(tbl, tables, diags, g, child)
	}
}

func validateCriterion(tbl *symbol.GlobalSymbolTable, diags *diagnostics.List, node *ast.CriterionNode) {
	if node == nil {
		return
	}
	for _, name := range node.StateRefs {
		checkRef(tbl, diags, name, symbol.KindState, node.Span)
	}
	for _, name := range node.ObjectRefs {
		checkRef(tbl, diags, name, symbol.KindObject, node.Span)
	}
	for _, s := range node.LocalStates {
		checkFields(tbl, diags, s.Fields)
		checkRecordChecks(tbl, diags, s.Checks)
	}
	if node.LocalObject != nil {
		for _, el := range node.LocalObject.Elements {
			switch {
			case el.Field != nil && el.Field.Value.IsVarRef():
				checkRef(tbl, diags, el.Field.Value.VarRef, symbol.KindVariable, el.Span)
			case el.Select != nil && el.Select.Rhs.IsVarRef():
				checkRef(tbl, diags, el.Select.Rhs.VarRef, symbol.KindVariable, el.Span)
			case el.Behavior != nil && el.Behavior.Value.IsVarRef():
				checkRef(tbl, diags, el.Behavior.Value.VarRef, symbol.KindVariable, el.Span)
			case el.Filter != nil:
				checkFilterStates(tbl, diags, el.Filter.States, el.Span)
			case el.SetRef != nil:
				checkRef(tbl, diags, el.SetRef.Name, symbol.KindSet, el.Span)
			case el.InlineSet != nil && el.InlineSet.Op != nil:
				for _, operand := range el.InlineSet.Op.Operands {
					switch operand.Kind {
					case ast.OperandObjectRef:
						checkRef(tbl, diags, operand.Name, symbol.KindObject, operand.Span)
					case ast.OperandSetRef:
						checkRef(tbl, diags, operand.Name, symbol.KindSet, operand.Span)
					}
				}
			}
		}
	}
}

// checkFilterStates validates a FILTER clause's STATE_REF list: a filter
// may only reference Def-global states, never a CTN-local one (which is
// not addressable by name) nor a symbol of another kind. E104.
func checkFilterStates(tbl *symbol.GlobalSymbolTable, diags *diagnostics.List, states []string, span source.Span) {
	for _, st := range states {
		sym, ok := tbl.LookupAny(st)
		if !ok {
			diags.Add(diagnostics.New(diagnostics.CodeFilterStateInvalid,
				"filter references undeclared state: "+st, &span))
			continue
		}
		if sym.Kind != symbol.KindState {
			diags.Add(diagnostics.New(diagnostics.CodeFilterStateInvalid,
				"filter reference "+st+" must name a global state, found a "+string(sym.Kind), &span))
		}
	}
}

// checkRef resolves name against tbl and reports E080 (undeclared) or E081
// (declared under a different Kind than expected).
func checkRef(tbl *symbol.GlobalSymbolTable, diags *diagnostics.List, name string, want symbol.Kind, span source.Span) {
	sym, ok := tbl.LookupAny(name)
	if !ok {
		diags.Add(diagnostics.New(diagnostics.CodeUnresolvedReference, "undeclared reference: "+name, &span))
		return
	}
	if sym.Kind != want {
		diags.Add(diagnostics.New(diagnostics.CodeWrongScope,
			name+" must be a "+string(want)+", found "+string(sym.Kind), &span))
	}
}
