// Package resolver implements the two-phase Resolution Engine:
// given a parsed, validated ast.EspFile plus the symbol tables and
// reference graphs already built for it, it orders every VARIABLE/RUN
// dependency via Kahn's algorithm, substitutes values, executes immediate
// RUN operations, expands set algebra into concrete object-reference
// lists, and emits the platform-agnostic resolved.ExecutionContext an
// external scanner runtime executes. The resolver never talks to a CTN
// implementation directly; it only consults a contract.Registry to warn
// when a criterion's contract type has no registered implementation.
package resolver

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/esp-lang/espcore/internal/ast"
	"github.com/esp-lang/espcore/internal/contract"
	"github.com/esp-lang/espcore/internal/diagnostics"
	"github.com/esp-lang/espcore/internal/discovery"
	"github.com/esp-lang/espcore/internal/reference"
	"github.com/esp-lang/espcore/internal/resolved"
	"github.com/esp-lang/espcore/internal/symbol"
	"github.com/esp-lang/espcore/internal/types"
)

// Options configures a resolve run. Contracts may be nil, in which case no
// CTN-wiring check is performed (useful for tests that only exercise
// substitution and set expansion).
type Options struct {
	Contracts *contract.Registry
}

// defResolver holds the working state for resolving a single Def. One
// instance is built per Def and discarded once it has produced its
// resolved.ResolvedDef.
type defResolver struct {
	def   *ast.Def
	tbl   *symbol.GlobalSymbolTable
	g     *reference.Graphs
	opts  Options
	diags *diagnostics.List

	variables    map[string]ast.Expr      // VAR declarations' initializer, by name
	runBlocks    map[string]*ast.RunBlock // RUN target -> block
	resolvedVars map[string]types.Value
	deferred     []resolved.DeferredOperation

	states  map[string]*ast.StateDecl
	sets    map[string]*ast.SetDecl
	objects map[string]*ast.ObjectDecl
	members map[string][]resolved.ResolvedObjectRef // object name -> expanded, deduplicated references
}

// Resolve runs both resolution phases against a single already-validated
// file and returns the ExecutionContext the scanner runtime will execute.
// Callers should only invoke this on a file whose compiler.Result.Success()
// is true; behavior on a file with outstanding errors is undefined —
// resolution assumes a fully validated AST.
func Resolve(file *ast.EspFile, tables *discovery.Tables, graphs reference.FileGraphs, opts Options, diags *diagnostics.List) *resolved.ExecutionContext {
	ctx := &resolved.ExecutionContext{
		RunID:      uuid.NewString(),
		SourcePath: file.Path,
	}
	if file.Meta != nil {
		for _, f := range file.Meta.Fields {
			ctx.Meta = append(ctx.Meta, resolved.MetaField{Key: f.Key, Value: f.Value})
		}
	}

	for _, d := range file.Defs {
		dr := &defResolver{
			def: d, tbl: tables.Global[d], g: graphs[d], opts: opts, diags: diags,
			variables:    make(map[string]ast.Expr),
			runBlocks:    make(map[string]*ast.RunBlock),
			resolvedVars: make(map[string]types.Value),
			states:       make(map[string]*ast.StateDecl),
			sets:         make(map[string]*ast.SetDecl),
			objects:      make(map[string]*ast.ObjectDecl),
			members:      make(map[string][]resolved.ResolvedObjectRef),
		}
		ctx.Defs = append(ctx.Defs, dr.resolve())
	}
	return ctx
}

// resolve runs the full per-Def pipeline: DAG build, variable/run
// substitution, object/set resolution, and criteria resolution.
func (r *defResolver) resolve() resolved.ResolvedDef {
	for _, v := range r.def.Variables {
		r.variables[v.Name] = v.Initial
	}
	for _, rb := range r.def.Runs {
		r.runBlocks[rb.Target] = rb
	}
	for _, s := range r.def.States {
		r.states[s.Name] = s
	}
	for _, s := range r.def.Sets {
		r.sets[s.Name] = s
	}
	for _, o := range r.def.Objects {
		r.objects[o.Name] = o
		r.members[o.Name] = []resolved.ResolvedObjectRef{{Name: o.Name}}
	}

	names := r.variableNames()
	order, ok := topoSort(r.g.Variables, names)
	if !ok {
		r.diags.Add(diagnostics.New(diagnostics.CodeCircularDependency,
			"variable/run dependency graph is cyclic; cannot order substitution", nil))
	}
	for _, name := range order {
		r.resolveVariable(name)
	}

	rd := resolved.ResolvedDef{Deferred: r.deferred}
	for _, v := range r.def.Variables {
		rd.Variables = append(rd.Variables, resolved.ResolvedVariable{
			Name: v.Name, Type: v.Type, Value: r.resolvedVars[v.Name],
		})
	}
	for _, rb := range r.def.Runs {
		rd.Variables = append(rd.Variables, resolved.ResolvedVariable{
			Name: rb.Target, Value: r.resolvedVars[rb.Target],
		})
	}
	for _, s := range r.def.States {
		rd.States = append(rd.States, r.resolveState(s))
	}
	rd.Objects = r.resolveObjects()
	rd.Sets = r.resolveSets()
	for _, cri := range r.def.CriteriaTrees {
		rd.Criteria = append(rd.Criteria, r.resolveCriteriaBlock(cri))
	}
	return rd
}

// variableNames returns every node in the unified VARIABLE namespace: VAR
// declarations and RUN targets both, since a RUN's target is an
// implicitly declared variable referenced the same way a VAR's is.
func (r *defResolver) variableNames() []string {
	out := make([]string, 0, len(r.variables)+len(r.runBlocks))
	for name := range r.variables {
		out = append(out, name)
	}
	for name := range r.runBlocks {
		out = append(out, name)
	}
	return out
}

// resolveVariable substitutes name's value, following VAR chains and RUN
// computations that were already proven acyclic by Reference Validation.
// Memoized in r.resolvedVars so a variable referenced from multiple sites
// is only substituted once.
func (r *defResolver) resolveVariable(name string) types.Value {
	if v, ok := r.resolvedVars[name]; ok {
		return v
	}
	if expr, ok := r.variables[name]; ok {
		v := r.resolveExpr(expr)
		r.resolvedVars[name] = v
		return v
	}
	if rb, ok := r.runBlocks[name]; ok {
		inputs := r.resolveRunInputs(rb)
		v, isDeferred, obj, field := executeRun(rb.Op, inputs)
		if isDeferred {
			r.deferred = append(r.deferred, resolved.DeferredOperation{
				Target: name, Op: string(rb.Op), Object: obj, Field: field,
			})
		}
		r.resolvedVars[name] = v
		return v
	}
	return types.Value{}
}

// resolveExpr substitutes a single Expr, following one level of VAR
// indirection through resolveVariable's memoized map.
func (r *defResolver) resolveExpr(e ast.Expr) types.Value {
	if e.IsVarRef() {
		return r.resolveVariable(e.VarRef)
	}
	if e.Literal != nil {
		return *e.Literal
	}
	return types.Value{}
}

// resolveField substitutes one state field's value and re-checks it: a
// VAR whose resolved type does not match the declared field type is
// rejected here, after substitution, since semantic analysis could only
// see the unresolved reference.
func (r *defResolver) resolveField(f *ast.StateField) resolved.ResolvedField {
	v := r.resolveExpr(f.Value)
	if !valueMatchesType(v, f.Type) {
		r.diags.Add(diagnostics.New(diagnostics.CodeTypeIncompatibility,
			fmt.Sprintf("field %s declares type %s but its value resolves to %s", f.Name, f.Type, v.Kind), &f.Span))
	}
	if f.Op != "" && !types.Compatible(f.Type, f.Op) {
		r.diags.Add(diagnostics.New(diagnostics.CodeTypeIncompatibility,
			fmt.Sprintf("operation %s is not valid against a %s field", f.Op, f.Type), &f.Span))
	}
	return resolved.ResolvedField{Name: f.Name, Type: f.Type, Op: f.Op, Value: v}
}

// valueMatchesType reports whether a resolved value can inhabit a declared
// field type. The numeric pair converts trivially (an int literal may fill
// a float field); version, evr_string, and binary values are written as
// string literals, so a string-kinded value satisfies them.
func valueMatchesType(v types.Value, t types.Type) bool {
	if v.Kind == "" {
		return true // deferred sentinel, filled at scan time
	}
	switch t {
	case types.Float:
		return v.Kind == types.Float || v.Kind == types.Int
	case types.Version, types.EVRString, types.Binary, types.String:
		return v.Kind == types.String || v.Kind == t
	case types.Record:
		return true
	default:
		return v.Kind == t
	}
}

func (r *defResolver) resolveFields(fs []*ast.StateField) []resolved.ResolvedField {
	out := make([]resolved.ResolvedField, 0, len(fs))
	for _, f := range fs {
		out = append(out, r.resolveField(f))
	}
	return out
}

func (r *defResolver) resolveRecordChecks(cs []*ast.RecordCheck) []resolved.ResolvedRecordCheck {
	out := make([]resolved.ResolvedRecordCheck, 0, len(cs))
	for _, c := range cs {
		out = append(out, resolved.ResolvedRecordCheck{
			Path: c.Path, Type: c.Type,
			Fields: r.resolveFields(c.Fields),
			Nested: r.resolveRecordChecks(c.Nested),
		})
	}
	return out
}

func (r *defResolver) resolveState(s *ast.StateDecl) resolved.ResolvedState {
	return resolved.ResolvedState{
		Name: s.Name, Fields: r.resolveFields(s.Fields), Checks: r.resolveRecordChecks(s.Checks),
	}
}

// checkContract warns when ctnType has no registered contract. Dispatch
// wiring is the host process's responsibility, so an unwired contract is
// never a resolution error.
func (r *defResolver) checkContract(ctnType string) {
	if r.opts.Contracts == nil || ctnType == "" {
		return
	}
	if !r.opts.Contracts.Has(ctnType) {
		r.diags.Add(diagnostics.Warn(diagnostics.CodeUnwiredContract,
			fmt.Sprintf("CTN type %q has no registered contract", ctnType), nil))
	}
}
