package resolver

import (
	"github.com/esp-lang/espcore/internal/ast"
	"github.com/esp-lang/espcore/internal/resolved"
	"github.com/esp-lang/espcore/internal/types"
)

// resolveObjects builds one resolved.ResolvedObject per ast.ObjectDecl in
// source order, substituting every field/parameter/select value and
// expanding any embedded SET_REF/inline set into concrete object
// references. An object carrying set elements stops contributing itself
// to r.members and contributes its expansion instead, so a criterion that
// names it through OBJECT_REF sees the expanded membership.
func (r *defResolver) resolveObjects() []resolved.ResolvedObject {
	out := make([]resolved.ResolvedObject, 0, len(r.def.Objects))
	for _, o := range r.def.Objects {
		ro, refs, _ := r.resolveObjectDecl(o)
		if refs != nil {
			r.members[o.Name] = dedupeRefs(refs)
		}
		out = append(out, ro)
	}
	return out
}

// resolveObjectDecl walks one OBJECT's elements in source order. Element
// order inside an OBJECT is free (unlike a CTN), so every element kind is
// handled independently and appended/assigned as it is seen.
//
// refs is the expanded membership contributed by SET_REF/inline-set
// elements (nil when the object has none), with the object's own FILTER
// element attached to each produced reference. pure reports whether the
// object is nothing but a set container — only set elements, optionally a
// filter — which callers holding a CTN-local object use to replace the
// object with its expansion outright.
func (r *defResolver) resolveObjectDecl(o *ast.ObjectDecl) (resolved.ResolvedObject, []resolved.ResolvedObjectRef, bool) {
	ro := resolved.ResolvedObject{Name: o.Name}
	var refs []resolved.ResolvedObjectRef
	pure := true

	for _, el := range o.Elements {
		switch {
		case el.Field != nil:
			pure = false
			ro.Fields = append(ro.Fields, resolved.ResolvedObjectField{
				Name: el.Field.Name, Value: r.resolveExpr(el.Field.Value),
			})

		case el.Module != nil:
			pure = false
			ro.Module = &resolved.ResolvedModule{
				Name: el.Module.Name, Version: el.Module.Version,
				Command: el.Module.Command, Type: el.Module.Type,
			}

		case el.Parameters != nil:
			pure = false
			if ro.Parameters == nil {
				ro.Parameters = make(map[string]types.Value, len(el.Parameters.Values))
			}
			for k, v := range el.Parameters.Values {
				if v.IsVarRef() {
					ro.Parameters[k] = r.resolveVariable(v.VarRef)
				} else {
					ro.Parameters[k] = v
				}
			}

		case el.Select != nil:
			pure = false
			ro.Select = &resolved.ResolvedSelect{
				Field: el.Select.Field, Op: el.Select.Op, Rhs: r.resolveExpr(el.Select.Rhs),
			}

		case el.Behavior != nil:
			pure = false
			val := el.Behavior.Value
			if val.IsVarRef() {
				val = r.resolveVariable(val.VarRef)
			}
			ro.Behaviors = append(ro.Behaviors, resolved.ResolvedBehavior{
				Key: el.Behavior.Key, Value: val,
			})

		case el.Filter != nil:
			ro.Filter = &resolved.ResolvedFilter{
				Action: string(el.Filter.Action), States: el.Filter.States,
			}

		case el.SetRef != nil:
			ro.Sources = append(ro.Sources, el.SetRef.Name)
			refs = append(refs, r.expandRef(el.SetRef.Name, map[string]bool{})...)

		case el.InlineSet != nil:
			refs = append(refs, r.expandSetOp(el.InlineSet.Op, map[string]bool{})...)

		case el.RecordChk != nil:
			pure = false
			// record checks inside an object describe expected record-field
			// shape; they carry no resolvable value on their own beyond the
			// StateField comparisons already reachable through Fields/Checks
			// on the enclosing STATE, so nothing further to substitute here.
		}
	}

	if ro.Filter != nil && refs != nil {
		refs = attachFilter(refs, *ro.Filter)
	}
	if refs == nil {
		pure = false
	}
	return ro, refs, pure
}

// dedupeRefs drops later duplicates by object identifier, preserving
// first-seen order and the first occurrence's filter annotations.
func dedupeRefs(refs []resolved.ResolvedObjectRef) []resolved.ResolvedObjectRef {
	seen := make(map[string]bool, len(refs))
	out := make([]resolved.ResolvedObjectRef, 0, len(refs))
	for _, ref := range refs {
		if !seen[ref.Name] {
			seen[ref.Name] = true
			out = append(out, ref)
		}
	}
	return out
}

// resolveSets builds one resolved.ResolvedSet per ast.SetDecl, expanding its
// operator tree into a concrete, ordered, deduplicated membership list.
// The result is kept for audit only: every criterion that once
// referenced this SET now holds concrete object references instead.
func (r *defResolver) resolveSets() []resolved.ResolvedSet {
	out := make([]resolved.ResolvedSet, 0, len(r.def.Sets))
	for _, s := range r.def.Sets {
		operands := make([]string, 0, len(s.Op.Operands))
		for _, op := range s.Op.Operands {
			operands = append(operands, op.Name)
		}
		members := r.expandSetOp(s.Op, map[string]bool{})
		names := make([]string, 0, len(members))
		for _, m := range members {
			names = append(names, m.Name)
		}
		rs := resolved.ResolvedSet{
			Name: s.Name, Kind: string(s.Op.Kind), Operands: operands,
			Members: names,
		}
		if s.Op.Filter != nil {
			rs.Filter = &resolved.ResolvedFilter{
				Action: string(s.Op.Filter.Action), States: s.Op.Filter.States,
			}
		}
		out = append(out, rs)
	}
	return out
}
