package resolver

import (
	"github.com/esp-lang/espcore/internal/ast"
	"github.com/esp-lang/espcore/internal/resolved"
)

// expandSetOp walks a flat set-algebra expression — an operator plus a
// leaf-only operand list (a SetOp never nests another SetOp, only
// OBJECT_REF/SET_REF leaves) — and returns an ordered, deduplicated list
// of object references. Any filter on the SetOp itself is attached to
// every reference the expansion produces.
// visiting guards against infinite recursion on a SET-to-SET cycle;
// Reference Validation already rejects such cycles (E083) before the
// resolver runs, so this is a defensive re-check, the same belt-and-braces
// posture topoSort takes for variable cycles.
func (r *defResolver) expandSetOp(op *ast.SetOp, visiting map[string]bool) []resolved.ResolvedObjectRef {
	if op == nil {
		return nil
	}
	lists := make([][]resolved.ResolvedObjectRef, 0, len(op.Operands))
	for _, operand := range op.Operands {
		lists = append(lists, r.expandRef(operand.Name, visiting))
	}

	var out []resolved.ResolvedObjectRef
	switch op.Kind {
	case ast.SetUnion:
		out = unionAll(lists)
	case ast.SetIntersection:
		out = intersectAll(lists)
	case ast.SetComplement:
		if len(lists) == 2 {
			out = complement(lists[0], lists[1])
		}
	}
	if op.Filter != nil {
		out = attachFilter(out, resolved.ResolvedFilter{
			Action: string(op.Filter.Action), States: op.Filter.States,
		})
	}
	return out
}

// expandRef resolves a leaf reference: a bare identifier that names either
// an OBJECT (itself, the base case) or another SET (expanded recursively,
// carrying that set's own filter on every produced reference).
func (r *defResolver) expandRef(name string, visiting map[string]bool) []resolved.ResolvedObjectRef {
	if _, isObject := r.objects[name]; isObject {
		return []resolved.ResolvedObjectRef{{Name: name}}
	}
	if visiting[name] {
		return nil
	}
	decl, isSet := r.sets[name]
	if !isSet {
		return nil
	}
	visiting[name] = true
	defer delete(visiting, name)
	return r.expandSetOp(decl.Op, visiting)
}

// attachFilter appends f to every reference's filter list, copying the
// slices so references shared with a memoized expansion are not mutated.
func attachFilter(refs []resolved.ResolvedObjectRef, f resolved.ResolvedFilter) []resolved.ResolvedObjectRef {
	out := make([]resolved.ResolvedObjectRef, len(refs))
	for i, ref := range refs {
		filters := make([]resolved.ResolvedFilter, 0, len(ref.Filters)+1)
		filters = append(filters, ref.Filters...)
		filters = append(filters, f)
		out[i] = resolved.ResolvedObjectRef{Name: ref.Name, Filters: filters}
	}
	return out
}

func unionAll(lists [][]resolved.ResolvedObjectRef) []resolved.ResolvedObjectRef {
	seen := make(map[string]bool)
	var out []resolved.ResolvedObjectRef
	for _, l := range lists {
		for _, ref := range l {
			if !seen[ref.Name] {
				seen[ref.Name] = true
				out = append(out, ref)
			}
		}
	}
	return out
}

// intersectAll preserves the order (and filter annotations) of lists[0]:
// the result is inherited from the first operand.
func intersectAll(lists [][]resolved.ResolvedObjectRef) []resolved.ResolvedObjectRef {
	if len(lists) == 0 {
		return nil
	}
	present := make([]map[string]bool, len(lists))
	for i, l := range lists {
		present[i] = make(map[string]bool, len(l))
		for _, ref := range l {
			present[i][ref.Name] = true
		}
	}
	var out []resolved.ResolvedObjectRef
	seen := make(map[string]bool)
	for _, ref := range lists[0] {
		if seen[ref.Name] {
			continue
		}
		inAll := true
		for _, p := range present[1:] {
			if !p[ref.Name] {
				inAll = false
				break
			}
		}
		if inAll {
			seen[ref.Name] = true
			out = append(out, ref)
		}
	}
	return out
}

// complement returns elements of a not in b (A minus B), preserving a's
// order and filter annotations.
func complement(a, b []resolved.ResolvedObjectRef) []resolved.ResolvedObjectRef {
	exclude := make(map[string]bool, len(b))
	for _, ref := range b {
		exclude[ref.Name] = true
	}
	seen := make(map[string]bool)
	var out []resolved.ResolvedObjectRef
	for _, ref := range a {
		if !exclude[ref.Name] && !seen[ref.Name] {
			seen[ref.Name] = true
			out = append(out, ref)
		}
	}
	return out
}
