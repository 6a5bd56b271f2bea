package resolver

import (
	"strings"

	"github.com/esp-lang/espcore/internal/ast"
	"github.com/esp-lang/espcore/internal/resolved"
)

// resolveCriteriaBlock walks one CRI-forest node recursively, resolving a
// CTN leaf into a fully self-contained ExecutableCriterion and a CRI
// combinator into its AND/OR node shape.
func (r *defResolver) resolveCriteriaBlock(block *ast.CriteriaBlock) *resolved.CriterionTree {
	if block == nil {
		return nil
	}
	if block.Kind == ast.CriteriaLeaf {
		return &resolved.CriterionTree{Kind: "leaf", Leaf: r.resolveCriterionNode(block.Leaf)}
	}

	tree := &resolved.CriterionTree{
		Kind:   strings.ToLower(block.LogicOp),
		Negate: block.Negate,
	}
	for _, child := range block.Children {
		tree.Children = append(tree.Children, r.resolveCriteriaBlock(child))
	}
	return tree
}

// resolveCriterionNode resolves a single CTN leaf: its global STATE_REFs are
// snapshotted in full (GlobalStates), its OBJECT_REFs are expanded into
// concrete, deduplicated references (GlobalObjects) — an OBJECT_REF may
// itself name an object whose only content is a SET_REF/inline set, so
// expansion routes through r.members the same way a SET's own membership
// does, and its CTN-local STATE/OBJECT declarations are resolved in-place,
// never registered globally: local state/object scope never escapes its
// CTN. A local object that is a pure set container is replaced by its
// expansion outright: its references merge into GlobalObjects and the
// local object itself is cleared.
func (r *defResolver) resolveCriterionNode(node *ast.CriterionNode) *resolved.ExecutableCriterion {
	if node == nil {
		return nil
	}
	r.checkContract(node.Type)

	ec := &resolved.ExecutableCriterion{Type: node.Type}
	if node.Test != nil {
		ec.Test = resolved.ResolvedTestSpec{
			Existence: node.Test.Existence, Item: node.Test.Item, StateOp: node.Test.StateOp,
		}
	}

	for _, name := range node.StateRefs {
		if s, ok := r.states[name]; ok {
			ec.GlobalStates = append(ec.GlobalStates, r.resolveState(s))
		}
	}

	var objRefs []resolved.ResolvedObjectRef
	for _, name := range node.ObjectRefs {
		refs := r.members[name]
		if refs == nil {
			refs = []resolved.ResolvedObjectRef{{Name: name}}
		}
		objRefs = mergeRefs(objRefs, refs)
	}

	for _, s := range node.LocalStates {
		ec.LocalStates = append(ec.LocalStates, r.resolveState(s))
	}
	if node.LocalObject != nil {
		obj, refs, pure := r.resolveObjectDecl(node.LocalObject)
		if pure {
			objRefs = mergeRefs(objRefs, dedupeRefs(refs))
		} else {
			ec.LocalObject = &obj
		}
	}
	ec.GlobalObjects = objRefs

	return ec
}

// mergeRefs appends any reference from extra not already present in base
// by object identifier, preserving base's order followed by extra's
// first-seen order.
func mergeRefs(base, extra []resolved.ResolvedObjectRef) []resolved.ResolvedObjectRef {
	seen := make(map[string]bool, len(base))
	for _, ref := range base {
		seen[ref.Name] = true
	}
	out := base
	for _, ref := range extra {
		if !seen[ref.Name] {
			seen[ref.Name] = true
			out = append(out, ref)
		}
	}
	return out
}
