// Package resolved defines the platform-agnostic output of the resolver:
// concrete variable/state/object values with every
// VarRef substituted, every SET expanded into an ordered, deduplicated
// object-reference list, and the whole bundled into an ExecutionContext
// ready for an external scanner runtime to execute. Like internal/ast and
// internal/types, this package holds data only.
package resolved

import (
	"time"

	"github.com/esp-lang/espcore/internal/types"
)

// ResolvedVariable is a VariableDecl after its value expression (and any
// transitive VAR references, including a RUN target's computed value) has
// been fully substituted.
type ResolvedVariable struct {
	Name  string
	Type  types.Type
	Value types.Value
}

// ResolvedField is one typed, fully substituted field comparison, carrying
// op and value rather than just a bare type so the scanner runtime can
// evaluate it without re-consulting the AST.
type ResolvedField struct {
	Name  string
	Type  types.Type
	Op    types.Op
	Value types.Value
}

// ResolvedRecordCheck is one flattened, fully substituted record-path
// constraint, recursively nested the way ast.RecordCheck is.
type ResolvedRecordCheck struct {
	Path   string
	Type   *types.Type
	Fields []ResolvedField
	Nested []ResolvedRecordCheck
}

// ResolvedState mirrors an ast.StateDecl with every value substituted and
// re-verified against the type compatibility matrix.
type ResolvedState struct {
	Name   string
	Fields []ResolvedField
	Checks []ResolvedRecordCheck
}

// ResolvedObjectField is one bare `<name> <value>` assignment inside an
// OBJECT, fully substituted. Unlike a StateField, an object field carries
// no declared type or comparison operator.
type ResolvedObjectField struct {
	Name  string
	Value types.Value
}

// ResolvedModule carries an object's MODULE element verbatim for audit
// purposes. It is descriptive only: the core never uses it to dispatch to
// a CTN implementation (dispatch routes purely through a CriterionNode's
// Type).
type ResolvedModule struct {
	Name    string
	Version string
	Command string
	Type    string
}

// ResolvedBehavior is one opaque scanner-runtime behavior flag, passed
// through resolution unvalidated and in source order
// since BehaviorElement is a sequence of independent statements, not a map.
type ResolvedBehavior struct {
	Key   string
	Value types.Value
}

// ResolvedSelect narrows which CTN instance(s) an object applies to.
type ResolvedSelect struct {
	Field string
	Op    types.Op
	Rhs   types.Value
}

// ResolvedFilter carries an object's or set's filter action verbatim; the
// core never interprets include vs exclude itself.
type ResolvedFilter struct {
	Action string // "include" or "exclude"
	States []string
}

// ResolvedObject is one concrete compliance unit the scanner runtime will
// evaluate: its fully resolved field values, selection predicate, opaque
// behavior flags, optional filter, and descriptive module metadata.
type ResolvedObject struct {
	Name       string
	Module     *ResolvedModule
	Fields     []ResolvedObjectField
	Select     *ResolvedSelect
	Behaviors  []ResolvedBehavior
	Parameters map[string]types.Value
	Filter     *ResolvedFilter
	Sources    []string // set names contributing this object, for audit
}

// ResolvedSet is a named SET's expanded membership plus its original
// operator shape, kept for audit/debug only:
// after expansion every criterion references concrete object identifiers,
// never a SET, so this is not consulted at execution time.
type ResolvedSet struct {
	Name     string
	Kind     string // "union", "intersection", "complement"
	Operands []string
	Filter   *ResolvedFilter
	Members  []string // the expanded, deduplicated object identifiers
}

// ResolvedObjectRef is one concrete object reference produced by set
// expansion: the referenced object's identifier plus every filter
// annotation attached by the sets (or set-container objects) the
// reference was expanded through. The filters are carried on the
// reference rather than on the object itself because the same object may
// be reachable both filtered and unfiltered from different criteria.
type ResolvedObjectRef struct {
	Name    string
	Filters []ResolvedFilter
}

// ResolvedTestSpec mirrors ast.TestSpec after validation.
type ResolvedTestSpec struct {
	Existence string
	Item      string
	StateOp   string
}

// ExecutableCriterion is a CTN leaf fully resolved into a self-contained
// instruction: its contract type, test specification, and the global and
// local declarations it evaluates against. GlobalStates is a full inline
// snapshot of each referenced state (not just its name) so the scanner
// runtime can evaluate a criterion without a second lookup into
// ResolvedDef.States; GlobalObjects stays reference-only (identifier
// plus filter annotations) since an object's fields may be large and
// objects are already addressable by name in the enclosing
// ResolvedDef.Objects list.
type ExecutableCriterion struct {
	Type          string
	Test          ResolvedTestSpec
	GlobalStates  []ResolvedState
	GlobalObjects []ResolvedObjectRef
	LocalStates   []ResolvedState
	LocalObject   *ResolvedObject
}

// CriterionTree is the resolved boolean-combinator form of an
// ast.CriteriaBlock: either a CTN leaf or an AND/OR node with a negation
// flag and children, mirroring ast.CriteriaBlock's shape but with its leaf
// fully resolved.
type CriterionTree struct {
	Kind     string // "and", "or", "leaf"
	Negate   bool
	Children []*CriterionTree
	Leaf     *ExecutableCriterion
}

// DeferredOperation is a RUN block whose EXTRACT operand names a live
// object field (`OBJ id field`) rather than a resolved value: it cannot
// execute until the scanner runtime has collected that field at scan
// time. The resolver records these separately instead of
// erroring, leaving the target variable as a lazy sentinel.
type DeferredOperation struct {
	Target string
	Op     string // the ast.RunOp string, e.g. "EXTRACT"
	Object string
	Field  string
}

// ResolvedDef is one Def's fully resolved contents. ExecutionContext holds
// one per Def in the source file; Def being anonymous, the slice index is
// the only identity a caller needs (everything here
// stayed scoped to its own Def throughout resolution).
type ResolvedDef struct {
	Variables []ResolvedVariable
	States    []ResolvedState
	Objects   []ResolvedObject
	Sets      []ResolvedSet
	Criteria  []*CriterionTree
	Deferred  []DeferredOperation
}

// ProcessingStats summarizes one compile+resolve run for observability:
// token count, symbol count, duration, and file size.
type ProcessingStats struct {
	TokenCount  int
	SymbolCount int
	Duration    time.Duration
	FileSize    int64
}

// MetaField mirrors ast.MetaField: one metadata key/value pair, in
// declared order.
type MetaField struct {
	Key   string
	Value types.Value
}

// ExecutionContext is the final, platform-agnostic artifact a compile+
// resolve run produces: everything an external scanner runtime needs to
// execute this policy, with no remaining reference to source text, ASTs,
// or symbol tables.
type ExecutionContext struct {
	RunID      string // uuid-generated identifier for this resolution run
	SourcePath string
	Meta       []MetaField
	Defs       []ResolvedDef
	Stats      ProcessingStats
}
