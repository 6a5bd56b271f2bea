// Package ast defines the typed syntax tree produced by the parser.
// Nodes are plain data: no methods beyond position accessors, no
// behavior. Every node carries a source.Span so downstream passes can
// attach diagnostics precisely.
package ast

import (
	"github.com/esp-lang/espcore/internal/source"
	"github.com/esp-lang/espcore/internal/types"
)

// EspFile is the root node: one parsed .esp source file. A file carries an
// optional META block plus one or more anonymous DEF scopes.
type EspFile struct {
	Path string
	Meta *Meta
	Defs []*Def
	Span source.Span
}

// MetaField is one key/value pair within a META block. Fields keep their
// declared order so metadata round-trips through the pipeline unchanged.
type MetaField struct {
	Key   string
	Value types.Value
}

// Meta is the optional file-level metadata block.
type Meta struct {
	Fields []MetaField
	Span   source.Span
}

// Def is an anonymous scope: DEF ... DEF_END carries no name token.
// Every symbol it declares (variables, states,
// objects, sets, run targets) is scoped to this Def alone; every top-level
// CRI tree belongs to the Def that encloses it.
type Def struct {
	Variables     []*VariableDecl
	States        []*StateDecl
	Objects       []*ObjectDecl
	Sets          []*SetDecl
	Runs          []*RunBlock
	CriteriaTrees []*CriteriaBlock
	Span          source.Span
}

// VariableDecl binds a name to a value expression, possibly depending on
// other variables: VAR <name> <type>
// <initial>?, where initial is a literal or another VAR reference.
type VariableDecl struct {
	Name    string
	Type    types.Type
	Initial Expr
	Span    source.Span
}

// StateDecl declares a named, global-to-its-Def state: a sequence of typed
// field comparisons plus optional record checks.
type StateDecl struct {
	Name   string
	Fields []*StateField
	Checks []*RecordCheck
	Span   source.Span
}

// StateField is one typed comparison within a STATE block: <name> <type>
// <op> <value>, where value is a literal or a VAR reference.
type StateField struct {
	Name  string
	Type  types.Type
	Op    types.Op
	Value Expr
	Span  source.Span
}

// RecordCheck validates a nested path within a `record` block, optionally
// containing further nested record checks.
type RecordCheck struct {
	Path   string
	Type   *types.Type // optional declared type for the record node itself
	Fields []*StateField
	Nested []*RecordCheck
	Span   source.Span
}

// ObjectDecl declares an object: the unit the resolver turns into a
// resolved.ResolvedObject for the scanner runtime. Element
// order is free, unlike a CTN's element order.
type ObjectDecl struct {
	Name     string
	Elements []ObjectElement
	Span     source.Span
}

// ObjectElement is the sum type of everything legal inside an OBJECT block.
// Exactly one field is non-nil per instance; the parser enforces this.
type ObjectElement struct {
	Field      *FieldElement
	Module     *ModuleElement
	Parameters *ParametersElement
	Select     *SelectElement
	Behavior   *BehaviorElement
	Filter     *FilterElement
	SetRef     *SetRefElement
	RecordChk  *RecordCheck
	InlineSet  *InlineSetElement
	Span       source.Span
}

// FieldElement assigns a literal or variable-referenced value to a bare
// field name, e.g. `path \`/etc/hosts\`` or `path VAR p`.
type FieldElement struct {
	Name  string
	Value Expr
}

// ModuleElement is purely descriptive metadata about the external software
// module (package) this object represents. It is never a dispatch or
// binding mechanism to any DEF or CTN: it describes what is installed,
// it does not route execution.
type ModuleElement struct {
	Name    string
	Version string
	Command string
	Type    string
}

// ParametersElement carries free-form key/value parameters passed through
// to the CTN implementation, unvalidated by the core.
type ParametersElement struct {
	Values map[string]types.Value
}

// SelectElement narrows which instances of a multi-instance CTN this
// object applies to, via a state-field comparison.
type SelectElement struct {
	Field string
	Op    types.Op
	Rhs   Expr
}

// BehaviorElement carries one opaque scanner-runtime behavior flag: an
// unvalidated key/value pair passed through resolution untouched.
// Unlike Parameters/Select, behavior has no enclosing block — each instance
// is its own `behavior <key> <value>` statement.
type BehaviorElement struct {
	Key   string
	Value types.Value
}

// FilterAction is the action named by a FILTER clause. Both directions are
// stored verbatim and left for the scanner runtime to interpret; the core
// treats them as syntactically symmetric.
type FilterAction string

const (
	FilterInclude FilterAction = "include"
	FilterExclude FilterAction = "exclude"
)

// FilterElement narrows (or widens) by one or more referenced, Def-global
// STATE_REFs. A filter never references a CTN-local state.
type FilterElement struct {
	Action FilterAction
	States []string
}

// SetRefElement pulls in the expanded membership of a named SET.
type SetRefElement struct {
	Name string
}

// InlineSetElement defines an unnamed set expression directly inside the
// object, evaluated the same way a top-level SetDecl's Op is. It has no
// trailing FILTER of its own; it terminates when no further OBJECT_REF or
// SET_REF token follows its operator.
type InlineSetElement struct {
	Op *SetOp
}

// SetDecl declares a named, reusable set built from set algebra over
// object/set references, with an optional trailing FILTER.
type SetDecl struct {
	Name string
	Op   *SetOp
	Span source.Span
}

// SetKind is the closed set-algebra operator vocabulary.
type SetKind string

const (
	SetUnion        SetKind = "union"
	SetIntersection SetKind = "intersection"
	SetComplement   SetKind = "complement"
)

// SetOperandKind distinguishes the two leaf-reference forms a SetOp's
// operand list may hold.
type SetOperandKind string

const (
	OperandObjectRef SetOperandKind = "object_ref"
	OperandSetRef    SetOperandKind = "set_ref"
)

// SetOperand is one OBJECT_REF or SET_REF within a SetOp's operand list.
type SetOperand struct {
	Kind SetOperandKind
	Name string
	Span source.Span
}

// SetOp is a set-algebra expression: an operator plus its ordered operand
// list and an optional filter applied to the whole result. Arity is
// enforced at parse time: union needs >=1 operand,
// intersection >=2, complement exactly 2 (complement(A, B) = A minus B).
type SetOp struct {
	Kind     SetKind
	Operands []*SetOperand
	Filter   *FilterElement
	Span     source.Span
}

// RunOp is the closed vocabulary of RUN operations.
type RunOp string

const (
	RunConcat       RunOp = "CONCAT"
	RunSplit        RunOp = "SPLIT"
	RunSubstring    RunOp = "SUBSTRING"
	RunRegexCapture RunOp = "REGEX_CAPTURE"
	RunArithmetic   RunOp = "ARITHMETIC"
	RunCount        RunOp = "COUNT"
	RunUnique       RunOp = "UNIQUE"
	RunMerge        RunOp = "MERGE"
	RunExtract      RunOp = "EXTRACT"
)

// ObjFieldRef is an `OBJ <id> <field>` operand, legal only inside RUN. It
// always binds at scan time: the core never resolves it itself.
type ObjFieldRef struct {
	Object string
	Field  string
}

// RunParam is one operand within a RUN block's parameter list. Exactly one
// value-bearing field is set per instance; Op holds the arithmetic operator
// that precedes this operand when chained inside an ARITHMETIC run (the
// first operand has a zero Op). Parameter shape (which fields legally
// combine for a given RunOp) is enforced by semantic analysis, not here.
type RunParam struct {
	Literal   *types.Value
	VarRef    string
	SetRef    string
	Obj       *ObjFieldRef
	Pattern   string
	Delimiter string
	Character string
	Start     *int64
	Length    *int64
	Op        types.Op // arithmetic chain operator preceding this operand
	Span      source.Span
}

// RunBlock declares a value-producing operation assigned to a target
// variable: RUN <target> <op> <params...> RUN_END. EXTRACT
// against an ObjFieldRef operand is always deferred to scan time.
type RunBlock struct {
	Target string
	Op     RunOp
	Params []*RunParam
	Span   source.Span
}

// TestSpec is the TEST clause inside a CTN: TEST <existence> <item>
// [<state_op>]?, defaulting StateOp to "AND" when omitted.
type TestSpec struct {
	Existence string // any, all, none, at_least_one, only_one
	Item      string // all, at_least_one, only_one, none_satisfy
	StateOp   string // AND, OR, ONE
	Span      source.Span
}

// CriterionNode is a CTN leaf: a typed contract reference plus its test
// specification, global references, and CTN-local declarations. Element
// order inside CTN...CTN_END is fixed and checked at parse time:
// TEST first, then STATE_REF*, then OBJECT_REF*, then
// local STATE*, then at most one local OBJECT.
type CriterionNode struct {
	Type        string // the CTN contract type, e.g. "file_metadata"
	Test        *TestSpec
	StateRefs   []string
	ObjectRefs  []string
	LocalStates []*StateDecl
	LocalObject *ObjectDecl
	Span        source.Span
}

// CriteriaKind distinguishes a CRI combinator node from a CTN leaf within
// the criteria forest.
type CriteriaKind string

const (
	CriteriaCombinator CriteriaKind = "cri"
	CriteriaLeaf       CriteriaKind = "ctn"
)

// CriteriaBlock is one node of a Def's CRI forest: either a CRI combinator
// (logical op, optional negation, >=1 children which are themselves CTN
// leaves or nested CRI blocks) or a CTN leaf.
type CriteriaBlock struct {
	Kind     CriteriaKind
	Negate   bool          // set when Kind == CriteriaCombinator and NOT prefixes it
	LogicOp  string        // "AND" or "OR", set when Kind == CriteriaCombinator
	Children []*CriteriaBlock
	Leaf     *CriterionNode // set when Kind == CriteriaLeaf
	Span     source.Span
}

// Expr is the sum type for any value-producing expression appearing where
// a literal or a VAR reference is legal.
type Expr struct {
	Literal *types.Value
	VarRef  string
	Span    source.Span
}

// IsVarRef reports whether this expression is an unresolved VAR reference
// awaiting substitution by the resolver.
func (e Expr) IsVarRef() bool { return e.VarRef != "" }
