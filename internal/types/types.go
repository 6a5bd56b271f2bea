// Package types defines ESP's closed value-type system, operation families,
// and the type/operation compatibility matrix. This package holds pure
// data structures: no compiler logic, no I/O, no methods beyond simple
// accessors.
package types

// Type is the closed set of data types a Value can hold.
type Type string

const (
	String    Type = "string"
	Int       Type = "int"
	Float     Type = "float"
	Boolean   Type = "boolean"
	Binary    Type = "binary"
	Version   Type = "version"
	EVRString Type = "evr_string"
	Record    Type = "record"
	// Collection is not itself a declarable field type; it is the element
	// wrapper produced by SET expansion and RUN operations like SPLIT/MERGE.
	Collection Type = "collection"
)

// Op is the closed set of comparison/string/pattern/collection operations.
type Op string

const (
	OpEq  Op = "="
	OpNe  Op = "!="
	OpGt  Op = ">"
	OpLt  Op = "<"
	OpGe  Op = ">="
	OpLe  Op = "<="
	OpAdd Op = "+"
	OpSub Op = "-"
	OpMul Op = "*"
	OpDiv Op = "/"
	OpMod Op = "%"

	OpIEq         Op = "ieq"
	OpINe         Op = "ine"
	OpContains    Op = "contains"
	OpNotContains Op = "not_contains"
	OpStarts      Op = "starts"
	OpNotStarts   Op = "not_starts"
	OpEnds        Op = "ends"
	OpNotEnds     Op = "not_ends"

	OpPatternMatch Op = "pattern_match"
	OpMatches      Op = "matches"

	OpSubsetOf   Op = "subset_of"
	OpSupersetOf Op = "superset_of"
)

// Family groups operations for semantic-analysis error messages.
type Family string

const (
	FamilyComparison Family = "comparison"
	FamilyString     Family = "string"
	FamilyPattern    Family = "pattern"
	FamilyCollection Family = "collection"
	FamilyArithmetic Family = "arithmetic"
)

var opFamily = map[Op]Family{
	OpEq: FamilyComparison, OpNe: FamilyComparison, OpGt: FamilyComparison,
	OpLt: FamilyComparison, OpGe: FamilyComparison, OpLe: FamilyComparison,
	OpAdd: FamilyArithmetic, OpSub: FamilyArithmetic, OpMul: FamilyArithmetic,
	OpDiv: FamilyArithmetic, OpMod: FamilyArithmetic,
	OpIEq: FamilyString, OpINe: FamilyString, OpContains: FamilyString,
	OpNotContains: FamilyString, OpStarts: FamilyString, OpNotStarts: FamilyString,
	OpEnds: FamilyString, OpNotEnds: FamilyString,
	OpPatternMatch: FamilyPattern, OpMatches: FamilyPattern,
	OpSubsetOf: FamilyCollection, OpSupersetOf: FamilyCollection,
}

// FamilyOf returns the operation family for op, or "" if op is unknown.
func FamilyOf(op Op) Family { return opFamily[op] }

// compatMatrix is the closed (type, op) compatibility table.
// A missing entry means the pair is forbidden.
var compatMatrix = map[Type]map[Op]bool{
	String: {
		OpEq: true, OpNe: true, OpGt: true, OpLt: true, OpGe: true, OpLe: true,
		OpIEq: true, OpINe: true, OpContains: true, OpNotContains: true,
		OpStarts: true, OpNotStarts: true, OpEnds: true, OpNotEnds: true,
		OpPatternMatch: true, OpMatches: true,
	},
	Int: {
		OpEq: true, OpNe: true, OpGt: true, OpLt: true, OpGe: true, OpLe: true,
	},
	Float: {
		OpEq: true, OpNe: true, OpGt: true, OpLt: true, OpGe: true, OpLe: true,
	},
	Version: {
		OpEq: true, OpNe: true, OpGt: true, OpLt: true, OpGe: true, OpLe: true,
	},
	EVRString: {
		OpEq: true, OpNe: true, OpGt: true, OpLt: true, OpGe: true, OpLe: true,
	},
	Boolean: {
		OpEq: true, OpNe: true,
	},
	Binary: {
		OpEq: true, OpNe: true,
	},
	Record: {
		// Record fields are checked via RecordCheck paths, not top-level ops.
	},
	Collection: {
		OpSubsetOf: true, OpSupersetOf: true,
	},
}

// Compatible reports whether op is legal against a field of the given type,
// per the closed type compatibility matrix. Collection ops
// additionally require the right-hand side to be collection-valued; that
// check is made by the semantic analyzer using the resolved operand type,
// not here.
func Compatible(t Type, op Op) bool {
	ops, ok := compatMatrix[t]
	if !ok {
		return false
	}
	return ops[op]
}

// Value is a tagged union over the closed type set, plus a placeholder for
// unresolved variable references. Exactly one of the typed fields is
// meaningful for a given Kind.
type Value struct {
	Kind Type

	Str    string
	Int    int64
	Float  float64
	Bool   bool
	Bin    []byte
	Ver    string // version / evr_string stored as their literal text
	Rec    map[string]Value
	Elems  []Value // collection-valued result (RUN SPLIT/UNIQUE/MERGE, set expansion)
	VarRef string  // non-empty when this Value is an unresolved VAR placeholder
}

// IsVarRef reports whether this Value is a placeholder awaiting substitution.
func (v Value) IsVarRef() bool { return v.VarRef != "" }

// IsCollection reports whether this Value holds a collection result.
func (v Value) IsCollection() bool { return v.Kind == Collection }

// VarRefValue builds a placeholder Value referencing the named variable.
func VarRefValue(name string) Value { return Value{VarRef: name} }

// StringValue, IntValue, etc. are convenience constructors used throughout
// the parser and resolver.
func StringValue(s string) Value   { return Value{Kind: String, Str: s} }
func IntValue(i int64) Value       { return Value{Kind: Int, Int: i} }
func FloatValue(f float64) Value   { return Value{Kind: Float, Float: f} }
func BoolValue(b bool) Value       { return Value{Kind: Boolean, Bool: b} }
func BinaryValue(b []byte) Value   { return Value{Kind: Binary, Bin: b} }
func VersionValue(s string) Value  { return Value{Kind: Version, Ver: s} }
func EVRValue(s string) Value      { return Value{Kind: EVRString, Ver: s} }
func CollectionValue(elems []Value) Value {
	return Value{Kind: Collection, Elems: elems}
}

// NumericCoercible reports whether a and b may appear on either side of an
// arithmetic/comparison pair without an explicit cast: int<->float only.
func NumericCoercible(a, b Type) bool {
	if a == b {
		return true
	}
	numeric := func(t Type) bool { return t == Int || t == Float }
	return numeric(a) && numeric(b)
}
