// Package sema implements Semantic Analysis: type
// compatibility between operations and their operands, and RUN signature
// checks. SET operands and filters are not inspected here. It runs after Reference
// Validation, once every name is known to resolve, and checks how those
// resolved things are used together.
package sema

import (
	"strconv"

	"github.com/esp-lang/espcore/internal/ast"
	"github.com/esp-lang/espcore/internal/diagnostics"
	"github.com/esp-lang/espcore/internal/source"
	"github.com/esp-lang/espcore/internal/types"
)

// Analyze walks file and reports:
//   - E100 when an operation is used against an incompatible operand type
//   - E101 when a RUN block's parameter list does not match its
//     operation's required/optional shape
//   - E103 when a collection-consuming RUN operation is handed a scalar
//     literal operand
//   - W001 when an int field is compared with an ordering operation
//     (>, <, >=, <=) that would also accept a float value
func Analyze(file *ast.EspFile, diags *diagnostics.List) {
	for _, d := range file.Defs {
		analyzeDef(d, diags)
	}
}

func analyzeDef(d *ast.Def, diags *diagnostics.List) {
	for _, s := range d.States {
		checkFields(diags, s.Fields)
		checkRecordChecks(diags, s.Checks)
	}

	for _, o := range d.Objects {
		for _, el := range o.Elements {
			if el.Select != nil {
				checkOp(diags, el.Select.Op, el.Select.Rhs)
			}
			if el.RecordChk != nil {
				checkFields(diags, el.RecordChk.Fields)
				checkRecordChecks(diags, el.RecordChk.Nested)
			}
		}
	}

	for _, r := range d.Runs {
		checkRunSignature(diags, r)
	}

	for _, cri := range d.CriteriaTrees {
		analyzeCriteria(diags, cri)
	}
}

func analyzeCriteria(diags *diagnostics.List, block *ast.CriteriaBlock) {
	if block == nil {
		return
	}
	if block.Kind == ast.CriteriaLeaf {
		if block.Leaf == nil {
			return
		}
		for _, s := range block.Leaf.LocalStates {
			checkFields(diags, s.Fields)
			checkRecordChecks(diags, s.Checks)
		}
		return
	}
	for _, c := range block.Children {
		analyzeCriteria(diags, c)
	}
}

func checkFields(diags *diagnostics.List, fields []*ast.StateField) {
	for _, f := range fields {
		checkCompat(diags, f.Type, f.Op, f.Value.Span)
	}
}

func checkRecordChecks(diags *diagnostics.List, checks []*ast.RecordCheck) {
	for _, c := range checks {
		checkFields(diags, c.Fields)
		checkRecordChecks(diags, c.Nested)
	}
}

// checkOp validates op against rhs's literal type (when rhs is a literal;
// VAR references are checked by the resolver once substituted, since their
// type is not known until resolution).
func checkOp(diags *diagnostics.List, op types.Op, rhs ast.Expr) {
	if rhs.Literal == nil {
		return
	}
	checkCompat(diags, rhs.Literal.Kind, op, rhs.Span)
}

// checkCompat validates op against the type t using the closed Type
// compatibility matrix, and warns when an int field is compared with an
// ordering operation where a float would also be legal (ambiguous inference:
// under the concrete grammar the operation keyword always precedes the
// value position and the lexer distinguishes int/float lexically, so this
// warning fires only for the declared-field-type case, not for literal
// parsing ambiguity).
func checkCompat(diags *diagnostics.List, t types.Type, op types.Op, span source.Span) {
	if op == "" {
		return
	}
	if !types.Compatible(t, op) {
		diags.Add(diagnostics.New(diagnostics.CodeTypeIncompatibility,
			"operation "+string(op)+" is not valid against a "+string(t)+" value", &span))
		return
	}
	if t == types.Int && (op == types.OpGt || op == types.OpLt || op == types.OpGe || op == types.OpLe) {
		diags.Add(diagnostics.Warn(diagnostics.CodeAmbiguousLiteralType,
			"integer field compared here would also accept a float value", &span))
	}
}

// runSignature describes which RunParam shapes a RunOp legally accepts.
// Optional parameters (SUBSTRING's length) need no flag here: only missing
// required parameters are reportable.
type runSignature struct {
	minValues   int // literal/VarRef/SetRef/Obj operands not otherwise labeled
	needPattern bool
	needDelim   bool
	needStart   bool
}

var runSignatures = map[ast.RunOp]runSignature{
	ast.RunConcat:       {minValues: 2},
	ast.RunSplit:        {minValues: 1, needDelim: true},
	ast.RunSubstring:    {minValues: 1, needStart: true}, // length is optional: omitted means "to end of string"
	ast.RunRegexCapture: {minValues: 1, needPattern: true},
	ast.RunArithmetic:   {minValues: 2},
	ast.RunCount:        {minValues: 1},
	ast.RunUnique:       {minValues: 1},
	ast.RunMerge:        {minValues: 2},
	ast.RunExtract:      {minValues: 1},
}

// checkRunSignature reports E101 when run's parameter list does not match
// the shape its operation requires.
func checkRunSignature(diags *diagnostics.List, run *ast.RunBlock) {
	sig, ok := runSignatures[run.Op]
	if !ok {
		return
	}
	var values int
	var havePattern, haveDelim, haveStart bool
	for _, p := range run.Params {
		switch {
		case p.Literal != nil, p.VarRef != "", p.SetRef != "", p.Obj != nil:
			values++
		case p.Pattern != "":
			havePattern = true
		case p.Delimiter != "":
			haveDelim = true
		case p.Start != nil:
			haveStart = true
		case p.Length != nil:
			// optional, carries no shape requirement
		case p.Character != "":
			values++
		}
	}

	if values < sig.minValues {
		diags.Add(diagnostics.New(diagnostics.CodeRunSignatureMismatch,
			"RUN "+run.Target+" ("+string(run.Op)+") requires at least "+strconv.Itoa(sig.minValues)+" value operand(s)", &run.Span))
	}
	if sig.needPattern && !havePattern {
		diags.Add(diagnostics.New(diagnostics.CodeRunSignatureMismatch,
			"RUN "+run.Target+" ("+string(run.Op)+") requires a pattern parameter", &run.Span))
	}
	if sig.needDelim && !haveDelim {
		diags.Add(diagnostics.New(diagnostics.CodeRunSignatureMismatch,
			"RUN "+run.Target+" ("+string(run.Op)+") requires a delimiter parameter", &run.Span))
	}
	if sig.needStart && !haveStart {
		diags.Add(diagnostics.New(diagnostics.CodeRunSignatureMismatch,
			"RUN "+run.Target+" ("+string(run.Op)+") requires a start parameter", &run.Span))
	}
	if run.Op == ast.RunCount || run.Op == ast.RunUnique || run.Op == ast.RunMerge {
		for _, p := range run.Params {
			if p.Literal != nil && p.Literal.Kind != types.Collection {
				diags.Add(diagnostics.New(diagnostics.CodeSetOperandTypeMismatch,
					"RUN "+run.Target+" ("+string(run.Op)+") operates on collections; a scalar literal operand can never be one", &p.Span))
			}
		}
	}
	if run.Op == ast.RunExtract {
		hasObj := false
		for _, p := range run.Params {
			if p.Obj != nil {
				hasObj = true
				break
			}
		}
		if !hasObj {
			diags.Add(diagnostics.New(diagnostics.CodeRunSignatureMismatch,
				"RUN "+run.Target+" (EXTRACT) requires an OBJ field operand", &run.Span))
		}
	}
}
