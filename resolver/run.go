package resolver

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/esp-lang/espcore/internal/ast"
	"github.com/esp-lang/espcore/internal/types"
)

// runInput is one resolved RUN parameter, either a concrete value or an
// OBJ field reference awaiting scan-time collection.
type runInput struct {
	value   types.Value
	hasObj  bool
	object  string
	field   string
	pattern string
	delim   string
	char    string
	start   *int64
	length  *int64
	op      types.Op
}

// resolveRunInputs substitutes every value-bearing RunParam, leaving OBJ
// operands unresolved for the caller to notice and defer.
func (r *defResolver) resolveRunInputs(run *ast.RunBlock) []runInput {
	out := make([]runInput, 0, len(run.Params))
	for _, p := range run.Params {
		in := runInput{pattern: p.Pattern, delim: p.Delimiter, char: p.Character, start: p.Start, length: p.Length, op: p.Op}
		switch {
		case p.Obj != nil:
			in.hasObj = true
			in.object = p.Obj.Object
			in.field = p.Obj.Field
		case p.VarRef != "":
			in.value = r.resolveVariable(p.VarRef)
		case p.SetRef != "":
			refs := r.expandRef(p.SetRef, map[string]bool{})
			names := make([]string, 0, len(refs))
			for _, ref := range refs {
				names = append(names, ref.Name)
			}
			in.value = types.CollectionValue(stringsToValues(names))
		case p.Literal != nil:
			in.value = *p.Literal
		}
		out = append(out, in)
	}
	return out
}

// executeRun performs one RUN op against already-substituted operands.
// It returns the deferred flag set when an EXTRACT targets a live object
// field, which only the scanner runtime can read.
func executeRun(op ast.RunOp, inputs []runInput) (types.Value, bool, string, string) {
	switch op {
	case ast.RunExtract:
		for _, in := range inputs {
			if in.hasObj {
				return types.Value{}, true, in.object, in.field
			}
		}
		if len(inputs) > 0 {
			return inputs[0].value, false, "", ""
		}
		return types.Value{}, false, "", ""

	case ast.RunConcat:
		var sb strings.Builder
		for _, in := range inputs {
			sb.WriteString(valueAsString(in.value))
		}
		return types.StringValue(sb.String()), false, "", ""

	case ast.RunSplit:
		if len(inputs) == 0 {
			return types.CollectionValue(nil), false, "", ""
		}
		src := valueAsString(inputs[0].value)
		sep := inputs[0].delim
		if sep == "" {
			sep = inputs[0].char
		}
		for _, in := range inputs[1:] {
			if in.delim != "" {
				sep = in.delim
			}
			if in.char != "" {
				sep = in.char
			}
		}
		parts := strings.Split(src, sep)
		return types.CollectionValue(stringsToValues(parts)), false, "", ""

	case ast.RunSubstring:
		if len(inputs) == 0 {
			return types.StringValue(""), false, "", ""
		}
		src := []rune(valueAsString(inputs[0].value))
		var start int
		var length *int64 // nil means "to end of string"; 0 is a legal empty slice
		for _, in := range inputs {
			if in.start != nil {
				start = int(*in.start)
			}
			if in.length != nil {
				length = in.length
			}
		}
		if start < 0 || start > len(src) {
			return types.StringValue(""), false, "", ""
		}
		end := len(src)
		if length != nil {
			end = start + int(*length)
			if end > len(src) {
				end = len(src)
			}
			if end < start {
				end = start
			}
		}
		return types.StringValue(string(src[start:end])), false, "", ""

	case ast.RunRegexCapture:
		if len(inputs) == 0 {
			return types.StringValue(""), false, "", ""
		}
		src := valueAsString(inputs[0].value)
		var pattern string
		for _, in := range inputs {
			if in.pattern != "" {
				pattern = in.pattern
			}
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return types.StringValue(""), false, "", ""
		}
		m := re.FindStringSubmatch(src)
		if len(m) == 0 {
			return types.StringValue(""), false, "", ""
		}
		if len(m) > 1 {
			return types.StringValue(m[1]), false, "", ""
		}
		return types.StringValue(m[0]), false, "", ""

	case ast.RunArithmetic:
		return executeArithmetic(inputs), false, "", ""

	case ast.RunCount:
		if len(inputs) == 0 {
			return types.IntValue(0), false, "", ""
		}
		return types.IntValue(int64(len(inputs[0].value.Elems))), false, "", ""

	case ast.RunUnique:
		if len(inputs) == 0 {
			return types.CollectionValue(nil), false, "", ""
		}
		return types.CollectionValue(uniqueValues(inputs[0].value.Elems)), false, "", ""

	case ast.RunMerge:
		var elems []types.Value
		for _, in := range inputs {
			elems = append(elems, in.value.Elems...)
		}
		return types.CollectionValue(elems), false, "", ""

	default:
		return types.Value{}, false, "", ""
	}
}

// executeArithmetic evaluates a numeric-start-plus-(op,operand)* chain,
// producing int only when every operand is int.
func executeArithmetic(inputs []runInput) types.Value {
	if len(inputs) == 0 {
		return types.IntValue(0)
	}
	allInt := inputs[0].value.Kind == types.Int
	acc := valueAsFloat(inputs[0].value)
	accInt := inputs[0].value.Int

	for _, in := range inputs[1:] {
		if in.value.Kind != types.Int {
			allInt = false
		}
		f := valueAsFloat(in.value)
		switch in.op {
		case types.OpAdd:
			acc += f
			accInt += in.value.Int
		case types.OpSub:
			acc -= f
			accInt -= in.value.Int
		case types.OpMul:
			acc *= f
			accInt *= in.value.Int
		case types.OpDiv:
			if f != 0 {
				acc /= f
			}
			if in.value.Int != 0 {
				accInt /= in.value.Int
			}
		case types.OpMod:
			if in.value.Int != 0 {
				accInt %= in.value.Int
			}
		}
	}
	if allInt {
		return types.IntValue(accInt)
	}
	return types.FloatValue(acc)
}

func valueAsString(v types.Value) string {
	switch v.Kind {
	case types.String:
		return v.Str
	case types.Version, types.EVRString:
		return v.Ver
	case types.Int:
		return strconv.FormatInt(v.Int, 10)
	default:
		return v.Str
	}
}

func valueAsFloat(v types.Value) float64 {
	if v.Kind == types.Float {
		return v.Float
	}
	return float64(v.Int)
}

func stringsToValues(ss []string) []types.Value {
	out := make([]types.Value, len(ss))
	for i, s := range ss {
		out[i] = types.StringValue(s)
	}
	return out
}

func uniqueValues(vs []types.Value) []types.Value {
	seen := make(map[string]bool, len(vs))
	out := make([]types.Value, 0, len(vs))
	for _, v := range vs {
		key := valueAsString(v)
		if !seen[key] {
			seen[key] = true
			out = append(out, v)
		}
	}
	return out
}
