package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/esp-lang/espcore/internal/ast"
	"github.com/esp-lang/espcore/internal/diagnostics"
	"github.com/esp-lang/espcore/internal/lexer"
	"github.com/esp-lang/espcore/internal/source"
)

func parseSrc(t *testing.T, src string) (*ast.EspFile, *diagnostics.List) {
	t.Helper()
	doc, err := source.FromBytes("t.esp", []byte(src))
	require.NoError(t, err)
	diags := diagnostics.NewList(MaxErrors)
	stream := lexer.Lex(doc, diags, lexer.DefaultLimits)
	file := Parse("t.esp", stream, diags)
	return file, diags
}

func TestParseVariableDecl(t *testing.T) {
	file, diags := parseSrc(t, "DEF VAR threshold int 5 DEF_END\n")
	require.Empty(t, diags.Items())
	require.Len(t, file.Defs, 1)
	require.Len(t, file.Defs[0].Variables, 1)
	require.Equal(t, "threshold", file.Defs[0].Variables[0].Name)
	require.Equal(t, int64(5), file.Defs[0].Variables[0].Initial.Literal.Int)
}

func TestParseVariableVarRef(t *testing.T) {
	file, diags := parseSrc(t, "DEF VAR limit int VAR base DEF_END\n")
	require.Empty(t, diags.Items())
	require.Equal(t, "base", file.Defs[0].Variables[0].Initial.VarRef)
}

func TestParseStateDecl(t *testing.T) {
	src := "DEF STATE firewall enabled boolean = true port int = 22 STATE_END DEF_END\n"
	file, diags := parseSrc(t, src)
	require.Empty(t, diags.Items())
	require.Len(t, file.Defs[0].States, 1)
	require.Equal(t, "firewall", file.Defs[0].States[0].Name)
	require.Len(t, file.Defs[0].States[0].Fields, 2)
	require.Equal(t, "port", file.Defs[0].States[0].Fields[1].Name)
}

func TestParseObjectDeclFreeOrder(t *testing.T) {
	src := "DEF OBJECT svc module module_name systemd_unit status `enabled` select name = `sshd` select_end OBJECT_END DEF_END\n"
	file, diags := parseSrc(t, src)
	require.Empty(t, diags.Items())
	require.Len(t, file.Defs[0].Objects, 1)
	require.Len(t, file.Defs[0].Objects[0].Elements, 3)
	require.NotNil(t, file.Defs[0].Objects[0].Elements[0].Module)
	require.NotNil(t, file.Defs[0].Objects[0].Elements[1].Field)
	require.NotNil(t, file.Defs[0].Objects[0].Elements[2].Select)
}

func TestParseFilterSymmetry(t *testing.T) {
	src := "DEF OBJECT svc module module_name m FILTER include STATE_REF baseline FILTER_END OBJECT_END " +
		"OBJECT svc2 module module_name m FILTER exclude STATE_REF baseline FILTER_END OBJECT_END DEF_END\n"
	file, diags := parseSrc(t, src)
	require.Empty(t, diags.Items())
	require.Equal(t, ast.FilterInclude, file.Defs[0].Objects[0].Elements[1].Filter.Action)
	require.Equal(t, ast.FilterExclude, file.Defs[0].Objects[1].Elements[1].Filter.Action)
}

func TestParseSetUnion(t *testing.T) {
	file, diags := parseSrc(t, "DEF SET combined union OBJECT_REF a OBJECT_REF b OBJECT_REF c SET_END DEF_END\n")
	require.Empty(t, diags.Items())
	require.Equal(t, ast.SetUnion, file.Defs[0].Sets[0].Op.Kind)
	require.Len(t, file.Defs[0].Sets[0].Op.Operands, 3)
}

func TestParseSetComplementArityError(t *testing.T) {
	src := "DEF SET everyone_else complement OBJECT_REF a OBJECT_REF b OBJECT_REF c SET_END DEF_END\n"
	_, diags := parseSrc(t, src)
	require.True(t, diags.HasErrors())
	require.Equal(t, diagnostics.CodeSetArityMismatch, diags.Items()[0].Code)
}

func TestParseRunBlock(t *testing.T) {
	src := "DEF RUN full_name CONCAT VAR first VAR last RUN_END DEF_END\n"
	file, diags := parseSrc(t, src)
	require.Empty(t, diags.Items())
	require.Equal(t, "full_name", file.Defs[0].Runs[0].Target)
	require.Equal(t, ast.RunConcat, file.Defs[0].Runs[0].Op)
	require.Len(t, file.Defs[0].Runs[0].Params, 2)
	require.Equal(t, "first", file.Defs[0].Runs[0].Params[0].VarRef)
}

func TestParseCriterionTestSpec(t *testing.T) {
	src := "DEF CRI AND CTN file_metadata TEST all all STATE_REF s OBJECT_REF o CTN_END CRI_END DEF_END\n"
	file, diags := parseSrc(t, src)
	require.Empty(t, diags.Items())
	leaf := file.Defs[0].CriteriaTrees[0].Children[0].Leaf
	require.Equal(t, "file_metadata", leaf.Type)
	require.Equal(t, "all", leaf.Test.Existence)
	require.Equal(t, "all", leaf.Test.Item)
	require.Equal(t, "AND", leaf.Test.StateOp)
}

func TestParseCriteriaBlock(t *testing.T) {
	src := "DEF CRI AND " +
		"CTN file_metadata TEST all all STATE_REF s CTN_END " +
		"CTN file_metadata TEST any all OBJECT_REF o CTN_END " +
		"CRI_END DEF_END\n"
	file, diags := parseSrc(t, src)
	require.Empty(t, diags.Items())
	require.Equal(t, ast.CriteriaCombinator, file.Defs[0].CriteriaTrees[0].Kind)
	require.Equal(t, "AND", file.Defs[0].CriteriaTrees[0].LogicOp)
	require.Len(t, file.Defs[0].CriteriaTrees[0].Children, 2)
}

func TestParseCriterionElementOrderViolation(t *testing.T) {
	src := "DEF CRI AND CTN file_metadata TEST all all OBJECT_REF o STATE_REF s CTN_END CRI_END DEF_END\n"
	_, diags := parseSrc(t, src)
	require.True(t, diags.HasErrors())
	require.Equal(t, diagnostics.CodeInvalidBlockOrdering, diags.Items()[0].Code)
}

func TestParseErrorRecoveryResyncsAtNextBlock(t *testing.T) {
	src := "DEF TEST VAR ok int 1 DEF_END\n"
	file, diags := parseSrc(t, src)
	require.True(t, diags.HasErrors())
	require.Len(t, file.Defs[0].Variables, 1, "parser should recover and still parse the following VAR decl")
}

func TestParseMaxErrorsHalts(t *testing.T) {
	src := ""
	for i := 0; i < MaxErrors+10; i++ {
		src += "TEST\n"
	}
	_, diags := parseSrc(t, src)
	require.LessOrEqual(t, len(diags.Items()), MaxErrors)
}

func TestParseReservedKeywordAsIdentifier(t *testing.T) {
	_, diags := parseSrc(t, "DEF VAR SET string `x` DEF_END\n")

	found := false
	for _, d := range diags.Items() {
		if d.Code == diagnostics.CodeReservedKeywordAsIdent {
			found = true
		}
	}
	require.True(t, found)
}

func TestParseSetSpansLines(t *testing.T) {
	src := "DEF\nSET s union OBJECT_REF o1\n  OBJECT_REF o2\n  FILTER include STATE_REF readable\n  FILTER_END\nSET_END\nDEF_END\n"
	file, diags := parseSrc(t, src)

	require.False(t, diags.HasErrors(), "diagnostics: %v", diags.Items())
	require.Len(t, file.Defs[0].Sets, 1)
	set := file.Defs[0].Sets[0]
	require.Len(t, set.Op.Operands, 2)
	require.NotNil(t, set.Op.Filter)
	require.Equal(t, []string{"readable"}, set.Op.Filter.States)
}
