package sema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/esp-lang/espcore/internal/ast"
	"github.com/esp-lang/espcore/internal/diagnostics"
	"github.com/esp-lang/espcore/internal/types"
)

func TestAnalyzeRejectsIncompatibleOp(t *testing.T) {
	state := &ast.StateDecl{
		Name: "firewall",
		Fields: []*ast.StateField{
			{Name: "enabled", Type: types.Boolean, Op: types.OpContains, Value: ast.Expr{Literal: &types.Value{Kind: types.Boolean, Bool: true}}},
		},
	}
	file := &ast.EspFile{Defs: []*ast.Def{{States: []*ast.StateDecl{state}}}}

	diags := diagnostics.NewList(0)
	Analyze(file, diags)

	require.True(t, diags.HasErrors())
	require.Equal(t, diagnostics.CodeTypeIncompatibility, diags.Items()[0].Code)
}

func TestAnalyzeAcceptsCompatibleOp(t *testing.T) {
	state := &ast.StateDecl{
		Name: "firewall",
		Fields: []*ast.StateField{
			{Name: "port", Type: types.Int, Op: types.OpEq, Value: ast.Expr{Literal: &types.Value{Kind: types.Int, Int: 22}}},
		},
	}
	file := &ast.EspFile{Defs: []*ast.Def{{States: []*ast.StateDecl{state}}}}

	diags := diagnostics.NewList(0)
	Analyze(file, diags)

	require.Empty(t, diags.Items())
}

func TestAnalyzeWarnsAmbiguousIntLiteral(t *testing.T) {
	state := &ast.StateDecl{
		Name: "threshold",
		Fields: []*ast.StateField{
			{Name: "count", Type: types.Int, Op: types.OpGt, Value: ast.Expr{Literal: &types.Value{Kind: types.Int, Int: 5}}},
		},
	}
	file := &ast.EspFile{Defs: []*ast.Def{{States: []*ast.StateDecl{state}}}}

	diags := diagnostics.NewList(0)
	Analyze(file, diags)

	require.Len(t, diags.Items(), 1)
	require.Equal(t, diagnostics.CodeAmbiguousLiteralType, diags.Items()[0].Code)
}

func TestAnalyzeRunSignatureMismatch(t *testing.T) {
	run := &ast.RunBlock{
		Target: "full_name",
		Op:     ast.RunConcat,
		Params: []*ast.RunParam{{VarRef: "first"}},
	}
	file := &ast.EspFile{Defs: []*ast.Def{{Runs: []*ast.RunBlock{run}}}}

	diags := diagnostics.NewList(0)
	Analyze(file, diags)

	require.True(t, diags.HasErrors())
	require.Equal(t, diagnostics.CodeRunSignatureMismatch, diags.Items()[0].Code)
}

func TestAnalyzeRunSignatureAccepted(t *testing.T) {
	run := &ast.RunBlock{
		Target: "full_name",
		Op:     ast.RunConcat,
		Params: []*ast.RunParam{{VarRef: "first"}, {VarRef: "last"}},
	}
	file := &ast.EspFile{Defs: []*ast.Def{{Runs: []*ast.RunBlock{run}}}}

	diags := diagnostics.NewList(0)
	Analyze(file, diags)

	require.Empty(t, diags.Items())
}

func TestAnalyzeRunSplitRequiresDelimiter(t *testing.T) {
	run := &ast.RunBlock{
		Target: "parts",
		Op:     ast.RunSplit,
		Params: []*ast.RunParam{{VarRef: "raw"}},
	}
	file := &ast.EspFile{Defs: []*ast.Def{{Runs: []*ast.RunBlock{run}}}}

	diags := diagnostics.NewList(0)
	Analyze(file, diags)

	require.True(t, diags.HasErrors())
	require.Equal(t, diagnostics.CodeRunSignatureMismatch, diags.Items()[0].Code)
}

func TestAnalyzeCriteriaLocalStateChecked(t *testing.T) {
	block := &ast.CriteriaBlock{
		Kind: ast.CriteriaLeaf,
		Leaf: &ast.CriterionNode{
			Type: "file_metadata",
			Test: &ast.TestSpec{Existence: "all", Item: "all", StateOp: "AND"},
			LocalStates: []*ast.StateDecl{
				{Name: "inline", Fields: []*ast.StateField{
					{Name: "mode", Type: types.Binary, Op: types.OpGt, Value: ast.Expr{Literal: &types.Value{Kind: types.Binary}}},
				}},
			},
		},
	}
	file := &ast.EspFile{Defs: []*ast.Def{{CriteriaTrees: []*ast.CriteriaBlock{block}}}}

	diags := diagnostics.NewList(0)
	Analyze(file, diags)

	require.True(t, diags.HasErrors())
	require.Equal(t, diagnostics.CodeTypeIncompatibility, diags.Items()[0].Code)
}

func TestAnalyzeCountRejectsScalarLiteral(t *testing.T) {
	lit := types.IntValue(7)
	def := &ast.Def{Runs: []*ast.RunBlock{
		{Target: "n", Op: ast.RunCount, Params: []*ast.RunParam{{Literal: &lit}}},
	}}
	file := &ast.EspFile{Defs: []*ast.Def{def}}

	diags := diagnostics.NewList(0)
	Analyze(file, diags)

	found := false
	for _, d := range diags.Items() {
		if d.Code == diagnostics.CodeSetOperandTypeMismatch {
			found = true
		}
	}
	require.True(t, found)
}

func TestAnalyzeSubstringLengthOptional(t *testing.T) {
	lit := types.StringValue("apache-2.4")
	start := int64(3)
	def := &ast.Def{Runs: []*ast.RunBlock{
		{Target: "tail", Op: ast.RunSubstring, Params: []*ast.RunParam{
			{Literal: &lit},
			{Start: &start},
		}},
	}}
	file := &ast.EspFile{Defs: []*ast.Def{def}}

	diags := diagnostics.NewList(0)
	Analyze(file, diags)

	require.False(t, diags.HasErrors(), "diagnostics: %v", diags.Items())
}
