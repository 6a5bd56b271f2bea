package discovery

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/esp-lang/espcore/internal/ast"
	"github.com/esp-lang/espcore/internal/diagnostics"
	"github.com/esp-lang/espcore/internal/symbol"
)

func TestDiscoverDeclaresEveryKind(t *testing.T) {
	def := &ast.Def{
		Variables: []*ast.VariableDecl{{Name: "threshold"}},
		States:    []*ast.StateDecl{{Name: "firewall"}},
		Objects:   []*ast.ObjectDecl{{Name: "svc"}},
		Sets:      []*ast.SetDecl{{Name: "baseline"}},
		Runs:      []*ast.RunBlock{{Target: "check_port"}},
	}
	file := &ast.EspFile{Defs: []*ast.Def{def}}

	diags := diagnostics.NewList(0)
	tables := Discover(file, diags)
	require.Empty(t, diags.Items())

	tbl := tables.Global[def]
	_, ok := tbl.Lookup(symbol.KindVariable, "threshold")
	require.True(t, ok)
	_, ok = tbl.Lookup(symbol.KindObject, "svc")
	require.True(t, ok)
	_, ok = tbl.Lookup(symbol.KindSet, "baseline")
	require.True(t, ok)
	_, ok = tbl.Lookup(symbol.KindVariable, "check_port")
	require.True(t, ok, "a RUN target shares the VARIABLE namespace")
}

func TestDiscoverReportsDuplicates(t *testing.T) {
	def := &ast.Def{
		Variables: []*ast.VariableDecl{{Name: "threshold"}, {Name: "threshold"}},
	}
	file := &ast.EspFile{Defs: []*ast.Def{def}}

	diags := diagnostics.NewList(0)
	Discover(file, diags)

	require.True(t, diags.HasErrors())
	require.Equal(t, diagnostics.CodeDuplicateSymbol, diags.Items()[0].Code)
}

func TestDiscoverAllowsSameNameAcrossKinds(t *testing.T) {
	def := &ast.Def{
		Variables: []*ast.VariableDecl{{Name: "web"}},
		Objects:   []*ast.ObjectDecl{{Name: "web"}},
	}
	file := &ast.EspFile{Defs: []*ast.Def{def}}

	diags := diagnostics.NewList(0)
	Discover(file, diags)

	require.Empty(t, diags.Items())
}

func TestDiscoverScopesSymbolsPerDef(t *testing.T) {
	d1 := &ast.Def{Variables: []*ast.VariableDecl{{Name: "threshold"}}}
	d2 := &ast.Def{Variables: []*ast.VariableDecl{{Name: "threshold"}}}
	file := &ast.EspFile{Defs: []*ast.Def{d1, d2}}

	diags := diagnostics.NewList(0)
	tables := Discover(file, diags)

	require.Empty(t, diags.Items(), "the same name in two different Defs is not a duplicate")
	_, ok := tables.Global[d1].Lookup(symbol.KindVariable, "threshold")
	require.True(t, ok)
	_, ok = tables.Global[d2].Lookup(symbol.KindVariable, "threshold")
	require.True(t, ok)
}

func TestDiscoverLocalTableForCTN(t *testing.T) {
	ctn := &ast.CriterionNode{
		Type:        "file_metadata",
		LocalStates: []*ast.StateDecl{{Name: "inline"}},
	}
	def := &ast.Def{CriteriaTrees: []*ast.CriteriaBlock{{Kind: ast.CriteriaLeaf, Leaf: ctn}}}
	file := &ast.EspFile{Defs: []*ast.Def{def}}

	diags := diagnostics.NewList(0)
	tables := Discover(file, diags)

	require.Empty(t, diags.Items())
	local, ok := tables.Local[ctn]
	require.True(t, ok)
	require.NotNil(t, local)
}
