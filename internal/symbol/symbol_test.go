package symbol

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/esp-lang/espcore/internal/source"
)

func TestGlobalSymbolTableDeclareAndLookup(t *testing.T) {
	tbl := NewGlobalSymbolTable()
	_, added := tbl.Declare(KindVariable, "threshold", source.Span{})
	require.True(t, added)

	_, added = tbl.Declare(KindVariable, "threshold", source.Span{})
	require.False(t, added)

	sym, ok := tbl.Lookup(KindVariable, "threshold")
	require.True(t, ok)
	require.Equal(t, "threshold", sym.Name)
}

func TestGlobalSymbolTableSeparatesKinds(t *testing.T) {
	tbl := NewGlobalSymbolTable()
	_, added := tbl.Declare(KindVariable, "web_server", source.Span{})
	require.True(t, added)
	_, added = tbl.Declare(KindObject, "web_server", source.Span{})
	require.True(t, added, "same name under a different kind must not collide")
}

func TestLocalSymbolTableScoping(t *testing.T) {
	local := NewLocalSymbolTable("check_port")
	require.True(t, local.Declare("port", KindVariable, source.Span{}))
	require.False(t, local.Declare("port", KindVariable, source.Span{}))

	global := NewGlobalSymbolTable()
	_, ok := global.Lookup(KindVariable, "port")
	require.False(t, ok, "local declarations must not leak into the global table")
}

func TestReferenceGraphFindCycle(t *testing.T) {
	g := NewReferenceGraph()
	g.Edge("a", "b")
	g.Edge("b", "c")
	g.Edge("c", "a")

	cyc := g.FindCycle()
	require.Equal(t, []string{"a", "b", "c", "a"}, cyc)
}

func TestReferenceGraphFindCycleDeterministicAcrossEdgeOrder(t *testing.T) {
	// The same cycle recorded in two different edge orders must report the
	// same path: DFS starts are sorted, not map-ordered.
	g1 := NewReferenceGraph()
	g1.Edge("b", "a")
	g1.Edge("a", "b")
	g2 := NewReferenceGraph()
	g2.Edge("a", "b")
	g2.Edge("b", "a")

	require.Equal(t, []string{"a", "b", "a"}, g1.FindCycle())
	require.Equal(t, g1.FindCycle(), g2.FindCycle())
}

func TestReferenceGraphAcyclic(t *testing.T) {
	g := NewReferenceGraph()
	g.Edge("a", "b")
	g.Edge("b", "c")
	require.Nil(t, g.FindCycle())
}

func TestDescribeCycle(t *testing.T) {
	require.Equal(t, "a -> b -> a", DescribeCycle([]string{"a", "b", "a"}))
}
