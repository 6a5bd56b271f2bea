package resolved

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/esp-lang/espcore/internal/types"
)

func TestExecutionContextHoldsResolvedGraph(t *testing.T) {
	ctx := ExecutionContext{
		RunID:      "r1",
		SourcePath: "policy.esp",
		Defs: []ResolvedDef{
			{
				Variables: []ResolvedVariable{{Name: "threshold", Value: types.IntValue(5)}},
				Objects: []ResolvedObject{
					{Name: "svc", Fields: []ResolvedObjectField{{Name: "status", Value: types.StringValue("enabled")}}},
				},
			},
		},
	}

	require.Equal(t, int64(5), ctx.Defs[0].Variables[0].Value.Int)
	require.Len(t, ctx.Defs[0].Objects, 1)
	require.Equal(t, "status", ctx.Defs[0].Objects[0].Fields[0].Name)
}

func TestResolvedFilterCarriesActionVerbatim(t *testing.T) {
	f := ResolvedFilter{Action: "exclude", States: []string{"baseline"}}
	require.Equal(t, "exclude", f.Action)
	require.Equal(t, []string{"baseline"}, f.States)
}

func TestDeferredOperationForLiveObjectField(t *testing.T) {
	d := DeferredOperation{Target: "live_mem_pct", Op: "EXTRACT", Object: "mem_snapshot", Field: "used_pct"}
	require.Equal(t, "live_mem_pct", d.Target)
	require.Equal(t, "EXTRACT", d.Op)
}

func TestExecutableCriterionAsymmetry(t *testing.T) {
	ec := ExecutableCriterion{
		Type:          "file_metadata",
		Test:          ResolvedTestSpec{Existence: "all", Item: "all", StateOp: "AND"},
		GlobalStates:  []ResolvedState{{Name: "baseline"}},
		GlobalObjects: []ResolvedObjectRef{{Name: "svc1"}, {Name: "svc2"}},
	}
	require.Len(t, ec.GlobalStates, 1)
	require.Equal(t, "svc1", ec.GlobalObjects[0].Name)
	require.Empty(t, ec.GlobalObjects[0].Filters)
}

func TestResolvedObjectRefCarriesFilterAnnotations(t *testing.T) {
	ref := ResolvedObjectRef{
		Name:    "svc1",
		Filters: []ResolvedFilter{{Action: "include", States: []string{"readable"}}},
	}
	require.Equal(t, "include", ref.Filters[0].Action)
}

func TestResolvedSetKeepsOperandsAndExpandedMembers(t *testing.T) {
	s := ResolvedSet{
		Name:     "combined",
		Kind:     "union",
		Operands: []string{"a", "b"},
		Members:  []string{"obj1", "obj2", "obj3"},
	}
	require.Equal(t, "union", s.Kind)
	require.Len(t, s.Members, 3)
}
