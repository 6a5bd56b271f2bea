package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/esp-lang/espcore/internal/diagnostics"
	"github.com/esp-lang/espcore/internal/resolved"
	"github.com/esp-lang/espcore/internal/types"
)

func TestConnectMemoryRunsMigration(t *testing.T) {
	db, err := Connect(":memory:", false)
	require.NoError(t, err)
	require.True(t, db.Migrator().HasTable(&Run{}))
}

func TestConnectFileCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "run.db")
	db, err := Connect(path, false)
	require.NoError(t, err)
	require.True(t, db.Migrator().HasTable(&Run{}))
}

func TestSaveAndLookupRunRoundTrips(t *testing.T) {
	db, err := Connect(":memory:", false)
	require.NoError(t, err)

	diags := diagnostics.NewList(0)
	ctx := &resolved.ExecutionContext{
		RunID:      "11111111-1111-1111-1111-111111111111",
		SourcePath: "policy.esp",
		Defs: []resolved.ResolvedDef{
			{Variables: []resolved.ResolvedVariable{{Name: "base", Value: types.StringValue("apache")}}},
		},
	}

	run, err := SaveRun(db, "policy.esp", []byte("DEF VAR base string `apache` DEF_END\n"), true, ctx, diags)
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)

	found, err := LookupBySourceSHA(db, run.SourceSHA)
	require.NoError(t, err)
	require.Equal(t, run.ID, found.ID)

	decoded, err := found.DecodeExecutionContext()
	require.NoError(t, err)
	require.Equal(t, ctx.RunID, decoded.RunID)
	require.Equal(t, types.StringValue("apache"), decoded.Defs[0].Variables[0].Value)
}

func TestLookupBySourceSHAMissReturnsErrNotFound(t *testing.T) {
	db, err := Connect(":memory:", false)
	require.NoError(t, err)

	_, err = LookupBySourceSHA(db, "does-not-exist")
	require.Error(t, err)
}

func TestPruneOldRunsKeepsMostRecent(t *testing.T) {
	db, err := Connect(":memory:", false)
	require.NoError(t, err)
	diags := diagnostics.NewList(0)

	for i := 0; i < 5; i++ {
		_, err := SaveRun(db, "policy.esp", []byte{byte(i)}, true, nil, diags)
		require.NoError(t, err)
	}

	require.NoError(t, PruneOldRuns(db, "policy.esp", 2))

	var count int64
	require.NoError(t, db.Model(&Run{}).Where("source_path = ?", "policy.esp").Count(&count).Error)
	require.Equal(t, int64(2), count)
}
