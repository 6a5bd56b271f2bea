package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/esp-lang/espcore/internal/config"
	"github.com/esp-lang/espcore/internal/store"
)

const validESP = "DEF\n" +
	"  VAR expected string `running`\n" +
	"  STATE running_state status string = VAR expected STATE_END\n" +
	"  OBJECT web_server module module_name httpd status `running` OBJECT_END\n" +
	"  CRI AND\n" +
	"    CTN service_status\n" +
	"      TEST all all\n" +
	"      STATE_REF running_state\n" +
	"      OBJECT_REF web_server\n" +
	"    CTN_END\n" +
	"  CRI_END\n" +
	"DEF_END\n"

const invalidESP = "OBJECT stray path `/etc/hosts` OBJECT_END\n"

func writeRunnerFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunnerRunCompilesAndResolvesEachFile(t *testing.T) {
	dir := t.TempDir()
	good := writeRunnerFixture(t, dir, "good.esp", validESP)
	bad := writeRunnerFixture(t, dir, "bad.esp", invalidESP)

	r := NewRunner(config.Load(), nil, nil)
	outcomes := r.Run(context.Background(), []string{good, bad})

	require.Len(t, outcomes, 2)
	require.True(t, outcomes[0].Success())
	require.NotNil(t, outcomes[0].Ctx)
	require.False(t, outcomes[1].Success())
}

func TestRunnerPersistsRunsWhenDBSet(t *testing.T) {
	dir := t.TempDir()
	good := writeRunnerFixture(t, dir, "good.esp", validESP)

	db, err := store.Connect(":memory:", false)
	require.NoError(t, err)

	r := NewRunner(config.Load(), nil, db)
	outcomes := r.Run(context.Background(), []string{good})
	require.True(t, outcomes[0].Success())

	var count int64
	require.NoError(t, db.Model(&store.Run{}).Where("source_path = ?", good).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestRunnerPrintReturnsNonZeroExitOnFailure(t *testing.T) {
	dir := t.TempDir()
	bad := writeRunnerFixture(t, dir, "bad.esp", invalidESP)

	r := NewRunner(config.Load(), nil, nil)
	outcomes := r.Run(context.Background(), []string{bad})

	code := r.Print(outcomes)
	require.Equal(t, 1, code)
}

func TestRunnerPrintReturnsZeroExitOnSuccess(t *testing.T) {
	dir := t.TempDir()
	good := writeRunnerFixture(t, dir, "good.esp", validESP)

	r := NewRunner(config.Load(), nil, nil)
	outcomes := r.Run(context.Background(), []string{good})

	code := r.Print(outcomes)
	require.Equal(t, 0, code)
}
