package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDiscoverFindsESPFilesRecursively(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.esp"), "VARIABLE x = \"y\"\n")
	writeFile(t, filepath.Join(dir, "nested", "b.esp"), "VARIABLE x = \"y\"\n")
	writeFile(t, filepath.Join(dir, "readme.md"), "not esp")

	files, err := Discover(dir, nil, nil)
	require.NoError(t, err)
	sort.Strings(files)
	require.Len(t, files, 2)
}

func TestDiscoverSkipsDotAndVendorDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "vendor", "skip.esp"), "x")
	writeFile(t, filepath.Join(dir, ".git", "skip.esp"), "x")
	writeFile(t, filepath.Join(dir, "keep.esp"), "x")

	files, err := Discover(dir, nil, nil)
	require.NoError(t, err)
	require.Len(t, files, 1)
}

func TestDiscoverAppliesExcludeGlobs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.esp"), "x")
	writeFile(t, filepath.Join(dir, "a_test.esp"), "x")

	files, err := Discover(dir, nil, []string{"**/*_test.esp"})
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, filepath.Join(dir, "a.esp"), files[0])
}

func TestFilterBySizeDropsOversizedFiles(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "small.esp")
	big := filepath.Join(dir, "big.esp")
	writeFile(t, small, "x")
	writeFile(t, big, "this file is longer than one byte")

	filtered := FilterBySize([]string{small, big}, 2)
	require.Equal(t, []string{small}, filtered)
}

func TestRunProcessesEveryFileIndependently(t *testing.T) {
	files := []string{"a.esp", "b.esp", "c.esp"}
	var calls int64

	results := Run(context.Background(), files, 2, func(_ context.Context, path string) (int, error) {
		atomic.AddInt64(&calls, 1)
		if path == "b.esp" {
			return 0, errors.New("boom")
		}
		return len(path), nil
	})

	require.Len(t, results, 3)
	require.EqualValues(t, 3, calls)
	require.NoError(t, results[0].Err)
	require.Error(t, results[1].Err)
	require.NoError(t, results[2].Err)
}
