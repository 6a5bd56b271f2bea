package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/esp-lang/espcore/internal/diagnostics"
)

func TestCompileBytesMinimalAccept(t *testing.T) {
	src := "DEF\n" +
		"  STATE s exists boolean = true STATE_END\n" +
		"  OBJECT o path `/etc/hosts` OBJECT_END\n" +
		"  CRI AND\n" +
		"    CTN file_metadata\n" +
		"      TEST all all\n" +
		"      STATE_REF s\n" +
		"      OBJECT_REF o\n" +
		"    CTN_END\n" +
		"  CRI_END\n" +
		"DEF_END\n"
	res := CompileBytes("minimal.esp", []byte(src), Limits{})
	require.True(t, res.Success())
	require.NotNil(t, res.File)
	require.NotNil(t, res.Symbols)
	require.NotNil(t, res.References)
	require.Len(t, res.File.Defs, 1)
	require.Len(t, res.File.Defs[0].CriteriaTrees, 1)
}

func TestCompileBytesHaltsAtLexer(t *testing.T) {
	src := "DEF\n  OBJECT o path `unterminated\nDEF_END\n"
	res := CompileBytes("bad.esp", []byte(src), Limits{})
	require.False(t, res.Success())
	require.Nil(t, res.File)
}

func TestCompileBytesHaltsAtDiscoveryOnDuplicate(t *testing.T) {
	src := "DEF\n" +
		"  OBJECT o path `/etc/hosts` OBJECT_END\n" +
		"  OBJECT o path `/etc/passwd` OBJECT_END\n" +
		"  CRI AND\n" +
		"    CTN file_metadata\n      TEST all all\n      OBJECT_REF o\n    CTN_END\n" +
		"  CRI_END\n" +
		"DEF_END\n"
	res := CompileBytes("dup.esp", []byte(src), Limits{})
	require.False(t, res.Success())
	require.NotNil(t, res.File)
	require.NotNil(t, res.Symbols)
	found := false
	for _, d := range res.Diagnostics.Items() {
		if d.Code == diagnostics.CodeDuplicateSymbol {
			found = true
		}
	}
	require.True(t, found)
}

func TestCompileBytesHaltsAtReferenceValidation(t *testing.T) {
	src := "DEF\n" +
		"  VAR port int VAR missing\n" +
		"  CRI AND\n" +
		"    CTN file_metadata\n      TEST all all\n    CTN_END\n" +
		"  CRI_END\n" +
		"DEF_END\n"
	res := CompileBytes("unresolved.esp", []byte(src), Limits{})
	require.False(t, res.Success())
	require.NotNil(t, res.Symbols)
	require.NotNil(t, res.References)
	found := false
	for _, d := range res.Diagnostics.Items() {
		if d.Code == diagnostics.CodeUnresolvedReference {
			found = true
		}
	}
	require.True(t, found)
}

func TestCompileMissingFileReportsNotFound(t *testing.T) {
	res := Compile("/no/such/path.esp", Limits{})
	require.False(t, res.Success())
	require.Equal(t, diagnostics.CodeNotFound, res.Diagnostics.Items()[0].Code)
}

func TestCompileBytesInvalidEncodingReportsDiagnostic(t *testing.T) {
	res := CompileBytes("bom.esp", []byte{0xEF, 0xBB, 0xBF, 'O'}, Limits{})
	require.False(t, res.Success())
	require.Equal(t, diagnostics.CodeInvalidEncoding, res.Diagnostics.Items()[0].Code)
}

func TestCompileBytesCircularVariableDependency(t *testing.T) {
	src := "DEF\n" +
		"  VAR a string VAR b\n" +
		"  VAR b string VAR a\n" +
		"  CRI AND\n" +
		"    CTN file_metadata\n      TEST all all\n    CTN_END\n" +
		"  CRI_END\n" +
		"DEF_END\n"
	res := CompileBytes("cycle.esp", []byte(src), Limits{})
	require.False(t, res.Success())
	found := false
	for _, d := range res.Diagnostics.Items() {
		if d.Code == diagnostics.CodeCircularDependency {
			found = true
		}
	}
	require.True(t, found)
}
