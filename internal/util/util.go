// Package util holds the small set of ambient helpers shared across the
// CLI and storage layers: source hashing for the compilation cache's
// lookup key, and unified-diff rendering for the CLI's --diff output.
package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// SHA256Hex returns the hex-encoded SHA-256 digest of b, used as the
// compilation cache's lookup key (internal/store.Run.SourceSHA), under
// which the CLI finds a prior run of the same source for --diff; the file
// is still recompiled.
func SHA256Hex(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

const (
	colorReset = "\x1b[0m"
	colorRed   = "\x1b[31m"
	colorGreen = "\x1b[32m"
	colorCyan  = "\x1b[36m"
)

// UnifiedDiff renders a unified diff between two Execution Context (or
// diagnostics) renderings, optionally ANSI-colored, for the CLI's --diff
// flag when comparing a cached run against a fresh compile.
func UnifiedDiff(from, to, path string, context int, color bool) string {
	d := difflib.UnifiedDiff{
		A:        difflib.SplitLines(from),
		B:        difflib.SplitLines(to),
		FromFile: path + " (cached)",
		ToFile:   path,
		Context:  context,
	}
	text, err := difflib.GetUnifiedDiffString(d)
	if err != nil {
		return "(diff error: " + err.Error() + ")"
	}
	if !color {
		return text
	}

	var sb strings.Builder
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		if i == len(lines)-1 && l == "" {
			continue
		}
		switch {
		case strings.HasPrefix(l, "+"):
			sb.WriteString(colorGreen + l + colorReset + "\n")
		case strings.HasPrefix(l, "-"):
			sb.WriteString(colorRed + l + colorReset + "\n")
		case strings.HasPrefix(l, "@"):
			sb.WriteString(colorCyan + l + colorReset + "\n")
		default:
			sb.WriteString(l + "\n")
		}
	}
	return sb.String()
}
