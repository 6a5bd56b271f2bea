// Package source handles file intake: reading an .esp source buffer,
// validating it, and indexing line starts for position bookkeeping.
package source

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

// Position is a byte offset decorated with 1-based line and column.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Span is a half-open [Start, End) byte range.
type Span struct {
	Start Position
	End   Position
}

// String renders a span as "line:col-line:col" for diagnostics.
func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", s.Start.Line, s.Start.Column, s.End.Line, s.End.Column)
}

// Limits bounds what File Intake will accept. Callers construct this from
// internal/config; the zero value falls back to the production cap.
type Limits struct {
	// MaxBytes is the hard size cap. Zero means DefaultProductionCapBytes.
	MaxBytes int64
	// RequireExtension, when true, rejects paths not ending in ".esp".
	RequireExtension bool
}

const (
	// DefaultHardCapBytes is the absolute ceiling regardless of configuration.
	DefaultHardCapBytes = 50 * 1024 * 1024
	// DefaultProductionCapBytes is the recommended default for production use.
	DefaultProductionCapBytes = 10 * 1024 * 1024
)

// Error is the uniform error type for File Intake failures. All are fatal:
// the pipeline halts before lexing begins.
type Error struct {
	Kind string // NotFound, TooLarge, InvalidExtension, InvalidEncoding, PermissionDenied
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

// Document is the output of File Intake: the raw buffer, an index of line
// start offsets, and basic metadata. The raw buffer is preserved byte for
// byte; line endings are normalized only in the position bookkeeping below.
type Document struct {
	Path       string
	Bytes      []byte
	LineStarts []int // byte offset of the first byte of each line; LineStarts[0] == 0
	SizeBytes  int64
}

// Load runs File Intake against a filesystem path: existence, permission,
// size, extension, and UTF-8 validity checks, then builds the line-start
// index in a single pass.
func Load(path string, lim Limits) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &Error{Kind: "NotFound", Path: path, Err: err}
		}
		if os.IsPermission(err) {
			return nil, &Error{Kind: "PermissionDenied", Path: path, Err: err}
		}
		return nil, &Error{Kind: "NotFound", Path: path, Err: err}
	}

	if lim.RequireExtension && filepath.Ext(path) != ".esp" {
		return nil, &Error{Kind: "InvalidExtension", Path: path,
			Err: fmt.Errorf("expected .esp extension, got %q", filepath.Ext(path))}
	}

	max := lim.MaxBytes
	if max <= 0 {
		max = DefaultProductionCapBytes
	}
	if max > DefaultHardCapBytes {
		max = DefaultHardCapBytes
	}
	if info.Size() > max {
		return nil, &Error{Kind: "TooLarge", Path: path,
			Err: fmt.Errorf("%s exceeds limit of %s", humanize.Bytes(uint64(info.Size())), humanize.Bytes(uint64(max)))}
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, &Error{Kind: "PermissionDenied", Path: path, Err: err}
		}
		return nil, &Error{Kind: "NotFound", Path: path, Err: err}
	}

	return FromBytes(path, buf)
}

// FromBytes builds a Document directly from an in-memory buffer, running
// the same encoding validation Load performs. Useful for tests and for
// embedding ESP source in other tools without a filesystem round trip.
func FromBytes(path string, buf []byte) (*Document, error) {
	if bytes.HasPrefix(buf, []byte{0xEF, 0xBB, 0xBF}) {
		return nil, &Error{Kind: "InvalidEncoding", Path: path, Err: fmt.Errorf("UTF-8 BOM not permitted")}
	}
	if !utf8.Valid(buf) {
		return nil, &Error{Kind: "InvalidEncoding", Path: path, Err: fmt.Errorf("not valid UTF-8")}
	}

	return &Document{
		Path:       path,
		Bytes:      buf,
		LineStarts: indexLineStarts(buf),
		SizeBytes:  int64(len(buf)),
	}, nil
}

// indexLineStarts records the byte offset of the first byte of every line.
// CRLF and CR are recognized as line endings for bookkeeping purposes only;
// the raw buffer is never mutated.
func indexLineStarts(buf []byte) []int {
	starts := make([]int, 1, len(buf)/40+1)
	starts[0] = 0
	for i := 0; i < len(buf); i++ {
		switch buf[i] {
		case '\n':
			starts = append(starts, i+1)
		case '\r':
			if i+1 < len(buf) && buf[i+1] == '\n' {
				continue // let the following \n register the line start
			}
			starts = append(starts, i+1)
		}
	}
	return starts
}

// Position converts a byte offset into a 1-based line/column Position using
// a binary search over the line-start index, giving O(log n) lookups for
// arbitrarily large documents.
func (d *Document) Position(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.Bytes) {
		offset = len(d.Bytes)
	}
	line := sort.Search(len(d.LineStarts), func(i int) bool {
		return d.LineStarts[i] > offset
	}) - 1
	if line < 0 {
		line = 0
	}
	col := offset - d.LineStarts[line] + 1
	return Position{Offset: offset, Line: line + 1, Column: col}
}

// Span builds a Span from a pair of byte offsets.
func (d *Document) Span(start, end int) Span {
	return Span{Start: d.Position(start), End: d.Position(end)}
}

// LineText returns the raw bytes of the given 1-based line, excluding its
// terminator. Used by the diagnostics renderer for span underlines.
func (d *Document) LineText(line int) []byte {
	if line < 1 || line > len(d.LineStarts) {
		return nil
	}
	start := d.LineStarts[line-1]
	end := len(d.Bytes)
	if line < len(d.LineStarts) {
		end = d.LineStarts[line]
	}
	for end > start && (d.Bytes[end-1] == '\n' || d.Bytes[end-1] == '\r') {
		end--
	}
	return d.Bytes[start:end]
}
