// Package compiler orchestrates the seven front-end passes:
// File Intake, Lexer, Parser, Symbol Discovery, Reference
// Validation, Semantic Analysis, and Structural Validation. Each stage
// accumulates diagnostics into a shared diagnostics.List; any
// Error-severity diagnostic produced by a stage halts every stage after
// it, but the stages that already ran keep whatever diagnostics and
// partial output they produced so the caller can still report a complete
// picture of what went wrong.
package compiler

import (
	"github.com/esp-lang/espcore/internal/ast"
	"github.com/esp-lang/espcore/internal/diagnostics"
	"github.com/esp-lang/espcore/internal/discovery"
	"github.com/esp-lang/espcore/internal/lexer"
	"github.com/esp-lang/espcore/internal/parser"
	"github.com/esp-lang/espcore/internal/reference"
	"github.com/esp-lang/espcore/internal/sema"
	"github.com/esp-lang/espcore/internal/source"
	"github.com/esp-lang/espcore/internal/structural"
)

// Limits bundles every stage's configurable resource bound, so a single
// config.Limits value (internal/config) can thread all of them through one
// call to Compile.
type Limits struct {
	Source     source.Limits
	Lexer      lexer.Limits
	Structural structural.Limits
}

// Result is everything Compile produced: the parsed file (possibly
// partial, if parsing halted early), one symbol table and reference-graph
// pair per Def, and every diagnostic collected across every stage that ran.
type Result struct {
	File        *ast.EspFile
	Symbols     *discovery.Tables
	References  reference.FileGraphs
	Diagnostics *diagnostics.List
	TokenCount  int
}

// Compile runs the full front-end pipeline against a single file on disk.
func Compile(path string, lim Limits) *Result {
	diags := diagnostics.NewList(limOrDefault(lim).MaxSemanticErrors)
	res := &Result{Diagnostics: diags}

	doc, err := source.Load(path, lim.Source)
	if err != nil {
		se, ok := err.(*source.Error)
		code := diagnostics.CodeNotFound
		if ok {
			code = fileErrorCode(se.Kind)
		}
		diags.Add(diagnostics.New(code, err.Error(), nil))
		return res
	}
	return compileDoc(doc, lim, res)
}

// CompileBytes runs the pipeline against an in-memory buffer, used by
// tests and by tools that don't read .esp files from disk.
func CompileBytes(path string, buf []byte, lim Limits) *Result {
	diags := diagnostics.NewList(limOrDefault(lim).MaxSemanticErrors)
	res := &Result{Diagnostics: diags}

	doc, err := source.FromBytes(path, buf)
	if err != nil {
		se, _ := err.(*source.Error)
		code := diagnostics.CodeInvalidEncoding
		if se != nil {
			code = fileErrorCode(se.Kind)
		}
		diags.Add(diagnostics.New(code, err.Error(), nil))
		return res
	}
	return compileDoc(doc, lim, res)
}

// limOrDefault substitutes structural.DefaultLimits when the caller leaves
// Structural at its zero value, so the diagnostics list cap (default
// 1000) is always sane even before structural.Validate itself applies
// its own default.
func limOrDefault(lim Limits) structural.Limits {
	if lim.Structural == (structural.Limits{}) {
		return structural.DefaultLimits
	}
	return lim.Structural
}

func compileDoc(doc *source.Document, lim Limits, res *Result) *Result {
	diags := res.Diagnostics

	stream := lexer.Lex(doc, diags, lim.Lexer)
	res.TokenCount = stream.Len()
	if diags.HasErrors() {
		return res
	}

	res.File = parser.Parse(doc.Path, stream, diags)
	if diags.HasErrors() {
		return res
	}

	res.Symbols = discovery.Discover(res.File, diags)
	if diags.HasErrors() {
		return res
	}

	res.References = reference.Validate(res.File, res.Symbols, diags)
	if diags.HasErrors() {
		return res
	}

	sema.Analyze(res.File, diags)
	if diags.HasErrors() {
		return res
	}

	structural.Validate(res.File, res.Symbols, res.References, diags, lim.Structural)
	return res
}

func fileErrorCode(kind string) string {
	switch kind {
	case "NotFound":
		return diagnostics.CodeNotFound
	case "TooLarge":
		return diagnostics.CodeTooLarge
	case "InvalidExtension":
		return diagnostics.CodeInvalidExtension
	case "InvalidEncoding":
		return diagnostics.CodeInvalidEncoding
	case "PermissionDenied":
		return diagnostics.CodePermissionDenied
	default:
		return diagnostics.CodeNotFound
	}
}

// Success reports whether compilation completed every stage without any
// Error-severity diagnostic (warnings are still permitted).
func (r *Result) Success() bool {
	return r.Diagnostics != nil && !r.Diagnostics.HasErrors()
}
