// Package cli drives a batch of ESP source files through compile+resolve
// with a bounded worker pool and renders the outcome, the shared core
// behind cmd/espc's subcommands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/esp-lang/espcore/compiler"
	"github.com/esp-lang/espcore/internal/batch"
	"github.com/esp-lang/espcore/internal/config"
	"github.com/esp-lang/espcore/internal/contract"
	"github.com/esp-lang/espcore/internal/diagnostics"
	"github.com/esp-lang/espcore/internal/resolved"
	"github.com/esp-lang/espcore/internal/source"
	"github.com/esp-lang/espcore/internal/store"
	"github.com/esp-lang/espcore/internal/util"
	"github.com/esp-lang/espcore/resolver"
)

// Runner holds the options that shape how a batch of files is compiled,
// resolved, cached, and reported.
type Runner struct {
	Limits     *config.Limits
	Contracts  *contract.Registry
	DB         *gorm.DB // nil disables the compilation cache
	Verbose    bool
	JSONOutput bool
	YAMLOutput bool
	ShowDiff   bool
	ColorDiff  bool

	diffContext int
}

// FileOutcome is one file's compile+resolve result.
type FileOutcome struct {
	Path   string                     `json:"path" yaml:"path"`
	Result *compiler.Result           `json:"-" yaml:"-"`
	Ctx    *resolved.ExecutionContext `json:"executionContext,omitempty" yaml:"executionContext,omitempty"`
	Cached *resolved.ExecutionContext `json:"-" yaml:"-"` // the prior cached run, for --diff
	Err    error                      `json:"error,omitempty" yaml:"error,omitempty"`

	src []byte // raw source, kept for span-underlined diagnostic rendering
}

func (o FileOutcome) Success() bool { return o.Err == nil && o.Result != nil && o.Result.Success() }

// NewRunner applies the production-default diff context (3 lines) unless
// the caller overrides it via SetDiffContext.
func NewRunner(lim *config.Limits, contracts *contract.Registry, db *gorm.DB) *Runner {
	return &Runner{Limits: lim, Contracts: contracts, DB: db, diffContext: 3}
}

// SetDiffContext overrides the number of context lines shown in --diff output.
func (r *Runner) SetDiffContext(n int) { r.diffContext = n }

// Run compiles and resolves every file in files, using Runner.Limits'
// Workers setting to bound concurrency (internal/batch.Run), and persists
// each outcome to the cache when Runner.DB is set.
func (r *Runner) Run(ctx context.Context, files []string) []FileOutcome {
	workers := 0
	if r.Limits != nil {
		workers = r.Limits.Workers
	}

	results := batch.Run(ctx, files, workers, func(_ context.Context, path string) (FileOutcome, error) {
		return r.processFile(path), nil
	})

	out := make([]FileOutcome, len(results))
	for i, fr := range results {
		out[i] = fr.Value
	}
	return out
}

func (r *Runner) processFile(path string) FileOutcome {
	start := time.Now()
	lim := compiler.Limits{}
	if r.Limits != nil {
		lim = r.Limits.Compiler
	}

	src, readErr := os.ReadFile(path)
	if readErr != nil {
		return FileOutcome{Path: path, Err: readErr}
	}

	res := compiler.CompileBytes(path, src, lim)
	outcome := FileOutcome{Path: path, Result: res, src: src}

	if r.DB != nil {
		if prior, err := store.LookupBySourceSHA(r.DB, util.SHA256Hex(src)); err == nil {
			if ctx, err := prior.DecodeExecutionContext(); err == nil {
				outcome.Cached = ctx
			}
		}
	}

	if !res.Success() {
		r.saveRun(path, src, res, nil)
		return outcome
	}

	ctx := resolver.Resolve(res.File, res.Symbols, res.References, resolver.Options{Contracts: r.Contracts}, res.Diagnostics)
	ctx.Stats = resolved.ProcessingStats{
		TokenCount:  res.TokenCount,
		SymbolCount: res.Symbols.TotalSymbols(),
		Duration:    time.Since(start),
		FileSize:    int64(len(src)),
	}
	outcome.Ctx = ctx
	r.saveRun(path, src, res, ctx)
	return outcome
}

func (r *Runner) saveRun(path string, src []byte, res *compiler.Result, ctx *resolved.ExecutionContext) {
	if r.DB == nil {
		return
	}
	_, _ = store.SaveRun(r.DB, path, src, res.Success(), ctx, res.Diagnostics)
	if r.Limits != nil && r.Limits.RetentionRuns > 0 {
		_ = store.PruneOldRuns(r.DB, path, r.Limits.RetentionRuns)
	}
}

// Print renders every outcome to stdout/stderr per Runner's output mode,
// and returns the process exit code: 0 if every file succeeded, 1 otherwise.
func (r *Runner) Print(outcomes []FileOutcome) int {
	if r.JSONOutput {
		b, _ := json.MarshalIndent(outcomes, "", "  ")
		fmt.Println(string(b))
		return exitCodeFor(outcomes)
	}
	if r.YAMLOutput {
		b, _ := yaml.Marshal(outcomes)
		fmt.Print(string(b))
		return exitCodeFor(outcomes)
	}

	for _, o := range outcomes {
		r.printOutcome(o)
	}
	return exitCodeFor(outcomes)
}

func exitCodeFor(outcomes []FileOutcome) int {
	for _, o := range outcomes {
		if !o.Success() {
			return 1
		}
	}
	return 0
}

func (r *Runner) printOutcome(o FileOutcome) {
	if o.Err != nil {
		fmt.Fprintf(os.Stderr, "✗ %s: %v\n", o.Path, o.Err)
		return
	}
	if !o.Success() {
		fmt.Fprintf(os.Stderr, "✗ %s\n", o.Path)
		var doc *source.Document
		if d, err := source.FromBytes(o.Path, o.src); err == nil {
			doc = d
		}
		ren := diagnostics.NewRenderer(os.Stderr, doc, nil)
		ren.RenderAll(os.Stderr, o.Result.Diagnostics.Items())
		return
	}

	if r.Verbose {
		var objects, criteria, deferred int
		for _, d := range o.Ctx.Defs {
			objects += len(d.Objects)
			criteria += len(d.Criteria)
			deferred += len(d.Deferred)
		}
		fmt.Printf("✓ %s — %d def(s), %d object(s), %d criteria, %d deferred run(s)\n",
			o.Path, len(o.Ctx.Defs), objects, criteria, deferred)
	} else {
		fmt.Printf("✓ %s\n", o.Path)
	}

	if r.ShowDiff && o.Cached != nil {
		before, _ := json.MarshalIndent(o.Cached, "", "  ")
		after, _ := json.MarshalIndent(o.Ctx, "", "  ")
		diff := util.UnifiedDiff(string(before), string(after), o.Path, r.diffContext, r.ColorDiff)
		if diff != "" {
			fmt.Print(diff)
		}
	}
}
