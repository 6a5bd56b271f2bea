// Package config loads the Limits that bound every stage of compilation
// and resolution, plus the runtime settings for batch discovery and the
// compilation cache, from environment variables (optionally staged into
// the process environment from a .env file via godotenv).
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/esp-lang/espcore/compiler"
	"github.com/esp-lang/espcore/internal/lexer"
	"github.com/esp-lang/espcore/internal/source"
	"github.com/esp-lang/espcore/internal/structural"
)

// Limits bundles compiler.Limits with the settings that live outside the
// compile/resolve pipeline: batch worker concurrency, the compilation
// cache's storage DSN, and how many prior runs it retains.
type Limits struct {
	Compiler compiler.Limits

	Workers       int
	MaxFileBytes  int64
	DatabaseDSN   string
	RetentionRuns int
}

// Load builds a Limits value from the production defaults, then applies
// any ESPC_* environment variables found, loading a .env file first when
// one is present in the working directory. A missing .env file is not an
// error: godotenv.Load is best-effort, and every variable is optional
// with a sane default.
func Load() *Limits {
	_ = godotenv.Load()

	lim := &Limits{
		Compiler: compiler.Limits{
			Source:     source.Limits{MaxBytes: source.DefaultProductionCapBytes},
			Lexer:      lexer.DefaultLimits,
			Structural: structural.DefaultLimits,
		},
		Workers:       0, // 0 means "use all available CPUs", resolved by internal/batch
		MaxFileBytes:  source.DefaultProductionCapBytes,
		DatabaseDSN:   "espcore.db",
		RetentionRuns: 20,
	}

	if v := os.Getenv("ESPC_MAX_SOURCE_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			lim.Compiler.Source.MaxBytes = n
			lim.MaxFileBytes = n
		}
	}
	if v := os.Getenv("ESPC_REQUIRE_EXTENSION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			lim.Compiler.Source.RequireExtension = b
		}
	}
	if v := os.Getenv("ESPC_MAX_IDENTIFIER_LEN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			lim.Compiler.Lexer.MaxIdentifierLen = n
		}
	}
	if v := os.Getenv("ESPC_MAX_STRING_LEN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			lim.Compiler.Lexer.MaxStringLen = n
		}
	}
	if v := os.Getenv("ESPC_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			lim.Compiler.Lexer.MaxTokens = n
		}
	}
	if v := os.Getenv("ESPC_MAX_GLOBAL_SYMBOLS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			lim.Compiler.Structural.MaxGlobalSymbols = n
		}
	}
	if v := os.Getenv("ESPC_MAX_LOCAL_SYMBOLS_PER_CTN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			lim.Compiler.Structural.MaxLocalSymbolsPerCTN = n
		}
	}
	if v := os.Getenv("ESPC_MAX_SYMBOL_RELATIONSHIPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			lim.Compiler.Structural.MaxSymbolRelationships = n
		}
	}
	if v := os.Getenv("ESPC_MAX_REFERENCE_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			lim.Compiler.Structural.MaxReferenceDepth = n
		}
	}
	if v := os.Getenv("ESPC_MAX_REFERENCES_PER_SYMBOL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			lim.Compiler.Structural.MaxReferencesPerSymbol = n
		}
	}
	if v := os.Getenv("ESPC_MAX_DEPENDENCY_NODES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			lim.Compiler.Structural.MaxDependencyNodes = n
		}
	}
	if v := os.Getenv("ESPC_MAX_SEMANTIC_ERRORS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			lim.Compiler.Structural.MaxSemanticErrors = n
		}
	}
	if v := os.Getenv("ESPC_MAX_SET_OPERANDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			lim.Compiler.Structural.MaxSetOperands = n
		}
	}
	if v := os.Getenv("ESPC_MAX_CRI_NESTING_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			lim.Compiler.Structural.MaxCriNestingDepth = n
		}
	}
	if v := os.Getenv("ESPC_MAX_CRITERIA_BLOCKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			lim.Compiler.Structural.MaxCriteriaBlocks = n
		}
	}
	if v := os.Getenv("ESPC_MAX_SYMBOLS_PER_DEF"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			lim.Compiler.Structural.MaxSymbolsPerDef = n
		}
	}
	if v := os.Getenv("ESPC_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			lim.Workers = n
		}
	}
	if v := os.Getenv("ESPC_DATABASE_DSN"); v != "" {
		lim.DatabaseDSN = v
	}
	if v := os.Getenv("ESPC_RETENTION_RUNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			lim.RetentionRuns = n
		}
	}

	return lim
}
