// Package token defines the lexical token kinds produced by the ESP lexer
// and the checkpoint/restore token stream consumed by the parser.
package token

import (
	"fmt"

	"github.com/esp-lang/espcore/internal/source"
)

// Kind enumerates every lexical token kind in the ESP grammar, one
// keyword kind per reserved word.
type Kind int

const (
	Illegal Kind = iota
	EOF
	Newline
	Comment

	Identifier
	StringLiteral      // `...`
	RawStringLiteral   // r`...`
	BlockStringLiteral // ```...``` or r```...```
	IntLiteral
	FloatLiteral

	// Operators.
	Eq
	Ne
	Gt
	Lt
	Ge
	Le
	Plus
	Minus
	Star
	Slash
	Percent

	// Block headers and terminators.
	KwMeta
	KwMetaEnd
	KwDef
	KwDefEnd
	KwVar
	KwState
	KwStateEnd
	KwObject
	KwObjectEnd
	KwCtn
	KwCtnEnd
	KwCri
	KwCriEnd
	KwSet
	KwSetEnd
	KwRun
	KwRunEnd
	KwFilter
	KwFilterEnd
	KwTest
	KwStateRef
	KwObjectRef
	KwSetRef
	KwObj
	KwEnd

	// Lowercase sub-block keywords.
	KwParameters
	KwParametersEnd
	KwSelect
	KwSelectEnd
	KwRecord
	KwRecordEnd

	// Logical and literal keywords.
	KwAnd
	KwOr
	KwNot
	KwOne
	KwTrue
	KwFalse

	// SET algebra vocabulary.
	KwUnion
	KwIntersection
	KwComplement
	KwInclude
	KwExclude

	// TEST vocabulary.
	KwAny
	KwAll
	KwNone
	KwAtLeastOne
	KwOnlyOne
	KwNoneSatisfy

	// String/pattern/collection operation names.
	KwIEq
	KwINe
	KwContains
	KwNotContains
	KwStarts
	KwNotStarts
	KwEnds
	KwNotEnds
	KwPatternMatch
	KwMatches
	KwSubsetOf
	KwSupersetOf

	// RUN operation names.
	KwConcat
	KwSplit
	KwSubstring
	KwRegexCapture
	KwArithmetic
	KwCount
	KwUnique
	KwMerge
	KwExtract

	// RUN parameter labels.
	KwLiteral
	KwPattern
	KwDelimiter
	KwCharacter
	KwStart
	KwLength

	// Object module metadata.
	KwBehavior
	KwModule
	KwModuleName
	KwModuleVersion
	KwModuleCommand
	KwModuleType
)

var keywords = map[string]Kind{
	"META": KwMeta, "META_END": KwMetaEnd,
	"DEF": KwDef, "DEF_END": KwDefEnd,
	"VAR": KwVar,
	"STATE": KwState, "STATE_END": KwStateEnd,
	"OBJECT": KwObject, "OBJECT_END": KwObjectEnd,
	"CTN": KwCtn, "CTN_END": KwCtnEnd,
	"CRI": KwCri, "CRI_END": KwCriEnd,
	"SET": KwSet, "SET_END": KwSetEnd,
	"RUN": KwRun, "RUN_END": KwRunEnd,
	"FILTER": KwFilter, "FILTER_END": KwFilterEnd,
	"TEST":       KwTest,
	"STATE_REF":  KwStateRef,
	"OBJECT_REF": KwObjectRef,
	"SET_REF":    KwSetRef,
	"OBJ":        KwObj,
	"END":        KwEnd,

	"parameters": KwParameters, "parameters_end": KwParametersEnd,
	"select": KwSelect, "select_end": KwSelectEnd,
	"record": KwRecord, "record_end": KwRecordEnd,

	"AND": KwAnd, "OR": KwOr, "NOT": KwNot, "ONE": KwOne,
	"true": KwTrue, "false": KwFalse,

	"union": KwUnion, "intersection": KwIntersection, "complement": KwComplement,
	"include": KwInclude, "exclude": KwExclude,

	"any": KwAny, "all": KwAll, "none": KwNone,
	"at_least_one": KwAtLeastOne, "only_one": KwOnlyOne, "none_satisfy": KwNoneSatisfy,

	"ieq": KwIEq, "ine": KwINe, "contains": KwContains, "not_contains": KwNotContains,
	"starts": KwStarts, "not_starts": KwNotStarts, "ends": KwEnds, "not_ends": KwNotEnds,
	"pattern_match": KwPatternMatch, "matches": KwMatches,
	"subset_of": KwSubsetOf, "superset_of": KwSupersetOf,

	"CONCAT": KwConcat, "SPLIT": KwSplit, "SUBSTRING": KwSubstring,
	"REGEX_CAPTURE": KwRegexCapture, "ARITHMETIC": KwArithmetic,
	"COUNT": KwCount, "UNIQUE": KwUnique, "MERGE": KwMerge, "EXTRACT": KwExtract,

	"literal": KwLiteral, "pattern": KwPattern, "delimiter": KwDelimiter,
	"character": KwCharacter, "start": KwStart, "length": KwLength,

	"behavior": KwBehavior, "module": KwModule,
	"module_name": KwModuleName, "module_version": KwModuleVersion,
	"module_command": KwModuleCommand, "module_type": KwModuleType,
}

// Lookup returns the keyword Kind for an identifier's exact text, or
// (Illegal, false) if text is an ordinary identifier.
func Lookup(text string) (Kind, bool) {
	k, ok := keywords[text]
	return k, ok
}

// IsReserved reports whether text names a reserved keyword and therefore
// cannot be used as an identifier.
func IsReserved(text string) bool {
	_, ok := keywords[text]
	return ok
}

var kindNames = map[Kind]string{
	Illegal: "ILLEGAL", EOF: "EOF", Newline: "NEWLINE", Comment: "COMMENT",
	Identifier: "IDENTIFIER", StringLiteral: "STRING", RawStringLiteral: "RAW_STRING",
	BlockStringLiteral: "BLOCK_STRING", IntLiteral: "INT", FloatLiteral: "FLOAT",
	Eq: "=", Ne: "!=", Gt: ">", Lt: "<", Ge: ">=", Le: "<=",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%",
}

// String renders a Kind for diagnostics and test failure messages.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	for text, kw := range keywords {
		if kw == k {
			return text
		}
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is one lexical unit: its kind, literal text, and source span.
type Token struct {
	Kind Kind
	Text string
	Span source.Span
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q) at %s", t.Kind, t.Text, t.Span)
}

// Stream is a checkpoint/restore cursor over a fixed token slice, matching
// the 2-token-lookahead, backtracking-friendly interface the recursive
// descent parser needs. The cursor walks the significant view: comment
// tokens are split out at construction and kept aside, in source order,
// so the parser never sees them but tooling can still read them back.
type Stream struct {
	tokens   []Token
	comments []Token
	pos      int
}

// NewStream wraps a fully lexed token slice (which must end in an EOF
// token) for parser consumption, filtering comment tokens into the
// stream's side list.
func NewStream(tokens []Token) *Stream {
	significant := make([]Token, 0, len(tokens))
	var comments []Token
	for _, t := range tokens {
		if t.Kind == Comment {
			comments = append(comments, t)
			continue
		}
		significant = append(significant, t)
	}
	return &Stream{tokens: significant, comments: comments}
}

// Peek returns the token offset tokens ahead of the cursor without
// consuming it. offset 0 is the current token.
func (s *Stream) Peek(offset int) Token {
	i := s.pos + offset
	if i >= len(s.tokens) {
		return s.tokens[len(s.tokens)-1] // EOF
	}
	return s.tokens[i]
}

// Next consumes and returns the current token, advancing the cursor.
func (s *Stream) Next() Token {
	t := s.Peek(0)
	if s.pos < len(s.tokens)-1 {
		s.pos++
	}
	return t
}

// Checkpoint captures the cursor position for later Restore, used by the
// parser when a tentative parse path must be abandoned.
func (s *Stream) Checkpoint() int { return s.pos }

// Restore resets the cursor to a previously captured Checkpoint.
func (s *Stream) Restore(mark int) { s.pos = mark }

// AtEOF reports whether the cursor has reached the terminal EOF token.
func (s *Stream) AtEOF() bool { return s.Peek(0).Kind == EOF }

// Len returns the total token count, including comment tokens and the
// terminal EOF token.
func (s *Stream) Len() int { return len(s.tokens) + len(s.comments) }

// Comments returns every comment token in source order.
func (s *Stream) Comments() []Token { return s.comments }
