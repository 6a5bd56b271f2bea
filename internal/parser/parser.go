// Package parser implements ESP's recursive-descent parser:
// two-token lookahead, a maximum nesting depth of 100, error recovery by
// skipping to the next block-boundary keyword, and a cap of 50 collected
// syntax errors before the stage halts outright.
package parser

import (
	"fmt"

	"github.com/esp-lang/espcore/internal/ast"
	"github.com/esp-lang/espcore/internal/diagnostics"
	"github.com/esp-lang/espcore/internal/source"
	"github.com/esp-lang/espcore/internal/token"
	"github.com/esp-lang/espcore/internal/types"
)

const (
	// MaxDepth bounds recursive descent to guard against pathological or
	// adversarial nesting.
	MaxDepth = 100
	// MaxErrors caps accumulated syntax diagnostics; beyond this the parser
	// abandons recovery and returns what it has.
	MaxErrors = 50
)

// blockKeywords are the safe resynchronization points during error
// recovery: on a syntax error, the parser discards tokens until it finds
// one of these (or EOF), so one bad block does not cascade into spurious
// errors across the rest of the file.
var blockKeywords = map[token.Kind]bool{
	token.KwMeta: true, token.KwDef: true, token.KwDefEnd: true,
	token.KwVar: true, token.KwState: true, token.KwObject: true,
	token.KwSet: true, token.KwRun: true, token.KwCri: true, token.KwCtn: true,
	// Nested terminators also stop recovery, so a syntax error inside a
	// CTN/CRI/OBJECT/SET/RUN block resynchronizes at that block's own close
	// rather than skipping past it in search of a top-level keyword.
	token.KwStateEnd: true, token.KwObjectEnd: true, token.KwCtnEnd: true,
	token.KwCriEnd: true, token.KwSetEnd: true, token.KwRunEnd: true,
	token.KwFilterEnd: true, token.KwMetaEnd: true,
}

// fieldTypeKeywords maps the (unreserved, contextual) type-name identifiers
// to their types.Type. Type names are not reserved keywords; they are
// ordinary identifiers interpreted positionally.
var fieldTypeKeywords = map[string]types.Type{
	"string": types.String, "int": types.Int, "float": types.Float,
	"boolean": types.Boolean, "binary": types.Binary,
	"version": types.Version, "evr_string": types.EVRString, "record": types.Record,
}

type parser struct {
	s      *token.Stream
	diags  *diagnostics.List
	depth  int
	halted bool
}

// Parse consumes stream into an ast.EspFile. It never panics on malformed
// input: syntax errors are recorded to diags and parsing resynchronizes at
// the next block keyword, up to MaxErrors.
func Parse(path string, stream *token.Stream, diags *diagnostics.List) *ast.EspFile {
	p := &parser{s: stream, diags: diags}
	file := &ast.EspFile{Path: path}
	base := len(diags.Items())

	for !p.s.AtEOF() && !p.halted {
		p.skipNewlines()
		if p.s.AtEOF() {
			break
		}
		switch p.s.Peek(0).Kind {
		case token.KwMeta:
			file.Meta = p.parseMeta()
		case token.KwDef:
			file.Defs = append(file.Defs, p.parseDef())
		default:
			p.errorf(diagnostics.CodeUnexpectedToken, p.s.Peek(0).Span,
				"expected META or DEF at the top level, found %s", p.s.Peek(0).Kind)
			p.recover()
		}
		if p.diags.Full() || len(p.diags.Items())-base >= MaxErrors {
			p.halted = true
			p.errorf(diagnostics.CodeTooManyParseErrors, p.s.Peek(0).Span, "too many syntax errors, aborting parse")
		}
	}
	return file
}

func (p *parser) errorf(code string, span source.Span, format string, args ...any) {
	p.diags.Add(diagnostics.New(code, fmt.Sprintf(format, args...), &span))
}

func (p *parser) warnf(code string, span source.Span, format string, args ...any) {
	p.diags.Add(diagnostics.Warn(code, fmt.Sprintf(format, args...), &span))
}

// enter bumps the recursion depth and reports E041 if MaxDepth is exceeded,
// returning false when the caller should unwind immediately.
func (p *parser) enter() bool {
	p.depth++
	if p.depth > MaxDepth {
		p.errorf(diagnostics.CodeMaxParseDepth, p.s.Peek(0).Span, "maximum nesting depth of %d exceeded", MaxDepth)
		return false
	}
	return true
}

func (p *parser) leave() { p.depth-- }

// skipNewlines discards insignificant newline tokens: the grammar allows
// any number of statements on one physical line or spread across many
// (a whole STATE or OBJECT block may sit on a single line), so newlines
// carry no syntactic weight.
func (p *parser) skipNewlines() {
	for p.s.Peek(0).Kind == token.Newline {
		p.s.Next()
	}
}

// expect consumes a token of the given kind or records a syntax error and
// returns the zero Token, leaving the cursor in place for recover() to use.
// A reserved keyword sitting where an identifier is required gets its own
// code (E025), since "you cannot name a symbol DEF" is a better diagnosis
// than a generic unexpected-token report.
func (p *parser) expect(kind token.Kind) (token.Token, bool) {
	tok := p.s.Peek(0)
	if tok.Kind == kind {
		return p.s.Next(), true
	}
	if kind == token.Identifier && token.IsReserved(tok.Text) {
		p.errorf(diagnostics.CodeReservedKeywordAsIdent, tok.Span,
			"reserved keyword %q cannot be used as an identifier", tok.Text)
		return token.Token{}, false
	}
	p.errorf(diagnostics.CodeUnexpectedToken, tok.Span,
		"expected %s, found %s", kind, tok.Kind)
	return token.Token{}, false
}

// recover discards tokens until the next block-boundary keyword or EOF, so
// one malformed block doesn't produce a cascade of spurious errors.
func (p *parser) recover() {
	for {
		k := p.s.Peek(0).Kind
		if k == token.EOF || blockKeywords[k] {
			return
		}
		p.s.Next()
	}
}

// parseMeta parses the optional file-level META block: META (key value
// pairs, one literal each)* META_END. Field order is preserved as declared.
func (p *parser) parseMeta() *ast.Meta {
	start := p.s.Peek(0).Span
	p.s.Next() // META
	meta := &ast.Meta{}
	p.skipNewlines()
	for p.s.Peek(0).Kind != token.KwMetaEnd && p.s.Peek(0).Kind != token.EOF {
		key, ok := p.expect(token.Identifier)
		if !ok {
			p.recover()
			break
		}
		meta.Fields = append(meta.Fields, ast.MetaField{Key: key.Text, Value: p.parseLiteralValue()})
		p.skipNewlines()
	}
	end, _ := p.expect(token.KwMetaEnd)
	meta.Span = source.Span{Start: start.Start, End: end.Span.End}
	return meta
}

// parseDef parses an anonymous scope: DEF <body> DEF_END. Variables,
// states, objects, sets, runs, and CRI trees may appear in any order.
func (p *parser) parseDef() *ast.Def {
	start := p.s.Peek(0).Span
	p.s.Next() // DEF
	def := &ast.Def{}
	if !p.enter() {
		p.leave()
		return def
	}
	defer p.leave()

	p.skipNewlines()
	for p.s.Peek(0).Kind != token.KwDefEnd && p.s.Peek(0).Kind != token.EOF {
		switch p.s.Peek(0).Kind {
		case token.KwVar:
			def.Variables = append(def.Variables, p.parseVariableDecl())
		case token.KwState:
			def.States = append(def.States, p.parseStateDecl())
		case token.KwObject:
			def.Objects = append(def.Objects, p.parseObjectDecl())
		case token.KwSet:
			def.Sets = append(def.Sets, p.parseSetDecl())
		case token.KwRun:
			def.Runs = append(def.Runs, p.parseRunBlock())
		case token.KwCri:
			def.CriteriaTrees = append(def.CriteriaTrees, p.parseCriteriaBlock())
		default:
			p.errorf(diagnostics.CodeUnexpectedToken, p.s.Peek(0).Span,
				"expected VAR, STATE, OBJECT, SET, RUN, or CRI inside DEF, found %s", p.s.Peek(0).Kind)
			p.recover()
		}
		p.skipNewlines()
	}
	end, _ := p.expect(token.KwDefEnd)
	def.Span = source.Span{Start: start.Start, End: end.Span.End}
	return def
}

// parseVariableDecl parses VAR name type initial?, where initial is a
// literal or another VAR reference.
func (p *parser) parseVariableDecl() *ast.VariableDecl {
	start := p.s.Peek(0).Span
	p.s.Next() // VAR
	name, _ := p.expect(token.Identifier)
	typTok, _ := p.expect(token.Identifier)
	t := p.resolveType(typTok)
	v := &ast.VariableDecl{Name: name.Text, Type: t, Span: source.Span{Start: start.Start, End: typTok.Span.End}}
	if p.atExprStart() {
		v.Initial = p.parseExpr()
		v.Span.End = v.Initial.Span.End
	}
	return v
}

// resolveType interprets a type-name token positionally (type names are
// not reserved keywords).
func (p *parser) resolveType(tok token.Token) types.Type {
	if t, ok := fieldTypeKeywords[tok.Text]; ok {
		return t
	}
	p.errorf(diagnostics.CodeUnexpectedToken, tok.Span, "unknown type %q", tok.Text)
	return types.String
}

// atExprStart reports whether the current token can begin an Expr (a
// literal or a VAR reference), used to decide whether an optional value
// position is actually present.
func (p *parser) atExprStart() bool {
	switch p.s.Peek(0).Kind {
	case token.KwVar, token.StringLiteral, token.RawStringLiteral, token.BlockStringLiteral,
		token.IntLiteral, token.FloatLiteral, token.KwTrue, token.KwFalse:
		return true
	}
	return false
}

// parseExpr parses a literal value or a VAR <name> reference.
func (p *parser) parseExpr() ast.Expr {
	tok := p.s.Peek(0)
	if tok.Kind == token.KwVar {
		p.s.Next()
		name, _ := p.expect(token.Identifier)
		return ast.Expr{VarRef: name.Text, Span: source.Span{Start: tok.Span.Start, End: name.Span.End}}
	}
	v := p.parseLiteralValue()
	return ast.Expr{Literal: &v, Span: tok.Span}
}

// parseLiteralValue parses one literal token into a types.Value. The
// operation keyword always precedes a value position in this grammar, so
// the lexer's lexical int/float distinction is unambiguous here.
func (p *parser) parseLiteralValue() types.Value {
	tok := p.s.Next()
	switch tok.Kind {
	case token.StringLiteral:
		return types.StringValue(unquoteBacktick(tok.Text))
	case token.RawStringLiteral:
		return types.StringValue(unquoteBacktick(tok.Text))
	case token.BlockStringLiteral:
		return types.StringValue(unquoteBlock(tok.Text))
	case token.IntLiteral:
		i, err := parseInt(tok.Text)
		if err != nil {
			p.errorf(diagnostics.CodeIntegerOverflow, tok.Span, "integer literal %q overflows", tok.Text)
		}
		return types.IntValue(i)
	case token.FloatLiteral:
		f, _ := parseFloat(tok.Text)
		return types.FloatValue(f)
	case token.KwTrue:
		return types.BoolValue(true)
	case token.KwFalse:
		return types.BoolValue(false)
	default:
		p.errorf(diagnostics.CodeUnexpectedToken, tok.Span, "expected a literal value, found %s", tok.Kind)
		return types.Value{}
	}
}
