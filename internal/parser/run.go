package parser

import (
	"github.com/esp-lang/espcore/internal/ast"
	"github.com/esp-lang/espcore/internal/diagnostics"
	"github.com/esp-lang/espcore/internal/source"
	"github.com/esp-lang/espcore/internal/token"
	"github.com/esp-lang/espcore/internal/types"
)

var runOpKeywords = map[token.Kind]ast.RunOp{
	token.KwConcat:       ast.RunConcat,
	token.KwSplit:        ast.RunSplit,
	token.KwSubstring:    ast.RunSubstring,
	token.KwRegexCapture: ast.RunRegexCapture,
	token.KwArithmetic:   ast.RunArithmetic,
	token.KwCount:        ast.RunCount,
	token.KwUnique:       ast.RunUnique,
	token.KwMerge:        ast.RunMerge,
	token.KwExtract:      ast.RunExtract,
}

var arithmeticOpKinds = map[token.Kind]types.Op{
	token.Plus:    types.OpAdd,
	token.Minus:   types.OpSub,
	token.Star:    types.OpMul,
	token.Slash:   types.OpDiv,
	token.Percent: types.OpMod,
}

// parseRunBlock parses:
//
//	RUN target_var OPKIND params... RUN_END
//
// The parameter grammar is uniform across all nine
// operations; which combination of params legally applies to a given op is
// checked by semantic analysis, not here. EXTRACT
// against an OBJ operand always defers to scan time.
func (p *parser) parseRunBlock() *ast.RunBlock {
	start := p.s.Peek(0).Span
	p.s.Next() // RUN
	target, _ := p.expect(token.Identifier)
	block := &ast.RunBlock{Target: target.Text}

	opTok := p.s.Peek(0)
	if op, ok := runOpKeywords[opTok.Kind]; ok {
		p.s.Next()
		block.Op = op
	} else {
		p.errorf(diagnostics.CodeUnexpectedToken, opTok.Span,
			"expected a RUN operation (CONCAT, SPLIT, SUBSTRING, REGEX_CAPTURE, ARITHMETIC, COUNT, UNIQUE, MERGE, EXTRACT), found %s", opTok.Kind)
	}

	if !p.enter() {
		p.leave()
		return block
	}
	defer p.leave()

	p.skipNewlines()
	var pendingOp types.Op
	havePending := false
	for p.s.Peek(0).Kind != token.KwRunEnd && p.s.Peek(0).Kind != token.EOF {
		tok := p.s.Peek(0)
		if op, ok := arithmeticOpKinds[tok.Kind]; ok {
			p.s.Next()
			pendingOp = op
			havePending = true
			p.skipNewlines()
			continue
		}
		param := p.parseRunParam()
		if param == nil {
			p.errorf(diagnostics.CodeUnexpectedToken, tok.Span,
				"expected a RUN parameter (literal, pattern, delimiter, character, start, length, VAR, SET_REF, OBJ) or arithmetic operator, found %s", tok.Kind)
			p.s.Next()
			p.skipNewlines()
			continue
		}
		if havePending {
			param.Op = pendingOp
			pendingOp = ""
			havePending = false
		}
		block.Params = append(block.Params, param)
		p.skipNewlines()
	}
	end, _ := p.expect(token.KwRunEnd)
	block.Span = source.Span{Start: start.Start, End: end.Span.End}
	return block
}

// parseRunParam parses one RUN parameter, or returns nil if the current
// token does not begin one.
func (p *parser) parseRunParam() *ast.RunParam {
	tok := p.s.Peek(0)
	start := tok.Span
	switch tok.Kind {
	case token.KwLiteral:
		p.s.Next()
		v := p.parseLiteralValue()
		return &ast.RunParam{Literal: &v, Span: start}
	case token.KwPattern:
		p.s.Next()
		t := p.s.Next()
		return &ast.RunParam{Pattern: unquoteTokenText(t), Span: source.Span{Start: start.Start, End: t.Span.End}}
	case token.KwDelimiter:
		p.s.Next()
		t := p.s.Next()
		return &ast.RunParam{Delimiter: unquoteTokenText(t), Span: source.Span{Start: start.Start, End: t.Span.End}}
	case token.KwCharacter:
		p.s.Next()
		t := p.s.Next()
		return &ast.RunParam{Character: unquoteTokenText(t), Span: source.Span{Start: start.Start, End: t.Span.End}}
	case token.KwStart:
		p.s.Next()
		t := p.s.Next()
		n, err := parseInt(t.Text)
		if err != nil {
			p.errorf(diagnostics.CodeIntegerOverflow, t.Span, "integer literal %q overflows", t.Text)
		}
		return &ast.RunParam{Start: &n, Span: source.Span{Start: start.Start, End: t.Span.End}}
	case token.KwLength:
		p.s.Next()
		t := p.s.Next()
		n, err := parseInt(t.Text)
		if err != nil {
			p.errorf(diagnostics.CodeIntegerOverflow, t.Span, "integer literal %q overflows", t.Text)
		}
		return &ast.RunParam{Length: &n, Span: source.Span{Start: start.Start, End: t.Span.End}}
	case token.KwVar:
		p.s.Next()
		id, _ := p.expect(token.Identifier)
		return &ast.RunParam{VarRef: id.Text, Span: source.Span{Start: start.Start, End: id.Span.End}}
	case token.KwSetRef:
		p.s.Next()
		id, _ := p.expect(token.Identifier)
		return &ast.RunParam{SetRef: id.Text, Span: source.Span{Start: start.Start, End: id.Span.End}}
	case token.KwObj:
		p.s.Next()
		obj, _ := p.expect(token.Identifier)
		field, _ := p.expect(token.Identifier)
		return &ast.RunParam{Obj: &ast.ObjFieldRef{Object: obj.Text, Field: field.Text}, Span: source.Span{Start: start.Start, End: field.Span.End}}
	default:
		return nil
	}
}

// unquoteTokenText unquotes a string-kind token per its lexical form, or
// returns its raw text unchanged for non-string tokens.
func unquoteTokenText(t token.Token) string {
	switch t.Kind {
	case token.StringLiteral, token.RawStringLiteral:
		return unquoteBacktick(t.Text)
	case token.BlockStringLiteral:
		return unquoteBlock(t.Text)
	default:
		return t.Text
	}
}
