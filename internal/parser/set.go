package parser

import (
	"github.com/esp-lang/espcore/internal/ast"
	"github.com/esp-lang/espcore/internal/diagnostics"
	"github.com/esp-lang/espcore/internal/source"
	"github.com/esp-lang/espcore/internal/token"
)

// parseSetDecl parses:
//
//	SET id (union|intersection|complement) (OBJECT_REF id|SET_REF id)+
//	  (FILTER (include|exclude) (STATE_REF id)+ FILTER_END)? SET_END
//
// Arity is checked at parse time: union needs
// >=1 operand, intersection >=2, complement exactly 2.
func (p *parser) parseSetDecl() *ast.SetDecl {
	start := p.s.Peek(0).Span
	p.s.Next() // SET
	name, _ := p.expect(token.Identifier)
	op := p.parseSetOpCore(true)
	p.skipNewlines()
	if op != nil && p.s.Peek(0).Kind == token.KwFilter {
		op.Filter = p.parseSetFilter()
		p.skipNewlines()
	}
	end, _ := p.expect(token.KwSetEnd)
	return &ast.SetDecl{Name: name.Text, Op: op, Span: source.Span{Start: start.Start, End: end.Span.End}}
}

// parseInlineSetOp parses the unnamed set expression legal directly inside
// an OBJECT block: the same operator+operand grammar as parseSetOpCore,
// but with no trailing FILTER and no SET_END — it terminates at the end of
// its line, as soon as no further OBJECT_REF/SET_REF token follows.
func (p *parser) parseInlineSetOp() *ast.SetOp {
	return p.parseSetOpCore(false)
}

// parseSetOpCore parses <op> (OBJECT_REF id|SET_REF id)+, the shared core
// of a top-level SET declaration and an inline set expression. spanLines
// lets a SET declaration's operand list continue across newlines (SET_END
// terminates it explicitly); an inline set must stay on one line.
func (p *parser) parseSetOpCore(spanLines bool) *ast.SetOp {
	if !p.enter() {
		p.leave()
		return nil
	}
	defer p.leave()

	tok := p.s.Peek(0)
	var kind ast.SetKind
	switch tok.Kind {
	case token.KwUnion:
		kind = ast.SetUnion
	case token.KwIntersection:
		kind = ast.SetIntersection
	case token.KwComplement:
		kind = ast.SetComplement
	default:
		p.errorf(diagnostics.CodeUnexpectedToken, tok.Span, "expected union, intersection, or complement, found %s", tok.Kind)
		p.s.Next()
		return nil
	}
	p.s.Next()

	var operands []*ast.SetOperand
	end := tok.Span
operandLoop:
	for {
		if spanLines {
			p.skipNewlines()
		}
		switch p.s.Peek(0).Kind {
		case token.KwObjectRef:
			p.s.Next()
			id, _ := p.expect(token.Identifier)
			operands = append(operands, &ast.SetOperand{Kind: ast.OperandObjectRef, Name: id.Text, Span: id.Span})
			end = id.Span
		case token.KwSetRef:
			p.s.Next()
			id, _ := p.expect(token.Identifier)
			operands = append(operands, &ast.SetOperand{Kind: ast.OperandSetRef, Name: id.Text, Span: id.Span})
			end = id.Span
		default:
			break operandLoop
		}
	}
	switch kind {
	case ast.SetComplement:
		if len(operands) != 2 {
			p.errorf(diagnostics.CodeSetArityMismatch, tok.Span, "complement takes exactly two operands, got %d", len(operands))
		}
	case ast.SetIntersection:
		if len(operands) < 2 {
			p.errorf(diagnostics.CodeSetArityMismatch, tok.Span, "intersection requires at least two operands, got %d", len(operands))
		}
	case ast.SetUnion:
		if len(operands) < 1 {
			p.errorf(diagnostics.CodeSetArityMismatch, tok.Span, "union requires at least one operand, got %d", len(operands))
		}
	}
	return &ast.SetOp{Kind: kind, Operands: operands, Span: source.Span{Start: tok.Span.Start, End: end.End}}
}

// parseSetFilter parses FILTER (include|exclude) (STATE_REF id)+ FILTER_END.
func (p *parser) parseSetFilter() *ast.FilterElement {
	p.s.Next() // FILTER
	action := ast.FilterInclude
	switch p.s.Peek(0).Kind {
	case token.KwInclude:
		p.s.Next()
	case token.KwExclude:
		action = ast.FilterExclude
		p.s.Next()
	default:
		p.errorf(diagnostics.CodeUnexpectedToken, p.s.Peek(0).Span, "expected include or exclude after FILTER")
	}
	var states []string
	p.skipNewlines()
	for p.s.Peek(0).Kind == token.KwStateRef {
		p.s.Next()
		id, _ := p.expect(token.Identifier)
		states = append(states, id.Text)
		p.skipNewlines()
	}
	p.expect(token.KwFilterEnd)
	return &ast.FilterElement{Action: action, States: states}
}
