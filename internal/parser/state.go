package parser

import (
	"github.com/esp-lang/espcore/internal/ast"
	"github.com/esp-lang/espcore/internal/diagnostics"
	"github.com/esp-lang/espcore/internal/source"
	"github.com/esp-lang/espcore/internal/token"
)

// parseStateDecl parses:
//
//	STATE id (<field-name> <type> <op> <value>)* STATE_END
//
// A `record` element inside a STATE switches into parseRecordCheck instead
// of a plain field, since "record" is a reserved keyword and can never be
// a field name.
func (p *parser) parseStateDecl() *ast.StateDecl {
	start := p.s.Peek(0).Span
	p.s.Next() // STATE
	name, _ := p.expect(token.Identifier)
	decl := &ast.StateDecl{Name: name.Text}

	if !p.enter() {
		p.leave()
		return decl
	}
	defer p.leave()

	p.skipNewlines()
	for p.s.Peek(0).Kind != token.KwStateEnd && p.s.Peek(0).Kind != token.EOF {
		if p.s.Peek(0).Kind == token.KwRecord {
			decl.Checks = append(decl.Checks, p.parseRecordCheck())
		} else if p.s.Peek(0).Kind == token.Identifier {
			decl.Fields = append(decl.Fields, p.parseStateField())
		} else {
			p.errorf(diagnostics.CodeUnexpectedToken, p.s.Peek(0).Span,
				"expected a field name or record inside STATE %s, found %s", name.Text, p.s.Peek(0).Kind)
			p.recover()
		}
		p.skipNewlines()
	}
	end, _ := p.expect(token.KwStateEnd)
	decl.Span = source.Span{Start: start.Start, End: end.Span.End}
	return decl
}

// parseStateField parses <name> <type> <op> <value>.
func (p *parser) parseStateField() *ast.StateField {
	name, _ := p.expect(token.Identifier)
	typTok, _ := p.expect(token.Identifier)
	t := p.resolveType(typTok)
	op := p.parseOp()
	val := p.parseExpr()
	return &ast.StateField{Name: name.Text, Type: t, Op: op, Value: val, Span: source.Span{Start: name.Span.Start, End: val.Span.End}}
}

// parseRecordCheck parses:
//
//	record <path> <type>? (<field-assert>)* (<nested record>)* record_end
func (p *parser) parseRecordCheck() *ast.RecordCheck {
	start := p.s.Peek(0).Span
	p.s.Next() // record
	pathTok := p.s.Next()
	path := pathTok.Text
	switch pathTok.Kind {
	case token.StringLiteral, token.RawStringLiteral:
		path = unquoteBacktick(pathTok.Text)
	case token.BlockStringLiteral:
		path = unquoteBlock(pathTok.Text)
	}
	chk := &ast.RecordCheck{Path: path}

	if !p.enter() {
		p.leave()
		return chk
	}
	defer p.leave()

	// An optional declared type for the record node itself: a bare type
	// name identifier directly following the path, before any field
	// assertions or nested records.
	if p.s.Peek(0).Kind == token.Identifier {
		if _, known := fieldTypeKeywords[p.s.Peek(0).Text]; known {
			t := p.resolveType(p.s.Next())
			chk.Type = &t
		}
	}

	p.skipNewlines()
	for p.s.Peek(0).Kind != token.KwRecordEnd && p.s.Peek(0).Kind != token.EOF {
		switch p.s.Peek(0).Kind {
		case token.KwRecord:
			chk.Nested = append(chk.Nested, p.parseRecordCheck())
		case token.Identifier:
			chk.Fields = append(chk.Fields, p.parseStateField())
		default:
			p.errorf(diagnostics.CodeUnexpectedToken, p.s.Peek(0).Span,
				"expected a field assertion or nested record, found %s", p.s.Peek(0).Kind)
			p.recover()
		}
		p.skipNewlines()
	}
	end, _ := p.expect(token.KwRecordEnd)
	chk.Span = source.Span{Start: start.Start, End: end.Span.End}
	return chk
}
