package parser

import (
	"github.com/esp-lang/espcore/internal/ast"
	"github.com/esp-lang/espcore/internal/diagnostics"
	"github.com/esp-lang/espcore/internal/source"
	"github.com/esp-lang/espcore/internal/token"
	"github.com/esp-lang/espcore/internal/types"
)

// parseObjectDecl parses an OBJECT block. Element order is free (unlike a
// CTN's strict order): module, parameters, bare fields, select, behavior,
// filter, set references, record checks, and inline sets may appear in any
// sequence.
func (p *parser) parseObjectDecl() *ast.ObjectDecl {
	start := p.s.Peek(0).Span
	p.s.Next() // OBJECT
	name, _ := p.expect(token.Identifier)
	decl := &ast.ObjectDecl{Name: name.Text}

	if !p.enter() {
		p.leave()
		return decl
	}
	defer p.leave()

	p.skipNewlines()
	for p.s.Peek(0).Kind != token.KwObjectEnd && p.s.Peek(0).Kind != token.EOF {
		before := len(decl.Elements)
		p.parseObjectElement(decl)
		if len(decl.Elements) == before && p.s.Peek(0).Kind != token.KwObjectEnd && p.s.Peek(0).Kind != token.EOF {
			p.s.Next() // guarantee forward progress on an unrecognized token
		}
		p.skipNewlines()
	}
	end, _ := p.expect(token.KwObjectEnd)
	decl.Span = source.Span{Start: start.Start, End: end.Span.End}
	return decl
}

// parseObjectElement parses one ObjectElement (or, for `select`, several)
// and appends it/them to decl.Elements.
func (p *parser) parseObjectElement(decl *ast.ObjectDecl) {
	start := p.s.Peek(0).Span
	switch p.s.Peek(0).Kind {
	case token.KwModule:
		p.s.Next()
		mod := &ast.ModuleElement{}
		end := start
		for {
			switch p.s.Peek(0).Kind {
			case token.KwModuleName:
				p.s.Next()
				t := p.s.Next()
				mod.Name = t.Text
				end = t.Span
			case token.KwModuleVersion:
				p.s.Next()
				t := p.s.Next()
				mod.Version = t.Text
				end = t.Span
			case token.KwModuleCommand:
				p.s.Next()
				t := p.s.Next()
				mod.Command = t.Text
				end = t.Span
			case token.KwModuleType:
				p.s.Next()
				t := p.s.Next()
				mod.Type = t.Text
				end = t.Span
			default:
				decl.Elements = append(decl.Elements, ast.ObjectElement{Module: mod, Span: source.Span{Start: start.Start, End: end.End}})
				return
			}
		}
	case token.KwParameters:
		p.s.Next()
		vals, end := p.parseKeyValueBlock(token.KwParametersEnd)
		decl.Elements = append(decl.Elements, ast.ObjectElement{Parameters: &ast.ParametersElement{Values: vals}, Span: source.Span{Start: start.Start, End: end}})
	case token.KwSelect:
		p.s.Next()
		p.skipNewlines()
		for p.s.Peek(0).Kind != token.KwSelectEnd && p.s.Peek(0).Kind != token.EOF {
			field, _ := p.expect(token.Identifier)
			op := p.parseOp()
			rhs := p.parseExpr()
			decl.Elements = append(decl.Elements, ast.ObjectElement{
				Select: &ast.SelectElement{Field: field.Text, Op: op, Rhs: rhs},
				Span:   source.Span{Start: field.Span.Start, End: rhs.Span.End},
			})
			p.skipNewlines()
		}
		p.expect(token.KwSelectEnd)
	case token.KwBehavior:
		p.s.Next()
		key, _ := p.expect(token.Identifier)
		val := p.parseLiteralValue()
		decl.Elements = append(decl.Elements, ast.ObjectElement{Behavior: &ast.BehaviorElement{Key: key.Text, Value: val}, Span: source.Span{Start: start.Start, End: key.Span.End}})
	case token.KwFilter:
		p.s.Next()
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
		end, _ := p.expect(token.KwFilterEnd)
		decl.Elements = append(decl.Elements, ast.ObjectElement{Filter: &ast.FilterElement{Action: action, States: states}, Span: source.Span{Start: start.Start, End: end.Span.End}})
	case token.KwSetRef:
		p.s.Next()
		ref, _ := p.expect(token.Identifier)
		decl.Elements = append(decl.Elements, ast.ObjectElement{SetRef: &ast.SetRefElement{Name: ref.Text}, Span: source.Span{Start: start.Start, End: ref.Span.End}})
	case token.KwRecord:
		chk := p.parseRecordCheck()
		decl.Elements = append(decl.Elements, ast.ObjectElement{RecordChk: chk, Span: chk.Span})
	case token.KwUnion, token.KwIntersection, token.KwComplement:
		op := p.parseInlineSetOp()
		end := start
		if op != nil {
			end = op.Span
		}
		decl.Elements = append(decl.Elements, ast.ObjectElement{InlineSet: &ast.InlineSetElement{Op: op}, Span: source.Span{Start: start.Start, End: end.End}})
	case token.Identifier:
		name := p.s.Next()
		val := p.parseExpr()
		decl.Elements = append(decl.Elements, ast.ObjectElement{Field: &ast.FieldElement{Name: name.Text, Value: val}, Span: source.Span{Start: start.Start, End: val.Span.End}})
	default:
		p.errorf(diagnostics.CodeUnexpectedToken, start,
			"expected an object element (a field, module, parameters, select, behavior, filter, set reference, record, or inline set), found %s", p.s.Peek(0).Kind)
	}
}

// parseKeyValueBlock parses "(key value)* <endKind>", shared by PARAMETERS
// and META.
func (p *parser) parseKeyValueBlock(endKind token.Kind) (map[string]types.Value, source.Position) {
	vals := map[string]types.Value{}
	p.skipNewlines()
	for p.s.Peek(0).Kind != endKind && p.s.Peek(0).Kind != token.EOF {
		key, ok := p.expect(token.Identifier)
		if !ok {
			p.recover()
			break
		}
		vals[key.Text] = p.parseLiteralValue()
		p.skipNewlines()
	}
	end, _ := p.expect(endKind)
	return vals, end.Span.End
}
