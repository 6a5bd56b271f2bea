package parser

import (
	"github.com/esp-lang/espcore/internal/ast"
	"github.com/esp-lang/espcore/internal/diagnostics"
	"github.com/esp-lang/espcore/internal/source"
	"github.com/esp-lang/espcore/internal/token"
)

var existenceKeywords = map[token.Kind]string{
	token.KwAny: "any", token.KwAll: "all", token.KwNone: "none",
	token.KwAtLeastOne: "at_least_one", token.KwOnlyOne: "only_one",
}

var itemKeywords = map[token.Kind]string{
	token.KwAll: "all", token.KwAtLeastOne: "at_least_one",
	token.KwOnlyOne: "only_one", token.KwNoneSatisfy: "none_satisfy",
}

var stateOpKeywords = map[token.Kind]string{
	token.KwAnd: "AND", token.KwOr: "OR", token.KwOne: "ONE",
}

// parseCriteriaBlock parses a CRI combinator node:
//
//	CRI [NOT] (AND|OR) (<CTN>|<CRI>)+ CRI_END
//
// A CRI needs at least one child.
func (p *parser) parseCriteriaBlock() *ast.CriteriaBlock {
	start := p.s.Peek(0).Span
	p.s.Next() // CRI

	if !p.enter() {
		p.leave()
		return &ast.CriteriaBlock{Kind: ast.CriteriaCombinator, Span: start}
	}
	defer p.leave()

	block := &ast.CriteriaBlock{Kind: ast.CriteriaCombinator}
	if p.s.Peek(0).Kind == token.KwNot {
		p.s.Next()
		block.Negate = true
	}
	switch p.s.Peek(0).Kind {
	case token.KwAnd:
		p.s.Next()
		block.LogicOp = "AND"
	case token.KwOr:
		p.s.Next()
		block.LogicOp = "OR"
	default:
		p.errorf(diagnostics.CodeUnexpectedToken, p.s.Peek(0).Span, "expected AND or OR after CRI, found %s", p.s.Peek(0).Kind)
	}

	p.skipNewlines()
	for p.s.Peek(0).Kind != token.KwCriEnd && p.s.Peek(0).Kind != token.EOF {
		switch p.s.Peek(0).Kind {
		case token.KwCtn:
			block.Children = append(block.Children, &ast.CriteriaBlock{Kind: ast.CriteriaLeaf, Leaf: p.parseCriterionNode()})
		case token.KwCri:
			block.Children = append(block.Children, p.parseCriteriaBlock())
		default:
			p.errorf(diagnostics.CodeUnexpectedToken, p.s.Peek(0).Span, "expected CTN or CRI inside CRI, found %s", p.s.Peek(0).Kind)
			p.recover()
		}
		p.skipNewlines()
	}
	end, _ := p.expect(token.KwCriEnd)
	block.Span = source.Span{Start: start.Start, End: end.Span.End}
	if len(block.Children) == 0 {
		p.errorf(diagnostics.CodeUnexpectedToken, block.Span, "CRI requires at least one child")
	}
	return block
}

// criterionStage orders a CTN's legal element positions for the strict
// ordering check: TEST, STATE_REF*, OBJECT_REF*,
// local STATE*, local OBJECT?.
type criterionStage int

const (
	stageTest criterionStage = iota
	stageStateRefs
	stageObjectRefs
	stageLocalStates
	stageLocalObject
	stageDone
)

// parseCriterionNode parses a CTN leaf:
//
//	CTN <type> TEST <existence> <item> [<state_op>]?
//	  (STATE_REF id)* (OBJECT_REF id)* (STATE id...STATE_END)* (OBJECT id...OBJECT_END)?
//	CTN_END
//
// Element order is fixed; an element appearing out of order is a fatal
// E120.
func (p *parser) parseCriterionNode() *ast.CriterionNode {
	start := p.s.Peek(0).Span
	p.s.Next() // CTN
	typTok, _ := p.expect(token.Identifier)
	node := &ast.CriterionNode{Type: typTok.Text}

	if !p.enter() {
		p.leave()
		return node
	}
	defer p.leave()

	p.skipNewlines()
	if tok := p.s.Peek(0); tok.Kind == token.KwTest {
		node.Test = p.parseTestSpec()
	} else {
		p.errorf(diagnostics.CodeUnexpectedToken, tok.Span, "expected TEST at the start of CTN %s, found %s", typTok.Text, tok.Kind)
	}

	stage := stageStateRefs
	p.skipNewlines()
	for p.s.Peek(0).Kind != token.KwCtnEnd && p.s.Peek(0).Kind != token.EOF {
		tok := p.s.Peek(0)
		var tokStage criterionStage
		switch tok.Kind {
		case token.KwStateRef:
			tokStage = stageStateRefs
		case token.KwObjectRef:
			tokStage = stageObjectRefs
		case token.KwState:
			tokStage = stageLocalStates
		case token.KwObject:
			tokStage = stageLocalObject
		default:
			p.errorf(diagnostics.CodeUnexpectedToken, tok.Span,
				"expected STATE_REF, OBJECT_REF, STATE, OBJECT, or CTN_END inside CTN %s, found %s", typTok.Text, tok.Kind)
			p.recover()
			p.skipNewlines()
			continue
		}
		if tokStage < stage {
			p.errorf(diagnostics.CodeInvalidBlockOrdering, tok.Span,
				"CTN elements must appear in order (TEST, STATE_REF, OBJECT_REF, STATE, OBJECT); found %s out of order", tok.Kind)
			p.recover()
			p.skipNewlines()
			continue
		}
		stage = tokStage

		switch tok.Kind {
		case token.KwStateRef:
			p.s.Next()
			id, _ := p.expect(token.Identifier)
			node.StateRefs = append(node.StateRefs, id.Text)
		case token.KwObjectRef:
			p.s.Next()
			id, _ := p.expect(token.Identifier)
			node.ObjectRefs = append(node.ObjectRefs, id.Text)
		case token.KwState:
			node.LocalStates = append(node.LocalStates, p.parseStateDecl())
		case token.KwObject:
			if node.LocalObject != nil {
				p.errorf(diagnostics.CodeMultipleLocalObjects, tok.Span, "CTN %s declares more than one local OBJECT", typTok.Text)
			}
			node.LocalObject = p.parseObjectDecl()
		}
		p.skipNewlines()
	}
	end, _ := p.expect(token.KwCtnEnd)
	node.Span = source.Span{Start: start.Start, End: end.Span.End}
	return node
}

// parseTestSpec parses TEST <existence> <item> [<state_op>]?, defaulting
// StateOp to "AND" when omitted.
func (p *parser) parseTestSpec() *ast.TestSpec {
	start := p.s.Peek(0).Span
	p.s.Next() // TEST
	spec := &ast.TestSpec{StateOp: "AND"}

	existTok := p.s.Peek(0)
	if ex, ok := existenceKeywords[existTok.Kind]; ok {
		p.s.Next()
		spec.Existence = ex
	} else {
		p.errorf(diagnostics.CodeUnexpectedToken, existTok.Span,
			"expected an existence quantifier (any, all, none, at_least_one, only_one), found %s", existTok.Kind)
	}

	itemTok := p.s.Peek(0)
	end := existTok.Span
	if it, ok := itemKeywords[itemTok.Kind]; ok {
		p.s.Next()
		spec.Item = it
		end = itemTok.Span
	} else {
		p.errorf(diagnostics.CodeUnexpectedToken, itemTok.Span,
			"expected an item quantifier (all, at_least_one, only_one, none_satisfy), found %s", itemTok.Kind)
	}

	if op, ok := stateOpKeywords[p.s.Peek(0).Kind]; ok {
		opTok := p.s.Next()
		spec.StateOp = op
		end = opTok.Span
	}
	spec.Span = source.Span{Start: start.Start, End: end.End}
	return spec
}
