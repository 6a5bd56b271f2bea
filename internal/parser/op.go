package parser

import (
	"github.com/esp-lang/espcore/internal/diagnostics"
	"github.com/esp-lang/espcore/internal/token"
	"github.com/esp-lang/espcore/internal/types"
)

// opKeywordKinds maps the reserved string/pattern/collection operation
// keywords to their types.Op; the punctuation-spelled
// comparison operators (=, !=, >, <, >=, <=) are handled directly from
// their token kinds in parseOp.
var opKeywordKinds = map[token.Kind]types.Op{
	token.KwIEq: types.OpIEq, token.KwINe: types.OpINe,
	token.KwContains: types.OpContains, token.KwNotContains: types.OpNotContains,
	token.KwStarts: types.OpStarts, token.KwNotStarts: types.OpNotStarts,
	token.KwEnds: types.OpEnds, token.KwNotEnds: types.OpNotEnds,
	token.KwPatternMatch: types.OpPatternMatch, token.KwMatches: types.OpMatches,
	token.KwSubsetOf: types.OpSubsetOf, token.KwSupersetOf: types.OpSupersetOf,
}

// parseOp consumes one operation token, either a punctuation comparison
// operator or a reserved string/pattern/collection operation keyword.
func (p *parser) parseOp() types.Op {
	tok := p.s.Peek(0)
	switch tok.Kind {
	case token.Eq:
		p.s.Next()
		return types.OpEq
	case token.Ne:
		p.s.Next()
		return types.OpNe
	case token.Gt:
		p.s.Next()
		return types.OpGt
	case token.Lt:
		p.s.Next()
		return types.OpLt
	case token.Ge:
		p.s.Next()
		return types.OpGe
	case token.Le:
		p.s.Next()
		return types.OpLe
	default:
		if op, ok := opKeywordKinds[tok.Kind]; ok {
			p.s.Next()
			return op
		}
	}
	p.errorf(diagnostics.CodeUnexpectedToken, tok.Span, "expected a comparison or string/pattern/collection operator, found %s", tok.Kind)
	p.s.Next()
	return ""
}
