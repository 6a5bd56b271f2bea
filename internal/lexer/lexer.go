// Package lexer tokenizes ESP source into a token.Stream. It is a
// hand-rolled byte scanner in the style of the wazero WAT lexer: a single
// forward pass over the buffer, ASCII fast paths, and explicit UTF-8 rune
// lengths computed only where multi-byte text is actually permitted
// (inside string literals and comments).
package lexer

import (
	"github.com/esp-lang/espcore/internal/diagnostics"
	"github.com/esp-lang/espcore/internal/source"
	"github.com/esp-lang/espcore/internal/token"
)

// Limits bounds lexer output.
type Limits struct {
	MaxIdentifierLen int
	MaxStringLen     int
	MaxCommentLen    int
	MaxTokens        int
}

// DefaultLimits holds the production limit defaults.
var DefaultLimits = Limits{MaxIdentifierLen: 255, MaxStringLen: 65536, MaxCommentLen: 10_000, MaxTokens: 1_000_000}

type lexer struct {
	doc    *source.Document
	buf    []byte
	pos    int
	diags  *diagnostics.List
	limits Limits
	tokens []token.Token
}

// Lex tokenizes doc's bytes into a token.Stream. Lexing never halts the
// whole pipeline on its own: it accumulates diagnostics and keeps scanning
// so later stages (and the human) see as much of the file as possible.
func Lex(doc *source.Document, diags *diagnostics.List, lim Limits) *token.Stream {
	if lim.MaxIdentifierLen == 0 && lim.MaxStringLen == 0 && lim.MaxTokens == 0 {
		lim = DefaultLimits
	}
	l := &lexer{doc: doc, buf: doc.Bytes, diags: diags, limits: lim}
	l.run()
	l.tokens = append(l.tokens, token.Token{Kind: token.EOF, Span: doc.Span(len(doc.Bytes), len(doc.Bytes))})
	return token.NewStream(l.tokens)
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func (l *lexer) emit(kind token.Kind, start, end int) {
	if l.limits.MaxTokens > 0 && len(l.tokens) >= l.limits.MaxTokens {
		l.diags.Add(diagnostics.New(diagnostics.CodeTokenLimitExceeded,
			"source exceeds the maximum token count", nil))
		return
	}
	l.tokens = append(l.tokens, token.Token{Kind: kind, Text: string(l.buf[start:end]), Span: l.doc.Span(start, end)})
}

func (l *lexer) run() {
	n := len(l.buf)
	for l.pos < n {
		b := l.buf[l.pos]

		switch {
		case b == '\n':
			l.emit(token.Newline, l.pos, l.pos+1)
			l.pos++
		case b == '\r':
			l.pos++
		case b == ' ' || b == '\t':
			l.pos++
		case b == '#':
			l.lexLineComment()
		case b == '`':
			l.lexBacktickOrBlock(false)
		case b == 'r' && l.pos+1 < n && l.buf[l.pos+1] == '`':
			l.pos++ // consume the 'r' prefix
			l.lexBacktickOrBlock(true)
		case isIdentStart(b):
			l.lexIdentifierOrKeyword()
		case isDigit(b), b == '-' && l.pos+1 < n && isDigit(l.buf[l.pos+1]):
			l.lexNumber()
		default:
			l.lexPunctOrOperator()
		}
	}
}

// lexLineComment scans '#' to end of line. Comments are emitted as
// tokens — token.NewStream filters them out of the parser's significant
// view — so tooling can read them back in declared order.
func (l *lexer) lexLineComment() {
	start := l.pos
	for l.pos < len(l.buf) && l.buf[l.pos] != '\n' {
		l.pos++
	}
	if l.limits.MaxCommentLen > 0 && l.pos-start > l.limits.MaxCommentLen {
		sp := l.doc.Span(start, l.pos)
		l.diags.Add(diagnostics.New(diagnostics.CodeCommentTooLong, "comment exceeds maximum length", &sp))
	}
	l.emit(token.Comment, start, l.pos)
}

func (l *lexer) lexIdentifierOrKeyword() {
	start := l.pos
	for l.pos < len(l.buf) && isIdentCont(l.buf[l.pos]) {
		l.pos++
	}
	text := string(l.buf[start:l.pos])
	if l.limits.MaxIdentifierLen > 0 && len(text) > l.limits.MaxIdentifierLen {
		sp := l.doc.Span(start, l.pos)
		l.diags.Add(diagnostics.New(diagnostics.CodeIdentifierTooLong, "identifier exceeds maximum length", &sp))
	}
	if kw, ok := token.Lookup(text); ok {
		l.emit(kw, start, l.pos)
		return
	}
	l.emit(token.Identifier, start, l.pos)
}

// lexNumber scans an integer or float literal: optional leading '-', one
// or more digits; a single '.' followed by digits makes it a float. The
// leading '-' is only ever consumed here when immediately
// followed by a digit; a '-' followed by whitespace or another token is
// always the ARITHMETIC subtraction operator (lexPunctOrOperator).
func (l *lexer) lexNumber() {
	start := l.pos
	if l.buf[l.pos] == '-' {
		l.pos++
	}
	for l.pos < len(l.buf) && isDigit(l.buf[l.pos]) {
		l.pos++
	}
	isFloat := false
	if l.pos+1 < len(l.buf) && l.buf[l.pos] == '.' && isDigit(l.buf[l.pos+1]) {
		isFloat = true
		l.pos++ // consume '.'
		for l.pos < len(l.buf) && isDigit(l.buf[l.pos]) {
			l.pos++
		}
	}
	if isFloat {
		l.emit(token.FloatLiteral, start, l.pos)
	} else {
		l.emit(token.IntLiteral, start, l.pos)
	}
}

// lexBacktickOrBlock scans a backtick-delimited string:
// `` `...` `` for a single-line string where a doubled backtick ``` `` ```
// escapes one literal backtick, or ``` ```...``` ``` for a multiline block
// string where only a literal ``` terminates (no escape processing inside
// a block string). raw marks a form entered via the `r` prefix, which
// shares identical content rules with its non-raw counterpart. A raw
// single-backtick string differs only in token kind (RawStringLiteral), so
// downstream passes can tell a pattern operand was written raw; a raw
// block string is emitted as an ordinary BlockStringLiteral.
func (l *lexer) lexBacktickOrBlock(raw bool) {
	start := l.pos
	if hasPrefix(l.buf, l.pos, "```") {
		l.pos += 3
		for l.pos < len(l.buf) {
			if hasPrefix(l.buf, l.pos, "```") {
				l.pos += 3
				l.checkStringLen(start, l.pos)
				l.emit(token.BlockStringLiteral, start, l.pos)
				return
			}
			l.pos += runeSize(l.buf[l.pos])
		}
		sp := l.doc.Span(start, l.pos)
		l.diags.Add(diagnostics.New(diagnostics.CodeUnterminatedString, "unterminated block string literal", &sp))
		return
	}

	l.pos++ // opening backtick
	for l.pos < len(l.buf) {
		b := l.buf[l.pos]
		if b == '`' {
			if l.pos+1 < len(l.buf) && l.buf[l.pos+1] == '`' {
				l.pos += 2 // doubled backtick: one literal backtick, keep scanning
				continue
			}
			l.pos++
			l.checkStringLen(start, l.pos)
			kind := token.StringLiteral
			if raw {
				kind = token.RawStringLiteral
			}
			l.emit(kind, start, l.pos)
			return
		}
		if b == '\n' {
			break
		}
		l.pos += runeSize(b)
	}
	sp := l.doc.Span(start, l.pos)
	l.diags.Add(diagnostics.New(diagnostics.CodeUnterminatedString, "unterminated string literal", &sp))
}

func (l *lexer) checkStringLen(start, end int) {
	if l.limits.MaxStringLen > 0 && end-start > l.limits.MaxStringLen {
		sp := l.doc.Span(start, end)
		l.diags.Add(diagnostics.New(diagnostics.CodeStringTooLong, "string literal exceeds maximum length", &sp))
	}
}

func (l *lexer) lexPunctOrOperator() {
	start := l.pos
	b := l.buf[l.pos]

	two := func(next byte, kind token.Kind) bool {
		if l.pos+1 < len(l.buf) && l.buf[l.pos+1] == next {
			l.pos += 2
			l.emit(kind, start, l.pos)
			return true
		}
		return false
	}

	switch b {
	case '+':
		l.pos++
		l.emit(token.Plus, start, l.pos)
	case '-':
		l.pos++
		l.emit(token.Minus, start, l.pos)
	case '*':
		l.pos++
		l.emit(token.Star, start, l.pos)
	case '/':
		l.pos++
		l.emit(token.Slash, start, l.pos)
	case '%':
		l.pos++
		l.emit(token.Percent, start, l.pos)
	case '!':
		if two('=', token.Ne) {
			return
		}
		l.pos++
		sp := l.doc.Span(start, l.pos)
		l.diags.Add(diagnostics.New(diagnostics.CodeInvalidCharacter, "unexpected character '!'", &sp))
	case '=':
		l.pos++
		l.emit(token.Eq, start, l.pos)
	case '>':
		if two('=', token.Ge) {
			return
		}
		l.pos++
		l.emit(token.Gt, start, l.pos)
	case '<':
		if two('=', token.Le) {
			return
		}
		l.pos++
		l.emit(token.Lt, start, l.pos)
	default:
		l.pos += runeSize(b)
		sp := l.doc.Span(start, l.pos)
		l.diags.Add(diagnostics.New(diagnostics.CodeInvalidCharacter, "unexpected character", &sp))
	}
}

func runeSize(b byte) int {
	if b < 0x80 {
		return 1
	}
	switch {
	case b&0xE0 == 0xC0:
		return 2
	case b&0xF0 == 0xE0:
		return 3
	case b&0xF8 == 0xF0:
		return 4
	default:
		return 1
	}
}

func hasPrefix(buf []byte, pos int, s string) bool {
	if pos+len(s) > len(buf) {
		return false
	}
	return string(buf[pos:pos+len(s)]) == s
}
