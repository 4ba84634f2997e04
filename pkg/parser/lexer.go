package parser

import (
	"unicode/utf8"

	"github.com/sandrolain/jexpr/pkg/ast"
)

const eof = -1

// Lexer scans a jexpr query one token at a time. It holds no lookahead
// buffer beyond the single rune consumed by nextRune/backup, following the
// classic single-pass scanner shape (Rob Pike's "Lexical Scanning in Go").
type Lexer struct {
	input    string // full source text; never mutated
	n        int    // len(input), cached
	tokStart int    // start offset of the token being assembled
	pos      int    // current scan offset
	lastW    int    // byte width of the most recently read rune, for backup
	firstErr error  // sticky: set once, never cleared
}

// NewLexer wraps input for scanning. Call Next repeatedly to drain tokens;
// once the input is exhausted Next yields TokenEOF forever.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, n: len(input)}
}

// Error reports the first lexical error encountered, or nil.
func (l *Lexer) Error() error {
	return l.firstErr
}

// Next scans and returns the next token.
func (l *Lexer) Next() Token {
	l.skipTrivia()
	if l.firstErr != nil {
		return l.errorToken(ast.ErrCommentNotClosed, l.firstErr.Error())
	}

	ch := l.nextRune()
	switch {
	case ch == eof:
		return l.eofToken()
	case isQuote(ch):
		l.ignore()
		return l.scanString(ch)
	case ch >= '0' && ch <= '9':
		l.backup()
		return l.scanNumber()
	case ch == '`':
		l.ignore()
		return l.scanEscapedName(ch)
	}

	if pairs := lookupSymbol2(ch); pairs != nil {
		for _, cand := range pairs {
			if l.acceptRune(cand.r) {
				return l.emit(cand.tt)
			}
		}
	}
	if tt := lookupSymbol1(ch); tt > 0 {
		return l.emit(tt)
	}

	l.backup()
	return l.scanName()
}

func isQuote(ch rune) bool { return ch == '"' || ch == '\'' }

// scanString reads a quoted string body; the opening quote has already
// been consumed and excluded from the token via ignore.
func (l *Lexer) scanString(quote rune) Token {
	for {
		switch l.nextRune() {
		case quote:
			l.backup()
			tok := l.emit(TokenString)
			l.acceptRune(quote)
			l.ignore()
			return tok
		case '\\':
			if l.nextRune() == eof {
				return l.errorToken(ast.ErrStringNotClosed, "Unterminated string literal")
			}
		case eof:
			return l.errorToken(ast.ErrStringNotClosed, "Unterminated string literal")
		}
	}
}

// scanNumber reads [0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?, JSON-style (no
// leading zeroes in the integer part). A trailing dot with no following
// digit is left unconsumed since it may start a range operator (`1..5`).
func (l *Lexer) scanNumber() Token {
	if !l.acceptRune('0') {
		l.accept(isNonZeroDigit)
		l.acceptRun(isDigit)
	}
	if l.acceptRune('.') {
		if !l.acceptRun(isDigit) {
			l.pos-- // un-read the one-byte '.'
			return l.emit(TokenNumber)
		}
	}
	if l.acceptEither('e', 'E') {
		l.acceptEither('+', '-')
		l.acceptRun(isDigit)
	}
	return l.emit(TokenNumber)
}

// scanEscapedName reads a backtick-quoted field name; unlike a string
// literal it may not span a newline.
func (l *Lexer) scanEscapedName(quote rune) Token {
	for {
		switch l.nextRune() {
		case quote:
			l.backup()
			tok := l.emit(TokenNameEsc)
			l.acceptRune(quote)
			l.ignore()
			return tok
		case eof, '\n':
			return l.errorToken(ast.ErrStringNotClosed, "Unterminated name")
		}
	}
}

// scanName reads a bare name, a `$variable`, or a keyword (and/or/in/
// true/false/null), stopping at whitespace or any operator symbol.
func (l *Lexer) scanName() Token {
	isVar := l.acceptRune('$')
	if isVar {
		l.ignore()
	}
	for {
		ch := l.nextRune()
		if ch == eof || isWhitespace(ch) {
			if ch != eof {
				l.backup()
			}
			break
		}
		if lookupSymbol1(ch) > 0 || lookupSymbol2(ch) != nil {
			l.backup()
			break
		}
	}
	tok := l.emit(TokenName)
	switch {
	case isVar:
		tok.Type = TokenVariable
	default:
		if tt := lookupKeyword(tok.Value); tt > 0 {
			tok.Type = tt
		}
	}
	return tok
}

func (l *Lexer) eofToken() Token {
	return Token{Type: TokenEOF, Position: l.pos}
}

func (l *Lexer) errorToken(code ast.ErrorCode, message string) Token {
	tok := l.emit(TokenError)
	l.firstErr = ast.NewPositionedError(code, message, tok.Position).WithToken(tok.Value)
	return tok
}

// emit closes out the token currently being assembled (from tokStart to
// pos) and resets the scan window for the next one.
func (l *Lexer) emit(tt TokenType) Token {
	tok := Token{Type: tt, Value: l.input[l.tokStart:l.pos], Position: l.tokStart}
	l.lastW = 0
	l.tokStart = l.pos
	return tok
}

func (l *Lexer) nextRune() rune {
	if l.firstErr != nil || l.pos >= l.n {
		l.lastW = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.lastW = w
	l.pos += w
	return r
}

// backup undoes the most recent nextRune call. Only one level of backup
// is ever needed since every caller backs up at most once per rune read.
func (l *Lexer) backup() {
	l.pos -= l.lastW
}

// ignore drops everything scanned so far from the pending token.
func (l *Lexer) ignore() {
	l.tokStart = l.pos
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool { return c == r })
}

func (l *Lexer) acceptEither(a, b rune) bool {
	return l.accept(func(c rune) bool { return c == a || c == b })
}

func (l *Lexer) accept(match func(rune) bool) bool {
	if match(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

// acceptRun consumes a maximal run of runes satisfying match, reporting
// whether at least one was consumed.
func (l *Lexer) acceptRun(match func(rune) bool) bool {
	consumed := false
	for l.accept(match) {
		consumed = true
	}
	return consumed
}

// skipTrivia drops whitespace and `/* ... */` comments, alternating
// between the two until neither advances the scan position.
func (l *Lexer) skipTrivia() {
	for {
		if l.firstErr != nil {
			return
		}
		l.acceptRun(isWhitespace)
		l.ignore()

		if !l.acceptRune('/') {
			return
		}
		if !l.acceptRune('*') {
			l.pos = l.tokStart // un-read the '/'
			return
		}
		l.skipBlockComment()
		if l.firstErr != nil {
			return
		}
		l.ignore()
	}
}

// skipBlockComment consumes up to and including the closing `*/` of a
// `/*` already consumed by the caller.
func (l *Lexer) skipBlockComment() {
	for {
		switch l.nextRune() {
		case eof:
			l.firstErr = ast.NewPositionedError(ast.ErrCommentNotClosed, "Unclosed comment", l.pos)
			return
		case '*':
			if l.acceptRune('/') {
				return
			}
		}
	}
}

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isNonZeroDigit(r rune) bool { return r >= '1' && r <= '9' }
