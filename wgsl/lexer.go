package wgsl

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer splits WGSL source into tokens.
type Lexer struct {
	src   string
	off   int
	line  int
	col   int
	start int
	pos   Pos

	tokens []Token
	errs   ErrorList
}

// NewLexer returns a lexer over src.
func NewLexer(src string) *Lexer {
	return &Lexer{
		src:    src,
		line:   1,
		col:    1,
		tokens: make([]Token, 0, max(len(src)/5, 16)),
	}
}

// Tokenize returns every token of the source, ending with TokenEOF. Lexical
// errors are collected and returned together as an ErrorList.
func (l *Lexer) Tokenize() ([]Token, error) {
	for {
		l.skipTrivia()
		if l.off >= len(l.src) {
			break
		}
		l.start, l.pos = l.off, Pos{Line: l.line, Column: l.col}
		l.scan()
	}
	l.tokens = append(l.tokens, Token{Kind: TokenEOF, Pos: Pos{Line: l.line, Column: l.col}})
	if len(l.errs) > 0 {
		return nil, l.errs
	}
	return l.tokens, nil
}

func (l *Lexer) skipTrivia() {
	for l.off < len(l.src) {
		r := l.peek()
		switch {
		case isBlank(r):
			l.next()
		case strings.HasPrefix(l.src[l.off:], "//"):
			for l.off < len(l.src) && !isLineBreak(l.peek()) {
				l.next()
			}
		case strings.HasPrefix(l.src[l.off:], "/*"):
			l.blockComment()
		default:
			return
		}
	}
}

// blockComment skips a possibly nested /* */ comment.
func (l *Lexer) blockComment() {
	at := Pos{Line: l.line, Column: l.col}
	l.next()
	l.next()
	for depth := 1; depth > 0; {
		if l.off >= len(l.src) {
			l.errs.add(at, "unterminated block comment")
			return
		}
		switch rest := l.src[l.off:]; {
		case strings.HasPrefix(rest, "/*"):
			l.next()
			l.next()
			depth++
		case strings.HasPrefix(rest, "*/"):
			l.next()
			l.next()
			depth--
		default:
			l.next()
		}
	}
}

func (l *Lexer) scan() {
	r := l.peek()
	switch {
	case r == '_' || unicode.IsLetter(r):
		l.word()
		return
	case isDigit(r), r == '.' && isDigit(l.peekAt(1)):
		l.number()
		return
	}

	for _, p := range punctuation {
		if strings.HasPrefix(l.src[l.off:], p.text) {
			for range p.text {
				l.next()
			}
			l.emit(p.kind)
			return
		}
	}

	l.next()
	l.errs.add(l.pos, "invalid character %q", r)
}

// punctuation is ordered so that longer spellings win.
var punctuation = []struct {
	text string
	kind TokenKind
}{
	{">>=", TokenShiftRightEqual}, {"<<=", TokenShiftLeftEqual},
	{"->", TokenArrow}, {"&&", TokenAndAnd}, {"||", TokenOrOr},
	{"==", TokenEqualEqual}, {"!=", TokenNotEqual}, {">=", TokenGreaterEqual},
	{"<=", TokenLessEqual}, {">>", TokenShiftRight}, {"<<", TokenShiftLeft},
	{"++", TokenPlusPlus}, {"--", TokenMinusMinus}, {"+=", TokenPlusEqual},
	{"-=", TokenMinusEqual}, {"*=", TokenStarEqual}, {"/=", TokenSlashEqual},
	{"%=", TokenPercentEqual}, {"&=", TokenAndEqual}, {"|=", TokenOrEqual},
	{"^=", TokenXorEqual},
	{"&", TokenAnd}, {"@", TokenAt}, {"/", TokenSlash}, {"!", TokenBang},
	{"[", TokenLeftBracket}, {"]", TokenRightBracket}, {"{", TokenLeftBrace},
	{"}", TokenRightBrace}, {":", TokenColon}, {",", TokenComma}, {"=", TokenEqual},
	{">", TokenGreater}, {"<", TokenLess}, {"%", TokenPercent}, {"-", TokenMinus},
	{".", TokenPeriod}, {"+", TokenPlus}, {"|", TokenOr}, {"(", TokenLeftParen},
	{")", TokenRightParen}, {";", TokenSemicolon}, {"*", TokenStar}, {"~", TokenTilde},
	{"^", TokenXor},
}

func (l *Lexer) word() {
	for l.off < len(l.src) {
		r := l.peek()
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		l.next()
	}
	text := l.src[l.start:l.off]
	switch {
	case text == "_":
		l.emit(TokenUnderscore)
	case strings.HasPrefix(text, "__"):
		l.errs.add(l.pos, "identifier %q starts with a reserved double underscore", text)
	default:
		if kind, ok := keywords[text]; ok {
			l.emit(kind)
			return
		}
		l.emit(TokenIdent)
	}
}

// number scans decimal and hexadecimal integer and float literals.
func (l *Lexer) number() {
	if l.peek() == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X') {
		l.hexNumber()
		return
	}

	float := false
	digits := l.digits(isDigit)
	if l.peek() == '.' && !isWordStart(l.peekAt(1)) {
		l.next()
		digits += l.digits(isDigit)
		float = true
	}
	if r := l.peek(); (r == 'e' || r == 'E') && l.exponent(isDigit) {
		float = true
	}

	switch r := l.peek(); {
	case r == 'f' || r == 'h':
		l.next()
		float = true
	case !float && (r == 'i' || r == 'u'):
		l.next()
	}

	text := l.src[l.start:l.off]
	if !float && len(digits) > 1 && digits[0] == '0' {
		l.errs.add(l.pos, "integer literal %q has a leading zero", text)
		return
	}
	if l.off < len(l.src) && isWordStart(l.peek()) {
		l.errs.add(l.pos, "invalid suffix on numeric literal %q", text+string(l.peek()))
		for l.off < len(l.src) && (isWordStart(l.peek()) || isDigit(l.peek())) {
			l.next()
		}
		return
	}
	if float {
		l.emit(TokenFloat)
		return
	}
	l.emit(TokenInt)
}

func (l *Lexer) hexNumber() {
	l.next()
	l.next()
	mantissa := l.digits(isHexDigit)
	float := false
	if l.peek() == '.' {
		l.next()
		mantissa += l.digits(isHexDigit)
		float = true
	}
	if mantissa == "" {
		l.errs.add(l.pos, "hexadecimal literal has no digits")
		return
	}
	if r := l.peek(); r == 'p' || r == 'P' {
		if !l.exponent(isDigit) {
			l.errs.add(l.pos, "hexadecimal float has an empty exponent")
			return
		}
		float = true
	}
	switch r := l.peek(); {
	case float && (r == 'f' || r == 'h'):
		l.next()
	case !float && (r == 'i' || r == 'u'):
		l.next()
	}
	if float {
		l.emit(TokenFloat)
		return
	}
	l.emit(TokenInt)
}

// exponent consumes e/E/p/P, an optional sign and digits. It consumes
// nothing and reports false when no digits follow.
func (l *Lexer) exponent(digit func(rune) bool) bool {
	n := 1
	if r := l.peekAt(1); r == '+' || r == '-' {
		n = 2
	}
	if !digit(l.peekAt(n)) {
		return false
	}
	for i := 0; i < n; i++ {
		l.next()
	}
	l.digits(digit)
	return true
}

func (l *Lexer) digits(digit func(rune) bool) string {
	from := l.off
	for l.off < len(l.src) && digit(l.peek()) {
		l.next()
	}
	return l.src[from:l.off]
}

func (l *Lexer) emit(kind TokenKind) {
	l.tokens = append(l.tokens, Token{Kind: kind, Text: l.src[l.start:l.off], Pos: l.pos})
}

func (l *Lexer) peek() rune {
	return l.peekAt(0)
}

// peekAt returns the rune n runes ahead, or 0 past the end.
func (l *Lexer) peekAt(n int) rune {
	off := l.off
	for ; n > 0 && off < len(l.src); n-- {
		_, size := utf8.DecodeRuneInString(l.src[off:])
		off += size
	}
	if off >= len(l.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.src[off:])
	return r
}

func (l *Lexer) next() {
	r, size := utf8.DecodeRuneInString(l.src[l.off:])
	l.off += size
	if r == '\n' {
		l.line++
		l.col = 1
		return
	}
	l.col++
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isWordStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isBlank(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r', 0x85, 0x200E, 0x200F, 0x2028, 0x2029:
		return true
	}
	return false
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\v', '\f', '\r', 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}
