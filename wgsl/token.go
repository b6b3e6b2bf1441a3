// Package wgsl parses and checks WGSL source text.
//
// It is a front end only: Parse builds a syntax tree and Check resolves
// names and enforces the module-level rules a WGSL consumer relies on
// (bindings, entry point stages, control flow placement). Expression types
// are not inferred.
package wgsl

import "fmt"

// TokenKind is the lexical class of a token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota

	TokenIdent
	TokenInt
	TokenFloat

	// Punctuation
	TokenAnd                // &
	TokenAndAnd             // &&
	TokenArrow              // ->
	TokenAt                 // @
	TokenSlash              // /
	TokenBang               // !
	TokenLeftBracket        // [
	TokenRightBracket       // ]
	TokenLeftBrace          // {
	TokenRightBrace         // }
	TokenColon              // :
	TokenComma              // ,
	TokenEqual              // =
	TokenEqualEqual         // ==
	TokenNotEqual           // !=
	TokenGreater            // >
	TokenGreaterEqual       // >=
	TokenShiftRight         // >>
	TokenLess               // <
	TokenLessEqual          // <=
	TokenShiftLeft          // <<
	TokenPercent            // %
	TokenMinus              // -
	TokenMinusMinus         // --
	TokenPeriod             // .
	TokenPlus               // +
	TokenPlusPlus           // ++
	TokenOr                 // |
	TokenOrOr               // ||
	TokenLeftParen          // (
	TokenRightParen         // )
	TokenSemicolon          // ;
	TokenStar               // *
	TokenTilde              // ~
	TokenUnderscore         // _
	TokenXor                // ^
	TokenPlusEqual          // +=
	TokenMinusEqual         // -=
	TokenStarEqual          // *=
	TokenSlashEqual         // /=
	TokenPercentEqual       // %=
	TokenAndEqual           // &=
	TokenOrEqual            // |=
	TokenXorEqual           // ^=
	TokenShiftRightEqual    // >>=
	TokenShiftLeftEqual     // <<=

	// Keywords
	TokenAlias
	TokenBreak
	TokenCase
	TokenConst
	TokenConstAssert
	TokenContinue
	TokenContinuing
	TokenDefault
	TokenDiagnostic
	TokenDiscard
	TokenElse
	TokenEnable
	TokenFalse
	TokenFn
	TokenFor
	TokenIf
	TokenLet
	TokenLoop
	TokenOverride
	TokenRequires
	TokenReturn
	TokenStruct
	TokenSwitch
	TokenTrue
	TokenVar
	TokenWhile
)

var tokenText = map[TokenKind]string{
	TokenEOF: "end of file", TokenIdent: "identifier", TokenInt: "integer literal", TokenFloat: "float literal",
	TokenAnd: "&", TokenAndAnd: "&&", TokenArrow: "->", TokenAt: "@", TokenSlash: "/", TokenBang: "!",
	TokenLeftBracket: "[", TokenRightBracket: "]", TokenLeftBrace: "{", TokenRightBrace: "}",
	TokenColon: ":", TokenComma: ",", TokenEqual: "=", TokenEqualEqual: "==", TokenNotEqual: "!=",
	TokenGreater: ">", TokenGreaterEqual: ">=", TokenShiftRight: ">>", TokenLess: "<",
	TokenLessEqual: "<=", TokenShiftLeft: "<<", TokenPercent: "%", TokenMinus: "-", TokenMinusMinus: "--",
	TokenPeriod: ".", TokenPlus: "+", TokenPlusPlus: "++", TokenOr: "|", TokenOrOr: "||",
	TokenLeftParen: "(", TokenRightParen: ")", TokenSemicolon: ";", TokenStar: "*", TokenTilde: "~",
	TokenUnderscore: "_", TokenXor: "^", TokenPlusEqual: "+=", TokenMinusEqual: "-=",
	TokenStarEqual: "*=", TokenSlashEqual: "/=", TokenPercentEqual: "%=", TokenAndEqual: "&=",
	TokenOrEqual: "|=", TokenXorEqual: "^=", TokenShiftRightEqual: ">>=", TokenShiftLeftEqual: "<<=",
}

var keywords = map[string]TokenKind{
	"alias":        TokenAlias,
	"break":        TokenBreak,
	"case":         TokenCase,
	"const":        TokenConst,
	"const_assert": TokenConstAssert,
	"continue":     TokenContinue,
	"continuing":   TokenContinuing,
	"default":      TokenDefault,
	"diagnostic":   TokenDiagnostic,
	"discard":      TokenDiscard,
	"else":         TokenElse,
	"enable":       TokenEnable,
	"false":        TokenFalse,
	"fn":           TokenFn,
	"for":          TokenFor,
	"if":           TokenIf,
	"let":          TokenLet,
	"loop":         TokenLoop,
	"override":     TokenOverride,
	"requires":     TokenRequires,
	"return":       TokenReturn,
	"struct":       TokenStruct,
	"switch":       TokenSwitch,
	"true":         TokenTrue,
	"var":          TokenVar,
	"while":        TokenWhile,
}

// String returns the token's spelling, or a description for classes.
func (k TokenKind) String() string {
	if s, ok := tokenText[k]; ok {
		return s
	}
	for word, kind := range keywords {
		if kind == k {
			return word
		}
	}
	return fmt.Sprintf("TokenKind(%d)", k)
}

// Pos is a 1-based line and column in the source.
type Pos struct {
	Line   int
	Column int
}

// String formats p as line:column.
func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is one lexical token.
type Token struct {
	Kind TokenKind
	Text string
	Pos  Pos
}
