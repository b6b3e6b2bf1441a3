package wgsl

import "fmt"

// Parse lexes and parses src.
func Parse(src string) (*Module, error) {
	tokens, err := NewLexer(src).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).Parse()
}

// Parser builds a Module from tokens.
type Parser struct {
	tokens []Token
	cur    int
	errs   ErrorList

	// parens records expressions written inside parentheses, which WGSL
	// requires when mixing some operators.
	parens map[Expr]bool
}

// NewParser returns a parser over tokens, which must end with TokenEOF.
func NewParser(tokens []Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != TokenEOF {
		tokens = append(tokens, Token{Kind: TokenEOF})
	}
	return &Parser{tokens: tokens, parens: make(map[Expr]bool)}
}

// Parse parses a translation unit. After a syntax error it skips to the
// next module-scope declaration, so the returned ErrorList may hold several
// errors; the Module holds everything that parsed.
func (p *Parser) Parse() (*Module, error) {
	m := &Module{}

	for p.at(TokenEnable) || p.at(TokenRequires) || p.at(TokenDiagnostic) {
		d, err := p.directive()
		if err != nil {
			p.errs = append(p.errs, err)
			p.syncDecl()
			continue
		}
		m.Directives = append(m.Directives, d)
	}

	for !p.at(TokenEOF) {
		if p.accept(TokenSemicolon) {
			continue
		}
		d, err := p.decl()
		if err != nil {
			p.errs = append(p.errs, err)
			p.syncDecl()
			continue
		}
		m.Decls = append(m.Decls, d)
	}
	return m, p.errs.Err()
}

func (p *Parser) directive() (*Directive, *Error) {
	kw := p.next()
	d := &Directive{Kind: kw.Kind, Pos: kw.Pos}
	if kw.Kind == TokenDiagnostic {
		// diagnostic(severity, rule);
		args, err := p.argList()
		if err != nil {
			return nil, err
		}
		if len(args) != 2 {
			return nil, p.errorAt(kw.Pos, "diagnostic directive takes a severity and a rule")
		}
		for _, a := range args {
			d.Names = append(d.Names, exprName(a))
		}
	} else {
		for {
			name, err := p.expect(TokenIdent)
			if err != nil {
				return nil, err
			}
			d.Names = append(d.Names, name.Text)
			if !p.accept(TokenComma) || p.at(TokenSemicolon) {
				break
			}
		}
	}
	if _, err := p.expect(TokenSemicolon); err != nil {
		return nil, err
	}
	return d, nil
}

func (p *Parser) decl() (Decl, *Error) {
	attrs, err := p.attributes()
	if err != nil {
		return nil, err
	}

	switch tok := p.peek(); tok.Kind {
	case TokenFn:
		return p.funcDecl(attrs)
	case TokenStruct:
		if len(attrs) > 0 {
			return nil, p.errorAt(attrs[0].Pos, "attributes are not allowed on struct declarations")
		}
		return p.structDecl()
	case TokenVar:
		v, err := p.varDecl(attrs)
		if err != nil {
			return nil, err
		}
		_, err = p.expect(TokenSemicolon)
		return v, err
	case TokenConst, TokenOverride:
		v, err := p.valueDecl(attrs)
		if err != nil {
			return nil, err
		}
		_, err = p.expect(TokenSemicolon)
		return v, err
	case TokenAlias:
		return p.aliasDecl()
	case TokenConstAssert:
		return p.constAssert()
	case TokenLet:
		return nil, p.errorAt(tok.Pos, "let declarations are only allowed inside functions")
	default:
		return nil, p.unexpected("a declaration")
	}
}

// attributes parses zero or more @name or @name(args).
func (p *Parser) attributes() ([]Attribute, *Error) {
	var attrs []Attribute
	for p.at(TokenAt) {
		at := p.next()
		name := p.peek()
		if name.Kind != TokenIdent && name.Kind != TokenDiagnostic {
			return nil, p.unexpected("an attribute name")
		}
		p.next()
		attr := Attribute{Name: name.Text, Pos: at.Pos}
		if p.at(TokenLeftParen) {
			args, err := p.argList()
			if err != nil {
				return nil, err
			}
			attr.Args = args
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

func (p *Parser) funcDecl(attrs []Attribute) (*FuncDecl, *Error) {
	kw := p.next()
	name, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	fn := &FuncDecl{Name: name.Text, Attrs: attrs, Pos: kw.Pos}

	if _, err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}
	for !p.at(TokenRightParen) {
		param, err := p.param()
		if err != nil {
			return nil, err
		}
		fn.Params = append(fn.Params, param)
		if !p.accept(TokenComma) {
			break
		}
	}
	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}

	if p.accept(TokenArrow) {
		if fn.ResultAttrs, err = p.attributes(); err != nil {
			return nil, err
		}
		if fn.Result, err = p.typeExpr(); err != nil {
			return nil, err
		}
	}

	if fn.Body, err = p.block(); err != nil {
		return nil, err
	}
	return fn, nil
}

func (p *Parser) param() (*Param, *Error) {
	attrs, err := p.attributes()
	if err != nil {
		return nil, err
	}
	name, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}
	typ, err := p.typeExpr()
	if err != nil {
		return nil, err
	}
	return &Param{Name: name.Text, Type: typ, Attrs: attrs, Pos: name.Pos}, nil
}

func (p *Parser) structDecl() (*StructDecl, *Error) {
	kw := p.next()
	name, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	s := &StructDecl{Name: name.Text, Pos: kw.Pos}

	if _, err := p.expect(TokenLeftBrace); err != nil {
		return nil, err
	}
	for !p.at(TokenRightBrace) {
		attrs, err := p.attributes()
		if err != nil {
			return nil, err
		}
		mname, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		typ, err := p.typeExpr()
		if err != nil {
			return nil, err
		}
		s.Members = append(s.Members, &Member{Name: mname.Text, Type: typ, Attrs: attrs, Pos: mname.Pos})
		if !p.accept(TokenComma) {
			break
		}
	}
	if _, err := p.expect(TokenRightBrace); err != nil {
		return nil, err
	}
	return s, nil
}

// varDecl parses var<space, access> name: T = init, without the semicolon.
func (p *Parser) varDecl(attrs []Attribute) (*VarDecl, *Error) {
	kw := p.next()
	v := &VarDecl{Attrs: attrs, Pos: kw.Pos}

	if p.accept(TokenLess) {
		space, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		v.AddressSpace = space.Text
		if p.accept(TokenComma) && !p.atTemplateEnd() {
			access, err := p.expect(TokenIdent)
			if err != nil {
				return nil, err
			}
			v.Access = access.Text
			p.accept(TokenComma)
		}
		if err := p.closeTemplate(); err != nil {
			return nil, err
		}
	}

	name, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	v.Name = name.Text
	if p.accept(TokenColon) {
		if v.Type, err = p.typeExpr(); err != nil {
			return nil, err
		}
	}
	if p.accept(TokenEqual) {
		if v.Init, err = p.expression(); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// valueDecl parses const, override or let, without the semicolon.
func (p *Parser) valueDecl(attrs []Attribute) (*ValueDecl, *Error) {
	kw := p.next()
	name, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	v := &ValueDecl{Kind: kw.Kind, Name: name.Text, Attrs: attrs, Pos: kw.Pos}
	if p.accept(TokenColon) {
		if v.Type, err = p.typeExpr(); err != nil {
			return nil, err
		}
	}
	if p.accept(TokenEqual) {
		if v.Init, err = p.expression(); err != nil {
			return nil, err
		}
	} else if kw.Kind != TokenOverride {
		return nil, p.unexpected("'=' and an initializer")
	}
	return v, nil
}

func (p *Parser) aliasDecl() (*AliasDecl, *Error) {
	kw := p.next()
	name, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenEqual); err != nil {
		return nil, err
	}
	typ, err := p.typeExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenSemicolon); err != nil {
		return nil, err
	}
	return &AliasDecl{Name: name.Text, Type: typ, Pos: kw.Pos}, nil
}

func (p *Parser) constAssert() (*ConstAssert, *Error) {
	kw := p.next()
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenSemicolon); err != nil {
		return nil, err
	}
	return &ConstAssert{Cond: cond, Pos: kw.Pos}, nil
}

// typeExpr parses a type name with an optional template list.
func (p *Parser) typeExpr() (*TypeExpr, *Error) {
	name, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	t := &TypeExpr{Name: name.Text, Pos: name.Pos}
	if p.at(TokenLess) {
		if t.Args, err = p.templateList(); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// templateList parses <arg, ...>. Arguments are parsed at the additive
// level so that '>' and '>>' close the list.
func (p *Parser) templateList() ([]Expr, *Error) {
	p.next()
	var args []Expr
	for !p.atTemplateEnd() {
		arg, err := p.binary(precAdditive)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.accept(TokenComma) {
			break
		}
	}
	if err := p.closeTemplate(); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, p.unexpected("a template argument")
	}
	return args, nil
}

func (p *Parser) atTemplateEnd() bool {
	switch p.peek().Kind {
	case TokenGreater, TokenShiftRight, TokenGreaterEqual, TokenShiftRightEqual:
		return true
	}
	return false
}

// closeTemplate consumes one '>', splitting '>>', '>=' and '>>=' so nested
// lists like array<vec4<f32>> close correctly.
func (p *Parser) closeTemplate() *Error {
	tok := &p.tokens[p.cur]
	rest := map[TokenKind]TokenKind{
		TokenShiftRight:      TokenGreater,
		TokenGreaterEqual:    TokenEqual,
		TokenShiftRightEqual: TokenGreaterEqual,
	}
	switch {
	case tok.Kind == TokenGreater:
		p.next()
	case rest[tok.Kind] != 0:
		tok.Kind = rest[tok.Kind]
		tok.Text = tok.Text[1:]
		tok.Pos.Column++
	default:
		return p.unexpected("'>'")
	}
	return nil
}

func (p *Parser) block() (*Block, *Error) {
	open, err := p.expect(TokenLeftBrace)
	if err != nil {
		return nil, err
	}
	b := &Block{Pos: open.Pos}
	for !p.at(TokenRightBrace) && !p.at(TokenEOF) {
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		if s != nil {
			b.Stmts = append(b.Stmts, s)
		}
	}
	if _, err := p.expect(TokenRightBrace); err != nil {
		return nil, err
	}
	return b, nil
}

// statement parses one statement; an empty statement yields nil.
func (p *Parser) statement() (Stmt, *Error) {
	if _, err := p.attributes(); err != nil {
		return nil, err
	}

	tok := p.peek()
	switch tok.Kind {
	case TokenSemicolon:
		p.next()
		return nil, nil
	case TokenLeftBrace:
		return p.block()
	case TokenReturn:
		p.next()
		r := &Return{Pos: tok.Pos}
		if !p.at(TokenSemicolon) {
			value, err := p.expression()
			if err != nil {
				return nil, err
			}
			r.Value = value
		}
		return r, p.semicolon()
	case TokenIf:
		return p.ifStmt()
	case TokenSwitch:
		return p.switchStmt()
	case TokenLoop:
		return p.loopStmt()
	case TokenFor:
		return p.forStmt()
	case TokenWhile:
		p.next()
		cond, err := p.expression()
		if err != nil {
			return nil, err
		}
		body, err := p.block()
		if err != nil {
			return nil, err
		}
		return &While{Cond: cond, Body: body, Pos: tok.Pos}, nil
	case TokenBreak:
		p.next()
		if p.at(TokenIf) {
			return nil, p.errorAt(tok.Pos, "break if is only allowed at the end of a continuing block")
		}
		return &Break{Pos: tok.Pos}, p.semicolon()
	case TokenContinue:
		p.next()
		return &Continue{Pos: tok.Pos}, p.semicolon()
	case TokenDiscard:
		p.next()
		return &Discard{Pos: tok.Pos}, p.semicolon()
	case TokenConstAssert:
		return p.constAssert()
	case TokenContinuing:
		return nil, p.errorAt(tok.Pos, "continuing must be the last statement of a loop body")
	}

	s, err := p.simpleStatement()
	if err != nil {
		return nil, err
	}
	return s, p.semicolon()
}

// simpleStatement parses the statements allowed in a for header:
// declarations, assignments, increments and calls.
func (p *Parser) simpleStatement() (Stmt, *Error) {
	tok := p.peek()
	switch tok.Kind {
	case TokenVar:
		return p.varDecl(nil)
	case TokenLet, TokenConst:
		return p.valueDecl(nil)
	case TokenUnderscore:
		p.next()
		if _, err := p.expect(TokenEqual); err != nil {
			return nil, err
		}
		rhs, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &Assign{Op: TokenEqual, RHS: rhs, Pos: tok.Pos}, nil
	}

	lhs, err := p.unary()
	if err != nil {
		return nil, err
	}
	op := p.peek()
	switch {
	case isAssignOp(op.Kind):
		p.next()
		rhs, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &Assign{LHS: lhs, Op: op.Kind, RHS: rhs, Pos: tok.Pos}, nil
	case op.Kind == TokenPlusPlus || op.Kind == TokenMinusMinus:
		p.next()
		return &IncDec{X: lhs, Op: op.Kind, Pos: tok.Pos}, nil
	}
	if call, ok := lhs.(*Call); ok && !p.parens[lhs] {
		return &CallStmt{Call: call}, nil
	}
	return nil, p.errorAt(tok.Pos, "expected assignment, increment or function call")
}

func (p *Parser) ifStmt() (*If, *Error) {
	kw := p.next()
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	then, err := p.block()
	if err != nil {
		return nil, err
	}
	s := &If{Cond: cond, Then: then, Pos: kw.Pos}
	if p.accept(TokenElse) {
		if p.at(TokenIf) {
			s.Else, err = p.ifStmt()
		} else {
			s.Else, err = p.block()
		}
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (p *Parser) switchStmt() (*Switch, *Error) {
	kw := p.next()
	sel, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.attributes(); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLeftBrace); err != nil {
		return nil, err
	}
	s := &Switch{Selector: sel, Pos: kw.Pos}
	for !p.at(TokenRightBrace) {
		clause := &CaseClause{Pos: p.peek().Pos}
		switch {
		case p.accept(TokenDefault):
			clause.Selectors = []Expr{nil}
		case p.accept(TokenCase):
			for !p.at(TokenColon) && !p.at(TokenLeftBrace) {
				if p.accept(TokenDefault) {
					clause.Selectors = append(clause.Selectors, nil)
				} else {
					e, err := p.expression()
					if err != nil {
						return nil, err
					}
					clause.Selectors = append(clause.Selectors, e)
				}
				if !p.accept(TokenComma) {
					break
				}
			}
			if len(clause.Selectors) == 0 {
				return nil, p.unexpected("a case selector")
			}
		default:
			return nil, p.unexpected("'case' or 'default'")
		}
		p.accept(TokenColon)
		if clause.Body, err = p.block(); err != nil {
			return nil, err
		}
		s.Clauses = append(s.Clauses, clause)
	}
	p.next()
	return s, nil
}

func (p *Parser) loopStmt() (*Loop, *Error) {
	kw := p.next()
	open, err := p.expect(TokenLeftBrace)
	if err != nil {
		return nil, err
	}
	l := &Loop{Body: &Block{Pos: open.Pos}, Pos: kw.Pos}
	for !p.at(TokenRightBrace) && !p.at(TokenEOF) {
		if p.at(TokenContinuing) {
			if l.Continuing, l.BreakIf, err = p.continuing(); err != nil {
				return nil, err
			}
			break
		}
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		if s != nil {
			l.Body.Stmts = append(l.Body.Stmts, s)
		}
	}
	if _, err := p.expect(TokenRightBrace); err != nil {
		return nil, err
	}
	return l, nil
}

// continuing parses continuing { ... break if cond; }.
func (p *Parser) continuing() (*Block, Expr, *Error) {
	p.next()
	open, err := p.expect(TokenLeftBrace)
	if err != nil {
		return nil, nil, err
	}
	b := &Block{Pos: open.Pos}
	var breakIf Expr
	for !p.at(TokenRightBrace) && !p.at(TokenEOF) {
		if p.at(TokenBreak) && p.peekAt(1).Kind == TokenIf {
			p.next()
			p.next()
			if breakIf, err = p.expression(); err != nil {
				return nil, nil, err
			}
			if err := p.semicolon(); err != nil {
				return nil, nil, err
			}
			if !p.at(TokenRightBrace) {
				return nil, nil, p.errorAt(p.peek().Pos, "break if must be the last statement of a continuing block")
			}
			break
		}
		s, err := p.statement()
		if err != nil {
			return nil, nil, err
		}
		if s != nil {
			b.Stmts = append(b.Stmts, s)
		}
	}
	if _, err := p.expect(TokenRightBrace); err != nil {
		return nil, nil, err
	}
	return b, breakIf, nil
}

func (p *Parser) forStmt() (*For, *Error) {
	kw := p.next()
	if _, err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}
	f := &For{Pos: kw.Pos}
	var err *Error
	if !p.at(TokenSemicolon) {
		if f.Init, err = p.simpleStatement(); err != nil {
			return nil, err
		}
	}
	if err := p.semicolon(); err != nil {
		return nil, err
	}
	if !p.at(TokenSemicolon) {
		if f.Cond, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if err := p.semicolon(); err != nil {
		return nil, err
	}
	if !p.at(TokenRightParen) {
		if f.Update, err = p.simpleStatement(); err != nil {
			return nil, err
		}
		if _, ok := f.Update.(*VarDecl); ok {
			return nil, p.errorAt(f.Update.Position(), "a for update cannot declare a variable")
		}
		if _, ok := f.Update.(*ValueDecl); ok {
			return nil, p.errorAt(f.Update.Position(), "a for update cannot declare a value")
		}
	}
	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}
	if f.Body, err = p.block(); err != nil {
		return nil, err
	}
	return f, nil
}

// Operator precedence, lowest first.
const (
	precLowest = iota
	precOrOr
	precAndAnd
	precOr
	precXor
	precAnd
	precRelational
	precShift
	precAdditive
	precMultiplicative
)

var binaryPrec = map[TokenKind]int{
	TokenOrOr:         precOrOr,
	TokenAndAnd:       precAndAnd,
	TokenOr:           precOr,
	TokenXor:          precXor,
	TokenAnd:          precAnd,
	TokenEqualEqual:   precRelational,
	TokenNotEqual:     precRelational,
	TokenLess:         precRelational,
	TokenLessEqual:    precRelational,
	TokenGreater:      precRelational,
	TokenGreaterEqual: precRelational,
	TokenShiftLeft:    precShift,
	TokenShiftRight:   precShift,
	TokenPlus:         precAdditive,
	TokenMinus:        precAdditive,
	TokenStar:         precMultiplicative,
	TokenSlash:        precMultiplicative,
	TokenPercent:      precMultiplicative,
}

func (p *Parser) expression() (Expr, *Error) {
	return p.binary(precOrOr)
}

// binary parses operators binding at least as tightly as min.
func (p *Parser) binary(min int) (Expr, *Error) {
	x, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		prec, ok := binaryPrec[op.Kind]
		if !ok || prec < min {
			return x, nil
		}
		p.next()
		y, err := p.binary(prec + 1)
		if err != nil {
			return nil, err
		}
		if err := p.checkMixing(op, x, y); err != nil {
			return nil, err
		}
		x = &Binary{Op: op.Kind, X: x, Y: y, Pos: op.Pos}
	}
}

// checkMixing rejects operator combinations WGSL requires parentheses for:
// chained relations, non-unary shift operands, and different logical or
// bitwise operators side by side.
func (p *Parser) checkMixing(op Token, operands ...Expr) *Error {
	prec := binaryPrec[op.Kind]
	for _, e := range operands {
		b, ok := e.(*Binary)
		if !ok || p.parens[e] {
			continue
		}
		inner := binaryPrec[b.Op]
		switch {
		case prec == precRelational && inner == precRelational:
			return p.errorAt(op.Pos, "chained %q and %q require parentheses", b.Op, op.Kind)
		case prec == precShift,
			prec >= precOr && prec <= precAnd && b.Op != op.Kind,
			prec <= precAndAnd && inner <= precAndAnd && b.Op != op.Kind:
			return p.errorAt(op.Pos, "mixing %q and %q requires parentheses", b.Op, op.Kind)
		}
	}
	return nil
}

func (p *Parser) unary() (Expr, *Error) {
	switch tok := p.peek(); tok.Kind {
	case TokenMinus, TokenBang, TokenTilde, TokenStar, TokenAnd:
		p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: tok.Kind, X: x, Pos: tok.Pos}, nil
	}
	return p.postfix()
}

func (p *Parser) postfix() (Expr, *Error) {
	x, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch tok := p.peek(); tok.Kind {
		case TokenLeftBracket:
			p.next()
			index, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenRightBracket); err != nil {
				return nil, err
			}
			x = &Index{X: x, Index: index, Pos: tok.Pos}
		case TokenPeriod:
			p.next()
			name, err := p.expect(TokenIdent)
			if err != nil {
				return nil, err
			}
			x = &MemberAccess{X: x, Name: name.Text, Pos: name.Pos}
		default:
			return x, nil
		}
	}
}

func (p *Parser) primary() (Expr, *Error) {
	tok := p.peek()
	switch tok.Kind {
	case TokenInt, TokenFloat, TokenTrue, TokenFalse:
		p.next()
		return &Literal{Kind: tok.Kind, Text: tok.Text, Pos: tok.Pos}, nil

	case TokenLeftParen:
		p.next()
		x, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRightParen); err != nil {
			return nil, err
		}
		p.parens[x] = true
		return x, nil

	case TokenIdent:
		p.next()
		callee := &TypeExpr{Name: tok.Text, Pos: tok.Pos}
		if p.at(TokenLess) && isTemplated(tok.Text) {
			args, err := p.templateList()
			if err != nil {
				return nil, err
			}
			callee.Args = args
		}
		if p.at(TokenLeftParen) {
			args, err := p.argList()
			if err != nil {
				return nil, err
			}
			return &Call{Callee: callee, Args: args, Pos: tok.Pos}, nil
		}
		if callee.Args != nil {
			return callee, nil
		}
		return &Ident{Name: tok.Text, Pos: tok.Pos}, nil
	}
	return nil, p.unexpected("an expression")
}

// argList parses (expr, ...) with an optional trailing comma.
func (p *Parser) argList() ([]Expr, *Error) {
	if _, err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}
	var args []Expr
	for !p.at(TokenRightParen) {
		arg, err := p.expression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.accept(TokenComma) {
			break
		}
	}
	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}
	return args, nil
}

func isAssignOp(k TokenKind) bool {
	switch k {
	case TokenEqual, TokenPlusEqual, TokenMinusEqual, TokenStarEqual, TokenSlashEqual,
		TokenPercentEqual, TokenAndEqual, TokenOrEqual, TokenXorEqual,
		TokenShiftLeftEqual, TokenShiftRightEqual:
		return true
	}
	return false
}

// exprName returns the dotted name of an identifier or member chain, such
// as a diagnostic rule name.
func exprName(e Expr) string {
	switch e := e.(type) {
	case *Ident:
		return e.Name
	case *MemberAccess:
		return exprName(e.X) + "." + e.Name
	}
	return ""
}

func (p *Parser) peek() Token {
	return p.tokens[p.cur]
}

func (p *Parser) peekAt(n int) Token {
	if p.cur+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.cur+n]
}

func (p *Parser) next() Token {
	tok := p.tokens[p.cur]
	if tok.Kind != TokenEOF {
		p.cur++
	}
	return tok
}

func (p *Parser) at(kind TokenKind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) accept(kind TokenKind) bool {
	if p.at(kind) {
		p.next()
		return true
	}
	return false
}

func (p *Parser) expect(kind TokenKind) (Token, *Error) {
	if p.at(kind) {
		return p.next(), nil
	}
	return Token{}, p.unexpected("'" + kind.String() + "'")
}

func (p *Parser) semicolon() *Error {
	_, err := p.expect(TokenSemicolon)
	return err
}

func (p *Parser) unexpected(want string) *Error {
	tok := p.peek()
	found := tok.Kind.String()
	if tok.Kind == TokenIdent || tok.Kind == TokenInt || tok.Kind == TokenFloat {
		found = "'" + tok.Text + "'"
	} else if tok.Kind != TokenEOF {
		found = "'" + found + "'"
	}
	return p.errorAt(tok.Pos, "expected %s, found %s", want, found)
}

func (p *Parser) errorAt(pos Pos, format string, args ...any) *Error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// syncDecl skips to the next token that can start a module-scope
// declaration in the first column, so declarations nested in a function
// body do not end recovery.
func (p *Parser) syncDecl() {
	p.next()
	for !p.at(TokenEOF) {
		switch p.peek().Kind {
		case TokenFn, TokenStruct, TokenVar, TokenConst, TokenOverride, TokenAlias, TokenConstAssert, TokenAt:
			if p.peek().Pos.Column == 1 {
				return
			}
		}
		p.next()
	}
}
