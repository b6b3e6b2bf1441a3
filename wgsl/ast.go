package wgsl

// Module is a parsed WGSL translation unit.
type Module struct {
	Directives []*Directive
	// Decls holds module-scope declarations in source order.
	Decls []Decl
}

// Functions returns the function declarations of m.
func (m *Module) Functions() []*FuncDecl {
	var fns []*FuncDecl
	for _, d := range m.Decls {
		if fn, ok := d.(*FuncDecl); ok {
			fns = append(fns, fn)
		}
	}
	return fns
}

// Vars returns the module-scope variables of m.
func (m *Module) Vars() []*VarDecl {
	var vars []*VarDecl
	for _, d := range m.Decls {
		if v, ok := d.(*VarDecl); ok {
			vars = append(vars, v)
		}
	}
	return vars
}

// Directive is an enable, requires or diagnostic directive.
type Directive struct {
	Kind  TokenKind
	Names []string
	Pos   Pos
}

// Node is implemented by every syntax tree node.
type Node interface {
	Position() Pos
}

// Decl is a module-scope declaration.
type Decl interface {
	Node
	// DeclName is the declared name; empty for const_assert.
	DeclName() string
}

// Stmt is a statement.
type Stmt interface {
	Node
	stmt()
}

// Expr is an expression.
type Expr interface {
	Node
	expr()
}

// Attribute is @name or @name(args).
type Attribute struct {
	Name string
	Args []Expr
	Pos  Pos
}

// TypeExpr names a type, optionally with a template list such as
// vec4<f32> or array<u32, 4>. Template arguments that are not types
// (address spaces, access modes, texel formats, sizes) are stored as
// expressions; a bare name such as f32 or read_write is an *Ident.
type TypeExpr struct {
	Name string
	Args []Expr
	Pos  Pos
}

// StructDecl is a struct declaration.
type StructDecl struct {
	Name    string
	Members []*Member
	Pos     Pos
}

// Member is one struct member.
type Member struct {
	Name  string
	Type  *TypeExpr
	Attrs []Attribute
	Pos   Pos
}

// AliasDecl is a type alias.
type AliasDecl struct {
	Name string
	Type *TypeExpr
	Pos  Pos
}

// VarDecl is a var declaration at module or function scope.
type VarDecl struct {
	Name         string
	AddressSpace string
	Access       string
	Type         *TypeExpr
	Init         Expr
	Attrs        []Attribute
	Pos          Pos
}

// ValueDecl is a const, override or let declaration.
type ValueDecl struct {
	Kind  TokenKind // TokenConst, TokenOverride or TokenLet
	Name  string
	Type  *TypeExpr
	Init  Expr
	Attrs []Attribute
	Pos   Pos
}

// FuncDecl is a function declaration.
type FuncDecl struct {
	Name        string
	Params      []*Param
	Result      *TypeExpr
	ResultAttrs []Attribute
	Attrs       []Attribute
	Body        *Block
	Pos         Pos
}

// Param is a function parameter.
type Param struct {
	Name  string
	Type  *TypeExpr
	Attrs []Attribute
	Pos   Pos
}

// ConstAssert is a const_assert at module or function scope.
type ConstAssert struct {
	Cond Expr
	Pos  Pos
}

// Block is a braced statement list.
type Block struct {
	Stmts []Stmt
	Pos   Pos
}

// Return is a return statement.
type Return struct {
	Value Expr
	Pos   Pos
}

// If is an if statement; Else is nil, *If or *Block.
type If struct {
	Cond Expr
	Then *Block
	Else Stmt
	Pos  Pos
}

// Switch is a switch statement.
type Switch struct {
	Selector Expr
	Clauses  []*CaseClause
	Pos      Pos
}

// CaseClause is one clause of a switch. A nil selector stands for default.
type CaseClause struct {
	Selectors []Expr
	Body      *Block
	Pos       Pos
}

// IsDefault reports whether the clause contains the default selector.
func (c *CaseClause) IsDefault() bool {
	for _, s := range c.Selectors {
		if s == nil {
			return true
		}
	}
	return false
}

// Loop is a loop statement with an optional continuing block, which may
// end with break if.
type Loop struct {
	Body       *Block
	Continuing *Block
	BreakIf    Expr
	Pos        Pos
}

// For is a for statement.
type For struct {
	Init   Stmt
	Cond   Expr
	Update Stmt
	Body   *Block
	Pos    Pos
}

// While is a while statement.
type While struct {
	Cond Expr
	Body *Block
	Pos  Pos
}

// Break is a break statement.
type Break struct{ Pos Pos }

// Continue is a continue statement.
type Continue struct{ Pos Pos }

// Discard is a discard statement.
type Discard struct{ Pos Pos }

// Assign is a plain or compound assignment. LHS is nil for the phony
// assignment "_ = e".
type Assign struct {
	LHS Expr
	Op  TokenKind
	RHS Expr
	Pos Pos
}

// IncDec is x++ or x--.
type IncDec struct {
	X   Expr
	Op  TokenKind
	Pos Pos
}

// CallStmt is a function call used as a statement.
type CallStmt struct {
	Call *Call
}

// Ident is a reference to a named value.
type Ident struct {
	Name string
	Pos  Pos
}

// Literal is a numeric or boolean literal.
type Literal struct {
	Kind TokenKind // TokenInt, TokenFloat, TokenTrue or TokenFalse
	Text string
	Pos  Pos
}

// Call is a function call, value constructor or bitcast.
type Call struct {
	Callee *TypeExpr
	Args   []Expr
	Pos    Pos
}

// Unary is a prefix operation: - ! ~ * &.
type Unary struct {
	Op  TokenKind
	X   Expr
	Pos Pos
}

// Binary is an infix operation.
type Binary struct {
	Op  TokenKind
	X   Expr
	Y   Expr
	Pos Pos
}

// Index is x[i].
type Index struct {
	X     Expr
	Index Expr
	Pos   Pos
}

// MemberAccess is x.name, including swizzles.
type MemberAccess struct {
	X    Expr
	Name string
	Pos  Pos
}

func (n *TypeExpr) Position() Pos     { return n.Pos }
func (n *StructDecl) Position() Pos   { return n.Pos }
func (n *AliasDecl) Position() Pos    { return n.Pos }
func (n *VarDecl) Position() Pos      { return n.Pos }
func (n *ValueDecl) Position() Pos    { return n.Pos }
func (n *FuncDecl) Position() Pos     { return n.Pos }
func (n *ConstAssert) Position() Pos  { return n.Pos }
func (n *Block) Position() Pos        { return n.Pos }
func (n *Return) Position() Pos       { return n.Pos }
func (n *If) Position() Pos           { return n.Pos }
func (n *Switch) Position() Pos       { return n.Pos }
func (n *Loop) Position() Pos         { return n.Pos }
func (n *For) Position() Pos          { return n.Pos }
func (n *While) Position() Pos        { return n.Pos }
func (n *Break) Position() Pos        { return n.Pos }
func (n *Continue) Position() Pos     { return n.Pos }
func (n *Discard) Position() Pos      { return n.Pos }
func (n *Assign) Position() Pos       { return n.Pos }
func (n *IncDec) Position() Pos       { return n.Pos }
func (n *CallStmt) Position() Pos     { return n.Call.Pos }
func (n *Ident) Position() Pos        { return n.Pos }
func (n *Literal) Position() Pos      { return n.Pos }
func (n *Call) Position() Pos         { return n.Pos }
func (n *Unary) Position() Pos        { return n.Pos }
func (n *Binary) Position() Pos       { return n.Pos }
func (n *Index) Position() Pos        { return n.Pos }
func (n *MemberAccess) Position() Pos { return n.Pos }

func (n *StructDecl) DeclName() string  { return n.Name }
func (n *AliasDecl) DeclName() string   { return n.Name }
func (n *VarDecl) DeclName() string     { return n.Name }
func (n *ValueDecl) DeclName() string   { return n.Name }
func (n *FuncDecl) DeclName() string    { return n.Name }
func (n *ConstAssert) DeclName() string { return "" }

func (*VarDecl) stmt()     {}
func (*ValueDecl) stmt()   {}
func (*ConstAssert) stmt() {}
func (*Block) stmt()       {}
func (*Return) stmt()      {}
func (*If) stmt()          {}
func (*Switch) stmt()      {}
func (*Loop) stmt()        {}
func (*For) stmt()         {}
func (*While) stmt()       {}
func (*Break) stmt()       {}
func (*Continue) stmt()    {}
func (*Discard) stmt()     {}
func (*Assign) stmt()      {}
func (*IncDec) stmt()      {}
func (*CallStmt) stmt()    {}

func (*TypeExpr) expr()     {}
func (*Ident) expr()        {}
func (*Literal) expr()      {}
func (*Call) expr()         {}
func (*Unary) expr()        {}
func (*Binary) expr()       {}
func (*Index) expr()        {}
func (*MemberAccess) expr() {}
