package wgsl

import (
	"strconv"
	"strings"
)

// Check resolves every name in m and enforces the module rules that do not
// need expression types: declarations, bindings, entry point interfaces,
// call graph and control flow placement. All violations are returned
// together as an ErrorList.
func Check(m *Module) error {
	c := &checker{
		mod:     m,
		decls:   make(map[string]Decl),
		enabled: make(map[string]bool),
		calls:   make(map[string][]string),
	}
	c.checkModule()
	c.errs.sort()
	return c.errs.Err()
}

// Validate parses and checks src.
func Validate(src string) (*Module, error) {
	m, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return m, Check(m)
}

type localKind uint8

const (
	localVar localKind = iota
	localLet
	localConst
	localParam
)

var localKindName = [...]string{"variable", "let", "const", "parameter"}

type local struct {
	kind localKind
	decl *VarDecl
}

// flow is an enclosing construct that break, continue and return care about.
type flow uint8

const (
	flowLoop flow = iota
	flowSwitch
	flowContinuing
)

type checker struct {
	mod     *Module
	errs    ErrorList
	decls   map[string]Decl
	enabled map[string]bool

	fn     *FuncDecl
	scopes []map[string]local
	flows  []flow
	calls  map[string][]string
}

func (c *checker) checkModule() {
	for _, d := range c.mod.Directives {
		if d.Kind != TokenEnable {
			continue
		}
		for _, name := range d.Names {
			if !extensions[name] {
				c.errs.add(d.Pos, "unknown extension %q", name)
			}
			c.enabled[name] = true
		}
	}

	for _, d := range c.mod.Decls {
		name := d.DeclName()
		if name == "" {
			continue
		}
		if prev, ok := c.decls[name]; ok {
			c.errs.add(d.Position(), "redeclaration of %q (previous declaration at %s)", name, prev.Position())
			continue
		}
		c.decls[name] = d
	}

	for _, d := range c.mod.Decls {
		switch d := d.(type) {
		case *StructDecl:
			c.checkStruct(d)
		case *AliasDecl:
			c.checkType(d.Type)
		case *VarDecl:
			c.checkGlobalVar(d)
		case *ValueDecl:
			c.checkValueDecl(d)
		case *ConstAssert:
			c.checkExpr(d.Cond)
		case *FuncDecl:
			c.checkFunction(d)
		}
	}

	c.checkTypeCycles()
	c.checkBindings()
	c.checkRecursion()
}

func (c *checker) checkStruct(s *StructDecl) {
	if len(s.Members) == 0 {
		c.errs.add(s.Pos, "struct %q has no members", s.Name)
	}
	seen := make(map[string]bool, len(s.Members))
	for _, m := range s.Members {
		if seen[m.Name] {
			c.errs.add(m.Pos, "struct %q: duplicate member name %q", s.Name, m.Name)
		}
		seen[m.Name] = true
		c.checkType(m.Type)
	}
}

// checkTypeCycles reports structs and aliases that refer to themselves.
func (c *checker) checkTypeCycles() {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int)
	var visit func(name string) bool
	visit = func(name string) bool {
		switch state[name] {
		case visiting:
			return true
		case done:
			return false
		}
		state[name] = visiting
		cyclic := false
		for _, ref := range c.typeRefs(name) {
			if visit(ref) {
				cyclic = true
				break
			}
		}
		state[name] = done
		return cyclic
	}

	for _, d := range c.mod.Decls {
		switch d.(type) {
		case *StructDecl, *AliasDecl:
			state = make(map[string]int)
			if visit(d.DeclName()) {
				c.errs.add(d.Position(), "type %q refers to itself", d.DeclName())
			}
		}
	}
}

// typeRefs returns the declared struct and alias names the type declaration
// name depends on by value.
func (c *checker) typeRefs(name string) []string {
	var types []*TypeExpr
	switch d := c.decls[name].(type) {
	case *StructDecl:
		for _, m := range d.Members {
			types = append(types, m.Type)
		}
	case *AliasDecl:
		types = append(types, d.Type)
	}

	var refs []string
	var walk func(t *TypeExpr)
	walk = func(t *TypeExpr) {
		if t == nil || t.Name == "ptr" {
			return
		}
		if c.isTypeDecl(t.Name) {
			refs = append(refs, t.Name)
		}
		for _, a := range t.Args {
			switch a := a.(type) {
			case *TypeExpr:
				walk(a)
			case *Ident:
				if c.isTypeDecl(a.Name) {
					refs = append(refs, a.Name)
				}
			}
		}
	}
	for _, t := range types {
		walk(t)
	}
	return refs
}

func (c *checker) isTypeDecl(name string) bool {
	switch c.decls[name].(type) {
	case *StructDecl, *AliasDecl:
		return true
	}
	return false
}

// checkType resolves a type expression and its template arguments.
func (c *checker) checkType(t *TypeExpr) {
	if t == nil {
		return
	}
	if d, ok := c.decls[t.Name]; ok {
		if !c.isTypeDecl(t.Name) {
			c.errs.add(t.Pos, "%q is not a type", t.Name)
			return
		}
		if len(t.Args) > 0 {
			c.errs.add(t.Pos, "type %q does not take template arguments", d.DeclName())
		}
		return
	}

	arity, ok := typeArity[t.Name]
	if !ok {
		c.errs.add(t.Pos, "unresolved type %q", t.Name)
		return
	}
	if needsF16(t.Name) && !c.enabled["f16"] {
		c.errs.add(t.Pos, "type %q requires 'enable f16'", t.Name)
	}
	if n := len(t.Args); n < arity[0] || n > arity[1] {
		if arity[1] == 0 {
			c.errs.add(t.Pos, "type %q does not take template arguments", t.Name)
		} else {
			c.errs.add(t.Pos, "type %q takes %s template arguments, got %d", t.Name, arityText(arity), n)
		}
		return
	}
	c.checkTemplateArgs(t)
}

func (c *checker) checkTemplateArgs(t *TypeExpr) {
	for _, a := range t.Args {
		switch a := a.(type) {
		case *TypeExpr:
			c.checkType(a)
		case *Ident:
			c.checkTemplateIdent(a)
		default:
			c.checkExpr(a)
		}
	}
}

// checkTemplateIdent accepts a type name, an enumerant or a module-scope
// constant.
func (c *checker) checkTemplateIdent(id *Ident) {
	if l, ok := c.lookupLocal(id.Name); ok {
		if l.kind != localConst {
			c.errs.add(id.Pos, "%q cannot be used as a template argument", id.Name)
		}
		return
	}
	if d, ok := c.decls[id.Name]; ok {
		switch d := d.(type) {
		case *StructDecl, *AliasDecl:
			return
		case *ValueDecl:
			if d.Kind != TokenLet {
				return
			}
		}
		c.errs.add(id.Pos, "%q cannot be used as a template argument", id.Name)
		return
	}
	if _, ok := typeArity[id.Name]; ok {
		c.checkType(&TypeExpr{Name: id.Name, Pos: id.Pos})
		return
	}
	if addressSpaces[id.Name] || accessModes[id.Name] || texelFormats[id.Name] {
		return
	}
	c.errs.add(id.Pos, "unresolved template argument %q", id.Name)
}

func arityText(a [2]int) string {
	if a[0] == a[1] {
		return strconv.Itoa(a[0])
	}
	return strconv.Itoa(a[0]) + " to " + strconv.Itoa(a[1])
}

func (c *checker) checkGlobalVar(v *VarDecl) {
	c.checkType(v.Type)
	if v.Init != nil {
		c.checkExpr(v.Init)
	}

	space := v.AddressSpace
	switch {
	case space == "function":
		c.errs.add(v.Pos, "module-scope variable %q cannot be in the function address space", v.Name)
	case space != "" && !addressSpaces[space]:
		c.errs.add(v.Pos, "unknown address space %q", space)
	case space == "" && (v.Type == nil || !isHandleType(v.Type.Name)):
		c.errs.add(v.Pos, "module-scope variable %q needs an address space", v.Name)
	}
	if v.Type == nil && v.Init == nil {
		c.errs.add(v.Pos, "variable %q needs a type or an initializer", v.Name)
	}
	if v.Access != "" {
		if space != "storage" {
			c.errs.add(v.Pos, "access mode is only allowed in the storage address space")
		} else if v.Access != "read" && v.Access != "read_write" {
			c.errs.add(v.Pos, "invalid access mode %q for storage variable %q", v.Access, v.Name)
		}
	}
	if v.Init != nil && (space == "uniform" || space == "storage" || space == "workgroup" || space == "") {
		c.errs.add(v.Pos, "variable %q in the %s address space cannot have an initializer", v.Name, spaceName(v))
	}

	_, hasGroup := findAttr(v.Attrs, "group")
	_, hasBinding := findAttr(v.Attrs, "binding")
	if isResource(v) {
		if !hasGroup || !hasBinding {
			c.errs.add(v.Pos, "resource variable %q requires @group and @binding", v.Name)
		}
	} else if hasGroup || hasBinding {
		c.errs.add(v.Pos, "variable %q in the %s address space cannot have @group or @binding", v.Name, spaceName(v))
	}
	for _, a := range v.Attrs {
		c.checkAttrArgs(a)
	}
}

func isResource(v *VarDecl) bool {
	switch v.AddressSpace {
	case "uniform", "storage":
		return true
	case "":
		return v.Type != nil && isHandleType(v.Type.Name)
	}
	return false
}

func spaceName(v *VarDecl) string {
	if v.AddressSpace == "" {
		return "handle"
	}
	return v.AddressSpace
}

// checkBindings reports resources sharing a @group/@binding pair.
func (c *checker) checkBindings() {
	seen := make(map[[2]int64]string)
	for _, b := range c.mod.Bindings() {
		key := [2]int64{b.Group, b.Binding}
		if prev, ok := seen[key]; ok {
			c.errs.add(b.Pos, "global variable %q: duplicate binding @group(%d) @binding(%d) (also used by %q)",
				b.Name, b.Group, b.Binding, prev)
			continue
		}
		seen[key] = b.Name
	}
}

func (c *checker) checkValueDecl(v *ValueDecl) {
	c.checkType(v.Type)
	if v.Init != nil {
		c.checkExpr(v.Init)
	}
	if v.Kind == TokenOverride && v.Type == nil && v.Init == nil {
		c.errs.add(v.Pos, "override %q needs a type or an initializer", v.Name)
	}
	for _, a := range v.Attrs {
		c.checkAttrArgs(a)
	}
}

func (c *checker) checkAttrArgs(a Attribute) {
	if a.Name == "builtin" || a.Name == "interpolate" || a.Name == "diagnostic" {
		return
	}
	for _, arg := range a.Args {
		c.checkExpr(arg)
	}
}

func (c *checker) checkFunction(fn *FuncDecl) {
	c.fn = fn
	c.scopes = []map[string]local{make(map[string]local)}
	c.flows = nil
	defer func() { c.fn, c.scopes = nil, nil }()

	for _, p := range fn.Params {
		c.checkType(p.Type)
		c.declare(p.Name, p.Pos, local{kind: localParam})
	}
	c.checkType(fn.Result)
	c.checkEntryPoint(fn)

	c.checkStmts(fn.Body.Stmts)
	if fn.Result != nil && !terminates(fn.Body.Stmts) {
		c.errs.add(fn.Pos, "function %q must end with a return statement", fn.Name)
	}
}

// stage returns the pipeline stage of fn, or "" for a plain function.
func stage(fn *FuncDecl) string {
	for _, a := range fn.Attrs {
		if stages[a.Name] {
			return a.Name
		}
	}
	return ""
}

func (c *checker) checkEntryPoint(fn *FuncDecl) {
	var found []string
	for _, a := range fn.Attrs {
		if stages[a.Name] {
			found = append(found, a.Name)
		}
	}
	if len(found) > 1 {
		c.errs.add(fn.Pos, "function %q has more than one stage attribute: %s", fn.Name, strings.Join(found, ", "))
	}

	wg, hasWG := findAttr(fn.Attrs, "workgroup_size")
	st := stage(fn)
	if st == "" {
		if hasWG {
			c.errs.add(wg.Pos, "@workgroup_size is only allowed on compute entry points")
		}
		return
	}

	switch st {
	case "compute":
		switch {
		case !hasWG:
			c.errs.add(fn.Pos, "entry point %q (@compute): requires @workgroup_size", fn.Name)
		case len(wg.Args) < 1 || len(wg.Args) > 3:
			c.errs.add(wg.Pos, "entry point %q (@compute): workgroup size takes 1 to 3 arguments", fn.Name)
		default:
			for _, arg := range wg.Args {
				c.checkExpr(arg)
				if n, ok := c.mod.constInt(arg); ok && n <= 0 {
					c.errs.add(wg.Pos, "entry point %q (@compute): workgroup size must be non-zero", fn.Name)
				}
			}
		}
		if fn.Result != nil {
			c.errs.add(fn.Pos, "entry point %q (@compute): cannot return a value", fn.Name)
		}
	case "vertex":
		switch {
		case hasWG:
			c.errs.add(wg.Pos, "@workgroup_size is only allowed on compute entry points")
		case fn.Result == nil:
			c.errs.add(fn.Pos, "entry point %q (@vertex): must have a return value", fn.Name)
		case !c.returnsPosition(fn):
			c.errs.add(fn.Pos, "entry point %q (@vertex): must return @builtin(position)", fn.Name)
		}
	case "fragment":
		if hasWG {
			c.errs.add(wg.Pos, "@workgroup_size is only allowed on compute entry points")
		}
	}

	for _, p := range fn.Params {
		if !hasIOAttr(p.Attrs) && c.structOf(p.Type) == nil {
			c.errs.add(p.Pos, "entry point %q: parameter %q needs @builtin or @location", fn.Name, p.Name)
		}
	}
	if fn.Result != nil && st != "compute" && !hasIOAttr(fn.ResultAttrs) && c.structOf(fn.Result) == nil {
		c.errs.add(fn.Pos, "entry point %q: result needs @builtin or @location", fn.Name)
	}
}

func (c *checker) returnsPosition(fn *FuncDecl) bool {
	if isPositionBuiltin(fn.ResultAttrs) {
		return true
	}
	if s := c.structOf(fn.Result); s != nil {
		for _, m := range s.Members {
			if isPositionBuiltin(m.Attrs) {
				return true
			}
		}
	}
	return false
}

// structOf follows aliases from t to a struct declaration.
func (c *checker) structOf(t *TypeExpr) *StructDecl {
	for seen := 0; t != nil && seen < len(c.decls); seen++ {
		switch d := c.decls[t.Name].(type) {
		case *StructDecl:
			return d
		case *AliasDecl:
			t = d.Type
		default:
			return nil
		}
	}
	return nil
}

func isPositionBuiltin(attrs []Attribute) bool {
	a, ok := findAttr(attrs, "builtin")
	return ok && len(a.Args) == 1 && exprName(a.Args[0]) == "position"
}

func hasIOAttr(attrs []Attribute) bool {
	_, b := findAttr(attrs, "builtin")
	_, l := findAttr(attrs, "location")
	return b || l
}

func findAttr(attrs []Attribute, name string) (Attribute, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// terminates reports whether control cannot fall off the end of stmts.
func terminates(stmts []Stmt) bool {
	if len(stmts) == 0 {
		return false
	}
	switch s := stmts[len(stmts)-1].(type) {
	case *Return, *Discard:
		return true
	case *Block:
		return terminates(s.Stmts)
	case *If:
		if s.Else == nil || !terminates(s.Then.Stmts) {
			return false
		}
		return terminates([]Stmt{s.Else})
	case *Switch:
		hasDefault := false
		for _, cl := range s.Clauses {
			hasDefault = hasDefault || cl.IsDefault()
			if !terminates(cl.Body.Stmts) {
				return false
			}
		}
		return hasDefault
	case *Loop:
		return s.BreakIf == nil && !breaks(s.Body.Stmts)
	}
	return false
}

// breaks reports whether stmts contain a break that leaves the enclosing
// loop.
func breaks(stmts []Stmt) bool {
	for _, s := range stmts {
		switch s := s.(type) {
		case *Break:
			return true
		case *Block:
			if breaks(s.Stmts) {
				return true
			}
		case *If:
			if breaks(s.Then.Stmts) || (s.Else != nil && breaks([]Stmt{s.Else})) {
				return true
			}
		}
	}
	return false
}

func (c *checker) checkStmts(stmts []Stmt) {
	for _, s := range stmts {
		c.checkStmt(s)
	}
}

func (c *checker) checkStmt(s Stmt) {
	switch s := s.(type) {
	case *Block:
		c.push()
		c.checkStmts(s.Stmts)
		c.pop()

	case *VarDecl:
		c.checkType(s.Type)
		if s.Init != nil {
			c.checkExpr(s.Init)
		}
		if s.AddressSpace != "" && s.AddressSpace != "function" {
			c.errs.add(s.Pos, "function-scope variable %q cannot be in the %s address space", s.Name, s.AddressSpace)
		}
		if s.Type == nil && s.Init == nil {
			c.errs.add(s.Pos, "variable %q needs a type or an initializer", s.Name)
		}
		c.declare(s.Name, s.Pos, local{kind: localVar, decl: s})

	case *ValueDecl:
		c.checkType(s.Type)
		if s.Init != nil {
			c.checkExpr(s.Init)
		}
		kind := localLet
		switch s.Kind {
		case TokenConst:
			kind = localConst
		case TokenOverride:
			c.errs.add(s.Pos, "override declarations are only allowed at module scope")
		}
		c.declare(s.Name, s.Pos, local{kind: kind})

	case *ConstAssert:
		c.checkExpr(s.Cond)

	case *Return:
		if c.inFlow(flowContinuing) {
			c.errs.add(s.Pos, "return in continuing block")
		}
		switch {
		case s.Value != nil && c.fn.Result == nil:
			c.errs.add(s.Pos, "function %q does not return a value", c.fn.Name)
		case s.Value == nil && c.fn.Result != nil:
			c.errs.add(s.Pos, "function %q must return a value", c.fn.Name)
		}
		if s.Value != nil {
			c.checkExpr(s.Value)
		}

	case *Discard:
		if c.inFlow(flowContinuing) {
			c.errs.add(s.Pos, "discard in continuing block")
		}

	case *If:
		c.checkExpr(s.Cond)
		c.checkStmt(s.Then)
		if s.Else != nil {
			c.checkStmt(s.Else)
		}

	case *Switch:
		c.checkExpr(s.Selector)
		defaults := 0
		for _, cl := range s.Clauses {
			for _, sel := range cl.Selectors {
				if sel == nil {
					defaults++
				} else {
					c.checkExpr(sel)
				}
			}
			c.flows = append(c.flows, flowSwitch)
			c.checkStmt(cl.Body)
			c.flows = c.flows[:len(c.flows)-1]
		}
		switch {
		case defaults > 1:
			c.errs.add(s.Pos, "switch has multiple default cases")
		case defaults == 0:
			c.errs.add(s.Pos, "switch missing default case")
		}

	case *Loop:
		c.push()
		c.flows = append(c.flows, flowLoop)
		c.checkStmts(s.Body.Stmts)
		if s.Continuing != nil {
			c.push()
			c.flows = append(c.flows, flowContinuing)
			c.checkStmts(s.Continuing.Stmts)
			if s.BreakIf != nil {
				c.checkExpr(s.BreakIf)
			}
			c.flows = c.flows[:len(c.flows)-1]
			c.pop()
		}
		c.flows = c.flows[:len(c.flows)-1]
		c.pop()

	case *For:
		c.push()
		if s.Init != nil {
			c.checkStmt(s.Init)
		}
		if s.Cond != nil {
			c.checkExpr(s.Cond)
		}
		if s.Update != nil {
			c.checkStmt(s.Update)
		}
		c.flows = append(c.flows, flowLoop)
		c.checkStmt(s.Body)
		c.flows = c.flows[:len(c.flows)-1]
		c.pop()

	case *While:
		c.checkExpr(s.Cond)
		c.flows = append(c.flows, flowLoop)
		c.checkStmt(s.Body)
		c.flows = c.flows[:len(c.flows)-1]

	case *Break:
		switch c.innermost(flowLoop, flowSwitch) {
		case flowContinuing:
			c.errs.add(s.Pos, "break in continuing block")
		case flowLoop, flowSwitch:
		default:
			c.errs.add(s.Pos, "break outside of loop")
		}

	case *Continue:
		switch c.innermost(flowLoop) {
		case flowContinuing:
			c.errs.add(s.Pos, "continue in continuing block")
		case flowLoop:
		default:
			c.errs.add(s.Pos, "continue outside of loop")
		}

	case *Assign:
		c.checkExpr(s.RHS)
		if s.LHS != nil {
			c.checkExpr(s.LHS)
			c.checkAssignable(s.LHS)
		}

	case *IncDec:
		c.checkExpr(s.X)
		c.checkAssignable(s.X)

	case *CallStmt:
		c.checkExpr(s.Call)
	}
}

// innermost walks the flow stack outwards and returns the first of targets
// or flowContinuing found, or a value outside both when there is none.
func (c *checker) innermost(targets ...flow) flow {
	for i := len(c.flows) - 1; i >= 0; i-- {
		f := c.flows[i]
		if f == flowContinuing {
			return f
		}
		for _, t := range targets {
			if f == t {
				return f
			}
		}
	}
	return flow(255)
}

func (c *checker) inFlow(f flow) bool {
	for _, g := range c.flows {
		if g == f {
			return true
		}
	}
	return false
}

// checkAssignable reports writes through a let, const, parameter or
// read-only module variable.
func (c *checker) checkAssignable(e Expr) {
	root := e
	for {
		switch x := root.(type) {
		case *MemberAccess:
			root = x.X
			continue
		case *Index:
			root = x.X
			continue
		}
		break
	}
	id, ok := root.(*Ident)
	if !ok {
		return
	}
	if l, ok := c.lookupLocal(id.Name); ok {
		if l.kind != localVar {
			c.errs.add(id.Pos, "cannot assign to %s %q", localKindName[l.kind], id.Name)
		}
		return
	}
	switch d := c.decls[id.Name].(type) {
	case *ValueDecl:
		c.errs.add(id.Pos, "cannot assign to %s %q", d.Kind, id.Name)
	case *VarDecl:
		switch {
		case d.AddressSpace == "uniform":
			c.errs.add(id.Pos, "cannot assign to uniform variable %q", id.Name)
		case d.AddressSpace == "storage" && d.Access != "read_write":
			c.errs.add(id.Pos, "cannot assign to read-only storage variable %q", id.Name)
		case d.AddressSpace == "":
			c.errs.add(id.Pos, "cannot assign to handle variable %q", id.Name)
		}
	}
}

func (c *checker) checkExpr(e Expr) {
	switch e := e.(type) {
	case *Ident:
		c.checkIdent(e)
	case *Literal:
		if e.Kind == TokenFloat && strings.HasSuffix(e.Text, "h") && !c.enabled["f16"] {
			c.errs.add(e.Pos, "f16 literal %s requires 'enable f16'", e.Text)
		}
	case *TypeExpr:
		c.errs.add(e.Pos, "type %q used as a value", e.Name)
	case *Call:
		c.checkCall(e)
	case *Unary:
		c.checkExpr(e.X)
	case *Binary:
		c.checkExpr(e.X)
		c.checkExpr(e.Y)
	case *Index:
		c.checkExpr(e.X)
		c.checkExpr(e.Index)
	case *MemberAccess:
		c.checkExpr(e.X)
	}
}

func (c *checker) checkIdent(id *Ident) {
	if _, ok := c.lookupLocal(id.Name); ok {
		return
	}
	switch c.decls[id.Name].(type) {
	case *VarDecl, *ValueDecl:
		if c.fn == nil {
			if v, ok := c.decls[id.Name].(*VarDecl); ok {
				c.errs.add(id.Pos, "variable %q cannot be used in a module-scope initializer", v.Name)
			}
		}
		return
	case *FuncDecl:
		c.errs.add(id.Pos, "function %q used as a value", id.Name)
		return
	case *StructDecl, *AliasDecl:
		c.errs.add(id.Pos, "type %q used as a value", id.Name)
		return
	}
	if _, ok := typeArity[id.Name]; ok {
		c.errs.add(id.Pos, "type %q used as a value", id.Name)
		return
	}
	c.errs.add(id.Pos, "unresolved identifier %q", id.Name)
}

func (c *checker) checkCall(call *Call) {
	for _, a := range call.Args {
		c.checkExpr(a)
	}
	name := call.Callee.Name

	if _, ok := c.lookupLocal(name); ok {
		c.errs.add(call.Pos, "%q is not a function", name)
		return
	}
	switch d := c.decls[name].(type) {
	case *FuncDecl:
		if len(call.Args) != len(d.Params) {
			c.errs.add(call.Pos, "function %q takes %d arguments, got %d", name, len(d.Params), len(call.Args))
		}
		if stage(d) != "" {
			c.errs.add(call.Pos, "function %q is an entry point and cannot be called", name)
		}
		if c.fn != nil {
			c.calls[c.fn.Name] = append(c.calls[c.fn.Name], name)
		}
		return
	case *StructDecl, *AliasDecl:
		c.checkType(call.Callee)
		return
	case nil:
	default:
		c.errs.add(call.Pos, "%q is not a function", name)
		return
	}

	if name == "bitcast" {
		if len(call.Callee.Args) != 1 {
			c.errs.add(call.Pos, "bitcast takes 1 template argument")
		}
		c.checkTemplateArgs(call.Callee)
		return
	}
	if builtinFuncs[name] {
		return
	}
	if arity, ok := typeArity[name]; ok {
		if len(call.Callee.Args) == 0 && arity[0] > 0 {
			// vec4(...) and array(...) infer their element type.
			if needsF16(name) && !c.enabled["f16"] {
				c.errs.add(call.Pos, "type %q requires 'enable f16'", name)
			}
			return
		}
		c.checkType(call.Callee)
		return
	}
	c.errs.add(call.Pos, "unresolved function %q", name)
}

// checkRecursion reports functions that can reach themselves.
func (c *checker) checkRecursion() {
	reported := make(map[string]bool)
	for _, fn := range c.mod.Functions() {
		seen := make(map[string]bool)
		stack := append([]string(nil), c.calls[fn.Name]...)
		for len(stack) > 0 {
			name := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if name == fn.Name {
				if !reported[fn.Name] {
					c.errs.add(fn.Pos, "function %q is recursive", fn.Name)
					reported[fn.Name] = true
				}
				break
			}
			if seen[name] {
				continue
			}
			seen[name] = true
			stack = append(stack, c.calls[name]...)
		}
	}
}

func (c *checker) push() {
	c.scopes = append(c.scopes, make(map[string]local))
}

func (c *checker) pop() {
	c.scopes = c.scopes[:len(c.scopes)-1]
}

func (c *checker) declare(name string, pos Pos, l local) {
	scope := c.scopes[len(c.scopes)-1]
	if _, ok := scope[name]; ok {
		c.errs.add(pos, "redeclaration of %q", name)
		return
	}
	scope[name] = l
}

func (c *checker) lookupLocal(name string) (local, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if l, ok := c.scopes[i][name]; ok {
			return l, true
		}
	}
	return local{}, false
}
