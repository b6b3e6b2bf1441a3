package wgsl

import (
	"strconv"
	"strings"
)

// EntryPoint is a function carrying a pipeline stage attribute.
type EntryPoint struct {
	Name  string
	Stage string // "vertex", "fragment" or "compute"
	// WorkgroupSize is the compute workgroup size; a dimension is 0 when
	// it is not a constant the module spells out.
	WorkgroupSize [3]int64
	Pos           Pos
}

// EntryPoints returns the entry points of m in source order.
func (m *Module) EntryPoints() []EntryPoint {
	var eps []EntryPoint
	for _, fn := range m.Functions() {
		st := stage(fn)
		if st == "" {
			continue
		}
		ep := EntryPoint{Name: fn.Name, Stage: st, Pos: fn.Pos}
		if wg, ok := findAttr(fn.Attrs, "workgroup_size"); ok && st == "compute" {
			ep.WorkgroupSize = [3]int64{1, 1, 1}
			for i, arg := range wg.Args {
				if i >= 3 {
					break
				}
				n, _ := m.constInt(arg)
				ep.WorkgroupSize[i] = n
			}
		}
		eps = append(eps, ep)
	}
	return eps
}

// Binding is a resource variable with constant @group and @binding.
type Binding struct {
	Group   int64
	Binding int64
	Name    string
	Pos     Pos
}

// Bindings returns the resource bindings of m whose group and binding
// evaluate to integer constants.
func (m *Module) Bindings() []Binding {
	var out []Binding
	for _, v := range m.Vars() {
		if !isResource(v) {
			continue
		}
		g, gok := findAttr(v.Attrs, "group")
		b, bok := findAttr(v.Attrs, "binding")
		if !gok || !bok || len(g.Args) != 1 || len(b.Args) != 1 {
			continue
		}
		group, gok := m.constInt(g.Args[0])
		binding, bok := m.constInt(b.Args[0])
		if !gok || !bok {
			continue
		}
		out = append(out, Binding{Group: group, Binding: binding, Name: v.Name, Pos: v.Pos})
	}
	return out
}

// constInt evaluates integer literals, negation and references to
// module-scope constants.
func (m *Module) constInt(e Expr) (int64, bool) {
	return m.evalInt(e, 0)
}

func (m *Module) evalInt(e Expr, depth int) (int64, bool) {
	if depth > 16 {
		return 0, false
	}
	switch e := e.(type) {
	case *Literal:
		if e.Kind != TokenInt {
			return 0, false
		}
		n, err := strconv.ParseInt(strings.TrimRight(e.Text, "iu"), 0, 64)
		return n, err == nil
	case *Unary:
		if e.Op != TokenMinus {
			return 0, false
		}
		n, ok := m.evalInt(e.X, depth+1)
		return -n, ok
	case *Ident:
		for _, d := range m.Decls {
			if v, ok := d.(*ValueDecl); ok && v.Name == e.Name && v.Kind == TokenConst {
				return m.evalInt(v.Init, depth+1)
			}
		}
	}
	return 0, false
}
