// Package program implements the whole-program aggregate the HIR ownership
// pipeline runs over: the qualified-name-keyed table of functions and data
// definitions the front-end hands off, and the Pipeline that sequences the core passes per
// function.
package program

import (
	"sort"

	"siko/internal/hir"
	"siko/internal/qtype"
)

// Program is a module-rooted collection of typed functions and data
// definitions, keyed by qualified name for O(1) lookup during inlining and
// recursive-data resolution.
type Program struct {
	Types *qtype.Interner
	Funcs map[string]*hir.Function
	Defs  map[string]*hir.DataDef
}

// New returns an empty Program over the given type interner.
func New(types *qtype.Interner) *Program {
	return &Program{
		Types: types,
		Funcs: make(map[string]*hir.Function),
		Defs:  make(map[string]*hir.DataDef),
	}
}

// AddFunc registers fn under its qualified name.
func (p *Program) AddFunc(fn *hir.Function) {
	p.Funcs[fn.Name.Key()] = fn
}

// AddDef registers d under its qualified name.
func (p *Program) AddDef(d *hir.DataDef) {
	p.Defs[d.Name.Key()] = d
}

// SortedFuncNames returns every registered function's key in sorted order,
// giving pipeline runs over a Program a deterministic iteration order.
func (p *Program) SortedFuncNames() []string {
	out := make([]string, 0, len(p.Funcs))
	for k := range p.Funcs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SortedDefNames returns every registered data definition's key in sorted
// order.
func (p *Program) SortedDefNames() []string {
	out := make([]string, 0, len(p.Defs))
	for k := range p.Defs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefList returns the registered data definitions in SortedDefNames order,
// the input shape hir.BoxRecursiveData expects.
func (p *Program) DefList() []*hir.DataDef {
	names := p.SortedDefNames()
	out := make([]*hir.DataDef, len(names))
	for i, n := range names {
		out[i] = p.Defs[n]
	}
	return out
}

// FuncList returns the registered functions in SortedFuncNames order.
func (p *Program) FuncList() []*hir.Function {
	names := p.SortedFuncNames()
	out := make([]*hir.Function, len(names))
	for i, n := range names {
		out[i] = p.Funcs[n]
	}
	return out
}
