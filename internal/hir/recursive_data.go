package hir

import (
	"context"
	"fmt"
	"sort"

	"siko/internal/diag"
	"siko/internal/qname"
	"siko/internal/qtype"
	"siko/internal/trace"
)

// Box's three compiler-known operations: a recursive-data
// field boxed at construction time is wrapped with Box.new, then unwrapped
// downstream with Box.release (consuming) or Box.get (by reference).
var (
	BoxNewName     = qname.New("Box", "new")
	BoxReleaseName = qname.New("Box", "release")
	BoxGetName     = qname.New("Box", "get")
)

// boxTypeID interns Box<elem>.
func boxTypeID(types *qtype.Interner, elem qtype.ID) qtype.ID {
	return types.Intern(qtype.Named(qtype.Name{Path: []string{"Box"}}, elem))
}

func unwrapRefID(types *qtype.Interner, id qtype.ID) qtype.ID {
	t, ok := types.Lookup(id)
	if ok && t.Kind == qtype.KindReference {
		return t.Elem
	}
	return id
}

// dataGraph is the type-name dependency graph the recursive-data handler
// runs its SCC analysis over: one node per DataDef,
// one edge per field/variant-item whose declared type names another node.
type dataGraph struct {
	defs  map[string]*DataDef
	order []string
}

func newDataGraph(defsByKey map[string]*DataDef) *dataGraph {
	g := &dataGraph{defs: defsByKey}
	for k := range defsByKey {
		g.order = append(g.order, k)
	}
	sort.Strings(g.order)
	return g
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// namedTypeTargetsOf is namedTypeTargets driven by an Interner, used (instead
// of DataDef.namedTypeTargets directly) so neighbors can filter to targets
// that actually name another def in this graph.
func (g *dataGraph) namedTypeTargetsOf(types *qtype.Interner, key string) map[BoxedSite]string {
	d := g.defs[key]
	out := make(map[BoxedSite]string)
	for site, name := range d.namedTypeTargets(types) {
		if _, ok := g.defs[name.String()]; ok {
			out[site] = name.String()
		}
	}
	return out
}

// neighborsOf returns the distinct, sorted set of other node keys that key
// currently depends on. Re-evaluated against the DataDef's live field types,
// so a site boxed by an earlier SCC's substitution (setFieldType replaces the
// declared type with Box<...>, a type whose name is "Box" and is never a
// member of defs) stops appearing here without any extra bookkeeping.
func (g *dataGraph) neighborsOf(types *qtype.Interner, key string) []string {
	seen := make(map[string]struct{})
	for _, target := range g.namedTypeTargetsOf(types, key) {
		seen[target] = struct{}{}
	}
	return sortedKeys(seen)
}

// tarjanState carries the mutable bookkeeping Tarjan's algorithm needs
// across recursive visits.
type tarjanState struct {
	types   *qtype.Interner
	g       *dataGraph
	index   map[string]int
	low     map[string]int
	onStack map[string]bool
	stack   []string
	counter int
	sccs    [][]string
}

func (t *tarjanState) visit(v string) {
	t.index[v] = t.counter
	t.low[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.g.neighborsOf(t.types, v) {
		if _, seen := t.index[w]; !seen {
			t.visit(w)
			if t.low[w] < t.low[v] {
				t.low[v] = t.low[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.low[v] {
				t.low[v] = t.index[w]
			}
		}
	}

	if t.low[v] != t.index[v] {
		return
	}
	var scc []string
	for {
		n := len(t.stack) - 1
		w := t.stack[n]
		t.stack = t.stack[:n]
		t.onStack[w] = false
		scc = append(scc, w)
		if w == v {
			break
		}
	}
	t.sccs = append(t.sccs, scc)
}

// stronglyConnectedComponents computes g's SCCs via Tarjan's algorithm
//, visiting nodes in a fixed sorted order so the
// result is deterministic run to run.
func stronglyConnectedComponents(types *qtype.Interner, g *dataGraph) [][]string {
	t := &tarjanState{
		types:   types,
		g:       g,
		index:   make(map[string]int),
		low:     make(map[string]int),
		onStack: make(map[string]bool),
	}
	for _, key := range g.order {
		if _, seen := t.index[key]; !seen {
			t.visit(key)
		}
	}
	return t.sccs
}

// isRecursiveSCC reports whether scc is non-trivial: either more than one
// member, or a single member with a self-edge (a direct self-reference like
// `struct Node { next: Node }`).
func isRecursiveSCC(types *qtype.Interner, g *dataGraph, scc []string) bool {
	if len(scc) > 1 {
		return true
	}
	key := scc[0]
	for _, w := range g.neighborsOf(types, key) {
		if w == key {
			return true
		}
	}
	return false
}

// ctorInfo records which DataDef (and, for an enum, which variant) a
// synthesized constructor Function builds values of.
type ctorInfo struct {
	def     *DataDef
	variant int
}

// ctorOwner resolves fn's owning DataDef by the repo-wide naming convention:
// a struct constructor's own qualified name equals its DataDef's name; an
// enum variant constructor's name is the DataDef's name with the variant
// name appended as a final path segment.
func ctorOwner(defsByKey map[string]*DataDef, fn *Function) (ctorInfo, bool) {
	switch fn.Kind {
	case KindStructCtor:
		d, ok := defsByKey[fn.Name.Key()]
		if !ok {
			return ctorInfo{}, false
		}
		return ctorInfo{def: d}, true
	case KindVariantCtor:
		if len(fn.Name.Path) < 2 {
			return ctorInfo{}, false
		}
		owner := qname.New(fn.Name.Path[:len(fn.Name.Path)-1]...)
		d, ok := defsByKey[owner.Key()]
		if !ok {
			return ctorInfo{}, false
		}
		return ctorInfo{def: d, variant: int(fn.Variant)}, true
	default:
		return ctorInfo{}, false
	}
}

// RecursiveDataResult carries the recursive-data handler's output: the same defs boxed in place, plus the functions with every
// construction/projection site of a boxed field rewritten.
type RecursiveDataResult struct {
	Defs     []*DataDef
	Funcs    []*Function
	HadError bool
}

// BoxRecursiveData computes the type-name dependency graph over defs,
// boxes every field participating in a non-trivial SCC, reports any SCC
// that remains non-trivial afterward as a recursive-data-type error, and
// rewrites every function's body so constructor calls wrap boxed arguments
// in Box.new and projections of a boxed field unwrap with Box.release or
// Box.get.
func BoxRecursiveData(ctx context.Context, types *qtype.Interner, reporter diag.Reporter, defs []*DataDef, funcs []*Function) RecursiveDataResult {
	sp := trace.Begin(trace.FromContext(ctx), trace.ScopeStage, "hir.BoxRecursiveData", 0)
	defer sp.End("")

	defsByKey := make(map[string]*DataDef, len(defs))
	for _, d := range defs {
		defsByKey[d.Name.Key()] = d
	}
	g := newDataGraph(defsByKey)

	for _, scc := range stronglyConnectedComponents(types, g) {
		if !isRecursiveSCC(types, g, scc) {
			continue
		}
		members := make(map[string]struct{}, len(scc))
		for _, k := range scc {
			members[k] = struct{}{}
		}
		for _, key := range scc {
			d := defsByKey[key]
			for site, name := range d.namedTypeTargets(types) {
				if _, in := members[name.String()]; !in {
					continue
				}
				d.setFieldType(site, boxTypeID(types, d.FieldType(site)))
			}
		}
	}

	hadError := false
	for _, scc := range stronglyConnectedComponents(types, g) {
		if !isRecursiveSCC(types, g, scc) {
			continue
		}
		hadError = true
		for _, key := range scc {
			reportRecursiveDataType(reporter, defsByKey[key])
		}
	}

	ctorsByKey := make(map[string]ctorInfo)
	for _, fn := range funcs {
		if info, ok := ctorOwner(defsByKey, fn); ok {
			ctorsByKey[fn.Name.Key()] = info
		}
	}

	rewritten := make([]*Function, len(funcs))
	for i, fn := range funcs {
		rewritten[i] = rewriteBoxSites(types, defsByKey, ctorsByKey, fn)
	}

	return RecursiveDataResult{Defs: defs, Funcs: rewritten, HadError: hadError}
}

func reportRecursiveDataType(reporter diag.Reporter, d *DataDef) {
	if reporter == nil {
		return
	}
	msg := fmt.Sprintf("'%s' is a recursive data type that boxing could not break the cycle for", d.Name.String())
	reporter.Report(diag.RecRecursiveDataType, diag.SevError, d.Span, msg, nil, nil)
}

// transformOwnerEntry records, within a single block's linear scan, which
// DataDef/variant a Transform instruction's Dest variable was narrowed to,
// so a later FieldRef into that same variable can be attributed to the
// right enum variant's item list.
type transformOwnerEntry struct {
	def     *DataDef
	variant int
}

type boxEdit struct {
	anchor int
	// ctor-call edit: wrap these arg positions in Box.new before the call.
	wraps map[int]qtype.ID
	// field-projection edit: unwrap the Dest with Box.release/Box.get after.
	isField  bool
	boxTy    qtype.ID
	byRef    bool
	origDest Variable
}

// rewriteBoxSites rewrites fn's body so every constructor call supplying a
// boxed argument wraps it in Box.new, and every projection reading a boxed
// field unwraps it with Box.release (by value) or Box.get (by reference).
func rewriteBoxSites(types *qtype.Interner, defsByKey map[string]*DataDef, ctorsByKey map[string]ctorInfo, fn *Function) *Function {
	if fn.Body == nil {
		return fn
	}
	body := fn.Body.Clone()
	bb := NewBodyBuilder(body)

	for _, blk := range body.Blocks() {
		owners := make(map[VarName]transformOwnerEntry)
		var edits []boxEdit

		for idx, instr := range blk.Instrs {
			switch instr.Kind {
			case IFunctionCall:
				info, ok := ctorsByKey[instr.FunctionCall.Name.Key()]
				if !ok {
					continue
				}
				wraps := make(map[int]qtype.ID)
				for argIdx := range instr.FunctionCall.Args {
					site := BoxedSite{VariantIdx: info.variant, FieldIdx: argIdx}
					boxTy, isBoxed := info.def.Boxed[site]
					if !isBoxed {
						continue
					}
					wraps[argIdx] = boxTy
				}
				if len(wraps) > 0 {
					edits = append(edits, boxEdit{anchor: idx, wraps: wraps})
				}
			case ITransform:
				recvTy := unwrapRefID(types, instr.Transform.Src.Type)
				t, ok := types.Lookup(recvTy)
				if !ok || t.Kind != qtype.KindNamed {
					continue
				}
				d, ok := defsByKey[t.Name.String()]
				if !ok || d.Kind != DataEnum {
					continue
				}
				owners[instr.Transform.Dest.Name] = transformOwnerEntry{def: d, variant: int(instr.Transform.VariantIdx)}
			case IFieldRef:
				if len(instr.FieldRef.Fields) == 0 {
					continue
				}
				seg := instr.FieldRef.Fields[0]
				var def *DataDef
				site := BoxedSite{}
				if owner, ok := owners[instr.FieldRef.Recv.Name]; ok && seg.Kind == SegIndexed {
					def = owner.def
					site = BoxedSite{VariantIdx: owner.variant, FieldIdx: int(seg.Index)}
				} else if seg.Kind == SegNamed {
					recvTy := unwrapRefID(types, instr.FieldRef.Recv.Type)
					if t, ok := types.Lookup(recvTy); ok && t.Kind == qtype.KindNamed {
						if d, ok := defsByKey[t.Name.String()]; ok && d.Kind == DataStruct {
							for i, f := range d.Fields {
								if f.Name == seg.Field {
									def = d
									site = BoxedSite{FieldIdx: i}
									break
								}
							}
						}
					}
				}
				if def == nil {
					continue
				}
				boxTy, isBoxed := def.Boxed[site]
				if !isBoxed {
					continue
				}
				byRef := false
				if t, ok := types.Lookup(instr.FieldRef.Dest.Type); ok && (t.IsReference() || t.IsPtr()) {
					byRef = true
				}
				edits = append(edits, boxEdit{
					anchor: idx, isField: true, boxTy: boxTy,
					byRef: byRef, origDest: instr.FieldRef.Dest,
				})
			}
		}

		sort.SliceStable(edits, func(i, j int) bool { return edits[i].anchor > edits[j].anchor })
		for _, e := range edits {
			applyBoxEdit(bb, types, blk.ID, e)
		}
	}

	out := *fn
	out.Body = bb.Build()
	return &out
}

func applyBoxEdit(bb *BodyBuilder, types *qtype.Interner, blockID BlockID, e boxEdit) {
	cur := bb.Iterator(blockID)
	for i := 0; i < e.anchor; i++ {
		if !cur.Step() {
			return
		}
	}
	site, ok := cur.GetInstruction()
	if !ok {
		return
	}

	if e.isField {
		boxedTemp := bb.CreateTempValue(e.boxTy, site.Span)
		rewritten := site
		rewritten.FieldRef.Dest = boxedTemp
		cur.ReplaceInstruction(rewritten)
		name := BoxReleaseName
		if e.byRef {
			name = BoxGetName
		}
		// Step past the projection so the unwrap call lands after it.
		cur.Step()
		cur.AddInstruction(FunctionCallAt(site.Span, e.origDest, name, []Variable{boxedTemp}))
		return
	}

	args := append([]Variable(nil), site.FunctionCall.Args...)
	argIdxs := make([]int, 0, len(e.wraps))
	for argIdx := range e.wraps {
		argIdxs = append(argIdxs, argIdx)
	}
	sort.Ints(argIdxs)
	for _, argIdx := range argIdxs {
		boxed := bb.CreateTempValue(e.wraps[argIdx], site.Span)
		cur.AddInstruction(FunctionCallAt(site.Span, boxed, BoxNewName, []Variable{args[argIdx]}))
		args[argIdx] = boxed
	}
	site, ok = cur.GetInstruction()
	if !ok {
		return
	}
	site.FunctionCall.Args = args
	cur.ReplaceInstruction(site)
}
