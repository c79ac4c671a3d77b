package hir

import (
	"context"
	"fmt"
	"sort"

	"siko/internal/diag"
	"siko/internal/oracle"
	"siko/internal/qname"
	"siko/internal/qtype"
	"siko/internal/trace"
)

// pathType returns the type a path's final projection carries: the last
// segment's type if the path has any, otherwise the root variable's own
// type.
func pathType(p Path) qtype.ID {
	if len(p.Segments) == 0 {
		return p.Root.Type
	}
	return p.Segments[len(p.Segments)-1].Type
}

// worklistEntry is one (blockId, incoming-context) pair queued by the
// fixpoint driver.
type worklistEntry struct {
	block BlockID
	ctx   Context
}

// ctxKey renders a Context into a comparable string so the worklist can
// dedupe by structural equality without requiring Context itself to be a
// map key.
func ctxKey(block BlockID, ctx Context) string {
	roots := make([]VarName, 0, len(ctx.Series))
	for r := range ctx.Series {
		roots = append(roots, r)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].String() < roots[j].String() })
	s := fmt.Sprintf("bb%d|", block)
	for _, r := range roots {
		series := ctx.Series[r]
		s += r.String() + ":"
		for _, e := range series.Events {
			s += fmt.Sprintf("[%d,%d,%s]", e.Kind, e.Usage, e.Path.UserPath())
		}
		s += ";"
	}
	return s
}

// DropCheckResult carries the checker's output: the function with flag
// writes and implicit clones materialized, plus whether any use-after-move
// diagnostic survived (callers exit non-zero if so).
type DropCheckResult struct {
	Function *Function
	HadError bool
}

// editKind tags which case of a blockEdit is populated.
type editKind uint8

const (
	editFlag editKind = iota
	editClone
)

// blockEdit is one pending mutation to a block, anchored at the original
// (pre-edit) instruction index it was discovered at. Applying every block's
// edits from the highest anchor down keeps earlier anchors valid, since
// both edit kinds only ever insert at-or-after their own anchor.
type blockEdit struct {
	anchor    int
	kind      editKind
	flag      FlagUpdate
	clone     Collision
	cloneType qtype.ID
	cloneName qname.QualifiedName
}

// CheckDrops runs the drop checker's fixpoint worklist over fn's body
//, materializes flag-liveness writes and DropPath
// placeholders inline as it goes, resolves implicit clones for collisions
// whose type satisfies Copy, and reports the rest as use-after-move
// diagnostics through reporter.
func CheckDrops(ctx context.Context, types *qtype.Interner, instances oracle.InstanceResolver, impls oracle.ImplementationResolver, reporter diag.Reporter, fn *Function) DropCheckResult {
	sp := trace.Begin(trace.FromContext(ctx), trace.ScopeStage, "hir.CheckDrops", 0)
	defer sp.WithExtra("func", fn.Name.String()).End("")

	if fn.Body == nil {
		return DropCheckResult{Function: fn}
	}

	body := fn.Body.Clone()
	bb := NewBodyBuilder(body)

	visited := make(map[string]struct{})
	queue := []worklistEntry{{block: EntryBlock, ctx: NewContext()}}

	// flagsByBlock records, for each block, the FlagUpdate directives seen
	// the first time it was processed; these depend only on the block's
	// own instructions (not the incoming series), so a block visited again
	// under a distinct deduped context yields the same local flag writes.
	flagsByBlock := make(map[BlockID][]FlagUpdate)
	seenCollisions := make(map[string]struct{})
	var allCollisions []Collision

	for len(queue) > 0 {
		// LIFO... ordering
		// is therefore irrelevant to correctness".
		entry := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		key := ctxKey(entry.block, entry.ctx)
		if _, ok := visited[key]; ok {
			continue
		}
		visited[key] = struct{}{}

		blk := body.MustBlock(entry.block)
		outCtx, targets, collisions, flagUpdates := ProcessBlock(types, blk, entry.ctx)
		// A join block re-processed under a second context that also carries
		// a prior move reports the same site again; keep one collision per
		// site so the clone rewrite below never splices a site twice.
		for _, col := range collisions {
			key := fmt.Sprintf("%d|%d|%d|%s", col.Kind, col.SiteBlock, col.SiteIndex, col.Path.UserPath())
			if _, dup := seenCollisions[key]; dup {
				continue
			}
			seenCollisions[key] = struct{}{}
			allCollisions = append(allCollisions, col)
		}
		if _, ok := flagsByBlock[entry.block]; !ok {
			flagsByBlock[entry.block] = flagUpdates
		}

		compressed := outCtx.Compress()
		for _, t := range targets {
			queue = append(queue, worklistEntry{block: t, ctx: compressed.Clone()})
		}
	}

	// Decide implicit-clone eligibility before
	// touching the body: a pure query against the oracle, so the flag-
	// cancellation below and the edit application further down both see a
	// final, stable classification.
	var surviving []Collision
	type cloneDecision struct {
		col  Collision
		ty   qtype.ID
		name qname.QualifiedName
	}
	var clones []cloneDecision
	for _, col := range allCollisions {
		if col.Kind != CollideMove {
			surviving = append(surviving, col)
			continue
		}
		ty := pathType(col.Path)
		if !instances.IsCopy(types, ty) {
			surviving = append(surviving, col)
			continue
		}
		name, ok := impls.ResolveClone(types, ty)
		if !ok {
			surviving = append(surviving, col)
			continue
		}
		clones = append(clones, cloneDecision{col: col, ty: ty, name: name})
	}

	// A resolved clone means the site no longer performs a real move, so
	// cancel the matching "set flag false" directive recorded for the same
	// (block, index, path) — the value is still alive afterward.
	for _, cd := range clones {
		updates := flagsByBlock[cd.col.SiteBlock]
		for i, u := range updates {
			if u.AfterIndex == cd.col.SiteIndex && !u.Live && u.Path.Same(cd.col.Path) {
				flagsByBlock[cd.col.SiteBlock] = append(updates[:i], updates[i+1:]...)
				break
			}
		}
	}

	edits := make(map[BlockID][]blockEdit)
	for block, updates := range flagsByBlock {
		for _, u := range updates {
			edits[block] = append(edits[block], blockEdit{anchor: u.AfterIndex, kind: editFlag, flag: u})
		}
	}
	for _, cd := range clones {
		edits[cd.col.SiteBlock] = append(edits[cd.col.SiteBlock], blockEdit{
			anchor: cd.col.SiteIndex, kind: editClone, clone: cd.col, cloneType: cd.ty, cloneName: cd.name,
		})
	}

	for block, list := range edits {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].anchor != list[j].anchor {
				return list[i].anchor > list[j].anchor
			}
			// At the same anchor, splice the flag write first: it lands at
			// anchor+1, so the clone rewrite's inserts ahead of the anchor
			// shift it together with the site and it stays right after the
			// rewritten instruction.
			return list[i].kind == editFlag && list[j].kind != editFlag
		})
		for _, e := range list {
			switch e.kind {
			case editFlag:
				spliceDropPath(bb, block, e.flag)
			case editClone:
				rewriteAsClone(bb, types, e.clone, e.cloneType, e.cloneName)
			}
		}
	}

	hadError := false
	for _, col := range surviving {
		reportCollision(reporter, col)
		hadError = true
	}

	out := *fn
	out.Body = bb.Build()
	return DropCheckResult{Function: &out, HadError: hadError}
}

// spliceDropPath inserts a DropPath placeholder immediately after the
// instruction at u.AfterIndex in blockID.
func spliceDropPath(bb *BodyBuilder, blockID BlockID, u FlagUpdate) {
	cur := bb.Iterator(blockID)
	for i := 0; i <= u.AfterIndex; i++ {
		if !cur.Step() {
			return
		}
	}
	cur.AddInstruction(DropPathAt(u.Path.Span, u.Path, u.Live))
}

// rewriteAsClone replaces the operand at col's site with a reference-then-
// clone sequence: a Ref of the path's root, a chain of FieldRefs walking
// the path's segments through that reference, and a call to cloneName
// producing a fresh value that stands in for the original moved operand
//.
func rewriteAsClone(bb *BodyBuilder, types *qtype.Interner, col Collision, ty qtype.ID, cloneName qname.QualifiedName) {
	cur := bb.Iterator(col.SiteBlock)
	for i := 0; i < col.SiteIndex; i++ {
		if !cur.Step() {
			return
		}
	}
	if _, ok := cur.GetInstruction(); !ok {
		return
	}

	span := col.Path.Span
	refTy := types.Intern(qtype.ReferenceTo(col.Path.Root.Type, false))
	refVar := bb.CreateTempValue(refTy, span)
	cur.AddInstruction(RefAt(span, refVar, col.Path.Root))

	through := refVar
	for _, seg := range col.Path.Segments {
		proj := bb.CreateTempValue(seg.Type, span)
		cur.AddInstruction(FieldRefAt(span, proj, through, []PathSegment{seg}))
		through = proj
	}

	cloned := bb.CreateTempValue(ty, span)
	cur.AddInstruction(FunctionCallAt(span, cloned, cloneName, []Variable{through}))

	// cur now sits right after the splice, at the original site (shifted
	// forward by 2+len(segments) instructions); GetInstruction peeks it
	// without needing to re-walk from the block start.
	site, ok := cur.GetInstruction()
	if !ok {
		return
	}
	rewritten := MapVars(site, func(v Variable) Variable {
		if v.SameAs(col.Operand) {
			return cloned
		}
		return v
	})
	cur.ReplaceInstruction(rewritten)
}

// reportCollision emits the use-after-move diagnostic for a surviving
// collision, carrying both the current use's location and the prior
// move's location.
func reportCollision(reporter diag.Reporter, col Collision) {
	if reporter == nil {
		return
	}
	code := diag.DropUseAfterMove
	msg := fmt.Sprintf("value '%s' used here after it was moved", col.Path.UserPath())
	if col.Kind == CollideAssignToMoved {
		code = diag.DropAssignToMoved
		msg = fmt.Sprintf("assignment to '%s' writes into a value already moved away", col.Path.UserPath())
	}
	reporter.Report(code, diag.SevError, col.Path.Span, msg,
		[]diag.Note{{Span: col.Previous.Span, Msg: fmt.Sprintf("'%s' was moved here", col.Previous.UserPath())}},
		nil)
}
