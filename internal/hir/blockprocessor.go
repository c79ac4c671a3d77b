package hir

import "siko/internal/qtype"

// Context is the per-root event-series state threaded between blocks by the
// drop checker's worklist. ReceiverPaths memoizes the full
// dotted path a Temp-named FieldRef destination stands for, so a
// downstream FieldRef chained off of it resolves to the complete path
// instead of restarting at the temp. Every Temp destination is memoized;
// how many times the temp is used is not checked.
type Context struct {
	Series        map[VarName]*EventSeries
	ReceiverPaths map[VarName]Path
}

// NewContext returns an empty context, the worklist's starting state for
// the entry block.
func NewContext() Context {
	return Context{
		Series:        make(map[VarName]*EventSeries),
		ReceiverPaths: make(map[VarName]Path),
	}
}

// Clone returns an independent deep copy, used when forking a context
// across branch targets.
func (c Context) Clone() Context {
	out := NewContext()
	for k, v := range c.Series {
		cp := v.Clone()
		out.Series[k] = &cp
	}
	for k, v := range c.ReceiverPaths {
		out.ReceiverPaths[k] = v
	}
	return out
}

// Compress returns a copy of c with every per-root series compressed
//.
func (c Context) Compress() Context {
	out := NewContext()
	for k, v := range c.Series {
		cp := v.Compress()
		out.Series[k] = &cp
	}
	for k, v := range c.ReceiverPaths {
		out.ReceiverPaths[k] = v
	}
	return out
}

func (c Context) seriesFor(root VarName) *EventSeries {
	s, ok := c.Series[root]
	if !ok {
		s = &EventSeries{}
		c.Series[root] = s
	}
	return s
}

// FlagUpdate is a directive the drop checker must materialize as a
// DropPath placeholder at the given position: Path's drop flag must be set
// to Live immediately after instruction AfterIndex.
type FlagUpdate struct {
	AfterIndex int
	Path       Path
	Live       bool
}

// resolvedPath returns the Path a variable currently stands for: either the
// memoized receiver path from an earlier FieldRef chain, or the variable's
// own root-only path.
func resolvedPath(ctx Context, v Variable) Path {
	if p, ok := ctx.ReceiverPaths[v.Name]; ok {
		return p
	}
	return RootOnly(v)
}

// ProcessBlock reduces blk to its event stream, starting from incoming
// context ctx. It returns the outgoing context, the block's
// jump targets, any move collisions detected while processing blk (each
// move is checked against every earlier event in its root's series,
// including the events ctx carries in from predecessor blocks), and the
// flag-update directives the drop checker must splice back into the block.
func ProcessBlock(types *qtype.Interner, blk *Block, ctx Context) (Context, []BlockID, []Collision, []FlagUpdate) {
	out := ctx.Clone()
	var collisions []Collision
	var flagUpdates []FlagUpdate

	// Move if source type is neither Reference nor Ptr, otherwise Ref
	// — purely structural, independent of the trait oracle.
	useKind := func(ty qtype.ID) UsageKind {
		t, ok := types.Lookup(ty)
		if ok && (t.IsReference() || t.IsPtr()) {
			return UseRef
		}
		return UseMove
	}

	recordUsagePath := func(path Path, operand Variable, kind UsageKind, idx int) {
		series := out.seriesFor(path.Root.Name)
		if kind == UseMove {
			if col, ok := detectMoveCollision(*series, path, len(series.Events)); ok {
				col.Operand = operand
				col.SiteBlock = blk.ID
				col.SiteIndex = idx
				collisions = append(collisions, col)
			}
		}
		series.Append(UsageEvent(path, kind))
		if kind == UseMove && !path.Root.Name.IsDropFlag() {
			flagUpdates = append(flagUpdates, FlagUpdate{AfterIndex: idx, Path: path, Live: false})
		}
	}

	recordAssignPath := func(path Path, operand Variable, idx int) {
		series := out.seriesFor(path.Root.Name)
		if len(path.Segments) > 0 {
			if col, ok := detectAssignToMovedCollision(*series, path); ok {
				col.Operand = operand
				col.SiteBlock = blk.ID
				col.SiteIndex = idx
				collisions = append(collisions, col)
			}
		}
		series.Append(AssignEvent(path))
		if !path.Root.Name.IsDropFlag() {
			flagUpdates = append(flagUpdates, FlagUpdate{AfterIndex: idx, Path: path, Live: true})
		}
	}

	recordUsage := func(v Variable, kind UsageKind, idx int) {
		recordUsagePath(resolvedPath(out, v), v, kind, idx)
	}

	recordAssign := func(v Variable, idx int) {
		recordAssignPath(resolvedPath(out, v), v, idx)
	}

	var targets []BlockID

	for idx, instr := range blk.Instrs {
		switch instr.Kind {
		case IDeclareVar:
			// no event; liveness for drop-list computation is the
			// declaration store's job (dropstore.go), driven off the
			// function's DeclareVar instructions directly.
		case IAssign:
			recordUsage(instr.Assign.Src, useKind(instr.Assign.Src.Type), idx)
			recordAssign(instr.Assign.Dest, idx)
		case IFunctionCall, IMethodCall, IDynamicFunctionCall:
			for _, a := range instr.FunctionCall.Args {
				recordUsage(a, useKind(a.Type), idx)
			}
			recordAssign(instr.FunctionCall.Dest, idx)
		case ITuple:
			for _, a := range instr.Tuple.Args {
				recordUsage(a, useKind(a.Type), idx)
			}
			recordAssign(instr.Tuple.Dest, idx)
		case ITransform:
			recordUsage(instr.Transform.Src, useKind(instr.Transform.Src.Type), idx)
			recordAssign(instr.Transform.Dest, idx)
		case IFieldRef:
			base := resolvedPath(out, instr.FieldRef.Recv)
			span := instr.Span
			extended := base
			for _, seg := range instr.FieldRef.Fields {
				extended = extended.Extend(seg, span)
			}
			if isReceiverRoleTemp(instr.FieldRef.Dest) {
				out.ReceiverPaths[instr.FieldRef.Dest.Name] = extended
				continue
			}
			kind := useKind(instr.FieldRef.Dest.Type)
			recordUsagePath(extended, instr.FieldRef.Recv, kind, idx)
			recordAssign(instr.FieldRef.Dest, idx)
		case IFieldAssign:
			recordUsage(instr.FieldAssign.Rhs, UseMove, idx)
			recordUsage(instr.FieldAssign.Dest, useKind(instr.FieldAssign.Dest.Type), idx)
			base := resolvedPath(out, instr.FieldAssign.Dest)
			span := instr.Span
			extended := base
			for _, seg := range instr.FieldAssign.Fields {
				extended = extended.Extend(seg, span)
			}
			recordAssignPath(extended, instr.FieldAssign.Dest, idx)
		case IAddressOfField, IPtrOf:
			// invisible to the ownership tracker
		case IRef:
			recordUsage(instr.Ref.Src, UseRef, idx)
			recordAssign(instr.Ref.Dest, idx)
		case IStringLiteral, IIntegerLiteral, ICharLiteral:
			recordAssign(instr.Literal.Dest, idx)
		case IReturn:
			recordUsage(instr.Return.Arg, UseMove, idx)
		case IJump:
			targets = instr.Targets()
		case IEnumSwitch, IIntegerSwitch:
			targets = instr.Targets()
		case IBlockStart, IBlockEnd, IDrop, IDropPath, IDropMetadata:
			// structural/placeholder markers; no ownership event
		}
	}

	return out, targets, collisions, flagUpdates
}

func isReceiverRoleTemp(v Variable) bool { return v.Name.IsTemp() }
