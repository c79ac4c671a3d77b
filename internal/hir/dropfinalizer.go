package hir

import (
	"context"

	"siko/internal/qtype"
	"siko/internal/trace"
)

// FinalizeDrops runs the finalizer's two passes over fn in order:
// MaterializeDrops turns the drop checker's placeholders into concrete flag
// declarations, flag writes, and unconditional drop calls;
// ConditionalizeDrops then rewrites every one of those drop calls into an
// EnumSwitch on its flag so a value is dropped iff its flag is true at the
// drop point. fn's body must already carry the DropMetadata(DeclarationList)
// markers InsertDeclarationMetadata inserts, and store must be the
// DeclarationStore BuildDeclarationStore produced for the same body.
func FinalizeDrops(ctx context.Context, types *qtype.Interner, fn *Function, store *DeclarationStore) *Function {
	fn = MaterializeDrops(ctx, types, fn, store)
	fn = ConditionalizeDrops(ctx, types, fn)
	return fn
}

// MaterializeDrops is pass 1: walk every block, and on DropMetadata(id) emit
// a mutable DeclareVar plus a false-initialization for each flag id's
// DeclEntry names, on BlockEnd(id) emit the drop sequence for each of id's
// live locals, and on DropPath convert the checker's placeholder into a
// concrete flag write. BlockStart, BlockEnd and the two placeholder kinds
// are removed; none of the four survive to the external interface.
func MaterializeDrops(ctx context.Context, types *qtype.Interner, fn *Function, store *DeclarationStore) *Function {
	sp := trace.Begin(trace.FromContext(ctx), trace.ScopeStage, "hir.MaterializeDrops", 0)
	defer sp.End("")

	if fn.Body == nil {
		return fn
	}

	body := fn.Body.Clone()
	bb := NewBodyBuilder(body)

	for _, id := range body.Order() {
		cur := bb.Iterator(id)
		for {
			instr, ok := cur.GetInstruction()
			if !ok {
				break
			}
			switch instr.Kind {
			case IBlockStart:
				cur.RemoveInstruction()
			case IBlockEnd:
				entry := store.Entry(instr.BlockMarker.Syntax)
				cur.RemoveInstruction()
				for _, local := range entry.Locals {
					unit := bb.CreateTempValue(types.Builtins().Void, instr.Span)
					cur.AddInstruction(DropAt(instr.Span, unit, local))
					flag := NewDropFlag(types, RootOnly(local), instr.Span)
					cur.AddInstruction(SetFlagInstr(instr.Span, flag, false))
				}
			case IDropMetadata:
				entry := store.Entry(instr.DropMetadata.Syntax)
				cur.RemoveInstruction()
				for _, path := range entry.Flags {
					flag := NewDropFlag(types, path, instr.Span)
					cur.AddInstruction(DeclareVarAt(instr.Span, flag, true))
					cur.AddInstruction(SetFlagInstr(instr.Span, flag, false))
				}
			case IDropPath:
				flag := NewDropFlag(types, instr.DropPath.Target, instr.Span)
				cur.ReplaceInstruction(SetFlagInstr(instr.Span, flag, instr.DropPath.Live))
				cur.Step()
			default:
				cur.Step()
			}
		}
	}

	out := *fn
	out.Body = bb.Build()
	return &out
}

// ConditionalizeDrops is pass 2: for every Drop(_, v) left by MaterializeDrops,
// split the containing block immediately after it, move the original drop
// into a fresh drop block that jumps to the split-off continuation, and
// replace the original drop with an EnumSwitch on v's drop flag — case 0
// (false) to the continuation, case 1 (true) to the drop block. A block may hold several drops in sequence (one per live
// local of the syntax block it closes); each is peeled off in turn, so the
// continuation block produced by one split is queued for the same scan.
func ConditionalizeDrops(ctx context.Context, types *qtype.Interner, fn *Function) *Function {
	sp := trace.Begin(trace.FromContext(ctx), trace.ScopeStage, "hir.ConditionalizeDrops", 0)
	defer sp.End("")

	if fn.Body == nil {
		return fn
	}

	body := fn.Body.Clone()
	bb := NewBodyBuilder(body)

	queue := append([]BlockID(nil), body.Order()...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		cur := bb.Iterator(id)
		idx := 0
		for {
			instr, ok := cur.GetInstruction()
			if !ok {
				break
			}
			if instr.Kind != IDrop {
				cur.Step()
				idx++
				continue
			}

			span := instr.Span
			successor := cur.CutBlock(idx)

			dropBlock := bb.CreateBlock()
			dropBlock.AddInstruction(instr)
			dropBlock.AddInstruction(JumpAt(span, successor))

			flag := NewDropFlag(types, RootOnly(instr.Drop.Var), span)
			cur.ReplaceInstruction(EnumSwitchAt(span, flag, []SwitchCase{
				{Tag: 0, Target: successor},
				{Tag: 1, Target: dropBlock.BlockID()},
			}, NoBlockID))

			queue = append(queue, successor)
			break
		}
	}

	out := *fn
	out.Body = bb.Build()
	return &out
}
