package hir

import (
	"context"

	"siko/internal/trace"
)

// spliceCallee clones callee's body with fresh variable names and fresh
// block ids, maps its parameters to args, rewrites every Return into an
// Assign into dest followed by a Jump to continuation, and remaps the
// clone's own internal jump/switch targets to the freshly allocated block
// ids. Returns the clone's entry block id.
func spliceCallee(bb *BodyBuilder, callee *Function, args []Variable, dest Variable, continuation BlockID) BlockID {
	varMap := make(map[VarName]Variable)
	for i, p := range callee.Params {
		if i < len(args) {
			varMap[ArgName(p.Name)] = args[i]
		}
	}
	mapVar := func(v Variable) Variable {
		if mapped, ok := varMap[v.Name]; ok {
			return mapped
		}
		fresh := bb.CreateTempValue(v.Type, v.Span)
		varMap[v.Name] = fresh
		return fresh
	}

	blockMap := make(map[BlockID]BlockID)
	cursors := make(map[BlockID]*BlockBuilder)
	for _, blk := range callee.Body.Blocks() {
		nb := bb.CreateBlock()
		blockMap[blk.ID] = nb.BlockID()
		cursors[blk.ID] = nb
	}
	mapBlock := func(id BlockID) BlockID {
		if mapped, ok := blockMap[id]; ok {
			return mapped
		}
		return id
	}

	for _, blk := range callee.Body.Blocks() {
		cur := cursors[blk.ID]
		for _, instr := range blk.Instrs {
			if instr.Kind == IReturn {
				arg := mapVar(instr.Return.Arg)
				cur.AddInstruction(AssignAt(instr.Span, dest, arg))
				cur.AddInstruction(JumpAt(instr.Span, continuation))
				continue
			}
			rewritten := MapVars(instr, mapVar)
			rewritten = MapBlocks(rewritten, mapBlock)
			cur.AddInstruction(rewritten)
		}
	}

	return blockMap[EntryBlock]
}

// InlineCalls is the inliner: function-group aware. For
// every FunctionCall whose callee is marked Inline and not in fn's own
// Group, the call site is replaced by a jump into a freshly spliced clone
// of the callee, and the block the call used to live in is split so
// execution resumes there once the clone's returns have all assigned into
// the call's destination.
func InlineCalls(ctx context.Context, funcs map[string]*Function, fn *Function) *Function {
	sp := trace.Begin(trace.FromContext(ctx), trace.ScopeStage, "hir.InlineCalls", 0)
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
			if instr.Kind != IFunctionCall {
				cur.Step()
				idx++
				continue
			}
			callee, ok := funcs[instr.FunctionCall.Name.Key()]
			if !ok || !callee.Inline || callee.Body == nil {
				cur.Step()
				idx++
				continue
			}
			if callee.Group != "" && callee.Group == fn.Group {
				cur.Step()
				idx++
				continue
			}

			continuation := cur.CutBlock(idx)
			cur.RemoveInstruction()

			entry := spliceCallee(bb, callee, instr.FunctionCall.Args, instr.FunctionCall.Dest, continuation)
			cur.AddInstruction(JumpAt(instr.Span, entry))

			queue = append(queue, continuation)
			break
		}
	}

	out := *fn
	out.Body = bb.Build()
	return &out
}
