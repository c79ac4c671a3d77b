package hir

import (
	"context"

	"siko/internal/qtype"
	"siko/internal/trace"
)

// EliminateDeadCode traverses fn's CFG from the entry block following jump
// targets and switch branches, and removes every block the traversal never
// reaches. A block whose instructions include a call whose
// result type is Never does not propagate reachability to its own
// terminator's targets — that call never returns, so whatever the
// terminator would otherwise jump to is unreachable through this block.
// Per-instruction pruning within an otherwise-reachable block is not
// attempted beyond that: a block's instructions are a straight line, so the
// only "unvisited instruction in a reachable block" this traversal can ever
// find is everything past such a divergent call, and the terminator
// invariant forbids leaving the block
// without one — so that tail, if the front-end ever emits one, is left in
// place rather than trimmed.
func EliminateDeadCode(ctx context.Context, types *qtype.Interner, fn *Function) *Function {
	sp := trace.Begin(trace.FromContext(ctx), trace.ScopeStage, "hir.EliminateDeadCode", 0)
	defer sp.End("")

	if fn.Body == nil {
		return fn
	}

	body := fn.Body.Clone()
	bb := NewBodyBuilder(body)

	reachable := make(map[BlockID]bool)
	queue := []BlockID{EntryBlock}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if reachable[id] {
			continue
		}
		reachable[id] = true

		blk := body.MustBlock(id)
		diverges := false
		for _, instr := range blk.Instrs {
			if instr.Kind != IFunctionCall {
				continue
			}
			if t, ok := types.Lookup(instr.FunctionCall.Dest.Type); ok && t.IsNever() {
				diverges = true
				break
			}
		}
		if diverges {
			continue
		}

		last := blk.Instrs[len(blk.Instrs)-1]
		for _, t := range last.Targets() {
			queue = append(queue, t)
		}
	}

	for _, id := range body.Order() {
		if !reachable[id] {
			bb.RemoveBlock(id)
		}
	}

	out := *fn
	out.Body = bb.Build()
	return &out
}
