package hir

import (
	"context"
	"sort"

	"siko/internal/trace"
)

// instrLoc addresses one instruction by (block, index) at a given snapshot
// of the body; indices are only valid until the next edit.
type instrLoc struct {
	block BlockID
	idx   int
}

func cursorAt(bb *BodyBuilder, l instrLoc) *BlockBuilder {
	cur := bb.Iterator(l.block)
	for i := 0; i < l.idx; i++ {
		cur.Step()
	}
	return cur
}

func rewriteAt(bb *BodyBuilder, l instrLoc, f func(Instr) Instr) {
	cur := cursorAt(bb, l)
	instr, ok := cur.GetInstruction()
	if !ok {
		return
	}
	cur.ReplaceInstruction(f(instr))
}

func removeAt(bb *BodyBuilder, l instrLoc) {
	cur := cursorAt(bb, l)
	if _, ok := cur.GetInstruction(); ok {
		cur.RemoveInstruction()
	}
}

// CollapseVariables is the variable simplifier: a use-once,
// assign-once chain `a := b`, where neither a nor b is a parameter or a drop
// flag, is collapsed by rewriting a's one downstream use to b directly and
// removing the Assign and a's declaration. Repeated to fixpoint, since
// collapsing can turn a now-single-use chain's predecessor into a fresh
// candidate.
func CollapseVariables(ctx context.Context, fn *Function) *Function {
	sp := trace.Begin(trace.FromContext(ctx), trace.ScopeStage, "hir.CollapseVariables", 0)
	defer sp.End("")

	if fn.Body == nil {
		return fn
	}

	body := fn.Body.Clone()
	bb := NewBodyBuilder(body)

	for {
		assignCount := make(map[VarName]int)
		assignLoc := make(map[VarName]instrLoc)
		assignSrc := make(map[VarName]Variable)
		declareLoc := make(map[VarName]instrLoc)
		useCount := make(map[VarName]int)
		useLoc := make(map[VarName]instrLoc)

		for _, blk := range body.Blocks() {
			for idx, instr := range blk.Instrs {
				switch instr.Kind {
				case IAssign:
					d := instr.Assign.Dest.Name
					assignCount[d]++
					assignLoc[d] = instrLoc{blk.ID, idx}
					assignSrc[d] = instr.Assign.Src
				case IDeclareVar:
					declareLoc[instr.DeclareVar.Var.Name] = instrLoc{blk.ID, idx}
				}
				UseVars(instr, func(v Variable) {
					useCount[v.Name]++
					useLoc[v.Name] = instrLoc{blk.ID, idx}
				})
			}
		}

		var candidates []VarName
		for a, n := range assignCount {
			if n != 1 || useCount[a] != 1 {
				continue
			}
			if a.IsArg() || a.IsDropFlag() {
				continue
			}
			b := assignSrc[a]
			if b.Name.IsArg() || b.Name.IsDropFlag() {
				continue
			}
			candidates = append(candidates, a)
		}
		if len(candidates) == 0 {
			break
		}
		sort.Slice(candidates, func(i, j int) bool {
			li, lj := assignLoc[candidates[i]], assignLoc[candidates[j]]
			if li.block != lj.block {
				return li.block < lj.block
			}
			return li.idx < lj.idx
		})

		a := candidates[0]
		b := assignSrc[a]

		rewriteAt(bb, useLoc[a], func(i Instr) Instr {
			return MapVars(i, func(v Variable) Variable {
				if v.Name == a {
					return b
				}
				return v
			})
		})
		removeAt(bb, assignLoc[a])
		if dLoc, ok := declareLoc[a]; ok {
			removeAt(bb, dLoc)
		}
	}

	out := *fn
	out.Body = bb.Build()
	return &out
}
