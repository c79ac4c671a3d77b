package hir

import (
	"context"

	"siko/internal/trace"
)

// isPureProducer reports whether a producer instruction, if its result goes
// unused, may be dropped outright with no observable effect. A
// general FunctionCall is excluded: the pipeline has no purity oracle for
// arbitrary callees (oracle.InstanceResolver/ImplementationResolver expose
// only Copy/Drop/Clone queries), so only the nullary Bool constructors this
// pipeline itself introduces for drop flags (boolflag.go) are recognized as
// effect-free calls, the same way the constant evaluator treats them as
// literals.
func isPureProducer(instr Instr) bool {
	switch instr.Kind {
	case IDeclareVar, IAssign, IFieldRef, ITuple, ITransform,
		IStringLiteral, IIntegerLiteral, ICharLiteral, IRef,
		IAddressOfField, IPtrOf:
		return true
	case IFunctionCall:
		_, ok := IsBoolCtorCall(instr)
		return ok
	default:
		return false
	}
}

// EliminateUnusedAssigns removes every pure producer whose result variable
// is never read anywhere in the function, run to fixpoint since removing
// one producer can make an operand's own producer newly dead. Liveness is tracked per variable name rather than per definition
// site: the pipeline has no reaching-definitions pass, so a name with
// multiple producers is only eligible once none of its producers are used
// anywhere in the function.
func EliminateUnusedAssigns(ctx context.Context, fn *Function) *Function {
	sp := trace.Begin(trace.FromContext(ctx), trace.ScopeStage, "hir.EliminateUnusedAssigns", 0)
	defer sp.End("")

	if fn.Body == nil {
		return fn
	}

	body := fn.Body.Clone()
	bb := NewBodyBuilder(body)

	for {
		used := make(map[VarName]bool)
		for _, blk := range body.Blocks() {
			for _, instr := range blk.Instrs {
				UseVars(instr, func(v Variable) { used[v.Name] = true })
			}
		}

		removedAny := false
		for _, id := range body.Order() {
			cur := bb.Iterator(id)
			for {
				instr, ok := cur.GetInstruction()
				if !ok {
					break
				}
				res, hasRes := instr.Result()
				if hasRes && isPureProducer(instr) && !used[res.Name] {
					cur.RemoveInstruction()
					removedAny = true
					continue
				}
				cur.Step()
			}
		}
		if !removedAny {
			break
		}
	}

	out := *fn
	out.Body = bb.Build()
	return &out
}
