package hir

import (
	"context"

	"siko/internal/qtype"
	"siko/internal/trace"
)

// PassSet toggles which of the five ownership-dependent simplification
// passes a Simplify call runs, mirroring internal/config's
// PipelineConfig.Simplify table one-for-one so cmd/siko can disable an
// individual pass (e.g. for debugging a suspected inliner bug) without
// disabling simplification entirely.
type PassSet struct {
	ConstFold        bool
	DeadCode         bool
	VariableSimplify bool
	UnusedAssign     bool
	Inline           bool
}

// AllPasses returns the PassSet with every pass enabled, Simplify's default
// when no SimplifyOption is given.
func AllPasses() PassSet {
	return PassSet{ConstFold: true, DeadCode: true, VariableSimplify: true, UnusedAssign: true, Inline: true}
}

type simplifyOptions struct {
	passes PassSet
}

// SimplifyOption configures one aspect of a Simplify call.
type SimplifyOption func(*simplifyOptions)

// WithPasses restricts Simplify to the passes enabled in p.
func WithPasses(p PassSet) SimplifyOption {
	return func(o *simplifyOptions) { o.passes = p }
}

// Simplify runs the simplification pipeline to fixpoint:
// constant-eval, then dead-code elimination, then the variable simplifier,
// then unused-assignment elimination, then the inliner, repeated until a
// round makes no change. funcs is the whole program's function table, keyed
// by qualified name, so the inliner can look up callees; fn is simplified
// in place of its own entry in that table each round (the caller is
// expected to have already stored fn there). Passes disabled via
// WithPasses are skipped entirely, including on every round.
func Simplify(ctx context.Context, types *qtype.Interner, funcs map[string]*Function, fn *Function, opts ...SimplifyOption) *Function {
	sp := trace.Begin(trace.FromContext(ctx), trace.ScopeStage, "hir.Simplify", 0)
	defer sp.WithExtra("func", fn.Name.String()).End("")

	cfg := simplifyOptions{passes: AllPasses()}
	for _, o := range opts {
		o(&cfg)
	}

	for {
		before := fn

		if cfg.passes.ConstFold {
			fn = ConstFold(ctx, fn)
		}
		if cfg.passes.DeadCode {
			fn = EliminateDeadCode(ctx, types, fn)
		}
		if cfg.passes.VariableSimplify {
			fn = CollapseVariables(ctx, fn)
		}
		if cfg.passes.UnusedAssign {
			fn = EliminateUnusedAssigns(ctx, fn)
		}
		if cfg.passes.Inline {
			fn = InlineCalls(ctx, funcs, fn)
		}

		if bodiesEqual(before.Body, fn.Body) {
			return fn
		}
	}
}

// bodiesEqual reports whether a and b have the same blocks in the same
// order with structurally identical instructions, used as the
// simplification loop's fixpoint test.
func bodiesEqual(a, b *Body) bool {
	if a == nil || b == nil {
		return a == b
	}
	ao, bo := a.Order(), b.Order()
	if len(ao) != len(bo) {
		return false
	}
	for i, id := range ao {
		if id != bo[i] {
			return false
		}
		ablk, bblk := a.MustBlock(id), b.MustBlock(id)
		if len(ablk.Instrs) != len(bblk.Instrs) {
			return false
		}
		for j := range ablk.Instrs {
			if !instrEqual(ablk.Instrs[j], bblk.Instrs[j]) {
				return false
			}
		}
	}
	return true
}

func instrEqual(a, b Instr) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case IDeclareVar:
		return a.DeclareVar == b.DeclareVar
	case IAssign:
		return a.Assign == b.Assign
	case IFunctionCall, IMethodCall, IDynamicFunctionCall:
		return a.FunctionCall.Dest == b.FunctionCall.Dest &&
			a.FunctionCall.Name.Key() == b.FunctionCall.Name.Key() &&
			varsEqual(a.FunctionCall.Args, b.FunctionCall.Args)
	case IFieldRef:
		return a.FieldRef.Dest == b.FieldRef.Dest && a.FieldRef.Recv == b.FieldRef.Recv &&
			segsEqual(a.FieldRef.Fields, b.FieldRef.Fields)
	case IFieldAssign:
		return a.FieldAssign.Dest == b.FieldAssign.Dest && a.FieldAssign.Rhs == b.FieldAssign.Rhs &&
			segsEqual(a.FieldAssign.Fields, b.FieldAssign.Fields)
	case IRef:
		return a.Ref == b.Ref
	case ITuple:
		return a.Tuple.Dest == b.Tuple.Dest && varsEqual(a.Tuple.Args, b.Tuple.Args)
	case ITransform:
		return a.Transform == b.Transform
	case IStringLiteral, IIntegerLiteral, ICharLiteral:
		return a.Literal == b.Literal
	case IJump:
		return a.Jump == b.Jump
	case IEnumSwitch:
		return a.EnumSwitch.Scrutinee == b.EnumSwitch.Scrutinee &&
			casesEqual(a.EnumSwitch.Cases, b.EnumSwitch.Cases) && a.EnumSwitch.Default == b.EnumSwitch.Default
	case IIntegerSwitch:
		return a.IntegerSwitch.Scrutinee == b.IntegerSwitch.Scrutinee &&
			casesEqual(a.IntegerSwitch.Cases, b.IntegerSwitch.Cases) && a.IntegerSwitch.Default == b.IntegerSwitch.Default
	case IReturn:
		return a.Return == b.Return
	case IDrop:
		return a.Drop == b.Drop
	default:
		return true
	}
}

func varsEqual(a, b []Variable) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func segsEqual(a, b []PathSegment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func casesEqual(a, b []SwitchCase) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
