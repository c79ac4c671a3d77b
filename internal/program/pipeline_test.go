package program

import (
	"context"
	"testing"

	"siko/internal/diag"
	"siko/internal/hir"
	"siko/internal/oracle"
	"siko/internal/qname"
	"siko/internal/qtype"
	"siko/internal/source"
)

// buildLetFooProgram returns a one-function Program equivalent to
// `fn f() { let x = Foo; }`, the same fixture hir's own finalizer test uses,
// wired up as a whole Program so RunPipeline's end-to-end sequencing can be
// exercised.
func buildLetFooProgram(types *qtype.Interner) *Program {
	span := source.Span{}
	fooTy := types.Intern(qtype.Named(qtype.Name{Path: []string{"Foo"}}))

	body := hir.NewBody()
	bb := hir.NewBodyBuilder(body)
	cur := bb.CreateBlock()

	xVar := hir.Variable{Name: hir.LocalName("x", 0), Type: fooTy, Span: span}
	syntax := hir.SyntaxBlockID(1)
	cur.AddInstruction(hir.BlockStartAt(span, syntax))
	cur.AddInstruction(hir.DeclareVarAt(span, xVar, true))
	cur.AddInstruction(hir.FunctionCallAt(span, xVar, qname.New("Foo", "new"), nil))
	cur.AddInstruction(hir.BlockEndAt(span, syntax))
	cur.AddInstruction(hir.ReturnAt(span, xVar))

	fn := &hir.Function{Name: qname.New("f"), Body: bb.Build(), Kind: hir.KindUserDefined}

	p := New(types)
	p.AddFunc(fn)
	return p
}

// TestRunPipelineDropsTheLocalWithNoErrors runs the full default pipeline.
// x is unconditionally initialized, so its flag is statically true at the
// drop point: the constant evaluator folds the finalizer's conditional
// switch into a direct jump, and what must survive is the drop itself.
// (The switch-shaped intermediate state is asserted by the WithSimplify
// tests below and by hir's own finalizer test.)
func TestRunPipelineDropsTheLocalWithNoErrors(t *testing.T) {
	types := qtype.NewInterner()
	p := buildLetFooProgram(types)

	instances := oracle.NewMapResolver()
	bag := diag.NewBag(16)
	reporter := diag.BagReporter{Bag: bag}

	result := RunPipeline(context.Background(), p, instances, instances, reporter)

	if result.HadError {
		t.Fatalf("unexpected pipeline error: %+v", bag.Items())
	}

	fn := result.Program.Funcs[qname.New("f").Key()]
	if fn == nil {
		t.Fatalf("expected function 'f' to survive the pipeline")
	}

	foundDrop := false
	for _, blk := range fn.Body.Blocks() {
		for _, instr := range blk.Instrs {
			switch instr.Kind {
			case hir.IBlockStart, hir.IBlockEnd, hir.IDropPath, hir.IDropMetadata:
				t.Fatalf("pipeline output must carry no placeholder instructions, found %s", instr.Kind)
			case hir.IDrop:
				foundDrop = true
			}
		}
	}
	if !foundDrop {
		t.Fatalf("expected the always-initialized local's drop to survive simplification")
	}
}

func TestRunPipelineIsDeterministicOverFunctionOrder(t *testing.T) {
	types := qtype.NewInterner()
	p := buildLetFooProgram(types)
	instances := oracle.NewMapResolver()

	first := p.SortedFuncNames()
	second := p.SortedFuncNames()
	if len(first) != len(second) || first[0] != second[0] {
		t.Fatalf("SortedFuncNames must be stable across calls")
	}

	bag := diag.NewBag(16)
	result := RunPipeline(context.Background(), p, instances, instances, diag.BagReporter{Bag: bag})
	if result.HadError {
		t.Fatalf("unexpected pipeline error: %+v", bag.Items())
	}
}
