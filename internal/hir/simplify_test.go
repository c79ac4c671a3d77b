package hir

import (
	"context"
	"testing"

	"siko/internal/qname"
	"siko/internal/qtype"
	"siko/internal/source"
)

// buildConstFoldedDropFunc builds a function whose entry block sets a drop
// flag to the statically-known constant false and then switches on it —
// scenario S6: the false branch's drop must disappear once the constant
// evaluator proves the switch always takes case 0.
func buildConstFoldedDropFunc(types *qtype.Interner) *Function {
	span := source.Span{}
	fooTy := types.Intern(qtype.Named(qtype.Name{Path: []string{"Foo"}}))
	xVar := Variable{Name: LocalName("x", 0), Type: fooTy, Span: span}

	body := NewBody()
	bb := NewBodyBuilder(body)

	entry := bb.CreateBlock() // bb0
	flagVar := NewDropFlag(types, RootOnly(xVar), span)
	entry.AddInstruction(SetFlagInstr(span, flagVar, false))

	dropBlk := bb.CreateBlock()  // bb1
	tailBlk := bb.CreateBlock()  // bb2
	entry.AddInstruction(EnumSwitchAt(span, flagVar, []SwitchCase{
		{Tag: 0, Target: tailBlk.BlockID()},
		{Tag: 1, Target: dropBlk.BlockID()},
	}, NoBlockID))

	unit := bb.CreateTempValue(types.Builtins().Void, span)
	dropBlk.AddInstruction(DropAt(span, unit, xVar))
	dropBlk.AddInstruction(JumpAt(span, tailBlk.BlockID()))

	retUnit := bb.CreateTempValue(types.Builtins().Void, span)
	tailBlk.AddInstruction(FunctionCallAt(span, retUnit, qname.New("Unit", "new"), nil))
	tailBlk.AddInstruction(ReturnAt(span, retUnit))

	return &Function{Name: qname.New("f"), Body: bb.Build(), Kind: KindUserDefined}
}

func TestSimplifyEliminatesConstantFoldedDrop(t *testing.T) {
	types := qtype.NewInterner()
	fn := buildConstFoldedDropFunc(types)

	out := Simplify(context.Background(), types, map[string]*Function{fn.Name.Key(): fn}, fn)

	for _, blk := range out.Body.Blocks() {
		for _, instr := range blk.Instrs {
			if instr.Kind == IDrop {
				t.Fatalf("expected the statically-dead drop to be eliminated, found one in %s", blk.ID)
			}
			if instr.Kind == IEnumSwitch {
				t.Fatalf("expected the constant switch on the drop flag to be folded into a Jump, found %+v", instr.EnumSwitch)
			}
		}
	}
}

// TestCollapseVariablesLeavesDropFlagReferencesAlone: a use-once/assign-once
// chain that reads from, or itself is, a drop-flag variable must never be
// collapsed, since nothing besides the finalizer's own bookkeeping is
// allowed to change which variable a drop flag's value is read through.
func TestCollapseVariablesLeavesDropFlagReferencesAlone(t *testing.T) {
	types := qtype.NewInterner()
	span := source.Span{}
	xVar := Variable{Name: LocalName("x", 0), Type: types.Intern(qtype.Named(qtype.Name{Path: []string{"Foo"}})), Span: span}
	flagVar := NewDropFlag(types, RootOnly(xVar), span)

	body := NewBody()
	bb := NewBodyBuilder(body)
	entry := bb.CreateBlock() // bb0
	entry.AddInstruction(DeclareVarAt(span, flagVar, true))
	entry.AddInstruction(SetFlagInstr(span, flagVar, true))

	aVar := bb.CreateTempValue(BoolTypeID(types), span)
	entry.AddInstruction(AssignAt(span, aVar, flagVar))

	tailBlk := bb.CreateBlock() // bb1
	dropBlk := bb.CreateBlock() // bb2
	entry.AddInstruction(EnumSwitchAt(span, aVar, []SwitchCase{
		{Tag: 0, Target: tailBlk.BlockID()},
		{Tag: 1, Target: dropBlk.BlockID()},
	}, NoBlockID))

	unit := bb.CreateTempValue(types.Builtins().Void, span)
	dropBlk.AddInstruction(DropAt(span, unit, xVar))
	dropBlk.AddInstruction(JumpAt(span, tailBlk.BlockID()))

	retUnit := bb.CreateTempValue(types.Builtins().Void, span)
	tailBlk.AddInstruction(FunctionCallAt(span, retUnit, qname.New("Unit", "new"), nil))
	tailBlk.AddInstruction(ReturnAt(span, retUnit))

	fn := &Function{Name: qname.New("g"), Body: bb.Build(), Kind: KindUserDefined}

	out := CollapseVariables(context.Background(), fn)

	var sawAssignToA, sawSwitchOnA bool
	for _, blk := range out.Body.Blocks() {
		for _, instr := range blk.Instrs {
			if instr.Kind == IAssign && instr.Assign.Dest.Name == aVar.Name && instr.Assign.Src.Name == flagVar.Name {
				sawAssignToA = true
			}
			if instr.Kind == IEnumSwitch && instr.EnumSwitch.Scrutinee.Name == aVar.Name {
				sawSwitchOnA = true
			}
		}
	}
	if !sawAssignToA {
		t.Fatalf("expected the drop-flag-sourced assignment to survive uncollapsed")
	}
	if !sawSwitchOnA {
		t.Fatalf("expected the switch to keep reading the alias variable, not the flag directly")
	}
}

// TestSimplifyWithConstFoldDisabledKeepsTheSwitch confirms PassSet actually
// gates ConstFold: reusing scenario S6's fixture (whose switch
// TestSimplifyEliminatesConstantFoldedDrop confirms does fold away under
// the default all-passes PassSet), disabling just ConstFold must leave the
// switch and its drop block standing, since nothing else in the suite
// reasons about drop-flag values.
func TestSimplifyWithConstFoldDisabledKeepsTheSwitch(t *testing.T) {
	types := qtype.NewInterner()
	fn := buildConstFoldedDropFunc(types)

	passes := AllPasses()
	passes.ConstFold = false
	out := Simplify(context.Background(), types, map[string]*Function{fn.Name.Key(): fn}, fn, WithPasses(passes))

	foundSwitch := false
	for _, blk := range out.Body.Blocks() {
		for _, instr := range blk.Instrs {
			if instr.Kind == IEnumSwitch {
				foundSwitch = true
			}
		}
	}
	if !foundSwitch {
		t.Fatalf("expected the switch to survive with ConstFold disabled")
	}
}

func TestSimplifyIsIdempotentAtFixpoint(t *testing.T) {
	types := qtype.NewInterner()
	fn := buildConstFoldedDropFunc(types)
	funcs := map[string]*Function{fn.Name.Key(): fn}

	once := Simplify(context.Background(), types, funcs, fn)
	funcs[fn.Name.Key()] = once
	twice := Simplify(context.Background(), types, funcs, once)

	if !bodiesEqual(once.Body, twice.Body) {
		t.Fatalf("simplifying an already-simplified function must be a no-op")
	}
}
