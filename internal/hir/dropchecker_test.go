package hir

import (
	"context"
	"testing"

	"siko/internal/diag"
	"siko/internal/oracle"
	"siko/internal/qname"
	"siko/internal/qtype"
	"siko/internal/source"
)

// buildDoubleMoveFunc returns a single-block function that moves a local
// into consume(...) twice in a row — scenario S1, a use-after-move that the
// checker must reject outright for a type with no Copy/Clone available.
func buildDoubleMoveFunc(types *qtype.Interner, fooTy qtype.ID) *Function {
	span := source.Span{}
	body := NewBody()
	bb := NewBodyBuilder(body)
	cur := bb.CreateBlock()

	voidTy := types.Builtins().Void
	aVar := Variable{Name: LocalName("a", 0), Type: fooTy, Span: span}
	cur.AddInstruction(DeclareVarAt(span, aVar, true))

	dest1 := bb.CreateTempValue(voidTy, span)
	cur.AddInstruction(FunctionCallAt(span, dest1, qname.New("consume"), []Variable{aVar}))

	dest2 := bb.CreateTempValue(voidTy, span)
	cur.AddInstruction(FunctionCallAt(span, dest2, qname.New("consume"), []Variable{aVar}))

	cur.AddInstruction(ReturnAt(span, dest2))

	return &Function{
		Name: qname.New("doubleMove"),
		Body: bb.Build(),
		Kind: KindUserDefined,
	}
}

func TestCheckDropsRejectsDoubleMoveWithNoCopyOrClone(t *testing.T) {
	types := qtype.NewInterner()
	fooTy := types.Intern(qtype.Named(qtype.Name{Path: []string{"Foo"}}))

	fn := buildDoubleMoveFunc(types, fooTy)
	instances := oracle.NewMapResolver()
	bag := diag.NewBag(16)
	reporter := diag.BagReporter{Bag: bag}

	result := CheckDrops(context.Background(), types, instances, instances, reporter, fn)

	if !result.HadError {
		t.Fatalf("expected a double move with no Copy/Clone to be reported as an error")
	}
	if !bag.HasErrors() {
		t.Fatalf("expected the use-after-move diagnostic to land in the bag")
	}
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.DropUseAfterMove {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a DropUseAfterMove diagnostic, got %+v", bag.Items())
	}
}

func TestCheckDropsRewritesCopyableMoveAsClone(t *testing.T) {
	types := qtype.NewInterner()
	fooTy := types.Intern(qtype.Named(qtype.Name{Path: []string{"Foo"}}))

	fn := buildDoubleMoveFunc(types, fooTy)

	fooName := qname.New("Foo")
	instances := oracle.NewMapResolver()
	instances.MarkCopy(fooName)
	cloneImpl := qname.New("Foo", "clone")
	instances.RegisterClone(fooName, cloneImpl)

	bag := diag.NewBag(16)
	reporter := diag.BagReporter{Bag: bag}

	result := CheckDrops(context.Background(), types, instances, instances, reporter, fn)

	if result.HadError {
		t.Fatalf("a Copy type with a registered clone implementation must not be reported as an error")
	}
	if bag.HasErrors() {
		t.Fatalf("expected no diagnostics once the collision resolves to an implicit clone, got %+v", bag.Items())
	}

	foundClone := false
	for _, blk := range result.Function.Body.Blocks() {
		for _, instr := range blk.Instrs {
			if instr.Kind == IFunctionCall && instr.FunctionCall.Name.Key() == cloneImpl.Key() {
				foundClone = true
			}
		}
	}
	if !foundClone {
		t.Fatalf("expected the second (colliding) move site to be rewritten into a call to the registered clone implementation")
	}
}

// buildConditionalMoveFunc builds scenario S3: an EnumSwitch with one
// branch that moves x and one that doesn't, both joining at a continuation
// that moves x again. Whichever path took the moving branch has already
// consumed x by the time the continuation runs, so the join must report a
// use-after-move there.
func buildConditionalMoveFunc(types *qtype.Interner, fooTy qtype.ID) *Function {
	span := source.Span{}
	body := NewBody()
	bb := NewBodyBuilder(body)

	entry := bb.CreateBlock() // bb0
	xVar := Variable{Name: LocalName("x", 0), Type: fooTy, Span: span}
	entry.AddInstruction(DeclareVarAt(span, xVar, true))

	condVar := Variable{Name: LocalName("cond", 0), Type: BoolTypeID(types), Span: span}
	entry.AddInstruction(DeclareVarAt(span, condVar, true))

	voidTy := types.Builtins().Void

	movingBlk := bb.CreateBlock()   // bb1: moves x, then joins
	plainBlk := bb.CreateBlock()    // bb2: doesn't touch x, then joins
	tailBlk := bb.CreateBlock()     // bb3: moves x again
	entry.AddInstruction(EnumSwitchAt(span, condVar, []SwitchCase{
		{Tag: 0, Target: movingBlk.BlockID()},
		{Tag: 1, Target: plainBlk.BlockID()},
	}, NoBlockID))

	dest1 := bb.CreateTempValue(voidTy, span)
	movingBlk.AddInstruction(FunctionCallAt(span, dest1, qname.New("consume"), []Variable{xVar}))
	movingBlk.AddInstruction(JumpAt(span, tailBlk.BlockID()))

	plainBlk.AddInstruction(JumpAt(span, tailBlk.BlockID()))

	dest2 := bb.CreateTempValue(voidTy, span)
	tailBlk.AddInstruction(FunctionCallAt(span, dest2, qname.New("consume"), []Variable{xVar}))
	tailBlk.AddInstruction(ReturnAt(span, dest2))

	return &Function{Name: qname.New("conditionalMove"), Body: bb.Build(), Kind: KindUserDefined}
}

// TestCheckDropsFlagsConditionalMoveJoiningAtContinuation exercises scenario
// S3: the branch that already moved x collides with the continuation's move
// of the same path, even though the other branch never touched x.
func TestCheckDropsFlagsConditionalMoveJoiningAtContinuation(t *testing.T) {
	types := qtype.NewInterner()
	fooTy := types.Intern(qtype.Named(qtype.Name{Path: []string{"Foo"}}))

	fn := buildConditionalMoveFunc(types, fooTy)
	instances := oracle.NewMapResolver()
	bag := diag.NewBag(16)
	reporter := diag.BagReporter{Bag: bag}

	result := CheckDrops(context.Background(), types, instances, instances, reporter, fn)

	if !result.HadError {
		t.Fatalf("expected the conditional move to collide with the continuation's move")
	}
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.DropUseAfterMove {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a DropUseAfterMove diagnostic, got %+v", bag.Items())
	}
}

// TestCheckDropsClonesAJoinSiteOnlyOnce drives the checker over a diamond
// whose join moves an already-moved Copy local. The join block is processed
// once per distinct incoming context (the two branches differ on an
// unrelated local, so their contexts dedupe separately), but the colliding
// site must still be rewritten into exactly one clone call.
func TestCheckDropsClonesAJoinSiteOnlyOnce(t *testing.T) {
	types := qtype.NewInterner()
	fooTy := types.Intern(qtype.Named(qtype.Name{Path: []string{"Foo"}}))
	span := source.Span{}
	voidTy := types.Builtins().Void

	body := NewBody()
	bb := NewBodyBuilder(body)

	entry := bb.CreateBlock() // bb0
	xVar := Variable{Name: LocalName("x", 0), Type: fooTy, Span: span}
	yVar := Variable{Name: LocalName("y", 0), Type: fooTy, Span: span}
	condVar := Variable{Name: LocalName("cond", 0), Type: BoolTypeID(types), Span: span}
	entry.AddInstruction(DeclareVarAt(span, xVar, true))
	entry.AddInstruction(DeclareVarAt(span, yVar, true))
	entry.AddInstruction(DeclareVarAt(span, condVar, true))

	left := bb.CreateBlock()  // bb1: moves x
	right := bb.CreateBlock() // bb2: moves x and touches y
	tail := bb.CreateBlock()  // bb3: moves x again
	entry.AddInstruction(EnumSwitchAt(span, condVar, []SwitchCase{
		{Tag: 0, Target: left.BlockID()},
		{Tag: 1, Target: right.BlockID()},
	}, NoBlockID))

	d1 := bb.CreateTempValue(voidTy, span)
	left.AddInstruction(FunctionCallAt(span, d1, qname.New("consume"), []Variable{xVar}))
	left.AddInstruction(JumpAt(span, tail.BlockID()))

	d2 := bb.CreateTempValue(voidTy, span)
	right.AddInstruction(FunctionCallAt(span, d2, qname.New("consume"), []Variable{xVar}))
	d3 := bb.CreateTempValue(voidTy, span)
	right.AddInstruction(FunctionCallAt(span, d3, qname.New("consume"), []Variable{yVar}))
	right.AddInstruction(JumpAt(span, tail.BlockID()))

	d4 := bb.CreateTempValue(voidTy, span)
	tail.AddInstruction(FunctionCallAt(span, d4, qname.New("consume"), []Variable{xVar}))
	tail.AddInstruction(ReturnAt(span, d4))

	fn := &Function{Name: qname.New("diamond"), Body: bb.Build(), Kind: KindUserDefined}

	fooName := qname.New("Foo")
	instances := oracle.NewMapResolver()
	instances.MarkCopy(fooName)
	cloneImpl := qname.New("Foo", "clone")
	instances.RegisterClone(fooName, cloneImpl)

	bag := diag.NewBag(16)
	result := CheckDrops(context.Background(), types, instances, instances, diag.BagReporter{Bag: bag}, fn)

	if result.HadError {
		t.Fatalf("every collision should resolve to a clone, got %+v", bag.Items())
	}

	clonesInTail := 0
	for _, instr := range result.Function.Body.MustBlock(tail.BlockID()).Instrs {
		if instr.Kind == IFunctionCall && instr.FunctionCall.Name.Key() == cloneImpl.Key() {
			clonesInTail++
		}
	}
	if clonesInTail != 1 {
		t.Fatalf("expected exactly one clone call at the join site, got %d", clonesInTail)
	}
}

func TestCheckDropsAllowsSequentialMoveOfDistinctLocals(t *testing.T) {
	types := qtype.NewInterner()
	fooTy := types.Intern(qtype.Named(qtype.Name{Path: []string{"Foo"}}))

	span := source.Span{}
	body := NewBody()
	bb := NewBodyBuilder(body)
	cur := bb.CreateBlock()

	aVar := Variable{Name: LocalName("a", 0), Type: fooTy, Span: span}
	bVar := Variable{Name: LocalName("b", 0), Type: fooTy, Span: span}
	cur.AddInstruction(DeclareVarAt(span, aVar, true))
	cur.AddInstruction(DeclareVarAt(span, bVar, true))

	voidTy := types.Builtins().Void
	dest1 := bb.CreateTempValue(voidTy, span)
	cur.AddInstruction(FunctionCallAt(span, dest1, qname.New("consume"), []Variable{aVar}))
	dest2 := bb.CreateTempValue(voidTy, span)
	cur.AddInstruction(FunctionCallAt(span, dest2, qname.New("consume"), []Variable{bVar}))
	cur.AddInstruction(ReturnAt(span, dest2))

	fn := &Function{Name: qname.New("twoMoves"), Body: bb.Build(), Kind: KindUserDefined}
	instances := oracle.NewMapResolver()
	bag := diag.NewBag(16)
	reporter := diag.BagReporter{Bag: bag}

	result := CheckDrops(context.Background(), types, instances, instances, reporter, fn)

	if result.HadError {
		t.Fatalf("moving two distinct locals in sequence should never collide")
	}
}
