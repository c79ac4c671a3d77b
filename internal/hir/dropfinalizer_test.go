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

// buildLetFooFunc returns `fn f() { let x = Foo; }`-shaped HIR: one syntax
// block declaring and initializing a non-Copy local, then returning it —
// scenario S5.
func buildLetFooFunc(types *qtype.Interner) *Function {
	span := source.Span{}
	fooTy := types.Intern(qtype.Named(qtype.Name{Path: []string{"Foo"}}))

	body := NewBody()
	bb := NewBodyBuilder(body)
	cur := bb.CreateBlock()

	xVar := Variable{Name: LocalName("x", 0), Type: fooTy, Span: span}
	syntax := SyntaxBlockID(1)
	cur.AddInstruction(BlockStartAt(span, syntax))
	cur.AddInstruction(DeclareVarAt(span, xVar, true))
	cur.AddInstruction(FunctionCallAt(span, xVar, qname.New("Foo", "new"), nil))
	cur.AddInstruction(BlockEndAt(span, syntax))
	cur.AddInstruction(ReturnAt(span, xVar))

	return &Function{Name: qname.New("f"), Body: bb.Build(), Kind: KindUserDefined}
}

func TestFinalizeDropsBuildsConditionalDropSwitch(t *testing.T) {
	types := qtype.NewInterner()
	fn := buildLetFooFunc(types)

	instances := oracle.NewMapResolver()
	bag := diag.NewBag(16)
	reporter := diag.BagReporter{Bag: bag}

	checked := CheckDrops(context.Background(), types, instances, instances, reporter, fn)
	if checked.HadError {
		t.Fatalf("unexpected drop-check error: %+v", bag.Items())
	}

	withDecls, store := InsertDeclarationMetadata(context.Background(), checked.Function)
	finalized := FinalizeDrops(context.Background(), types, withDecls, store)

	var sw *EnumSwitchInstr
	var dropBlockID BlockID
	for _, blk := range finalized.Body.Blocks() {
		for _, instr := range blk.Instrs {
			if instr.Kind == IEnumSwitch {
				found := instr.EnumSwitch
				sw = &found
			}
		}
	}
	if sw == nil {
		t.Fatalf("expected MaterializeDrops+ConditionalizeDrops to produce an EnumSwitch on the drop flag")
	}
	if len(sw.Cases) != 2 {
		t.Fatalf("expected exactly two cases (flag false, flag true), got %d", len(sw.Cases))
	}
	for _, c := range sw.Cases {
		if c.Tag == 1 {
			dropBlockID = c.Target
		}
	}
	if !dropBlockID.IsValid() {
		t.Fatalf("expected a tag-1 case routing to the drop block")
	}

	dropBlk := finalized.Body.MustBlock(dropBlockID)
	if len(dropBlk.Instrs) < 2 || dropBlk.Instrs[0].Kind != IDrop || dropBlk.Instrs[1].Kind != IJump {
		t.Fatalf("expected the drop block to contain Drop then Jump, got %+v", dropBlk.Instrs)
	}

	for _, blk := range finalized.Body.Blocks() {
		for _, instr := range blk.Instrs {
			switch instr.Kind {
			case IBlockStart, IBlockEnd, IDropPath, IDropMetadata:
				t.Fatalf("finalizer must remove every placeholder instruction, found %s", instr.Kind)
			}
		}
	}
}
