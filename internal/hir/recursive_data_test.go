package hir

import (
	"context"
	"testing"

	"siko/internal/diag"
	"siko/internal/qname"
	"siko/internal/qtype"
	"siko/internal/source"
)

// buildListDef returns the classic self-referential enum: enum List { Nil,
// Cons(Int, List) } — scenario S4.
func buildListDef(types *qtype.Interner, intTy qtype.ID) *DataDef {
	listName := qname.New("List")
	listTy := types.Intern(qtype.Named(listName.ToQType()))
	return &DataDef{
		Name: listName,
		Kind: DataEnum,
		Variants: []Variant{
			{Name: "Nil"},
			{Name: "Cons", Items: []Field{{Name: "0", Type: intTy}, {Name: "1", Type: listTy}}},
		},
	}
}

func TestBoxRecursiveDataBoxesSelfReferentialEnumField(t *testing.T) {
	types := qtype.NewInterner()
	intTy := types.Intern(qtype.Named(qtype.Name{Path: []string{"Int"}}))
	list := buildListDef(types, intTy)

	bag := diag.NewBag(16)
	reporter := diag.BagReporter{Bag: bag}

	result := BoxRecursiveData(context.Background(), types, reporter, []*DataDef{list}, nil)

	if result.HadError {
		t.Fatalf("boxing the single recursive field should break the cycle, not report an error: %+v", bag.Items())
	}
	site := BoxedSite{VariantIdx: 1, FieldIdx: 1}
	boxedTy, ok := list.Boxed[site]
	if !ok {
		t.Fatalf("expected Cons's second item (the List field) to be recorded as boxed")
	}
	boxedType, ok := types.Lookup(boxedTy)
	if !ok || boxedType.Kind != qtype.KindNamed || boxedType.Name.Path[0] != "Box" {
		t.Fatalf("expected the boxed field's type to be Box<...>, got %+v", boxedType)
	}
	if list.Variants[1].Items[1].Type != boxedTy {
		t.Fatalf("expected the DataDef's own field slice to carry the boxed type")
	}
}

func TestBoxRecursiveDataWrapsConstructorCallSites(t *testing.T) {
	types := qtype.NewInterner()
	intTy := types.Intern(qtype.Named(qtype.Name{Path: []string{"Int"}}))
	list := buildListDef(types, intTy)
	listTy := types.Intern(qtype.Named(qname.New("List").ToQType()))

	span := source.Span{}
	body := NewBody()
	bb := NewBodyBuilder(body)
	cur := bb.CreateBlock()

	headVar := Variable{Name: LocalName("head", 0), Type: intTy, Span: span}
	restVar := Variable{Name: LocalName("rest", 0), Type: listTy, Span: span}
	cur.AddInstruction(DeclareVarAt(span, headVar, false))
	cur.AddInstruction(DeclareVarAt(span, restVar, false))

	consDest := bb.CreateTempValue(listTy, span)
	cur.AddInstruction(FunctionCallAt(span, consDest, qname.New("List", "Cons"), []Variable{headVar, restVar}))
	cur.AddInstruction(ReturnAt(span, consDest))

	makeCons := &Function{Name: qname.New("makeCons"), Body: bb.Build(), Kind: KindUserDefined}
	consCtor := &Function{Name: qname.New("List", "Cons"), Kind: KindVariantCtor, Variant: 1}

	bag := diag.NewBag(16)
	reporter := diag.BagReporter{Bag: bag}

	result := BoxRecursiveData(context.Background(), types, reporter, []*DataDef{list}, []*Function{makeCons, consCtor})

	var rewritten *Function
	for _, fn := range result.Funcs {
		if fn.Name.Key() == makeCons.Name.Key() {
			rewritten = fn
		}
	}
	if rewritten == nil {
		t.Fatalf("expected makeCons to come back out of BoxRecursiveData")
	}

	foundBoxNew := false
	foundWrappedArg := false
	for _, blk := range rewritten.Body.Blocks() {
		for i, instr := range blk.Instrs {
			if instr.Kind == IFunctionCall && instr.FunctionCall.Name.Key() == BoxNewName.Key() {
				foundBoxNew = true
				boxedVar := instr.FunctionCall.Dest
				for _, later := range blk.Instrs[i+1:] {
					if later.Kind == IFunctionCall && later.FunctionCall.Name.Key() == qname.New("List", "Cons").Key() {
						for _, arg := range later.FunctionCall.Args {
							if arg.SameAs(boxedVar) {
								foundWrappedArg = true
							}
						}
					}
				}
			}
		}
	}
	if !foundBoxNew {
		t.Fatalf("expected a Box.new call to be inserted before the Cons constructor call")
	}
	if !foundWrappedArg {
		t.Fatalf("expected the Cons call's recursive argument to be replaced by the Box.new result")
	}
}
