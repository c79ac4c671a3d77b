package oracle

import (
	"testing"

	"siko/internal/qname"
	"siko/internal/qtype"
)

func TestIsCopyStructuralDefaults(t *testing.T) {
	types := qtype.NewInterner()
	r := NewMapResolver()

	intTy := types.Intern(qtype.Named(qtype.Name{Path: []string{"Int"}}))
	if r.IsCopy(types, intTy) {
		t.Fatalf("unregistered nominal type should not be Copy by default")
	}

	refTy := types.Intern(qtype.ReferenceTo(intTy, false))
	if !r.IsCopy(types, refTy) {
		t.Fatalf("shared reference should be Copy")
	}

	mutRefTy := types.Intern(qtype.ReferenceTo(intTy, true))
	if r.IsCopy(types, mutRefTy) {
		t.Fatalf("mutable reference should not be Copy")
	}

	ptrTy := types.Intern(qtype.PtrTo(intTy))
	if !r.IsCopy(types, ptrTy) {
		t.Fatalf("raw pointer should be Copy")
	}
}

func TestMarkCopyOverride(t *testing.T) {
	types := qtype.NewInterner()
	r := NewMapResolver()
	name := qname.New("Int")
	intTy := types.Intern(qtype.Named(name.ToQType()))

	if r.IsCopy(types, intTy) {
		t.Fatalf("expected Int not Copy before registration")
	}
	r.MarkCopy(name)
	if !r.IsCopy(types, intTy) {
		t.Fatalf("expected Int Copy after registration")
	}
}

func TestResolveClone(t *testing.T) {
	types := qtype.NewInterner()
	r := NewMapResolver()
	name := qname.New("Point")
	pointTy := types.Intern(qtype.Named(name.ToQType()))

	if _, ok := r.ResolveClone(types, pointTy); ok {
		t.Fatalf("expected no clone impl before registration")
	}
	impl := qname.New("Point", "clone")
	r.RegisterClone(name, impl)
	got, ok := r.ResolveClone(types, pointTy)
	if !ok || got.Key() != impl.Key() {
		t.Fatalf("expected registered clone impl, got %+v ok=%v", got, ok)
	}
}
