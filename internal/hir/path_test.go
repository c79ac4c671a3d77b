package hir

import (
	"testing"

	"siko/internal/qtype"
	"siko/internal/source"
)

func testRootVar(name string, disambig uint32) Variable {
	return Variable{Name: LocalName(name, disambig)}
}

func TestPathContainsAndSharesPrefix(t *testing.T) {
	types := qtype.NewInterner()
	intTy := types.Intern(qtype.Named(qtype.Name{Path: []string{"Int"}}))

	root := testRootVar("p", 0)
	point := RootOnly(root)
	x := point.Extend(Named("x", intTy), testSpan())
	xy := x.Extend(Named("y", intTy), testSpan())

	if !point.Contains(x) {
		t.Fatalf("root path should contain its own field projection")
	}
	if x.Contains(point) {
		t.Fatalf("a field projection should not contain its own root")
	}
	if !x.Contains(x) {
		t.Fatalf("a path should contain itself")
	}
	if !point.Contains(xy) {
		t.Fatalf("root path should contain a nested projection")
	}
	if xy.Contains(x) {
		t.Fatalf("a longer path should not contain its own prefix")
	}

	other := RootOnly(testRootVar("q", 0))
	if point.Contains(other) || other.Contains(point) {
		t.Fatalf("paths with different roots should never contain one another")
	}

	if !x.SharesPrefixWith(xy) {
		t.Fatalf("a path should share a prefix with one of its own extensions")
	}
	if !xy.SharesPrefixWith(x) {
		t.Fatalf("SharesPrefixWith should be symmetric over the shorter length")
	}
}

func TestPathSameIsMutualContainment(t *testing.T) {
	types := qtype.NewInterner()
	intTy := types.Intern(qtype.Named(qtype.Name{Path: []string{"Int"}}))

	root := testRootVar("p", 0)
	a := RootOnly(root).Extend(Named("x", intTy), testSpan())
	b := RootOnly(root).Extend(Named("x", intTy), testSpan())
	c := RootOnly(root).Extend(Named("y", intTy), testSpan())

	if !a.Same(b) {
		t.Fatalf("two paths with identical root and segments should be Same")
	}
	if a.Same(c) {
		t.Fatalf("paths naming different fields should not be Same")
	}
}

func TestDropFlagVarNameFollowsSame(t *testing.T) {
	types := qtype.NewInterner()
	intTy := types.Intern(qtype.Named(qtype.Name{Path: []string{"Int"}}))

	root := testRootVar("p", 0)
	a := RootOnly(root).Extend(Named("x", intTy), testSpan())
	b := RootOnly(root).Extend(Named("x", intTy), testSpan())
	c := RootOnly(root).Extend(Named("y", intTy), testSpan())

	if a.DropFlagVarName() != b.DropFlagVarName() {
		t.Fatalf("Same paths must synthesize the same drop flag name")
	}
	if a.DropFlagVarName() == c.DropFlagVarName() {
		t.Fatalf("different paths must synthesize different drop flag names")
	}
}

func TestUserPathRendersDottedChain(t *testing.T) {
	types := qtype.NewInterner()
	intTy := types.Intern(qtype.Named(qtype.Name{Path: []string{"Int"}}))

	root := testRootVar("p", 0)
	path := RootOnly(root).Extend(Named("x", intTy), testSpan()).Extend(Indexed(0, intTy), testSpan())

	if got, want := path.UserPath(), "p.x.0"; got != want {
		t.Fatalf("UserPath() = %q, want %q", got, want)
	}
}

func testSpan() source.Span { return source.Span{} }
