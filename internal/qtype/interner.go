package qtype

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
)

// Builtins stores IDs for the handful of types that have no structural
// payload and are interned once up front.
type Builtins struct {
	Void    ID
	Never   ID
	VoidPtr ID
	SelfTy  ID
}

// Interner assigns stable IDs to structurally-equal Types. Type carries
// slice payloads (type args, tuple elements, function params), so the dedup
// key is a rendered string rather than a flat comparable struct.
type Interner struct {
	types    []Type
	index    map[string]ID
	builtins Builtins
}

// NewInterner returns an Interner seeded with the payload-free builtins.
func NewInterner() *Interner {
	in := &Interner{index: make(map[string]ID, 64)}
	in.types = append(in.types, Type{Kind: KindInvalid}) // reserve 0 = NoID
	in.builtins.Void = in.Intern(Void)
	in.builtins.Never = in.Intern(Never)
	in.builtins.VoidPtr = in.Intern(VoidPtr)
	in.builtins.SelfTy = in.Intern(SelfType)
	return in
}

// Builtins returns the IDs of the payload-free sentinel types.
func (in *Interner) Builtins() Builtins { return in.builtins }

// Intern returns a stable ID for t, allocating a new one on first sight.
func (in *Interner) Intern(t Type) ID {
	if t.Kind == KindInvalid {
		return NoID
	}
	key := typeKey(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("qtype: interner overflow: %w", err))
	}
	id := ID(lenTypes)
	in.types = append(in.types, t)
	in.index[key] = id
	return id
}

// Lookup returns the Type for id.
func (in *Interner) Lookup(id ID) (Type, bool) {
	if id == NoID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics if id is invalid; used once a program is assumed
// well-typed and every ID is known to have been interned.
func (in *Interner) MustLookup(id ID) Type {
	t, ok := in.Lookup(id)
	if !ok {
		panic("qtype: invalid type ID")
	}
	return t
}

// UnpackRef resolves one layer of reference, returning the referent Type and
// true, or (Type{}, false) if id does not name a reference.
func (in *Interner) UnpackRef(id ID) (Type, bool) {
	t, ok := in.Lookup(id)
	if !ok || !t.IsReference() {
		return Type{}, false
	}
	return in.MustLookup(t.Elem), true
}

func typeKey(t Type) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d", t.Kind)
	switch t.Kind {
	case KindNamed:
		fmt.Fprintf(&b, ":%s", t.Name)
		for _, a := range t.TypeArgs {
			fmt.Fprintf(&b, ",%d", a)
		}
	case KindTuple:
		for _, e := range t.Elems {
			fmt.Fprintf(&b, ",%d", e)
		}
	case KindFunction:
		fmt.Fprintf(&b, ":%d", t.Result)
		for _, p := range t.Params {
			fmt.Fprintf(&b, ",%d", p)
		}
	case KindVar:
		fmt.Fprintf(&b, ":%d", t.Var)
	case KindReference, KindPtr:
		fmt.Fprintf(&b, ":%d:%v", t.Elem, t.Mutable)
	case KindNumericConstant:
		fmt.Fprintf(&b, ":%s", t.Literal)
	}
	return b.String()
}
