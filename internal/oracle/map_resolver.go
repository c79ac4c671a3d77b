package oracle

import (
	"siko/internal/qname"
	"siko/internal/qtype"
)

// MapResolver is a default, in-memory InstanceResolver/ImplementationResolver
// backed by explicit registration, used by the fixture loader and by tests.
// A real front-end would instead answer these queries from its resolved
// instance table; this package exists so the pipeline can be exercised
// without one. An override map is consulted first, falling back to a
// structural default per Kind.
type MapResolver struct {
	copyNamed  map[string]struct{}
	dropNamed  map[string]struct{}
	cloneImpls map[string]qname.QualifiedName
	dropImpls  map[string]qname.QualifiedName
	convert    map[[2]qtype.ID]struct{}
}

// NewMapResolver returns an empty resolver; use the With* methods to
// register facts about nominal types before running the pipeline.
func NewMapResolver() *MapResolver {
	return &MapResolver{
		copyNamed:  make(map[string]struct{}),
		dropNamed:  make(map[string]struct{}),
		cloneImpls: make(map[string]qname.QualifiedName),
		dropImpls:  make(map[string]qname.QualifiedName),
		convert:    make(map[[2]qtype.ID]struct{}),
	}
}

// MarkCopy records that values of the named nominal type may be implicitly
// copied.
func (r *MapResolver) MarkCopy(name qname.QualifiedName) {
	r.copyNamed[name.Key()] = struct{}{}
}

// MarkDrop records that values of the named nominal type run a destructor.
func (r *MapResolver) MarkDrop(name qname.QualifiedName) {
	r.dropNamed[name.Key()] = struct{}{}
}

// RegisterClone registers the canonical `clone` implementation for a nominal
// type.
func (r *MapResolver) RegisterClone(name qname.QualifiedName, impl qname.QualifiedName) {
	r.cloneImpls[name.Key()] = impl
}

// RegisterDrop registers the canonical `drop` implementation for a nominal
// type.
func (r *MapResolver) RegisterDrop(name qname.QualifiedName, impl qname.QualifiedName) {
	r.dropImpls[name.Key()] = impl
}

// AllowImplicitConvert registers that a value of type from may be used where
// a value of type to is expected without an explicit conversion.
func (r *MapResolver) AllowImplicitConvert(from, to qtype.ID) {
	r.convert[[2]qtype.ID{from, to}] = struct{}{}
}

// IsCopy implements InstanceResolver. Structural defaults: references are
// Copy iff immutable, pointers and function types are always Copy,
// Void/Never carry no data and are Copy by convention (dropping them is a
// no-op either way), nominal types default to not-Copy unless explicitly
// registered.
func (r *MapResolver) IsCopy(types *qtype.Interner, id qtype.ID) bool {
	t, ok := types.Lookup(id)
	if !ok {
		return false
	}
	switch t.Kind {
	case qtype.KindReference:
		return !t.Mutable
	case qtype.KindPtr, qtype.KindVoidPtr, qtype.KindFunction, qtype.KindVoid, qtype.KindNever, qtype.KindNumericConstant:
		return true
	case qtype.KindNamed:
		_, ok := r.copyNamed[t.Name.String()]
		return ok
	default:
		return false
	}
}

// IsDrop implements InstanceResolver. A type needs a destructor only if it
// is a nominal type explicitly registered with MarkDrop; every other kind,
// references included, reports false.
func (r *MapResolver) IsDrop(types *qtype.Interner, id qtype.ID) bool {
	t, ok := types.Lookup(id)
	if !ok {
		return false
	}
	switch t.Kind {
	case qtype.KindNamed:
		_, ok := r.dropNamed[t.Name.String()]
		return ok
	default:
		return false
	}
}

// IsImplicitConvert implements InstanceResolver.
func (r *MapResolver) IsImplicitConvert(types *qtype.Interner, from, to qtype.ID) bool {
	if from == to {
		return true
	}
	_, ok := r.convert[[2]qtype.ID{from, to}]
	return ok
}

// ResolveClone implements ImplementationResolver.
func (r *MapResolver) ResolveClone(types *qtype.Interner, id qtype.ID) (qname.QualifiedName, bool) {
	t, ok := types.Lookup(id)
	if !ok || t.Kind != qtype.KindNamed {
		return qname.QualifiedName{}, false
	}
	impl, ok := r.cloneImpls[t.Name.String()]
	return impl, ok
}

// ResolveDrop implements ImplementationResolver.
func (r *MapResolver) ResolveDrop(types *qtype.Interner, id qtype.ID) (qname.QualifiedName, bool) {
	t, ok := types.Lookup(id)
	if !ok || t.Kind != qtype.KindNamed {
		return qname.QualifiedName{}, false
	}
	impl, ok := r.dropImpls[t.Name.String()]
	return impl, ok
}
