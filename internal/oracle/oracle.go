// Package oracle defines the trait-resolution contract the ownership
// pipeline receives from the front-end. The pipeline never resolves trait
// implementations itself; it only ever asks these two read-only interfaces.
package oracle

import (
	"siko/internal/qname"
	"siko/internal/qtype"
)

// InstanceResolver answers the three structural trait queries the drop
// checker and recursive-data handler need. Implementations are expected to
// be immutable for the lifetime of a pipeline run.
type InstanceResolver interface {
	// IsCopy reports whether values of the given type can be implicitly
	// copied instead of moved.
	IsCopy(types *qtype.Interner, id qtype.ID) bool
	// IsDrop reports whether values of the given type run a destructor and
	// therefore need a drop flag at all.
	IsDrop(types *qtype.Interner, id qtype.ID) bool
	// IsImplicitConvert reports whether a value of type from may be used
	// where a value of type to is expected without an explicit conversion
	// instruction (e.g. a numeric widening).
	IsImplicitConvert(types *qtype.Interner, from, to qtype.ID) bool
}

// ImplementationResolver resolves the canonical implementation of a trait
// member for a concrete type, used by the drop checker when materializing
// an implicit clone call and by the recursive-data handler when boxing.
type ImplementationResolver interface {
	// ResolveClone returns the qualified name of the `clone` trait member
	// implementation for id, or ok=false if none is registered.
	ResolveClone(types *qtype.Interner, id qtype.ID) (qname.QualifiedName, bool)
	// ResolveDrop returns the qualified name of the `drop` trait member
	// implementation for id, or ok=false if the type has no destructor.
	ResolveDrop(types *qtype.Interner, id qtype.ID) (qname.QualifiedName, bool)
}
