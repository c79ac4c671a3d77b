// Package qtype defines the resolved type model the ownership pipeline
// consumes. Every variable entering the pipeline already carries one of
// these types; the pipeline never infers or re-checks them.
package qtype

import "fmt"

// Kind tags which case of the Type sum is populated.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindNamed is a nominal type: a qualified name plus type arguments,
	// e.g. List<Int> or Foo.
	KindNamed
	// KindTuple is an anonymous product of types.
	KindTuple
	// KindFunction is a function type (params, result).
	KindFunction
	// KindVar is an unresolved type variable; must not reach the pipeline
	// on a well-typed program (see isReference/isPtr/isNever contract).
	KindVar
	// KindReference is &T or &mut T.
	KindReference
	// KindPtr is a raw pointer *T.
	KindPtr
	// KindSelfType is the implicit receiver type inside a trait body.
	KindSelfType
	// KindNever is the bottom type of a function that does not return.
	KindNever
	// KindVoid is the unit/no-value type.
	KindVoid
	// KindVoidPtr is an untyped raw pointer, used by extern declarations.
	KindVoidPtr
	// KindNumericConstant is an unresolved numeric literal type.
	KindNumericConstant
)

func (k Kind) String() string {
	switch k {
	case KindNamed:
		return "named"
	case KindTuple:
		return "tuple"
	case KindFunction:
		return "function"
	case KindVar:
		return "var"
	case KindReference:
		return "reference"
	case KindPtr:
		return "ptr"
	case KindSelfType:
		return "self"
	case KindNever:
		return "never"
	case KindVoid:
		return "void"
	case KindVoidPtr:
		return "voidptr"
	case KindNumericConstant:
		return "numeric-constant"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Name is the minimal qualified-name shape qtype needs: a dotted module
// path only (a named type's arguments live in Type.TypeArgs).
// internal/qname.QualifiedName satisfies a superset of this and converts to
// it at the boundary; qtype itself stays free of a dependency on qname to
// avoid an import cycle (qname embeds []ID as its monomorphization context).
type Name struct {
	Path []string
}

func (n Name) String() string {
	s := ""
	for i, seg := range n.Path {
		if i > 0 {
			s += "."
		}
		s += seg
	}
	return s
}

// ID identifies a Type inside an Interner.
type ID uint32

// NoID marks the absence of a type.
const NoID ID = 0

// VarID identifies an unresolved type variable.
type VarID uint32

// Type is a compact descriptor for every case in the type sum. Exactly one
// payload field group is meaningful, selected by Kind: a single flat
// struct with a discriminant tag rather than an interface per case.
type Type struct {
	Kind Kind

	// KindNamed
	Name     Name
	TypeArgs []ID

	// KindTuple
	Elems []ID

	// KindFunction
	Params []ID
	Result ID

	// KindVar
	Var VarID

	// KindReference, KindPtr
	Elem    ID
	Mutable bool

	// KindNumericConstant
	Literal string
}

// Named builds a KindNamed type.
func Named(name Name, args ...ID) Type {
	return Type{Kind: KindNamed, Name: name, TypeArgs: args}
}

// TupleOf builds a KindTuple type.
func TupleOf(elems ...ID) Type {
	return Type{Kind: KindTuple, Elems: elems}
}

// FunctionOf builds a KindFunction type.
func FunctionOf(result ID, params ...ID) Type {
	return Type{Kind: KindFunction, Params: params, Result: result}
}

// VarOf builds a KindVar type.
func VarOf(id VarID) Type {
	return Type{Kind: KindVar, Var: id}
}

// ReferenceTo builds a KindReference type.
func ReferenceTo(elem ID, mutable bool) Type {
	return Type{Kind: KindReference, Elem: elem, Mutable: mutable}
}

// PtrTo builds a KindPtr type.
func PtrTo(elem ID) Type {
	return Type{Kind: KindPtr, Elem: elem}
}

// NumericConstant builds a KindNumericConstant type from its literal text.
func NumericConstant(literal string) Type {
	return Type{Kind: KindNumericConstant, Literal: literal}
}

var (
	// SelfType is the sentinel Self type inside a trait body.
	SelfType = Type{Kind: KindSelfType}
	// Never is the bottom type.
	Never = Type{Kind: KindNever}
	// Void is the unit type.
	Void = Type{Kind: KindVoid}
	// VoidPtr is the untyped pointer type used by extern declarations.
	VoidPtr = Type{Kind: KindVoidPtr}
)

// IsReference reports whether t is &T or &mut T.
func (t Type) IsReference() bool { return t.Kind == KindReference }

// IsPtr reports whether t is *T or an untyped void pointer.
func (t Type) IsPtr() bool { return t.Kind == KindPtr || t.Kind == KindVoidPtr }

// IsNever reports whether t is the bottom type.
func (t Type) IsNever() bool { return t.Kind == KindNever }

// UnpackRefElem returns the referent ID of a KindReference type and true, or
// (NoID, false) when t is not a reference. Resolving the referent Type
// itself requires an Interner; see Interner.UnpackRef.
func (t Type) UnpackRefElem() (ID, bool) {
	if t.Kind != KindReference {
		return NoID, false
	}
	return t.Elem, true
}
