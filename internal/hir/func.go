package hir

import (
	"siko/internal/qname"
	"siko/internal/qtype"
	"siko/internal/source"
)

// Param is one formal parameter of a Function.
type Param struct {
	Name string
	Type qtype.ID
	Span source.Span
}

// FuncKind tags the provenance of a Function.
type FuncKind uint8

const (
	// KindUserDefined is an ordinary function or method body.
	KindUserDefined FuncKind = iota
	// KindVariantCtor is a synthesized enum variant constructor; Variant
	// holds the variant's tag index.
	KindVariantCtor
	// KindStructCtor is a synthesized struct constructor.
	KindStructCtor
	// KindExternC is an extern "C" declaration with no body.
	KindExternC
	// KindExternBuiltin is a compiler-intrinsic declaration with no body.
	KindExternBuiltin
	// KindTraitMemberDecl is a trait method signature with no default body.
	KindTraitMemberDecl
	// KindTraitMemberDef is a trait method's default body.
	KindTraitMemberDef
)

// HasBody reports whether functions of this kind are required to carry a
// Body.
func (k FuncKind) HasBody() bool {
	switch k {
	case KindExternC, KindExternBuiltin, KindTraitMemberDecl:
		return false
	default:
		return true
	}
}

// ConstraintContext is the set of trait bounds a generic Function requires
// of its type parameters, carried through unchanged by this pipeline (bound
// resolution is the type checker's job; the pipeline only needs to know a
// bound exists when asking the oracle to resolve an implementation).
type ConstraintContext struct {
	Bounds []qname.QualifiedName
}

// Function is (name, parameters, result-type, optional body, constraint
// context, kind).
type Function struct {
	Name    qname.QualifiedName
	Params  []Param
	Result  qtype.ID
	Body    *Body
	Ctx     ConstraintContext
	Kind    FuncKind
	Variant uint32 // meaningful iff Kind == KindVariantCtor

	// Inline marks a function the inliner is allowed to
	// splice into a non-group caller.
	Inline bool
	// Group names the mutual-recursion group Name belongs to, so the
	// inliner can skip callees already in the caller's own group (inlining
	// into your own group risks unbounded expansion).
	Group string
}

// Validate checks the structural invariants Function and Body must hold,
// panicking on the first violation (these are never expected on well-typed
// input).
func (f *Function) Validate() {
	if f.Kind.HasBody() && f.Body == nil {
		panic("hir: non-extern function has no body: " + f.Name.String())
	}
	if f.Body == nil {
		return
	}
	if !f.Body.HasEntry() {
		panic("hir: function body missing entry block: " + f.Name.String())
	}
	for _, blk := range f.Body.Blocks() {
		if !blk.IsTerminated() {
			panic("hir: block not terminated: " + f.Name.String() + " " + blk.ID.String())
		}
		for _, instr := range blk.Instrs[:len(blk.Instrs)-1] {
			if instr.Kind.IsTerminator() {
				panic("hir: terminator found before end of block: " + f.Name.String())
			}
		}
		for _, target := range blk.Instrs[len(blk.Instrs)-1].Targets() {
			if f.Body.Block(target) == nil {
				panic("hir: jump to missing block id: " + f.Name.String() + " -> " + target.String())
			}
		}
	}
}
