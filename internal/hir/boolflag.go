package hir

import (
	"siko/internal/qname"
	"siko/internal/qtype"
	"siko/internal/source"
)

// Drop flags are ordinary Bool-typed locals; they are set via the boolean
// constructor calls `true`/`false`, which this pipeline models as
// zero-argument calls to the Bool enum's two nullary variant constructors
// rather than a dedicated literal kind — the same instruction shape
// (FunctionCall) the constant evaluator already knows how to fold.
var (
	BoolFalseCtor = qname.New("Bool", "False")
	BoolTrueCtor  = qname.New("Bool", "True")
)

// BoolTypeID interns and returns the id of the Bool nominal type.
func BoolTypeID(types *qtype.Interner) qtype.ID {
	return types.Intern(qtype.Named(qtype.Name{Path: []string{"Bool"}}))
}

// NewDropFlag allocates the Variable for path's drop flag, typed Bool.
func NewDropFlag(types *qtype.Interner, path Path, span source.Span) Variable {
	return Variable{Name: path.DropFlagVarName(), Type: BoolTypeID(types), Span: span}
}

// SetFlagInstr builds the FunctionCall that assigns live's boolean
// constructor result into flag.
func SetFlagInstr(span source.Span, flag Variable, live bool) Instr {
	ctor := BoolFalseCtor
	if live {
		ctor = BoolTrueCtor
	}
	return FunctionCallAt(span, flag, ctor, nil)
}

// IsBoolCtorCall reports whether i is a call to one of the Bool nullary
// constructors, and if so which value it produces.
func IsBoolCtorCall(i Instr) (live bool, ok bool) {
	if i.Kind != IFunctionCall {
		return false, false
	}
	switch i.FunctionCall.Name.Key() {
	case BoolTrueCtor.Key():
		return true, true
	case BoolFalseCtor.Key():
		return false, true
	default:
		return false, false
	}
}
