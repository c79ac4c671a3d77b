package hir

import (
	"fmt"

	"siko/internal/qtype"
	"siko/internal/source"
)

// VarKind tags which disjoint naming scheme produced a VarName.
type VarKind uint8

const (
	// VarTemp is a compiler-generated temporary, identified by a numeric id
	// from the Body's monotone allocator.
	VarTemp VarKind = iota
	// VarLocal is a user-named local, disambiguated by an id to allow
	// shadowing within a function.
	VarLocal
	// VarArg is a function parameter.
	VarArg
	// VarDropFlag is a synthesized boolean tracking a Path's liveness,
	// named from that path's dotted rendering.
	VarDropFlag
)

func (k VarKind) String() string {
	switch k {
	case VarTemp:
		return "temp"
	case VarLocal:
		return "local"
	case VarArg:
		return "arg"
	case VarDropFlag:
		return "dropflag"
	default:
		return fmt.Sprintf("VarKind(%d)", k)
	}
}

// VarName is the name half of a Variable. Exactly one field group is
// meaningful, selected by Kind. VarName is comparable, so two Variables can
// be compared for identity (two variables are equal iff their names are
// equal) without also comparing Type or source location.
type VarName struct {
	Kind VarKind

	// VarTemp
	Temp uint32

	// VarLocal
	LocalName     string
	LocalDisambig uint32

	// VarArg
	ArgName string

	// VarDropFlag
	DropFlagOf string
}

// IsTemp is a total predicate on names.
func (n VarName) IsTemp() bool { return n.Kind == VarTemp }

// IsArg is a total predicate on names.
func (n VarName) IsArg() bool { return n.Kind == VarArg }

// IsDropFlag is a total predicate on names.
func (n VarName) IsDropFlag() bool { return n.Kind == VarDropFlag }

// IsLocal is a total predicate on names.
func (n VarName) IsLocal() bool { return n.Kind == VarLocal }

func (n VarName) String() string {
	switch n.Kind {
	case VarTemp:
		return fmt.Sprintf("%%t%d", n.Temp)
	case VarLocal:
		if n.LocalDisambig == 0 {
			return n.LocalName
		}
		return fmt.Sprintf("%s#%d", n.LocalName, n.LocalDisambig)
	case VarArg:
		return n.ArgName
	case VarDropFlag:
		return fmt.Sprintf("flag_%s", n.DropFlagOf)
	default:
		type rawVarName VarName
		return fmt.Sprintf("VarName(%+v)", rawVarName(n))
	}
}

// TempName builds the name of a compiler-generated temporary.
func TempName(id uint32) VarName { return VarName{Kind: VarTemp, Temp: id} }

// LocalName builds the name of a user-named local.
func LocalName(name string, disambig uint32) VarName {
	return VarName{Kind: VarLocal, LocalName: name, LocalDisambig: disambig}
}

// ArgName builds the name of a parameter.
func ArgName(name string) VarName { return VarName{Kind: VarArg, ArgName: name} }

// DropFlagName builds the name of a drop flag synthesized for a path's
// dotted rendering.
func DropFlagName(path string) VarName { return VarName{Kind: VarDropFlag, DropFlagOf: path} }

// Variable is a (name, type, source-location) triple. Identity follows the
// Name alone; see VarName's doc comment.
type Variable struct {
	Name Name
	Type qtype.ID
	Span source.Span
}

// Name is an alias kept distinct from VarName only for readability at call
// sites; it is the same type.
type Name = VarName

// SameAs reports whether v and o have equal names, the definition of
// variable equality used throughout this package.
func (v Variable) SameAs(o Variable) bool { return v.Name == o.Name }

func (v Variable) String() string { return v.Name.String() }
