package hir

import (
	"fmt"

	"siko/internal/qname"
	"siko/internal/source"
)

// InstrKind tags which case of the Instr sum is populated. Every kind
// produces exactly one named result variable except the four terminator
// kinds (Jump, EnumSwitch, IntegerSwitch, Return) and the marker and
// placeholder kinds (BlockStart, BlockEnd, DropPath, DropMetadata).
type InstrKind uint8

const (
	IDeclareVar InstrKind = iota
	IAssign
	IFunctionCall
	IMethodCall           // pre-lowered to IFunctionCall before reaching this pipeline
	IDynamicFunctionCall  // pre-lowered to IFunctionCall before reaching this pipeline
	IFieldRef
	IFieldAssign
	IAddressOfField
	IPtrOf
	IRef
	ITuple
	ITransform
	IStringLiteral
	IIntegerLiteral
	ICharLiteral
	IJump
	IEnumSwitch
	IIntegerSwitch
	IReturn
	IBlockStart
	IBlockEnd
	IDrop
	IDropPath
	IDropMetadata
)

func (k InstrKind) String() string {
	names := [...]string{
		"DeclareVar", "Assign", "FunctionCall", "MethodCall", "DynamicFunctionCall",
		"FieldRef", "FieldAssign", "AddressOfField", "PtrOf", "Ref", "Tuple", "Transform",
		"StringLiteral", "IntegerLiteral", "CharLiteral",
		"Jump", "EnumSwitch", "IntegerSwitch", "Return",
		"BlockStart", "BlockEnd", "Drop", "DropPath", "DropMetadata",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return fmt.Sprintf("InstrKind(%d)", k)
}

// IsTerminator reports whether k ends a block.
func (k InstrKind) IsTerminator() bool {
	switch k {
	case IJump, IEnumSwitch, IIntegerSwitch, IReturn:
		return true
	default:
		return false
	}
}

// HasResult reports whether k produces a named result variable.
func (k InstrKind) HasResult() bool {
	switch k {
	case IBlockStart, IBlockEnd, IDropPath, IDropMetadata:
		return false
	}
	return !k.IsTerminator()
}

// DeclareVarInstr introduces a variable with no initializer.
type DeclareVarInstr struct {
	Var     Variable
	Mutable bool
}

// AssignInstr writes Src's value into Dest.
type AssignInstr struct {
	Dest Variable
	Src  Variable
}

// FunctionCallInstr invokes a statically resolved function.
type FunctionCallInstr struct {
	Dest Variable
	Name qname.QualifiedName
	Args []Variable
}

// FieldRefInstr projects Recv through a chain of named/indexed fields.
type FieldRefInstr struct {
	Dest   Variable
	Recv   Variable
	Fields []PathSegment
}

// FieldAssignInstr writes Rhs into Dest.fields.
type FieldAssignInstr struct {
	Dest   Variable
	Fields []PathSegment
	Rhs    Variable
}

// AddressOfFieldInstr takes a raw address of a field projection; invisible
// to the ownership tracker.
type AddressOfFieldInstr struct {
	Dest   Variable
	Recv   Variable
	Fields []PathSegment
}

// PtrOfInstr takes a raw pointer to a variable; invisible to the ownership
// tracker.
type PtrOfInstr struct {
	Dest Variable
	Src  Variable
}

// RefInstr borrows Src into Dest.
type RefInstr struct {
	Dest Variable
	Src  Variable
	Mut  bool
}

// TupleInstr constructs a tuple from Args.
type TupleInstr struct {
	Dest Variable
	Args []Variable
}

// TransformInstr projects Src into enum/struct variant VariantIdx, used for
// match-arm binding after the match compiler lowers patterns.
type TransformInstr struct {
	Dest       Variable
	Src        Variable
	VariantIdx uint32
}

// LiteralInstr covers StringLiteral/IntegerLiteral/CharLiteral: all three
// are pure writes whose operand text is carried verbatim.
type LiteralInstr struct {
	Dest Variable
	Text string
}

// JumpInstr unconditionally transfers control to Target.
type JumpInstr struct {
	Target BlockID
}

// SwitchCase pairs a tag value (enum variant index, or integer value for
// IntegerSwitch) with its target block.
type SwitchCase struct {
	Tag    uint64
	Target BlockID
}

// EnumSwitchInstr dispatches on an enum-typed scrutinee's tag.
type EnumSwitchInstr struct {
	Scrutinee Variable
	Cases     []SwitchCase
	Default   BlockID
}

// IntegerSwitchInstr dispatches on an integer-typed scrutinee's value.
type IntegerSwitchInstr struct {
	Scrutinee Variable
	Cases     []SwitchCase
	Default   BlockID
}

// ReturnInstr is a function's final use of Arg.
type ReturnInstr struct {
	Arg Variable
}

// BlockMarkerInstr carries the syntax-block id for BlockStart/BlockEnd.
type BlockMarkerInstr struct {
	Syntax SyntaxBlockID
}

// DropInstr is an unconditional drop of Var, inserted by the finalizer.
type DropInstr struct {
	Result Variable
	Var    Variable
}

// DropPathInstr is a placeholder the drop checker inserts at the exact
// point a path's liveness changes. Live is the
// value the path's drop flag must be set to; the finalizer's materialize
// pass converts this into a concrete Bool-constructor assignment to the
// flag variable and removes the placeholder, so DropPath never survives to
// the external interface.
type DropPathInstr struct {
	Target Path
	Live   bool
}

// DropMetadataKind tags which DropMetadata payload is carried.
type DropMetadataKind uint8

const (
	// DeclarationList marks where the finalizer must declare and
	// zero-initialize every drop flag needed within a syntax block.
	DeclarationList DropMetadataKind = iota
)

// DropMetadataInstr is a placeholder the drop checker inserts; the
// finalizer consumes it to emit flag declarations.
type DropMetadataInstr struct {
	Kind   DropMetadataKind
	Syntax SyntaxBlockID
}

// Instr is a single HIR instruction. Exactly one of the payload fields is
// meaningful, selected by Kind, a flat sum-type encoding generalized to
// this pipeline's instruction set.
type Instr struct {
	Kind InstrKind
	Span source.Span

	DeclareVar     DeclareVarInstr
	Assign         AssignInstr
	FunctionCall   FunctionCallInstr
	FieldRef       FieldRefInstr
	FieldAssign    FieldAssignInstr
	AddressOfField AddressOfFieldInstr
	PtrOf          PtrOfInstr
	Ref            RefInstr
	Tuple          TupleInstr
	Transform      TransformInstr
	Literal        LiteralInstr
	Jump           JumpInstr
	EnumSwitch     EnumSwitchInstr
	IntegerSwitch  IntegerSwitchInstr
	Return         ReturnInstr
	BlockMarker    BlockMarkerInstr
	Drop           DropInstr
	DropPath       DropPathInstr
	DropMetadata   DropMetadataInstr
}

// Result returns the variable this instruction writes and true, or
// (Variable{}, false) for a terminator or a marker/placeholder with no
// result.
func (i Instr) Result() (Variable, bool) {
	switch i.Kind {
	case IDeclareVar:
		return i.DeclareVar.Var, true
	case IAssign:
		return i.Assign.Dest, true
	case IFunctionCall, IMethodCall, IDynamicFunctionCall:
		return i.FunctionCall.Dest, true
	case IFieldRef:
		return i.FieldRef.Dest, true
	case IFieldAssign:
		return i.FieldAssign.Dest, true
	case IAddressOfField:
		return i.AddressOfField.Dest, true
	case IPtrOf:
		return i.PtrOf.Dest, true
	case IRef:
		return i.Ref.Dest, true
	case ITuple:
		return i.Tuple.Dest, true
	case ITransform:
		return i.Transform.Dest, true
	case IStringLiteral, IIntegerLiteral, ICharLiteral:
		return i.Literal.Dest, true
	case IDrop:
		return i.Drop.Result, true
	default:
		return Variable{}, false
	}
}

// Targets returns the block ids a terminator instruction may transfer
// control to.
func (i Instr) Targets() []BlockID {
	switch i.Kind {
	case IJump:
		return []BlockID{i.Jump.Target}
	case IReturn:
		return nil
	case IEnumSwitch:
		return switchTargets(i.EnumSwitch.Cases, i.EnumSwitch.Default)
	case IIntegerSwitch:
		return switchTargets(i.IntegerSwitch.Cases, i.IntegerSwitch.Default)
	default:
		return nil
	}
}

func switchTargets(cases []SwitchCase, def BlockID) []BlockID {
	out := make([]BlockID, 0, len(cases)+1)
	for _, c := range cases {
		out = append(out, c.Target)
	}
	if def.IsValid() {
		out = append(out, def)
	}
	return out
}

// DeclareVarAt builds a DeclareVar instruction.
func DeclareVarAt(span source.Span, v Variable, mutable bool) Instr {
	return Instr{Kind: IDeclareVar, Span: span, DeclareVar: DeclareVarInstr{Var: v, Mutable: mutable}}
}

// AssignAt builds an Assign instruction.
func AssignAt(span source.Span, dest, src Variable) Instr {
	return Instr{Kind: IAssign, Span: span, Assign: AssignInstr{Dest: dest, Src: src}}
}

// ReturnAt builds a Return terminator.
func ReturnAt(span source.Span, arg Variable) Instr {
	return Instr{Kind: IReturn, Span: span, Return: ReturnInstr{Arg: arg}}
}

// JumpAt builds a Jump terminator.
func JumpAt(span source.Span, target BlockID) Instr {
	return Instr{Kind: IJump, Span: span, Jump: JumpInstr{Target: target}}
}

// RefAt builds a Ref instruction.
func RefAt(span source.Span, dest, src Variable) Instr {
	return Instr{Kind: IRef, Span: span, Ref: RefInstr{Dest: dest, Src: src}}
}

// FieldRefAt builds a FieldRef instruction.
func FieldRefAt(span source.Span, dest, recv Variable, fields []PathSegment) Instr {
	return Instr{Kind: IFieldRef, Span: span, FieldRef: FieldRefInstr{Dest: dest, Recv: recv, Fields: fields}}
}

// FunctionCallAt builds a FunctionCall instruction.
func FunctionCallAt(span source.Span, dest Variable, name qname.QualifiedName, args []Variable) Instr {
	return Instr{Kind: IFunctionCall, Span: span, FunctionCall: FunctionCallInstr{Dest: dest, Name: name, Args: args}}
}

// DropAt builds an unconditional Drop instruction.
func DropAt(span source.Span, result, v Variable) Instr {
	return Instr{Kind: IDrop, Span: span, Drop: DropInstr{Result: result, Var: v}}
}

// DropPathAt builds a DropPath placeholder recording that target's drop
// flag must be set to live at this point in the instruction stream.
func DropPathAt(span source.Span, target Path, live bool) Instr {
	return Instr{Kind: IDropPath, Span: span, DropPath: DropPathInstr{Target: target, Live: live}}
}

// DropMetadataAt builds a DropMetadata placeholder.
func DropMetadataAt(span source.Span, kind DropMetadataKind, syntax SyntaxBlockID) Instr {
	return Instr{Kind: IDropMetadata, Span: span, DropMetadata: DropMetadataInstr{Kind: kind, Syntax: syntax}}
}

// BlockStartAt / BlockEndAt build the syntax-block delimiter markers.
func BlockStartAt(span source.Span, syntax SyntaxBlockID) Instr {
	return Instr{Kind: IBlockStart, Span: span, BlockMarker: BlockMarkerInstr{Syntax: syntax}}
}

func BlockEndAt(span source.Span, syntax SyntaxBlockID) Instr {
	return Instr{Kind: IBlockEnd, Span: span, BlockMarker: BlockMarkerInstr{Syntax: syntax}}
}

// EnumSwitchAt builds an EnumSwitch terminator.
func EnumSwitchAt(span source.Span, scrutinee Variable, cases []SwitchCase, def BlockID) Instr {
	return Instr{Kind: IEnumSwitch, Span: span, EnumSwitch: EnumSwitchInstr{Scrutinee: scrutinee, Cases: cases, Default: def}}
}
