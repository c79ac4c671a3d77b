// Package fixture loads a program.Program and an oracle.MapResolver from a
// JSON document, standing in for the front-end (lexer/parser/type
// checker/trait resolver) this pipeline does not implement. cmd/siko's
// `check` subcommand reads one of these per input file; internal/hir's own
// tests build programs directly through BodyBuilder instead, since a Go
// literal is more convenient than JSON for a handful of instructions.
//
// The JSON shape mirrors the HIR types directly wherever they are already
// plain exported structs (hir.PathSegment, the switch-case list) and only
// introduces its own vocabulary where the real types need values that do
// not exist yet at load time: types and variables are named by string and
// resolved against tables built up as the document is read, not by
// pre-assigned numeric id.
package fixture

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"siko/internal/hir"
	"siko/internal/oracle"
	"siko/internal/program"
	"siko/internal/qname"
	"siko/internal/qtype"
	"siko/internal/source"
)

// Document is the root of a fixture file.
type Document struct {
	Types []typeDecl  `json:"types"`
	Defs  []defDecl   `json:"defs"`
	Funcs []funcDecl  `json:"funcs"`
	Facts oracleFacts `json:"oracle"`
}

type typeDecl struct {
	ID       string   `json:"id"`
	Kind     string   `json:"kind"`
	Path     []string `json:"path,omitempty"`     // named
	TypeArgs []string `json:"typeArgs,omitempty"` // named
	Elems    []string `json:"elems,omitempty"`    // tuple
	Params   []string `json:"params,omitempty"`   // function
	Result   string   `json:"result,omitempty"`   // function
	Elem     string   `json:"elem,omitempty"`     // reference, ptr
	Mutable  bool     `json:"mutable,omitempty"`  // reference
	Literal  string   `json:"literal,omitempty"`  // numeric-constant
}

type fieldDecl struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type variantDecl struct {
	Name  string      `json:"name"`
	Items []fieldDecl `json:"items"`
}

type defDecl struct {
	Name     []string      `json:"name"`
	Kind     string        `json:"kind"` // struct | enum
	Fields   []fieldDecl   `json:"fields,omitempty"`
	Variants []variantDecl `json:"variants,omitempty"`
}

type paramDecl struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type funcDecl struct {
	Name   []string    `json:"name"`
	Params []paramDecl `json:"params"`
	Result string      `json:"result"`
	Inline bool        `json:"inline,omitempty"`
	Group  string      `json:"group,omitempty"`
	Blocks []blockDecl `json:"blocks"`
}

type blockDecl struct {
	Instrs []instrDecl `json:"instrs"`
}

type pathSegDecl struct {
	Kind  string `json:"kind"` // named | indexed
	Field string `json:"field,omitempty"`
	Index uint32 `json:"index,omitempty"`
	Type  string `json:"type"`
}

type switchCaseDecl struct {
	Tag    uint64 `json:"tag"`
	Target int    `json:"target"`
}

// instrDecl is a tagged union over every instruction op a fixture can
// express; only the fields relevant to Op are read.
type instrDecl struct {
	Op string `json:"op"`

	Var     string `json:"var,omitempty"`
	Type    string `json:"type,omitempty"`
	Mutable bool   `json:"mutable,omitempty"`

	Dest string   `json:"dest,omitempty"`
	Src  string   `json:"src,omitempty"`
	Recv string   `json:"recv,omitempty"`
	Rhs  string   `json:"rhs,omitempty"`
	Arg  string   `json:"arg,omitempty"`
	Args []string `json:"args,omitempty"`

	Name []string `json:"name,omitempty"` // function call target

	Fields []pathSegDecl `json:"fields,omitempty"`

	Kind string `json:"kind,omitempty"` // literal kind: string|integer|char
	Text string `json:"text,omitempty"`

	VariantIdx uint32 `json:"variantIdx,omitempty"`
	Syntax     uint32 `json:"syntax,omitempty"` // block_start, block_end

	Target  int              `json:"target,omitempty"`  // jump
	Cases   []switchCaseDecl `json:"cases,omitempty"`   // enum_switch, integer_switch
	Default int              `json:"default,omitempty"` // block index, or -1 for none
}

type oracleFacts struct {
	Copy    [][]string          `json:"copy,omitempty"`    // list of qname paths marked Copy
	Drop    [][]string          `json:"drop,omitempty"`    // list of qname paths marked Drop
	Clone   map[string][]string `json:"clone,omitempty"`   // type path (dotted) -> impl path
	DropImp map[string][]string `json:"dropImpl,omitempty"` // type path (dotted) -> impl path
}

// LoadFile reads and builds a program.Program and oracle.MapResolver from
// the JSON fixture at path. fileID is stamped onto every instruction's
// span (at offset 0) so cmd/siko's diagfmt rendering has a real file to
// point diagnostics at; pass source.FileID(0) (or any id from a FileSet the
// caller registered path under) rather than a bare zero value cobbled
// together ad hoc.
func LoadFile(path string, fileID source.FileID, types *qtype.Interner) (*program.Program, *oracle.MapResolver, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close() //nolint:errcheck
	return Load(f, fileID, types)
}

// Load builds a program.Program and oracle.MapResolver from r, stamping
// fileID onto every instruction's span.
func Load(r io.Reader, fileID source.FileID, types *qtype.Interner) (*program.Program, *oracle.MapResolver, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("fixture: decode: %w", err)
	}

	b := &builder{types: types, byName: make(map[string]qtype.ID), span: source.Span{File: fileID}, names: source.NewInterner()}
	if err := b.internTypes(doc.Types); err != nil {
		return nil, nil, err
	}

	p := program.New(types)
	for _, d := range doc.Defs {
		def, err := b.buildDef(d)
		if err != nil {
			return nil, nil, err
		}
		p.AddDef(def)
	}
	for _, fd := range doc.Funcs {
		fn, err := b.buildFunc(fd)
		if err != nil {
			return nil, nil, fmt.Errorf("fixture: func %v: %w", fd.Name, err)
		}
		p.AddFunc(fn)
	}

	resolver, err := b.buildResolver(doc.Facts)
	if err != nil {
		return nil, nil, err
	}
	return p, resolver, nil
}

type builder struct {
	types  *qtype.Interner
	byName map[string]qtype.ID
	span   source.Span
	names  *source.Interner // dedupes field names across every PathSegment the document defines
}

func (b *builder) resolveType(id string) (qtype.ID, error) {
	switch id {
	case "", "noid":
		return qtype.NoID, nil
	case "void":
		return b.types.Builtins().Void, nil
	case "never":
		return b.types.Builtins().Never, nil
	case "voidptr":
		return b.types.Builtins().VoidPtr, nil
	case "self":
		return b.types.Builtins().SelfTy, nil
	}
	tid, ok := b.byName[id]
	if !ok {
		return qtype.NoID, fmt.Errorf("fixture: undeclared type id %q (declare it earlier in \"types\")", id)
	}
	return tid, nil
}

func (b *builder) resolveTypes(ids []string) ([]qtype.ID, error) {
	out := make([]qtype.ID, len(ids))
	for i, id := range ids {
		tid, err := b.resolveType(id)
		if err != nil {
			return nil, err
		}
		out[i] = tid
	}
	return out, nil
}

// internTypes interns each declared type in document order, so later
// declarations may reference earlier ones by id but not vice versa.
func (b *builder) internTypes(decls []typeDecl) error {
	for _, d := range decls {
		var t qtype.Type
		switch d.Kind {
		case "named":
			args, err := b.resolveTypes(d.TypeArgs)
			if err != nil {
				return fmt.Errorf("fixture: type %q: %w", d.ID, err)
			}
			t = qtype.Named(qtype.Name{Path: d.Path}, args...)
		case "tuple":
			elems, err := b.resolveTypes(d.Elems)
			if err != nil {
				return fmt.Errorf("fixture: type %q: %w", d.ID, err)
			}
			t = qtype.TupleOf(elems...)
		case "function":
			params, err := b.resolveTypes(d.Params)
			if err != nil {
				return fmt.Errorf("fixture: type %q: %w", d.ID, err)
			}
			result, err := b.resolveType(d.Result)
			if err != nil {
				return fmt.Errorf("fixture: type %q: %w", d.ID, err)
			}
			t = qtype.FunctionOf(result, params...)
		case "reference":
			elem, err := b.resolveType(d.Elem)
			if err != nil {
				return fmt.Errorf("fixture: type %q: %w", d.ID, err)
			}
			t = qtype.ReferenceTo(elem, d.Mutable)
		case "ptr":
			elem, err := b.resolveType(d.Elem)
			if err != nil {
				return fmt.Errorf("fixture: type %q: %w", d.ID, err)
			}
			t = qtype.PtrTo(elem)
		case "numeric-constant":
			t = qtype.NumericConstant(d.Literal)
		default:
			return fmt.Errorf("fixture: type %q: unknown kind %q", d.ID, d.Kind)
		}
		b.byName[d.ID] = b.types.Intern(t)
	}
	return nil
}

func (b *builder) buildDef(d defDecl) (*hir.DataDef, error) {
	def := &hir.DataDef{Name: qname.New(d.Name...)}
	switch d.Kind {
	case "struct":
		def.Kind = hir.DataStruct
		for _, f := range d.Fields {
			tid, err := b.resolveType(f.Type)
			if err != nil {
				return nil, err
			}
			def.Fields = append(def.Fields, hir.Field{Name: f.Name, Type: tid})
		}
	case "enum":
		def.Kind = hir.DataEnum
		for _, v := range d.Variants {
			variant := hir.Variant{Name: v.Name}
			for _, item := range v.Items {
				tid, err := b.resolveType(item.Type)
				if err != nil {
					return nil, err
				}
				variant.Items = append(variant.Items, hir.Field{Name: item.Name, Type: tid})
			}
			def.Variants = append(def.Variants, variant)
		}
	default:
		return nil, fmt.Errorf("fixture: def %v: unknown kind %q", d.Name, d.Kind)
	}
	return def, nil
}

// funcBuilder tracks the variable environment while one function's blocks
// are read, plus the BodyBuilder those instructions are appended through.
type funcBuilder struct {
	*builder
	env map[string]hir.Variable
	bb  *hir.BodyBuilder
}

func (b *builder) buildFunc(fd funcDecl) (*hir.Function, error) {
	result, err := b.resolveType(fd.Result)
	if err != nil {
		return nil, err
	}

	fn := &hir.Function{
		Name:   qname.New(fd.Name...),
		Result: result,
		Kind:   hir.KindUserDefined,
		Inline: fd.Inline,
		Group:  fd.Group,
	}

	fb := &funcBuilder{builder: b, env: make(map[string]hir.Variable), bb: hir.NewBodyBuilder(nil)}
	for _, p := range fd.Params {
		tid, err := b.resolveType(p.Type)
		if err != nil {
			return nil, err
		}
		v := hir.Variable{Name: hir.ArgName(p.Name), Type: tid}
		fn.Params = append(fn.Params, hir.Param{Name: p.Name, Type: tid})
		fb.env[p.Name] = v
	}

	for _, blockDecl := range fd.Blocks {
		cur := fb.bb.CreateBlock()
		for _, instr := range blockDecl.Instrs {
			if err := fb.addInstr(cur, instr); err != nil {
				return nil, fmt.Errorf("block %s: %w", cur.BlockID(), err)
			}
		}
	}

	fn.Body = fb.bb.Build()
	return fn, nil
}

func (fb *funcBuilder) lookup(name string) (hir.Variable, error) {
	v, ok := fb.env[name]
	if !ok {
		return hir.Variable{}, fmt.Errorf("undeclared variable %q", name)
	}
	return v, nil
}

func (fb *funcBuilder) lookupAll(names []string) ([]hir.Variable, error) {
	out := make([]hir.Variable, len(names))
	for i, n := range names {
		v, err := fb.lookup(n)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// internField canonicalizes a field name through the document's shared
// Interner, so every PathSegment naming e.g. "next" across the whole
// program shares one string header instead of one per JSON token.
func (fb *funcBuilder) internField(name string) string {
	return fb.names.MustLookup(fb.names.Intern(name))
}

func (fb *funcBuilder) fields(decls []pathSegDecl) ([]hir.PathSegment, error) {
	out := make([]hir.PathSegment, len(decls))
	for i, d := range decls {
		tid, err := fb.resolveType(d.Type)
		if err != nil {
			return nil, err
		}
		switch d.Kind {
		case "named":
			out[i] = hir.Named(fb.internField(d.Field), tid)
		case "indexed":
			out[i] = hir.Indexed(d.Index, tid)
		default:
			return nil, fmt.Errorf("unknown path segment kind %q", d.Kind)
		}
	}
	return out, nil
}

func (fb *funcBuilder) blockTarget(idx int) hir.BlockID {
	if idx < 0 {
		return hir.NoBlockID
	}
	return hir.BlockID(idx)
}

func (fb *funcBuilder) cases(decls []switchCaseDecl) []hir.SwitchCase {
	out := make([]hir.SwitchCase, len(decls))
	for i, d := range decls {
		out[i] = hir.SwitchCase{Tag: d.Tag, Target: fb.blockTarget(d.Target)}
	}
	return out
}

// addInstr translates one fixture instruction into HIR and appends it to
// cur, declaring a fresh result variable in the function environment for
// every op that produces one.
func (fb *funcBuilder) addInstr(cur *hir.BlockBuilder, d instrDecl) error {
	sp := fb.span
	switch d.Op {
	case "declare":
		tid, err := fb.resolveType(d.Type)
		if err != nil {
			return err
		}
		v := hir.Variable{Name: hir.LocalName(d.Var, 0), Type: tid, Span: sp}
		fb.env[d.Var] = v
		cur.AddInstruction(hir.DeclareVarAt(sp, v, d.Mutable))
		return nil

	case "assign":
		dest, err := fb.lookup(d.Dest)
		if err != nil {
			return err
		}
		src, err := fb.lookup(d.Src)
		if err != nil {
			return err
		}
		cur.AddInstruction(hir.AssignAt(sp, dest, src))
		return nil

	case "call":
		args, err := fb.lookupAll(d.Args)
		if err != nil {
			return err
		}
		resultType, err := fb.resolveType(d.Type)
		if err != nil {
			return err
		}
		dest := hir.Variable{Name: hir.LocalName(d.Dest, 0), Type: resultType, Span: sp}
		fb.env[d.Dest] = dest
		cur.AddInstruction(hir.FunctionCallAt(sp, dest, qname.New(d.Name...), args))
		return nil

	case "field_ref":
		recv, err := fb.lookup(d.Recv)
		if err != nil {
			return err
		}
		fields, err := fb.fields(d.Fields)
		if err != nil {
			return err
		}
		resultType, err := fb.resolveType(d.Type)
		if err != nil {
			return err
		}
		dest := hir.Variable{Name: hir.LocalName(d.Dest, 0), Type: resultType, Span: sp}
		fb.env[d.Dest] = dest
		cur.AddInstruction(hir.FieldRefAt(sp, dest, recv, fields))
		return nil

	case "field_assign":
		dest, err := fb.lookup(d.Dest)
		if err != nil {
			return err
		}
		fields, err := fb.fields(d.Fields)
		if err != nil {
			return err
		}
		rhs, err := fb.lookup(d.Rhs)
		if err != nil {
			return err
		}
		cur.AddInstruction(hir.Instr{
			Kind: hir.IFieldAssign, Span: sp,
			FieldAssign: hir.FieldAssignInstr{Dest: dest, Fields: fields, Rhs: rhs},
		})
		return nil

	case "ref":
		src, err := fb.lookup(d.Src)
		if err != nil {
			return err
		}
		resultType, err := fb.resolveType(d.Type)
		if err != nil {
			return err
		}
		dest := hir.Variable{Name: hir.LocalName(d.Dest, 0), Type: resultType, Span: sp}
		fb.env[d.Dest] = dest
		cur.AddInstruction(hir.Instr{
			Kind: hir.IRef, Span: sp,
			Ref: hir.RefInstr{Dest: dest, Src: src, Mut: d.Mutable},
		})
		return nil

	case "tuple":
		args, err := fb.lookupAll(d.Args)
		if err != nil {
			return err
		}
		resultType, err := fb.resolveType(d.Type)
		if err != nil {
			return err
		}
		dest := hir.Variable{Name: hir.LocalName(d.Dest, 0), Type: resultType, Span: sp}
		fb.env[d.Dest] = dest
		cur.AddInstruction(hir.Instr{Kind: hir.ITuple, Span: sp, Tuple: hir.TupleInstr{Dest: dest, Args: args}})
		return nil

	case "literal":
		var kind hir.InstrKind
		switch d.Kind {
		case "string":
			kind = hir.IStringLiteral
		case "integer":
			kind = hir.IIntegerLiteral
		case "char":
			kind = hir.ICharLiteral
		default:
			return fmt.Errorf("literal: unknown kind %q", d.Kind)
		}
		resultType, err := fb.resolveType(d.Type)
		if err != nil {
			return err
		}
		dest := hir.Variable{Name: hir.LocalName(d.Dest, 0), Type: resultType, Span: sp}
		fb.env[d.Dest] = dest
		cur.AddInstruction(hir.Instr{Kind: kind, Span: sp, Literal: hir.LiteralInstr{Dest: dest, Text: d.Text}})
		return nil

	case "block_start":
		cur.AddInstruction(hir.BlockStartAt(sp, hir.SyntaxBlockID(d.Syntax)))
		return nil

	case "block_end":
		cur.AddInstruction(hir.BlockEndAt(sp, hir.SyntaxBlockID(d.Syntax)))
		return nil

	case "jump":
		cur.AddInstruction(hir.JumpAt(sp, fb.blockTarget(d.Target)))
		return nil

	case "enum_switch":
		scrutinee, err := fb.lookup(d.Src)
		if err != nil {
			return err
		}
		cur.AddInstruction(hir.EnumSwitchAt(sp, scrutinee, fb.cases(d.Cases), fb.blockTarget(d.Default)))
		return nil

	case "integer_switch":
		scrutinee, err := fb.lookup(d.Src)
		if err != nil {
			return err
		}
		cur.AddInstruction(hir.Instr{
			Kind: hir.IIntegerSwitch, Span: sp,
			IntegerSwitch: hir.IntegerSwitchInstr{Scrutinee: scrutinee, Cases: fb.cases(d.Cases), Default: fb.blockTarget(d.Default)},
		})
		return nil

	case "return":
		arg, err := fb.lookup(d.Arg)
		if err != nil {
			return err
		}
		cur.AddInstruction(hir.ReturnAt(sp, arg))
		return nil

	default:
		return fmt.Errorf("unknown op %q", d.Op)
	}
}

func (b *builder) buildResolver(facts oracleFacts) (*oracle.MapResolver, error) {
	r := oracle.NewMapResolver()
	for _, path := range facts.Copy {
		r.MarkCopy(qname.New(path...))
	}
	for _, path := range facts.Drop {
		r.MarkDrop(qname.New(path...))
	}
	for typePath, implPath := range facts.Clone {
		r.RegisterClone(qname.New(strings.Split(typePath, ".")...), qname.New(implPath...))
	}
	for typePath, implPath := range facts.DropImp {
		r.RegisterDrop(qname.New(strings.Split(typePath, ".")...), qname.New(implPath...))
	}
	return r, nil
}
