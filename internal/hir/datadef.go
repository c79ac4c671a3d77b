package hir

import (
	"siko/internal/qname"
	"siko/internal/qtype"
	"siko/internal/source"
)

// DataDefKind tags which case of a DataDef is populated.
type DataDefKind uint8

const (
	// DataStruct is a single-variant product type.
	DataStruct DataDefKind = iota
	// DataEnum is a sum type with one or more variants.
	DataEnum
)

func (k DataDefKind) String() string {
	if k == DataEnum {
		return "enum"
	}
	return "struct"
}

// Field is one named member of a struct, or one positional item of an enum
// variant.
type Field struct {
	Name string
	Type qtype.ID
}

// Variant is one case of an enum, carrying its constructor's item types in
// declaration order.
type Variant struct {
	Name  string
	Items []Field
}

// DataDef is a user-declared struct or enum, the unit the recursive-data
// handler operates on.
type DataDef struct {
	Name     qname.QualifiedName
	Kind     DataDefKind
	Fields   []Field   // meaningful iff Kind == DataStruct
	Variants []Variant // meaningful iff Kind == DataEnum
	Span     source.Span

	// Boxed records, for each (variant index, item index) or (field index,
	// 0) pair rewritten by the recursive-data handler, that the declared
	// type there was replaced by Box<original>. Keyed the same way both
	// field slices are addressed: VariantIdx is 0 and FieldIdx indexes
	// Fields for a struct; VariantIdx indexes Variants and FieldIdx indexes
	// that variant's Items for an enum.
	Boxed map[BoxedSite]qtype.ID
}

// BoxedSite addresses one field/item slot within a DataDef.
type BoxedSite struct {
	VariantIdx int
	FieldIdx   int
}

// namedTypeTargets returns the qtype.Name of every field/item type that is
// itself a KindNamed type (the only kind that can participate in a
// recursive-data cycle), keyed by the BoxedSite each occurrence lives at.
func (d *DataDef) namedTypeTargets(types *qtype.Interner) map[BoxedSite]qtype.Name {
	out := make(map[BoxedSite]qtype.Name)
	consider := func(site BoxedSite, id qtype.ID) {
		t, ok := types.Lookup(id)
		if ok && t.Kind == qtype.KindNamed {
			out[site] = t.Name
		}
	}
	switch d.Kind {
	case DataStruct:
		for i, f := range d.Fields {
			consider(BoxedSite{FieldIdx: i}, f.Type)
		}
	case DataEnum:
		for vi, v := range d.Variants {
			for fi, item := range v.Items {
				consider(BoxedSite{VariantIdx: vi, FieldIdx: fi}, item.Type)
			}
		}
	}
	return out
}

// FieldType returns the current (possibly boxed) type at site.
func (d *DataDef) FieldType(site BoxedSite) qtype.ID {
	if boxed, ok := d.Boxed[site]; ok {
		return boxed
	}
	switch d.Kind {
	case DataStruct:
		return d.Fields[site.FieldIdx].Type
	default:
		return d.Variants[site.VariantIdx].Items[site.FieldIdx].Type
	}
}

// setFieldType overwrites the declared type at site and records the new
// type in Boxed so FieldType reports it.
func (d *DataDef) setFieldType(site BoxedSite, newType qtype.ID) {
	switch d.Kind {
	case DataStruct:
		d.Fields[site.FieldIdx].Type = newType
	case DataEnum:
		d.Variants[site.VariantIdx].Items[site.FieldIdx].Type = newType
	}
	if d.Boxed == nil {
		d.Boxed = make(map[BoxedSite]qtype.ID)
	}
	d.Boxed[site] = newType
}
