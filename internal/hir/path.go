package hir

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"siko/internal/qtype"
	"siko/internal/source"
)

// PathSegmentKind tags which case of a PathSegment is populated.
type PathSegmentKind uint8

const (
	// SegNamed projects a named field.
	SegNamed PathSegmentKind = iota
	// SegIndexed projects a tuple/array element by position.
	SegIndexed
)

// PathSegment is one step of a field-access chain: either a named field or
// a positional index, each carrying the projected type.
type PathSegment struct {
	Kind  PathSegmentKind
	Field string
	Index uint32
	Type  qtype.ID
}

func (s PathSegment) String() string {
	if s.Kind == SegIndexed {
		return strconv.FormatUint(uint64(s.Index), 10)
	}
	return s.Field
}

// Named builds a field-access segment.
func Named(field string, ty qtype.ID) PathSegment {
	return PathSegment{Kind: SegNamed, Field: field, Type: ty}
}

// Indexed builds a positional-access segment.
func Indexed(index uint32, ty qtype.ID) PathSegment {
	return PathSegment{Kind: SegIndexed, Index: index, Type: ty}
}

// Path is a dotted access expression identifying a sub-location of a value:
// a root variable plus a chain of field/index projections.
type Path struct {
	Root     Variable
	Segments []PathSegment
	Span     source.Span
}

// RootOnly builds a Path naming the whole root variable, with no
// projections.
func RootOnly(root Variable) Path { return Path{Root: root} }

// Extend returns a new Path formed by appending seg to p's segment chain.
func (p Path) Extend(seg PathSegment, span source.Span) Path {
	segs := make([]PathSegment, len(p.Segments)+1)
	copy(segs, p.Segments)
	segs[len(p.Segments)] = seg
	return Path{Root: p.Root, Segments: segs, Span: span}
}

// SharesPrefixWith reports whether p and q have the same root and agree on
// every segment over the length of the shorter path.
func (p Path) SharesPrefixWith(q Path) bool {
	if !p.Root.SameAs(q.Root) {
		return false
	}
	n := len(p.Segments)
	if len(q.Segments) < n {
		n = len(q.Segments)
	}
	for i := 0; i < n; i++ {
		if p.Segments[i] != q.Segments[i] {
			return false
		}
	}
	return true
}

// Contains reports whether p's segment list is a prefix of q's (same root).
// p.Contains(q) means p names a location that q is nested inside of, or
// equal to.
func (p Path) Contains(q Path) bool {
	if !p.Root.SameAs(q.Root) {
		return false
	}
	if len(p.Segments) > len(q.Segments) {
		return false
	}
	for i, seg := range p.Segments {
		if q.Segments[i] != seg {
			return false
		}
	}
	return true
}

// Same reports whether p and q name the exact same location: p.Contains(q)
// && q.Contains(p).
func (p Path) Same(q Path) bool {
	return p.Contains(q) && q.Contains(p)
}

// UserPath renders the dotted form used in diagnostics: root name followed
// by `.segment` for each projection.
func (p Path) UserPath() string {
	var b strings.Builder
	b.WriteString(p.Root.Name.String())
	for _, seg := range p.Segments {
		b.WriteByte('.')
		b.WriteString(seg.String())
	}
	return norm.NFC.String(b.String())
}

// DropFlagVarName returns the Name of the drop flag variable synthesized
// for this path. Two paths that are Same produce equal names and vice
// versa, since the name is derived deterministically
// from the NFC-normalized dotted rendering.
func (p Path) DropFlagVarName() VarName {
	return DropFlagName(p.UserPath())
}

func (p Path) String() string {
	return fmt.Sprintf("Path(%s)", p.UserPath())
}
