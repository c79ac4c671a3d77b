// Package qname implements the identity key used for functions, data
// definitions, and trait implementations: a module-rooted path plus an
// optional monomorphization context.
package qname

import (
	"strings"

	"siko/internal/qtype"
)

// QualifiedName is a module-rooted name path plus an optional list of
// concrete type arguments recording which monomorphization of a generic
// definition this name identifies.
type QualifiedName struct {
	Path []string
	Args []qtype.ID
}

// New builds a QualifiedName with no monomorphization context.
func New(path ...string) QualifiedName {
	return QualifiedName{Path: append([]string(nil), path...)}
}

// WithArgs returns a copy of n monomorphized over the given concrete types.
func (n QualifiedName) WithArgs(args ...qtype.ID) QualifiedName {
	return QualifiedName{Path: n.Path, Args: args}
}

// Key renders a stable, comparable string for use as a map key. Two
// QualifiedNames are the same identity iff their Key is equal.
func (n QualifiedName) Key() string {
	var b strings.Builder
	b.WriteString(strings.Join(n.Path, "."))
	if len(n.Args) > 0 {
		b.WriteByte('[')
		for i, a := range n.Args {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(itoa(uint32(a)))
		}
		b.WriteByte(']')
	}
	return b.String()
}

func (n QualifiedName) String() string { return n.Key() }

// ToQType converts n to the minimal shape qtype.Named needs, discarding the
// monomorphization context (nominal identity for a Type carries type
// arguments as qtype.ID slots directly, not via qname's Args).
func (n QualifiedName) ToQType() qtype.Name {
	return qtype.Name{Path: append([]string(nil), n.Path...)}
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
