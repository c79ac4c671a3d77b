package source

import (
	"slices"
	"sync"
)

// StringID is an interned string's handle. The zero value, NoStringID,
// always maps to "".
type StringID uint32

const NoStringID StringID = 0

// Interner deduplicates strings encountered while loading a fixture file —
// field names in particular repeat heavily across a program's path
// segments (fixture.Load interns every PathSegment.Field it builds), so
// sharing backing storage across a run's functions is worth the locking.
type Interner struct {
	mu    sync.RWMutex
	byID  []string            // index -> string (byID[0] == "" for NoStringID)
	index map[string]StringID // string -> ID
}

func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""},
		index: map[string]StringID{"": 0},
	}
}

// Intern inserts s and returns its ID, returning the existing ID if s was
// already interned. Safe for concurrent use.
func (i *Interner) Intern(s string) StringID {
	i.mu.RLock()
	if id, ok := i.index[s]; ok {
		i.mu.RUnlock()
		return id
	}
	i.mu.RUnlock()

	// Copy s so the interner doesn't keep the caller's backing array (e.g.
	// a slice of a much larger JSON decode buffer) alive indefinitely.
	cpy := string([]byte(s))

	i.mu.Lock()
	// Re-check: another goroutine may have interned cpy between the RUnlock
	// above and this Lock.
	if id, ok := i.index[cpy]; ok {
		i.mu.Unlock()
		return id
	}
	id := StringID(len(i.byID))
	i.byID = append(i.byID, cpy)
	i.index[cpy] = id
	i.mu.Unlock()
	return id
}

// InternBytes interns the string formed by b without requiring the caller
// to allocate a string first.
func (i *Interner) InternBytes(b []byte) StringID {
	return i.Intern(string(b))
}

// Lookup returns the string for id, or "", false if id was never issued by
// this Interner.
func (i *Interner) Lookup(id StringID) (string, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if int(id) < 0 || int(id) >= len(i.byID) {
		return "", false
	}
	return i.byID[id], true
}

// MustLookup returns the string for id, panicking if id is invalid.
func (i *Interner) MustLookup(id StringID) string {
	s, ok := i.Lookup(id)
	if !ok {
		panic("invalid string ID")
	}
	return s
}

// Has reports whether id was issued by this Interner.
func (i *Interner) Has(id StringID) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return int(id) >= 0 && int(id) < len(i.byID)
}

// Len returns the number of strings held, including NoStringID; never less
// than 1.
func (i *Interner) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.byID)
}

// Snapshot returns a copy of every interned string, indexed by StringID.
func (i *Interner) Snapshot() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return slices.Clone(i.byID)
}
