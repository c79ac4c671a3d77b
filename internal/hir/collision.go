package hir

// CollisionKind distinguishes the two ways the drop checker invalidates an
// earlier event: a new Move overlapping an earlier non-pruned Move, or an
// Assign writing into a path nested inside an already-moved location.
type CollisionKind uint8

const (
	// CollideMove is a new move colliding with an earlier move.
	CollideMove CollisionKind = iota
	// CollideAssignToMoved is a write into a field of an already-moved-away
	// value.
	CollideAssignToMoved
)

// Collision records that a new Move (or Assign) was observed whose path
// shares a prefix with — or is contained by — an earlier, not-yet-pruned
// Move.
type Collision struct {
	Kind CollisionKind
	// Path is the new move/assign that triggered the collision.
	Path Path
	// Previous is the earlier move it conflicts with.
	Previous Path
	// Operand is the literal variable the triggering instruction read or
	// wrote (may be a receiver-role temp standing in for Path via the block
	// processor's memoized chain, rather than Path.Root itself).
	Operand Variable
	// SiteBlock/SiteIndex locate the triggering instruction, so the
	// implicit-clone pass can find and rewrite it.
	SiteBlock BlockID
	SiteIndex int
}

// detectMoveCollision scans series for an earlier non-pruned Move sharing a
// prefix with newPath, returning the first one found. Called by the block
// processor each time a new Move usage is appended.
func detectMoveCollision(series EventSeries, newPath Path, uptoExclusive int) (Collision, bool) {
	for i := 0; i < uptoExclusive && i < len(series.Events); i++ {
		e := series.Events[i]
		if e.IsNoop() || !e.IsMove() {
			continue
		}
		if e.Path.SharesPrefixWith(newPath) {
			return Collision{Kind: CollideMove, Path: newPath, Previous: e.Path}, true
		}
	}
	return Collision{}, false
}

// detectAssignToMovedCollision scans series for an earlier non-pruned Move
// whose path contains (is an ancestor of) newPath: writing into a field of
// an already-moved-away value.
func detectAssignToMovedCollision(series EventSeries, newPath Path) (Collision, bool) {
	for _, e := range series.Events {
		if e.IsNoop() || !e.IsMove() {
			continue
		}
		if e.Path.Contains(newPath) && !e.Path.Same(newPath) {
			return Collision{Kind: CollideAssignToMoved, Path: newPath, Previous: e.Path}, true
		}
	}
	return Collision{}, false
}
