package hir

import (
	"siko/internal/qtype"
	"siko/internal/source"
)

// BodyBuilder is a mutable handle borrowing a Body for the duration of a
// pass. Cursors (BlockBuilder)
// derived from the same BodyBuilder share the underlying block storage:
// an edit made through one cursor is immediately visible to another cursor
// on the same block, since both operate on the same *Block pointer.
//
// Body is an owned value and BodyBuilder is an explicit borrow; cursors
// carry (block id, index) rather than raw references so invalidation on
// insert/remove stays local to that cursor's own bookkeeping.
type BodyBuilder struct {
	body *Body
}

// NewBodyBuilder wraps an existing Body for editing. Pass a fresh *Body
// from NewBody() to build one from scratch, or body.Clone() to derive a new
// function value from a prior pass's output.
func NewBodyBuilder(body *Body) *BodyBuilder {
	if body == nil {
		body = NewBody()
	}
	return &BodyBuilder{body: body}
}

// CreateBlock allocates a fresh block and returns an append-mode cursor
// positioned at its end.
func (bb *BodyBuilder) CreateBlock() *BlockBuilder {
	blk := bb.body.AllocBlock()
	return &BlockBuilder{owner: bb, blockID: blk.ID, index: len(blk.Instrs)}
}

// Iterator opens a cursor over an existing block, positioned before its
// first instruction.
func (bb *BodyBuilder) Iterator(blockID BlockID) *BlockBuilder {
	bb.body.MustBlock(blockID) // panics if missing
	return &BlockBuilder{owner: bb, blockID: blockID, index: 0}
}

// CreateTempValue mints a fresh Temp variable at span.
func (bb *BodyBuilder) CreateTempValue(ty qtype.ID, span source.Span) Variable {
	return bb.body.NewTemp(ty, span)
}

// Build freezes and returns the body under construction. The BodyBuilder
// remains usable afterward (callers typically stop using it once a pass has
// finished, but nothing here enforces that).
func (bb *BodyBuilder) Build() *Body {
	return bb.body
}

// RemoveBlock deletes a block outright, used by dead-code elimination once
// no remaining terminator targets it.
func (bb *BodyBuilder) RemoveBlock(id BlockID) {
	bb.body.removeBlock(id)
}

// BlockBuilder is a cursor over one block's instruction list: `index` is the
// position the cursor sits before. All methods operate on the owner
// BodyBuilder's shared *Body, so edits are visible through any other cursor
// positioned on the same block.
type BlockBuilder struct {
	owner   *BodyBuilder
	blockID BlockID
	index   int
}

// BlockID returns the id of the block this cursor is positioned on.
func (cur *BlockBuilder) BlockID() BlockID { return cur.blockID }

func (cur *BlockBuilder) block() *Block {
	return cur.owner.body.MustBlock(cur.blockID)
}

// GetInstruction peeks at the instruction the cursor currently sits before,
// returning (Instr{}, false) at the end of the block.
func (cur *BlockBuilder) GetInstruction() (Instr, bool) {
	blk := cur.block()
	if cur.index < 0 || cur.index >= len(blk.Instrs) {
		return Instr{}, false
	}
	return blk.Instrs[cur.index], true
}

// Step advances the cursor by one instruction, returning false once it has
// moved past the end of the block.
func (cur *BlockBuilder) Step() bool {
	blk := cur.block()
	if cur.index >= len(blk.Instrs) {
		return false
	}
	cur.index++
	return cur.index < len(blk.Instrs)
}

// AddInstruction inserts instr before the cursor, leaving the cursor
// positioned immediately after the newly inserted instruction (so a
// subsequent GetInstruction sees what used to be "current").
func (cur *BlockBuilder) AddInstruction(instr Instr) {
	blk := cur.block()
	blk.Instrs = append(blk.Instrs, Instr{})
	copy(blk.Instrs[cur.index+1:], blk.Instrs[cur.index:])
	blk.Instrs[cur.index] = instr
	cur.index++
}

// ReplaceInstruction overwrites the instruction at the cursor.
func (cur *BlockBuilder) ReplaceInstruction(instr Instr) {
	blk := cur.block()
	if cur.index < 0 || cur.index >= len(blk.Instrs) {
		panic("hir: ReplaceInstruction at invalid cursor position")
	}
	blk.Instrs[cur.index] = instr
}

// RemoveInstruction deletes the instruction at the cursor; the cursor ends
// up positioned at whatever instruction now occupies that index.
func (cur *BlockBuilder) RemoveInstruction() {
	blk := cur.block()
	if cur.index < 0 || cur.index >= len(blk.Instrs) {
		panic("hir: RemoveInstruction at invalid cursor position")
	}
	blk.Instrs = append(blk.Instrs[:cur.index], blk.Instrs[cur.index+1:]...)
}

// CutBlock splits the block after the instruction at offset: everything
// from offset+1 onward moves into a freshly allocated successor block, and
// the original block keeps instructions [0, offset]. Returns the new
// block's id. Callers are responsible for terminating the original block
// (e.g. with a Jump to the new id) since CutBlock only moves instructions.
func (cur *BlockBuilder) CutBlock(offset int) BlockID {
	blk := cur.block()
	if offset < 0 || offset >= len(blk.Instrs) {
		panic("hir: CutBlock offset out of range")
	}
	tail := append([]Instr(nil), blk.Instrs[offset+1:]...)
	blk.Instrs = blk.Instrs[:offset+1]

	next := cur.owner.body.AllocBlock()
	next.Instrs = tail
	return next.ID
}
