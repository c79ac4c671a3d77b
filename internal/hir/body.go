package hir

import (
	"fmt"

	"fortio.org/safecast"

	"siko/internal/qtype"
	"siko/internal/source"
)

// Body is an ordered map from block id to block, plus the monotone counter
// that mints fresh Temp variable names.
type Body struct {
	order   []BlockID
	blocks  map[BlockID]*Block
	nextTmp uint32
}

// NewBody returns an empty body with no blocks allocated yet. Block 0 is
// not created automatically: the front-end (or a test fixture) is expected
// to call AllocBlock until EntryBlock exists, matching BodyBuilder.createBlock.
func NewBody() *Body {
	return &Body{blocks: make(map[BlockID]*Block)}
}

// AllocBlock allocates and returns a fresh, empty block, appending it to the
// body in allocation order.
func (b *Body) AllocBlock() *Block {
	n, err := safecast.Conv[int32](len(b.order))
	if err != nil {
		panic(fmt.Errorf("hir: block count overflow: %w", err))
	}
	id := BlockID(n)
	// After removeBlock, len(order) can name a block that still exists;
	// step past every id in use so the new block never replaces one.
	for b.blocks[id] != nil {
		id++
	}
	blk := NewBlock(id)
	b.blocks[id] = blk
	b.order = append(b.order, id)
	return blk
}

// Block returns the block with the given id, or nil if none exists.
func (b *Body) Block(id BlockID) *Block { return b.blocks[id] }

// MustBlock returns the block with the given id, panicking if it is
// missing — an unrecoverable invariant violation.
func (b *Body) MustBlock(id BlockID) *Block {
	blk := b.Block(id)
	if blk == nil {
		panic(fmt.Sprintf("hir: missing block id %s", id))
	}
	return blk
}

// Blocks returns the body's blocks in allocation order. Block 0, if
// present, is the entry block.
func (b *Body) Blocks() []*Block {
	out := make([]*Block, len(b.order))
	for i, id := range b.order {
		out[i] = b.blocks[id]
	}
	return out
}

// Order returns the block ids in allocation order.
func (b *Body) Order() []BlockID {
	return append([]BlockID(nil), b.order...)
}

// HasEntry reports whether block 0 has been allocated.
func (b *Body) HasEntry() bool { return b.Block(EntryBlock) != nil }

// NewTemp mints a fresh Temp variable of the given type at span, advancing
// the body's monotone counter.
func (b *Body) NewTemp(ty qtype.ID, span source.Span) Variable {
	id := b.nextTmp
	b.nextTmp++
	return Variable{Name: TempName(id), Type: ty, Span: span}
}

// Clone returns a deep copy of b, used when a pass wants to build a new Body
// from a prior one via BodyBuilder.
func (b *Body) Clone() *Body {
	out := &Body{
		order:   append([]BlockID(nil), b.order...),
		blocks:  make(map[BlockID]*Block, len(b.blocks)),
		nextTmp: b.nextTmp,
	}
	for id, blk := range b.blocks {
		instrs := append([]Instr(nil), blk.Instrs...)
		out.blocks[id] = &Block{ID: id, Instrs: instrs}
	}
	return out
}

// removeBlock deletes a block entirely (used by dead-code elimination). It
// is unexported: callers go through BodyBuilder so edits stay auditable.
func (b *Body) removeBlock(id BlockID) {
	if _, ok := b.blocks[id]; !ok {
		return
	}
	delete(b.blocks, id)
	for i, o := range b.order {
		if o == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}
