package hir

import (
	"context"

	"siko/internal/trace"
)

// DeclEntry is the bookkeeping the finalizer needs for one syntax block: the
// drop-flag paths its DropMetadata(DeclarationList) must declare, and the
// locals live at its BlockEnd that must be dropped there.
type DeclEntry struct {
	Flags  []Path
	Locals []Variable
}

func (e *DeclEntry) addFlag(p Path) {
	for _, existing := range e.Flags {
		if existing.Same(p) {
			return
		}
	}
	e.Flags = append(e.Flags, p)
}

// DeclarationStore maps each syntax block to its DeclEntry. Built once per
// function by BuildDeclarationStore and consulted by FinalizeDrops.
type DeclarationStore struct {
	entries map[SyntaxBlockID]*DeclEntry
}

func newDeclarationStore() *DeclarationStore {
	return &DeclarationStore{entries: make(map[SyntaxBlockID]*DeclEntry)}
}

func (s *DeclarationStore) entry(id SyntaxBlockID) *DeclEntry {
	e, ok := s.entries[id]
	if !ok {
		e = &DeclEntry{}
		s.entries[id] = e
	}
	return e
}

// Entry returns the recorded bookkeeping for id, or a zero DeclEntry if the
// syntax block declared nothing.
func (s *DeclarationStore) Entry(id SyntaxBlockID) DeclEntry {
	if e, ok := s.entries[id]; ok {
		return *e
	}
	return DeclEntry{}
}

// scopeStack is the chain of currently open syntax blocks at some point in
// the instruction stream, innermost last.
type scopeStack []SyntaxBlockID

func (s scopeStack) push(id SyntaxBlockID) scopeStack {
	out := make(scopeStack, len(s)+1)
	copy(out, s)
	out[len(s)] = id
	return out
}

func (s scopeStack) pop() scopeStack {
	if len(s) == 0 {
		return s
	}
	return s[:len(s)-1]
}

func (s scopeStack) top() (SyntaxBlockID, bool) {
	if len(s) == 0 {
		return NoSyntaxBlockID, false
	}
	return s[len(s)-1], true
}

// BuildDeclarationStore walks fn's body from the entry block, following
// control flow, tracking the stack of open syntax blocks as it crosses the
// BlockStart/BlockEnd markers the front-end left in place, and records every
// locally declared variable and every drop-checker DropPath placeholder's
// path against the innermost enclosing syntax block.
//
// Each block is visited once: BlockStart/BlockEnd nest lexically, so the
// scope stack on entry to a block is the same along every control-flow path
// that reaches it in a well-formed program.
func BuildDeclarationStore(ctx context.Context, fn *Function) *DeclarationStore {
	sp := trace.Begin(trace.FromContext(ctx), trace.ScopeStage, "hir.BuildDeclarationStore", 0)
	defer sp.End("")

	store := newDeclarationStore()
	if fn.Body == nil {
		return store
	}

	type queued struct {
		block BlockID
		scope scopeStack
	}
	visited := make(map[BlockID]struct{})
	queue := []queued{{block: EntryBlock, scope: nil}}

	for len(queue) > 0 {
		q := queue[0]
		queue = queue[1:]
		if _, ok := visited[q.block]; ok {
			continue
		}
		visited[q.block] = struct{}{}

		blk := fn.Body.MustBlock(q.block)
		scope := q.scope
		for _, instr := range blk.Instrs {
			switch instr.Kind {
			case IBlockStart:
				scope = scope.push(instr.BlockMarker.Syntax)
			case IBlockEnd:
				scope = scope.pop()
			case IDeclareVar:
				if top, ok := scope.top(); ok {
					e := store.entry(top)
					e.Locals = append(e.Locals, instr.DeclareVar.Var)
					e.addFlag(RootOnly(instr.DeclareVar.Var))
				}
			case IDropPath:
				if top, ok := scope.top(); ok {
					store.entry(top).addFlag(instr.DropPath.Target)
				}
			}
		}

		for _, t := range blk.Instrs[len(blk.Instrs)-1].Targets() {
			queue = append(queue, queued{block: t, scope: scope})
		}
	}

	return store
}

// InsertDeclarationMetadata runs BuildDeclarationStore over fn and splices a
// DropMetadata(DeclarationList(id)) placeholder immediately after every
// BlockStart(id) instruction, so the finalizer's first pass has a concrete
// anchor for each syntax block's flag declarations.
func InsertDeclarationMetadata(ctx context.Context, fn *Function) (*Function, *DeclarationStore) {
	store := BuildDeclarationStore(ctx, fn)
	if fn.Body == nil {
		return fn, store
	}

	body := fn.Body.Clone()
	bb := NewBodyBuilder(body)

	for _, id := range body.Order() {
		cur := bb.Iterator(id)
		for {
			instr, ok := cur.GetInstruction()
			if !ok {
				break
			}
			if instr.Kind == IBlockStart {
				cur.Step()
				cur.AddInstruction(DropMetadataAt(instr.Span, DeclarationList, instr.BlockMarker.Syntax))
				continue
			}
			cur.Step()
		}
	}

	out := *fn
	out.Body = bb.Build()
	return &out, store
}
