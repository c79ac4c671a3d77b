package fixture

import (
	"strings"
	"testing"

	"siko/internal/hir"
	"siko/internal/qname"
	"siko/internal/qtype"
	"siko/internal/source"
)

const letFooJSON = `
{
  "types": [
    {"id": "Foo", "kind": "named", "path": ["Foo"]}
  ],
  "funcs": [
    {
      "name": ["f"],
      "result": "Foo",
      "params": [],
      "blocks": [
        {"instrs": [
          {"op": "block_start", "syntax": 1},
          {"op": "declare", "var": "x", "type": "Foo", "mutable": true},
          {"op": "call", "dest": "x", "name": ["Foo", "new"], "type": "Foo", "args": []},
          {"op": "block_end", "syntax": 1},
          {"op": "return", "arg": "x"}
        ]}
      ]
    }
  ],
  "oracle": {
    "drop": [["Foo"]]
  }
}`

// TestLoadBuildsDropCheckableProgram confirms a JSON fixture equivalent to
// `fn f() -> Foo { let mut x = Foo.new(); return x; }`, with Foo registered
// as a Drop type, round-trips into a *program.Program whose sole function
// is registered with a non-empty body, and whose resolver reports Foo as a
// Drop type (the fixture mirrors the Go-literal buildLetFooProgram fixture
// internal/program's own tests use).
func TestLoadBuildsDropCheckableProgram(t *testing.T) {
	types := qtype.NewInterner()
	p, resolver, err := Load(strings.NewReader(letFooJSON), source.FileID(0), types)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	fn := p.Funcs[qname.New("f").Key()]
	if fn == nil {
		t.Fatalf("expected function 'f' to be registered")
	}
	if !fn.Body.HasEntry() {
		t.Fatalf("expected a non-empty body")
	}

	fooTy := types.Intern(qtype.Named(qtype.Name{Path: []string{"Foo"}}))
	if !resolver.IsDrop(types, fooTy) {
		t.Fatalf("expected Foo to be registered as a Drop type")
	}
}

func TestLoadRejectsUndeclaredType(t *testing.T) {
	types := qtype.NewInterner()
	bad := `{"funcs":[{"name":["f"],"result":"Missing","params":[],"blocks":[{"instrs":[]}]}]}`
	if _, _, err := Load(strings.NewReader(bad), source.FileID(0), types); err == nil {
		t.Fatalf("expected an error for an undeclared type id")
	}
}

func TestLoadRejectsUndeclaredVariable(t *testing.T) {
	types := qtype.NewInterner()
	bad := `
{
  "types": [{"id": "Foo", "kind": "named", "path": ["Foo"]}],
  "funcs": [{
    "name": ["f"], "result": "Foo", "params": [],
    "blocks": [{"instrs": [{"op": "return", "arg": "nope"}]}]
  }]
}`
	if _, _, err := Load(strings.NewReader(bad), source.FileID(0), types); err == nil {
		t.Fatalf("expected an error for an undeclared variable")
	}
}

func TestLoadJumpTargetsResolveByBlockIndex(t *testing.T) {
	types := qtype.NewInterner()
	src := `
{
  "types": [{"id": "Int", "kind": "named", "path": ["Int"]}],
  "funcs": [{
    "name": ["g"], "result": "Int", "params": [{"name": "n", "type": "Int"}],
    "blocks": [
      {"instrs": [{"op": "jump", "target": 1}]},
      {"instrs": [{"op": "return", "arg": "n"}]}
    ]
  }]
}`
	p, _, err := Load(strings.NewReader(src), source.FileID(0), types)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	fn := p.Funcs[qname.New("g").Key()]
	blocks := fn.Body.Blocks()
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	term, ok := blocks[0].Terminator()
	if !ok || term.Kind != hir.IJump || term.Jump.Target != 1 {
		t.Fatalf("expected block 0 to jump to block 1, got %+v", term)
	}
}
