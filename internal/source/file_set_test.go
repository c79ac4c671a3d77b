package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("program.json", []byte("hello world"), 0)
	if id1 != 0 {
		t.Errorf("expected first FileID to be 0, got %d", id1)
	}

	latestID, exists := fs.GetLatest("program.json")
	if !exists {
		t.Error("expected file to exist after Add")
	}
	if latestID != id1 {
		t.Errorf("expected latest ID %d, got %d", id1, latestID)
	}

	// Re-adding the same path must mint a fresh FileID and repoint the
	// latest-index, while the old ID keeps resolving to the old content —
	// a Span stamped against the first Add stays valid.
	id2 := fs.Add("program.json", []byte("hello universe"), 0)
	if id2 == id1 {
		t.Error("expected a fresh FileID for the second Add")
	}

	latestID, exists = fs.GetLatest("program.json")
	if !exists || latestID != id2 {
		t.Errorf("expected latest ID %d after second Add, got %d (exists=%v)", id2, latestID, exists)
	}

	file1 := fs.Get(id1)
	if string(file1.Content) != "hello world" {
		t.Errorf("expected first version's content to survive, got %q", string(file1.Content))
	}
	file2 := fs.Get(id2)
	if string(file2.Content) != "hello universe" {
		t.Errorf("expected second version's content, got %q", string(file2.Content))
	}
	if file1.Path != file2.Path {
		t.Error("expected both versions to share the path")
	}
}

func TestAddVirtualLineIdx(t *testing.T) {
	fs := NewFileSet()

	// "a\nb\n" puts newlines at offsets 1 and 3.
	id := fs.AddVirtual("virtual.json", []byte("a\nb\n"))
	file := fs.Get(id)

	expected := []uint32{1, 3}
	if len(file.LineIdx) != len(expected) {
		t.Fatalf("expected LineIdx length %d, got %d", len(expected), len(file.LineIdx))
	}
	for i, val := range expected {
		if file.LineIdx[i] != val {
			t.Errorf("expected LineIdx[%d] = %d, got %d", i, val, file.LineIdx[i])
		}
	}

	if file.Flags&FileVirtual == 0 {
		t.Error("expected FileVirtual flag to be set")
	}
}

func TestCRLFNormalization(t *testing.T) {
	original := []byte("a\r\nb\r\n")
	normalized, changed := normalizeCRLF(original)

	if !changed {
		t.Error("expected CRLF normalization to be detected")
	}
	if string(normalized) != "a\nb\n" {
		t.Errorf("expected normalized content %q, got %q", "a\nb\n", string(normalized))
	}
	if len(normalized) != len(original)-2 {
		t.Errorf("expected length %d, got %d", len(original)-2, len(normalized))
	}

	fs := NewFileSet()
	id := fs.Add("program.json", normalized, FileNormalizedCRLF)
	if fs.Get(id).Flags&FileNormalizedCRLF == 0 {
		t.Error("expected FileNormalizedCRLF flag to be set")
	}
}

func TestBOMRemoval(t *testing.T) {
	bomContent := []byte{0xEF, 0xBB, 0xBF, 'x', '\n'}
	withoutBOM, hadBOM := removeBOM(bomContent)

	if !hadBOM {
		t.Error("expected BOM to be detected")
	}
	if string(withoutBOM) != "x\n" {
		t.Errorf("expected content without BOM %q, got %q", "x\n", string(withoutBOM))
	}

	fs := NewFileSet()
	id := fs.Add("program.json", withoutBOM, FileHadBOM)
	if fs.Get(id).Flags&FileHadBOM == 0 {
		t.Error("expected FileHadBOM flag to be set")
	}
}

func TestResolveUTF8(t *testing.T) {
	fs := NewFileSet()

	// α is two bytes; Resolve works on byte offsets and reports 1-based
	// line/column positions.
	id := fs.AddVirtual("virtual.json", []byte("α\n"))

	span := Span{File: id, Start: 0, End: 1}
	start, end := fs.Resolve(span)

	if want := (LineCol{Line: 1, Col: 1}); start != want {
		t.Errorf("expected start %+v, got %+v", want, start)
	}
	if want := (LineCol{Line: 1, Col: 2}); end != want {
		t.Errorf("expected end %+v, got %+v", want, end)
	}
}

func TestLineIndexEdgeCases(t *testing.T) {
	fs := NewFileSet()

	empty := fs.Get(fs.AddVirtual("empty.json", []byte{}))
	if len(empty.LineIdx) != 0 {
		t.Errorf("expected empty LineIdx for empty file, got length %d", len(empty.LineIdx))
	}

	oneLine := fs.Get(fs.AddVirtual("one_line.json", []byte("hello")))
	if len(oneLine.LineIdx) != 0 {
		t.Errorf("expected empty LineIdx for file without newlines, got length %d", len(oneLine.LineIdx))
	}

	onlyNewline := fs.Get(fs.AddVirtual("only_newline.json", []byte("\n")))
	if len(onlyNewline.LineIdx) != 1 || onlyNewline.LineIdx[0] != 0 {
		t.Errorf("expected LineIdx [0] for file with only a newline, got %v", onlyNewline.LineIdx)
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "program.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	fs := NewFileSet()
	path := writeTempFile(t, "a\nb\n")

	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	file := fs.Get(id)
	if string(file.Content) != "a\nb\n" {
		t.Errorf("expected file content %q, got %q", "a\nb\n", string(file.Content))
	}
	if len(file.LineIdx) != 2 || file.LineIdx[0] != 1 || file.LineIdx[1] != 3 {
		t.Errorf("unexpected LineIdx %v", file.LineIdx)
	}
}

func TestLoadStripsBOM(t *testing.T) {
	fs := NewFileSet()
	path := writeTempFile(t, "\xEF\xBB\xBFa\nb\n")

	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	file := fs.Get(id)
	if string(file.Content) != "a\nb\n" {
		t.Errorf("expected BOM-stripped content, got %q", string(file.Content))
	}
	if file.Flags&FileHadBOM == 0 {
		t.Error("expected FileHadBOM flag to be set")
	}
}

func TestLoadNormalizesCRLF(t *testing.T) {
	fs := NewFileSet()
	path := writeTempFile(t, "a\r\nb\r\n")

	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	file := fs.Get(id)
	if string(file.Content) != "a\nb\n" {
		t.Errorf("expected CRLF-normalized content, got %q", string(file.Content))
	}
	if file.Flags&FileNormalizedCRLF == 0 {
		t.Error("expected FileNormalizedCRLF flag to be set")
	}
}
