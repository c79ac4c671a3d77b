package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"siko/internal/diag"
	"siko/internal/source"
)

func TestPrettyPathModes(t *testing.T) {
	fs := source.NewFileSet()
	fs.SetBaseDir("/home/user/project")
	content := []byte("fn f(x: Box) {\n    let a = x;\n    let b = x;\n}\n")
	fileID := fs.AddVirtual("/home/user/project/src/test.sk", content)

	bag := diag.NewBag(10)
	bag.Add(&diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.DropUseAfterMove,
		Message:  "value moved here is used again",
		Primary:  source.Span{File: fileID, Start: 30, End: 31},
	})

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{"absolute", PathModeAbsolute, "/home/user/project/src/test.sk"},
		{"relative", PathModeRelative, "src/test.sk"},
		{"basename", PathModeBasename, "test.sk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			opts := PrettyOpts{Color: false, Context: 1, PathMode: tt.mode}
			Pretty(&buf, bag, fs, opts)
			if got := buf.String(); !strings.Contains(got, tt.contains) {
				t.Fatalf("output %q does not contain %q", got, tt.contains)
			}
		})
	}
}

func TestPrettyUnderlinesPrimarySpan(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("let a = x;\n")
	fileID := fs.AddVirtual("f.sk", content)

	bag := diag.NewBag(10)
	bag.Add(&diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.DropUseAfterMove,
		Message:  "value moved",
		Primary:  source.Span{File: fileID, Start: 8, End: 9},
	})

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Color: false, Context: 1})
	got := buf.String()
	if !strings.Contains(got, "^") {
		t.Fatalf("expected an underline marker in output, got %q", got)
	}
	if !strings.Contains(got, "DRP1001") {
		t.Fatalf("expected rendered code DRP1001, got %q", got)
	}
}

func TestPrettyRendersNotes(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("let a = x;\nlet b = x;\n")
	fileID := fs.AddVirtual("f.sk", content)

	bag := diag.NewBag(10)
	bag.Add(&diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.DropUseAfterMove,
		Message:  "value moved",
		Primary:  source.Span{File: fileID, Start: 19, End: 20},
		Notes: []diag.Note{
			{Span: source.Span{File: fileID, Start: 8, End: 9}, Msg: "value moved here"},
		},
	})

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Color: false, Context: 1, ShowNotes: true})
	if got := buf.String(); !strings.Contains(got, "value moved here") {
		t.Fatalf("expected note text in output, got %q", got)
	}
}
