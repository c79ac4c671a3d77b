package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTOML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "siko.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadDefaultsWhenSectionsAbsent(t *testing.T) {
	path := writeTOML(t, `max_diagnostics = 50`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxDiagnostics != 50 {
		t.Fatalf("expected overridden max_diagnostics=50, got %d", cfg.MaxDiagnostics)
	}
	if !cfg.Simplify.ConstFold || !cfg.Simplify.Inline {
		t.Fatalf("expected default simplify passes to stay enabled, got %+v", cfg.Simplify)
	}
	if !cfg.Clone.AllowImplicitClone {
		t.Fatalf("expected default clone policy to allow implicit clone")
	}
}

func TestLoadOverridesSimplifyPasses(t *testing.T) {
	path := writeTOML(t, `
max_diagnostics = 10

[simplify]
inline = false
dead_code = false

[clone]
allow_implicit_clone = false
warn_on_clone = true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Simplify.Inline || cfg.Simplify.DeadCode {
		t.Fatalf("expected inline/dead_code disabled, got %+v", cfg.Simplify)
	}
	if !cfg.Simplify.ConstFold || !cfg.Simplify.VariableSimplify || !cfg.Simplify.UnusedAssign {
		t.Fatalf("expected untouched simplify keys to keep their defaults, got %+v", cfg.Simplify)
	}
	if cfg.Clone.AllowImplicitClone || !cfg.Clone.WarnOnClone {
		t.Fatalf("unexpected clone policy: %+v", cfg.Clone)
	}
}

func TestLoadRejectsNonPositiveMaxDiagnostics(t *testing.T) {
	path := writeTOML(t, `max_diagnostics = 0`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for max_diagnostics = 0")
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := writeTOML(t, `max_diagnostics = [`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected a parse error")
	}
}
