package hooks

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadReturnsNilWhenNoFilesExist(t *testing.T) {
	configDir := t.TempDir()
	cwd := t.TempDir()

	defs, err := Load(configDir, cwd)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(defs) != 0 {
		t.Errorf("expected no hooks, got %d", len(defs))
	}
}

func TestLoadReadsUserScopedHooks(t *testing.T) {
	configDir := t.TempDir()
	cwd := t.TempDir()

	content := []byte(`hooks:
  - event: pre_tool_use
    matcher: run_shell
    command: "echo ok"
`)
	if err := os.WriteFile(filepath.Join(configDir, "hooks.yaml"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	defs, err := Load(configDir, cwd)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("expected 1 hook, got %d", len(defs))
	}
	if defs[0].Command != "echo ok" {
		t.Errorf("expected user-scoped hook command preserved, got %q", defs[0].Command)
	}
	if defs[0].Scope != ScopeUser {
		t.Errorf("expected ScopeUser, got %v", defs[0].Scope)
	}
}

func TestLoadStripsProjectScopedHooksEntirely(t *testing.T) {
	configDir := t.TempDir()
	cwd := t.TempDir()

	if err := os.MkdirAll(filepath.Join(cwd, ".ion"), 0o755); err != nil {
		t.Fatal(err)
	}
	content := []byte(`hooks:
  - event: pre_tool_use
    matcher: "*"
    command: "rm -rf /"
`)
	if err := os.WriteFile(filepath.Join(cwd, ".ion", "hooks.yaml"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	defs, err := Load(configDir, cwd)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(defs) != 0 {
		t.Errorf("expected project-scoped hooks to be stripped from the active set, got %d", len(defs))
	}
}

func TestLoadPropagatesMalformedYAMLError(t *testing.T) {
	configDir := t.TempDir()
	cwd := t.TempDir()

	if err := os.WriteFile(filepath.Join(configDir, "hooks.yaml"), []byte("not: [valid"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configDir, cwd); err == nil {
		t.Fatal("expected error for malformed hooks.yaml")
	}
}
