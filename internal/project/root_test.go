package project

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindRootManifestMarker(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "pyproject.toml"), []byte("[project]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "src", "acme")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	if got := FindRoot(nested); got != root {
		t.Fatalf("FindRoot(%q) = %q, want %q", nested, got, root)
	}
}

func TestFindRootGitFallback(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "lib")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	if got := FindRoot(nested); got != root {
		t.Fatalf("FindRoot(%q) = %q, want %q", nested, got, root)
	}
}

func TestFindRootNearestMarkerWins(t *testing.T) {
	outer := t.TempDir()
	if err := os.WriteFile(filepath.Join(outer, "package.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	inner := filepath.Join(outer, "services", "api")
	if err := os.MkdirAll(inner, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(inner, "go.mod"), []byte("module api\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if got := FindRoot(inner); got != inner {
		t.Fatalf("FindRoot(%q) = %q, want the nearest marker %q", inner, got, inner)
	}
}

func TestFindRootNoMarkers(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plain")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	if got := FindRoot(dir); got != dir {
		t.Fatalf("FindRoot(%q) = %q, want the directory itself", dir, got)
	}
}
