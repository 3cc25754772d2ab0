package assets

import (
	"os"
	"path/filepath"
	"testing"
)

const testDoc = "name: soldier\nright_turns:\n  - name: turn_r_90\n    bake: {turn_angle: 90, duration: 1.0}\n"

func TestLibrary_LoadByName(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "soldier.yaml"), []byte(testDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	lib := NewLibrary(dir)
	set, err := lib.Load("soldier")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if set.Name != "soldier" {
		t.Errorf("name = %q, want soldier", set.Name)
	}

	again, err := lib.Load("soldier")
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if again != set {
		t.Error("expected the cached set on the second load")
	}

	lib.Clear()
	fresh, err := lib.Load("soldier")
	if err != nil {
		t.Fatalf("Load after Clear failed: %v", err)
	}
	if fresh == set {
		t.Error("expected a rebuilt set after Clear")
	}
}

func TestLibrary_LoadByPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yml")
	if err := os.WriteFile(path, []byte(testDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	set, err := NewLibrary().Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if set.Name != "soldier" {
		t.Errorf("name = %q, want soldier", set.Name)
	}
}

func TestLibrary_EmptyNameUsesDefault(t *testing.T) {
	set, err := NewLibrary().Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if set == nil || len(set.RightTurns) == 0 {
		t.Error("expected the built-in default set")
	}
}

func TestLibrary_DirPriority(t *testing.T) {
	low := t.TempDir()
	high := t.TempDir()
	if err := os.WriteFile(filepath.Join(low, "set.yaml"), []byte("name: low\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(high, "set.yaml"), []byte("name: high\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	lib := NewLibrary(low)
	lib.AddDir(high)
	set, err := lib.Load("set")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if set.Name != "high" {
		t.Errorf("name = %q, want high from the later directory", set.Name)
	}
}

func TestLibrary_NotFound(t *testing.T) {
	if _, err := NewLibrary(t.TempDir()).Load("missing"); err == nil {
		t.Error("expected an error for an unknown set")
	}
}
