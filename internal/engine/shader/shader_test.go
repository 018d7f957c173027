package shader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInjectDefines(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		defines []string
		want    string
	}{
		{"no defines", "#version 410 core\nvoid main() {}\n", nil, "#version 410 core\nvoid main() {}\n"},
		{"after version", "#version 410 core\nvoid main() {}\n", []string{"HDR"}, "#version 410 core\n#define HDR\nvoid main() {}\n"},
		{"leading blank line", "\n#version 410 core\nx\n", []string{"A", "B 2"}, "\n#version 410 core\n#define A\n#define B 2\nx\n"},
		{"no version", "void main() {}", []string{"HDR"}, "#define HDR\nvoid main() {}"},
		{"version only", "#version 410 core", []string{"HDR"}, "#version 410 core\n#define HDR\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InjectDefines(tt.src, tt.defines); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLoadBuiltin(t *testing.T) {
	for _, name := range []string{Grass, Ground} {
		src, err := Load("", name)
		if err != nil {
			t.Fatalf("Load(%s) failed: %v", name, err)
		}
		if !strings.HasPrefix(src.Vertex, "#version 410") || !strings.HasPrefix(src.Fragment, "#version 410") {
			t.Errorf("%s: expected GLSL 410 sources", name)
		}
		if src.Path != "" {
			t.Errorf("%s: expected built-in source, got path %s", name, src.Path)
		}
	}

	grass, _ := Load("", Grass)
	for _, attr := range []string{"location = 0", "location = 1", "location = 2"} {
		if !strings.Contains(grass.Vertex, attr) {
			t.Errorf("grass vertex shader missing %q", attr)
		}
	}
}

func TestLoadOverride(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "grass.vert"), []byte("custom vert"), 0644)
	os.WriteFile(filepath.Join(dir, "grass.frag"), []byte("custom frag"), 0644)

	src, err := Load(dir, Grass)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if src.Vertex != "custom vert" || src.Fragment != "custom frag" {
		t.Errorf("expected override sources, got %+v", src)
	}
	if src.Path != dir {
		t.Errorf("expected path %s, got %s", dir, src.Path)
	}

	// Only one of the pair present falls back to the built-in.
	partial := t.TempDir()
	os.WriteFile(filepath.Join(partial, "ground.vert"), []byte("custom"), 0644)
	src, err = Load(partial, Ground)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if src.Path != "" {
		t.Errorf("expected built-in fallback, got %s", src.Path)
	}
}

func TestLoadUnknown(t *testing.T) {
	if _, err := Load(t.TempDir(), "water"); err == nil {
		t.Error("expected error for unknown shader")
	}
}

func TestFiles(t *testing.T) {
	files := Files("shaders", Grass)
	if len(files) != 2 || filepath.Base(files[0]) != "grass.vert" || filepath.Base(files[1]) != "grass.frag" {
		t.Errorf("unexpected files %v", files)
	}
}
