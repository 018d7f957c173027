package shader

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed shaders/*.vert shaders/*.frag
var builtin embed.FS

// Built-in program names.
const (
	Grass  = "grass"
	Ground = "ground"
)

// Source holds the vertex and fragment source of one program.
type Source struct {
	Name     string
	Vertex   string
	Fragment string
	// Path is the override directory the source was read from, empty for built-ins.
	Path string
}

// Load returns the program sources for name. Files name.vert and name.frag in dir
// take precedence over the built-in copies; dir may be empty.
func Load(dir, name string) (Source, error) {
	if dir != "" {
		src, err := loadFrom(os.DirFS(dir), name)
		if err == nil {
			src.Path = dir
			return src, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return Source{}, fmt.Errorf("loading shader %s from %s: %w", name, dir, err)
		}
	}

	sub, err := fs.Sub(builtin, "shaders")
	if err != nil {
		return Source{}, err
	}
	src, err := loadFrom(sub, name)
	if err != nil {
		return Source{}, fmt.Errorf("built-in shader %s: %w", name, err)
	}
	return src, nil
}

func loadFrom(fsys fs.FS, name string) (Source, error) {
	vert, err := fs.ReadFile(fsys, name+".vert")
	if err != nil {
		return Source{}, err
	}
	frag, err := fs.ReadFile(fsys, name+".frag")
	if err != nil {
		return Source{}, err
	}
	return Source{Name: name, Vertex: string(vert), Fragment: string(frag)}, nil
}

// Files returns the override file paths watched for name in dir.
func Files(dir, name string) []string {
	return []string{
		filepath.Join(dir, name+".vert"),
		filepath.Join(dir, name+".frag"),
	}
}
