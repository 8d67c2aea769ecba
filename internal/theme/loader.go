package theme

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Loader resolves theme names to palettes.
type Loader struct {
	ConfigDir string
	SystemDir string
	// Custom holds themes defined inline in the rc file; they win over
	// every other source.
	Custom map[string]*Theme
}

// NewLoader creates a Loader with the standard search paths.
func NewLoader() *Loader {
	home, _ := os.UserHomeDir()
	return &Loader{
		ConfigDir: filepath.Join(home, ".config", "s2c", "themes"),
		SystemDir: "/usr/share/s2c/themes",
	}
}

// Load resolves name in order: rc-defined themes, an existing file path,
// the embedded defaults, ConfigDir, then SystemDir. An empty name yields
// Default.
func (l *Loader) Load(name string) (*Theme, error) {
	if name == "" {
		return Default(), nil
	}
	if t, ok := l.Custom[name]; ok {
		return t, nil
	}
	if _, err := os.Stat(name); err == nil {
		return parseFile(os.DirFS(filepath.Dir(name)), filepath.Base(name))
	}

	filename := name
	if !strings.HasSuffix(filename, ".theme") {
		filename += ".theme"
	}
	if t, err := parseFile(EmbeddedThemes, path.Join("defaults", filename)); err == nil {
		return t, nil
	}
	for _, dir := range []string{l.ConfigDir, l.SystemDir} {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, filename)); err == nil {
			return parseFile(os.DirFS(dir), filename)
		}
	}
	return nil, fmt.Errorf("theme '%s' not found", name)
}

func parseFile(fsys fs.FS, name string) (*Theme, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("theme %s: %w", name, err)
	}
	return t, nil
}

// Embedded lists the names of the built-in themes.
func Embedded() []string {
	entries, err := fs.ReadDir(EmbeddedThemes, "defaults")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if n, ok := strings.CutSuffix(e.Name(), ".theme"); ok {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}
