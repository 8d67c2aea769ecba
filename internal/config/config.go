// Package config loads the s2c rc file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/example/s2c/internal/theme"
)

// Autosave holds the [autosave] section.
type Autosave struct {
	Enabled   bool
	Debounce  time.Duration
	SavedHold time.Duration
	ErrorHold time.Duration
	// Remote is the base URL of an s2c server; empty saves to the local
	// database.
	Remote string
}

// Generate holds the [generate] section.
type Generate struct {
	Endpoint string
	Throttle time.Duration
}

// Serve holds the [serve] section.
type Serve struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Notify holds notification settings.
type Notify struct {
	Save          bool
	Export        bool
	Copy          bool
	AutosaveError bool
}

// Config holds the application configuration.
type Config struct {
	Theme     string
	DataDir   string
	ExportDir string
	HandKey   string
	Autosave  Autosave
	Generate  Generate
	Serve     Serve
	Notify    Notify
	Themes    map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		HandKey: "space",
		Autosave: Autosave{
			Enabled:   true,
			Debounce:  3 * time.Second,
			SavedHold: 2 * time.Second,
			ErrorHold: 3 * time.Second,
		},
		Generate: Generate{
			Endpoint: "http://localhost:3000",
			Throttle: 200 * time.Millisecond,
		},
		Serve: Serve{
			Addr:         "127.0.0.1:7420",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Notify: Notify{AutosaveError: true},
		Themes: make(map[string]*theme.Theme),
	}
}

// ApplyEnv overrides fields from S2C_* environment variables. A nil getenv
// uses os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv("S2C_THEME")); v != "" {
		c.Theme = v
	}
	if v := strings.TrimSpace(getenv("S2C_DATA_DIR")); v != "" {
		c.DataDir = v
	}
}

// ResolveDataDir returns DataDir or the per-user default
// ($XDG_DATA_HOME/s2c, falling back to ~/.local/share/s2c).
func (c *Config) ResolveDataDir() (string, error) {
	if c.DataDir != "" {
		return expandHome(c.DataDir)
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "s2c"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("data dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", "s2c"), nil
}

// ResolveExportDir returns ExportDir or the working directory.
func (c *Config) ResolveExportDir() (string, error) {
	if c.ExportDir != "" {
		return expandHome(c.ExportDir)
	}
	return os.Getwd()
}

func expandHome(p string) (string, error) {
	rest, ok := strings.CutPrefix(p, "~")
	if !ok || (rest != "" && rest[0] != '/') {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, rest), nil
}

// ThemeLoader returns a theme loader aware of the rc-defined themes.
func (c *Config) ThemeLoader() *theme.Loader {
	l := theme.NewLoader()
	l.Custom = c.Themes
	return l
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.DataDir != "" {
		fmt.Fprintf(&sb, "data_dir = %s\n", c.DataDir)
	}
	if c.ExportDir != "" {
		fmt.Fprintf(&sb, "export_dir = %s\n", c.ExportDir)
	}
	fmt.Fprintf(&sb, "hand_key = %s\n", c.HandKey)
	sb.WriteString("\n")

	sb.WriteString("[autosave]\n")
	fmt.Fprintf(&sb, "enabled = %v\n", c.Autosave.Enabled)
	fmt.Fprintf(&sb, "debounce = %s\n", c.Autosave.Debounce)
	fmt.Fprintf(&sb, "saved_hold = %s\n", c.Autosave.SavedHold)
	fmt.Fprintf(&sb, "error_hold = %s\n", c.Autosave.ErrorHold)
	if c.Autosave.Remote != "" {
		fmt.Fprintf(&sb, "remote = %s\n", c.Autosave.Remote)
	}
	sb.WriteString("\n")

	sb.WriteString("[generate]\n")
	fmt.Fprintf(&sb, "endpoint = %s\n", c.Generate.Endpoint)
	fmt.Fprintf(&sb, "throttle = %s\n", c.Generate.Throttle)
	sb.WriteString("\n")

	sb.WriteString("[serve]\n")
	fmt.Fprintf(&sb, "addr = %s\n", c.Serve.Addr)
	fmt.Fprintf(&sb, "read_timeout = %s\n", c.Serve.ReadTimeout)
	fmt.Fprintf(&sb, "write_timeout = %s\n", c.Serve.WriteTimeout)
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "export = %v\n", c.Notify.Export)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	fmt.Fprintf(&sb, "autosave_error = %v\n", c.Notify.AutosaveError)
	sb.WriteString("\n")

	names := make([]string, 0, len(c.Themes))
	for name := range c.Themes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		for _, field := range theme.Fields() {
			col, _ := t.Color(field)
			if col.A == 255 {
				fmt.Fprintf(&sb, "%s: #%02X%02X%02X\n", field, col.R, col.G, col.B)
			} else {
				fmt.Fprintf(&sb, "%s: #%02X%02X%02X%02X\n", field, col.R, col.G, col.B, col.A)
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
