package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/example/s2c/internal/clipboard"
	"github.com/example/s2c/internal/shape"
	"github.com/example/s2c/internal/snapshot"
	"github.com/example/s2c/internal/store"
)

// Clipboard writers, replaced in tests.
var (
	copyPNGFn    = clipboard.WritePNG
	copyMarkupFn = clipboard.WriteMarkup
)

type exportCmd struct {
	*root
	fs          *flag.FlagSet
	ref         string
	frame       int
	generated   string
	dir         string
	stdout      bool
	toClipboard bool
}

func (c *exportCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseExportCmd(args []string, r *root) (*exportCmd, error) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	cmd := &exportCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	fs.IntVar(&cmd.frame, "frame", 0, "number of the frame to snapshot")
	fs.StringVar(&cmd.generated, "generated", "", "id or id prefix of the generated UI whose markup to write")
	fs.StringVar(&cmd.dir, "o", r.cfg().ExportDir, "output directory")
	fs.BoolVar(&cmd.stdout, "stdout", false, "write to stdout instead of a file")
	fs.BoolVar(&cmd.toClipboard, "to-clipboard", false, "copy to the clipboard instead of writing a file")
	fs.BoolVar(&cmd.toClipboard, "to-clip", false, "copy to the clipboard (alias)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: cmd}
	}
	cmd.ref = fs.Arg(0)
	if (cmd.frame > 0) == (cmd.generated != "") {
		return nil, fmt.Errorf("exactly one of -frame or -generated is required")
	}
	if cmd.stdout && cmd.toClipboard {
		return nil, fmt.Errorf("-stdout cannot be used with -to-clipboard")
	}
	return cmd, nil
}

func (c *exportCmd) Run() error {
	return c.withProject(c.ref, func(_ context.Context, _ projects, pr *store.Project) error {
		m, err := pr.ShapeMap()
		if err != nil {
			return err
		}
		if c.frame > 0 {
			return c.exportFrame(m)
		}
		return c.exportGenerated(m)
	})
}

func (c *exportCmd) outDir() (string, error) {
	if c.dir != "" {
		return c.dir, nil
	}
	return c.cfg().ResolveExportDir()
}

func (c *exportCmd) exportFrame(m *shape.Map) error {
	f, ok := m.FrameByNumber(c.frame)
	if !ok {
		return fmt.Errorf("export: frame %d not found", c.frame)
	}
	shapes := m.Shapes()
	switch {
	case c.stdout:
		return snapshot.EncodePNG(f, shapes, c.root.stdout())
	case c.toClipboard:
		b, err := snapshot.PNG(f, shapes)
		if err != nil {
			return err
		}
		if err := copyPNGFn(b); err != nil {
			return fmt.Errorf("copy frame %d: %w", f.FrameNumber, err)
		}
		c.notifyCopy(fmt.Sprintf("frame %d snapshot", f.FrameNumber))
		return nil
	}
	dir, err := c.outDir()
	if err != nil {
		return err
	}
	path, err := snapshot.WriteFile(dir, f, shapes)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.root.stdout(), path)
	c.notifyExport(path)
	return nil
}

func findGenerated(m *shape.Map, ref string) (*shape.GeneratedUI, error) {
	var match *shape.GeneratedUI
	for s := range m.All() {
		g, ok := s.(*shape.GeneratedUI)
		if !ok || !strings.HasPrefix(g.ID, ref) {
			continue
		}
		if g.ID == ref {
			return g, nil
		}
		if match != nil {
			return nil, fmt.Errorf("%q matches more than one generated ui", ref)
		}
		match = g
	}
	if match == nil {
		return nil, fmt.Errorf("generated ui %q not found", ref)
	}
	return match, nil
}

func (c *exportCmd) exportGenerated(m *shape.Map) error {
	g, err := findGenerated(m, c.generated)
	if err != nil {
		return err
	}
	if g.UISpecData == nil {
		return fmt.Errorf("generated ui %s has no markup yet", g.ID)
	}
	switch {
	case c.stdout:
		_, err := fmt.Fprint(c.root.stdout(), *g.UISpecData)
		return err
	case c.toClipboard:
		if err := copyMarkupFn(*g.UISpecData); err != nil {
			return fmt.Errorf("copy markup: %w", err)
		}
		c.notifyCopy(snapshot.MarkupFileName(g))
		return nil
	}
	dir, err := c.outDir()
	if err != nil {
		return err
	}
	path, err := snapshot.WriteMarkup(dir, g)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.root.stdout(), path)
	c.notifyExport(path)
	return nil
}
