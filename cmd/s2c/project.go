package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/example/s2c/internal/api"
	"github.com/example/s2c/internal/canvas"
	"github.com/example/s2c/internal/shape"
	"github.com/example/s2c/internal/store"
	"github.com/example/s2c/internal/viewport"
)

// ErrNoProject is returned when a project reference matches nothing.
var ErrNoProject = errors.New("no such project")

// projects is the part of the project store the commands use. Both the
// local database and the HTTP client provide it.
type projects interface {
	List(ctx context.Context) ([]*store.Project, error)
	Create(ctx context.Context, name string) (*store.Project, error)
	Get(ctx context.Context, id string) (*store.Project, error)
	Save(ctx context.Context, projectID string, shapes json.RawMessage, vp viewport.Data) error
	Delete(ctx context.Context, id string) error
}

func notFound(err error) bool {
	if errors.Is(err, store.ErrNotFound) {
		return true
	}
	var rerr *api.ResponseError
	return errors.As(err, &rerr) && rerr.Status == http.StatusNotFound
}

// findProject resolves ref as an id, a unique id prefix or an exact name.
func findProject(ctx context.Context, p projects, ref string) (*store.Project, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrNoProject
	}
	got, err := p.Get(ctx, ref)
	if err == nil {
		return got, nil
	}
	if !notFound(err) {
		return nil, err
	}
	all, err := p.List(ctx)
	if err != nil {
		return nil, err
	}
	var match *store.Project
	for _, pr := range all {
		if pr.Name == ref || strings.HasPrefix(pr.ID, ref) {
			if match != nil {
				return nil, fmt.Errorf("%q matches more than one project", ref)
			}
			match = pr
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%s: %w", ref, ErrNoProject)
	}
	return p.Get(ctx, match.ID)
}

// documentFor builds the editor document of a stored project.
func documentFor(p *store.Project) (*canvas.Document, error) {
	m, err := p.ShapeMap()
	if err != nil {
		return nil, err
	}
	doc := canvas.NewDocument()
	doc.Shapes = m
	doc.Viewport.Restore(p.Viewport)
	return doc, nil
}

// withProject opens the project store, resolves ref and calls fn.
func (r *root) withProject(ref string, fn func(ctx context.Context, p projects, pr *store.Project) error) error {
	ctx := context.Background()
	p, closeFn, err := r.openProjects()
	if err != nil {
		return err
	}
	defer closeFn()
	pr, err := findProject(ctx, p, ref)
	if err != nil {
		return err
	}
	return fn(ctx, p, pr)
}

type newCmd struct {
	*root
	fs   *flag.FlagSet
	name string
}

func (c *newCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseNewCmd(args []string, r *root) (*newCmd, error) {
	fs := flag.NewFlagSet("new", flag.ExitOnError)
	cmd := &newCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cmd.name = strings.TrimSpace(strings.Join(fs.Args(), " "))
	if cmd.name == "" {
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

func (c *newCmd) Run() error {
	p, closeFn, err := c.openProjects()
	if err != nil {
		return err
	}
	defer closeFn()
	pr, err := p.Create(context.Background(), c.name)
	if err != nil {
		return fmt.Errorf("create project %q: %w", c.name, err)
	}
	fmt.Fprintln(c.stdout(), pr.ID)
	return nil
}

type listCmd struct {
	*root
	fs *flag.FlagSet
}

func (c *listCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseListCmd(args []string, r *root) (*listCmd, error) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	cmd := &listCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

func (c *listCmd) Run() error {
	p, closeFn, err := c.openProjects()
	if err != nil {
		return err
	}
	defer closeFn()
	all, err := p.List(context.Background())
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	if len(all) == 0 {
		fmt.Fprintln(c.stdout(), "no projects")
		return nil
	}
	tw := tabwriter.NewWriter(c.stdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tUPDATED")
	for _, pr := range all {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", pr.ID, pr.Name, pr.UpdatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

type shapesCmd struct {
	*root
	fs  *flag.FlagSet
	ref string
}

func (c *shapesCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseShapesCmd(args []string, r *root) (*shapesCmd, error) {
	fs := flag.NewFlagSet("shapes", flag.ExitOnError)
	cmd := &shapesCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: cmd}
	}
	cmd.ref = fs.Arg(0)
	return cmd, nil
}

func describeShape(s shape.Shape) string {
	b := shape.Bounds(s)
	desc := fmt.Sprintf("%-11s %s  %.0f,%.0f %.0fx%.0f", s.Kind(), s.ShapeID(), b.X, b.Y, b.W, b.H)
	switch v := s.(type) {
	case *shape.Frame:
		desc += fmt.Sprintf("  frame %d", v.FrameNumber)
	case *shape.Text:
		desc += fmt.Sprintf("  %q", v.Text)
	case *shape.GeneratedUI:
		if v.UISpecData == nil {
			desc += "  (pending)"
		} else {
			desc += fmt.Sprintf("  %d bytes", len(*v.UISpecData))
		}
		if v.IsWorkflowPage {
			desc += "  workflow"
		}
	}
	return desc
}

func (c *shapesCmd) Run() error {
	return c.withProject(c.ref, func(_ context.Context, _ projects, pr *store.Project) error {
		m, err := pr.ShapeMap()
		if err != nil {
			return err
		}
		out := c.stdout()
		for s := range m.All() {
			fmt.Fprintln(out, describeShape(s))
		}
		return nil
	})
}

type importCmd struct {
	*root
	fs   *flag.FlagSet
	ref  string
	file string
	in   io.Reader
}

func (c *importCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseImportCmd(args []string, r *root) (*importCmd, error) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	cmd := &importCmd{root: r, fs: fs, in: os.Stdin}
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 2 {
		return nil, &UsageError{of: cmd}
	}
	cmd.ref, cmd.file = fs.Arg(0), fs.Arg(1)
	return cmd, nil
}

// decodeImport accepts a project dump or a bare shape map. The viewport
// is nil when the input carries none.
func decodeImport(b []byte) (*shape.Map, *viewport.Data, error) {
	var dump struct {
		Shapes   json.RawMessage `json:"shapes"`
		Viewport *viewport.Data  `json:"viewport"`
	}
	if err := json.Unmarshal(b, &dump); err != nil {
		return nil, nil, fmt.Errorf("decode import: %w", err)
	}
	raw := dump.Shapes
	if len(raw) == 0 {
		raw = b
		dump.Viewport = nil
	}
	m := shape.NewMap()
	if err := json.Unmarshal(raw, m); err != nil {
		return nil, nil, fmt.Errorf("decode shapes: %w", err)
	}
	return m, dump.Viewport, nil
}

func (c *importCmd) Run() error {
	var (
		b   []byte
		err error
	)
	if c.file == "-" {
		b, err = io.ReadAll(c.in)
	} else {
		b, err = os.ReadFile(c.file)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", c.file, err)
	}
	m, vp, err := decodeImport(b)
	if err != nil {
		return err
	}
	return c.withProject(c.ref, func(ctx context.Context, p projects, pr *store.Project) error {
		raw, err := json.Marshal(m)
		if err != nil {
			return err
		}
		data := pr.Viewport
		if vp != nil {
			data = *vp
		}
		if err := p.Save(ctx, pr.ID, raw, data); err != nil {
			return fmt.Errorf("save %s: %w", pr.Name, err)
		}
		fmt.Fprintf(c.stdout(), "imported %d shapes into %s\n", m.Len(), pr.Name)
		return nil
	})
}

type dumpCmd struct {
	*root
	fs     *flag.FlagSet
	ref    string
	output string
}

func (c *dumpCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseDumpCmd(args []string, r *root) (*dumpCmd, error) {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	cmd := &dumpCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	fs.StringVar(&cmd.output, "o", "", "write to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: cmd}
	}
	cmd.ref = fs.Arg(0)
	return cmd, nil
}

func (c *dumpCmd) Run() error {
	return c.withProject(c.ref, func(_ context.Context, _ projects, pr *store.Project) error {
		b, err := json.MarshalIndent(pr, "", "  ")
		if err != nil {
			return fmt.Errorf("encode %s: %w", pr.Name, err)
		}
		b = append(b, '\n')
		if c.output == "" {
			_, err = c.stdout().Write(b)
			return err
		}
		if err := os.WriteFile(c.output, b, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", c.output, err)
		}
		return nil
	})
}
