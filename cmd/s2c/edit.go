package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/example/s2c/internal/appstate"
	"github.com/example/s2c/internal/autosave"
	"github.com/example/s2c/internal/canvas"
	"github.com/example/s2c/internal/generate"
	"github.com/example/s2c/internal/gesture"
	"github.com/example/s2c/internal/store"
)

// runWindow is replaced in tests.
var runWindow = (*appstate.AppState).Run

type editCmd struct {
	*root
	fs         *flag.FlagSet
	ref        string
	handKey    string
	exportDir  string
	noAutosave bool
	endpoint   string
}

func (c *editCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseEditCmd(args []string, r *root) (*editCmd, error) {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	cmd := &editCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	cfg := r.cfg()
	fs.StringVar(&cmd.handKey, "hand-key", cfg.HandKey, "key held to pan with the primary button: space or shift")
	fs.StringVar(&cmd.exportDir, "export-dir", cfg.ExportDir, "directory ctrl+e writes snapshots and markup into")
	fs.BoolVar(&cmd.noAutosave, "no-autosave", !cfg.Autosave.Enabled, "do not save changes in the background")
	fs.StringVar(&cmd.endpoint, "endpoint", cfg.Generate.Endpoint, "base URL of the generation service; empty disables generation")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: cmd}
	}
	cmd.ref = fs.Arg(0)
	if _, err := appstate.ParseHandKey(cmd.handKey); err != nil {
		return nil, err
	}
	return cmd, nil
}

func (c *editCmd) Run() error {
	return c.withProject(c.ref, c.edit)
}

func (c *editCmd) edit(ctx context.Context, p projects, pr *store.Project) error {
	doc, err := documentFor(pr)
	if err != nil {
		return err
	}
	st := canvas.NewStore(doc)
	handKey, err := appstate.ParseHandKey(c.handKey)
	if err != nil {
		return err
	}
	exportDir := c.exportDir
	if exportDir == "" {
		if exportDir, err = c.cfg().ResolveExportDir(); err != nil {
			return err
		}
	}
	app, co := c.newApp(st, p, pr, handKey, exportDir)
	log.Printf("editing %s (%d shapes)", pr.Name, doc.Shapes.Len())
	runWindow(app)

	if co == nil {
		return nil
	}
	co.Close()
	return finalSave(ctx, p, pr.ID, st)
}

// newApp wires the editor window to autosave and generation. The
// coordinator is nil when autosave is off.
func (c *editCmd) newApp(st *canvas.Store, p projects, pr *store.Project, handKey gesture.Key, exportDir string) (*appstate.AppState, *autosave.Coordinator) {
	cfg := c.cfg()
	var app *appstate.AppState
	opts := []appstate.Option{
		appstate.WithStore(st),
		appstate.WithTheme(c.activeTheme),
		appstate.WithProjectName(pr.Name),
		appstate.WithNotifier(c.notifier),
		appstate.WithHandKey(handKey),
		appstate.WithExportDir(exportDir),
	}

	var co *autosave.Coordinator
	if !c.noAutosave {
		co = autosave.New(pr.ID, p,
			autosave.WithDebounce(cfg.Autosave.Debounce),
			autosave.WithHolds(cfg.Autosave.SavedHold, cfg.Autosave.ErrorHold),
			autosave.WithStatusFunc(func(s autosave.Status, err error) { app.AutosaveStatus(s, err) }),
		)
		doc, _ := st.Snapshot()
		co.MarkSaved(doc)
		opts = append(opts, appstate.WithAutosave(co))
	}
	if c.endpoint != "" {
		gen := generate.New(generate.NewClient(c.endpoint, nil), st,
			generate.WithProjectID(pr.ID),
			generate.WithThrottle(cfg.Generate.Throttle),
			generate.WithProgress(func(id string, busy bool, err error) { app.GenerationProgress(id, busy, err) }),
		)
		opts = append(opts, appstate.WithGenerator(gen))
	}
	app = appstate.New(opts...)
	return app, co
}

// finalSave writes the document as the window left it. Closing the
// coordinator drops any save still in flight.
func finalSave(ctx context.Context, p projects, id string, st *canvas.Store) error {
	doc, _ := st.Snapshot()
	raw, err := json.Marshal(doc.Shapes)
	if err != nil {
		return fmt.Errorf("encode shapes: %w", err)
	}
	if err := p.Save(ctx, id, raw, doc.Viewport.Data()); err != nil {
		return fmt.Errorf("final save: %w", err)
	}
	return nil
}
