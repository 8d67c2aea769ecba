package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/example/s2c/internal/api"
	"github.com/example/s2c/internal/config"
	"github.com/example/s2c/internal/notify"
	"github.com/example/s2c/internal/store"
	"github.com/example/s2c/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs                *flag.FlagSet
	program           string
	out               io.Writer
	notifier          *notify.Notifier
	config            *config.Config
	saveAlerts        bool
	exportAlerts      bool
	copyAlerts        bool
	autosaveErrAlerts bool
	themeName         string
	dataDir           string
	remote            string
	activeTheme       *theme.Theme
}

func (r *root) Program() string {
	return r.program
}

func (r *root) subcommand(name string) *root {
	program := strings.TrimSpace(strings.Join([]string{r.program, name}, " "))
	return &root{
		program:           program,
		out:               r.out,
		notifier:          r.notifier,
		config:            r.config,
		saveAlerts:        r.saveAlerts,
		exportAlerts:      r.exportAlerts,
		copyAlerts:        r.copyAlerts,
		autosaveErrAlerts: r.autosaveErrAlerts,
		themeName:         r.themeName,
		dataDir:           r.dataDir,
		remote:            r.remote,
		activeTheme:       r.activeTheme,
	}
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func (r *root) stdout() io.Writer {
	if r == nil || r.out == nil {
		return os.Stdout
	}
	return r.out
}

func (r *root) cfg() *config.Config {
	if r == nil || r.config == nil {
		return config.New()
	}
	return r.config
}

func newRoot() *root {
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}
	cfg.ApplyEnv(nil)

	r := &root{
		fs:       flag.NewFlagSet("s2c", flag.ExitOnError),
		program:  "s2c",
		out:      os.Stdout,
		notifier: notify.New(notify.LoadPreferences(nil)),
		config:   cfg,
	}
	r.fs.BoolVar(&r.saveAlerts, "notify-save", cfg.Notify.Save, "show a desktop notification after an explicit save")
	r.fs.BoolVar(&r.exportAlerts, "notify-export", cfg.Notify.Export, "show a desktop notification after exporting a frame or markup")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", cfg.Notify.Copy, "show a desktop notification after copying to the clipboard")
	r.fs.BoolVar(&r.autosaveErrAlerts, "notify-autosave-error", cfg.Notify.AutosaveError, "show a desktop notification when autosave fails")
	r.fs.StringVar(&r.themeName, "theme", "", "editor theme (dark, light or a [theme.<name>] section)")
	r.fs.StringVar(&r.dataDir, "data-dir", "", "directory holding the project database")
	r.fs.StringVar(&r.remote, "remote", "", "base URL of an s2c server to use instead of the local database")
	r.fs.Usage = usageFunc(r)
	return r
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	if r.notifier != nil {
		r.notifier.Enable(notify.EventSave, r.saveAlerts)
		r.notifier.Enable(notify.EventExport, r.exportAlerts)
		r.notifier.Enable(notify.EventCopy, r.copyAlerts)
		r.notifier.Enable(notify.EventAutosaveError, r.autosaveErrAlerts)
	}
	if r.dataDir != "" {
		r.config.DataDir = r.dataDir
	}
	if r.remote != "" {
		r.config.Autosave.Remote = r.remote
	}

	// CLI > env > config > default. Env was folded into the config by ApplyEnv.
	themeName := r.themeName
	if themeName == "" {
		themeName = r.config.Theme
	}
	t, err := r.config.ThemeLoader().Load(themeName)
	if err != nil {
		if themeName != "" && themeName != "default" {
			fmt.Fprintf(os.Stderr, "warning: failed to load theme '%s': %v. using default.\n", themeName, err)
		}
		t = theme.Default()
	}
	r.activeTheme = t

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]
	sub := r.subcommand(cmdName)

	var cmd runnable
	switch cmdName {
	case "new":
		cmd, err = parseNewCmd(subArgs, sub)
	case "list":
		cmd, err = parseListCmd(subArgs, sub)
	case "edit":
		cmd, err = parseEditCmd(subArgs, sub)
	case "shapes":
		cmd, err = parseShapesCmd(subArgs, sub)
	case "export":
		cmd, err = parseExportCmd(subArgs, sub)
	case "import":
		cmd, err = parseImportCmd(subArgs, sub)
	case "dump":
		cmd, err = parseDumpCmd(subArgs, sub)
	case "serve":
		cmd, err = parseServeCmd(subArgs, sub)
	case "config":
		cmd, err = parseConfigCmd(subArgs, sub)
	case "version":
		cmd = &versionCmd{r: sub}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
		} else {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

// openProjects returns the remote API client when one is configured and
// the local database otherwise. The returned func releases it.
func (r *root) openProjects() (projects, func(), error) {
	cfg := r.cfg()
	if remote := strings.TrimSpace(cfg.Autosave.Remote); remote != "" {
		return api.NewClient(remote, nil), func() {}, nil
	}
	dir, err := cfg.ResolveDataDir()
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(dir)
	if err != nil {
		return nil, nil, err
	}
	return st, func() {
		if err := st.Close(); err != nil {
			log.Printf("close database: %v", err)
		}
	}, nil
}

func (r *root) notifyExport(path string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Export(path)
}

func (r *root) notifyCopy(detail string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Copy(detail)
}
