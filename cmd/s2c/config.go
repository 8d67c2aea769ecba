package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/example/s2c/internal/config"
)

type configCmd struct {
	*root
	fs *flag.FlagSet
}

func (c *configCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseConfigCmd(args []string, r *root) (*configCmd, error) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	c := &configCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *configCmd) Run() error {
	args := c.fs.Args()
	if len(args) < 1 {
		return &UsageError{of: c}
	}

	switch args[0] {
	case "print":
		fmt.Fprint(c.stdout(), c.cfg().String())
		return nil
	case "save":
		return c.runSave()
	default:
		return fmt.Errorf("unknown config command: %s", args[0])
	}
}

func (c *configCmd) runSave() error {
	loader := config.NewLoader(version, configPathOverride)
	path := loader.GetConfigPath()
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get user home dir: %w", err)
		}
		path = filepath.Join(home, ".config", "s2c", "config.rc")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(c.cfg().String()), 0o644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "Configuration saved to %s\n", path)
	return nil
}
