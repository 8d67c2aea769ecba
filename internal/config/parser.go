package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/example/s2c/internal/theme"
)

// Parse reads configuration from an io.Reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var section string
	var current *theme.Theme

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			current = nil
			if name, ok := strings.CutPrefix(section, "theme."); ok {
				// Start with defaults so missing keys are fine
				current = theme.Default()
				current.Name = name
				cfg.Themes[name] = current
			}
			continue
		}

		// Key = Value or Key: Value
		sep := "="
		if !strings.Contains(line, "=") {
			sep = ":"
		}
		k, v, ok := strings.Cut(line, sep)
		if !ok {
			continue
		}
		key := strings.TrimSpace(k)
		value := strings.Trim(strings.TrimSpace(v), `"`)

		var err error
		switch {
		case current != nil:
			err = theme.SetField(current, key, value)
		case section == "":
			err = setRootField(cfg, key, value)
		case section == "autosave":
			err = setAutosaveField(&cfg.Autosave, key, value)
		case section == "generate":
			err = setGenerateField(&cfg.Generate, key, value)
		case section == "serve":
			err = setServeField(&cfg.Serve, key, value)
		case section == "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		}
		if err != nil {
			if section == "" {
				return nil, fmt.Errorf("error in root section: %w", err)
			}
			return nil, fmt.Errorf("error in section [%s]: %w", section, err)
		}
	}

	return cfg, scanner.Err()
}

func setRootField(cfg *Config, key, value string) error {
	switch strings.ToLower(key) {
	case "theme":
		cfg.Theme = value
	case "data_dir":
		cfg.DataDir = value
	case "export_dir":
		cfg.ExportDir = value
	case "hand_key":
		v := strings.ToLower(value)
		if v != "space" && v != "shift" {
			return fmt.Errorf("hand_key must be space or shift, got %q", value)
		}
		cfg.HandKey = v
	}
	return nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	return b, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for key %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration for key %s", key)
	}
	return d, nil
}

func setAutosaveField(a *Autosave, key, value string) (err error) {
	switch strings.ToLower(key) {
	case "enabled":
		a.Enabled, err = parseBool(key, value)
	case "debounce":
		a.Debounce, err = parseDuration(key, value)
	case "saved_hold":
		a.SavedHold, err = parseDuration(key, value)
	case "error_hold":
		a.ErrorHold, err = parseDuration(key, value)
	case "remote":
		a.Remote = value
	}
	return err
}

func setGenerateField(g *Generate, key, value string) (err error) {
	switch strings.ToLower(key) {
	case "endpoint":
		g.Endpoint = value
	case "throttle":
		g.Throttle, err = parseDuration(key, value)
	}
	return err
}

func setServeField(s *Serve, key, value string) (err error) {
	switch strings.ToLower(key) {
	case "addr":
		s.Addr = value
	case "read_timeout":
		s.ReadTimeout, err = parseDuration(key, value)
	case "write_timeout":
		s.WriteTimeout, err = parseDuration(key, value)
	}
	return err
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := parseBool(key, value)
	if err != nil {
		return err
	}
	switch strings.ToLower(key) {
	case "save":
		n.Save = b
	case "export":
		n.Export = b
	case "copy":
		n.Copy = b
	case "autosave_error":
		n.AutosaveError = b
	}
	return nil
}
