// Package notify turns editor events into desktop notifications.
package notify

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/s2c/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventSave fires when a project is saved explicitly.
	EventSave Event = "save"
	// EventExport fires when a snapshot or markup file is written.
	EventExport Event = "export"
	// EventCopy fires when data is copied to the clipboard.
	EventCopy Event = "copy"
	// EventAutosaveError fires when a background save fails.
	EventAutosaveError Event = "autosave_error"
)

// EventPreference describes formatting for a notification event.
type EventPreference struct {
	Template string
}

// Preferences describes notification behaviour loaded from configuration.
type Preferences struct {
	Title  string
	Events map[Event]EventPreference
}

// DefaultPreferences returns the default notification settings.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: "s2c",
		Events: map[Event]EventPreference{
			EventSave:          {Template: "Saved %s"},
			EventExport:        {Template: "Exported %s"},
			EventCopy:          {Template: "Copied %s to clipboard"},
			EventAutosaveError: {Template: "Autosave failed: %s"},
		},
	}
}

// LoadPreferences reads S2C_NOTIFY_* overrides through getenv. A nil
// getenv uses os.Getenv.
func LoadPreferences(getenv func(string) string) Preferences {
	if getenv == nil {
		getenv = os.Getenv
	}
	prefs := DefaultPreferences()
	if v := strings.TrimSpace(getenv("S2C_NOTIFY_TITLE")); v != "" {
		prefs.Title = v
	}
	for _, event := range []Event{EventSave, EventExport, EventCopy, EventAutosaveError} {
		key := "S2C_NOTIFY_" + strings.ToUpper(string(event)) + "_TEXT"
		if v := strings.TrimSpace(getenv(key)); v != "" {
			prefs.Events[event] = EventPreference{Template: v}
		}
	}
	return prefs
}

// sendFn is replaced in tests.
var sendFn = platform.Notify

// Notifier sends OS-level notifications based on the configured preferences.
type Notifier struct {
	prefs   Preferences
	enabled map[Event]bool
}

// New creates a new Notifier using the provided preferences.
func New(prefs Preferences) *Notifier {
	cloned := Preferences{Title: prefs.Title, Events: make(map[Event]EventPreference, len(prefs.Events))}
	for k, v := range prefs.Events {
		cloned.Events[k] = v
	}
	return &Notifier{prefs: cloned, enabled: make(map[Event]bool)}
}

// Enable toggles the notifier for the provided event.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	if n.enabled == nil {
		n.enabled = make(map[Event]bool)
	}
	n.enabled[event] = enabled
}

// Save reports an explicit project save.
func (n *Notifier) Save(project string) {
	n.dispatch(EventSave, project, platform.Options{})
}

// Export reports a written file, using it as the icon when it is a PNG.
func (n *Notifier) Export(path string) {
	if !n.enabledFor(EventExport) {
		return
	}
	detail := strings.TrimSpace(path)
	opts := platform.Options{}
	if abs, err := filepath.Abs(path); err == nil {
		detail = abs
		if strings.EqualFold(filepath.Ext(abs), ".png") {
			if _, statErr := os.Stat(abs); statErr == nil {
				opts.IconPath = abs
			}
		}
	}
	n.dispatch(EventExport, detail, opts)
}

// Copy sends a clipboard notification.
func (n *Notifier) Copy(detail string) {
	if strings.TrimSpace(detail) == "" {
		detail = "snapshot"
	}
	n.dispatch(EventCopy, detail, platform.Options{})
}

// AutosaveError reports a failed background save. It stays on screen
// until dismissed.
func (n *Notifier) AutosaveError(err error) {
	if err == nil {
		return
	}
	n.dispatch(EventAutosaveError, err.Error(), platform.Options{Critical: true})
}

func (n *Notifier) enabledFor(event Event) bool {
	if n == nil || n.enabled == nil {
		return false
	}
	return n.enabled[event]
}

func (n *Notifier) dispatch(event Event, detail string, opts platform.Options) {
	if !n.enabledFor(event) {
		return
	}
	template := strings.TrimSpace(n.prefs.Events[event].Template)
	if template == "" {
		return
	}
	body := strings.TrimSpace(fmt.Sprintf(template, strings.TrimSpace(detail)))
	if body == "" {
		return
	}
	if err := sendFn(n.prefs.Title, body, opts); err != nil {
		log.Printf("notification %s: %v", event, err)
	}
}
