// Package platform sends desktop notifications through the host's
// notification service.
package platform

import "time"

// AppName is reported to notification daemons that group by sender.
const AppName = "s2c"

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// IconPath, when non-empty, points to an image file the notification center
	// should display with the notification if supported by the platform.
	IconPath string
	// Critical asks for a notification that stays until dismissed where
	// the platform supports urgency.
	Critical bool
	// Timeout overrides the display time; zero uses DefaultTimeout.
	Timeout time.Duration
}

// DefaultTimeout is how long a normal notification stays visible.
const DefaultTimeout = 5 * time.Second

func (o Options) timeout() time.Duration {
	if o.Critical {
		return 0
	}
	if o.Timeout > 0 {
		return o.Timeout
	}
	return DefaultTimeout
}
