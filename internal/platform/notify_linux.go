//go:build linux

package platform

import (
	"github.com/godbus/dbus/v5"
)

const (
	urgencyNormal   byte = 1
	urgencyCritical byte = 2
)

// Notify sends a desktop notification over the org.freedesktop.Notifications D-Bus interface.
func Notify(title, body string, opts Options) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return err
	}
	defer conn.Close()

	urgency := urgencyNormal
	if opts.Critical {
		urgency = urgencyCritical
	}
	hints := map[string]dbus.Variant{"urgency": dbus.MakeVariant(urgency)}
	// A zero expire timeout means "never expire".
	expire := int32(opts.timeout().Milliseconds())

	obj := conn.Object("org.freedesktop.Notifications", "/org/freedesktop/Notifications")
	call := obj.Call("org.freedesktop.Notifications.Notify", 0,
		AppName, uint32(0), opts.IconPath, title, body, []string{}, hints, expire)
	return call.Err
}
