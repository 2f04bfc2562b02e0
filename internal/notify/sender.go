package notify

import (
	"log/slog"

	"github.com/godbus/dbus/v5"
)

// Sender delivers an alert to the user.
type Sender interface {
	Send(a Alert) error
}

const (
	notificationsDest  = "org.freedesktop.Notifications"
	notificationsPath  = "/org/freedesktop/Notifications"
	notificationsIface = "org.freedesktop.Notifications"
	appName            = "PowerPulse"
	expireTimeoutMs    = int32(10000)
)

// DesktopSender posts alerts through the freedesktop notification service.
type DesktopSender struct {
	obj dbus.BusObject
}

// NewDesktopSender connects to the session bus.
func NewDesktopSender() (*DesktopSender, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}
	return &DesktopSender{obj: conn.Object(notificationsDest, notificationsPath)}, nil
}

func (d *DesktopSender) Send(a Alert) error {
	call := d.obj.Call(notificationsIface+".Notify", 0,
		appName,            // app_name
		uint32(0),          // replaces_id
		"battery",          // app_icon
		a.Title,            // summary
		a.Message,          // body
		[]string{},         // actions
		map[string]dbus.Variant{"urgency": dbus.MakeVariant(urgency(a.Type))},
		expireTimeoutMs,
	)
	return call.Err
}

func urgency(t Type) byte {
	if t == LowBattery {
		return 2
	}
	return 1
}

// LogSender writes alerts to a logger. The daemon uses it when no session
// bus is reachable, and alongside DesktopSender otherwise.
type LogSender struct {
	Log *slog.Logger
}

func (l LogSender) Send(a Alert) error {
	l.Log.Info(a.Title, "type", string(a.Type), "message", a.Message)
	return nil
}

// Multi fans an alert out to several senders and returns the first error.
type Multi []Sender

func (m Multi) Send(a Alert) error {
	var first error
	for _, s := range m {
		if err := s.Send(a); err != nil && first == nil {
			first = err
		}
	}
	return first
}
