package collector

import (
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const logindManager = "org.freedesktop.login1.Manager"

// SuspendMonitor listens for systemd-logind PrepareForSleep signals so the
// daemon can take a sample on each side of a suspend.
type SuspendMonitor struct {
	conn   *dbus.Conn
	done   chan struct{}
	events chan bool
	log    *slog.Logger
}

// NewSuspendMonitor creates a monitor connected to the system bus.
func NewSuspendMonitor(logger *slog.Logger) (*SuspendMonitor, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, err
	}

	err = conn.AddMatchSignal(
		dbus.WithMatchInterface(logindManager),
		dbus.WithMatchMember("PrepareForSleep"),
	)
	if err != nil {
		return nil, err
	}

	m := &SuspendMonitor{
		conn:   conn,
		done:   make(chan struct{}),
		events: make(chan bool, 1),
		log:    logger,
	}
	go m.listen()
	return m, nil
}

// Events delivers true when the system is about to sleep and false when it
// has resumed. Edges are dropped if the receiver is behind.
func (m *SuspendMonitor) Events() <-chan bool {
	return m.events
}

// Close stops the monitor.
func (m *SuspendMonitor) Close() {
	close(m.done)
}

func (m *SuspendMonitor) listen() {
	ch := make(chan *dbus.Signal, 16)
	m.conn.Signal(ch)
	defer m.conn.RemoveSignal(ch)

	for {
		select {
		case sig := <-ch:
			if sig.Name != logindManager+".PrepareForSleep" || len(sig.Body) < 1 {
				continue
			}
			sleeping, ok := sig.Body[0].(bool)
			if !ok {
				continue
			}
			if sleeping {
				m.log.Info("system going to sleep")
			} else {
				m.log.Info("system woke up")
			}
			select {
			case m.events <- sleeping:
			default:
			}
		case <-m.done:
			return
		}
	}
}
