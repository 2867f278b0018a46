//go:build linux

package notify

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

// org.freedesktop.Notifications D-Bus constants
const (
	notificationsService = "org.freedesktop.Notifications"
	notificationsPath    = "/org/freedesktop/Notifications"
	notifyMethod         = notificationsService + ".Notify"
	closeMethod          = notificationsService + ".CloseNotification"
)

// expireMs is how long the notification stays up.
const expireMs int32 = 2000

// caller is the part of dbus.BusObject the notifier uses.
type caller interface {
	Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// DBusNotifier talks to the freedesktop notification daemon. Each post
// replaces the previous one instead of stacking.
type DBusNotifier struct {
	conn *dbus.Conn
	obj  caller

	mu   sync.Mutex
	last uint32
}

func newPlatform() (Notifier, error) {
	return NewDBus()
}

// NewDBus opens a private session bus connection.
func NewDBus() (*DBusNotifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &DBusNotifier{
		conn: conn,
		obj:  conn.Object(notificationsService, notificationsPath),
	}, nil
}

// Notify implements Notifier.
func (n *DBusNotifier) Notify(visible bool) error {
	summary, body := Message(visible)
	hints := map[string]dbus.Variant{
		"urgency":   dbus.MakeVariant(byte(0)),
		"transient": dbus.MakeVariant(true),
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	call := n.obj.Call(notifyMethod, 0,
		AppName, n.last, "input-keyboard", summary, body,
		[]string{}, hints, expireMs)
	var id uint32
	if err := call.Store(&id); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	n.last = id
	return nil
}

// Close withdraws the last notification and closes the connection.
func (n *DBusNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.last != 0 {
		n.obj.Call(closeMethod, 0, n.last)
		n.last = 0
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
