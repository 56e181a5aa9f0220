package systemd

import (
	"context"
	"fmt"

	"github.com/coreos/go-systemd/v22/dbus"
)

// Manager queries unit state over the system D-Bus.
type Manager struct {
	conn *dbus.Conn
}

// NewManager connects to the system bus. Display targets are system units.
func NewManager(ctx context.Context) (*Manager, error) {
	conn, err := dbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}
	return &Manager{conn: conn}, nil
}

// UnitActiveState retrieves the ActiveState property of a unit,
// e.g. "active" or "inactive" for graphical.target.
func (m *Manager) UnitActiveState(ctx context.Context, unit string) (string, error) {
	prop, err := m.conn.GetUnitPropertyContext(ctx, unit, "ActiveState")
	if err != nil {
		return "", fmt.Errorf("get %s ActiveState: %w", unit, err)
	}
	// Variant.String() would quote the value
	if state, ok := prop.Value.Value().(string); ok {
		return state, nil
	}
	return prop.Value.String(), nil
}

// Close cleanly closes the D-Bus connection.
func (m *Manager) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}
