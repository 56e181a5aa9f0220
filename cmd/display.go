package cmd

import (
	"context"
	"time"

	"github.com/smazurov/kiosk/internal/logging"
	"github.com/smazurov/kiosk/internal/process"
	"github.com/smazurov/kiosk/internal/systemd"
)

const unitQueryTimeout = 2 * time.Second

// displayMonitor logs the display unit state before switching and after restoring.
// Without a system bus it does nothing.
type displayMonitor struct {
	ctx     context.Context
	unit    string
	manager *systemd.Manager
	logger  logging.Logger
}

func newDisplayMonitor(ctx context.Context, unit string, logger logging.Logger) *displayMonitor {
	p := &displayMonitor{ctx: ctx, unit: unit, logger: logger}
	if unit == "" {
		return p
	}

	connectCtx, cancel := context.WithTimeout(ctx, unitQueryTimeout)
	defer cancel()
	manager, err := systemd.NewManager(connectCtx)
	if err != nil {
		logger.Debug("Display unit state unavailable", "unit", unit, "error", err)
		return p
	}
	p.manager = manager
	return p
}

// observe logs the unit state on the transitions that bracket the run.
func (p *displayMonitor) observe(state process.State) {
	if p == nil || p.manager == nil {
		return
	}

	var phase string
	switch state {
	case process.StateSwitchingIn:
		phase = "before switch"
	case process.StateDone:
		phase = "after restore"
	default:
		return
	}

	ctx, cancel := context.WithTimeout(p.ctx, unitQueryTimeout)
	defer cancel()
	active, err := p.manager.UnitActiveState(ctx, p.unit)
	if err != nil {
		p.logger.Debug("Failed to query display unit", "unit", p.unit, "error", err)
		return
	}
	p.logger.Info("Display unit state", "unit", p.unit, "phase", phase, "active_state", active)
}

// Close releases the bus connection.
func (p *displayMonitor) Close() {
	if p != nil && p.manager != nil {
		p.manager.Close()
	}
}
