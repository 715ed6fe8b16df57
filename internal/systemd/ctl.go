// Package systemd wraps the systemctl and systemd-analyze command line
// tools behind a narrow facade.
package systemd

import (
	"context"
	"strings"

	"github.com/girste/shieldctl/internal/errors"
	"github.com/girste/shieldctl/internal/system"
)

// UnitSuffix is the suffix of systemd service units.
const UnitSuffix = ".service"

// Ctl issues service-manager commands. All calls are synchronous; only
// Restart carries a meaningful bound (TimeoutMedium), matching the
// health-check window.
type Ctl struct {
	run system.Runner
}

// NewCtl returns a Ctl backed by the given runner, or the real
// ExecRunner when nil.
func NewCtl(r system.Runner) *Ctl {
	if r == nil {
		r = system.ExecRunner{}
	}
	return &Ctl{run: r}
}

// ListUnits returns all service unit names, active or not.
func (c *Ctl) ListUnits(ctx context.Context) ([]string, error) {
	result, err := c.run.Run(ctx, system.TimeoutLong,
		"systemctl", "list-units", "--type=service", "--all", "--no-pager", "--no-legend")
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, errors.New("systemctl list-units exited %d: %s", result.ExitCode, strings.TrimSpace(result.Stderr))
	}

	var units []string
	for _, line := range strings.Split(result.Stdout, "\n") {
		fields := strings.Fields(line)
		// Failed units carry a leading ● marker, pushing the unit
		// name to the second field
		for i, f := range fields {
			if i > 1 {
				break
			}
			if strings.HasSuffix(f, UnitSuffix) {
				units = append(units, f)
				break
			}
		}
	}
	return units, nil
}

// IsActive reports whether a unit is currently active.
func (c *Ctl) IsActive(ctx context.Context, unit string) bool {
	result, err := c.run.Run(ctx, system.TimeoutShort, "systemctl", "is-active", unit)
	if err != nil || result == nil {
		return false
	}
	return strings.TrimSpace(result.Stdout) == "active"
}

// IsEnabled reports whether a unit is enabled. Statically enabled units
// count as enabled.
func (c *Ctl) IsEnabled(ctx context.Context, unit string) bool {
	result, err := c.run.Run(ctx, system.TimeoutShort, "systemctl", "is-enabled", unit)
	if err != nil || result == nil {
		return false
	}
	state := strings.TrimSpace(result.Stdout)
	return state == "enabled" || state == "static"
}

// Restart restarts a unit, bounded at TimeoutMedium.
func (c *Ctl) Restart(ctx context.Context, unit string) error {
	result, err := c.run.Run(ctx, system.TimeoutMedium, "systemctl", "restart", unit)
	if err != nil {
		return err
	}
	if result.TimedOut {
		return errors.Wrap(errors.ErrTimeoutExceeded, "restarting %s", unit)
	}
	if !result.Success {
		return errors.New("systemctl restart %s exited %d: %s", unit, result.ExitCode, strings.TrimSpace(result.Stderr))
	}
	return nil
}

// DaemonReload reloads the systemd manager configuration.
func (c *Ctl) DaemonReload(ctx context.Context) error {
	result, err := c.run.Run(ctx, system.TimeoutMedium, "systemctl", "daemon-reload")
	if err != nil {
		return err
	}
	if !result.Success {
		return errors.New("systemctl daemon-reload exited %d: %s", result.ExitCode, strings.TrimSpace(result.Stderr))
	}
	return nil
}

// SecurityReport returns the raw systemd-analyze security output for a
// unit. A non-zero exit still yields usable output, so only a failure
// to run the tool at all is an error.
func (c *Ctl) SecurityReport(ctx context.Context, unit string) (string, error) {
	result, err := c.run.Run(ctx, system.TimeoutLong, "systemd-analyze", "security", unit, "--no-pager")
	if err != nil {
		return "", err
	}
	if result.TimedOut {
		return "", errors.Wrap(errors.ErrTimeoutExceeded, "systemd-analyze security %s", unit)
	}
	return result.Stdout, nil
}
