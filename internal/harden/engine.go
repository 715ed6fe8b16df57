// Package harden applies hardening profiles to systemd services as
// drop-in overrides, verifies the service survives, and rolls back
// when it does not.
package harden

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/girste/shieldctl/internal/errors"
	"github.com/girste/shieldctl/internal/log"
	"github.com/girste/shieldctl/internal/profile"
	"github.com/girste/shieldctl/internal/system"
	"github.com/girste/shieldctl/internal/systemd"
)

// DefaultOverrideDir is where systemd drop-in directories live.
const DefaultOverrideDir = "/etc/systemd/system"

const (
	overrideName = "override.conf"
	backupName   = "override.conf.backup"
)

// Result is the outcome record of one apply attempt. It is returned to
// the caller and never persisted.
type Result struct {
	OperationID       string   `json:"operation_id"`
	ServiceName       string   `json:"service_name"`
	Success           bool     `json:"success"`
	ProfileApplied    string   `json:"profile_applied,omitempty"`
	PreviousScore     *float64 `json:"previous_score,omitempty"`
	NewScore          *float64 `json:"new_score,omitempty"`
	RollbackPerformed bool     `json:"rollback_performed"`
	Error             string   `json:"error,omitempty"`
}

// Options configures engine construction. Zero values mean: load config
// from the default locations, write overrides under /etc/systemd/system,
// run real commands, print to stdout.
type Options struct {
	ConfigDir   string
	OverrideDir string
	Runner      system.Runner
	Out         io.Writer

	// Profiles and Exclusions bypass config loading when set.
	Profiles   *profile.Config
	Exclusions *profile.Exclusions
}

// Engine owns the apply/verify/rollback sequence. The configuration it
// holds is loaded once and read-only; operations run strictly one at a
// time.
type Engine struct {
	profiles    *profile.Config
	exclusions  *profile.Exclusions
	analyzer    *systemd.Analyzer
	ctl         *systemd.Ctl
	overrideDir string
	out         io.Writer
}

// NewEngine builds an engine from options.
func NewEngine(opts Options) (*Engine, error) {
	profiles := opts.Profiles
	if profiles == nil {
		var err error
		profiles, err = profile.LoadConfig(opts.ConfigDir)
		if err != nil {
			return nil, err
		}
	}

	exclusions := opts.Exclusions
	if exclusions == nil {
		var err error
		exclusions, err = profile.LoadExclusions(opts.ConfigDir)
		if err != nil {
			return nil, err
		}
	}

	overrideDir := opts.OverrideDir
	if overrideDir == "" {
		overrideDir = DefaultOverrideDir
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	ctl := systemd.NewCtl(opts.Runner)
	return &Engine{
		profiles:    profiles,
		exclusions:  exclusions,
		analyzer:    systemd.NewAnalyzer(ctl),
		ctl:         ctl,
		overrideDir: overrideDir,
		out:         out,
	}, nil
}

// Analyzer exposes the engine's analyzer for callers that report
// before/after state.
func (e *Engine) Analyzer() *systemd.Analyzer { return e.analyzer }

// Profiles exposes the loaded profile table.
func (e *Engine) Profiles() *profile.Config { return e.profiles }

// Excluded reports whether a service is opted out of hardening, with
// the configured reason when one exists.
func (e *Engine) Excluded(service string) (bool, string) {
	if !e.exclusions.Matches(service) {
		return false, ""
	}
	return true, e.exclusions.Reason(service)
}

// Resolve returns the profile the engine would pick for a service.
func (e *Engine) Resolve(service string) string {
	return e.profiles.Resolve(service)
}

func (e *Engine) overridePath(service string) string {
	return filepath.Join(e.overrideDir, service+".d", overrideName)
}

func (e *Engine) backupPath(service string) string {
	return filepath.Join(e.overrideDir, service+".d", backupName)
}

// Apply hardens a single service. profileName forces a profile; empty
// means resolve automatically. With dryRun the rendered override is
// printed and nothing is touched. All failures come back as the Result,
// never as a panic or error return.
func (e *Engine) Apply(ctx context.Context, service, profileName string, dryRun bool) Result {
	res := Result{
		OperationID: uuid.NewString(),
		ServiceName: service,
	}

	if excluded, reason := e.Excluded(service); excluded {
		res.Error = errors.ErrExcluded.Error()
		if reason != "" {
			res.Error += ": " + reason
		}
		return res
	}

	baseline := e.analyzer.Analyze(ctx, service)
	if baseline == nil {
		res.Error = errors.ErrAnalyzeFailed.Error()
		return res
	}
	res.PreviousScore = baseline.ExposureScore

	if profileName == "" {
		profileName = e.profiles.Resolve(service)
	}
	prof, ok := e.profiles.Lookup(profileName)
	if !ok {
		res.Error = fmt.Sprintf("%s: %s", errors.ErrUnknownProfile.Error(), profileName)
		return res
	}
	res.ProfileApplied = profileName

	rendered := fmt.Sprintf("# Generated by shieldctl - Profile: %s\n%s\n", profileName, prof.Overrides.Render())

	if dryRun {
		fmt.Fprintf(e.out, "[DRY RUN] Would apply profile %q to %s:\n%s", profileName, service, rendered)
		res.Success = true
		return res
	}

	overridePath := e.overridePath(service)
	backupPath := e.backupPath(service)

	// Backup and mkdir precede any mutation of live state, so their
	// failures return without a rollback.
	hadOverride, err := e.backupExisting(overridePath, backupPath)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if err := os.MkdirAll(filepath.Dir(overridePath), 0755); err != nil {
		res.Error = errors.Wrap(errors.ErrFileOperation, "creating override directory: %v", err).Error()
		return res
	}

	// From here on every failure point rolls back explicitly.
	if err := os.WriteFile(overridePath, []byte(rendered), 0644); err != nil {
		return e.failAndRollback(ctx, res, hadOverride,
			errors.Wrap(errors.ErrFileOperation, "writing override: %v", err))
	}

	if err := e.ctl.DaemonReload(ctx); err != nil {
		return e.failAndRollback(ctx, res, hadOverride, err)
	}

	if baseline.IsActive {
		if err := e.ctl.Restart(ctx, service); err != nil {
			return e.failAndRollback(ctx, res, hadOverride, err)
		}
		if !e.ctl.IsActive(ctx, service) {
			log.Warnf("%s failed to come back after restart, rolling back", service)
			return e.failAndRollback(ctx, res, hadOverride, errors.ErrHealthCheck)
		}
	}

	if after := e.analyzer.Analyze(ctx, service); after != nil {
		res.NewScore = after.ExposureScore
	}

	res.Success = true
	return res
}

// backupExisting copies the live override aside before it gets
// overwritten. Returns whether an override existed.
func (e *Engine) backupExisting(overridePath, backupPath string) (bool, error) {
	if _, err := os.Stat(overridePath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(errors.ErrFileOperation, "checking existing override: %v", err)
	}
	if err := copyFile(overridePath, backupPath); err != nil {
		return true, errors.Wrap(errors.ErrFileOperation, "backing up override: %v", err)
	}
	return true, nil
}

func (e *Engine) failAndRollback(ctx context.Context, res Result, hadBackup bool, cause error) Result {
	if err := e.rollback(ctx, res.ServiceName, hadBackup); err != nil {
		log.ErrorWithErr(err, "rollback of "+res.ServiceName)
	}
	res.RollbackPerformed = true
	res.Error = cause.Error()
	return res
}

// rollback restores the previous override state: backup over live file
// when a backup exists, otherwise the freshly written override is
// deleted. Either way the manager is reloaded and a restart is
// attempted best-effort.
func (e *Engine) rollback(ctx context.Context, service string, hadBackup bool) error {
	overridePath := e.overridePath(service)
	backupPath := e.backupPath(service)

	if hadBackup {
		if err := copyFile(backupPath, overridePath); err != nil {
			return errors.Wrap(errors.ErrRollbackFailed, "restoring backup for %s: %v", service, err)
		}
	} else if _, err := os.Stat(overridePath); err == nil {
		if err := os.Remove(overridePath); err != nil {
			return errors.Wrap(errors.ErrRollbackFailed, "removing override for %s: %v", service, err)
		}
	}

	if err := e.ctl.DaemonReload(ctx); err != nil {
		return errors.Wrap(errors.ErrRollbackFailed, "reload for %s: %v", service, err)
	}
	if err := e.ctl.Restart(ctx, service); err != nil {
		// Best-effort: the service may have been inactive all along
		log.Warnf("restart of %s during rollback: %v", service, err)
	}
	return nil
}

// Revert rolls back hardening for a service outside of an apply
// operation (the revert command).
func (e *Engine) Revert(ctx context.Context, service string) error {
	backupPath := e.backupPath(service)
	hadBackup := false
	if _, err := os.Stat(backupPath); err == nil {
		hadBackup = true
	}
	return e.rollback(ctx, service, hadBackup)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
