// Package system runs external commands with bounded timeouts. Every
// call shieldctl makes to systemctl or systemd-analyze goes through the
// Runner seam so callers can be tested without a live init system.
package system

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
)

// CommandResult represents the result of a command execution
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Success  bool
	TimedOut bool
}

const (
	TimeoutShort  = 5 * time.Second
	TimeoutMedium = 10 * time.Second
	TimeoutLong   = 30 * time.Second
)

// Runner abstracts command execution.
type Runner interface {
	Run(ctx context.Context, timeout time.Duration, cmdParts ...string) (*CommandResult, error)
}

// ExecRunner is the production Runner backed by os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, timeout time.Duration, cmdParts ...string) (*CommandResult, error) {
	return Run(ctx, timeout, cmdParts...)
}

// Run executes a command with timeout
func Run(ctx context.Context, timeout time.Duration, cmdParts ...string) (*CommandResult, error) {
	if len(cmdParts) == 0 {
		return nil, fmt.Errorf("no command specified")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, cmdParts[0], cmdParts[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := &CommandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Success:  err == nil,
		TimedOut: ctx.Err() == context.DeadlineExceeded,
	}

	if exitErr, ok := err.(*exec.ExitError); ok {
		result.ExitCode = exitErr.ExitCode()
	} else if err != nil && !result.TimedOut {
		// The process never ran: binary missing, permission denied.
		// A non-zero exit or a timeout is a result; this is not.
		return nil, fmt.Errorf("starting %s: %w", cmdParts[0], err)
	}

	return result, nil
}

// Exists checks if a command is available on PATH
func Exists(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}
