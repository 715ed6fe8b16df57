// Package errors provides standardized error handling for shieldctl.
// It defines sentinel errors and utilities for error wrapping with context.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Sentinel errors for common failure scenarios
var (
	// ErrExcluded indicates a service is on the exclusion list
	ErrExcluded = stderrors.New("service is in exclusion list")

	// ErrUnknownProfile indicates a profile name is not in the loaded table
	ErrUnknownProfile = stderrors.New("unknown profile")

	// ErrAnalyzeFailed indicates the security analysis could not complete
	ErrAnalyzeFailed = stderrors.New("failed to analyze service")

	// ErrHealthCheck indicates a service did not come back healthy after restart
	ErrHealthCheck = stderrors.New("service failed health check after hardening")

	// ErrCommandNotFound indicates a required command is not available
	ErrCommandNotFound = stderrors.New("command not found")

	// ErrTimeoutExceeded indicates a command exceeded its timeout
	ErrTimeoutExceeded = stderrors.New("timeout exceeded")

	// ErrInvalidConfig indicates configuration is invalid or incomplete
	ErrInvalidConfig = stderrors.New("invalid configuration")

	// ErrFileOperation indicates a file operation failed
	ErrFileOperation = stderrors.New("file operation failed")

	// ErrRollbackFailed indicates the rollback path itself ran into trouble
	ErrRollbackFailed = stderrors.New("rollback failed")
)

// Wrap wraps an error with context message and preserves the underlying error chain.
// Use this to add context while maintaining error identity for stderrors.Is checks.
func Wrap(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", msg, err)
}

// New creates a new error with formatted message.
// Use this for new errors that don't wrap existing errors.
func New(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target type.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}
