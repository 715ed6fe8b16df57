// Package shieldctl provides automated systemd service hardening.
//
// Shieldctl audits service exposure with systemd-analyze security,
// applies hardening profiles as drop-in overrides, verifies the
// service survives, and rolls back when it does not.
package shieldctl
