package harden

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/girste/shieldctl/internal/profile"
	"github.com/girste/shieldctl/internal/system"
)

const unit = "cups.service"

// healthyRunner cans the command sequence for a successful hardening of
// cups.service: baseline score 9.1, post-hardening score 3.2.
func healthyRunner() *fakeRunner {
	r := newFakeRunner()
	r.on("systemd-analyze security "+unit+" --no-pager",
		&system.CommandResult{Stdout: "→ Overall exposure level for cups.service: 9.1 UNSAFE 😨", Success: true},
		&system.CommandResult{Stdout: "→ Overall exposure level for cups.service: 3.2 OK 🙂", Success: true})
	r.onStdout("systemctl is-active "+unit, "active\n")
	r.onStdout("systemctl is-enabled "+unit, "enabled\n")
	r.onStdout("systemctl daemon-reload", "")
	r.onStdout("systemctl restart "+unit, "")
	return r
}

func newTestEngine(t *testing.T, runner *fakeRunner) (*Engine, string, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	out := &bytes.Buffer{}
	engine, err := NewEngine(Options{
		OverrideDir: dir,
		Runner:      runner,
		Out:         out,
		Profiles:    profile.DefaultConfig(),
		Exclusions:  profile.DefaultExclusions(),
	})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return engine, dir, out
}

func overrideFile(dir, service string) string {
	return filepath.Join(dir, service+".d", "override.conf")
}

func TestApplyExcluded(t *testing.T) {
	runner := newFakeRunner()
	engine, dir, _ := newTestEngine(t, runner)

	res := engine.Apply(context.Background(), "sshd.service", "", false)

	if res.Success {
		t.Error("Success = true for excluded service")
	}
	if !strings.Contains(res.Error, "exclusion") {
		t.Errorf("Error = %q, want mention of exclusion", res.Error)
	}
	if len(runner.calls) != 0 {
		t.Errorf("excluded service triggered %d external calls: %v", len(runner.calls), runner.calls)
	}
	if _, err := os.Stat(overrideFile(dir, "sshd.service")); !os.IsNotExist(err) {
		t.Error("override file written for excluded service")
	}
}

func TestApplyAnalyzeFailure(t *testing.T) {
	runner := newFakeRunner()
	runner.on("systemd-analyze security "+unit+" --no-pager",
		&system.CommandResult{TimedOut: true})
	engine, dir, _ := newTestEngine(t, runner)

	res := engine.Apply(context.Background(), unit, "", false)

	if res.Success {
		t.Error("Success = true when baseline analysis failed")
	}
	if !strings.Contains(res.Error, "failed to analyze") {
		t.Errorf("Error = %q, want mention of failed analysis", res.Error)
	}
	if _, err := os.Stat(overrideFile(dir, unit)); !os.IsNotExist(err) {
		t.Error("override file written despite failed analysis")
	}
}

func TestApplyMissingToolNoMutation(t *testing.T) {
	runner := newFakeRunner()
	runner.onErr("systemd-analyze security "+unit+" --no-pager",
		errors.New("starting systemd-analyze: executable file not found in $PATH"))
	engine, dir, _ := newTestEngine(t, runner)

	res := engine.Apply(context.Background(), unit, "", false)

	if res.Success {
		t.Error("Success = true with systemd-analyze unavailable")
	}
	if !strings.Contains(res.Error, "failed to analyze") {
		t.Errorf("Error = %q, want mention of failed analysis", res.Error)
	}
	if _, err := os.Stat(overrideFile(dir, unit)); !os.IsNotExist(err) {
		t.Error("override file written with no baseline analysis")
	}
	if runner.count("systemctl daemon-reload") != 0 || runner.count("systemctl restart "+unit) != 0 {
		t.Error("service manager touched with no baseline analysis")
	}
}

func TestApplyUnknownProfile(t *testing.T) {
	runner := healthyRunner()
	engine, dir, _ := newTestEngine(t, runner)

	res := engine.Apply(context.Background(), unit, "nonexistent_profile", false)

	if res.Success {
		t.Error("Success = true for unknown profile")
	}
	if !strings.Contains(res.Error, "unknown profile") || !strings.Contains(res.Error, "nonexistent_profile") {
		t.Errorf("Error = %q, want unknown profile naming nonexistent_profile", res.Error)
	}
	if _, err := os.Stat(overrideFile(dir, unit)); !os.IsNotExist(err) {
		t.Error("override file written for unknown profile")
	}
	if runner.count("systemctl daemon-reload") != 0 {
		t.Error("daemon-reload issued for unknown profile")
	}
}

func TestApplyDryRun(t *testing.T) {
	runner := healthyRunner()
	engine, dir, out := newTestEngine(t, runner)

	res := engine.Apply(context.Background(), unit, "", true)

	if !res.Success {
		t.Fatalf("dry run failed: %s", res.Error)
	}
	if res.ProfileApplied != "system_service" {
		t.Errorf("ProfileApplied = %q, want system_service", res.ProfileApplied)
	}
	if _, err := os.Stat(overrideFile(dir, unit)); !os.IsNotExist(err) {
		t.Error("dry run wrote override file")
	}
	if runner.count("systemctl restart "+unit) != 0 {
		t.Error("dry run restarted the service")
	}
	if runner.count("systemctl daemon-reload") != 0 {
		t.Error("dry run reloaded the daemon")
	}
	if !strings.Contains(out.String(), "NoNewPrivileges=yes") {
		t.Error("dry run output missing rendered override")
	}
}

func TestApplySuccess(t *testing.T) {
	runner := healthyRunner()
	engine, dir, _ := newTestEngine(t, runner)

	res := engine.Apply(context.Background(), unit, "", false)

	if !res.Success {
		t.Fatalf("Apply() failed: %s", res.Error)
	}
	if res.OperationID == "" {
		t.Error("OperationID is empty")
	}
	if res.PreviousScore == nil || *res.PreviousScore != 9.1 {
		t.Errorf("PreviousScore = %v, want 9.1", res.PreviousScore)
	}
	if res.NewScore == nil || *res.NewScore != 3.2 {
		t.Errorf("NewScore = %v, want 3.2", res.NewScore)
	}
	if res.RollbackPerformed {
		t.Error("RollbackPerformed = true on success")
	}

	data, err := os.ReadFile(overrideFile(dir, unit))
	if err != nil {
		t.Fatalf("override file not written: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "# Generated by shieldctl - Profile: system_service\n") {
		t.Errorf("override missing generated-by header:\n%s", content)
	}
	if !strings.Contains(content, "[Service]\n") {
		t.Error("override missing [Service] section")
	}
	if !strings.Contains(content, "NoNewPrivileges=yes\n") {
		t.Error("override missing NoNewPrivileges directive")
	}

	if runner.count("systemctl daemon-reload") != 1 {
		t.Errorf("daemon-reload called %d times, want 1", runner.count("systemctl daemon-reload"))
	}
	if runner.count("systemctl restart "+unit) != 1 {
		t.Errorf("restart called %d times, want 1", runner.count("systemctl restart "+unit))
	}
}

func TestApplyInactiveServiceNotRestarted(t *testing.T) {
	runner := healthyRunner()
	runner.responses["systemctl is-active "+unit] = []*system.CommandResult{
		{Stdout: "inactive\n", Success: false, ExitCode: 3},
	}
	engine, _, _ := newTestEngine(t, runner)

	res := engine.Apply(context.Background(), unit, "", false)

	if !res.Success {
		t.Fatalf("Apply() failed: %s", res.Error)
	}
	if runner.count("systemctl restart "+unit) != 0 {
		t.Error("inactive service was restarted")
	}
}

func TestApplyHealthCheckRollback(t *testing.T) {
	t.Run("with prior override restores it", func(t *testing.T) {
		runner := healthyRunner()
		// Baseline active, dead after restart
		runner.responses["systemctl is-active "+unit] = []*system.CommandResult{
			{Stdout: "active\n", Success: true},
			{Stdout: "failed\n", Success: false, ExitCode: 3},
		}
		engine, dir, _ := newTestEngine(t, runner)

		prior := "# Generated by shieldctl - Profile: critical_service\n[Service]\nPrivateTmp=yes\n"
		if err := os.MkdirAll(filepath.Join(dir, unit+".d"), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(overrideFile(dir, unit), []byte(prior), 0644); err != nil {
			t.Fatal(err)
		}

		res := engine.Apply(context.Background(), unit, "", false)

		if res.Success {
			t.Error("Success = true despite failed health check")
		}
		if !res.RollbackPerformed {
			t.Error("RollbackPerformed = false")
		}
		if !strings.Contains(res.Error, "health check") {
			t.Errorf("Error = %q, want mention of health check", res.Error)
		}

		data, err := os.ReadFile(overrideFile(dir, unit))
		if err != nil {
			t.Fatalf("override file missing after rollback: %v", err)
		}
		if string(data) != prior {
			t.Errorf("override after rollback = %q, want prior content %q", data, prior)
		}

		// Reload after write plus reload during rollback
		if runner.count("systemctl daemon-reload") != 2 {
			t.Errorf("daemon-reload called %d times, want 2", runner.count("systemctl daemon-reload"))
		}
	})

	t.Run("without prior override removes the new one", func(t *testing.T) {
		runner := healthyRunner()
		runner.responses["systemctl is-active "+unit] = []*system.CommandResult{
			{Stdout: "active\n", Success: true},
			{Stdout: "failed\n", Success: false, ExitCode: 3},
		}
		engine, dir, _ := newTestEngine(t, runner)

		res := engine.Apply(context.Background(), unit, "", false)

		if res.Success {
			t.Error("Success = true despite failed health check")
		}
		if !res.RollbackPerformed {
			t.Error("RollbackPerformed = false")
		}
		if _, err := os.Stat(overrideFile(dir, unit)); !os.IsNotExist(err) {
			t.Error("override file still present after rollback with no prior override")
		}
	})
}

func TestApplyReloadFailureRollsBack(t *testing.T) {
	runner := healthyRunner()
	runner.responses["systemctl daemon-reload"] = []*system.CommandResult{
		{ExitCode: 1, Stderr: "Access denied"},
		{Stdout: "", Success: true}, // rollback reload succeeds
	}
	engine, dir, _ := newTestEngine(t, runner)

	res := engine.Apply(context.Background(), unit, "", false)

	if res.Success {
		t.Error("Success = true despite reload failure")
	}
	if !res.RollbackPerformed {
		t.Error("RollbackPerformed = false after reload failure")
	}
	if _, err := os.Stat(overrideFile(dir, unit)); !os.IsNotExist(err) {
		t.Error("override file left behind after rollback")
	}
}

func TestApplyIdempotent(t *testing.T) {
	runner := healthyRunner()
	engine, dir, _ := newTestEngine(t, runner)
	ctx := context.Background()

	first := engine.Apply(ctx, unit, "system_service", false)
	if !first.Success {
		t.Fatalf("first Apply() failed: %s", first.Error)
	}
	firstContent, err := os.ReadFile(overrideFile(dir, unit))
	if err != nil {
		t.Fatal(err)
	}

	second := engine.Apply(ctx, unit, "system_service", false)
	if !second.Success {
		t.Fatalf("second Apply() failed: %s", second.Error)
	}
	secondContent, err := os.ReadFile(overrideFile(dir, unit))
	if err != nil {
		t.Fatal(err)
	}

	if string(firstContent) != string(secondContent) {
		t.Errorf("override content changed on re-apply:\nfirst:  %q\nsecond: %q", firstContent, secondContent)
	}

	// The second run backed up the first run's file
	backup, err := os.ReadFile(filepath.Join(dir, unit+".d", "override.conf.backup"))
	if err != nil {
		t.Fatalf("backup not created on re-apply: %v", err)
	}
	if string(backup) != string(firstContent) {
		t.Error("backup does not match previous override content")
	}
}

func TestRevert(t *testing.T) {
	t.Run("restores backup when present", func(t *testing.T) {
		runner := healthyRunner()
		engine, dir, _ := newTestEngine(t, runner)

		unitDir := filepath.Join(dir, unit+".d")
		if err := os.MkdirAll(unitDir, 0755); err != nil {
			t.Fatal(err)
		}
		prior := "[Service]\nPrivateTmp=yes\n"
		if err := os.WriteFile(filepath.Join(unitDir, "override.conf.backup"), []byte(prior), 0644); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(overrideFile(dir, unit), []byte("[Service]\nNoNewPrivileges=yes\n"), 0644); err != nil {
			t.Fatal(err)
		}

		if err := engine.Revert(context.Background(), unit); err != nil {
			t.Fatalf("Revert() error = %v", err)
		}

		data, err := os.ReadFile(overrideFile(dir, unit))
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != prior {
			t.Errorf("override after revert = %q, want %q", data, prior)
		}
		if runner.count("systemctl daemon-reload") != 1 {
			t.Error("revert did not reload the daemon")
		}
	})

	t.Run("removes override when no backup", func(t *testing.T) {
		runner := healthyRunner()
		engine, dir, _ := newTestEngine(t, runner)

		unitDir := filepath.Join(dir, unit+".d")
		if err := os.MkdirAll(unitDir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(overrideFile(dir, unit), []byte("[Service]\nNoNewPrivileges=yes\n"), 0644); err != nil {
			t.Fatal(err)
		}

		if err := engine.Revert(context.Background(), unit); err != nil {
			t.Fatalf("Revert() error = %v", err)
		}
		if _, err := os.Stat(overrideFile(dir, unit)); !os.IsNotExist(err) {
			t.Error("override still present after revert")
		}
	})

	t.Run("restart failure during revert is not an error", func(t *testing.T) {
		runner := healthyRunner()
		runner.responses["systemctl restart "+unit] = []*system.CommandResult{
			{ExitCode: 1, Stderr: "job failed"},
		}
		engine, _, _ := newTestEngine(t, runner)

		if err := engine.Revert(context.Background(), unit); err != nil {
			t.Errorf("Revert() error = %v, want nil (restart is best-effort)", err)
		}
	})
}

func TestResolveAndExcluded(t *testing.T) {
	engine, _, _ := newTestEngine(t, newFakeRunner())

	if got := engine.Resolve("docker.service"); got != "virtualization_service" {
		t.Errorf("Resolve(docker.service) = %q, want virtualization_service", got)
	}

	excluded, reason := engine.Excluded("sshd.service")
	if !excluded {
		t.Error("sshd.service not excluded")
	}
	if reason == "" {
		t.Error("no exclusion reason for sshd.service")
	}

	if excluded, _ := engine.Excluded("cups.service"); excluded {
		t.Error("cups.service unexpectedly excluded")
	}
}
