package main

import (
	"path/filepath"
	"testing"
)

func TestStatusCommandReportsRunningDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Daemon")
	requireContains(t, out, "Running:    yes")
	requireContains(t, out, "No directories watched")
	requireContains(t, out, "Catalog is empty")
}

func TestStatusCommandDaemonNotRunning(t *testing.T) {
	env := setupCLITestEnv(t)

	missingSocket := filepath.Join(t.TempDir(), "missing.sock")
	out, _, err := runCLI(t, []string{"status"}, missingSocket, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Running: no")
}

func TestWatchCommandRequiresDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	missingSocket := filepath.Join(t.TempDir(), "missing.sock")
	_, _, err := runCLI(t, []string{"watch", "list"}, missingSocket, env.configPath)
	if err == nil {
		t.Fatal("expected dial error")
	}
	requireContains(t, err.Error(), "start the daemon with `weir start`")
}
