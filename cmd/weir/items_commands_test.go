package main

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"weir/internal/catalog"
	"weir/internal/testsupport"
)

func TestItemsListAndShow(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	testsupport.NewItem(t, env.store, "/watch/alpha.torrent", catalog.KindTorrent)
	beta := testsupport.NewItem(t, env.store, "/watch/beta.magnet", catalog.KindMagnet)
	if err := env.store.MarkHandedOff(ctx, beta.ID, "/handoff/beta.magnet"); err != nil {
		t.Fatalf("mark handed off: %v", err)
	}

	out, _, err := runCLI(t, []string{"items", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("items list: %v", err)
	}
	requireContains(t, out, "/watch/alpha.torrent")
	requireContains(t, out, "/watch/beta.magnet")

	out, _, err = runCLI(t, []string{"items", "list", "--status", "handed_off"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("items list --status: %v", err)
	}
	requireContains(t, out, "/watch/beta.magnet")
	if strings.Contains(out, "/watch/alpha.torrent") {
		t.Fatalf("handed_off filter leaked detected item: %q", out)
	}

	out, _, err = runCLI(t, []string{"items", "show", strconv.FormatInt(beta.ID, 10)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("items show: %v", err)
	}
	requireContains(t, out, "/watch/beta.magnet")
	requireContains(t, out, "handed_off")
	requireContains(t, out, "/handoff/beta.magnet")
}

func TestItemsListRejectsUnknownStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"items", "list", "--status", "bogus"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected error for unknown status")
	}
	requireContains(t, err.Error(), "unknown status")
}

func TestItemsClear(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	testsupport.NewItem(t, env.store, "/watch/a.torrent", catalog.KindTorrent)
	handed := testsupport.NewItem(t, env.store, "/watch/b.torrent", catalog.KindTorrent)
	if err := env.store.MarkHandedOff(ctx, handed.ID, "/handoff/b.torrent"); err != nil {
		t.Fatalf("mark handed off: %v", err)
	}

	out, _, err := runCLI(t, []string{"items", "clear", "--handed-off"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("items clear --handed-off: %v", err)
	}
	requireContains(t, out, "Removed 1 catalog entries")

	out, _, err = runCLI(t, []string{"items", "clear"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("items clear: %v", err)
	}
	requireContains(t, out, "Removed 1 catalog entries")

	out, _, err = runCLI(t, []string{"items", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("items list: %v", err)
	}
	requireContains(t, out, "Catalog is empty")
}

func TestItemsShowUnknownID(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"items", "show", "9999"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected error for unknown item id")
	}
}
