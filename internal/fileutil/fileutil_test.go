package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"weir/internal/fileutil"
)

func TestMoveFileRename(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.torrent")
	dst := filepath.Join(dir, "b.torrent")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := fileutil.MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	if fileutil.PathExists(src) {
		t.Fatal("source should be gone after move")
	}
	content, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read destination: %v", err)
	}
	if string(content) != "payload" {
		t.Fatalf("unexpected destination content: %q", content)
	}
}

func TestMoveFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := fileutil.MoveFile(filepath.Join(dir, "missing"), filepath.Join(dir, "dst"))
	if err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "name.torrent")

	if got := fileutil.UniquePath(path); got != path {
		t.Fatalf("expected free path unchanged, got %q", got)
	}

	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	first := fileutil.UniquePath(path)
	if first != filepath.Join(dir, "name (1).torrent") {
		t.Fatalf("unexpected first variant: %q", first)
	}

	if err := os.WriteFile(first, nil, 0o644); err != nil {
		t.Fatalf("write variant: %v", err)
	}
	second := fileutil.UniquePath(path)
	if second != filepath.Join(dir, "name (2).torrent") {
		t.Fatalf("unexpected second variant: %q", second)
	}
}
