package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zeebo/bencode"
)

// WriteFile fills the target path with content, creating parent directories
// as needed.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// TorrentBytes encodes a minimal single-file torrent named after name.
func TorrentBytes(t testing.TB, name string) []byte {
	t.Helper()

	data, err := bencode.EncodeBytes(map[string]any{
		"announce": "http://tracker.example.com/announce",
		"info": map[string]any{
			"name":         name,
			"piece length": int64(16384),
			"pieces":       strings.Repeat("x", 20),
			"length":       int64(4096),
		},
	})
	if err != nil {
		t.Fatalf("encode torrent: %v", err)
	}
	return data
}

// WriteTorrent writes a structurally valid torrent file at path.
func WriteTorrent(t testing.TB, path string) {
	t.Helper()

	WriteFile(t, path, string(TorrentBytes(t, filepath.Base(path))))
}

// WriteTruncatedTorrent writes a torrent file cut off mid-dictionary, the
// shape a file has while a producer is still writing it.
func WriteTruncatedTorrent(t testing.TB, path string) {
	t.Helper()

	data := TorrentBytes(t, filepath.Base(path))
	WriteFile(t, path, string(data[:len(data)/2]))
}

// WriteMagnet writes a magnet reference file carrying the given info hash.
func WriteMagnet(t testing.TB, path, infoHash string) {
	t.Helper()

	WriteFile(t, path, "magnet:?xt=urn:btih:"+infoHash+"&dn=test\n")
}
