package metainfo

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/zeebo/bencode"
)

const pieceHashLength = 20

// Info is the decoded info dictionary of a torrent file.
type Info struct {
	Name        string     `bencode:"name"`
	PieceLength int64      `bencode:"piece length"`
	Pieces      []byte     `bencode:"pieces"`
	Length      int64      `bencode:"length"`
	Files       []FileItem `bencode:"files"`
}

// FileItem describes one entry of a multi-file torrent.
type FileItem struct {
	Length int64    `bencode:"length"`
	Path   []string `bencode:"path"`
}

// TotalSize returns the payload size in bytes across all files.
func (i Info) TotalSize() int64 {
	if len(i.Files) == 0 {
		return i.Length
	}
	var total int64
	for _, file := range i.Files {
		total += file.Length
	}
	return total
}

// NumFiles returns the number of payload files.
func (i Info) NumFiles() int {
	if len(i.Files) == 0 {
		return 1
	}
	return len(i.Files)
}

// Metainfo is a decoded torrent file.
type Metainfo struct {
	Announce string
	Info     Info
	// InfoHash is the lowercase hex SHA-1 of the raw bencoded info dictionary.
	InfoHash string
}

type fileDict struct {
	Announce string             `bencode:"announce"`
	InfoRaw  bencode.RawMessage `bencode:"info"`
}

// Load reads and decodes a torrent file, validating its structure.
func Load(path string) (*Metainfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read torrent file: %w", err)
	}
	return Parse(data)
}

// Parse decodes torrent file bytes, validating their structure.
func Parse(data []byte) (*Metainfo, error) {
	var dict fileDict
	if err := bencode.DecodeBytes(data, &dict); err != nil {
		return nil, fmt.Errorf("decode torrent: %w", err)
	}
	if len(dict.InfoRaw) == 0 {
		return nil, errors.New("decode torrent: missing info dictionary")
	}

	var info Info
	if err := bencode.DecodeBytes(dict.InfoRaw, &info); err != nil {
		return nil, fmt.Errorf("decode info dictionary: %w", err)
	}
	if err := validateInfo(info); err != nil {
		return nil, err
	}

	digest := sha1.Sum(dict.InfoRaw)
	return &Metainfo{
		Announce: dict.Announce,
		Info:     info,
		InfoHash: hex.EncodeToString(digest[:]),
	}, nil
}

func validateInfo(info Info) error {
	if info.Name == "" {
		return errors.New("invalid torrent: info dictionary has no name")
	}
	if info.PieceLength <= 0 {
		return errors.New("invalid torrent: piece length must be positive")
	}
	if len(info.Pieces) == 0 || len(info.Pieces)%pieceHashLength != 0 {
		return errors.New("invalid torrent: pieces is not a sequence of SHA-1 digests")
	}
	if info.Length <= 0 && len(info.Files) == 0 {
		return errors.New("invalid torrent: neither length nor files present")
	}
	return nil
}

// IsValidFile reports whether path holds a structurally complete torrent
// file. It is the readiness predicate for watched .torrent files.
func IsValidFile(path string) bool {
	_, err := Load(path)
	return err == nil
}
