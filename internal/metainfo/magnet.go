package metainfo

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Magnet holds the fields weir cares about from a magnet URI.
type Magnet struct {
	// InfoHash is the urn payload: hex or base32 for btih, multihash hex
	// for btmh. Kept verbatim from the URI.
	InfoHash    string
	DisplayName string
	Trackers    []string
}

// ParseMagnet decodes a magnet URI and requires a BitTorrent exact-topic.
func ParseMagnet(raw string) (*Magnet, error) {
	trimmed := strings.TrimSpace(raw)
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse magnet uri: %w", err)
	}
	if parsed.Scheme != "magnet" {
		return nil, fmt.Errorf("parse magnet uri: scheme %q is not magnet", parsed.Scheme)
	}

	values := parsed.Query()
	var hash string
	for _, xt := range values["xt"] {
		for _, prefix := range []string{"urn:btih:", "urn:btmh:"} {
			if rest, ok := strings.CutPrefix(xt, prefix); ok && rest != "" {
				hash = rest
			}
		}
	}
	if hash == "" {
		return nil, errors.New("parse magnet uri: no BitTorrent exact-topic (xt=urn:btih:... or urn:btmh:...)")
	}

	return &Magnet{
		InfoHash:    strings.ToLower(hash),
		DisplayName: values.Get("dn"),
		Trackers:    values["tr"],
	}, nil
}

// LoadMagnetFile reads a .magnet reference file: the first non-empty line is
// expected to be a magnet URI.
func LoadMagnetFile(path string) (*Magnet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read magnet file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		return ParseMagnet(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read magnet file: %w", err)
	}
	return nil, errors.New("read magnet file: no magnet uri found")
}
