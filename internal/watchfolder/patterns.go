package watchfolder

import "strings"

const (
	// DefaultMetadataSuffix marks complete torrent metadata files, which
	// must pass the validity predicate before being reported.
	DefaultMetadataSuffix = ".torrent"
	// DefaultReferenceSuffix marks magnet reference files, which are
	// reported without a validity check.
	DefaultReferenceSuffix = ".magnet"
	// InvalidSuffix is appended to files that exhaust their retry budget,
	// moving them out of the pattern set's reach.
	InvalidSuffix = ".invalid"
)

// Patterns is the fixed pair of file suffixes the watch engine matches.
// Immutable after construction; matching is case-insensitive.
type Patterns struct {
	metadata  string
	reference string
}

// DefaultPatterns matches .torrent metadata files and .magnet references.
func DefaultPatterns() Patterns {
	return NewPatterns(DefaultMetadataSuffix, DefaultReferenceSuffix)
}

// NewPatterns builds a pattern set from the two suffixes. A missing leading
// dot is added; empty values fall back to the defaults.
func NewPatterns(metadataSuffix, referenceSuffix string) Patterns {
	return Patterns{
		metadata:  normalizeSuffix(metadataSuffix, DefaultMetadataSuffix),
		reference: normalizeSuffix(referenceSuffix, DefaultReferenceSuffix),
	}
}

func normalizeSuffix(suffix, fallback string) string {
	suffix = strings.ToLower(strings.TrimSpace(suffix))
	if suffix == "" {
		return fallback
	}
	if !strings.HasPrefix(suffix, ".") {
		suffix = "." + suffix
	}
	return suffix
}

// Match reports whether a directory entry name belongs to the watch set.
func (p Patterns) Match(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, p.metadata) || strings.HasSuffix(lower, p.reference)
}

// IsReference reports whether name is a reference file, ready without any
// validity check.
func (p Patterns) IsReference(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), p.reference)
}
