package mapping

import (
	"errors"
	"fmt"
	"strings"
)

// FieldPath is a parsed dotted field path such as "user.address.city".
type FieldPath struct {
	Segments []string
}

// ParsePath parses a dotted field path. The empty path is rejected: every
// rule must read and write a named field.
func ParsePath(path string) (FieldPath, error) {
	if path == "" {
		return FieldPath{}, errors.New("empty path")
	}

	var segments []string

	for part := range strings.SplitSeq(path, ".") {
		if part == "" {
			return FieldPath{}, fmt.Errorf("invalid path %q: empty segment", path)
		}

		segments = append(segments, part)
	}

	return FieldPath{Segments: segments}, nil
}

// String returns the dotted representation.
func (p FieldPath) String() string {
	return strings.Join(p.Segments, ".")
}

// Depth returns the number of segments.
func (p FieldPath) Depth() int {
	return len(p.Segments)
}

// IsPrefixOf reports whether p names an ancestor object of other.
func (p FieldPath) IsPrefixOf(other FieldPath) bool {
	if len(p.Segments) >= len(other.Segments) {
		return false
	}

	for i, s := range p.Segments {
		if other.Segments[i] != s {
			return false
		}
	}

	return true
}
