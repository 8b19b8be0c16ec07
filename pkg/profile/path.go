package profile

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxArrayIndex bounds the indices accepted in field names so a crafted
// submission cannot allocate huge arrays.
const MaxArrayIndex = 1024

var indexedSegmentPattern = regexp.MustCompile(`^(.+)\[(\d+)\]$`)

// segment is one dot-separated step of a structured field name, for example
// "urls[2]" or "geolocation".
type segment struct {
	name    string
	index   int
	indexed bool
}

func (s segment) String() string {
	if s.indexed {
		return fmt.Sprintf("%s[%d]", s.name, s.index)
	}
	return s.name
}

// isStructured reports whether a field name addresses a nested position.
func isStructured(name string) bool {
	return strings.ContainsAny(name, "[.")
}

// parsePath splits a structured field name into segments.
func parsePath(name string) ([]segment, error) {
	parts := strings.Split(name, ".")
	segments := make([]segment, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("empty segment in %q", name)
		}
		match := indexedSegmentPattern.FindStringSubmatch(part)
		if match == nil {
			if strings.ContainsAny(part, "[]") {
				return nil, fmt.Errorf("malformed segment %q", part)
			}
			segments = append(segments, segment{name: part})
			continue
		}
		if strings.ContainsAny(match[1], "[]") {
			return nil, fmt.Errorf("malformed segment %q", part)
		}
		index, err := strconv.Atoi(match[2])
		if err != nil || index > MaxArrayIndex {
			return nil, fmt.Errorf("index %s out of range (max %d)", match[2], MaxArrayIndex)
		}
		segments = append(segments, segment{name: match[1], index: index, indexed: true})
	}
	return segments, nil
}
