// Package validation describes profile validation failures and checks
// profiles against a merged schema without a round trip to the Index.
package validation

import (
	"strings"
)

// Issue is one validation failure, shaped like the Index's error objects.
type Issue struct {
	Status  int    `json:"status,omitempty"`
	Pointer string `json:"pointer,omitempty"`
	// Field is Pointer rendered as a dotted form field path.
	Field  string `json:"field,omitempty"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

// NewIssue fills Field from pointer.
func NewIssue(status int, pointer, title, detail string) Issue {
	return Issue{
		Status:  status,
		Pointer: pointer,
		Field:   FieldFromPointer(pointer),
		Title:   strings.TrimSpace(title),
		Detail:  strings.TrimSpace(detail),
	}
}

// Message is the detail when present, otherwise the title.
func (i Issue) Message() string {
	if i.Detail != "" {
		return i.Detail
	}
	return i.Title
}

// FieldFromPointer converts an instance pointer ("/geolocation/lat") or a
// schema pointer ("#/properties/urls/items/properties/name") into the dotted
// path used by form fields. Array indices become "[n]" suffixes.
func FieldFromPointer(pointer string) string {
	trimmed := strings.TrimSpace(pointer)
	trimmed = strings.TrimPrefix(trimmed, "#")
	trimmed = strings.TrimPrefix(trimmed, "/")
	if trimmed == "" {
		return ""
	}

	parts := strings.Split(trimmed, "/")
	out := make([]string, 0, len(parts))
	for idx := 0; idx < len(parts); idx++ {
		segment := unescape(parts[idx])
		switch segment {
		case "properties":
			if idx+1 < len(parts) {
				out = append(out, unescape(parts[idx+1]))
				idx++
			}
		case "items":
			if len(out) > 0 {
				out[len(out)-1] += "[]"
			}
		case "oneOf", "anyOf", "allOf":
			if idx+1 < len(parts) && isNumeric(parts[idx+1]) {
				idx++
			}
		case "$defs", "definitions":
			if idx+1 < len(parts) {
				idx++
			}
		case "":
			continue
		default:
			if isNumeric(segment) && len(out) > 0 {
				out[len(out)-1] += "[" + segment + "]"
				continue
			}
			out = append(out, segment)
		}
	}
	return strings.Join(out, ".")
}

func unescape(segment string) string {
	segment = strings.ReplaceAll(segment, "~1", "/")
	return strings.ReplaceAll(segment, "~0", "~")
}

func escape(segment string) string {
	segment = strings.ReplaceAll(segment, "~", "~0")
	return strings.ReplaceAll(segment, "/", "~1")
}

func isNumeric(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
