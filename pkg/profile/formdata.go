package profile

import (
	"net/url"
	"sort"
	"strings"
)

// FormData is a flat form submission: field name to submitted values. A
// single-valued field is a one-element slice. It has the same shape as
// url.Values so parsed request forms convert directly.
type FormData map[string][]string

// FromValues copies url.Values into FormData.
func FromValues(values url.Values) FormData {
	out := make(FormData, len(values))
	for key, items := range values {
		out[key] = append([]string(nil), items...)
	}
	return out
}

// Set replaces the values of name.
func (d FormData) Set(name string, values ...string) {
	d[name] = values
}

// repeatSuffix marks a form field whose values always form an array.
const repeatSuffix = "[]"

// entry is a normalized form field.
type entry struct {
	values []string
	array  bool
}

func (e entry) scalar() string {
	if len(e.values) == 0 {
		return ""
	}
	return e.values[0]
}

// normalize strips the repeat suffix, collapses single values to scalars and
// drops empty scalars. Suffixed names are applied after plain ones so they
// win when both spell the same field.
func normalize(data FormData) map[string]entry {
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		ri, rj := strings.HasSuffix(names[i], repeatSuffix), strings.HasSuffix(names[j], repeatSuffix)
		if ri != rj {
			return !ri
		}
		return names[i] < names[j]
	})

	out := make(map[string]entry, len(names))
	for _, name := range names {
		values := data[name]
		if len(values) == 0 {
			continue
		}
		if base, ok := strings.CutSuffix(name, repeatSuffix); ok {
			if base == "" {
				continue
			}
			out[base] = entry{values: append([]string(nil), values...), array: true}
			continue
		}
		if len(values) == 1 {
			if values[0] == "" {
				delete(out, name)
				continue
			}
			out[name] = entry{values: []string{values[0]}}
			continue
		}
		out[name] = entry{values: append([]string(nil), values...), array: true}
	}
	return out
}
