package render

import (
	"github.com/murmurations/go-murmurations/pkg/profile"
)

// Page template names.
const (
	ProfileGeneratorPage = "profile_generator"
	IndexExplorerPage    = "index_explorer"
)

// SchemaOption is one selectable Library schema.
type SchemaOption struct {
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

// ProfileGenerator is the view model of the profile generator page.
type ProfileGenerator struct {
	Title         string         `json:"title"`
	Authenticated bool           `json:"authenticated"`
	Schemas       []SchemaOption `json:"schemas"`
	Selected      []string       `json:"selected"`
	LinkedSchemas string         `json:"linked_schemas"`
	Fields        []Field        `json:"fields"`
	Error         string         `json:"error,omitempty"`
}

// IndexExplorer is the view model of the index explorer page.
type IndexExplorer struct {
	Title         string         `json:"title"`
	Authenticated bool           `json:"authenticated"`
	Schemas       []SchemaOption `json:"schemas"`
	Countries     []string       `json:"countries"`
	Error         string         `json:"error,omitempty"`
}

// SchemaOptions marks the selected names in the Library list.
func SchemaOptions(names []string, selected []string) []SchemaOption {
	chosen := make(map[string]struct{}, len(selected))
	for _, name := range selected {
		chosen[name] = struct{}{}
	}
	out := make([]SchemaOption, 0, len(names))
	for _, name := range names {
		_, ok := chosen[name]
		out = append(out, SchemaOption{Name: name, Selected: ok})
	}
	return out
}

// Field is a form field plus its select options, if any.
type Field struct {
	profile.FormField
	Options []FieldOption `json:"options,omitempty"`
}

// FieldOption is one choice of an enumerated field.
type FieldOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Fields pairs enum values with their display names.
func Fields(fields []profile.FormField) []Field {
	out := make([]Field, 0, len(fields))
	for _, field := range fields {
		view := Field{FormField: field}
		for i, value := range field.Enum {
			label := value
			if i < len(field.EnumNames) && field.EnumNames[i] != "" {
				label = field.EnumNames[i]
			}
			view.Options = append(view.Options, FieldOption{Value: value, Label: label})
		}
		out = append(out, view)
	}
	return out
}
