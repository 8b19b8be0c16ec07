package profile

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/murmurations/go-murmurations/pkg/schema"
)

// FormField is one input (or group heading) implied by a schema. Name uses
// the notation Build understands, so submitting the planned fields round
// trips into a profile.
type FormField struct {
	Name        string           `json:"name"`
	Label       string           `json:"label"`
	Description string           `json:"description,omitempty"`
	Type        schema.FieldType `json:"type"`
	Required    bool             `json:"required,omitempty"`
	Enum        []string         `json:"enum,omitempty"`
	EnumNames   []string         `json:"enumNames,omitempty"`
	// Repeated inputs accept several values (the name ends in "[]").
	Repeated bool `json:"repeated,omitempty"`
	// Group marks a heading for the nested fields that follow it.
	Group bool `json:"group,omitempty"`
	Depth int  `json:"depth,omitempty"`
}

// PlanOption customises FormFields.
type PlanOption func(*planner)

// WithLabeler overrides the label derived for untitled properties.
func WithLabeler(labeler Labeler) PlanOption {
	return func(p *planner) {
		if labeler != nil {
			p.labeler = labeler
		}
	}
}

type planner struct {
	labeler Labeler
	out     []FormField
}

// FormFields lists the inputs for every property of s in a stable,
// depth-first, alphabetical order. linked_schemas is omitted; callers submit
// it from the selected schema names.
func FormFields(s *schema.Schema, options ...PlanOption) []FormField {
	if s == nil {
		return nil
	}
	p := &planner{labeler: DefaultLabeler}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}
	p.walk(s.Root(), "", 0, map[string]bool{linkedSchemasField: true})
	return p.out
}

func (p *planner) walk(parent *schema.Field, prefix string, depth int, skip map[string]bool) {
	required := make(map[string]bool, len(parent.Required))
	for _, name := range parent.Required {
		required[name] = true
	}

	names := make([]string, 0, len(parent.Properties))
	for name, field := range parent.Properties {
		if field == nil || skip[name] {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		field := parent.Properties[name]
		fullName := name
		if prefix != "" {
			fullName = prefix + "." + name
		}
		base := FormField{
			Name:        fullName,
			Label:       p.label(name, field.Title),
			Description: plainText(field.Description),
			Type:        field.Type,
			Required:    required[name],
			Depth:       depth,
		}

		switch {
		case field.Type == schema.FieldTypeObject && len(field.Properties) > 0:
			base.Group = true
			p.out = append(p.out, base)
			p.walk(field, fullName, depth+1, nil)
		case field.IsArray() && field.Items.Type == schema.FieldTypeObject && len(field.Items.Properties) > 0:
			base.Group = true
			base.Repeated = true
			p.out = append(p.out, base)
			p.walk(field.Items, fullName+"[0]", depth+1, nil)
		case field.IsArray():
			base.Name = fullName + repeatSuffix
			base.Type = field.Items.Type
			base.Repeated = true
			base.Enum, base.EnumNames = enumOptions(field.Items)
			p.out = append(p.out, base)
		default:
			base.Enum, base.EnumNames = enumOptions(field)
			p.out = append(p.out, base)
		}
	}
}

func (p *planner) label(name, title string) string {
	if cleaned := plainText(title); cleaned != "" {
		return cleaned
	}
	return p.labeler(name)
}

func enumOptions(field *schema.Field) ([]string, []string) {
	if field == nil || len(field.Enum) == 0 {
		return nil, nil
	}
	values := make([]string, 0, len(field.Enum))
	for _, item := range field.Enum {
		values = append(values, fmt.Sprint(item))
	}
	var names []string
	if len(field.EnumNames) == len(values) {
		names = make([]string, 0, len(values))
		for _, name := range field.EnumNames {
			names = append(names, plainText(name))
		}
	}
	return values, names
}

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// plainText strips markup from schema-provided text. The result is plain
// text; templates escape it on output.
func plainText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(trimmed)))
}
