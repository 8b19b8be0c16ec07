package schema

import (
	"bytes"
	"encoding/json"
)

// FieldType enumerates the JSON Schema types profile fields may declare.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeNumber  FieldType = "number"
	FieldTypeArray   FieldType = "array"
	FieldTypeObject  FieldType = "object"
	FieldTypeBoolean FieldType = "boolean"
)

// UnmarshalJSON accepts both the scalar form ("string") and the union form
// (["string", "null"]). Unions collapse to their first non-null member.
func (t *FieldType) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var union []string
		if err := json.Unmarshal(data, &union); err != nil {
			return err
		}
		*t = ""
		for _, member := range union {
			if member != "null" {
				*t = FieldType(member)
				break
			}
		}
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*t = FieldType(single)
	return nil
}

// Field is one property definition inside a schema. Object fields carry
// Properties, array fields carry Items. Keywords the application does not
// interpret (pattern, format, minItems, ...) are kept in Extra so the
// composite schema can still be used for local validation.
type Field struct {
	Type        FieldType                  `json:"type,omitempty"`
	Title       string                     `json:"title,omitempty"`
	Description string                     `json:"description,omitempty"`
	Enum        []any                      `json:"enum,omitempty"`
	EnumNames   []string                   `json:"enumNames,omitempty"`
	Properties  map[string]*Field          `json:"properties,omitempty"`
	Items       *Field                     `json:"items,omitempty"`
	Required    []string                   `json:"required,omitempty"`
	Extra       map[string]json.RawMessage `json:"-"`

	// boolean is set for the true/false subschema forms.
	boolean *bool
}

var knownFieldKeys = []string{
	"type", "title", "description", "enum", "enumNames",
	"properties", "items", "required",
}

type plainField Field

// UnmarshalJSON decodes the known keywords and stashes the rest in Extra.
// Boolean subschemas are kept as-is, and a tuple-form items keyword lands in
// Extra with Items left nil.
func (f *Field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("true")) || bytes.Equal(data, []byte("false")) {
		b := data[0] == 't'
		*f = Field{boolean: &b}
		return nil
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	var items json.RawMessage
	if raw, ok := all["items"]; ok {
		if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] != '{' {
			items = raw
			delete(all, "items")
			stripped, err := json.Marshal(all)
			if err != nil {
				return err
			}
			data = stripped
		}
	}

	var plain plainField
	if err := json.Unmarshal(data, &plain); err != nil {
		return err
	}
	for _, key := range knownFieldKeys {
		delete(all, key)
	}
	if items != nil {
		all["items"] = items
	}
	if len(all) > 0 {
		plain.Extra = all
	}
	*f = Field(plain)
	return nil
}

// MarshalJSON re-emits Extra keywords next to the known ones.
func (f Field) MarshalJSON() ([]byte, error) {
	if f.boolean != nil {
		return json.Marshal(*f.boolean)
	}
	known, err := json.Marshal(plainField(f))
	if err != nil {
		return nil, err
	}
	if len(f.Extra) == 0 {
		return known, nil
	}
	merged := make(map[string]json.RawMessage, len(f.Extra)+len(knownFieldKeys))
	for key, value := range f.Extra {
		merged[key] = value
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for key, value := range fields {
		merged[key] = value
	}
	return json.Marshal(merged)
}

// Property returns the named child property of an object field.
func (f *Field) Property(name string) (*Field, bool) {
	if f == nil || f.Properties == nil {
		return nil, false
	}
	child, ok := f.Properties[name]
	if !ok || child == nil {
		return nil, false
	}
	return child, true
}

// IsArray reports whether the field declares array semantics with an item
// definition.
func (f *Field) IsArray() bool {
	return f != nil && f.Type == FieldTypeArray && f.Items != nil
}

// Metadata carries the names of the schemas a composite was built from.
type Metadata struct {
	SchemaNames []string `json:"schema"`
}

// Schema is the composite schema a profile is generated against.
type Schema struct {
	Schema     string            `json:"$schema,omitempty"`
	Type       string            `json:"type"`
	Properties map[string]*Field `json:"properties"`
	Required   []string          `json:"required"`
	Metadata   Metadata          `json:"metadata"`
}

// Root exposes the schema as an object Field so callers can walk nested
// properties with a single cursor type.
func (s *Schema) Root() *Field {
	if s == nil {
		return nil
	}
	return &Field{
		Type:       FieldTypeObject,
		Properties: s.Properties,
		Required:   s.Required,
	}
}

// Property returns a top-level property definition.
func (s *Schema) Property(name string) (*Field, bool) {
	return s.Root().Property(name)
}

// RetrievedMetadata is the metadata block of a single Library schema, which
// names exactly one schema.
type RetrievedMetadata struct {
	Schema struct {
		Name    string `json:"name"`
		Version int    `json:"version,omitempty"`
		Purpose string `json:"purpose,omitempty"`
	} `json:"schema"`
}

// Retrieved is the document the Library returns for one schema name.
type Retrieved struct {
	Schema      string            `json:"$schema,omitempty"`
	ID          string            `json:"$id,omitempty"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Type        string            `json:"type"`
	Properties  map[string]*Field `json:"properties"`
	Required    []string          `json:"required"`
	Metadata    RetrievedMetadata `json:"metadata"`
}

// Name returns the declared schema name.
func (r Retrieved) Name() string {
	return r.Metadata.Schema.Name
}
