package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Document wraps the raw schema payload served for one schema name.
type Document struct {
	name string
	raw  []byte
}

// NewDocument constructs a Document wrapper while validating the inputs.
func NewDocument(name string, raw []byte) (Document, error) {
	if strings.TrimSpace(name) == "" {
		return Document{}, errors.New("schema: name is required")
	}
	if len(raw) == 0 {
		return Document{}, errors.New("schema: raw document is empty")
	}

	clone := append([]byte(nil), raw...)
	return Document{name: name, raw: clone}, nil
}

// MustNewDocument panics if the document cannot be created. Useful for tests.
func MustNewDocument(name string, raw []byte) Document {
	doc, err := NewDocument(name, raw)
	if err != nil {
		panic(err)
	}
	return doc
}

// Name returns the schema name the document was requested under.
func (d Document) Name() string {
	return d.name
}

// Raw returns a defensive copy of the payload.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Decode parses the payload as a Library schema document.
func (d Document) Decode() (Retrieved, error) {
	if len(d.raw) == 0 {
		return Retrieved{}, errors.New("schema: document is empty")
	}
	var out Retrieved
	if err := json.Unmarshal(d.raw, &out); err != nil {
		return Retrieved{}, fmt.Errorf("schema: decode %q: %w", d.name, err)
	}
	return out, nil
}
