package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/murmurations/go-murmurations/pkg/schema"
	"github.com/murmurations/go-murmurations/pkg/testsupport"
)

func TestFieldKeepsUnknownKeywords(t *testing.T) {
	raw := []byte(`{"type":"string","title":"URL","maxLength":2000,"pattern":"^https?://"}`)

	var field schema.Field
	if err := json.Unmarshal(raw, &field); err != nil {
		t.Fatalf("unmarshal field: %v", err)
	}
	if field.Type != schema.FieldTypeString || field.Title != "URL" {
		t.Fatalf("unexpected field: %+v", field)
	}
	if len(field.Extra) != 2 {
		t.Fatalf("expected 2 extra keywords, got %v", field.Extra)
	}

	out, err := json.Marshal(field)
	if err != nil {
		t.Fatalf("marshal field: %v", err)
	}
	if diff := testsupport.CompareJSON(t, raw, out); diff != "" {
		t.Fatalf("field JSON mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldTypeUnion(t *testing.T) {
	var field schema.Field
	if err := json.Unmarshal([]byte(`{"type":["null","number"]}`), &field); err != nil {
		t.Fatalf("unmarshal union: %v", err)
	}
	if field.Type != schema.FieldTypeNumber {
		t.Fatalf("expected number, got %q", field.Type)
	}
}

func TestFieldTupleItemsAndBooleanSubschemas(t *testing.T) {
	raw := []byte(`{"type":"object","properties":{"pair":{"type":"array","items":[{"type":"string"},{"type":"number"}]},"anything":true,"nothing":false}}`)

	var field schema.Field
	if err := json.Unmarshal(raw, &field); err != nil {
		t.Fatalf("unmarshal field: %v", err)
	}
	pair, ok := field.Property("pair")
	if !ok {
		t.Fatalf("expected pair property")
	}
	if pair.Items != nil || pair.IsArray() {
		t.Fatalf("tuple items should not decode into Items, got %+v", pair.Items)
	}
	if _, ok := pair.Extra["items"]; !ok {
		t.Fatalf("expected tuple items in Extra, got %v", pair.Extra)
	}
	if _, ok := field.Property("anything"); !ok {
		t.Fatalf("expected boolean subschema to decode")
	}

	out, err := json.Marshal(field)
	if err != nil {
		t.Fatalf("marshal field: %v", err)
	}
	if diff := testsupport.CompareJSON(t, raw, out); diff != "" {
		t.Fatalf("field JSON mismatch (-want +got):\n%s", diff)
	}
}

func TestRetrievedDecodeWithTupleItems(t *testing.T) {
	raw := []byte(`{"$schema":"http://json-schema.org/draft-07/schema#","title":"Tuples","type":"object","properties":{"point":{"type":"array","items":[{"type":"number"},{"type":"number"}]}},"metadata":{"schema":{"name":"tuples-v1.0.0"}}}`)

	var retrieved schema.Retrieved
	if err := json.Unmarshal(raw, &retrieved); err != nil {
		t.Fatalf("unmarshal retrieved: %v", err)
	}
	if retrieved.Name() != "tuples-v1.0.0" {
		t.Fatalf("unexpected name %q", retrieved.Name())
	}
	if _, ok := retrieved.Properties["point"]; !ok {
		t.Fatalf("expected point property")
	}
}

func TestRetrievedDecode(t *testing.T) {
	retrieved := testsupport.LoadRetrieved(t, testsupport.OrganizationsSchema)

	if retrieved.Name() != testsupport.OrganizationsSchema {
		t.Fatalf("unexpected name %q", retrieved.Name())
	}
	geo, ok := retrieved.Properties["geolocation"]
	if !ok {
		t.Fatalf("expected geolocation property")
	}
	lat, ok := geo.Property("lat")
	if !ok || lat.Type != schema.FieldTypeNumber {
		t.Fatalf("expected numeric lat, got %+v", lat)
	}
	urls := retrieved.Properties["urls"]
	if !urls.IsArray() || urls.Items.Type != schema.FieldTypeObject {
		t.Fatalf("expected array of objects, got %+v", urls)
	}
	if diff := cmp.Diff([]string{"Active", "Completed", "Cancelled", "On Hold", "In Planning"}, retrieved.Properties["status"].EnumNames); diff != "" {
		t.Fatalf("enum names mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaRootAndProperty(t *testing.T) {
	var nilSchema *schema.Schema
	if nilSchema.Root() != nil {
		t.Fatalf("expected nil root for nil schema")
	}
	if _, ok := nilSchema.Property("name"); ok {
		t.Fatalf("expected no property on nil schema")
	}

	merged := testsupport.MergedSchema(t, testsupport.OrganizationsSchema)
	root := merged.Root()
	if root.Type != schema.FieldTypeObject {
		t.Fatalf("expected object root, got %q", root.Type)
	}
	if _, ok := merged.Property("mission"); !ok {
		t.Fatalf("expected mission property")
	}
}

func TestMergedSchemaJSONShape(t *testing.T) {
	merged := testsupport.MergedSchema(t, testsupport.TestSchema)
	out, err := json.Marshal(merged)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := []byte(`{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "scores": {"title": "Scores", "type": "array", "items": {"type": "number"}},
    "name": {"title": "Test Name", "type": "string"}
  },
  "required": ["name"],
  "metadata": {"schema": ["test_schema-v2.1.0"]}
}`)
	if diff := testsupport.CompareJSON(t, want, out); diff != "" {
		t.Fatalf("schema JSON mismatch (-want +got):\n%s", diff)
	}
}

func TestNewDocumentValidation(t *testing.T) {
	if _, err := schema.NewDocument("", []byte(`{}`)); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if _, err := schema.NewDocument("x", nil); err == nil {
		t.Fatalf("expected error for empty payload")
	}

	raw := []byte(`{"type":"object"}`)
	doc := schema.MustNewDocument("x", raw)
	raw[0] = '['
	if string(doc.Raw()) != `{"type":"object"}` {
		t.Fatalf("document should hold a defensive copy")
	}
	if _, err := schema.MustNewDocument("x", []byte(`{`)).Decode(); err == nil {
		t.Fatalf("expected decode error")
	}
}
