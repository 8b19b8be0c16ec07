package profile_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/murmurations/go-murmurations/pkg/profile"
	"github.com/murmurations/go-murmurations/pkg/testsupport"
)

func TestObjectJSON(t *testing.T) {
	obj := profile.Object{
		"name":           profile.String("Open Co"),
		"founded":        profile.Number(2011),
		"active":         profile.Bool(true),
		"linked_schemas": profile.Array{profile.String("organizations_schema-v1.0.0")},
		"geolocation":    profile.Object{"lat": profile.Number(51.5)},
		"empty":          profile.Array(nil),
	}

	raw, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"active":true,"empty":[],"founded":2011,"geolocation":{"lat":51.5},"linked_schemas":["organizations_schema-v1.0.0"],"name":"Open Co"}`
	if diff := testsupport.CompareJSON(t, []byte(want), raw); diff != "" {
		t.Fatalf("json mismatch (-want +got):\n%s", diff)
	}

	decoded, err := profile.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	obj["empty"] = profile.Array{}
	if diff := cmp.Diff(obj, decoded); diff != "" {
		t.Fatalf("decoded mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsNullAndNonObjects(t *testing.T) {
	for _, raw := range []string{`{"a":null}`, `[1,2]`, `"x"`, `{`} {
		if _, err := profile.Decode([]byte(raw)); err == nil {
			t.Fatalf("expected error decoding %s", raw)
		}
	}
}

func TestToAny(t *testing.T) {
	got := profile.ToAny(profile.Object{
		"tags": profile.Array{profile.String("a"), profile.Number(2)},
		"ok":   profile.Bool(false),
	})
	want := map[string]any{
		"tags": []any{"a", float64(2)},
		"ok":   false,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ToAny mismatch (-want +got):\n%s", diff)
	}
}

func TestObjectHelpers(t *testing.T) {
	obj := profile.Object{
		"title":          profile.String("Fallback"),
		"linked_schemas": profile.Array{profile.String("a"), profile.Number(1), profile.String("b")},
	}
	if got := obj.Title(); got != "Fallback" {
		t.Fatalf("Title() = %q", got)
	}
	obj["name"] = profile.String("Primary")
	if got := obj.Title(); got != "Primary" {
		t.Fatalf("Title() = %q", got)
	}
	if diff := cmp.Diff([]string{"a", "b"}, obj.LinkedSchemas()); diff != "" {
		t.Fatalf("LinkedSchemas mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"linked_schemas", "name", "title"}, obj.Keys()); diff != "" {
		t.Fatalf("Keys mismatch (-want +got):\n%s", diff)
	}
}
