package validation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFieldFromPointer(t *testing.T) {
	tests := []struct {
		pointer string
		want    string
	}{
		{pointer: "", want: ""},
		{pointer: "/", want: ""},
		{pointer: "/name", want: "name"},
		{pointer: "/geolocation/lat", want: "geolocation.lat"},
		{pointer: "/urls/0/name", want: "urls[0].name"},
		{pointer: "/tags/3", want: "tags[3]"},
		{pointer: "#/properties/urls/items/properties/name", want: "urls[].name"},
		{pointer: "#/properties/a~1b", want: "a/b"},
		{pointer: "#/properties/contact/anyOf/1/properties/email", want: "contact.email"},
		{pointer: "#/$defs/address/properties/city", want: "city"},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, FieldFromPointer(tt.pointer)); diff != "" {
			t.Fatalf("FieldFromPointer(%q) mismatch (-want +got):\n%s", tt.pointer, diff)
		}
	}
}

func TestNewIssue(t *testing.T) {
	got := NewIssue(400, "/geolocation/lat", " Invalid Type ", "expected number")
	want := Issue{Status: 400, Pointer: "/geolocation/lat", Field: "geolocation.lat", Title: "Invalid Type", Detail: "expected number"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("issue mismatch (-want +got):\n%s", diff)
	}
}

func TestIssueMessage(t *testing.T) {
	if got := NewIssue(400, "/name", "Missing Required Property", "name is required").Message(); got != "name is required" {
		t.Fatalf("expected detail, got %q", got)
	}
	if got := NewIssue(400, "/name", "Missing Required Property", "").Message(); got != "Missing Required Property" {
		t.Fatalf("expected title fallback, got %q", got)
	}
}
