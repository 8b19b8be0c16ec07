package profile_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/murmurations/go-murmurations/pkg/profile"
	"github.com/murmurations/go-murmurations/pkg/schema"
	"github.com/murmurations/go-murmurations/pkg/testsupport"
)

func TestFormFields_Golden(t *testing.T) {
	fields := profile.FormFields(testsupport.MergedSchema(t, testsupport.OrganizationsSchema))

	goldenPath := filepath.Join("testdata", "organizations_fields.golden.json")
	testsupport.WriteGolden(t, goldenPath, fields)

	got, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("marshal fields: %v", err)
	}
	want, err := os.ReadFile(goldenPath)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	if diff := testsupport.CompareJSON(t, want, got); diff != "" {
		t.Fatalf("form fields mismatch (-want +got):\n%s", diff)
	}
}

func TestFormFields_NamesRoundTripThroughBuild(t *testing.T) {
	s := testsupport.MergedSchema(t, testsupport.OrganizationsSchema)

	data := profile.FormData{}
	for _, field := range profile.FormFields(s) {
		if field.Group {
			continue
		}
		switch field.Type {
		case schema.FieldTypeNumber:
			data.Set(field.Name, "1")
		default:
			data.Set(field.Name, "v")
		}
	}

	result := profile.Build(s, data)
	if len(result.Issues) != 0 {
		t.Fatalf("unexpected issues: %v", result.Issues)
	}
	want := profile.Object{
		"founded":     profile.Number(1),
		"geolocation": profile.Object{"lat": profile.Number(1), "lon": profile.Number(1)},
		"mission":     profile.String("v"),
		"name":        profile.String("v"),
		"primary_url": profile.String("v"),
		"status":      profile.String("v"),
		"tags":        profile.Array{profile.String("v")},
		"urls":        profile.Array{profile.Object{"name": profile.String("v"), "url": profile.String("v")}},
	}
	if diff := cmp.Diff(want, result.Profile); diff != "" {
		t.Fatalf("profile mismatch (-want +got):\n%s", diff)
	}
}

func TestFormFields_LabelsAndSanitizing(t *testing.T) {
	s := &schema.Schema{
		Type: "object",
		Properties: map[string]*schema.Field{
			"contactEmail": {Type: schema.FieldTypeString},
			"bio": {
				Type:        schema.FieldTypeString,
				Title:       `<script>alert(1)</script>About <i>you</i>`,
				Description: "Tom &amp; Jerry <b>rule</b>",
			},
		},
	}

	fields := profile.FormFields(s, profile.WithLabeler(strings.ToUpper))
	got := map[string][2]string{}
	for _, field := range fields {
		got[field.Name] = [2]string{field.Label, field.Description}
	}
	want := map[string][2]string{
		"bio":          {"About you", "Tom & Jerry rule"},
		"contactEmail": {"CONTACTEMAIL", ""},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestFormFields_NilSchema(t *testing.T) {
	if fields := profile.FormFields(nil); fields != nil {
		t.Fatalf("expected nil fields, got %v", fields)
	}
}

func TestDefaultLabeler(t *testing.T) {
	tests := map[string]string{
		"primary_url":   "Primary Url",
		"knowsLanguage": "Knows Language",
		"geo-location":  "Geo Location",
		"field2":        "Field 2",
		"":              "",
	}
	for input, want := range tests {
		if got := profile.DefaultLabeler(input); got != want {
			t.Fatalf("DefaultLabeler(%q) = %q, want %q", input, got, want)
		}
	}
}
