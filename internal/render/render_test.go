package render_test

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/murmurations/go-murmurations/internal/render"
	"github.com/murmurations/go-murmurations/pkg/profile"
	"github.com/murmurations/go-murmurations/pkg/testsupport"
)

func newEngine(t *testing.T, options ...render.Option) *render.Engine {
	t.Helper()
	engine, err := render.New(options...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestProfileGeneratorPage(t *testing.T) {
	engine := newEngine(t)
	fields := profile.FormFields(testsupport.MergedSchema(t, testsupport.OrganizationsSchema))

	var out strings.Builder
	err := engine.Render(&out, render.ProfileGeneratorPage, render.ProfileGenerator{
		Title:         "Profile Generator",
		Schemas:       render.SchemaOptions([]string{testsupport.OrganizationsSchema, testsupport.PeopleSchema}, []string{testsupport.OrganizationsSchema}),
		Selected:      []string{testsupport.OrganizationsSchema},
		LinkedSchemas: testsupport.OrganizationsSchema,
		Fields:        render.Fields(fields),
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := out.String()

	for _, want := range []string{
		`<title>Profile Generator | Murmurations Tools</title>`,
		`value="organizations_schema-v1.0.0" checked`,
		`value="people_schema-v0.1.0">`,
		`name="linked_schemas" value="organizations_schema-v1.0.0"`,
		`name="geolocation.lat" type="number"`,
		`name="tags[]" type="text"`,
		`name="urls[0].url" type="text" required`,
		`<option value="on_hold">On Hold</option>`,
		`action="/profile-generator/build"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestProfileGeneratorPageWithoutSelection(t *testing.T) {
	engine := newEngine(t)

	var out strings.Builder
	err := engine.Render(&out, render.ProfileGeneratorPage, render.ProfileGenerator{
		Title: "Profile Generator",
		Error: `<b>library down</b>`,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := out.String()
	if strings.Contains(html, "profile-form") {
		t.Fatal("form rendered without fields")
	}
	if !strings.Contains(html, "No schemas available.") {
		t.Fatal("expected empty schema list message")
	}
	if !strings.Contains(html, "&lt;b&gt;library down&lt;/b&gt;") {
		t.Fatalf("error was not escaped:\n%s", html)
	}
}

func TestIndexExplorerPage(t *testing.T) {
	engine := newEngine(t)

	var out strings.Builder
	err := engine.Render(&out, render.IndexExplorerPage, render.IndexExplorer{
		Title:         "Index Explorer",
		Authenticated: true,
		Schemas:       render.SchemaOptions([]string{"a"}, nil),
		Countries:     []string{"Brazil", "Canada"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := out.String()
	for _, want := range []string{`<option value="Canada">Canada</option>`, `action="/logout"`, `action="/index-explorer/nodes"`} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestCustomTemplatesAndGlobals(t *testing.T) {
	files := fstest.MapFS{
		"hello.tpl": &fstest.MapFile{Data: []byte(`{{ greeting }}, {{ name|trim }}!`)},
	}
	engine := newEngine(t, render.WithFS(files), render.WithGlobalData(map[string]any{"greeting": "Hello"}))

	var out strings.Builder
	if err := engine.Render(&out, "hello", map[string]any{"name": "  Ada "}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if diff := cmp.Diff("Hello, Ada!", out.String()); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}

	if err := engine.Render(&out, "missing", nil); err == nil {
		t.Fatal("expected error for missing template")
	}
	if err := engine.Render(&out, "hello", []string{"not", "an", "object"}); err == nil {
		t.Fatal("expected error for non-object data")
	}
}

func TestFields(t *testing.T) {
	got := render.Fields([]profile.FormField{{Name: "status", Enum: []string{"a", "b"}, EnumNames: []string{"A"}}})
	want := []render.FieldOption{{Value: "a", Label: "A"}, {Value: "b", Label: "b"}}
	if diff := cmp.Diff(want, got[0].Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}
