package testsupport

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/murmurations/go-murmurations/pkg/schema"
)

//go:embed testdata
var fixtures embed.FS

// Schema names available in the embedded Library fixtures.
const (
	OrganizationsSchema = "organizations_schema-v1.0.0"
	PeopleSchema        = "people_schema-v0.1.0"
	TestSchema          = "test_schema-v2.1.0"
	BrokenSchema        = "broken_schema-v1.0.0"
)

// SchemasFS exposes the fixture schemas as {name}.json entries, the layout
// the offline library loader expects.
func SchemasFS() fs.FS {
	sub, err := fs.Sub(fixtures, "testdata/schemas")
	if err != nil {
		panic(err)
	}
	return sub
}

// MustReadFixture returns the raw bytes of an embedded fixture.
func MustReadFixture(t *testing.T, name string) []byte {
	t.Helper()

	data, err := fs.ReadFile(fixtures, filepath.ToSlash(filepath.Join("testdata", name)))
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return data
}

// LoadRetrieved decodes one fixture schema.
func LoadRetrieved(t *testing.T, name string) schema.Retrieved {
	t.Helper()

	raw := MustReadFixture(t, filepath.Join("schemas", name+".json"))
	doc, err := schema.NewDocument(name, raw)
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	retrieved, err := doc.Decode()
	if err != nil {
		t.Fatalf("decode %s: %v", name, err)
	}
	return retrieved
}

// Fetcher resolves schema names from the embedded fixtures without any
// network access.
func Fetcher(t *testing.T) schema.Fetcher {
	t.Helper()

	return schema.FetcherFunc(func(_ context.Context, name string) (schema.Retrieved, error) {
		raw, err := fs.ReadFile(SchemasFS(), name+".json")
		if err != nil {
			return schema.Retrieved{}, err
		}
		doc, err := schema.NewDocument(name, raw)
		if err != nil {
			return schema.Retrieved{}, err
		}
		return doc.Decode()
	})
}

// MergedSchema merges the named fixtures through the real merger.
func MergedSchema(t *testing.T, names ...string) *schema.Schema {
	t.Helper()

	merged := schema.MergeSchemas(Context(), Fetcher(t), names)
	if merged == nil {
		t.Fatalf("merge %v: no schema resolved", names)
	}
	return merged
}

// WriteGolden writes arbitrary data to a golden file when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
}

// CompareJSON decodes both payloads and returns a cmp diff of the results so
// key order and whitespace do not matter.
func CompareJSON(t *testing.T, want, got []byte) string {
	t.Helper()

	var wantValue, gotValue any
	if err := json.Unmarshal(want, &wantValue); err != nil {
		t.Fatalf("decode want: %v", err)
	}
	if err := json.Unmarshal(got, &gotValue); err != nil {
		t.Fatalf("decode got: %v\n%s", err, got)
	}
	return cmp.Diff(wantValue, gotValue)
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
