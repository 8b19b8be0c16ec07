package schema_test

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/murmurations/go-murmurations/pkg/schema"
	"github.com/murmurations/go-murmurations/pkg/testsupport"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMergeSchemas_AllResolve(t *testing.T) {
	names := []string{testsupport.OrganizationsSchema, testsupport.PeopleSchema}

	merged := schema.MergeSchemas(context.Background(), testsupport.Fetcher(t), names)
	if merged == nil {
		t.Fatalf("expected merged schema")
	}

	if diff := cmp.Diff(names, merged.Metadata.SchemaNames); diff != "" {
		t.Fatalf("schema names mismatch (-want +got):\n%s", diff)
	}
	if merged.Schema != "https://json-schema.org/draft/2020-12/schema" {
		t.Fatalf("expected $schema from first resolved schema, got %q", merged.Schema)
	}
	if merged.Type != "object" {
		t.Fatalf("expected object type, got %q", merged.Type)
	}

	wantRequired := []string{"linked_schemas", "name", "primary_url"}
	if diff := cmp.Diff(wantRequired, merged.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}

	var keys []string
	for key := range merged.Properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	wantKeys := []string{
		"age", "contact_details", "founded", "geolocation", "knows_language",
		"linked_schemas", "mission", "name", "nickname", "primary_url",
		"status", "tags", "urls",
	}
	if diff := cmp.Diff(wantKeys, keys); diff != "" {
		t.Fatalf("property keys mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeSchemas_LastWinsOnCollision(t *testing.T) {
	orgsFirst := testsupport.MergedSchema(t, testsupport.OrganizationsSchema, testsupport.PeopleSchema)
	if got := orgsFirst.Properties["name"].Title; got != "Full Name" {
		t.Fatalf("expected later schema to win, got title %q", got)
	}

	peopleFirst := testsupport.MergedSchema(t, testsupport.PeopleSchema, testsupport.OrganizationsSchema)
	if got := peopleFirst.Properties["name"].Title; got != "Name" {
		t.Fatalf("expected later schema to win, got title %q", got)
	}
	if peopleFirst.Schema != "https://json-schema.org/draft-07/schema#" {
		t.Fatalf("expected $schema of first resolved schema, got %q", peopleFirst.Schema)
	}
}

func TestMergeSchemas_EmptyInput(t *testing.T) {
	if got := schema.MergeSchemas(context.Background(), testsupport.Fetcher(t), nil); got != nil {
		t.Fatalf("expected nil for empty input, got %+v", got)
	}
	if got := schema.MergeSchemas(context.Background(), testsupport.Fetcher(t), []string{}); got != nil {
		t.Fatalf("expected nil for empty input, got %+v", got)
	}
}

func TestMergeSchemas_AllFail(t *testing.T) {
	fetcher := schema.FetcherFunc(func(context.Context, string) (schema.Retrieved, error) {
		return schema.Retrieved{}, errors.New("library unavailable")
	})
	if got := schema.MergeSchemas(context.Background(), fetcher, []string{"a", "b"}); got != nil {
		t.Fatalf("expected nil when every fetch fails, got %+v", got)
	}
}

func TestMergeSchemas_PartialFailureIsLoggedAndSkipped(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	names := []string{"missing_schema-v1.0.0", testsupport.PeopleSchema, testsupport.BrokenSchema, testsupport.TestSchema}

	merged := schema.MergeSchemas(context.Background(), testsupport.Fetcher(t), names, schema.WithLogger(zap.New(core)))
	if merged == nil {
		t.Fatalf("expected partial merge")
	}

	want := []string{testsupport.PeopleSchema, testsupport.TestSchema}
	if diff := cmp.Diff(want, merged.Metadata.SchemaNames); diff != "" {
		t.Fatalf("schema names mismatch (-want +got):\n%s", diff)
	}
	if merged.Schema != "https://json-schema.org/draft-07/schema#" {
		t.Fatalf("expected $schema from first successful result, got %q", merged.Schema)
	}
	if got := logs.FilterMessage("schema fetch failed").Len(); got != 2 {
		t.Fatalf("expected 2 logged failures, got %d", got)
	}
}

func TestMergeSchemas_RequiredHasNoDuplicates(t *testing.T) {
	merged := testsupport.MergedSchema(t,
		testsupport.OrganizationsSchema,
		testsupport.PeopleSchema,
		testsupport.TestSchema,
		testsupport.OrganizationsSchema,
	)

	seen := map[string]int{}
	for _, name := range merged.Required {
		seen[name]++
		if seen[name] > 1 {
			t.Fatalf("required contains duplicate %q: %v", name, merged.Required)
		}
	}
	if len(merged.Metadata.SchemaNames) != 4 {
		t.Fatalf("expected one schema name per input, got %v", merged.Metadata.SchemaNames)
	}
}

func TestMergeSchemas_OrderIndependentOfCompletion(t *testing.T) {
	delays := map[string]time.Duration{
		"slow": 30 * time.Millisecond,
		"fast": 0,
	}
	var calls atomic.Int32
	fetcher := schema.FetcherFunc(func(ctx context.Context, name string) (schema.Retrieved, error) {
		calls.Add(1)
		select {
		case <-time.After(delays[name]):
		case <-ctx.Done():
			return schema.Retrieved{}, ctx.Err()
		}
		var out schema.Retrieved
		out.Schema = "schema-" + name
		out.Properties = map[string]*schema.Field{"shared": {Type: schema.FieldType(name)}}
		out.Metadata.Schema.Name = name
		return out, nil
	})

	merged := schema.MergeSchemas(context.Background(), fetcher, []string{"slow", "fast"})
	if merged == nil {
		t.Fatalf("expected merged schema")
	}
	if calls.Load() != 2 {
		t.Fatalf("expected one fetch per name, got %d", calls.Load())
	}
	if diff := cmp.Diff([]string{"slow", "fast"}, merged.Metadata.SchemaNames); diff != "" {
		t.Fatalf("schema names mismatch (-want +got):\n%s", diff)
	}
	if merged.Schema != "schema-slow" {
		t.Fatalf("expected positional $schema, got %q", merged.Schema)
	}
	if got := merged.Properties["shared"].Type; got != "fast" {
		t.Fatalf("expected last input to win, got %q", got)
	}
}

func TestMergeSchemas_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := schema.FetcherFunc(func(ctx context.Context, name string) (schema.Retrieved, error) {
		if err := ctx.Err(); err != nil {
			return schema.Retrieved{}, err
		}
		t.Errorf("fetch should observe cancellation")
		return schema.Retrieved{}, nil
	})
	if got := schema.MergeSchemas(ctx, fetcher, []string{"a"}); got != nil {
		t.Fatalf("expected nil for cancelled context")
	}
}

func TestParseNames(t *testing.T) {
	got := schema.ParseNames(" organizations_schema-v1.0.0, ,people_schema-v0.1.0 ,")
	want := []string{"organizations_schema-v1.0.0", "people_schema-v0.1.0"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if got := schema.ParseNames(""); len(got) != 0 {
		t.Fatalf("expected no names, got %v", got)
	}
}
