package loader_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/murmurations/go-murmurations/internal/library/loader"
	"github.com/murmurations/go-murmurations/pkg/library"
	"github.com/murmurations/go-murmurations/pkg/testsupport"
)

func TestLoader_FileSystem(t *testing.T) {
	l := loader.New(library.NewLoaderOptions(library.WithFileSystem(testsupport.SchemasFS())))

	doc, err := l.Load(context.Background(), testsupport.PeopleSchema)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	retrieved, err := doc.Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(testsupport.PeopleSchema, retrieved.Name()); diff != "" {
		t.Fatalf("name mismatch (-want +got):\n%s", diff)
	}
}

func TestLoader_FileSystemMissingWithoutHTTP(t *testing.T) {
	l := loader.New(library.NewLoaderOptions(library.WithFileSystem(fstest.MapFS{})))

	_, err := l.Load(context.Background(), "missing_schema-v1.0.0")
	if !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoader_HTTP(t *testing.T) {
	server := testsupport.LibraryServer(t)
	l := loader.New(library.NewLoaderOptions(library.WithBaseURL(server.URL)))

	doc, err := l.Load(context.Background(), testsupport.OrganizationsSchema)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(testsupport.OrganizationsSchema, doc.Name()); diff != "" {
		t.Fatalf("name mismatch (-want +got):\n%s", diff)
	}
}

func TestLoader_FileSystemFallsBackToHTTP(t *testing.T) {
	server := testsupport.LibraryServer(t)
	l := loader.New(library.NewLoaderOptions(
		library.WithFileSystem(fstest.MapFS{}),
		library.WithBaseURL(server.URL),
	))

	if _, err := l.Load(context.Background(), testsupport.TestSchema); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestLoader_HTTPStatusErrors(t *testing.T) {
	server := testsupport.LibraryServer(t, testsupport.PeopleSchema)
	l := loader.New(library.NewLoaderOptions(library.WithBaseURL(server.URL)))

	_, err := l.Load(context.Background(), "unknown_schema-v9.9.9")
	if !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for 404, got %v", err)
	}

	_, err = l.Load(context.Background(), testsupport.PeopleSchema)
	var statusErr *library.StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != 500 {
		t.Fatalf("expected 500 StatusError, got %v", err)
	}
}

func TestLoader_RejectsUnsafeNames(t *testing.T) {
	l := loader.New(library.NewLoaderOptions(library.WithFileSystem(testsupport.SchemasFS())))

	for _, name := range []string{"", "../etc/passwd", "a/b", " padded"} {
		if _, err := l.Load(context.Background(), name); !errors.Is(err, library.ErrInvalidName) {
			t.Fatalf("%q: expected ErrInvalidName, got %v", name, err)
		}
	}
}

func TestLoader_Unconfigured(t *testing.T) {
	l := loader.New(library.LoaderOptions{})
	if _, err := l.Load(context.Background(), testsupport.PeopleSchema); err == nil {
		t.Fatalf("expected error for unconfigured loader")
	}
}

func TestFetcherFeedsMerger(t *testing.T) {
	server := testsupport.LibraryServer(t)
	l := loader.New(library.NewLoaderOptions(library.WithBaseURL(server.URL)))

	fetcher := library.NewFetcher(l)
	retrieved, err := fetcher.Fetch(context.Background(), testsupport.TestSchema)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if _, ok := retrieved.Properties["scores"]; !ok {
		t.Fatalf("expected scores property, got %v", retrieved.Properties)
	}

	if _, err := library.NewFetcher(l).Fetch(context.Background(), testsupport.BrokenSchema); err == nil {
		t.Fatalf("expected decode error for broken schema")
	}
}
