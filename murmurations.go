// Package murmurations turns Murmurations Library schemas into profile
// documents: it merges several schemas into one and builds a profile from a
// flat form submission against the merged schema.
//
// The packages under pkg/ hold the pieces; this package wires the common path
// so callers only need a schema source and form data.
package murmurations

import (
	"context"
	"io/fs"

	"github.com/murmurations/go-murmurations/internal/library/loader"
	"github.com/murmurations/go-murmurations/internal/render"
	"github.com/murmurations/go-murmurations/pkg/library"
	"github.com/murmurations/go-murmurations/pkg/profile"
	"github.com/murmurations/go-murmurations/pkg/schema"
)

// FormData aliases profile.FormData for callers of the root package.
type FormData = profile.FormData

// Result aliases profile.Result.
type Result = profile.Result

// NewLoader constructs a schema loader using the internal implementation
// while keeping the concrete type hidden from consumers.
func NewLoader(options ...library.LoaderOption) library.Loader {
	return loader.New(library.NewLoaderOptions(options...))
}

// NewMerger builds a schema merger over a loader.
func NewMerger(l library.Loader, options ...schema.MergerOption) *schema.Merger {
	return schema.NewMerger(library.NewFetcher(l), options...)
}

// MergeSchemas loads and merges the named schemas. It returns nil when no
// schema could be loaded.
func MergeSchemas(ctx context.Context, l library.Loader, names []string) *schema.Schema {
	return NewMerger(l).Merge(ctx, names)
}

// BuildProfile places form data into a profile shaped by s.
func BuildProfile(s *schema.Schema, data FormData) Result {
	return profile.Build(s, data)
}

// GenerateProfile merges the named schemas and builds a profile from data.
// linked_schemas is filled from names when data does not carry it. A nil
// schema (nothing loaded) yields an empty profile, as BuildProfile does.
func GenerateProfile(ctx context.Context, l library.Loader, names []string, data FormData) Result {
	merged := MergeSchemas(ctx, l, names)
	if merged != nil {
		if _, ok := data["linked_schemas"]; !ok {
			withLinks := make(FormData, len(data)+1)
			for key, values := range data {
				withLinks[key] = values
			}
			withLinks.Set("linked_schemas", names...)
			data = withLinks
		}
	}
	return BuildProfile(merged, data)
}

// PageTemplates exposes the built-in pongo2 page templates so callers can
// reuse or extend them.
func PageTemplates() fs.FS {
	return render.TemplatesFS()
}
