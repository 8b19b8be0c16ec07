package schema

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Fetcher resolves one schema name into its Library document.
type Fetcher interface {
	Fetch(ctx context.Context, name string) (Retrieved, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, name string) (Retrieved, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, name string) (Retrieved, error) {
	return f(ctx, name)
}

// MergerOption customises a Merger.
type MergerOption func(*Merger)

// WithLogger routes fetch failures to the supplied logger.
func WithLogger(logger *zap.Logger) MergerOption {
	return func(m *Merger) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Merger fetches schemas concurrently and composes them into one Schema.
type Merger struct {
	fetcher Fetcher
	logger  *zap.Logger
}

// NewMerger constructs a Merger around the given fetcher.
func NewMerger(fetcher Fetcher, options ...MergerOption) *Merger {
	m := &Merger{
		fetcher: fetcher,
		logger:  zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(m)
	}
	return m
}

// MergeSchemas is shorthand for NewMerger(fetcher).Merge(ctx, names).
func MergeSchemas(ctx context.Context, fetcher Fetcher, names []string, options ...MergerOption) *Schema {
	return NewMerger(fetcher, options...).Merge(ctx, names)
}

// Merge fetches every name in parallel and merges the successful results in
// input order. Individual failures are logged and skipped. It returns nil when
// names is empty or nothing resolved; it never returns an error.
func (m *Merger) Merge(ctx context.Context, names []string) *Schema {
	if m == nil || m.fetcher == nil || len(names) == 0 {
		return nil
	}

	results := make([]*Retrieved, len(names))
	var group errgroup.Group
	for idx, name := range names {
		group.Go(func() error {
			retrieved, err := m.fetcher.Fetch(ctx, name)
			if err != nil {
				m.logger.Warn("schema fetch failed",
					zap.String("schema", name),
					zap.Error(err))
				return nil
			}
			results[idx] = &retrieved
			return nil
		})
	}
	_ = group.Wait()

	resolved := make([]*Retrieved, 0, len(results))
	for _, result := range results {
		if result != nil {
			resolved = append(resolved, result)
		}
	}
	if len(resolved) == 0 {
		m.logger.Warn("no schemas resolved", zap.Strings("schemas", names))
		return nil
	}

	return merge(resolved)
}

func merge(resolved []*Retrieved) *Schema {
	merged := &Schema{
		Schema:     resolved[0].Schema,
		Type:       string(FieldTypeObject),
		Properties: make(map[string]*Field),
		Required:   []string{},
		Metadata:   Metadata{SchemaNames: make([]string, 0, len(resolved))},
	}

	seen := make(map[string]struct{})
	for _, retrieved := range resolved {
		for name, field := range retrieved.Properties {
			merged.Properties[name] = field
		}
		for _, name := range retrieved.Required {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			merged.Required = append(merged.Required, name)
		}
		merged.Metadata.SchemaNames = append(merged.Metadata.SchemaNames, retrieved.Name())
	}
	return merged
}

// ParseNames splits a comma separated schema list, trimming blanks.
func ParseNames(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
