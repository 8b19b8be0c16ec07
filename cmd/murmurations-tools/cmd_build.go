package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/murmurations/go-murmurations/internal/app"
	"github.com/murmurations/go-murmurations/pkg/profile"
	"github.com/murmurations/go-murmurations/pkg/schema"
	"github.com/murmurations/go-murmurations/pkg/validation"
)

var errInvalidProfile = errors.New("profile does not satisfy its schemas")

// schemaFlags are shared by build and prompt.
type schemaFlags struct {
	names string
	dir   string
}

func (f *schemaFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.names, "schemas", "s", "", "comma separated schema names")
	cmd.Flags().StringVar(&f.dir, "schemas-dir", "", "directory of {name}.json schemas consulted before the Library")
	_ = cmd.MarkFlagRequired("schemas")
}

func (c *cli) merge(ctx context.Context, flags schemaFlags) (*schema.Schema, []string, error) {
	names := schema.ParseNames(flags.names)
	if len(names) == 0 {
		return nil, nil, errors.New("no schema names given")
	}
	var merger *schema.Merger
	if flags.dir != "" {
		merger = app.NewMerger(c.cfg, os.DirFS(flags.dir), c.logger)
	} else {
		merger = app.NewMerger(c.cfg, nil, c.logger)
	}
	merged := merger.Merge(ctx, names)
	if merged == nil {
		return nil, nil, fmt.Errorf("none of %s could be loaded", strings.Join(names, ", "))
	}
	return merged, names, nil
}

func (c *cli) buildCmd() *cobra.Command {
	var (
		flags schemaFlags
		data  string
		check bool
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a profile from form data",
		Long: `Build merges the named schemas and places the submitted form fields into a
profile. --data reads a file ("-" for stdin) holding either a JSON object of
field names to values or URL-encoded fields, one or more per line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := c.readData(data)
			if err != nil {
				return err
			}
			form, err := parseFormData(raw)
			if err != nil {
				return err
			}
			merged, names, err := c.merge(cmd.Context(), flags)
			if err != nil {
				return err
			}
			if _, ok := form["linked_schemas"]; !ok {
				form.Set("linked_schemas", strings.Join(names, ","))
			}

			result := profile.NewBuilder(profile.WithLogger(c.logger)).Build(merged, form)
			for _, issue := range result.Issues {
				c.logger.Warn("field skipped", zap.String("field", issue.Field), zap.String("reason", issue.Message))
			}
			if err := c.printJSON(result.Profile); err != nil {
				return err
			}
			if !check {
				return nil
			}
			return c.check(merged, result.Profile)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&data, "data", "d", "-", `form data file, "-" for stdin`)
	cmd.Flags().BoolVar(&check, "check", false, "validate the built profile against the merged schema")
	return cmd
}

func (c *cli) check(merged *schema.Schema, doc profile.Object) error {
	issues, err := validation.Local(merged, doc)
	if err != nil {
		return err
	}
	for _, issue := range issues {
		field := issue.Field
		if field == "" {
			field = "(profile)"
		}
		fmt.Fprintf(c.stderr, "%s: %s\n", field, issue.Message())
	}
	if len(issues) > 0 {
		return errInvalidProfile
	}
	return nil
}

func (c *cli) readData(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(c.stdin)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form data: %w", err)
	}
	return raw, nil
}

func (c *cli) printJSON(value any) error {
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

// parseFormData accepts a JSON object whose values are strings, numbers,
// booleans or arrays of those, or URL-encoded lines.
func parseFormData(raw []byte) (profile.FormData, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return profile.FormData{}, nil
	}
	if strings.HasPrefix(text, "{") {
		var fields map[string]any
		if err := json.Unmarshal([]byte(text), &fields); err != nil {
			return nil, fmt.Errorf("parse form data: %w", err)
		}
		out := make(profile.FormData, len(fields))
		for name, value := range fields {
			values, err := formValues(value)
			if err != nil {
				return nil, fmt.Errorf("form field %s: %w", name, err)
			}
			out[name] = values
		}
		return out, nil
	}

	values := url.Values{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parsed, err := url.ParseQuery(line)
		if err != nil {
			return nil, fmt.Errorf("parse form data: %w", err)
		}
		for name, items := range parsed {
			values[name] = append(values[name], items...)
		}
	}
	return profile.FromValues(values), nil
}

func formValues(value any) ([]string, error) {
	switch v := value.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			scalar, err := formScalar(item)
			if err != nil {
				return nil, err
			}
			out = append(out, scalar)
		}
		return out, nil
	default:
		scalar, err := formScalar(v)
		if err != nil {
			return nil, err
		}
		return []string{scalar}, nil
	}
}

func formScalar(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		if v {
			return "true", nil
		}
		return "false", nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported value %T", value)
	}
}
