package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/murmurations/go-murmurations/pkg/profile"
	"github.com/murmurations/go-murmurations/pkg/schema"
)

const localResource = "urn:murmurations:merged-schema.json"

var printer = message.NewPrinter(language.English)

// ErrNoSchema is returned when Local is asked to validate without a schema.
var ErrNoSchema = errors.New("validation: schema is required")

// Local validates p against the merged schema s. It returns the failures in
// pointer order; an error means the schema itself could not be compiled.
func Local(s *schema.Schema, p profile.Object) ([]Issue, error) {
	if s == nil {
		return nil, ErrNoSchema
	}

	compiled, err := compile(s)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("validation: encode profile: %w", err)
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("validation: decode profile: %w", err)
	}

	err = compiled.Validate(instance)
	if err == nil {
		return nil, nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return nil, fmt.Errorf("validation: %w", err)
	}

	issues := collect(verr, nil)
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Pointer < issues[j].Pointer
	})
	return issues, nil
}

// compile builds the merged schema under the draft it declares, falling back
// to draft-07, the draft the Library publishes.
func compile(s *schema.Schema) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("validation: encode schema: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("validation: decode schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft7)
	if err := compiler.AddResource(localResource, doc); err != nil {
		return nil, fmt.Errorf("validation: add schema: %w", err)
	}
	compiled, err := compiler.Compile(localResource)
	if err != nil {
		return nil, fmt.Errorf("validation: compile schema: %w", err)
	}
	return compiled, nil
}

func collect(verr *jsonschema.ValidationError, out []Issue) []Issue {
	if len(verr.Causes) > 0 {
		for _, cause := range verr.Causes {
			out = collect(cause, out)
		}
		return out
	}

	base := pointerFrom(verr.InstanceLocation)
	if required, ok := verr.ErrorKind.(*kind.Required); ok {
		for _, name := range required.Missing {
			pointer := base + "/" + escape(name)
			out = append(out, NewIssue(http.StatusBadRequest, pointer, "Missing Required Property",
				fmt.Sprintf("The required property %q is missing.", name)))
		}
		return out
	}
	return append(out, NewIssue(http.StatusBadRequest, base, titleFor(verr.ErrorKind),
		verr.ErrorKind.LocalizedString(printer)))
}

func pointerFrom(location []string) string {
	if len(location) == 0 {
		return ""
	}
	escaped := make([]string, len(location))
	for idx, segment := range location {
		escaped[idx] = escape(segment)
	}
	return "/" + strings.Join(escaped, "/")
}

func titleFor(errKind jsonschema.ErrorKind) string {
	path := errKind.KeywordPath()
	keyword := ""
	if len(path) > 0 {
		keyword = path[len(path)-1]
	}
	switch keyword {
	case "type":
		return "Invalid Type"
	case "enum", "const":
		return "Invalid Value"
	case "pattern", "format":
		return "Pattern Mismatch"
	case "minimum", "maximum", "exclusiveMinimum", "exclusiveMaximum":
		return "Out of Range"
	case "minLength", "maxLength", "minItems", "maxItems":
		return "Invalid Length"
	case "uniqueItems":
		return "Duplicate Items"
	default:
		return "Schema Validation Error"
	}
}
