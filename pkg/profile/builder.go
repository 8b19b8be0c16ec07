package profile

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/murmurations/go-murmurations/pkg/schema"
)

const linkedSchemasField = "linked_schemas"

// FieldIssue describes a submitted field the builder could not place. The
// field is left out of the profile; every other field is still built.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (i FieldIssue) Error() string {
	return fmt.Sprintf("profile: field %q: %s", i.Field, i.Message)
}

// Result is the outcome of one Build call.
type Result struct {
	Profile Object       `json:"profile"`
	Issues  []FieldIssue `json:"issues,omitempty"`
}

// BuilderOption customises a Builder.
type BuilderOption func(*Builder)

// WithLogger routes builder warnings to the supplied logger.
func WithLogger(logger *zap.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Builder converts flat form data into nested profiles. A Builder holds no
// per-call state and is safe for concurrent use.
type Builder struct {
	logger *zap.Logger
}

// NewBuilder constructs a Builder.
func NewBuilder(options ...BuilderOption) *Builder {
	b := &Builder{logger: zap.NewNop()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(b)
	}
	return b
}

var defaultBuilder = NewBuilder()

// Build is shorthand for NewBuilder().Build(s, data).
func Build(s *schema.Schema, data FormData) Result {
	return defaultBuilder.Build(s, data)
}

// Build places every submitted field into a fresh profile. A nil schema
// yields an empty profile. Neither s nor data is modified.
func (b *Builder) Build(s *schema.Schema, data FormData) Result {
	result := Result{Profile: Object{}}
	if s == nil {
		return result
	}

	root := s.Root()
	entries := normalize(data)
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		e := entries[name]
		var issue *FieldIssue
		switch {
		case name == linkedSchemasField:
			result.Profile[name] = splitLinkedSchemas(e)
		case isStructured(name):
			issue = b.placePath(result.Profile, root, name, e)
		default:
			field, _ := root.Property(name)
			var value Value
			value, issue = b.convert(name, field, e)
			if issue == nil {
				result.Profile[name] = value
			}
		}
		if issue != nil {
			b.logger.Debug("form field skipped",
				zap.String("field", issue.Field),
				zap.String("reason", issue.Message))
			result.Issues = append(result.Issues, *issue)
		}
	}
	return result
}

func splitLinkedSchemas(e entry) Array {
	out := Array{}
	for _, raw := range e.values {
		for _, part := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, String(trimmed))
			}
		}
	}
	return out
}

// placePath writes a structured field. The path is resolved against the
// existing output and the schema first, so a rejected field leaves no partial
// structure behind.
func (b *Builder) placePath(out Object, root *schema.Field, name string, e entry) *FieldIssue {
	path, err := parsePath(name)
	if err != nil {
		return &FieldIssue{Field: name, Message: err.Error()}
	}

	field := root
	var node Value = out
	last := len(path) - 1
	for i, seg := range path {
		terminal := i == last
		var prop *schema.Field
		if field != nil {
			prop, _ = field.Property(seg.name)
		}
		existing := lookup(node, seg.name)

		if seg.indexed {
			var arr Array
			if existing != nil {
				var ok bool
				if arr, ok = existing.(Array); !ok {
					return conflict(name, seg, existing)
				}
			}
			var elem Value
			if seg.index < len(arr) {
				elem = arr[seg.index]
			}
			if terminal {
				if elem != nil && !isPlaceholder(elem) {
					return conflict(name, seg, elem)
				}
			} else if elem != nil {
				if _, ok := elem.(Object); !ok {
					return conflict(name, seg, elem)
				}
			}
			node = elem
			field = nil
			if prop != nil {
				if prop.IsArray() {
					field = prop.Items
				} else {
					b.logger.Warn("indexed field is not an array in schema, keeping raw value",
						zap.String("field", name),
						zap.String("segment", seg.name),
						zap.String("type", string(prop.Type)))
				}
			}
			continue
		}

		if terminal {
			if prop == nil {
				b.logger.Debug("dropping field unknown to schema", zap.String("field", name))
				materialize(out, path[:last])
				return nil
			}
			if existing != nil {
				return conflict(name, seg, existing)
			}
			field = prop
			continue
		}
		if existing != nil {
			if _, ok := existing.(Object); !ok {
				return conflict(name, seg, existing)
			}
		}
		node = existing
		field = prop
	}

	value, issue := b.convert(name, field, e)
	if issue != nil {
		return issue
	}
	assign(out, path, value)
	return nil
}

// assign materialises the containers along a resolved path and stores value
// at its end.
func assign(out Object, path []segment, value Value) {
	last := len(path) - 1
	container := materialize(out, path[:last])
	seg := path[last]
	if !seg.indexed {
		container[seg.name] = value
		return
	}
	arr := grow(container, seg)
	arr[seg.index] = value
}

// materialize creates the objects and array slots along path and returns the
// object the next segment belongs to.
func materialize(out Object, path []segment) Object {
	container := out
	for _, seg := range path {
		if !seg.indexed {
			next, ok := container[seg.name].(Object)
			if !ok {
				next = Object{}
				container[seg.name] = next
			}
			container = next
			continue
		}
		arr := grow(container, seg)
		container = arr[seg.index].(Object)
	}
	return container
}

// grow extends the array under seg.name with empty objects up to seg.index.
func grow(container Object, seg segment) Array {
	arr, _ := container[seg.name].(Array)
	for len(arr) <= seg.index {
		arr = append(arr, Object{})
	}
	container[seg.name] = arr
	return arr
}

// convert turns a normalized entry into a Value, coercing to numbers where the
// schema declares them. For arrays the item type decides.
func (b *Builder) convert(name string, field *schema.Field, e entry) (Value, *FieldIssue) {
	if !e.array {
		if field != nil && field.Type == schema.FieldTypeNumber {
			n, err := parseNumber(e.scalar())
			if err != nil {
				return nil, &FieldIssue{Field: name, Message: err.Error()}
			}
			return n, nil
		}
		return String(e.scalar()), nil
	}

	numeric := false
	if field != nil {
		switch {
		case field.Type == schema.FieldTypeNumber:
			numeric = true
		case field.IsArray() && field.Items.Type == schema.FieldTypeNumber:
			numeric = true
		}
	}
	out := make(Array, 0, len(e.values))
	for idx, raw := range e.values {
		if !numeric {
			out = append(out, String(raw))
			continue
		}
		n, err := parseNumber(raw)
		if err != nil {
			return nil, &FieldIssue{Field: name, Message: fmt.Sprintf("item %d: %v", idx, err)}
		}
		out = append(out, n)
	}
	return out, nil
}

func parseNumber(raw string) (Number, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a finite number", raw)
	}
	return Number(f), nil
}

func lookup(node Value, key string) Value {
	obj, ok := node.(Object)
	if !ok {
		return nil
	}
	return obj[key]
}

func isPlaceholder(v Value) bool {
	obj, ok := v.(Object)
	return ok && len(obj) == 0
}

func conflict(name string, seg segment, existing Value) *FieldIssue {
	return &FieldIssue{
		Field:   name,
		Message: fmt.Sprintf("%s already holds a %s", seg, existing.Kind()),
	}
}
