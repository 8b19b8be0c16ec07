// Package profile turns flat form submissions into nested profile documents
// shaped by a merged schema, and plans the form fields a schema implies.
package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindString Kind = iota + 1
	KindNumber
	KindBool
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is one node of a profile document. The set of implementations is
// closed: String, Number, Bool, Array and Object.
type Value interface {
	Kind() Kind
	isValue()
}

type (
	// String is a JSON string.
	String string
	// Number is a JSON number.
	Number float64
	// Bool is a JSON boolean.
	Bool bool
	// Array is an ordered list of values.
	Array []Value
	// Object maps keys to values.
	Object map[string]Value
)

func (String) Kind() Kind { return KindString }
func (Number) Kind() Kind { return KindNumber }
func (Bool) Kind() Kind   { return KindBool }
func (Array) Kind() Kind  { return KindArray }
func (Object) Kind() Kind { return KindObject }

func (String) isValue() {}
func (Number) isValue() {}
func (Bool) isValue()   {}
func (Array) isValue()  {}
func (Object) isValue() {}

// MarshalJSON writes an empty array instead of null for nil arrays.
func (a Array) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Value(a))
}

// MarshalJSON writes an empty object instead of null for nil objects.
func (o Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]Value(o))
}

// UnmarshalJSON decodes a JSON object into typed values. null members are
// rejected since profiles never carry them.
func (o *Object) UnmarshalJSON(data []byte) error {
	decoded, err := decodeValue(data)
	if err != nil {
		return err
	}
	obj, ok := decoded.(Object)
	if !ok {
		return fmt.Errorf("profile: expected object, got %s", decoded.Kind())
	}
	*o = obj
	return nil
}

// UnmarshalJSON decodes a JSON array into typed values.
func (a *Array) UnmarshalJSON(data []byte) error {
	decoded, err := decodeValue(data)
	if err != nil {
		return err
	}
	arr, ok := decoded.(Array)
	if !ok {
		return fmt.Errorf("profile: expected array, got %s", decoded.Kind())
	}
	*a = arr
	return nil
}

// Decode parses a profile document.
func Decode(raw []byte) (Object, error) {
	var out Object
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return FromAny(raw)
}

// FromAny converts the output of encoding/json (map[string]any, []any,
// string, float64, json.Number, bool) into a Value.
func FromAny(raw any) (Value, error) {
	switch typed := raw.(type) {
	case nil:
		return nil, errors.New("profile: null values are not supported")
	case string:
		return String(typed), nil
	case bool:
		return Bool(typed), nil
	case float64:
		return Number(typed), nil
	case json.Number:
		f, err := typed.Float64()
		if err != nil {
			return nil, fmt.Errorf("profile: number %q: %w", typed, err)
		}
		return Number(f), nil
	case []any:
		arr := make(Array, 0, len(typed))
		for idx, item := range typed {
			value, err := FromAny(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", idx, err)
			}
			arr = append(arr, value)
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(typed))
		for key, item := range typed {
			value, err := FromAny(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			obj[key] = value
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("profile: unsupported value %T", raw)
	}
}

// ToAny converts a Value back to plain Go values (map[string]any, []any,
// string, float64, bool).
func ToAny(value Value) any {
	switch typed := value.(type) {
	case String:
		return string(typed)
	case Number:
		return float64(typed)
	case Bool:
		return bool(typed)
	case Array:
		out := make([]any, len(typed))
		for idx, item := range typed {
			out[idx] = ToAny(item)
		}
		return out
	case Object:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = ToAny(item)
		}
		return out
	default:
		return nil
	}
}

// Keys returns the object's keys in sorted order.
func (o Object) Keys() []string {
	keys := make([]string, 0, len(o))
	for key := range o {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Title returns the profile's top-level "name" or "title" string, used as the
// display title of saved profiles.
func (o Object) Title() string {
	for _, key := range []string{"name", "title"} {
		if value, ok := o[key].(String); ok && value != "" {
			return string(value)
		}
	}
	return ""
}

// LinkedSchemas returns the string members of linked_schemas.
func (o Object) LinkedSchemas() []string {
	arr, _ := o[linkedSchemasField].(Array)
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if name, ok := item.(String); ok && name != "" {
			out = append(out, string(name))
		}
	}
	return out
}
