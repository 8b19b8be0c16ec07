// Package prompt collects profile form data interactively from a terminal.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/murmurations/go-murmurations/pkg/profile"
	"github.com/murmurations/go-murmurations/pkg/schema"
)

// MaxRepeats caps how many entries one repeated field or group accepts.
const MaxRepeats = 50

const skipOption = "(skip)"

var errRequired = errors.New("a value is required")

// Collector walks planned form fields and asks for each value.
type Collector struct {
	driver Driver
}

// NewCollector returns a Collector using driver, or the survey driver when
// driver is nil.
func NewCollector(driver Driver) *Collector {
	if driver == nil {
		driver = NewSurveyDriver(nil)
	}
	return &Collector{driver: driver}
}

// Collect asks for every field and returns the answers under the same
// names the HTML form would submit.
func (c *Collector) Collect(ctx context.Context, fields []profile.FormField) (profile.FormData, error) {
	data := profile.FormData{}
	if err := c.collect(ctx, fields, identity, data); err != nil {
		return nil, err
	}
	return data, nil
}

func identity(name string) string { return name }

func (c *Collector) collect(ctx context.Context, fields []profile.FormField, rename func(string) string, data profile.FormData) error {
	for i := 0; i < len(fields); i++ {
		field := fields[i]
		name := rename(field.Name)

		if !field.Group {
			if err := c.ask(ctx, field, name, data); err != nil {
				return err
			}
			continue
		}

		heading := field.Label
		if field.Description != "" {
			heading += " - " + field.Description
		}
		if err := c.driver.Info(ctx, heading); err != nil {
			return err
		}
		if !field.Repeated {
			continue
		}

		// Entries of an array of objects are planned once under index 0.
		prefix := field.Name + "[0]."
		end := i + 1
		for end < len(fields) && strings.HasPrefix(fields[end].Name, prefix) {
			end++
		}
		children := fields[i+1 : end]
		i = end - 1

		for n := 0; n < MaxRepeats; n++ {
			more, err := c.driver.Confirm(ctx, ConfirmConfig{
				Message: fmt.Sprintf("Add %s entry #%d?", field.Label, n+1),
				Default: n == 0 && field.Required,
			})
			if err != nil {
				return err
			}
			if !more {
				break
			}
			from := name + "[0]."
			to := fmt.Sprintf("%s[%d].", name, n)
			entryRename := func(s string) string {
				return strings.Replace(rename(s), from, to, 1)
			}
			if err := c.collect(ctx, children, entryRename, data); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Collector) ask(ctx context.Context, field profile.FormField, name string, data profile.FormData) error {
	message := field.Label
	if field.Required {
		message += " *"
	}

	switch {
	case len(field.Enum) > 0:
		return c.askEnum(ctx, field, name, message, data)
	case field.Type == schema.FieldTypeBoolean && !field.Repeated:
		value, err := c.driver.Confirm(ctx, ConfirmConfig{Message: message, Help: field.Description})
		if err != nil {
			return err
		}
		data.Set(name, strconv.FormatBool(value))
		return nil
	case field.Repeated:
		var values []string
		for len(values) < MaxRepeats {
			value, err := c.driver.Input(ctx, InputConfig{
				Message:   fmt.Sprintf("%s #%d (empty to finish)", message, len(values)+1),
				Help:      field.Description,
				Validator: validator(field, len(values) == 0),
			})
			if err != nil {
				return err
			}
			if strings.TrimSpace(value) == "" {
				break
			}
			values = append(values, value)
		}
		if len(values) > 0 {
			data.Set(name, values...)
		}
		return nil
	default:
		value, err := c.driver.Input(ctx, InputConfig{
			Message:   message,
			Help:      field.Description,
			Validator: validator(field, true),
		})
		if err != nil {
			return err
		}
		if strings.TrimSpace(value) != "" {
			data.Set(name, value)
		}
		return nil
	}
}

func (c *Collector) askEnum(ctx context.Context, field profile.FormField, name, message string, data profile.FormData) error {
	labels := make([]string, len(field.Enum))
	for i, value := range field.Enum {
		labels[i] = value
		if i < len(field.EnumNames) && field.EnumNames[i] != "" {
			labels[i] = field.EnumNames[i]
		}
	}

	if field.Repeated {
		picked, err := c.driver.MultiSelect(ctx, SelectConfig{Message: message, Options: labels, Help: field.Description})
		if err != nil {
			return err
		}
		var values []string
		for _, idx := range picked {
			if idx >= 0 && idx < len(field.Enum) {
				values = append(values, field.Enum[idx])
			}
		}
		if len(values) > 0 {
			data.Set(name, values...)
		}
		return nil
	}

	options := labels
	offset := 0
	if !field.Required {
		options = append([]string{skipOption}, labels...)
		offset = 1
	}
	idx, err := c.driver.Select(ctx, SelectConfig{Message: message, Options: options, Help: field.Description})
	if err != nil {
		return err
	}
	idx -= offset
	if idx >= 0 && idx < len(field.Enum) {
		data.Set(name, field.Enum[idx])
	}
	return nil
}

// validator enforces required fields (when enforceRequired) and numeric
// input for number fields.
func validator(field profile.FormField, enforceRequired bool) func(string) error {
	return func(value string) error {
		value = strings.TrimSpace(value)
		if value == "" {
			if field.Required && enforceRequired {
				return errRequired
			}
			return nil
		}
		if field.Type == schema.FieldTypeNumber {
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				return fmt.Errorf("%q is not a number", value)
			}
		}
		return nil
	}
}
