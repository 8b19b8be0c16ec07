package prompt

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/murmurations/go-murmurations/pkg/profile"
	"github.com/murmurations/go-murmurations/pkg/testsupport"
)

// scriptedDriver answers prompts from a queue and records the messages it was
// asked.
type scriptedDriver struct {
	answers []any
	asked   []string
	infos   []string
}

func (d *scriptedDriver) next(message string) (any, error) {
	d.asked = append(d.asked, message)
	if len(d.answers) == 0 {
		return nil, fmt.Errorf("unexpected prompt %q", message)
	}
	answer := d.answers[0]
	d.answers = d.answers[1:]
	if err, ok := answer.(error); ok {
		return nil, err
	}
	return answer, nil
}

func (d *scriptedDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	answer, err := d.next(cfg.Message)
	if err != nil {
		return "", err
	}
	value := answer.(string)
	if cfg.Validator != nil {
		if err := cfg.Validator(value); err != nil {
			return "", err
		}
	}
	return value, nil
}

func (d *scriptedDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	answer, err := d.next(cfg.Message)
	if err != nil {
		return false, err
	}
	return answer.(bool), nil
}

func (d *scriptedDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	answer, err := d.next(cfg.Message)
	if err != nil {
		return 0, err
	}
	return answer.(int), nil
}

func (d *scriptedDriver) MultiSelect(_ context.Context, cfg SelectConfig) ([]int, error) {
	answer, err := d.next(cfg.Message)
	if err != nil {
		return nil, err
	}
	return answer.([]int), nil
}

func (d *scriptedDriver) Info(_ context.Context, msg string) error {
	d.infos = append(d.infos, msg)
	return nil
}

func TestCollectOrganizations(t *testing.T) {
	fields := profile.FormFields(testsupport.MergedSchema(t, testsupport.OrganizationsSchema))
	driver := &scriptedDriver{answers: []any{
		"1999",         // founded
		"51.5",         // geolocation.lat
		"0.12",         // geolocation.lon
		"",             // mission
		"Open Co",      // name
		"https://o.co", // primary_url
		4,              // status: skip + 3 -> on_hold
		"coop",         // tags #1
		"open",         // tags #2
		"",             // tags done
		true,           // urls entry 1
		"Home",         // urls[0].name
		"https://o.co", // urls[0].url
		true,           // urls entry 2
		"",             // urls[1].name
		"https://b.co", // urls[1].url
		false,          // no more urls
	}}

	data, err := NewCollector(driver).Collect(context.Background(), fields)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}

	want := profile.FormData{
		"founded":         {"1999"},
		"geolocation.lat": {"51.5"},
		"geolocation.lon": {"0.12"},
		"name":            {"Open Co"},
		"primary_url":     {"https://o.co"},
		"status":          {"on_hold"},
		"tags[]":          {"coop", "open"},
		"urls[0].name":    {"Home"},
		"urls[0].url":     {"https://o.co"},
		"urls[1].url":     {"https://b.co"},
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("form data mismatch (-want +got):\n%s", diff)
	}
	if len(driver.answers) != 0 {
		t.Fatalf("unused answers: %v", driver.answers)
	}
	if diff := cmp.Diff([]string{"Geolocation Coordinates", "Website Addresses/URLs"}, driver.infos); diff != "" {
		t.Fatalf("headings mismatch (-want +got):\n%s", diff)
	}

	result := profile.Build(testsupport.MergedSchema(t, testsupport.OrganizationsSchema), data)
	if len(result.Issues) != 0 {
		t.Fatalf("unexpected issues: %v", result.Issues)
	}
}

func TestCollectValidatesInput(t *testing.T) {
	fields := []profile.FormField{
		{Name: "age", Label: "Age", Type: "number"},
		{Name: "name", Label: "Name", Type: "string", Required: true},
	}

	_, err := NewCollector(&scriptedDriver{answers: []any{"old"}}).Collect(context.Background(), fields)
	if err == nil || !strings.Contains(err.Error(), "not a number") {
		t.Fatalf("expected number validation error, got %v", err)
	}

	_, err = NewCollector(&scriptedDriver{answers: []any{"", " "}}).Collect(context.Background(), fields)
	if err != errRequired {
		t.Fatalf("expected required error, got %v", err)
	}
}

func TestCollectEnumsAndBooleans(t *testing.T) {
	fields := []profile.FormField{
		{Name: "kind", Label: "Kind", Type: "string", Required: true, Enum: []string{"a", "b"}},
		{Name: "langs[]", Label: "Languages", Type: "string", Repeated: true, Enum: []string{"en", "fr", "de"}},
		{Name: "active", Label: "Active", Type: "boolean"},
	}
	driver := &scriptedDriver{answers: []any{1, []int{0, 2}, true}}

	data, err := NewCollector(driver).Collect(context.Background(), fields)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	want := profile.FormData{"kind": {"b"}, "langs[]": {"en", "de"}, "active": {"true"}}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("form data mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectAborts(t *testing.T) {
	fields := []profile.FormField{{Name: "name", Label: "Name", Type: "string"}}
	_, err := NewCollector(&scriptedDriver{answers: []any{ErrAborted}}).Collect(context.Background(), fields)
	if err != ErrAborted {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}
