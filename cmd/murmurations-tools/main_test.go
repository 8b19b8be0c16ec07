package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murmurations/go-murmurations/internal/prompt"
)

var schemasDir = filepath.Join("..", "..", "pkg", "testsupport", "testdata", "schemas")

type result struct {
	stdout string
	stderr string
	err    error
}

func run(t *testing.T, stdin string, driver prompt.Driver, args ...string) result {
	t.Helper()
	t.Setenv("MURMURATIONS_CONFIG", "")
	t.Setenv("MURMURATIONS_LIBRARY_URL", "http://127.0.0.1:1")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &stdout, &stderr, func(c *cli) {
		if driver != nil {
			c.newDriver = func(io.Writer) prompt.Driver { return driver }
		}
	})
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func TestBuildFromURLEncodedStdin(t *testing.T) {
	form := strings.Join([]string{
		"name=Open+Co&primary_url=https%3A%2F%2Fopen.example",
		"# coordinates",
		"geolocation.lat=51.5&geolocation.lon=0.12",
		"tags[]=a&tags[]=b",
	}, "\n")
	res := run(t, form, nil, "build", "--schemas", "organizations_schema-v1.0.0", "--schemas-dir", schemasDir, "--check")
	require.NoError(t, res.err, res.stderr)
	assert.JSONEq(t, `{
		"linked_schemas": ["organizations_schema-v1.0.0"],
		"name": "Open Co",
		"primary_url": "https://open.example",
		"geolocation": {"lat": 51.5, "lon": 0.12},
		"tags": ["a", "b"]
	}`, res.stdout)
}

func TestBuildFromJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "form.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"Open Co","founded":2011,"tags[]":["x"]}`), 0o600))

	res := run(t, "", nil, "build", "-s", "organizations_schema-v1.0.0", "--schemas-dir", schemasDir, "--data", path)
	require.NoError(t, res.err)
	assert.JSONEq(t, `{
		"linked_schemas": ["organizations_schema-v1.0.0"],
		"name": "Open Co",
		"founded": 2011,
		"tags": ["x"]
	}`, res.stdout)
}

func TestBuildCheckReportsIssues(t *testing.T) {
	res := run(t, "name=Open+Co", nil, "build", "--schemas", "organizations_schema-v1.0.0", "--schemas-dir", schemasDir, "--check")
	require.ErrorIs(t, res.err, errInvalidProfile)
	assert.Contains(t, res.stderr, "primary_url")
	assert.Contains(t, res.stdout, `"name": "Open Co"`)
}

func TestBuildErrors(t *testing.T) {
	res := run(t, "", nil, "build", "--schemas", " , ", "--schemas-dir", schemasDir)
	assert.ErrorContains(t, res.err, "no schema names")

	res = run(t, "", nil, "build", "--schemas", "missing_schema-v1.0.0", "--schemas-dir", schemasDir)
	assert.ErrorContains(t, res.err, "could be loaded")

	res = run(t, `{"name":{"nested":true}}`, nil, "build", "--schemas", "organizations_schema-v1.0.0", "--schemas-dir", schemasDir)
	assert.ErrorContains(t, res.err, "form field name")

	res = run(t, "", nil, "build")
	assert.ErrorContains(t, res.err, `"schemas" not set`)
}

// labelDriver answers prompts by label and declines every optional group.
type labelDriver struct {
	answers map[string]string
}

func (d labelDriver) Input(_ context.Context, cfg prompt.InputConfig) (string, error) {
	return d.answers[cfg.Message], nil
}

func (d labelDriver) Confirm(context.Context, prompt.ConfirmConfig) (bool, error) {
	return false, nil
}

func (d labelDriver) Select(_ context.Context, cfg prompt.SelectConfig) (int, error) {
	want := d.answers[cfg.Message]
	for i, option := range cfg.Options {
		if option == want {
			return i, nil
		}
	}
	return 0, nil
}

func (d labelDriver) MultiSelect(context.Context, prompt.SelectConfig) ([]int, error) {
	return nil, nil
}

func (d labelDriver) Info(context.Context, string) error {
	return nil
}

func TestPrompt(t *testing.T) {
	driver := labelDriver{answers: map[string]string{
		"Name *":        "Open Co",
		"Primary URL *": "https://open.example",
		"Status":        "On Hold",
	}}
	res := run(t, "", driver, "prompt", "--schemas", "organizations_schema-v1.0.0", "--schemas-dir", schemasDir)
	require.NoError(t, res.err, res.stderr)
	assert.JSONEq(t, `{
		"linked_schemas": ["organizations_schema-v1.0.0"],
		"name": "Open Co",
		"primary_url": "https://open.example",
		"status": "on_hold"
	}`, res.stdout)
}

func TestMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.db")
	res := run(t, "", nil, "migrate", "--path", path)
	require.NoError(t, res.err)
	assert.Equal(t, "migrations applied to "+path+"\n", res.stdout)
	_, err := os.Stat(path)
	require.NoError(t, err)

	res = run(t, "", nil, "migrate")
	assert.ErrorContains(t, res.err, "not sqlite")
}
