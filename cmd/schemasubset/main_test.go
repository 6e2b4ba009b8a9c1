package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/schemasubset/internal/usage"
)

const testSchema = `
type User {
  id: ID
  email: String
  firstName: String
}

type Droid { type: String }

union Character = Droid

type Query {
  me: User
  characters: [Character]
}
`

func writeProject(t *testing.T, docs map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema.graphql"), []byte(testSchema), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "queries"), 0o755))
	for name, content := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "queries", name), []byte(content), 0o644))
	}
	return dir
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestSubsetCommand(t *testing.T) {
	dir := writeProject(t, map[string]string{"me.graphql": `query { me { id email } }`})

	out, _, err := runCLI(t, "subset",
		"-s", filepath.Join(dir, "schema.graphql"),
		filepath.Join(dir, "queries"),
	)
	require.NoError(t, err)
	require.Equal(t, "type User {\n  id: ID\n  email: String\n}\n\ntype Query {\n  me: User\n}\n", out)
}

func TestSubsetCommandFromConfig(t *testing.T) {
	dir := writeProject(t, map[string]string{"me.graphql": `query { me { id } }`})
	output := filepath.Join(dir, "out", "subset.graphql")
	require.NoError(t, os.MkdirAll(filepath.Dir(output), 0o755))

	cfg := "schema: [" + filepath.Join(dir, "*.graphql") + "]\n" +
		"documents: [" + filepath.Join(dir, "queries", "*.graphql") + "]\n" +
		"output: " + output + "\n" +
		"log: {level: debug, json: true}\n"
	cfgPath := filepath.Join(dir, "subset.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	stdout, stderr, err := runCLI(t, "--config", cfgPath, "subset")
	require.NoError(t, err)
	require.Empty(t, stdout)
	require.Contains(t, stderr, `"msg":"subset written"`)

	b, err := os.ReadFile(output)
	require.NoError(t, err)
	require.Contains(t, string(b), "me: User")
	require.NotContains(t, string(b), "characters")
}

func TestSubsetCommandUnionError(t *testing.T) {
	dir := writeProject(t, map[string]string{"chars.graphql": `query { characters { __typename } }`})

	_, _, err := runCLI(t, "subset", "-s", filepath.Join(dir, "schema.graphql"), filepath.Join(dir, "queries"))
	require.ErrorContains(t, err, `union "Character"`)
}

func TestSubsetCommandWithoutDocuments(t *testing.T) {
	dir := writeProject(t, nil)

	_, _, err := runCLI(t, "subset", "-s", filepath.Join(dir, "schema.graphql"))
	require.ErrorContains(t, err, "at least one operation document")
}

func TestSubsetCommandWithoutSchema(t *testing.T) {
	_, _, err := runCLI(t, "subset")
	require.ErrorContains(t, err, "schema pattern")
}

func TestUsageCommand(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"a.graphql": `query { me { id } }`,
		"b.graphql": `query { characters { ... on Droid { type } } }`,
	})

	out, _, err := runCLI(t, "usage", "-s", filepath.Join(dir, "schema.graphql"), filepath.Join(dir, "queries"))
	require.NoError(t, err)

	var report usage.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Equal(t, []usage.TypeUsage{
		{Name: "Droid", Fields: []string{"type"}},
		{Name: "Query", Fields: []string{"characters", "me"}},
		{Name: "User", Fields: []string{"id"}},
	}, report.Types)
	require.Equal(t, []string{"Character", "ID", "String"}, report.Other)
}

func TestServeStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var stdout, stderr bytes.Buffer
	err := run(ctx, []string{"serve", "--addr", "127.0.0.1:0"}, &stdout, &stderr)
	require.NoError(t, err)
}

func TestUnknownCommand(t *testing.T) {
	_, _, err := runCLI(t, "compile")
	require.Error(t, err)
}
