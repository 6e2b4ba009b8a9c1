package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	language "github.com/hanpama/schemasubset/internal/language"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFileSystemDiscovery(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "schema", "b.graphql"), "type Query { b: Int }")
	writeFile(t, filepath.Join(dir, "schema", "a.graphql"), "extend type Query { a: Int }")
	writeFile(t, filepath.Join(dir, "schema", "notes.txt"), "ignored")
	writeFile(t, filepath.Join(dir, "ops", "me.gql"), "query { b }")

	d, err := NewFileSystemDiscovery(
		filepath.Join(dir, "schema"),
		filepath.Join(dir, "schema", "*.graphql"),
	)
	require.NoError(t, err)

	names, err := d.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "schema", "a.graphql"),
		filepath.Join(dir, "schema", "b.graphql"),
	}, names)

	_, err = d.Read(context.Background(), filepath.Join(dir, "schema", "notes.txt"))
	require.Error(t, err)
}

func TestFileSystemDiscoveryNoMatch(t *testing.T) {
	_, err := NewFileSystemDiscovery(filepath.Join(t.TempDir(), "*.graphql"))
	require.ErrorContains(t, err, "matched no files")
}

func TestLoadSchemaMergesSources(t *testing.T) {
	d := NewInMemoryDiscovery(
		Source{Name: "base.graphql", Content: "type Query { a: Int }"},
		Source{Name: "ext.graphql", Content: "extend type Query { b: String }"},
	)
	s, err := LoadSchema(context.Background(), d)
	require.NoError(t, err)
	require.NotNil(t, s.GetQueryType().Field("a"))
	require.NotNil(t, s.GetQueryType().Field("b"))
}

func TestLoadDocumentsKeepsOrder(t *testing.T) {
	var sources []Source
	for _, name := range []string{"c", "a", "b", "e", "d", "f", "h", "g", "i", "j"} {
		sources = append(sources, Source{Name: name, Content: "query " + name + " { x }"})
	}
	docs, err := LoadDocuments(context.Background(), NewInMemoryDiscovery(sources...))
	require.NoError(t, err)
	require.Len(t, docs, len(sources))
	for i, doc := range docs {
		require.Equal(t, sources[i].Name, doc.Operations[0].Name)
	}
}

func TestParseDocumentsReportsEverySource(t *testing.T) {
	_, err := ParseDocuments([]Source{
		{Name: "one.graphql", Content: "query {"},
		{Name: "two.graphql", Content: "query { ok }"},
		{Name: "three.graphql", Content: "{ a("},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "one.graphql")
	require.Contains(t, err.Error(), "three.graphql")

	var gqlErr *language.Error
	require.ErrorAs(t, err, &gqlErr)
}

func TestReadAllMissingSource(t *testing.T) {
	d := &brokenDiscovery{InMemoryDiscovery: NewInMemoryDiscovery(Source{Name: "a", Content: "x"})}
	_, err := ReadAll(context.Background(), d)
	require.ErrorContains(t, err, `source "ghost" not found`)
}

type brokenDiscovery struct {
	*InMemoryDiscovery
}

func (d *brokenDiscovery) List(ctx context.Context) ([]string, error) {
	return []string{"a", "ghost"}, nil
}

func TestFileSystemDiscoveryDoubleStar(t *testing.T) {
	dir := t.TempDir()
	queries := filepath.Join(dir, "queries")
	writeFile(t, filepath.Join(queries, "top.graphql"), "query top { a }")
	writeFile(t, filepath.Join(queries, "a", "one.graphql"), "query one { a }")
	writeFile(t, filepath.Join(queries, "a", "b", "deep.graphql"), "query deep { a }")
	writeFile(t, filepath.Join(queries, "a", "skip.txt"), "not graphql")

	d, err := NewFileSystemDiscovery(filepath.Join(queries, "**", "*.graphql"))
	require.NoError(t, err)

	names, err := d.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(queries, "a", "b", "deep.graphql"),
		filepath.Join(queries, "a", "one.graphql"),
		filepath.Join(queries, "top.graphql"),
	}, names)

	docs, err := LoadDocuments(context.Background(), d)
	require.NoError(t, err)
	require.Len(t, docs, 3)
}
