package schema

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	language "github.com/hanpama/schemasubset/internal/language"
)

const sampleSDL = `
"""A user"""
type User implements Node {
  id: ID!
  name(format: String = "short"): String @deprecated(reason: "use displayName")
}

interface Node {
  id: ID!
}

type Query {
  me: User
  node(id: ID!): Node
}

extend type Query {
  users(first: Int = 10): [User!]!
}

enum Role {
  ADMIN
  VIEWER
}

input Filter @oneOf {
  role: Role
  q: String
}

union Result = User

scalar Date @specifiedBy(url: "https://example.com")

directive @cached(ttl: Int) on FIELD
`

func typeNames(s *Schema) []string {
	var names []string
	for _, t := range s.Types() {
		names = append(names, t.Name)
	}
	return names
}

func fieldNames(t *Type) []string {
	var names []string
	for _, f := range t.Fields {
		names = append(names, f.Name)
	}
	return names
}

func TestBuildKeepsDeclarationOrder(t *testing.T) {
	s, err := BuildFromSDL("sample.graphql", sampleSDL)
	require.NoError(t, err)

	want := []string{"String", "Int", "Float", "Boolean", "ID", "User", "Node", "Query", "Role", "Filter", "Result", "Date"}
	if diff := cmp.Diff(want, typeNames(s)); diff != "" {
		t.Errorf("type order mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, []string{"me", "node", "users"}, fieldNames(s.Lookup("Query")))
	require.Equal(t, "Query", s.QueryType)
	require.Empty(t, s.MutationType)
}

func TestBuildPopulatesDefinitions(t *testing.T) {
	s, err := BuildFromSDL("sample.graphql", sampleSDL)
	require.NoError(t, err)

	user := s.Lookup("User")
	require.NotNil(t, user)
	require.Equal(t, TypeKindObject, user.Kind)
	require.Equal(t, "A user", user.Description)
	require.Equal(t, []string{"Node"}, user.Interfaces)

	name := user.Field("name")
	require.NotNil(t, name)
	require.True(t, name.IsDeprecated)
	require.Equal(t, "use displayName", name.DeprecationReason)
	require.Equal(t, `"short"`, name.Argument("format").DefaultValue)

	users := s.Lookup("Query").Field("users")
	require.Equal(t, "[User!]!", users.Type.String())
	require.Equal(t, "User", users.Type.GetNamedType())

	require.True(t, s.Lookup("Filter").OneOf)
	require.Equal(t, []string{"User"}, s.Lookup("Result").PossibleTypes)
	require.Equal(t, "https://example.com", *s.Lookup("Date").SpecifiedByURL)
	require.NotNil(t, s.Directive("cached"))
	require.True(t, s.Directive("include").BuiltIn)

	require.Equal(t, []*Type{user}, s.Implementers("Node"))
}

func TestBuildSchemaDefinition(t *testing.T) {
	s, err := BuildFromSDL("roots.graphql", `
schema { query: RootQuery mutation: RootMutation }
type RootQuery { ok: Boolean }
type RootMutation { run: Boolean }
`)
	require.NoError(t, err)
	require.Equal(t, "RootQuery", s.QueryType)
	require.Equal(t, "RootMutation", s.MutationType)
	require.Equal(t, "RootQuery", s.GetQueryType().Name)
}

func TestBuildMergesDocuments(t *testing.T) {
	base, err := language.ParseSchema("base.graphql", `type Query { a: String }`)
	require.NoError(t, err)
	ext, err := language.ParseSchema("ext.graphql", `
extend type Query { b: Widget }
type Widget { id: ID }
`)
	require.NoError(t, err)

	s, err := Build(base, ext)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, fieldNames(s.Lookup("Query")))
	require.NotNil(t, s.Lookup("Widget"))
}

func TestBuildViolations(t *testing.T) {
	for _, tc := range []struct {
		name    string
		sdl     string
		message string
	}{
		{
			name:    "duplicate definition",
			sdl:     "type Query { a: String }\ntype Query { b: String }",
			message: `Definition "Query" already exists`,
		},
		{
			name:    "extension without base",
			sdl:     "type Query { a: String }\nextend type Missing { b: String }",
			message: `Cannot extend "Missing": definition not found`,
		},
		{
			name:    "extension kind mismatch",
			sdl:     "type Query { a: String }\nextend interface Query { b: String }",
			message: `Cannot extend "Query" with interface extension: kind mismatch`,
		},
		{
			name:    "unknown type",
			sdl:     "type Query { a: Unknown }",
			message: `Type "Unknown" not found in definitions`,
		},
		{
			name:    "duplicate field",
			sdl:     "type Query { a: String }\nextend type Query { a: Int }",
			message: `Duplicate field "a" found in object "Query"`,
		},
		{
			name:    "root type not object",
			sdl:     "schema { query: Q }\nscalar Q",
			message: `Query root type "Q" must be an object type`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildFromSDL("bad.graphql", tc.sdl)
			require.Error(t, err)
			var verr ValidationError
			require.ErrorAs(t, err, &verr)
			require.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestRetainTypes(t *testing.T) {
	s, err := BuildFromSDL("sample.graphql", sampleSDL)
	require.NoError(t, err)

	removed := s.RetainTypes(func(t *Type) bool { return t.Kind != TypeKindEnum && t.Kind != TypeKindUnion })
	require.Equal(t, []string{"Role", "Result"}, removed)
	require.Nil(t, s.Lookup("Role"))
	require.Equal(t, 10, s.Len())
	require.NotContains(t, typeNames(s), "Result")
}

func TestCloneIsDeep(t *testing.T) {
	s, err := BuildFromSDL("sample.graphql", sampleSDL)
	require.NoError(t, err)
	before, err := json.Marshal(s)
	require.NoError(t, err)

	c := s.Clone()
	c.Lookup("User").Fields = c.Lookup("User").Fields[:1]
	c.Lookup("User").Interfaces = nil
	c.Lookup("Result").PossibleTypes[0] = "Other"
	c.Lookup("Query").Field("users").Arguments[0].Name = "changed"
	c.RetainTypes(func(t *Type) bool { return t.Name != "Role" })

	after, err := json.Marshal(s)
	require.NoError(t, err)
	if diff := cmp.Diff(string(before), string(after)); diff != "" {
		t.Errorf("clone mutation leaked into original (-before +after):\n%s", diff)
	}
	require.NotNil(t, s.Lookup("Role"))
}

func TestRender(t *testing.T) {
	s, err := BuildFromSDL("sample.graphql", sampleSDL)
	require.NoError(t, err)

	want := `directive @cached(ttl: Int) on FIELD

"""
A user
"""
type User implements Node {
  id: ID!
  name(format: String = "short"): String @deprecated(reason: "use displayName")
}

interface Node {
  id: ID!
}

type Query {
  me: User
  node(id: ID!): Node
  users(first: Int = 10): [User!]!
}

enum Role {
  ADMIN
  VIEWER
}

input Filter @oneOf {
  role: Role
  q: String
}

union Result = User

scalar Date @specifiedBy(url: "https://example.com")
`
	if diff := cmp.Diff(want, Render(s)); diff != "" {
		t.Errorf("rendered SDL mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderRoundTrip(t *testing.T) {
	s, err := BuildFromSDL("sample.graphql", sampleSDL)
	require.NoError(t, err)

	again, err := BuildFromSDL("rendered.graphql", Render(s))
	require.NoError(t, err)
	require.Equal(t, Render(s), Render(again))
}

func TestRenderSchemaBlock(t *testing.T) {
	s, err := BuildFromSDL("roots.graphql", `
schema { query: RootQuery }
type RootQuery { ok: Boolean }
`)
	require.NoError(t, err)
	require.Equal(t, "schema {\n  query: RootQuery\n}\n\ntype RootQuery {\n  ok: Boolean\n}\n", Render(s))
}
