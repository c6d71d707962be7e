package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const testSDL = `
schema { query: Query mutation: Mutation }

"Opaque identifier."
scalar UUID

enum Tier { LOW HIGH @deprecated(reason: "use LOW") }

input Filter {
  tier: Tier
  limit: Int = 10
}

type Query {
  items(filter: Filter, first: Int = 5): [Item!]!
  item(id: UUID!): Item
}

type Mutation {
  touch(id: UUID!): String!
}

type Item {
  id: UUID!
  tier: Tier!
  old: String @deprecated
}
`

func TestLoadBuildsExecutableModel(t *testing.T) {
	src, s, err := Load("test.graphql", testSDL)
	require.NoError(t, err)
	require.NotNil(t, src)

	require.Equal(t, "Query", s.QueryType)
	require.Equal(t, "Mutation", s.MutationType)
	require.Empty(t, s.SubscriptionType)
	require.Same(t, s.Types["Query"], s.GetQueryType())

	for name := range s.Types {
		require.NotContains(t, name, "__", "introspection type %s leaked", name)
	}
	require.True(t, s.Types["String"].BuiltIn)
	require.False(t, s.Types["UUID"].BuiltIn)
	require.Equal(t, "Opaque identifier.", s.Types["UUID"].Description)

	var fieldNames []string
	for _, f := range s.GetQueryType().Fields {
		fieldNames = append(fieldNames, f.Name)
	}
	require.Equal(t, []string{"items", "item"}, fieldNames)

	items := s.Field("Query", "items")
	require.NotNil(t, items)
	if diff := cmp.Diff(NonNullType(ListType(NonNullType(NamedType("Item")))), items.Type); diff != "" {
		t.Errorf("items type mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, int64(5), items.Argument("first").DefaultValue)
	require.Nil(t, items.Argument("filter").DefaultValue)

	filter := s.Types["Filter"]
	require.Equal(t, TypeKindInputObject, filter.Kind)
	require.Nil(t, filter.InputField("tier").DefaultValue)
	require.Equal(t, int64(10), filter.InputField("limit").DefaultValue)

	tier := s.Types["Tier"]
	require.True(t, tier.HasEnumValue("HIGH"))
	require.False(t, tier.HasEnumValue("MID"))
	require.True(t, tier.EnumValues[1].IsDeprecated)
	require.Equal(t, "use LOW", tier.EnumValues[1].DeprecationReason)

	old := s.Field("Item", "old")
	require.True(t, old.IsDeprecated)
	require.Nil(t, s.Field("Item", "missing"))
	require.Nil(t, s.Field("Missing", "id"))
}

func TestLoadRejectsInvalidSDL(t *testing.T) {
	_, _, err := Load("bad.graphql", `type Query { x: Missing }`)
	require.Error(t, err)
}

func TestTypeRefHelpers(t *testing.T) {
	ref := NonNullType(ListType(NamedType("Post")))
	require.True(t, IsNonNull(ref))
	require.True(t, IsList(ref))
	require.False(t, IsList(Unwrap(Unwrap(ref))))
	require.Equal(t, "Post", GetNamedType(ref))
	require.False(t, IsNonNull(nil))
}

func TestRenderIsStable(t *testing.T) {
	_, s, err := Load("test.graphql", testSDL)
	require.NoError(t, err)

	out := Render(s)
	require.Contains(t, out, "type Query {\n  items(filter: Filter, first: Int = 5): [Item!]!\n")
	require.Contains(t, out, "  HIGH @deprecated(reason: \"use LOW\")\n")
	require.NotContains(t, out, "scalar String")
	require.NotContains(t, out, "directive @skip")

	// Rendered SDL loads back into an identical rendering.
	_, again, err := Load("rendered.graphql", "schema { query: Query mutation: Mutation }\n"+out)
	require.NoError(t, err)
	if diff := cmp.Diff(out, Render(again)); diff != "" {
		t.Errorf("render not stable (-first +second):\n%s", diff)
	}
}
