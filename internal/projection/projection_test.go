package projection

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/membergraph/internal/language"
)

var userRelations = []string{"profile", "posts", "userSubscribedTo", "subscribedToUser"}

func rootField(t *testing.T, query string) ([]*language.Field, language.FragmentDefinitionList) {
	t.Helper()
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	var fields []*language.Field
	for _, sel := range doc.Operations[0].SelectionSet {
		if f, ok := sel.(*language.Field); ok && f.Name == "users" {
			fields = append(fields, f)
		}
	}
	return fields, doc.Fragments
}

func TestCollect(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		want      []string
		relations []string
	}{
		{
			name:      "scalars only",
			query:     `{ users { id name } }`,
			want:      []string{"id", "name"},
			relations: []string{},
		},
		{
			name:      "posts selected",
			query:     `{ users { id posts { title } } }`,
			want:      []string{"id", "posts"},
			relations: []string{"posts"},
		},
		{
			name:      "nested relations do not leak upward",
			query:     `{ users { userSubscribedTo { profile { id } posts { id } } } }`,
			want:      []string{"userSubscribedTo"},
			relations: []string{"userSubscribedTo"},
		},
		{
			name: "fragments and aliases",
			query: `
				{ users { ... on User { p: profile { id } } ...Subs } }
				fragment Subs on User { subscribedToUser { id } }`,
			want:      []string{"profile", "subscribedToUser"},
			relations: []string{"profile", "subscribedToUser"},
		},
		{
			name: "foreign type conditions are ignored",
			query: `
				{ users { id ...OnPost } }
				fragment OnPost on Post { title }`,
			want:      []string{"id"},
			relations: []string{},
		},
		{
			name:      "merged root fields",
			query:     `{ users { id } users { posts { id } } }`,
			want:      []string{"id", "posts"},
			relations: []string{"posts"},
		},
		{
			name:      "conditional fields count as selected",
			query:     `query($x: Boolean!) { users { posts @include(if: $x) { id } } }`,
			want:      []string{"posts"},
			relations: []string{"posts"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, fragments := rootField(t, tt.query)
			set := Collect(fields, fragments, "User")
			if diff := cmp.Diff(tt.want, set.Names()); diff != "" {
				t.Errorf("names mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.relations, set.Intersect(userRelations)); diff != "" {
				t.Errorf("relations mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCollectSurvivesFragmentCycles(t *testing.T) {
	fields, fragments := rootField(t, `
		{ users { ...A } }
		fragment A on User { id ...B }
		fragment B on User { posts { id } ...A }`)
	set := Collect(fields, fragments, "User")
	require.True(t, set.Has("posts"))
	require.True(t, set.Has("id"))
	require.False(t, set.Has("profile"))
}
