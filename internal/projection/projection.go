// Package projection inspects the selection requested under a field so a
// root collection can ask the store for exactly the relations it needs.
package projection

import (
	"sort"

	"github.com/hanpama/membergraph/internal/language"
)

// FieldSet is the set of field names selected directly on one object type.
type FieldSet map[string]struct{}

// Collect gathers the names of the fields selected under fields for objects
// of typeName. Inline fragments and fragment spreads are followed when their
// type condition is absent or equals typeName. @skip and @include are not
// evaluated, so a conditionally selected field counts as selected.
func Collect(fields []*language.Field, fragments language.FragmentDefinitionList, typeName string) FieldSet {
	set := FieldSet{}
	visited := map[string]bool{}
	for _, f := range fields {
		set.collect(f.SelectionSet, fragments, typeName, visited)
	}
	return set
}

func (s FieldSet) collect(sel language.SelectionSet, fragments language.FragmentDefinitionList, typeName string, visited map[string]bool) {
	for _, selection := range sel {
		switch node := selection.(type) {
		case *language.Field:
			s[node.Name] = struct{}{}
		case *language.InlineFragment:
			if node.TypeCondition == "" || node.TypeCondition == typeName {
				s.collect(node.SelectionSet, fragments, typeName, visited)
			}
		case *language.FragmentSpread:
			if visited[node.Name] {
				continue
			}
			visited[node.Name] = true
			def := fragments.ForName(node.Name)
			if def != nil && (def.TypeCondition == "" || def.TypeCondition == typeName) {
				s.collect(def.SelectionSet, fragments, typeName, visited)
			}
		}
	}
}

// Has reports whether name was selected.
func (s FieldSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Intersect returns the entries of names that were selected, in names order.
func (s FieldSet) Intersect(names []string) []string {
	out := []string{}
	for _, n := range names {
		if s.Has(n) {
			out = append(out, n)
		}
	}
	return out
}

// Names returns the selected names sorted.
func (s FieldSet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
