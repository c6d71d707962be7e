package executor

import (
	language "github.com/hanpama/membergraph/internal/language"
	schema "github.com/hanpama/membergraph/internal/schema"
)

// collectedFields groups field nodes by response name in document order.
type collectedFields struct {
	fields []collectedField
	index  map[string]int
}

type collectedField struct {
	ResponseName string
	Fields       []*language.Field
}

func (c *collectedFields) add(responseName string, field *language.Field) {
	if idx, ok := c.index[responseName]; ok {
		c.fields[idx].Fields = append(c.fields[idx].Fields, field)
		return
	}
	c.index[responseName] = len(c.fields)
	c.fields = append(c.fields, collectedField{ResponseName: responseName, Fields: []*language.Field{field}})
}

func collectFields(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet) *collectedFields {
	c := &collectedFields{index: make(map[string]int)}
	collectFieldsInto(state, objectType, selectionSet, c, make(map[string]bool))
	return c
}

func collectFieldsInto(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet, c *collectedFields, visited map[string]bool) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *language.Field:
			if !shouldIncludeNode(state, sel.Directives) {
				continue
			}
			name := sel.Alias
			if name == "" {
				name = sel.Name
			}
			c.add(name, sel)

		case *language.InlineFragment:
			if !shouldIncludeNode(state, sel.Directives) || !typeConditionMatches(sel.TypeCondition, objectType) {
				continue
			}
			collectFieldsInto(state, objectType, sel.SelectionSet, c, visited)

		case *language.FragmentSpread:
			if !shouldIncludeNode(state, sel.Directives) || visited[sel.Name] {
				continue
			}
			visited[sel.Name] = true
			def := state.document.Fragments.ForName(sel.Name)
			if def == nil || !typeConditionMatches(def.TypeCondition, objectType) {
				continue
			}
			collectFieldsInto(state, objectType, def.SelectionSet, c, visited)
		}
	}
}

// typeConditionMatches accepts an absent condition, the object type itself,
// or an interface the object implements.
func typeConditionMatches(condition string, objectType *schema.Type) bool {
	if condition == "" || condition == objectType.Name {
		return true
	}
	for _, iface := range objectType.Interfaces {
		if iface == condition {
			return true
		}
	}
	return false
}

// shouldIncludeNode applies @skip and @include.
func shouldIncludeNode(state *executionState, directives language.DirectiveList) bool {
	if d := directives.ForName("skip"); d != nil && directiveFlag(state, d) {
		return false
	}
	if d := directives.ForName("include"); d != nil && !directiveFlag(state, d) {
		return false
	}
	return true
}

func directiveFlag(state *executionState, d *language.Directive) bool {
	arg := d.Arguments.ForName("if")
	if arg == nil {
		return false
	}
	v, _ := valueFromAST(arg.Value, state.variableValues).(bool)
	return v
}
