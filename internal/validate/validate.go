// Package validate is the gate every document passes before execution:
// the standard GraphQL rules plus a maximum selection depth.
package validate

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/validator"
	"github.com/vektah/gqlparser/v2/validator/core"
	"github.com/vektah/gqlparser/v2/validator/rules"

	"github.com/hanpama/membergraph/internal/language"
)

// DefaultMaxDepth is the depth limit used when none is configured.
const DefaultMaxDepth = 5

// MaxDepthRule is the rule name reported on depth violations.
const MaxDepthRule = "MaxDepth"

// Gate validates documents against one schema.
type Gate struct {
	schema   *language.Schema
	maxDepth int
	rules    *rules.Rules
}

// Option configures a Gate.
type Option func(*Gate)

// WithMaxDepth sets the depth limit. Values below 1 keep the default.
func WithMaxDepth(n int) Option {
	return func(g *Gate) {
		if n > 0 {
			g.maxDepth = n
		}
	}
}

// New returns a Gate for s.
func New(s *language.Schema, opts ...Option) *Gate {
	g := &Gate{schema: s, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(g)
	}
	g.rules = rules.NewDefaultRules()
	g.rules.AddRule(MaxDepthRule, maxDepthRule(g.maxDepth))
	return g
}

// MaxDepth returns the configured limit.
func (g *Gate) MaxDepth() int { return g.maxDepth }

// Validate returns every violation in doc, or nil when it may execute.
func (g *Gate) Validate(doc *language.QueryDocument) language.ErrorList {
	errs := validator.ValidateWithRules(g.schema, doc, g.rules)
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func maxDepthRule(limit int) core.RuleFunc {
	return func(observers *core.Events, addError core.AddErrFunc) {
		observers.OnOperation(func(walker *core.Walker, op *ast.OperationDefinition) {
			if Depth(op, walker.Document.Fragments) > limit {
				addError(
					core.Message("'%s' exceeds maximum operation depth of %d", op.Name, limit),
					core.At(op.Position),
				)
			}
		})
	}
}

// Depth returns the nesting depth of op. Root fields are at depth 0 and
// every selection set adds one level, so { users { id } } has depth 1.
// Fragments do not add a level and introspection fields are not counted.
func Depth(op *language.OperationDefinition, fragments language.FragmentDefinitionList) int {
	return selectionDepth(op.SelectionSet, fragments, 0, map[string]bool{})
}

func selectionDepth(set ast.SelectionSet, fragments ast.FragmentDefinitionList, depth int, visited map[string]bool) int {
	deepest := 0
	for _, sel := range set {
		var d int
		switch node := sel.(type) {
		case *ast.Field:
			if len(node.Name) >= 2 && node.Name[:2] == "__" {
				continue
			}
			if len(node.SelectionSet) == 0 {
				d = depth
			} else {
				d = selectionDepth(node.SelectionSet, fragments, depth+1, visited)
			}
		case *ast.InlineFragment:
			d = selectionDepth(node.SelectionSet, fragments, depth, visited)
		case *ast.FragmentSpread:
			if visited[node.Name] {
				continue
			}
			def := fragments.ForName(node.Name)
			if def == nil {
				continue
			}
			visited[node.Name] = true
			d = selectionDepth(def.SelectionSet, fragments, depth, visited)
			delete(visited, node.Name)
		}
		if d > deepest {
			deepest = d
		}
	}
	return deepest
}
