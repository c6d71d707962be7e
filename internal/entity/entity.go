// Package entity declares the entity type graph: the GraphQL schema of
// users, profiles, posts and member types, plus the table of relation fields
// and how each one is resolved.
//
// The graph is built once at startup and shared read-only by every request.
package entity

import (
	_ "embed"
	"fmt"

	"github.com/hanpama/membergraph/internal/language"
	"github.com/hanpama/membergraph/internal/loaders"
	"github.com/hanpama/membergraph/internal/model"
	"github.com/hanpama/membergraph/internal/schema"
)

//go:embed schema.graphql
var SDL string

// Type names used by resolvers.
const (
	QueryType      = "Query"
	MutationType   = "Mutation"
	UserType       = "User"
	ProfileType    = "Profile"
	PostType       = "Post"
	MemberTypeType = "MemberType"
	UUIDScalar     = "UUID"
	MemberTypeEnum = "MemberTypeId"
)

// Shape is the cardinality of a relation field.
type Shape int

const (
	// Single is exactly one target, Target!.
	Single Shape = iota
	// NullableSingle is zero or one target, Target.
	NullableSingle
	// List is zero or more targets, [Target!]!.
	List
)

func (s Shape) String() string {
	switch s {
	case Single:
		return "single"
	case NullableSingle:
		return "nullable-single"
	case List:
		return "list"
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// Strategy selects how a relation field is computed.
type Strategy int

const (
	// ViaLoader defers the lookup to the named per-request loader.
	ViaLoader Strategy = iota
	// Direct calls the store, used by root fields.
	Direct
)

// Relation describes one relation field of the graph.
type Relation struct {
	Owner    string
	Field    string
	Target   string
	Shape    Shape
	Strategy Strategy
	// Loader names the loader of a ViaLoader relation.
	Loader string
}

// Relations lists every field that leaves its parent record.
var Relations = []Relation{
	{Owner: QueryType, Field: "memberTypes", Target: MemberTypeType, Shape: List, Strategy: Direct},
	{Owner: QueryType, Field: "memberType", Target: MemberTypeType, Shape: NullableSingle, Strategy: Direct},
	{Owner: QueryType, Field: "users", Target: UserType, Shape: List, Strategy: Direct},
	{Owner: QueryType, Field: "user", Target: UserType, Shape: NullableSingle, Strategy: Direct},
	{Owner: QueryType, Field: "posts", Target: PostType, Shape: List, Strategy: Direct},
	{Owner: QueryType, Field: "post", Target: PostType, Shape: NullableSingle, Strategy: Direct},
	{Owner: QueryType, Field: "profiles", Target: ProfileType, Shape: List, Strategy: Direct},
	{Owner: QueryType, Field: "profile", Target: ProfileType, Shape: NullableSingle, Strategy: Direct},

	{Owner: UserType, Field: model.EdgeProfile, Target: ProfileType, Shape: NullableSingle, Strategy: ViaLoader, Loader: loaders.ProfileByUserName},
	{Owner: UserType, Field: model.EdgePosts, Target: PostType, Shape: List, Strategy: ViaLoader, Loader: loaders.PostsByAuthorName},
	{Owner: UserType, Field: model.EdgeUserSubscribedTo, Target: UserType, Shape: List, Strategy: ViaLoader, Loader: loaders.SubscribedToBySubscriberName},
	{Owner: UserType, Field: model.EdgeSubscribedToUser, Target: UserType, Shape: List, Strategy: ViaLoader, Loader: loaders.SubscribersByAuthorName},

	{Owner: ProfileType, Field: "memberType", Target: MemberTypeType, Shape: Single, Strategy: ViaLoader, Loader: loaders.MemberTypeByIDName},
}

type relationKey struct{ owner, field string }

// Graph is the built, immutable entity type graph.
type Graph struct {
	// Source is the validated SDL, used for document validation.
	Source *language.Schema
	// Schema is the executable model; relation fields are async.
	Schema *schema.Schema

	relations map[relationKey]Relation
	byOwner   map[string][]string
}

// New builds the graph from SDL and Relations.
func New() (*Graph, error) {
	src, s, err := schema.Load("schema.graphql", SDL)
	if err != nil {
		return nil, fmt.Errorf("entity: load schema: %w", err)
	}

	s.Types[UUIDScalar].ParseValue = func(v any) (any, error) {
		return model.ParseID(v)
	}

	g := &Graph{
		Source:    src,
		Schema:    s,
		relations: make(map[relationKey]Relation, len(Relations)),
		byOwner:   make(map[string][]string),
	}
	for _, r := range Relations {
		f := s.Field(r.Owner, r.Field)
		if f == nil {
			return nil, fmt.Errorf("entity: relation %s.%s is not in the schema", r.Owner, r.Field)
		}
		if !r.Shape.matches(f.Type, r.Target) {
			return nil, fmt.Errorf("entity: relation %s.%s declared %s of %s, schema says %s",
				r.Owner, r.Field, r.Shape, r.Target, typeString(f.Type))
		}
		if (r.Strategy == ViaLoader) != (r.Loader != "") {
			return nil, fmt.Errorf("entity: relation %s.%s has strategy/loader mismatch", r.Owner, r.Field)
		}
		f.SetAsync(true)
		g.relations[relationKey{r.Owner, r.Field}] = r
		g.byOwner[r.Owner] = append(g.byOwner[r.Owner], r.Field)
	}
	return g, nil
}

// MustNew is New for package initialization and tests.
func MustNew() *Graph {
	g, err := New()
	if err != nil {
		panic(err)
	}
	return g
}

// Relation returns the relation declared for owner.field.
func (g *Graph) Relation(owner, field string) (Relation, bool) {
	r, ok := g.relations[relationKey{owner, field}]
	return r, ok
}

// RelationFields returns the relation field names of owner in declaration
// order.
func (g *Graph) RelationFields(owner string) []string {
	return g.byOwner[owner]
}

func (s Shape) matches(t *schema.TypeRef, target string) bool {
	switch s {
	case Single:
		return t.IsNonNull() && !t.IsList() && t.GetNamedType() == target
	case NullableSingle:
		return t.Kind == schema.TypeRefKindNamed && t.Named == target
	case List:
		if !t.IsNonNull() || !t.IsList() {
			return false
		}
		elem := t.Unwrap().Unwrap()
		return elem.IsNonNull() && elem.Unwrap().Kind == schema.TypeRefKindNamed && elem.Unwrap().Named == target
	}
	return false
}

func typeString(t *schema.TypeRef) string {
	switch t.Kind {
	case schema.TypeRefKindNonNull:
		return typeString(t.OfType) + "!"
	case schema.TypeRefKindList:
		return "[" + typeString(t.OfType) + "]"
	}
	return t.Named
}
