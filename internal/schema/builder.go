package schema

import (
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	language "github.com/hanpama/membergraph/internal/language"
)

// FromAST converts a validated gqlparser schema into the executable model.
// Introspection types are skipped; built-in scalars and directives are kept
// and flagged so renderers can omit them.
func FromAST(src *language.Schema) *Schema {
	s := NewSchema(src.Description)
	if src.Query != nil {
		s.SetQueryType(src.Query.Name)
	}
	if src.Mutation != nil {
		s.SetMutationType(src.Mutation.Name)
	}
	if src.Subscription != nil {
		s.SetSubscriptionType(src.Subscription.Name)
	}

	names := make([]string, 0, len(src.Types))
	for name := range src.Types {
		if strings.HasPrefix(name, "__") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if t := buildType(src.Types[name]); t != nil {
			s.AddType(t)
		}
	}

	for _, dir := range src.Directives {
		s.AddDirective(buildDirective(dir))
	}
	return s
}

// Load parses SDL and returns both the gqlparser schema, used for document
// validation, and the executable model built from it.
func Load(name, sdl string) (*language.Schema, *Schema, error) {
	src, err := language.LoadSchema(name, sdl)
	if err != nil {
		return nil, nil, err
	}
	return src, FromAST(src), nil
}

func buildType(def *ast.Definition) *Type {
	var t *Type
	switch def.Kind {
	case ast.Object, ast.Interface:
		kind := TypeKindObject
		if def.Kind == ast.Interface {
			kind = TypeKindInterface
		}
		t = NewType(def.Name, kind, def.Description)
		for _, name := range def.Interfaces {
			t.AddInterface(name)
		}
		for _, fd := range def.Fields {
			if strings.HasPrefix(fd.Name, "__") {
				continue
			}
			t.AddField(buildField(fd))
		}
	case ast.Union:
		t = NewType(def.Name, TypeKindUnion, def.Description)
		for _, name := range def.Types {
			t.AddPossibleType(name)
		}
	case ast.Enum:
		t = NewType(def.Name, TypeKindEnum, def.Description)
		for _, v := range def.EnumValues {
			e := NewEnumValue(v.Name, v.Description)
			if reason, ok := deprecation(v.Directives); ok {
				e.Deprecate(reason)
			}
			t.AddEnumValue(e)
		}
	case ast.InputObject:
		t = NewType(def.Name, TypeKindInputObject, def.Description).
			SetOneOf(def.Directives.ForName("oneOf") != nil)
		for _, fd := range def.Fields {
			in := NewInputValue(fd.Name, fd.Description, buildTypeRef(fd.Type)).
				SetDefault(defaultValue(fd.DefaultValue))
			if reason, ok := deprecation(fd.Directives); ok {
				in.Deprecate(reason)
			}
			t.AddInputField(in)
		}
	case ast.Scalar:
		t = NewType(def.Name, TypeKindScalar, def.Description)
		if d := def.Directives.ForName("specifiedBy"); d != nil {
			if arg := d.Arguments.ForName("url"); arg != nil && arg.Value != nil {
				url := arg.Value.Raw
				t.SpecifiedByURL = &url
			}
		}
	default:
		return nil
	}
	t.BuiltIn = def.BuiltIn
	return t
}

func buildField(def *ast.FieldDefinition) *Field {
	f := NewField(def.Name, def.Description, buildTypeRef(def.Type))
	if reason, ok := deprecation(def.Directives); ok {
		f.Deprecate(reason)
	}
	for _, arg := range def.Arguments {
		f.AddArgument(buildArgument(arg))
	}
	return f
}

func buildArgument(a *ast.ArgumentDefinition) *InputValue {
	in := NewInputValue(a.Name, a.Description, buildTypeRef(a.Type)).
		SetDefault(defaultValue(a.DefaultValue))
	if reason, ok := deprecation(a.Directives); ok {
		in.Deprecate(reason)
	}
	return in
}

func buildDirective(dir *ast.DirectiveDefinition) *Directive {
	d := NewDirective(dir.Name, dir.Description).SetRepeatable(dir.IsRepeatable)
	for _, loc := range dir.Locations {
		d.Locations = append(d.Locations, string(loc))
	}
	for _, arg := range dir.Arguments {
		d.AddArgument(buildArgument(arg))
	}
	d.BuiltIn = dir.Position != nil && dir.Position.Src != nil && dir.Position.Src.BuiltIn
	return d
}

func buildTypeRef(t *ast.Type) *TypeRef {
	if t == nil {
		return nil
	}
	var ref *TypeRef
	if t.Elem != nil {
		ref = ListType(buildTypeRef(t.Elem))
	} else {
		ref = NamedType(t.NamedType)
	}
	if t.NonNull {
		return NonNullType(ref)
	}
	return ref
}

func defaultValue(v *ast.Value) any {
	if v == nil {
		return nil
	}
	out, err := v.Value(nil)
	if err != nil {
		return nil
	}
	return out
}

func deprecation(directives ast.DirectiveList) (string, bool) {
	d := directives.ForName("deprecated")
	if d == nil {
		return "", false
	}
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		return arg.Value.Raw, true
	}
	return "", true
}
