package executor

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	language "github.com/hanpama/membergraph/internal/language"
	schema "github.com/hanpama/membergraph/internal/schema"
)

var errNull = errors.New("Expected non-null value, found null")

// coerceVariableValues coerces the request variables against the variable
// definitions of operation.
func coerceVariableValues(s *schema.Schema, operation *language.OperationDefinition, variableValues map[string]any) (map[string]any, error) {
	coerced := make(map[string]any, len(operation.VariableDefinitions))
	for _, def := range operation.VariableDefinitions {
		name := def.Variable
		val, ok := variableValues[name]
		if !ok {
			switch {
			case def.DefaultValue != nil:
				val = valueFromAST(def.DefaultValue, nil)
			case def.Type.NonNull:
				return nil, fmt.Errorf("Variable \"$%s\" of required type \"%s\" was not provided.", name, def.Type.String())
			default:
				continue
			}
		}
		cv, err := coerceValue(s, val, typeRefFromAST(def.Type))
		if err != nil {
			return nil, fmt.Errorf("Variable \"$%s\" got invalid value: %v", name, err)
		}
		coerced[name] = cv
	}
	return coerced, nil
}

// coerceArgumentValues coerces the arguments of one field. Failures are
// recorded at path and reported through ok.
func coerceArgumentValues(state *executionState, fieldDef *schema.Field, arguments language.ArgumentList, path Path) (coerced map[string]any, ok bool) {
	coerced = make(map[string]any, len(fieldDef.Arguments))
	ok = true
	fail := func(format string, args ...any) {
		state.errors = append(state.errors, GraphQLError{
			Message:    fmt.Sprintf(format, args...),
			Path:       path,
			Extensions: map[string]any{"code": "BAD_USER_INPUT"},
		})
		ok = false
	}

	for _, argDef := range fieldDef.Arguments {
		arg := arguments.ForName(argDef.Name)
		present := arg != nil
		if present && arg.Value.Kind == language.Variable {
			_, present = state.variableValues[arg.Value.Raw]
		}

		if !present {
			switch {
			case argDef.DefaultValue != nil:
				cv, err := coerceValue(state.schema, argDef.DefaultValue, argDef.Type)
				if err != nil {
					fail("Argument \"%s\" has invalid default value: %v", argDef.Name, err)
					continue
				}
				coerced[argDef.Name] = cv
			case schema.IsNonNull(argDef.Type):
				fail("Argument \"%s\" of required type \"%s\" was not provided.", argDef.Name, typeRefString(argDef.Type))
			}
			continue
		}

		cv, err := coerceValue(state.schema, valueFromAST(arg.Value, state.variableValues), argDef.Type)
		if err != nil {
			fail("Argument \"%s\" has invalid value: %v", argDef.Name, err)
			continue
		}
		coerced[argDef.Name] = cv
	}
	return coerced, ok
}

// valueFromAST converts a literal to a Go value, substituting variables.
func valueFromAST(value *language.Value, variables map[string]any) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case language.Variable:
		return variables[value.Raw]
	case language.IntValue:
		if iv, err := strconv.ParseInt(value.Raw, 10, 64); err == nil {
			return iv
		}
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case language.FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case language.StringValue, language.BlockValue, language.EnumValue:
		return value.Raw
	case language.BooleanValue:
		return value.Raw == "true"
	case language.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = valueFromAST(c.Value, variables)
		}
		return out
	case language.ObjectValue:
		m := make(map[string]any, len(value.Children))
		for _, f := range value.Children {
			if f.Value.Kind == language.Variable {
				if _, ok := variables[f.Value.Raw]; !ok {
					continue
				}
			}
			m[f.Name] = valueFromAST(f.Value, variables)
		}
		return m
	default:
		return nil
	}
}

// coerceValue coerces an input value to targetType using the schema's
// scalar, enum and input object definitions.
func coerceValue(s *schema.Schema, value any, targetType *schema.TypeRef) (any, error) {
	if schema.IsNonNull(targetType) {
		if value == nil {
			return nil, errNull
		}
		return coerceValue(s, value, schema.Unwrap(targetType))
	}
	if value == nil {
		return nil, nil
	}

	if schema.IsList(targetType) {
		inner := schema.Unwrap(targetType)
		items, ok := value.([]any)
		if !ok {
			// a single value is accepted as a list of one
			item, err := coerceValue(s, value, inner)
			if err != nil {
				return nil, err
			}
			return []any{item}, nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			cv, err := coerceValue(s, item, inner)
			if err != nil {
				return nil, fmt.Errorf("at index %d: %w", i, err)
			}
			out[i] = cv
		}
		return out, nil
	}

	name := schema.GetNamedType(targetType)
	typ := s.Types[name]
	if typ == nil {
		return nil, fmt.Errorf("unknown type %q", name)
	}

	switch typ.Kind {
	case schema.TypeKindScalar:
		switch name {
		case "Int":
			return coerceToInt(value)
		case "Float":
			return coerceToFloat(value)
		case "String":
			return coerceToString(value)
		case "Boolean":
			return coerceToBoolean(value)
		case "ID":
			return coerceToID(value)
		}
		if typ.ParseValue != nil {
			return typ.ParseValue(value)
		}
		return value, nil

	case schema.TypeKindEnum:
		str, ok := value.(string)
		if !ok || !typ.HasEnumValue(str) {
			return nil, fmt.Errorf("Value %v does not exist in \"%s\" enum.", value, name)
		}
		return str, nil

	case schema.TypeKindInputObject:
		return coerceInputObject(s, typ, value)

	default:
		return nil, fmt.Errorf("%s is not an input type", name)
	}
}

func coerceInputObject(s *schema.Schema, typ *schema.Type, value any) (any, error) {
	fields, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("Expected type \"%s\" to be an object.", typ.Name)
	}

	unknown := make([]string, 0)
	for name := range fields {
		if typ.InputField(name) == nil {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("Field \"%s\" is not defined by type \"%s\".", unknown[0], typ.Name)
	}

	out := make(map[string]any, len(typ.InputFields))
	for _, def := range typ.InputFields {
		v, present := fields[def.Name]
		if !present {
			switch {
			case def.DefaultValue != nil:
				v = def.DefaultValue
			case schema.IsNonNull(def.Type):
				return nil, fmt.Errorf("Field \"%s.%s\" of required type \"%s\" was not provided.", typ.Name, def.Name, typeRefString(def.Type))
			default:
				continue
			}
		}
		cv, err := coerceValue(s, v, def.Type)
		if err != nil {
			return nil, fmt.Errorf("in field \"%s\": %w", def.Name, err)
		}
		out[def.Name] = cv
	}
	return out, nil
}

func coerceToInt(value any) (any, error) {
	var n int64
	switch v := value.(type) {
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("Int cannot represent non-integer value: %v", v)
		}
		n = int64(v)
	default:
		return nil, fmt.Errorf("Int cannot represent non-integer value: %v", value)
	}
	if n > math.MaxInt32 || n < math.MinInt32 {
		return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %d", n)
	}
	return int(n), nil
}

func coerceToFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return nil, fmt.Errorf("Float cannot represent non numeric value: %v", value)
}

func coerceToString(value any) (any, error) {
	if v, ok := value.(string); ok {
		return v, nil
	}
	return nil, fmt.Errorf("String cannot represent a non string value: %v", value)
}

func coerceToBoolean(value any) (any, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return nil, fmt.Errorf("Boolean cannot represent a non boolean value: %v", value)
}

func coerceToID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10), nil
		}
	}
	return nil, fmt.Errorf("ID cannot represent value: %v", value)
}

func typeRefFromAST(t *language.Type) *schema.TypeRef {
	if t == nil {
		return nil
	}
	var ref *schema.TypeRef
	if t.Elem != nil {
		ref = schema.ListType(typeRefFromAST(t.Elem))
	} else {
		ref = schema.NamedType(t.NamedType)
	}
	if t.NonNull {
		return schema.NonNullType(ref)
	}
	return ref
}

func typeRefString(t *schema.TypeRef) string {
	switch {
	case t == nil:
		return ""
	case t.IsNonNull():
		return typeRefString(t.OfType) + "!"
	case t.IsList():
		return "[" + typeRefString(t.OfType) + "]"
	default:
		return t.Named
	}
}
