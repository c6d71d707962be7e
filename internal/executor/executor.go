package executor

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	language "github.com/hanpama/membergraph/internal/language"
	schema "github.com/hanpama/membergraph/internal/schema"
)

type Path []PathElement

type PathElement any

type taskID uint64

// executionState holds the state of one operation.
type executionState struct {
	ctx            context.Context
	runtime        Runtime
	schema         *schema.Schema
	document       *language.QueryDocument
	variableValues map[string]any
	errors         []GraphQLError

	// async tasks queued for the current depth
	queued []asyncTask
	nextID taskID
	// response path prefixes nullified by non-null propagation
	nullified map[string]struct{}
	// whether the position at a response path may hold null; keyed like
	// nullified, recorded for every field and list item
	nullable map[string]bool
	// mutation root fields complete their whole subtree before the next
	// root field runs
	serial   bool
	dataNull bool
}

type asyncTask struct {
	id        taskID
	task      AsyncResolveTask
	fieldType *schema.TypeRef
}

// asyncPending marks a response slot that a later batch fills in.
type asyncPending struct{}

type Executor struct {
	runtime Runtime
	schema  *schema.Schema
}

func NewExecutor(runtime Runtime, schema *schema.Schema) *Executor {
	return &Executor{runtime: runtime, schema: schema}
}

// ExecuteRequest executes the selected operation of document. The document
// is expected to be validated already.
func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) *ExecutionResult {
	operation := getOperation(document, operationName)
	if operation == nil {
		if operationName != "" {
			return requestError(fmt.Sprintf("Unknown operation named '%s'.", operationName))
		}
		return requestError("Must provide operation name if query contains multiple operations.")
	}

	coercedVariableValues, err := coerceVariableValues(e.schema, operation, variableValues)
	if err != nil {
		return &ExecutionResult{Errors: []GraphQLError{{
			Message:    err.Error(),
			Extensions: map[string]any{"code": "BAD_USER_INPUT"},
		}}}
	}

	var rootType *schema.Type
	switch operation.Operation {
	case language.Query:
		rootType = e.schema.GetQueryType()
	case language.Mutation:
		rootType = e.schema.GetMutationType()
	case language.Subscription:
		rootType = e.schema.GetSubscriptionType()
	}
	if rootType == nil {
		return requestError(fmt.Sprintf("Schema is not configured to execute %s operation.", operation.Operation))
	}

	state := &executionState{
		ctx:            ctx,
		runtime:        e.runtime,
		schema:         e.schema,
		document:       document,
		variableValues: coercedVariableValues,
		errors:         []GraphQLError{},
		nextID:         1,
		nullified:      make(map[string]struct{}),
		nullable:       make(map[string]bool),
		serial:         operation.Operation == language.Mutation,
	}

	responseRoot := executeSelectionSet(state, rootType, operation.SelectionSet, initialValue, Path{})
	if responseRoot == nil {
		responseRoot = map[string]any{}
	}
	drainAsyncTasks(state, responseRoot)

	if state.dataNull {
		return &ExecutionResult{Data: nil, Errors: state.errors}
	}
	return &ExecutionResult{Data: responseRoot, Errors: state.errors}
}

// drainAsyncTasks flushes queued async tasks depth by depth until none are
// left or data became null.
func drainAsyncTasks(state *executionState, responseRoot map[string]any) {
	for len(state.queued) > 0 && !state.dataNull {
		tasks, results := flushAsyncTasks(state)
		for i, r := range results {
			completeAsyncField(state, tasks[i], r, responseRoot)
		}
	}
}

func requestError(message string) *ExecutionResult {
	return &ExecutionResult{Errors: []GraphQLError{{Message: message}}}
}

// executeSelectionSet expands the selection set of one object value. Sync
// fields complete in place; async fields leave an asyncPending slot. A nil
// map means a non-null child was null and the object itself becomes null.
func executeSelectionSet(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet, objectValue any, path Path) map[string]any {
	grouped := collectFields(state, objectType, selectionSet)
	resultMap := make(map[string]any, len(grouped.fields))

	for _, cf := range grouped.fields {
		fieldPath := appendPath(path, cf.ResponseName)

		if cf.Fields[0].Name == "__typename" {
			resultMap[cf.ResponseName] = objectType.Name
			continue
		}

		fieldDef := objectType.Field(cf.Fields[0].Name)
		if fieldDef == nil {
			state.addError(fmt.Sprintf("Cannot query field '%s' on type '%s'", cf.Fields[0].Name, objectType.Name), fieldPath)
			continue
		}

		state.nullable[pathToString(fieldPath)] = !schema.IsNonNull(fieldDef.Type)
		fieldResult := executeField(state, objectType, fieldDef, objectValue, cf.Fields, fieldPath)
		if isNullish(fieldResult) {
			if schema.IsNonNull(fieldDef.Type) {
				if len(path) == 0 {
					// remaining root fields, mutations included, are not run
					state.dataNull = true
					return resultMap
				}
				state.markNullified(path)
				return nil
			}
			state.markNullified(fieldPath)
			resultMap[cf.ResponseName] = nil
		} else {
			resultMap[cf.ResponseName] = fieldResult
		}

		if len(path) == 0 && state.serial {
			drainAsyncTasks(state, resultMap)
			if state.dataNull {
				return resultMap
			}
		}
	}

	return resultMap
}

func executeField(state *executionState, objectType *schema.Type, fieldDef *schema.Field, objectValue any, fields []*language.Field, path Path) any {
	args, ok := coerceArgumentValues(state, fieldDef, fields[0].Arguments, path)
	if !ok {
		// argument errors are recorded; the resolver never sees bad input
		return nil
	}

	if !fieldDef.Async {
		value, err := state.runtime.ResolveSync(state.ctx, objectType.Name, fieldDef.Name, objectValue, args)
		if err != nil {
			state.errors = append(state.errors, newGraphQLError(err, path))
			return nil
		}
		return completeValue(state, fieldDef.Type, fields, value, path)
	}

	state.queued = append(state.queued, asyncTask{
		id: state.nextID,
		task: AsyncResolveTask{
			ObjectType: objectType.Name,
			Field:      fieldDef.Name,
			Source:     objectValue,
			Args:       args,
			Path:       path,
			Fields:     fields,
			Fragments:  state.document.Fragments,
		},
		fieldType: fieldDef.Type,
	})
	state.nextID++
	return asyncPending{}
}

// flushAsyncTasks hands the live tasks of this depth to the runtime in one
// batch. Tasks under nullified paths are dropped.
func flushAsyncTasks(state *executionState) ([]asyncTask, []AsyncResolveResult) {
	live := make([]asyncTask, 0, len(state.queued))
	for _, at := range state.queued {
		if !state.isNullified(at.task.Path) {
			live = append(live, at)
		}
	}
	state.queued = nil
	if len(live) == 0 {
		return nil, nil
	}

	tasks := make([]AsyncResolveTask, len(live))
	for i, at := range live {
		tasks[i] = at.task
	}
	results := state.runtime.BatchResolveAsync(state.ctx, tasks)
	if len(results) != len(tasks) {
		err := fmt.Errorf("runtime returned %d results for %d tasks", len(results), len(tasks))
		results = make([]AsyncResolveResult, len(tasks))
		for i := range results {
			results[i].Error = err
		}
	}
	return live, results
}

func completeAsyncField(state *executionState, at asyncTask, res AsyncResolveResult, responseRoot map[string]any) {
	path := at.task.Path
	if state.isNullified(path) {
		return
	}

	var completed any
	if res.Error != nil {
		state.errors = append(state.errors, newGraphQLError(res.Error, path))
	} else {
		completed = completeValue(state, at.fieldType, at.task.Fields, res.Value, path)
	}

	if isNullish(completed) {
		if schema.IsNonNull(at.fieldType) {
			state.propagateNull(responseRoot, path)
			return
		}
		setValueAtPath(responseRoot, path, nil)
		return
	}
	setValueAtPath(responseRoot, path, completed)
}

// propagateNull nulls the closest nullable ancestor of the non-null position
// at path. When every ancestor up to the root is non-null, data becomes null.
func (s *executionState) propagateNull(responseRoot map[string]any, path Path) {
	for i := len(path) - 1; i > 0; i-- {
		ancestor := path[:i]
		if s.nullable[pathToString(ancestor)] {
			setValueAtPath(responseRoot, ancestor, nil)
			s.markNullified(ancestor)
			return
		}
	}
	s.dataNull = true
}

func completeValue(state *executionState, fieldType *schema.TypeRef, fields []*language.Field, result any, path Path) any {
	if schema.IsNonNull(fieldType) {
		if isNullish(result) {
			if !state.hasErrorAtPath(path) {
				state.addError(fmt.Sprintf("Cannot return null for non-nullable field %s", pathToString(path)), path)
			}
			return nil
		}
		return completeValue(state, schema.Unwrap(fieldType), fields, result, path)
	}

	if isNullish(result) {
		return nil
	}

	if schema.IsList(fieldType) {
		return completeListValue(state, fieldType, fields, result, path)
	}

	namedType := schema.GetNamedType(fieldType)
	typeObj := state.schema.Types[namedType]
	if typeObj == nil {
		state.addError(fmt.Sprintf("Unknown type: %s", namedType), path)
		return nil
	}

	switch typeObj.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		serialized, err := state.runtime.SerializeLeafValue(state.ctx, namedType, result)
		if err != nil {
			state.errors = append(state.errors, newGraphQLError(err, path))
			return nil
		}
		return serialized
	case schema.TypeKindObject:
		sub := executeSelectionSet(state, typeObj, mergeSelectionSets(fields), result, path)
		if sub == nil {
			return nil
		}
		return sub
	default:
		state.addError(fmt.Sprintf("Cannot complete value of type %s (%s)", namedType, typeObj.Kind), path)
		return nil
	}
}

func completeListValue(state *executionState, listType *schema.TypeRef, fields []*language.Field, result any, path Path) any {
	var items []any
	if direct, ok := result.([]any); ok {
		items = direct
	} else {
		rv := reflect.ValueOf(result)
		if rv.Kind() != reflect.Slice {
			state.addError(fmt.Sprintf("Expected list value, got %T", result), path)
			return nil
		}
		items = make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
	}

	inner := schema.Unwrap(listType)
	completed := make([]any, len(items))
	itemNullable := !schema.IsNonNull(inner)
	for i, item := range items {
		itemPath := appendPath(path, i)
		state.nullable[pathToString(itemPath)] = itemNullable
		v := completeValue(state, inner, fields, item, itemPath)
		if !itemNullable && isNullish(v) {
			return nil
		}
		completed[i] = v
	}
	return completed
}

func pathToString(path Path) string {
	var b strings.Builder
	for i, elem := range path {
		switch v := elem.(type) {
		case string:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(v)
		case int:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(v))
			b.WriteByte(']')
		}
	}
	return b.String()
}

func appendPath(path Path, elem PathElement) Path {
	p := make(Path, len(path)+1)
	copy(p, path)
	p[len(path)] = elem
	return p
}

func (s *executionState) markNullified(p Path) {
	if key := pathToString(p); key != "" {
		s.nullified[key] = struct{}{}
	}
}

func (s *executionState) isNullified(p Path) bool {
	if len(s.nullified) == 0 {
		return false
	}
	for i := range p {
		if _, ok := s.nullified[pathToString(p[:i+1])]; ok {
			return true
		}
	}
	return false
}

func getOperation(document *language.QueryDocument, operationName string) *language.OperationDefinition {
	if operationName == "" {
		if len(document.Operations) == 1 {
			return document.Operations[0]
		}
		return nil
	}
	return document.Operations.ForName(operationName)
}

func (s *executionState) addError(message string, path Path) {
	s.errors = append(s.errors, GraphQLError{Message: message, Path: path})
}

func (s *executionState) hasErrorAtPath(path Path) bool {
	for _, err := range s.errors {
		if reflect.DeepEqual(err.Path, path) {
			return true
		}
	}
	return false
}

// setValueAtPath writes value into the response tree, creating
// intermediate objects as needed.
func setValueAtPath(responseRoot map[string]any, path Path, value any) {
	if len(path) == 0 {
		return
	}
	current := any(responseRoot)
	for _, elem := range path[:len(path)-1] {
		switch e := elem.(type) {
		case string:
			m, ok := current.(map[string]any)
			if !ok {
				return
			}
			next, exists := m[e]
			if !exists || next == nil {
				// an ancestor was nulled; nothing to write into
				if exists {
					return
				}
				next = make(map[string]any)
				m[e] = next
			}
			current = next
		case int:
			slice, ok := current.([]any)
			if !ok || e >= len(slice) || slice[e] == nil {
				return
			}
			current = slice[e]
		}
	}
	switch fe := path[len(path)-1].(type) {
	case string:
		if m, ok := current.(map[string]any); ok {
			m[fe] = value
		}
	case int:
		if slice, ok := current.([]any); ok && fe < len(slice) {
			slice[fe] = value
		}
	}
}

func mergeSelectionSets(fields []*language.Field) language.SelectionSet {
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

// isNullish reports nil interfaces and typed nil pointers and maps. A nil
// slice is an empty list, not null.
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
