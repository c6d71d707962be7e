package executor

import (
	language "github.com/hanpama/membergraph/internal/language"
)

// GraphQLError is a located execution error.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       Path           `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e GraphQLError) Error() string {
	return e.Message
}

// newGraphQLError keeps the message and extensions of a *language.Error
// anywhere in err's chain.
func newGraphQLError(err error, path Path) GraphQLError {
	ge := language.AsError(err)
	return GraphQLError{Message: ge.Message, Path: path, Extensions: ge.Extensions}
}

// ExecutionResult is the outcome of executing one operation.
type ExecutionResult struct {
	Data   any            `json:"data"`
	Errors []GraphQLError `json:"errors,omitempty"`
}
