package gateway

import (
	"encoding/json"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hanpama/membergraph/internal/executor"
	"github.com/hanpama/membergraph/internal/language"
)

// Location is a line and column in the request document.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Error is one entry of the response errors list.
type Error struct {
	Message    string         `json:"message"`
	Locations  []Location     `json:"locations,omitempty"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e Error) Error() string { return e.Message }

// Response is the GraphQL response body. Data is null for rejected
// requests; Errors is omitted when empty.
type Response struct {
	Data   any     `json:"data"`
	Errors []Error `json:"errors,omitempty"`
}

// ErrorResponse builds a response carrying a single message.
func ErrorResponse(message string) *Response {
	return &Response{Errors: []Error{{Message: message}}}
}

func errorResponse(err *language.Error) *Response {
	return &Response{Errors: []Error{fromLanguageError(err)}}
}

func fromLanguageError(e *language.Error) Error {
	out := Error{Message: e.Message, Extensions: e.Extensions}
	for _, l := range e.Locations {
		out.Locations = append(out.Locations, Location{Line: l.Line, Column: l.Column})
	}
	if len(e.Path) > 0 {
		out.Path = make([]any, len(e.Path))
		for i, pe := range e.Path {
			switch v := pe.(type) {
			case ast.PathName:
				out.Path[i] = string(v)
			case ast.PathIndex:
				out.Path[i] = int(v)
			}
		}
	}
	return out
}

func fromResult(res *executor.ExecutionResult) *Response {
	out := &Response{Data: res.Data}
	if len(res.Errors) == 0 {
		return out
	}
	out.Errors = make([]Error, len(res.Errors))
	for i, e := range res.Errors {
		se := Error{Message: e.Message, Extensions: e.Extensions}
		if len(e.Path) > 0 {
			se.Path = make([]any, len(e.Path))
			for j, pe := range e.Path {
				switch v := pe.(type) {
				case string, int:
					se.Path[j] = v
				default:
					se.Path[j] = toString(v)
				}
			}
		}
		out.Errors[i] = se
	}
	return out
}

func (r *Response) errs() []error {
	out := make([]error, len(r.Errors))
	for i := range r.Errors {
		out[i] = r.Errors[i]
	}
	return out
}

func toString(v any) string { b, _ := json.Marshal(v); return string(b) }
