package resolve

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/hanpama/membergraph/internal/model"
	"github.com/hanpama/membergraph/internal/store"
)

// Error codes placed in extensions.code.
const (
	CodeNotFound            = "NOT_FOUND"
	CodeConstraintViolation = "CONSTRAINT_VIOLATION"
	CodeBadUserInput        = "BAD_USER_INPUT"
	CodeDeadlineExceeded    = "DEADLINE_EXCEEDED"
	CodeInternal            = "INTERNAL"
)

// graphQLError classifies err into a *gqlerror.Error carrying a code and the
// field that failed. Internal failures are logged and reported without
// their cause.
func (r *Runtime) graphQLError(ctx context.Context, operation string, err error) error {
	if err == nil {
		return nil
	}
	var gqlErr *gqlerror.Error
	if errors.As(err, &gqlErr) {
		return err
	}

	var (
		nf      *store.NotFoundError
		inputEr *model.InputError
		code    string
		message string
	)
	switch {
	case errors.As(err, &nf):
		code, message = CodeNotFound, strings.TrimPrefix(nf.Error(), "store: ")
	case store.IsUniqueConstraintError(err):
		code, message = CodeConstraintViolation, "unique constraint violated"
	case store.IsForeignKeyConstraintError(err):
		code, message = CodeConstraintViolation, "referenced entity does not exist"
	case errors.As(err, &inputEr):
		code, message = CodeBadUserInput, inputEr.Error()
	case errors.Is(err, context.DeadlineExceeded):
		code, message = CodeDeadlineExceeded, "operation timed out"
	default:
		r.logger.ErrorContext(ctx, "resolver failed", slog.String("operation", operation), slog.Any("error", err))
		code, message = CodeInternal, "Internal server error"
	}
	return &gqlerror.Error{
		Err:     err,
		Message: message,
		Extensions: map[string]any{
			"code":      code,
			"operation": operation,
		},
	}
}
