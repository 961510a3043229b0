package gokeyset

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCode identifies a rejected pagination request.
type ErrorCode string

const (
	// CodePagingDirectionConflict - both after and before cursors were given.
	CodePagingDirectionConflict ErrorCode = "paging_direction_conflict"
	// CodePageDirectionConflict - page size argument does not match the
	// cursor direction (after+last, before+first, first+last).
	CodePageDirectionConflict ErrorCode = "page_direction_conflict"
	// CodePageSizeInvalid - requested page size is out of (0, limit].
	CodePageSizeInvalid ErrorCode = "page_size_invalid"
	// CodeCursorInvalid - cursor could not be decoded.
	CodeCursorInvalid ErrorCode = "cursor_invalid"
)

// PaginationError is a user-facing rejection of a pagination request. It is
// returned as a value by Paginate; database failures are never converted
// into it.
type PaginationError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *PaginationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newPaginationError(code ErrorCode, message string) *PaginationError {
	return &PaginationError{Code: code, Message: message}
}

// AsPaginationError extracts a *PaginationError from the error chain.
func AsPaginationError(err error) (*PaginationError, bool) {
	var perr *PaginationError
	if errors.As(err, &perr) {
		return perr, true
	}

	return nil, false
}
