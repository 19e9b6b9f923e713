package form

import (
	"errors"
	"fmt"
)

var (
	ErrNoSchema      = errors.New("form has no schema loaded")
	ErrBusy          = errors.New("form is waiting on another request")
	ErrStale         = errors.New("form schema changed while the request was in flight")
	ErrUnknownField  = errors.New("unknown field")
	ErrNotImageField = errors.New("field does not accept uploads")
)

// UploadError is scoped to one field; the field keeps its previous value.
type UploadError struct {
	Field   string
	Message string
	Err     error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %s", e.Field, e.Message)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// SubmitError carries the message shown in the global notice. The form
// keeps the attempted input.
type SubmitError struct {
	Message string
	Err     error
}

func (e *SubmitError) Error() string {
	return e.Message
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}
