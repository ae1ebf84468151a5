package application

import "errors"

// Error kinds. Every error returned by AccountService matches exactly one of
// these with errors.Is; the HTTP layer maps them to status codes.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrAuth       = errors.New("unauthorized")
	ErrDispatch   = errors.New("mail dispatch failed")
	ErrInternal   = errors.New("internal error")
)

// Error carries a stable user-facing Message alongside its kind and cause.
type Error struct {
	Kind    error
	Message string
	Details map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newErr(kind error, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

func validationErr(msg string, details map[string]string) *Error {
	return &Error{Kind: ErrValidation, Message: msg, Details: details}
}

// KindOf returns the kind of err, ErrInternal when it carries none.
func KindOf(err error) error {
	for _, k := range []error{ErrValidation, ErrConflict, ErrNotFound, ErrAuth, ErrDispatch} {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrInternal
}

// MessageOf returns the stable message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
