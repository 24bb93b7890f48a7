package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel values for every error category the API can surface.
var (
	ErrValidationFailed     = errors.New("validation failed")
	ErrNotFound             = errors.New("not found")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrPayloadTooLarge      = errors.New("payload too large")
	ErrInsufficientData     = errors.New("insufficient training data")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrConflict             = errors.New("resource conflict")
	ErrLimitExceeded        = errors.New("limit exceeded")
	ErrDuplicateLabel       = errors.New("duplicate label")
	ErrIndexOutOfRange      = errors.New("index out of range")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrInternal             = errors.New("internal server error")
)

type ApiErr struct {
	StatusCode int
	err        error
	Details    []string // per-field messages for validation errors
	Cause      error    // the underlying cause, if any
}

// implements error interface. this allows us to pass an instance of ApiErr
// as an argument of type `error`
func (e *ApiErr) Error() string {
	return e.err.Error()
}

// this function allows us to do the following:
// err := &ApiErr{StatusCode: ..., err: someSentinelError}
// errors.Is(err, someSentinelError) ==> evaluates to true
func (e *ApiErr) Unwrap() error {
	return e.err
}

// GetFullError returns the error message including its cause chain.
func (e *ApiErr) GetFullError() string {
	msg := e.Error()
	if e.Cause != nil {
		if apiErr, ok := e.Cause.(*ApiErr); ok {
			msg = fmt.Sprintf("%s -> %s", msg, apiErr.GetFullError())
		} else {
			msg = fmt.Sprintf("%s -> %s", msg, e.Cause.Error())
		}
	}
	return msg
}

func NewValidationError(details ...string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrValidationFailed,
		Details:    details,
	}
}

func NewBadRequestError(message string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrValidationFailed,
		Details:    []string{message},
	}
}

func NewNotFound(entity string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusNotFound,
		err:        fmt.Errorf("%s %w", entity, ErrNotFound),
	}
}

func NewUnsupportedMediaType(contentType string, allowed []string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrUnsupportedMediaType,
		Details:    []string{fmt.Sprintf("content type %q is not supported, allowed types: %v", contentType, allowed)},
	}
}

func NewPayloadTooLarge(maxBytes int64) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrPayloadTooLarge,
		Details:    []string{fmt.Sprintf("payload exceeds the maximum size of %d bytes", maxBytes)},
	}
}

func NewInsufficientData(message string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        ErrInsufficientData,
		Details:    []string{message},
	}
}

func NewInvalidTransition(from, to string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        ErrInvalidTransition,
		Details:    []string{fmt.Sprintf("cannot transition from %q to %q", from, to)},
	}
}

func NewConflict(message string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        ErrConflict,
		Details:    []string{message},
	}
}

func NewLimitExceeded(message string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrLimitExceeded,
		Details:    []string{message},
	}
}

func NewDuplicateLabel(label string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        ErrDuplicateLabel,
		Details:    []string{fmt.Sprintf("label %q already exists", label)},
	}
}

func NewIndexOutOfRange(label string, index, length int) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrIndexOutOfRange,
		Details:    []string{fmt.Sprintf("example index %d out of range for label %q (%d examples)", index, label, length)},
	}
}

func NewUnauthorizedError(message string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrUnauthorized,
		Details:    []string{message},
	}
}

func NewInternalError(message string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrInternal,
		Details:    []string{message},
		Cause:      cause,
	}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsValidationFailed(err error) bool {
	return errors.Is(err, ErrValidationFailed)
}

func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

func IsLimitExceeded(err error) bool {
	return errors.Is(err, ErrLimitExceeded)
}
