package domain

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when no link exists for an id.
	ErrNotFound = errors.New("link not found")
	// ErrMalformedSpec is returned when a spec lacks the fields needed to compose a redirect.
	ErrMalformedSpec = errors.New("malformed deep link spec")
	// ErrStoreUnavailable is returned when the link store cannot be read.
	ErrStoreUnavailable = errors.New("link store unavailable")
	// ErrInvalidInput is returned for creation requests that fail validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrQueueFull is returned when the analytics queue cannot take another event.
	ErrQueueFull = errors.New("analytics queue is full")
)

// storeError matches ErrStoreUnavailable while keeping the driver error as its cause.
type storeError struct {
	cause error
}

func (e *storeError) Error() string {
	return ErrStoreUnavailable.Error() + ": " + e.cause.Error()
}

func (e *storeError) Is(target error) bool { return target == ErrStoreUnavailable }
func (e *storeError) Unwrap() error        { return e.cause }
func (e *storeError) Cause() error         { return e.cause }

// StoreUnavailable marks err as a store failure. errors.Is matches both
// ErrStoreUnavailable and anything in err's own chain.
func StoreUnavailable(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.WithMessagef(&storeError{cause: err}, format, args...)
}
