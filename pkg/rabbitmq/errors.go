package rabbitmq

import "errors"

type rejectError struct {
	err error
}

func (e rejectError) Error() string { return e.err.Error() }

func (e rejectError) Unwrap() error { return e.err }

// Reject marks a handler error as permanent so the message is dropped instead of requeued.
func Reject(err error) error {
	return rejectError{err: err}
}

// IsRejected reports whether err was marked with Reject.
func IsRejected(err error) bool {
	var r rejectError
	return errors.As(err, &r)
}
