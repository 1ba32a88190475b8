package i2c

import "errors"

var (
	// ErrInvalidArg means the caller passed a nil handle or an empty
	// buffer. Never retried internally.
	ErrInvalidArg = errors.New("i2c: invalid argument")

	// ErrTimeout means a port lock was not obtained, or the hardware
	// transaction did not complete, within the configured bound.
	// Transient; the caller may retry.
	ErrTimeout = errors.New("i2c: timeout")

	// ErrFault means a lock release or a driver call failed in a way
	// that indicates a logic or hardware problem, not a transient one.
	ErrFault = errors.New("i2c: fault")

	// ErrUnsupported means the selected port driver cannot express the
	// requested transfer (e.g. repeated start on a write-only adapter).
	ErrUnsupported = errors.New("i2c: unsupported transfer")
)
