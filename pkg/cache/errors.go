package cache

import (
	"errors"
	"fmt"
)

// Usage errors. These indicate programming mistakes and are returned
// directly to the caller, unlike environmental failures which the Manager
// contains.
var (
	// ErrEmptyKey is returned when an operation is called with an empty key.
	ErrEmptyKey = errors.New("cache key cannot be empty")

	// ErrNilLoader is returned when GetOrSet is called without a loader.
	ErrNilLoader = errors.New("loader cannot be nil")

	// ErrClosed is returned for operations issued after Shutdown.
	ErrClosed = errors.New("cache manager is closed")
)

// ErrorClass classifies a contained environmental failure for logging and
// metrics.
type ErrorClass string

const (
	// ErrorClassStore covers connection, timeout, and pool-exhaustion
	// failures against the backing store.
	ErrorClassStore ErrorClass = "store"

	// ErrorClassSerialization covers JSON encode/decode failures.
	ErrorClassSerialization ErrorClass = "serialization"

	// ErrorClassCompression covers gzip/base64 failures on marked payloads.
	ErrorClassCompression ErrorClass = "compression"
)

// CacheError wraps an environmental failure with its class and the
// operation that produced it. These never escape the Manager boundary; they
// exist for structured logging and error-counter attribution.
type CacheError struct {
	Class ErrorClass
	Op    string
	Err   error
}

// Error implements the error interface.
func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s error during %s: %v", e.Class, e.Op, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *CacheError) Unwrap() error {
	return e.Err
}

func newCacheError(class ErrorClass, op string, err error) *CacheError {
	return &CacheError{Class: class, Op: op, Err: err}
}
