// Package errors provides standardized error handling for semalign
// components. It includes error classification, the typed errors raised
// by the binding pipeline, and helper functions for consistent error
// wrapping across the system.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorTransient represents temporary errors that may be retried
	ErrorTransient ErrorClass = iota
	// ErrorInvalid represents errors due to invalid input or state
	ErrorInvalid
	// ErrorFatal represents unrecoverable errors that should stop processing
	ErrorFatal
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Registry errors
	ErrDuplicateAnnotation = errors.New("conflicting annotation")
	ErrAnnotationNotFound  = errors.New("annotation not found")
	ErrCategoryNotFound    = errors.New("category not found")

	// Classification errors
	ErrClassification = errors.New("classification failed")

	// Adapter errors
	ErrUnimplemented     = errors.New("operation has no external binding")
	ErrOperationNotFound = errors.New("operation not declared")
	ErrBadArgument       = errors.New("argument cannot be converted")
	ErrBadResult         = errors.New("result has unexpected shape")

	// Engine channel errors
	ErrExternalCall      = errors.New("external call failed")
	ErrNoConnection      = errors.New("no connection available")
	ErrConnectionLost    = errors.New("connection lost")
	ErrConnectionTimeout = errors.New("connection timeout")
	ErrCircuitOpen       = errors.New("circuit breaker open")
	ErrNotEvaluator      = errors.New("channel does not support eval")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingConfig = errors.New("missing required configuration")
)

// DuplicateAnnotationError reports a registration that would bind an
// operation already bound to a different external name. Identical
// re-registration is not an error; only a conflicting binding is.
type DuplicateAnnotationError struct {
	Category  string
	Operation string
	Existing  string
	Proposed  string
}

// Error implements the error interface
func (e *DuplicateAnnotationError) Error() string {
	return fmt.Sprintf("conflicting annotation for %s.%s: bound to %q, got %q",
		e.Category, e.Operation, e.Existing, e.Proposed)
}

// Unwrap ties the error to ErrDuplicateAnnotation for errors.Is checks
func (e *DuplicateAnnotationError) Unwrap() error {
	return ErrDuplicateAnnotation
}

// ClassificationError reports that no category admits the probed object.
// The candidate set can only be empty when the category data lacks a
// universal root, so this signals misconfiguration rather than anything
// about the object itself.
type ClassificationError struct {
	Ref    string
	Probe  []string
	Reason string
}

// Error implements the error interface
func (e *ClassificationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("classification failed: %s", e.Reason)
	}
	return fmt.Sprintf("classification failed for ref %q: no candidate category for probe %v",
		e.Ref, e.Probe)
}

// Unwrap ties the error to ErrClassification for errors.Is checks
func (e *ClassificationError) Unwrap() error {
	return ErrClassification
}

// UnimplementedOperationError reports an operation that the matched
// categories declare but no annotation binds anywhere in the ancestor
// chain. The handle stays usable for its other operations.
type UnimplementedOperationError struct {
	Operation string
	Category  string
}

// Error implements the error interface
func (e *UnimplementedOperationError) Error() string {
	return fmt.Sprintf("operation %q declared by category %q has no external binding",
		e.Operation, e.Category)
}

// Unwrap ties the error to ErrUnimplemented for errors.Is checks
func (e *UnimplementedOperationError) Unwrap() error {
	return ErrUnimplemented
}

// ExternalCallError reports a failure raised by the computation engine
// during a probe or an operation invocation. Diagnostic carries the
// engine's own message verbatim; it is never rewritten or truncated.
type ExternalCallError struct {
	Operation  string
	Diagnostic string
}

// Error implements the error interface
func (e *ExternalCallError) Error() string {
	if e.Operation == "" {
		return fmt.Sprintf("external call failed: %s", e.Diagnostic)
	}
	return fmt.Sprintf("external call %q failed: %s", e.Operation, e.Diagnostic)
}

// Unwrap ties the error to ErrExternalCall for errors.Is checks
func (e *ExternalCallError) Unwrap() error {
	return ErrExternalCall
}

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsTransient checks if an error is transient and may succeed on a fresh
// connection. The binding pipeline itself never retries; this feeds the
// channel layer's recovery policy.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	// Check for classified error
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorTransient
	}

	// Check for known transient errors
	if errors.Is(err, ErrConnectionTimeout) ||
		errors.Is(err, ErrConnectionLost) ||
		errors.Is(err, ErrNoConnection) ||
		errors.Is(err, ErrCircuitOpen) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return true
	}

	// Engine-raised failures are answers, not outages
	if errors.Is(err, ErrExternalCall) {
		return false
	}

	// Check error message for common transient patterns
	errStr := strings.ToLower(err.Error())
	transientPatterns := []string{
		"timeout",
		"connection",
		"network",
		"temporary",
		"unavailable",
		"busy",
	}

	for _, pattern := range transientPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// IsFatal checks if an error is fatal and should stop processing
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	// Check for classified error
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorFatal
	}

	// Check for known fatal errors
	if errors.Is(err, ErrClassification) ||
		errors.Is(err, ErrDuplicateAnnotation) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrMissingConfig) {
		return true
	}

	// Check error message for fatal patterns
	errStr := strings.ToLower(err.Error())
	fatalPatterns := []string{
		"fatal",
		"panic",
		"invalid config",
		"missing config",
	}

	for _, pattern := range fatalPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// IsInvalid checks if an error is due to invalid input or a per-call
// condition the caller can recover from
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}

	// Check for classified error
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorInvalid
	}

	// Check for known invalid errors
	if errors.Is(err, ErrAnnotationNotFound) ||
		errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrOperationNotFound) ||
		errors.Is(err, ErrUnimplemented) ||
		errors.Is(err, ErrExternalCall) ||
		errors.Is(err, ErrBadArgument) ||
		errors.Is(err, ErrBadResult) ||
		errors.Is(err, ErrNotEvaluator) {
		return true
	}

	return false
}

// Classify returns the error class for an error
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorTransient // Default for nil
	}

	if IsFatal(err) {
		return ErrorFatal
	}
	if IsInvalid(err) {
		return ErrorInvalid
	}
	if IsTransient(err) {
		return ErrorTransient
	}

	// Default to invalid: unknown errors surface to the caller rather
	// than feeding a reconnect loop
	return ErrorInvalid
}

// newClassified creates a new classified error
// This is an internal helper - use WrapTransient(), WrapFatal(), or WrapInvalid() instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapTransient wraps an error as transient with context
func WrapTransient(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorTransient, wrappedErr, component, method, wrappedErr.Error())
}

// WrapFatal wraps an error as fatal with context
func WrapFatal(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorFatal, wrappedErr, component, method, wrappedErr.Error())
}

// WrapInvalid wraps an error as invalid with context
func WrapInvalid(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorInvalid, wrappedErr, component, method, wrappedErr.Error())
}
