// Package errors provides standardized error handling patterns for semalign components.
//
// # Overview
//
// The errors package implements a three-class error classification system for
// the external-binding pipeline: Transient (temporary, connection-level),
// Invalid (bad input or per-call condition, non-retryable), and Fatal
// (misconfiguration, stop initialization).
//
// On top of the classes it defines the typed errors the pipeline reports, so
// callers can react to a failure structurally instead of parsing messages.
//
// # Error Classification
//
//   - Transient: timeouts, lost connections, open circuit breakers. The core
//     pipeline never retries these itself; the channel layer owns recovery.
//   - Invalid: missing annotations, unimplemented operations, engine-raised
//     call failures, argument conversion failures. The caller decides.
//   - Fatal: conflicting annotations, classification failures, invalid
//     configuration. These indicate bugs in the alignment data and abort
//     initialization.
//
// The classification integrates with Go's standard error handling patterns,
// supporting errors.Is(), errors.As(), and error wrapping chains.
//
// # Typed Errors
//
// Four error types carry structured payloads:
//
//   - DuplicateAnnotationError: a registration tried to bind an operation
//     that already carries a different external name. Names both bindings.
//   - ClassificationError: the category matcher produced an empty candidate
//     set, which only happens when the category data lacks a universal root.
//   - UnimplementedOperationError: a declared operation has no binding
//     anywhere in its ancestor chain. Names the operation and the declaring
//     category so the missing alignment can be added.
//   - ExternalCallError: the engine raised an error during a probe or call.
//     The Diagnostic field carries the engine's message verbatim.
//
// Each type unwraps to a matching sentinel (ErrDuplicateAnnotation,
// ErrClassification, ErrUnimplemented, ErrExternalCall) so both styles of
// inspection work:
//
//	var ue *errors.UnimplementedOperationError
//	if errors.As(err, &ue) {
//	    log.Printf("missing alignment for %s.%s", ue.Category, ue.Operation)
//	}
//
//	if errors.Is(err, errors.ErrUnimplemented) {
//	    // fall back to a host-side default
//	}
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// Three wrapper functions provide classification-aware wrapping:
//
//	errors.WrapTransient(err, "Component", "Method", "action")  // connection-level
//	errors.WrapInvalid(err, "Component", "Method", "action")    // per-call
//	errors.WrapFatal(err, "Component", "Method", "action")      // configuration
//
// The generic Wrap() preserves the original error's classification:
//
//	errors.Wrap(err, "Component", "Method", "action")
//
// # Context Cancellation
//
// Context errors (context.DeadlineExceeded, context.Canceled) classify as
// Transient, so channel timeouts and caller cancellation are handled the
// same way as network timeouts.
//
// # Thread Safety
//
// All classification and wrapping operations are thread-safe. Error
// variables are immutable and safe for concurrent access.
//
// # Architecture Integration
//
//   - annotation: registration conflicts surface as DuplicateAnnotationError
//   - lattice: an empty candidate set surfaces as ClassificationError
//   - handle: unresolved operations surface as UnimplementedOperationError
//   - engine, natschannel, wschannel: engine failures surface as
//     ExternalCallError; connection failures use the transient sentinels
package errors
