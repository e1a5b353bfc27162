// Package natschannel provides the NATS transport to the external
// computation engine, with circuit breaker protection and automatic
// reconnection.
//
// The package has two halves. Channel is the client: it implements
// engine.Channel and engine.Evaluator by turning each describe, call,
// and eval into one NATS request-reply exchange. Responder is the
// server: the process hosting the engine session runs one, answering
// those requests from a local engine.Channel. Together they let
// classification and adapter calls run in a different process, or on a
// different machine, than the engine session itself.
//
// # Wire Protocol
//
// Each verb has its own subject under a configurable prefix:
//
//	<prefix>.describe   {"ref": "..."}            -> {"identifiers": [...]}
//	<prefix>.call       {"op": "...", "args": []} -> {"result": {...}}
//	<prefix>.eval       {"code": "..."}           -> {"result": {...}}
//
// Requests and responses are JSON; arguments and results use the
// engine.Value wire form. An engine-raised failure travels as an error
// string carrying the engine's diagnostic verbatim, and the client
// rebuilds an ExternalCallError from it, so a caller three processes
// away reads the same diagnostic the session printed.
//
// # Failure Semantics
//
// Transport failures are classified transient and never look like
// engine errors: a lost connection, a timeout, or an open circuit
// breaker surfaces as a wrapped sentinel (ErrNoConnection,
// ErrConnectionTimeout, ErrCircuitOpen), while only errors the engine
// itself raised become ExternalCallError.
//
// The circuit breaker opens after CircuitThreshold consecutive
// transport failures, fails fast while open, and retests the
// connection after an exponentially growing backoff capped by
// MaxBackoff. A single successful exchange closes it again.
//
// # Basic Usage
//
// Connecting and probing an object:
//
//	cfg := natschannel.DefaultConfig("nats://localhost:4222")
//	channel, err := natschannel.New(cfg,
//	    natschannel.WithMetrics(registry.CoreMetrics()),
//	    natschannel.WithRateLimit(50, 10),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := channel.Connect(ctx); err != nil {
//	    return err
//	}
//	defer channel.Close(ctx)
//
//	identifiers, err := channel.Describe(ctx, ref)
//
// Serving a local engine session to the cluster:
//
//	responder, err := natschannel.NewResponder(cfg, session)
//	if err != nil {
//	    return err
//	}
//	if err := responder.Start(ctx); err != nil {
//	    return err
//	}
//	defer responder.Stop(ctx)
//
// # Concurrency
//
// Channel is safe for concurrent use; over NATS the requests of many
// goroutines interleave freely. Ordering across concurrent callers is
// not defined, which matches the engine contract: each call is an
// independent exchange against session state.
package natschannel
