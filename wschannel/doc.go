// Package wschannel provides the WebSocket transport to the external
// computation engine, with reply correlation over a single socket and
// automatic reconnection.
//
// The package has two halves. Channel is the client: it implements
// engine.Channel and engine.Evaluator by framing each describe, call,
// and eval as an envelope on one long-lived socket and matching the
// reply by envelope ID. Handler is the server: an http.Handler the
// engine-hosting process mounts wherever it serves HTTP, answering
// envelopes from a local engine.Channel. It suits deployments that
// already terminate WebSockets at their edge and do not run a message
// broker.
//
// # Wire Protocol
//
// Every frame is a JSON envelope:
//
//	{"type": "call", "id": "<uuid>", "timestamp": 1724580000000, "payload": {...}}
//
// Request types are describe, call, and eval; their payloads are the
// same JSON bodies the NATS transport uses, with arguments and results
// in the engine.Value wire form. The bridge answers with type "reply"
// and the request's id, so many requests can be in flight on one
// socket at once. An engine-raised failure travels as an error string
// carrying the engine's diagnostic verbatim, and the client rebuilds
// an ExternalCallError from it.
//
// # Failure Semantics
//
// Transport failures are classified transient and never look like
// engine errors: a dead socket or a missing reply surfaces as a
// wrapped sentinel (ErrNoConnection, ErrConnectionTimeout,
// ErrConnectionLost), while only errors the engine itself raised
// become ExternalCallError.
//
// A lost connection fails every in-flight request, then the channel
// redials with delays growing by ReconnectMultiplier up to
// ReconnectMaxWait, for at most MaxReconnects attempts. Requests made
// between reconnects fail fast with ErrNoConnection.
//
// # Basic Usage
//
// Connecting and probing an object:
//
//	cfg := wschannel.DefaultConfig("ws://localhost:8080/engine")
//	channel, err := wschannel.New(cfg,
//	    wschannel.WithMetrics(registry.CoreMetrics()),
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
// Serving a local engine session over HTTP:
//
//	handler, err := wschannel.NewHandler(localChannel)
//	if err != nil {
//	    return err
//	}
//	http.Handle("/engine", handler)
//
// # Concurrency
//
// Channel methods are safe for concurrent use; requests share the
// socket and are correlated by ID, so callers never see each other's
// replies. Handler serves the requests of one socket concurrently,
// which is safe when the underlying channel is; a bridge fronting a
// single-threaded engine session should serialize in its channel
// implementation.
package wschannel
