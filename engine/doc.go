// Package engine defines the boundary to the external computation engine.
//
// # Overview
//
// Everything the binding pipeline knows about the engine fits in two
// questions: "what do you know about this object" (Describe) and "apply
// this named operation" (Call). The Channel interface captures exactly
// that surface; transports implement it (natschannel over NATS
// request/reply, wschannel over a WebSocket), and enginetest provides a
// scriptable in-memory implementation for tests.
//
// # Values and Refs
//
// A Ref names an object that lives inside the engine. The engine owns
// the object; the host only ever holds the name. Value is the tagged
// union crossing the wire: a ref, or a plain host value (bool, int,
// float, string) or a list of values. Both transports share the Value
// JSON encoding.
//
// # Errors
//
// A failure raised by the engine while answering is an
// errors.ExternalCallError carrying the engine's diagnostic verbatim.
// Transport-level failures (timeouts, lost connections) are classified
// transient and handled by the transport's own recovery policy; no
// request is ever re-issued by this layer or any layer above it.
//
// # Concurrency
//
// One logical channel serves the whole process. Implementations state
// their own concurrency guarantees; both shipped transports are safe
// for concurrent use, which parallel handle construction requires.
//
// # Call recording
//
// Recorder decorates any Channel with a bounded history of recent
// interactions plus debug-level logs, for answering "what did we
// actually ask the engine" during diagnosis:
//
//	rec := engine.NewRecorder(channel, 128, logger)
//	factory, err := handle.NewFactory(rec, lat, reg)
//	...
//	for _, r := range rec.Records() {
//	    fmt.Println(r.Seq, r.Kind, r.Op, r.Err)
//	}
package engine
