// Package handle turns opaque engine references into typed host
// objects whose operations call back into the engine.
//
// # Classification Pipeline
//
// A Factory runs the linear pipeline probe, match, synthesize:
//
//	factory, err := handle.NewFactory(channel, lat, registry)
//	if err != nil { ... }
//
//	h, err := factory.New(ctx, ref)
//	if err != nil { ... }
//
//	product, err := h.CallHandle(ctx, "combine", other)
//
// The probe asks the engine which property identifiers the object
// carries, the lattice matcher finds the most specific categories that
// evidence supports, and synthesis builds the operation table for that
// category set. Synthesis is static: no engine traffic happens between
// the probe and the first operation call.
//
// # Operation Binding
//
// Each operation the matched categories obligate resolves to an engine
// operation through the annotation registry. Resolution walks from the
// most specific matched categories upward through their ancestors,
// nearest first, and the first annotation found wins, so a category can
// override the binding an ancestor established. An operation with no
// annotation anywhere on the walk stays in the table unbound; calling
// it fails with an unimplemented-operation report naming the operation
// and its declaring category, while every other operation keeps
// working.
//
// # Operation Calls
//
// Invoking a bound operation issues exactly one engine call: arguments
// convert to engine values (handles unwrap to their refs, recursively
// through slices), the receiver ref is prepended, and the engine
// result comes back shaped by the operation's declared result kind.
// Value operations return the engine value unchanged. Handle
// operations classify the returned ref through the factory, so results
// land in their own most specific categories, not the receiver's.
// List operations classify element-wise and iterator operations return
// an *Iterator cursor.
//
// # Construction Paths
//
// Besides classifying known refs, a factory builds handles from engine
// global functions and from source text:
//
//	g, err := factory.Call(ctx, "SymmetricGroup", 5)
//	h, err := factory.Eval(ctx, "Group((1,2,3));")
//
// Eval requires the channel to implement engine.Evaluator.
//
// # Re-Classification
//
// Engine objects can gain identifiers as the engine discovers more
// about them. Refresh runs a fresh probe-match-synthesize cycle for a
// handle's ref and returns a new handle; existing handles are never
// mutated.
//
// # Concurrency
//
// Handles are immutable and safe for concurrent use. NewBatch
// classifies many refs concurrently over one channel; both bundled
// transports serialize or correlate requests internally, so no
// additional locking is needed.
package handle
