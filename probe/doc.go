// Package probe gathers classification evidence about engine objects.
//
// A probe asks the engine which property and category identifiers an
// object carries, via one Describe query on the channel. The answer is
// an immutable Result whose identifier set feeds lattice matching.
//
// # Absence Is Not Negative
//
// A Result lists identifiers the engine confirmed. An identifier missing
// from a Result means the engine did not report it, not that the
// property is false. Matching therefore only ever tests for presence.
//
// # Failures
//
// An engine failure during Describe propagates as an error carrying the
// engine's diagnostic verbatim. It is never folded into an empty Result,
// since an empty Result would silently classify the object under the
// root category.
//
// # Caching
//
// Cache decorates any Source with a per-ref TTL cache:
//
//	prober, err := probe.New(channel)
//	if err != nil { ... }
//	cached, err := probe.NewCache(prober, 5*time.Minute)
//	if err != nil { ... }
//
//	result, err := cached.Probe(ctx, ref)
//
// Only successful probes are cached. Invalidate drops one entry when a
// caller knows the object changed, typically before re-classification.
package probe
