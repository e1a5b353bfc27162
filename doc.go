// Package semalign binds opaque handles from an external mathematical
// computation engine to host-side semantic categories, so that engine
// objects behave like native objects: probed for their properties,
// classified against a category lattice, and called through adapters
// whose operations come from annotation tables rather than hand-written
// wrappers.
//
// # Philosophy: Classification Over Wrapping
//
// The engine (a GAP-style computer algebra session) owns the objects;
// this library never inspects their representation. Everything it knows
// comes from three verbs the engine answers over a channel:
//
//   - describe: which property identifiers hold for an object
//   - call: invoke a named engine operation on values
//   - eval: evaluate source text in the engine's own language
//
// From the describe answer the library classifies the object against a
// category lattice and synthesizes an adapter exposing exactly the
// operations its categories declare. Wrappers are derived, not written:
// adding a category or an annotation extends every future handle.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│           handle.Factory            │  probe → match → synthesize
//	│   (handles, adapters, op tables)    │
//	└─────────────────────────────────────┘
//	      ↓ classifies via                ↓ resolves via
//	┌───────────────────┐     ┌───────────────────────┐
//	│  probe.Prober     │     │  lattice.Lattice      │
//	│  (+ probe.Cache)  │     │  annotation.Registry  │
//	└───────────────────┘     └───────────────────────┘
//	      ↓ speaks through
//	┌─────────────────────────────────────┐
//	│          engine.Channel             │  describe / call / eval
//	│  (natschannel, wschannel, or any    │
//	│   in-process implementation)        │
//	└─────────────────────────────────────┘
//
// # Packages
//
// Core semantics:
//   - engine: channel boundary, refs, the tagged Value union
//   - lattice: category DAG, validation, maximal-antichain matching
//   - annotation: (category, operation) → external name registry
//   - probe: property probing with optional TTL cache
//   - handle: adapter synthesis, handles, the factory
//
// Alignment data:
//   - vocabulary: the standard category lattice and GAP annotations
//   - alignment: YAML alignment documents, schema-validated
//
// Transports:
//   - natschannel: NATS request-reply channel + responder bridge
//   - wschannel: WebSocket channel + HTTP handler bridge
//   - enginetest: scriptable in-memory engine for tests
//
// Infrastructure:
//   - errors: classified error taxonomy (transient, fatal, invalid)
//   - metric: prometheus collectors and the component registrar
//
// # Usage
//
// Connect a channel, load the standard vocabulary, and wrap an object:
//
//	channel, err := natschannel.New(natschannel.DefaultConfig("nats://localhost:4222"))
//	if err != nil {
//	    return err
//	}
//	if err := channel.Connect(ctx); err != nil {
//	    return err
//	}
//	defer channel.Close(ctx)
//
//	lat, reg, err := vocabulary.Standard()
//	if err != nil {
//	    return err
//	}
//	factory, err := handle.NewFactory(channel, lat, reg)
//	if err != nil {
//	    return err
//	}
//
//	g, err := factory.Eval(ctx, "SymmetricGroup(4);")
//	if err != nil {
//	    return err
//	}
//	size, err := g.CallInt(ctx, "cardinality")
//	elem, err := g.CallHandle(ctx, "an_element")
//
// Site-specific categories come from an alignment document instead:
//
//	doc, err := alignment.LoadFile("alignment.yaml")
//	if err != nil {
//	    return err
//	}
//	lat, reg, err := doc.Build()
//
// # Error Handling
//
// Failures carry their origin. Engine-raised errors surface as
// errors.ExternalCallError with the engine's diagnostic verbatim, no
// matter how many processes the answer crossed; they are answers, not
// outages, and are never classified transient. Transport failures are
// transient wrapped sentinels. Misuse (unknown operations, empty
// classifications) surfaces as the typed errors in the errors package.
//
// # Concurrency
//
// Lattices and registries are safe for concurrent use after
// construction; handles and factories are safe for concurrent use
// throughout. A channel serializes nothing by itself: deployments
// fronting a single-threaded engine session serialize in the bridge or
// rate-limit the channel.
//
// # Extension Points
//
//   - New transports implement engine.Channel (and engine.Evaluator
//     when the far side evaluates source text).
//   - New mathematics enters through lattice.Add and
//     annotation.Register, or declaratively through alignment
//     documents.
//   - Probing strategies wrap probe.Source the way probe.Cache does.
package semalign
