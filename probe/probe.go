package probe

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/c360/semalign/engine"
	"github.com/c360/semalign/errors"
	"github.com/c360/semalign/metric"
)

// Source yields property evidence for engine objects. Prober is the
// canonical implementation; Cache decorates any Source with a TTL cache.
type Source interface {
	Probe(ctx context.Context, ref engine.Ref) (Result, error)
}

// Result is an immutable snapshot of the identifiers the engine confirmed
// for one object at one point in time. The zero Result carries no
// identifiers. Identifiers absent from a Result are unknown, not false.
type Result struct {
	ref   engine.Ref
	set   map[string]struct{}
	names []string
	at    time.Time
}

// NewResult builds a Result from raw engine identifiers, deduplicating
// and sorting them
func NewResult(ref engine.Ref, identifiers []string) Result {
	set := make(map[string]struct{}, len(identifiers))
	for _, id := range identifiers {
		set[id] = struct{}{}
	}
	names := make([]string, 0, len(set))
	for id := range set {
		names = append(names, id)
	}
	sort.Strings(names)

	return Result{ref: ref, set: set, names: names, at: time.Now()}
}

// Ref returns the engine object this evidence describes
func (r Result) Ref() engine.Ref {
	return r.ref
}

// Has reports whether the engine confirmed the identifier
func (r Result) Has(identifier string) bool {
	_, ok := r.set[identifier]
	return ok
}

// Names returns the confirmed identifiers in sorted order
func (r Result) Names() []string {
	return append([]string(nil), r.names...)
}

// Len returns the number of confirmed identifiers
func (r Result) Len() int {
	return len(r.names)
}

// At returns when the evidence was gathered
func (r Result) At() time.Time {
	return r.at
}

// String returns a compact display form
func (r Result) String() string {
	return fmt.Sprintf("probe(%s): %v", r.ref, r.names)
}

// Prober asks an engine channel which identifiers an object carries.
// One Probe issues exactly one Describe query.
type Prober struct {
	channel engine.Channel
	logger  *slog.Logger
	metrics *metric.Metrics
}

// Option configures a Prober
type Option func(*Prober)

// WithLogger sets the logger for probe operations
func WithLogger(logger *slog.Logger) Option {
	return func(p *Prober) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics enables probe instrumentation
func WithMetrics(metrics *metric.Metrics) Option {
	return func(p *Prober) {
		p.metrics = metrics
	}
}

// New creates a Prober over the given channel
func New(channel engine.Channel, opts ...Option) (*Prober, error) {
	if channel == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig,
			"Prober", "New", "engine channel is required")
	}

	p := &Prober{
		channel: channel,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Probe queries the engine for the identifiers ref carries. Engine
// failures propagate as errors and are never folded into an empty
// Result.
func (p *Prober) Probe(ctx context.Context, ref engine.Ref) (Result, error) {
	if ref.IsZero() {
		return Result{}, errors.WrapInvalid(errors.ErrBadArgument,
			"Prober", "Probe", "empty object reference")
	}

	start := time.Now()
	identifiers, err := p.channel.Describe(ctx, ref)
	elapsed := time.Since(start)

	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordProbe("error", elapsed)
		}
		p.logger.Warn("probe failed",
			"ref", string(ref),
			"error", err)
		return Result{}, errors.Wrap(err, "Prober", "Probe", "describe query")
	}

	if p.metrics != nil {
		p.metrics.RecordProbe("ok", elapsed)
	}
	p.logger.Debug("probe complete",
		"ref", string(ref),
		"identifiers", len(identifiers),
		"elapsed", elapsed)

	return NewResult(ref, identifiers), nil
}
