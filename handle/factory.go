package handle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/c360/semalign/annotation"
	"github.com/c360/semalign/engine"
	"github.com/c360/semalign/errors"
	"github.com/c360/semalign/lattice"
	"github.com/c360/semalign/metric"
	"github.com/c360/semalign/probe"
)

// Factory classifies engine objects and builds handles for them. One
// factory serves one engine channel; handles it creates keep a pointer
// back to it for their operation calls, so a factory must outlive its
// handles.
type Factory struct {
	channel  engine.Channel
	lattice  *lattice.Lattice
	registry *annotation.Registry
	source   probe.Source
	logger   *slog.Logger
	metrics  *metric.Metrics

	isDoneOp   string
	nextOp     string
	batchLimit int
}

// FactoryOption configures a Factory
type FactoryOption func(*Factory)

// WithSource overrides the probe source, typically with a probe.Cache
func WithSource(source probe.Source) FactoryOption {
	return func(f *Factory) {
		if source != nil {
			f.source = source
		}
	}
}

// WithLogger sets the logger for factory and handle operations
func WithLogger(logger *slog.Logger) FactoryOption {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithMetrics enables classification and call instrumentation
func WithMetrics(metrics *metric.Metrics) FactoryOption {
	return func(f *Factory) {
		f.metrics = metrics
	}
}

// WithIteratorOps overrides the engine operations driving iterators
func WithIteratorOps(isDone, next string) FactoryOption {
	return func(f *Factory) {
		if isDone != "" {
			f.isDoneOp = isDone
		}
		if next != "" {
			f.nextOp = next
		}
	}
}

// WithBatchLimit caps NewBatch concurrency. Zero means unlimited.
func WithBatchLimit(limit int) FactoryOption {
	return func(f *Factory) {
		f.batchLimit = limit
	}
}

// NewFactory creates a handle factory over a channel, a validated
// lattice and an annotation registry
func NewFactory(channel engine.Channel, lat *lattice.Lattice, reg *annotation.Registry, opts ...FactoryOption) (*Factory, error) {
	if channel == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig,
			"Factory", "NewFactory", "engine channel is required")
	}
	if lat == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig,
			"Factory", "NewFactory", "category lattice is required")
	}
	if reg == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig,
			"Factory", "NewFactory", "annotation registry is required")
	}
	if !lat.Validated() {
		return nil, errors.WrapFatal(errors.ErrInvalidConfig,
			"Factory", "NewFactory", "lattice must be validated before handles are built")
	}

	f := &Factory{
		channel:  channel,
		lattice:  lat,
		registry: reg,
		logger:   slog.Default(),
		isDoneOp: DefaultIsDoneOp,
		nextOp:   DefaultNextOp,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.source == nil {
		prober, err := probe.New(channel)
		if err != nil {
			return nil, err
		}
		f.source = prober
	}
	return f, nil
}

// New classifies the object behind ref and synthesizes its handle. The
// pipeline is linear: probe, match, synthesize. Probe failures and
// classification failures propagate per their own contracts; there are
// no retries.
func (f *Factory) New(ctx context.Context, ref engine.Ref) (*Handle, error) {
	if ref.IsZero() {
		return nil, errors.WrapInvalid(errors.ErrBadArgument,
			"Factory", "New", "empty object reference")
	}

	start := time.Now()

	ev, err := f.source.Probe(ctx, ref)
	if err != nil {
		if f.metrics != nil {
			f.metrics.RecordHandleCreated("probe_error")
		}
		return nil, err
	}

	matched, err := f.lattice.Match(ev)
	if err != nil {
		if f.metrics != nil {
			f.metrics.RecordHandleCreated("classification_error")
		}
		return nil, err
	}

	table, err := f.newOpTable(matched)
	if err != nil {
		if f.metrics != nil {
			f.metrics.RecordHandleCreated("synthesis_error")
		}
		return nil, err
	}

	h := &Handle{
		ref:        ref,
		id:         uuid.New().String(),
		categories: matched,
		ops:        table,
		factory:    f,
	}

	if f.metrics != nil {
		f.metrics.RecordHandleCreated("ok")
	}
	f.logger.Debug("handle created",
		"handle", h.id,
		"ref", string(ref),
		"categories", h.CategoryNames(),
		"operations", len(table),
		"elapsed", time.Since(start))

	return h, nil
}

// NewFromValue classifies a ref-kind engine value. Plain values have no
// object behind them to classify.
func (f *Factory) NewFromValue(ctx context.Context, v engine.Value) (*Handle, error) {
	if !v.IsRef() {
		return nil, errors.WrapInvalid(errors.ErrBadArgument,
			"Factory", "NewFromValue", fmt.Sprintf("value of kind %s has no object reference", v.Kind()))
	}
	return f.New(ctx, v.Ref())
}

// Call invokes an engine global function and classifies the result.
// This is the construction path: handles enter the host through calls
// like Call(ctx, "SymmetricGroup", 5).
func (f *Factory) Call(ctx context.Context, fn string, args ...any) (*Handle, error) {
	if fn == "" {
		return nil, errors.WrapInvalid(errors.ErrBadArgument,
			"Factory", "Call", "empty function name")
	}

	engineArgs := make([]engine.Value, 0, len(args))
	for _, arg := range args {
		v, err := toEngineValue(arg)
		if err != nil {
			return nil, err
		}
		engineArgs = append(engineArgs, v)
	}

	result, err := f.channel.Call(ctx, fn, engineArgs)
	if err != nil {
		return nil, errors.Wrap(err, "Factory", "Call", fmt.Sprintf("engine function %s", fn))
	}
	if !result.IsRef() {
		return nil, errors.WrapInvalid(errors.ErrBadResult, "Factory", "Call",
			fmt.Sprintf("function %s returned a plain %s; call the channel directly for values", fn, result.Kind()))
	}
	return f.New(ctx, result.Ref())
}

// Eval evaluates engine source text and classifies the resulting
// object. The factory's channel must support evaluation.
func (f *Factory) Eval(ctx context.Context, code string) (*Handle, error) {
	ev, ok := f.channel.(engine.Evaluator)
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrNotEvaluator,
			"Factory", "Eval", "channel cannot evaluate source text")
	}

	result, err := ev.Eval(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "Factory", "Eval", "engine evaluation")
	}
	if !result.IsRef() {
		return nil, errors.WrapInvalid(errors.ErrBadResult, "Factory", "Eval",
			fmt.Sprintf("evaluation returned a plain %s; call the channel directly for values", result.Kind()))
	}
	return f.New(ctx, result.Ref())
}

// Refresh re-runs classification for a handle's ref and returns a new
// handle. Cached evidence for the ref is dropped first so the probe
// reaches the engine; the old handle stays valid with its old category
// set.
func (f *Factory) Refresh(ctx context.Context, h *Handle) (*Handle, error) {
	if h == nil {
		return nil, errors.WrapInvalid(errors.ErrBadArgument,
			"Factory", "Refresh", "nil handle")
	}
	if inv, ok := f.source.(interface{ Invalidate(engine.Ref) }); ok {
		inv.Invalidate(h.ref)
	}
	return f.New(ctx, h.ref)
}

// NewBatch classifies several refs concurrently, preserving order. The
// first failure cancels the remaining work. The factory's channel must
// be safe for concurrent use; both bundled transports are.
func (f *Factory) NewBatch(ctx context.Context, refs []engine.Ref) ([]*Handle, error) {
	handles := make([]*Handle, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	if f.batchLimit > 0 {
		g.SetLimit(f.batchLimit)
	}
	for i, ref := range refs {
		g.Go(func() error {
			h, err := f.New(gctx, ref)
			if err != nil {
				return err
			}
			handles[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return handles, nil
}

// wrapResult converts an engine result according to the operation's
// declared result kind
func (f *Factory) wrapResult(ctx context.Context, b boundOp, v engine.Value) (any, error) {
	switch b.op.Kind {
	case lattice.ResultValue:
		return v, nil

	case lattice.ResultHandle:
		if !v.IsRef() {
			return nil, errors.WrapInvalid(errors.ErrBadResult, "Handle", "Call",
				fmt.Sprintf("operation %q yields handles but the engine returned %s", b.op.Name, v.Kind()))
		}
		return f.New(ctx, v.Ref())

	case lattice.ResultHandleList:
		if v.Kind() != engine.KindList {
			return nil, errors.WrapInvalid(errors.ErrBadResult, "Handle", "Call",
				fmt.Sprintf("operation %q yields a list but the engine returned %s", b.op.Name, v.Kind()))
		}
		elems := v.List()
		out := make([]*Handle, 0, len(elems))
		for i, e := range elems {
			if !e.IsRef() {
				return nil, errors.WrapInvalid(errors.ErrBadResult, "Handle", "Call",
					fmt.Sprintf("operation %q list element %d is %s, want ref", b.op.Name, i, e.Kind()))
			}
			h, err := f.New(ctx, e.Ref())
			if err != nil {
				return nil, err
			}
			out = append(out, h)
		}
		return out, nil

	case lattice.ResultIterator:
		if !v.IsRef() {
			return nil, errors.WrapInvalid(errors.ErrBadResult, "Handle", "Call",
				fmt.Sprintf("operation %q yields an iterator but the engine returned %s", b.op.Name, v.Kind()))
		}
		return &Iterator{ref: v.Ref(), factory: f}, nil

	default:
		return nil, errors.WrapInvalid(errors.ErrBadResult, "Handle", "Call",
			fmt.Sprintf("operation %q has unknown result kind %d", b.op.Name, int(b.op.Kind)))
	}
}
