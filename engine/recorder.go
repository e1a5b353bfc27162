package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/c360/semalign/errors"
)

// DefaultRecorderCapacity bounds the call history when no capacity is given.
const DefaultRecorderCapacity = 256

// CallRecord captures one channel interaction for diagnostics.
type CallRecord struct {
	Seq     uint64
	Kind    string // "describe", "call" or "eval"
	Op      string
	Ref     Ref
	Args    []Value
	Result  Value
	Err     error
	At      time.Time
	Elapsed time.Duration
}

// Recorder wraps a Channel and keeps the most recent interactions in a
// bounded ring, oldest dropped first. It is the tracing mode for "what
// did we actually ask the engine": each interaction is also logged at
// debug level.
//
// Recorder always exposes Eval. When the wrapped channel is not an
// Evaluator, Eval fails with ErrNotEvaluator at call time.
type Recorder struct {
	inner  Channel
	logger *slog.Logger

	mu      sync.RWMutex
	records []CallRecord
	head    int
	size    int
	seq     uint64
}

// NewRecorder wraps inner with a call history of the given capacity.
// A nil logger falls back to slog.Default().
func NewRecorder(inner Channel, capacity int, logger *slog.Logger) *Recorder {
	if capacity <= 0 {
		capacity = DefaultRecorderCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		inner:   inner,
		logger:  logger,
		records: make([]CallRecord, capacity),
	}
}

// Describe implements Channel
func (r *Recorder) Describe(ctx context.Context, ref Ref) ([]string, error) {
	start := time.Now()
	names, err := r.inner.Describe(ctx, ref)
	r.record(CallRecord{
		Kind:    "describe",
		Ref:     ref,
		Err:     err,
		At:      start,
		Elapsed: time.Since(start),
	})
	r.logger.Debug("engine describe",
		"ref", ref.String(),
		"identifiers", len(names),
		"error", err,
	)
	return names, err
}

// Call implements Channel
func (r *Recorder) Call(ctx context.Context, op string, args []Value) (Value, error) {
	start := time.Now()
	result, err := r.inner.Call(ctx, op, args)
	r.record(CallRecord{
		Kind:    "call",
		Op:      op,
		Args:    args,
		Result:  result,
		Err:     err,
		At:      start,
		Elapsed: time.Since(start),
	})
	r.logger.Debug("engine call",
		"op", op,
		"args", len(args),
		"error", err,
	)
	return result, err
}

// Eval implements Evaluator when the wrapped channel supports it
func (r *Recorder) Eval(ctx context.Context, code string) (Value, error) {
	ev, ok := r.inner.(Evaluator)
	if !ok {
		return Nil(), errors.WrapInvalid(errors.ErrNotEvaluator, "Recorder", "Eval", "evaluating source")
	}
	start := time.Now()
	result, err := ev.Eval(ctx, code)
	r.record(CallRecord{
		Kind:    "eval",
		Op:      code,
		Result:  result,
		Err:     err,
		At:      start,
		Elapsed: time.Since(start),
	})
	r.logger.Debug("engine eval",
		"bytes", len(code),
		"error", err,
	)
	return result, err
}

// Unwrap returns the wrapped channel
func (r *Recorder) Unwrap() Channel {
	return r.inner
}

func (r *Recorder) record(rec CallRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	rec.Seq = r.seq

	capacity := len(r.records)
	r.records[r.head] = rec
	r.head = (r.head + 1) % capacity
	if r.size < capacity {
		r.size++
	}
}

// Records returns a copy of the retained history, oldest first
func (r *Recorder) Records() []CallRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	capacity := len(r.records)
	out := make([]CallRecord, 0, r.size)
	start := (r.head - r.size + capacity) % capacity
	for i := 0; i < r.size; i++ {
		out = append(out, r.records[(start+i)%capacity])
	}
	return out
}

// Last returns the most recent record, if any
func (r *Recorder) Last() (CallRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.size == 0 {
		return CallRecord{}, false
	}
	capacity := len(r.records)
	return r.records[(r.head-1+capacity)%capacity], true
}

// Len returns the number of retained records
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// Reset clears the history
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.head = 0
	r.size = 0
}
