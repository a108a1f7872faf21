package pipeline

import (
	"context"
	"iter"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/kbukum/seqkit/errors"
	"github.com/kbukum/seqkit/logger"
	"github.com/kbukum/seqkit/observability"
)

// Iterator provides suspending, pull-based sequential access to a stream
// of values.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// Cursor provides immediate pull access: Pull never blocks and returns
// (zero, false) when exhausted. A Cursor that also implements io.Closer is
// closed together with the pipeline.
type Cursor[T any] interface {
	Pull() (T, bool)
}

// Iterable is a collection that can hand out a suspending iterator.
type Iterable[T any] interface {
	Iter() Iterator[T]
}

// puller is implemented by stages that yield without suspending. Only this
// package can implement it, so a puller is always a trusted stage.
type puller[T any] interface {
	Iterator[T]
	pull() (T, bool, error)
}

func isImmediate[T any](it Iterator[T]) bool {
	_, ok := it.(puller[T])
	return ok
}

// Stage describes one attached combinator.
type Stage struct {
	Name   string
	Branch Branch
}

// Pipeline is a lazy, pull-based sequence built from a source and a chain
// of combinators. No work happens until values are pulled by a terminal
// (Collect, Count, ForEach, Reduce) or through Next.
//
// Combinators that keep the element type are methods that replace the held
// iterator and return the same handle. Combinators that change the type are
// functions that move the state into a new handle and leave the old one
// empty. The first attachment error is kept on the handle, later
// attachments are skipped and every terminal returns it before pulling.
type Pipeline[T any] struct {
	it       Iterator[T]
	infinite bool
	err      error
	id       string
	stages   []Stage
	opts     *options
}

// Option configures a Pipeline.
type Option func(*options)

type options struct {
	name    string
	log     *logger.Logger
	tracer  trace.Tracer
	metrics *observability.Metrics
	limit   int
}

// WithName labels the pipeline in logs and spans.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the logger used for stage and terminal debug logs.
// Defaults to logger.Get("pipeline").
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithTracer sets the tracer for terminal spans. Defaults to the global
// provider's pipeline tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithMetrics enables terminal metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithMaterializeLimit bounds how many elements Sort, Reverse, GroupBy and
// the Distinct family may buffer. Zero means unlimited.
func WithMaterializeLimit(n int) Option {
	return func(o *options) { o.limit = n }
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.Get("pipeline")
	}
	if o.limit < 0 {
		o.limit = 0
	}
	return o
}

func newPipeline[T any](it Iterator[T], opts []Option) *Pipeline[T] {
	return &Pipeline[T]{
		it:   it,
		id:   uuid.NewString(),
		opts: newOptions(opts),
	}
}

// --- Constructors ---

// New adapts source into a pipeline. See Adapt for the accepted sources.
// A source pipeline's infinite flag carries over.
func New[T any](source any, opts ...Option) (*Pipeline[T], error) {
	it, infinite, err := adapt[T](source)
	if err != nil {
		return nil, err
	}
	p := newPipeline(it, opts)
	p.infinite = infinite
	return p, nil
}

// From creates a pipeline from an existing Iterator.
func From[T any](it Iterator[T], opts ...Option) *Pipeline[T] {
	return fromSource[T](it, opts)
}

// FromSlice creates a pipeline from a slice of values.
func FromSlice[T any](items []T, opts ...Option) *Pipeline[T] {
	return newPipeline[T](&sliceIter[T]{items: items}, opts)
}

// FromSeq creates a pipeline from a range-over-func sequence.
func FromSeq[T any](seq iter.Seq[T], opts ...Option) *Pipeline[T] {
	return fromSource[T](seq, opts)
}

// FromCursor creates a pipeline from an immediate cursor.
func FromCursor[T any](c Cursor[T], opts ...Option) *Pipeline[T] {
	return fromSource[T](c, opts)
}

// FromChan creates a pipeline that receives from ch until it is closed.
func FromChan[T any](ch <-chan T, opts ...Option) *Pipeline[T] {
	return fromSource[T](ch, opts)
}

// FromFunc creates a pipeline from a suspending pull function.
func FromFunc[T any](fn func(ctx context.Context) (T, bool, error), opts ...Option) *Pipeline[T] {
	return fromSource[T](fn, opts)
}

// Empty creates an already exhausted pipeline.
func Empty[T any](opts ...Option) *Pipeline[T] {
	return newPipeline[T](empty[T]{}, opts)
}

func fromSource[T any](source any, opts []Option) *Pipeline[T] {
	it, infinite, err := adapt[T](source)
	if err != nil {
		p := newPipeline[T](empty[T]{}, opts)
		p.fail("From", err)
		return p
	}
	p := newPipeline(it, opts)
	p.infinite = infinite
	return p
}

// --- Accessors ---

// ID returns the pipeline's unique id.
func (p *Pipeline[T]) ID() string { return p.id }

// Err returns the first attachment error, if any.
func (p *Pipeline[T]) Err() error { return p.err }

// Infinite reports whether the pipeline is known to never signal exhaustion.
func (p *Pipeline[T]) Infinite() bool { return p.infinite }

// Immediate reports whether the outermost stage yields without suspending.
func (p *Pipeline[T]) Immediate() bool { return isImmediate(p.it) }

// Stages returns the attached combinators in order.
func (p *Pipeline[T]) Stages() []Stage {
	out := make([]Stage, len(p.stages))
	copy(out, p.stages)
	return out
}

// --- Iterator ---

// Next pulls the next element through the whole chain. A pipeline is an
// Iterator, so it can be the source of another pipeline.
func (p *Pipeline[T]) Next(ctx context.Context) (T, bool, error) {
	if p.err != nil {
		var zero T
		return zero, false, p.err
	}
	return p.it.Next(ctx)
}

// Close closes the chain from the outermost stage down to the source.
func (p *Pipeline[T]) Close() error {
	it := p.it
	p.it = empty[T]{}
	return it.Close()
}

// All returns a range-over-func view of the pipeline. Iteration stops at the
// first error, which is yielded with a zero element. The pipeline is closed
// when iteration ends.
//
//	for v, err := range p.All(ctx) {
//	    if err != nil { ... }
//	}
func (p *Pipeline[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer p.Close()
		for {
			v, ok, err := p.Next(ctx)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !ok || !yield(v, nil) {
				return
			}
		}
	}
}

// detach hands the held iterator and its infinite flag to a new owner and
// leaves p empty.
func (p *Pipeline[T]) detach() (Iterator[T], bool, error) {
	if p.err != nil {
		return nil, false, p.err
	}
	it, infinite := p.it, p.infinite
	p.it = empty[T]{}
	p.infinite = false
	return it, infinite, nil
}

// --- Attachment ---

type buildFunc[T, U any] func(src Iterator[T]) (Iterator[U], Branch, error)

// attach replaces the held iterator with the stage build returns.
func (p *Pipeline[T]) attach(op string, build buildFunc[T, T]) *Pipeline[T] {
	if p.err != nil {
		return p
	}
	it, b, err := build(p.it)
	if err != nil {
		p.fail(op, err)
		return p
	}
	p.it = it
	p.record(op, b)
	return p
}

// derive moves p's state into a handle of a new element type and attaches
// the stage build returns.
func derive[T, U any](p *Pipeline[T], op string, build buildFunc[T, U]) *Pipeline[U] {
	q := &Pipeline[U]{
		it:       empty[U]{},
		infinite: p.infinite,
		err:      p.err,
		id:       p.id,
		stages:   p.stages,
		opts:     p.opts,
	}
	src := p.it
	p.it = empty[T]{}
	p.stages = nil
	if q.err != nil {
		_ = src.Close()
		return q
	}
	it, b, err := build(src)
	if err != nil {
		_ = src.Close()
		q.fail(op, err)
		return q
	}
	q.it = it
	q.record(op, b)
	return q
}

func (p *Pipeline[T]) record(op string, b Branch) {
	p.stages = append(p.stages, Stage{Name: op, Branch: b})
	if p.opts.log.Enabled(zerolog.DebugLevel) {
		p.opts.log.Debug("stage attached", logger.Fields(
			logger.FieldPipelineID, p.id,
			logger.FieldStage, op,
			logger.FieldBranch, b.String(),
		))
	}
}

func (p *Pipeline[T]) fail(op string, err error) {
	if p.err != nil {
		return
	}
	p.err = err
	p.opts.log.Debug("stage rejected", logger.MergeWithError(logger.Fields(
		logger.FieldPipelineID, p.id,
		logger.FieldStage, op,
	), err))
}

// guardInfinite records ErrInfiniteCollection for materializing stages
// attached to a pipeline that never ends.
func (p *Pipeline[T]) guardInfinite(op string) bool {
	if p.err == nil && p.infinite {
		p.fail(op, apperrors.InfiniteCollection(op))
		return false
	}
	return p.err == nil
}
