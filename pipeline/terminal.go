package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	apperrors "github.com/kbukum/seqkit/errors"
	"github.com/kbukum/seqkit/logger"
	"github.com/kbukum/seqkit/observability"
)

// run drives one terminal operation: it reports the first attachment
// error, refuses infinite pipelines when guarded, wraps body in a span and
// always closes the chain.
func (p *Pipeline[T]) run(ctx context.Context, op, name string, guarded bool, body func(context.Context, Iterator[T]) (int, error)) (err error) {
	it := p.it
	p.it = empty[T]{}

	ctx, term := observability.StartTerminal(ctx, p.opts.tracer, p.opts.metrics, p.id, p.opts.name, op, len(p.stages))
	n := 0
	defer func() {
		if cerr := it.Close(); cerr != nil && err == nil {
			err = cerr
		}
		status := term.End(ctx, n, err)
		p.logTerminal(ctx, op, status, n, term, err)
	}()

	switch {
	case p.err != nil:
		return p.err
	case guarded && p.infinite:
		return apperrors.InfiniteCollection(name)
	}
	n, err = body(ctx, it)
	return err
}

// logTerminal writes the terminal's debug entry, carrying the trace and span
// ids of its span when tracing is on.
func (p *Pipeline[T]) logTerminal(ctx context.Context, op, status string, n int, term *observability.Terminal, err error) {
	log := p.opts.log.WithContext(ctx)
	if err != nil {
		log.Debug("terminal failed", logger.MergeWithError(p.terminalFields(op, status, n, term), err))
		return
	}
	if log.Enabled(zerolog.DebugLevel) {
		log.Debug("terminal finished", p.terminalFields(op, status, n, term))
	}
}

func (p *Pipeline[T]) terminalFields(op, status string, n int, term *observability.Terminal) map[string]interface{} {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return logger.Fields(
		logger.FieldPipelineID, p.id,
		logger.FieldOperation, op,
		logger.FieldStatus, status,
		logger.FieldStages, names,
		logger.FieldElements, n,
		logger.FieldDuration, term.Duration().Milliseconds(),
	)
}

// Collect pulls every element into a slice. On error the elements pulled so
// far are returned with it. Infinite pipelines fail with
// ErrInfiniteCollection before anything is pulled.
func (p *Pipeline[T]) Collect(ctx context.Context) ([]T, error) {
	var result []T
	err := p.run(ctx, "collect", "Collect", true, func(ctx context.Context, it Iterator[T]) (int, error) {
		if pl, ok := it.(puller[T]); ok {
			for {
				val, ok, err := pl.pull()
				if err != nil || !ok {
					return len(result), err
				}
				result = append(result, val)
			}
		}
		for {
			val, ok, err := it.Next(ctx)
			if err != nil || !ok {
				return len(result), err
			}
			result = append(result, val)
		}
	})
	return result, err
}

// Count pulls every element and returns how many there were. Infinite
// pipelines fail with ErrInfiniteCollection.
func (p *Pipeline[T]) Count(ctx context.Context) (int, error) {
	n := 0
	err := p.run(ctx, "count", "Count", true, func(ctx context.Context, it Iterator[T]) (int, error) {
		if pl, ok := it.(puller[T]); ok {
			for {
				_, ok, err := pl.pull()
				if err != nil || !ok {
					return n, err
				}
				n++
			}
		}
		for {
			_, ok, err := it.Next(ctx)
			if err != nil || !ok {
				return n, err
			}
			n++
		}
	})
	return n, err
}

// ForEach calls fn for every element. It is allowed on infinite pipelines:
// cancel ctx to stop it, ForEach then returns ctx.Err().
func (p *Pipeline[T]) ForEach(ctx context.Context, fn Action[T]) error {
	if p.err == nil && !fn.Callable() {
		p.fail("ForEach", apperrors.NotCallable("ForEach"))
	}
	return p.run(ctx, "for_each", "ForEach", false, func(ctx context.Context, it Iterator[T]) (int, error) {
		n := 0
		done := ctx.Done()
		if branchOf(isImmediate(it), fn.Immediate()) == BranchImmediate {
			pl, do := it.(puller[T]), fn.do
			for {
				if err := interrupted(ctx, done); err != nil {
					return n, err
				}
				val, ok, err := pl.pull()
				if err != nil || !ok {
					return n, err
				}
				do(val)
				n++
			}
		}
		call := fn.suspending()
		for {
			if err := interrupted(ctx, done); err != nil {
				return n, err
			}
			val, ok, err := it.Next(ctx)
			if err != nil || !ok {
				return n, err
			}
			if err := call(ctx, val); err != nil {
				return n, err
			}
			n++
		}
	})
}

// Reduce folds every element into init with fn and returns the result.
// Reduce does not check the infinite flag; on an infinite pipeline it only
// returns when ctx is cancelled or fn fails.
func Reduce[T, A any](ctx context.Context, p *Pipeline[T], fn Reducer[A, T], init A) (A, error) {
	if p.err == nil && !fn.Callable() {
		p.fail("Reduce", apperrors.NotCallable("Reduce"))
	}
	acc := init
	err := p.run(ctx, "reduce", "Reduce", false, func(ctx context.Context, it Iterator[T]) (int, error) {
		n := 0
		done := ctx.Done()
		if branchOf(isImmediate(it), fn.Immediate()) == BranchImmediate {
			pl, fold := it.(puller[T]), fn.fold
			for {
				if err := interrupted(ctx, done); err != nil {
					return n, err
				}
				val, ok, err := pl.pull()
				if err != nil || !ok {
					return n, err
				}
				acc = fold(acc, val)
				n++
			}
		}
		call := fn.suspending()
		for {
			if err := interrupted(ctx, done); err != nil {
				return n, err
			}
			val, ok, err := it.Next(ctx)
			if err != nil || !ok {
				return n, err
			}
			next, err := call(ctx, acc, val)
			if err != nil {
				return n, err
			}
			acc = next
			n++
		}
	})
	return acc, err
}

// interrupted is a non-blocking check of ctx between elements.
func interrupted(ctx context.Context, done <-chan struct{}) error {
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return ctx.Err()
	default:
		return nil
	}
}
