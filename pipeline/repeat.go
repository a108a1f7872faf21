package pipeline

import (
	"context"

	apperrors "github.com/kbukum/seqkit/errors"
)

// Repeat discards every stage attached so far (closing them) and emits v
// forever. The pipeline is flagged infinite until Take or TakeWhile bounds
// it; Collect, Count and the materializing stages refuse infinite
// pipelines.
func (p *Pipeline[T]) Repeat(v T) *Pipeline[T] {
	return p.restart("Repeat", func() (Iterator[T], Branch, error) {
		return &repeatPuller[T]{v: v}, BranchImmediate, nil
	})
}

// RepeatWith is Repeat with each element produced by fn.
func (p *Pipeline[T]) RepeatWith(fn Supplier[T]) *Pipeline[T] {
	return p.restart("RepeatWith", func() (Iterator[T], Branch, error) {
		if !fn.Callable() {
			return nil, 0, apperrors.NotCallable("RepeatWith")
		}
		if fn.Immediate() {
			return &repeatWithPuller[T]{fn: fn.supply}, BranchImmediate, nil
		}
		return &repeatWithIter[T]{fn: fn.suspending()}, BranchSuspendingFunc, nil
	})
}

// restart replaces the whole chain with a new infinite source.
func (p *Pipeline[T]) restart(op string, build func() (Iterator[T], Branch, error)) *Pipeline[T] {
	if p.err != nil {
		return p
	}
	it, b, err := build()
	if err != nil {
		p.fail(op, err)
		return p
	}
	_ = p.it.Close()
	p.it = it
	p.stages = p.stages[:0]
	p.infinite = true
	p.record(op, b)
	return p
}

type repeatPuller[T any] struct {
	v T
}

func (s *repeatPuller[T]) pull() (T, bool, error)                { return s.v, true, nil }
func (s *repeatPuller[T]) Next(context.Context) (T, bool, error) { return s.v, true, nil }
func (s *repeatPuller[T]) Close() error                          { return nil }

type repeatWithPuller[T any] struct {
	fn func() T
}

func (s *repeatWithPuller[T]) pull() (T, bool, error)                { return s.fn(), true, nil }
func (s *repeatWithPuller[T]) Next(context.Context) (T, bool, error) { return s.pull() }
func (s *repeatWithPuller[T]) Close() error                          { return nil }

type repeatWithIter[T any] struct {
	fn func(context.Context) (T, error)
}

func (s *repeatWithIter[T]) Next(ctx context.Context) (T, bool, error) {
	v, err := s.fn(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	return v, true, nil
}

func (s *repeatWithIter[T]) Close() error { return nil }
