package pipeline

import (
	"context"
	stderrors "errors"

	apperrors "github.com/kbukum/seqkit/errors"
)

// Chain emits this sequence, then each of rest in order. Every operand is
// adapted when Chain is attached, so an unsupported operand is reported
// immediately; nil and empty operands are skipped.
func (p *Pipeline[T]) Chain(rest ...any) *Pipeline[T] {
	infinite := false
	p.attach("Chain", func(src Iterator[T]) (Iterator[T], Branch, error) {
		parts := make([]Iterator[T], 0, len(rest)+1)
		parts = append(parts, src)
		for _, r := range rest {
			it, inf, err := adapt[T](r)
			if err != nil {
				_ = closeAll(parts[1:])
				return nil, 0, err
			}
			infinite = infinite || inf
			parts = append(parts, it)
		}
		if pullers, ok := allPullers(parts); ok {
			return &chainPuller[T]{parts: pullers}, BranchImmediate, nil
		}
		return &chainIter[T]{parts: parts}, BranchSuspendingSource, nil
	})
	if p.err == nil && infinite {
		p.infinite = true
	}
	return p
}

// Flatten emits the elements of each element of p. Elements are adapted as
// they are reached; one that is not a supported source fails the pull with
// ErrUnsupportedSource.
//
//	words := pipeline.Flatten[string](lines) // lines is *Pipeline[[]string]
func Flatten[T, S any](p *Pipeline[S]) *Pipeline[T] {
	return derive(p, "Flatten", func(src Iterator[S]) (Iterator[T], Branch, error) {
		if pl, ok := src.(puller[S]); ok && immediateSource[S, T]() {
			return &flattenPuller[T, S]{outer: pl}, BranchImmediate, nil
		}
		return &flattenIter[T, S]{outer: src}, BranchSuspendingSource, nil
	})
}

// Pair holds one element from each side of a Zip.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Zip pairs elements of p and other and stops as soon as either side is
// exhausted. Either side may be immediate or suspending.
func Zip[A, B any](p *Pipeline[A], other *Pipeline[B]) *Pipeline[Pair[A, B]] {
	infinite := false
	q := derive(p, "Zip", func(src Iterator[A]) (Iterator[Pair[A, B]], Branch, error) {
		o, inf, err := adapt[B](other)
		if err != nil {
			return nil, 0, err
		}
		infinite = inf
		a, aok := src.(puller[A])
		b, bok := o.(puller[B])
		if aok && bok {
			return &zipPuller[A, B]{a: a, b: b}, BranchImmediate, nil
		}
		return &zipIter[A, B]{a: src, b: o}, BranchSuspendingSource, nil
	})
	q.infinite = q.infinite && infinite
	return q
}

// ZipAll emits one slice per step holding the next element of p followed
// by the next element of each of others. It stops as soon as any
// participant is exhausted.
func ZipAll[T any](p *Pipeline[T], others ...any) *Pipeline[[]T] {
	infinite := true
	q := derive(p, "ZipAll", func(src Iterator[T]) (Iterator[[]T], Branch, error) {
		parts := make([]Iterator[T], 0, len(others)+1)
		parts = append(parts, src)
		for _, r := range others {
			it, inf, err := adapt[T](r)
			if err != nil {
				_ = closeAll(parts[1:])
				return nil, 0, err
			}
			infinite = infinite && inf
			parts = append(parts, it)
		}
		if pullers, ok := allPullers(parts); ok {
			return &zipAllPuller[T]{parts: pullers}, BranchImmediate, nil
		}
		return &zipAllIter[T]{parts: parts}, BranchSuspendingSource, nil
	})
	q.infinite = q.infinite && infinite
	return q
}

func allPullers[T any](parts []Iterator[T]) ([]puller[T], bool) {
	out := make([]puller[T], len(parts))
	for i, it := range parts {
		pl, ok := it.(puller[T])
		if !ok {
			return nil, false
		}
		out[i] = pl
	}
	return out, true
}

func closeAll[T any](parts []Iterator[T]) error {
	var errs []error
	for _, it := range parts {
		if err := it.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// --- chain ---

type chainPuller[T any] struct {
	parts []puller[T]
	idx   int
}

func (s *chainPuller[T]) pull() (T, bool, error) {
	for s.idx < len(s.parts) {
		v, ok, err := s.parts[s.idx].pull()
		if err != nil {
			return v, false, err
		}
		if ok {
			return v, true, nil
		}
		s.idx++
	}
	var zero T
	return zero, false, nil
}

func (s *chainPuller[T]) Next(context.Context) (T, bool, error) { return s.pull() }

func (s *chainPuller[T]) Close() error {
	s.idx = len(s.parts)
	var errs []error
	for _, it := range s.parts {
		if err := it.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

type chainIter[T any] struct {
	parts []Iterator[T]
	idx   int
}

func (s *chainIter[T]) Next(ctx context.Context) (T, bool, error) {
	for s.idx < len(s.parts) {
		v, ok, err := s.parts[s.idx].Next(ctx)
		if err != nil {
			return v, false, err
		}
		if ok {
			return v, true, nil
		}
		s.idx++
	}
	var zero T
	return zero, false, nil
}

func (s *chainIter[T]) Close() error {
	s.idx = len(s.parts)
	return closeAll(s.parts)
}

// --- flatten ---

func flattenElement[T any](v any) (Iterator[T], error) {
	it, err := Adapt[T](v)
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.ErrCodeUnsupportedSource {
			appErr.Evaluation = true
			appErr.WithDetail("operation", "Flatten")
		}
		return nil, err
	}
	return it, nil
}

type flattenPuller[T, S any] struct {
	outer puller[S]
	inner puller[T]
}

func (s *flattenPuller[T, S]) pull() (T, bool, error) {
	var zero T
	for {
		if s.inner != nil {
			v, ok, err := s.inner.pull()
			if err != nil {
				return zero, false, err
			}
			if ok {
				return v, true, nil
			}
			_ = s.inner.Close()
			s.inner = nil
		}
		elem, ok, err := s.outer.pull()
		if err != nil || !ok {
			return zero, false, err
		}
		it, err := flattenElement[T](elem)
		if err != nil {
			return zero, false, err
		}
		s.inner = it.(puller[T])
	}
}

func (s *flattenPuller[T, S]) Next(context.Context) (T, bool, error) { return s.pull() }

func (s *flattenPuller[T, S]) Close() error {
	var errs []error
	if s.inner != nil {
		errs = append(errs, s.inner.Close())
		s.inner = nil
	}
	errs = append(errs, s.outer.Close())
	return stderrors.Join(errs...)
}

type flattenIter[T, S any] struct {
	outer Iterator[S]
	inner Iterator[T]
}

func (s *flattenIter[T, S]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	for {
		if s.inner != nil {
			v, ok, err := s.inner.Next(ctx)
			if err != nil {
				return zero, false, err
			}
			if ok {
				return v, true, nil
			}
			_ = s.inner.Close()
			s.inner = nil
		}
		elem, ok, err := s.outer.Next(ctx)
		if err != nil || !ok {
			return zero, false, err
		}
		if s.inner, err = flattenElement[T](elem); err != nil {
			return zero, false, err
		}
	}
}

func (s *flattenIter[T, S]) Close() error {
	var errs []error
	if s.inner != nil {
		errs = append(errs, s.inner.Close())
		s.inner = nil
	}
	errs = append(errs, s.outer.Close())
	return stderrors.Join(errs...)
}

// --- zip ---

type zipPuller[A, B any] struct {
	a    puller[A]
	b    puller[B]
	done bool
}

func (s *zipPuller[A, B]) pull() (Pair[A, B], bool, error) {
	if s.done {
		return Pair[A, B]{}, false, nil
	}
	a, ok, err := s.a.pull()
	if err != nil || !ok {
		s.done = err == nil
		return Pair[A, B]{}, false, err
	}
	b, ok, err := s.b.pull()
	if err != nil || !ok {
		s.done = err == nil
		return Pair[A, B]{}, false, err
	}
	return Pair[A, B]{First: a, Second: b}, true, nil
}

func (s *zipPuller[A, B]) Next(context.Context) (Pair[A, B], bool, error) { return s.pull() }

func (s *zipPuller[A, B]) Close() error {
	s.done = true
	return stderrors.Join(s.a.Close(), s.b.Close())
}

type zipIter[A, B any] struct {
	a    Iterator[A]
	b    Iterator[B]
	done bool
}

func (s *zipIter[A, B]) Next(ctx context.Context) (Pair[A, B], bool, error) {
	if s.done {
		return Pair[A, B]{}, false, nil
	}
	a, ok, err := s.a.Next(ctx)
	if err != nil || !ok {
		s.done = err == nil
		return Pair[A, B]{}, false, err
	}
	b, ok, err := s.b.Next(ctx)
	if err != nil || !ok {
		s.done = err == nil
		return Pair[A, B]{}, false, err
	}
	return Pair[A, B]{First: a, Second: b}, true, nil
}

func (s *zipIter[A, B]) Close() error {
	s.done = true
	return stderrors.Join(s.a.Close(), s.b.Close())
}

type zipAllPuller[T any] struct {
	parts []puller[T]
	done  bool
}

func (s *zipAllPuller[T]) pull() ([]T, bool, error) {
	if s.done {
		return nil, false, nil
	}
	row := make([]T, len(s.parts))
	for i, it := range s.parts {
		v, ok, err := it.pull()
		if err != nil || !ok {
			s.done = err == nil
			return nil, false, err
		}
		row[i] = v
	}
	return row, true, nil
}

func (s *zipAllPuller[T]) Next(context.Context) ([]T, bool, error) { return s.pull() }

func (s *zipAllPuller[T]) Close() error {
	s.done = true
	var errs []error
	for _, it := range s.parts {
		errs = append(errs, it.Close())
	}
	return stderrors.Join(errs...)
}

type zipAllIter[T any] struct {
	parts []Iterator[T]
	done  bool
}

func (s *zipAllIter[T]) Next(ctx context.Context) ([]T, bool, error) {
	if s.done {
		return nil, false, nil
	}
	row := make([]T, len(s.parts))
	for i, it := range s.parts {
		v, ok, err := it.Next(ctx)
		if err != nil || !ok {
			s.done = err == nil
			return nil, false, err
		}
		row[i] = v
	}
	return row, true, nil
}

func (s *zipAllIter[T]) Close() error {
	s.done = true
	return closeAll(s.parts)
}
