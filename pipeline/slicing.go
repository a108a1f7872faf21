package pipeline

import (
	"context"

	apperrors "github.com/kbukum/seqkit/errors"
)

// Skip discards the first n elements and emits the rest. n <= 0 emits
// everything.
func (p *Pipeline[T]) Skip(n int) *Pipeline[T] {
	return p.attach("Skip", func(src Iterator[T]) (Iterator[T], Branch, error) {
		b := sourceBranch(src)
		if pl, ok := src.(puller[T]); ok {
			return &skipPuller[T]{src: pl, n: n}, b, nil
		}
		return &skipIter[T]{src: src, n: n}, b, nil
	})
}

// Take emits at most the first n elements. n <= 0 emits nothing. Clears
// the infinite flag.
func (p *Pipeline[T]) Take(n int) *Pipeline[T] {
	p.attach("Take", func(src Iterator[T]) (Iterator[T], Branch, error) {
		b := sourceBranch(src)
		if pl, ok := src.(puller[T]); ok {
			return &takePuller[T]{src: pl, remaining: n}, b, nil
		}
		return &takeIter[T]{src: src, remaining: n}, b, nil
	})
	if p.err == nil {
		p.infinite = false
	}
	return p
}

// StepBy emits the element at position 0 and every step-th element after
// it. step == 1 attaches nothing; step < 1 records ErrInvalidArgument.
func (p *Pipeline[T]) StepBy(step int) *Pipeline[T] {
	if step == 1 {
		return p
	}
	return p.attach("StepBy", func(src Iterator[T]) (Iterator[T], Branch, error) {
		if step < 1 {
			return nil, 0, apperrors.InvalidArgument("StepBy", "step", step)
		}
		b := sourceBranch(src)
		if pl, ok := src.(puller[T]); ok {
			return &stepPuller[T]{src: pl, step: step}, b, nil
		}
		return &stepIter[T]{src: src, step: step}, b, nil
	})
}

// Enumeration pairs an element with its position in the emitted sequence.
type Enumeration[T any] struct {
	Index   int
	Element T
}

// Enumerate emits each element with its index, starting at 0.
func Enumerate[T any](p *Pipeline[T]) *Pipeline[Enumeration[T]] {
	return derive(p, "Enumerate", func(src Iterator[T]) (Iterator[Enumeration[T]], Branch, error) {
		b := sourceBranch(src)
		if pl, ok := src.(puller[T]); ok {
			return &enumeratePuller[T]{src: pl}, b, nil
		}
		return &enumerateIter[T]{src: src}, b, nil
	})
}

// --- skip ---

type skipPuller[T any] struct {
	src puller[T]
	n   int
}

func (s *skipPuller[T]) pull() (T, bool, error) {
	for ; s.n > 0; s.n-- {
		if _, ok, err := s.src.pull(); err != nil || !ok {
			var zero T
			return zero, false, err
		}
	}
	return s.src.pull()
}

func (s *skipPuller[T]) Next(context.Context) (T, bool, error) { return s.pull() }
func (s *skipPuller[T]) Close() error                          { return s.src.Close() }

type skipIter[T any] struct {
	src Iterator[T]
	n   int
}

func (s *skipIter[T]) Next(ctx context.Context) (T, bool, error) {
	for ; s.n > 0; s.n-- {
		if _, ok, err := s.src.Next(ctx); err != nil || !ok {
			var zero T
			return zero, false, err
		}
	}
	return s.src.Next(ctx)
}

func (s *skipIter[T]) Close() error { return s.src.Close() }

// --- take ---

type takePuller[T any] struct {
	src       puller[T]
	remaining int
}

func (s *takePuller[T]) pull() (T, bool, error) {
	if s.remaining <= 0 {
		var zero T
		return zero, false, nil
	}
	v, ok, err := s.src.pull()
	if err != nil || !ok {
		s.remaining = 0
		return v, false, err
	}
	s.remaining--
	return v, true, nil
}

func (s *takePuller[T]) Next(context.Context) (T, bool, error) { return s.pull() }
func (s *takePuller[T]) Close() error                          { return s.src.Close() }

type takeIter[T any] struct {
	src       Iterator[T]
	remaining int
}

func (s *takeIter[T]) Next(ctx context.Context) (T, bool, error) {
	if s.remaining <= 0 {
		var zero T
		return zero, false, nil
	}
	v, ok, err := s.src.Next(ctx)
	if err != nil || !ok {
		return v, false, err
	}
	s.remaining--
	return v, true, nil
}

func (s *takeIter[T]) Close() error { return s.src.Close() }

// --- step ---

// stepPuller emits the first element, then discards step-1 elements before
// each following one.
type stepPuller[T any] struct {
	src     puller[T]
	step    int
	started bool
}

func (s *stepPuller[T]) pull() (T, bool, error) {
	if s.started {
		for i := 1; i < s.step; i++ {
			if _, ok, err := s.src.pull(); err != nil || !ok {
				var zero T
				return zero, false, err
			}
		}
	}
	s.started = true
	return s.src.pull()
}

func (s *stepPuller[T]) Next(context.Context) (T, bool, error) { return s.pull() }
func (s *stepPuller[T]) Close() error                          { return s.src.Close() }

type stepIter[T any] struct {
	src     Iterator[T]
	step    int
	started bool
}

func (s *stepIter[T]) Next(ctx context.Context) (T, bool, error) {
	if s.started {
		for i := 1; i < s.step; i++ {
			if _, ok, err := s.src.Next(ctx); err != nil || !ok {
				var zero T
				return zero, false, err
			}
		}
	}
	s.started = true
	return s.src.Next(ctx)
}

func (s *stepIter[T]) Close() error { return s.src.Close() }

// --- enumerate ---

type enumeratePuller[T any] struct {
	src   puller[T]
	index int
}

func (s *enumeratePuller[T]) pull() (Enumeration[T], bool, error) {
	v, ok, err := s.src.pull()
	if err != nil || !ok {
		return Enumeration[T]{}, false, err
	}
	e := Enumeration[T]{Index: s.index, Element: v}
	s.index++
	return e, true, nil
}

func (s *enumeratePuller[T]) Next(context.Context) (Enumeration[T], bool, error) { return s.pull() }
func (s *enumeratePuller[T]) Close() error                                       { return s.src.Close() }

type enumerateIter[T any] struct {
	src   Iterator[T]
	index int
}

func (s *enumerateIter[T]) Next(ctx context.Context) (Enumeration[T], bool, error) {
	v, ok, err := s.src.Next(ctx)
	if err != nil || !ok {
		return Enumeration[T]{}, false, err
	}
	e := Enumeration[T]{Index: s.index, Element: v}
	s.index++
	return e, true, nil
}

func (s *enumerateIter[T]) Close() error { return s.src.Close() }
