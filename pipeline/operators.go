package pipeline

import (
	"context"

	apperrors "github.com/kbukum/seqkit/errors"
)

// stageFor builds the stage for a function-taking combinator. The branch is
// chosen here, once; immediate is only used when both sides are immediate.
func stageFor[T, U any](src Iterator[T], fnImmediate bool,
	immediate func(puller[T]) Iterator[U],
	suspending func(Iterator[T]) Iterator[U],
) (Iterator[U], Branch) {
	b := branchOf(isImmediate(src), fnImmediate)
	if b == BranchImmediate {
		return immediate(src.(puller[T])), b
	}
	return suspending(src), b
}

// Map transforms each element with fn.
func Map[T, U any](p *Pipeline[T], fn Func[T, U]) *Pipeline[U] {
	return mapAs(p, "Map", fn)
}

func mapAs[T, U any](p *Pipeline[T], op string, fn Func[T, U]) *Pipeline[U] {
	return derive(p, op, func(src Iterator[T]) (Iterator[U], Branch, error) {
		if !fn.Callable() {
			return nil, 0, apperrors.NotCallable(op)
		}
		it, b := stageFor(src, fn.Immediate(),
			func(src puller[T]) Iterator[U] { return &mapPuller[T, U]{src: src, fn: fn.fn} },
			func(src Iterator[T]) Iterator[U] { return &mapIter[T, U]{src: src, fn: fn.suspending()} },
		)
		return it, b, nil
	})
}

// Filter keeps only elements that satisfy pred.
func (p *Pipeline[T]) Filter(pred Func[T, bool]) *Pipeline[T] {
	return p.attach("Filter", filterStage(pred, true, "Filter"))
}

// FilterFalse keeps only elements that do not satisfy pred.
func (p *Pipeline[T]) FilterFalse(pred Func[T, bool]) *Pipeline[T] {
	return p.attach("FilterFalse", filterStage(pred, false, "FilterFalse"))
}

func filterStage[T any](pred Func[T, bool], keep bool, op string) buildFunc[T, T] {
	return func(src Iterator[T]) (Iterator[T], Branch, error) {
		if !pred.Callable() {
			return nil, 0, apperrors.NotCallable(op)
		}
		it, b := stageFor(src, pred.Immediate(),
			func(src puller[T]) Iterator[T] { return &filterPuller[T]{src: src, fn: pred.fn, keep: keep} },
			func(src Iterator[T]) Iterator[T] { return &filterIter[T]{src: src, fn: pred.suspending(), keep: keep} },
		)
		return it, b, nil
	}
}

// Inspect calls fn for each element as it passes and emits it unchanged.
func (p *Pipeline[T]) Inspect(fn Action[T]) *Pipeline[T] {
	return p.attach("Inspect", inspectStage(fn, "Inspect"))
}

// Tee hands each element to every receiver, in order, before emitting it.
// Each receiver becomes its own inspect stage.
func (p *Pipeline[T]) Tee(receivers ...Action[T]) *Pipeline[T] {
	for _, r := range receivers {
		p.attach("Tee", inspectStage(r, "Tee"))
	}
	return p
}

func inspectStage[T any](fn Action[T], op string) buildFunc[T, T] {
	return func(src Iterator[T]) (Iterator[T], Branch, error) {
		if !fn.Callable() {
			return nil, 0, apperrors.NotCallable(op)
		}
		it, b := stageFor(src, fn.Immediate(),
			func(src puller[T]) Iterator[T] { return &inspectPuller[T]{src: src, fn: fn.do} },
			func(src Iterator[T]) Iterator[T] { return &inspectIter[T]{src: src, fn: fn.suspending()} },
		)
		return it, b, nil
	}
}

// Appender receives elements immediately.
type Appender[T any] interface {
	Append(T)
}

// ContextAppender receives elements through a suspending call.
type ContextAppender[T any] interface {
	Append(context.Context, T) error
}

// Into returns a Tee receiver that appends to dst.
func Into[T any](dst *[]T) Action[T] {
	if dst == nil {
		return Action[T]{}
	}
	return Do(func(v T) { *dst = append(*dst, v) })
}

// AppendTo returns a Tee receiver backed by r.
func AppendTo[T any](r Appender[T]) Action[T] {
	if r == nil {
		return Action[T]{}
	}
	return Do(r.Append)
}

// AppendToCtx returns a suspending Tee receiver backed by r.
func AppendToCtx[T any](r ContextAppender[T]) Action[T] {
	if r == nil {
		return Action[T]{}
	}
	return DoCtx(r.Append)
}

// SkipWhile discards elements while pred holds. The first element that
// fails pred and everything after it are emitted; pred is not called again.
func (p *Pipeline[T]) SkipWhile(pred Func[T, bool]) *Pipeline[T] {
	return p.attach("SkipWhile", func(src Iterator[T]) (Iterator[T], Branch, error) {
		if !pred.Callable() {
			return nil, 0, apperrors.NotCallable("SkipWhile")
		}
		it, b := stageFor(src, pred.Immediate(),
			func(src puller[T]) Iterator[T] { return &skipWhilePuller[T]{src: src, fn: pred.fn} },
			func(src Iterator[T]) Iterator[T] { return &skipWhileIter[T]{src: src, fn: pred.suspending()} },
		)
		return it, b, nil
	})
}

// TakeWhile emits elements while pred holds and ends at the first element
// that fails it; that element is not emitted. Clears the infinite flag.
func (p *Pipeline[T]) TakeWhile(pred Func[T, bool]) *Pipeline[T] {
	p.attach("TakeWhile", func(src Iterator[T]) (Iterator[T], Branch, error) {
		if !pred.Callable() {
			return nil, 0, apperrors.NotCallable("TakeWhile")
		}
		it, b := stageFor(src, pred.Immediate(),
			func(src puller[T]) Iterator[T] { return &takeWhilePuller[T]{src: src, fn: pred.fn} },
			func(src Iterator[T]) Iterator[T] { return &takeWhileIter[T]{src: src, fn: pred.suspending()} },
		)
		return it, b, nil
	})
	if p.err == nil {
		p.infinite = false
	}
	return p
}

// --- map ---

type mapPuller[T, U any] struct {
	src puller[T]
	fn  func(T) U
}

func (s *mapPuller[T, U]) pull() (U, bool, error) {
	v, ok, err := s.src.pull()
	if err != nil || !ok {
		var zero U
		return zero, false, err
	}
	return s.fn(v), true, nil
}

func (s *mapPuller[T, U]) Next(context.Context) (U, bool, error) { return s.pull() }
func (s *mapPuller[T, U]) Close() error                          { return s.src.Close() }

type mapIter[T, U any] struct {
	src Iterator[T]
	fn  func(context.Context, T) (U, error)
}

func (s *mapIter[T, U]) Next(ctx context.Context) (U, bool, error) {
	var zero U
	v, ok, err := s.src.Next(ctx)
	if err != nil || !ok {
		return zero, false, err
	}
	out, err := s.fn(ctx, v)
	if err != nil {
		return zero, false, err
	}
	return out, true, nil
}

func (s *mapIter[T, U]) Close() error { return s.src.Close() }

// --- filter ---

type filterPuller[T any] struct {
	src  puller[T]
	fn   func(T) bool
	keep bool
}

func (s *filterPuller[T]) pull() (T, bool, error) {
	for {
		v, ok, err := s.src.pull()
		if err != nil || !ok {
			return v, false, err
		}
		if s.fn(v) == s.keep {
			return v, true, nil
		}
	}
}

func (s *filterPuller[T]) Next(context.Context) (T, bool, error) { return s.pull() }
func (s *filterPuller[T]) Close() error                          { return s.src.Close() }

type filterIter[T any] struct {
	src  Iterator[T]
	fn   func(context.Context, T) (bool, error)
	keep bool
}

func (s *filterIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	for {
		v, ok, err := s.src.Next(ctx)
		if err != nil || !ok {
			return zero, false, err
		}
		match, err := s.fn(ctx, v)
		if err != nil {
			return zero, false, err
		}
		if match == s.keep {
			return v, true, nil
		}
	}
}

func (s *filterIter[T]) Close() error { return s.src.Close() }

// --- inspect ---

type inspectPuller[T any] struct {
	src puller[T]
	fn  func(T)
}

func (s *inspectPuller[T]) pull() (T, bool, error) {
	v, ok, err := s.src.pull()
	if err != nil || !ok {
		return v, false, err
	}
	s.fn(v)
	return v, true, nil
}

func (s *inspectPuller[T]) Next(context.Context) (T, bool, error) { return s.pull() }
func (s *inspectPuller[T]) Close() error                          { return s.src.Close() }

type inspectIter[T any] struct {
	src Iterator[T]
	fn  func(context.Context, T) error
}

func (s *inspectIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	v, ok, err := s.src.Next(ctx)
	if err != nil || !ok {
		return zero, false, err
	}
	if err := s.fn(ctx, v); err != nil {
		return zero, false, err
	}
	return v, true, nil
}

func (s *inspectIter[T]) Close() error { return s.src.Close() }

// --- skip while ---

type skipWhilePuller[T any] struct {
	src    puller[T]
	fn     func(T) bool
	passed bool
}

func (s *skipWhilePuller[T]) pull() (T, bool, error) {
	for {
		v, ok, err := s.src.pull()
		if err != nil || !ok {
			return v, false, err
		}
		if s.passed || !s.fn(v) {
			s.passed = true
			return v, true, nil
		}
	}
}

func (s *skipWhilePuller[T]) Next(context.Context) (T, bool, error) { return s.pull() }
func (s *skipWhilePuller[T]) Close() error                          { return s.src.Close() }

type skipWhileIter[T any] struct {
	src    Iterator[T]
	fn     func(context.Context, T) (bool, error)
	passed bool
}

func (s *skipWhileIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	for {
		v, ok, err := s.src.Next(ctx)
		if err != nil || !ok {
			return zero, false, err
		}
		if s.passed {
			return v, true, nil
		}
		skip, err := s.fn(ctx, v)
		if err != nil {
			return zero, false, err
		}
		if !skip {
			s.passed = true
			return v, true, nil
		}
	}
}

func (s *skipWhileIter[T]) Close() error { return s.src.Close() }

// --- take while ---

type takeWhilePuller[T any] struct {
	src  puller[T]
	fn   func(T) bool
	done bool
}

func (s *takeWhilePuller[T]) pull() (T, bool, error) {
	var zero T
	if s.done {
		return zero, false, nil
	}
	v, ok, err := s.src.pull()
	if err != nil || !ok {
		return zero, false, err
	}
	if !s.fn(v) {
		s.done = true
		return zero, false, nil
	}
	return v, true, nil
}

func (s *takeWhilePuller[T]) Next(context.Context) (T, bool, error) { return s.pull() }
func (s *takeWhilePuller[T]) Close() error                          { return s.src.Close() }

type takeWhileIter[T any] struct {
	src  Iterator[T]
	fn   func(context.Context, T) (bool, error)
	done bool
}

func (s *takeWhileIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if s.done {
		return zero, false, nil
	}
	v, ok, err := s.src.Next(ctx)
	if err != nil || !ok {
		return zero, false, err
	}
	keep, err := s.fn(ctx, v)
	if err != nil {
		return zero, false, err
	}
	if !keep {
		s.done = true
		return zero, false, nil
	}
	return v, true, nil
}

func (s *takeWhileIter[T]) Close() error { return s.src.Close() }
