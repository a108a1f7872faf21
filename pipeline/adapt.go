package pipeline

import (
	"context"
	"io"
	"iter"

	apperrors "github.com/kbukum/seqkit/errors"
)

// Adapt normalizes source into an Iterator. Accepted sources, checked in
// order:
//
//   - nil: an exhausted sequence
//   - *Pipeline[T]: its chain, taken over by the caller
//   - Cursor[T]: immediate (checked before Iterator, so a type offering
//     both is pulled without suspending)
//   - Iterator[T]: wrapped so exhaustion and errors are sticky
//   - func() (T, bool): immediate
//   - func(context.Context) (T, bool, error): suspending
//   - []T: immediate
//   - iter.Seq[T] or func(func(T) bool): immediate, via iter.Pull
//   - interface{ All() iter.Seq[T] }: as iter.Seq
//   - Iterable[T]: its iterator
//   - <-chan T, chan T: suspending
//
// Anything else fails with ErrUnsupportedSource.
func Adapt[T any](source any) (Iterator[T], error) {
	it, _, err := adapt[T](source)
	return it, err
}

// adapt is Adapt that also reports whether the source is a pipeline, or an
// Iterable handing one out, flagged infinite.
func adapt[T any](source any) (Iterator[T], bool, error) {
	switch s := source.(type) {
	case nil:
		return empty[T]{}, false, nil
	case *Pipeline[T]:
		if s == nil {
			return empty[T]{}, false, nil
		}
		return s.detach()
	case puller[T]:
		return s, false, nil
	case Cursor[T]:
		return &cursorSource[T]{cur: s}, false, nil
	case Iterator[T]:
		return &guard[T]{src: s}, false, nil
	case func() (T, bool):
		if s == nil {
			return empty[T]{}, false, nil
		}
		return &funcCursor[T]{fn: s}, false, nil
	case func(context.Context) (T, bool, error):
		if s == nil {
			return empty[T]{}, false, nil
		}
		return &funcIter[T]{fn: s}, false, nil
	case []T:
		return &sliceIter[T]{items: s}, false, nil
	case iter.Seq[T]:
		return seqSource(s), false, nil
	case func(func(T) bool):
		return seqSource(s), false, nil
	case interface{ All() iter.Seq[T] }:
		return seqSource(s.All()), false, nil
	case Iterable[T]:
		it := s.Iter()
		if it == nil {
			return empty[T]{}, false, nil
		}
		return adapt[T](it)
	case <-chan T:
		return &chanIter[T]{ch: s}, false, nil
	case chan T:
		return &chanIter[T]{ch: s}, false, nil
	}
	return nil, false, apperrors.UnsupportedSource(source)
}

// immediateSource reports whether a source of static type S always adapts
// to an immediate stage. Flatten uses it to pick its branch.
func immediateSource[S, T any]() bool {
	var zero S
	switch any(zero).(type) {
	case []T, iter.Seq[T], func(func(T) bool), func() (T, bool):
		return true
	}
	return false
}

// --- Immediate sources ---

type empty[T any] struct{}

func (empty[T]) pull() (T, bool, error) {
	var zero T
	return zero, false, nil
}

func (e empty[T]) Next(context.Context) (T, bool, error) { return e.pull() }

func (empty[T]) Close() error { return nil }

type sliceIter[T any] struct {
	items []T
	index int
}

func (it *sliceIter[T]) pull() (T, bool, error) {
	if it.index >= len(it.items) {
		var zero T
		return zero, false, nil
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *sliceIter[T]) Next(context.Context) (T, bool, error) { return it.pull() }

func (it *sliceIter[T]) Close() error {
	it.index = len(it.items)
	return nil
}

type cursorSource[T any] struct {
	cur  Cursor[T]
	done bool
}

func (it *cursorSource[T]) pull() (T, bool, error) {
	var zero T
	if it.done {
		return zero, false, nil
	}
	v, ok := it.cur.Pull()
	if !ok {
		it.done = true
		return zero, false, nil
	}
	return v, true, nil
}

func (it *cursorSource[T]) Next(context.Context) (T, bool, error) { return it.pull() }

func (it *cursorSource[T]) Close() error {
	it.done = true
	if c, ok := it.cur.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type funcCursor[T any] struct {
	fn   func() (T, bool)
	done bool
}

func (it *funcCursor[T]) pull() (T, bool, error) {
	var zero T
	if it.done {
		return zero, false, nil
	}
	v, ok := it.fn()
	if !ok {
		it.done = true
		return zero, false, nil
	}
	return v, true, nil
}

func (it *funcCursor[T]) Next(context.Context) (T, bool, error) { return it.pull() }

func (it *funcCursor[T]) Close() error {
	it.done = true
	return nil
}

// seqCursor pulls from an iter.Seq. The iter.Pull coroutine is started on
// the first pull and stopped on exhaustion or Close.
type seqCursor[T any] struct {
	seq  iter.Seq[T]
	next func() (T, bool)
	stop func()
	done bool
}

func seqSource[T any](seq iter.Seq[T]) Iterator[T] {
	if seq == nil {
		return empty[T]{}
	}
	return &seqCursor[T]{seq: seq}
}

func (it *seqCursor[T]) pull() (T, bool, error) {
	var zero T
	if it.done {
		return zero, false, nil
	}
	if it.next == nil {
		it.next, it.stop = iter.Pull(it.seq)
	}
	v, ok := it.next()
	if !ok {
		it.finish()
		return zero, false, nil
	}
	return v, true, nil
}

func (it *seqCursor[T]) finish() {
	it.done = true
	if it.stop != nil {
		it.stop()
		it.stop = nil
	}
}

func (it *seqCursor[T]) Next(context.Context) (T, bool, error) { return it.pull() }

func (it *seqCursor[T]) Close() error {
	it.finish()
	return nil
}

// --- Suspending sources ---

// guard makes exhaustion and errors of a foreign Iterator sticky.
type guard[T any] struct {
	src  Iterator[T]
	done bool
	err  error
}

func (it *guard[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if it.done {
		return zero, false, it.err
	}
	v, ok, err := it.src.Next(ctx)
	if err != nil {
		it.done, it.err = true, err
		return zero, false, err
	}
	if !ok {
		it.done = true
		return zero, false, nil
	}
	return v, true, nil
}

func (it *guard[T]) Close() error {
	it.done = true
	return it.src.Close()
}

type funcIter[T any] struct {
	fn   func(context.Context) (T, bool, error)
	done bool
	err  error
}

func (it *funcIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if it.done {
		return zero, false, it.err
	}
	v, ok, err := it.fn(ctx)
	if err != nil {
		it.done, it.err = true, err
		return zero, false, err
	}
	if !ok {
		it.done = true
		return zero, false, nil
	}
	return v, true, nil
}

func (it *funcIter[T]) Close() error {
	it.done = true
	return nil
}

// chanIter receives from a channel it does not own. A cancelled context
// interrupts the receive without ending the sequence.
type chanIter[T any] struct {
	ch   <-chan T
	done bool
}

func (it *chanIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if it.done {
		return zero, false, nil
	}
	select {
	case v, open := <-it.ch:
		if !open {
			it.done = true
			return zero, false, nil
		}
		return v, true, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

func (it *chanIter[T]) Close() error {
	it.done = true
	return nil
}
