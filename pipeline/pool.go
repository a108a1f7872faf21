package pipeline

import (
	"context"

	apperrors "github.com/kbukum/seqkit/errors"
)

// Pool collects up to size elements and emits them as one slice. A final
// partial slice is emitted on exhaustion if it is not empty. size <= 0
// records ErrInvalidArgument.
//
//	Pool(FromSlice([]int{1, 2, 3, 4, 5}), 3) // [1 2 3] [4 5]
func Pool[T any](p *Pipeline[T], size int) *Pipeline[[]T] {
	return derive(p, "Pool", func(src Iterator[T]) (Iterator[[]T], Branch, error) {
		if size <= 0 {
			return nil, 0, apperrors.InvalidArgument("Pool", "size", size)
		}
		b := sourceBranch(src)
		if pl, ok := src.(puller[T]); ok {
			return &poolPuller[T]{src: pl, size: size}, b, nil
		}
		return &poolIter[T]{src: src, size: size}, b, nil
	})
}

type poolPuller[T any] struct {
	src  puller[T]
	size int
	done bool
}

func (it *poolPuller[T]) pull() ([]T, bool, error) {
	if it.done {
		return nil, false, nil
	}
	batch := make([]T, 0, it.size)
	for len(batch) < it.size {
		val, ok, err := it.src.pull()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			it.done = true
			break
		}
		batch = append(batch, val)
	}
	if len(batch) == 0 {
		return nil, false, nil
	}
	return batch, true, nil
}

func (it *poolPuller[T]) Next(context.Context) ([]T, bool, error) { return it.pull() }
func (it *poolPuller[T]) Close() error                            { return it.src.Close() }

type poolIter[T any] struct {
	src  Iterator[T]
	size int
	done bool
}

func (it *poolIter[T]) Next(ctx context.Context) ([]T, bool, error) {
	if it.done {
		return nil, false, nil
	}
	batch := make([]T, 0, it.size)
	for len(batch) < it.size {
		val, ok, err := it.src.Next(ctx)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			it.done = true
			break
		}
		batch = append(batch, val)
	}
	if len(batch) == 0 {
		return nil, false, nil
	}
	return batch, true, nil
}

func (it *poolIter[T]) Close() error { return it.src.Close() }
