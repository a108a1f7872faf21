package pipeline

import (
	"cmp"
	"context"
	"slices"

	apperrors "github.com/kbukum/seqkit/errors"
)

// Sort consumes the whole upstream on the first pull and emits it in
// ascending order. The sort is stable.
func Sort[T cmp.Ordered](p *Pipeline[T]) *Pipeline[T] {
	return p.sortFunc("Sort", cmp.Compare[T])
}

// SortFunc is Sort ordered by compare, which returns a negative number
// when a < b, a positive number when a > b and zero when they are equal.
func (p *Pipeline[T]) SortFunc(compare func(a, b T) int) *Pipeline[T] {
	return p.sortFunc("SortFunc", compare)
}

func (p *Pipeline[T]) sortFunc(op string, compare func(a, b T) int) *Pipeline[T] {
	if compare == nil {
		p.fail(op, apperrors.NotCallable(op))
		return p
	}
	return p.materialize(op, func(buf []T) { slices.SortStableFunc(buf, compare) })
}

type keyed[K, T any] struct {
	key  K
	elem T
}

// SortBy is a stable sort by key(x). Keys are computed once per element,
// while the upstream is consumed, so key may suspend.
func SortBy[T any, K cmp.Ordered](p *Pipeline[T], key Func[T, K]) *Pipeline[T] {
	if !p.guardInfinite("SortBy") {
		return p
	}
	limit := p.opts.limit
	return p.attach("SortBy", func(src Iterator[T]) (Iterator[T], Branch, error) {
		if !key.Callable() {
			return nil, 0, apperrors.NotCallable("SortBy")
		}
		buf := &buffer[keyed[K, T]]{op: "SortBy", limit: limit, finish: func(buf []keyed[K, T]) {
			slices.SortStableFunc(buf, func(a, b keyed[K, T]) int { return cmp.Compare(a.key, b.key) })
		}}
		unwrap := func(k keyed[K, T]) T { return k.elem }
		it, b := stageFor(src, key.Immediate(),
			func(src puller[T]) Iterator[T] {
				fn := key.fn
				pairs := &mapPuller[T, keyed[K, T]]{src: src, fn: func(v T) keyed[K, T] {
					return keyed[K, T]{key: fn(v), elem: v}
				}}
				return &mapPuller[keyed[K, T], T]{src: &bufferPuller[keyed[K, T]]{src: pairs, buf: buf}, fn: unwrap}
			},
			func(src Iterator[T]) Iterator[T] {
				fn := key.suspending()
				pairs := &mapIter[T, keyed[K, T]]{src: src, fn: func(ctx context.Context, v T) (keyed[K, T], error) {
					k, err := fn(ctx, v)
					return keyed[K, T]{key: k, elem: v}, err
				}}
				return &mapIter[keyed[K, T], T]{src: &bufferIter[keyed[K, T]]{src: pairs, buf: buf}, fn: func(_ context.Context, k keyed[K, T]) (T, error) {
					return unwrap(k), nil
				}}
			},
		)
		return it, b, nil
	})
}

// Reverse consumes the whole upstream on the first pull and emits it in
// reverse order.
func (p *Pipeline[T]) Reverse() *Pipeline[T] {
	return p.materialize("Reverse", slices.Reverse[[]T])
}

// materialize attaches a stage that buffers the whole upstream, applies
// finish to the buffer and then emits it.
func (p *Pipeline[T]) materialize(op string, finish func([]T)) *Pipeline[T] {
	if !p.guardInfinite(op) {
		return p
	}
	limit := p.opts.limit
	return p.attach(op, func(src Iterator[T]) (Iterator[T], Branch, error) {
		buf := &buffer[T]{op: op, limit: limit, finish: finish}
		b := sourceBranch(src)
		if pl, ok := src.(puller[T]); ok {
			return &bufferPuller[T]{src: pl, buf: buf}, b, nil
		}
		return &bufferIter[T]{src: src, buf: buf}, b, nil
	})
}

type buffer[T any] struct {
	op     string
	limit  int
	finish func([]T)
	items  []T
	loaded bool
	next   int
}

func (b *buffer[T]) add(v T) error {
	if b.limit > 0 && len(b.items) >= b.limit {
		return apperrors.MaterializeLimit(b.op, b.limit)
	}
	b.items = append(b.items, v)
	return nil
}

func (b *buffer[T]) done() {
	b.loaded = true
	b.finish(b.items)
}

func (b *buffer[T]) emit() (T, bool, error) {
	var zero T
	if b.next >= len(b.items) {
		b.items = nil
		return zero, false, nil
	}
	v := b.items[b.next]
	b.items[b.next] = zero
	b.next++
	return v, true, nil
}

type bufferPuller[T any] struct {
	src puller[T]
	buf *buffer[T]
}

func (s *bufferPuller[T]) pull() (T, bool, error) {
	if !s.buf.loaded {
		for {
			v, ok, err := s.src.pull()
			if err != nil {
				return v, false, err
			}
			if !ok {
				break
			}
			if err := s.buf.add(v); err != nil {
				var zero T
				return zero, false, err
			}
		}
		s.buf.done()
	}
	return s.buf.emit()
}

func (s *bufferPuller[T]) Next(context.Context) (T, bool, error) { return s.pull() }
func (s *bufferPuller[T]) Close() error                          { return s.src.Close() }

type bufferIter[T any] struct {
	src Iterator[T]
	buf *buffer[T]
}

func (s *bufferIter[T]) Next(ctx context.Context) (T, bool, error) {
	if !s.buf.loaded {
		for {
			v, ok, err := s.src.Next(ctx)
			if err != nil {
				return v, false, err
			}
			if !ok {
				break
			}
			if err := s.buf.add(v); err != nil {
				var zero T
				return zero, false, err
			}
		}
		s.buf.done()
	}
	return s.buf.emit()
}

func (s *bufferIter[T]) Close() error { return s.src.Close() }
