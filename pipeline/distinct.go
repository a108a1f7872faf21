package pipeline

import (
	"context"
	"runtime"
	"strings"

	apperrors "github.com/kbukum/seqkit/errors"
)

// Distinct emits each element the first time it is seen.
//
// T only has to be comparable at compile time. Interface-typed elements
// whose dynamic value is not hashable (a slice in an any, for instance) fail
// the pull with ErrUnhashableKey instead of panicking.
func Distinct[T comparable](p *Pipeline[T]) *Pipeline[T] {
	return p.attach("Distinct", func(src Iterator[T]) (Iterator[T], Branch, error) {
		seen := newKeySet[T]("Distinct", p.opts.limit)
		b := sourceBranch(src)
		if pl, ok := src.(puller[T]); ok {
			return &distinctPuller[T, T]{src: pl, key: identity[T], seen: seen}, b, nil
		}
		return &distinctIter[T, T]{src: src, key: identityCtx[T], seen: seen}, b, nil
	})
}

// DistinctWith emits each element whose key has not been seen before.
func DistinctWith[T any, K comparable](p *Pipeline[T], key Func[T, K]) *Pipeline[T] {
	return p.attach("DistinctWith", func(src Iterator[T]) (Iterator[T], Branch, error) {
		if !key.Callable() {
			return nil, 0, apperrors.NotCallable("DistinctWith")
		}
		seen := newKeySet[K]("DistinctWith", p.opts.limit)
		it, b := stageFor(src, key.Immediate(),
			func(src puller[T]) Iterator[T] { return &distinctPuller[T, K]{src: src, key: key.fn, seen: seen} },
			func(src Iterator[T]) Iterator[T] {
				return &distinctIter[T, K]{src: src, key: key.suspending(), seen: seen}
			},
		)
		return it, b, nil
	})
}

// GroupBy consumes the whole upstream on the first pull and then emits one
// slice per distinct key. Groups come out in the order their key was first
// seen; elements keep their encounter order within a group.
func GroupBy[T any, K comparable](p *Pipeline[T], key Func[T, K]) *Pipeline[[]T] {
	p.guardInfinite("GroupBy")
	limit := p.opts.limit
	return derive(p, "GroupBy", func(src Iterator[T]) (Iterator[[]T], Branch, error) {
		if !key.Callable() {
			return nil, 0, apperrors.NotCallable("GroupBy")
		}
		g := &grouper[T, K]{index: make(map[K]int), limit: limit}
		it, b := stageFor(src, key.Immediate(),
			func(src puller[T]) Iterator[[]T] { return &groupPuller[T, K]{src: src, key: key.fn, g: g} },
			func(src Iterator[T]) Iterator[[]T] {
				return &groupIter[T, K]{src: src, key: key.suspending(), g: g}
			},
		)
		return it, b, nil
	})
}

func identity[T any](v T) T { return v }

func identityCtx[T any](_ context.Context, v T) (T, error) { return v, nil }

// unhashablePanic is the prefix of the runtime error a map raises when it
// hashes an interface holding a slice, map or func, e.g.
// "runtime error: hash of unhashable type []int".
const unhashablePanic = "runtime error: hash of unhashable type"

// unhashable converts the runtime panic raised by hashing an unhashable
// interface value into an error. Any other panic is re-raised.
func unhashable(op string, key any, r any) error {
	if re, ok := r.(runtime.Error); ok && strings.HasPrefix(re.Error(), unhashablePanic) {
		return apperrors.UnhashableKey(op, key).WithCause(re)
	}
	panic(r)
}

// keySet is the seen-set of the distinct stages.
type keySet[K comparable] struct {
	op    string
	m     map[K]struct{}
	limit int
}

func newKeySet[K comparable](op string, limit int) *keySet[K] {
	return &keySet[K]{op: op, m: make(map[K]struct{}), limit: limit}
}

// add records k and reports whether it was new.
func (s *keySet[K]) add(k K) (fresh bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			fresh, err = false, unhashable(s.op, k, r)
		}
	}()
	if _, dup := s.m[k]; dup {
		return false, nil
	}
	if s.limit > 0 && len(s.m) >= s.limit {
		return false, apperrors.MaterializeLimit(s.op, s.limit)
	}
	s.m[k] = struct{}{}
	return true, nil
}

type distinctPuller[T any, K comparable] struct {
	src  puller[T]
	key  func(T) K
	seen *keySet[K]
}

func (s *distinctPuller[T, K]) pull() (T, bool, error) {
	var zero T
	for {
		v, ok, err := s.src.pull()
		if err != nil || !ok {
			return zero, false, err
		}
		fresh, err := s.seen.add(s.key(v))
		if err != nil {
			return zero, false, err
		}
		if fresh {
			return v, true, nil
		}
	}
}

func (s *distinctPuller[T, K]) Next(context.Context) (T, bool, error) { return s.pull() }
func (s *distinctPuller[T, K]) Close() error                          { return s.src.Close() }

type distinctIter[T any, K comparable] struct {
	src  Iterator[T]
	key  func(context.Context, T) (K, error)
	seen *keySet[K]
}

func (s *distinctIter[T, K]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	for {
		v, ok, err := s.src.Next(ctx)
		if err != nil || !ok {
			return zero, false, err
		}
		k, err := s.key(ctx, v)
		if err != nil {
			return zero, false, err
		}
		fresh, err := s.seen.add(k)
		if err != nil {
			return zero, false, err
		}
		if fresh {
			return v, true, nil
		}
	}
}

func (s *distinctIter[T, K]) Close() error { return s.src.Close() }

// grouper buffers elements by key in first-seen key order.
type grouper[T any, K comparable] struct {
	index  map[K]int
	groups [][]T
	size   int
	limit  int
	loaded bool
	next   int
}

func (g *grouper[T, K]) add(k K, v T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = unhashable("GroupBy", k, r)
		}
	}()
	if g.limit > 0 && g.size >= g.limit {
		return apperrors.MaterializeLimit("GroupBy", g.limit)
	}
	i, ok := g.index[k]
	if !ok {
		i = len(g.groups)
		g.index[k] = i
		g.groups = append(g.groups, nil)
	}
	g.groups[i] = append(g.groups[i], v)
	g.size++
	return nil
}

func (g *grouper[T, K]) emit() ([]T, bool, error) {
	if g.next >= len(g.groups) {
		return nil, false, nil
	}
	group := g.groups[g.next]
	g.groups[g.next] = nil
	g.next++
	return group, true, nil
}

func (g *grouper[T, K]) loadDone() {
	g.loaded = true
	g.index = nil
}

type groupPuller[T any, K comparable] struct {
	src puller[T]
	key func(T) K
	g   *grouper[T, K]
}

func (s *groupPuller[T, K]) pull() ([]T, bool, error) {
	if !s.g.loaded {
		for {
			v, ok, err := s.src.pull()
			if err != nil {
				return nil, false, err
			}
			if !ok {
				break
			}
			if err := s.g.add(s.key(v), v); err != nil {
				return nil, false, err
			}
		}
		s.g.loadDone()
	}
	return s.g.emit()
}

func (s *groupPuller[T, K]) Next(context.Context) ([]T, bool, error) { return s.pull() }
func (s *groupPuller[T, K]) Close() error                            { return s.src.Close() }

type groupIter[T any, K comparable] struct {
	src Iterator[T]
	key func(context.Context, T) (K, error)
	g   *grouper[T, K]
}

func (s *groupIter[T, K]) Next(ctx context.Context) ([]T, bool, error) {
	if !s.g.loaded {
		for {
			v, ok, err := s.src.Next(ctx)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				break
			}
			k, err := s.key(ctx, v)
			if err != nil {
				return nil, false, err
			}
			if err := s.g.add(k, v); err != nil {
				return nil, false, err
			}
		}
		s.g.loadDone()
	}
	return s.g.emit()
}

func (s *groupIter[T, K]) Close() error { return s.src.Close() }
