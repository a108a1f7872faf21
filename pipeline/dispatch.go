package pipeline

import "context"

// Branch identifies which of the four stage shapes a combinator selected
// when it was attached. The choice depends on whether the upstream yields
// immediately and whether the user function suspends.
type Branch uint8

const (
	// BranchImmediate: immediate function over an immediate source. The
	// stage is itself immediate and never touches a context.
	BranchImmediate Branch = iota
	// BranchSuspendingSource: immediate function over a suspending source.
	BranchSuspendingSource
	// BranchSuspendingFunc: suspending function over an immediate source.
	BranchSuspendingFunc
	// BranchSuspending: suspending function over a suspending source.
	BranchSuspending
)

// String returns the branch name used in logs and diagnostics.
func (b Branch) String() string {
	switch b {
	case BranchImmediate:
		return "immediate"
	case BranchSuspendingSource:
		return "suspending-source"
	case BranchSuspendingFunc:
		return "suspending-func"
	case BranchSuspending:
		return "suspending"
	default:
		return "unknown"
	}
}

// Immediate reports whether a stage on this branch yields without suspending.
func (b Branch) Immediate() bool { return b == BranchImmediate }

// branchOf selects the branch for a stage. It runs once per attachment.
func branchOf(srcImmediate, fnImmediate bool) Branch {
	switch {
	case srcImmediate && fnImmediate:
		return BranchImmediate
	case fnImmediate:
		return BranchSuspendingSource
	case srcImmediate:
		return BranchSuspendingFunc
	default:
		return BranchSuspending
	}
}

// sourceBranch is the branch of a value-only stage: only the source matters.
func sourceBranch[T any](src Iterator[T]) Branch {
	return branchOf(isImmediate(src), true)
}

// --- Function wrappers ---

// Func is a one-argument transformation, either immediate (func(T) U) or
// suspending (func(ctx, T) (U, error)). Predicates are Func[T, bool].
// The zero Func cannot be called; attaching it records ErrNotCallable.
type Func[T, U any] struct {
	fn    func(T) U
	fnCtx func(context.Context, T) (U, error)
}

// Fn wraps an immediate function.
func Fn[T, U any](f func(T) U) Func[T, U] { return Func[T, U]{fn: f} }

// FnCtx wraps a suspending function.
func FnCtx[T, U any](f func(context.Context, T) (U, error)) Func[T, U] {
	return Func[T, U]{fnCtx: f}
}

// Callable reports whether f wraps a non-nil function.
func (f Func[T, U]) Callable() bool { return f.fn != nil || f.fnCtx != nil }

// Immediate reports whether f was built with Fn.
func (f Func[T, U]) Immediate() bool { return f.fn != nil }

// suspending returns f in the suspending signature. An immediate function
// is lifted without introducing a real suspension point.
func (f Func[T, U]) suspending() func(context.Context, T) (U, error) {
	if f.fnCtx != nil {
		return f.fnCtx
	}
	fn := f.fn
	return func(_ context.Context, v T) (U, error) { return fn(v), nil }
}

// Action is a side effect on one element: func(T) or func(ctx, T) error.
type Action[T any] struct {
	do    func(T)
	doCtx func(context.Context, T) error
}

// Do wraps an immediate side effect.
func Do[T any](f func(T)) Action[T] { return Action[T]{do: f} }

// DoCtx wraps a suspending side effect.
func DoCtx[T any](f func(context.Context, T) error) Action[T] { return Action[T]{doCtx: f} }

// Callable reports whether a wraps a non-nil function.
func (a Action[T]) Callable() bool { return a.do != nil || a.doCtx != nil }

// Immediate reports whether a was built with Do.
func (a Action[T]) Immediate() bool { return a.do != nil }

func (a Action[T]) suspending() func(context.Context, T) error {
	if a.doCtx != nil {
		return a.doCtx
	}
	do := a.do
	return func(_ context.Context, v T) error { do(v); return nil }
}

// Reducer folds one element into an accumulator.
type Reducer[A, T any] struct {
	fold    func(A, T) A
	foldCtx func(context.Context, A, T) (A, error)
}

// Fold wraps an immediate reducer.
func Fold[A, T any](f func(A, T) A) Reducer[A, T] { return Reducer[A, T]{fold: f} }

// FoldCtx wraps a suspending reducer.
func FoldCtx[A, T any](f func(context.Context, A, T) (A, error)) Reducer[A, T] {
	return Reducer[A, T]{foldCtx: f}
}

// Callable reports whether r wraps a non-nil function.
func (r Reducer[A, T]) Callable() bool { return r.fold != nil || r.foldCtx != nil }

// Immediate reports whether r was built with Fold.
func (r Reducer[A, T]) Immediate() bool { return r.fold != nil }

func (r Reducer[A, T]) suspending() func(context.Context, A, T) (A, error) {
	if r.foldCtx != nil {
		return r.foldCtx
	}
	fold := r.fold
	return func(_ context.Context, acc A, v T) (A, error) { return fold(acc, v), nil }
}

// Supplier produces a value from nothing.
type Supplier[T any] struct {
	supply    func() T
	supplyCtx func(context.Context) (T, error)
}

// Supply wraps an immediate supplier.
func Supply[T any](f func() T) Supplier[T] { return Supplier[T]{supply: f} }

// SupplyCtx wraps a suspending supplier.
func SupplyCtx[T any](f func(context.Context) (T, error)) Supplier[T] {
	return Supplier[T]{supplyCtx: f}
}

// Callable reports whether s wraps a non-nil function.
func (s Supplier[T]) Callable() bool { return s.supply != nil || s.supplyCtx != nil }

// Immediate reports whether s was built with Supply.
func (s Supplier[T]) Immediate() bool { return s.supply != nil }

func (s Supplier[T]) suspending() func(context.Context) (T, error) {
	if s.supplyCtx != nil {
		return s.supplyCtx
	}
	supply := s.supply
	return func(context.Context) (T, error) { return supply(), nil }
}
