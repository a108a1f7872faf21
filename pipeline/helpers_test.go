package pipeline

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// suspendingSlice builds a pipeline whose source only offers Next.
func suspendingSlice[T any](items []T) *Pipeline[T] {
	i := 0
	return FromFunc(func(ctx context.Context) (T, bool, error) {
		var zero T
		if err := ctx.Err(); err != nil {
			return zero, false, err
		}
		if i >= len(items) {
			return zero, false, nil
		}
		i++
		return items[i-1], true, nil
	})
}

// branchCase is one cell of the immediate/suspending matrix.
type branchCase struct {
	name   string
	source func([]int) *Pipeline[int]
	fnCtx  bool
	want   Branch
}

var branchCases = []branchCase{
	{"immediate", func(s []int) *Pipeline[int] { return FromSlice(s) }, false, BranchImmediate},
	{"suspending source", suspendingSlice[int], false, BranchSuspendingSource},
	{"suspending func", func(s []int) *Pipeline[int] { return FromSlice(s) }, true, BranchSuspendingFunc},
	{"suspending", suspendingSlice[int], true, BranchSuspending},
}

// sourceCases covers value-only stages, where only the source matters.
var sourceCases = []branchCase{
	{"immediate", func(s []int) *Pipeline[int] { return FromSlice(s) }, false, BranchImmediate},
	{"suspending", suspendingSlice[int], false, BranchSuspendingSource},
}

// lift wraps f as immediate or suspending.
func lift[T, U any](fnCtx bool, f func(T) U) Func[T, U] {
	if fnCtx {
		return FnCtx(func(_ context.Context, v T) (U, error) { return f(v), nil })
	}
	return Fn(f)
}

func liftAction[T any](fnCtx bool, f func(T)) Action[T] {
	if fnCtx {
		return DoCtx(func(_ context.Context, v T) error { f(v); return nil })
	}
	return Do(f)
}

func isEven(n int) bool { return n%2 == 0 }

func mustCollect[T any](t *testing.T, p *Pipeline[T]) []T {
	t.Helper()
	got, err := p.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: unexpected error: %v", err)
	}
	return got
}

func assertEqual[T any](t *testing.T, want, got T) {
	t.Helper()
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func lastBranch[T any](t *testing.T, p *Pipeline[T]) Branch {
	t.Helper()
	stages := p.Stages()
	if len(stages) == 0 {
		t.Fatal("expected at least one stage")
	}
	return stages[len(stages)-1].Branch
}

// countingCursor is an immediate source that records pulls and Close.
type countingCursor struct {
	items  []int
	pulls  int
	closed bool
}

func (c *countingCursor) Pull() (int, bool) {
	if c.pulls >= len(c.items) {
		return 0, false
	}
	c.pulls++
	return c.items[c.pulls-1], true
}

func (c *countingCursor) Close() error {
	c.closed = true
	return nil
}

// flakyIterator is a foreign Iterator that restarts after signalling the end.
type flakyIterator struct {
	items  []int
	i      int
	closed bool
}

func (f *flakyIterator) Next(context.Context) (int, bool, error) {
	if f.i >= len(f.items) {
		f.i = 0
		return 0, false, nil
	}
	f.i++
	return f.items[f.i-1], true, nil
}

func (f *flakyIterator) Close() error {
	f.closed = true
	return nil
}
