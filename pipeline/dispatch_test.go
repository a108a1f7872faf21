package pipeline

import (
	"context"
	stderrors "errors"
	"testing"

	apperrors "github.com/kbukum/seqkit/errors"
)

func TestBranchOf(t *testing.T) {
	tests := []struct {
		src, fn bool
		want    Branch
		name    string
	}{
		{true, true, BranchImmediate, "immediate"},
		{false, true, BranchSuspendingSource, "suspending-source"},
		{true, false, BranchSuspendingFunc, "suspending-func"},
		{false, false, BranchSuspending, "suspending"},
	}
	for _, tc := range tests {
		got := branchOf(tc.src, tc.fn)
		if got != tc.want {
			t.Errorf("branchOf(%v, %v) = %v, want %v", tc.src, tc.fn, got, tc.want)
		}
		if got.String() != tc.name {
			t.Errorf("expected name %q, got %q", tc.name, got.String())
		}
		if got.Immediate() != (tc.want == BranchImmediate) {
			t.Errorf("%v: unexpected Immediate()", got)
		}
	}
	if Branch(99).String() != "unknown" {
		t.Error("expected unknown branch name")
	}
}

func TestFuncWrappers(t *testing.T) {
	var zero Func[int, int]
	if zero.Callable() {
		t.Error("expected zero Func to be not callable")
	}
	if Fn[int, int](nil).Callable() {
		t.Error("expected Fn(nil) to be not callable")
	}
	if !Fn(func(n int) int { return n }).Immediate() {
		t.Error("expected Fn to be immediate")
	}
	f := FnCtx(func(_ context.Context, n int) (int, error) { return n + 1, nil })
	if f.Immediate() || !f.Callable() {
		t.Error("expected FnCtx to be callable and suspending")
	}

	lifted := Fn(func(n int) int { return n * 2 }).suspending()
	if v, err := lifted(context.Background(), 4); v != 8 || err != nil {
		t.Errorf("expected lifted immediate function to return 8, got %v %v", v, err)
	}

	if (Action[int]{}).Callable() || (Reducer[int, int]{}).Callable() || (Supplier[int]{}).Callable() {
		t.Error("expected zero wrappers to be not callable")
	}
	if !Do(func(int) {}).Immediate() || DoCtx(func(context.Context, int) error { return nil }).Immediate() {
		t.Error("unexpected Action immediacy")
	}
	if !Fold(func(a, n int) int { return a + n }).Immediate() {
		t.Error("expected Fold to be immediate")
	}
	if SupplyCtx(func(context.Context) (int, error) { return 1, nil }).Immediate() {
		t.Error("expected SupplyCtx to be suspending")
	}
}

func TestNotCallable_RecordedAtAttachment(t *testing.T) {
	tests := []struct {
		name  string
		build func(p *Pipeline[int]) error
	}{
		{"Map", func(p *Pipeline[int]) error { return Map(p, Func[int, string]{}).Err() }},
		{"Filter", func(p *Pipeline[int]) error { return p.Filter(Func[int, bool]{}).Err() }},
		{"FilterFalse", func(p *Pipeline[int]) error { return p.FilterFalse(Func[int, bool]{}).Err() }},
		{"Inspect", func(p *Pipeline[int]) error { return p.Inspect(Action[int]{}).Err() }},
		{"Tee", func(p *Pipeline[int]) error { return p.Tee(Into[int](nil)).Err() }},
		{"SkipWhile", func(p *Pipeline[int]) error { return p.SkipWhile(Func[int, bool]{}).Err() }},
		{"TakeWhile", func(p *Pipeline[int]) error { return p.TakeWhile(Func[int, bool]{}).Err() }},
		{"DistinctWith", func(p *Pipeline[int]) error { return DistinctWith(p, Func[int, int]{}).Err() }},
		{"GroupBy", func(p *Pipeline[int]) error { return GroupBy(p, Func[int, int]{}).Err() }},
		{"SortFunc", func(p *Pipeline[int]) error { return p.SortFunc(nil).Err() }},
		{"SortBy", func(p *Pipeline[int]) error { return SortBy(p, Func[int, int]{}).Err() }},
		{"RepeatWith", func(p *Pipeline[int]) error { return p.RepeatWith(Supplier[int]{}).Err() }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.build(FromSlice([]int{1, 2, 3}))
			if !stderrors.Is(err, apperrors.ErrNotCallable) {
				t.Errorf("expected ErrNotCallable, got %v", err)
			}
		})
	}
}

func TestNotCallable_Terminals(t *testing.T) {
	if err := FromSlice([]int{1}).ForEach(context.Background(), Action[int]{}); !stderrors.Is(err, apperrors.ErrNotCallable) {
		t.Errorf("ForEach: expected ErrNotCallable, got %v", err)
	}
	if _, err := Reduce(context.Background(), FromSlice([]int{1}), Reducer[int, int]{}, 0); !stderrors.Is(err, apperrors.ErrNotCallable) {
		t.Errorf("Reduce: expected ErrNotCallable, got %v", err)
	}
}

func TestFirstAttachmentErrorWins(t *testing.T) {
	p := FromSlice([]int{1, 2, 3}).StepBy(0).Filter(Func[int, bool]{})
	if !stderrors.Is(p.Err(), apperrors.ErrInvalidArgument) {
		t.Errorf("expected the first error to be kept, got %v", p.Err())
	}
	if len(p.Stages()) != 0 {
		t.Errorf("expected later stages to be skipped, got %v", p.Stages())
	}
	if _, err := p.Collect(context.Background()); !stderrors.Is(err, apperrors.ErrInvalidArgument) {
		t.Errorf("expected Collect to report the attachment error, got %v", err)
	}
}

func TestBranchSelection_FunctionTaking(t *testing.T) {
	for _, tc := range branchCases {
		t.Run(tc.name, func(t *testing.T) {
			stages := map[string]*Pipeline[int]{
				"Filter":       tc.source([]int{1}).Filter(lift(tc.fnCtx, isEven)),
				"FilterFalse":  tc.source([]int{1}).FilterFalse(lift(tc.fnCtx, isEven)),
				"Inspect":      tc.source([]int{1}).Inspect(liftAction(tc.fnCtx, func(int) {})),
				"SkipWhile":    tc.source([]int{1}).SkipWhile(lift(tc.fnCtx, isEven)),
				"TakeWhile":    tc.source([]int{1}).TakeWhile(lift(tc.fnCtx, isEven)),
				"DistinctWith": DistinctWith(tc.source([]int{1}), lift(tc.fnCtx, func(n int) int { return n })),
				"Map":          Map(tc.source([]int{1}), lift(tc.fnCtx, func(n int) int { return n })),
			}
			for name, p := range stages {
				if got := lastBranch(t, p); got != tc.want {
					t.Errorf("%s: expected branch %v, got %v", name, tc.want, got)
				}
				if p.Immediate() != (tc.want == BranchImmediate) {
					t.Errorf("%s: expected immediate=%v", name, tc.want == BranchImmediate)
				}
			}
			g := GroupBy(tc.source([]int{1}), lift(tc.fnCtx, isEven))
			if got := lastBranch(t, g); got != tc.want {
				t.Errorf("GroupBy: expected branch %v, got %v", tc.want, got)
			}
		})
	}
}

func TestBranchSelection_ValueOnly(t *testing.T) {
	for _, tc := range sourceCases {
		t.Run(tc.name, func(t *testing.T) {
			stages := map[string]*Pipeline[int]{
				"Skip":     tc.source([]int{1}).Skip(1),
				"Take":     tc.source([]int{1}).Take(1),
				"StepBy":   tc.source([]int{1}).StepBy(2),
				"Sort":     Sort(tc.source([]int{1})),
				"Reverse":  tc.source([]int{1}).Reverse(),
				"Distinct": Distinct(tc.source([]int{1})),
				"Chain":    tc.source([]int{1}).Chain([]int{2}),
			}
			for name, p := range stages {
				if got := lastBranch(t, p); got != tc.want {
					t.Errorf("%s: expected branch %v, got %v", name, tc.want, got)
				}
			}
			if got := lastBranch(t, Pool(tc.source([]int{1}), 2)); got != tc.want {
				t.Errorf("Pool: expected branch %v, got %v", tc.want, got)
			}
			if got := lastBranch(t, Enumerate(tc.source([]int{1}))); got != tc.want {
				t.Errorf("Enumerate: expected branch %v, got %v", tc.want, got)
			}
		})
	}
}

func TestBranchSelection_MixedOperands(t *testing.T) {
	p := FromSlice([]int{1}).Chain(suspendingSlice([]int{2}))
	if got := lastBranch(t, p); got != BranchSuspendingSource {
		t.Errorf("expected a suspending operand to make Chain suspend, got %v", got)
	}
	z := Zip(FromSlice([]int{1}), FromSlice([]string{"a"}))
	if got := lastBranch(t, z); got != BranchImmediate {
		t.Errorf("expected all-immediate Zip to be immediate, got %v", got)
	}
	z = Zip(FromSlice([]int{1}), suspendingSlice([]string{"a"}))
	if got := lastBranch(t, z); got != BranchSuspendingSource {
		t.Errorf("expected mixed Zip to suspend, got %v", got)
	}
}

func TestImmediateChainNeverUsesContext(t *testing.T) {
	p := FromSlice([]int{1, 2, 3, 4, 5, 6}).
		Filter(Fn(isEven)).
		Skip(1).
		Inspect(Do(func(int) {}))
	doubled := Map(p, Fn(func(n int) int { return n * 2 }))
	if !doubled.Immediate() {
		t.Fatal("expected an all-immediate chain to stay immediate")
	}
	for _, s := range doubled.Stages() {
		if s.Branch != BranchImmediate {
			t.Errorf("%s: expected immediate branch, got %v", s.Name, s.Branch)
		}
	}
	assertEqual(t, []int{8, 12}, mustCollect(t, doubled))
}
