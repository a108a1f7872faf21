// Package pipeline provides lazy, composable, pull-based sequence
// combinators.
//
// A Pipeline holds one source and the chain of stages attached to it. No
// work happens until values are pulled by a terminal (Collect, Count,
// ForEach, Reduce) or through Next/All; each pull travels through every
// stage in a single pass.
//
// # Immediate and suspending
//
// Sources come in two kinds: a Cursor yields immediately, an Iterator may
// suspend (it takes a context and can block). Functions handed to
// combinators are wrapped the same way: Fn, Do, Fold and Supply for
// immediate functions, FnCtx, DoCtx, FoldCtx and SupplyCtx for suspending
// ones. Every combinator picks its stage shape once, when it is attached:
// an immediate function over an immediate source yields an immediate
// stage, so all-immediate chains never touch a context. See Branch.
//
// # Operators
//
// Element-wise: Map, Filter, FilterFalse, Inspect, Tee, Enumerate.
// Positional: Skip, SkipWhile, Take, TakeWhile, StepBy, Pool.
// Combining: Chain, Flatten, Zip, ZipAll.
// Deduplicating and grouping: Distinct, DistinctWith, GroupBy.
// Ordering: Sort, SortFunc, SortBy, Reverse.
// Generating: Repeat, RepeatWith.
//
// Sort, Reverse and GroupBy consume the whole upstream before emitting
// anything; every other stage is lazy.
//
// # Errors
//
// Combinators return the pipeline handle so calls can be chained; an
// invalid attachment (a nil function, a bad argument, an unsupported
// operand) is kept on the handle and returned by the terminal.
//
//	p := pipeline.FromSlice([]int{1, 2, 3, 4, 5, 6})
//	evens := p.Filter(pipeline.Fn(func(n int) bool { return n%2 == 0 }))
//	squares := pipeline.Map(evens, pipeline.Fn(func(n int) int { return n * n }))
//	got, err := squares.Collect(ctx) // [4 16 36]
//
// Suspending sources and functions plug in the same way:
//
//	lines := pipeline.FromChan(ch)
//	enriched := pipeline.Map(lines, pipeline.FnCtx(client.Lookup))
//	err := enriched.ForEach(ctx, pipeline.Do(func(r Record) { fmt.Println(r) }))
package pipeline
