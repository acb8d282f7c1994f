// Package driver runs the synthesis pipeline over declaration documents:
// load, bind, merge, synthesize in parallel, publish the member-set table
// and lower update expressions at their use sites.
package driver

import (
	"context"
	"runtime"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"aggsynth/internal/decl"
	"aggsynth/internal/declfile"
	"aggsynth/internal/diag"
	"aggsynth/internal/layout"
	"aggsynth/internal/lower"
	"aggsynth/internal/observ"
	"aggsynth/internal/source"
	"aggsynth/internal/synth"
	"aggsynth/internal/trace"
	"aggsynth/internal/types"
)

// Options configure one run.
type Options struct {
	// Jobs bounds parallel synthesis; <= 0 means GOMAXPROCS.
	Jobs           int
	MaxDiagnostics int
	// Cache is consulted before synthesis when non-nil.
	Cache *DiskCache
	// Timings appends an OBS6001 diagnostic with phase durations.
	Timings bool
	Logger  *zap.Logger
}

// Result is everything a run produced. Sets, Aggregates and Decl bags are
// indexed like Unit.Decls; Programs like Unit.Uses.
type Result struct {
	FileSet    *source.FileSet
	Types      *types.Interner
	Unit       *declfile.Unit
	Aggregates []*decl.Aggregate
	Sets       []*synth.MemberSet
	Table      *synth.Table
	Programs   []*lower.Program
	Bag        *diag.Bag
	Timer      *observ.Timer
	CacheHit   bool
}

// Run processes paths. Problems in the documents are diagnostics in
// Result.Bag; the error is reserved for cancellation.
func Run(ctx context.Context, paths []string, opts Options) (*Result, error) {
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.GOMAXPROCS(0)
	}
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = 100
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	ctx, root := trace.Start(ctx, trace.ScopeDriver, "run")
	defer root.End("")

	res := &Result{
		FileSet: source.NewFileSet(),
		Types:   types.NewInterner(),
		Bag:     diag.NewBag(opts.MaxDiagnostics),
		Timer:   observ.NewTimer(),
	}
	reporter := &diag.BagReporter{Bag: res.Bag}

	_, st := res.begin(ctx, observ.StageLoad)
	files := make([]declfile.File, 0, len(paths))
	for _, p := range paths {
		if f, ok := declfile.Load(res.FileSet, p, reporter); ok {
			files = append(files, f)
		}
	}
	st.end(len(files), "")
	log.Debug("documents loaded", zap.Int("files", len(files)), zap.Int("requested", len(paths)))

	// bind and merge
	_, st = res.begin(ctx, observ.StageBind)
	res.Unit = declfile.Bind(res.FileSet, files, res.Types, reporter)
	res.Aggregates = make([]*decl.Aggregate, len(res.Unit.Decls))
	for i, d := range res.Unit.Decls {
		agg := decl.Merge(d.ID, d.Type, d.Fragments, reporter)
		res.Types.SetFields(d.Type, synth.StorageFields(agg))
		res.Aggregates[i] = agg
	}
	res.Types.Freeze()
	st.end(len(res.Aggregates), "")

	if err := ctx.Err(); err != nil {
		return res, err
	}

	// synthesize, or reuse a cached run over identical inputs
	sctx, st := res.begin(ctx, observ.StageSynthesize)
	key := cacheKey(res.FileSet)
	if opts.Cache != nil {
		var payload DiskPayload
		hit, err := opts.Cache.Get(key, &payload)
		switch {
		case err != nil:
			log.Warn("cache read failed", zap.Error(err))
		case hit && len(payload.Sets) == len(res.Aggregates):
			res.Sets, res.CacheHit = payload.Sets, true
			for _, d := range payload.Diagnostics {
				res.Bag.Add(d)
			}
		}
	}
	if !res.CacheHit {
		sets, bags, err := synthesizeAll(sctx, res, opts.Jobs)
		if err != nil {
			st.span.End("cancelled")
			return res, err
		}
		res.Sets = sets
		synthBag := diag.NewBag(opts.MaxDiagnostics)
		for _, b := range bags {
			synthBag.Merge(b)
		}
		res.Bag.Merge(synthBag)
		if opts.Cache != nil {
			payload := &DiskPayload{
				Schema:      diskCacheSchemaVersion,
				Sets:        sets,
				Diagnostics: synthBag.Items(),
			}
			for i := range res.FileSet.Len() {
				f := res.FileSet.Get(source.FileID(i)) //nolint:gosec // bounded by Len
				payload.FilePaths = append(payload.FilePaths, f.Path)
				payload.FileHashes = append(payload.FileHashes, f.Hash)
			}
			if err := opts.Cache.Put(key, payload); err != nil {
				log.Warn("cache write failed", zap.Error(err))
			}
		}
	}
	res.Table = synth.NewTable(res.Sets)
	st.span.WithExtra("cache_hit", strconv.FormatBool(res.CacheHit))
	st.end(res.Table.Len(), "")
	log.Debug("member sets published", zap.Int("sets", res.Table.Len()), zap.Bool("cache_hit", res.CacheHit))

	// lower use sites
	lctx, st := res.begin(ctx, observ.StageLower)
	programs, bags, err := lowerAll(lctx, res, opts.Jobs)
	if err != nil {
		st.span.End("cancelled")
		return res, err
	}
	res.Programs = programs
	for _, b := range bags {
		res.Bag.Merge(b)
	}
	st.end(len(programs), "")

	if opts.Timings {
		report := res.Timer.Report()
		appendTimingDiagnostic(res.Bag, timingPayload{Kind: "synth", TotalMS: report.TotalMS, Phases: report.Phases})
	}
	log.Info("synthesis finished",
		zap.Int("declarations", len(res.Aggregates)),
		zap.Int("uses", len(programs)),
		zap.Int("diagnostics", res.Bag.Len()),
		zap.Bool("errors", res.Bag.HasErrors()),
	)
	return res, nil
}

// stage pairs a timer stage with its trace span.
type stage struct {
	timer *observ.Timer
	id    observ.Stage
	span  *trace.Span
}

func (r *Result) begin(ctx context.Context, id observ.Stage) (context.Context, stage) {
	r.Timer.Start(id)
	ctx, span := trace.Start(ctx, trace.ScopePhase, id.String())
	return ctx, stage{timer: r.Timer, id: id, span: span}
}

func (s stage) end(items int, detail string) {
	s.span.WithExtra(s.id.Unit(), strconv.Itoa(items)).End(detail)
	s.timer.Stop(s.id, items)
}

// walkers hands each synthesis goroutine its own layout walker; a walker
// caches results and is not safe for concurrent use.
type walkers struct {
	pool sync.Pool
}

func newWalkers(in *types.Interner) *walkers {
	w := &walkers{}
	w.pool.New = func() any { return layout.New(in) }
	return w
}

func (w *walkers) get() *layout.Walker  { return w.pool.Get().(*layout.Walker) } //nolint:forcetypeassert // pool only holds walkers
func (w *walkers) put(x *layout.Walker) { w.pool.Put(x) }

// synthesizeAll runs one synthesis per declaration, each with its own
// diagnostic bag. Bags come back in declaration order.
func synthesizeAll(ctx context.Context, res *Result, jobs int) ([]*synth.MemberSet, []*diag.Bag, error) {
	n := len(res.Aggregates)
	sets := make([]*synth.MemberSet, n)
	bags := make([]*diag.Bag, n)
	if n == 0 {
		return sets, bags, nil
	}
	pool := newWalkers(res.Types)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, n))
	for i, agg := range res.Aggregates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			span := trace.Decl(gctx, agg.ID.String())
			defer span.End("")

			bag := diag.NewBag(res.Bag.Cap())
			walker := pool.get()
			defer pool.put(walker)
			sets[i] = synth.Synthesize(agg, synth.Options{
				Types:    res.Types,
				Reporter: &diag.BagReporter{Bag: bag},
				Layout:   walker,
			})
			bags[i] = bag
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return sets, bags, nil
}

// lowerAll lowers every use against the published table.
func lowerAll(ctx context.Context, res *Result, jobs int) ([]*lower.Program, []*diag.Bag, error) {
	uses := res.Unit.Uses
	programs := make([]*lower.Program, len(uses))
	bags := make([]*diag.Bag, len(uses))
	if len(uses) == 0 {
		return programs, bags, nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(uses)))
	for i, use := range uses {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			bag := diag.NewBag(res.Bag.Cap())
			prog, ok := lower.With(use.Expr, lower.Options{
				Types:    res.Types,
				Table:    res.Table,
				Reporter: &diag.BagReporter{Bag: bag},
			})
			outcome := "rejected"
			if ok {
				programs[i] = prog
				outcome = "lowered"
			}
			trace.Use(gctx, use.Name, outcome)
			bags[i] = bag
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return programs, bags, nil
}
