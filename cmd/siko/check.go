package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"siko/internal/cache"
	"siko/internal/config"
	"siko/internal/diag"
	"siko/internal/diagfmt"
	"siko/internal/fixture"
	"siko/internal/hir"
	"siko/internal/oracle"
	"siko/internal/program"
	"siko/internal/qtype"
	"siko/internal/source"
	"siko/internal/trace"
	"siko/internal/ui"
)

var checkCmd = &cobra.Command{
	Use:   "check <program.json>...",
	Short: "Run the ownership-and-drop pipeline over one or more lowered programs",
	Long:  `check loads each lowered program fixture, runs drop checking, recursive-data boxing, drop finalization, and simplification, and reports any diagnostics.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().Int("jobs", 0, "max parallel workers across input files (0=auto)")
	checkCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	checkCmd.Flags().Bool("progress", false, "show a live progress display (requires a terminal)")
	checkCmd.Flags().Bool("no-cache", false, "disable the on-disk pipeline cache regardless of config")
	checkCmd.Flags().String("trace", "", "trace output destination: '-' for stderr, or a file path (.ndjson/.json for machine formats)")
	checkCmd.Flags().String("trace-level", "phase", "trace verbosity: off|error|phase|detail|debug")
	checkCmd.Flags().Duration("trace-heartbeat", 0, "emit a heartbeat trace event at this interval while a run is active (0 disables)")
}

type fileResult struct {
	path string
	bag  *diag.Bag
	err  error
}

func runCheck(cmd *cobra.Command, args []string) error {
	configPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg := config.Default()
	if configPath != "" {
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
	}

	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	var dcache *cache.DiskCache
	if cfg.Cache.Enabled && !noCache {
		dcache, err = cache.Open("siko", cfg.Cache.Dir)
		if err != nil {
			return fmt.Errorf("failed to open pipeline cache: %w", err)
		}
	}

	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	showProgress, err := cmd.Flags().GetBool("progress")
	if err != nil {
		return fmt.Errorf("failed to get progress flag: %w", err)
	}
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	useColor := colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stdout))

	tracePath, err := cmd.Flags().GetString("trace")
	if err != nil {
		return fmt.Errorf("failed to get trace flag: %w", err)
	}
	traceLevelStr, err := cmd.Flags().GetString("trace-level")
	if err != nil {
		return fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	traceHeartbeat, err := cmd.Flags().GetDuration("trace-heartbeat")
	if err != nil {
		return fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}
	ctx := cmd.Context()
	tracer, hb, err := setupTracer(tracePath, traceLevelStr, traceHeartbeat)
	if err != nil {
		return err
	}
	defer func() {
		hb.Stop()
		_ = tracer.Flush() //nolint:errcheck
		_ = tracer.Close() //nolint:errcheck
	}()
	ctx = trace.WithTracer(ctx, tracer)
	runSpan := trace.Begin(tracer, trace.ScopeRun, "siko check", 0)
	defer runSpan.WithExtra("files", fmt.Sprintf("%d", len(args))).End("")

	// Files are pre-loaded into fs sequentially so every worker only reads
	// fs.Get afterward; FileSet.Add is not safe for concurrent writers.
	fs := source.NewFileSet()
	fileIDs := make([]source.FileID, len(args))
	loadErrs := make([]error, len(args))
	for i, path := range args {
		id, err := fs.Load(path)
		if err != nil {
			loadErrs[i] = fmt.Errorf("read %s: %w", path, err)
			continue
		}
		fileIDs[i] = id
	}

	results := make([]fileResult, len(args))

	var events chan ui.Event
	var progErrCh chan error
	if showProgress && isTerminal(os.Stdout) && !quiet {
		events = make(chan ui.Event, len(args)*4)
		progErrCh = make(chan error, 1)
		go func() {
			progErrCh <- ui.Run(ui.NewProgressModel("siko check", args, events))
		}()
	}

	g, gctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}

	for i, path := range args {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			if loadErrs[i] != nil {
				results[i] = fileResult{path: path, err: loadErrs[i]}
				if events != nil {
					events <- ui.Event{Func: path, Status: ui.StatusError}
				}
				return nil
			}
			if events != nil {
				events <- ui.Event{Func: path, Status: ui.StatusWorking}
			}
			bag, err := checkOne(gctx, path, fileIDs[i], cfg, dcache, events)
			results[i] = fileResult{path: path, bag: bag, err: err}
			if events != nil {
				status := ui.StatusDone
				if err != nil || (bag != nil && bag.HasErrors()) {
					status = ui.StatusError
				}
				events <- ui.Event{Func: path, Status: status}
			}
			return nil
		})
	}
	_ = g.Wait()
	if events != nil {
		close(events)
		<-progErrCh
	}

	opts := diagfmt.PrettyOpts{
		Color:     useColor,
		Context:   2,
		ShowNotes: withNotes,
		PathMode:  diagfmt.PathModeAuto,
	}
	if fullPath {
		opts.PathMode = diagfmt.PathModeAbsolute
	}

	exit := 0
	for idx, r := range results {
		if idx > 0 {
			fmt.Fprintln(os.Stdout)
		}
		fmt.Fprintf(os.Stdout, "== %s ==\n", r.path)
		if r.err != nil {
			fmt.Fprintf(os.Stdout, "error: %v\n", r.err)
			exit = 1
			continue
		}
		r.bag.Sort()
		diagfmt.Pretty(os.Stdout, r.bag, fs, opts)
		if counts := r.bag.StageCounts(); len(counts) > 0 {
			fmt.Fprintln(os.Stdout, formatStageCounts(counts))
		}
		if r.bag.HasErrors() || (cfg.WarningsAsErrors && r.bag.HasWarnings()) {
			exit = 1
		}
	}

	if exit != 0 {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("")
	}
	return nil
}

// checkOne loads path's fixture (already registered in the shared FileSet
// under fileID) and runs the pipeline over the resulting program.
func checkOne(ctx context.Context, path string, fileID source.FileID, cfg config.PipelineConfig, dcache *cache.DiskCache, events chan<- ui.Event) (*diag.Bag, error) {
	types := qtype.NewInterner()

	bag := diag.NewBag(cfg.MaxDiagnostics)
	reporter := diag.BagReporter{Bag: bag}

	p, resolver, err := fixture.LoadFile(path, fileID, types)
	if err != nil {
		return nil, err
	}

	if dcache != nil {
		reportCacheHits(p, dcache)
	}

	instances := withClonePolicy(oracle.InstanceResolver(resolver), cfg.Clone.AllowImplicitClone)
	result := program.RunPipeline(ctx, p, instances, resolver, reporter,
		program.WithSimplify(anySimplifyPassEnabled(cfg.Simplify)),
		program.WithSimplifyPasses(hir.PassSet(cfg.Simplify)))

	if dcache != nil {
		storeCacheOutcomes(result.Program, dcache, bag)
	}

	if events != nil {
		events <- ui.Event{Func: path, Stage: ui.StageSimplify, Status: ui.StatusWorking}
	}

	return bag, nil
}

func anySimplifyPassEnabled(s config.SimplifyPasses) bool {
	return s.ConstFold || s.DeadCode || s.VariableSimplify || s.UnusedAssign || s.Inline
}

// stagePrefixLabel names the diag.Code.ID() prefixes a check run can ever
// report (see internal/diag/codes.go's range comments).
var stagePrefixLabel = map[string]string{
	"GEN": "general",
	"DRP": "drop",
	"REC": "recursive-data",
	"PAT": "pattern",
	"INS": "instance",
	"SIM": "simplify",
	"PIP": "pipeline",
}

// formatStageCounts renders a Bag.StageCounts() result as a single
// deterministic summary line, e.g. "3 drop, 1 recursive-data".
func formatStageCounts(counts map[string]int) string {
	prefixes := make([]string, 0, len(counts))
	for p := range counts {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)

	parts := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		label, ok := stagePrefixLabel[p]
		if !ok {
			label = strings.ToLower(p)
		}
		parts = append(parts, fmt.Sprintf("%d %s", counts[p], label))
	}
	return strings.Join(parts, ", ")
}

// setupTracer builds the Tracer for a `check` invocation from its --trace
// flags and starts the heartbeat goroutine if requested. tracePath == ""
// returns trace.Nop and a nil (safe-to-Stop) heartbeat.
func setupTracer(tracePath, levelStr string, heartbeat time.Duration) (trace.Tracer, *trace.Heartbeat, error) {
	if tracePath == "" {
		return trace.Nop, nil, nil
	}
	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, nil, err
	}
	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       trace.ModeStream,
		OutputPath: tracePath,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open trace output: %w", err)
	}
	return tracer, trace.StartHeartbeat(tracer, heartbeat), nil
}

// reportCacheHits is advisory only at this pipeline's current cache schema
// (cache.DiskPayload records an outcome, not a transformed Body to splice
// back in); it exists so a cache hit can at least be surfaced to the user
// once cmd/siko grows a --cache-stats flag.
func reportCacheHits(p *program.Program, dcache *cache.DiskCache) {
	for _, fn := range p.FuncList() {
		if fn.Body == nil {
			continue
		}
		_, _, _ = dcache.Get(cache.FuncDigest(fn)) //nolint:errcheck
	}
}

func storeCacheOutcomes(p *program.Program, dcache *cache.DiskCache, bag *diag.Bag) {
	hadError := bag.HasErrors()
	for _, fn := range p.FuncList() {
		if fn.Body == nil {
			continue
		}
		digest := cache.FuncDigest(fn)
		_ = dcache.Put(digest, &cache.DiskPayload{
			Schema:          1,
			FuncKey:         fn.Name.Key(),
			BodyDigest:      digest,
			HadError:        hadError,
			DiagnosticCount: bag.Len(),
		})
	}
}
