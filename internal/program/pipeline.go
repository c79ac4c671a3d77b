package program

import (
	"context"

	"siko/internal/diag"
	"siko/internal/hir"
	"siko/internal/oracle"
	"siko/internal/trace"
)

// Result carries the whole-pipeline outcome for one Program run: the
// transformed program (or the last state reached before a fatal error) and
// whether any pass reported an error.
type Result struct {
	Program  *Program
	HadError bool
}

// Options controls optional RunPipeline behavior beyond its default fixed
// sequence. The zero value runs the full pipeline, matching every existing
// caller that does not pass an Option.
type options struct {
	skipSimplify bool
	passes       hir.PassSet
}

// Option configures one aspect of a RunPipeline call.
type Option func(*options)

// WithSimplify toggles whether the simplification stage runs at all, driven
// by internal/config's PipelineConfig.Simplify table: when every individual
// pass is disabled there, cmd/siko passes WithSimplify(false) instead of
// running a no-op simplification round over every function.
func WithSimplify(enabled bool) Option {
	return func(o *options) { o.skipSimplify = !enabled }
}

// WithSimplifyPasses restricts the simplification stage to the individual
// passes enabled in p, mirroring internal/config's PipelineConfig.Simplify
// table one-for-one. The zero Option set runs every pass.
func WithSimplifyPasses(p hir.PassSet) Option {
	return func(o *options) { o.passes = p }
}

// RunPipeline sequences the ownership-and-drop pipeline over every function
// in p: recursive-data boxing runs once over the whole program (it needs
// every DataDef's dependency graph), then for each function in turn: drop
// checking, declaration-store construction, and drop finalization. Once
// every function is finalized, a second pass simplifies each function in
// turn. RunPipeline processes functions one at a time in a deterministic
// order.
func RunPipeline(ctx context.Context, p *Program, instances oracle.InstanceResolver, impls oracle.ImplementationResolver, reporter diag.Reporter, opts ...Option) Result {
	sp := trace.Begin(trace.FromContext(ctx), trace.ScopeUnit, "program.RunPipeline", 0)
	defer sp.End("")

	cfg := options{passes: hir.AllPasses()}
	for _, o := range opts {
		o(&cfg)
	}

	hadError := false

	boxResult := hir.BoxRecursiveData(ctx, p.Types, reporter, p.DefList(), p.FuncList())
	if boxResult.HadError {
		hadError = true
	}
	for _, d := range boxResult.Defs {
		p.AddDef(d)
	}
	for _, fn := range boxResult.Funcs {
		p.AddFunc(fn)
	}

	for _, name := range p.SortedFuncNames() {
		fn := p.Funcs[name]
		if fn.Body == nil {
			continue
		}

		checkResult := hir.CheckDrops(ctx, p.Types, instances, impls, reporter, fn)
		fn = checkResult.Function
		if checkResult.HadError {
			hadError = true
		}

		fn, store := hir.InsertDeclarationMetadata(ctx, fn)
		fn = hir.FinalizeDrops(ctx, p.Types, fn, store)

		p.AddFunc(fn)
	}

	if !cfg.skipSimplify {
		for _, name := range p.SortedFuncNames() {
			fn := p.Funcs[name]
			if fn.Body == nil {
				continue
			}
			p.AddFunc(hir.Simplify(ctx, p.Types, p.Funcs, fn, hir.WithPasses(cfg.passes)))
		}
	}

	return Result{Program: p, HadError: hadError}
}
