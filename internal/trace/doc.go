// Package trace provides the tracing subsystem for siko's check pipeline.
//
// The trace package tracks a run's shape — how many fixture files were
// loaded, which pipeline stage each function is in, and how long each stage
// took — so a hang or a slow regression can be diagnosed without attaching a
// profiler.
//
// # Usage
//
// Enable tracing via the check subcommand's flags:
//
//	siko check --trace=- --trace-level=phase prog.json
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - nopTracer: zero-overhead no-op tracer installed by default
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: circular buffer for crash dumps
//   - MultiTracer: combines multiple tracers (stream + ring)
//
// # Levels
//
// Tracing verbosity is controlled by levels:
//
//   - LevelOff: no tracing
//   - LevelError: only crash dumps
//   - LevelPhase: run and per-fixture-file boundaries
//   - LevelDetail: adds per-function stage events
//   - LevelDebug: everything, including future per-instruction events
//
// # Scopes
//
// Events are categorized by scope:
//
//   - ScopeRun: the whole `check` invocation, across every input file
//   - ScopeUnit: processing of a single fixture file
//   - ScopeStage: one pipeline stage over a single function (drop check,
//     boxing, finalize, simplify)
//   - ScopeSite: per-instruction granularity (future)
//
// # Context propagation
//
// Tracers are propagated through the pipeline via context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeStage, "hir.CheckDrops", 0)
//	defer span.End("")
package trace
