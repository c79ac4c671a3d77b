// Package diag defines the core diagnostic model shared by the ownership
// and drop pipeline.
//
// # Purpose
//
//   - Provide deterministic, serialisable data structures that capture
//     findings produced by the drop checker, the recursive-data handler,
//     and the simplification passes.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to concrete storage or formatting layers.
//   - Model fix suggestions as structured edits a caller can materialise and
//     optionally apply (e.g. inserting an explicit .clone() call).
//
// # Scope
//
// Package diag performs no formatting, IO, or CLI integration. Rendering
// lives in internal/diagfmt; orchestration across functions lives in
// internal/program.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Message – human oriented text; keep it short and actionable.
//   - Primary span – the canonical source.Span pointing to the issue.
//   - Notes – optional secondary spans/messages for additional context.
//   - Fixes – optional Fix records describing how to address the problem.
//
// Notes should be used sparingly: each note must add new context (e.g. "value
// moved here") rather than repeating the diagnostic message.
//
// # Fix suggestions
//
// Fix represents a possible automated correction. Each fix carries:
//
//   - Title – short label used in UI listings.
//   - Kind – coarse classification (quick fix, refactor, rewrite, source action).
//   - Applicability – confidence level: AlwaysSafe, SafeWithHeuristics,
//     ManualReview.
//   - IsPreferred – optionally mark the most relevant fix when several exist.
//   - Edits – concrete text edits (Span + new/old text) to apply.
//   - Thunk – optional lazy builder used when edits are expensive to construct.
//
// Fixes are intentionally data-only. Producers can attach thunks to defer
// heavy computation; formatters call Resolve/MaterializeFixes to expand them
// deterministically.
//
// TextEdit enforces spans in source coordinates; OldText acts as an optional
// guard a caller can use to validate context before applying edits.
//
// # Emitting diagnostics
//
// Passes should use a diag.Reporter to decouple emission from storage. A
// pass constructs a ReportBuilder via NewReportBuilder (or the helper
// functions ReportError/ReportWarning/ReportInfo) and chains WithNote /
// WithFixSuggestion before calling Emit.
//
// When no additional metadata is needed, passes may call Reporter.Report(...)
// directly. For convenience, diag.BagReporter aggregates diagnostics into a
// Bag, which supports sorting, deduplication, filtering, and transformation.
//
// # Consumers
//
//   - internal/diagfmt: renders Diagnostics as ANSI-highlighted text.
//   - internal/program: threads one Reporter through every pipeline stage
//     for a whole-program run.
//   - cmd/siko: accumulates each file's diagnostics in a Bag and surfaces
//     them to the terminal and the exit code.
package diag
