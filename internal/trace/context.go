package trace

import "context"

// ctxKey is the key type for storing a Tracer in a context.Context.
type ctxKey struct{}

// FromContext extracts the Tracer installed by WithTracer. Every pipeline
// stage entry point (hir.CheckDrops, hir.FinalizeDrops, hir.Simplify, ...)
// resolves its tracer this way, so a run with no --trace flag costs one
// context lookup per stage and nothing more: absent a tracer, Nop comes
// back.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(ctxKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// WithTracer attaches t to the context. cmd/siko installs the tracer once,
// around the whole check run; nothing below the CLI ever calls this.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, t)
}

// SpanContext carries the active span's identity across goroutine-crossing
// call boundaries, so a child span started on the far side can name its
// parent.
type SpanContext struct {
	SpanID uint64
	GID    uint64
}

type spanCtxKey struct{}

// CurrentSpan retrieves the active span context, or the zero SpanContext if
// none was attached.
func CurrentSpan(ctx context.Context) SpanContext {
	if ctx == nil {
		return SpanContext{}
	}
	if sc, ok := ctx.Value(spanCtxKey{}).(SpanContext); ok {
		return sc
	}
	return SpanContext{}
}

// WithSpanContext attaches sc to the context.
func WithSpanContext(ctx context.Context, sc SpanContext) context.Context {
	if ctx == nil {
		return nil
	}
	return context.WithValue(ctx, spanCtxKey{}, sc)
}
