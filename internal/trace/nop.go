package trace

// nopTracer is the zero-overhead tracer installed on every context that
// never called WithTracer; cmd/siko only replaces it when --trace is set.
type nopTracer struct{}

// Emit does nothing.
func (nopTracer) Emit(*Event) {}

// Flush does nothing.
func (nopTracer) Flush() error { return nil }

// Close does nothing.
func (nopTracer) Close() error { return nil }

// Level returns LevelOff.
func (nopTracer) Level() Level { return LevelOff }

// Enabled always returns false.
func (nopTracer) Enabled() bool { return false }

// Nop is the package-level singleton nop tracer.
var Nop Tracer = nopTracer{}
