package source

import "testing"

func TestSpanShiftLeft(t *testing.T) {
	tests := []struct {
		name     string
		span     Span
		shift    uint32
		expected Span
	}{
		{"shift by 5", Span{File: 1, Start: 10, End: 20}, 5, Span{File: 1, Start: 5, End: 15}},
		{"shift by 0", Span{File: 1, Start: 10, End: 20}, 0, Span{File: 1, Start: 10, End: 20}},
		{"shift to offset 0", Span{File: 1, Start: 10, End: 20}, 10, Span{File: 1, Start: 0, End: 10}},
		{"shift past start returns original", Span{File: 1, Start: 10, End: 20}, 15, Span{File: 1, Start: 10, End: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.span.ShiftLeft(tt.shift)
			if got != tt.expected {
				t.Errorf("ShiftLeft(%d) = %+v, want %+v", tt.shift, got, tt.expected)
			}
		})
	}
}

func TestSpanShiftRight(t *testing.T) {
	tests := []struct {
		name     string
		span     Span
		shift    uint32
		expected Span
	}{
		{"shift within length", Span{File: 1, Start: 10, End: 20}, 5, Span{File: 1, Start: 15, End: 25}},
		{"shift by 0", Span{File: 1, Start: 10, End: 20}, 0, Span{File: 1, Start: 10, End: 20}},
		{"shift equal to length", Span{File: 1, Start: 10, End: 20}, 10, Span{File: 1, Start: 20, End: 30}},
		{"shift past length returns original", Span{File: 1, Start: 10, End: 20}, 11, Span{File: 1, Start: 10, End: 20}},
		{"zero-length span never shifts", Span{File: 1, Start: 10, End: 10}, 1, Span{File: 1, Start: 10, End: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.span.ShiftRight(tt.shift)
			if got != tt.expected {
				t.Errorf("ShiftRight(%d) = %+v, want %+v", tt.shift, got, tt.expected)
			}
		})
	}
}

func TestSpanZeroide(t *testing.T) {
	span := Span{File: 2, Start: 10, End: 20}

	start := span.ZeroideToStart()
	if start != (Span{File: 2, Start: 10, End: 10}) {
		t.Errorf("ZeroideToStart() = %+v", start)
	}
	if !start.Empty() {
		t.Error("ZeroideToStart must produce a zero-length span")
	}

	end := span.ZeroideToEnd()
	if end != (Span{File: 2, Start: 20, End: 20}) {
		t.Errorf("ZeroideToEnd() = %+v", end)
	}
	if !end.Empty() {
		t.Error("ZeroideToEnd must produce a zero-length span")
	}

	already := Span{File: 1, Start: 15, End: 15}
	if already.ZeroideToStart() != already || already.ZeroideToEnd() != already {
		t.Error("zeroiding an already-empty span must be a no-op")
	}
}

func TestSpanCoverAndExtend(t *testing.T) {
	a := Span{File: 1, Start: 10, End: 20}
	b := Span{File: 1, Start: 30, End: 40}

	if got := a.Cover(b); got != (Span{File: 1, Start: 10, End: 40}) {
		t.Errorf("Cover = %+v", got)
	}
	if got := a.ExtendRight(b); got != (Span{File: 1, Start: 10, End: 30}) {
		t.Errorf("ExtendRight = %+v", got)
	}
	if got := b.ExtendLeft(a); got != (Span{File: 1, Start: 20, End: 40}) {
		t.Errorf("ExtendLeft = %+v", got)
	}

	// Operations across different files are no-ops on the receiver.
	other := Span{File: 2, Start: 0, End: 100}
	if got := a.Cover(other); got != a {
		t.Errorf("Cover across files must return the receiver, got %+v", got)
	}
}

func TestSpanOperationsPreserveFileID(t *testing.T) {
	span := Span{File: 7, Start: 10, End: 20}

	for _, got := range []Span{
		span.ShiftLeft(2),
		span.ShiftRight(2),
		span.ZeroideToStart(),
		span.ZeroideToEnd(),
	} {
		if got.File != span.File {
			t.Errorf("operation changed FileID from %d to %d", span.File, got.File)
		}
	}
}

func TestSpanChainedOperations(t *testing.T) {
	// An insertion point derived from an existing range: shift, then
	// collapse to the start.
	got := Span{File: 1, Start: 20, End: 30}.ShiftLeft(5).ZeroideToStart()
	if got != (Span{File: 1, Start: 15, End: 15}) {
		t.Errorf("chained operations = %+v", got)
	}

	got = Span{File: 1, Start: 10, End: 20}.ShiftRight(5).ZeroideToEnd()
	if got != (Span{File: 1, Start: 25, End: 25}) {
		t.Errorf("chained operations = %+v", got)
	}
}
