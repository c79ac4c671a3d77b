package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a source file's provenance and the
	// normalization fixture.Load or FileSet.Load applied to its bytes.
	FileFlags uint8
)

const (
	// FileVirtual marks a file added from memory rather than disk — a test
	// fixture or stdin.
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
)

// File captures metadata and content for a single fixture source file (the
// lowered-program JSON document itself; diagnostics point back into this
// text via Span, not into the original compiled language).
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}

// PathMode selects how File.FormatPath renders a file's path in diagnostic
// output; diagfmt's own PathMode mirrors this one-for-one and converts at
// its call site rather than duplicating the rendering logic.
type PathMode uint8

const (
	// PathModeAuto renders the path as-is when short or already relative,
	// falling back to the basename once it gets unwieldy.
	PathModeAuto PathMode = iota
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)
