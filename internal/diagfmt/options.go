package diagfmt

// PathMode selects how a source file's path is rendered in diagnostic
// output.
type PathMode uint8

const (
	// PathModeAuto lets the FileSet pick a reasonable rendering.
	PathModeAuto PathMode = iota
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// PrettyOpts configures Pretty's rendering.
type PrettyOpts struct {
	// Color enables ANSI colorization via github.com/fatih/color.
	Color bool
	// Context is the number of lines of surrounding source shown above and
	// below the primary span's line.
	Context int
	// ShowNotes renders each diagnostic's Notes beneath its primary span.
	ShowNotes bool
	// PathMode selects how file paths are rendered.
	PathMode PathMode
}

// DefaultOpts returns the CLI's default rendering options: colored output,
// one line of context, and notes shown.
func DefaultOpts() PrettyOpts {
	return PrettyOpts{
		Color:     true,
		Context:   1,
		ShowNotes: true,
		PathMode:  PathModeAuto,
	}
}
