// Package diagfmt renders diag.Bag contents as human-readable, optionally
// colorized text. One rendering (Pretty) is enough here: the only consumer
// is cmd/siko's terminal output.
package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"fortio.org/safecast"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"siko/internal/diag"
	"siko/internal/source"
)

const tabWidth = 8

// visualWidthUpTo computes the on-screen column width of s up to byte
// offset byteCol (1-based), expanding tabs and accounting for double-width
// runes, so underline markers line up under the reported span even when
// the source line mixes tabs and wide characters.
func visualWidthUpTo(s string, byteCol uint32, tab int) int {
	if byteCol <= 1 {
		return 0
	}
	bytePos := 0
	visualPos := 0
	for _, r := range s {
		if bytePos >= int(byteCol-1) {
			break
		}
		if r == '\t' {
			visualPos = (visualPos + tab) / tab * tab
		} else {
			visualPos += runewidth.RuneWidth(r)
		}
		bytePos += len(string(r))
	}
	return visualPos
}

func formatPath(f *source.File, fs *source.FileSet, mode PathMode) string {
	switch mode {
	case PathModeAbsolute:
		return f.FormatPath(source.PathModeAbsolute, "")
	case PathModeRelative:
		return f.FormatPath(source.PathModeRelative, fs.BaseDir())
	case PathModeBasename:
		return f.FormatPath(source.PathModeBasename, "")
	default:
		return f.FormatPath(source.PathModeAuto, "")
	}
}

// Pretty renders bag's diagnostics (call bag.Sort() first for deterministic
// ordering) as "path:line:col: SEVERITY CODE: message" headlines, each
// followed by a context window of source lines with a `~~~^` underline
// beneath the primary span, and any notes rendered the same way.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	errorColor := color.New(color.FgRed, color.Bold)
	warningColor := color.New(color.FgYellow, color.Bold)
	infoColor := color.New(color.FgCyan, color.Bold)
	pathColor := color.New(color.FgWhite, color.Bold)
	codeColor := color.New(color.FgMagenta)
	lineNumColor := color.New(color.FgBlue)
	underlineColor := color.New(color.FgRed, color.Bold)

	prev := color.NoColor
	defer func() { color.NoColor = prev }()
	color.NoColor = !opts.Color

	context, err := safecast.Conv[uint32](opts.Context)
	if err != nil {
		panic(fmt.Errorf("diagfmt: context overflow: %w", err))
	}
	if context == 0 {
		context = 1
	}

	for idx, d := range bag.Items() {
		if idx > 0 {
			fmt.Fprintln(w) //nolint:errcheck
		}
		renderOne(w, d, fs, opts, context, renderColors{
			errorColor, warningColor, infoColor, pathColor, codeColor, lineNumColor, underlineColor,
		})
	}
}

type renderColors struct {
	errorColor, warningColor, infoColor, pathColor, codeColor, lineNumColor, underlineColor *color.Color
}

func severityColor(sev diag.Severity, c renderColors) *color.Color {
	switch sev {
	case diag.SevError:
		return c.errorColor
	case diag.SevWarning:
		return c.warningColor
	default:
		return c.infoColor
	}
}

func renderOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, context uint32, c renderColors) {
	lineColStart, lineColEnd := fs.Resolve(d.Primary)
	f := fs.Get(d.Primary.File)
	displayPath := formatPath(f, fs, opts.PathMode)

	fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n", //nolint:errcheck
		c.pathColor.Sprint(displayPath),
		lineColStart.Line, lineColStart.Col,
		severityColor(d.Severity, c).Sprint(d.Severity.String()),
		c.codeColor.Sprint(d.Code.ID()),
		d.Message,
	)

	renderSourceWindow(w, f, lineColStart, lineColEnd, context, c)

	if opts.ShowNotes {
		for _, note := range d.Notes {
			nf := fs.Get(note.Span.File)
			noteStart, _ := fs.Resolve(note.Span)
			fmt.Fprintf(w, "  %s: %s:%d:%d: %s\n", //nolint:errcheck
				c.infoColor.Sprint("note"),
				c.pathColor.Sprint(formatPath(nf, fs, opts.PathMode)),
				noteStart.Line, noteStart.Col,
				note.Msg,
			)
		}
	}
}

func renderSourceWindow(w io.Writer, f *source.File, start, end source.LineCol, context uint32, c renderColors) {
	totalLines, err := safecast.Conv[uint32](len(f.LineIdx))
	if err != nil {
		panic(fmt.Errorf("diagfmt: total lines overflow: %w", err))
	}
	totalLines++
	if len(f.LineIdx) == 0 && len(f.Content) > 0 {
		totalLines = 1
	}

	startLine := start.Line
	if startLine > context {
		startLine -= context
	} else {
		startLine = 1
	}
	endLine := min(start.Line+context, totalLines)

	if startLine > 1 {
		fmt.Fprintln(w, "...") //nolint:errcheck
	}

	lineNumWidth := max(len(fmt.Sprintf("%d", endLine)), 3)

	for lineNum := startLine; lineNum <= endLine; lineNum++ {
		lineText := f.GetLine(lineNum)
		lineNumStr := fmt.Sprintf("%*d", lineNumWidth, lineNum)
		gutter := fmt.Sprintf("%s | ", c.lineNumColor.Sprint(lineNumStr))
		gutterLen := lineNumWidth + 3

		io.WriteString(w, gutter)  //nolint:errcheck
		io.WriteString(w, lineText) //nolint:errcheck
		io.WriteString(w, "\n")    //nolint:errcheck

		if lineNum != start.Line {
			continue
		}

		startCol := start.Col
		endCol := end.Col
		if end.Line > start.Line {
			lenLineText, err := safecast.Conv[uint32](len(lineText))
			if err != nil {
				panic(fmt.Errorf("diagfmt: line length overflow: %w", err))
			}
			endCol = lenLineText + 1
		}

		visualStart := visualWidthUpTo(lineText, startCol, tabWidth)
		visualEnd := visualWidthUpTo(lineText, endCol, tabWidth)

		var underline strings.Builder
		for range gutterLen {
			underline.WriteByte(' ')
		}
		for range visualStart {
			underline.WriteByte(' ')
		}
		spanLen := visualEnd - visualStart
		if spanLen <= 0 {
			underline.WriteByte('^')
		} else {
			for i := range spanLen {
				if i == spanLen-1 {
					underline.WriteByte('^')
				} else {
					underline.WriteByte('~')
				}
			}
		}
		fmt.Fprintln(w, c.underlineColor.Sprint(underline.String())) //nolint:errcheck
	}

	if endLine < totalLines {
		fmt.Fprintln(w, "...") //nolint:errcheck
	}
}
