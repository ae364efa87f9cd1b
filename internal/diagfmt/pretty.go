package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"ledgerc/internal/diag"
	"ledgerc/internal/source"
)

// Pretty prints one block per diagnostic:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//	  <source line>
//	  ^~~~
//
// followed by its notes in the same shape. Synthesized spans print
// <synthesized> and no source excerpt.
func Pretty(w io.Writer, items []diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) error {
	p := printer{w: w, fs: fs, opts: opts}
	p.palette(opts.Color)
	for i, d := range items {
		if opts.Max > 0 && i >= opts.Max {
			fmt.Fprintf(w, "... and %d more\n", len(items)-i)
			break
		}
		p.diagnostic(d)
	}
	return p.err
}

type printer struct {
	w    io.Writer
	fs   *source.FileSet
	opts PrettyOpts
	err  error

	sev   map[diag.Severity]*color.Color
	code  *color.Color
	caret *color.Color
	note  *color.Color
}

func (p *printer) palette(enabled bool) {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	p.sev = map[diag.Severity]*color.Color{
		diag.SevError:   mk(color.FgRed, color.Bold),
		diag.SevWarning: mk(color.FgYellow, color.Bold),
		diag.SevInfo:    mk(color.FgBlue, color.Bold),
	}
	p.code = mk(color.FgHiBlack)
	p.caret = mk(color.FgGreen, color.Bold)
	p.note = mk(color.FgCyan)
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) diagnostic(d diag.Diagnostic) {
	sev := p.sev[d.Severity]
	if sev == nil {
		sev = p.sev[diag.SevError]
	}
	p.printf("%s: %s %s: %s\n", p.location(d.Primary), sev.Sprint(d.Severity.String()), p.code.Sprint(d.Code.ID()), d.Message)
	p.excerpt(d.Primary)
	if !p.opts.ShowNotes {
		return
	}
	for _, n := range d.Notes {
		p.printf("  %s: %s %s\n", p.location(n.Span), p.note.Sprint("note:"), n.Msg)
		p.excerpt(n.Span)
	}
}

func (p *printer) location(sp source.Span) string {
	if sp.IsSynthetic() || p.fs == nil {
		return "<synthesized>"
	}
	f := p.fs.Get(sp.File)
	start, _, ok := p.fs.Resolve(sp)
	if f == nil || !ok {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", formatPath(f.Path, p.opts.PathMode, p.opts.BaseDir), start.Line, start.Col)
}

func (p *printer) excerpt(sp source.Span) {
	if sp.IsSynthetic() || p.fs == nil {
		return
	}
	f := p.fs.Get(sp.File)
	start, end, ok := p.fs.Resolve(sp)
	if f == nil || !ok {
		return
	}
	line := f.GetLine(start.Line)
	if line == "" {
		return
	}
	p.printf("  %s\n", line)
	p.printf("  %s\n", p.caret.Sprint(underline(line, start, end)))
}

// underline builds the ^~~~ marker for a span starting on line. Columns
// are byte offsets; the marker is aligned by display width so wide runes
// and tabs line up.
func underline(line string, start, end source.LineCol) string {
	from := min(int(start.Col)-1, len(line))
	to := len(line)
	if end.Line == start.Line {
		to = min(max(int(end.Col)-1, from+1), len(line))
	}
	var pad strings.Builder
	for _, r := range line[:from] {
		if r == '\t' {
			pad.WriteByte('\t')
			continue
		}
		pad.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	width := max(runewidth.StringWidth(line[from:to]), 1)
	return pad.String() + "^" + strings.Repeat("~", width-1)
}
