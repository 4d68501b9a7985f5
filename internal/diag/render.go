package diag

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"ccidl/internal/source"
)

type RenderOpts struct {
	Color bool
}

// Fprint writes err as
//
//	<path>:<line>:<col>: error[<ID>]: <message>
//	  <source line>
//	  ^~~~
//
// Errors without a diagnostic code are printed as a plain error line.
func Fprint(w io.Writer, err error, file *source.File, opts RenderOpts) {
	errColor := color.New(color.FgRed, color.Bold)
	locColor := color.New(color.Bold)
	caretColor := color.New(color.FgGreen)
	for _, c := range []*color.Color{errColor, locColor, caretColor} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	var de *Error
	if !errors.As(err, &de) || file == nil {
		fmt.Fprintf(w, "%s %s\n", errColor.Sprint("error:"), err)
		return
	}

	pos := file.Position(de.Span.Start)
	fmt.Fprintf(w, "%s %s %s\n",
		locColor.Sprintf("%s:%d:%d:", file.Path, pos.Line, pos.Col),
		errColor.Sprintf("error[%s]:", de.Code.ID()),
		de.Message)

	line := file.Line(pos.Line)
	if line == "" {
		return
	}
	width := 1
	if end := file.Position(de.Span.End); !de.Span.Empty() && end.Line == pos.Line && end.Col > pos.Col {
		width = int(end.Col - pos.Col)
	}
	pad := strings.Map(func(r rune) rune {
		if r == '\t' {
			return '\t'
		}
		return ' '
	}, line[:min(int(pos.Col-1), len(line))])
	fmt.Fprintf(w, "  %s\n", line)
	fmt.Fprintf(w, "  %s%s\n", pad, caretColor.Sprint("^"+strings.Repeat("~", width-1)))
}
