package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"autoimport/internal/fix"
)

type palette struct {
	unit, ident, winner, loser, guess, rendered *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		unit:     color.New(color.Bold),
		ident:    color.New(color.FgCyan),
		winner:   color.New(color.FgGreen),
		loser:    color.New(color.Faint),
		guess:    color.New(color.FgYellow),
		rendered: color.New(color.FgGreen, color.Bold),
	}
	for _, c := range []*color.Color{p.unit, p.ident, p.winner, p.loser, p.guess, p.rendered} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Pretty форматирует результат анализа в человекочитаемый вид:
//
//	<unit>: N records, M about this unit
//	  <ident>  <winner>  (<reason>)
//	  ...
//	+ use a::b;use c::d;
func Pretty(w io.Writer, s Suggestion, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	var b strings.Builder

	fmt.Fprintf(&b, "%s: %d records, %d about this unit\n",
		p.unit.Sprint(formatPath(s.Unit, opts.PathMode)), s.Records, s.Relevant)

	if len(s.Step.Proposed) == 0 {
		b.WriteString("  nothing to import\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	width := 0
	for _, d := range s.Step.Decisions {
		width = max(width, len(d.Ident))
	}
	for _, d := range s.Step.Decisions {
		fmt.Fprintf(&b, "  %s  %s  (%s)\n",
			p.ident.Sprintf("%-*s", width, d.Ident), p.winner.Sprint(d.Winner), reasonLabel(p, d))
		if opts.ShowLosers {
			for _, l := range d.Losers {
				fmt.Fprintf(&b, "  %*s  %s\n", width, "", p.loser.Sprint("- "+string(l)))
			}
		}
	}
	if len(s.Step.Decisions) == 0 {
		for _, c := range s.Step.Proposed {
			fmt.Fprintf(&b, "  %s\n", p.winner.Sprint(c))
		}
	}
	fmt.Fprintf(&b, "%s\n", p.rendered.Sprint("+ "+s.Rendered))

	_, err := io.WriteString(w, b.String())
	return err
}

func reasonLabel(p palette, d fix.Decision) string {
	if !d.Confident() {
		return p.guess.Sprintf("%s, %d others", d.Reason, len(d.Losers))
	}
	return d.Reason.String()
}
