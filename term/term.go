// Package term renders decoded Grid-EYE frames as a color-banded grid on
// an ANSI terminal.
package term

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	amg8833 "github.com/stenebo/AMG8833"
)

// Band is the display tier a pixel falls in relative to its own frame's
// statistics.
type Band int

const (
	Neutral Band = iota
	Hottest
	Warm
	Coldest
	Cool
)

// Classify assigns the banding tier, first match wins: the frame maximum is
// always Hottest, even when every pixel is identical, then anything at or
// above Hi is Warm, then the frame minimum is Coldest, then anything at or
// below Lo is Cool.
func Classify(v float64, s amg8833.Stats) Band {
	switch {
	case v == s.Max:
		return Hottest
	case v >= s.Hi:
		return Warm
	case v == s.Min:
		return Coldest
	case v <= s.Lo:
		return Cool
	default:
		return Neutral
	}
}

// Renderer writes frames to a terminal.
type Renderer struct {
	out io.Writer

	hottest *color.Color
	warm    *color.Color
	coldest *color.Color
	cool    *color.Color
}

func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{
		out:     out,
		hottest: color.New(color.FgHiRed),
		warm:    color.New(color.FgHiYellow),
		coldest: color.New(color.FgHiCyan),
		cool:    color.New(color.FgHiBlue),
	}
}

// Clear wipes the terminal and homes the cursor. Best effort: a terminal
// that ignores the escapes just keeps scrolling.
func (r *Renderer) Clear() {
	fmt.Fprint(r.out, "\x1b[2J\x1b[H")
}

// Render prints the one-line summary followed by the 8x8 grid, one display
// row per line with a blank line after each, cells tab-separated and banded
// against the frame's own statistics.
func (r *Renderer) Render(f *amg8833.Frame) {
	s := f.Stats()

	fmt.Fprintf(r.out, "Min: %s\tMax: %s\tAvg: %.2f°C\n",
		r.coldest.Sprintf("%.2f°C", s.Min),
		r.hottest.Sprintf("%.2f°C", s.Max),
		s.Avg)

	for y := 0; y < amg8833.Rows; y++ {
		for x := 0; x < amg8833.Cols; x++ {
			if x > 0 {
				fmt.Fprint(r.out, "\t")
			}
			fmt.Fprint(r.out, r.cell(f.At(x, y), s))
		}
		fmt.Fprint(r.out, "\n\n")
	}
}

func (r *Renderer) cell(v float64, s amg8833.Stats) string {
	text := fmt.Sprintf("%.2f", v)
	switch Classify(v, s) {
	case Hottest:
		return r.hottest.Sprint(text)
	case Warm:
		return r.warm.Sprint(text)
	case Coldest:
		return r.coldest.Sprint(text)
	case Cool:
		return r.cool.Sprint(text)
	default:
		return text
	}
}
