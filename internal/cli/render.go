package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/roach88/soralvi/internal/playback"
)

// bars are the block characters values are scaled onto, lowest first.
var bars = []rune("▁▂▃▄▅▆▇█")

// cursorColors cycle across cursor keys by key index.
var cursorColors = []lipgloss.Color{"205", "39", "214", "82", "141"}

// FrameRenderer draws replay frames as one line of bars plus a cursor legend.
//
// Styling follows the writer's color profile; a plain buffer gets plain text.
type FrameRenderer struct {
	w       io.Writer
	bar     lipgloss.Style
	header  lipgloss.Style
	cursors []lipgloss.Style
}

// NewFrameRenderer creates a renderer writing to w.
func NewFrameRenderer(w io.Writer) *FrameRenderer {
	r := lipgloss.NewRenderer(w)
	fr := &FrameRenderer{
		w:      w,
		bar:    r.NewStyle().Foreground(lipgloss.Color("245")),
		header: r.NewStyle().Bold(true),
	}
	for _, c := range cursorColors {
		fr.cursors = append(fr.cursors, r.NewStyle().Foreground(c).Bold(true))
	}
	return fr
}

// Render writes one frame. It satisfies playback.FrameFunc.
func (fr *FrameRenderer) Render(f playback.Frame) error {
	lo, hi := 0, 0
	if len(f.Values) > 0 {
		lo, hi = slices.Min(f.Values), slices.Max(f.Values)
	}

	cursorAt := make(map[int]int, len(f.Highlights))
	for _, h := range f.Highlights {
		// Later keys win when two cursors share a position.
		cursorAt[h.Position] = h.KeyIndex
	}

	var line strings.Builder
	for i, v := range f.Values {
		glyph := string(bars[scale(v, lo, hi, len(bars))])
		if k, ok := cursorAt[i]; ok {
			line.WriteString(fr.cursors[k%len(fr.cursors)].Render(glyph))
		} else {
			line.WriteString(fr.bar.Render(glyph))
		}
	}

	legend := make([]string, 0, len(f.Highlights))
	for _, h := range f.Highlights {
		style := fr.cursors[h.KeyIndex%len(fr.cursors)]
		legend = append(legend, style.Render(fmt.Sprintf("%s=%d", h.Key, h.Position)))
	}

	header := fr.header.Render(fmt.Sprintf("frame %d/%d", f.Index, f.Total))
	_, err := fmt.Fprintf(fr.w, "%s  %s\n%s\n", header, strings.Join(legend, " "), line.String())
	return err
}

// scale maps v in [lo, hi] onto [0, steps).
func scale(v, lo, hi, steps int) int {
	if hi == lo {
		return steps - 1
	}
	return (v - lo) * (steps - 1) / (hi - lo)
}
