// Package paint turns a laid out box tree into a flat display list that a
// backend can replay.
package paint

import (
	"fmt"
	"math"
	"strings"

	"octo/pkg/css"
	"octo/pkg/layout"
	"octo/pkg/text"
)

// Command is one drawing operation. The set of commands is closed.
type Command interface {
	// Bounds is the area the command may touch.
	Bounds() layout.Rect
	translate(dy float64) Command
}

// DrawRect fills a rectangle.
type DrawRect struct {
	Rect  layout.Rect
	Color css.Color
}

func (c DrawRect) Bounds() layout.Rect { return c.Rect }

func (c DrawRect) translate(dy float64) Command {
	c.Rect.Y += dy
	return c
}

// DrawText draws a run of text with its baseline at (X, Baseline). Y and
// Height give the vertical extent of the font, Width the advance the layout
// measured.
type DrawText struct {
	X        float64
	Y        float64
	Width    float64
	Height   float64
	Baseline float64
	Text     string
	Font     text.Font
	Color    css.Color
}

func (c DrawText) Bounds() layout.Rect {
	return layout.Rect{X: c.X, Y: c.Y, Width: c.Width, Height: c.Height}
}

func (c DrawText) translate(dy float64) Command {
	c.Y += dy
	c.Baseline += dy
	return c
}

// DisplayList is an ordered sequence of commands; later commands paint over
// earlier ones.
type DisplayList []Command

// Visible returns the commands that intersect the vertical window starting
// at top.
func (dl DisplayList) Visible(top, height float64) DisplayList {
	var out DisplayList
	bottom := top + height
	for _, c := range dl {
		b := c.Bounds()
		if b.Y < bottom && b.Bottom() > top {
			out = append(out, c)
		}
	}
	return out
}

// Offset returns a copy of dl moved down by dy. Scrolling by s is
// Offset(-s).
func (dl DisplayList) Offset(dy float64) DisplayList {
	out := make(DisplayList, len(dl))
	for i, c := range dl {
		out[i] = c.translate(dy)
	}
	return out
}

// Paint walks tree depth first. Each box paints its background and borders,
// then its children, then its text.
func Paint(tree *layout.Tree) (DisplayList, error) {
	if !tree.LaidOut() {
		return nil, fmt.Errorf("paint: box tree has no geometry: %w", layout.ErrContractViolation)
	}
	var dl DisplayList
	paintBox(&dl, tree.Root)
	return dl, nil
}

func paintBox(dl *DisplayList, b *layout.Box) {
	if decorated(b) {
		paintBackground(dl, b)
		paintBorders(dl, b)
	}
	for _, c := range b.Children {
		paintBox(dl, c)
	}
	if b.Kind == layout.TextRun {
		paintText(dl, b)
	}
}

// decorated reports whether a box paints its own background and borders.
// Line boxes and anonymous blocks borrow their container's style and paint
// nothing themselves.
func decorated(b *layout.Box) bool {
	if b.Style == nil || b.Anonymous {
		return false
	}
	switch b.Kind {
	case layout.BlockBox, layout.InlineBox, layout.AnchorBox:
		return true
	}
	return false
}

func (dl *DisplayList) fill(r layout.Rect, c css.Color) {
	if c.IsTransparent() || r.Empty() {
		return
	}
	*dl = append(*dl, DrawRect{Rect: r, Color: c})
}

func paintBackground(dl *DisplayList, b *layout.Box) {
	dl.fill(b.PaddingRect(), b.Style.BackgroundColor)
}

func paintBorders(dl *DisplayList, b *layout.Box) {
	r := b.BorderRect()
	e := b.Border
	c := b.Style.BorderColor
	inner := r.Height - e.Top - e.Bottom
	dl.fill(layout.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: e.Top}, c)
	dl.fill(layout.Rect{X: r.Right() - e.Right, Y: r.Y + e.Top, Width: e.Right, Height: inner}, c)
	dl.fill(layout.Rect{X: r.X, Y: r.Bottom() - e.Bottom, Width: r.Width, Height: e.Bottom}, c)
	dl.fill(layout.Rect{X: r.X, Y: r.Y + e.Top, Width: e.Left, Height: inner}, c)
}

func paintText(dl *DisplayList, b *layout.Box) {
	color := b.Style.Color
	if color.IsTransparent() || strings.TrimSpace(b.Text) == "" {
		return
	}
	*dl = append(*dl, DrawText{
		X:        b.X,
		Y:        b.Y,
		Width:    b.Width,
		Height:   b.Height,
		Baseline: b.Baseline,
		Text:     b.Text,
		Font:     b.Font,
		Color:    color,
	})

	if b.Decoration == 0 {
		return
	}
	size := b.Font.Size
	thickness := math.Max(1, size/12)
	line := func(y float64) {
		dl.fill(layout.Rect{X: b.X, Y: y, Width: b.Width, Height: thickness}, color)
	}
	if b.Decoration&layout.Underline != 0 {
		line(b.Baseline + size*0.1)
	}
	if b.Decoration&layout.Overline != 0 {
		line(b.Y)
	}
	if b.Decoration&layout.LineThrough != 0 {
		line(b.Baseline - size*0.3 - thickness/2)
	}
}
