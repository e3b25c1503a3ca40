package layout

import "octo/pkg/css"

// collapseMargins returns the collapsed margin value for two adjoining vertical margins.
// Both positive => max, both negative => most negative, mixed => sum.
func collapseMargins(margin1, margin2 float64) float64 {
	if margin1 >= 0 && margin2 >= 0 {
		if margin1 > margin2 {
			return margin1
		}
		return margin2
	}
	if margin1 < 0 && margin2 < 0 {
		if margin1 < margin2 {
			return margin1
		}
		return margin2
	}
	// Mixed: one positive, one negative
	return margin1 + margin2
}

// resolveEdges resolves the margin, border and padding of a box against the
// width of its containing block. Percentages on every side refer to the
// width; auto margins resolve to zero here and are handled by the caller.
// Negative margins are clamped to zero so geometry never goes negative.
func resolveEdges(b *Box, containingWidth float64) {
	s := b.Style
	m := s.Margin.Resolve(containingWidth)
	b.Margin = css.BoxEdge{
		Top:    nonNegative(m.Top),
		Right:  nonNegative(m.Right),
		Bottom: nonNegative(m.Bottom),
		Left:   nonNegative(m.Left),
	}
	b.Padding = s.Padding.Resolve(containingWidth)
	b.Border = s.BorderWidth
}

// autoMargins distributes the space left over by a block with an explicit
// width. Both margins auto centers the block; a single auto margin takes
// all the remaining space.
func autoMargins(b *Box, containingWidth float64) {
	left, right := b.Style.Margin.Left.IsAuto(), b.Style.Margin.Right.IsAuto()
	if !left && !right {
		return
	}
	used := b.Width + b.Padding.Horizontal() + b.Border.Horizontal()
	switch {
	case left && right:
		remaining := containingWidth - used
		if remaining < 0 {
			remaining = 0
		}
		b.Margin.Left = remaining / 2
		b.Margin.Right = remaining / 2
	case left:
		b.Margin.Left = nonNegative(containingWidth - used - b.Margin.Right)
	default:
		b.Margin.Right = nonNegative(containingWidth - used - b.Margin.Left)
	}
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// edgeStart and edgeEnd give the horizontal space an inline box occupies
// before and after its content.
func edgeStart(b *Box) float64 { return b.Margin.Left + b.Border.Left + b.Padding.Left }
func edgeEnd(b *Box) float64   { return b.Margin.Right + b.Border.Right + b.Padding.Right }
