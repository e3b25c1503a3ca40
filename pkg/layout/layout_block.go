package layout

import (
	"octo/pkg/css"
	"octo/pkg/html"
)

// segment is a piece of a block container's content: either a block-level
// child or a run of inline content that will be laid out in lines.
type segment struct {
	block  *html.Node
	leaves []leaf
}

// leaf is a piece of inline content: a text node, a line break, a replaced
// element or an empty inline element. chain lists the inline elements that
// enclose it, outermost first.
type leaf struct {
	node  *html.Node
	chain []*html.Node
}

// layoutBlock lays out a block-level element whose margin box starts at
// (x, y) inside a containing block of the given width.
func (p *pass) layoutBlock(node *html.Node, containingWidth, x, y float64) *Box {
	style := p.styles.Of(node)
	b := p.newBox(BlockBox, node, style)
	resolveEdges(b, containingWidth)

	if style.Width.IsAuto() {
		b.Width = nonNegative(containingWidth - b.Margin.Horizontal() - b.Padding.Horizontal() - b.Border.Horizontal())
	} else {
		b.Width = nonNegative(style.Width.Resolve(containingWidth))
		autoMargins(b, containingWidth)
	}
	b.X = x + b.Margin.Left + b.Border.Left + b.Padding.Left
	b.Y = y + b.Margin.Top + b.Border.Top + b.Padding.Top

	if style.Display != css.DisplayNone {
		b.Height = p.layoutContents(b, node.Children)
	}
	// Percentage heights need a definite containing block height, which
	// normal flow never provides, so they behave as auto.
	if style.Height.Unit == css.UnitPx {
		b.Height = nonNegative(style.Height.Value)
	}
	return b
}

// layoutContents lays out the children of block b and returns the height
// of its content. Block children are stacked vertically with adjoining
// sibling margins collapsed. Inline runs between them are wrapped in
// anonymous blocks; if there are no block children at all, b holds the
// line boxes directly.
func (p *pass) layoutContents(b *Box, children []*html.Node) float64 {
	var segs []segment
	p.partition(children, nil, &segs)

	hasBlocks := false
	for _, seg := range segs {
		if seg.block != nil {
			hasBlocks = true
			break
		}
	}
	if !hasBlocks {
		if len(segs) == 0 {
			return 0
		}
		return p.layoutInline(b, segs[0].leaves, b.Y)
	}

	cursor := b.Y // bottom border edge of the previous child
	prevBottom := 0.0
	placed := false
	for _, seg := range segs {
		if seg.block == nil {
			gap := 0.0
			if placed {
				gap = collapseMargins(prevBottom, 0)
			}
			anon := &Box{Kind: BlockBox, Style: b.Style, Anonymous: true, X: b.X, Y: cursor + gap, Width: b.Width}
			anon.Height = p.layoutInline(anon, seg.leaves, anon.Y)
			if len(anon.Children) == 0 {
				// Only collapsible white space.
				continue
			}
			p.boxes++
			b.addChild(anon)
			cursor = anon.Y + anon.Height
			prevBottom = 0
			placed = true
			continue
		}

		top := p.styles.Of(seg.block).Margin.Top.Resolve(b.Width)
		gap := top
		if placed {
			gap = collapseMargins(prevBottom, top)
		}
		child := p.layoutBlock(seg.block, b.Width, b.X, cursor+gap-top)
		b.addChild(child)
		cursor = child.BorderRect().Bottom()
		prevBottom = child.Margin.Bottom
		placed = true
	}
	if !placed {
		return 0
	}
	return cursor + prevBottom - b.Y
}

// partition splits children into block-level children and runs of inline
// content. Inline elements are flattened into their leaves, so a block
// inside an inline element ends the current run and starts a new one after
// it.
func (p *pass) partition(children []*html.Node, chain []*html.Node, segs *[]segment) {
	for _, child := range children {
		style := p.styles.Of(child)
		if style == nil || style.Display == css.DisplayNone {
			continue
		}
		if child.Type == html.ElementNode {
			if style.Display.IsBlockLevel() {
				*segs = append(*segs, segment{block: child})
				continue
			}
			if !isReplaced(child) && !child.IsElement("br") && len(child.Children) > 0 {
				p.partition(child.Children, appendChain(chain, child), segs)
				continue
			}
		}
		n := len(*segs)
		if n == 0 || (*segs)[n-1].block != nil {
			*segs = append(*segs, segment{})
			n++
		}
		(*segs)[n-1].leaves = append((*segs)[n-1].leaves, leaf{node: child, chain: chain})
	}
}

func appendChain(chain []*html.Node, n *html.Node) []*html.Node {
	c := make([]*html.Node, len(chain), len(chain)+1)
	copy(c, chain)
	return append(c, n)
}

func isReplaced(n *html.Node) bool {
	return n.IsElement("img")
}
