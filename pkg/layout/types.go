package layout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xlab/treeprint"

	"octo/pkg/css"
	"octo/pkg/html"
	"octo/pkg/text"
)

// ErrContractViolation marks errors caused by a caller breaking the
// contract of a stage, as opposed to malformed documents, which are always
// tolerated.
var ErrContractViolation = errors.New("contract violation")

type BoxKind int

const (
	BlockBox  BoxKind = iota
	InlineBox         // one line's fragment of an inline element
	TextRun
	AnchorBox // replaced content such as <img>
	LineBox   // one line of an inline formatting context
)

func (k BoxKind) String() string {
	switch k {
	case BlockBox:
		return "BlockBox"
	case InlineBox:
		return "InlineBox"
	case TextRun:
		return "TextRun"
	case AnchorBox:
		return "AnchorBox"
	case LineBox:
		return "LineBox"
	}
	return fmt.Sprintf("BoxKind(%d)", int(k))
}

// Decoration is a set of text decoration lines.
type Decoration uint8

const (
	Underline Decoration = 1 << iota
	LineThrough
	Overline
)

// Rect represents a rectangular region
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func (r Rect) Bottom() float64 { return r.Y + r.Height }
func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Empty() bool     { return r.Width <= 0 || r.Height <= 0 }

// Intersects reports whether r and o overlap with a non-empty area.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}

// Box is a node of the box tree. X, Y, Width and Height describe the
// content rectangle; the edge helpers derive the padding, border and
// margin rectangles from it.
type Box struct {
	Kind     BoxKind
	Node     *html.Node // nil for anonymous blocks and line boxes
	Style    *css.ComputedStyle
	X        float64
	Y        float64
	Width    float64 // Content width
	Height   float64 // Content height
	Margin   css.BoxEdge
	Padding  css.BoxEdge
	Border   css.BoxEdge
	Children []*Box
	Parent   *Box

	// Anonymous blocks wrap runs of inline content next to block siblings.
	Anonymous bool

	// Text runs only.
	Text       string
	Font       text.Font
	Baseline   float64 // absolute y of the baseline
	Decoration Decoration
}

func (b *Box) ContentRect() Rect {
	return Rect{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

func (b *Box) PaddingRect() Rect {
	return expand(b.ContentRect(), b.Padding)
}

func (b *Box) BorderRect() Rect {
	return expand(b.PaddingRect(), b.Border)
}

func (b *Box) MarginRect() Rect {
	return expand(b.BorderRect(), b.Margin)
}

func expand(r Rect, e css.BoxEdge) Rect {
	return Rect{
		X:      r.X - e.Left,
		Y:      r.Y - e.Top,
		Width:  r.Width + e.Left + e.Right,
		Height: r.Height + e.Top + e.Bottom,
	}
}

func (b *Box) addChild(child *Box) {
	child.Parent = b
	b.Children = append(b.Children, child)
}

// Walk visits b and its descendants in tree order.
func (b *Box) Walk(fn func(*Box)) {
	fn(b)
	for _, c := range b.Children {
		c.Walk(fn)
	}
}

// Dump renders the box tree rooted at b, for debugging.
func (b *Box) Dump() string {
	tree := treeprint.New()
	dumpBox(tree, b)
	return tree.String()
}

func dumpBox(tree treeprint.Tree, b *Box) {
	if len(b.Children) == 0 {
		tree.AddNode(b.label())
		return
	}
	branch := tree.AddBranch(b.label())
	for _, c := range b.Children {
		dumpBox(branch, c)
	}
}

func (b *Box) label() string {
	var sb strings.Builder
	sb.WriteString(b.Kind.String())
	switch {
	case b.Kind == TextRun:
		fmt.Fprintf(&sb, " %q", b.Text)
	case b.Anonymous:
		sb.WriteString(" (anonymous)")
	case b.Node != nil && b.Node.Type == html.ElementNode:
		fmt.Fprintf(&sb, " <%s>", b.Node.TagName)
	}
	fmt.Fprintf(&sb, " at (%g, %g) size %gx%g", b.X, b.Y, b.Width, b.Height)
	return sb.String()
}

// Tree is the result of a layout pass.
type Tree struct {
	Root   *Box
	Width  float64 // available width the tree was laid out for
	Height float64 // content height, the bottom of the root's margin box

	laidOut bool
}

// LaidOut reports whether t was produced by a layout pass and therefore
// carries geometry.
func (t *Tree) LaidOut() bool {
	return t != nil && t.laidOut && t.Root != nil
}

// Dump renders the whole tree, for debugging.
func (t *Tree) Dump() string {
	if t == nil || t.Root == nil {
		return ""
	}
	return t.Root.Dump()
}
