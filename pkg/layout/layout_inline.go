package layout

import (
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"octo/pkg/css"
	"octo/pkg/html"
	"octo/pkg/text"
)

// fitTolerance absorbs rounding when deciding whether a chunk fits.
const fitTolerance = 1e-6

const tabSpaces = "        "

type itemKind int

const (
	itemWord itemKind = iota
	itemSpace
	itemBreak  // forced line break
	itemAtomic // replaced element
	itemOpen   // start of an inline element
	itemClose  // end of an inline element
)

// inlineItem is the unit the line breaker works on. Words are never split;
// a sequence of items with no break opportunity between them forms an
// unbreakable chunk.
type inlineItem struct {
	kind  itemKind
	text  string
	node  *html.Node
	style *css.ComputedStyle
	// chain holds the inline elements open at this item. For open and
	// close items it includes the element itself.
	chain   []*html.Node
	width   float64
	noBreak bool
	box     *Box
}

func (it *inlineItem) isContent() bool {
	return it.kind == itemWord || it.kind == itemAtomic
}

// inlineContext lays out one run of inline content inside a block
// container.
type inlineContext struct {
	p         *pass
	container *Box
	items     []inlineItem
	open      []*html.Node
	lastSpace bool // the previous text ended in collapsible white space
}

// layoutInline lays out leaves in lines inside container, starting at top.
// It appends the line boxes to container and returns their total height.
func (p *pass) layoutInline(container *Box, leaves []leaf, top float64) float64 {
	ic := &inlineContext{p: p, container: container, lastSpace: true}
	for _, l := range leaves {
		ic.sync(l.chain)
		ic.addLeaf(l.node)
	}
	ic.sync(nil)

	y := top
	for _, l := range ic.breakLines() {
		lb := ic.buildLine(l, y)
		container.addChild(lb)
		y += lb.Height
	}
	return y - top
}

// sync closes and opens inline elements until the open elements match
// chain.
func (ic *inlineContext) sync(chain []*html.Node) {
	k := commonPrefix(ic.open, chain)
	for len(ic.open) > k {
		ic.closeElement()
	}
	for _, n := range chain[k:] {
		ic.openElement(n)
	}
}

func commonPrefix(a, b []*html.Node) int {
	k := 0
	for k < len(a) && k < len(b) && a[k] == b[k] {
		k++
	}
	return k
}

func (ic *inlineContext) edges(n *html.Node) *Box {
	b := &Box{Node: n, Style: ic.p.styles.Of(n)}
	resolveEdges(b, ic.container.Width)
	return b
}

func (ic *inlineContext) openElement(n *html.Node) {
	ic.open = appendChain(ic.open, n)
	ic.items = append(ic.items, inlineItem{
		kind:  itemOpen,
		node:  n,
		style: ic.p.styles.Of(n),
		chain: ic.open,
		width: edgeStart(ic.edges(n)),
	})
}

func (ic *inlineContext) closeElement() {
	n := ic.open[len(ic.open)-1]
	ic.items = append(ic.items, inlineItem{
		kind:  itemClose,
		node:  n,
		style: ic.p.styles.Of(n),
		chain: ic.open,
		width: edgeEnd(ic.edges(n)),
	})
	ic.open = ic.open[:len(ic.open)-1]
}

func (ic *inlineContext) addLeaf(n *html.Node) {
	switch {
	case n.Type == html.TextNode:
		ic.addText(n)
	case n.IsElement("br"):
		ic.items = append(ic.items, inlineItem{kind: itemBreak, node: n, style: ic.p.styles.Of(n), chain: ic.open})
		ic.lastSpace = true
	case isReplaced(n):
		ic.addAtomic(n)
	default:
		// An inline element without children still contributes its edges.
		ic.openElement(n)
		ic.closeElement()
	}
}

func isCollapsible(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f'
}

func (ic *inlineContext) addText(n *html.Node) {
	style := ic.p.styles.Of(n)
	f := font(style)
	m := ic.p.le.measurer

	word := func(s string) {
		ic.items = append(ic.items, inlineItem{
			kind: itemWord, text: s, node: n, style: style, chain: ic.open, width: m.Measure(f, s),
		})
	}

	if style.WhiteSpace == "pre" {
		for i, line := range strings.Split(n.Text, "\n") {
			if i > 0 {
				ic.items = append(ic.items, inlineItem{kind: itemBreak, node: n, style: style, chain: ic.open})
			}
			line = strings.ReplaceAll(strings.TrimSuffix(line, "\r"), "\t", tabSpaces)
			if line != "" {
				word(line)
			}
		}
		ic.lastSpace = strings.HasSuffix(n.Text, "\n")
		return
	}

	noBreak := style.WhiteSpace == "nowrap"
	start := -1
	for i, r := range n.Text {
		if !isCollapsible(r) {
			if start < 0 {
				start = i
			}
			ic.lastSpace = false
			continue
		}
		if start >= 0 {
			word(n.Text[start:i])
			start = -1
		}
		if !ic.lastSpace {
			ic.items = append(ic.items, inlineItem{
				kind: itemSpace, text: " ", node: n, style: style, chain: ic.open,
				width: m.Measure(f, " "), noBreak: noBreak,
			})
			ic.lastSpace = true
		}
	}
	if start >= 0 {
		word(n.Text[start:])
	}
}

// addAtomic adds a replaced element. Its size comes from the width and
// height properties, falling back to the element's attributes.
func (ic *inlineContext) addAtomic(n *html.Node) {
	style := ic.p.styles.Of(n)
	b := ic.p.newBox(AnchorBox, n, style)
	resolveEdges(b, ic.container.Width)
	if !style.Width.IsAuto() {
		b.Width = nonNegative(style.Width.Resolve(ic.container.Width))
	} else {
		b.Width = ic.dimension(n, "width")
	}
	if style.Height.Unit == css.UnitPx {
		b.Height = nonNegative(style.Height.Value)
	} else {
		b.Height = ic.dimension(n, "height")
	}
	ic.items = append(ic.items, inlineItem{
		kind: itemAtomic, node: n, style: style, chain: ic.open, box: b,
		width: b.MarginRect().Width,
	})
	ic.lastSpace = false
}

func (ic *inlineContext) dimension(n *html.Node, attr string) float64 {
	v, ok := n.GetAttribute(attr)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		ic.p.le.log.Debug("ignoring invalid dimension",
			zap.String("tag", n.TagName), zap.String("attribute", attr), zap.String("value", v))
		return 0
	}
	return f
}

// line is the result of line breaking, before geometry is assigned.
type line struct {
	items []inlineItem
	width float64
	// strut supplies the line height of a line without text.
	strut *css.ComputedStyle
}

func (l *line) add(it inlineItem) {
	l.items = append(l.items, it)
	l.width += it.width
}

func (l *line) empty() bool {
	for i := range l.items {
		if l.items[i].kind != itemSpace {
			return false
		}
	}
	return true
}

func (l *line) hasContent() bool {
	for i := range l.items {
		if l.items[i].isContent() {
			return true
		}
	}
	return false
}

// trim drops white space after the last piece of content.
func (l *line) trim() {
	last := -1
	for i := range l.items {
		if l.items[i].isContent() {
			last = i
		}
	}
	kept := l.items[:0]
	l.width = 0
	for i, it := range l.items {
		if it.kind == itemSpace && i > last {
			continue
		}
		kept = append(kept, it)
		l.width += it.width
	}
	l.items = kept
}

// breakLines fills lines greedily. Breaks happen only at collapsible
// spaces, around replaced elements and at forced breaks; a chunk wider than
// the line overflows it.
func (ic *inlineContext) breakLines() []line {
	var lines []line
	var cur line
	avail := ic.container.Width
	flush := func(forced bool, strut *css.ComputedStyle) {
		cur.trim()
		if forced || !cur.empty() {
			if cur.strut == nil {
				cur.strut = strut
			}
			lines = append(lines, cur)
		}
		cur = line{}
	}

	for i := 0; i < len(ic.items); {
		it := ic.items[i]
		switch it.kind {
		case itemBreak:
			flush(true, it.style)
			i++
		case itemSpace:
			if cur.hasContent() {
				cur.add(it)
			}
			i++
		case itemClose:
			// Element ends stay with the content before them.
			cur.add(it)
			i++
		default:
			end, width := ic.chunk(i)
			if cur.hasContent() && cur.width+width > avail+fitTolerance {
				flush(false, nil)
			}
			for _, c := range ic.items[i:end] {
				if c.kind == itemSpace && !cur.hasContent() {
					continue
				}
				cur.add(c)
			}
			i = end
		}
	}
	flush(false, nil)
	return lines
}

// chunk returns the end of the unbreakable chunk starting at i and its
// width.
func (ic *inlineContext) chunk(i int) (end int, width float64) {
	content := false
	for end = i; end < len(ic.items); end++ {
		it := ic.items[end]
		if it.kind == itemBreak || (it.kind == itemSpace && !it.noBreak) {
			return end, width
		}
		if it.kind == itemAtomic {
			if content {
				return end, width
			}
			width += it.width
			end++
			for end < len(ic.items) && ic.items[end].kind == itemClose {
				width += ic.items[end].width
				end++
			}
			return end, width
		}
		if it.kind == itemWord {
			content = true
		}
		width += it.width
	}
	return end, width
}

// lineExtent returns how far text set in style reaches above and below the
// baseline.
func (p *pass) lineExtent(m text.Metrics, style *css.ComputedStyle) (above, below float64) {
	if lh := style.UsedLineHeight(); lh > 0 {
		half := (lh - m.Ascent - m.Descent) / 2
		return m.Ascent + half, m.Descent + half
	}
	return m.Ascent * p.le.normalLineHeight, m.Descent * p.le.normalLineHeight
}

func alignOffset(align string, free float64) float64 {
	if free <= 0 {
		return 0
	}
	switch align {
	case "right", "end":
		return free
	case "center":
		return free / 2
	}
	return 0
}

// buildLine assigns geometry to the items of l and returns its line box.
func (ic *inlineContext) buildLine(l line, top float64) *Box {
	m := ic.p.le.measurer
	var above, below float64
	hasText := false
	for _, it := range l.items {
		switch it.kind {
		case itemWord, itemSpace:
			a, d := ic.p.lineExtent(m.Metrics(font(it.style)), it.style)
			above, below = max(above, a), max(below, d)
			hasText = true
		case itemAtomic:
			above = max(above, it.box.MarginRect().Height)
			hasText = true
		}
	}
	if !hasText {
		strut := l.strut
		if strut == nil {
			strut = ic.container.Style
		}
		above, below = ic.p.lineExtent(m.Metrics(font(strut)), strut)
	}

	lb := ic.p.newBox(LineBox, nil, ic.container.Style)
	lb.X = ic.container.X
	lb.Y = top
	lb.Width = ic.container.Width
	lb.Height = above + below
	baseline := top + above

	lw := &lineWriter{
		ic:       ic,
		line:     lb,
		baseline: baseline,
		x:        ic.container.X + alignOffset(ic.container.Style.TextAlign, ic.container.Width-l.width),
	}
	for _, it := range l.items {
		lw.place(it)
	}
	lw.sync(nil)
	return lb
}

// lineWriter places the items of one line, splitting inline elements into
// one fragment per line.
type lineWriter struct {
	ic       *inlineContext
	line     *Box
	baseline float64
	x        float64
	stack    []*Box // open inline fragments, outermost first
	run      *Box   // text run being extended
}

func (lw *lineWriter) parent() *Box {
	if len(lw.stack) == 0 {
		return lw.line
	}
	return lw.stack[len(lw.stack)-1]
}

func (lw *lineWriter) place(it inlineItem) {
	switch it.kind {
	case itemOpen:
		lw.sync(it.chain[:len(it.chain)-1])
		frag := lw.fragment(it.node)
		frag.X = lw.x + edgeStart(frag)
		lw.x += it.width
		lw.push(frag)
	case itemClose:
		lw.sync(it.chain)
		frag := lw.stack[len(lw.stack)-1]
		lw.stack = lw.stack[:len(lw.stack)-1]
		frag.Width = lw.x - frag.X
		lw.x += it.width
		lw.run = nil
	case itemWord, itemSpace:
		lw.sync(it.chain)
		lw.addText(it)
	case itemAtomic:
		lw.sync(it.chain)
		b := it.box
		b.X = lw.x + edgeStart(b)
		b.Y = lw.baseline - b.Margin.Bottom - b.Border.Bottom - b.Padding.Bottom - b.Height
		lw.parent().addChild(b)
		lw.x += it.width
		lw.run = nil
	}
}

// sync ends and starts fragments until the open fragments match chain.
// Fragments ended or started here continue on another line, so they carry
// no edges on that side.
func (lw *lineWriter) sync(chain []*html.Node) {
	k := 0
	for k < len(lw.stack) && k < len(chain) && lw.stack[k].Node == chain[k] {
		k++
	}
	for len(lw.stack) > k {
		frag := lw.stack[len(lw.stack)-1]
		lw.stack = lw.stack[:len(lw.stack)-1]
		frag.Margin.Right, frag.Border.Right, frag.Padding.Right = 0, 0, 0
		frag.Width = lw.x - frag.X
		lw.run = nil
	}
	for _, n := range chain[k:] {
		frag := lw.fragment(n)
		frag.Margin.Left, frag.Border.Left, frag.Padding.Left = 0, 0, 0
		frag.X = lw.x
		lw.push(frag)
	}
}

func (lw *lineWriter) fragment(n *html.Node) *Box {
	p := lw.ic.p
	style := p.styles.Of(n)
	frag := p.newBox(InlineBox, n, style)
	resolveEdges(frag, lw.ic.container.Width)
	metrics := p.le.measurer.Metrics(font(style))
	frag.Y = lw.baseline - metrics.Ascent
	frag.Height = metrics.Ascent + metrics.Descent
	return frag
}

func (lw *lineWriter) push(frag *Box) {
	lw.parent().addChild(frag)
	lw.stack = append(lw.stack, frag)
	lw.run = nil
}

func (lw *lineWriter) addText(it inlineItem) {
	parent := lw.parent()
	if lw.run != nil && lw.run.Style == it.style && lw.run.Parent == parent {
		lw.run.Text += it.text
		lw.run.Width += it.width
		lw.x += it.width
		return
	}
	p := lw.ic.p
	f := font(it.style)
	metrics := p.le.measurer.Metrics(f)
	run := p.newBox(TextRun, it.node, it.style)
	run.Text = it.text
	run.Font = f
	run.X = lw.x
	run.Y = lw.baseline - metrics.Ascent
	run.Width = it.width
	run.Height = metrics.Ascent + metrics.Descent
	run.Baseline = lw.baseline
	run.Decoration = p.decoration(it.node)
	parent.addChild(run)
	lw.run = run
	lw.x += it.width
}

// decoration collects the text decorations of n and its ancestors.
// Decorations are not inherited but still apply to the text of
// descendants.
func (p *pass) decoration(n *html.Node) Decoration {
	if n == nil {
		return 0
	}
	if d, ok := p.decorations[n]; ok {
		return d
	}
	var d Decoration
	if s := p.styles.Of(n); s != nil {
		underline, lineThrough, overline := s.Decorations()
		if underline {
			d |= Underline
		}
		if lineThrough {
			d |= LineThrough
		}
		if overline {
			d |= Overline
		}
	}
	d |= p.decoration(n.Parent)
	if p.decorations == nil {
		p.decorations = make(map[*html.Node]Decoration)
	}
	p.decorations[n] = d
	return d
}
