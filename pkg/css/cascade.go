package css

import (
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"octo/pkg/html"
)

// Styles is the result of the cascade: one computed style per document
// node, indexed by node ID. It is immutable once built.
type Styles struct {
	styles []*ComputedStyle
}

// Of returns the computed style of node, or nil for a node that does not
// belong to the styled document.
func (s *Styles) Of(node *html.Node) *ComputedStyle {
	if s == nil || node == nil || node.ID < 0 || node.ID >= len(s.styles) {
		return nil
	}
	return s.styles[node.ID]
}

func (s *Styles) Len() int {
	if s == nil {
		return 0
	}
	return len(s.styles)
}

type cascader struct {
	sheets []*Stylesheet
	opts   *options
}

// matchedRule is a rule together with the position of its sheet in the
// cascade, which breaks ties between sheets of the same origin.
type matchedRule struct {
	rule  *Rule
	sheet int
}

// ApplyStylesToDocument runs the cascade over every node of doc. The
// built-in user agent sheet always comes first; sheets follow in the given
// order and style attributes are applied last.
func ApplyStylesToDocument(doc *html.Document, sheets []*Stylesheet, opts ...Option) *Styles {
	c := &cascader{
		sheets: append([]*Stylesheet{UserAgentStylesheet()}, sheets...),
		opts:   newOptions(opts),
	}
	styles := &Styles{styles: make([]*ComputedStyle, doc.Len())}
	for _, node := range doc.Nodes() {
		var parent *ComputedStyle
		if node.Parent != nil {
			parent = styles.styles[node.Parent.ID]
		}
		if node.Type == html.TextNode {
			styles.styles[node.ID] = c.compute(nil, parent)
			continue
		}
		styles.styles[node.ID] = c.compute(c.declarations(node), parent)
	}
	return styles
}

// ComputeStyle computes the style of a single element given its parent's
// computed style (nil for the root).
func ComputeStyle(node *html.Node, parent *ComputedStyle, sheets []*Stylesheet, opts ...Option) *ComputedStyle {
	c := &cascader{
		sheets: append([]*Stylesheet{UserAgentStylesheet()}, sheets...),
		opts:   newOptions(opts),
	}
	if node.Type == html.TextNode {
		return c.compute(nil, parent)
	}
	return c.compute(c.declarations(node), parent)
}

// declarations returns the declarations that apply to node, lowest
// priority first.
func (c *cascader) declarations(node *html.Node) []Declaration {
	matched := make([]matchedRule, 0)
	for si, sheet := range c.sheets {
		for ri := range sheet.Rules {
			if MatchesSelector(node, sheet.Rules[ri].Selector) {
				matched = append(matched, matchedRule{rule: &sheet.Rules[ri], sheet: si})
			}
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.rule.Origin != b.rule.Origin {
			return a.rule.Origin < b.rule.Origin
		}
		if a.rule.Selector.Specificity != b.rule.Selector.Specificity {
			return a.rule.Selector.Specificity < b.rule.Selector.Specificity
		}
		if a.sheet != b.sheet {
			return a.sheet < b.sheet
		}
		return a.rule.Order < b.rule.Order
	})

	decls := make([]Declaration, 0)
	for _, m := range matched {
		decls = append(decls, m.rule.Declarations...)
	}
	if styleAttr, ok := node.GetAttribute("style"); ok {
		decls = append(decls, ParseDeclarations(styleAttr, WithLogger(c.opts.log))...)
	}
	return decls
}

// compute resolves the specified declarations against the parent style.
// Text nodes pass no declarations and end up with inherited values only.
func (c *cascader) compute(decls []Declaration, parent *ComputedStyle) *ComputedStyle {
	specified := make(map[string]string, len(decls))
	for _, d := range decls {
		specified[d.Property] = d.Value
	}
	// value returns the specified text of property, or inherit=true when
	// the parent's computed value is to be copied.
	value := func(property string) (v string, inherit bool) {
		v, ok := specified[property]
		if !ok {
			if parent != nil && inheritedProperties[property] {
				return "", true
			}
			return initialValues[property], false
		}
		switch v {
		case "inherit":
			if parent != nil {
				return "", true
			}
			return initialValues[property], false
		case "initial":
			return initialValues[property], false
		}
		return v, false
	}

	parentFontSize := c.opts.rootFontSize
	parentWeight := 400
	parentColor := Black
	if parent != nil {
		parentFontSize = parent.FontSize
		parentWeight = parent.FontWeight
		parentColor = parent.Color
	}

	s := &ComputedStyle{}

	if v, inh := value("font-size"); inh {
		s.FontSize = parent.FontSize
	} else {
		s.FontSize = c.fontSize(v, parentFontSize)
	}

	if v, inh := value("color"); inh || v == "currentcolor" {
		s.Color = parentColor
	} else {
		s.Color = c.color(v, "color", parentColor)
	}

	if v, inh := value("font-weight"); inh {
		s.FontWeight = parent.FontWeight
	} else {
		s.FontWeight = fontWeight(v, parentWeight)
	}

	if v, inh := value("font-style"); inh {
		s.FontStyle = parent.FontStyle
	} else {
		s.FontStyle = v
	}

	if v, inh := value("font-family"); inh {
		s.FontFamily = parent.FontFamily
	} else {
		s.FontFamily = v
	}

	if v, inh := value("line-height"); inh {
		s.LineHeight = parent.LineHeight
	} else {
		s.LineHeight = c.lineHeight(v, s.FontSize)
	}

	if v, inh := value("text-align"); inh {
		s.TextAlign = parent.TextAlign
	} else {
		switch v {
		case "start":
			v = "left"
		case "end":
			v = "right"
		}
		s.TextAlign = v
	}

	if v, inh := value("white-space"); inh {
		s.WhiteSpace = parent.WhiteSpace
	} else {
		s.WhiteSpace = v
	}

	if v, inh := value("text-decoration"); inh {
		s.TextDecoration = parent.TextDecoration
	} else {
		s.TextDecoration = v
	}

	if v, inh := value("display"); inh {
		s.Display = parent.Display
	} else {
		s.Display = Display(v)
	}

	if v, inh := value("background-color"); inh {
		s.BackgroundColor = parent.BackgroundColor
	} else if v == "currentcolor" {
		s.BackgroundColor = s.Color
	} else {
		s.BackgroundColor = c.color(v, "background-color", Transparent)
	}

	lengthOf := func(property string, inherited func() Length) Length {
		v, inh := value(property)
		if inh {
			return inherited()
		}
		return c.length(v, property, s.FontSize)
	}
	s.Width = lengthOf("width", func() Length { return parent.Width })
	s.Height = lengthOf("height", func() Length { return parent.Height })
	s.Margin = LengthEdge{
		Top:    lengthOf("margin-top", func() Length { return parent.Margin.Top }),
		Right:  lengthOf("margin-right", func() Length { return parent.Margin.Right }),
		Bottom: lengthOf("margin-bottom", func() Length { return parent.Margin.Bottom }),
		Left:   lengthOf("margin-left", func() Length { return parent.Margin.Left }),
	}
	s.Padding = LengthEdge{
		Top:    lengthOf("padding-top", func() Length { return parent.Padding.Top }),
		Right:  lengthOf("padding-right", func() Length { return parent.Padding.Right }),
		Bottom: lengthOf("padding-bottom", func() Length { return parent.Padding.Bottom }),
		Left:   lengthOf("padding-left", func() Length { return parent.Padding.Left }),
	}

	if v, inh := value("border-style"); inh {
		s.BorderStyle = parent.BorderStyle
	} else {
		s.BorderStyle = v
	}
	if v, inh := value("border-color"); inh {
		s.BorderColor = parent.BorderColor
	} else if v == "currentcolor" {
		s.BorderColor = s.Color
	} else {
		s.BorderColor = c.color(v, "border-color", s.Color)
	}

	borderWidth := func(property string, inherited func() float64) float64 {
		if s.BorderStyle == "none" || s.BorderStyle == "hidden" {
			return 0
		}
		v, inh := value(property)
		if inh {
			return inherited()
		}
		if w, ok := borderWidthKeywords[v]; ok {
			return w
		}
		return c.length(v, property, s.FontSize).Resolve(0)
	}
	s.BorderWidth = BoxEdge{
		Top:    borderWidth("border-top-width", func() float64 { return parent.BorderWidth.Top }),
		Right:  borderWidth("border-right-width", func() float64 { return parent.BorderWidth.Right }),
		Bottom: borderWidth("border-bottom-width", func() float64 { return parent.BorderWidth.Bottom }),
		Left:   borderWidth("border-left-width", func() float64 { return parent.BorderWidth.Left }),
	}

	return s
}

// fontSize resolves a font-size value. Relative sizes resolve against the
// parent's font size; keywords scale the root font size.
func (c *cascader) fontSize(v string, parentSize float64) float64 {
	if scale, ok := fontSizeKeywords[v]; ok {
		return c.opts.rootFontSize * scale
	}
	switch v {
	case "smaller":
		return parentSize / 1.2
	case "larger":
		return parentSize * 1.2
	}
	l, ok := ParseLength(v)
	if !ok {
		c.opts.log.Debug("unresolvable font-size", zap.String("value", v))
		return parentSize
	}
	switch l.Unit {
	case UnitEm:
		return l.Value * parentSize
	case UnitPercent:
		return l.Value * parentSize / 100
	case UnitRem:
		return l.Value * c.opts.rootFontSize
	}
	return l.Value
}

func (c *cascader) color(v, property string, fallback Color) Color {
	col, ok := ParseColor(v)
	if !ok {
		c.opts.log.Debug("unresolvable color", zap.String("property", property), zap.String("value", v))
		return fallback
	}
	return col
}

func (c *cascader) lineHeight(v string, fontSize float64) Length {
	if v == "normal" {
		return Auto
	}
	if n, ok := parseNumber(v); ok {
		return Length{Value: n, Unit: UnitNumber}
	}
	l := c.length(v, "line-height", fontSize)
	if l.Unit == UnitPercent {
		return Px(l.Value * fontSize / 100)
	}
	return l
}

// length resolves em and rem units; px, percentages and auto pass through.
func (c *cascader) length(v, property string, fontSize float64) Length {
	if v == "auto" {
		return Auto
	}
	l, ok := ParseLength(v)
	if !ok {
		c.opts.log.Debug("unresolvable length", zap.String("property", property), zap.String("value", v))
		return Px(0)
	}
	switch l.Unit {
	case UnitEm:
		return Px(l.Value * fontSize)
	case UnitRem:
		return Px(l.Value * c.opts.rootFontSize)
	}
	return l
}

func fontWeight(v string, parent int) int {
	switch v {
	case "normal":
		return 400
	case "bold":
		return 700
	case "bolder":
		switch {
		case parent < 350:
			return 400
		case parent < 550:
			return 700
		}
		return 900
	case "lighter":
		switch {
		case parent < 550:
			return 100
		case parent < 750:
			return 400
		}
		return 700
	}
	if n, ok := parseNumber(strings.TrimSpace(v)); ok {
		return int(math.Round(n))
	}
	return 400
}
