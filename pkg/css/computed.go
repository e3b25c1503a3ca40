package css

import (
	"sort"
	"strconv"
	"strings"
)

const DefaultFontSize = 16.0

// Display represents the display property value
type Display string

const (
	DisplayBlock       Display = "block"
	DisplayInline      Display = "inline"
	DisplayInlineBlock Display = "inline-block"
	DisplayListItem    Display = "list-item"
	DisplayNone        Display = "none"
)

// IsBlockLevel reports whether the display value generates a block box.
func (d Display) IsBlockLevel() bool {
	return d == DisplayBlock || d == DisplayListItem
}

// ComputedStyle holds the resolved value of every recognized property for
// one node. Lengths are in px except width, height, margins and padding,
// which keep percentages and auto for layout to resolve.
type ComputedStyle struct {
	Display         Display
	Color           Color
	BackgroundColor Color

	FontSize   float64
	FontWeight int
	FontStyle  string
	FontFamily string
	// LineHeight is auto for "normal", a number for a factor of the font
	// size, or px.
	LineHeight Length

	TextAlign      string
	TextDecoration string
	WhiteSpace     string

	Width   Length
	Height  Length
	Margin  LengthEdge
	Padding LengthEdge

	BorderWidth BoxEdge
	BorderColor Color
	BorderStyle string
}

// initialValues are the initial values of the recognized properties, as
// style sheet text. currentcolor resolves to the element's own color.
var initialValues = map[string]string{
	"display":             "inline",
	"color":               "black",
	"background-color":    "transparent",
	"font-size":           "medium",
	"font-weight":         "normal",
	"font-style":          "normal",
	"font-family":         "sans-serif",
	"line-height":         "normal",
	"text-align":          "left",
	"text-decoration":     "none",
	"white-space":         "normal",
	"width":               "auto",
	"height":              "auto",
	"margin-top":          "0",
	"margin-right":        "0",
	"margin-bottom":       "0",
	"margin-left":         "0",
	"padding-top":         "0",
	"padding-right":       "0",
	"padding-bottom":      "0",
	"padding-left":        "0",
	"border-top-width":    "medium",
	"border-right-width":  "medium",
	"border-bottom-width": "medium",
	"border-left-width":   "medium",
	"border-color":        "currentcolor",
	"border-style":        "none",
}

var inheritedProperties = map[string]bool{
	"color":       true,
	"font-size":   true,
	"font-weight": true,
	"font-style":  true,
	"font-family": true,
	"line-height": true,
	"text-align":  true,
	"white-space": true,
}

// PropertyNames lists every recognized property in alphabetical order.
var PropertyNames = func() []string {
	names := make([]string, 0, len(initialValues))
	for name := range initialValues {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}()

// IsInherited reports whether property inherits by default.
func IsInherited(property string) bool {
	return inheritedProperties[property]
}

// Get returns the computed value of property as text, or "" and false for
// an unrecognized property.
func (s *ComputedStyle) Get(property string) (string, bool) {
	switch property {
	case "display":
		return string(s.Display), true
	case "color":
		return s.Color.String(), true
	case "background-color":
		return s.BackgroundColor.String(), true
	case "font-size":
		return formatPx(s.FontSize), true
	case "font-weight":
		return strconv.Itoa(s.FontWeight), true
	case "font-style":
		return s.FontStyle, true
	case "font-family":
		return s.FontFamily, true
	case "line-height":
		if s.LineHeight.IsAuto() {
			return "normal", true
		}
		return s.LineHeight.String(), true
	case "text-align":
		return s.TextAlign, true
	case "text-decoration":
		return s.TextDecoration, true
	case "white-space":
		return s.WhiteSpace, true
	case "width":
		return s.Width.String(), true
	case "height":
		return s.Height.String(), true
	case "border-color":
		return s.BorderColor.String(), true
	case "border-style":
		return s.BorderStyle, true
	}
	if side, ok := strings.CutPrefix(property, "margin-"); ok {
		return edgeLength(s.Margin, side)
	}
	if side, ok := strings.CutPrefix(property, "padding-"); ok {
		return edgeLength(s.Padding, side)
	}
	if rest, ok := strings.CutPrefix(property, "border-"); ok {
		if side, ok := strings.CutSuffix(rest, "-width"); ok {
			return edgeLength(LengthEdge{
				Top:    Px(s.BorderWidth.Top),
				Right:  Px(s.BorderWidth.Right),
				Bottom: Px(s.BorderWidth.Bottom),
				Left:   Px(s.BorderWidth.Left),
			}, side)
		}
	}
	return "", false
}

// Map returns every computed value keyed by property name.
func (s *ComputedStyle) Map() map[string]string {
	m := make(map[string]string, len(PropertyNames))
	for _, name := range PropertyNames {
		m[name], _ = s.Get(name)
	}
	return m
}

// Decorations reports the text-decoration lines set on the element.
func (s *ComputedStyle) Decorations() (underline, lineThrough, overline bool) {
	for _, d := range strings.Fields(s.TextDecoration) {
		switch d {
		case "underline":
			underline = true
		case "line-through":
			lineThrough = true
		case "overline":
			overline = true
		}
	}
	return
}

// IsBold and IsItalic summarize the font for measurement.
func (s *ComputedStyle) IsBold() bool   { return s.FontWeight >= 600 }
func (s *ComputedStyle) IsItalic() bool { return s.FontStyle == "italic" || s.FontStyle == "oblique" }

// UsedLineHeight returns the line height in px, or 0 for "normal".
func (s *ComputedStyle) UsedLineHeight() float64 {
	switch s.LineHeight.Unit {
	case UnitNumber:
		return s.LineHeight.Value * s.FontSize
	case UnitPx:
		return s.LineHeight.Value
	}
	return 0
}

func edgeLength(e LengthEdge, side string) (string, bool) {
	switch side {
	case "top":
		return e.Top.String(), true
	case "right":
		return e.Right.String(), true
	case "bottom":
		return e.Bottom.String(), true
	case "left":
		return e.Left.String(), true
	}
	return "", false
}

func formatPx(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}
