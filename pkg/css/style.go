package css

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

type Unit int

const (
	UnitPx Unit = iota
	UnitPercent
	UnitEm
	UnitRem
	UnitNumber // unitless factor, only used by line-height
	UnitAuto
)

// Length is a numeric style value with its unit. Lengths in the computed
// style only use px, percent, number and auto; em, rem and pt are resolved
// by the cascade.
type Length struct {
	Value float64
	Unit  Unit
}

var Auto = Length{Unit: UnitAuto}

func Px(v float64) Length { return Length{Value: v, Unit: UnitPx} }

func (l Length) IsAuto() bool { return l.Unit == UnitAuto }

// Resolve converts l to px. Percentages resolve against base; auto and
// unresolvable values fall back to zero.
func (l Length) Resolve(base float64) float64 {
	switch l.Unit {
	case UnitPx:
		return l.Value
	case UnitPercent:
		return l.Value * base / 100
	}
	return 0
}

func (l Length) String() string {
	v := strconv.FormatFloat(l.Value, 'f', -1, 64)
	switch l.Unit {
	case UnitPercent:
		return v + "%"
	case UnitEm:
		return v + "em"
	case UnitRem:
		return v + "rem"
	case UnitNumber:
		return v
	case UnitAuto:
		return "auto"
	}
	return v + "px"
}

// ParseLength parses a length value (e.g., "100px", "1.5em", "50%" or "100").
// Bare numbers are pixels and points are converted to pixels.
func ParseLength(val string) (Length, bool) {
	val = strings.ToLower(strings.TrimSpace(val))
	unit := UnitPx
	points := false
	switch {
	case strings.HasSuffix(val, "px"):
		val = strings.TrimSuffix(val, "px")
	case strings.HasSuffix(val, "pt"):
		val = strings.TrimSuffix(val, "pt")
		points = true
	case strings.HasSuffix(val, "rem"):
		val = strings.TrimSuffix(val, "rem")
		unit = UnitRem
	case strings.HasSuffix(val, "em"):
		val = strings.TrimSuffix(val, "em")
		unit = UnitEm
	case strings.HasSuffix(val, "%"):
		val = strings.TrimSuffix(val, "%")
		unit = UnitPercent
	}
	num, ok := parseNumber(val)
	if !ok {
		return Length{}, false
	}
	if points {
		num = num * 4 / 3
	}
	return Length{Value: num, Unit: unit}, true
}

func parseNumber(s string) (float64, bool) {
	if s == "" || strings.ContainsAny(s, "xXnNiI_") {
		return 0, false
	}
	num, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(num) || math.IsInf(num, 0) {
		return 0, false
	}
	return num, true
}

// BoxEdge represents the four sides of a box (top, right, bottom, left)
type BoxEdge struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

func (e BoxEdge) Horizontal() float64 { return e.Left + e.Right }
func (e BoxEdge) Vertical() float64   { return e.Top + e.Bottom }

// LengthEdge holds the specified lengths of the four sides of a box.
type LengthEdge struct {
	Top    Length
	Right  Length
	Bottom Length
	Left   Length
}

// Resolve converts every side to px against the containing block width;
// auto sides resolve to zero.
func (e LengthEdge) Resolve(base float64) BoxEdge {
	return BoxEdge{
		Top:    e.Top.Resolve(base),
		Right:  e.Right.Resolve(base),
		Bottom: e.Bottom.Resolve(base),
		Left:   e.Left.Resolve(base),
	}
}

// Color is a non-premultiplied 8-bit RGBA color. It implements
// image/color.Color so it can be handed to raster backends directly.
type Color struct {
	R, G, B, A uint8
}

var (
	Black       = Color{0, 0, 0, 255}
	Transparent = Color{}
)

func (c Color) RGBA() (r, g, b, a uint32) {
	a = uint32(c.A)
	a |= a << 8
	r = uint32(c.R) * a / 255
	g = uint32(c.G) * a / 255
	b = uint32(c.B) * a / 255
	return
}

func (c Color) IsTransparent() bool { return c.A == 0 }

func (c Color) String() string {
	if c.A == 255 {
		return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B,
		strconv.FormatFloat(float64(c.A)/255, 'f', 3, 64))
}

// ParseColor parses named colors, hex notation and rgb()/rgba().
// currentcolor is not a color value here; the cascade resolves it.
func ParseColor(colorStr string) (Color, bool) {
	colorStr = strings.ToLower(strings.TrimSpace(colorStr))
	switch {
	case colorStr == "transparent":
		return Transparent, true
	case strings.HasPrefix(colorStr, "#"):
		return parseHexColor(colorStr[1:])
	case strings.HasPrefix(colorStr, "rgb(") || strings.HasPrefix(colorStr, "rgba("):
		return parseRGBFunction(colorStr)
	}
	if c, ok := colornames.Map[colorStr]; ok {
		return Color{c.R, c.G, c.B, c.A}, true
	}
	return Color{}, false
}

func parseHexColor(hex string) (Color, bool) {
	for _, ch := range hex {
		if !strings.ContainsRune("0123456789abcdef", ch) {
			return Color{}, false
		}
	}
	digit := func(i int) uint8 {
		v, _ := strconv.ParseUint(hex[i:i+1], 16, 8)
		return uint8(v)
	}
	pair := func(i int) uint8 {
		v, _ := strconv.ParseUint(hex[i:i+2], 16, 8)
		return uint8(v)
	}
	switch len(hex) {
	case 3:
		return Color{digit(0) * 17, digit(1) * 17, digit(2) * 17, 255}, true
	case 4:
		return Color{digit(0) * 17, digit(1) * 17, digit(2) * 17, digit(3) * 17}, true
	case 6:
		return Color{pair(0), pair(2), pair(4), 255}, true
	case 8:
		return Color{pair(0), pair(2), pair(4), pair(6)}, true
	}
	return Color{}, false
}

func parseRGBFunction(s string) (Color, bool) {
	open := strings.IndexByte(s, '(')
	if !strings.HasSuffix(s, ")") {
		return Color{}, false
	}
	args := s[open+1 : len(s)-1]
	var parts []string
	if strings.Contains(args, ",") {
		parts = strings.Split(args, ",")
	} else {
		parts = strings.Fields(strings.ReplaceAll(args, "/", " "))
	}
	if len(parts) != 3 && len(parts) != 4 {
		return Color{}, false
	}
	var channels [4]uint8
	channels[3] = 255
	for i, p := range parts {
		l, ok := ParseLength(p)
		if !ok || (l.Unit != UnitPx && l.Unit != UnitPercent) {
			return Color{}, false
		}
		v := l.Value
		switch {
		case i == 3 && l.Unit == UnitPercent:
			v = v / 100 * 255
		case i == 3:
			v *= 255
		case l.Unit == UnitPercent:
			v = v / 100 * 255
		}
		channels[i] = uint8(math.Round(math.Max(0, math.Min(255, v))))
	}
	return Color{channels[0], channels[1], channels[2], channels[3]}, true
}

var (
	errUnknownProperty = errors.New("unknown property")
	errInvalidValue    = errors.New("invalid value")
)

var borderStyles = map[string]bool{
	"none": true, "hidden": true, "solid": true, "dotted": true, "dashed": true,
	"double": true, "groove": true, "ridge": true, "inset": true, "outset": true,
}

var fontSizeKeywords = map[string]float64{
	"xx-small": 3.0 / 5.0,
	"x-small":  3.0 / 4.0,
	"small":    8.0 / 9.0,
	"medium":   1,
	"large":    6.0 / 5.0,
	"x-large":  3.0 / 2.0,
	"xx-large": 2,
}

var borderWidthKeywords = map[string]float64{"thin": 1, "medium": 3, "thick": 5}

// validValue reports whether value is acceptable for the longhand property.
func validValue(property, value string) error {
	switch value {
	case "inherit", "initial":
		if _, known := initialValues[property]; known {
			return nil
		}
	}
	switch property {
	case "display":
		return oneOf(value, "block", "inline", "inline-block", "list-item", "none")
	case "color", "background-color", "border-color":
		if value == "currentcolor" {
			return nil
		}
		if _, ok := ParseColor(value); ok {
			return nil
		}
		return errInvalidValue
	case "font-size":
		if _, ok := fontSizeKeywords[value]; ok || value == "smaller" || value == "larger" {
			return nil
		}
		return nonNegativeLength(value)
	case "font-weight":
		if oneOf(value, "normal", "bold", "bolder", "lighter") == nil {
			return nil
		}
		if n, ok := parseNumber(value); ok && n >= 1 && n <= 1000 {
			return nil
		}
		return errInvalidValue
	case "font-style":
		return oneOf(value, "normal", "italic", "oblique")
	case "font-family":
		if value == "" {
			return errInvalidValue
		}
		return nil
	case "line-height":
		if value == "normal" {
			return nil
		}
		return nonNegativeLength(value)
	case "text-align":
		return oneOf(value, "left", "right", "center", "justify", "start", "end")
	case "text-decoration", "text-decoration-line":
		if value == "none" {
			return nil
		}
		for _, part := range strings.Fields(value) {
			if oneOf(part, "underline", "line-through", "overline") != nil {
				return errInvalidValue
			}
		}
		return nil
	case "white-space":
		return oneOf(value, "normal", "nowrap", "pre")
	case "width", "height":
		if value == "auto" {
			return nil
		}
		return nonNegativeLength(value)
	case "margin-top", "margin-right", "margin-bottom", "margin-left":
		if value == "auto" {
			return nil
		}
		if _, ok := ParseLength(value); ok {
			return nil
		}
		return errInvalidValue
	case "padding-top", "padding-right", "padding-bottom", "padding-left":
		return nonNegativeLength(value)
	case "border-top-width", "border-right-width", "border-bottom-width", "border-left-width":
		if _, ok := borderWidthKeywords[value]; ok {
			return nil
		}
		return nonNegativeLength(value)
	case "border-style":
		if borderStyles[value] {
			return nil
		}
		return errInvalidValue
	}
	return errUnknownProperty
}

func oneOf(value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return errInvalidValue
}

func nonNegativeLength(value string) error {
	l, ok := ParseLength(value)
	if !ok || l.Value < 0 {
		return errInvalidValue
	}
	return nil
}

// expandShorthand expands a declaration into validated longhand
// declarations. Shorthands are margin, padding, border-width, border-style,
// border-color, border and background (color only).
func expandShorthand(property, value string) ([]Declaration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, errInvalidValue
	}
	if property != "font-family" {
		value = strings.ToLower(value)
	}
	switch property {
	case "margin", "padding":
		return expandBoxProperty(property, "", value)
	case "border-width":
		return expandBoxProperty("border", "-width", value)
	case "border":
		return expandBorderProperty(value)
	case "background":
		return expandBackgroundProperty(value)
	case "text-decoration-line":
		property = "text-decoration"
	}
	if err := validValue(property, value); err != nil {
		return nil, err
	}
	return []Declaration{{Property: property, Value: value}}, nil
}

// expandBoxProperty expands margin/padding/border-width shorthand
// Supports: "10px" (all), "10px 20px" (vertical horizontal),
// "10px 20px 30px" (top h bottom), "10px 20px 30px 40px" (t r b l)
func expandBoxProperty(prefix, suffix, value string) ([]Declaration, error) {
	parts := strings.Fields(value)
	if len(parts) > 1 {
		for _, p := range parts {
			if p == "inherit" || p == "initial" {
				return nil, errInvalidValue
			}
		}
	}
	var top, right, bottom, left string
	switch len(parts) {
	case 1:
		top, right, bottom, left = parts[0], parts[0], parts[0], parts[0]
	case 2:
		top, right, bottom, left = parts[0], parts[1], parts[0], parts[1]
	case 3:
		top, right, bottom, left = parts[0], parts[1], parts[2], parts[1]
	case 4:
		top, right, bottom, left = parts[0], parts[1], parts[2], parts[3]
	default:
		return nil, errInvalidValue
	}
	decls := []Declaration{
		{Property: prefix + "-top" + suffix, Value: top},
		{Property: prefix + "-right" + suffix, Value: right},
		{Property: prefix + "-bottom" + suffix, Value: bottom},
		{Property: prefix + "-left" + suffix, Value: left},
	}
	for _, d := range decls {
		if err := validValue(d.Property, d.Value); err != nil {
			return nil, err
		}
	}
	return decls, nil
}

// expandBorderProperty expands border shorthand
// Format: "1px solid black" or "2px dotted #FF0000", parts in any order.
// Omitted parts are reset to their initial values.
func expandBorderProperty(value string) ([]Declaration, error) {
	width, style, color := "medium", "none", "currentcolor"
	if value == "inherit" || value == "initial" {
		width, style, color = value, value, value
	} else {
		var seenWidth, seenStyle, seenColor bool
		for _, part := range splitValue(value) {
			switch {
			case !seenStyle && borderStyles[part]:
				style, seenStyle = part, true
			case !seenWidth && validValue("border-top-width", part) == nil:
				width, seenWidth = part, true
			case !seenColor && validValue("border-color", part) == nil:
				color, seenColor = part, true
			default:
				return nil, errInvalidValue
			}
		}
	}
	decls := make([]Declaration, 0, 6)
	for _, side := range []string{"top", "right", "bottom", "left"} {
		decls = append(decls, Declaration{Property: "border-" + side + "-width", Value: width})
	}
	decls = append(decls,
		Declaration{Property: "border-style", Value: style},
		Declaration{Property: "border-color", Value: color},
	)
	return decls, nil
}

func expandBackgroundProperty(value string) ([]Declaration, error) {
	if value == "none" {
		return []Declaration{{Property: "background-color", Value: "transparent"}}, nil
	}
	if value == "inherit" || value == "initial" {
		return []Declaration{{Property: "background-color", Value: value}}, nil
	}
	for _, part := range splitValue(value) {
		if validValue("background-color", part) == nil {
			return []Declaration{{Property: "background-color", Value: part}}, nil
		}
	}
	return nil, errInvalidValue
}

// splitValue splits a value at top-level spaces, keeping function
// arguments such as rgb(1, 2, 3) together.
func splitValue(value string) []string {
	parts := make([]string, 0)
	depth := 0
	start := -1
	for i, ch := range value {
		switch {
		case ch == '(':
			depth++
		case ch == ')':
			if depth > 0 {
				depth--
			}
		case ch == ' ' && depth == 0:
			if start >= 0 {
				parts = append(parts, value[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		parts = append(parts, value[start:])
	}
	return parts
}
