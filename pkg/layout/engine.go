package layout

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"octo/pkg/css"
	"octo/pkg/html"
	"octo/pkg/text"
)

// LayoutEngine turns a styled document into a box tree with geometry. An
// engine holds no per-pass state and may be shared between goroutines as
// long as its measurer is safe for concurrent use.
type LayoutEngine struct {
	measurer text.Measurer
	log      *zap.Logger
	// normalLineHeight scales a font's ascent and descent when line-height
	// is "normal".
	normalLineHeight float64
}

// DefaultNormalLineHeight is the line height factor used for
// line-height: normal.
const DefaultNormalLineHeight = 1.25

type Option func(*LayoutEngine)

func WithLogger(log *zap.Logger) Option {
	return func(le *LayoutEngine) {
		if log != nil {
			le.log = log
		}
	}
}

// WithMeasurer sets the text measurer. The default is a MonoMeasurer.
func WithMeasurer(m text.Measurer) Option {
	return func(le *LayoutEngine) {
		if m != nil {
			le.measurer = m
		}
	}
}

// WithNormalLineHeight sets the factor applied to font metrics for
// line-height: normal. The default is 1.25.
func WithNormalLineHeight(factor float64) Option {
	return func(le *LayoutEngine) {
		if factor > 0 {
			le.normalLineHeight = factor
		}
	}
}

func NewLayoutEngine(opts ...Option) *LayoutEngine {
	le := &LayoutEngine{
		measurer:         text.MonoMeasurer{},
		log:              zap.NewNop(),
		normalLineHeight: DefaultNormalLineHeight,
	}
	for _, opt := range opts {
		opt(le)
	}
	return le
}

// pass carries the state of one Layout call.
type pass struct {
	le     *LayoutEngine
	styles *css.Styles
	boxes  int

	decorations map[*html.Node]Decoration
}

// Layout lays doc out for the given available width. styles must have been
// computed for doc. The width must be finite and non-negative.
func (le *LayoutEngine) Layout(doc *html.Document, styles *css.Styles, width float64) (*Tree, error) {
	if doc == nil || doc.Root == nil {
		return nil, fmt.Errorf("layout: nil document: %w", ErrContractViolation)
	}
	if styles == nil || styles.Len() != doc.Len() {
		return nil, fmt.Errorf("layout: styles were not computed for this document: %w", ErrContractViolation)
	}
	if math.IsNaN(width) || math.IsInf(width, 0) || width < 0 {
		return nil, fmt.Errorf("layout: invalid width %v: %w", width, ErrContractViolation)
	}

	p := &pass{le: le, styles: styles}
	root := p.layoutBlock(doc.Root, width, 0, 0)
	tree := &Tree{
		Root:    root,
		Width:   width,
		Height:  nonNegative(root.MarginRect().Bottom()),
		laidOut: true,
	}
	le.log.Debug("layout complete",
		zap.Float64("width", width),
		zap.Float64("height", tree.Height),
		zap.Int("boxes", p.boxes))
	return tree, nil
}

func (p *pass) newBox(kind BoxKind, node *html.Node, style *css.ComputedStyle) *Box {
	p.boxes++
	return &Box{Kind: kind, Node: node, Style: style}
}

// font returns the font a style asks for.
func font(s *css.ComputedStyle) text.Font {
	weight := s.FontWeight
	if weight == 0 {
		weight = 400
	}
	return text.Font{Family: s.FontFamily, Size: s.FontSize, Weight: weight, Italic: s.IsItalic()}
}
