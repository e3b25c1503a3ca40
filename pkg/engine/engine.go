// Package engine runs the whole rendering pipeline: markup and style
// parsing, the cascade, layout and painting.
package engine

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"octo/pkg/config"
	"octo/pkg/css"
	"octo/pkg/html"
	"octo/pkg/layout"
	"octo/pkg/paint"
	"octo/pkg/text"
)

// Engine renders documents. It keeps no state between renders and is safe
// for concurrent use when its measurer is.
type Engine struct {
	cfg      config.Config
	log      *zap.Logger
	measurer text.Measurer
}

type Option func(*Engine)

func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithMeasurer overrides the measurer the configuration selects.
func WithMeasurer(m text.Measurer) Option {
	return func(e *Engine) { e.measurer = m }
}

func WithConfig(cfg config.Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithViewSource renders markup as its source text instead of as a
// document.
func WithViewSource(on bool) Option {
	return func(e *Engine) { e.cfg.Render.ViewSource = on }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		cfg: *config.NewDefaultConfig(),
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.measurer == nil {
		e.measurer = NewMeasurer(e.cfg.Render)
	}
	return e
}

// NewMeasurer returns the text measurer a render configuration selects.
func NewMeasurer(cfg config.RenderConfig) text.Measurer {
	if cfg.Measurer == config.MeasurerMono {
		return text.MonoMeasurer{Advance: cfg.MonoAdvance}
	}
	return text.NewFaceMeasurer()
}

// Measurer returns the measurer the engine lays text out with.
func (e *Engine) Measurer() text.Measurer { return e.measurer }

// Result holds the output of every pipeline stage.
type Result struct {
	Document *html.Document
	Styles   *css.Styles
	Tree     *layout.Tree
	Commands paint.DisplayList
	// Height is the content height, the scroll range of the document.
	Height float64
}

// Render runs the pipeline over markup for the given width. stylesheet is
// an author stylesheet applied before the document's own <style> elements.
// Malformed input never fails; errors report contract violations such as
// an invalid width.
func (e *Engine) Render(markup, stylesheet string, width float64) (*Result, error) {
	start := time.Now()

	htmlOpts := []html.Option{html.WithLogger(e.log)}
	if e.cfg.Render.ViewSource {
		htmlOpts = append(htmlOpts, html.WithViewSource())
	}
	doc := html.Parse(markup, htmlOpts...)
	parsed := time.Now()
	e.log.Debug("parsed markup",
		zap.Int("nodes", doc.Len()),
		zap.Int("stylesheets", len(doc.Stylesheets)),
		zap.Duration("elapsed", parsed.Sub(start)))

	cssOpts := []css.Option{css.WithLogger(e.log), css.WithRootFontSize(e.cfg.Render.RootFontSize)}
	var sheets []*css.Stylesheet
	if stylesheet != "" {
		sheets = append(sheets, css.Parse(stylesheet, cssOpts...))
	}
	for _, src := range doc.Stylesheets {
		sheets = append(sheets, css.Parse(src, cssOpts...))
	}
	styles := css.ApplyStylesToDocument(doc, sheets, cssOpts...)
	styled := time.Now()
	e.log.Debug("computed styles",
		zap.Int("sheets", len(sheets)),
		zap.Duration("elapsed", styled.Sub(parsed)))

	le := layout.NewLayoutEngine(
		layout.WithMeasurer(e.measurer),
		layout.WithLogger(e.log),
		layout.WithNormalLineHeight(e.cfg.Render.LineHeight),
	)
	tree, err := le.Layout(doc, styles, width)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	laidOut := time.Now()
	e.log.Debug("laid out", zap.Float64("height", tree.Height), zap.Duration("elapsed", laidOut.Sub(styled)))

	commands, err := paint.Paint(tree)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	e.log.Debug("painted",
		zap.Int("commands", len(commands)),
		zap.Duration("elapsed", time.Since(laidOut)),
		zap.Duration("total", time.Since(start)))

	return &Result{
		Document: doc,
		Styles:   styles,
		Tree:     tree,
		Commands: commands,
		Height:   tree.Height,
	}, nil
}
