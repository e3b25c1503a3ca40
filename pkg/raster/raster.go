// Package raster replays display lists onto images.
package raster

import (
	"fmt"
	"image"
	"io"

	"github.com/fogleman/gg"
	"go.uber.org/zap"

	"octo/pkg/css"
	"octo/pkg/paint"
	"octo/pkg/text"
)

// Rasterizer draws display lists with the Go fonts, the same faces that
// text.FaceMeasurer measures with.
type Rasterizer struct {
	faces      *text.FaceMeasurer
	background css.Color
	log        *zap.Logger
}

type Option func(*Rasterizer)

func WithLogger(log *zap.Logger) Option {
	return func(r *Rasterizer) {
		if log != nil {
			r.log = log
		}
	}
}

// WithBackground sets the color the canvas is cleared to. The default is
// white.
func WithBackground(c css.Color) Option {
	return func(r *Rasterizer) { r.background = c }
}

func New(faces *text.FaceMeasurer, opts ...Option) *Rasterizer {
	if faces == nil {
		faces = text.NewFaceMeasurer()
	}
	r := &Rasterizer{
		faces:      faces,
		background: css.Color{R: 255, G: 255, B: 255, A: 255},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Replay draws dl onto a new width x height canvas.
func (r *Rasterizer) Replay(dl paint.DisplayList, width, height int) (image.Image, error) {
	dc, err := r.draw(dl, width, height)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// EncodePNG draws dl and writes it to w as PNG.
func (r *Rasterizer) EncodePNG(w io.Writer, dl paint.DisplayList, width, height int) error {
	dc, err := r.draw(dl, width, height)
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

func (r *Rasterizer) draw(dl paint.DisplayList, width, height int) (*gg.Context, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("raster: invalid canvas size %dx%d", width, height)
	}
	dc := gg.NewContext(width, height)
	dc.SetColor(r.background)
	dc.Clear()

	for _, cmd := range dl {
		switch c := cmd.(type) {
		case paint.DrawRect:
			dc.SetColor(c.Color)
			dc.DrawRectangle(c.Rect.X, c.Rect.Y, c.Rect.Width, c.Rect.Height)
			dc.Fill()
		case paint.DrawText:
			face, err := r.faces.Face(c.Font)
			if err != nil {
				// Text without a face is skipped rather than failing the frame.
				r.log.Debug("skipping text without font face",
					zap.String("text", c.Text), zap.Float64("size", c.Font.Size), zap.Error(err))
				continue
			}
			dc.SetFontFace(face)
			dc.SetColor(c.Color)
			dc.DrawString(c.Text, c.X, c.Baseline)
		}
	}
	return dc, nil
}
