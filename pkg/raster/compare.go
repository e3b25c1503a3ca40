package raster

import (
	"fmt"
	"image"
	"image/color"
)

// Diff summarizes a pixel comparison of two images.
type Diff struct {
	Pixels    int // pixels compared
	Different int // pixels outside tolerance
	// MaxDelta is the largest 8-bit channel difference seen.
	MaxDelta int
	// Image marks differing pixels red over a gray copy of the actual image.
	Image *image.RGBA
}

// Match reports whether no pixel differed.
func (d *Diff) Match() bool { return d.Different == 0 }

// Ratio is the fraction of pixels that differed.
func (d *Diff) Ratio() float64 {
	if d.Pixels == 0 {
		return 0
	}
	return float64(d.Different) / float64(d.Pixels)
}

// CompareOptions tunes Compare.
type CompareOptions struct {
	// Tolerance is the largest 8-bit channel difference still counted as equal.
	Tolerance int
	// Radius lets a pixel match any expected pixel up to Radius away, which
	// absorbs glyph positions rounded differently.
	Radius int
}

// Compare diffs actual against expected pixel by pixel. Both images must
// have the same bounds.
func Compare(actual, expected image.Image, opts CompareOptions) (*Diff, error) {
	bounds := actual.Bounds()
	if bounds != expected.Bounds() {
		return nil, fmt.Errorf("raster: image bounds differ: %v vs %v", bounds, expected.Bounds())
	}
	d := &Diff{
		Pixels: bounds.Dx() * bounds.Dy(),
		Image:  image.NewRGBA(bounds),
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			a := actual.At(x, y)
			delta := channelDelta(a, expected.At(x, y))
			d.MaxDelta = max(d.MaxDelta, delta)
			if delta > opts.Tolerance && !nearMatch(a, expected, x, y, opts) {
				d.Different++
				d.Image.Set(x, y, color.RGBA{R: 255, A: 255})
				continue
			}
			d.Image.Set(x, y, color.GrayModel.Convert(a))
		}
	}
	return d, nil
}

func nearMatch(a color.Color, expected image.Image, x, y int, opts CompareOptions) bool {
	bounds := expected.Bounds()
	for dy := -opts.Radius; dy <= opts.Radius; dy++ {
		for dx := -opts.Radius; dx <= opts.Radius; dx++ {
			p := image.Pt(x+dx, y+dy)
			if (dx == 0 && dy == 0) || !p.In(bounds) {
				continue
			}
			if channelDelta(a, expected.At(p.X, p.Y)) <= opts.Tolerance {
				return true
			}
		}
	}
	return false
}

func channelDelta(a, b color.Color) int {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return max(
		absDiff(ar>>8, br>>8),
		absDiff(ag>>8, bg>>8),
		absDiff(ab>>8, bb>>8),
		absDiff(aa>>8, ba>>8),
	)
}

func absDiff(a, b uint32) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
