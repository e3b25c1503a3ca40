package text

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rivo/uniseg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Font describes the font a run of text is set in.
type Font struct {
	Family string
	Size   float64
	Weight int
	Italic bool
}

func (f Font) Bold() bool { return f.Weight >= 600 }

// Monospace reports whether the family list asks for a fixed pitch font.
func (f Font) Monospace() bool {
	family := strings.ToLower(f.Family)
	return strings.Contains(family, "monospace") || strings.Contains(family, "mono") ||
		strings.Contains(family, "courier")
}

// Metrics are the vertical metrics of a font in px.
type Metrics struct {
	Ascent  float64
	Descent float64
}

// Measurer measures text for layout. Implementations must be
// deterministic: the same font and text always give the same result.
type Measurer interface {
	// Measure returns the advance width of s.
	Measure(f Font, s string) float64
	Metrics(f Font) Metrics
}

// MonoMeasurer gives every grapheme cluster the same advance, a fraction of
// the font size. Ascent is 0.8 and descent 0.2 of the font size. It needs no
// font data, which makes layout results easy to predict in tests.
type MonoMeasurer struct {
	Advance float64 // advance per grapheme cluster in em
}

func (m MonoMeasurer) Measure(f Font, s string) float64 {
	return float64(uniseg.GraphemeClusterCount(s)) * m.advance() * f.Size
}

func (m MonoMeasurer) Metrics(f Font) Metrics {
	return Metrics{Ascent: f.Size * 0.8, Descent: f.Size * 0.2}
}

func (m MonoMeasurer) advance() float64 {
	if m.Advance <= 0 {
		return 0.5
	}
	return m.Advance
}

// faceKey identifies a loaded face.
type faceKey struct {
	bold, italic, mono bool
	size               float64
}

// MaxFaceSize is the largest font size, in px, that gets a real font face.
// Glyph metrics are 26.6 fixed point, so larger faces overflow; text beyond
// it is measured with the fallback estimate.
const MaxFaceSize = 4096

// FaceMeasurer measures text with the Go fonts. Faces are parsed lazily and
// cached; all methods are safe for concurrent use.
type FaceMeasurer struct {
	mu       sync.Mutex
	fonts    map[faceKey]*opentype.Font
	faces    map[faceKey]font.Face
	fallback MonoMeasurer
}

func NewFaceMeasurer() *FaceMeasurer {
	return &FaceMeasurer{
		fonts:    make(map[faceKey]*opentype.Font),
		faces:    make(map[faceKey]font.Face),
		fallback: MonoMeasurer{Advance: 0.6},
	}
}

// fontData returns the TTF data for the given style combination.
func fontData(bold, italic, mono bool) []byte {
	if mono {
		if bold {
			return gomonobold.TTF
		}
		return gomono.TTF
	}
	switch {
	case bold && italic:
		return gobolditalic.TTF
	case bold:
		return gobold.TTF
	case italic:
		return goitalic.TTF
	}
	return goregular.TTF
}

// Face returns the font face for f, loading it on first use. The face is
// shared; callers must not use it concurrently with the measurer.
func (m *FaceMeasurer) Face(f Font) (font.Face, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.face(f)
}

func (m *FaceMeasurer) face(f Font) (font.Face, error) {
	if !(f.Size > 0 && f.Size <= MaxFaceSize) {
		return nil, fmt.Errorf("text: font size %v out of range", f.Size)
	}
	key := faceKey{bold: f.Bold(), italic: f.Italic, mono: f.Monospace(), size: f.Size}
	if face, ok := m.faces[key]; ok {
		return face, nil
	}
	fontKey := faceKey{bold: key.bold, italic: key.italic, mono: key.mono}
	parsed, ok := m.fonts[fontKey]
	if !ok {
		var err error
		parsed, err = opentype.Parse(fontData(key.bold, key.italic, key.mono))
		if err != nil {
			return nil, err
		}
		m.fonts[fontKey] = parsed
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    f.Size,
		DPI:     72, // one point per pixel
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	m.faces[key] = face
	return face, nil
}

// Measure returns the advance width of s. If the face cannot be loaded the
// width is estimated from the font size.
func (m *FaceMeasurer) Measure(f Font, s string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	face, err := m.face(f)
	if err != nil {
		return m.fallback.Measure(f, s)
	}
	return fromFixed(font.MeasureString(face, s))
}

func (m *FaceMeasurer) Metrics(f Font) Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	face, err := m.face(f)
	if err != nil {
		return m.fallback.Metrics(f)
	}
	metrics := face.Metrics()
	return Metrics{Ascent: fromFixed(metrics.Ascent), Descent: fromFixed(metrics.Descent)}
}

func fromFixed(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
