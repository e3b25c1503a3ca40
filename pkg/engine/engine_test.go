package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"octo/pkg/config"
	"octo/pkg/css"
	"octo/pkg/layout"
	"octo/pkg/paint"
	"octo/pkg/text"
)

func newTestEngine(opts ...Option) *Engine {
	return New(append([]Option{WithMeasurer(text.MonoMeasurer{Advance: 0.5})}, opts...)...)
}

func texts(dl paint.DisplayList) []paint.DrawText {
	var out []paint.DrawText
	for _, c := range dl {
		if t, ok := c.(paint.DrawText); ok {
			out = append(out, t)
		}
	}
	return out
}

func TestRender_MalformedMarkup(t *testing.T) {
	res, err := newTestEngine().Render(`<div><p>unclosed <b>bold</div></span><i>tail`, `p { color: ; } }}} div {`, 400)
	require.NoError(t, err)

	var words []string
	for _, dt := range texts(res.Commands) {
		words = append(words, strings.TrimSpace(dt.Text))
	}
	assert.Equal(t, []string{"unclosed", "bold", "tail"}, words)
	assert.Greater(t, res.Height, 0.0)
}

func TestRender_SpecificityWins(t *testing.T) {
	res, err := newTestEngine().Render(`<p class="x">hi</p>`, `.x { color: blue } p { color: red }`, 400)
	require.NoError(t, err)
	dts := texts(res.Commands)
	require.Len(t, dts, 1)
	assert.Equal(t, css.Color{B: 255, A: 255}, dts[0].Color)
}

func TestRender_InheritedFontSize(t *testing.T) {
	res, err := newTestEngine().Render(`<style>body { font-size: 20px }</style><p>x <span>y</span></p>`, ``, 400)
	require.NoError(t, err)
	for _, dt := range texts(res.Commands) {
		assert.Equal(t, 20.0, dt.Font.Size, dt.Text)
	}
}

func TestRender_DocumentSheetsFollowCallerSheet(t *testing.T) {
	res, err := newTestEngine().Render(`<style>p { color: blue }</style><p>x</p>`, `p { color: red }`, 400)
	require.NoError(t, err)
	dts := texts(res.Commands)
	require.Len(t, dts, 1)
	assert.Equal(t, css.Color{B: 255, A: 255}, dts[0].Color)
}

func TestRender_InvalidWidth(t *testing.T) {
	res, err := newTestEngine().Render(`<p>x</p>`, ``, -1)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, layout.ErrContractViolation), "got %v", err)
}

func TestRender_ViewSource(t *testing.T) {
	res, err := newTestEngine(WithViewSource(true)).Render(`<b>x</b>`, ``, 400)
	require.NoError(t, err)

	var all strings.Builder
	for _, dt := range texts(res.Commands) {
		all.WriteString(dt.Text)
	}
	assert.Contains(t, all.String(), "<b>x</b>")
}

func TestRender_Result(t *testing.T) {
	res, err := newTestEngine().Render(`<p>one two</p>`, ``, 400)
	require.NoError(t, err)
	assert.NotNil(t, res.Document)
	assert.Equal(t, res.Document.Len(), res.Styles.Len())
	assert.True(t, res.Tree.LaidOut())
	assert.Equal(t, res.Tree.Height, res.Height)
	assert.NotEmpty(t, res.Commands)
}

func TestRender_Deterministic(t *testing.T) {
	markup := `<h1>Title</h1><p style="text-align: center">Some <a href="#">link</a> text <u>here</u>.</p>`
	e := newTestEngine()
	first, err := e.Render(markup, `h1 { background: #eee; border-bottom: 1px solid black }`, 300)
	require.NoError(t, err)
	second, err := e.Render(markup, `h1 { background: #eee; border-bottom: 1px solid black }`, 300)
	require.NoError(t, err)
	if diff := cmp.Diff(first.Commands, second.Commands); diff != "" {
		t.Errorf("renders differ (-first +second):\n%s", diff)
	}
	assert.Equal(t, first.Height, second.Height)
}

func TestRender_LogsStages(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	_, err := newTestEngine(WithLogger(zap.New(core))).Render(`<p>x</p></span>`, `p { colour: red }`, 400)
	require.NoError(t, err)

	for _, msg := range []string{"parsed markup", "computed styles", "laid out", "painted"} {
		assert.Equal(t, 1, logs.FilterMessage(msg).Len(), msg)
	}
	assert.NotZero(t, logs.FilterMessage("ignoring unmatched end tag").Len())
	assert.NotZero(t, logs.FilterMessage("skipping declaration").Len())
}

func TestNew_MeasurerFromConfig(t *testing.T) {
	cfg := *config.NewDefaultConfig()
	cfg.Render.Measurer = config.MeasurerMono
	cfg.Render.MonoAdvance = 0.6
	e := New(WithConfig(cfg))
	assert.Equal(t, text.MonoMeasurer{Advance: 0.6}, e.Measurer())

	assert.IsType(t, &text.FaceMeasurer{}, New().Measurer())
}

func TestNew_RootFontSizeFromConfig(t *testing.T) {
	cfg := *config.NewDefaultConfig()
	cfg.Render.RootFontSize = 10
	res, err := newTestEngine(WithConfig(cfg)).Render(`<p style="font-size: 2rem">x</p>`, ``, 400)
	require.NoError(t, err)
	dts := texts(res.Commands)
	require.Len(t, dts, 1)
	assert.Equal(t, 20.0, dts[0].Font.Size)
}
