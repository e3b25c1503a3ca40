package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error", "--measurer", "mono"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestDump_Boxes(t *testing.T) {
	input := writeFile(t, "in.html", `<p>hello <em>world</em></p>`)

	out, err := execute(t, "dump", "--width", "200", input)
	require.NoError(t, err)
	assert.Contains(t, out, "BlockBox <p>")
	assert.Contains(t, out, `TextRun "hello "`)
	assert.Contains(t, out, "InlineBox <em>")
}

func TestDump_DOMAndPaint(t *testing.T) {
	input := writeFile(t, "in.html", `<div style="background-color: red; height: 20px">x</div>`)

	out, err := execute(t, "dump", "--what", "dom", input)
	require.NoError(t, err)
	assert.Contains(t, out, "div")

	out, err = execute(t, "dump", "--what", "paint", input)
	require.NoError(t, err)
	assert.Contains(t, out, "paint.DrawRect")
	assert.Contains(t, out, "paint.DrawText")
}

func TestDump_UnknownWhat(t *testing.T) {
	input := writeFile(t, "in.html", `<p>hi</p>`)
	_, err := execute(t, "dump", "--what", "layers", input)
	assert.ErrorContains(t, err, `unknown dump "layers"`)
}

func TestDump_CallerStylesheet(t *testing.T) {
	input := writeFile(t, "in.html", `<p>hi</p>`)
	sheet := writeFile(t, "in.css", `p { display: none }`)

	out, err := execute(t, "dump", "--css", sheet, input)
	require.NoError(t, err)
	assert.NotContains(t, out, "<p>")
}

func TestRender_WritesPNG(t *testing.T) {
	input := writeFile(t, "in.html", `<div style="background-color: red; height: 20px"></div>`)
	output := filepath.Join(t.TempDir(), "out.png")

	_, err := execute(t, "render", "--width", "200", "--height", "50", input, output)
	require.NoError(t, err)

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
	r, g, b, _ := img.At(20, 15).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0, 0}, [3]uint32{r, g, b}, "inside the div")
	r, g, b, _ = img.At(20, 40).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0xffff, 0xffff}, [3]uint32{r, g, b}, "below the div")
}

func TestRender_ContentHeight(t *testing.T) {
	input := writeFile(t, "in.html", `<div style="height: 30px"></div>`)
	output := filepath.Join(t.TempDir(), "out.png")

	_, err := execute(t, "render", "--width", "100", input, output)
	require.NoError(t, err)

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 46, cfg.Height, "body margins around the div")
}

func TestRender_ConfigFile(t *testing.T) {
	cfgPath := writeFile(t, "octo.yaml", "render:\n  width: 64\n")
	input := writeFile(t, "in.html", `<div style="height: 4px"></div>`)
	output := filepath.Join(t.TempDir(), "out.png")

	_, err := execute(t, "--config", cfgPath, "render", input, output)
	require.NoError(t, err)

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
}

func TestRender_Errors(t *testing.T) {
	_, err := execute(t, "render", filepath.Join(t.TempDir(), "missing.html"), "out.png")
	assert.ErrorContains(t, err, "reading")

	_, err = execute(t, "render", "only-one-arg")
	assert.Error(t, err)

	cfgPath := writeFile(t, "octo.yaml", "render:\n  line_height: 0\n")
	_, err = execute(t, "--config", cfgPath, "dump", "x.html")
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestCompare(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, "in.html", `<div style="background-color: blue; height: 10px"></div>`)
	first := filepath.Join(dir, "first.png")
	second := filepath.Join(dir, "second.png")
	other := filepath.Join(dir, "other.png")
	diff := filepath.Join(dir, "diff.png")

	_, err := execute(t, "render", "--width", "40", "--height", "30", input, first)
	require.NoError(t, err)
	_, err = execute(t, "render", "--width", "40", "--height", "30", input, second)
	require.NoError(t, err)

	out, err := execute(t, "compare", first, second)
	require.NoError(t, err)
	assert.Contains(t, out, "0 of 1200 pixels differ")

	blank := writeFile(t, "blank.html", `<div style="height: 10px"></div>`)
	_, err = execute(t, "render", "--width", "40", "--height", "30", blank, other)
	require.NoError(t, err)

	_, err = execute(t, "compare", "--diff", diff, first, other)
	assert.ErrorContains(t, err, "does not match")
	_, err = os.Stat(diff)
	assert.NoError(t, err)
}
