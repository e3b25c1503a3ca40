package css

import (
	"image/color"
	"testing"
)

func TestParseLength(t *testing.T) {
	tests := []struct {
		input string
		want  Length
		ok    bool
	}{
		{"100px", Px(100), true},
		{"100", Px(100), true},
		{"-4px", Px(-4), true},
		{"12pt", Px(16), true},
		{"1.5em", Length{1.5, UnitEm}, true},
		{"2rem", Length{2, UnitRem}, true},
		{"50%", Length{50, UnitPercent}, true},
		{"px", Length{}, false},
		{"abc", Length{}, false},
		{"NaN", Length{}, false},
		{"Infpx", Length{}, false},
		{"10vw", Length{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseLength(tt.input)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseLength(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLengthResolve(t *testing.T) {
	if got := (Length{50, UnitPercent}).Resolve(300); got != 150 {
		t.Errorf("expected 150, got %v", got)
	}
	if got := Auto.Resolve(300); got != 0 {
		t.Errorf("expected auto to resolve to 0, got %v", got)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		input string
		want  Color
		ok    bool
	}{
		{"red", Color{255, 0, 0, 255}, true},
		{"DarkOrange", Color{255, 140, 0, 255}, true},
		{"#fff", Color{255, 255, 255, 255}, true},
		{"#0000ff", Color{0, 0, 255, 255}, true},
		{"#ff000080", Color{255, 0, 0, 128}, true},
		{"rgb(1, 2, 3)", Color{1, 2, 3, 255}, true},
		{"rgba(255, 0, 0, 0.5)", Color{255, 0, 0, 128}, true},
		{"rgb(100%, 0%, 0%)", Color{255, 0, 0, 255}, true},
		{"rgb(0 128 0)", Color{0, 128, 0, 255}, true},
		{"transparent", Color{}, true},
		{"#ggg", Color{}, false},
		{"#12345", Color{}, false},
		{"rgb(1, 2)", Color{}, false},
		{"notacolor", Color{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseColor(tt.input)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseColor(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestColorImplementsImageColor(t *testing.T) {
	var c color.Color = Color{255, 0, 0, 128}
	r, g, b, a := c.RGBA()
	if a != 0x8080 || r != 0x8080 || g != 0 || b != 0 {
		t.Errorf("unexpected premultiplied values %x %x %x %x", r, g, b, a)
	}
}

func TestColorString(t *testing.T) {
	if got := (Color{1, 2, 3, 255}).String(); got != "rgb(1, 2, 3)" {
		t.Errorf("unexpected %q", got)
	}
	if got := Transparent.String(); got != "rgba(0, 0, 0, 0.000)" {
		t.Errorf("unexpected %q", got)
	}
}

func TestSplitValue(t *testing.T) {
	parts := splitValue("1px rgb(1, 2, 3)  solid")
	if len(parts) != 3 || parts[1] != "rgb(1, 2, 3)" {
		t.Errorf("unexpected parts %q", parts)
	}
}
