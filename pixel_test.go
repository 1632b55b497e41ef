package pixel

import (
	"bytes"
	"log/slog"
	"testing"
)

func TestLoggerDefaultSilent(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("Logger() returned nil")
	}
	if l.Enabled(nil, slog.LevelError) { //nolint:staticcheck // nil context is fine for nop handler
		t.Error("default logger should be disabled at every level")
	}
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer SetLogger(nil)

	Logger().Info("hello", "k", "v")
	if buf.Len() == 0 {
		t.Error("expected log output after SetLogger")
	}

	SetLogger(nil)
	buf.Reset()
	Logger().Info("silent")
	if buf.Len() != 0 {
		t.Error("SetLogger(nil) should restore the silent logger")
	}
}

func TestHex(t *testing.T) {
	tests := []struct {
		in   string
		want Color
	}{
		{"#ff0000", Color{1, 0, 0, 1}},
		{"00ff00", Color{0, 1, 0, 1}},
		{"#0000ff", Color{0, 0, 1, 1}},
		{"not-a-color", Black},
	}
	for _, tt := range tests {
		got := Hex(tt.in)
		if got != tt.want {
			t.Errorf("Hex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestColorRGBA8(t *testing.T) {
	r, g, b, a := Color{1, 0.5, 0, 1}.RGBA8()
	if r != 255 || b != 0 || a != 255 {
		t.Errorf("RGBA8 = (%d,%d,%d,%d)", r, g, b, a)
	}
	if g < 127 || g > 128 {
		t.Errorf("green channel = %d, want ~127", g)
	}
}

func TestColorLerpEndpoints(t *testing.T) {
	c := Red.Lerp(Blue, 0)
	if c != Red {
		t.Errorf("Lerp(t=0) = %v, want %v", c, Red)
	}
	c = Red.Lerp(Blue, 1)
	if c != Blue {
		t.Errorf("Lerp(t=1) = %v, want %v", c, Blue)
	}
	if mid := Red.Lerp(Blue, 0.5); mid == Red || mid == Blue {
		t.Errorf("Lerp(t=0.5) = %v, want a blend", mid)
	}
}

func TestStyleFlags(t *testing.T) {
	s := StyleBold | StyleUnderline
	if !s.Has(StyleBold) || !s.Has(StyleUnderline) {
		t.Error("Has should report set flags")
	}
	if s.Has(StyleItalic) {
		t.Error("Has reported an unset flag")
	}
	s = s.Without(StyleBold)
	if s.Has(StyleBold) {
		t.Error("Without did not clear the flag")
	}
	if got := (StyleBold | StyleReverse).String(); got != "bold|reverse" {
		t.Errorf("String() = %q", got)
	}
	if got := Style(0).String(); got != "none" {
		t.Errorf("String() = %q", got)
	}
}

func TestRect(t *testing.T) {
	r := NewRect(10, 20, 30, 40)
	if r.MaxX() != 40 || r.MaxY() != 60 {
		t.Errorf("edges = (%v, %v)", r.MaxX(), r.MaxY())
	}
	if !r.Contains(10, 20) || r.Contains(40, 20) {
		t.Error("Contains is wrong at the edges")
	}
	if r.Empty() || !NewRect(0, 0, 0, 5).Empty() {
		t.Error("Empty is wrong")
	}
}
