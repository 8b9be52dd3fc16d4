package pixel

import (
	"image/color"
	"testing"
)

func TestMono(t *testing.T) {
	tests := []struct {
		c       Mono
		r, g, b uint32
	}{
		{Black, 0, 0, 0},
		{Yellow, 0xffff, 0xffff, 0},
	}
	for _, test := range tests {
		r, g, b, a := test.c.RGBA()
		if r != test.r || g != test.g || b != test.b {
			t.Errorf("expected %v to be (%#04x,%#04x,%#04x), got (%#04x,%#04x,%#04x)", test.c, test.r, test.g, test.b, r, g, b)
		}
		if a != 0xffff {
			t.Errorf("expected %v to be opaque, got alpha %#04x", test.c, a)
		}
	}
}

func TestMonoModel(t *testing.T) {
	tests := []struct {
		c    color.Color
		want Mono
	}{
		{color.White, Yellow},
		{color.Black, Black},
		{color.Transparent, Black},
		{color.RGBA{R: 0xff, G: 0xff, A: 0xff}, Yellow},
		{color.Gray{Y: 0x40}, Black},
		{color.Gray{Y: 0xc0}, Yellow},
		{Yellow, Yellow},
	}
	for _, test := range tests {
		if v := MonoModel.Convert(test.c); v != test.want {
			t.Errorf("expected %v to convert to %v, got %v", test.c, test.want, v)
		}
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{Off, On, Invert} {
		v, ok := ParseMode(m.String())
		if !ok {
			t.Errorf("expected %q to parse", m)
			continue
		}
		if v != m {
			t.Errorf("expected %q to parse as %d, got %d", m, m, v)
		}
	}
	if _, ok := ParseMode("sideways"); ok {
		t.Error("expected invalid mode to be rejected")
	}
	if v := Mode(42).String(); v != "invalid" {
		t.Errorf("expected invalid mode string, got %q", v)
	}
}
