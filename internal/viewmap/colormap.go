package viewmap

import "fmt"

// Colormap is a 3-stop linear ramp (yellow, orange, red) over [Min, Max].
type Colormap struct {
	Min, Max float64
}

type rgb struct{ r, g, b uint8 }

var stops = [3]rgb{
	{0xff, 0xff, 0x00}, // yellow
	{0xff, 0xa5, 0x00}, // orange
	{0xff, 0x00, 0x00}, // red
}

// CSSGradient is the legend bar background matching the ramp.
const CSSGradient = "linear-gradient(to right, #ffff00, #ffa500, #ff0000)"

// Hex evaluates the ramp at v. A degenerate range (Max <= Min) maps every
// value to the middle stop so rendering still succeeds.
func (c Colormap) Hex(v float64) string {
	t := 0.5
	if c.Max > c.Min {
		t = (v - c.Min) / (c.Max - c.Min)
		if t < 0 {
			t = 0
		}
		if t > 1 {
			t = 1
		}
	}

	var lo, hi rgb
	if t <= 0.5 {
		lo, hi = stops[0], stops[1]
		t *= 2
	} else {
		lo, hi = stops[1], stops[2]
		t = (t - 0.5) * 2
	}
	return fmt.Sprintf("#%02x%02x%02x", lerp(lo.r, hi.r, t), lerp(lo.g, hi.g, t), lerp(lo.b, hi.b, t))
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}
