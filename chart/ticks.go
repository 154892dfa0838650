package chart

import (
	"math"
	"strconv"

	"gonum.org/v1/plot"
)

// yearTicks labels the integer positions of a categorical year axis,
// thinning labels once there are more than a dozen.
type yearTicks []string

func (yt yearTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	n := len(yt)
	if n == 0 {
		return ticks
	}

	step := 1
	if n > 12 {
		step = (n + 11) / 12
	}

	for i := 0; i < n; i++ {
		t := plot.Tick{Value: float64(i)}
		if i%step == 0 {
			t.Label = yt[i]
		}
		ticks = append(ticks, t)
	}
	return ticks
}

type amountTicks struct{}

func (amountTicks) Ticks(min, max float64) []plot.Tick {
	t := plot.DefaultTicks{}
	ticks := t.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label != "" {
			ticks[i].Label = FormatCompact(ticks[i].Value)
		}
	}
	return ticks
}

// FormatCompact abbreviates large amounts with a k or M suffix.
func FormatCompact(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e6:
		return strconv.FormatFloat(v/1e6, 'f', 1, 64) + "M"
	case abs >= 1e3:
		return strconv.FormatFloat(v/1e3, 'f', 0, 64) + "k"
	case abs > 0 && abs < 10:
		return strconv.FormatFloat(v, 'g', 3, 64)
	default:
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
}
