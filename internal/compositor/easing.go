package compositor

import "github.com/demostudio/demostudio-agent/internal/timeline"

// easeQuad is a quadratic ease-in-out over [0,1].
func easeQuad(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	if p < 0.5 {
		return 2 * p * p
	}
	q := -2*p + 2
	return 1 - q*q/2
}

// Envelope evaluates the symmetric ease-in/hold/ease-out strength of an
// effect window at timeline instant t: a ramp from 0 over [0, easeIn), a
// hold at 1 over [easeIn, duration-easeOut), and a ramp back to 0 over
// [duration-easeOut, duration). The ramps are shaped by a quadratic
// ease-in-out. Outside the window the strength is 0.
func Envelope(w timeline.EffectWindow, t int64) float64 {
	if !w.Contains(t) || w.DurationMs <= 0 {
		return 0
	}
	local := t - w.StartTimeMs

	easeIn := w.EaseInMs
	easeOut := w.EaseOutMs
	if easeIn < 0 {
		easeIn = 0
	}
	if easeOut < 0 {
		easeOut = 0
	}
	// Overlapping ramps shrink proportionally so the envelope stays defined.
	if easeIn+easeOut > w.DurationMs {
		scale := float64(w.DurationMs) / float64(easeIn+easeOut)
		easeIn = int64(float64(easeIn) * scale)
		easeOut = int64(float64(easeOut) * scale)
	}

	if easeIn > 0 && local < easeIn {
		return easeQuad(float64(local) / float64(easeIn))
	}
	if easeOut > 0 && local >= w.DurationMs-easeOut {
		return easeQuad(float64(w.DurationMs-local) / float64(easeOut))
	}
	return 1
}

// Progress evaluates eased positional progress through a window at instant
// t: 0 at the window start, 1 at the end, quadratic ease-in-out in between.
// Used by pan clips, whose value travels rather than returning to baseline.
func Progress(w timeline.EffectWindow, t int64) float64 {
	if w.DurationMs <= 0 {
		return 0
	}
	p := float64(t-w.StartTimeMs) / float64(w.DurationMs)
	return easeQuad(p)
}

func lerp(a, b, p float64) float64 {
	return a + (b-a)*p
}
