// Package filter implements the post-mix filter stage: a 2-pole
// topology-preserving-transform state-variable filter, fixed to its low-pass
// output. Low/high/band/notch selection is an extension point, not wired.
package filter

import "math"

const (
	minCutoffHz = 20
	maxCutoffHz = 20000
)

// Engine holds per-channel integrator state for the stereo insert filter.
// Cutoff and resonance are set once per block; state persists across blocks.
type Engine struct {
	sampleRate float64
	ic1eq      [2]float64
	ic2eq      [2]float64
}

// Prepare resets the filter state for a new sample rate. blockSize is
// accepted for interface symmetry with the other per-block stages; the SVF
// needs no block-sized storage.
func (e *Engine) Prepare(sampleRate float64, blockSize int) {
	e.sampleRate = sampleRate
	e.Reset()
}

// Reset zeros the integrators.
func (e *Engine) Reset() {
	e.ic1eq = [2]float64{}
	e.ic2eq = [2]float64{}
}

// Process filters an interleaved stereo buffer in place. cutoffModBias is a
// fractional bias of the base cutoff (effective = cutoff + bias*cutoff), not
// an absolute Hz offset; the result is clamped to the audible 20..20000 Hz
// band. Resonance is applied as-is.
func (e *Engine) Process(buf []float32, cutoffHz, resonance, cutoffModBias float64) {
	cutoff := cutoffHz + cutoffModBias*cutoffHz
	if cutoff < minCutoffHz {
		cutoff = minCutoffHz
	}
	if cutoff > maxCutoffHz {
		cutoff = maxCutoffHz
	}
	if resonance < 1e-6 {
		resonance = 1e-6
	}

	// TPT SVF coefficients (Simper): g = tan(pi*fc/fs), k = 1/Q.
	ratio := cutoff / e.sampleRate
	if ratio > 0.499 {
		ratio = 0.499
	}
	g := math.Tan(math.Pi * ratio)
	k := 1.0 / resonance
	denom := 1.0 + g*(g+k)
	a1 := 1.0 / denom
	a2 := g * a1

	for i := 0; i+1 < len(buf); i += 2 {
		for ch := 0; ch < 2; ch++ {
			x := float64(buf[i+ch])
			v3 := x - e.ic2eq[ch]
			v1 := a1*e.ic1eq[ch] + a2*v3
			v2 := e.ic2eq[ch] + a2*e.ic1eq[ch] + g*a2*v3
			e.ic1eq[ch] = 2*v1 - e.ic1eq[ch]
			e.ic2eq[ch] = 2*v2 - e.ic2eq[ch]
			buf[i+ch] = float32(v2) // low-pass output
		}
	}
}
