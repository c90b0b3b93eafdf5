package lfo

import (
	"math"
	"math/rand"
)

// Waveform selectors.
const (
	WaveSine     = 0
	WaveTriangle = 1
	WaveSquare   = 2
	WaveSawtooth = 3
	WaveRandom   = 4
)

// LFO is a low-frequency oscillator producing one modulation value per call.
// It is owned by the modulation matrix and ticked once per sample.
type LFO struct {
	sampleRate float64
	rateHz     float64
	waveform   int
	phase      float64 // current phase [0, 1)
	randVal    float64 // held value for the random (sample-and-hold) waveform
}

// Configure sets the sample rate used for phase advancement.
func (l *LFO) Configure(sampleRate float64) {
	l.sampleRate = sampleRate
}

// SetRate sets the oscillation rate in Hz. Rate 0 freezes the phase, which
// yields a constant output rather than an error.
func (l *LFO) SetRate(rateHz float64) {
	if rateHz < 0 {
		rateHz = 0
	}
	l.rateHz = rateHz
}

// SetWaveform selects one of the Wave* constants. Out-of-range values fall
// back to sine.
func (l *LFO) SetWaveform(waveform int) {
	if waveform < WaveSine || waveform > WaveRandom {
		waveform = WaveSine
	}
	l.waveform = waveform
}

// Next returns the waveform value at the current phase in [-1, 1], then
// advances the phase by rateHz/sampleRate, wrapping at 1.0. The random
// waveform holds its value until the phase wraps, then draws a new uniform
// value in [-1, 1]; its effective rate therefore equals the configured rate.
func (l *LFO) Next() float64 {
	var out float64
	switch l.waveform {
	case WaveTriangle:
		out = 2.0*math.Abs(2.0*(l.phase-math.Floor(l.phase+0.5))) - 1.0
	case WaveSquare:
		if l.phase < 0.5 {
			out = 1.0
		} else {
			out = -1.0
		}
	case WaveSawtooth:
		out = 2.0 * (l.phase - math.Floor(l.phase+0.5))
	case WaveRandom:
		out = l.randVal
	default: // WaveSine
		out = math.Sin(l.phase * 2.0 * math.Pi)
	}

	if l.sampleRate > 0 && l.rateHz > 0 {
		l.phase += l.rateHz / l.sampleRate
		if l.phase >= 1.0 {
			l.phase -= 1.0
			if l.waveform == WaveRandom {
				l.randVal = rand.Float64()*2.0 - 1.0
			}
		}
	}
	return out
}

// Reset zeros the phase and the held random value.
func (l *LFO) Reset() {
	l.phase = 0
	l.randVal = 0
}
