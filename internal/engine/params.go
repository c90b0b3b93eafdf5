package engine

import (
	"github.com/cbegin/sampler-go/internal/lfo"
	"github.com/cbegin/sampler-go/internal/modmatrix"
)

// OscillatorParams configures one oscillator in the modulation bank.
type OscillatorParams struct {
	RateHz   float64 // 0.01 - 20
	Amount   float64 // 0 - 1
	Waveform int     // lfo.Wave* constant
}

// Params is the full timbral parameter surface, read once per block as an
// immutable snapshot. Callers build a Params value, hand it to SetParams and
// never share mutable state with the render path.
type Params struct {
	MasterVolume float64 // 0 - 1

	AttackSec  float64 // 0 - 5
	DecaySec   float64 // 0 - 5
	SustainLvl float64 // 0 - 1
	ReleaseSec float64 // 0 - 10

	FilterCutoff    float64 // 20 - 20000 Hz
	FilterResonance float64 // 0.1 - 10

	Oscillators [modmatrix.NumOscillators]OscillatorParams
}

func DefaultParams() Params {
	p := Params{
		MasterVolume:    0.7,
		AttackSec:       0.01,
		DecaySec:        0.1,
		SustainLvl:      0.8,
		ReleaseSec:      0.5,
		FilterCutoff:    1000,
		FilterResonance: 1.0,
	}
	for i := range p.Oscillators {
		p.Oscillators[i] = OscillatorParams{RateHz: 1.0, Amount: 0, Waveform: lfo.WaveSine}
	}
	return p
}

// Clamped returns a copy with every field forced into its external bounds.
func (p Params) Clamped() Params {
	p.MasterVolume = clamp(p.MasterVolume, 0, 1)
	p.AttackSec = clamp(p.AttackSec, 0, 5)
	p.DecaySec = clamp(p.DecaySec, 0, 5)
	p.SustainLvl = clamp(p.SustainLvl, 0, 1)
	p.ReleaseSec = clamp(p.ReleaseSec, 0, 10)
	p.FilterCutoff = clamp(p.FilterCutoff, 20, 20000)
	p.FilterResonance = clamp(p.FilterResonance, 0.1, 10)
	for i := range p.Oscillators {
		p.Oscillators[i].RateHz = clamp(p.Oscillators[i].RateHz, 0.01, 20)
		p.Oscillators[i].Amount = clamp(p.Oscillators[i].Amount, 0, 1)
		if w := p.Oscillators[i].Waveform; w < lfo.WaveSine || w > lfo.WaveRandom {
			p.Oscillators[i].Waveform = lfo.WaveSine
		}
	}
	return p
}

func (p Params) oscConfigs() [modmatrix.NumOscillators]modmatrix.OscillatorConfig {
	var cfg [modmatrix.NumOscillators]modmatrix.OscillatorConfig
	for i, o := range p.Oscillators {
		cfg[i] = modmatrix.OscillatorConfig{RateHz: o.RateHz, Amount: o.Amount, Waveform: o.Waveform}
	}
	return cfg
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
