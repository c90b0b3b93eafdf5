// Package modmatrix aggregates modulation sources into per-block destination
// biases. Routing is static: three oscillators feed filter cutoff, pitch and
// volume with fixed scaling; every other source is recorded but unrouted.
package modmatrix

import "github.com/cbegin/sampler-go/internal/lfo"

// Source identifies a modulation source.
type Source int

const (
	SourceLFO1 Source = iota
	SourceLFO2
	SourceLFO3
	SourceEnvelope
	SourceModWheel
	SourceVelocity
	SourceKeyTrack
	SourcePitchBend
	SourceAftertouch
	numSources
)

// Destination identifies a modulation target.
type Destination int

const (
	DestVolume Destination = iota
	DestPan
	DestPitch
	DestFilterCutoff
	DestFilterResonance
	DestSampleStart
	DestLoopStart
	DestLoopEnd
	numDestinations
)

// NumOscillators is the size of the oscillator bank.
const NumOscillators = 3

// OscillatorConfig is the per-block configuration for one oscillator in the
// bank, re-read from the parameter snapshot on every UpdateBlock.
type OscillatorConfig struct {
	RateHz   float64
	Amount   float64
	Waveform int
}

// Matrix owns the oscillator bank and the current source and destination
// values. It is touched only from the render path; sources injected by voices
// (velocity, key-track) or by control events (pitch-bend, mod-wheel) are
// written during block processing, so no synchronization is needed here.
type Matrix struct {
	oscs         [NumOscillators]lfo.LFO
	sources      [numSources]float64
	destinations [numDestinations]float64
}

// Prepare configures every owned oscillator for the engine sample rate.
func (m *Matrix) Prepare(sampleRate float64) {
	for i := range m.oscs {
		m.oscs[i].Configure(sampleRate)
		m.oscs[i].Reset()
	}
}

// UpdateBlock reconfigures the oscillators from cfg, advances each one once
// per sample inside the block keeping only the last produced value as the
// block's representative source value, then recomputes the fixed destination
// biases. Destinations are cleared first so nothing leaks across blocks.
//
// Recording only the final oscillator sample quantizes modulation depth to
// block rate. That is deliberate: the biases feed per-block stages (filter
// cutoff, master volume) and the per-sample pitch read inside a block.
func (m *Matrix) UpdateBlock(blockSize int, cfg [NumOscillators]OscillatorConfig) {
	for i := range m.oscs {
		m.oscs[i].SetRate(cfg[i].RateHz)
		m.oscs[i].SetWaveform(cfg[i].Waveform)
	}
	for s := 0; s < blockSize; s++ {
		m.sources[SourceLFO1] = m.oscs[0].Next()
		m.sources[SourceLFO2] = m.oscs[1].Next()
		m.sources[SourceLFO3] = m.oscs[2].Next()
	}

	for d := range m.destinations {
		m.destinations[d] = 0
	}
	m.destinations[DestFilterCutoff] = m.sources[SourceLFO1] * cfg[0].Amount * 0.5
	m.destinations[DestPitch] = m.sources[SourceLFO2] * cfg[1].Amount * 0.1
	m.destinations[DestVolume] = m.sources[SourceLFO3] * cfg[2].Amount * 0.3
}

// SetSource injects a source value directly, bypassing the block update.
// The write is visible to Destination reads immediately, but only the fixed
// oscillator routings contribute to destination biases on the next
// UpdateBlock.
func (m *Matrix) SetSource(src Source, value float64) {
	if src < 0 || src >= numSources {
		return
	}
	m.sources[src] = value
}

// SourceValue returns the last recorded value for a source.
func (m *Matrix) SourceValue(src Source) float64 {
	if src < 0 || src >= numSources {
		return 0
	}
	return m.sources[src]
}

// Destination returns the last computed bias for a destination, 0 if the
// destination has never been routed.
func (m *Matrix) Destination(dst Destination) float64 {
	if dst < 0 || dst >= numDestinations {
		return 0
	}
	return m.destinations[dst]
}
