package modmatrix

import (
	"math"
	"testing"

	"github.com/cbegin/sampler-go/internal/lfo"
)

func TestFixedRoutingScales(t *testing.T) {
	m := &Matrix{}
	m.Prepare(1000)

	// Square oscillators at 1 Hz: after 250 samples the phase sits at 0.25,
	// so the last sample of the block is +1 for each oscillator.
	cfg := [NumOscillators]OscillatorConfig{
		{RateHz: 1, Amount: 1.0, Waveform: lfo.WaveSquare},
		{RateHz: 1, Amount: 0.5, Waveform: lfo.WaveSquare},
		{RateHz: 1, Amount: 1.0, Waveform: lfo.WaveSquare},
	}
	m.UpdateBlock(250, cfg)

	if got := m.Destination(DestFilterCutoff); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("cutoff bias = %f, want 0.5 (1 * amount 1 * scale 0.5)", got)
	}
	if got := m.Destination(DestPitch); math.Abs(got-0.05) > 1e-9 {
		t.Errorf("pitch bias = %f, want 0.05 (1 * amount 0.5 * scale 0.1)", got)
	}
	if got := m.Destination(DestVolume); math.Abs(got-0.3) > 1e-9 {
		t.Errorf("volume bias = %f, want 0.3 (1 * amount 1 * scale 0.3)", got)
	}
}

func TestDestinationsClearedEachBlock(t *testing.T) {
	m := &Matrix{}
	m.Prepare(1000)

	cfg := [NumOscillators]OscillatorConfig{
		{RateHz: 1, Amount: 1.0, Waveform: lfo.WaveSquare},
	}
	m.UpdateBlock(250, cfg)
	if m.Destination(DestFilterCutoff) == 0 {
		t.Fatal("expected non-zero cutoff bias after first block")
	}

	// Zero amount: the stale bias must not leak into the next block.
	cfg[0].Amount = 0
	m.UpdateBlock(250, cfg)
	if got := m.Destination(DestFilterCutoff); got != 0 {
		t.Errorf("stale cutoff bias leaked across blocks: %f", got)
	}
}

func TestSetSourceVisibleImmediately(t *testing.T) {
	m := &Matrix{}
	m.SetSource(SourceVelocity, 0.8)
	if got := m.SourceValue(SourceVelocity); got != 0.8 {
		t.Errorf("velocity source = %f, want 0.8", got)
	}
	// Non-oscillator sources are recorded but never routed to a destination.
	m.UpdateBlock(64, [NumOscillators]OscillatorConfig{})
	if got := m.Destination(DestVolume); got != 0 {
		t.Errorf("velocity leaked into a destination: %f", got)
	}
}

func TestUnroutedDestinationDefaultsToZero(t *testing.T) {
	m := &Matrix{}
	m.Prepare(48000)
	m.UpdateBlock(128, [NumOscillators]OscillatorConfig{
		{RateHz: 5, Amount: 1, Waveform: lfo.WaveSine},
		{RateHz: 5, Amount: 1, Waveform: lfo.WaveSine},
		{RateHz: 5, Amount: 1, Waveform: lfo.WaveSine},
	})
	for _, dst := range []Destination{DestPan, DestFilterResonance, DestSampleStart, DestLoopStart, DestLoopEnd} {
		if got := m.Destination(dst); got != 0 {
			t.Errorf("unrouted destination %d = %f, want 0", dst, got)
		}
	}
}
