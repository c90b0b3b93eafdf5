package filter

import (
	"math"
	"testing"
)

// rms measures one channel of an interleaved stereo buffer.
func rms(buf []float32, ch int) float64 {
	var sum float64
	n := 0
	for i := ch; i < len(buf); i += 2 {
		sum += float64(buf[i]) * float64(buf[i])
		n++
	}
	return math.Sqrt(sum / float64(n))
}

func sineBlock(freq, sampleRate float64, frames int) []float32 {
	buf := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		v := float32(math.Sin(2 * math.Pi * freq * float64(i) / sampleRate))
		buf[i*2] = v
		buf[i*2+1] = v
	}
	return buf
}

func TestLowPassAttenuatesHighFrequencies(t *testing.T) {
	const sr = 48000
	e := &Engine{}
	e.Prepare(sr, 512)

	low := sineBlock(200, sr, 4096)
	e.Process(low, 1000, 0.707, 0)
	lowRMS := rms(low, 0)

	e.Reset()
	high := sineBlock(10000, sr, 4096)
	e.Process(high, 1000, 0.707, 0)
	highRMS := rms(high, 0)

	if highRMS >= lowRMS*0.5 {
		t.Fatalf("10 kHz not attenuated vs 200 Hz below 1 kHz cutoff: low=%f high=%f", lowRMS, highRMS)
	}
}

func TestCutoffModBiasIsFractional(t *testing.T) {
	const sr = 48000
	// +1.0 bias doubles the cutoff: a 1.5 kHz tone passes a 1 kHz filter with
	// bias 1 (effective 2 kHz) more strongly than with bias 0.
	e1 := &Engine{}
	e1.Prepare(sr, 512)
	plain := sineBlock(1500, sr, 4096)
	e1.Process(plain, 1000, 0.707, 0)

	e2 := &Engine{}
	e2.Prepare(sr, 512)
	biased := sineBlock(1500, sr, 4096)
	e2.Process(biased, 1000, 0.707, 1.0)

	if rms(biased, 0) <= rms(plain, 0) {
		t.Fatalf("positive cutoff bias did not open the filter: plain=%f biased=%f",
			rms(plain, 0), rms(biased, 0))
	}
}

func TestCutoffClampedToAudibleBand(t *testing.T) {
	const sr = 48000
	e := &Engine{}
	e.Prepare(sr, 512)

	// Massive negative bias would push the cutoff below zero; the clamp keeps
	// the filter stable and finite.
	buf := sineBlock(440, sr, 2048)
	e.Process(buf, 1000, 0.707, -5.0)
	for i, v := range buf {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("non-finite output at %d with clamped cutoff", i)
		}
	}
}

func TestChannelsFilteredIndependently(t *testing.T) {
	const sr = 48000
	e := &Engine{}
	e.Prepare(sr, 512)

	// Left carries signal, right is silent; silence must stay silent.
	buf := make([]float32, 2048*2)
	for i := 0; i < 2048; i++ {
		buf[i*2] = float32(math.Sin(2 * math.Pi * 440 * float64(i) / sr))
	}
	e.Process(buf, 5000, 0.707, 0)
	for i := 1; i < len(buf); i += 2 {
		if buf[i] != 0 {
			t.Fatalf("right channel contaminated at frame %d: %f", i/2, buf[i])
		}
	}
}
