package engine

import (
	"math"
	"sync/atomic"

	"github.com/cbegin/sampler-go/internal/library"
	"github.com/cbegin/sampler-go/internal/modmatrix"
)

// Voice is one polyphonic playback unit. All mutation happens on the render
// path; the position and active fields are atomics because the control path
// reads them as monitoring telemetry (single writer, multiple readers).
type Voice struct {
	lib        *library.Library
	matrix     *modmatrix.Matrix
	sampleRate float64

	sample      *library.Sample // non-owning; nil when idle
	cursor      float64
	increment   float64
	note        int
	velocity    float64
	loopForward bool
	env         adsr

	posBits    atomic.Uint64 // float64 bits of normalized cursor position
	activeFlag atomic.Bool
}

func newVoice(lib *library.Library, matrix *modmatrix.Matrix, sampleRate float64) *Voice {
	v := &Voice{lib: lib, matrix: matrix, sampleRate: sampleRate}
	v.env.configure(sampleRate)
	return v
}

// Active reports whether the voice is currently sounding. Safe to call from
// any goroutine.
func (v *Voice) Active() bool { return v.activeFlag.Load() }

// Position returns the normalized playback cursor in [0,1). Safe to call
// from any goroutine; it is a monitoring signal, not a correctness value.
func (v *Voice) Position() float64 {
	return math.Float64frombits(v.posBits.Load())
}

// noteOn resolves a sample and starts playback. It returns false when no
// playable sample exists, in which case the voice stays idle; this is a
// normal condition used for voice-count accounting, not an error.
func (v *Voice) noteOn(note, velocity int, p Params) bool {
	sample := v.lib.Resolve(note)
	if sample == nil || sample.Length() == 0 {
		v.forceIdle()
		return false
	}

	v.sample = sample
	v.note = note
	v.velocity = clamp(float64(velocity)/127.0, 0, 1)

	pitchRatio := math.Pow(2, float64(note-sample.RootNote())/12.0)
	v.increment = pitchRatio * sample.SampleRate() / v.sampleRate
	v.cursor = 0
	v.loopForward = true

	v.matrix.SetSource(modmatrix.SourceVelocity, v.velocity)
	v.matrix.SetSource(modmatrix.SourceKeyTrack, float64(note)/127.0)

	v.env.setParameters(p.AttackSec, p.DecaySec, p.SustainLvl, p.ReleaseSec)
	v.env.noteOn()
	v.activeFlag.Store(true)
	return true
}

// noteOff triggers the release stage. With tail-off disallowed the voice is
// silenced immediately instead of ringing out.
func (v *Voice) noteOff(allowTailOff bool) {
	if !v.Active() {
		return
	}
	if allowTailOff {
		v.env.noteOff()
		return
	}
	v.forceIdle()
}

// playsNote reports whether this voice is sounding the given note number.
func (v *Voice) playsNote(note int) bool {
	return v.Active() && v.note == note
}

func (v *Voice) forceIdle() {
	v.env.reset()
	v.sample = nil
	v.cursor = 0
	v.activeFlag.Store(false)
	v.posBits.Store(0)
}

// render adds numSamples frames into the interleaved stereo buffer starting
// at frame startSample. Contributions are additive; an idle voice writes
// nothing.
func (v *Voice) render(out []float32, startSample, numSamples int) {
	if !v.Active() || v.sample == nil {
		return
	}

	sample := v.sample
	left := sample.Channel(0)
	right := left
	if sample.Channels() > 1 {
		right = sample.Channel(1)
	}
	length := sample.Length()
	fLength := float64(length)

	loopStartFrac, loopEndFrac := sample.LoopBounds()
	loopStart := loopStartFrac * fLength
	loopEnd := loopEndFrac * fLength
	looping := sample.LoopEnabled()
	loopMode := sample.LoopMode()

	// Pitch destination is recomputed once per block, so one read covers the
	// whole render call. Exponential scaling keeps modulation musical.
	pitchBias := v.matrix.Destination(modmatrix.DestPitch)
	inc := v.increment * math.Pow(2, pitchBias)

	for i := 0; i < numSamples; i++ {
		v.posBits.Store(math.Float64bits(v.cursor / fLength))

		var l, r float32
		if v.cursor >= 0 && v.cursor < fLength {
			idx := int(v.cursor)
			frac := float32(v.cursor - float64(idx))
			if idx < length-1 {
				l = left[idx]*(1-frac) + left[idx+1]*frac
				r = right[idx]*(1-frac) + right[idx+1]*frac
			} else {
				l = left[idx]
				r = right[idx]
			}
		}

		envLevel := float32(v.env.next() * v.velocity)
		base := (startSample + i) * 2
		out[base] += l * envLevel
		out[base+1] += r * envLevel

		if looping && v.cursor >= loopStart {
			switch loopMode {
			case library.LoopForward:
				v.cursor += inc
				if v.cursor >= loopEnd {
					v.cursor = loopStart + (v.cursor - loopEnd)
				}
			case library.LoopBackward:
				v.cursor -= inc
				if v.cursor <= loopStart {
					v.cursor = loopEnd - (loopStart - v.cursor)
				}
			case library.LoopPingPong:
				if v.loopForward {
					v.cursor += inc
					if v.cursor >= loopEnd {
						v.cursor = loopEnd - (v.cursor - loopEnd)
						v.loopForward = false
					}
				} else {
					v.cursor -= inc
					if v.cursor <= loopStart {
						v.cursor = loopStart + (loopStart - v.cursor)
						v.loopForward = true
					}
				}
			}
		} else {
			v.cursor += inc
			if v.cursor >= fLength && v.env.stage != stageRelease {
				// Sample exhausted without a note-off: ring out the release.
				v.env.noteOff()
			}
		}

		if !v.env.active() {
			v.forceIdle()
			return
		}
	}
}
