package library

import (
	"math"
	"sync/atomic"
)

// LoopMode selects how the playback cursor traverses the loop region.
type LoopMode int32

const (
	LoopForward LoopMode = iota
	LoopBackward
	LoopPingPong
)

// Default metadata applied to every freshly loaded sample.
const (
	DefaultRootNote  = 60
	DefaultLoopStart = 0.25
	DefaultLoopEnd   = 0.75

	// minLoopGap keeps loopStart strictly below loopEnd under edits.
	minLoopGap = 0.01
)

// Sample is one decoded recording plus its playback metadata. The audio data
// is immutable after load and owned by the library; metadata fields are
// atomics so control-thread edits never tear under render-path reads. Voices
// hold a plain reference: a cleared sample stays alive until the last voice
// reading it goes idle.
type Sample struct {
	data       [][]float32 // per-channel buffers, equal length
	sampleRate float64
	name       string
	path       string // origin reference, used only for persistence/reload

	rootNote    atomic.Int32
	lowNote     atomic.Int32
	highNote    atomic.Int32
	loopStart   atomic.Uint64 // float64 bits, fraction in [0,1)
	loopEnd     atomic.Uint64 // float64 bits, fraction in (0,1)
	loopEnabled atomic.Bool
	loopMode    atomic.Int32
}

// NewSample builds a sample around already-decoded channel data. Used by
// Load and directly by callers that synthesize buffers (tests, offline use).
func NewSample(name string, data [][]float32, sampleRate float64) *Sample {
	s := &Sample{
		data:       data,
		sampleRate: sampleRate,
		name:       name,
	}
	s.rootNote.Store(DefaultRootNote)
	s.lowNote.Store(0)
	s.highNote.Store(127)
	s.loopStart.Store(math.Float64bits(DefaultLoopStart))
	s.loopEnd.Store(math.Float64bits(DefaultLoopEnd))
	return s
}

// Channel returns the buffer for one channel. Mono data is expected to be
// duplicated by the voice, not here.
func (s *Sample) Channel(i int) []float32 {
	if i < 0 || i >= len(s.data) {
		return nil
	}
	return s.data[i]
}

func (s *Sample) Channels() int { return len(s.data) }

// Length returns the frame count.
func (s *Sample) Length() int {
	if len(s.data) == 0 {
		return 0
	}
	return len(s.data[0])
}

func (s *Sample) SampleRate() float64 { return s.sampleRate }
func (s *Sample) Name() string { return s.name }
func (s *Sample) Path() string { return s.path }

func (s *Sample) RootNote() int { return int(s.rootNote.Load()) }

func (s *Sample) SetRootNote(note int) {
	s.rootNote.Store(int32(clampNote(note)))
}

// NoteRange returns the inclusive [lowest, highest] MIDI note range.
func (s *Sample) NoteRange() (low, high int) {
	return int(s.lowNote.Load()), int(s.highNote.Load())
}

// SetNoteRange clamps both bounds to 0..127 and swaps them if inverted.
func (s *Sample) SetNoteRange(low, high int) {
	low, high = clampNote(low), clampNote(high)
	if low > high {
		low, high = high, low
	}
	s.lowNote.Store(int32(low))
	s.highNote.Store(int32(high))
}

// Contains reports whether note falls inside this sample's range.
func (s *Sample) Contains(note int) bool {
	low, high := s.NoteRange()
	return note >= low && note <= high
}

// LoopBounds returns the fractional loop region [start, end).
func (s *Sample) LoopBounds() (start, end float64) {
	return math.Float64frombits(s.loopStart.Load()), math.Float64frombits(s.loopEnd.Load())
}

// SetLoopBounds clamps both fractions to [0,1) and enforces start < end with
// a minimum gap, matching the edit discipline of loop-point dragging.
func (s *Sample) SetLoopBounds(start, end float64) {
	start = clampFrac(start)
	end = clampFrac(end)
	if end < start+minLoopGap {
		end = start + minLoopGap
		if end >= 1 {
			end = 1 - 1e-6
			start = end - minLoopGap
		}
	}
	s.loopStart.Store(math.Float64bits(start))
	s.loopEnd.Store(math.Float64bits(end))
}

func (s *Sample) LoopEnabled() bool { return s.loopEnabled.Load() }
func (s *Sample) SetLoopEnabled(on bool) { s.loopEnabled.Store(on) }
func (s *Sample) LoopMode() LoopMode { return LoopMode(s.loopMode.Load()) }

func (s *Sample) SetLoopMode(mode LoopMode) {
	if mode < LoopForward || mode > LoopPingPong {
		mode = LoopForward
	}
	s.loopMode.Store(int32(mode))
}

func clampNote(n int) int {
	if n < 0 {
		return 0
	}
	if n > 127 {
		return 127
	}
	return n
}

func clampFrac(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v >= 1 {
		return 1 - 1e-6
	}
	return v
}
