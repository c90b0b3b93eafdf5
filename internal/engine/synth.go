// Package engine implements the real-time synthesis core: the per-voice
// playback state machine, the block orchestrator, and the parameter snapshot
// they consume. One Process call renders one block and performs no locking,
// no blocking calls and no steady-state allocation.
package engine

import (
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/cbegin/sampler-go/internal/filter"
	"github.com/cbegin/sampler-go/internal/library"
	"github.com/cbegin/sampler-go/internal/modmatrix"
)

// EventKind identifies a control event delivered to the render path.
type EventKind int

const (
	EventNoteOn EventKind = iota
	EventNoteOff
	EventPitchBend
	EventControllerChange
	EventAftertouch
)

// Event is one timestamped control event. Frame is the offset inside the
// block at which the event takes effect; events submitted from the control
// path normally carry frame 0 and apply at the start of the next block.
type Event struct {
	Frame        int
	Kind         EventKind
	Note         int
	Velocity     int
	AllowTailOff bool
	Controller   int
	Value        int // pitch-bend 0..16383, controller/aftertouch 0..127
}

// DefaultPolyphony is the fixed voice-pool size unless overridden.
const DefaultPolyphony = 16

const eventQueueSize = 256

// Synth owns the voice pool and drives the per-block order: drain events,
// update modulation, render voices additively, filter, master gain, publish
// telemetry. It implements the audio backend's SampleSource.
type Synth struct {
	sampleRate float64
	lib        *library.Library
	matrix     modmatrix.Matrix
	filter     filter.Engine
	voices     []*Voice

	params atomic.Pointer[Params]
	volume uint64 // float64 bits, runtime master scalar on top of Params

	// Control path submits, render path drains. The channel never blocks the
	// render side; the control side drops events when the queue is full.
	events  chan Event
	pending []Event

	activeCount atomic.Int32
	lastPosBits atomic.Uint64
	cpuLoadBits atomic.Uint64
}

func NewSynth(sampleRate int, lib *library.Library, polyphony int) *Synth {
	if polyphony <= 0 {
		polyphony = DefaultPolyphony
	}
	s := &Synth{
		sampleRate: float64(sampleRate),
		lib:        lib,
		events:     make(chan Event, eventQueueSize),
		pending:    make([]Event, 0, eventQueueSize),
	}
	s.matrix.Prepare(s.sampleRate)
	s.filter.Prepare(s.sampleRate, 0)
	s.voices = make([]*Voice, polyphony)
	for i := range s.voices {
		s.voices[i] = newVoice(lib, &s.matrix, s.sampleRate)
	}
	p := DefaultParams()
	s.params.Store(&p)
	atomic.StoreUint64(&s.volume, math.Float64bits(1.0))
	return s
}

// SetParams publishes a new parameter snapshot, clamped to external bounds.
// Takes effect at the next block.
func (s *Synth) SetParams(p Params) {
	c := p.Clamped()
	s.params.Store(&c)
}

func (s *Synth) Params() Params {
	return *s.params.Load()
}

// SetVolume sets the runtime master volume scalar multiplied on top of the
// snapshot's MasterVolume. 1.0 is default.
func (s *Synth) SetVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	atomic.StoreUint64(&s.volume, math.Float64bits(volume))
}

func (s *Synth) Volume() float64 {
	return math.Float64frombits(atomic.LoadUint64(&s.volume))
}

// Submit queues an event for the next block. It never blocks; when the queue
// is full the event is dropped and Submit returns false.
func (s *Synth) Submit(ev Event) bool {
	select {
	case s.events <- ev:
		return true
	default:
		return false
	}
}

// Library exposes the sample library the voices resolve against.
func (s *Synth) Library() *library.Library { return s.lib }

// Polyphony returns the fixed voice-pool size.
func (s *Synth) Polyphony() int { return len(s.voices) }

// ActiveVoiceCount returns the number of voices that sounded in the last
// rendered block. Safe from any goroutine.
func (s *Synth) ActiveVoiceCount() int { return int(s.activeCount.Load()) }

// VoiceActive reports the per-voice active flag for monitoring.
func (s *Synth) VoiceActive(i int) bool {
	if i < 0 || i >= len(s.voices) {
		return false
	}
	return s.voices[i].Active()
}

// VoicePosition returns a voice's normalized playback position for
// monitoring displays.
func (s *Synth) VoicePosition(i int) float64 {
	if i < 0 || i >= len(s.voices) {
		return 0
	}
	return s.voices[i].Position()
}

// LastPosition returns the normalized position of the most recently counted
// active voice, 0 when nothing sounds.
func (s *Synth) LastPosition() float64 {
	return math.Float64frombits(s.lastPosBits.Load())
}

// CPULoad returns the render cost of the last block as a percentage of its
// real-time budget, clamped to 0..100.
func (s *Synth) CPULoad() float64 {
	return math.Float64frombits(s.cpuLoadBits.Load())
}

// Process renders one block of interleaved stereo into dst. Within the
// block: modulation is computed before any voice renders, voices render
// before the filter, and an event at frame F affects exactly the samples
// from F onward.
func (s *Synth) Process(dst []float32) {
	started := time.Now()
	frames := len(dst) / 2
	if frames == 0 {
		return
	}
	for i := range dst {
		dst[i] = 0
	}

	p := *s.params.Load()
	s.matrix.UpdateBlock(frames, p.oscConfigs())

	s.drainEvents(frames)
	cursor := 0
	for _, ev := range s.pending {
		if ev.Frame > cursor {
			s.renderVoices(dst, cursor, ev.Frame-cursor)
			cursor = ev.Frame
		}
		s.applyEvent(ev, p)
	}
	if cursor < frames {
		s.renderVoices(dst, cursor, frames-cursor)
	}

	s.filter.Process(dst, p.FilterCutoff, p.FilterResonance,
		s.matrix.Destination(modmatrix.DestFilterCutoff))

	gain := float32(p.MasterVolume * s.Volume())
	for i := range dst {
		dst[i] *= gain
	}

	active := int32(0)
	lastPos := 0.0
	for _, v := range s.voices {
		if v.Active() {
			active++
			lastPos = v.Position()
		}
	}
	s.activeCount.Store(active)
	s.lastPosBits.Store(math.Float64bits(lastPos))

	expected := float64(frames) / s.sampleRate
	load := clamp(time.Since(started).Seconds()/expected*100, 0, 100)
	s.cpuLoadBits.Store(math.Float64bits(load))
}

func (s *Synth) renderVoices(dst []float32, start, num int) {
	for _, v := range s.voices {
		v.render(dst, start, num)
	}
}

// drainEvents moves queued events into s.pending, clamps their frame offsets
// into the block and restores timestamp order.
func (s *Synth) drainEvents(frames int) {
	s.pending = s.pending[:0]
	for {
		select {
		case ev := <-s.events:
			if ev.Frame < 0 {
				ev.Frame = 0
			}
			if ev.Frame >= frames {
				ev.Frame = frames - 1
			}
			s.pending = append(s.pending, ev)
		default:
			sort.SliceStable(s.pending, func(i, j int) bool {
				return s.pending[i].Frame < s.pending[j].Frame
			})
			return
		}
	}
}

func (s *Synth) applyEvent(ev Event, p Params) {
	switch ev.Kind {
	case EventNoteOn:
		// First idle voice wins; an exhausted pool drops the note.
		for _, v := range s.voices {
			if !v.Active() {
				v.noteOn(ev.Note, ev.Velocity, p)
				return
			}
		}
	case EventNoteOff:
		for _, v := range s.voices {
			if v.playsNote(ev.Note) {
				v.noteOff(ev.AllowTailOff)
			}
		}
	case EventPitchBend:
		// +/-8192 MIDI units map to +/-2 semitones, published in the
		// matrix's octave-fraction convention.
		semitones := float64(ev.Value-8192) / 8192.0 * 2.0
		s.matrix.SetSource(modmatrix.SourcePitchBend, semitones/12.0)
	case EventControllerChange:
		if ev.Controller == 1 {
			s.matrix.SetSource(modmatrix.SourceModWheel, float64(ev.Value)/127.0)
		}
	case EventAftertouch:
		s.matrix.SetSource(modmatrix.SourceAftertouch, float64(ev.Value)/127.0)
	}
}
