// Package sampler is a polyphonic sample-playback synthesizer. Samples are
// loaded from WAV or MP3 files, mapped across the keyboard by note range, and
// played through a fixed voice pool with per-voice pitch shifting, looping
// and an ADSR envelope, a modulated low-pass filter and an LFO bank.
package sampler

import (
	"errors"
	"log/slog"
	"sync"

	intaudio "github.com/cbegin/sampler-go/internal/audio"
	intengine "github.com/cbegin/sampler-go/internal/engine"
	intlib "github.com/cbegin/sampler-go/internal/library"
	intstate "github.com/cbegin/sampler-go/internal/state"
)

// Params is the synthesis parameter snapshot applied per rendered block.
type Params = intengine.Params

// OscillatorParams configures one LFO of the modulation bank.
type OscillatorParams = intengine.OscillatorParams

// DefaultParams returns the parameter set a fresh Player starts with.
func DefaultParams() Params { return intengine.DefaultParams() }

// LFO waveform selectors for OscillatorParams.Waveform.
const (
	WaveSine     = 0
	WaveTriangle = 1
	WaveSquare   = 2
	WaveSawtooth = 3
	WaveRandom   = 4
)

type PlayerOption func(*playerConfig)

type playerConfig struct {
	polyphony int
	blockSize int
	sampleTap func([]float32)
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{polyphony: intengine.DefaultPolyphony}
}

// WithPolyphony sets the fixed voice-pool size. Default is 16.
func WithPolyphony(voices int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.polyphony = voices
	}
}

// WithBlockSize caps the number of frames rendered per engine call. The audio
// backend pulls in driver-sized chunks; a smaller cap tightens event timing
// at a small bookkeeping cost. Zero leaves the driver's chunking untouched.
func WithBlockSize(frames int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.blockSize = frames
	}
}

// WithSampleTap installs a callback invoked with each rendered stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

// Player owns the sample library, the synthesis engine and (once started) the
// platform audio output. Event and parameter methods are safe to call from
// any goroutine and never block the render path.
type Player struct {
	mu         sync.Mutex
	sampleRate int
	lib        *intlib.Library
	synth      *intengine.Synth
	renderer   *blockRenderer
	audio      *intaudio.Output
}

// blockRenderer sits between the backend and the synth, applying the optional
// block-size cap and sample tap.
type blockRenderer struct {
	synth     *intengine.Synth
	blockSize int
	sampleTap func([]float32)
}

func (r *blockRenderer) Process(dst []float32) {
	if r.blockSize > 0 {
		step := r.blockSize * 2
		for off := 0; off < len(dst); off += step {
			end := off + step
			if end > len(dst) {
				end = len(dst)
			}
			r.synth.Process(dst[off:end])
		}
	} else {
		r.synth.Process(dst)
	}
	if r.sampleTap != nil {
		r.sampleTap(dst)
	}
}

func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	lib := intlib.New()
	synth := intengine.NewSynth(sampleRate, lib, cfg.polyphony)
	return &Player{
		sampleRate: sampleRate,
		lib:        lib,
		synth:      synth,
		renderer: &blockRenderer{
			synth:     synth,
			blockSize: cfg.blockSize,
			sampleTap: cfg.sampleTap,
		},
	}, nil
}

// LoadSample decodes an audio file and appends it to the library. The
// returned sample's metadata (root note, range, loop) can be edited at any
// time, including during playback.
func (p *Player) LoadSample(path string) (*intlib.Sample, error) {
	s, err := p.lib.Load(path)
	if err != nil {
		return nil, err
	}
	slog.Info("sample loaded", "path", path, "frames", s.Length(), "rate", s.SampleRate())
	return s, nil
}

// ClearSamples empties the library. Voices already sounding keep their audio
// until they finish; new notes find nothing to play.
func (p *Player) ClearSamples() { p.lib.Clear() }

// Samples returns the current library contents in load order.
func (p *Player) Samples() []*intlib.Sample { return p.lib.Samples() }

func (p *Player) SampleCount() int { return p.lib.Count() }

// NoteOn starts a note on the first idle voice. When the pool is exhausted
// the note is dropped.
func (p *Player) NoteOn(note, velocity int) {
	p.synth.Submit(intengine.Event{Kind: intengine.EventNoteOn, Note: note, Velocity: velocity})
}

// NoteOff releases every voice sounding the note. With allowTailOff the
// envelope rings out its release stage; otherwise the voices stop at once.
func (p *Player) NoteOff(note int, allowTailOff bool) {
	p.synth.Submit(intengine.Event{Kind: intengine.EventNoteOff, Note: note, AllowTailOff: allowTailOff})
}

// PitchBend applies a 14-bit bend value (0..16383, center 8192) mapped to
// +/-2 semitones.
func (p *Player) PitchBend(value int) {
	p.synth.Submit(intengine.Event{Kind: intengine.EventPitchBend, Value: value})
}

// ControllerChange forwards a MIDI controller value. Controller 1 feeds the
// mod-wheel modulation source; others are ignored.
func (p *Player) ControllerChange(controller, value int) {
	p.synth.Submit(intengine.Event{Kind: intengine.EventControllerChange, Controller: controller, Value: value})
}

// Aftertouch feeds channel pressure into the modulation sources.
func (p *Player) Aftertouch(value int) {
	p.synth.Submit(intengine.Event{Kind: intengine.EventAftertouch, Value: value})
}

// SetParams publishes a new parameter snapshot, clamped to valid ranges. It
// takes effect at the next rendered block.
func (p *Player) SetParams(params Params) { p.synth.SetParams(params) }

func (p *Player) Params() Params { return p.synth.Params() }

// SetMasterVolume sets a runtime volume scalar on top of Params.MasterVolume.
// 1.0 is default.
func (p *Player) SetMasterVolume(volume float64) { p.synth.SetVolume(volume) }

func (p *Player) MasterVolume() float64 { return p.synth.Volume() }

func (p *Player) SampleRate() int { return p.sampleRate }

func (p *Player) Polyphony() int { return p.synth.Polyphony() }

// ActiveVoiceCount reports how many voices sounded in the last block.
func (p *Player) ActiveVoiceCount() int { return p.synth.ActiveVoiceCount() }

// VoiceActive reports whether voice i is currently sounding.
func (p *Player) VoiceActive(i int) bool { return p.synth.VoiceActive(i) }

// VoicePosition returns voice i's normalized playback position in [0,1).
func (p *Player) VoicePosition(i int) float64 { return p.synth.VoicePosition(i) }

// CPULoad returns the last block's render cost as a percentage of its
// real-time budget.
func (p *Player) CPULoad() float64 { return p.synth.CPULoad() }

// Start opens the platform audio output and begins pulling blocks from the
// engine. Calling Start on a running player is a no-op.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		return nil
	}
	out, err := intaudio.NewOutput(p.sampleRate, p.renderer)
	if err != nil {
		return err
	}
	p.audio = out
	p.audio.Play()
	return nil
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Pause()
	}
}

func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Play()
	}
}

func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.audio != nil && p.audio.IsPlaying()
}

// Stop closes the audio output. Library contents and parameters survive; a
// later Start resumes with the same state.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio == nil {
		return nil
	}
	err := p.audio.Stop()
	p.audio = nil
	return err
}

// SaveState serializes the parameters and sample metadata as JSON. Audio data
// is not embedded; LoadState re-decodes samples from their recorded paths.
func (p *Player) SaveState() ([]byte, error) {
	return intstate.Marshal(intstate.Capture(p.synth.Params(), p.lib))
}

// LoadState restores a session saved with SaveState. Samples whose files have
// gone missing are skipped; everything else loads.
func (p *Player) LoadState(data []byte) error {
	snap, err := intstate.Unmarshal(data)
	if err != nil {
		return err
	}
	p.synth.SetParams(intstate.Restore(snap, p.lib))
	return nil
}
