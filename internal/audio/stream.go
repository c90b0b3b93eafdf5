// Package audio adapts a block renderer to the platform audio backend. The
// backend pulls little-endian float32 stereo frames through an io.Reader; the
// reader forwards each pull to the renderer one block at a time.
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// BlockRenderer produces one block of interleaved stereo float32 per call.
// A live synthesizer implements this directly; it is pulled from the audio
// thread and must not block.
type BlockRenderer interface {
	Process(dst []float32)
}

// StreamReader turns a BlockRenderer into the byte stream the backend reads.
// Each frame is 8 bytes: two little-endian float32 samples.
type StreamReader struct {
	mu       sync.Mutex
	renderer BlockRenderer
	block    []float32
}

func NewStreamReader(renderer BlockRenderer) *StreamReader {
	return &StreamReader{renderer: renderer}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.block) < need {
		r.block = make([]float32, need)
	}
	r.block = r.block[:need]
	r.renderer.Process(r.block)
	for i, smp := range r.block {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(smp))
	}
	return frames * 8, nil
}

func (r *StreamReader) Close() error { return nil }

// The backend allows a single context per process, created at a fixed sample
// rate. Subsequent players must match it.
var (
	contextOnce sync.Once
	context     *ebitaudio.Context
	contextRate int
)

func sharedContext(sampleRate int) (*ebitaudio.Context, error) {
	contextOnce.Do(func() {
		contextRate = sampleRate
		context = ebitaudio.NewContext(sampleRate)
	})
	if contextRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", contextRate, sampleRate)
	}
	return context, nil
}

// Output drives a BlockRenderer through the platform audio device.
type Output struct {
	player *ebitaudio.Player
	reader *StreamReader
}

func NewOutput(sampleRate int, renderer BlockRenderer) (*Output, error) {
	ctx, err := sharedContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(renderer)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	return &Output{player: pl, reader: reader}, nil
}

func (o *Output) Play()           { o.player.Play() }
func (o *Output) Pause()          { o.player.Pause() }
func (o *Output) IsPlaying() bool { return o.player.IsPlaying() }

// Position returns the playback position the listener actually hears.
func (o *Output) Position() time.Duration {
	return o.player.Position()
}

func (o *Output) Stop() error {
	o.player.Pause()
	if err := o.player.Close(); err != nil {
		return err
	}
	return o.reader.Close()
}
