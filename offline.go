package sampler

import (
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	intengine "github.com/cbegin/sampler-go/internal/engine"
	intlib "github.com/cbegin/sampler-go/internal/library"
)

// NoteEvent schedules one note for offline rendering.
type NoteEvent struct {
	StartSec    float64
	DurationSec float64
	Note        int
	Velocity    int
}

const offlineBlockFrames = 512

// RenderNotes renders through a fresh engine sharing this player's library
// and current parameters. The live audio path is not touched.
func (p *Player) RenderNotes(notes []NoteEvent, seconds float64) []float32 {
	return RenderNotes(p.lib, p.Params(), p.sampleRate, notes, seconds)
}

// RenderNotes renders the given notes through a fresh engine without touching
// the audio device and returns interleaved stereo float32. Samples are
// resolved against lib exactly as in live playback.
func RenderNotes(lib *intlib.Library, params Params, sampleRate int, notes []NoteEvent, seconds float64) []float32 {
	synth := intengine.NewSynth(sampleRate, lib, 0)
	synth.SetParams(params)

	type timedEvent struct {
		frame int
		ev    intengine.Event
	}
	events := make([]timedEvent, 0, len(notes)*2)
	for _, n := range notes {
		on := int(n.StartSec * float64(sampleRate))
		off := int((n.StartSec + n.DurationSec) * float64(sampleRate))
		events = append(events,
			timedEvent{on, intengine.Event{Kind: intengine.EventNoteOn, Note: n.Note, Velocity: n.Velocity}},
			timedEvent{off, intengine.Event{Kind: intengine.EventNoteOff, Note: n.Note, AllowTailOff: true}},
		)
	}

	frames := int(float64(sampleRate) * seconds)
	out := make([]float32, frames*2)
	for start := 0; start < frames; start += offlineBlockFrames {
		end := start + offlineBlockFrames
		if end > frames {
			end = frames
		}
		for _, te := range events {
			if te.frame >= start && te.frame < end {
				ev := te.ev
				ev.Frame = te.frame - start
				synth.Submit(ev)
			}
		}
		synth.Process(out[start*2 : end*2])
	}
	return out
}

// EncodeWAV writes interleaved stereo float32 as a 16-bit PCM WAV.
func EncodeWAV(w io.WriteSeeker, samples []float32, sampleRate int) error {
	enc := wav.NewEncoder(w, sampleRate, 16, 2, 1)
	buf := &audio.IntBuffer{
		Data:           make([]int, len(samples)),
		Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		buf.Data[i] = int(s * 32767)
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

// WriteWAVFile renders EncodeWAV output to a file path.
func WriteWAVFile(path string, samples []float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeWAV(f, samples, sampleRate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
