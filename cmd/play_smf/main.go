// Command play_smf drives the sampler from a Standard MIDI File, either live
// through the audio device or rendered offline to a WAV file.
package main

import (
	"flag"
	"fmt"
	"log"
	"sort"
	"time"

	"gitlab.com/gomidi/midi/v2/smf"

	sampler "github.com/cbegin/sampler-go"
)

type timedEvent struct {
	atMicro    int64
	kind       int // 0 note-on, 1 note-off, 2 pitch-bend, 3 controller, 4 aftertouch
	note       int
	velocity   int
	controller int
	value      int
}

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 44100, "output sample rate")
		smfPath    = flag.String("smf", "", "path to a Standard MIDI File (required)")
		samplePath = flag.String("sample", "", "path to a WAV or MP3 sample (required)")
		rootNote   = flag.Int("root", 60, "sample root note")
		release    = flag.Float64("release", 0.5, "envelope release in seconds")
		volume     = flag.Float64("volume", 1.0, "master volume scalar")
		outPath    = flag.String("out", "", "render offline to this WAV file instead of playing")
	)
	flag.Parse()

	if *smfPath == "" || *samplePath == "" {
		log.Fatal("-smf and -sample are required")
	}

	events, err := readEvents(*smfPath)
	if err != nil {
		log.Fatal(err)
	}
	if len(events) == 0 {
		log.Fatal("no playable events in MIDI file")
	}

	pl, err := sampler.NewPlayer(*sampleRate)
	if err != nil {
		log.Fatal(err)
	}
	s, err := pl.LoadSample(*samplePath)
	if err != nil {
		log.Fatal(err)
	}
	s.SetRootNote(*rootNote)

	params := sampler.DefaultParams()
	params.ReleaseSec = *release
	pl.SetParams(params)
	pl.SetMasterVolume(*volume)

	if *outPath != "" {
		renderOffline(pl, events, *sampleRate, *release, *outPath)
		return
	}
	playLive(pl, events, *release)
}

// readEvents flattens every track into a single wall-clock-ordered list.
func readEvents(path string) ([]timedEvent, error) {
	var events []timedEvent
	rd := smf.ReadTracks(path).Do(func(te smf.TrackEvent) {
		var ch, key, vel, cc, val, pressure uint8
		var rel int16
		var abs uint16
		msg := te.Message
		switch {
		case msg.GetNoteStart(&ch, &key, &vel):
			events = append(events, timedEvent{atMicro: te.AbsMicroSeconds, kind: 0, note: int(key), velocity: int(vel)})
		case msg.GetNoteEnd(&ch, &key):
			events = append(events, timedEvent{atMicro: te.AbsMicroSeconds, kind: 1, note: int(key)})
		case msg.GetPitchBend(&ch, &rel, &abs):
			events = append(events, timedEvent{atMicro: te.AbsMicroSeconds, kind: 2, value: int(abs)})
		case msg.GetControlChange(&ch, &cc, &val):
			events = append(events, timedEvent{atMicro: te.AbsMicroSeconds, kind: 3, controller: int(cc), value: int(val)})
		case msg.GetAfterTouch(&ch, &pressure):
			events = append(events, timedEvent{atMicro: te.AbsMicroSeconds, kind: 4, value: int(pressure)})
		}
	})
	if err := rd.Error(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].atMicro < events[j].atMicro
	})
	return events, nil
}

func playLive(pl *sampler.Player, events []timedEvent, release float64) {
	if err := pl.Start(); err != nil {
		log.Fatal(err)
	}
	start := time.Now()
	for _, ev := range events {
		at := start.Add(time.Duration(ev.atMicro) * time.Microsecond)
		if d := time.Until(at); d > 0 {
			time.Sleep(d)
		}
		switch ev.kind {
		case 0:
			pl.NoteOn(ev.note, ev.velocity)
		case 1:
			pl.NoteOff(ev.note, true)
		case 2:
			pl.PitchBend(ev.value)
		case 3:
			pl.ControllerChange(ev.controller, ev.value)
		case 4:
			pl.Aftertouch(ev.value)
		}
	}
	time.Sleep(time.Duration((release + 0.1) * float64(time.Second)))
	fmt.Printf("done (%d events, cpu %.1f%%)\n", len(events), pl.CPULoad())
	if err := pl.Stop(); err != nil {
		log.Fatal(err)
	}
}

// renderOffline pairs note-ons with their note-offs and renders the result.
// Bend and controller events have no offline equivalent and are skipped.
func renderOffline(pl *sampler.Player, events []timedEvent, sampleRate int, release float64, outPath string) {
	type openNote struct {
		atMicro  int64
		velocity int
	}
	open := map[int]openNote{}
	var notes []sampler.NoteEvent
	var endMicro int64
	for _, ev := range events {
		if ev.atMicro > endMicro {
			endMicro = ev.atMicro
		}
		switch ev.kind {
		case 0:
			open[ev.note] = openNote{ev.atMicro, ev.velocity}
		case 1:
			on, ok := open[ev.note]
			if !ok {
				continue
			}
			delete(open, ev.note)
			notes = append(notes, sampler.NoteEvent{
				StartSec:    float64(on.atMicro) / 1e6,
				DurationSec: float64(ev.atMicro-on.atMicro) / 1e6,
				Note:        ev.note,
				Velocity:    on.velocity,
			})
		}
	}
	if len(notes) == 0 {
		log.Fatal("no complete notes to render")
	}

	seconds := float64(endMicro)/1e6 + release + 0.5
	out := pl.RenderNotes(notes, seconds)
	if err := sampler.WriteWAVFile(outPath, out, sampleRate); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %s (%.2f s, %d notes)\n", outPath, seconds, len(notes))
}
