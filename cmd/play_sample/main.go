package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	sampler "github.com/cbegin/sampler-go"
	"github.com/cbegin/sampler-go/internal/library"
)

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 44100, "output sample rate")
		samplePath = flag.String("sample", "", "path to a WAV or MP3 sample (required)")
		note       = flag.Int("note", 60, "MIDI note to play (0-127)")
		velocity   = flag.Int("velocity", 100, "note velocity (1-127)")
		duration   = flag.Float64("duration", 1.0, "note hold time in seconds")
		rootNote   = flag.Int("root", 60, "sample root note")
		loopMode   = flag.String("loop", "", "loop mode: forward|backward|pingpong (empty = no loop)")
		loopStart  = flag.Float64("loop-start", 0.25, "loop start as a fraction of sample length")
		loopEnd    = flag.Float64("loop-end", 0.75, "loop end as a fraction of sample length")
		cutoff     = flag.Float64("cutoff", 8000, "filter cutoff in Hz")
		release    = flag.Float64("release", 0.5, "envelope release in seconds")
		volume     = flag.Float64("volume", 1.0, "master volume scalar")
		outPath    = flag.String("out", "", "render offline to this WAV file instead of playing")
	)
	flag.Parse()

	if *samplePath == "" {
		log.Fatal("-sample is required")
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
	if *loopMode != "" {
		mode, err := parseLoopMode(*loopMode)
		if err != nil {
			log.Fatal(err)
		}
		s.SetLoopBounds(*loopStart, *loopEnd)
		s.SetLoopMode(mode)
		s.SetLoopEnabled(true)
	}

	params := sampler.DefaultParams()
	params.FilterCutoff = *cutoff
	params.ReleaseSec = *release
	pl.SetParams(params)
	pl.SetMasterVolume(*volume)

	if *outPath != "" {
		out := pl.RenderNotes([]sampler.NoteEvent{
			{StartSec: 0, DurationSec: *duration, Note: *note, Velocity: *velocity},
		}, *duration+*release+0.1)
		if err := sampler.WriteWAVFile(*outPath, out, *sampleRate); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %s (%.2f s)\n", *outPath, *duration+*release+0.1)
		return
	}

	if err := pl.Start(); err != nil {
		log.Fatal(err)
	}
	pl.NoteOn(*note, *velocity)
	time.Sleep(time.Duration(*duration * float64(time.Second)))
	pl.NoteOff(*note, true)
	time.Sleep(time.Duration((*release + 0.1) * float64(time.Second)))
	fmt.Printf("done (cpu %.1f%%)\n", pl.CPULoad())
	if err := pl.Stop(); err != nil {
		log.Fatal(err)
	}
}

func parseLoopMode(name string) (library.LoopMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "forward":
		return library.LoopForward, nil
	case "backward":
		return library.LoopBackward, nil
	case "pingpong":
		return library.LoopPingPong, nil
	default:
		return 0, fmt.Errorf("invalid -loop %q (expected forward|backward|pingpong)", name)
	}
}
