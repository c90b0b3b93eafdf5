package sampler

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	intlib "github.com/cbegin/sampler-go/internal/library"
)

// testWAV writes a short stereo sine to disk and returns its path.
func testWAV(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	samples := make([]float32, 4410*2)
	for i := 0; i < 4410; i++ {
		v := float32(math.Sin(2 * math.Pi * 220 * float64(i) / 44100))
		samples[i*2] = v
		samples[i*2+1] = v
	}
	if err := WriteWAVFile(path, samples, 44100); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewPlayerRejectsBadSampleRate(t *testing.T) {
	if _, err := NewPlayer(0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
	if _, err := NewPlayer(-44100); err == nil {
		t.Fatal("expected error for negative sample rate")
	}
}

func TestLoadSampleErrors(t *testing.T) {
	p, err := NewPlayer(44100)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.LoadSample("no/such/file.wav"); err == nil {
		t.Fatal("expected error for missing file")
	}
	txt := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(txt, []byte("not audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := p.LoadSample(txt); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("expected unsupported-format error, got %v", err)
	}
	if p.SampleCount() != 0 {
		t.Fatalf("library has %d samples after failed loads, want 0", p.SampleCount())
	}
}

func TestLoadSampleDefaults(t *testing.T) {
	p, err := NewPlayer(44100)
	if err != nil {
		t.Fatal(err)
	}
	s, err := p.LoadSample(testWAV(t, "tone.wav"))
	if err != nil {
		t.Fatal(err)
	}
	if p.SampleCount() != 1 {
		t.Fatalf("sample count = %d, want 1", p.SampleCount())
	}
	if s.RootNote() != 60 {
		t.Errorf("default root note = %d, want 60", s.RootNote())
	}
	if low, high := s.NoteRange(); low != 0 || high != 127 {
		t.Errorf("default note range = [%d,%d], want [0,127]", low, high)
	}
	if s.Name() != "tone" {
		t.Errorf("sample name = %q, want %q", s.Name(), "tone")
	}

	p.ClearSamples()
	if p.SampleCount() != 0 {
		t.Fatal("ClearSamples left samples in the library")
	}
}

func TestSetParamsClampsAndPublishes(t *testing.T) {
	p, err := NewPlayer(48000)
	if err != nil {
		t.Fatal(err)
	}
	params := DefaultParams()
	params.FilterCutoff = 99999
	params.MasterVolume = -2
	p.SetParams(params)
	got := p.Params()
	if got.FilterCutoff != 20000 {
		t.Errorf("cutoff = %f, want clamped 20000", got.FilterCutoff)
	}
	if got.MasterVolume != 0 {
		t.Errorf("master volume = %f, want clamped 0", got.MasterVolume)
	}
}

func TestMasterVolumeScalar(t *testing.T) {
	p, err := NewPlayer(44100)
	if err != nil {
		t.Fatal(err)
	}
	if p.MasterVolume() != 1.0 {
		t.Fatalf("initial master volume = %f, want 1.0", p.MasterVolume())
	}
	p.SetMasterVolume(0.25)
	if p.MasterVolume() != 0.25 {
		t.Fatalf("master volume = %f, want 0.25", p.MasterVolume())
	}
	p.SetMasterVolume(-1)
	if p.MasterVolume() != 0 {
		t.Fatalf("negative volume not clamped: %f", p.MasterVolume())
	}
}

func TestStateRoundTripAcrossPlayers(t *testing.T) {
	path := testWAV(t, "keys.wav")

	p1, err := NewPlayer(44100)
	if err != nil {
		t.Fatal(err)
	}
	s, err := p1.LoadSample(path)
	if err != nil {
		t.Fatal(err)
	}
	s.SetRootNote(67)
	s.SetNoteRange(60, 72)
	s.SetLoopBounds(0.2, 0.6)
	s.SetLoopEnabled(true)
	s.SetLoopMode(intlib.LoopBackward)
	params := DefaultParams()
	params.AttackSec = 0.33
	p1.SetParams(params)

	data, err := p1.SaveState()
	if err != nil {
		t.Fatal(err)
	}

	p2, err := NewPlayer(44100)
	if err != nil {
		t.Fatal(err)
	}
	if err := p2.LoadState(data); err != nil {
		t.Fatal(err)
	}
	if p2.Params().AttackSec != 0.33 {
		t.Errorf("attack = %f, want 0.33", p2.Params().AttackSec)
	}
	if p2.SampleCount() != 1 {
		t.Fatalf("restored sample count = %d, want 1", p2.SampleCount())
	}
	r := p2.Samples()[0]
	if r.RootNote() != 67 {
		t.Errorf("root note = %d, want 67", r.RootNote())
	}
	if start, end := r.LoopBounds(); start != 0.2 || end != 0.6 {
		t.Errorf("loop bounds = [%f,%f], want [0.2,0.6]", start, end)
	}
	if r.LoopMode() != intlib.LoopBackward {
		t.Errorf("loop mode = %d, want backward", r.LoopMode())
	}
}

func TestLoadStateRejectsGarbage(t *testing.T) {
	p, err := NewPlayer(44100)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.LoadState([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed state")
	}
}
