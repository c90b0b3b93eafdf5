// Package state serializes the parts of a sampler session worth keeping:
// the parameter snapshot and, per sample, its origin path and metadata.
// Audio data is never embedded; restoring re-decodes each sample from its
// path.
package state

import (
	"encoding/json"
	"log/slog"

	"github.com/cbegin/sampler-go/internal/engine"
	"github.com/cbegin/sampler-go/internal/library"
)

// SampleMeta captures everything about a loaded sample except its audio.
type SampleMeta struct {
	Path        string  `json:"path"`
	Name        string  `json:"name"`
	RootNote    int     `json:"rootNote"`
	LowNote     int     `json:"lowNote"`
	HighNote    int     `json:"highNote"`
	LoopStart   float64 `json:"loopStart"`
	LoopEnd     float64 `json:"loopEnd"`
	LoopEnabled bool    `json:"loopEnabled"`
	LoopMode    int     `json:"loopMode"`
}

// Snapshot is the persisted form of a session.
type Snapshot struct {
	Params  engine.Params `json:"params"`
	Samples []SampleMeta  `json:"samples"`
}

// Capture builds a snapshot from the current parameters and library contents.
func Capture(params engine.Params, lib *library.Library) Snapshot {
	samples := lib.Samples()
	snap := Snapshot{
		Params:  params,
		Samples: make([]SampleMeta, 0, len(samples)),
	}
	for _, s := range samples {
		low, high := s.NoteRange()
		start, end := s.LoopBounds()
		snap.Samples = append(snap.Samples, SampleMeta{
			Path:        s.Path(),
			Name:        s.Name(),
			RootNote:    s.RootNote(),
			LowNote:     low,
			HighNote:    high,
			LoopStart:   start,
			LoopEnd:     end,
			LoopEnabled: s.LoopEnabled(),
			LoopMode:    int(s.LoopMode()),
		})
	}
	return snap
}

// Marshal encodes a snapshot as indented JSON.
func Marshal(snap Snapshot) ([]byte, error) {
	return json.MarshalIndent(snap, "", "  ")
}

// Unmarshal decodes a snapshot previously produced by Marshal.
func Unmarshal(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Restore replaces the library contents from the snapshot, re-decoding each
// sample from its recorded path. A sample whose file is missing or no longer
// decodable is skipped with a warning; the rest of the session still loads.
// It returns the restored parameter snapshot.
func Restore(snap Snapshot, lib *library.Library) engine.Params {
	lib.Clear()
	for _, meta := range snap.Samples {
		s, err := lib.Load(meta.Path)
		if err != nil {
			slog.Warn("skipping sample during restore", "path", meta.Path, "err", err)
			continue
		}
		s.SetRootNote(meta.RootNote)
		s.SetNoteRange(meta.LowNote, meta.HighNote)
		s.SetLoopBounds(meta.LoopStart, meta.LoopEnd)
		s.SetLoopEnabled(meta.LoopEnabled)
		s.SetLoopMode(library.LoopMode(meta.LoopMode))
	}
	return snap.Params.Clamped()
}
