// Package library owns decoded sample buffers and resolves note numbers to
// samples. Writers (load, clear, edits) run on the control path; the render
// path reads a copy-on-write snapshot without locks.
package library

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Library is an ordered collection of samples. The slice behind the atomic
// pointer is never mutated in place: Load and Clear publish a fresh slice, so
// a render pass that grabbed the previous snapshot keeps reading valid data.
type Library struct {
	mu      sync.Mutex // serializes writers only
	samples atomic.Pointer[[]*Sample]
}

func New() *Library {
	l := &Library{}
	empty := make([]*Sample, 0)
	l.samples.Store(&empty)
	return l
}

// Load decodes an audio file (WAV or MP3) and appends it as a new sample with
// default metadata. On decode failure nothing is appended and the error is
// returned to the caller; the render path never observes a torn state.
func (l *Library) Load(path string) (*Sample, error) {
	data, sampleRate, err := decodeFile(path)
	if err != nil {
		return nil, fmt.Errorf("load sample %s: %w", path, err)
	}
	s := NewSample(baseName(path), data, sampleRate)
	s.path = path
	l.Append(s)
	return s, nil
}

// Append publishes a new snapshot with s added at the end.
func (l *Library) Append(s *Sample) {
	l.mu.Lock()
	defer l.mu.Unlock()
	old := *l.samples.Load()
	next := make([]*Sample, len(old)+1)
	copy(next, old)
	next[len(old)] = s
	l.samples.Store(&next)
}

// Clear publishes an empty snapshot. Samples referenced by still-active
// voices remain readable until those voices go idle.
func (l *Library) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	empty := make([]*Sample, 0)
	l.samples.Store(&empty)
}

// Resolve returns the first sample whose note range contains note. When no
// range matches and the library is non-empty it falls back to the
// first-loaded sample (documented quirk: an unmapped note is not silent
// unless the library is empty). Returns nil for an empty library.
func (l *Library) Resolve(note int) *Sample {
	samples := *l.samples.Load()
	for _, s := range samples {
		if s.Contains(note) {
			return s
		}
	}
	if len(samples) > 0 {
		return samples[0]
	}
	return nil
}

// Samples returns the current snapshot. The returned slice must not be
// mutated.
func (l *Library) Samples() []*Sample {
	return *l.samples.Load()
}

func (l *Library) Count() int {
	return len(*l.samples.Load())
}
