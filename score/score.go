// Package score holds the note collection the highlight engine indexes and
// the playback engine sounds. It is the entity source: loaded or generated
// once per score change, never touched on the per-frame path
package score

import (
	"fmt"

	"github.com/quaverlabs/scorelight/timeline"
)

// PPQ is the timeline resolution: pulses per quarter note
const PPQ = 960

// Note is one sounding entity with a half-open active window
// [Start, Start+Duration) on the PPQ timeline
type Note struct {
	ID       string `toml:"id"`
	Pitch    int    `toml:"pitch"` // MIDI note number
	Start    int64  `toml:"start"`
	Duration int64  `toml:"duration"`
}

// End returns the exclusive end tick
func (n Note) End() int64 {
	return n.Start + n.Duration
}

// Score is a named collection of notes with a tempo
type Score struct {
	Title string `toml:"title"`
	BPM   int    `toml:"bpm"`
	Notes []Note `toml:"notes"`
}

// Validate checks structural invariants: positive durations, valid pitches,
// unique non-empty ids
func (s *Score) Validate() error {
	if s.BPM <= 0 {
		return fmt.Errorf("score: bpm must be positive, got %d", s.BPM)
	}

	seen := make(map[string]struct{}, len(s.Notes))
	for i, n := range s.Notes {
		if n.ID == "" {
			return fmt.Errorf("score: note %d has empty id", i)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("score: duplicate note id %q", n.ID)
		}
		seen[n.ID] = struct{}{}

		if n.Duration <= 0 {
			return fmt.Errorf("score: note %q has non-positive duration %d", n.ID, n.Duration)
		}
		if n.Start < 0 {
			return fmt.Errorf("score: note %q starts before tick 0", n.ID)
		}
		if n.Pitch < 0 || n.Pitch > 127 {
			return fmt.Errorf("score: note %q has pitch %d outside MIDI range", n.ID, n.Pitch)
		}
	}
	return nil
}

// Intervals converts the notes into the rows the interval index builds from
func (s *Score) Intervals() []timeline.IndexedInterval {
	intervals := make([]timeline.IndexedInterval, len(s.Notes))
	for i, n := range s.Notes {
		intervals[i] = timeline.IndexedInterval{
			ID:    n.ID,
			Start: n.Start,
			End:   n.End(),
		}
	}
	return intervals
}

// EndTick returns the tick at which the last note ends, 0 for an empty score
func (s *Score) EndTick() int64 {
	var end int64
	for _, n := range s.Notes {
		if e := n.End(); e > end {
			end = e
		}
	}
	return end
}
