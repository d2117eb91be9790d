package score

import "fmt"

// CMajorScale generates the stock demo score: a piano C major scale,
// quarter notes at 120 BPM, closed by a whole-note C major chord
func CMajorScale() *Score {
	pitches := []int{60, 62, 64, 65, 67, 69, 71, 72} // C4..C5
	quarter := int64(PPQ)

	s := &Score{
		Title: "C Major Scale",
		BPM:   120,
	}
	for i, pitch := range pitches {
		s.Notes = append(s.Notes, Note{
			ID:       fmt.Sprintf("n%d", i+1),
			Pitch:    pitch,
			Start:    int64(i) * quarter,
			Duration: quarter,
		})
	}

	// Closing chord: C4 E4 G4 held for a whole note
	chordStart := int64(len(pitches)) * quarter
	for i, pitch := range []int{60, 64, 67} {
		s.Notes = append(s.Notes, Note{
			ID:       fmt.Sprintf("chord%d", i+1),
			Pitch:    pitch,
			Start:    chordStart,
			Duration: 4 * quarter,
		})
	}
	return s
}
