// Package render is the structural render tier: it rebuilds the piano-roll
// view wholesale when the score or viewport changes, exposing the resulting
// note bars as addressable elements for the cosmetic highlight tier
package render

import (
	"strconv"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"github.com/quaverlabs/scorelight/engine"
	"github.com/quaverlabs/scorelight/score"
)

const (
	gutterCols = 5 // pitch labels
	headerRows = 1
)

var (
	styleLabel  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleBase   = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	styleActive = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
)

// PianoRoll owns the structural view of one score. Rebuild recreates every
// element; between rebuilds the element set is stable and the cosmetic tier
// mutates indicator state through Lookup
type PianoRoll struct {
	screen tcell.Screen
	notes  []score.Note
	title  string

	elements map[string]*NoteElement

	// onRebuilt is invoked synchronously at the end of every rebuild so
	// the highlight tier can re-apply its active set to the new elements
	onRebuilt func()

	minPitch, maxPitch int
	endTick            int64

	log zerolog.Logger
}

// NewPianoRoll creates the structural renderer for a score
func NewPianoRoll(screen tcell.Screen, s *score.Score, log zerolog.Logger) *PianoRoll {
	pr := &PianoRoll{
		screen:   screen,
		notes:    s.Notes,
		title:    s.Title,
		elements: make(map[string]*NoteElement),
		endTick:  s.EndTick(),
		log:      log,
	}

	pr.minPitch, pr.maxPitch = 127, 0
	for _, n := range s.Notes {
		if n.Pitch < pr.minPitch {
			pr.minPitch = n.Pitch
		}
		if n.Pitch > pr.maxPitch {
			pr.maxPitch = n.Pitch
		}
	}
	return pr
}

// SetRebuildListener registers the notification hook. Must be set before
// the first Rebuild that should re-apply highlights
func (pr *PianoRoll) SetRebuildListener(fn func()) {
	pr.onRebuilt = fn
}

// Lookup implements engine.ElementStore
func (pr *PianoRoll) Lookup(id string) (engine.Element, bool) {
	el, ok := pr.elements[id]
	return el, ok
}

// Present implements engine.Presenter: flush accumulated cell changes
func (pr *PianoRoll) Present() {
	pr.screen.Show()
}

// ElementCount returns the number of addressable elements
func (pr *PianoRoll) ElementCount() int {
	return len(pr.elements)
}

// Rebuild lays the score out against the current viewport and recreates
// every addressable element. All previous elements become stale. The
// rebuild listener is invoked synchronously before the frame is presented
func (pr *PianoRoll) Rebuild() {
	pr.screen.Clear()
	pr.elements = make(map[string]*NoteElement, len(pr.notes))

	width, height := pr.screen.Size()
	usableCols := width - gutterCols
	if usableCols < 1 || height <= headerRows || len(pr.notes) == 0 {
		pr.finishRebuild()
		return
	}

	// Horizontal scale: fit the whole score into the viewport
	ticksPerCol := pr.endTick / int64(usableCols)
	if ticksPerCol < 1 {
		ticksPerCol = 1
	}

	pr.drawHeader(width)

	for _, n := range pr.notes {
		y := pr.rowForPitch(n.Pitch, height)
		if y < 0 {
			continue // outside the vertical viewport, no element
		}

		x := gutterCols + int(n.Start/ticksPerCol)
		w := int(n.Duration / ticksPerCol)
		if w < 1 {
			w = 1
		}
		if x+w > width {
			w = width - x
		}
		if w < 1 {
			continue
		}

		pr.drawPitchLabel(n.Pitch, y)

		el := &NoteElement{
			screen: pr.screen,
			x:      x,
			y:      y,
			width:  w,
			base:   styleBase,
			lit:    styleActive,
		}
		el.draw()
		pr.elements[n.ID] = el
	}

	pr.finishRebuild()
}

// finishRebuild notifies the cosmetic tier, then presents. Notification
// comes first so re-applied highlights land in the same frame
func (pr *PianoRoll) finishRebuild() {
	pr.log.Debug().Int("elements", len(pr.elements)).Msg("structural rebuild complete")
	if pr.onRebuilt != nil {
		pr.onRebuilt()
	}
	pr.screen.Show()
}

// rowForPitch maps a pitch to a screen row, top row = highest pitch.
// Returns -1 when the pitch does not fit the viewport
func (pr *PianoRoll) rowForPitch(pitch, height int) int {
	y := headerRows + (pr.maxPitch - pitch)
	if y >= height {
		return -1
	}
	return y
}

func (pr *PianoRoll) drawHeader(width int) {
	for i, r := range pr.title {
		if i >= width {
			break
		}
		pr.screen.SetContent(i, 0, r, nil, styleLabel)
	}
}

var pitchNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func (pr *PianoRoll) drawPitchLabel(pitch, y int) {
	name := pitchNames[pitch%12]
	octave := pitch/12 - 1
	label := name + strconv.Itoa(octave)
	for i, r := range label {
		if i >= gutterCols-1 {
			break
		}
		pr.screen.SetContent(i, y, r, nil, styleLabel)
	}
}
