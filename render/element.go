package render

import "github.com/gdamore/tcell/v2"

// NoteElement is one addressable run of cells representing a note bar.
// SetActive toggles the highlight style in place; the change reaches the
// terminal on the next Present
type NoteElement struct {
	screen tcell.Screen
	x, y   int
	width  int
	base   tcell.Style
	lit    tcell.Style
	active bool
}

// SetActive implements engine.Element
func (e *NoteElement) SetActive(active bool) {
	e.active = active
	e.draw()
}

// Active reports the current indicator state
func (e *NoteElement) Active() bool {
	return e.active
}

func (e *NoteElement) draw() {
	style := e.base
	if e.active {
		style = e.lit
	}
	for i := 0; i < e.width; i++ {
		e.screen.SetContent(e.x+i, e.y, tcell.RuneBlock, nil, style)
	}
}
