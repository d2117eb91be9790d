package device

import "github.com/gdamore/tcell/v2"

// approxCellWidth converts terminal columns to a rough pixel width so the
// small-viewport fallback threshold stays in one unit
const approxCellWidth = 8

// TerminalSignals reads capability signals from a tcell screen. A terminal
// exposes no pointer precision or hover capability, so those queries report
// unavailable and classification falls through to the viewport heuristic
type TerminalSignals struct {
	screen tcell.Screen
}

// NewTerminalSignals wraps screen as a Signals source
func NewTerminalSignals(screen tcell.Screen) *TerminalSignals {
	return &TerminalSignals{screen: screen}
}

// PointerCoarse implements Signals
func (t *TerminalSignals) PointerCoarse() (bool, error) {
	return false, ErrSignalUnavailable
}

// HoverCapable implements Signals
func (t *TerminalSignals) HoverCapable() (bool, error) {
	return false, ErrSignalUnavailable
}

// ViewportWidth implements Signals
func (t *TerminalSignals) ViewportWidth() (int, error) {
	if t.screen == nil {
		return 0, ErrSignalUnavailable
	}
	cols, _ := t.screen.Size()
	return cols * approxCellWidth, nil
}
