package engine

// PlaybackStatus is the coarse transport state of the external playback
// engine
type PlaybackStatus int32

const (
	StatusStopped PlaybackStatus = iota
	StatusPlaying
	StatusPaused
)

// String returns a human-readable status name
func (s PlaybackStatus) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// TickSource is the externally-owned provider of the current playback
// position. Exactly one writer (the playback engine) mutates it; this
// subsystem only ever reads. Tick must be cheap, non-blocking and must not
// cause the source to recompute anything
type TickSource interface {
	Tick() int64
	Status() PlaybackStatus
}
