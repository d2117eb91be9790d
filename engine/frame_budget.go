package engine

import "time"

// FrameBudgetConfig tunes the degrade/recover state machine. The streak
// lengths and skip policy are workload-dependent heuristics, so they are
// configuration rather than constants
type FrameBudgetConfig struct {
	Budget        time.Duration // max wall-clock cost of one cosmetic cycle
	DegradeStreak int           // consecutive overruns before degrading
	RecoverStreak int           // consecutive within-budget frames before recovering
}

// DefaultDegradeStreak and DefaultRecoverStreak apply when a config leaves
// the streak lengths zero
const (
	DefaultDegradeStreak = 5
	DefaultRecoverStreak = 5
)

// FrameToken carries the start timestamp between StartFrame and EndFrame
type FrameToken struct {
	start time.Time
}

// FrameBudget tracks per-frame elapsed time against a budget and drives a
// two-state NORMAL/DEGRADED machine. Advisory only: it reports whether the
// caller should skip work, it never decides what to skip.
//
// State is owned by the render loop and mutated only from within it
type FrameBudget struct {
	clock         TimeProvider
	budget        time.Duration
	degradeStreak int
	recoverStreak int

	overruns     int
	withinBudget int
	degraded     bool
	skipParity   bool
}

// NewFrameBudget creates a monitor in the NORMAL state
func NewFrameBudget(clock TimeProvider, cfg FrameBudgetConfig) *FrameBudget {
	if cfg.DegradeStreak <= 0 {
		cfg.DegradeStreak = DefaultDegradeStreak
	}
	if cfg.RecoverStreak <= 0 {
		cfg.RecoverStreak = DefaultRecoverStreak
	}
	return &FrameBudget{
		clock:         clock,
		budget:        cfg.Budget,
		degradeStreak: cfg.DegradeStreak,
		recoverStreak: cfg.RecoverStreak,
	}
}

// StartFrame begins measuring one unit of monitored work
func (fb *FrameBudget) StartFrame() FrameToken {
	return FrameToken{start: fb.clock.Now()}
}

// EndFrame records the elapsed time for the frame begun with token and
// advances the state machine
func (fb *FrameBudget) EndFrame(token FrameToken) {
	elapsed := fb.clock.Now().Sub(token.start)

	if elapsed > fb.budget {
		fb.withinBudget = 0
		fb.overruns++
		if !fb.degraded && fb.overruns >= fb.degradeStreak {
			fb.degraded = true
			fb.skipParity = false
			fb.overruns = 0
		}
		return
	}

	fb.overruns = 0
	fb.withinBudget++
	if fb.degraded && fb.withinBudget >= fb.recoverStreak {
		fb.degraded = false
		fb.withinBudget = 0
	}
}

// ShouldSkipFrame reports whether the caller should skip its next unit of
// work. Always false while NORMAL; while DEGRADED it alternates true/false
// across successive calls, halving the effective work rate
func (fb *FrameBudget) ShouldSkipFrame() bool {
	if !fb.degraded {
		return false
	}
	fb.skipParity = !fb.skipParity
	return fb.skipParity
}

// IsDegraded reports the current state
func (fb *FrameBudget) IsDegraded() bool {
	return fb.degraded
}

// SetBudget replaces the budget, used when the device profile changes.
// Counters are left untouched
func (fb *FrameBudget) SetBudget(budget time.Duration) {
	fb.budget = budget
}

// Budget returns the current budget
func (fb *FrameBudget) Budget() time.Duration {
	return fb.budget
}

// Reset clears all counters and returns to NORMAL, used when the driving
// activity stops entirely
func (fb *FrameBudget) Reset() {
	fb.overruns = 0
	fb.withinBudget = 0
	fb.degraded = false
	fb.skipParity = false
}
