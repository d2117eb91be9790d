// Package engine runs the cosmetic render loop: a self-rescheduling,
// cooperative cycle that keeps the highlight overlay in sync with the
// playback position without ever contending with the real-time audio path
package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/quaverlabs/scorelight/device"
	"github.com/quaverlabs/scorelight/highlight"
	"github.com/quaverlabs/scorelight/status"
	"github.com/quaverlabs/scorelight/timeline"
)

// Element is one addressable visual element whose active indicator the
// cosmetic tier toggles. Obtained by stable entity id from an ElementStore
type Element interface {
	SetActive(active bool)
}

// ElementStore resolves stable entity ids to visual elements. Lookup must
// be O(1)-ish and tolerant of missing ids; the structural render tier
// rebuilds the store wholesale when geometry changes
type ElementStore interface {
	Lookup(id string) (Element, bool)
}

// Presenter is an optional ElementStore capability: flush the accumulated
// element mutations to the display once per applied patch
type Presenter interface {
	Present()
}

// Coordinator orchestrates the per-frame highlight cycle. It owns the
// previously-applied active-id set and the scheduling handle; the interval
// index's source data belongs to whoever loads the entity collection.
//
// All cycle work runs on the scheduler's dispatch goroutine. Start, Stop,
// ApplyProfile and NotifyRebuild may be called from other goroutines; a
// mutex serializes them against the cycle body
type Coordinator struct {
	sched    FrameScheduler
	clock    TimeProvider
	ticks    TickSource
	budget   *FrameBudget
	elements ElementStore
	log      zerolog.Logger

	running atomic.Bool

	mu             sync.Mutex
	index          *timeline.Index
	prev           map[string]struct{}
	queryBuf       []string
	targetInterval time.Duration
	lastProcessed  time.Time
	skipNext       bool

	statFrames   *atomic.Int64
	statSkipped  *atomic.Int64
	statPatches  *atomic.Int64
	statDegraded *atomic.Bool
}

// NewCoordinator wires the loop. The profile supplies the initial cadence;
// budget thresholds come from cfg. elements may be replaced wholesale by
// the structural tier as long as NotifyRebuild follows
func NewCoordinator(
	sched FrameScheduler,
	clock TimeProvider,
	ticks TickSource,
	elements ElementStore,
	profile device.Profile,
	cfg FrameBudgetConfig,
	reg *status.Registry,
	log zerolog.Logger,
) *Coordinator {
	if cfg.Budget == 0 {
		cfg.Budget = profile.Budget
	}
	return &Coordinator{
		sched:          sched,
		clock:          clock,
		ticks:          ticks,
		budget:         NewFrameBudget(clock, cfg),
		elements:       elements,
		log:            log,
		index:          timeline.NewIndex(),
		prev:           make(map[string]struct{}),
		targetInterval: profile.TargetInterval,
		statFrames:     reg.Ints.Get("coordinator.frames"),
		statSkipped:    reg.Ints.Get("coordinator.frames_skipped"),
		statPatches:    reg.Ints.Get("coordinator.patches_applied"),
		statDegraded:   reg.Bools.Get("coordinator.degraded"),
	}
}

// SetIndex swaps in a freshly built interval index. Called by the entity
// source on data change, never on the per-frame path. The previously
// applied set is kept; the next cycle diffs against it as usual
func (c *Coordinator) SetIndex(ix *timeline.Index) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = ix
}

// ApplyProfile adopts a re-detected device profile: new cadence, new
// budget. Counters and degradation state are left alone
func (c *Coordinator) ApplyProfile(p device.Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.targetInterval = p.TargetInterval
	c.budget.SetBudget(p.Budget)
}

// Start begins the self-rescheduling loop. No-op if already running
func (c *Coordinator) Start() {
	if !c.running.CompareAndSwap(false, true) {
		return
	}

	c.mu.Lock()
	c.lastProcessed = time.Time{}
	c.skipNext = false
	c.budget.Reset()
	c.statDegraded.Store(false)
	c.mu.Unlock()

	c.sched.Schedule(c.onFrame)
}

// Stop cancels the pending wake-up and idles the loop. Safe to call
// repeatedly and when nothing is pending; a wake-up already in flight at
// the scheduling layer sees the cleared running flag and does nothing
func (c *Coordinator) Stop() {
	if !c.running.CompareAndSwap(true, false) {
		return
	}
	c.sched.Cancel()
}

// NotifyRebuild is invoked synchronously by the structural tier after it
// has rebuilt the addressable elements. The active set itself has not
// changed, only the elements representing it, so the currently known set is
// re-applied immediately: no index query, no waiting for the next cadence
// tick
func (c *Coordinator) NotifyRebuild() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id := range c.prev {
		el, ok := c.elements.Lookup(id)
		if !ok {
			c.log.Warn().Str("id", id).Msg("no element for active id after structural rebuild")
			continue
		}
		el.SetActive(true)
	}
	c.present()
}

// onFrame is the wake-up entry point: one invocation per frame callback
func (c *Coordinator) onFrame() {
	if !c.running.Load() {
		return
	}

	// Re-arm before any work so a slow or failing cycle never stalls
	// future scheduling
	c.sched.Schedule(c.onFrame)

	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Cadence gate: wake-ups arrive at platform frame rate; only process
	// once per target interval
	if !c.lastProcessed.IsZero() && now.Sub(c.lastProcessed) < c.targetInterval {
		return
	}
	c.lastProcessed = now

	// Degradation skips the work inside a cycle, never the scheduling.
	// The monitor is consulted on skipped wake-ups too so the skip pattern
	// alternates and the work rate is halved, not quartered
	if c.skipNext {
		c.skipNext = c.budget.ShouldSkipFrame()
		c.statSkipped.Add(1)
		return
	}

	c.runCycle()
}

// runCycle performs the monitored portion of one wake-up. A panicking cycle
// is logged and treated as having produced no patch so later cycles are
// unaffected
func (c *Coordinator) runCycle() {
	token := c.budget.StartFrame()
	defer func() {
		c.budget.EndFrame(token)
		c.skipNext = c.budget.ShouldSkipFrame()
		c.statDegraded.Store(c.budget.IsDegraded())
		c.statFrames.Add(1)
	}()
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Msg("highlight cycle recovered")
		}
	}()

	// Snapshot of the externally-advanced position; never awaited
	tick := c.ticks.Tick()

	c.queryBuf = c.index.FindActiveInto(tick, c.queryBuf[:0])
	patch := highlight.Compute(c.prev, c.queryBuf)
	if patch.Unchanged {
		return
	}

	c.applyPatch(patch)
	c.statPatches.Add(1)
}

// applyPatch toggles element indicators and folds the delta into the
// applied set. A missing element is skipped with a warning, not retried;
// the re-apply-after-rebuild rule is the recovery mechanism
func (c *Coordinator) applyPatch(patch highlight.Patch) {
	for _, id := range patch.Removed {
		if el, ok := c.elements.Lookup(id); ok {
			el.SetActive(false)
		} else {
			c.log.Warn().Str("id", id).Msg("no element for removed highlight")
		}
		delete(c.prev, id)
	}
	for _, id := range patch.Added {
		if el, ok := c.elements.Lookup(id); ok {
			el.SetActive(true)
		} else {
			c.log.Warn().Str("id", id).Msg("no element for added highlight")
		}
		c.prev[id] = struct{}{}
	}
	c.present()
}

func (c *Coordinator) present() {
	if p, ok := c.elements.(Presenter); ok {
		p.Present()
	}
}
