package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/quaverlabs/scorelight/device"
	"github.com/quaverlabs/scorelight/status"
	"github.com/quaverlabs/scorelight/timeline"
)

// ManualScheduler delivers wake-ups only when the test fires them
type ManualScheduler struct {
	pending     func()
	scheduled   int
	cancelCalls int
}

func (s *ManualScheduler) Schedule(fn func()) {
	s.pending = fn
	s.scheduled++
}

func (s *ManualScheduler) Cancel() {
	s.pending = nil
	s.cancelCalls++
}

// Fire invokes the pending wake-up the way a frame callback would
func (s *ManualScheduler) Fire() {
	fn := s.pending
	s.pending = nil
	if fn != nil {
		fn()
	}
}

// ScriptedTickSource is a test TickSource with a settable position
type ScriptedTickSource struct {
	tick   atomic.Int64
	status atomic.Int32
}

func (s *ScriptedTickSource) Tick() int64            { return s.tick.Load() }
func (s *ScriptedTickSource) Status() PlaybackStatus { return PlaybackStatus(s.status.Load()) }
func (s *ScriptedTickSource) Set(t int64)            { s.tick.Store(t) }

// CountingElement records indicator toggles
type CountingElement struct {
	active   bool
	setCalls int
}

func (e *CountingElement) SetActive(active bool) {
	e.active = active
	e.setCalls++
}

// CountingStore is an id-keyed element map with call accounting
type CountingStore struct {
	elements map[string]*CountingElement
	lookups  int
	presents int
}

func NewCountingStore(ids ...string) *CountingStore {
	s := &CountingStore{elements: make(map[string]*CountingElement)}
	for _, id := range ids {
		s.elements[id] = &CountingElement{}
	}
	return s
}

func (s *CountingStore) Lookup(id string) (Element, bool) {
	s.lookups++
	el, ok := s.elements[id]
	return el, ok
}

func (s *CountingStore) Present() {
	s.presents++
}

func (s *CountingStore) totalSetCalls() int {
	n := 0
	for _, el := range s.elements {
		n += el.setCalls
	}
	return n
}

type fixture struct {
	sched *ManualScheduler
	clock *MockTimeProvider
	ticks *ScriptedTickSource
	store *CountingStore
	coord *Coordinator
}

func newFixture(t *testing.T, intervals []timeline.IndexedInterval, ids ...string) *fixture {
	t.Helper()

	f := &fixture{
		sched: &ManualScheduler{},
		clock: NewMockTimeProvider(time.Unix(0, 0)),
		ticks: &ScriptedTickSource{},
		store: NewCountingStore(ids...),
	}

	profile := device.Profile{
		TargetInterval: 16 * time.Millisecond,
		Budget:         8 * time.Millisecond,
	}
	f.coord = NewCoordinator(
		f.sched, f.clock, f.ticks, f.store,
		profile,
		FrameBudgetConfig{Budget: 8 * time.Millisecond, DegradeStreak: 5, RecoverStreak: 5},
		status.NewRegistry(),
		zerolog.Nop(),
	)

	ix := timeline.NewIndex()
	ix.Build(intervals)
	f.coord.SetIndex(ix)
	return f
}

// step advances past the cadence gate and fires one wake-up
func (f *fixture) step() {
	f.clock.Advance(17 * time.Millisecond)
	f.sched.Fire()
}

func TestCycleAppliesHighlights(t *testing.T) {
	f := newFixture(t, []timeline.IndexedInterval{
		{ID: "n1", Start: 0, End: 960},
		{ID: "n2", Start: 480, End: 1440},
	}, "n1", "n2")

	f.coord.Start()
	f.ticks.Set(100)
	f.step()

	if !f.store.elements["n1"].active {
		t.Error("n1 should be highlighted at tick 100")
	}
	if f.store.elements["n2"].active {
		t.Error("n2 should not be highlighted at tick 100")
	}

	f.ticks.Set(1000)
	f.step()

	if f.store.elements["n1"].active {
		t.Error("n1 should be cleared at tick 1000")
	}
	if !f.store.elements["n2"].active {
		t.Error("n2 should be highlighted at tick 1000")
	}
}

func TestRearmHappensBeforeWork(t *testing.T) {
	f := newFixture(t, nil)

	f.coord.Start()
	if f.sched.pending == nil {
		t.Fatal("Start must schedule a wake-up")
	}

	f.step()
	if f.sched.pending == nil {
		t.Fatal("wake-up must re-arm itself")
	}
}

func TestCadenceGate(t *testing.T) {
	f := newFixture(t, []timeline.IndexedInterval{{ID: "n1", Start: 0, End: 100}}, "n1")

	f.coord.Start()
	f.step() // processed: applies n1

	calls := f.store.totalSetCalls()

	// Fire again only 1ms later: below the 16ms target interval, so this
	// wake-up is a no-op
	f.ticks.Set(500) // n1 no longer active, a processed cycle would clear it
	f.clock.Advance(time.Millisecond)
	f.sched.Fire()

	if f.store.totalSetCalls() != calls {
		t.Error("wake-up inside the target interval must do no element work")
	}
	if f.sched.pending == nil {
		t.Error("a gated wake-up must still re-arm")
	}
}

func TestNoDoubleWorkOnUnchangedSet(t *testing.T) {
	f := newFixture(t, []timeline.IndexedInterval{{ID: "n1", Start: 0, End: 10000}}, "n1")

	f.coord.Start()
	f.ticks.Set(100)
	f.step()

	calls := f.store.totalSetCalls()
	presents := f.store.presents

	f.ticks.Set(200) // still only n1 active
	f.step()

	if f.store.totalSetCalls() != calls {
		t.Error("unchanged active set must cause no element mutations")
	}
	if f.store.presents != presents {
		t.Error("unchanged active set must not present")
	}
}

func TestStructuralRebuildRecovery(t *testing.T) {
	f := newFixture(t, []timeline.IndexedInterval{
		{ID: "n1", Start: 0, End: 960},
		{ID: "n2", Start: 0, End: 960},
	}, "n1", "n2")

	f.coord.Start()
	f.ticks.Set(10)
	f.step()

	if !f.store.elements["n1"].active || !f.store.elements["n2"].active {
		t.Fatal("setup: expected n1 and n2 highlighted")
	}

	// Structural tier replaces every element; indicator state is lost with
	// the old elements
	fresh := NewCountingStore("n1", "n2")
	f.store.elements = fresh.elements

	f.coord.NotifyRebuild()

	// Without any new tick advance the fresh elements must already carry
	// the indicator
	if !f.store.elements["n1"].active || !f.store.elements["n2"].active {
		t.Error("active set must be re-applied immediately after rebuild")
	}

	// And the next natural cycle sees an unchanged set: no further work
	calls := f.store.totalSetCalls()
	f.step()
	if f.store.totalSetCalls() != calls {
		t.Error("cycle after rebuild re-apply must be a no-op")
	}
}

func TestMissingElementIsSkippedNotFatal(t *testing.T) {
	f := newFixture(t, []timeline.IndexedInterval{
		{ID: "n1", Start: 0, End: 960},
		{ID: "ghost", Start: 0, End: 960},
	}, "n1") // no element for "ghost"

	f.coord.Start()
	f.ticks.Set(10)
	f.step()

	if !f.store.elements["n1"].active {
		t.Error("present element must still be updated when a sibling is missing")
	}
}

func TestStopCancelsPendingWakeup(t *testing.T) {
	f := newFixture(t, []timeline.IndexedInterval{{ID: "n1", Start: 0, End: 960}}, "n1")

	f.coord.Start()
	f.coord.Stop()

	if f.sched.pending != nil {
		t.Error("Stop must cancel the pending wake-up")
	}

	// Stop is idempotent
	f.coord.Stop()
	f.coord.Stop()
}

func TestStopSuppressesInFlightWakeup(t *testing.T) {
	f := newFixture(t, []timeline.IndexedInterval{{ID: "n1", Start: 0, End: 960}}, "n1")

	f.coord.Start()
	inFlight := f.sched.pending

	f.coord.Stop()

	// The scheduling layer already fired before Cancel took effect
	f.ticks.Set(10)
	f.clock.Advance(17 * time.Millisecond)
	inFlight()

	if f.store.totalSetCalls() != 0 {
		t.Error("a wake-up surviving Stop must do no work")
	}
	if f.sched.pending != nil {
		t.Error("a wake-up surviving Stop must not re-arm")
	}
}

func TestDegradationSkipsAlternateCycles(t *testing.T) {
	// One short interval per cycle so every processed cycle changes the
	// active set and therefore touches elements
	var intervals []timeline.IndexedInterval
	var ids []string
	for i := 0; i < 5; i++ {
		id := "s" + string(rune('0'+i))
		intervals = append(intervals, timeline.IndexedInterval{
			ID: id, Start: int64(i * 10), End: int64(i*10 + 10),
		})
		ids = append(ids, id)
	}
	f := newFixture(t, intervals, ids...)

	f.coord.Start()

	// Overrun five consecutive cycles: each element lookup charges more
	// wall-clock time than the whole budget allows
	slow := &slowStore{inner: f.store, clock: f.clock, cost: 10 * time.Millisecond}
	f.coord.elements = slow

	for i := 0; i < 5; i++ {
		f.ticks.Set(int64(i * 10))
		f.step()
	}
	if !f.coord.budget.IsDegraded() {
		t.Fatal("setup: expected degraded after 5 overruns")
	}

	// While degraded, every other wake-up performs no cycle work even
	// though cadence allows it
	skippedBefore := f.coord.statSkipped.Load()
	for i := 0; i < 6; i++ {
		f.step()
	}
	skipped := f.coord.statSkipped.Load() - skippedBefore
	if skipped != 3 {
		t.Errorf("expected 3 of 6 degraded wake-ups skipped, got %d", skipped)
	}
}

// slowStore wraps a store and charges wall-clock time per lookup to
// simulate expensive element work
type slowStore struct {
	inner *CountingStore
	clock *MockTimeProvider
	cost  time.Duration
}

func (s *slowStore) Lookup(id string) (Element, bool) {
	s.clock.Advance(s.cost)
	return s.inner.Lookup(id)
}

func TestCyclePanicIsContained(t *testing.T) {
	f := newFixture(t, []timeline.IndexedInterval{{ID: "n1", Start: 0, End: 960}}, "n1")

	f.coord.Start()
	f.coord.elements = &panickyStore{}

	f.ticks.Set(10)
	f.step() // must not propagate

	// Loop keeps running: restore a working store and verify the next
	// cycle applies the patch the failed cycle never produced
	f.coord.elements = f.store
	f.step()

	if !f.store.elements["n1"].active {
		t.Error("cycle after a recovered panic must work normally")
	}
}

type panickyStore struct{}

func (s *panickyStore) Lookup(id string) (Element, bool) {
	panic("element store exploded")
}

func TestEmptyIndexCycleIsQuiet(t *testing.T) {
	f := newFixture(t, nil, "n1")

	f.coord.Start()
	f.ticks.Set(12345)
	f.step()

	if f.store.totalSetCalls() != 0 {
		t.Error("empty index must produce no element work")
	}
}

func TestApplyProfileChangesCadence(t *testing.T) {
	f := newFixture(t, []timeline.IndexedInterval{{ID: "n1", Start: 0, End: 100}}, "n1")

	f.coord.Start()
	f.ticks.Set(500) // nothing active
	f.step()         // establish the last processed timestamp

	f.coord.ApplyProfile(device.Profile{
		LowPower:       true,
		TargetInterval: 33 * time.Millisecond,
		Budget:         5 * time.Millisecond,
	})

	f.ticks.Set(10)
	f.step() // 17ms since last processed: below the new 33ms interval

	if f.store.totalSetCalls() != 0 {
		t.Error("wake-up below the low-power interval must be gated")
	}

	f.step() // 34ms: past the interval
	if !f.store.elements["n1"].active {
		t.Error("expected processed cycle after the low-power interval elapsed")
	}
}
