package engine

import (
	"sync"
	"time"

	"github.com/quaverlabs/scorelight/core"
)

// FrameScheduler is the platform "next visual frame" callback mechanism.
// At most one callback is pending at a time; scheduling while one is
// pending replaces it. Callbacks are delivered serially in arrival order,
// never concurrently
type FrameScheduler interface {
	// Schedule arranges a single future invocation of fn
	Schedule(fn func())
	// Cancel drops the pending invocation, if any. Safe to call when
	// nothing is pending
	Cancel()
}

// TickerScheduler emulates a vsync-driven frame callback source with a
// fixed-rate ticker and one dispatch goroutine. All callbacks run on that
// goroutine, giving the cooperative single-thread model the render loop
// assumes
type TickerScheduler struct {
	interval time.Duration

	mu      sync.Mutex
	pending func()

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewTickerScheduler creates a scheduler firing every interval and starts
// its dispatch goroutine
func NewTickerScheduler(interval time.Duration) *TickerScheduler {
	s := &TickerScheduler{
		interval: interval,
		stopChan: make(chan struct{}),
	}
	s.wg.Add(1)
	core.Go(s.dispatchLoop)
	return s
}

// Schedule implements FrameScheduler
func (s *TickerScheduler) Schedule(fn func()) {
	s.mu.Lock()
	s.pending = fn
	s.mu.Unlock()
}

// Cancel implements FrameScheduler
func (s *TickerScheduler) Cancel() {
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
}

// Close stops the dispatch goroutine. No callback runs after Close returns
func (s *TickerScheduler) Close() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
}

func (s *TickerScheduler) dispatchLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.mu.Lock()
			fn := s.pending
			s.pending = nil
			s.mu.Unlock()

			if fn != nil {
				fn()
			}
		}
	}
}
