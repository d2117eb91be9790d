// Package audio is the playback engine: it synthesizes the score through
// the speaker and, as a side effect of streaming, advances the shared
// playback tick. It is the single writer of that tick; the highlight
// engine only reads it
package audio

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
	"github.com/rs/zerolog"

	"github.com/quaverlabs/scorelight/engine"
	"github.com/quaverlabs/scorelight/score"
)

const sampleRate = beep.SampleRate(48000)

// Player streams a score and owns the playback position. It implements
// engine.TickSource: Tick and Status are lock-free reads of values the
// stream callback publishes
type Player struct {
	notes          []score.Note // sorted by Start
	samplesPerTick float64
	endTick        int64

	tick  atomic.Int64
	state atomic.Int32

	// Stream-side state, touched only by the speaker goroutine (and under
	// speaker.Lock for transport operations)
	samplePos int64
	nextNote  int
	voices    []*voice

	mu          sync.Mutex
	ctrl        *beep.Ctrl
	initialized bool
	log         zerolog.Logger
}

// NewPlayer prepares a player for the given score
func NewPlayer(s *score.Score, log zerolog.Logger) *Player {
	notes := make([]score.Note, len(s.Notes))
	copy(notes, s.Notes)
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].Start < notes[j].Start
	})

	// samples per tick at the score tempo: one quarter note is PPQ ticks
	// and 60/bpm seconds
	samplesPerTick := 60.0 * float64(sampleRate) / (float64(s.BPM) * float64(score.PPQ))

	return &Player{
		notes:          notes,
		samplesPerTick: samplesPerTick,
		endTick:        s.EndTick(),
		log:            log,
	}
}

// Init opens the speaker and attaches the player, paused. bufferMs trades
// latency against underruns; volume is linear 0-1
func (p *Player) Init(bufferMs int, volume float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}

	if err := speaker.Init(sampleRate, sampleRate.N(time.Duration(bufferMs)*time.Millisecond)); err != nil {
		return err
	}

	p.ctrl = &beep.Ctrl{Streamer: p, Paused: true}
	speaker.Play(volumeWrap(p.ctrl, volume))

	p.state.Store(int32(engine.StatusStopped))
	p.initialized = true
	p.log.Debug().Int("buffer_ms", bufferMs).Float64("volume", volume).Msg("speaker initialized")
	return nil
}

// volumeWrap applies a linear 0-1 volume as a log-scaled effect
func volumeWrap(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

// Play starts or resumes playback
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return
	}

	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
	p.state.Store(int32(engine.StatusPlaying))
}

// Pause freezes playback and the tick in place
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return
	}

	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
	p.state.Store(int32(engine.StatusPaused))
}

// Stop halts playback and rewinds to tick 0
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return
	}

	speaker.Lock()
	p.ctrl.Paused = true
	p.samplePos = 0
	p.nextNote = 0
	p.voices = p.voices[:0]
	speaker.Unlock()

	p.tick.Store(0)
	p.state.Store(int32(engine.StatusStopped))
}

// Close tears down the speaker attachment
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return
	}

	speaker.Clear()
	p.initialized = false
	p.state.Store(int32(engine.StatusStopped))
}

// Tick implements engine.TickSource
func (p *Player) Tick() int64 {
	return p.tick.Load()
}

// Status implements engine.TickSource
func (p *Player) Status() engine.PlaybackStatus {
	return engine.PlaybackStatus(p.state.Load())
}

// PastEnd reports whether the playback position has passed the last note
func (p *Player) PastEnd() bool {
	return p.tick.Load() >= p.endTick
}

// Stream implements beep.Streamer. It runs on the speaker goroutine: it
// triggers voices as their start samples pass, mixes them, and publishes
// the new tick. It keeps streaming silence after the score ends so the
// transport clock stays live until Stop
func (p *Player) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		for p.nextNote < len(p.notes) {
			startSample := int64(float64(p.notes[p.nextNote].Start) * p.samplesPerTick)
			if startSample > p.samplePos {
				break
			}
			note := p.notes[p.nextNote]
			durSamples := int(float64(note.Duration) * p.samplesPerTick)
			p.voices = append(p.voices, newVoice(note.Pitch, durSamples, int(sampleRate)))
			p.nextNote++
		}

		var mixed float64
		live := p.voices[:0]
		for _, v := range p.voices {
			mixed += v.sample(int(sampleRate))
			if !v.done() {
				live = append(live, v)
			}
		}
		p.voices = live

		// Soft headroom so chords do not clip
		mixed *= 0.25

		samples[i][0] = mixed
		samples[i][1] = mixed
		p.samplePos++
	}

	p.tick.Store(int64(float64(p.samplePos) / p.samplesPerTick))
	return len(samples), true
}

// Err implements beep.Streamer
func (p *Player) Err() error {
	return nil
}
