// Package device classifies the runtime environment to pick a highlight
// update cadence and frame budget. Detection is off the hot path: it runs
// at startup and again only on explicit environment-change notifications
package device

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Profile is the cadence/budget selection for the current environment.
// Treated as read-only configuration between detections
type Profile struct {
	LowPower       bool
	TargetInterval time.Duration // minimum spacing between processed frames
	Budget         time.Duration // frame budget handed to the monitor
}

// ErrSignalUnavailable is returned by Signals implementations that cannot
// answer a capability query on this platform
var ErrSignalUnavailable = errors.New("device: signal unavailable")

// Signals exposes the platform capability queries the profiler reads.
// Implementations return ErrSignalUnavailable rather than guessing
type Signals interface {
	PointerCoarse() (bool, error)
	HoverCapable() (bool, error)
	ViewportWidth() (int, error)
}

// Config tunes the classification heuristics and the resulting profiles
type Config struct {
	SmallViewportWidth int           // fallback threshold when pointer signals are unavailable
	StandardInterval   time.Duration // ~60 Hz
	StandardBudget     time.Duration
	LowPowerInterval   time.Duration // ~30 Hz
	LowPowerBudget     time.Duration
}

// DefaultConfig returns the stock cadence/budget table
func DefaultConfig() Config {
	return Config{
		SmallViewportWidth: 768,
		StandardInterval:   time.Second / 60,
		StandardBudget:     8 * time.Millisecond,
		LowPowerInterval:   time.Second / 30,
		LowPowerBudget:     5 * time.Millisecond,
	}
}

// Profiler classifies the environment into a Profile
type Profiler struct {
	cfg Config
	log zerolog.Logger
}

// NewProfiler creates a profiler with the given config
func NewProfiler(cfg Config, log zerolog.Logger) *Profiler {
	return &Profiler{cfg: cfg, log: log}
}

// Detect classifies the environment. Priority: the coarse-pointer/no-hover
// signal pair marks low-power; when that pair is unavailable or ambiguous,
// a small viewport is the fallback marker. Any signal failure falls back
// to the standard profile rather than erroring
func (p *Profiler) Detect(sig Signals) Profile {
	if p.detectLowPower(sig) {
		p.log.Debug().Msg("device profile: low-power")
		return Profile{
			LowPower:       true,
			TargetInterval: p.cfg.LowPowerInterval,
			Budget:         p.cfg.LowPowerBudget,
		}
	}

	p.log.Debug().Msg("device profile: standard")
	return Profile{
		TargetInterval: p.cfg.StandardInterval,
		Budget:         p.cfg.StandardBudget,
	}
}

func (p *Profiler) detectLowPower(sig Signals) bool {
	coarse, errCoarse := sig.PointerCoarse()
	hover, errHover := sig.HoverCapable()

	if errCoarse == nil && errHover == nil {
		return coarse && !hover
	}

	width, err := sig.ViewportWidth()
	if err != nil {
		p.log.Debug().Err(err).Msg("device signals unreadable, assuming standard profile")
		return false
	}
	return width < p.cfg.SmallViewportWidth
}
