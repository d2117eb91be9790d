// Package config loads the application configuration file. The degradation
// thresholds live here rather than as constants: the right values are
// workload- and device-dependent
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Engine tunes the highlight loop and its budget monitor
type Engine struct {
	DegradeStreak    int     `toml:"degrade_streak"`     // consecutive overruns before degrading
	RecoverStreak    int     `toml:"recover_streak"`     // consecutive good frames before recovering
	StandardBudgetMs float64 `toml:"standard_budget_ms"` // frame budget, standard profile
	LowPowerBudgetMs float64 `toml:"low_power_budget_ms"`
	Profile          string  `toml:"profile"` // "auto", "standard" or "low-power"
}

// Audio tunes the playback engine
type Audio struct {
	Volume   float64 `toml:"volume"`    // 0.0-1.0
	BufferMs int     `toml:"buffer_ms"` // speaker buffer, latency/underrun tradeoff
}

// Config is the root of scorelight.toml
type Config struct {
	Engine Engine `toml:"engine"`
	Audio  Audio  `toml:"audio"`
}

// Default returns the stock configuration
func Default() Config {
	return Config{
		Engine: Engine{
			DegradeStreak:    5,
			RecoverStreak:    5,
			StandardBudgetMs: 8,
			LowPowerBudgetMs: 5,
			Profile:          "auto",
		},
		Audio: Audio{
			Volume:   0.8,
			BufferMs: 100,
		},
	}
}

// Load reads path over the defaults. A missing file is not an error: the
// defaults apply
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Engine.Profile {
	case "auto", "standard", "low-power":
	default:
		return fmt.Errorf("config: unknown profile %q", c.Engine.Profile)
	}
	if c.Engine.StandardBudgetMs <= 0 || c.Engine.LowPowerBudgetMs <= 0 {
		return errors.New("config: frame budgets must be positive")
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		return fmt.Errorf("config: volume %v outside 0..1", c.Audio.Volume)
	}
	return nil
}

// StandardBudget returns the standard-profile budget as a duration
func (e Engine) StandardBudget() time.Duration {
	return time.Duration(e.StandardBudgetMs * float64(time.Millisecond))
}

// LowPowerBudget returns the low-power-profile budget as a duration
func (e Engine) LowPowerBudget() time.Duration {
	return time.Duration(e.LowPowerBudgetMs * float64(time.Millisecond))
}
