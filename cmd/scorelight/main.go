// Command scorelight plays a score through the speaker while a terminal
// piano-roll view highlights the notes currently sounding
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"github.com/quaverlabs/scorelight/audio"
	"github.com/quaverlabs/scorelight/config"
	"github.com/quaverlabs/scorelight/core"
	"github.com/quaverlabs/scorelight/device"
	"github.com/quaverlabs/scorelight/engine"
	"github.com/quaverlabs/scorelight/render"
	"github.com/quaverlabs/scorelight/score"
	"github.com/quaverlabs/scorelight/status"
	"github.com/quaverlabs/scorelight/timeline"
)

func main() {
	configPath := flag.String("config", "scorelight.toml", "configuration file")
	scorePath := flag.String("score", "", "TOML score file (default: built-in demo)")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	if err := run(*configPath, *scorePath, *debug); err != nil {
		fmt.Fprintln(os.Stderr, "scorelight:", err)
		os.Exit(1)
	}
}

func run(configPath, scorePath string, debug bool) error {
	log, closeLog, err := setupLogger(debug)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	var sc *score.Score
	if scorePath != "" {
		if sc, err = score.LoadFile(scorePath); err != nil {
			return err
		}
	} else {
		sc = score.CMajorScale()
	}
	log.Info().Str("title", sc.Title).Int("notes", len(sc.Notes)).Int("bpm", sc.BPM).Msg("score loaded")

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	core.SetCleanup(screen.Fini)
	defer screen.Fini()

	profiler := device.NewProfiler(deviceConfig(cfg), log)
	signals := device.NewTerminalSignals(screen)
	profile := selectProfile(cfg, profiler, signals)

	player := audio.NewPlayer(sc, log)
	if err := player.Init(cfg.Audio.BufferMs, cfg.Audio.Volume); err != nil {
		return fmt.Errorf("audio init: %w", err)
	}
	defer player.Close()

	roll := render.NewPianoRoll(screen, sc, log)

	sched := engine.NewTickerScheduler(time.Second / 60)
	defer sched.Close()

	coord := engine.NewCoordinator(
		sched,
		engine.NewMonotonicTimeProvider(),
		player,
		roll,
		profile,
		engine.FrameBudgetConfig{
			Budget:        profile.Budget,
			DegradeStreak: cfg.Engine.DegradeStreak,
			RecoverStreak: cfg.Engine.RecoverStreak,
		},
		status.NewRegistry(),
		log,
	)

	ix := timeline.NewIndex()
	ix.Build(sc.Intervals())
	coord.SetIndex(ix)

	roll.SetRebuildListener(coord.NotifyRebuild)
	roll.Rebuild()

	coord.Start()
	defer coord.Stop()
	player.Play()

	for {
		switch ev := screen.PollEvent().(type) {
		case *tcell.EventKey:
			switch {
			case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q':
				player.Stop()
				return nil
			case ev.Rune() == ' ':
				togglePlayback(player)
			case ev.Rune() == 'r':
				player.Stop()
				player.Play()
			}
		case *tcell.EventResize:
			screen.Sync()
			// Structural rebuild; the coordinator re-applies highlights via
			// the rebuild listener. Resize is also the environment-change
			// signal that re-runs the profiler
			roll.Rebuild()
			if cfg.Engine.Profile == "auto" {
				coord.ApplyProfile(profiler.Detect(signals))
			}
		case nil:
			return nil // screen finalized
		}
	}
}

func togglePlayback(player *audio.Player) {
	switch player.Status() {
	case engine.StatusPlaying:
		player.Pause()
	default:
		player.Play()
	}
}

// deviceConfig maps the file config onto the profiler's cadence/budget table
func deviceConfig(cfg config.Config) device.Config {
	dc := device.DefaultConfig()
	dc.StandardBudget = cfg.Engine.StandardBudget()
	dc.LowPowerBudget = cfg.Engine.LowPowerBudget()
	return dc
}

// selectProfile honors a forced profile from config, detecting otherwise
func selectProfile(cfg config.Config, profiler *device.Profiler, signals device.Signals) device.Profile {
	dc := deviceConfig(cfg)
	switch cfg.Engine.Profile {
	case "standard":
		return device.Profile{TargetInterval: dc.StandardInterval, Budget: dc.StandardBudget}
	case "low-power":
		return device.Profile{LowPower: true, TargetInterval: dc.LowPowerInterval, Budget: dc.LowPowerBudget}
	default:
		return profiler.Detect(signals)
	}
}

// setupLogger writes to scorelight.log: the terminal belongs to tcell
func setupLogger(debug bool) (zerolog.Logger, func(), error) {
	level := zerolog.WarnLevel
	var out io.Writer = io.Discard
	closeFn := func() {}

	f, err := os.OpenFile("scorelight.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err == nil {
		out = f
		closeFn = func() { f.Close() }
	}
	if debug {
		level = zerolog.DebugLevel
	}

	log := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return log, closeFn, nil
}
