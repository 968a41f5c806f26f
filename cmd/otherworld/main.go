// Command otherworld runs the base management simulation.
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tsukinami/otherworld/internal/building"
	"github.com/tsukinami/otherworld/internal/catalog"
	"github.com/tsukinami/otherworld/internal/character"
	"github.com/tsukinami/otherworld/internal/config"
	"github.com/tsukinami/otherworld/internal/engine"
	"github.com/tsukinami/otherworld/internal/eventbus"
	"github.com/tsukinami/otherworld/internal/formula"
	"github.com/tsukinami/otherworld/internal/persistence"
	"github.com/tsukinami/otherworld/internal/team"
	"github.com/tsukinami/otherworld/internal/world"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// ── Save store ────────────────────────────────────────────────────
	store, err := persistence.Open(cfg.SavePath)
	if err != nil {
		slog.Error("failed to open save store", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("save store opened", "path", cfg.SavePath)

	// ── Designer data ─────────────────────────────────────────────────
	formulas := formula.NewEngine()
	cat, err := catalog.Load(formulas)
	if err != nil {
		slog.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}
	cat.ValidateFormulas()

	// ── World map ─────────────────────────────────────────────────────
	grid := world.Generate(world.GenConfig{
		Width:  cfg.World.Width,
		Height: cfg.World.Height,
		Seed:   cfg.World.Seed,
	})

	// ── Core wiring ───────────────────────────────────────────────────
	bus := eventbus.New()
	clock := engine.SystemClock{}

	resources := make([]engine.Resource, 0, len(cfg.InitialResources))
	for _, r := range cfg.InitialResources {
		resources = append(resources, engine.Resource{
			ID: r.ID, Name: r.Name, Amount: r.Amount, Max: r.Max,
		})
	}
	ledger := engine.NewLedger(bus, clock, resources)

	manager := engine.NewManager(bus, clock, store, ledger)
	characters := character.NewSystem(bus, ledger, character.NewFactory(cfg.CharacterSeed))
	teams := team.NewSystem(bus, ledger, cat, characters)
	buildings := building.NewSystem(bus, ledger, cat, grid, clock)

	manager.Register(engine.NewTimeSystem(manager, bus, clock, cfg.SecondsPerGameHour, cfg.OfflineCapHours))
	manager.Register(characters)
	manager.Register(teams)
	manager.Register(buildings)
	manager.Register(engine.NewStubSystem("cooking"))
	manager.Register(engine.NewStubSystem("combat"))
	manager.Register(engine.NewStubSystem("exploration"))

	// Track whether a save was applied; a fresh game gets starter recruits.
	fresh := false
	bus.Once(eventbus.EventGameLoad, func(p any) {
		if ev, ok := p.(engine.GameLoadEvent); ok {
			fresh = ev.Fresh
		}
	})

	if err := manager.Initialize(); err != nil {
		slog.Error("initialization failed", "error", err)
		os.Exit(1)
	}

	if fresh {
		for i := 0; i < cfg.StartingCharacters; i++ {
			characters.Spawn()
		}
	}

	if err := manager.Start(); err != nil {
		slog.Error("start failed", "error", err)
		os.Exit(1)
	}
	slog.Info("simulation running",
		"gameTime", manager.GameTime().String(),
		"characters", characters.Count(),
	)

	// ── Main loop ─────────────────────────────────────────────────────
	pump := time.NewTicker(engine.TargetFrameTime)
	defer pump.Stop()

	var autosave <-chan time.Time
	if cfg.AutosaveIntervalSec > 0 {
		t := time.NewTicker(time.Duration(cfg.AutosaveIntervalSec) * time.Second)
		defer t.Stop()
		autosave = t.C
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-pump.C:
			manager.Pump()

		case <-autosave:
			if err := manager.Save(engine.AutosaveSlot); err != nil {
				slog.Error("autosave failed", "error", err)
			}

		case s := <-sig:
			slog.Info("shutting down", "signal", s.String())
			manager.Stop() // writes the final autosave
			manager.Destroy()
			return
		}
	}
}
