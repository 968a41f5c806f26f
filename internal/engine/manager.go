package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/tsukinami/otherworld/internal/eventbus"
)

// Frame pacing. Updates run on a fixed timestep; wall-clock deltas feed an
// accumulator and a hitch longer than MaxFrameDelta is swallowed rather than
// replayed as a burst of catch-up frames.
const (
	TargetFrameTime = time.Second / 60
	MaxFrameDelta   = 100 * time.Millisecond
)

// AutosaveSlot is the save slot written by the background autosave.
const AutosaveSlot = 0

// TimeEvent is the payload of the time:hour, time:day and time:season
// events.
type TimeEvent struct {
	Previous GameTime `json:"previous"`
	Current  GameTime `json:"current"`
}

// GameLoadEvent is published once after Initialize. Fresh is true when no
// usable save existed and the game starts from scratch.
type GameLoadEvent struct {
	Fresh    bool      `json:"fresh"`
	SavedAt  time.Time `json:"savedAt"`
	GameTime GameTime  `json:"gameTime"`
}

// GameSaveEvent is published after a successful save.
type GameSaveEvent struct {
	Slot    int       `json:"slot"`
	SavedAt time.Time `json:"savedAt"`
}

// Manager owns the system registry, the game clock and the update loop. It
// is driven from a single goroutine: Register everything, Initialize, Start,
// then call Pump at the caller's cadence.
type Manager struct {
	Lifecycle

	bus    *eventbus.Bus
	clock  Clock
	store  SaveStore
	ledger *Ledger

	systems []System
	byName  map[string]System

	gameTime    GameTime
	paused      bool
	lastPump    time.Time
	accumulator time.Duration
}

// NewManager wires a manager. The store may be nil, in which case saves and
// loads are skipped and every run is a fresh game.
func NewManager(bus *eventbus.Bus, clock Clock, store SaveStore, ledger *Ledger) *Manager {
	return &Manager{
		bus:      bus,
		clock:    clock,
		store:    store,
		ledger:   ledger,
		byName:   make(map[string]System),
		gameTime: GameTime{Year: 1, Season: SeasonSpring, Day: 1, Hour: 6},
	}
}

// Register adds a system to the update order. Registering a second system
// under an existing name is ignored with a warning; the first wins.
func (m *Manager) Register(s System) {
	if _, dup := m.byName[s.Name()]; dup {
		slog.Warn("system already registered", "system", s.Name())
		return
	}
	m.byName[s.Name()] = s
	m.systems = append(m.systems, s)
}

// SystemByName returns a registered system, or nil.
func (m *Manager) SystemByName(name string) System { return m.byName[name] }

// Ledger returns the shared resource ledger.
func (m *Manager) Ledger() *Ledger { return m.ledger }

// Bus returns the shared event bus.
func (m *Manager) Bus() *eventbus.Bus { return m.bus }

// GameTime returns the current calendar position.
func (m *Manager) GameTime() GameTime { return m.gameTime }

// Initialize initializes every system in registration order, then applies
// the autosave if one exists, then announces game:load. Systems subscribe to
// events during their own Initialize, so by the time game:load fires every
// listener is in place. The first system error aborts the whole sequence.
func (m *Manager) Initialize() error {
	if !m.BeginInit() {
		slog.Warn("manager already initialized")
		return nil
	}

	for _, s := range m.systems {
		if err := s.Initialize(); err != nil {
			return fmt.Errorf("initialize %s: %w", s.Name(), err)
		}
	}

	rec := m.loadAutosave()
	if rec != nil {
		m.applyRecord(rec)
		m.bus.Publish(eventbus.EventGameLoad, GameLoadEvent{
			SavedAt:  rec.SavedAt,
			GameTime: m.gameTime,
		})
		slog.Info("game loaded", "savedAt", rec.SavedAt, "gameTime", m.gameTime.String())
		return nil
	}

	m.bus.Publish(eventbus.EventGameLoad, GameLoadEvent{Fresh: true, GameTime: m.gameTime})
	slog.Info("starting fresh game", "gameTime", m.gameTime.String())
	return nil
}

func (m *Manager) loadAutosave() *SaveRecord {
	if m.store == nil {
		return nil
	}
	rec, ok, err := m.store.LoadGame(AutosaveSlot)
	if err != nil {
		slog.Warn("load failed, starting fresh", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	if rec.Version != SaveVersion {
		slog.Warn("save version mismatch, starting fresh",
			"saved", rec.Version, "current", SaveVersion)
		return nil
	}
	return rec
}

func (m *Manager) applyRecord(rec *SaveRecord) {
	m.gameTime = rec.GameTime
	m.ledger.Restore(rec.Resources)

	for _, s := range m.systems {
		snap, ok := s.(Snapshotter)
		if !ok {
			continue
		}
		data, present := rec.Sections[snap.SnapshotKey()]
		if !present {
			continue
		}
		if err := snap.Restore(data); err != nil {
			slog.Warn("restore failed for section", "section", snap.SnapshotKey(), "error", err)
		}
	}
}

// Start starts every system in registration order.
func (m *Manager) Start() error {
	ok, err := m.BeginStart()
	if err != nil {
		return fmt.Errorf("start manager: %w", err)
	}
	if !ok {
		slog.Warn("manager already running")
		return nil
	}

	for _, s := range m.systems {
		if err := s.Start(); err != nil {
			return fmt.Errorf("start %s: %w", s.Name(), err)
		}
	}
	m.lastPump = m.clock.Now()
	return nil
}

// Stop writes a final autosave, then stops every system in reverse
// registration order.
func (m *Manager) Stop() {
	if !m.BeginStop() {
		slog.Warn("manager not running")
		return
	}
	if m.store != nil {
		if err := m.Save(AutosaveSlot); err != nil {
			slog.Warn("final save failed", "error", err)
		}
	}
	for i := len(m.systems) - 1; i >= 0; i-- {
		m.systems[i].Stop()
	}
}

// Destroy tears everything down and clears the registry. The manager cannot
// be reused afterwards.
func (m *Manager) Destroy() {
	if m.Running() {
		m.Stop()
	}
	for i := len(m.systems) - 1; i >= 0; i-- {
		m.systems[i].Destroy()
	}
	m.systems = nil
	m.byName = make(map[string]System)
	m.ResetLifecycle()
}

// Pause suspends updates. Pump becomes a no-op until Resume.
func (m *Manager) Pause() {
	if m.paused {
		return
	}
	m.paused = true
	m.bus.Publish(eventbus.EventGamePause, m.gameTime)
	slog.Info("game paused")
}

// Resume restarts updates. The pump reference time resets so the paused
// span is not replayed as elapsed time.
func (m *Manager) Resume() {
	if !m.paused {
		return
	}
	m.paused = false
	m.lastPump = m.clock.Now()
	m.accumulator = 0
	m.bus.Publish(eventbus.EventGameResume, m.gameTime)
	slog.Info("game resumed")
}

// Paused reports whether updates are suspended.
func (m *Manager) Paused() bool { return m.paused }

// Pump advances the simulation by the wall time elapsed since the previous
// call, delivered to systems as zero or more fixed-size Update steps.
func (m *Manager) Pump() {
	if !m.Running() || m.paused {
		return
	}

	now := m.clock.Now()
	delta := now.Sub(m.lastPump)
	m.lastPump = now
	if delta < 0 {
		return
	}
	if delta > MaxFrameDelta {
		delta = MaxFrameDelta
	}

	m.accumulator += delta
	for m.accumulator >= TargetFrameTime {
		m.accumulator -= TargetFrameTime
		for _, s := range m.systems {
			s.Update(TargetFrameTime)
		}
	}
}

// SetGameTime moves the calendar and publishes the boundary events the move
// crossed. Each of time:hour, time:day and time:season fires at most once
// per call no matter how many boundaries the jump spans.
func (m *Manager) SetGameTime(next GameTime) {
	prev := m.gameTime
	if next == prev {
		return
	}
	m.gameTime = next

	ev := TimeEvent{Previous: prev, Current: next}
	if next.TotalHours() != prev.TotalHours() {
		m.bus.Publish(eventbus.EventTimeHour, ev)
	}
	if next.Day != prev.Day || next.Season != prev.Season || next.Year != prev.Year {
		m.bus.Publish(eventbus.EventTimeDay, ev)
	}
	if next.Season != prev.Season || next.Year != prev.Year {
		m.bus.Publish(eventbus.EventTimeSeason, ev)
	}
}

// Save collects a full snapshot and writes it to the given slot.
func (m *Manager) Save(slot int) error {
	if m.store == nil {
		return fmt.Errorf("save: no store configured")
	}

	rec := &SaveRecord{
		Version:   SaveVersion,
		SavedAt:   m.clock.Now(),
		GameTime:  m.gameTime,
		Resources: m.ledger.Snapshot(),
		Sections:  make(map[string]json.RawMessage),
	}
	for _, s := range m.systems {
		snap, ok := s.(Snapshotter)
		if !ok {
			continue
		}
		data, err := snap.Snapshot()
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", snap.SnapshotKey(), err)
		}
		rec.Sections[snap.SnapshotKey()] = data
	}

	if err := m.store.SaveGame(slot, rec); err != nil {
		return fmt.Errorf("save slot %d: %w", slot, err)
	}
	m.bus.Publish(eventbus.EventGameSave, GameSaveEvent{Slot: slot, SavedAt: rec.SavedAt})
	slog.Info("game saved", "slot", slot, "gameTime", m.gameTime.String())
	return nil
}
