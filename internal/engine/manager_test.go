package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/tsukinami/otherworld/internal/eventbus"
)

// memStore keeps save records in memory.
type memStore struct {
	slots map[int]*SaveRecord
}

func newMemStore() *memStore { return &memStore{slots: make(map[int]*SaveRecord)} }

func (m *memStore) SaveGame(slot int, rec *SaveRecord) error {
	m.slots[slot] = rec
	return nil
}

func (m *memStore) LoadGame(slot int) (*SaveRecord, bool, error) {
	rec, ok := m.slots[slot]
	return rec, ok, nil
}

func (m *memStore) DeleteGame(slot int) error {
	delete(m.slots, slot)
	return nil
}

// probeSystem records lifecycle calls and counts updates.
type probeSystem struct {
	Lifecycle
	name    string
	calls   []string
	updates int
	initErr error
}

func (p *probeSystem) Name() string { return p.name }

func (p *probeSystem) Initialize() error {
	if p.initErr != nil {
		return p.initErr
	}
	p.BeginInit()
	p.calls = append(p.calls, "init")
	return nil
}

func (p *probeSystem) Start() error {
	if _, err := p.BeginStart(); err != nil {
		return err
	}
	p.calls = append(p.calls, "start")
	return nil
}

func (p *probeSystem) Stop() {
	p.BeginStop()
	p.calls = append(p.calls, "stop")
}

func (p *probeSystem) Update(time.Duration) { p.updates++ }

func (p *probeSystem) Destroy() {
	p.calls = append(p.calls, "destroy")
	p.ResetLifecycle()
}

func testManager(store SaveStore) (*Manager, *eventbus.Bus, *fakeClock) {
	bus := eventbus.New()
	clock := newFakeClock()
	ledger := NewLedger(bus, clock, []Resource{
		{ID: "wood", Name: "Wood", Amount: 100, Max: 2000},
	})
	return NewManager(bus, clock, store, ledger), bus, clock
}

func TestManagerLifecycleOrder(t *testing.T) {
	m, _, _ := testManager(nil)
	a := &probeSystem{name: "a"}
	b := &probeSystem{name: "b"}
	m.Register(a)
	m.Register(b)

	if err := m.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	m.Stop()
	m.Destroy()

	want := []string{"init", "start", "stop", "destroy"}
	for i, c := range a.calls {
		if c != want[i] {
			t.Errorf("system a call %d = %q, want %q", i, c, want[i])
		}
	}
}

func TestDestroyClearsRegistry(t *testing.T) {
	m, _, _ := testManager(nil)
	m.Register(&probeSystem{name: "a"})
	m.Initialize()
	m.Start()
	m.Destroy()

	if m.SystemByName("a") != nil {
		t.Error("system still resolvable after Destroy")
	}
	if len(m.systems) != 0 {
		t.Errorf("registry holds %d systems after Destroy, want 0", len(m.systems))
	}
}

func TestManagerStartBeforeInitialize(t *testing.T) {
	m, _, _ := testManager(nil)
	m.Register(&probeSystem{name: "a"})
	if err := m.Start(); err == nil {
		t.Error("Start before Initialize should fail")
	}
}

func TestManagerDuplicateRegistration(t *testing.T) {
	m, _, _ := testManager(nil)
	first := &probeSystem{name: "dup"}
	m.Register(first)
	m.Register(&probeSystem{name: "dup"})

	if got := m.SystemByName("dup"); got != System(first) {
		t.Error("duplicate registration should keep the first system")
	}
	if len(m.systems) != 1 {
		t.Errorf("registered %d systems, want 1", len(m.systems))
	}
}

func TestManagerInitializeAbortsOnError(t *testing.T) {
	m, _, _ := testManager(nil)
	bad := &probeSystem{name: "bad", initErr: ErrNotInitialized}
	after := &probeSystem{name: "after"}
	m.Register(&probeSystem{name: "before"})
	m.Register(bad)
	m.Register(after)

	if err := m.Initialize(); err == nil {
		t.Fatal("Initialize should surface the system error")
	}
	if len(after.calls) != 0 {
		t.Error("systems after the failing one must not initialize")
	}
}

func TestPumpFixedTimestep(t *testing.T) {
	m, _, clock := testManager(nil)
	sys := &probeSystem{name: "sim"}
	m.Register(sys)

	if err := m.Initialize(); err != nil {
		t.Fatal(err)
	}
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}

	// 50ms of wall time at a 60Hz step is exactly 3 updates.
	clock.Advance(50 * time.Millisecond)
	m.Pump()
	if sys.updates != 3 {
		t.Errorf("updates = %d, want 3", sys.updates)
	}

	// The leftover fraction carries into the next pump.
	clock.Advance(TargetFrameTime - (50*time.Millisecond - 3*TargetFrameTime))
	m.Pump()
	if sys.updates != 4 {
		t.Errorf("updates = %d, want 4 after carry", sys.updates)
	}
}

func TestPumpClampsLongHitch(t *testing.T) {
	m, _, clock := testManager(nil)
	sys := &probeSystem{name: "sim"}
	m.Register(sys)
	m.Initialize()
	m.Start()

	clock.Advance(10 * time.Second)
	m.Pump()

	maxSteps := int(MaxFrameDelta / TargetFrameTime)
	if sys.updates > maxSteps {
		t.Errorf("updates = %d, want at most %d after a hitch", sys.updates, maxSteps)
	}
}

func TestPauseGatesUpdates(t *testing.T) {
	m, bus, clock := testManager(nil)
	sys := &probeSystem{name: "sim"}
	m.Register(sys)
	m.Initialize()
	m.Start()

	var paused, resumed int
	bus.Subscribe(eventbus.EventGamePause, func(any) { paused++ })
	bus.Subscribe(eventbus.EventGameResume, func(any) { resumed++ })

	m.Pause()
	m.Pause() // second pause is a no-op
	clock.Advance(time.Second)
	m.Pump()
	if sys.updates != 0 {
		t.Errorf("updates while paused = %d, want 0", sys.updates)
	}

	m.Resume()
	clock.Advance(TargetFrameTime)
	m.Pump()
	if sys.updates != 1 {
		t.Errorf("updates after resume = %d, want 1 (paused span must not replay)", sys.updates)
	}
	if paused != 1 || resumed != 1 {
		t.Errorf("pause events = %d, resume events = %d, want 1 each", paused, resumed)
	}
}

func TestSetGameTimePublishesBoundariesOnce(t *testing.T) {
	m, bus, _ := testManager(nil)

	var hours, days, seasons int
	bus.Subscribe(eventbus.EventTimeHour, func(any) { hours++ })
	bus.Subscribe(eventbus.EventTimeDay, func(any) { days++ })
	bus.Subscribe(eventbus.EventTimeSeason, func(any) { seasons++ })

	// A 31 day jump crosses many boundaries; each event still fires once.
	m.SetGameTime(m.GameTime().AddHours(31 * HoursPerDay))
	if hours != 1 || days != 1 || seasons != 1 {
		t.Errorf("events = %d/%d/%d, want 1/1/1", hours, days, seasons)
	}

	// One plain hour fires only the hour event.
	m.SetGameTime(m.GameTime().AddHours(1))
	if hours != 2 || days != 1 || seasons != 1 {
		t.Errorf("events = %d/%d/%d, want 2/1/1", hours, days, seasons)
	}

	// Setting the same time again is silent.
	m.SetGameTime(m.GameTime())
	if hours != 2 {
		t.Errorf("no-op SetGameTime published an event")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newMemStore()
	m, bus, _ := testManager(store)
	m.Initialize()

	m.Ledger().Gain("wood", 400, "test")
	m.SetGameTime(GameTime{Year: 2, Season: SeasonSummer, Day: 10, Hour: 15})

	var saved int
	bus.Subscribe(eventbus.EventGameSave, func(any) { saved++ })
	if err := m.Save(AutosaveSlot); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved != 1 {
		t.Errorf("save events = %d, want 1", saved)
	}

	m2, _, _ := testManager(store)
	if err := m2.Initialize(); err != nil {
		t.Fatal(err)
	}
	if got := m2.GameTime(); got != (GameTime{Year: 2, Season: SeasonSummer, Day: 10, Hour: 15}) {
		t.Errorf("restored time = %+v", got)
	}
	if got := m2.Ledger().AmountOf("wood"); got != 500 {
		t.Errorf("restored wood = %v, want 500", got)
	}
}

func TestStopWritesFinalAutosave(t *testing.T) {
	store := newMemStore()
	m, _, _ := testManager(store)
	m.Initialize()
	m.Start()

	m.SetGameTime(GameTime{Year: 3, Season: SeasonAutumn, Day: 4, Hour: 8})
	m.Stop()

	rec, ok := store.slots[AutosaveSlot]
	if !ok {
		t.Fatal("Stop did not write the autosave slot")
	}
	if rec.GameTime != (GameTime{Year: 3, Season: SeasonAutumn, Day: 4, Hour: 8}) {
		t.Errorf("autosaved time = %+v", rec.GameTime)
	}
}

func TestVersionMismatchStartsFresh(t *testing.T) {
	store := newMemStore()
	store.slots[AutosaveSlot] = &SaveRecord{
		Version:  "1.0.0",
		GameTime: GameTime{Year: 9, Season: SeasonWinter, Day: 9, Hour: 9},
	}

	m, bus, _ := testManager(store)
	var fresh bool
	bus.Subscribe(eventbus.EventGameLoad, func(p any) {
		fresh = p.(GameLoadEvent).Fresh
	})
	if err := m.Initialize(); err != nil {
		t.Fatal(err)
	}
	if !fresh {
		t.Error("mismatched save version should start a fresh game")
	}
	if m.GameTime().Year == 9 {
		t.Error("stale record must not be applied")
	}
}

func TestSnapshotSectionsRoundTrip(t *testing.T) {
	store := newMemStore()
	m, _, _ := testManager(store)
	sys := &snapProbe{probeSystem: probeSystem{name: "snappy"}, state: "hello"}
	m.Register(sys)
	m.Initialize()
	if err := m.Save(AutosaveSlot); err != nil {
		t.Fatal(err)
	}

	m2, _, _ := testManager(store)
	sys2 := &snapProbe{probeSystem: probeSystem{name: "snappy"}}
	m2.Register(sys2)
	m2.Initialize()
	if sys2.state != "hello" {
		t.Errorf("restored state = %q, want %q", sys2.state, "hello")
	}
}

type snapProbe struct {
	probeSystem
	state string
}

func (s *snapProbe) SnapshotKey() string { return "snappy" }

func (s *snapProbe) Snapshot() (json.RawMessage, error) {
	return json.Marshal(s.state)
}

func (s *snapProbe) Restore(data json.RawMessage) error {
	return json.Unmarshal(data, &s.state)
}
