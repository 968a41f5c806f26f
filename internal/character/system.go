package character

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/tsukinami/otherworld/internal/engine"
	"github.com/tsukinami/otherworld/internal/eventbus"
)

// Hourly consumption per living character, drawn from the shared ledger.
const (
	foodPerHour  = 1.0
	waterPerHour = 1.0
)

// System owns the character roster. Each game hour it feeds everyone from
// the ledger and runs their upkeep; the dead leave the roster.
type System struct {
	engine.Lifecycle

	bus     *eventbus.Bus
	ledger  *engine.Ledger
	factory *Factory

	roster map[string]*Character
	order  []string
	subs   []*eventbus.Subscription
}

// NewSystem wires the character system.
func NewSystem(bus *eventbus.Bus, ledger *engine.Ledger, factory *Factory) *System {
	return &System{
		bus:     bus,
		ledger:  ledger,
		factory: factory,
		roster:  make(map[string]*Character),
	}
}

func (s *System) Name() string { return "character" }

func (s *System) Initialize() error {
	if !s.BeginInit() {
		slog.Warn("character system already initialized")
		return nil
	}
	s.subs = append(s.subs, s.bus.Subscribe(eventbus.EventTimeHour, func(any) { s.tickHour() }))
	return nil
}

func (s *System) Start() error {
	ok, err := s.BeginStart()
	if err != nil {
		return err
	}
	if !ok {
		slog.Warn("character system already running")
	}
	return nil
}

func (s *System) Stop() {
	if !s.BeginStop() {
		slog.Warn("character system not running")
	}
}

func (s *System) Update(time.Duration) {}

func (s *System) Destroy() {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
	s.roster = make(map[string]*Character)
	s.order = nil
	s.ResetLifecycle()
}

// Spawn mints a recruit, adds them to the roster and announces the arrival.
func (s *System) Spawn() *Character {
	c := s.factory.NewCharacter()
	c.AttachBus(s.bus)
	s.roster[c.ID] = c
	s.order = append(s.order, c.ID)

	s.bus.Publish(eventbus.EventCharacterSpawn, SpawnEvent{
		CharacterID: c.ID, Name: c.Name, Club: c.Club,
	})
	slog.Info("character joined", "name", c.Name, "club", c.Club)
	return c
}

// Get returns a character by id, or nil.
func (s *System) Get(id string) *Character { return s.roster[id] }

// All returns living characters in arrival order.
func (s *System) All() []*Character {
	out := make([]*Character, 0, len(s.order))
	for _, id := range s.order {
		if c, ok := s.roster[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Count returns the roster size.
func (s *System) Count() int { return len(s.roster) }

// tickHour feeds and waters each character from the ledger, then runs their
// upkeep. Characters the tick kills are removed afterwards so the roster is
// stable during iteration.
func (s *System) tickHour() {
	if !s.Running() {
		return
	}

	var dead []string
	for _, id := range s.order {
		c, ok := s.roster[id]
		if !ok {
			continue
		}
		fed := s.ledger.Spend("food", foodPerHour, "upkeep:"+c.Name)
		watered := s.ledger.Spend("water", waterPerHour, "upkeep:"+c.Name)
		if c.TickHour(fed, watered) {
			dead = append(dead, id)
		}
	}
	for _, id := range dead {
		s.remove(id)
	}
}

func (s *System) remove(id string) {
	delete(s.roster, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// SnapshotKey names this system's save-file section.
func (s *System) SnapshotKey() string { return "characters" }

// Snapshot serializes the roster in arrival order.
func (s *System) Snapshot() (json.RawMessage, error) {
	return json.Marshal(s.All())
}

// Restore replaces the roster with the saved one.
func (s *System) Restore(data json.RawMessage) error {
	var saved []*Character
	if err := json.Unmarshal(data, &saved); err != nil {
		return err
	}
	s.roster = make(map[string]*Character, len(saved))
	s.order = s.order[:0]
	for _, c := range saved {
		c.AttachBus(s.bus)
		s.roster[c.ID] = c
		s.order = append(s.order, c.ID)
	}
	return nil
}
