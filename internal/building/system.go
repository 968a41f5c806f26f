package building

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/tsukinami/otherworld/internal/catalog"
	"github.com/tsukinami/otherworld/internal/engine"
	"github.com/tsukinami/otherworld/internal/eventbus"
	"github.com/tsukinami/otherworld/internal/world"
)

// demolishRefund is the fraction of the current level's cost returned when
// a building is torn down.
const demolishRefund = 0.5

// BuildEvent is published when a structure is placed.
type BuildEvent struct {
	BuildingID string         `json:"buildingId"`
	Type       string         `json:"type"`
	Level      int            `json:"level"`
	Position   world.Position `json:"position"`
}

// UpgradeEvent is published when an upgrade starts (Completed false, Level
// is the target) and again when it finishes (Completed true).
type UpgradeEvent struct {
	BuildingID string `json:"buildingId"`
	Type       string `json:"type"`
	Level      int    `json:"level"`
	Completed  bool   `json:"completed"`
}

// DamageEvent is published on damage and repair; Delta is negative for
// damage.
type DamageEvent struct {
	BuildingID string `json:"buildingId"`
	Delta      int    `json:"delta"`
	Health     int    `json:"health"`
}

// DestroyedEvent is published once when health reaches zero.
type DestroyedEvent struct {
	BuildingID string `json:"buildingId"`
	Type       string `json:"type"`
}

// ProductionEvent is published when a producer accrues output.
type ProductionEvent struct {
	BuildingID string `json:"buildingId"`
	Resource   string `json:"resource"`
	Amount     int    `json:"amount"`
	Stored     int    `json:"stored"`
}

// CollectEvent is published when stored production is banked.
type CollectEvent struct {
	BuildingID string `json:"buildingId"`
	Resource   string `json:"resource"`
	Amount     int    `json:"amount"`
}

// DemolishEvent is published when a building is torn down.
type DemolishEvent struct {
	BuildingID string         `json:"buildingId"`
	Type       string         `json:"type"`
	Refund     map[string]int `json:"refund"`
}

// System owns every placed building. Production accrues per game hour,
// upgrades run on the wall clock, and placement is checked against the
// world grid.
type System struct {
	engine.Lifecycle

	bus     *eventbus.Bus
	ledger  *engine.Ledger
	catalog *catalog.Catalog
	grid    *world.Grid
	clock   engine.Clock

	buildings map[string]*Building
	order     []string
	occupied  map[world.Position]string // tile -> building id
	subs      []*eventbus.Subscription
}

// NewSystem wires the building system.
func NewSystem(bus *eventbus.Bus, ledger *engine.Ledger, cat *catalog.Catalog, grid *world.Grid, clock engine.Clock) *System {
	return &System{
		bus:       bus,
		ledger:    ledger,
		catalog:   cat,
		grid:      grid,
		clock:     clock,
		buildings: make(map[string]*Building),
		occupied:  make(map[world.Position]string),
	}
}

func (s *System) Name() string { return "building" }

func (s *System) Initialize() error {
	if !s.BeginInit() {
		slog.Warn("building system already initialized")
		return nil
	}
	s.subs = append(s.subs, s.bus.Subscribe(eventbus.EventTimeHour, func(any) { s.produceHour() }))
	return nil
}

func (s *System) Start() error {
	ok, err := s.BeginStart()
	if err != nil {
		return err
	}
	if !ok {
		slog.Warn("building system already running")
	}
	return nil
}

func (s *System) Stop() {
	if !s.BeginStop() {
		slog.Warn("building system not running")
	}
}

// Update finishes upgrades whose wall-clock duration has elapsed.
func (s *System) Update(time.Duration) {
	if !s.Running() {
		return
	}
	now := s.clock.Now()
	for _, id := range s.order {
		b := s.buildings[id]
		if b.upgradeDone(now) {
			s.finishUpgrade(b)
		}
	}
}

func (s *System) Destroy() {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
	s.buildings = make(map[string]*Building)
	s.order = nil
	s.occupied = make(map[world.Position]string)
	s.ResetLifecycle()
}

// Get returns a building by id, or nil.
func (s *System) Get(id string) *Building { return s.buildings[id] }

// All returns buildings in placement order.
func (s *System) All() []*Building {
	out := make([]*Building, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.buildings[id])
	}
	return out
}

// Build places a new structure at origin. The footprint must be buildable
// terrain, free of other structures, and the level 1 cost affordable.
func (s *System) Build(typeID string, origin world.Position) (*Building, engine.Result) {
	def := s.catalog.Building(typeID)
	if def == nil {
		return nil, engine.Failure("unknown building type")
	}
	if !s.grid.BuildableRect(origin, def.Width, def.Height) {
		return nil, engine.Failure("terrain at " + origin.String() + " is not buildable")
	}
	if !s.footprintFree(origin, def.Width, def.Height, "") {
		return nil, engine.Failure("site at " + origin.String() + " is occupied")
	}

	ld, err := s.catalog.LevelData(typeID, 1)
	if err != nil {
		return nil, engine.Failure(err.Error())
	}
	if !s.ledger.ConsumeAll(toFloat(ld.Cost), "build:"+typeID) {
		return nil, engine.Failure("not enough resources for " + def.Name)
	}

	b := &Building{
		ID:        uuid.NewString(),
		Type:      typeID,
		Level:     1,
		Position:  origin,
		Health:    ld.Health,
		CreatedAt: s.clock.Now(),
	}
	s.buildings[b.ID] = b
	s.order = append(s.order, b.ID)
	s.claim(b, def)

	s.bus.Publish(eventbus.EventBaseBuild, BuildEvent{BuildingID: b.ID, Type: typeID, Level: 1, Position: origin})
	slog.Info("building placed", "type", def.Name, "position", origin.String())
	return b, engine.Success()
}

// StartUpgrade begins the next level for a building. At most one upgrade
// runs per building; the cost is consumed up front.
func (s *System) StartUpgrade(id string) engine.Result {
	b, ok := s.buildings[id]
	if !ok {
		return engine.Failure("unknown building")
	}
	if b.Health == 0 {
		return engine.Failure("cannot upgrade a ruin")
	}
	if b.Upgrading() {
		return engine.Failure("already upgrading")
	}
	if !s.catalog.CanUpgrade(b.Type, b.Level) {
		return engine.Failure("already at maximum level")
	}

	next, err := s.catalog.LevelData(b.Type, b.Level+1)
	if err != nil {
		return engine.Failure(err.Error())
	}
	if !s.ledger.ConsumeAll(toFloat(next.Cost), "upgrade:"+b.Type) {
		return engine.Failure("not enough resources to upgrade")
	}

	b.Upgrade = &UpgradeState{
		TargetLevel: b.Level + 1,
		StartedAt:   s.clock.Now(),
		Duration:    next.UpgradeDuration,
	}
	s.bus.Publish(eventbus.EventBaseUpgrade, UpgradeEvent{BuildingID: b.ID, Type: b.Type, Level: b.Upgrade.TargetLevel})
	slog.Info("upgrade started", "type", b.Type, "to", b.Upgrade.TargetLevel, "duration", next.UpgradeDuration)
	return engine.Success()
}

func (s *System) finishUpgrade(b *Building) {
	b.Level = b.Upgrade.TargetLevel
	b.Upgrade = nil

	// Damage taken during the upgrade carries over; health only clamps down
	// if the new maximum is somehow lower.
	if ld, err := s.catalog.LevelData(b.Type, b.Level); err == nil && b.Health > ld.Health {
		b.Health = ld.Health
	}

	s.bus.Publish(eventbus.EventBaseUpgrade, UpgradeEvent{BuildingID: b.ID, Type: b.Type, Level: b.Level, Completed: true})
	slog.Info("upgrade complete", "type", b.Type, "level", b.Level)
}

// TakeDamage lowers a building's health, clamped at zero. Reaching zero
// publishes destruction once; the ruin stays on the map until repaired or
// demolished.
func (s *System) TakeDamage(id string, amount int) {
	b, ok := s.buildings[id]
	if !ok || amount <= 0 || b.Health == 0 {
		return
	}
	old := b.Health
	b.Health = clampHealth(old-amount, old)
	s.bus.Publish(eventbus.EventBuildingDamage, DamageEvent{BuildingID: id, Delta: b.Health - old, Health: b.Health})

	if b.Health == 0 {
		s.bus.Publish(eventbus.EventBuildingDestroyed, DestroyedEvent{BuildingID: id, Type: b.Type})
		slog.Info("building destroyed", "type", b.Type)
	}
}

// Repair restores health up to the level's maximum.
func (s *System) Repair(id string, amount int) {
	b, ok := s.buildings[id]
	if !ok || amount <= 0 {
		return
	}
	ld, err := s.catalog.LevelData(b.Type, b.Level)
	if err != nil {
		return
	}
	before := b.Health
	b.Health = clampHealth(b.Health+amount, ld.Health)
	if b.Health != before {
		s.bus.Publish(eventbus.EventBuildingRepair, DamageEvent{BuildingID: id, Delta: b.Health - before, Health: b.Health})
	}
}

// produceHour accrues one game hour of output on every intact producer,
// clamped to its storage cap. Only ruins stand idle; a building keeps
// producing at its current level while an upgrade runs. Buildings flagged
// for auto-collection bank their store immediately.
func (s *System) produceHour() {
	if !s.Running() {
		return
	}
	for _, id := range s.order {
		b := s.buildings[id]
		def := s.catalog.Building(b.Type)
		if def == nil || def.Production == nil || b.Health == 0 {
			continue
		}
		ld, err := s.catalog.LevelData(b.Type, b.Level)
		if err != nil {
			continue
		}
		gained := b.addStored(ld.ProductionRate, ld.MaxStorage)
		if gained > 0 {
			s.bus.Publish(eventbus.EventBuildingProduction, ProductionEvent{
				BuildingID: id, Resource: def.Production.Resource, Amount: gained, Stored: b.Stored,
			})
		}
		if b.AutoCollect && b.Stored > 0 {
			s.Collect(id)
		}
	}
}

// SetAutoCollect toggles the hourly auto-collection sweep for a building.
func (s *System) SetAutoCollect(id string, on bool) error {
	b, ok := s.buildings[id]
	if !ok {
		return fmt.Errorf("unknown building %q", id)
	}
	b.AutoCollect = on
	return nil
}

// Collect banks a building's stored production into the ledger and empties
// the store. Returns the amount banked; zero when there was nothing.
func (s *System) Collect(id string) int {
	b, ok := s.buildings[id]
	if !ok {
		return 0
	}
	def := s.catalog.Building(b.Type)
	if def == nil || def.Production == nil {
		return 0
	}

	amount := b.collect()
	if amount == 0 {
		return 0
	}
	s.ledger.Gain(def.Production.Resource, float64(amount), "collect:"+b.Type)
	s.bus.Publish(eventbus.EventBuildingCollect, CollectEvent{
		BuildingID: id, Resource: def.Production.Resource, Amount: amount,
	})
	return amount
}

// Demolish removes a building, refunding half its current level's cost and
// freeing its tiles. Uncollected production is lost.
func (s *System) Demolish(id string) engine.Result {
	b, ok := s.buildings[id]
	if !ok {
		return engine.Failure("unknown building")
	}

	refund := make(map[string]int)
	if ld, err := s.catalog.LevelData(b.Type, b.Level); err == nil {
		for res, cost := range ld.Cost {
			back := int(math.Floor(float64(cost) * demolishRefund))
			if back > 0 {
				refund[res] = back
				s.ledger.Gain(res, float64(back), "demolish:"+b.Type)
			}
		}
	}

	s.release(b)
	delete(s.buildings, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	s.bus.Publish(eventbus.EventBuildingDemolish, DemolishEvent{BuildingID: id, Type: b.Type, Refund: refund})
	slog.Info("building demolished", "type", b.Type, "refund", refund)
	return engine.Success()
}

// TotalEffects sums every intact building's effect values by name.
// Percentage effects add up; capacities likewise.
func (s *System) TotalEffects() map[string]int {
	totals := make(map[string]int)
	for _, id := range s.order {
		b := s.buildings[id]
		if b.Health == 0 {
			continue
		}
		ld, err := s.catalog.LevelData(b.Type, b.Level)
		if err != nil {
			continue
		}
		for name, v := range ld.Effects {
			totals[name] += v
		}
	}
	return totals
}

// SpeedMultiplier converts an accumulated percentage effect into a
// multiplier, e.g. 30 percent of cookingSpeedPct becomes 1.3.
func (s *System) SpeedMultiplier(effect string) float64 {
	return 1 + float64(s.TotalEffects()[effect])/100
}

func (s *System) footprintFree(origin world.Position, w, h int, ignore string) bool {
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			p := world.Position{X: origin.X + dx, Y: origin.Y + dy}
			if owner, taken := s.occupied[p]; taken && owner != ignore {
				return false
			}
		}
	}
	return true
}

func (s *System) claim(b *Building, def *catalog.BuildingDef) {
	for dy := 0; dy < def.Height; dy++ {
		for dx := 0; dx < def.Width; dx++ {
			s.occupied[world.Position{X: b.Position.X + dx, Y: b.Position.Y + dy}] = b.ID
		}
	}
}

func (s *System) release(b *Building) {
	for p, owner := range s.occupied {
		if owner == b.ID {
			delete(s.occupied, p)
		}
	}
}

func toFloat(cost map[string]int) map[string]float64 {
	out := make(map[string]float64, len(cost))
	for k, v := range cost {
		out[k] = float64(v)
	}
	return out
}

// SnapshotKey names this system's save-file section.
func (s *System) SnapshotKey() string { return "buildings" }

// Snapshot serializes buildings in placement order.
func (s *System) Snapshot() (json.RawMessage, error) {
	return json.Marshal(s.All())
}

// Restore replaces the registry from a save and rebuilds tile occupancy.
// Buildings whose type left the catalog are dropped with a warning.
func (s *System) Restore(data json.RawMessage) error {
	var saved []*Building
	if err := json.Unmarshal(data, &saved); err != nil {
		return err
	}

	s.buildings = make(map[string]*Building, len(saved))
	s.order = s.order[:0]
	s.occupied = make(map[world.Position]string)
	for _, b := range saved {
		def := s.catalog.Building(b.Type)
		if def == nil {
			slog.Warn("saved building type no longer defined, dropped", "type", b.Type)
			continue
		}
		s.buildings[b.ID] = b
		s.order = append(s.order, b.ID)
		s.claim(b, def)
	}
	return nil
}
