package engine

import (
	"log/slog"
	"time"

	"github.com/tsukinami/otherworld/internal/eventbus"
)

// Resource is one named quantity in the ledger. Max of zero means unbounded.
type Resource struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Max    float64 `json:"max,omitempty"`
}

// auditLimit caps the state-change ring buffer; the oldest entries evict
// first.
const auditLimit = 1000

// StateChangeRecord is one audit-trail entry for a ledger mutation.
type StateChangeRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Target    string    `json:"target"`
	OldValue  float64   `json:"oldValue"`
	NewValue  float64   `json:"newValue"`
	Reason    string    `json:"reason"`
}

// ResourceGainEvent is the payload of eventbus.EventResourceGain.
type ResourceGainEvent struct {
	ResourceID string  `json:"resourceId"`
	Amount     float64 `json:"amount"` // actual delta applied (may be negative)
	Total      float64 `json:"total"`
	Reason     string  `json:"reason"`
}

// Ledger is the single source of truth for resource quantities. The set of
// resource ids is fixed at construction; every mutation goes through Gain or
// Spend and lands in the audit trail.
type Ledger struct {
	bus       *eventbus.Bus
	clock     Clock
	resources map[string]*Resource
	order     []string // fixed iteration order for snapshots
	history   []StateChangeRecord
}

// NewLedger creates a ledger seeded with the given resource definitions.
func NewLedger(bus *eventbus.Bus, clock Clock, defs []Resource) *Ledger {
	l := &Ledger{
		bus:       bus,
		clock:     clock,
		resources: make(map[string]*Resource, len(defs)),
	}
	for _, d := range defs {
		d := d
		if _, dup := l.resources[d.ID]; dup {
			slog.Warn("duplicate resource definition ignored", "id", d.ID)
			continue
		}
		l.resources[d.ID] = &d
		l.order = append(l.order, d.ID)
	}
	return l
}

// Gain adjusts a resource by amount (negative amounts spend). The new value
// is clamped to the resource maximum when bounded. A mutation that would
// drive the amount negative fails in full: no partial application. Returns
// false for unknown resources and underflows.
func (l *Ledger) Gain(id string, amount float64, reason string) bool {
	r, ok := l.resources[id]
	if !ok {
		slog.Warn("unknown resource", "id", id)
		return false
	}

	old := r.Amount
	next := old + amount
	if r.Max > 0 && next > r.Max {
		next = r.Max
	}
	if next < 0 {
		slog.Warn("insufficient resource", "id", id, "have", old, "want", -amount)
		return false
	}

	r.Amount = next
	delta := next - old
	if delta == 0 {
		return true
	}

	l.record("ledger", "resource."+id, old, next, reason)
	l.bus.Publish(eventbus.EventResourceGain, ResourceGainEvent{
		ResourceID: id,
		Amount:     delta,
		Total:      next,
		Reason:     reason,
	})
	return true
}

// Spend removes amount of a resource; sugar for Gain with a negated amount.
func (l *Ledger) Spend(id string, amount float64, reason string) bool {
	return l.Gain(id, -amount, reason)
}

// Has reports whether at least amount of the resource is available.
func (l *Ledger) Has(id string, amount float64) bool {
	r, ok := l.resources[id]
	return ok && r.Amount >= amount
}

// AmountOf returns the current amount, or zero for unknown resources.
func (l *Ledger) AmountOf(id string) float64 {
	if r, ok := l.resources[id]; ok {
		return r.Amount
	}
	return 0
}

// HasAll reports whether every requirement is individually satisfied.
func (l *Ledger) HasAll(requirements map[string]float64) bool {
	for id, amount := range requirements {
		if !l.Has(id, amount) {
			return false
		}
	}
	return true
}

// ConsumeAll spends every requirement, all-or-nothing: if any single entry
// is unmet the whole batch is rejected and nothing changes.
func (l *Ledger) ConsumeAll(requirements map[string]float64, reason string) bool {
	if !l.HasAll(requirements) {
		return false
	}
	for id, amount := range requirements {
		l.Spend(id, amount, reason)
	}
	return true
}

// Snapshot returns the resources in definition order, for persistence.
func (l *Ledger) Snapshot() []Resource {
	out := make([]Resource, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.resources[id])
	}
	return out
}

// Restore overwrites amounts from a save payload. Resources absent from the
// current definition set are dropped with a warning; the id set itself never
// grows at load time.
func (l *Ledger) Restore(saved []Resource) {
	for _, s := range saved {
		r, ok := l.resources[s.ID]
		if !ok {
			slog.Warn("saved resource no longer defined, dropped", "id", s.ID)
			continue
		}
		amount := s.Amount
		if amount < 0 {
			amount = 0
		}
		if r.Max > 0 && amount > r.Max {
			amount = r.Max
		}
		r.Amount = amount
	}
}

// History returns audit records, optionally filtered by target (e.g.
// "resource.wood"). Pass "" for everything.
func (l *Ledger) History(target string) []StateChangeRecord {
	if target == "" {
		out := make([]StateChangeRecord, len(l.history))
		copy(out, l.history)
		return out
	}
	var out []StateChangeRecord
	for _, rec := range l.history {
		if rec.Target == target {
			out = append(out, rec)
		}
	}
	return out
}

func (l *Ledger) record(actor, target string, oldValue, newValue float64, reason string) {
	l.history = append(l.history, StateChangeRecord{
		Timestamp: l.clock.Now(),
		Actor:     actor,
		Target:    target,
		OldValue:  oldValue,
		NewValue:  newValue,
		Reason:    reason,
	})
	if len(l.history) > auditLimit {
		l.history = l.history[len(l.history)-auditLimit:]
	}
}
