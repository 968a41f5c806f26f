// Package building manages base structures: placement on the world grid,
// level upgrades, passive production, damage and demolition.
package building

import (
	"time"

	"github.com/tsukinami/otherworld/internal/world"
)

// UpgradeState is an in-flight level upgrade. A building runs at most one.
type UpgradeState struct {
	TargetLevel int           `json:"targetLevel"`
	StartedAt   time.Time     `json:"startedAt"`
	Duration    time.Duration `json:"duration"`
}

// Building is one placed structure. AutoCollect banks production into the
// ledger every hour instead of accumulating it for manual collection.
type Building struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Level       int            `json:"level"`
	Position    world.Position `json:"position"`
	Health      int            `json:"health"`
	Stored      int            `json:"stored,omitempty"` // produced units awaiting collection
	Upgrade     *UpgradeState  `json:"upgrade,omitempty"`
	AutoCollect bool           `json:"autoCollect,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Upgrading reports whether an upgrade is in flight.
func (b *Building) Upgrading() bool { return b.Upgrade != nil }

// UpgradeProgress returns the completed fraction of the running upgrade in
// [0, 1], or 0 when idle.
func (b *Building) UpgradeProgress(now time.Time) float64 {
	if b.Upgrade == nil {
		return 0
	}
	if b.Upgrade.Duration <= 0 {
		return 1
	}
	frac := float64(now.Sub(b.Upgrade.StartedAt)) / float64(b.Upgrade.Duration)
	if frac < 0 {
		return 0
	}
	if frac > 1 {
		return 1
	}
	return frac
}

// upgradeDone reports whether the running upgrade has served its duration.
func (b *Building) upgradeDone(now time.Time) bool {
	return b.Upgrade != nil && !now.Before(b.Upgrade.StartedAt.Add(b.Upgrade.Duration))
}

// clampHealth bounds health to [0, max] and returns the clamped value.
func clampHealth(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// addStored accrues produced units, clamped to the storage cap.
func (b *Building) addStored(amount, cap int) int {
	before := b.Stored
	b.Stored += amount
	if b.Stored > cap {
		b.Stored = cap
	}
	return b.Stored - before
}

// collect empties the production store and returns what was taken.
func (b *Building) collect() int {
	taken := b.Stored
	b.Stored = 0
	return taken
}
