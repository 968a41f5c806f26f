package engine

import (
	"log/slog"
	"time"

	"github.com/tsukinami/otherworld/internal/eventbus"
)

// Offline catch-up thresholds. Shorter absences than the minimum are
// ignored; longer ones are credited up to the cap.
const (
	minOfflineSpan     = time.Minute
	defaultOfflineCap  = 24
	defaultSecsPerHour = 60.0
)

// OfflineRewardEvent is published once when a returning player is credited
// offline progression.
type OfflineRewardEvent struct {
	AwaySeconds float64  `json:"awaySeconds"`
	HoursPassed int      `json:"hoursPassed"`
	Before      GameTime `json:"before"`
	After       GameTime `json:"after"`
}

// TimeSystem converts simulated wall time into game hours and drives the
// calendar on the manager. It also handles offline catch-up when a save is
// loaded.
type TimeSystem struct {
	Lifecycle

	manager *Manager
	bus     *eventbus.Bus
	clock   Clock

	secsPerGameHour float64
	offlineCapHours int

	elapsed time.Duration
	subs    []*eventbus.Subscription

	// Offline credit computed at load but replayed on the first Update, so
	// every hourly listener has started before the hours fire.
	pendingHours int
	pendingAway  time.Duration
}

// NewTimeSystem creates a time system. secsPerGameHour and offlineCapHours
// fall back to defaults when non-positive.
func NewTimeSystem(manager *Manager, bus *eventbus.Bus, clock Clock, secsPerGameHour float64, offlineCapHours int) *TimeSystem {
	if secsPerGameHour <= 0 {
		secsPerGameHour = defaultSecsPerHour
	}
	if offlineCapHours <= 0 {
		offlineCapHours = defaultOfflineCap
	}
	return &TimeSystem{
		manager:         manager,
		bus:             bus,
		clock:           clock,
		secsPerGameHour: secsPerGameHour,
		offlineCapHours: offlineCapHours,
	}
}

func (t *TimeSystem) Name() string { return "time" }

func (t *TimeSystem) Initialize() error {
	if !t.BeginInit() {
		slog.Warn("time system already initialized")
		return nil
	}
	t.subs = append(t.subs, t.bus.Subscribe(eventbus.EventGameLoad, t.onGameLoad))
	return nil
}

func (t *TimeSystem) Start() error {
	ok, err := t.BeginStart()
	if err != nil {
		return err
	}
	if !ok {
		slog.Warn("time system already running")
	}
	return nil
}

func (t *TimeSystem) Stop() {
	if !t.BeginStop() {
		slog.Warn("time system not running")
	}
}

// Update accumulates simulated time and advances the calendar one hour at a
// time. Advancing hour by hour keeps the per-hour events (upkeep, task work,
// production) exact even if a single update spans several game hours.
func (t *TimeSystem) Update(dt time.Duration) {
	if !t.Running() {
		return
	}
	if t.pendingHours > 0 {
		t.replayOffline()
	}
	t.elapsed += dt

	hourSpan := time.Duration(t.secsPerGameHour * float64(time.Second))
	for t.elapsed >= hourSpan {
		t.elapsed -= hourSpan
		t.manager.SetGameTime(t.manager.GameTime().AddHours(1))
	}
}

func (t *TimeSystem) Destroy() {
	for _, s := range t.subs {
		s.Unsubscribe()
	}
	t.subs = nil
	t.elapsed = 0
	t.pendingHours = 0
	t.pendingAway = 0
	t.ResetLifecycle()
}

// onGameLoad computes the offline credit. The away span converts at the
// normal seconds-per-game-hour rate and is capped; fresh games and short
// absences are ignored. The credited hours are not advanced here because the
// other systems have not started yet and their hourly handlers would ignore
// the events; the replay runs on the first Update instead.
func (t *TimeSystem) onGameLoad(payload any) {
	ev, ok := payload.(GameLoadEvent)
	if !ok || ev.Fresh || ev.SavedAt.IsZero() {
		return
	}

	away := t.clock.Now().Sub(ev.SavedAt)
	if away < minOfflineSpan {
		return
	}

	hours := int(away.Seconds() / t.secsPerGameHour)
	if hours > t.offlineCapHours {
		hours = t.offlineCapHours
	}
	if hours <= 0 {
		return
	}

	t.pendingHours = hours
	t.pendingAway = away
	slog.Info("offline progression pending", "away", away.Round(time.Second), "hours", hours)
}

// replayOffline advances the credited hours one by one so production, task
// work and upkeep all observe each hour, then announces the reward.
func (t *TimeSystem) replayOffline() {
	hours := t.pendingHours
	away := t.pendingAway
	t.pendingHours = 0
	t.pendingAway = 0

	before := t.manager.GameTime()
	for i := 0; i < hours; i++ {
		t.manager.SetGameTime(t.manager.GameTime().AddHours(1))
	}
	after := t.manager.GameTime()

	t.bus.Publish(eventbus.EventOfflineReward, OfflineRewardEvent{
		AwaySeconds: away.Seconds(),
		HoursPassed: hours,
		Before:      before,
		After:       after,
	})
	slog.Info("offline progression credited",
		"away", away.Round(time.Second), "hours", hours, "gameTime", after.String())
}
