package team

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/tsukinami/otherworld/internal/catalog"
	"github.com/tsukinami/otherworld/internal/character"
	"github.com/tsukinami/otherworld/internal/engine"
	"github.com/tsukinami/otherworld/internal/eventbus"
)

// TaskStartEvent is published when a crew begins a task.
type TaskStartEvent struct {
	TeamID string `json:"teamId"`
	TaskID string `json:"taskId"`
	Hours  int    `json:"hours"`
}

// TaskCompleteEvent is published when a task finishes and pays out.
type TaskCompleteEvent struct {
	TeamID     string         `json:"teamId"`
	TeamName   string         `json:"teamName"`
	TaskID     string         `json:"taskId"`
	TaskName   string         `json:"taskName"`
	Efficiency float64        `json:"efficiency"`
	Rewards    map[string]int `json:"rewards"`
}

// System manages crews and drives their tasks one game hour at a time.
type System struct {
	engine.Lifecycle

	bus        *eventbus.Bus
	ledger     *engine.Ledger
	catalog    *catalog.Catalog
	characters *character.System

	teams      map[string]*Team
	order      []string
	membership map[string]string // character id -> team id
	active     map[string]*ActiveTask
	subs       []*eventbus.Subscription
}

// NewSystem wires the team system.
func NewSystem(bus *eventbus.Bus, ledger *engine.Ledger, cat *catalog.Catalog, chars *character.System) *System {
	return &System{
		bus:        bus,
		ledger:     ledger,
		catalog:    cat,
		characters: chars,
		teams:      make(map[string]*Team),
		membership: make(map[string]string),
		active:     make(map[string]*ActiveTask),
	}
}

func (s *System) Name() string { return "team" }

func (s *System) Initialize() error {
	if !s.BeginInit() {
		slog.Warn("team system already initialized")
		return nil
	}
	s.subs = append(s.subs,
		s.bus.Subscribe(eventbus.EventTimeHour, func(any) { s.processWork() }),
		s.bus.Subscribe(eventbus.EventCharacterDeath, s.onCharacterDeath),
	)
	return nil
}

func (s *System) Start() error {
	ok, err := s.BeginStart()
	if err != nil {
		return err
	}
	if !ok {
		slog.Warn("team system already running")
	}
	return nil
}

func (s *System) Stop() {
	if !s.BeginStop() {
		slog.Warn("team system not running")
	}
}

func (s *System) Update(time.Duration) {}

func (s *System) Destroy() {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
	s.teams = make(map[string]*Team)
	s.order = nil
	s.membership = make(map[string]string)
	s.active = make(map[string]*ActiveTask)
	s.ResetLifecycle()
}

// CreateTeam registers an empty crew under the given name.
func (s *System) CreateTeam(name string) (*Team, error) {
	if name == "" {
		return nil, fmt.Errorf("team name must not be empty")
	}
	t := &Team{ID: uuid.NewString(), Name: name}
	s.teams[t.ID] = t
	s.order = append(s.order, t.ID)
	slog.Info("team created", "team", name)
	return t, nil
}

// Get returns a team by id, or nil.
func (s *System) Get(id string) *Team { return s.teams[id] }

// All returns teams in creation order.
func (s *System) All() []*Team {
	out := make([]*Team, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.teams[id])
	}
	return out
}

// TeamOf returns the team a character belongs to, or "".
func (s *System) TeamOf(characterID string) string { return s.membership[characterID] }

// ActiveTaskOf returns the team's in-flight task, or nil.
func (s *System) ActiveTaskOf(teamID string) *ActiveTask { return s.active[teamID] }

// Disband removes a team, releasing its members. An in-flight task is
// abandoned without payout.
func (s *System) Disband(teamID string) error {
	t, ok := s.teams[teamID]
	if !ok {
		return fmt.Errorf("unknown team %q", teamID)
	}
	for _, m := range t.MemberIDs {
		delete(s.membership, m)
	}
	delete(s.active, teamID)
	delete(s.teams, teamID)
	for i, id := range s.order {
		if id == teamID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	slog.Info("team disbanded", "team", t.Name)
	return nil
}

// AddMember places a character on a team. Membership is exclusive: a
// character already on another team is moved, not duplicated.
func (s *System) AddMember(teamID, characterID string) error {
	t, ok := s.teams[teamID]
	if !ok {
		return fmt.Errorf("unknown team %q", teamID)
	}
	c := s.characters.Get(characterID)
	if c == nil {
		return fmt.Errorf("unknown character %q", characterID)
	}
	if current, taken := s.membership[characterID]; taken {
		if current == teamID {
			return nil
		}
		if prev := s.teams[current]; prev != nil {
			prev.removeMember(characterID)
			slog.Info("character moved between teams", "character", c.Name, "from", prev.Name, "to", t.Name)
		}
	}

	t.MemberIDs = append(t.MemberIDs, characterID)
	s.membership[characterID] = teamID
	return nil
}

// RemoveMember takes a character off a team.
func (s *System) RemoveMember(teamID, characterID string) error {
	t, ok := s.teams[teamID]
	if !ok {
		return fmt.Errorf("unknown team %q", teamID)
	}
	if !t.removeMember(characterID) {
		return fmt.Errorf("character %q is not on team %s", characterID, t.Name)
	}
	delete(s.membership, characterID)
	return nil
}

// Assign starts a task for a team. The task's resource requirements are
// consumed up front, all or nothing; a team runs at most one task at a time.
func (s *System) Assign(teamID, taskID string) engine.Result {
	t, ok := s.teams[teamID]
	if !ok {
		return engine.Failure("unknown team")
	}
	task := s.catalog.Task(taskID)
	if task == nil {
		return engine.Failure("unknown task")
	}
	if s.active[teamID] != nil {
		return engine.Failure(t.Name + " is already working")
	}
	if t.Size() < task.MinTeamSize {
		return engine.Failure(fmt.Sprintf("%s needs at least %d members", task.Name, task.MinTeamSize))
	}
	if t.Size() > task.MaxTeamSize {
		return engine.Failure(fmt.Sprintf("%s allows at most %d members", task.Name, task.MaxTeamSize))
	}
	if !s.ledger.ConsumeAll(task.RequiredResources, "task:"+task.ID) {
		return engine.Failure("not enough resources for " + task.Name)
	}

	s.active[teamID] = &ActiveTask{TaskID: taskID, RemainingHours: task.DurationHours}
	s.bus.Publish(eventbus.EventTaskStart, TaskStartEvent{
		TeamID: teamID, TaskID: taskID, Hours: task.DurationHours,
	})
	slog.Info("task started", "team", t.Name, "task", task.Name, "hours", task.DurationHours)
	return engine.Success()
}

// StopTask abandons a team's task. Consumed resources are not refunded.
func (s *System) StopTask(teamID string) error {
	if _, ok := s.teams[teamID]; !ok {
		return fmt.Errorf("unknown team %q", teamID)
	}
	if s.active[teamID] == nil {
		return fmt.Errorf("team has no active task")
	}
	delete(s.active, teamID)
	return nil
}

// processWork advances every active task by one game hour and completes the
// ones that reach zero.
func (s *System) processWork() {
	if !s.Running() {
		return
	}
	for _, teamID := range s.order {
		at, ok := s.active[teamID]
		if !ok {
			continue
		}
		at.RemainingHours--
		if at.RemainingHours <= 0 {
			s.complete(teamID, at)
		}
	}
}

// complete pays out a finished task: resource rewards scale with crew
// efficiency, and each member earns an equal share of the experience.
func (s *System) complete(teamID string, at *ActiveTask) {
	delete(s.active, teamID)

	t := s.teams[teamID]
	task := s.catalog.Task(at.TaskID)
	if t == nil || task == nil {
		return
	}

	members := s.livingMembers(t)
	eff := Efficiency(members, task)

	rewards := make(map[string]int, len(task.Rewards))
	for res, base := range task.Rewards {
		amount := int(math.Floor(float64(base) * eff))
		rewards[res] = amount
		if amount > 0 {
			s.ledger.Gain(res, float64(amount), "task:"+task.ID)
		}
	}

	if len(members) > 0 && task.ExperienceBase > 0 {
		share := int(math.Floor(float64(task.ExperienceBase) * eff / float64(len(members))))
		for _, m := range members {
			m.AddSkillExperience(task.Skill, share)
		}
	}

	s.bus.Publish(eventbus.EventTaskComplete, TaskCompleteEvent{
		TeamID: teamID, TeamName: t.Name, TaskID: at.TaskID, TaskName: task.Name,
		Efficiency: eff, Rewards: rewards,
	})
	slog.Info("task complete", "team", t.Name, "task", task.Name, "efficiency", fmt.Sprintf("%.2f", eff))
}

func (s *System) livingMembers(t *Team) []*character.Character {
	out := make([]*character.Character, 0, len(t.MemberIDs))
	for _, id := range t.MemberIDs {
		if c := s.characters.Get(id); c != nil && c.Alive {
			out = append(out, c)
		}
	}
	return out
}

// onCharacterDeath drops the dead from whatever team they were on.
func (s *System) onCharacterDeath(payload any) {
	ev, ok := payload.(character.DeathEvent)
	if !ok {
		return
	}
	teamID, onTeam := s.membership[ev.CharacterID]
	if !onTeam {
		return
	}
	if t := s.teams[teamID]; t != nil {
		t.removeMember(ev.CharacterID)
	}
	delete(s.membership, ev.CharacterID)
}

// snapshot is the persisted shape of the team system.
type snapshot struct {
	Teams  []*Team                `json:"teams"`
	Active map[string]*ActiveTask `json:"active,omitempty"`
}

// SnapshotKey names this system's save-file section.
func (s *System) SnapshotKey() string { return "teams" }

// Snapshot serializes teams and in-flight tasks.
func (s *System) Snapshot() (json.RawMessage, error) {
	snap := snapshot{Active: s.active}
	for _, id := range s.order {
		snap.Teams = append(snap.Teams, s.teams[id])
	}
	return json.Marshal(snap)
}

// Restore replaces the registry with the saved one and rebuilds the
// membership index.
func (s *System) Restore(data json.RawMessage) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}

	s.teams = make(map[string]*Team, len(snap.Teams))
	s.order = s.order[:0]
	s.membership = make(map[string]string)
	for _, t := range snap.Teams {
		s.teams[t.ID] = t
		s.order = append(s.order, t.ID)
		for _, m := range t.MemberIDs {
			s.membership[m] = t.ID
		}
	}

	s.active = make(map[string]*ActiveTask)
	for teamID, at := range snap.Active {
		if _, ok := s.teams[teamID]; !ok {
			slog.Warn("active task for unknown team dropped", "team", teamID)
			continue
		}
		if s.catalog.Task(at.TaskID) == nil {
			slog.Warn("active task no longer defined, dropped", "task", at.TaskID)
			continue
		}
		s.active[teamID] = at
	}
	return nil
}
