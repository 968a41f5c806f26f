// Package character models the people living in the base: their
// attributes, needs, skill progression and the hourly upkeep that keeps
// them alive or kills them.
package character

import (
	"log/slog"

	"github.com/tsukinami/otherworld/internal/eventbus"
)

// Skill progression bounds. Experience rolls over into the next level; the
// carry is kept so no grind is wasted at a boundary.
const (
	MaxSkillLevel = 20
	xpPerLevel    = 100
)

// Status tracks the five condition meters, each clamped to [0, 100].
type Status struct {
	Health  float64 `json:"health"`
	Stamina float64 `json:"stamina"`
	Mental  float64 `json:"mental"`
	Hunger  float64 `json:"hunger"` // 100 is starving
	Thirst  float64 `json:"thirst"` // 100 is parched
}

// Attributes are the six innate stats. They grow slowly through skill use.
type Attributes struct {
	Strength     int `json:"strength"`
	Toughness    int `json:"toughness"`
	Intelligence int `json:"intelligence"`
	Dexterity    int `json:"dexterity"`
	Agility      int `json:"agility"`
	Willpower    int `json:"willpower"`
}

// Skill is one learnable proficiency. Talent scales experience gain.
type Skill struct {
	Level      int     `json:"level"`
	Experience int     `json:"experience"`
	Talent     float64 `json:"talent"`
}

// Character is one base inhabitant. Level and Experience track overall
// growth across all skills.
type Character struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Gender     string            `json:"gender"`
	Club       string            `json:"club"` // former school club, seeds starting talents
	Level      int               `json:"level"`
	Experience int               `json:"experience"`
	Potential  float64           `json:"potential"`
	Attributes Attributes        `json:"attributes"`
	Status     Status            `json:"status"`
	Skills     map[string]*Skill `json:"skills"`
	Alive      bool              `json:"alive"`

	bus *eventbus.Bus
}

// StatusEvent is published when a survival meter changes.
type StatusEvent struct {
	CharacterID string  `json:"characterId"`
	Field       string  `json:"field"`
	Old         float64 `json:"old"`
	New         float64 `json:"new"`
}

// SkillUpEvent is published when a skill reaches a new level.
type SkillUpEvent struct {
	CharacterID string `json:"characterId"`
	Skill       string `json:"skill"`
	Level       int    `json:"level"`
}

// DeathEvent is published exactly once when a character dies.
type DeathEvent struct {
	CharacterID string `json:"characterId"`
	Name        string `json:"name"`
	Cause       string `json:"cause"`
}

// SpawnEvent is published when a character joins the base.
type SpawnEvent struct {
	CharacterID string `json:"characterId"`
	Name        string `json:"name"`
	Club        string `json:"club"`
}

// AttachBus re-binds the event bus after a character is restored from a
// save, where the bus is not serialized.
func (c *Character) AttachBus(bus *eventbus.Bus) { c.bus = bus }

func clamp01e2(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// UpdateStatus applies a delta to the named meter, clamped to [0, 100], and
// announces the change. Unknown fields are ignored with a warning. Dead
// characters no longer change.
func (c *Character) UpdateStatus(field string, delta float64) {
	if !c.Alive || delta == 0 {
		return
	}

	var target *float64
	switch field {
	case "health":
		target = &c.Status.Health
	case "stamina":
		target = &c.Status.Stamina
	case "mental":
		target = &c.Status.Mental
	case "hunger":
		target = &c.Status.Hunger
	case "thirst":
		target = &c.Status.Thirst
	default:
		slog.Warn("unknown status field", "field", field, "character", c.ID)
		return
	}

	old := *target
	next := clamp01e2(old + delta)
	if next == old {
		return
	}
	*target = next

	if c.bus != nil {
		c.bus.Publish(eventbus.EventCharacterStatus, StatusEvent{
			CharacterID: c.ID, Field: field, Old: old, New: next,
		})
	}
}

// AddSkillExperience grants experience to a skill, scaled by the
// character's talent for it and overall potential. Excess experience rolls
// into following levels; levels stop at MaxSkillLevel. Every fifth level
// also raises the skill's linked attribute.
func (c *Character) AddSkillExperience(skill string, amount int) {
	if !c.Alive || amount <= 0 {
		return
	}
	s, ok := c.Skills[skill]
	if !ok {
		slog.Warn("unknown skill", "skill", skill, "character", c.ID)
		return
	}
	if s.Level >= MaxSkillLevel {
		return
	}

	gained := int(float64(amount)*s.Talent*c.Potential + 0.5)
	if gained < 1 {
		gained = 1
	}
	s.Experience += gained
	c.gainOverallExperience(gained)

	for s.Level < MaxSkillLevel && s.Experience >= xpPerLevel {
		s.Experience -= xpPerLevel
		s.Level++

		if s.Level%5 == 0 {
			c.raiseLinkedAttribute(skill)
		}
		if c.bus != nil {
			c.bus.Publish(eventbus.EventCharacterSkillUp, SkillUpEvent{
				CharacterID: c.ID, Skill: skill, Level: s.Level,
			})
		}
	}
	if s.Level >= MaxSkillLevel {
		s.Experience = 0
	}
}

// gainOverallExperience feeds skill gains into the character's overall
// level, which rises every 1000 accumulated experience.
func (c *Character) gainOverallExperience(amount int) {
	c.Experience += amount
	for c.Experience >= 1000 {
		c.Experience -= 1000
		c.Level++
	}
}

// SkillLevel returns the level of a skill, zero for unknown skills.
func (c *Character) SkillLevel(skill string) int {
	if s, ok := c.Skills[skill]; ok {
		return s.Level
	}
	return 0
}

func (c *Character) raiseLinkedAttribute(skill string) {
	switch skillAttribute[skill] {
	case "strength":
		c.Attributes.Strength++
	case "toughness":
		c.Attributes.Toughness++
	case "intelligence":
		c.Attributes.Intelligence++
	case "dexterity":
		c.Attributes.Dexterity++
	case "agility":
		c.Attributes.Agility++
	case "willpower":
		c.Attributes.Willpower++
	}
}

// TickHour runs one game hour of upkeep. Hunger and thirst creep upward;
// fed describes whether the base supplied food and water this hour. A
// starving or parched character loses health instead of recovering stamina.
// Returns true when this tick killed the character.
func (c *Character) TickHour(fed, watered bool) bool {
	if !c.Alive {
		return false
	}

	if fed {
		c.UpdateStatus("hunger", -10)
	} else {
		c.UpdateStatus("hunger", 2)
	}
	if watered {
		c.UpdateStatus("thirst", -15)
	} else {
		c.UpdateStatus("thirst", 3)
	}

	starving := c.Status.Hunger >= 100
	parched := c.Status.Thirst >= 100
	switch {
	case starving || parched:
		c.UpdateStatus("health", -5)
		c.UpdateStatus("mental", -2)
	default:
		c.UpdateStatus("stamina", 5)
		if c.Status.Health < 100 && c.Status.Hunger < 50 && c.Status.Thirst < 50 {
			c.UpdateStatus("health", 1)
			c.UpdateStatus("mental", 1)
		}
	}

	if c.Status.Health <= 0 {
		cause := "starvation"
		if parched && !starving {
			cause = "dehydration"
		}
		c.die(cause)
		return true
	}
	return false
}

// die flips the alive flag and publishes the death exactly once.
func (c *Character) die(cause string) {
	if !c.Alive {
		return
	}
	c.Alive = false
	slog.Info("character died", "character", c.Name, "cause", cause)
	if c.bus != nil {
		c.bus.Publish(eventbus.EventCharacterDeath, DeathEvent{
			CharacterID: c.ID, Name: c.Name, Cause: cause,
		})
	}
}
