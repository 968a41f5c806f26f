// Package team groups characters into work crews and runs their assigned
// tasks against the game clock.
package team

import (
	"github.com/tsukinami/otherworld/internal/catalog"
	"github.com/tsukinami/otherworld/internal/character"
)

// Efficiency bounds. A crew never works at less than a tenth or more than
// double the baseline.
const (
	minEfficiency  = 0.1
	maxEfficiency  = 2.0
	baseEfficiency = 0.8
	maxSkillBonus  = 0.5
)

// Team is a named crew. Members belong to at most one team at a time.
type Team struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	MemberIDs []string `json:"memberIds"`
}

// Size returns the member count.
func (t *Team) Size() int { return len(t.MemberIDs) }

func (t *Team) hasMember(id string) bool {
	for _, m := range t.MemberIDs {
		if m == id {
			return true
		}
	}
	return false
}

func (t *Team) removeMember(id string) bool {
	for i, m := range t.MemberIDs {
		if m == id {
			t.MemberIDs = append(t.MemberIDs[:i], t.MemberIDs[i+1:]...)
			return true
		}
	}
	return false
}

// ActiveTask is one in-flight assignment, counted down in game hours.
type ActiveTask struct {
	TaskID         string `json:"taskId"`
	RemainingHours int    `json:"remainingHours"`
}

// Efficiency scores how well a crew performs a task, from the members'
// relevant skill, crew size against the task's optimum, and condition.
// The result is clamped to [0.1, 2.0]; an average crew lands near 0.8.
func Efficiency(members []*character.Character, task *catalog.TaskDef) float64 {
	if len(members) == 0 {
		return minEfficiency
	}

	var skillSum, healthSum, staminaSum float64
	for _, m := range members {
		skillSum += float64(m.SkillLevel(task.Skill))
		healthSum += m.Status.Health
		staminaSum += m.Status.Stamina
	}
	n := float64(len(members))

	skillBonus := skillSum / n * 0.1
	if skillBonus > maxSkillBonus {
		skillBonus = maxSkillBonus
	}

	statusModifier := (healthSum/n + staminaSum/n) / 200

	eff := baseEfficiency + skillBonus*sizeModifier(len(members), task)*statusModifier
	if eff < minEfficiency {
		return minEfficiency
	}
	if eff > maxEfficiency {
		return maxEfficiency
	}
	return eff
}

// sizeModifier rates the crew size against the task's optimal size, the
// midpoint of its allowed range. Both under and overstaffing dilute the
// skill bonus symmetrically: a crew at half or double the optimum works
// the skill bonus at half strength.
func sizeModifier(size int, task *catalog.TaskDef) float64 {
	optimal := (task.MinTeamSize + task.MaxTeamSize) / 2
	if optimal < 1 {
		optimal = 1
	}
	ratio := float64(size) / float64(optimal)
	if ratio > 1 {
		ratio = 1 / ratio
	}
	return ratio
}
