package character

import (
	"testing"

	"github.com/tsukinami/otherworld/internal/eventbus"
)

func testCharacter(bus *eventbus.Bus) *Character {
	c := &Character{
		ID:        "c1",
		Name:      "Haruto",
		Club:      "kendo",
		Level:     1,
		Potential: 1.0,
		Status:    Status{Health: 100, Stamina: 100, Mental: 100},
		Skills: map[string]*Skill{
			"oneHanded": {Talent: 1.0},
			"farming":   {Talent: 1.0},
		},
		Alive: true,
	}
	c.AttachBus(bus)
	return c
}

func TestUpdateStatusClamps(t *testing.T) {
	c := testCharacter(eventbus.New())

	c.UpdateStatus("health", 50)
	if c.Status.Health != 100 {
		t.Errorf("health = %v, want clamped 100", c.Status.Health)
	}
	c.UpdateStatus("health", -150)
	if c.Status.Health != 0 {
		t.Errorf("health = %v, want clamped 0", c.Status.Health)
	}
	c.UpdateStatus("hunger", 150)
	if c.Status.Hunger != 100 {
		t.Errorf("hunger = %v, want clamped 100", c.Status.Hunger)
	}
}

func TestUpdateStatusPublishesChange(t *testing.T) {
	bus := eventbus.New()
	c := testCharacter(bus)

	var events []StatusEvent
	bus.Subscribe(eventbus.EventCharacterStatus, func(p any) {
		events = append(events, p.(StatusEvent))
	})

	c.UpdateStatus("stamina", -30)
	c.UpdateStatus("stamina", 0)  // no-op delta
	c.UpdateStatus("health", 10)  // already at cap, no change
	c.UpdateStatus("charm", 10)   // unknown field

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Field != "stamina" || events[0].Old != 100 || events[0].New != 70 {
		t.Errorf("event = %+v", events[0])
	}
}

func TestAddSkillExperienceLevelsWithRollover(t *testing.T) {
	c := testCharacter(eventbus.New())

	// 250 xp at talent 1.0 crosses two 100-point levels with 50 left over.
	c.AddSkillExperience("oneHanded", 250)
	s := c.Skills["oneHanded"]
	if s.Level != 2 {
		t.Errorf("level = %d, want 2", s.Level)
	}
	if s.Experience != 50 {
		t.Errorf("carry = %d, want 50", s.Experience)
	}

	c.AddSkillExperience("oneHanded", 50)
	if s.Level != 3 || s.Experience != 0 {
		t.Errorf("level = %d carry = %d, want 3 and 0", s.Level, s.Experience)
	}
}

func TestAddSkillExperienceTalentScales(t *testing.T) {
	c := testCharacter(eventbus.New())
	c.Skills["oneHanded"].Talent = 2.0

	c.AddSkillExperience("oneHanded", 50) // doubles to 100
	if got := c.Skills["oneHanded"].Level; got != 1 {
		t.Errorf("level = %d, want 1 with doubled talent", got)
	}
}

func TestSkillLevelCap(t *testing.T) {
	bus := eventbus.New()
	c := testCharacter(bus)

	var ups int
	bus.Subscribe(eventbus.EventCharacterSkillUp, func(any) { ups++ })

	c.AddSkillExperience("oneHanded", 10_000_000)
	s := c.Skills["oneHanded"]
	if s.Level != MaxSkillLevel {
		t.Errorf("level = %d, want capped %d", s.Level, MaxSkillLevel)
	}
	if ups != MaxSkillLevel {
		t.Errorf("skillup events = %d, want %d", ups, MaxSkillLevel)
	}

	// Further grinding at the cap is ignored.
	c.AddSkillExperience("oneHanded", 1000)
	if s.Level != MaxSkillLevel || s.Experience != 0 {
		t.Errorf("capped skill changed: level %d exp %d", s.Level, s.Experience)
	}
}

func TestLevelUpsRaiseLinkedAttribute(t *testing.T) {
	c := testCharacter(eventbus.New())
	before := c.Attributes.Strength

	// Exactly five 100-point levels.
	c.AddSkillExperience("oneHanded", 500)
	if c.Skills["oneHanded"].Level != 5 {
		t.Fatalf("level = %d, want 5", c.Skills["oneHanded"].Level)
	}
	if c.Attributes.Strength != before+1 {
		t.Errorf("strength = %d, want %d after fifth level", c.Attributes.Strength, before+1)
	}
}

func TestTickHourNeedsAndRecovery(t *testing.T) {
	c := testCharacter(eventbus.New())
	c.Status.Stamina = 50

	if died := c.TickHour(true, true); died {
		t.Fatal("fed character died")
	}
	if c.Status.Hunger != 0 || c.Status.Thirst != 0 {
		t.Errorf("fed meters: hunger %v thirst %v", c.Status.Hunger, c.Status.Thirst)
	}
	if c.Status.Stamina != 55 {
		t.Errorf("stamina = %v, want recovered 55", c.Status.Stamina)
	}

	c.TickHour(false, false)
	if c.Status.Hunger != 2 || c.Status.Thirst != 3 {
		t.Errorf("unfed meters: hunger %v thirst %v", c.Status.Hunger, c.Status.Thirst)
	}
}

func TestStarvationKillsOnce(t *testing.T) {
	bus := eventbus.New()
	c := testCharacter(bus)
	c.Status.Hunger = 100
	c.Status.Health = 5

	var deaths int
	bus.Subscribe(eventbus.EventCharacterDeath, func(any) { deaths++ })

	if died := c.TickHour(false, false); !died {
		t.Fatal("starving character at 5 health should die")
	}
	if c.Alive {
		t.Error("character still alive after death")
	}

	// A dead character never dies again.
	c.TickHour(false, false)
	c.UpdateStatus("health", -10)
	if deaths != 1 {
		t.Errorf("death events = %d, want exactly 1", deaths)
	}
}

func TestFactoryDeterministicForSeed(t *testing.T) {
	a := NewFactory(99).NewCharacter()
	b := NewFactory(99).NewCharacter()

	if a.Name != b.Name || a.Club != b.Club || a.Potential != b.Potential {
		t.Error("same seed should produce the same recruit")
	}
	if a.ID == b.ID {
		t.Error("ids must be unique even for identical rolls")
	}
}

func TestFactoryRollsWithinBounds(t *testing.T) {
	f := NewFactory(7)
	for i := 0; i < 50; i++ {
		c := f.NewCharacter()
		if c.Potential < 0.5 || c.Potential > 2.0 {
			t.Fatalf("potential %v out of [0.5, 2.0]", c.Potential)
		}
		if len(c.Skills) != len(SkillNames) {
			t.Fatalf("recruit has %d skills, want %d", len(c.Skills), len(SkillNames))
		}
		for name, s := range c.Skills {
			if s.Talent <= 0 {
				t.Fatalf("skill %s talent %v", name, s.Talent)
			}
			if s.Level != 0 {
				t.Fatalf("skill %s starts at level %d", name, s.Level)
			}
		}
	}
}

func TestClubSeedsHigherTalent(t *testing.T) {
	f := NewFactory(3)

	// With a 1.5x club multiplier against 0.8-1.2 individual variance, a
	// club skill's talent always exceeds the variance floor of off-club
	// skills on average; check the guaranteed bound instead: club talent
	// is at least 1.5 * 0.8 = 1.2.
	for i := 0; i < 50; i++ {
		c := f.NewCharacter()
		for _, skill := range clubSkills[c.Club] {
			if got := c.Skills[skill].Talent; got < 1.2 {
				t.Fatalf("club %s skill %s talent %v, want at least 1.2", c.Club, skill, got)
			}
		}
	}
}
