package character

import (
	"math/rand"

	"github.com/google/uuid"
)

// SkillNames is the full proficiency list every character carries.
var SkillNames = []string{
	"oneHanded", "twoHanded", "polearm", "bow", "marksmanship", "shield",
	"lockpicking", "swimming", "engineering", "chemistry", "farming",
	"cooking", "sewing", "construction", "animalHandling", "survival",
	"crafting", "machinery", "fishing", "medicine", "music",
}

// skillAttribute links each skill to the attribute it trains.
var skillAttribute = map[string]string{
	"oneHanded":      "strength",
	"twoHanded":      "strength",
	"polearm":        "strength",
	"bow":            "dexterity",
	"marksmanship":   "dexterity",
	"shield":         "toughness",
	"lockpicking":    "dexterity",
	"swimming":       "agility",
	"engineering":    "intelligence",
	"chemistry":      "intelligence",
	"farming":        "toughness",
	"cooking":        "intelligence",
	"sewing":         "dexterity",
	"construction":   "strength",
	"animalHandling": "willpower",
	"survival":       "willpower",
	"crafting":       "dexterity",
	"machinery":      "intelligence",
	"fishing":        "willpower",
	"medicine":       "intelligence",
	"music":          "willpower",
}

// Clubs are the school clubs recruits come from. A club seeds extra talent
// in its related skills.
var Clubs = []string{
	"baseball", "kendo", "chemistry", "archery", "karate", "football",
	"golf", "track", "drama", "teaCeremony", "equestrian", "robotics",
	"gardening", "astronomy", "tableTennis", "basketball", "badminton",
	"tennis", "volleyball", "soccer", "sumo", "cooking",
}

// clubSkills lists the skills a club gives a talent bonus in.
var clubSkills = map[string][]string{
	"baseball":    {"oneHanded", "marksmanship"},
	"kendo":       {"oneHanded", "twoHanded"},
	"chemistry":   {"chemistry", "medicine"},
	"archery":     {"bow"},
	"karate":      {"oneHanded", "survival"},
	"football":    {"shield", "construction"},
	"golf":        {"twoHanded", "marksmanship"},
	"track":       {"swimming", "survival"},
	"drama":       {"music", "sewing"},
	"teaCeremony": {"cooking", "medicine"},
	"equestrian":  {"animalHandling"},
	"robotics":    {"engineering", "machinery"},
	"gardening":   {"farming"},
	"astronomy":   {"engineering", "survival"},
	"tableTennis": {"crafting", "lockpicking"},
	"basketball":  {"construction", "swimming"},
	"badminton":   {"crafting", "fishing"},
	"tennis":      {"oneHanded", "crafting"},
	"volleyball":  {"construction", "shield"},
	"soccer":      {"survival", "swimming"},
	"sumo":        {"shield", "farming"},
	"cooking":     {"cooking", "farming"},
}

var givenNames = []string{
	"Haruto", "Yui", "Sota", "Aoi", "Ren", "Hina", "Minato", "Sakura",
	"Itsuki", "Mei", "Kaito", "Rio", "Asahi", "Koharu", "Yuma", "Akari",
	"Riku", "Tsumugi", "Hinata", "Ichika",
}

// Factory mints new characters from a seeded random source, so a given
// seed always produces the same recruits in the same order.
type Factory struct {
	rng *rand.Rand
}

// NewFactory creates a factory over a seeded source.
func NewFactory(seed int64) *Factory {
	return &Factory{rng: rand.New(rand.NewSource(seed))}
}

// NewCharacter rolls a fresh recruit: a random name and club, mid-range
// attributes, full meters, and talents seeded by the club.
func (f *Factory) NewCharacter() *Character {
	club := Clubs[f.rng.Intn(len(Clubs))]

	gender := "female"
	if f.rng.Intn(2) == 1 {
		gender = "male"
	}

	c := &Character{
		ID:        uuid.NewString(),
		Name:      givenNames[f.rng.Intn(len(givenNames))],
		Gender:    gender,
		Club:      club,
		Level:     1,
		Potential: f.rollPotential(),
		Attributes: Attributes{
			Strength:     f.rollAttribute(),
			Toughness:    f.rollAttribute(),
			Intelligence: f.rollAttribute(),
			Dexterity:    f.rollAttribute(),
			Agility:      f.rollAttribute(),
			Willpower:    f.rollAttribute(),
		},
		Status: Status{Health: 100, Stamina: 100, Mental: 100},
		Skills: make(map[string]*Skill, len(SkillNames)),
		Alive:  true,
	}

	bonus := make(map[string]bool, 2)
	for _, s := range clubSkills[club] {
		bonus[s] = true
	}
	for _, name := range SkillNames {
		talent := 1.0
		if bonus[name] {
			talent = 1.5
		}
		// Individual variance of plus or minus twenty percent.
		talent *= 0.8 + f.rng.Float64()*0.4
		c.Skills[name] = &Skill{Talent: talent}
	}
	return c
}

// rollPotential averages six uniform samples over [0.5, 2.0], clustering
// recruits around ordinary while keeping rare prodigies possible.
func (f *Factory) rollPotential() float64 {
	var sum float64
	for i := 0; i < 6; i++ {
		sum += 0.5 + f.rng.Float64()*1.5
	}
	return sum / 6
}

func (f *Factory) rollAttribute() int {
	return 4 + f.rng.Intn(5) // 4..8
}
