// Package catalog loads the designer data that defines building types and
// team tasks. Data ships embedded in the binary, is schema-validated at
// load, and is scaled per level through the formula engine on demand.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/tsukinami/otherworld/internal/formula"
)

//go:embed data/*.json
var dataFS embed.FS

// BuildingDef is one building type. Cost, health, effects and production
// all scale with level through formula configs.
type BuildingDef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	MaxLevel int    `json:"maxLevel"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`

	Cost               map[string]formula.Config `json:"cost"`
	Health             formula.Config            `json:"health"`
	UpgradeDurationSec formula.Config            `json:"upgradeDurationSec"`
	Effects            map[string]formula.Config `json:"effects,omitempty"`
	Production         *ProductionDef            `json:"production,omitempty"`
}

// ProductionDef describes passive resource output for producer buildings.
type ProductionDef struct {
	Resource    string         `json:"resource"`
	RatePerHour formula.Config `json:"ratePerHour"`
	MaxStorage  formula.Config `json:"maxStorage"`
}

// LevelData is a building def fully evaluated at one level. Values are
// integers; effect values are percentages.
type LevelData struct {
	Level           int
	Cost            map[string]int
	Health          int
	UpgradeDuration time.Duration
	Effects         map[string]int
	ProductionRate  int
	MaxStorage      int
}

// TaskDef is one assignable team task.
type TaskDef struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	DurationHours     int                `json:"durationHours"`
	MinTeamSize       int                `json:"minTeamSize"`
	MaxTeamSize       int                `json:"maxTeamSize"`
	RequiredResources map[string]float64 `json:"requiredResources,omitempty"`
	Rewards           map[string]int     `json:"rewards"`
	Skill             string             `json:"skill"`
	ExperienceBase    int                `json:"experienceBase"`
}

type levelKey struct {
	building string
	level    int
}

// Catalog is the loaded, validated data set. Level data is computed lazily
// and cached; definitions are immutable after Load.
type Catalog struct {
	engine    *formula.Engine
	buildings map[string]*BuildingDef
	order     []string
	tasks     map[string]*TaskDef
	taskOrder []string

	mu     sync.Mutex
	levels map[levelKey]*LevelData
}

// Load reads and validates the embedded data files.
func Load(engine *formula.Engine) (*Catalog, error) {
	c := &Catalog{
		engine:    engine,
		buildings: make(map[string]*BuildingDef),
		tasks:     make(map[string]*TaskDef),
		levels:    make(map[levelKey]*LevelData),
	}

	var buildings []*BuildingDef
	if err := loadValidated("buildings", &buildings); err != nil {
		return nil, err
	}
	for _, b := range buildings {
		if _, dup := c.buildings[b.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate building id %q", b.ID)
		}
		c.buildings[b.ID] = b
		c.order = append(c.order, b.ID)
	}

	var tasks []*TaskDef
	if err := loadValidated("tasks", &tasks); err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if _, dup := c.tasks[t.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate task id %q", t.ID)
		}
		if t.MinTeamSize > t.MaxTeamSize {
			return nil, fmt.Errorf("catalog: task %q has min size %d above max %d",
				t.ID, t.MinTeamSize, t.MaxTeamSize)
		}
		c.tasks[t.ID] = t
		c.taskOrder = append(c.taskOrder, t.ID)
	}

	slog.Info("catalog loaded", "buildings", len(c.buildings), "tasks", len(c.tasks))
	return c, nil
}

// loadValidated reads data/<name>.json, checks it against
// data/<name>.schema.json and unmarshals it into out.
func loadValidated(name string, out any) error {
	schemaBytes, err := dataFS.ReadFile("data/" + name + ".schema.json")
	if err != nil {
		return fmt.Errorf("catalog: read %s schema: %w", name, err)
	}
	schema, err := jsonschema.CompileString(name+".schema.json", string(schemaBytes))
	if err != nil {
		return fmt.Errorf("catalog: compile %s schema: %w", name, err)
	}

	raw, err := dataFS.ReadFile("data/" + name + ".json")
	if err != nil {
		return fmt.Errorf("catalog: read %s data: %w", name, err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("catalog: parse %s data: %w", name, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("catalog: %s data invalid: %w", name, err)
	}
	return json.Unmarshal(raw, out)
}

// Building returns a building definition, or nil for unknown ids.
func (c *Catalog) Building(id string) *BuildingDef { return c.buildings[id] }

// Buildings returns all building definitions in file order.
func (c *Catalog) Buildings() []*BuildingDef {
	out := make([]*BuildingDef, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.buildings[id])
	}
	return out
}

// Task returns a task definition, or nil for unknown ids.
func (c *Catalog) Task(id string) *TaskDef { return c.tasks[id] }

// Tasks returns all task definitions in file order.
func (c *Catalog) Tasks() []*TaskDef {
	out := make([]*TaskDef, 0, len(c.taskOrder))
	for _, id := range c.taskOrder {
		out = append(out, c.tasks[id])
	}
	return out
}

// LevelData evaluates a building definition at the given level.
func (c *Catalog) LevelData(buildingID string, level int) (*LevelData, error) {
	def, ok := c.buildings[buildingID]
	if !ok {
		return nil, fmt.Errorf("catalog: unknown building %q", buildingID)
	}
	if level < 1 || level > def.MaxLevel {
		return nil, fmt.Errorf("catalog: %s level %d out of range 1..%d",
			buildingID, level, def.MaxLevel)
	}

	key := levelKey{building: buildingID, level: level}
	c.mu.Lock()
	if ld, ok := c.levels[key]; ok {
		c.mu.Unlock()
		return ld, nil
	}
	c.mu.Unlock()

	ld := &LevelData{
		Level:  level,
		Cost:   make(map[string]int, len(def.Cost)),
		Health: c.engine.Evaluate(def.Health, level),
	}
	for res, cfg := range def.Cost {
		ld.Cost[res] = c.engine.Evaluate(cfg, level)
	}
	ld.UpgradeDuration = time.Duration(c.engine.Evaluate(def.UpgradeDurationSec, level)) * time.Second
	if len(def.Effects) > 0 {
		ld.Effects = make(map[string]int, len(def.Effects))
		for name, cfg := range def.Effects {
			ld.Effects[name] = c.engine.Evaluate(cfg, level)
		}
	}
	if def.Production != nil {
		ld.ProductionRate = c.engine.Evaluate(def.Production.RatePerHour, level)
		ld.MaxStorage = c.engine.Evaluate(def.Production.MaxStorage, level)
	}

	c.mu.Lock()
	c.levels[key] = ld
	c.mu.Unlock()
	return ld, nil
}

// CanUpgrade reports whether a building at currentLevel has a next level.
func (c *Catalog) CanUpgrade(buildingID string, currentLevel int) bool {
	def, ok := c.buildings[buildingID]
	return ok && currentLevel < def.MaxLevel
}

// UpgradeCost returns the cost of moving from currentLevel to the next one.
func (c *Catalog) UpgradeCost(buildingID string, currentLevel int) (map[string]int, error) {
	if !c.CanUpgrade(buildingID, currentLevel) {
		return nil, fmt.Errorf("catalog: %s cannot upgrade past level %d", buildingID, currentLevel)
	}
	ld, err := c.LevelData(buildingID, currentLevel+1)
	if err != nil {
		return nil, err
	}
	return ld.Cost, nil
}

// ValidateFormulas runs balance analysis over every scaling config and logs
// the findings. Purely advisory; bad balance never blocks loading.
func (c *Catalog) ValidateFormulas() {
	for _, id := range c.order {
		def := c.buildings[id]
		check := func(what string, cfg formula.Config) {
			a := c.engine.Analyze(cfg, def.MaxLevel)
			for _, w := range a.Warnings {
				slog.Warn("scaling balance", "building", id, "config", what, "finding", w)
			}
		}
		for res, cfg := range def.Cost {
			check("cost."+res, cfg)
		}
		check("health", def.Health)
		check("upgradeDurationSec", def.UpgradeDurationSec)
		for name, cfg := range def.Effects {
			check("effects."+name, cfg)
		}
		if def.Production != nil {
			check("production.ratePerHour", def.Production.RatePerHour)
			check("production.maxStorage", def.Production.MaxStorage)
		}
	}
}
