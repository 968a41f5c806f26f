// Package world generates and queries the base map, a square grid of
// terrain tiles that building placement checks against.
package world

import (
	"fmt"
	"log/slog"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Terrain classifies one tile.
type Terrain uint8

const (
	TerrainGrass Terrain = iota
	TerrainForest
	TerrainWater
	TerrainRock
)

var terrainNames = [...]string{"grass", "forest", "water", "rock"}

func (t Terrain) String() string {
	if int(t) >= len(terrainNames) {
		return "unknown"
	}
	return terrainNames[t]
}

// Buildable reports whether structures may be placed on this terrain.
func (t Terrain) Buildable() bool {
	return t == TerrainGrass || t == TerrainForest
}

// Position is a tile coordinate on the grid.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// GenConfig holds map generation parameters.
type GenConfig struct {
	Width  int
	Height int
	Seed   int64 // 0 picks a random seed

	// Noise shape. Zero values fall back to the defaults below.
	Frequency   float64
	WaterLevel  float64 // elevation below this is water
	RockLevel   float64 // elevation above this is rock
	ForestLevel float64 // moisture above this on land is forest
}

const (
	defaultFrequency   = 0.08
	defaultWaterLevel  = 0.25
	defaultRockLevel   = 0.80
	defaultForestLevel = 0.60
)

// Grid is the generated map. Tiles are immutable after generation.
type Grid struct {
	width  int
	height int
	seed   int64
	tiles  []Terrain
}

// Generate builds a map from layered noise. Elevation places water and rock;
// a second moisture layer splits the remaining land into grass and forest.
func Generate(cfg GenConfig) *Grid {
	if cfg.Width <= 0 {
		cfg.Width = 64
	}
	if cfg.Height <= 0 {
		cfg.Height = 64
	}
	if cfg.Frequency <= 0 {
		cfg.Frequency = defaultFrequency
	}
	if cfg.WaterLevel <= 0 {
		cfg.WaterLevel = defaultWaterLevel
	}
	if cfg.RockLevel <= 0 {
		cfg.RockLevel = defaultRockLevel
	}
	if cfg.ForestLevel <= 0 {
		cfg.ForestLevel = defaultForestLevel
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	// Independent layers for elevation and moisture.
	elevNoise := opensimplex.NewNormalized(seed)
	moistNoise := opensimplex.NewNormalized(seed + 1)

	g := &Grid{
		width:  cfg.Width,
		height: cfg.Height,
		seed:   seed,
		tiles:  make([]Terrain, cfg.Width*cfg.Height),
	}

	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			elev := elevNoise.Eval2(float64(x)*cfg.Frequency, float64(y)*cfg.Frequency)
			moist := moistNoise.Eval2(float64(x)*cfg.Frequency, float64(y)*cfg.Frequency)

			var t Terrain
			switch {
			case elev < cfg.WaterLevel:
				t = TerrainWater
			case elev > cfg.RockLevel:
				t = TerrainRock
			case moist > cfg.ForestLevel:
				t = TerrainForest
			default:
				t = TerrainGrass
			}
			g.tiles[y*cfg.Width+x] = t
		}
	}

	slog.Info("world generated", "width", cfg.Width, "height", cfg.Height, "seed", seed)
	return g
}

// Width returns the grid width in tiles.
func (g *Grid) Width() int { return g.width }

// Height returns the grid height in tiles.
func (g *Grid) Height() int { return g.height }

// Seed returns the seed the map was generated from.
func (g *Grid) Seed() int64 { return g.seed }

// InBounds reports whether the position lies on the grid.
func (g *Grid) InBounds(p Position) bool {
	return p.X >= 0 && p.X < g.width && p.Y >= 0 && p.Y < g.height
}

// At returns the terrain at a position. Out-of-bounds reads as water so
// callers treat the map edge as unusable.
func (g *Grid) At(p Position) Terrain {
	if !g.InBounds(p) {
		return TerrainWater
	}
	return g.tiles[p.Y*g.width+p.X]
}

// BuildableRect reports whether every tile of a w by h footprint anchored at
// origin is on the grid and buildable.
func (g *Grid) BuildableRect(origin Position, w, h int) bool {
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			p := Position{X: origin.X + dx, Y: origin.Y + dy}
			if !g.InBounds(p) || !g.At(p).Buildable() {
				return false
			}
		}
	}
	return true
}

// FindBuildable scans for the first position whose w by h footprint is
// buildable, in row-major order. Returns false when the map has none.
func (g *Grid) FindBuildable(w, h int) (Position, bool) {
	for y := 0; y <= g.height-h; y++ {
		for x := 0; x <= g.width-w; x++ {
			p := Position{X: x, Y: y}
			if g.BuildableRect(p, w, h) {
				return p, true
			}
		}
	}
	return Position{}, false
}
