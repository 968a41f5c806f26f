package world

import "testing"

func TestGenerateDeterministicForSeed(t *testing.T) {
	cfg := GenConfig{Width: 32, Height: 32, Seed: 42}
	a := Generate(cfg)
	b := Generate(cfg)

	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			p := Position{X: x, Y: y}
			if a.At(p) != b.At(p) {
				t.Fatalf("terrain differs at %v for the same seed", p)
			}
		}
	}
}

func TestGenerateCoversTerrainTypes(t *testing.T) {
	g := Generate(GenConfig{Width: 64, Height: 64, Seed: 7})

	counts := make(map[Terrain]int)
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			counts[g.At(Position{X: x, Y: y})]++
		}
	}
	if counts[TerrainGrass] == 0 {
		t.Error("map has no grass")
	}
	if counts[TerrainGrass]+counts[TerrainForest]+counts[TerrainWater]+counts[TerrainRock] != 64*64 {
		t.Error("tile counts do not cover the grid")
	}
}

func TestOutOfBoundsReadsAsWater(t *testing.T) {
	g := Generate(GenConfig{Width: 8, Height: 8, Seed: 1})

	if g.InBounds(Position{X: -1, Y: 0}) || g.InBounds(Position{X: 8, Y: 8}) {
		t.Error("out-of-range position reported in bounds")
	}
	if got := g.At(Position{X: -1, Y: 0}); got != TerrainWater {
		t.Errorf("off-grid terrain = %v, want water", got)
	}
}

func TestBuildableRect(t *testing.T) {
	g := Generate(GenConfig{Width: 32, Height: 32, Seed: 42})

	p, ok := g.FindBuildable(3, 3)
	if !ok {
		t.Fatal("no buildable 3x3 area on a 32x32 map")
	}
	if !g.BuildableRect(p, 3, 3) {
		t.Error("FindBuildable returned a non-buildable footprint")
	}

	// A footprint hanging off the map edge is never buildable.
	if g.BuildableRect(Position{X: 30, Y: 30}, 3, 3) {
		t.Error("footprint past the edge reported buildable")
	}
}

func TestTerrainBuildable(t *testing.T) {
	if !TerrainGrass.Buildable() || !TerrainForest.Buildable() {
		t.Error("grass and forest should be buildable")
	}
	if TerrainWater.Buildable() || TerrainRock.Buildable() {
		t.Error("water and rock should not be buildable")
	}
}
