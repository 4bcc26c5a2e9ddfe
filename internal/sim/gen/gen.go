// Package gen carves cave levels from simplex noise and populates them
// from the content catalogs. Generation is pure: the same seed, depth and
// dimensions always yield the same plan.
package gen

import (
	"fmt"
	"math/rand"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"

	"hollowdeep.dev/internal/sim/content"
	"hollowdeep.dev/internal/sim/world"
)

const (
	noiseScale    = 0.085
	caveThreshold = 0.12
)

type Params struct {
	Seed   int64
	Depth  int
	Width  int
	Height int
}

// Generate builds the plan for one level. Depth 1 hosts the playable
// factions; hostile squads grow with depth.
func Generate(p Params, cats *content.Catalogs) (world.LevelPlan, error) {
	if p.Width < 8 || p.Height < 8 {
		return world.LevelPlan{}, fmt.Errorf("level %dx%d too small", p.Width, p.Height)
	}
	noise := opensimplex.NewNormalized(p.Seed + int64(p.Depth)*7919)
	rng := rand.New(rand.NewSource(p.Seed ^ int64(p.Depth)<<17))

	tiles := carve(noise, p.Width, p.Height)
	open := keepLargestCave(tiles, p.Width, p.Height)
	if len(open) < 16 {
		return world.LevelPlan{}, fmt.Errorf("depth %d: cave collapsed to %d tiles", p.Depth, len(open))
	}
	sprinkleFeatures(tiles, open, p.Width, rng)

	plan := world.LevelPlan{Width: p.Width, Height: p.Height, Tiles: tiles}
	spots := shuffledSpots(tiles, open, p.Width, rng)
	if len(spots) == 0 {
		return world.LevelPlan{}, fmt.Errorf("depth %d: no placement spots", p.Depth)
	}
	next := 0
	take := func() world.Point {
		s := spots[next%len(spots)]
		next++
		return s
	}

	for i := 0; i < len(open)/40+2; i++ {
		plan.Items = append(plan.Items, world.ItemPlacement{
			Pos:   take(),
			Item:  lootTable(rng),
			Count: 1,
		})
	}

	for _, fid := range sortedFactions(cats) {
		def := cats.Factions.Defs[fid]
		switch {
		case def.Playable && p.Depth == 1:
			for i := 0; i < 3; i++ {
				plan.Actors = append(plan.Actors, world.ActorPlacement{
					Pos:     take(),
					Kind:    "HERO",
					Faction: world.FactionID(fid),
					Leader:  i == 0,
					Equip:   map[string]int{"DAGGER": 1},
					Pack:    map[string]int{"POTION_HEAL": 1, "ROCK_SHARD": 2},
				})
			}
		case def.Hostile && len(def.SpawnKinds) > 0:
			count := 2 + p.Depth
			for i := 0; i < count; i++ {
				plan.Actors = append(plan.Actors, world.ActorPlacement{
					Pos:     take(),
					Kind:    def.SpawnKinds[rng.Intn(len(def.SpawnKinds))],
					Faction: world.FactionID(fid),
					Leader:  i == 0 && p.Depth == 1,
				})
			}
		}
	}
	return plan, nil
}

func carve(noise opensimplex.Noise, width, height int) []string {
	tiles := make([]string, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			switch {
			case x == 0 || y == 0 || x == width-1 || y == height-1:
				tiles[y*width+x] = "WALL"
			case noise.Eval2(float64(x)*noiseScale, float64(y)*noiseScale) > caveThreshold:
				tiles[y*width+x] = "FLOOR"
			default:
				tiles[y*width+x] = "ROCK"
			}
		}
	}
	return tiles
}

// keepLargestCave floods the biggest connected open region and seals the
// rest, so every walkable tile is reachable. Returns the open positions.
func keepLargestCave(tiles []string, width, height int) []world.Point {
	seen := make([]bool, len(tiles))
	var best []int
	for start := range tiles {
		if tiles[start] != "FLOOR" || seen[start] {
			continue
		}
		region := flood(tiles, seen, start, width, height)
		if len(region) > len(best) {
			best = region
		}
	}
	keep := map[int]bool{}
	for _, i := range best {
		keep[i] = true
	}
	var open []world.Point
	for i, t := range tiles {
		if t != "FLOOR" {
			continue
		}
		if !keep[i] {
			tiles[i] = "ROCK"
			continue
		}
		open = append(open, world.Point{X: i % width, Y: i / width})
	}
	return open
}

func flood(tiles []string, seen []bool, start, width, height int) []int {
	stack := []int{start}
	seen[start] = true
	var region []int
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		region = append(region, i)
		x, y := i%width, i/width
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= width || ny >= height {
					continue
				}
				j := ny*width + nx
				if !seen[j] && tiles[j] == "FLOOR" {
					seen[j] = true
					stack = append(stack, j)
				}
			}
		}
	}
	return region
}

// sprinkleFeatures converts a few floor tiles into doors, traps and wells.
func sprinkleFeatures(tiles []string, open []world.Point, width int, rng *rand.Rand) {
	for _, p := range open {
		i := p.Y*width + p.X
		switch r := rng.Intn(100); {
		case r < 2:
			tiles[i] = "FIRE_TRAP"
		case r < 3:
			tiles[i] = "CALM_WELL"
		case r < 5:
			tiles[i] = "DOOR_CLOSED"
		case r < 6:
			tiles[i] = "DOOR_HIDDEN"
		}
	}
}

// shuffledSpots drops positions the feature pass claimed, keeping plain
// floor for item and actor placement.
func shuffledSpots(tiles []string, open []world.Point, width int, rng *rand.Rand) []world.Point {
	spots := make([]world.Point, 0, len(open))
	for _, p := range open {
		if tiles[p.Y*width+p.X] == "FLOOR" {
			spots = append(spots, p)
		}
	}
	rng.Shuffle(len(spots), func(i, j int) { spots[i], spots[j] = spots[j], spots[i] })
	return spots
}

func lootTable(rng *rand.Rand) string {
	table := []string{
		"DAGGER", "DAGGER", "SWORD",
		"POTION_HEAL", "POTION_HEAL", "POTION_CALM",
		"ROCK_SHARD", "ROCK_SHARD", "FIRE_FLASK",
		"AMULET_REGEN", "CHARM_CALM",
	}
	return table[rng.Intn(len(table))]
}

func sortedFactions(cats *content.Catalogs) []string {
	ids := make([]string, 0, len(cats.Factions.Defs))
	for id := range cats.Factions.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
