package gen

import (
	"reflect"
	"testing"

	"hollowdeep.dev/internal/sim/content"
	"hollowdeep.dev/internal/sim/world"
)

func loadCatalogs(t *testing.T) *content.Catalogs {
	t.Helper()
	cats, err := content.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return cats
}

func TestGenerate_Deterministic(t *testing.T) {
	cats := loadCatalogs(t)
	p := Params{Seed: 1234, Depth: 2, Width: 48, Height: 32}

	a, err := Generate(p, cats)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, err := Generate(p, cats)
	if err != nil {
		t.Fatalf("generate again: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same params produced different plans")
	}
}

func TestGenerate_DepthChangesLayout(t *testing.T) {
	cats := loadCatalogs(t)
	a, err := Generate(Params{Seed: 1234, Depth: 1, Width: 48, Height: 32}, cats)
	if err != nil {
		t.Fatalf("depth 1: %v", err)
	}
	b, err := Generate(Params{Seed: 1234, Depth: 2, Width: 48, Height: 32}, cats)
	if err != nil {
		t.Fatalf("depth 2: %v", err)
	}
	if reflect.DeepEqual(a.Tiles, b.Tiles) {
		t.Fatalf("depths 1 and 2 carved identical caves")
	}
}

func TestGenerate_PlanLoadsIntoWorld(t *testing.T) {
	cats := loadCatalogs(t)
	p := Params{Seed: 77, Depth: 1, Width: 48, Height: 32}
	plan, err := Generate(p, cats)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	w, err := world.New(world.Config{
		Seed:                  p.Seed,
		ClipsPerTurn:          3,
		MaintenanceClipOffset: 1,
		CalmGate:              30,
		CalmRegen:             2,
		SmellTurns:            2,
	}, cats)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	if err := w.AddLevel(1, plan); err != nil {
		t.Fatalf("plan rejected by world: %v", err)
	}

	heroes := map[world.FactionID]int{}
	for _, ap := range plan.Actors {
		if cats.Factions.Defs[string(ap.Faction)].Playable {
			heroes[ap.Faction]++
		}
		if plan.Tiles[ap.Pos.Y*p.Width+ap.Pos.X] != "FLOOR" {
			t.Fatalf("actor placed on %s at %v", plan.Tiles[ap.Pos.Y*p.Width+ap.Pos.X], ap.Pos)
		}
	}
	for fid, def := range cats.Factions.Defs {
		if def.Playable && heroes[world.FactionID(fid)] != 3 {
			t.Fatalf("faction %s got %d starters, want 3", fid, heroes[world.FactionID(fid)])
		}
	}
	for _, ip := range plan.Items {
		if plan.Tiles[ip.Pos.Y*p.Width+ip.Pos.X] != "FLOOR" {
			t.Fatalf("item placed on %s at %v", plan.Tiles[ip.Pos.Y*p.Width+ip.Pos.X], ip.Pos)
		}
	}
	for fid, def := range cats.Factions.Defs {
		if !def.Playable {
			continue
		}
		if w.Faction(world.FactionID(fid)).Leader == "" {
			t.Fatalf("playable faction %s has no leader after load", fid)
		}
	}
}

func TestGenerate_RejectsTinyLevels(t *testing.T) {
	cats := loadCatalogs(t)
	if _, err := Generate(Params{Seed: 1, Depth: 1, Width: 4, Height: 4}, cats); err == nil {
		t.Fatalf("4x4 level accepted")
	}
}
