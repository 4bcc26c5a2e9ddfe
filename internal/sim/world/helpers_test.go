package world

import (
	"testing"

	"hollowdeep.dev/internal/sim/content"
)

func testCatalogs() *content.Catalogs {
	return &content.Catalogs{
		Tiles: content.TileCatalog{Defs: map[string]content.TileDef{
			"FLOOR": {ID: "FLOOR", Walkable: true, Clear: true},
			"WALL":  {ID: "WALL"},
			"ROCK":  {ID: "ROCK"},
			"DOOR_CLOSED": {ID: "DOOR_CLOSED", OpenTo: "DOOR_OPEN"},
			"DOOR_OPEN":   {ID: "DOOR_OPEN", Walkable: true, Clear: true, CloseTo: "DOOR_CLOSED"},
			"DOOR_HIDDEN": {ID: "DOOR_HIDDEN", HideAs: "DOOR_CLOSED"},
			"FIRE_TRAP": {ID: "FIRE_TRAP", Walkable: true, Clear: true,
				OnCause: []content.EffectDef{{Kind: content.EffectBurn, Power: 2}}},
			"CALM_WELL": {ID: "CALM_WELL", Walkable: true, Clear: true,
				OnCause: []content.EffectDef{{Kind: content.EffectCalm, Power: 10}}},
		}},
		Items: content.ItemCatalog{Defs: map[string]content.ItemDef{
			"FIST":        {ID: "FIST", Weapon: true, Damage: 1},
			"DAGGER":      {ID: "DAGGER", Weapon: true, Damage: 3},
			"ROCK_SHARD":  {ID: "ROCK_SHARD", Weapon: true, Damage: 2},
			"POTION_HEAL": {ID: "POTION_HEAL", Effects: []content.EffectDef{{Kind: content.EffectHeal, Power: 5}}},
			"EMBER":       {ID: "EMBER", Fragment: true, Effects: []content.EffectDef{{Kind: content.EffectBurn, Power: 1}}},
			"CHARM_CALM": {ID: "CHARM_CALM", Periodic: true, Effects: []content.EffectDef{
				{Kind: content.EffectCalm, Power: 2},
				{Kind: content.EffectBurn, Power: 1},
			}},
		}},
		Actors: content.ActorCatalog{Defs: map[string]content.ActorDef{
			"HERO":    {ID: "HERO", HP: 20, Calm: 50, Sight: 6},
			"GRUNT":   {ID: "GRUNT", HP: 8, Calm: 20, Sight: 5},
			"STALKER": {ID: "STALKER", HP: 6, Calm: 20, Sight: 5, Silent: true},
			content.ProjectileKind: {ID: content.ProjectileKind, HP: 1, Calm: 0, Sight: 0, Silent: true, Speed: 2},
		}},
		Factions: content.FactionCatalog{Defs: map[string]content.FactionDef{
			"EXPLORER": {ID: "EXPLORER", HandWeapon: "FIST", Playable: true},
			"WARDEN":   {ID: "WARDEN", HandWeapon: "FIST", Playable: true, Alliances: []string{"EXPLORER"}},
			"HORDE":    {ID: "HORDE", HandWeapon: "FIST", Hostile: true, SpawnKinds: []string{"GRUNT"}},
		}},
		Digest: "test",
	}
}

func testConfig(seed int64) Config {
	return Config{
		Seed:                  seed,
		ClipsPerTurn:          3,
		MaintenanceClipOffset: 1,
		CalmGate:              30,
		CalmRegen:             2,
		SmellTurns:            2,
	}
}

func newTestWorld(t *testing.T, seed int64) *World {
	t.Helper()
	w, err := New(testConfig(seed), testCatalogs())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

// flatLevel is an all-floor grid; tests carve walls by hand where needed.
func flatLevel(width, height int) LevelPlan {
	tiles := make([]string, width*height)
	for i := range tiles {
		tiles[i] = "FLOOR"
	}
	return LevelPlan{Width: width, Height: height, Tiles: tiles}
}

func addLevel(t *testing.T, w *World, id LevelID, plan LevelPlan) *Level {
	t.Helper()
	if err := w.AddLevel(id, plan); err != nil {
		t.Fatalf("AddLevel(%d): %v", id, err)
	}
	return w.Level(id)
}

func spawn(t *testing.T, w *World, kind string, f FactionID, lvl LevelID, p Point) *Actor {
	t.Helper()
	a, err := w.createActor(kind, f, lvl, p, "", nil, w.Level(lvl).Time)
	if err != nil {
		t.Fatalf("createActor(%s): %v", kind, err)
	}
	return a
}

func apply(t *testing.T, w *World, cmds ...Command) {
	t.Helper()
	for _, cmd := range cmds {
		if err := w.Apply(cmd); err != nil {
			t.Fatalf("Apply(%T): %v", cmd, err)
		}
	}
}

func applyResolution(t *testing.T, w *World, res Resolution) {
	t.Helper()
	apply(t, w, res.Cmds...)
}
