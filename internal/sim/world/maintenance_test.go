package world

import (
	"testing"

	"hollowdeep.dev/internal/protocol"
)

func TestMaintenance_SpawnsOnExactlyOneActiveLevel(t *testing.T) {
	w := newTestWorld(t, 7)
	for id := LevelID(1); id <= 3; id++ {
		addLevel(t, w, id, flatLevel(10, 10))
		spawn(t, w, "HERO", "EXPLORER", id, Point{X: 2, Y: 2})
	}

	for round := 0; round < 10; round++ {
		cmds, _ := w.Maintenance([]LevelID{1, 2, 3})
		spawns := 0
		for _, cmd := range cmds {
			if c, ok := cmd.(CmdCreateActor); ok {
				spawns++
				if c.Faction != "HORDE" || c.Kind != "GRUNT" {
					t.Fatalf("spawned %s/%s, want HORDE GRUNT", c.Faction, c.Kind)
				}
			}
		}
		if spawns != 1 {
			t.Fatalf("round %d: %d spawns, want exactly 1 across all levels", round, spawns)
		}
	}
}

type eventRecorder struct {
	events map[FactionID][]protocol.EventMsg
}

func (e *eventRecorder) Event(f FactionID, ev protocol.EventMsg) {
	if e.events == nil {
		e.events = map[FactionID][]protocol.EventMsg{}
	}
	e.events[f] = append(e.events[f], ev)
}

func (e *eventRecorder) Failure(FactionID, protocol.FailureMsg) {}

func TestMaintenance_BroadcastsSpawnNotice(t *testing.T) {
	w := newTestWorld(t, 3)
	// Small enough that the HERO watches every tile, so the spawn cannot
	// hide from its perception.
	addLevel(t, w, 1, flatLevel(5, 5))
	spawn(t, w, "HERO", "EXPLORER", 1, Point{X: 2, Y: 2})

	events := &eventRecorder{}
	sess := &Session{World: w, Events: events}
	if err := sess.runMaintenance(0, []LevelID{1}); err != nil {
		t.Fatalf("maintenance: %v", err)
	}

	found := false
	for _, ev := range events.events["EXPLORER"] {
		if ev.Entry.Notice == NoticeSpawn {
			found = true
			if ev.Level != 1 {
				t.Fatalf("spawn notice on level %d, want 1", ev.Level)
			}
		}
	}
	if !found {
		t.Fatalf("spawn notice never reached the watching faction: %+v", events.events)
	}
}

func TestMaintenance_PeriodicItemsSkipDamagingEffects(t *testing.T) {
	w := newTestWorld(t, 1)
	addLevel(t, w, 1, flatLevel(8, 8))
	a := spawn(t, w, "HERO", "EXPLORER", 1, Point{X: 2, Y: 2})
	a.Organs["CHARM_CALM"] = 1
	a.Calm = 10

	cmds, _ := w.Maintenance([]LevelID{1})
	for _, cmd := range cmds {
		if c, ok := cmd.(CmdHealActor); ok && c.Delta < 0 {
			t.Fatalf("periodic recharge dealt damage: %#v", c)
		}
	}
	calmBoost := 0
	for _, cmd := range cmds {
		if c, ok := cmd.(CmdRefillCalm); ok && c.Actor == a.ID {
			calmBoost += c.Delta
		}
	}
	// Per-turn regen plus the charm's CALM effect.
	if want := w.cfg.CalmRegen + 2; calmBoost != want {
		t.Fatalf("calm boost %d, want %d", calmBoost, want)
	}
}

func TestMaintenance_SkipsInactiveLevelsAndProjectiles(t *testing.T) {
	w := newTestWorld(t, 1)
	addLevel(t, w, 1, flatLevel(8, 8))
	addLevel(t, w, 2, flatLevel(8, 8))
	idle := spawn(t, w, "HERO", "EXPLORER", 2, Point{X: 2, Y: 2})
	idle.Calm = 1
	shard, err := w.createActor("PROJECTILE", "EXPLORER", 1, Point{X: 3, Y: 3}, "ROCK_SHARD", []Vec{{DX: 1}}, 0)
	if err != nil {
		t.Fatalf("createActor: %v", err)
	}

	cmds, _ := w.Maintenance([]LevelID{1})
	for _, cmd := range cmds {
		if c, ok := cmd.(CmdRefillCalm); ok && (c.Actor == idle.ID || c.Actor == shard.ID) {
			t.Fatalf("maintenance touched inactive or projectile actor: %#v", c)
		}
	}
}

func TestMaintenance_DecaysExpiredSmell(t *testing.T) {
	w := newTestWorld(t, 1)
	lv := addLevel(t, w, 1, flatLevel(8, 8))
	lv.Time = 100
	lv.Smell[Point{X: 1, Y: 1}] = 90  // expired
	lv.Smell[Point{X: 2, Y: 2}] = 200 // fresh

	cmds, _ := w.Maintenance([]LevelID{1})
	apply(t, w, cmds...)
	if _, ok := lv.Smell[Point{X: 1, Y: 1}]; ok {
		t.Fatalf("expired smell survived maintenance")
	}
	if lv.Smell[Point{X: 2, Y: 2}] != 200 {
		t.Fatalf("fresh smell lost")
	}
}
