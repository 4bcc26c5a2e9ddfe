package world

import (
	"errors"
	"testing"
)

func TestApply_MoveActorChecksPrecondition(t *testing.T) {
	w := newTestWorld(t, 1)
	addLevel(t, w, 1, flatLevel(8, 8))
	a := spawn(t, w, "HERO", "EXPLORER", 1, Point{X: 2, Y: 2})

	err := w.Apply(CmdMoveActor{Actor: a.ID, From: Point{X: 5, Y: 5}, To: Point{X: 6, Y: 5}})
	if !errors.Is(err, ErrFault) {
		t.Fatalf("stale From accepted: %v", err)
	}
	if a.Pos != (Point{X: 2, Y: 2}) {
		t.Fatalf("failed command mutated state")
	}

	a.Braced = true
	apply(t, w, CmdMoveActor{Actor: a.ID, From: a.Pos, To: Point{X: 3, Y: 2}})
	if a.Pos != (Point{X: 3, Y: 2}) || a.Braced {
		t.Fatalf("move: pos=%v braced=%v", a.Pos, a.Braced)
	}
}

func TestApply_HealClampsAndMarksDying(t *testing.T) {
	w := newTestWorld(t, 1)
	addLevel(t, w, 1, flatLevel(8, 8))
	a := spawn(t, w, "HERO", "EXPLORER", 1, Point{X: 2, Y: 2})

	apply(t, w, CmdHealActor{Actor: a.ID, Delta: 100})
	if a.HP != 20 {
		t.Fatalf("heal not clamped to kind max: %d", a.HP)
	}
	apply(t, w, CmdHealActor{Actor: a.ID, Delta: -20})
	if a.HP != 0 || !a.Dying {
		t.Fatalf("lethal damage: hp=%d dying=%v", a.HP, a.Dying)
	}
}

func TestApply_CalmClampsBothWays(t *testing.T) {
	w := newTestWorld(t, 1)
	addLevel(t, w, 1, flatLevel(8, 8))
	a := spawn(t, w, "HERO", "EXPLORER", 1, Point{X: 2, Y: 2})

	apply(t, w, CmdRefillCalm{Actor: a.ID, Delta: 1000})
	if a.Calm != 50 {
		t.Fatalf("calm above kind max: %d", a.Calm)
	}
	apply(t, w, CmdRefillCalm{Actor: a.ID, Delta: -1000})
	if a.Calm != 0 {
		t.Fatalf("calm below zero: %d", a.Calm)
	}
}

func TestApply_TileChangeVerifiesCurrentKind(t *testing.T) {
	w := newTestWorld(t, 1)
	addLevel(t, w, 1, flatLevel(8, 8))

	err := w.Apply(CmdAlterTile{Level: 1, Pos: Point{X: 3, Y: 3}, From: "DOOR_CLOSED", To: "DOOR_OPEN"})
	if !errors.Is(err, ErrFault) {
		t.Fatalf("mismatched From accepted: %v", err)
	}
	if got := w.Level(1).TileAt(Point{X: 3, Y: 3}); got != "FLOOR" {
		t.Fatalf("failed tile change mutated state: %s", got)
	}
}

func TestApply_CreateActorAssignsSequentialIDs(t *testing.T) {
	w := newTestWorld(t, 1)
	addLevel(t, w, 1, flatLevel(8, 8))

	apply(t, w,
		CmdCreateActor{Kind: "GRUNT", Faction: "HORDE", Level: 1, Pos: Point{X: 1, Y: 1}},
		CmdCreateActor{Kind: "GRUNT", Faction: "HORDE", Level: 1, Pos: Point{X: 2, Y: 1}},
	)
	if w.Actor("A1") == nil || w.Actor("A2") == nil {
		t.Fatalf("sequential IDs not assigned: %v", w.sortedActorIDs())
	}
	if w.Actor("A1").Ordinal >= w.Actor("A2").Ordinal {
		t.Fatalf("ordinals not increasing")
	}
}

func TestApply_SmellExpiryRemoval(t *testing.T) {
	w := newTestWorld(t, 1)
	lv := addLevel(t, w, 1, flatLevel(8, 8))
	p := Point{X: 4, Y: 4}

	apply(t, w, CmdSetSmell{Level: 1, Pos: p, Expiry: 60})
	if lv.Smell[p] != 60 {
		t.Fatalf("smell not recorded")
	}
	lv.Time = 60
	apply(t, w, CmdSetSmell{Level: 1, Pos: p, Expiry: 60})
	if _, ok := lv.Smell[p]; ok {
		t.Fatalf("expired smell not removed")
	}
}

func TestApply_MoveItemBetweenContainers(t *testing.T) {
	w := newTestWorld(t, 1)
	lv := addLevel(t, w, 1, flatLevel(8, 8))
	a := spawn(t, w, "HERO", "EXPLORER", 1, Point{X: 2, Y: 2})
	a.Pack["DAGGER"] = 1

	apply(t, w, CmdMoveItem{Actor: a.ID, Item: "DAGGER", From: CPack, To: CEquip, Count: 1})
	if a.Equip["DAGGER"] != 1 || a.Pack["DAGGER"] != 0 {
		t.Fatalf("wield failed: pack=%v equip=%v", a.Pack, a.Equip)
	}
	apply(t, w, CmdMoveItem{Actor: a.ID, Item: "DAGGER", From: CEquip, To: CGround, Count: 1})
	if lv.Ground[a.Pos]["DAGGER"] != 1 || len(a.Equip) != 0 {
		t.Fatalf("drop failed: equip=%v ground=%v", a.Equip, lv.Ground[a.Pos])
	}

	err := w.Apply(CmdDestroyItem{Actor: a.ID, Item: "DAGGER", From: CPack, Count: 1})
	if !errors.Is(err, ErrFault) {
		t.Fatalf("destroying a missing item accepted: %v", err)
	}
}
