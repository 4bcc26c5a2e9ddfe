package world

import (
	"fmt"
	"sort"
)

// Perception is what one faction currently sees on one level: the union of
// its members' fields of view, plus the actors standing inside it.
type Perception struct {
	Positions map[Point]bool
	Actors    map[ActorID]bool
}

func (p *Perception) Equal(q *Perception) bool {
	if len(p.Positions) != len(q.Positions) || len(p.Actors) != len(q.Actors) {
		return false
	}
	for pos := range p.Positions {
		if !q.Positions[pos] {
			return false
		}
	}
	for id := range p.Actors {
		if !q.Actors[id] {
			return false
		}
	}
	return true
}

type percKey struct {
	Faction FactionID
	Level   LevelID
}

// factionPercept caches one faction's view of one level. Member FOVs are
// maintained incrementally: only the moved actor's contribution is
// recomputed, and the union is rebuilt lazily.
type factionPercept struct {
	perActor map[ActorID]map[Point]bool
	total    *Perception
	dirty    bool
}

func (w *World) percept(key percKey) *factionPercept {
	fp := w.percepts[key]
	if fp == nil {
		fp = &factionPercept{perActor: map[ActorID]map[Point]bool{}, dirty: true}
		w.percepts[key] = fp
	}
	return fp
}

// PerceptionOf returns the current perception for (faction, level),
// rebuilding from cached member FOVs if anything changed.
func (w *World) PerceptionOf(f FactionID, l LevelID) *Perception {
	fp := w.percept(percKey{Faction: f, Level: l})
	if fp.dirty || fp.total == nil {
		fp.total = w.assemblePerception(f, l, fp)
		fp.dirty = false
	}
	return fp.total
}

func (w *World) assemblePerception(f FactionID, l LevelID, fp *factionPercept) *Perception {
	lv := w.levels[l]
	out := &Perception{Positions: map[Point]bool{}, Actors: map[ActorID]bool{}}
	if lv == nil {
		return out
	}
	for _, id := range w.sortedActorIDs() {
		a := w.actors[id]
		if a.Faction != f || a.Level != l {
			continue
		}
		fov := fp.perActor[id]
		if fov == nil {
			fov = w.fovFrom(lv, a.Pos, w.content.Actors.Defs[a.Kind].Sight)
			fp.perActor[id] = fov
		}
		for pos := range fov {
			out.Positions[pos] = true
		}
	}
	for _, id := range w.sortedActorIDs() {
		a := w.actors[id]
		if a.Level == l && out.Positions[a.Pos] {
			out.Actors[id] = true
		}
	}
	return out
}

// percOnActorMoved invalidates the mover's cached FOV and dirties every
// faction's view of the level (other factions may gain or lose sight of
// the mover).
func (w *World) percOnActorMoved(a *Actor) {
	for key, fp := range w.percepts {
		if key.Level != a.Level {
			continue
		}
		fp.dirty = true
		if key.Faction == a.Faction {
			delete(fp.perActor, a.ID)
		}
	}
	// Ensure the mover's faction has a percept to rebuild.
	w.percept(percKey{Faction: a.Faction, Level: a.Level}).dirty = true
}

func (w *World) percOnActorCreated(a *Actor) { w.percOnActorMoved(a) }

func (w *World) percOnActorDestroyed(a *Actor) {
	for key, fp := range w.percepts {
		if key.Level != a.Level {
			continue
		}
		fp.dirty = true
		delete(fp.perActor, a.ID)
	}
}

// percOnOpacityChange drops all cached FOVs on the level: any member's
// sight line may cross the altered tile.
func (w *World) percOnOpacityChange(l LevelID) {
	for key, fp := range w.percepts {
		if key.Level != l {
			continue
		}
		fp.perActor = map[ActorID]map[Point]bool{}
		fp.dirty = true
	}
}

// fovFrom computes one actor's field of view: positions within the sight
// radius whose sight line crosses only clear tiles.
func (w *World) fovFrom(lv *Level, origin Point, radius int) map[Point]bool {
	out := map[Point]bool{origin: true}
	if radius <= 0 {
		return out
	}
	for y := origin.Y - radius; y <= origin.Y+radius; y++ {
		for x := origin.X - radius; x <= origin.X+radius; x++ {
			p := Point{X: x, Y: y}
			if p == origin || !lv.InBounds(p) {
				continue
			}
			if ChessDist(origin, p) > radius {
				continue
			}
			if w.sightClear(lv, origin, p) {
				out[p] = true
			}
		}
	}
	return out
}

// sightClear reports whether every tile strictly between origin and p is
// clear. The endpoint itself may be opaque (walls are visible).
func (w *World) sightClear(lv *Level, origin, p Point) bool {
	path := LineTo(origin, p, 0)
	for i := 0; i < len(path)-1; i++ {
		if !w.content.Tiles.Defs[lv.TileAt(path[i])].Clear {
			return false
		}
	}
	return true
}

// ScratchPerception recomputes a faction's view of a level from scratch,
// bypassing all caches.
func (w *World) ScratchPerception(f FactionID, l LevelID) *Perception {
	scratch := &factionPercept{perActor: map[ActorID]map[Point]bool{}}
	return w.assemblePerception(f, l, scratch)
}

// CheckPerceptions compares every maintained perception against a full
// from-scratch recomputation. Mandatory at shutdown; a mismatch is an
// internal fault, not a user-facing error.
func (w *World) CheckPerceptions() error {
	keys := make([]percKey, 0, len(w.percepts))
	for key := range w.percepts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Faction != keys[j].Faction {
			return keys[i].Faction < keys[j].Faction
		}
		return keys[i].Level < keys[j].Level
	})
	for _, key := range keys {
		got := w.PerceptionOf(key.Faction, key.Level)
		want := w.ScratchPerception(key.Faction, key.Level)
		if !got.Equal(want) {
			return fmt.Errorf("%w: perception mismatch for faction %s level %d: incremental %d pos/%d actors, scratch %d pos/%d actors",
				ErrFault, key.Faction, key.Level,
				len(got.Positions), len(got.Actors), len(want.Positions), len(want.Actors))
		}
	}
	return nil
}
