package world

import (
	"fmt"
	"math/rand"
)

// Snapshot is the JSON-able image of authoritative state, written to the
// save store at turn boundaries. Map-keyed structures are flattened to
// slices so they serialize deterministically.
type Snapshot struct {
	Clip         int64          `json:"clip"`
	Seed         int64          `json:"seed"`
	NextActorNum uint64         `json:"next_actor_num"`
	Levels       []LevelSnap    `json:"levels"`
	Actors       []ActorSnap    `json:"actors"`
	Factions     []FactionSnap  `json:"factions"`
}

type LevelSnap struct {
	ID     int          `json:"id"`
	Width  int          `json:"width"`
	Height int          `json:"height"`
	Time   int64        `json:"time"`
	Tiles  []string     `json:"tiles"`
	Smell  []SmellSnap  `json:"smell,omitempty"`
	Ground []GroundSnap `json:"ground,omitempty"`
}

type SmellSnap struct {
	Pos    [2]int `json:"pos"`
	Expiry int64  `json:"expiry"`
}

type GroundSnap struct {
	Pos   [2]int         `json:"pos"`
	Items map[string]int `json:"items"`
}

type ActorSnap struct {
	ID          string         `json:"id"`
	Kind        string         `json:"kind"`
	Faction     string         `json:"faction"`
	Level       int            `json:"level"`
	Pos         [2]int         `json:"pos"`
	HP          int            `json:"hp"`
	Calm        int            `json:"calm"`
	NextTime    int64          `json:"next_time"`
	Braced      bool           `json:"braced,omitempty"`
	Dying       bool           `json:"dying,omitempty"`
	Projectile  bool           `json:"projectile,omitempty"`
	Trajectory  [][2]int       `json:"trajectory,omitempty"`
	CarriedItem string         `json:"carried_item,omitempty"`
	Pack        map[string]int `json:"pack,omitempty"`
	Equip       map[string]int `json:"equip,omitempty"`
	Organs      map[string]int `json:"organs,omitempty"`
	Ordinal     uint64         `json:"ordinal"`
}

type FactionSnap struct {
	ID        string            `json:"id"`
	Leader    string            `json:"leader,omitempty"`
	Gone      bool              `json:"gone,omitempty"`
	Auto      bool              `json:"auto,omitempty"`
	Relations map[string]string `json:"relations,omitempty"`
}

// ExportSnapshot captures the full state at a quiescent point (between
// actor resolutions).
func (w *World) ExportSnapshot(clip int64) *Snapshot {
	snap := &Snapshot{Clip: clip, Seed: w.cfg.Seed, NextActorNum: w.nextActorNum}

	for _, lid := range w.sortedLevelIDs() {
		lv := w.levels[lid]
		ls := LevelSnap{
			ID:     int(lid),
			Width:  lv.Width,
			Height: lv.Height,
			Time:   int64(lv.Time),
			Tiles:  append([]string(nil), lv.Tiles...),
		}
		pts := make([]Point, 0, len(lv.Smell))
		for p := range lv.Smell {
			pts = append(pts, p)
		}
		sortPoints(pts)
		for _, p := range pts {
			ls.Smell = append(ls.Smell, SmellSnap{Pos: p.ToArray(), Expiry: int64(lv.Smell[p])})
		}
		pts = pts[:0]
		for p := range lv.Ground {
			pts = append(pts, p)
		}
		sortPoints(pts)
		for _, p := range pts {
			items := map[string]int{}
			for item, n := range lv.Ground[p] {
				items[item] = n
			}
			ls.Ground = append(ls.Ground, GroundSnap{Pos: p.ToArray(), Items: items})
		}
		snap.Levels = append(snap.Levels, ls)
	}

	for _, id := range w.sortedActorIDs() {
		a := w.actors[id]
		as := ActorSnap{
			ID:          string(a.ID),
			Kind:        a.Kind,
			Faction:     string(a.Faction),
			Level:       int(a.Level),
			Pos:         a.Pos.ToArray(),
			HP:          a.HP,
			Calm:        a.Calm,
			NextTime:    int64(a.NextTime),
			Braced:      a.Braced,
			Dying:       a.Dying,
			Projectile:  a.Projectile,
			CarriedItem: a.CarriedItem,
			Pack:        copyCounts(a.Pack),
			Equip:       copyCounts(a.Equip),
			Organs:      copyCounts(a.Organs),
			Ordinal:     a.Ordinal,
		}
		for _, v := range a.Trajectory {
			as.Trajectory = append(as.Trajectory, [2]int{v.DX, v.DY})
		}
		snap.Actors = append(snap.Actors, as)
	}

	for _, fid := range w.sortedFactionIDs() {
		f := w.factions[fid]
		fs := FactionSnap{ID: string(fid), Leader: string(f.Leader), Gone: f.Gone, Auto: f.Auto}
		if len(f.Relations) > 0 {
			fs.Relations = map[string]string{}
			for other, d := range f.Relations {
				fs.Relations[string(other)] = d.String()
			}
		}
		snap.Factions = append(snap.Factions, fs)
	}
	return snap
}

// ImportSnapshot replaces all state with the snapshot's. The random
// stream is reseeded from seed and clip: draws after a restore are valid
// but not the draws the original session would have made.
func (w *World) ImportSnapshot(snap *Snapshot) error {
	if snap.Seed != w.cfg.Seed {
		return fmt.Errorf("snapshot seed %d != world seed %d", snap.Seed, w.cfg.Seed)
	}
	w.actors = map[ActorID]*Actor{}
	w.levels = map[LevelID]*Level{}
	w.percepts = map[percKey]*factionPercept{}
	w.nextActorNum = snap.NextActorNum
	w.rng = rand.New(rand.NewSource(snap.Seed ^ snap.Clip))

	for _, ls := range snap.Levels {
		if len(ls.Tiles) != ls.Width*ls.Height {
			return fmt.Errorf("level %d: tile count %d != %dx%d", ls.ID, len(ls.Tiles), ls.Width, ls.Height)
		}
		lv := &Level{
			ID:     LevelID(ls.ID),
			Width:  ls.Width,
			Height: ls.Height,
			Time:   Time(ls.Time),
			Tiles:  append([]string(nil), ls.Tiles...),
			Smell:  map[Point]Time{},
			Ground: map[Point]map[string]int{},
			Queue:  map[ActorID]Time{},
		}
		for _, s := range ls.Smell {
			lv.Smell[Point{X: s.Pos[0], Y: s.Pos[1]}] = Time(s.Expiry)
		}
		for _, g := range ls.Ground {
			for item, n := range g.Items {
				lv.addGround(Point{X: g.Pos[0], Y: g.Pos[1]}, item, n)
			}
		}
		w.levels[lv.ID] = lv
	}

	for _, as := range snap.Actors {
		lv := w.levels[LevelID(as.Level)]
		if lv == nil {
			return fmt.Errorf("actor %s on missing level %d", as.ID, as.Level)
		}
		a := &Actor{
			ID:          ActorID(as.ID),
			Kind:        as.Kind,
			Faction:     FactionID(as.Faction),
			Level:       LevelID(as.Level),
			Pos:         Point{X: as.Pos[0], Y: as.Pos[1]},
			HP:          as.HP,
			Calm:        as.Calm,
			NextTime:    Time(as.NextTime),
			Braced:      as.Braced,
			Dying:       as.Dying,
			Projectile:  as.Projectile,
			CarriedItem: as.CarriedItem,
			Pack:        copyCounts(as.Pack),
			Equip:       copyCounts(as.Equip),
			Organs:      copyCounts(as.Organs),
			Ordinal:     as.Ordinal,
		}
		a.initContainers()
		for _, v := range as.Trajectory {
			a.Trajectory = append(a.Trajectory, Vec{DX: v[0], DY: v[1]})
		}
		if w.factions[a.Faction] == nil {
			return fmt.Errorf("actor %s in unknown faction %s", as.ID, as.Faction)
		}
		w.actors[a.ID] = a
		lv.Queue[a.ID] = a.NextTime
	}

	for _, fs := range snap.Factions {
		f := w.factions[FactionID(fs.ID)]
		if f == nil {
			return fmt.Errorf("snapshot names unknown faction %s", fs.ID)
		}
		f.Leader = ActorID(fs.Leader)
		f.Gone = fs.Gone
		f.Auto = fs.Auto
		f.Relations = map[FactionID]Diplomacy{}
		for other, s := range fs.Relations {
			d, err := ParseDiplomacy(s)
			if err != nil {
				return err
			}
			f.Relations[FactionID(other)] = d
		}
	}
	return w.CheckDiplomacy()
}

func copyCounts(m map[string]int) map[string]int {
	if len(m) == 0 {
		return map[string]int{}
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
