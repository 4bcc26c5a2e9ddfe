package world

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"hollowdeep.dev/internal/sim/content"
)

// ErrFault wraps internal consistency violations: scheduler, perception or
// diplomacy invariants broken by a core bug. These halt the session with
// full diagnostic context; they are never surfaced as request failures.
var ErrFault = errors.New("internal consistency fault")

type Config struct {
	Seed                  int64
	ClipsPerTurn          int
	MaintenanceClipOffset int
	CalmGate              int
	CalmRegen             int
	SmellTurns            int
}

// World is the authoritative simulation state. All access happens on the
// loop driver goroutine; every component other than the executor treats it
// as read-only.
type World struct {
	cfg     Config
	content *content.Catalogs
	rng     *rand.Rand

	actors   map[ActorID]*Actor
	levels   map[LevelID]*Level
	factions map[FactionID]*Faction

	percepts map[percKey]*factionPercept

	nextActorNum uint64
}

func New(cfg Config, cats *content.Catalogs) (*World, error) {
	if cfg.ClipsPerTurn <= 2 {
		return nil, fmt.Errorf("clips per turn must be > 2, got %d", cfg.ClipsPerTurn)
	}
	w := &World{
		cfg:      cfg,
		content:  cats,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		actors:   map[ActorID]*Actor{},
		levels:   map[LevelID]*Level{},
		factions: map[FactionID]*Faction{},
		percepts: map[percKey]*factionPercept{},
	}
	for _, id := range sortedContentIDs(cats.Factions.Defs) {
		def := cats.Factions.Defs[id]
		w.factions[FactionID(id)] = &Faction{
			ID:        FactionID(id),
			Def:       def,
			Relations: map[FactionID]Diplomacy{},
		}
	}
	// Session-start configuration is the only place alliances are set.
	for _, id := range sortedContentIDs(cats.Factions.Defs) {
		for _, ally := range cats.Factions.Defs[id].Alliances {
			if err := w.SetRelation(FactionID(id), FactionID(ally), DiplAlliance); err != nil {
				return nil, err
			}
		}
	}
	return w, nil
}

func (w *World) Config() Config               { return w.cfg }
func (w *World) Content() *content.Catalogs   { return w.content }
func (w *World) Faction(id FactionID) *Faction { return w.factions[id] }
func (w *World) Actor(id ActorID) *Actor      { return w.actors[id] }
func (w *World) Level(id LevelID) *Level      { return w.levels[id] }

// LevelPlan is what the (external) generator supplies once per level.
type LevelPlan struct {
	Width  int
	Height int
	Tiles  []string
	Items  []ItemPlacement
	Actors []ActorPlacement
}

type ItemPlacement struct {
	Pos   Point
	Item  string
	Count int
}

type ActorPlacement struct {
	Pos     Point
	Kind    string
	Faction FactionID
	Leader  bool
	Pack    map[string]int
	Equip   map[string]int
	Organs  map[string]int
}

// AddLevel installs a generated level and populates it. Consumed once per
// depth at first visit.
func (w *World) AddLevel(id LevelID, plan LevelPlan) error {
	if _, ok := w.levels[id]; ok {
		return fmt.Errorf("level %d already exists", id)
	}
	if len(plan.Tiles) != plan.Width*plan.Height {
		return fmt.Errorf("level %d: tile count %d != %dx%d", id, len(plan.Tiles), plan.Width, plan.Height)
	}
	for _, t := range plan.Tiles {
		if _, ok := w.content.Tiles.Defs[t]; !ok {
			return fmt.Errorf("level %d: unknown tile kind %q", id, t)
		}
	}
	lv := &Level{
		ID:     id,
		Width:  plan.Width,
		Height: plan.Height,
		Tiles:  append([]string(nil), plan.Tiles...),
		Smell:  map[Point]Time{},
		Ground: map[Point]map[string]int{},
		Queue:  map[ActorID]Time{},
	}
	w.levels[id] = lv

	for _, ip := range plan.Items {
		if _, ok := w.content.Items.Defs[ip.Item]; !ok {
			return fmt.Errorf("level %d: unknown item kind %q", id, ip.Item)
		}
		lv.addGround(ip.Pos, ip.Item, ip.Count)
	}
	for _, ap := range plan.Actors {
		a, err := w.createActor(ap.Kind, ap.Faction, id, ap.Pos, "", nil, lv.Time)
		if err != nil {
			return err
		}
		for item, n := range ap.Pack {
			a.Pack[item] = n
		}
		for item, n := range ap.Equip {
			a.Equip[item] = n
		}
		for item, n := range ap.Organs {
			a.Organs[item] = n
		}
		if ap.Leader {
			w.factions[ap.Faction].Leader = a.ID
		}
	}
	return nil
}

// createActor registers a new actor and schedules it. Used by AddLevel for
// initial population and by the executor for CmdCreateActor.
func (w *World) createActor(kind string, faction FactionID, level LevelID, pos Point, item string, traj []Vec, start Time) (*Actor, error) {
	def, ok := w.content.Actors.Defs[kind]
	if !ok {
		return nil, fmt.Errorf("unknown actor kind %q", kind)
	}
	if w.factions[faction] == nil {
		return nil, fmt.Errorf("unknown faction %q", faction)
	}
	lv := w.levels[level]
	if lv == nil {
		return nil, fmt.Errorf("unknown level %d", level)
	}
	w.nextActorNum++
	a := &Actor{
		ID:          ActorID(fmt.Sprintf("A%d", w.nextActorNum)),
		Kind:        kind,
		Faction:     faction,
		Level:       level,
		Pos:         pos,
		HP:          def.HP,
		Calm:        def.Calm,
		NextTime:    start,
		Projectile:  kind == content.ProjectileKind,
		Trajectory:  traj,
		CarriedItem: item,
		Ordinal:     w.nextActorNum,
	}
	a.initContainers()
	w.actors[a.ID] = a
	lv.Queue[a.ID] = a.NextTime
	w.percOnActorCreated(a)
	return a, nil
}

// destroyActor drops held items to the ground and removes the actor from
// state and scheduling. Leader succession is deterministic by ordinal.
func (w *World) destroyActor(a *Actor) {
	lv := w.levels[a.Level]
	for _, c := range []map[string]int{a.Pack, a.Equip} {
		for _, item := range sortedItemIDs(c) {
			lv.addGround(a.Pos, item, c[item])
		}
	}
	if a.CarriedItem != "" {
		lv.addGround(a.Pos, a.CarriedItem, 1)
	}
	delete(lv.Queue, a.ID)
	delete(w.actors, a.ID)
	w.percOnActorDestroyed(a)

	f := w.factions[a.Faction]
	if f.Leader == a.ID {
		f.Leader = ""
		var next *Actor
		for _, id := range w.sortedActorIDs() {
			m := w.actors[id]
			if m.Faction == a.Faction && !m.Projectile && !m.Dying {
				if next == nil || m.Ordinal < next.Ordinal {
					next = m
				}
			}
		}
		if next != nil {
			f.Leader = next.ID
		}
	}
}

// occupantsAt returns all actors at p on level, sorted by ordinal.
func (w *World) occupantsAt(level LevelID, p Point) []*Actor {
	var out []*Actor
	for _, id := range w.sortedActorIDs() {
		a := w.actors[id]
		if a.Level == level && a.Pos == p {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out
}

func (w *World) tileDef(lv *Level, p Point) content.TileDef {
	return w.content.Tiles.Defs[lv.TileAt(p)]
}

// accessible reports whether p is walkable and unoccupied.
func (w *World) accessible(level LevelID, p Point) bool {
	lv := w.levels[level]
	if !lv.InBounds(p) {
		return false
	}
	if !w.tileDef(lv, p).Walkable {
		return false
	}
	return len(w.occupantsAt(level, p)) == 0
}

// speedOf is the actor kind's time delta between actions.
func (w *World) speedOf(kind string) Time {
	if d := w.content.Actors.Defs[kind]; d.Speed > 0 {
		return Time(d.Speed)
	}
	return DeltasPerClip
}

func (w *World) maxHP(kind string) int   { return w.content.Actors.Defs[kind].HP }
func (w *World) maxCalm(kind string) int { return w.content.Actors.Defs[kind].Calm }

// Arenas are the levels hosting a faction leader; they receive per-clip
// processing. With no leaders anywhere, every populated level is active.
func (w *World) Arenas() []LevelID {
	seen := map[LevelID]bool{}
	for _, fid := range w.sortedFactionIDs() {
		f := w.factions[fid]
		if f.Leader == "" || f.Gone {
			continue
		}
		if a := w.actors[f.Leader]; a != nil {
			seen[a.Level] = true
		}
	}
	if len(seen) == 0 {
		for _, id := range w.sortedActorIDs() {
			seen[w.actors[id].Level] = true
		}
	}
	out := make([]LevelID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (w *World) sortedActorIDs() []ActorID {
	ids := make([]ActorID, 0, len(w.actors))
	for id := range w.actors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return w.actors[ids[i]].Ordinal < w.actors[ids[j]].Ordinal })
	return ids
}

func (w *World) sortedLevelIDs() []LevelID {
	ids := make([]LevelID, 0, len(w.levels))
	for id := range w.levels {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (w *World) sortedFactionIDs() []FactionID {
	ids := make([]FactionID, 0, len(w.factions))
	for id := range w.factions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedContentIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedItemIDs(m map[string]int) []string {
	return sortedContentIDs(m)
}
