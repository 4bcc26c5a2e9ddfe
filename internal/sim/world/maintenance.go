package world

// Maintenance runs once per turn, on the dedicated clip between actor
// clips. It emits regular Commands so the journal and observer streams see
// upkeep the same way they see actor-initiated changes.
func (w *World) Maintenance(active []LevelID) ([]Command, []Notice) {
	var cmds []Command
	var notices []Notice

	activeSet := map[LevelID]bool{}
	for _, id := range active {
		activeSet[id] = true
	}

	for _, id := range w.sortedActorIDs() {
		a := w.actors[id]
		if !activeSet[a.Level] || a.Projectile || a.Dying {
			continue
		}
		if a.Calm < w.maxCalm(a.Kind) {
			cmds = append(cmds, CmdRefillCalm{Actor: a.ID, Delta: w.cfg.CalmRegen})
		}
		cmds = append(cmds, w.rechargeCommands(a)...)
	}

	for _, lid := range active {
		cmds = append(cmds, w.smellDecay(lid)...)
	}

	if cmd, n, ok := w.spawnCommand(active); ok {
		cmds = append(cmds, cmd)
		notices = append(notices, n)
	}
	return cmds, notices
}

// rechargeCommands fires the periodic items an actor wears or has grown.
// Only restorative effects run on the upkeep path; a damaging effect on a
// periodic item is inert here.
func (w *World) rechargeCommands(a *Actor) []Command {
	var out []Command
	for _, held := range []map[string]int{a.Organs, a.Equip} {
		for _, item := range sortedItemIDs(held) {
			def := w.content.Items.Defs[item]
			if !def.Periodic {
				continue
			}
			for _, eff := range def.Effects {
				if eff.Damaging() {
					continue
				}
				out = append(out, effectCommands(a.ID, eff)...)
			}
		}
	}
	return out
}

func (w *World) smellDecay(lid LevelID) []Command {
	lv := w.levels[lid]
	var expired []Point
	for p, expiry := range lv.Smell {
		if expiry <= lv.Time {
			expired = append(expired, p)
		}
	}
	sortPoints(expired)
	out := make([]Command, 0, len(expired))
	for _, p := range expired {
		out = append(out, CmdSetSmell{Level: lid, Pos: p, Expiry: lv.Smell[p]})
	}
	return out
}

// spawnCommand picks exactly one active level per turn and places a new
// monster on it, drawn from the hostile factions' spawn tables. No spawn
// happens when the chosen level has no free spot or no hostile faction has
// anything to spawn.
func (w *World) spawnCommand(active []LevelID) (Command, Notice, bool) {
	if len(active) == 0 {
		return nil, Notice{}, false
	}
	lid := active[w.rng.Intn(len(active))]

	var pool []spawnChoice
	for _, fid := range w.sortedFactionIDs() {
		f := w.factions[fid]
		if !f.Def.Hostile || f.Gone {
			continue
		}
		for _, kind := range f.Def.SpawnKinds {
			pool = append(pool, spawnChoice{Faction: fid, Kind: kind})
		}
	}
	if len(pool) == 0 {
		return nil, Notice{}, false
	}
	choice := pool[w.rng.Intn(len(pool))]

	spot, ok := w.freeSpot(lid)
	if !ok {
		return nil, Notice{}, false
	}
	lv := w.levels[lid]
	cmd := CmdCreateActor{
		Kind:    choice.Kind,
		Faction: choice.Faction,
		Level:   lid,
		Pos:     spot,
		Start:   lv.Time,
	}
	n := Notice{Kind: NoticeSpawn, Pos: spot, Text: choice.Kind, Level: lid}
	return cmd, n, true
}

type spawnChoice struct {
	Faction FactionID
	Kind    string
}

// freeSpot picks a random accessible position, preferring ones nobody
// currently watches.
func (w *World) freeSpot(lid LevelID) (Point, bool) {
	lv := w.levels[lid]
	var open, unseen []Point
	for y := 0; y < lv.Height; y++ {
		for x := 0; x < lv.Width; x++ {
			p := Point{X: x, Y: y}
			if !w.accessible(lid, p) {
				continue
			}
			open = append(open, p)
			if !w.anyoneSees(lid, p) {
				unseen = append(unseen, p)
			}
		}
	}
	if len(unseen) > 0 {
		return unseen[w.rng.Intn(len(unseen))], true
	}
	if len(open) > 0 {
		return open[w.rng.Intn(len(open))], true
	}
	return Point{}, false
}

func (w *World) anyoneSees(lid LevelID, p Point) bool {
	for _, fid := range w.sortedFactionIDs() {
		if w.factions[fid].Def.Hostile {
			continue
		}
		if w.PerceptionOf(fid, lid).Positions[p] {
			return true
		}
	}
	return false
}
