package world

import (
	"hollowdeep.dev/internal/protocol"

	"hollowdeep.dev/internal/sim/content"
)

// Resolution is the outcome of validating one Request: either a Command
// sequence (plus cosmetic notices), or a typed failure. A failure with
// commands attached can only come out of in-flight trajectory handling,
// where the fall itself still has to happen.
type Resolution struct {
	Cmds    []Command
	Notices []Notice
	Fail    string
}

func failWith(code string) Resolution { return Resolution{Fail: code} }

// Resolve validates req for actor a against current authoritative state
// and produces the Commands implementing it. It reads only present state,
// never relying on commands issued earlier in the same resolution.
// Any request other than Wait breaks an existing brace.
func (w *World) Resolve(a *Actor, req Request) Resolution {
	res := w.resolveRequest(a, req)
	if _, wait := req.(ReqWait); !wait && a.Braced {
		res.Cmds = append([]Command{CmdSetWait{Actor: a.ID, Braced: false}}, res.Cmds...)
	}
	return res
}

func (w *World) resolveRequest(a *Actor, req Request) Resolution {
	switch r := req.(type) {
	case ReqMove:
		return w.resolveMove(a, r.Dir)
	case ReqMelee:
		return w.resolveMelee(a, r.Target)
	case ReqDisplace:
		return w.resolveDisplace(a, r.Target)
	case ReqAlter:
		return w.resolveAlter(a, r.Pos, r.Feature)
	case ReqWait:
		return Resolution{Cmds: []Command{CmdSetWait{Actor: a.ID, Braced: true}}}
	case ReqMoveItem:
		return w.resolveMoveItem(a, r)
	case ReqProject:
		return w.resolveProject(a, r)
	case ReqApply:
		return w.resolveApply(a, r)
	case ReqTrigger:
		return w.resolveTrigger(a, r.Feature)
	case ReqSetTrajectory:
		return w.resolveSetTrajectory(a)
	}
	return failWith(protocol.ErrProtoBadRequest)
}

func (w *World) resolveMove(a *Actor, dir Vec) Resolution {
	lv := w.levels[a.Level]
	tpos := a.Pos.Add(dir)
	if !lv.InBounds(tpos) {
		return failWith(protocol.FailMoveBlocked)
	}
	if occs := w.occupantsAt(a.Level, tpos); len(occs) > 0 {
		tgt := occs[0]
		for _, o := range occs {
			if !o.Projectile {
				tgt = o
				break
			}
		}
		// Bumping into an occupant is an attack, unless two projectiles
		// cross paths.
		if !a.Projectile || !tgt.Projectile {
			return w.resolveMelee(a, tgt.ID)
		}
		return failWith(protocol.FailMoveBlocked)
	}
	if !w.tileDef(lv, tpos).Walkable {
		return failWith(protocol.FailMoveBlocked)
	}
	res := Resolution{Cmds: []Command{CmdMoveActor{Actor: a.ID, From: a.Pos, To: tpos}}}
	if cmd, ok := w.smellTrail(a, tpos); ok {
		res.Cmds = append(res.Cmds, cmd)
	}
	return res
}

// smellTrail emits the smell update left behind by walking actors. Silent
// kinds and projectiles leave none.
func (w *World) smellTrail(a *Actor, at Point) (Command, bool) {
	if a.Projectile || w.content.Actors.Defs[a.Kind].Silent {
		return nil, false
	}
	lv := w.levels[a.Level]
	turn := Time(w.cfg.ClipsPerTurn) * DeltasPerClip
	return CmdSetSmell{Level: a.Level, Pos: at, Expiry: lv.Time + Time(w.cfg.SmellTurns)*turn}, true
}

func (w *World) resolveMelee(a *Actor, target ActorID) Resolution {
	t := w.actors[target]
	if t == nil {
		return failWith(protocol.FailMeleeDistant)
	}
	if t.ID == a.ID {
		return failWith(protocol.FailMeleeSelf)
	}
	if t.Level != a.Level || ChessDist(a.Pos, t.Pos) != 1 {
		return failWith(protocol.FailMeleeDistant)
	}

	weapon := w.bestWeapon(a)
	res := Resolution{}

	blocked := t.Braced && !t.Projectile && t.HP > 0 && w.rng.Intn(2) == 0
	if blocked {
		res.Notices = append(res.Notices, Notice{Kind: NoticeBlock, Actor: a.ID, Target: t.ID, Pos: t.Pos, Item: weapon.ID})
	} else {
		res.Notices = append(res.Notices, Notice{Kind: NoticeStrike, Actor: a.ID, Target: t.ID, Pos: t.Pos, Item: weapon.ID})
		if weapon.Damage > 0 {
			res.Cmds = append(res.Cmds, CmdHealActor{Actor: t.ID, Delta: -weapon.Damage})
		}
		res.Cmds = append(res.Cmds, CmdRefillCalm{Actor: t.ID, Delta: -5})
		// A thrown item delivers its effects on impact.
		if a.Projectile {
			for _, eff := range weapon.Effects {
				res.Cmds = append(res.Cmds, effectCommands(t.ID, eff)...)
			}
		}
	}

	// An intentional blow means war. Projectile hits are unintentional
	// from the thrower's faction standpoint, and same-faction scuffles
	// never escalate.
	if a.Faction != t.Faction && !a.Projectile && w.Relation(a.Faction, t.Faction) != DiplWar {
		res.Cmds = append(res.Cmds, CmdChangeDiplomacy{A: a.Faction, B: t.Faction, Rel: DiplWar})
	}
	return res
}

// bestWeapon picks the striking weapon. A projectile strikes with the item
// it carries; anyone else uses the highest-damage equipped weapon or the
// faction's hand-to-hand fallback.
func (w *World) bestWeapon(a *Actor) content.ItemDef {
	if a.Projectile && a.CarriedItem != "" {
		return w.content.Items.Defs[a.CarriedItem]
	}
	var best content.ItemDef
	found := false
	for _, id := range sortedItemIDs(a.Equip) {
		def := w.content.Items.Defs[id]
		if !def.Weapon || a.Equip[id] <= 0 {
			continue
		}
		if !found || def.Damage > best.Damage {
			best = def
			found = true
		}
	}
	if found {
		return best
	}
	return w.content.Items.Defs[w.factions[a.Faction].Def.HandWeapon]
}

func (w *World) resolveDisplace(a *Actor, target ActorID) Resolution {
	t := w.actors[target]
	if t == nil || t.Level != a.Level || ChessDist(a.Pos, t.Pos) != 1 {
		return failWith(protocol.FailDisplaceDistant)
	}
	occs := w.occupantsAt(a.Level, t.Pos)
	if len(occs) > 1 {
		return failWith(protocol.FailDisplaceProjectiles)
	}
	if t.Projectile {
		return failWith(protocol.FailDisplaceProjectiles)
	}
	lv := w.levels[a.Level]
	if !w.tileDef(lv, t.Pos).Walkable {
		return failWith(protocol.FailDisplaceAccess)
	}
	res := Resolution{Cmds: []Command{CmdDisplaceActor{A: a.ID, B: t.ID}}}
	if cmd, ok := w.smellTrail(a, t.Pos); ok {
		res.Cmds = append(res.Cmds, cmd)
	}
	if cmd, ok := w.smellTrail(t, a.Pos); ok {
		res.Cmds = append(res.Cmds, cmd)
	}
	return res
}

func (w *World) resolveAlter(a *Actor, pos Point, feature string) Resolution {
	lv := w.levels[a.Level]
	if !lv.InBounds(pos) || ChessDist(a.Pos, pos) != 1 {
		return failWith(protocol.FailAlterDistant)
	}
	cur := lv.TileAt(pos)
	def := w.content.Tiles.Defs[cur]

	hidden := def.HideAs != ""
	effective := def
	if hidden {
		effective = w.content.Tiles.Defs[def.HideAs]
	}
	alterTo := alterTarget(effective, feature)
	if !hidden && alterTo == "" {
		return failWith(protocol.FailAlterNothing)
	}
	if len(w.occupantsAt(a.Level, pos)) > 0 {
		return failWith(protocol.FailAlterBlockActor)
	}
	if len(lv.Ground[pos]) > 0 {
		return failWith(protocol.FailAlterBlockItem)
	}

	var res Resolution
	if hidden {
		res.Cmds = append(res.Cmds, CmdSearchTile{Level: a.Level, Pos: pos, From: cur, To: def.HideAs})
	}
	if alterTo != "" {
		from := cur
		if hidden {
			from = def.HideAs
		}
		res.Cmds = append(res.Cmds, CmdAlterTile{Level: a.Level, Pos: pos, From: from, To: alterTo})
	}
	for _, eff := range effective.OnCause {
		res.Cmds = append(res.Cmds, effectCommands(a.ID, eff)...)
		res.Notices = append(res.Notices, Notice{Kind: NoticeTrigger, Actor: a.ID, Pos: pos, Text: eff.Kind})
	}
	return res
}

// alterTarget picks the tile the alteration converts to, honoring the
// optional group filter.
func alterTarget(def content.TileDef, feature string) string {
	switch feature {
	case "open":
		return def.OpenTo
	case "close":
		return def.CloseTo
	case "change":
		return def.ChangeTo
	case "":
		if def.OpenTo != "" {
			return def.OpenTo
		}
		if def.CloseTo != "" {
			return def.CloseTo
		}
		return def.ChangeTo
	}
	return ""
}

func (w *World) resolveMoveItem(a *Actor, r ReqMoveItem) Resolution {
	count := r.Count
	if count <= 0 {
		count = 1
	}
	if r.From == r.To || r.To == COrgan {
		return failWith(protocol.FailItemNothing)
	}
	if _, ok := w.content.Items.Defs[r.Item]; !ok {
		return failWith(protocol.FailItemNothing)
	}
	if !w.itemAvailable(a, r.Item, r.From, count) {
		return failWith(protocol.FailItemNothing)
	}
	return Resolution{Cmds: []Command{CmdMoveItem{Actor: a.ID, Item: r.Item, From: r.From, To: r.To, Count: count}}}
}

func (w *World) itemAvailable(a *Actor, item string, from Container, count int) bool {
	if from == CGround {
		g := w.levels[a.Level].Ground[a.Pos]
		return g != nil && g[item] >= count
	}
	held := a.heldContainer(from)
	return held != nil && held[item] >= count
}

func (w *World) resolveProject(a *Actor, r ReqProject) Resolution {
	def, ok := w.content.Items.Defs[r.Item]
	if !ok || !w.itemAvailable(a, r.Item, r.From, 1) {
		return failWith(protocol.FailItemNothing)
	}
	lv := w.levels[a.Level]
	path := line(a.Pos, r.Target, r.Eps, lv.Width+lv.Height)
	path = clipToBounds(lv, path)
	if len(path) == 0 {
		return failWith(protocol.FailProjectAimOnself)
	}
	first := path[0]
	if !w.content.Tiles.Defs[lv.TileAt(first)].Clear {
		return failWith(protocol.FailProjectBlockTerrain)
	}
	for _, o := range w.occupantsAt(a.Level, first) {
		if !o.Projectile {
			return failWith(protocol.FailProjectBlockActor)
		}
	}
	// Blast fragments bypass the composure and sight gates.
	if !def.Fragment {
		if a.Calm < w.cfg.CalmGate {
			return failWith(protocol.FailProjectNotCalm)
		}
		if w.content.Actors.Defs[a.Kind].Sight <= 0 {
			return failWith(protocol.FailProjectBlind)
		}
	}

	traj := make([]Vec, 0, len(path)-1)
	prev := first
	for _, p := range path[1:] {
		traj = append(traj, p.Sub(prev))
		prev = p
	}
	start := a.NextTime + w.speedOf(content.ProjectileKind)
	return Resolution{
		Cmds: []Command{
			CmdDestroyItem{Actor: a.ID, Item: r.Item, From: r.From, Count: 1},
			CmdCreateActor{
				Kind:       content.ProjectileKind,
				Faction:    a.Faction,
				Level:      a.Level,
				Pos:        first,
				Item:       r.Item,
				Trajectory: traj,
				Start:      start,
			},
		},
		Notices: []Notice{{Kind: NoticeLaunch, Actor: a.ID, Pos: first, Item: r.Item}},
	}
}

func clipToBounds(lv *Level, path []Point) []Point {
	for i, p := range path {
		if !lv.InBounds(p) {
			return path[:i]
		}
	}
	return path
}

func (w *World) resolveApply(a *Actor, r ReqApply) Resolution {
	def, ok := w.content.Items.Defs[r.Item]
	if !ok || !w.itemAvailable(a, r.Item, r.From, 1) {
		return failWith(protocol.FailItemNothing)
	}
	if r.From == CPack && a.Calm < w.cfg.CalmGate {
		return failWith(protocol.FailItemNotCalm)
	}
	var res Resolution
	for _, eff := range def.Effects {
		res.Cmds = append(res.Cmds, effectCommands(a.ID, eff)...)
	}
	res.Cmds = append(res.Cmds, CmdDestroyItem{Actor: a.ID, Item: r.Item, From: r.From, Count: 1})
	return res
}

func (w *World) resolveTrigger(a *Actor, feature string) Resolution {
	lv := w.levels[a.Level]
	def := w.tileDef(lv, a.Pos)
	var res Resolution
	for _, eff := range def.OnCause {
		if feature != "" && eff.Kind != feature {
			continue
		}
		res.Cmds = append(res.Cmds, effectCommands(a.ID, eff)...)
		res.Notices = append(res.Notices, Notice{Kind: NoticeTrigger, Actor: a.ID, Pos: a.Pos, Text: eff.Kind})
	}
	if len(res.Cmds) == 0 {
		return failWith(protocol.FailTriggerNothing)
	}
	return res
}

// resolveSetTrajectory advances an in-flight actor one step. Obstruction
// makes it fall: one HP increment lost and the trajectory cleared. The
// fall commands still apply even though a failure code is reported.
func (w *World) resolveSetTrajectory(a *Actor) Resolution {
	if len(a.Trajectory) == 0 {
		return failWith(protocol.FailMoveBlocked)
	}
	lv := w.levels[a.Level]
	step := a.Trajectory[0]
	next := a.Pos.Add(step)

	fall := func(code string) Resolution {
		return Resolution{
			Cmds: []Command{
				CmdHealActor{Actor: a.ID, Delta: -1},
				CmdSetTrajectory{Actor: a.ID, Trajectory: nil},
			},
			Notices: []Notice{{Kind: NoticeFall, Actor: a.ID, Pos: a.Pos, Item: a.CarriedItem}},
			Fail:    code,
		}
	}

	if !lv.InBounds(next) || !w.content.Tiles.Defs[lv.TileAt(next)].Clear {
		return fall(protocol.FailProjectBlockTerrain)
	}
	if occs := w.occupantsAt(a.Level, next); len(occs) > 0 {
		tgt := occs[0]
		for _, o := range occs {
			if !o.Projectile {
				tgt = o
				break
			}
		}
		if tgt.Projectile {
			// Two projectiles crossing paths; this one drops.
			return fall(protocol.FailProjectBlockActor)
		}
		// The flight resolves as a strike; the projectile drops where it is.
		strike := w.resolveMelee(a, tgt.ID)
		strike.Cmds = append(strike.Cmds, CmdSetTrajectory{Actor: a.ID, Trajectory: nil})
		return strike
	}

	mv := w.resolveMove(a, step)
	if mv.Fail != "" {
		return fall(mv.Fail)
	}
	rest := append([]Vec(nil), a.Trajectory[1:]...)
	mv.Cmds = append(mv.Cmds, CmdSetTrajectory{Actor: a.ID, Trajectory: rest})
	if len(rest) == 0 {
		// About to land: recolor for visibility.
		mv.Notices = append(mv.Notices, Notice{Kind: NoticeLand, Actor: a.ID, Pos: next, Item: a.CarriedItem})
	}
	return mv
}

// effectCommands translates one content effect into Commands against the
// target actor. BURN is damage; HEAL and CALM recharge.
func effectCommands(target ActorID, eff content.EffectDef) []Command {
	switch eff.Kind {
	case content.EffectHeal:
		return []Command{CmdHealActor{Actor: target, Delta: eff.Power}}
	case content.EffectCalm:
		return []Command{CmdRefillCalm{Actor: target, Delta: eff.Power}}
	case content.EffectBurn:
		return []Command{CmdHealActor{Actor: target, Delta: -eff.Power}}
	}
	return nil
}
