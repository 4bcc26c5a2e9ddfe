package world

import "fmt"

// Apply executes one Command against authoritative state. Each command is
// atomic: preconditions are checked before any mutation, so a failing
// command leaves state untouched and reports an internal fault (resolved
// commands are supposed to be valid by construction).
func (w *World) Apply(cmd Command) error {
	switch c := cmd.(type) {
	case CmdMoveActor:
		a := w.actors[c.Actor]
		if a == nil {
			return fmt.Errorf("%w: MoveActor for dead actor %s", ErrFault, c.Actor)
		}
		if a.Pos != c.From {
			return fmt.Errorf("%w: MoveActor %s from %v but actor at %v", ErrFault, c.Actor, c.From, a.Pos)
		}
		a.Pos = c.To
		a.Braced = false
		w.percOnActorMoved(a)

	case CmdDisplaceActor:
		a, b := w.actors[c.A], w.actors[c.B]
		if a == nil || b == nil {
			return fmt.Errorf("%w: DisplaceActor %s/%s with dead participant", ErrFault, c.A, c.B)
		}
		if a.Level != b.Level {
			return fmt.Errorf("%w: DisplaceActor %s/%s across levels", ErrFault, c.A, c.B)
		}
		a.Pos, b.Pos = b.Pos, a.Pos
		a.Braced = false
		w.percOnActorMoved(a)
		w.percOnActorMoved(b)

	case CmdHealActor:
		a := w.actors[c.Actor]
		if a == nil {
			return fmt.Errorf("%w: HealActor for dead actor %s", ErrFault, c.Actor)
		}
		a.HP += c.Delta
		if max := w.maxHP(a.Kind); a.HP > max {
			a.HP = max
		}
		if a.HP <= 0 {
			a.Dying = true
		}

	case CmdRefillCalm:
		a := w.actors[c.Actor]
		if a == nil {
			return fmt.Errorf("%w: RefillCalm for dead actor %s", ErrFault, c.Actor)
		}
		a.Calm += c.Delta
		if a.Calm < 0 {
			a.Calm = 0
		}
		if max := w.maxCalm(a.Kind); a.Calm > max {
			a.Calm = max
		}

	case CmdAlterTile:
		return w.applyTileChange(c.Level, c.Pos, c.From, c.To)

	case CmdSearchTile:
		return w.applyTileChange(c.Level, c.Pos, c.From, c.To)

	case CmdCreateActor:
		_, err := w.createActor(c.Kind, c.Faction, c.Level, c.Pos, c.Item, c.Trajectory, c.Start)
		if err != nil {
			return fmt.Errorf("%w: CreateActor: %v", ErrFault, err)
		}

	case CmdDestroyActor:
		a := w.actors[c.Actor]
		if a == nil {
			return fmt.Errorf("%w: DestroyActor for dead actor %s", ErrFault, c.Actor)
		}
		w.destroyActor(a)

	case CmdMoveItem:
		return w.applyMoveItem(c)

	case CmdDestroyItem:
		a := w.actors[c.Actor]
		if a == nil {
			return fmt.Errorf("%w: DestroyItem for dead actor %s", ErrFault, c.Actor)
		}
		if !w.takeItem(a, c.Item, c.From, c.Count) {
			return fmt.Errorf("%w: DestroyItem %s x%d missing in %s of %s", ErrFault, c.Item, c.Count, c.From, c.Actor)
		}

	case CmdCreateItem:
		lv := w.levels[c.Level]
		if lv == nil {
			return fmt.Errorf("%w: CreateItem on unknown level %d", ErrFault, c.Level)
		}
		lv.addGround(c.Pos, c.Item, c.Count)

	case CmdSetSmell:
		lv := w.levels[c.Level]
		if lv == nil {
			return fmt.Errorf("%w: SetSmell on unknown level %d", ErrFault, c.Level)
		}
		if c.Expiry <= lv.Time {
			delete(lv.Smell, c.Pos)
		} else {
			lv.Smell[c.Pos] = c.Expiry
		}

	case CmdSetTrajectory:
		a := w.actors[c.Actor]
		if a == nil {
			return fmt.Errorf("%w: SetTrajectory for dead actor %s", ErrFault, c.Actor)
		}
		a.Trajectory = c.Trajectory

	case CmdSetWait:
		a := w.actors[c.Actor]
		if a == nil {
			return fmt.Errorf("%w: SetWait for dead actor %s", ErrFault, c.Actor)
		}
		a.Braced = c.Braced

	case CmdChangeDiplomacy:
		return w.SetRelation(c.A, c.B, c.Rel)

	default:
		return fmt.Errorf("%w: unknown command %T", ErrFault, cmd)
	}
	return nil
}

func (w *World) applyTileChange(level LevelID, pos Point, from, to string) error {
	lv := w.levels[level]
	if lv == nil || !lv.InBounds(pos) {
		return fmt.Errorf("%w: tile change outside level %d at %v", ErrFault, level, pos)
	}
	if cur := lv.TileAt(pos); cur != from {
		return fmt.Errorf("%w: tile change at %v expected %s, found %s", ErrFault, pos, from, cur)
	}
	toDef, ok := w.content.Tiles.Defs[to]
	if !ok {
		return fmt.Errorf("%w: tile change to unknown kind %s", ErrFault, to)
	}
	fromDef := w.content.Tiles.Defs[from]
	lv.setTile(pos, to)
	if fromDef.Clear != toDef.Clear {
		w.percOnOpacityChange(level)
	}
	return nil
}

func (w *World) applyMoveItem(c CmdMoveItem) error {
	a := w.actors[c.Actor]
	if a == nil {
		return fmt.Errorf("%w: MoveItem for dead actor %s", ErrFault, c.Actor)
	}
	if !w.itemAvailable(a, c.Item, c.From, c.Count) {
		return fmt.Errorf("%w: MoveItem %s x%d missing in %s of %s", ErrFault, c.Item, c.Count, c.From, c.Actor)
	}
	if !w.takeItem(a, c.Item, c.From, c.Count) {
		return fmt.Errorf("%w: MoveItem take failed for %s", ErrFault, c.Actor)
	}
	if c.To == CGround {
		w.levels[a.Level].addGround(a.Pos, c.Item, c.Count)
		return nil
	}
	held := a.heldContainer(c.To)
	if held == nil {
		return fmt.Errorf("%w: MoveItem into invalid container %s", ErrFault, c.To)
	}
	held[c.Item] += c.Count
	return nil
}

func (w *World) takeItem(a *Actor, item string, from Container, count int) bool {
	if from == CGround {
		return w.levels[a.Level].takeGround(a.Pos, item, count)
	}
	held := a.heldContainer(from)
	if held == nil || held[item] < count {
		return false
	}
	held[item] -= count
	if held[item] == 0 {
		delete(held, item)
	}
	return true
}
