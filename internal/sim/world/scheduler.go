package world

import "fmt"

// nextDue returns the actor with the smallest next-action time strictly
// before the clip boundary, or false if no actor is ready this clip.
func (w *World) nextDue(lv *Level, clipBoundary Time) (ActorID, bool) {
	var best *Actor
	for id := range lv.Queue {
		a := w.actors[id]
		if a == nil {
			continue
		}
		if a.NextTime >= clipBoundary {
			continue
		}
		if best == nil || w.actsBefore(a, best) {
			best = a
		}
	}
	if best == nil {
		return "", false
	}
	return best.ID, true
}

// actsBefore is the scheduler's total order for actors due at the same
// time. The tie-break chain is load-bearing: it fixes the exact sequence of
// applied Commands, which save/restore and perception reconciliation rely
// on.
func (w *World) actsBefore(a, b *Actor) bool {
	if a.NextTime != b.NextTime {
		return a.NextTime < b.NextTime
	}
	// Deaths resolve before others act at the same time.
	if a.Dying != b.Dying {
		return a.Dying
	}
	// Walking actors before in-flight items.
	if a.Projectile != b.Projectile {
		return !a.Projectile
	}
	if a.Faction != b.Faction {
		return a.Faction < b.Faction
	}
	// Within a faction the leader acts last, so follower moves are visible
	// to leader decision logic first.
	leader := w.factions[a.Faction].Leader
	if (a.ID == leader) != (b.ID == leader) {
		return b.ID == leader
	}
	return a.Ordinal < b.Ordinal
}

// advanceActorTime reschedules the actor after it acted (or forfeited).
// Time never moves backward.
func (w *World) advanceActorTime(a *Actor) error {
	delta := w.speedOf(a.Kind)
	next := a.NextTime + delta
	if next < a.NextTime {
		return fmt.Errorf("%w: time overflow for actor %s", ErrFault, a.ID)
	}
	a.NextTime = next
	lv := w.levels[a.Level]
	if _, ok := lv.Queue[a.ID]; !ok {
		return fmt.Errorf("%w: queue entry missing for live actor %s on level %d", ErrFault, a.ID, a.Level)
	}
	lv.Queue[a.ID] = next
	return nil
}

// AdvanceClip moves the level clock to the clip boundary. Monotonic.
func (lv *Level) AdvanceClip(boundary Time) {
	if boundary > lv.Time {
		lv.Time = boundary
	}
}

// CheckScheduler verifies the queue invariants at a quiescent point: every
// live actor has exactly one queue entry on its own level, the entry
// matches the actor's next-action time, and no entry points at a dead
// actor.
func (w *World) CheckScheduler() error {
	for _, id := range w.sortedActorIDs() {
		a := w.actors[id]
		lv := w.levels[a.Level]
		if lv == nil {
			return fmt.Errorf("%w: actor %s on unknown level %d", ErrFault, id, a.Level)
		}
		t, ok := lv.Queue[id]
		if !ok {
			return fmt.Errorf("%w: queue entry missing for live actor %s on level %d", ErrFault, id, a.Level)
		}
		if t != a.NextTime {
			return fmt.Errorf("%w: queue time %d != actor time %d for %s", ErrFault, t, a.NextTime, id)
		}
		if !a.Dying && a.NextTime < lv.Time {
			return fmt.Errorf("%w: actor %s scheduled at %d before level time %d", ErrFault, id, a.NextTime, lv.Time)
		}
		for _, other := range w.sortedLevelIDs() {
			if other == a.Level {
				continue
			}
			if _, dup := w.levels[other].Queue[id]; dup {
				return fmt.Errorf("%w: actor %s queued on levels %d and %d", ErrFault, id, a.Level, other)
			}
		}
	}
	for _, lid := range w.sortedLevelIDs() {
		for id := range w.levels[lid].Queue {
			if w.actors[id] == nil {
				return fmt.Errorf("%w: queue entry for dead actor %s on level %d", ErrFault, id, lid)
			}
		}
	}
	return nil
}
