package world

import "hollowdeep.dev/internal/protocol"

// CommandEntry renders a Command for the observer stream and the journal.
func CommandEntry(cmd Command) protocol.Entry {
	e := protocol.Entry{Command: cmd.cmdKind(), Data: map[string]any{}}
	switch c := cmd.(type) {
	case CmdMoveActor:
		e.Actor = string(c.Actor)
		e.Pos = c.To.ToArray()
		e.Data["from"] = c.From.ToArray()
	case CmdDisplaceActor:
		e.Actor = string(c.A)
		e.Target = string(c.B)
	case CmdHealActor:
		e.Actor = string(c.Actor)
		e.Data["delta"] = c.Delta
	case CmdRefillCalm:
		e.Actor = string(c.Actor)
		e.Data["delta"] = c.Delta
	case CmdAlterTile:
		e.Pos = c.Pos.ToArray()
		e.Data["from"] = c.From
		e.Data["to"] = c.To
	case CmdSearchTile:
		e.Pos = c.Pos.ToArray()
		e.Data["from"] = c.From
		e.Data["to"] = c.To
	case CmdCreateActor:
		e.Pos = c.Pos.ToArray()
		e.Data["kind"] = c.Kind
		e.Data["faction"] = string(c.Faction)
	case CmdDestroyActor:
		e.Actor = string(c.Actor)
	case CmdMoveItem:
		e.Actor = string(c.Actor)
		e.Data["item"] = c.Item
		e.Data["from"] = string(c.From)
		e.Data["to"] = string(c.To)
		e.Data["count"] = c.Count
	case CmdDestroyItem:
		e.Actor = string(c.Actor)
		e.Data["item"] = c.Item
		e.Data["count"] = c.Count
	case CmdCreateItem:
		e.Pos = c.Pos.ToArray()
		e.Data["item"] = c.Item
		e.Data["count"] = c.Count
	case CmdSetSmell:
		e.Pos = c.Pos.ToArray()
	case CmdSetTrajectory:
		e.Actor = string(c.Actor)
		e.Data["steps"] = len(c.Trajectory)
	case CmdSetWait:
		e.Actor = string(c.Actor)
		e.Data["braced"] = c.Braced
	case CmdChangeDiplomacy:
		e.Data["a"] = string(c.A)
		e.Data["b"] = string(c.B)
		e.Data["rel"] = c.Rel.String()
	}
	if len(e.Data) == 0 {
		e.Data = nil
	}
	return e
}

// NoticeEntry renders an effect notice for the observer stream.
func NoticeEntry(n Notice) protocol.Entry {
	e := protocol.Entry{Notice: n.Kind, Actor: string(n.Actor), Target: string(n.Target), Pos: n.Pos.ToArray()}
	if n.Item != "" || n.Text != "" {
		e.Data = map[string]any{}
		if n.Item != "" {
			e.Data["item"] = n.Item
		}
		if n.Text != "" {
			e.Data["text"] = n.Text
		}
	}
	return e
}

// commandFocus extracts the positions and actors a Command affects, for
// perception filtering. Filtering is a pure function of Perception, never
// of the Command itself.
func commandFocus(cmd Command) (pts []Point, actors []ActorID) {
	switch c := cmd.(type) {
	case CmdMoveActor:
		return []Point{c.From, c.To}, []ActorID{c.Actor}
	case CmdDisplaceActor:
		return nil, []ActorID{c.A, c.B}
	case CmdHealActor:
		return nil, []ActorID{c.Actor}
	case CmdRefillCalm:
		return nil, []ActorID{c.Actor}
	case CmdAlterTile:
		return []Point{c.Pos}, nil
	case CmdSearchTile:
		return []Point{c.Pos}, nil
	case CmdCreateActor:
		return []Point{c.Pos}, nil
	case CmdDestroyActor:
		return nil, []ActorID{c.Actor}
	case CmdMoveItem:
		return nil, []ActorID{c.Actor}
	case CmdDestroyItem:
		return nil, []ActorID{c.Actor}
	case CmdCreateItem:
		return []Point{c.Pos}, nil
	case CmdSetSmell:
		return []Point{c.Pos}, nil
	case CmdSetTrajectory:
		return nil, []ActorID{c.Actor}
	case CmdSetWait:
		return nil, []ActorID{c.Actor}
	case CmdChangeDiplomacy:
		// Diplomacy shifts are known to both involved factions.
		return nil, nil
	}
	return nil, nil
}

// Perceives reports whether a faction's current perception of the level
// covers the command.
func (w *World) Perceives(f FactionID, level LevelID, cmd Command) bool {
	if dc, ok := cmd.(CmdChangeDiplomacy); ok {
		return dc.A == f || dc.B == f
	}
	perc := w.PerceptionOf(f, level)
	pts, actors := commandFocus(cmd)
	for _, p := range pts {
		if perc.Positions[p] {
			return true
		}
	}
	for _, id := range actors {
		if perc.Actors[id] {
			return true
		}
		if a := w.actors[id]; a != nil && a.Faction == f {
			return true
		}
	}
	return false
}

// PerceivesNotice filters an effect notice the same way.
func (w *World) PerceivesNotice(f FactionID, level LevelID, n Notice) bool {
	perc := w.PerceptionOf(f, level)
	if perc.Positions[n.Pos] {
		return true
	}
	for _, id := range []ActorID{n.Actor, n.Target} {
		if id == "" {
			continue
		}
		if perc.Actors[id] {
			return true
		}
		if a := w.actors[id]; a != nil && a.Faction == f {
			return true
		}
	}
	return false
}
