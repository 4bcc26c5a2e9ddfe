package world

import (
	"context"
	"fmt"
	"log"
	"time"

	"hollowdeep.dev/internal/protocol"
)

// Oracle proposes a request for the actor described by an observation. The
// proposal is advisory; the resolver revalidates everything.
type Oracle interface {
	Propose(ctx context.Context, obs protocol.ObsMsg) (Request, error)
}

// StepRecord is the journal record for one resolved actor step. Entries
// are unfiltered; the journal is the authoritative replay source.
type StepRecord struct {
	Turn    int64               `json:"turn"`
	Clip    int64               `json:"clip"`
	Level   int                 `json:"level"`
	Actor   string              `json:"actor"`
	Request protocol.RequestMsg `json:"request"`
	Fail    string              `json:"fail,omitempty"`
	Entries []protocol.Entry    `json:"entries,omitempty"`
}

// TurnRecord closes a turn with the state digest at its boundary.
type TurnRecord struct {
	Turn   int64  `json:"turn"`
	Digest string `json:"digest"`
}

// StepLogger receives the journal stream.
type StepLogger interface {
	LogStep(rec StepRecord) error
	LogTurn(rec TurnRecord) error
}

// EventSink receives the perception-filtered observer stream, one faction
// at a time. Implementations must not block the loop goroutine.
type EventSink interface {
	Event(f FactionID, ev protocol.EventMsg)
	Failure(f FactionID, fm protocol.FailureMsg)
}

// Loop-internal journal record kinds; never accepted from controllers.
const (
	ReqKindDeath       = "DEATH"
	ReqKindForfeit     = "FORFEIT"
	ReqKindMaintenance = "MAINTENANCE"
)

// Session outcomes.
const (
	OutcomeExit    = "EXIT"
	OutcomeRestart = "RESTART"
	OutcomeSave    = "SAVE"
	OutcomeBudget  = "BUDGET"
)

type Outcome struct {
	Kind    string
	Restart ReqRestart
}

// Session drives one game to its outcome. It owns the World for the whole
// run; all simulation state is touched only from Run's goroutine.
type Session struct {
	World    *World
	Oracles  map[FactionID]Oracle
	Fallback Oracle
	Journal  StepLogger
	Events   EventSink
	Signals  chan Request
	Budget   time.Duration
	Log      *log.Logger

	clip int64
}

// Clip is the session's current global clip counter.
func (s *Session) Clip() int64 { return s.clip }

// Run executes clips until a session signal, the wall-clock budget, or an
// internal fault ends the game. Consistency checks run at shutdown; a
// failed check is returned as the session error.
func (s *Session) Run(ctx context.Context) (Outcome, error) {
	if s.Log == nil {
		s.Log = log.Default()
	}
	started := time.Now()
	cpt := int64(s.World.Config().ClipsPerTurn)

	for {
		if err := ctx.Err(); err != nil {
			return s.finish(Outcome{Kind: OutcomeExit}, err)
		}
		turn := s.clip / cpt
		if s.clip%cpt == 0 && s.Budget > 0 && time.Since(started) > s.Budget {
			s.Log.Printf("session budget exhausted at turn %d", turn)
			return s.finish(Outcome{Kind: OutcomeBudget}, nil)
		}

		if out, done, err := s.drainSignals(); done || err != nil {
			return s.finish(out, err)
		}

		active := s.World.Arenas()
		if s.clip%cpt == int64(s.World.Config().MaintenanceClipOffset) {
			if err := s.runMaintenance(turn, active); err != nil {
				return s.finish(Outcome{}, err)
			}
		}

		for _, lid := range active {
			out, done, err := s.runClip(ctx, turn, lid)
			if err != nil || done {
				return s.finish(out, err)
			}
		}

		s.clip++
		if s.clip%cpt == 0 {
			if err := s.closeTurn(turn); err != nil {
				return s.finish(Outcome{}, err)
			}
		}
	}
}

// runClip processes every actor due on one level within the next clip
// quantum, then advances the level clock to the boundary.
func (s *Session) runClip(ctx context.Context, turn int64, lid LevelID) (Outcome, bool, error) {
	w := s.World
	lv := w.Level(lid)
	boundary := lv.Time + DeltasPerClip

	for {
		id, ok := w.nextDue(lv, boundary)
		if !ok {
			break
		}
		if out, done, err := s.drainSignals(); done || err != nil {
			return out, done, err
		}
		if err := s.processActor(ctx, turn, lid, id); err != nil {
			return Outcome{}, false, err
		}
	}
	lv.AdvanceClip(boundary)
	return Outcome{}, false, nil
}

func (s *Session) processActor(ctx context.Context, turn int64, lid LevelID, id ActorID) error {
	w := s.World
	a := w.Actor(id)

	// Deaths resolve before anyone else acts at the same instant.
	if a.Dying {
		res := Resolution{
			Cmds:    []Command{CmdDestroyActor{Actor: a.ID}},
			Notices: []Notice{{Kind: NoticeDie, Actor: a.ID, Pos: a.Pos, Item: a.CarriedItem}},
		}
		return s.execute(turn, lid, a, protocol.RequestMsg{Kind: ReqKindDeath}, res)
	}

	var req Request
	switch {
	case a.Projectile && len(a.Trajectory) == 0:
		// Flight over: the carried item lands where the flyer stops.
		res := Resolution{Cmds: []Command{CmdDestroyActor{Actor: a.ID}}}
		if a.CarriedItem != "" {
			res.Cmds = append([]Command{
				CmdCreateItem{Level: a.Level, Pos: a.Pos, Item: a.CarriedItem, Count: 1},
			}, res.Cmds...)
		}
		return s.execute(turn, lid, a, EncodeRequest(ReqSetTrajectory{}), res)
	case a.Projectile:
		req = ReqSetTrajectory{}
	default:
		var err error
		var fail string
		req, fail, err = s.propose(ctx, turn, a)
		if err != nil {
			return err
		}
		if req == nil {
			// Controller fault or rerouted session signal. The forfeit
			// still journals: replay consumes one record per actor slot.
			return s.execute(turn, lid, a, protocol.RequestMsg{Kind: ReqKindForfeit}, Resolution{Fail: fail})
		}
	}

	res := w.Resolve(a, req)
	return s.execute(turn, lid, a, EncodeRequest(req), res)
}

// propose asks the faction's controller (or the fallback oracle) for a
// request. A nil request means the actor forfeits: either the controller
// faulted (the failure code is returned alongside) or it raised a session
// request, which is rerouted to the signal channel.
func (s *Session) propose(ctx context.Context, turn int64, a *Actor) (Request, string, error) {
	oracle := s.Fallback
	fac := s.World.Faction(a.Faction)
	if !fac.Auto {
		if o := s.Oracles[a.Faction]; o != nil {
			oracle = o
		}
	}
	if oracle == nil {
		return ReqWait{}, "", nil
	}
	req, err := oracle.Propose(ctx, s.buildObs(turn, a))
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		s.Log.Printf("controller for %s failed: %v", a.Faction, err)
		return nil, protocol.ErrProtoBadRequest, nil
	}
	if IsSession(req) {
		select {
		case s.Signals <- req:
		default:
			s.Log.Printf("signal channel full, dropping %T from %s", req, a.Faction)
		}
		return nil, "", nil
	}
	return req, "", nil
}

// execute journals, filters and applies one resolution, then reschedules
// the actor if it survived.
func (s *Session) execute(turn int64, lid LevelID, a *Actor, reqMsg protocol.RequestMsg, res Resolution) error {
	w := s.World
	rec := StepRecord{
		Turn:    turn,
		Clip:    s.clip,
		Level:   int(lid),
		Actor:   string(a.ID),
		Request: reqMsg,
		Fail:    res.Fail,
	}

	if res.Fail != "" {
		if !protocol.IsKnownCode(res.Fail) {
			return fmt.Errorf("%w: resolver produced unknown failure code %q", ErrFault, res.Fail)
		}
		s.failure(a.Faction, turn, a.ID, res.Fail, "")
	}

	for _, cmd := range res.Cmds {
		entry := CommandEntry(cmd)
		rec.Entries = append(rec.Entries, entry)
		recipients := s.recipients(lid, cmd)
		if err := w.Apply(cmd); err != nil {
			return err
		}
		s.broadcast(recipients, turn, lid, entry)
	}
	for _, n := range res.Notices {
		entry := NoticeEntry(n)
		rec.Entries = append(rec.Entries, entry)
		var rcpt []FactionID
		for _, fid := range w.sortedFactionIDs() {
			if w.PerceivesNotice(fid, lid, n) {
				rcpt = append(rcpt, fid)
			}
		}
		s.broadcast(rcpt, turn, lid, entry)
	}

	if s.Journal != nil {
		if err := s.Journal.LogStep(rec); err != nil {
			return fmt.Errorf("journal step: %w", err)
		}
	}

	if w.Actor(a.ID) != nil {
		return w.advanceActorTime(a)
	}
	return nil
}

func (s *Session) recipients(lid LevelID, cmd Command) []FactionID {
	w := s.World
	var out []FactionID
	for _, fid := range w.sortedFactionIDs() {
		if w.Perceives(fid, lid, cmd) {
			out = append(out, fid)
		}
	}
	return out
}

func (s *Session) broadcast(factions []FactionID, turn int64, lid LevelID, entry protocol.Entry) {
	if s.Events == nil {
		return
	}
	for _, fid := range factions {
		s.Events.Event(fid, protocol.EventMsg{
			Type:            protocol.TypeEvent,
			ProtocolVersion: protocol.Version,
			Turn:            turn,
			Clip:            s.clip,
			Level:           int(lid),
			Entry:           entry,
		})
	}
}

func (s *Session) failure(f FactionID, turn int64, actor ActorID, code, msg string) {
	if s.Events == nil {
		return
	}
	s.Events.Failure(f, protocol.FailureMsg{
		Type:            protocol.TypeFailure,
		ProtocolVersion: protocol.Version,
		Turn:            turn,
		ActorID:         string(actor),
		Code:            code,
		Message:         msg,
	})
}

func (s *Session) runMaintenance(turn int64, active []LevelID) error {
	w := s.World
	cmds, notices := w.Maintenance(active)
	if len(cmds) == 0 && len(notices) == 0 {
		return nil
	}
	rec := StepRecord{
		Turn:    turn,
		Clip:    s.clip,
		Request: protocol.RequestMsg{Kind: ReqKindMaintenance},
	}
	for _, cmd := range cmds {
		entry := CommandEntry(cmd)
		rec.Entries = append(rec.Entries, entry)
		lid := commandLevel(w, cmd)
		recipients := s.recipients(lid, cmd)
		if err := w.Apply(cmd); err != nil {
			return err
		}
		s.broadcast(recipients, turn, lid, entry)
	}
	for _, n := range notices {
		entry := NoticeEntry(n)
		rec.Entries = append(rec.Entries, entry)
		var rcpt []FactionID
		for _, fid := range w.sortedFactionIDs() {
			if w.PerceivesNotice(fid, n.Level, n) {
				rcpt = append(rcpt, fid)
			}
		}
		s.broadcast(rcpt, turn, n.Level, entry)
	}
	if s.Journal != nil {
		if err := s.Journal.LogStep(rec); err != nil {
			return fmt.Errorf("journal maintenance: %w", err)
		}
	}
	return nil
}

// commandLevel locates the level a command plays out on, for perception
// filtering of maintenance commands (actor steps already know theirs).
func commandLevel(w *World, cmd Command) LevelID {
	switch c := cmd.(type) {
	case CmdAlterTile:
		return c.Level
	case CmdSearchTile:
		return c.Level
	case CmdCreateActor:
		return c.Level
	case CmdCreateItem:
		return c.Level
	case CmdSetSmell:
		return c.Level
	case CmdMoveActor:
		if a := w.Actor(c.Actor); a != nil {
			return a.Level
		}
	case CmdDisplaceActor:
		if a := w.Actor(c.A); a != nil {
			return a.Level
		}
	case CmdHealActor:
		if a := w.Actor(c.Actor); a != nil {
			return a.Level
		}
	case CmdRefillCalm:
		if a := w.Actor(c.Actor); a != nil {
			return a.Level
		}
	case CmdDestroyActor:
		if a := w.Actor(c.Actor); a != nil {
			return a.Level
		}
	case CmdMoveItem:
		if a := w.Actor(c.Actor); a != nil {
			return a.Level
		}
	case CmdDestroyItem:
		if a := w.Actor(c.Actor); a != nil {
			return a.Level
		}
	case CmdSetTrajectory:
		if a := w.Actor(c.Actor); a != nil {
			return a.Level
		}
	case CmdSetWait:
		if a := w.Actor(c.Actor); a != nil {
			return a.Level
		}
	}
	return 0
}

func (s *Session) closeTurn(turn int64) error {
	if s.Journal == nil {
		return nil
	}
	rec := TurnRecord{Turn: turn, Digest: s.World.StateDigest(s.clip)}
	if err := s.Journal.LogTurn(rec); err != nil {
		return fmt.Errorf("journal turn: %w", err)
	}
	return nil
}

// drainSignals handles pending session requests. Only Automate keeps the
// session running; the rest end it.
func (s *Session) drainSignals() (Outcome, bool, error) {
	for {
		if s.Signals == nil {
			return Outcome{}, false, nil
		}
		select {
		case req := <-s.Signals:
			switch r := req.(type) {
			case ReqExit:
				return Outcome{Kind: OutcomeExit}, true, nil
			case ReqSave:
				return Outcome{Kind: OutcomeSave}, true, nil
			case ReqRestart:
				return Outcome{Kind: OutcomeRestart, Restart: r}, true, nil
			case ReqAutomate:
				if f := s.World.Faction(r.Faction); f != nil {
					f.Auto = true
					s.Log.Printf("faction %s handed to autoplay", r.Faction)
				}
			default:
				return Outcome{}, false, fmt.Errorf("%w: non-session request %T on signal channel", ErrFault, req)
			}
		default:
			return Outcome{}, false, nil
		}
	}
}

// finish runs the mandatory shutdown checks. A check failure outranks the
// session outcome.
func (s *Session) finish(out Outcome, err error) (Outcome, error) {
	if err != nil {
		return out, err
	}
	if cerr := s.World.CheckScheduler(); cerr != nil {
		return out, cerr
	}
	if cerr := s.World.CheckPerceptions(); cerr != nil {
		return out, cerr
	}
	if cerr := s.World.CheckDiplomacy(); cerr != nil {
		return out, cerr
	}
	return out, nil
}

// buildObs assembles the perception-restricted observation for one actor.
func (s *Session) buildObs(turn int64, a *Actor) protocol.ObsMsg {
	w := s.World
	perc := w.PerceptionOf(a.Faction, a.Level)
	lv := w.Level(a.Level)

	pts := make([]Point, 0, len(perc.Positions))
	for p := range perc.Positions {
		pts = append(pts, p)
	}
	sortPoints(pts)
	tiles := make([]protocol.TileState, 0, len(pts))
	for _, p := range pts {
		tiles = append(tiles, protocol.TileState{Pos: p.ToArray(), Tile: lv.TileAt(p)})
	}

	var actors []protocol.ActorState
	for _, id := range w.sortedActorIDs() {
		o := w.Actor(id)
		if o.Level != a.Level || o.ID == a.ID {
			continue
		}
		if !perc.Actors[id] && o.Faction != a.Faction {
			continue
		}
		actors = append(actors, s.actorState(o, o.Faction == a.Faction))
	}

	return protocol.ObsMsg{
		Type:            protocol.TypeObs,
		ProtocolVersion: protocol.Version,
		Turn:            turn,
		Clip:            s.clip,
		ActorID:         string(a.ID),
		Level:           int(a.Level),
		Self:            s.actorState(a, true),
		VisibleTiles:    tiles,
		VisibleActors:   actors,
	}
}

// actorState hides vitals of actors outside the observing faction.
func (s *Session) actorState(a *Actor, own bool) protocol.ActorState {
	st := protocol.ActorState{
		ID:         string(a.ID),
		Kind:       a.Kind,
		Faction:    string(a.Faction),
		Pos:        a.Pos.ToArray(),
		Braced:     a.Braced,
		Projectile: a.Projectile,
	}
	if own {
		st.HP = a.HP
		st.Calm = a.Calm
		st.Leader = s.World.Faction(a.Faction).Leader == a.ID
	}
	return st
}
