package world

import (
	"fmt"

	"hollowdeep.dev/internal/protocol"
)

// Request is a proposed action from a controller. It is never trusted: the
// resolver revalidates every precondition against authoritative state.
// The union is closed; adding a kind is a compile-time-checked change.
type Request interface {
	reqKind() string
}

type ReqMove struct{ Dir Vec }

type ReqMelee struct{ Target ActorID }

type ReqDisplace struct{ Target ActorID }

type ReqAlter struct {
	Pos Point
	// Feature optionally restricts the alteration group: "open", "close"
	// or "change". Empty tries all.
	Feature string
}

type ReqWait struct{}

type ReqMoveItem struct {
	Item  string
	From  Container
	To    Container
	Count int
}

type ReqProject struct {
	Target Point
	Eps    int
	Item   string
	From   Container
}

type ReqApply struct {
	Item string
	From Container
}

type ReqTrigger struct {
	// Feature optionally restricts firing to one effect kind.
	Feature string
}

// ReqSetTrajectory advances an actor already in flight by one trajectory
// step. Issued by the loop driver for projectiles, never by controllers.
type ReqSetTrajectory struct{}

// Session requests, handled by the loop driver between actor resolutions.

type ReqRestart struct {
	Difficulty int
	KeepSeed   bool
}

type ReqExit struct{}

type ReqSave struct{}

type ReqAutomate struct{ Faction FactionID }

func (ReqMove) reqKind() string          { return protocol.ReqMove }
func (ReqMelee) reqKind() string         { return protocol.ReqMelee }
func (ReqDisplace) reqKind() string      { return protocol.ReqDisplace }
func (ReqAlter) reqKind() string         { return protocol.ReqAlter }
func (ReqWait) reqKind() string          { return protocol.ReqWait }
func (ReqMoveItem) reqKind() string      { return protocol.ReqMoveItem }
func (ReqProject) reqKind() string       { return protocol.ReqProject }
func (ReqApply) reqKind() string         { return protocol.ReqApply }
func (ReqTrigger) reqKind() string       { return protocol.ReqTrigger }
func (ReqSetTrajectory) reqKind() string { return protocol.ReqSetTrajectory }
func (ReqRestart) reqKind() string       { return protocol.ReqRestart }
func (ReqExit) reqKind() string          { return protocol.ReqExit }
func (ReqSave) reqKind() string          { return protocol.ReqSave }
func (ReqAutomate) reqKind() string      { return protocol.ReqAutomate }

// IsSession reports whether req controls the session rather than an actor.
func IsSession(req Request) bool {
	switch req.(type) {
	case ReqRestart, ReqExit, ReqSave, ReqAutomate:
		return true
	}
	return false
}

// DecodeRequest converts a wire request into the closed union, validating
// enumerated fields. Unknown kinds and containers are protocol faults.
func DecodeRequest(m protocol.RequestMsg) (Request, error) {
	parseC := func(s string, def Container) (Container, error) {
		if s == "" {
			return def, nil
		}
		c, ok := ParseContainer(s)
		if !ok {
			return "", fmt.Errorf("unknown container %q", s)
		}
		return c, nil
	}

	switch m.Kind {
	case protocol.ReqMove:
		return ReqMove{Dir: Vec{DX: m.DX, DY: m.DY}}, nil
	case protocol.ReqMelee:
		return ReqMelee{Target: ActorID(m.TargetID)}, nil
	case protocol.ReqDisplace:
		return ReqDisplace{Target: ActorID(m.TargetID)}, nil
	case protocol.ReqAlter:
		return ReqAlter{Pos: Point{X: m.X, Y: m.Y}, Feature: m.Feature}, nil
	case protocol.ReqWait:
		return ReqWait{}, nil
	case protocol.ReqMoveItem:
		from, err := parseC(m.From, CGround)
		if err != nil {
			return nil, err
		}
		to, err := parseC(m.To, CPack)
		if err != nil {
			return nil, err
		}
		return ReqMoveItem{Item: m.Item, From: from, To: to, Count: m.Count}, nil
	case protocol.ReqProject:
		from, err := parseC(m.From, CPack)
		if err != nil {
			return nil, err
		}
		return ReqProject{Target: Point{X: m.X, Y: m.Y}, Eps: m.Eps, Item: m.Item, From: from}, nil
	case protocol.ReqApply:
		from, err := parseC(m.From, CPack)
		if err != nil {
			return nil, err
		}
		return ReqApply{Item: m.Item, From: from}, nil
	case protocol.ReqTrigger:
		return ReqTrigger{Feature: m.Feature}, nil
	case protocol.ReqSetTrajectory:
		return ReqSetTrajectory{}, nil
	case protocol.ReqRestart:
		return ReqRestart{Difficulty: m.Difficulty, KeepSeed: m.KeepSeed}, nil
	case protocol.ReqExit:
		return ReqExit{}, nil
	case protocol.ReqSave:
		return ReqSave{}, nil
	case protocol.ReqAutomate:
		return ReqAutomate{Faction: FactionID(m.FactionID)}, nil
	}
	return nil, fmt.Errorf("unknown request kind %q", m.Kind)
}

// EncodeRequest converts a request back to wire form, for journaling.
func EncodeRequest(req Request) protocol.RequestMsg {
	m := protocol.RequestMsg{Kind: req.reqKind()}
	switch r := req.(type) {
	case ReqMove:
		m.DX, m.DY = r.Dir.DX, r.Dir.DY
	case ReqMelee:
		m.TargetID = string(r.Target)
	case ReqDisplace:
		m.TargetID = string(r.Target)
	case ReqAlter:
		m.X, m.Y, m.Feature = r.Pos.X, r.Pos.Y, r.Feature
	case ReqMoveItem:
		m.Item, m.From, m.To, m.Count = r.Item, string(r.From), string(r.To), r.Count
	case ReqProject:
		m.X, m.Y, m.Eps, m.Item, m.From = r.Target.X, r.Target.Y, r.Eps, r.Item, string(r.From)
	case ReqApply:
		m.Item, m.From = r.Item, string(r.From)
	case ReqTrigger:
		m.Feature = r.Feature
	case ReqRestart:
		m.Difficulty, m.KeepSeed = r.Difficulty, r.KeepSeed
	case ReqAutomate:
		m.FactionID = string(r.Faction)
	}
	return m
}
