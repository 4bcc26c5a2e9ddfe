package world

import (
	"context"
	"fmt"
	"testing"

	"hollowdeep.dev/internal/protocol"
)

// scripted feeds a fixed request pattern to every actor it is asked
// about, then exits the session.
type scripted struct {
	reqs []Request
	i    int
}

func (o *scripted) Propose(_ context.Context, _ protocol.ObsMsg) (Request, error) {
	if o.i >= len(o.reqs) {
		return ReqExit{}, nil
	}
	r := o.reqs[o.i]
	o.i++
	return r, nil
}

// digestTrace records the per-turn digests a session produces.
type digestTrace struct {
	steps   int
	digests []string
}

func (d *digestTrace) LogStep(StepRecord) error { return nil }
func (d *digestTrace) LogTurn(rec TurnRecord) error {
	d.digests = append(d.digests, rec.Digest)
	return nil
}

func runScriptedSession(t *testing.T, seed int64) *digestTrace {
	t.Helper()
	w := newTestWorld(t, seed)
	plan := flatLevel(12, 12)
	addLevel(t, w, 1, plan)
	leader := spawn(t, w, "HERO", "EXPLORER", 1, Point{X: 2, Y: 2})
	w.Faction("EXPLORER").Leader = leader.ID
	spawn(t, w, "HERO", "EXPLORER", 1, Point{X: 3, Y: 2})
	spawn(t, w, "GRUNT", "HORDE", 1, Point{X: 9, Y: 9})

	script := []Request{}
	pattern := []Request{
		ReqMove{Dir: Vec{DX: 1}},
		ReqWait{},
		ReqMove{Dir: Vec{DY: 1}},
		ReqMove{Dir: Vec{DX: -1}},
	}
	for len(script) < 40 {
		script = append(script, pattern...)
	}

	trace := &digestTrace{}
	sess := &Session{
		World:    w,
		Fallback: &scripted{reqs: script},
		Journal:  trace,
		Signals:  make(chan Request, 4),
	}
	out, err := sess.Run(context.Background())
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if out.Kind != OutcomeExit {
		t.Fatalf("outcome %s, want %s", out.Kind, OutcomeExit)
	}
	return trace
}

// garbled fails its first proposal the way an undecodable ACT does, then
// exits the session.
type garbled struct {
	fired bool
}

func (o *garbled) Propose(_ context.Context, _ protocol.ObsMsg) (Request, error) {
	if !o.fired {
		o.fired = true
		return nil, fmt.Errorf("unknown request kind %q", "TELEPORT")
	}
	return ReqExit{}, nil
}

// stepTrace records every journaled step alongside the turn digests.
type stepTrace struct {
	digestTrace
	records []StepRecord
}

func (s *stepTrace) LogStep(rec StepRecord) error {
	s.records = append(s.records, rec)
	return nil
}

func TestSession_JournalsForfeitedSlots(t *testing.T) {
	w := newTestWorld(t, 5)
	addLevel(t, w, 1, flatLevel(8, 8))
	leader := spawn(t, w, "HERO", "EXPLORER", 1, Point{X: 2, Y: 2})
	w.Faction("EXPLORER").Leader = leader.ID

	trace := &stepTrace{}
	sess := &Session{
		World:    w,
		Fallback: &garbled{},
		Journal:  trace,
		Signals:  make(chan Request, 4),
	}
	if _, err := sess.Run(context.Background()); err != nil {
		t.Fatalf("session: %v", err)
	}

	var forfeit *StepRecord
	for i := range trace.records {
		if trace.records[i].Request.Kind == ReqKindForfeit {
			forfeit = &trace.records[i]
			break
		}
	}
	if forfeit == nil {
		t.Fatalf("forfeited slot missing from the journal: %+v", trace.records)
	}
	if forfeit.Actor != string(leader.ID) {
		t.Fatalf("forfeit recorded for %s, want %s", forfeit.Actor, leader.ID)
	}
	if forfeit.Fail != protocol.ErrProtoBadRequest {
		t.Fatalf("forfeit fail code %q", forfeit.Fail)
	}
}

func TestDeterminism_SameSeedSameDigests(t *testing.T) {
	a := runScriptedSession(t, 42)
	b := runScriptedSession(t, 42)
	if len(a.digests) == 0 {
		t.Fatalf("session produced no turn digests")
	}
	if len(a.digests) != len(b.digests) {
		t.Fatalf("turn counts differ: %d vs %d", len(a.digests), len(b.digests))
	}
	for i := range a.digests {
		if a.digests[i] != b.digests[i] {
			t.Fatalf("digest diverged at turn %d", i)
		}
	}
}

func TestDeterminism_DifferentSeedsDiverge(t *testing.T) {
	a := runScriptedSession(t, 42)
	b := runScriptedSession(t, 43)
	if len(a.digests) > 0 && len(b.digests) > 0 && a.digests[0] == b.digests[0] {
		t.Fatalf("different seeds produced identical first-turn digests")
	}
}
