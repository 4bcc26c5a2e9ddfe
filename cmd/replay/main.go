// Command replay re-simulates a session from its journal and verifies the
// state digest recorded at every turn boundary. The journal stores the
// request stream; with the same seed the simulation is fully determined by
// it, so any digest mismatch means the core drifted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"hollowdeep.dev/internal/persistence/journal"
	"hollowdeep.dev/internal/protocol"
	"hollowdeep.dev/internal/sim/content"
	"hollowdeep.dev/internal/sim/gen"
	"hollowdeep.dev/internal/sim/tuning"
	"hollowdeep.dev/internal/sim/world"
)

func main() {
	var (
		journalPath = flag.String("journal", "", "path to journal-*.jsonl.zst")
		configDir   = flag.String("configs", "./configs", "config directory")
		tuningPath  = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		seed        = flag.Int64("seed", 0, "session seed (required)")
		difficulty  = flag.Int("difficulty", 1, "session difficulty")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[replay] ", log.LstdFlags)

	if *journalPath == "" || *seed == 0 {
		fmt.Fprintln(os.Stderr, "missing -journal or -seed")
		os.Exit(2)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}
	cats, err := content.Load(*configDir)
	if err != nil {
		logger.Fatalf("load content: %v", err)
	}

	var proposals []world.StepRecord
	digests := map[int64]string{}
	err = journal.Read(*journalPath, func(rec journal.Record) error {
		switch {
		case rec.Turn != nil:
			digests[rec.Turn.Turn] = rec.Turn.Digest
		case rec.Step != nil:
			switch rec.Step.Request.Kind {
			case protocol.ReqSetTrajectory, world.ReqKindDeath, world.ReqKindMaintenance:
				// Loop-generated steps reproduce themselves.
			default:
				proposals = append(proposals, *rec.Step)
			}
		}
		return nil
	})
	if err != nil {
		logger.Fatalf("read journal: %v", err)
	}
	if len(digests) == 0 {
		logger.Fatalf("journal has no turn digests")
	}

	w, err := world.New(world.Config{
		Seed:                  *seed,
		ClipsPerTurn:          tune.ClipsPerTurn,
		MaintenanceClipOffset: tune.MaintenanceClipOffset,
		CalmGate:              tune.CalmGate,
		CalmRegen:             tune.CalmRegen,
		SmellTurns:            tune.SmellTurns,
	}, cats)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}
	depths := tune.Depths + *difficulty - 1
	for d := 1; d <= depths; d++ {
		plan, err := gen.Generate(gen.Params{Seed: *seed, Depth: d, Width: tune.Width, Height: tune.Height}, cats)
		if err != nil {
			logger.Fatalf("generate depth %d: %v", d, err)
		}
		if err := w.AddLevel(world.LevelID(d), plan); err != nil {
			logger.Fatalf("add level %d: %v", d, err)
		}
	}

	checker := &digestChecker{want: digests}
	sess := &world.Session{
		World:    w,
		Fallback: &scriptedOracle{script: proposals},
		Journal:  checker,
		Signals:  make(chan world.Request, 1),
		Log:      logger,
	}
	out, err := sess.Run(context.Background())
	if err != nil {
		logger.Fatalf("replay: %v", err)
	}
	if checker.err != nil {
		logger.Fatalf("replay: %v", checker.err)
	}
	fmt.Printf("replay ok: outcome=%s turns_checked=%d proposals=%d\n", out.Kind, checker.checked, len(proposals))
}

var errForfeit = fmt.Errorf("recorded forfeit")

// scriptedOracle feeds the recorded request stream back, in order. The
// scheduler is deterministic, so proposals line up actor for actor; a
// mismatch means the journal and the simulation disagree.
type scriptedOracle struct {
	script []world.StepRecord
	next   int
}

func (o *scriptedOracle) Propose(_ context.Context, obs protocol.ObsMsg) (world.Request, error) {
	if o.next >= len(o.script) {
		return world.ReqExit{}, nil
	}
	rec := o.script[o.next]
	o.next++
	if rec.Actor != obs.ActorID {
		return nil, fmt.Errorf("journal step %d is for actor %s, simulation asked for %s", o.next, rec.Actor, obs.ActorID)
	}
	if rec.Request.Kind == world.ReqKindForfeit {
		// The recorded slot was forfeited; erroring here forfeits it again.
		return nil, errForfeit
	}
	return world.DecodeRequest(rec.Request)
}

// digestChecker verifies each simulated turn digest against the journal.
type digestChecker struct {
	want    map[int64]string
	checked int
	err     error
}

func (c *digestChecker) LogStep(world.StepRecord) error { return nil }

func (c *digestChecker) LogTurn(rec world.TurnRecord) error {
	want, ok := c.want[rec.Turn]
	if !ok {
		return nil
	}
	if want != rec.Digest {
		c.err = fmt.Errorf("digest mismatch at turn %d: journal %s, replay %s", rec.Turn, want, rec.Digest)
		return c.err
	}
	c.checked++
	return nil
}
