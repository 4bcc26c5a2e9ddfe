package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"

	"hollowdeep.dev/internal/persistence/journal"
	"hollowdeep.dev/internal/persistence/save"
	"hollowdeep.dev/internal/protocol"
	"hollowdeep.dev/internal/sim/content"
	"hollowdeep.dev/internal/sim/gen"
	"hollowdeep.dev/internal/sim/oracle"
	"hollowdeep.dev/internal/sim/tuning"
	"hollowdeep.dev/internal/sim/world"
	"hollowdeep.dev/internal/transport/ws"
)

type envOverrides struct {
	Addr      string `env:"HD_ADDR"`
	Seed      int64  `env:"HD_SEED"`
	ConfigDir string `env:"HD_CONFIGS"`
	DataDir   string `env:"HD_DATA"`
	Session   string `env:"HD_SESSION"`
}

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		seed       = flag.Int64("seed", 1337, "session seed (fresh sessions only)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		sessionID  = flag.String("session", "", "session id to resume (empty starts fresh)")
		difficulty = flag.Int("difficulty", 1, "starting difficulty")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	var ov envOverrides
	if err := env.Parse(&ov); err != nil {
		logger.Fatalf("parse env: %v", err)
	}
	if ov.Addr != "" {
		*addr = ov.Addr
	}
	if ov.Seed != 0 {
		*seed = ov.Seed
	}
	if ov.ConfigDir != "" {
		*configDir = ov.ConfigDir
	}
	if ov.DataDir != "" {
		*dataDir = ov.DataDir
	}
	if ov.Session != "" {
		*sessionID = ov.Session
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

	_ = os.MkdirAll(*dataDir, 0o755)
	store, err := save.Open(filepath.Join(*dataDir, "saves.db"))
	if err != nil {
		logger.Fatalf("open save store: %v", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cur := *seed
	diff := *difficulty
	session := strings.TrimSpace(*sessionID)
	for {
		out, err := runOnce(ctx, runtimeConfig{
			Addr:       *addr,
			DataDir:    *dataDir,
			Seed:       cur,
			Difficulty: diff,
			Session:    session,
		}, tune, cats, store, logger)
		if err != nil {
			logger.Fatalf("session: %v", err)
		}
		if out.Kind != world.OutcomeRestart {
			logger.Printf("session ended: %s", out.Kind)
			return
		}
		diff = out.Restart.Difficulty
		if !out.Restart.KeepSeed {
			cur = time.Now().UnixNano()
		}
		session = ""
		logger.Printf("restarting: difficulty=%d seed=%d", diff, cur)
	}
}

type runtimeConfig struct {
	Addr       string
	DataDir    string
	Seed       int64
	Difficulty int
	Session    string
}

// runOnce drives a single session from world construction to outcome.
func runOnce(ctx context.Context, rc runtimeConfig, tune tuning.Tuning, cats *content.Catalogs, store *save.Store, logger *log.Logger) (world.Outcome, error) {
	resume := rc.Session != ""
	if resume {
		row, err := store.Session(ctx, rc.Session)
		if err != nil {
			return world.Outcome{}, err
		}
		rc.Seed = row.Seed
		rc.Difficulty = row.Difficulty
	} else {
		rc.Session = uuid.NewString()
		if err := store.CreateSession(ctx, rc.Session, rc.Seed, rc.Difficulty); err != nil {
			return world.Outcome{}, err
		}
	}
	logger.Printf("session %s: seed=%d difficulty=%d", rc.Session, rc.Seed, rc.Difficulty)

	w, err := world.New(world.Config{
		Seed:                  rc.Seed,
		ClipsPerTurn:          tune.ClipsPerTurn,
		MaintenanceClipOffset: tune.MaintenanceClipOffset,
		CalmGate:              tune.CalmGate,
		CalmRegen:             tune.CalmRegen,
		SmellTurns:            tune.SmellTurns,
	}, cats)
	if err != nil {
		return world.Outcome{}, err
	}

	if resume {
		_, digest, snap, err := store.LatestSnapshot(ctx, rc.Session)
		if err != nil {
			return world.Outcome{}, err
		}
		if err := w.ImportSnapshot(snap); err != nil {
			return world.Outcome{}, err
		}
		if got := w.StateDigest(snap.Clip); got != digest {
			logger.Fatalf("restored digest mismatch: stored %s, got %s", digest, got)
		}
		logger.Printf("resumed from snapshot at clip %d", snap.Clip)
	} else {
		depths := tune.Depths + rc.Difficulty - 1
		for d := 1; d <= depths; d++ {
			plan, err := gen.Generate(gen.Params{Seed: rc.Seed, Depth: d, Width: tune.Width, Height: tune.Height}, cats)
			if err != nil {
				return world.Outcome{}, err
			}
			if err := w.AddLevel(world.LevelID(d), plan); err != nil {
				return world.Outcome{}, err
			}
		}
	}

	jw, err := journal.NewWriter(filepath.Join(rc.DataDir, "journals"), rc.Session)
	if err != nil {
		return world.Outcome{}, err
	}
	defer jw.Close()

	signals := make(chan world.Request, 8)
	hub := ws.NewHub(protocol.SessionParams{
		ClipsPerTurn:  tune.ClipsPerTurn,
		Depths:        tune.Depths,
		Width:         tune.Width,
		Height:        tune.Height,
		Seed:          rc.Seed,
		ContentDigest: cats.Digest,
	}, cats, signals, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws", hub.Handler())
	srv := &http.Server{Addr: rc.Addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("http: %v", err)
		}
	}()
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	oracles := map[world.FactionID]world.Oracle{}
	for _, id := range cats.Factions.Sorted() {
		if cats.Factions.Defs[id].Playable {
			oracles[world.FactionID(id)] = hub.Oracle(world.FactionID(id))
		}
	}

	sess := &world.Session{
		World:    w,
		Oracles:  oracles,
		Fallback: oracle.New(rc.Seed + 1),
		Journal:  jw,
		Events:   hub,
		Signals:  signals,
		Budget:   time.Duration(tune.SessionBudgetSec) * time.Second,
		Log:      logger,
	}
	out, err := sess.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return out, err
	}
	hub.Bye(out.Kind)

	if out.Kind == world.OutcomeSave || out.Kind == world.OutcomeBudget {
		clip := sess.Clip()
		snap := w.ExportSnapshot(clip)
		digest := w.StateDigest(clip)
		cpt := int64(tune.ClipsPerTurn)
		if err := store.PutSnapshot(ctx, rc.Session, clip/cpt, digest, snap); err != nil {
			return out, err
		}
		logger.Printf("saved session %s at clip %d", rc.Session, clip)
	}
	return out, nil
}
