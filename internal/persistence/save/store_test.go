package save

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"hollowdeep.dev/internal/sim/world"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "saves.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SessionRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Session(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing session: %v", err)
	}
	if err := s.CreateSession(ctx, "s1", 4242, 3); err != nil {
		t.Fatalf("create: %v", err)
	}
	row, err := s.Session(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row.Seed != 4242 || row.Difficulty != 3 {
		t.Fatalf("row %+v", row)
	}
	if row.CreatedAt.IsZero() {
		t.Fatalf("created_at not recorded")
	}
	if err := s.CreateSession(ctx, "s1", 1, 1); err == nil {
		t.Fatalf("duplicate session id accepted")
	}
}

func TestStore_LatestSnapshotWinsByTurn(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.CreateSession(ctx, "s1", 7, 1); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, _, _, err := s.LatestSnapshot(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty session: %v", err)
	}

	for turn := int64(1); turn <= 3; turn++ {
		snap := &world.Snapshot{Seed: 7, Clip: turn * 3, NextActorNum: uint64(turn)}
		if err := s.PutSnapshot(ctx, "s1", turn, "digest", snap); err != nil {
			t.Fatalf("put turn %d: %v", turn, err)
		}
	}
	turn, digest, snap, err := s.LatestSnapshot(ctx, "s1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if turn != 3 || digest != "digest" || snap.Clip != 9 {
		t.Fatalf("latest turn=%d digest=%s clip=%d", turn, digest, snap.Clip)
	}
}

func TestStore_ResaveSameTurnOverwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.CreateSession(ctx, "s1", 7, 1); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.PutSnapshot(ctx, "s1", 5, "old", &world.Snapshot{Seed: 7, Clip: 15}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.PutSnapshot(ctx, "s1", 5, "new", &world.Snapshot{Seed: 7, Clip: 15, NextActorNum: 12}); err != nil {
		t.Fatalf("re-put: %v", err)
	}
	turn, digest, snap, err := s.LatestSnapshot(ctx, "s1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if turn != 5 || digest != "new" || snap.NextActorNum != 12 {
		t.Fatalf("overwrite lost: turn=%d digest=%s next=%d", turn, digest, snap.NextActorNum)
	}
}
