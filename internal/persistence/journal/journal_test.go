package journal

import (
	"io"
	"path/filepath"
	"reflect"
	"testing"

	"hollowdeep.dev/internal/protocol"
	"hollowdeep.dev/internal/sim/world"
)

func TestJournal_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, "sess-1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	steps := []world.StepRecord{
		{Turn: 0, Clip: 0, Level: 1, Actor: "A1", Request: protocol.RequestMsg{Kind: "MOVE", DX: 1}},
		{Turn: 0, Clip: 1, Level: 1, Actor: "A2", Request: protocol.RequestMsg{Kind: "MELEE", TargetID: "A1"},
			Fail: "E_MELEE_DISTANT"},
	}
	for _, s := range steps {
		if err := w.LogStep(s); err != nil {
			t.Fatalf("log step: %v", err)
		}
	}
	if err := w.LogTurn(world.TurnRecord{Turn: 0, Digest: "abc123"}); err != nil {
		t.Fatalf("log turn: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := w.LogStep(steps[0]); err == nil {
		t.Fatalf("write after close accepted")
	}

	var got []Record
	path := filepath.Join(dir, "journal-sess-1.jsonl.zst")
	if err := Read(path, func(rec Record) error {
		got = append(got, rec)
		return nil
	}); err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("%d records, want 3", len(got))
	}
	for i, s := range steps {
		if got[i].Step == nil || got[i].Turn != nil {
			t.Fatalf("record %d is not a step", i)
		}
		if !reflect.DeepEqual(*got[i].Step, s) {
			t.Fatalf("step %d: got %+v want %+v", i, *got[i].Step, s)
		}
	}
	if got[2].Turn == nil || got[2].Turn.Digest != "abc123" {
		t.Fatalf("turn record lost: %+v", got[2])
	}
}

func TestJournal_ReadStopsOnEOF(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, "sess-2")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for i := int64(0); i < 5; i++ {
		if err := w.LogTurn(world.TurnRecord{Turn: i, Digest: "d"}); err != nil {
			t.Fatalf("log: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	seen := 0
	path := filepath.Join(dir, "journal-sess-2.jsonl.zst")
	err = Read(path, func(Record) error {
		seen++
		if seen == 2 {
			return io.EOF
		}
		return nil
	})
	if err != nil {
		t.Fatalf("EOF should end the stream cleanly: %v", err)
	}
	if seen != 2 {
		t.Fatalf("callback ran %d times, want 2", seen)
	}
}
