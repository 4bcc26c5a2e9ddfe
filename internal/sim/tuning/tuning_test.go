package tuning

import "testing"

func TestValidateRejectsShortTurn(t *testing.T) {
	tu := Tuning{ClipsPerTurn: 2, Depths: 3, Width: 40, Height: 20}
	if err := tu.Validate(); err == nil {
		t.Fatalf("expected error for clips_per_turn=2")
	}
}

func TestValidateRejectsBadOffset(t *testing.T) {
	tu := Tuning{ClipsPerTurn: 10, MaintenanceClipOffset: 10, Depths: 3, Width: 40, Height: 20}
	if err := tu.Validate(); err == nil {
		t.Fatalf("expected error for offset == clips_per_turn")
	}
}

func TestLoadDefaults(t *testing.T) {
	tu, err := Load("../../../configs/tuning.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tu.ClipsPerTurn <= 2 {
		t.Fatalf("clips_per_turn too small: %d", tu.ClipsPerTurn)
	}
	if tu.Depths < 1 {
		t.Fatalf("depths: %d", tu.Depths)
	}
}
