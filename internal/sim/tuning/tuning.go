package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	// Scheduling. A clip is the smallest scheduling quantum; a turn is
	// ClipsPerTurn clips. Many periodic behaviors assume ClipsPerTurn > 2.
	ClipsPerTurn          int `yaml:"clips_per_turn"`
	MaintenanceClipOffset int `yaml:"maintenance_clip_offset"`

	// Session.
	SessionBudgetSec int `yaml:"session_budget_sec"`

	// Actor resources.
	CalmGate    int `yaml:"calm_gate"`
	CalmRegen   int `yaml:"calm_regen"`
	SmellTurns  int `yaml:"smell_turns"`

	// Level generation.
	Depths int `yaml:"depths"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.ClipsPerTurn <= 2 {
		return fmt.Errorf("clips_per_turn must be > 2, got %d", t.ClipsPerTurn)
	}
	if t.MaintenanceClipOffset < 0 || t.MaintenanceClipOffset >= t.ClipsPerTurn {
		return fmt.Errorf("maintenance_clip_offset %d out of range [0,%d)", t.MaintenanceClipOffset, t.ClipsPerTurn)
	}
	if t.Depths < 1 {
		return fmt.Errorf("depths must be >= 1, got %d", t.Depths)
	}
	if t.Width < 8 || t.Height < 8 {
		return fmt.Errorf("level size too small: %dx%d", t.Width, t.Height)
	}
	return nil
}
