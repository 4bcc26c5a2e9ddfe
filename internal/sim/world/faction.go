package world

import (
	"fmt"

	"hollowdeep.dev/internal/sim/content"
)

type FactionID string

// Diplomacy is the relation between two factions. Storage is directional
// per pair but always applied symmetrically; asymmetry is an internal
// fault, never a recoverable condition.
type Diplomacy uint8

const (
	DiplUnknown Diplomacy = iota
	DiplWar
	DiplAlliance
)

func (d Diplomacy) String() string {
	switch d {
	case DiplWar:
		return "WAR"
	case DiplAlliance:
		return "ALLIANCE"
	}
	return "UNKNOWN"
}

// ParseDiplomacy is the inverse of String, for snapshot decoding.
func ParseDiplomacy(s string) (Diplomacy, error) {
	switch s {
	case "WAR":
		return DiplWar, nil
	case "ALLIANCE":
		return DiplAlliance, nil
	case "UNKNOWN":
		return DiplUnknown, nil
	}
	return DiplUnknown, fmt.Errorf("unknown diplomacy %q", s)
}

type Faction struct {
	ID   FactionID
	Def  content.FactionDef

	Relations map[FactionID]Diplomacy

	// Leader is the actor whose controller may redirect other members;
	// empty when the faction has none.
	Leader ActorID

	// Gone marks a faction that quit or is camping.
	Gone bool

	// Auto routes the faction's decisions to the automated oracle.
	Auto bool
}

// Relation returns the current relation between a and b (Unknown for self
// or unknown pairs).
func (w *World) Relation(a, b FactionID) Diplomacy {
	fa := w.factions[a]
	if fa == nil {
		return DiplUnknown
	}
	return fa.Relations[b]
}

// SetRelation updates both directions of the pair atomically. War takes
// precedence: an alliance request never downgrades an existing war.
func (w *World) SetRelation(a, b FactionID, d Diplomacy) error {
	if a == b {
		return fmt.Errorf("%w: self relation for faction %s", ErrFault, a)
	}
	fa, fb := w.factions[a], w.factions[b]
	if fa == nil || fb == nil {
		return fmt.Errorf("%w: unknown faction pair %s/%s", ErrFault, a, b)
	}
	if d == DiplAlliance && fa.Relations[b] == DiplWar {
		d = DiplWar
	}
	fa.Relations[b] = d
	fb.Relations[a] = d
	return nil
}

// CheckDiplomacy verifies pairwise symmetry across all factions.
func (w *World) CheckDiplomacy() error {
	for _, aid := range w.sortedFactionIDs() {
		fa := w.factions[aid]
		for bid, rel := range fa.Relations {
			fb := w.factions[bid]
			if fb == nil {
				return fmt.Errorf("%w: faction %s has relation to unknown faction %s", ErrFault, aid, bid)
			}
			if fb.Relations[aid] != rel {
				return fmt.Errorf("%w: asymmetric diplomacy %s->%s=%s but %s->%s=%s",
					ErrFault, aid, bid, rel, bid, aid, fb.Relations[aid])
			}
		}
	}
	return nil
}
