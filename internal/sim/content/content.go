// Package content loads the static content tables the simulation consumes:
// tile kinds, item kinds, actor kinds and faction definitions. Numeric
// balancing lives entirely in these tables; the core treats them as opaque
// lookups.
package content

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

type Catalogs struct {
	Tiles    TileCatalog
	Items    ItemCatalog
	Actors   ActorCatalog
	Factions FactionCatalog

	// Digest covers all four tables; advertised in WELCOME so controllers
	// can detect content drift.
	Digest string
}

type TileCatalog struct {
	Defs   map[string]TileDef
	Digest string
}

// TileDef describes one tile kind. The alteration group (OpenTo, CloseTo,
// ChangeTo) names the tile this one converts to under an Alter request.
// HideAs names the true identity of a hidden tile revealed by searching.
type TileDef struct {
	ID       string      `json:"id"`
	Glyph    string      `json:"glyph"`
	Walkable bool        `json:"walkable"`
	Clear    bool        `json:"clear"`
	OpenTo   string      `json:"open_to,omitempty"`
	CloseTo  string      `json:"close_to,omitempty"`
	ChangeTo string      `json:"change_to,omitempty"`
	HideAs   string      `json:"hide_as,omitempty"`
	OnCause  []EffectDef `json:"on_cause,omitempty"`
}

// EffectDef is one opaque item/tile effect. BURN is the only damaging kind;
// periodic re-application excludes it.
type EffectDef struct {
	Kind  string `json:"kind"` // "HEAL", "CALM", "BURN"
	Power int    `json:"power"`
}

const (
	EffectHeal = "HEAL"
	EffectCalm = "CALM"
	EffectBurn = "BURN"
)

// Damaging reports whether re-applying the effect can hurt its target.
func (e EffectDef) Damaging() bool {
	return e.Kind == EffectBurn || (e.Kind == EffectHeal && e.Power < 0)
}

type ItemCatalog struct {
	Defs   map[string]ItemDef
	Digest string
}

type ItemDef struct {
	ID       string      `json:"id"`
	Glyph    string      `json:"glyph"`
	Weapon   bool        `json:"weapon,omitempty"`
	Damage   int         `json:"damage,omitempty"`
	Effects  []EffectDef `json:"effects,omitempty"`
	Periodic bool        `json:"periodic,omitempty"`
	// Fragment marks area-effect fragments; projecting one bypasses the
	// calm and sight gates.
	Fragment bool `json:"fragment,omitempty"`
}

type ActorCatalog struct {
	Defs   map[string]ActorDef
	Digest string
}

type ActorDef struct {
	ID    string `json:"id"`
	Glyph string `json:"glyph"`
	HP    int    `json:"hp"`
	Calm  int    `json:"calm"`
	Sight int    `json:"sight"`
	// Silent kinds leave no smell trail.
	Silent bool `json:"silent,omitempty"`
	// Speed is the time delta between actions, in deltas (10 per clip).
	// Zero means one action per clip.
	Speed int `json:"speed,omitempty"`
}

// ProjectileKind is the actor kind every in-flight item uses.
const ProjectileKind = "PROJECTILE"

type FactionCatalog struct {
	Defs   map[string]FactionDef
	Digest string
}

type FactionDef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// HandWeapon is the hand-to-hand fallback weapon for melee when no
	// equipped weapon is available.
	HandWeapon string `json:"hand_weapon"`
	Playable   bool   `json:"playable,omitempty"`
	// Hostile factions are eligible targets of periodic spawning.
	Hostile    bool     `json:"hostile,omitempty"`
	SpawnKinds []string `json:"spawn_kinds,omitempty"`
	// Alliances are applied symmetrically at session start.
	Alliances []string `json:"alliances,omitempty"`
}

// Sorted returns faction IDs in stable order.
func (c FactionCatalog) Sorted() []string { return sortedKeys(c.Defs) }

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadTiles(filepath.Join(configDir, "tiles.json"), &c.Tiles); err != nil {
		return nil, err
	}
	if err := loadItems(filepath.Join(configDir, "items.json"), &c.Items); err != nil {
		return nil, err
	}
	if err := loadActors(filepath.Join(configDir, "actors.json"), &c.Actors); err != nil {
		return nil, err
	}
	if err := loadFactions(filepath.Join(configDir, "factions.json"), &c.Factions); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	c.Digest = sha256Hex([]byte(c.Tiles.Digest + c.Items.Digest + c.Actors.Digest + c.Factions.Digest))
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadTiles(path string, out *TileCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []TileDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("tiles.json: %w", err)
	}
	out.Defs = map[string]TileDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("tiles.json: empty id")
		}
		out.Defs[d.ID] = d
	}
	return nil
}

func loadItems(path string, out *ItemCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.Defs = map[string]ItemDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("items.json: empty id")
		}
		out.Defs[d.ID] = d
	}
	return nil
}

func loadActors(path string, out *ActorCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []ActorDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("actors.json: %w", err)
	}
	out.Defs = map[string]ActorDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("actors.json: empty id")
		}
		out.Defs[d.ID] = d
	}
	if _, ok := out.Defs[ProjectileKind]; !ok {
		return fmt.Errorf("actors.json: missing %s kind", ProjectileKind)
	}
	return nil
}

func loadFactions(path string, out *FactionCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []FactionDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("factions.json: %w", err)
	}
	out.Defs = map[string]FactionDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("factions.json: empty id")
		}
		out.Defs[d.ID] = d
	}
	return nil
}

// validate cross-checks references between the four tables.
func (c *Catalogs) validate() error {
	for _, id := range sortedKeys(c.Tiles.Defs) {
		d := c.Tiles.Defs[id]
		for _, ref := range []string{d.OpenTo, d.CloseTo, d.ChangeTo, d.HideAs} {
			if ref == "" {
				continue
			}
			if _, ok := c.Tiles.Defs[ref]; !ok {
				return fmt.Errorf("tiles.json: %s references unknown tile %s", id, ref)
			}
		}
	}
	for _, id := range sortedKeys(c.Factions.Defs) {
		d := c.Factions.Defs[id]
		if _, ok := c.Items.Defs[d.HandWeapon]; !ok {
			return fmt.Errorf("factions.json: %s hand_weapon %q unknown", id, d.HandWeapon)
		}
		for _, k := range d.SpawnKinds {
			if _, ok := c.Actors.Defs[k]; !ok {
				return fmt.Errorf("factions.json: %s spawn kind %q unknown", id, k)
			}
		}
		for _, a := range d.Alliances {
			if _, ok := c.Factions.Defs[a]; !ok {
				return fmt.Errorf("factions.json: %s alliance %q unknown", id, a)
			}
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
