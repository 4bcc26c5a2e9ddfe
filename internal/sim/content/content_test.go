package content

import "testing"

func TestLoadContent(t *testing.T) {
	c, err := Load("../../../configs")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Digest == "" {
		t.Fatalf("empty combined digest")
	}
	if _, ok := c.Actors.Defs[ProjectileKind]; !ok {
		t.Fatalf("missing projectile kind")
	}
	for id, f := range c.Factions.Defs {
		if _, ok := c.Items.Defs[f.HandWeapon]; !ok {
			t.Fatalf("faction %s hand weapon %s unknown", id, f.HandWeapon)
		}
	}
}

func TestEffectDamaging(t *testing.T) {
	if (EffectDef{Kind: EffectCalm, Power: 2}).Damaging() {
		t.Fatalf("calm should not be damaging")
	}
	if !(EffectDef{Kind: EffectBurn, Power: 1}).Damaging() {
		t.Fatalf("burn should be damaging")
	}
	if !(EffectDef{Kind: EffectHeal, Power: -3}).Damaging() {
		t.Fatalf("negative heal should be damaging")
	}
}
