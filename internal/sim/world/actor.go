package world

type ActorID string

// Container identifies where an actor-held item stack lives. Ground refers
// to the tile under the actor's feet.
type Container string

const (
	CGround Container = "GROUND"
	CPack   Container = "PACK"
	CEquip  Container = "EQUIP"
	COrgan  Container = "ORGAN"
)

func ParseContainer(s string) (Container, bool) {
	switch Container(s) {
	case CGround, CPack, CEquip, COrgan:
		return Container(s), true
	}
	return "", false
}

// Actor is one scheduled entity: a party member, a monster, or an in-flight
// projectile. Mutated exclusively through Commands.
type Actor struct {
	ID      ActorID
	Kind    string
	Faction FactionID
	Level   LevelID
	Pos     Point

	HP   int
	Calm int

	// NextTime is when the actor acts next; it never moves backward.
	NextTime Time

	// Braced actors get the melee block chance; cleared when they next act.
	Braced bool

	// Dying actors are scheduled before all others at the same time so
	// deaths resolve first.
	Dying bool

	Projectile bool
	// Trajectory is the queue of movement vectors a projectile (or flying
	// body) still has to follow.
	Trajectory []Vec
	// CarriedItem is the item a projectile delivers on landing.
	CarriedItem string

	Pack   map[string]int
	Equip  map[string]int
	Organs map[string]int

	// Ordinal is the creation ordinal; the final scheduler tie-break.
	Ordinal uint64
}

func (a *Actor) initContainers() {
	if a.Pack == nil {
		a.Pack = map[string]int{}
	}
	if a.Equip == nil {
		a.Equip = map[string]int{}
	}
	if a.Organs == nil {
		a.Organs = map[string]int{}
	}
}

// heldContainer returns the actor-held stack map for c, or nil for CGround.
func (a *Actor) heldContainer(c Container) map[string]int {
	switch c {
	case CPack:
		return a.Pack
	case CEquip:
		return a.Equip
	case COrgan:
		return a.Organs
	}
	return nil
}
