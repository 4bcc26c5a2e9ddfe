// Package oracle provides the built-in controller used for hostile
// factions and for factions handed to autoplay. It works purely from the
// observation it is given, the same way a remote controller would.
package oracle

import (
	"context"
	"math/rand"

	"hollowdeep.dev/internal/protocol"
	"hollowdeep.dev/internal/sim/world"
)

type Rule struct {
	rng *rand.Rand
}

// New seeds the oracle. Proposals are deterministic for a fixed seed and
// observation sequence.
func New(seed int64) *Rule {
	return &Rule{rng: rand.New(rand.NewSource(seed))}
}

func (r *Rule) Propose(_ context.Context, obs protocol.ObsMsg) (world.Request, error) {
	self := obs.Self

	if tgt, ok := nearestEnemy(obs); ok {
		d := chebyshev(self.Pos, tgt.Pos)
		if d == 1 {
			return world.ReqMelee{Target: world.ActorID(tgt.ID)}, nil
		}
		return world.ReqMove{Dir: stepToward(self.Pos, tgt.Pos)}, nil
	}

	// Nothing in sight: wander, brace once in a while.
	if r.rng.Intn(6) == 0 {
		return world.ReqWait{}, nil
	}
	dir := world.Vec{DX: r.rng.Intn(3) - 1, DY: r.rng.Intn(3) - 1}
	if dir == (world.Vec{}) {
		return world.ReqWait{}, nil
	}
	return world.ReqMove{Dir: dir}, nil
}

// nearestEnemy scans visible actors for the closest member of another
// faction, skipping thrown items.
func nearestEnemy(obs protocol.ObsMsg) (protocol.ActorState, bool) {
	var best protocol.ActorState
	bestD := -1
	for _, a := range obs.VisibleActors {
		if a.Faction == obs.Self.Faction || a.Projectile {
			continue
		}
		d := chebyshev(obs.Self.Pos, a.Pos)
		if bestD < 0 || d < bestD {
			best, bestD = a, d
		}
	}
	return best, bestD >= 0
}

func stepToward(from, to [2]int) world.Vec {
	return world.Vec{DX: sign(to[0] - from[0]), DY: sign(to[1] - from[1])}
}

func chebyshev(a, b [2]int) int {
	dx, dy := abs(a[0]-b[0]), abs(a[1]-b[1])
	if dx > dy {
		return dx
	}
	return dy
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
