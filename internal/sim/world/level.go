package world

// LevelID is the dungeon depth, 1-based.
type LevelID int

// Level holds one dungeon depth: the tile grid, ambient smell overlay,
// ground item stacks and the time-priority queue of its actors.
type Level struct {
	ID     LevelID
	Width  int
	Height int

	// Tiles holds tile kind ids, row-major.
	Tiles []string

	// Smell maps positions to the expiry time of the smell trail there.
	Smell map[Point]Time

	// Ground maps positions to item stacks lying there.
	Ground map[Point]map[string]int

	// Time is the level clock; monotonically non-decreasing.
	Time Time

	// Queue maps every live actor on this level to its next-action time.
	Queue map[ActorID]Time
}

func (lv *Level) InBounds(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < lv.Width && p.Y < lv.Height
}

func (lv *Level) TileAt(p Point) string {
	return lv.Tiles[p.Y*lv.Width+p.X]
}

func (lv *Level) setTile(p Point, id string) {
	lv.Tiles[p.Y*lv.Width+p.X] = id
}

func (lv *Level) groundAt(p Point) map[string]int {
	g := lv.Ground[p]
	if g == nil {
		g = map[string]int{}
		lv.Ground[p] = g
	}
	return g
}

// addGround merges count units of item onto the tile at p.
func (lv *Level) addGround(p Point, item string, count int) {
	if count <= 0 {
		return
	}
	lv.groundAt(p)[item] += count
}

// takeGround removes count units of item from p; reports success.
func (lv *Level) takeGround(p Point, item string, count int) bool {
	g := lv.Ground[p]
	if g == nil || g[item] < count {
		return false
	}
	g[item] -= count
	if g[item] == 0 {
		delete(g, item)
	}
	if len(g) == 0 {
		delete(lv.Ground, p)
	}
	return true
}
