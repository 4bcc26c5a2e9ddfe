package world

// Command is one atomic, already-validated state mutation. Commands are the
// only legal way to mutate authoritative state; the executor applies them
// in resolver order, and replaying the same stream from the same starting
// state reaches the same resulting state.
type Command interface {
	cmdKind() string
}

type CmdMoveActor struct {
	Actor ActorID
	From  Point
	To    Point
}

type CmdDisplaceActor struct {
	A ActorID
	B ActorID
}

// CmdHealActor adjusts hit points by Delta (negative for damage). Dropping
// to zero or below marks the actor dying; the scheduler resolves deaths
// before any other actor acts at the same time.
type CmdHealActor struct {
	Actor ActorID
	Delta int
}

type CmdRefillCalm struct {
	Actor ActorID
	Delta int
}

type CmdAlterTile struct {
	Level LevelID
	Pos   Point
	From  string
	To    string
}

// CmdSearchTile reveals the true identity of a hidden tile.
type CmdSearchTile struct {
	Level LevelID
	Pos   Point
	From  string
	To    string
}

// CmdCreateActor spawns an actor. The executor assigns the identifier
// deterministically from the world counter.
type CmdCreateActor struct {
	Kind       string
	Faction    FactionID
	Level      LevelID
	Pos        Point
	Item       string // carried item, projectiles only
	Trajectory []Vec
	Start      Time // first scheduled action time
}

// CmdDestroyActor removes an actor; held items drop to the ground first.
type CmdDestroyActor struct {
	Actor ActorID
}

type CmdMoveItem struct {
	Actor ActorID
	Item  string
	From  Container
	To    Container
	Count int
}

type CmdDestroyItem struct {
	Actor ActorID
	Item  string
	From  Container
	Count int
}

type CmdCreateItem struct {
	Level LevelID
	Pos   Point
	Item  string
	Count int
}

type CmdSetSmell struct {
	Level  LevelID
	Pos    Point
	Expiry Time
}

type CmdSetTrajectory struct {
	Actor      ActorID
	Trajectory []Vec
}

type CmdSetWait struct {
	Actor  ActorID
	Braced bool
}

type CmdChangeDiplomacy struct {
	A   FactionID
	B   FactionID
	Rel Diplomacy
}

func (CmdMoveActor) cmdKind() string       { return "MOVE_ACTOR" }
func (CmdDisplaceActor) cmdKind() string   { return "DISPLACE_ACTOR" }
func (CmdHealActor) cmdKind() string       { return "HEAL_ACTOR" }
func (CmdRefillCalm) cmdKind() string      { return "REFILL_CALM" }
func (CmdAlterTile) cmdKind() string       { return "ALTER_TILE" }
func (CmdSearchTile) cmdKind() string      { return "SEARCH_TILE" }
func (CmdCreateActor) cmdKind() string     { return "CREATE_ACTOR" }
func (CmdDestroyActor) cmdKind() string    { return "DESTROY_ACTOR" }
func (CmdMoveItem) cmdKind() string        { return "MOVE_ITEM" }
func (CmdDestroyItem) cmdKind() string     { return "DESTROY_ITEM" }
func (CmdCreateItem) cmdKind() string      { return "CREATE_ITEM" }
func (CmdSetSmell) cmdKind() string        { return "SET_SMELL" }
func (CmdSetTrajectory) cmdKind() string   { return "SET_TRAJECTORY" }
func (CmdSetWait) cmdKind() string         { return "SET_WAIT" }
func (CmdChangeDiplomacy) cmdKind() string { return "CHANGE_DIPLOMACY" }

// Notice is a cosmetic/informational message accompanying Commands. It
// carries no state-mutating power and may be dropped for observers who
// cannot perceive the event.
type Notice struct {
	Kind   string
	Actor  ActorID
	Target ActorID
	Pos    Point
	Item   string
	Text   string
	// Level is set on upkeep notices, which have no acting actor; notices
	// from actor steps play on the actor's own level.
	Level LevelID
}

const (
	NoticeStrike  = "STRIKE"
	NoticeBlock   = "BLOCK"
	NoticeTrigger = "TRIGGER"
	NoticeLaunch  = "LAUNCH"
	NoticeLand    = "LAND"
	NoticeFall    = "FALL"
	NoticeDie     = "DIE"
	NoticeSpawn   = "SPAWN"
)
