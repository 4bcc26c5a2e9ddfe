package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	FactionID       string `json:"faction_id"`
	Name            string `json:"name,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	FactionID       string        `json:"faction_id"`
	SessionToken    string        `json:"session_token"`
	Params          SessionParams `json:"params"`
}

type SessionParams struct {
	ClipsPerTurn int    `json:"clips_per_turn"`
	Depths       int    `json:"depths"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Seed         int64  `json:"seed"`
	ContentDigest string `json:"content_digest"`
}

// OBS (server -> client): sent when one of the faction's actors is due to
// act. The view is restricted to what the faction currently perceives.
type ObsMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Turn            int64       `json:"turn"`
	Clip            int64       `json:"clip"`
	ActorID         string      `json:"actor_id"`
	Level           int         `json:"level"`
	Self            ActorState  `json:"self"`
	VisibleTiles    []TileState `json:"visible_tiles"`
	VisibleActors   []ActorState `json:"visible_actors"`
}

type ActorState struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Faction    string `json:"faction"`
	Pos        [2]int `json:"pos"`
	HP         int    `json:"hp,omitempty"`
	Calm       int    `json:"calm,omitempty"`
	Braced     bool   `json:"braced,omitempty"`
	Projectile bool   `json:"projectile,omitempty"`
	Leader     bool   `json:"leader,omitempty"`
}

type TileState struct {
	Pos  [2]int `json:"pos"`
	Tile string `json:"tile"`
}

// ACT (client -> server): the controller's proposed request for the actor
// named in the last OBS. Never trusted blindly; the resolver revalidates.
type ActMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	ActorID         string     `json:"actor_id"`
	Request         RequestMsg `json:"request"`
}

// RequestMsg is the wire form of a proposed action, routed by Kind.
type RequestMsg struct {
	Kind string `json:"kind"`

	// MOVE / direction-bearing requests.
	DX int `json:"dx,omitempty"`
	DY int `json:"dy,omitempty"`

	// MELEE / DISPLACE.
	TargetID string `json:"target_id,omitempty"`

	// ALTER / PROJECT target position.
	X int `json:"x,omitempty"`
	Y int `json:"y,omitempty"`

	// ALTER / TRIGGER feature filter ("open", "close", "change", "cause").
	Feature string `json:"feature,omitempty"`

	// PROJECT line curvature parameter.
	Eps int `json:"eps,omitempty"`

	// Item-bearing requests (MOVE_ITEM, PROJECT, APPLY).
	Item  string `json:"item,omitempty"`
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
	Count int    `json:"count,omitempty"`

	// Session requests.
	Difficulty int    `json:"difficulty,omitempty"`
	KeepSeed   bool   `json:"keep_seed,omitempty"`
	FactionID  string `json:"faction_id,omitempty"`
}

// Request kinds.
const (
	ReqMove          = "MOVE"
	ReqMelee         = "MELEE"
	ReqDisplace      = "DISPLACE"
	ReqAlter         = "ALTER"
	ReqWait          = "WAIT"
	ReqMoveItem      = "MOVE_ITEM"
	ReqProject       = "PROJECT"
	ReqApply         = "APPLY"
	ReqTrigger       = "TRIGGER"
	ReqSetTrajectory = "SET_TRAJECTORY"

	ReqRestart  = "RESTART"
	ReqExit     = "EXIT"
	ReqSave     = "SAVE"
	ReqAutomate = "AUTOMATE"
)

// EVENT (server -> client): one perceived command or effect notice. Entries
// a faction cannot perceive are dropped before this message is built.
type EventMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Turn            int64  `json:"turn"`
	Clip            int64  `json:"clip"`
	Level           int    `json:"level"`
	Entry           Entry  `json:"entry"`
}

// Entry is a tagged command or notice record. Commands mutate state on
// replay; notices are cosmetic and carry no state-mutating power.
type Entry struct {
	Command string         `json:"command,omitempty"`
	Notice  string         `json:"notice,omitempty"`
	Actor   string         `json:"actor,omitempty"`
	Target  string         `json:"target,omitempty"`
	Pos     [2]int         `json:"pos,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// FAILURE (server -> client): a rejected request. Surfaced only to the
// faction that proposed it; the actor forfeits the action.
type FailureMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Turn            int64  `json:"turn"`
	ActorID         string `json:"actor_id"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}

// BYE (server -> client): session ended (exit, restart, budget, save).
type ByeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Reason          string `json:"reason"`
}
