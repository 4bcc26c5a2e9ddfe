package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrSessionBusy     = "E_SESSION_BUSY"
	ErrFactionUnknown  = "E_FACTION_UNKNOWN"
	ErrFactionTaken    = "E_FACTION_TAKEN"
	ErrInternal        = "E_INTERNAL"
)

// Resolver failure codes. A failed request forfeits the acting actor's
// action; it never aborts the session.
const (
	FailMoveBlocked = "E_MOVE_BLOCKED"

	FailMeleeSelf    = "E_MELEE_SELF"
	FailMeleeDistant = "E_MELEE_DISTANT"

	FailDisplaceDistant     = "E_DISPLACE_DISTANT"
	FailDisplaceAccess      = "E_DISPLACE_ACCESS"
	FailDisplaceProjectiles = "E_DISPLACE_PROJECTILES"

	FailAlterDistant    = "E_ALTER_DISTANT"
	FailAlterNothing    = "E_ALTER_NOTHING"
	FailAlterBlockActor = "E_ALTER_BLOCK_ACTOR"
	FailAlterBlockItem  = "E_ALTER_BLOCK_ITEM"

	FailItemNothing = "E_ITEM_NOTHING"
	FailItemNotCalm = "E_ITEM_NOT_CALM"

	FailProjectAimOnself    = "E_PROJECT_AIM_ONSELF"
	FailProjectBlockTerrain = "E_PROJECT_BLOCK_TERRAIN"
	FailProjectBlockActor   = "E_PROJECT_BLOCK_ACTOR"
	FailProjectNotCalm      = "E_PROJECT_NOT_CALM"
	FailProjectBlind        = "E_PROJECT_BLIND"

	FailTriggerNothing = "E_TRIGGER_NOTHING"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrSessionBusy:     {},
	ErrFactionUnknown:  {},
	ErrFactionTaken:    {},
	ErrInternal:        {},

	FailMoveBlocked:         {},
	FailMeleeSelf:           {},
	FailMeleeDistant:        {},
	FailDisplaceDistant:     {},
	FailDisplaceAccess:      {},
	FailDisplaceProjectiles: {},
	FailAlterDistant:        {},
	FailAlterNothing:        {},
	FailAlterBlockActor:     {},
	FailAlterBlockItem:      {},
	FailItemNothing:         {},
	FailItemNotCalm:         {},
	FailProjectAimOnself:    {},
	FailProjectBlockTerrain: {},
	FailProjectBlockActor:   {},
	FailProjectNotCalm:      {},
	FailProjectBlind:        {},
	FailTriggerNothing:      {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
