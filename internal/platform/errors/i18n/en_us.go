package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeInvalidAddress       = "INVALID_ADDRESS"
	CodeInvalidBetKind       = "INVALID_BET_KIND"
	CodeInvalidNumber        = "INVALID_NUMBER"
	CodeWrongStake           = "WRONG_STAKE"
	CodeInvalidTier          = "INVALID_TIER"
	CodeInvalidName          = "INVALID_NAME"
	CodeSelfSwap             = "SELF_SWAP"
	CodeNotOwner             = "NOT_OWNER"
	CodeWrongTarget          = "WRONG_TARGET"
	CodeItemReserved         = "ITEM_RESERVED"
	CodeProposerNoLongerOwns = "PROPOSER_NO_LONGER_OWNS"
	CodeNotPending           = "NOT_PENDING"
	CodeNotFound             = "NOT_FOUND"
	CodeCapacityExceeded     = "CAPACITY_EXCEEDED"
	CodeCooldownActive       = "COOLDOWN_ACTIVE"
	CodeNotProposer          = "NOT_PROPOSER"
	CodeNotTarget            = "NOT_TARGET"
	CodeNotMinter            = "NOT_MINTER"
)

var enUSMessages = map[Code]string{
	CodeInvalidAddress:       "An account address is required.",
	CodeInvalidBetKind:       "That bet is not on the table.",
	CodeInvalidNumber:        "That number cannot be played with this bet.",
	CodeWrongStake:           "A ticket costs exactly {{.expected}}.",
	CodeInvalidTier:          "Unknown reward tier.",
	CodeInvalidName:          "A reward name is required.",
	CodeSelfSwap:             "You cannot trade with yourself.",
	CodeNotOwner:             "Item #{{.item_id}} belongs to someone else.",
	CodeWrongTarget:          "Item #{{.item_id}} is not held by the player you picked.",
	CodeItemReserved:         "Item #{{.item_id}} is already part of a pending swap.",
	CodeProposerNoLongerOwns: "The offered item has changed hands since the swap was proposed.",
	CodeNotPending:           "Swap #{{.swap_id}} is no longer pending.",
	CodeNotFound:             "Nothing was found with that id.",
	CodeCapacityExceeded:     "The inventory is full ({{.capacity}} items).",
	CodeCooldownActive:       "Please wait {{.remaining_seconds}} seconds before trying again.",
	CodeNotProposer:          "Only the proposer can cancel this swap.",
	CodeNotTarget:            "Only the recipient can answer this swap.",
	CodeNotMinter:            "You are not allowed to mint rewards.",
}
