package game

import "errors"

// Validation failures. These are reported to the acting connection as an
// "error" notification and never mutate room state.
var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrGameNotStarted     = errors.New("game has not started")
	ErrNotInRoom          = errors.New("not in a room")
	ErrInvalidCapacity    = errors.New("invalid room capacity")
	ErrBadPayload         = errors.New("malformed message")
	ErrUnknownAction      = errors.New("unknown action")

	ErrUnknownUpgrade    = errors.New("unknown upgrade")
	ErrUpgradeOwned      = errors.New("upgrade already owned")
	ErrUpgradeMaxed      = errors.New("upgrade is at max level")
	ErrInsufficientScore = errors.New("not enough score")

	ErrFactoryNotBuilt = errors.New("energy factory not built")
	ErrEventActive     = errors.New("factory event already active")
	ErrNoActiveEvent   = errors.New("no active factory event")
)

// errInternal is what a connection sees when a handler panics.
var errInternal = errors.New("internal error")
