package game

import "errors"

var (
	ErrCardNotFound   = errors.New("CARD_NOT_FOUND: card not found")
	ErrInvalidPayload = errors.New("INVALID_PAYLOAD: malformed action payload")
	ErrUnknownAction  = errors.New("UNKNOWN_ACTION: unknown action type")
	ErrInvalidState   = errors.New("INVALID_STATE: room state violates zone invariants")
)
