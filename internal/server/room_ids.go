package server

import (
	"errors"
	"math/rand/v2"
)

const (
	roomCodeLength = 4
	maxRoomIDLen   = 64
)

// GenerateRoomCode returns a four letter code that inUse does not claim.
func GenerateRoomCode(inUse func(string) bool) string {
	for {
		code := make([]byte, roomCodeLength)
		for i := range code {
			code[i] = 'A' + byte(rand.IntN(26))
		}
		roomCode := string(code)

		if !inUse(roomCode) {
			return roomCode
		}
	}
}

// ValidateRoomID accepts 1 to 64 characters of letters, digits, '-' or '_'.
// Room ids become file names in the file store, so nothing else is allowed.
func ValidateRoomID(id string) error {
	if len(id) == 0 {
		return errors.New("INVALID_ROOM_ID: Room id cannot be empty")
	}
	if len(id) > maxRoomIDLen {
		return errors.New("INVALID_ROOM_ID: Room id too long (max 64 characters)")
	}
	for _, ch := range id {
		switch {
		case ch >= 'A' && ch <= 'Z', ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9', ch == '-', ch == '_':
		default:
			return errors.New("INVALID_ROOM_ID: Room id may only contain letters, digits, '-' and '_'")
		}
	}
	return nil
}
