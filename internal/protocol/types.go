package protocol

import "errors"

// Errors
var (
	ErrMalformed   = errors.New("malformed message")
	ErrUnknownType = errors.New("unknown message type")
)

// Message type names, client to server.
const (
	TypeJoin         = "join"
	TypeStateUpdate  = "state_update"
	TypeCursorMove   = "cursor_move"
	TypeChatMessage  = "chat_message"
	TypeLockObject   = "lock_object"
	TypeUnlockObject = "unlock_object"
)

// Message type names, server to client.
const (
	TypeJoinSuccess    = "join_success"
	TypeUserJoined     = "user_joined"
	TypeUserLeft       = "user_left"
	TypeObjectLocked   = "object_locked"
	TypeObjectUnlocked = "object_unlocked"
	TypeError          = "error"
)

// Role is the permission tier of a client within a room.
type Role string

const (
	RoleViewer   Role = "viewer"
	RoleActor    Role = "actor"
	RoleDirector Role = "director"
)

// NormalizeRole maps a requested permission string to a known role.
// Unknown or empty values fall back to viewer.
func NormalizeRole(s string) Role {
	switch Role(s) {
	case RoleActor:
		return RoleActor
	case RoleDirector:
		return RoleDirector
	default:
		return RoleViewer
	}
}

// CanEdit reports whether the role may mutate shared state or hold locks.
func (r Role) CanEdit() bool {
	return r == RoleActor || r == RoleDirector
}

// Cursor is a transient 2D cursor position.
type Cursor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// envelope is used for fast type extraction.
type envelope struct {
	Type string `json:"type"`
}
