package protocol

import (
	"encoding/json"
	"fmt"
)

// ClientMessage is the closed set of messages a client may send.
type ClientMessage interface {
	clientMessage()
}

// Join requests membership in a room. Permission is optional and defaults
// to viewer.
type Join struct {
	Type       string `json:"type"`
	RoomID     string `json:"roomId"`
	Username   string `json:"username"`
	Permission string `json:"permission,omitempty"`
}

// StateUpdate carries a shallow patch of the room's shared state. Each key's
// value replaces the stored value wholesale.
type StateUpdate struct {
	Type   string         `json:"type"`
	Update map[string]any `json:"update"`
}

// CursorMove reports the sender's cursor position.
type CursorMove struct {
	Type   string `json:"type"`
	Cursor Cursor `json:"cursor"`
}

// ChatMessage carries one chat line.
type ChatMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// LockObject requests an exclusive lock on a logical object.
type LockObject struct {
	Type     string `json:"type"`
	ObjectID string `json:"objectId"`
}

// UnlockObject releases a lock held by the sender.
type UnlockObject struct {
	Type     string `json:"type"`
	ObjectID string `json:"objectId"`
}

func (Join) clientMessage()         {}
func (StateUpdate) clientMessage()  {}
func (CursorMove) clientMessage()   {}
func (ChatMessage) clientMessage()  {}
func (LockObject) clientMessage()   {}
func (UnlockObject) clientMessage() {}

// Decode parses a raw inbound message into its typed variant.
// Returns ErrMalformed when the envelope fails to parse and ErrUnknownType
// when the type field names no known variant.
func Decode(data []byte) (ClientMessage, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var (
		msg ClientMessage
		err error
	)

	switch env.Type {
	case TypeJoin:
		var m Join
		err = json.Unmarshal(data, &m)
		msg = m
	case TypeStateUpdate:
		var m StateUpdate
		err = json.Unmarshal(data, &m)
		msg = m
	case TypeCursorMove:
		var m CursorMove
		err = json.Unmarshal(data, &m)
		msg = m
	case TypeChatMessage:
		var m ChatMessage
		err = json.Unmarshal(data, &m)
		msg = m
	case TypeLockObject:
		var m LockObject
		err = json.Unmarshal(data, &m)
		msg = m
	case TypeUnlockObject:
		var m UnlockObject
		err = json.Unmarshal(data, &m)
		msg = m
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrMalformed, env.Type, err)
	}
	return msg, nil
}
