package protocol

// UserInfo describes one room member in rosters and presence messages.
type UserInfo struct {
	UserID     string `json:"userId"`
	Username   string `json:"username"`
	Permission Role   `json:"permission"`
	Cursor     Cursor `json:"cursor"`
}

// JoinSuccess is the reply to a successful join. RoomState carries the
// room's shared state keys plus a "locks" entry mapping objectId to holder.
type JoinSuccess struct {
	Type       string         `json:"type"`
	UserID     string         `json:"userId"`
	Username   string         `json:"username"`
	Permission Role           `json:"permission"`
	RoomState  map[string]any `json:"roomState"`
	Users      []UserInfo     `json:"users"`
}

// UserJoined announces a new member to the rest of the room.
type UserJoined struct {
	Type       string `json:"type"`
	UserID     string `json:"userId"`
	Username   string `json:"username"`
	Permission Role   `json:"permission"`
}

// UserLeft announces a departed member.
type UserLeft struct {
	Type     string `json:"type"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// StateUpdateEvent relays an applied patch with a server-assigned timestamp.
type StateUpdateEvent struct {
	Type      string         `json:"type"`
	UserID    string         `json:"userId"`
	Username  string         `json:"username"`
	Update    map[string]any `json:"update"`
	Timestamp int64          `json:"timestamp"`
}

// CursorMoveEvent relays a member's cursor position.
type CursorMoveEvent struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
	Cursor Cursor `json:"cursor"`
}

// ChatMessageEvent relays one chat line with a server-assigned timestamp.
type ChatMessageEvent struct {
	Type      string `json:"type"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// ObjectLocked announces a granted lock.
type ObjectLocked struct {
	Type     string `json:"type"`
	ObjectID string `json:"objectId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// ObjectUnlocked announces a released lock.
type ObjectUnlocked struct {
	Type     string `json:"type"`
	ObjectID string `json:"objectId"`
	UserID   string `json:"userId"`
}

// ErrorReply is sent only to the connection that caused the failure.
type ErrorReply struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewRoomState flattens shared state and the lock table into the roomState
// payload shape: every shared-state key at the top level plus "locks".
func NewRoomState(sharedState map[string]any, locks map[string]string) map[string]any {
	rs := make(map[string]any, len(sharedState)+1)
	for k, v := range sharedState {
		rs[k] = v
	}
	rs["locks"] = locks
	return rs
}

// NewErrorReply builds an error reply.
func NewErrorReply(message string) ErrorReply {
	return ErrorReply{Type: TypeError, Message: message}
}
