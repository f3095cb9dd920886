package router

// Limits bounds client-supplied strings. Oversized values are truncated
// rather than rejected so a join can always succeed.
type Limits struct {
	MaxRoomIDLength   int
	MaxUsernameLength int
	MaxChatLength     int
}

// DefaultLimits returns sensible defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxRoomIDLength:   128,
		MaxUsernameLength: 64,
		MaxChatLength:     2000,
	}
}

// Stats contains runtime statistics.
type Stats struct {
	MessagesReceived int64 `json:"messages_received"`
	MessagesRouted   int64 `json:"messages_routed"`
	ParseErrors      int64 `json:"parse_errors"`
	UnknownTypes     int64 `json:"unknown_types"`
	Dropped          int64 `json:"dropped"`
	PermissionDenied int64 `json:"permission_denied"`
	LockConflicts    int64 `json:"lock_conflicts"`
}
