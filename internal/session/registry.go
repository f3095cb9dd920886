package session

import (
	"log/slog"
	"sync"
)

// RoomRegistry maps room ids to live rooms. A room exists in the registry if
// and only if it has at least one member: rooms are created lazily on first
// join and destroyed the instant their last member is removed.
type RoomRegistry struct {
	logger *slog.Logger

	mu    sync.RWMutex
	rooms map[string]*Room
}

// RegistryStats is a point-in-time summary for health reporting.
type RegistryStats struct {
	Rooms   int `json:"rooms"`
	Members int `json:"members"`
}

// RoomSummary describes one live room for debug endpoints.
type RoomSummary struct {
	ID      string `json:"id"`
	Members int    `json:"members"`
	Locks   int    `json:"locks"`
}

// NewRoomRegistry creates an empty registry.
func NewRoomRegistry(logger *slog.Logger) *RoomRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoomRegistry{
		logger: logger,
		rooms:  make(map[string]*Room),
	}
}

// GetOrCreate returns the room for an id, creating an empty one if absent.
// Idempotent: never creates duplicates for the same id.
func (rr *RoomRegistry) GetOrCreate(roomID string) *Room {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	if room, ok := rr.rooms[roomID]; ok {
		return room
	}

	room := newRoom(roomID, rr.logger)
	rr.rooms[roomID] = room
	rr.logger.Info("room created", "room", roomID)
	return room
}

// Get returns the room for an id, if present.
func (rr *RoomRegistry) Get(roomID string) (*Room, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	room, ok := rr.rooms[roomID]
	return room, ok
}

// Join inserts a client into its room, creating the room if needed, and
// returns the room together with the snapshot taken immediately before the
// client's own addition. Retries if the fetched room is destroyed by a
// concurrent last-member departure between lookup and insertion.
func (rr *RoomRegistry) Join(roomID string, c *Client) (*Room, Snapshot) {
	for {
		room := rr.GetOrCreate(roomID)
		if snap, ok := room.Join(c); ok {
			return room, snap
		}
	}
}

// DestroyIfEmpty removes the room if it has zero members; no-op otherwise.
// Must be called after every member removal.
func (rr *RoomRegistry) DestroyIfEmpty(roomID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	room, ok := rr.rooms[roomID]
	if !ok {
		return
	}

	room.mu.Lock()
	empty := len(room.members) == 0
	if empty {
		// Mark destroyed under the room lock so a racing Join re-fetches
		// instead of inserting into an orphaned room.
		room.destroyed = true
	}
	room.mu.Unlock()

	if empty {
		delete(rr.rooms, roomID)
		rr.logger.Info("room destroyed", "room", roomID)
	}
}

// Len returns the number of live rooms.
func (rr *RoomRegistry) Len() int {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	return len(rr.rooms)
}

// Stats returns room and member counts.
func (rr *RoomRegistry) Stats() RegistryStats {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	stats := RegistryStats{Rooms: len(rr.rooms)}
	for _, room := range rr.rooms {
		stats.Members += room.MemberCount()
	}
	return stats
}

// Summaries returns a debug view of every live room.
func (rr *RoomRegistry) Summaries() []RoomSummary {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	out := make([]RoomSummary, 0, len(rr.rooms))
	for _, room := range rr.rooms {
		room.mu.Lock()
		out = append(out, RoomSummary{
			ID:      room.ID,
			Members: len(room.members),
			Locks:   len(room.locks),
		})
		room.mu.Unlock()
	}
	return out
}
