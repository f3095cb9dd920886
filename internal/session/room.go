package session

import (
	"log/slog"
	"sync"

	"scenesync/internal/protocol"
)

// Room is one collaboration session. All three maps are guarded by a single
// mutex so lock acquisition, state writes, and membership changes observe a
// consistent view.
type Room struct {
	ID string

	logger *slog.Logger

	mu          sync.Mutex
	members     map[string]*Client // clientID -> client
	sharedState map[string]any     // key -> latest value, last-write-wins per key
	locks       map[string]string  // objectID -> holder clientID
	destroyed   bool
}

// Snapshot is a point-in-time view of a room, used to answer a joiner.
type Snapshot struct {
	SharedState map[string]any
	Locks       map[string]string
	Roster      []protocol.UserInfo
}

func newRoom(id string, logger *slog.Logger) *Room {
	return &Room{
		ID:          id,
		logger:      logger,
		members:     make(map[string]*Client),
		sharedState: make(map[string]any),
		locks:       make(map[string]string),
	}
}

// Join takes the room snapshot as it stood before the new member and then
// inserts the member, atomically. The joiner's join_success payload is built
// from the returned snapshot so its lock table is exact at the moment of
// join. Returns false when the room was already destroyed by a concurrent
// last-member departure; the caller re-fetches from the registry.
func (r *Room) Join(c *Client) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.destroyed {
		return Snapshot{}, false
	}

	snap := r.snapshotLocked()
	r.members[c.ID] = c
	return snap, true
}

// AddMember inserts a member. Broadcasting user_joined is the caller's
// responsibility.
func (r *Room) AddMember(c *Client) {
	r.mu.Lock()
	r.members[c.ID] = c
	r.mu.Unlock()
}

// RemoveMember deletes a member and sweeps every lock it held. The sweep is
// atomic with concurrent TryLock/Unlock calls, so a departing holder can
// never strand a lock.
func (r *Room) RemoveMember(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.members, clientID)
	for objectID, holder := range r.locks {
		if holder == clientID {
			delete(r.locks, objectID)
		}
	}
}

// MemberCount returns the current number of members.
func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Snapshot returns a point-in-time copy of shared state, locks, and roster.
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() Snapshot {
	state := make(map[string]any, len(r.sharedState))
	for k, v := range r.sharedState {
		state[k] = v
	}

	locks := make(map[string]string, len(r.locks))
	for objectID, holder := range r.locks {
		locks[objectID] = holder
	}

	roster := make([]protocol.UserInfo, 0, len(r.members))
	for _, m := range r.members {
		roster = append(roster, m.Info())
	}

	return Snapshot{SharedState: state, Locks: locks, Roster: roster}
}

// ApplyUpdate overwrites each key in the patch wholesale. Nested objects
// replace the stored value entirely; there is no deep merge.
func (r *Room) ApplyUpdate(patch map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range patch {
		r.sharedState[k] = v
	}
}

// TryLock atomically checks-and-sets a lock. Returns false without side
// effect if the object is already locked by anyone, including the same
// client re-requesting.
func (r *Room) TryLock(objectID, clientID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, held := r.locks[objectID]; held {
		return false
	}
	r.locks[objectID] = clientID
	return true
}

// Unlock releases a lock only if the caller is the current holder. A
// non-holder's attempt leaves the lock untouched and returns false.
func (r *Room) Unlock(objectID, clientID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if holder, held := r.locks[objectID]; !held || holder != clientID {
		return false
	}
	delete(r.locks, objectID)
	return true
}

// Broadcast sends pre-encoded data to every member except excludeID, which
// may be empty to include everyone. Delivery is best-effort and independent
// per recipient; a failed send is logged and skipped, never aborting the
// rest of the fan-out. The membership is snapshotted before sending so a
// concurrent join or leave cannot corrupt iteration.
func (r *Room) Broadcast(data []byte, excludeID string) {
	r.mu.Lock()
	recipients := make([]*Client, 0, len(r.members))
	for id, m := range r.members {
		if id != excludeID {
			recipients = append(recipients, m)
		}
	}
	r.mu.Unlock()

	for _, m := range recipients {
		if err := m.Send(data); err != nil {
			r.logger.Debug("broadcast send failed, skipping recipient",
				"room", r.ID,
				"client", m.ID,
				"error", err,
			)
		}
	}
}
