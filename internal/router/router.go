package router

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"scenesync/internal/protocol"
	"scenesync/internal/session"
)

// Router validates inbound messages and dispatches them to the handler for
// their type. One Router serves every connection; per-connection state lives
// in the client registry, looked up on every message.
type Router struct {
	limits  Limits
	clients *session.ClientRegistry
	rooms   *session.RoomRegistry
	logger  *slog.Logger

	mu               sync.Mutex
	received         int64
	routed           int64
	parseErrors      int64
	unknownTypes     int64
	dropped          int64
	permissionDenied int64
	lockConflicts    int64
}

// New creates a Router over the given registries.
func New(limits Limits, clients *session.ClientRegistry, rooms *session.RoomRegistry, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		limits:  limits,
		clients: clients,
		rooms:   rooms,
		logger:  logger,
	}
}

// Stats returns current statistics.
func (r *Router) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		MessagesReceived: r.received,
		MessagesRouted:   r.routed,
		ParseErrors:      r.parseErrors,
		UnknownTypes:     r.unknownTypes,
		Dropped:          r.dropped,
		PermissionDenied: r.permissionDenied,
		LockConflicts:    r.lockConflicts,
	}
}

func (r *Router) count(field *int64) {
	r.mu.Lock()
	*field++
	r.mu.Unlock()
}

// HandleMessage parses and dispatches one raw message from a connection.
// Never returns an error: every failure is recovered locally, and the
// connection stays open.
func (r *Router) HandleMessage(conn session.Conn, data []byte) {
	r.count(&r.received)

	msg, err := protocol.Decode(data)
	if err != nil {
		if errors.Is(err, protocol.ErrUnknownType) {
			r.logger.Warn("unknown message type, dropping", "error", err)
			r.count(&r.unknownTypes)
		} else {
			r.logger.Warn("malformed message, dropping", "error", err)
			r.count(&r.parseErrors)
		}
		return
	}

	client, joined := r.clients.Lookup(conn)

	if join, ok := msg.(protocol.Join); ok {
		if joined {
			// A connection transitions to Joined exactly once.
			r.logger.Warn("duplicate join ignored", "client", client.ID, "room", client.RoomID)
			r.count(&r.dropped)
			return
		}
		r.handleJoin(conn, join)
		r.count(&r.routed)
		return
	}

	if !joined {
		// No client/room context yet: only join is accepted before joining.
		r.logger.Debug("message before join, dropping", "data_len", len(data))
		r.count(&r.dropped)
		return
	}

	room, ok := r.rooms.Get(client.RoomID)
	if !ok {
		r.logger.Warn("client references unknown room, dropping", "client", client.ID, "room", client.RoomID)
		r.count(&r.dropped)
		return
	}

	switch m := msg.(type) {
	case protocol.StateUpdate:
		r.handleStateUpdate(client, room, m)
	case protocol.CursorMove:
		r.handleCursorMove(client, room, m)
	case protocol.ChatMessage:
		r.handleChat(client, room, m)
	case protocol.LockObject:
		r.handleLock(client, room, m)
	case protocol.UnlockObject:
		r.handleUnlock(client, room, m)
	default:
		// Decode only returns variants handled above.
		r.logger.Warn("unhandled message variant", "client", client.ID)
		r.count(&r.dropped)
		return
	}
	r.count(&r.routed)
}

// HandleDisconnect runs disconnect cleanup for a connection: release every
// lock the client held, remove membership, announce user_left, and destroy
// the room if it is now empty. Idempotent, and a no-op for connections that
// never completed a join.
func (r *Router) HandleDisconnect(conn session.Conn) {
	client, ok := r.clients.Remove(conn)
	if !ok {
		return
	}

	room, ok := r.rooms.Get(client.RoomID)
	if !ok {
		return
	}

	room.RemoveMember(client.ID)
	r.broadcast(room, protocol.UserLeft{
		Type:     protocol.TypeUserLeft,
		UserID:   client.ID,
		Username: client.Username,
	}, "")
	r.rooms.DestroyIfEmpty(client.RoomID)

	r.logger.Info("client disconnected", "client", client.ID, "room", client.RoomID)
}

func (r *Router) handleJoin(conn session.Conn, m protocol.Join) {
	if m.RoomID == "" {
		r.logger.Warn("join without roomId, dropping")
		r.count(&r.parseErrors)
		return
	}

	roomID := truncate(m.RoomID, r.limits.MaxRoomIDLength)
	username := truncate(m.Username, r.limits.MaxUsernameLength)
	if username == "" {
		username = "anonymous"
	}
	role := protocol.NormalizeRole(m.Permission)

	client := r.clients.Register(conn, username, role, roomID)
	room, snap := r.rooms.Join(roomID, client)

	r.reply(conn, protocol.JoinSuccess{
		Type:       protocol.TypeJoinSuccess,
		UserID:     client.ID,
		Username:   client.Username,
		Permission: client.Role,
		RoomState:  protocol.NewRoomState(snap.SharedState, snap.Locks),
		Users:      snap.Roster,
	})

	r.broadcast(room, protocol.UserJoined{
		Type:       protocol.TypeUserJoined,
		UserID:     client.ID,
		Username:   client.Username,
		Permission: client.Role,
	}, client.ID)

	r.logger.Info("client joined",
		"client", client.ID,
		"room", roomID,
		"username", username,
		"permission", role,
	)
}

func (r *Router) handleStateUpdate(client *session.Client, room *session.Room, m protocol.StateUpdate) {
	if !client.Role.CanEdit() {
		r.count(&r.permissionDenied)
		r.reply(client, protocol.NewErrorReply("permission denied"))
		return
	}

	room.ApplyUpdate(m.Update)
	r.broadcast(room, protocol.StateUpdateEvent{
		Type:      protocol.TypeStateUpdate,
		UserID:    client.ID,
		Username:  client.Username,
		Update:    m.Update,
		Timestamp: time.Now().UnixMilli(),
	}, client.ID)
}

func (r *Router) handleCursorMove(client *session.Client, room *session.Room, m protocol.CursorMove) {
	client.SetCursor(m.Cursor)
	r.broadcast(room, protocol.CursorMoveEvent{
		Type:   protocol.TypeCursorMove,
		UserID: client.ID,
		Cursor: m.Cursor,
	}, client.ID)
}

func (r *Router) handleChat(client *session.Client, room *session.Room, m protocol.ChatMessage) {
	// Chat goes to the whole room, sender included.
	r.broadcast(room, protocol.ChatMessageEvent{
		Type:      protocol.TypeChatMessage,
		UserID:    client.ID,
		Username:  client.Username,
		Message:   truncate(m.Message, r.limits.MaxChatLength),
		Timestamp: time.Now().UnixMilli(),
	}, "")
}

func (r *Router) handleLock(client *session.Client, room *session.Room, m protocol.LockObject) {
	if !client.Role.CanEdit() {
		r.count(&r.permissionDenied)
		r.reply(client, protocol.NewErrorReply("permission denied"))
		return
	}

	if !room.TryLock(m.ObjectID, client.ID) {
		r.count(&r.lockConflicts)
		r.reply(client, protocol.NewErrorReply("object already locked"))
		return
	}

	r.broadcast(room, protocol.ObjectLocked{
		Type:     protocol.TypeObjectLocked,
		ObjectID: m.ObjectID,
		UserID:   client.ID,
		Username: client.Username,
	}, "")
}

func (r *Router) handleUnlock(client *session.Client, room *session.Room, m protocol.UnlockObject) {
	// A failed unlock (not locked, or not the holder) is a silent no-op.
	if !room.Unlock(m.ObjectID, client.ID) {
		return
	}

	r.broadcast(room, protocol.ObjectUnlocked{
		Type:     protocol.TypeObjectUnlocked,
		ObjectID: m.ObjectID,
		UserID:   client.ID,
	}, "")
}

// reply sends a message to a single connection. Send failures are logged and
// otherwise ignored; the close path handles dead transports.
func (r *Router) reply(conn session.Conn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		r.logger.Error("encode reply", "error", err)
		return
	}
	if err := conn.Send(data); err != nil {
		r.logger.Debug("reply send failed", "error", err)
	}
}

// broadcast encodes once and fans out to the room.
func (r *Router) broadcast(room *session.Room, v any, excludeID string) {
	data, err := json.Marshal(v)
	if err != nil {
		r.logger.Error("encode broadcast", "error", err)
		return
	}
	room.Broadcast(data, excludeID)
}

func truncate(s string, max int) string {
	if max > 0 && len(s) > max {
		return s[:max]
	}
	return s
}
