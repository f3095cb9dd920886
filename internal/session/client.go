package session

import (
	"sync"

	"github.com/google/uuid"

	"scenesync/internal/protocol"
)

// Conn is the transport handle a client is reachable on. Send must be safe
// for concurrent use and must fail rather than block indefinitely once the
// underlying transport is no longer writable.
type Conn interface {
	Send(data []byte) error
}

// Client is one connected user. A client belongs to exactly one room for its
// entire lifetime; there is no room switching.
type Client struct {
	ID       string
	Username string
	Role     protocol.Role
	RoomID   string

	conn Conn

	// Cursor is written only by the owning client's cursor_move messages but
	// read by roster snapshots from other connections.
	mu     sync.Mutex
	cursor protocol.Cursor
}

// Send writes an encoded message to the client's transport.
func (c *Client) Send(data []byte) error {
	return c.conn.Send(data)
}

// SetCursor records the client's last-known cursor position.
func (c *Client) SetCursor(cur protocol.Cursor) {
	c.mu.Lock()
	c.cursor = cur
	c.mu.Unlock()
}

// Cursor returns the client's last-known cursor position.
func (c *Client) Cursor() protocol.Cursor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// Info returns the client's roster entry.
func (c *Client) Info() protocol.UserInfo {
	return protocol.UserInfo{
		UserID:     c.ID,
		Username:   c.Username,
		Permission: c.Role,
		Cursor:     c.Cursor(),
	}
}

// ClientRegistry maps connection handles to client identities. It never
// touches Room state; membership changes are the router's responsibility.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[Conn]*Client
}

// NewClientRegistry creates an empty registry.
func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{
		clients: make(map[Conn]*Client),
	}
}

// Register creates a client with a freshly generated id and stores it keyed
// by its connection.
func (r *ClientRegistry) Register(conn Conn, username string, role protocol.Role, roomID string) *Client {
	c := &Client{
		ID:       uuid.NewString(),
		Username: username,
		Role:     role,
		RoomID:   roomID,
		conn:     conn,
	}

	r.mu.Lock()
	r.clients[conn] = c
	r.mu.Unlock()

	return c
}

// Lookup returns the client bound to a connection, if any.
func (r *ClientRegistry) Lookup(conn Conn) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[conn]
	return c, ok
}

// Remove deletes and returns the client bound to a connection. The second
// return is false when the connection never completed a join or was already
// removed, which makes disconnect cleanup idempotent.
func (r *ClientRegistry) Remove(conn Conn) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[conn]
	if ok {
		delete(r.clients, conn)
	}
	return c, ok
}

// Len returns the number of registered clients.
func (r *ClientRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
