package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"scenesync/internal/config"
	"scenesync/internal/protocol"
	"scenesync/internal/router"
	"scenesync/internal/session"
)

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	cfg := config.ServerConfig{
		WSPath:       "/ws",
		ReadLimit:    1 << 20,
		WriteTimeout: time.Second,
		PingInterval: 50 * time.Millisecond,
		PongTimeout:  time.Second,
	}

	clients := session.NewClientRegistry()
	rooms := session.NewRoomRegistry(nil)
	rt := router.New(router.DefaultLimits(), clients, rooms, nil)
	srv := New(cfg, rt, clients, rooms, nil)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	return ts, wsURL
}

func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// readUntil reads messages until one of the wanted type arrives, skipping
// presence and cursor noise from concurrent members.
func readUntil(t *testing.T, conn *websocket.Conn, wantType string) map[string]any {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		conn.SetReadDeadline(deadline)
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %q: %v", wantType, err)
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("decode %q: %v", data, err)
		}
		if m["type"] == wantType {
			return m
		}
	}
}

func joinRoom(t *testing.T, conn *websocket.Conn, room, name, role string) map[string]any {
	t.Helper()
	send(t, conn, protocol.Join{
		Type:       protocol.TypeJoin,
		RoomID:     room,
		Username:   name,
		Permission: role,
	})
	return readUntil(t, conn, protocol.TypeJoinSuccess)
}

func TestEndToEndLockScenario(t *testing.T) {
	_, wsURL := newTestServer(t)

	// A joins R1 as director, B joins as viewer
	connA := dial(t, wsURL)
	successA := joinRoom(t, connA, "R1", "alice", "director")
	idA := successA["userId"].(string)

	connB := dial(t, wsURL)
	joinRoom(t, connB, "R1", "bella", "viewer")
	readUntil(t, connA, protocol.TypeUserJoined)

	// B may not lock
	send(t, connB, protocol.LockObject{Type: protocol.TypeLockObject, ObjectID: "chair1"})
	errReply := readUntil(t, connB, protocol.TypeError)
	if errReply["message"] == "" {
		t.Error("error reply should carry a message")
	}

	// A locks; both receive object_locked
	send(t, connA, protocol.LockObject{Type: protocol.TypeLockObject, ObjectID: "chair1"})
	for name, conn := range map[string]*websocket.Conn{"A": connA, "B": connB} {
		locked := readUntil(t, conn, protocol.TypeObjectLocked)
		if locked["objectId"] != "chair1" || locked["userId"] != idA {
			t.Errorf("%s got object_locked = %v, want chair1 by A", name, locked)
		}
	}

	// A disconnects; B hears user_left
	connA.Close()
	left := readUntil(t, connB, protocol.TypeUserLeft)
	if left["userId"] != idA {
		t.Errorf("user_left.userId = %v, want %v", left["userId"], idA)
	}

	// A late joiner sees no entry for chair1
	connC := dial(t, wsURL)
	successC := joinRoom(t, connC, "R1", "carol", "actor")
	locks := successC["roomState"].(map[string]any)["locks"].(map[string]any)
	if _, held := locks["chair1"]; held {
		t.Errorf("chair1 still locked after holder disconnect: %v", locks)
	}

	// ...and can acquire the swept lock
	send(t, connC, protocol.LockObject{Type: protocol.TypeLockObject, ObjectID: "chair1"})
	readUntil(t, connC, protocol.TypeObjectLocked)
}

func TestEndToEndStateAndChat(t *testing.T) {
	_, wsURL := newTestServer(t)

	connA := dial(t, wsURL)
	joinRoom(t, connA, "R2", "alice", "actor")
	connB := dial(t, wsURL)
	joinRoom(t, connB, "R2", "bella", "viewer")

	// Actor updates state; the viewer sees it, the sender does not echo
	send(t, connA, map[string]any{
		"type":   protocol.TypeStateUpdate,
		"update": map[string]any{"color": "red"},
	})
	update := readUntil(t, connB, protocol.TypeStateUpdate)
	if update["update"].(map[string]any)["color"] != "red" {
		t.Errorf("state_update = %v, want color red", update)
	}

	// Chat reaches everyone including the sender
	send(t, connB, protocol.ChatMessage{Type: protocol.TypeChatMessage, Message: "hello"})
	for name, conn := range map[string]*websocket.Conn{"A": connA, "B": connB} {
		chat := readUntil(t, conn, protocol.TypeChatMessage)
		if chat["message"] != "hello" {
			t.Errorf("%s chat = %v, want hello", name, chat["message"])
		}
	}

	// A late joiner's roomState carries the accumulated shared state
	connC := dial(t, wsURL)
	successC := joinRoom(t, connC, "R2", "carol", "viewer")
	roomState := successC["roomState"].(map[string]any)
	if roomState["color"] != "red" {
		t.Errorf("late joiner roomState = %v, want color red", roomState)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts, wsURL := newTestServer(t)

	connA := dial(t, wsURL)
	joinRoom(t, connA, "R1", "alice", "viewer")

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	var health struct {
		Status     string         `json:"status"`
		Components map[string]any `json:"components"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "healthy" {
		t.Errorf("status = %q, want healthy", health.Status)
	}
	rooms := health.Components["rooms"].(map[string]any)
	if rooms["rooms"].(float64) != 1 {
		t.Errorf("rooms = %v, want 1", rooms["rooms"])
	}
}

func TestDebugRoomsEndpoint(t *testing.T) {
	ts, wsURL := newTestServer(t)

	connA := dial(t, wsURL)
	joinRoom(t, connA, "R1", "alice", "actor")
	send(t, connA, protocol.LockObject{Type: protocol.TypeLockObject, ObjectID: "chair1"})
	readUntil(t, connA, protocol.TypeObjectLocked)

	resp, err := http.Get(ts.URL + "/debug/rooms")
	if err != nil {
		t.Fatalf("GET /debug/rooms: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Count int `json:"count"`
		Rooms []struct {
			ID      string `json:"id"`
			Members int    `json:"members"`
			Locks   int    `json:"locks"`
		} `json:"rooms"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 1 || len(body.Rooms) != 1 {
		t.Fatalf("count = %d, rooms = %d, want 1 each", body.Count, len(body.Rooms))
	}
	if body.Rooms[0].ID != "R1" || body.Rooms[0].Members != 1 || body.Rooms[0].Locks != 1 {
		t.Errorf("room = %+v, want R1 with 1 member and 1 lock", body.Rooms[0])
	}
}

func TestServerKeepsConnectionOnGarbage(t *testing.T) {
	_, wsURL := newTestServer(t)

	conn := dial(t, wsURL)
	joinRoom(t, conn, "R1", "alice", "viewer")

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{garbage`)); err != nil {
		t.Fatalf("write garbage: %v", err)
	}

	// The connection must stay open: a chat still round-trips
	send(t, conn, protocol.ChatMessage{Type: protocol.TypeChatMessage, Message: "alive"})
	chat := readUntil(t, conn, protocol.TypeChatMessage)
	if chat["message"] != "alive" {
		t.Errorf("chat = %v, want alive", chat["message"])
	}
}

func TestRoomDestroyedAfterLastDisconnect(t *testing.T) {
	ts, wsURL := newTestServer(t)

	conn := dial(t, wsURL)
	joinRoom(t, conn, "R1", "alice", "viewer")
	conn.Close()

	// Cleanup is asynchronous with the close; poll the debug endpoint
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(ts.URL + "/debug/rooms")
		if err != nil {
			t.Fatalf("GET /debug/rooms: %v", err)
		}
		var body struct {
			Count int `json:"count"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		if body.Count == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("room was not destroyed after its last member disconnected")
}
