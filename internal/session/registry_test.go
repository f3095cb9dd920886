package session

import (
	"fmt"
	"sync"
	"testing"

	"scenesync/internal/protocol"
)

func TestGetOrCreateIdempotent(t *testing.T) {
	rr := NewRoomRegistry(nil)

	r1 := rr.GetOrCreate("R1")
	r2 := rr.GetOrCreate("R1")
	if r1 != r2 {
		t.Error("GetOrCreate returned a different room for the same id")
	}
	if rr.Len() != 1 {
		t.Errorf("Len = %d, want 1", rr.Len())
	}
}

func TestRoomExistsIffNonEmpty(t *testing.T) {
	rr := NewRoomRegistry(nil)

	check := func(step string) {
		t.Helper()
		for _, s := range rr.Summaries() {
			if s.Members < 1 {
				t.Errorf("after %s: room %q exists with %d members", step, s.ID, s.Members)
			}
		}
	}

	a, _ := newTestClient("A")
	b, _ := newTestClient("B")

	room, _ := rr.Join("R1", a)
	check("A joins")
	rr.Join("R1", b)
	check("B joins")

	room.RemoveMember("A")
	rr.DestroyIfEmpty("R1")
	check("A leaves")
	if _, ok := rr.Get("R1"); !ok {
		t.Fatal("R1 should still exist while B is a member")
	}

	room.RemoveMember("B")
	rr.DestroyIfEmpty("R1")
	check("B leaves")
	if _, ok := rr.Get("R1"); ok {
		t.Error("R1 should be destroyed once its last member is removed")
	}

	// A fresh join recreates the room from scratch
	c, _ := newTestClient("C")
	fresh, snap := rr.Join("R1", c)
	if fresh == room {
		t.Error("rejoining a destroyed room id should create a new room")
	}
	if len(snap.Roster) != 0 || len(snap.Locks) != 0 {
		t.Errorf("fresh room snapshot not empty: %+v", snap)
	}
}

func TestDestroyIfEmptyNoopWhenOccupied(t *testing.T) {
	rr := NewRoomRegistry(nil)
	a, _ := newTestClient("A")
	rr.Join("R1", a)

	rr.DestroyIfEmpty("R1")
	if _, ok := rr.Get("R1"); !ok {
		t.Error("DestroyIfEmpty removed an occupied room")
	}

	rr.DestroyIfEmpty("no-such-room")
}

func TestRegistryStats(t *testing.T) {
	rr := NewRoomRegistry(nil)
	a, _ := newTestClient("A")
	b, _ := newTestClient("B")
	c, _ := newTestClient("C")
	rr.Join("R1", a)
	rr.Join("R1", b)
	rr.Join("R2", c)

	stats := rr.Stats()
	if stats.Rooms != 2 {
		t.Errorf("Rooms = %d, want 2", stats.Rooms)
	}
	if stats.Members != 3 {
		t.Errorf("Members = %d, want 3", stats.Members)
	}
}

func TestConcurrentJoinLeave(t *testing.T) {
	rr := NewRoomRegistry(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c, _ := newTestClient(fmt.Sprintf("c%d", n))
			room, _ := rr.Join("R1", c)
			room.RemoveMember(c.ID)
			rr.DestroyIfEmpty("R1")
		}(i)
	}
	wg.Wait()

	if _, ok := rr.Get("R1"); ok {
		t.Error("R1 should be destroyed after every member left")
	}
}

func TestClientRegistry(t *testing.T) {
	cr := NewClientRegistry()
	conn := &fakeConn{}

	c := cr.Register(conn, "ada", protocol.RoleDirector, "R1")
	if c.ID == "" {
		t.Error("Register should generate a client id")
	}
	if c.Username != "ada" || c.Role != protocol.RoleDirector || c.RoomID != "R1" {
		t.Errorf("client = %+v, want ada/director/R1", c)
	}
	if cr.Len() != 1 {
		t.Errorf("Len = %d, want 1", cr.Len())
	}

	got, ok := cr.Lookup(conn)
	if !ok || got != c {
		t.Error("Lookup should return the registered client")
	}

	removed, ok := cr.Remove(conn)
	if !ok || removed != c {
		t.Error("Remove should return the registered client")
	}
	if _, ok := cr.Lookup(conn); ok {
		t.Error("Lookup should miss after Remove")
	}

	// Second remove is a not-found no-op
	if _, ok := cr.Remove(conn); ok {
		t.Error("second Remove should report not-found")
	}
}

func TestRegisterGeneratesUniqueIDs(t *testing.T) {
	cr := NewClientRegistry()
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		c := cr.Register(&fakeConn{}, "u", protocol.RoleViewer, "R1")
		if seen[c.ID] {
			t.Fatalf("duplicate client id %q", c.ID)
		}
		seen[c.ID] = true
	}
}
