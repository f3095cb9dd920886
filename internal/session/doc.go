// Package session implements the server-side session state.
//
// It holds three pieces of process-wide state:
//   - ClientRegistry: per-connection identity, keyed by connection handle
//   - Room: one collaboration session's members, shared state, and lock table
//   - RoomRegistry: lazily created rooms, destroyed when their last member leaves
//
// Each Room is guarded by a single mutex so test-and-set lock acquisition,
// shared-state writes, and membership changes are atomic with respect to each
// other. Broadcast iterates a snapshot of the membership taken at call time.
package session
