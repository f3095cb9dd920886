// Package server implements the WebSocket transport.
//
// One listening endpoint upgrades connections on the configured path. Each
// connection gets a single reader goroutine, so messages from one client are
// processed in the order they were sent, and a write mutex with a deadline,
// so broadcasts from different rooms never interleave frames. A ping ticker
// and pong-reset read deadline detect dead peers; any read failure triggers
// disconnect cleanup in the router exactly once.
package server
