// Package router dispatches inbound messages to their handlers.
//
// Each connection moves through three states: Unjoined (only join is
// accepted), Joined (dispatch by message type), and Closed (terminal,
// reached on transport close). Protocol failures are recovered locally:
// malformed and unknown messages are logged and dropped, permission and
// lock conflicts produce an error reply to the sender only, and nothing in
// this package terminates the process or the connection.
package router
