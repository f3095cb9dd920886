// Package protocol defines the wire-level message contract.
//
// Every message is a JSON object with a required "type" field; all other
// fields are type-specific payload. Inbound messages decode into one typed
// struct per variant so the router can dispatch with an exhaustive type
// switch instead of string comparisons on raw maps.
package protocol
