// Package acp defines the Agent Client Protocol: the method names each role
// receives, the payloads those methods carry, and the Agent and Client
// handler contracts that acpconn dispatches to.
//
// Payload structs mirror the wire shape exactly. Every payload carries an
// optional Meta bag under "_meta" which implementations must pass through
// without interpreting.
package acp
