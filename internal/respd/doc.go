// Package respd owns the in-memory server speaking the wire protocol.
//
// Ownership boundary:
// - keyspace and script cache storage
// - connection lifecycle and read limits
// - command dispatch and auth gating
//
// respd is a protocol test double, not a datastore: EVAL and EVALSHA cache
// script bodies and reply with the script digest instead of executing
// anything.
package respd
