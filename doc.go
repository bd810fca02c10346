// Package respkit is a client for servers speaking the RESP wire
// protocol.
//
// Ownership boundary:
// - connection lifecycle: dial, TLS, auth, redial with backoff
// - command construction and batch argument building
// - script caching keyed by content digest
//
// Wire-level value handling lives in the resp subpackage; digest
// derivation lives in the digest subpackage.
package respkit
