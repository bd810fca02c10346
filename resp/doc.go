// Package resp owns the wire value model and parsing primitives.
//
// Ownership boundary:
// - typed protocol values and their accessors
// - batch append primitives for building argument sequences
// - encode/decode between values and the wire format
package resp
