// Package store owns the durable mapping of record identifiers to records.
//
// The store keeps a single in-memory map backed by one JSON document on
// disk. Every mutating operation rewrites the full snapshot; a crash between
// mutation and persist loses that one mutation but never corrupts the file.
//
// Load and save are deliberately asymmetric: a failed read degrades to an
// empty store (a missing backing file is the expected first-run state, and
// the LoadResult carries the cause), while a failed write propagates to the
// caller.
package store
