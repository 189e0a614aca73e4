// Package query evaluates criteria predicates over a store snapshot.
//
// All specified criteria must hold for a record to match (conjunctive), with
// one exception: the tag criterion matches when the record shares at least
// one tag with the requested set. Results are ordered descending by
// timestamp; downstream consumers rely on that ordering.
package query
