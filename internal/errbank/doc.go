// Package errbank wires the classifier, store, and analytics engines into a
// single service surface.
//
// The pipeline is: classifier produces a record, the store persists it and
// assigns an identifier, and the query, similarity, and stats engines
// operate read-only over the store's snapshot, recomputing on demand.
package errbank
