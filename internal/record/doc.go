// Package record defines the error record data model shared by the store,
// classifier, and analytics engines.
//
// A Record is a single persisted error observation. Records are created by
// the classifier pipeline, owned by the store, and handed out as copies to
// read-only consumers (query, similarity, stats, export).
package record
