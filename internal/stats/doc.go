// Package stats folds a filtered record set into aggregate breakdowns,
// resolution metrics, and recurring failure patterns.
//
// Everything here is a derived view recomputed per query; nothing is
// persisted or cached.
package stats
