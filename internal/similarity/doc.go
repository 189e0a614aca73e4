// Package similarity scores pairs of records for near-duplicate triage.
//
// The score is a weighted heuristic over component, category, error code,
// and message-token overlap. It is a best-effort triage aid, not semantic
// deduplication; false positives and negatives are expected and acceptable.
package similarity
