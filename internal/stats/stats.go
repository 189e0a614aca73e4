package stats

import (
	"sort"
	"time"

	"github.com/fyrsmithlabs/errbank/internal/record"
)

// DefaultPatternLimit caps TopErrorPatterns when Compute is called with a
// non-positive limit.
const DefaultPatternLimit = 10

// Pattern groups records sharing component and error code. It is a derived
// reporting view, never stored.
type Pattern struct {
	// Key is "<component>-<errorCode>".
	Key       string `json:"pattern"`
	Component string `json:"component"`
	ErrorCode string `json:"error_code"`
	Count     int    `json:"count"`

	// AvgResolutionTime is the accumulated resolution time divided by the
	// pattern's total occurrence count, resolved or not.
	AvgResolutionTime time.Duration `json:"avg_resolution_time"`
}

// Stats is the aggregate view over a record set.
type Stats struct {
	Total       int                     `json:"total"`
	BySeverity  map[record.Severity]int `json:"by_severity"`
	ByComponent map[string]int          `json:"by_component"`
	ByCategory  map[record.Category]int `json:"by_category"`
	ByStatus    map[record.Status]int   `json:"by_status"`

	// ResolutionRate is resolved / total * 100, 0 when the set is empty.
	ResolutionRate float64 `json:"resolution_rate"`

	// AvgResolutionTime is the mean resolution time across resolved records
	// that carry one, 0 when none do.
	AvgResolutionTime time.Duration `json:"avg_resolution_time"`

	TopErrorPatterns []Pattern `json:"top_error_patterns"`
}

// Compute folds records into aggregate statistics. patternLimit caps the
// recurring-pattern list (DefaultPatternLimit when non-positive).
func Compute(records []*record.Record, patternLimit int) *Stats {
	if patternLimit <= 0 {
		patternLimit = DefaultPatternLimit
	}

	s := &Stats{
		Total:       len(records),
		BySeverity:  make(map[record.Severity]int),
		ByComponent: make(map[string]int),
		ByCategory:  make(map[record.Category]int),
		ByStatus:    make(map[record.Status]int),
	}

	type patternAccum struct {
		Pattern
		totalResolution time.Duration
	}
	patterns := make(map[string]*patternAccum)

	resolvedCount := 0
	var totalResolution time.Duration

	for _, rec := range records {
		s.BySeverity[rec.Severity]++
		s.ByComponent[rec.Component]++
		s.ByCategory[rec.Category]++
		s.ByStatus[rec.Status]++

		if rec.Resolved() {
			resolvedCount++
			if rec.Resolution != nil && rec.Resolution.ResolutionTime > 0 {
				totalResolution += rec.Resolution.ResolutionTime
			}
		}

		key := rec.Component + "-" + rec.ErrorCode
		p, ok := patterns[key]
		if !ok {
			p = &patternAccum{Pattern: Pattern{
				Key:       key,
				Component: rec.Component,
				ErrorCode: rec.ErrorCode,
			}}
			patterns[key] = p
		}
		p.Count++
		if rec.Resolution != nil && rec.Resolution.ResolutionTime > 0 {
			p.totalResolution += rec.Resolution.ResolutionTime
		}
	}

	if s.Total > 0 {
		s.ResolutionRate = float64(resolvedCount) / float64(s.Total) * 100
	}
	if resolvedCount > 0 {
		s.AvgResolutionTime = totalResolution / time.Duration(resolvedCount)
	}

	top := make([]Pattern, 0, len(patterns))
	for _, p := range patterns {
		if p.totalResolution > 0 {
			p.AvgResolutionTime = p.totalResolution / time.Duration(p.Count)
		}
		top = append(top, p.Pattern)
	}
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Key < top[j].Key
	})
	if len(top) > patternLimit {
		top = top[:patternLimit]
	}
	s.TopErrorPatterns = top

	return s
}
