package query

import (
	"sort"
	"strings"
	"time"

	"github.com/fyrsmithlabs/errbank/internal/record"
)

// Criteria is a conjunctive filter. Zero-valued fields are unconstrained.
type Criteria struct {
	Component string          `json:"component,omitempty"`
	Severity  record.Severity `json:"severity,omitempty"`
	Status    record.Status   `json:"status,omitempty"`
	Category  record.Category `json:"category,omitempty"`

	// DateRange is "start..end" with either side optionally empty; bounds
	// are inclusive. Accepts RFC 3339 timestamps or plain dates.
	DateRange string `json:"date_range,omitempty"`

	// Tags matches records having at least one of the requested tags.
	Tags []string `json:"tags,omitempty"`

	// Message is a case-insensitive substring match against ErrorMessage.
	Message string `json:"message,omitempty"`
}

// Search returns every record satisfying the criteria, most recent first.
func Search(records []*record.Record, c Criteria) []*record.Record {
	results := make([]*record.Record, 0, len(records))
	for _, rec := range records {
		if Matches(rec, c) {
			results = append(results, rec)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Timestamp.After(results[j].Timestamp)
	})
	return results
}

// Matches reports whether rec satisfies every specified criterion.
func Matches(rec *record.Record, c Criteria) bool {
	if c.Component != "" && rec.Component != c.Component {
		return false
	}
	if c.Severity != "" && rec.Severity != c.Severity {
		return false
	}
	if c.Status != "" && rec.Status != c.Status {
		return false
	}
	if c.Category != "" && rec.Category != c.Category {
		return false
	}

	if c.DateRange != "" {
		start, end := parseDateRange(c.DateRange)
		if start != nil && rec.Timestamp.Before(*start) {
			return false
		}
		if end != nil && rec.Timestamp.After(*end) {
			return false
		}
	}

	if len(c.Tags) > 0 && !hasAnyTag(rec.Tags, c.Tags) {
		return false
	}

	if c.Message != "" &&
		!strings.Contains(strings.ToLower(rec.ErrorMessage), strings.ToLower(c.Message)) {
		return false
	}

	return true
}

// ByDate searches a window spanning local midnight through 23:59:59.999 of
// the given date.
func ByDate(records []*record.Record, date time.Time) []*record.Record {
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, date.Location())
	end := time.Date(y, m, d, 23, 59, 59, 999_000_000, date.Location())
	return Search(records, Criteria{
		DateRange: start.Format(time.RFC3339Nano) + ".." + end.Format(time.RFC3339Nano),
	})
}

// ByTimeRange searches a window ending now. Recognized tokens are 1d, 7d,
// and 30d; anything else defaults to 30d rather than failing.
func ByTimeRange(records []*record.Record, token string) []*record.Record {
	now := time.Now()
	var days int
	switch token {
	case "1d":
		days = 1
	case "7d":
		days = 7
	default:
		days = 30
	}
	start := now.AddDate(0, 0, -days)
	return Search(records, Criteria{
		DateRange: start.Format(time.RFC3339Nano) + ".." + now.Format(time.RFC3339Nano),
	})
}

// parseDateRange splits "start..end" into optional inclusive bounds.
// Unparseable bounds are treated as absent.
func parseDateRange(r string) (start, end *time.Time) {
	parts := strings.SplitN(r, "..", 2)
	if t, ok := parseTime(parts[0]); ok {
		start = &t
	}
	if len(parts) == 2 {
		if t, ok := parseTime(parts[1]); ok {
			end = &t
		}
	}
	return start, end
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func hasAnyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}
