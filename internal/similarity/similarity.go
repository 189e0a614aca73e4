package similarity

import (
	"sort"
	"strings"

	"github.com/fyrsmithlabs/errbank/internal/record"
)

// Config holds the scoring weights and the match threshold. The defaults
// are tuning knobs, not semantically meaningful constants.
type Config struct {
	// Threshold is the exclusive lower bound for Search matches.
	Threshold float64 `koanf:"threshold"`

	ComponentWeight float64 `koanf:"component_weight"`
	CategoryWeight  float64 `koanf:"category_weight"`
	CodeWeight      float64 `koanf:"code_weight"`
	MessageWeight   float64 `koanf:"message_weight"`
}

// DefaultConfig returns the default weights and threshold.
func DefaultConfig() Config {
	return Config{
		Threshold:       0.70,
		ComponentWeight: 1,
		CategoryWeight:  1,
		CodeWeight:      2,
		MessageWeight:   2,
	}
}

// Match pairs a record with its similarity score against the reference.
type Match struct {
	Record *record.Record
	Score  float64
}

// Engine computes pairwise similarity scores.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine; a zero config gets the defaults.
func NewEngine(cfg Config) *Engine {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	return &Engine{cfg: cfg}
}

// Score returns the weighted similarity of a and b in [0, 1]. Exact matches
// on component, category, and error code contribute their full weight;
// message-token overlap contributes its weight scaled by
// |common| / max(|tokens(a)|, |tokens(b)|). The score is symmetric.
func (e *Engine) Score(a, b *record.Record) float64 {
	var score, total float64

	if a.Component == b.Component {
		score += e.cfg.ComponentWeight
	}
	total += e.cfg.ComponentWeight

	if a.Category == b.Category {
		score += e.cfg.CategoryWeight
	}
	total += e.cfg.CategoryWeight

	if a.ErrorCode == b.ErrorCode {
		score += e.cfg.CodeWeight
	}
	total += e.cfg.CodeWeight

	score += tokenOverlap(a.ErrorMessage, b.ErrorMessage) * e.cfg.MessageWeight
	total += e.cfg.MessageWeight

	if total == 0 {
		return 0
	}
	return score / total
}

// Search scores every record against ref (excluding ref itself by ID),
// keeps scores strictly above the threshold, and returns them descending by
// score.
func (e *Engine) Search(ref *record.Record, records []*record.Record) []Match {
	var matches []Match
	for _, rec := range records {
		if rec.ID == ref.ID {
			continue
		}
		if s := e.Score(ref, rec); s > e.cfg.Threshold {
			matches = append(matches, Match{Record: rec, Score: s})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// tokenOverlap is |common unique tokens| / max(|tokens(a)|, |tokens(b)|)
// over lower-cased whitespace-split words. Unique token sets keep the ratio
// symmetric when a message repeats words.
func tokenOverlap(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	common := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			common++
		}
	}

	max := len(ta)
	if len(tb) > max {
		max = len(tb)
	}
	return float64(common) / float64(max)
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
