package classify

import (
	"strings"

	"github.com/fyrsmithlabs/errbank/internal/record"
)

// SeverityRule maps message keywords to a severity. Rules are evaluated in
// order; the first rule with any matching keyword wins. Priority comes from
// rule order, not from keyword disjointness.
type SeverityRule struct {
	Keywords []string
	Severity record.Severity
}

// CategoryRule maps message keywords to a category, first-match-wins.
type CategoryRule struct {
	Keywords []string
	Category record.Category
}

// builtinSeverityRules returns the default severity chain. Matching is
// case-insensitive substring containment against the message.
func builtinSeverityRules() []SeverityRule {
	return []SeverityRule{
		{Keywords: []string{"critical", "fatal"}, Severity: record.SeverityCritical},
		{Keywords: []string{"connection refused", "timeout"}, Severity: record.SeverityHigh},
		{Keywords: []string{"warning", "deprecated"}, Severity: record.SeverityMedium},
	}
}

// builtinCategoryRules returns the default category chain.
func builtinCategoryRules() []CategoryRule {
	return []CategoryRule{
		{Keywords: []string{"websocket", "connection"}, Category: record.CategoryConnection},
		{Keywords: []string{"memory", "process"}, Category: record.CategoryProcess},
		{Keywords: []string{"auth", "token"}, Category: record.CategoryAuth},
		{Keywords: []string{"database", "sql"}, Category: record.CategoryData},
		{Keywords: []string{"render", "ui"}, Category: record.CategoryUI},
		{Keywords: []string{"security", "xss"}, Category: record.CategorySecurity},
	}
}

// matchesAny reports whether the lower-cased message contains any keyword.
func matchesAny(lowerMessage string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lowerMessage, kw) {
			return true
		}
	}
	return false
}
