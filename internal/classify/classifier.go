package classify

import (
	"strings"
	"time"

	"github.com/fyrsmithlabs/errbank/internal/record"
)

// DefaultTitleMaxLength is the display cap for generated titles, ellipsis
// included.
const DefaultTitleMaxLength = 100

// Failure is a raw failure signal observed by a host process.
type Failure struct {
	// Message is the failure text. It drives severity, category, title,
	// tag, and (absent Code/Name) error-code derivation.
	Message string

	// Code is an explicit error code, preferred over synthesis.
	Code string

	// Name is an error type name, used when Code is empty.
	Name string

	// StackTrace is carried onto the record verbatim when present.
	StackTrace string
}

// Detection is the contextual metadata captured alongside a failure.
type Detection struct {
	// Component is the origin label; "unknown" when empty.
	Component string

	// Environment is the declared runtime environment
	// ("production" or "development"), tagged onto the record when set.
	Environment string

	// Fields holds arbitrary caller metadata copied into the record context.
	Fields map[string]string
}

// Classifier turns failures into records using ordered rule chains.
type Classifier struct {
	severityRules []SeverityRule
	categoryRules []CategoryRule
	titleMax      int
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithSeverityRules prepends custom severity rules, evaluated before the
// built-in chain.
func WithSeverityRules(rules ...SeverityRule) Option {
	return func(c *Classifier) {
		c.severityRules = append(rules, c.severityRules...)
	}
}

// WithCategoryRules prepends custom category rules, evaluated before the
// built-in chain.
func WithCategoryRules(rules ...CategoryRule) Option {
	return func(c *Classifier) {
		c.categoryRules = append(rules, c.categoryRules...)
	}
}

// WithTitleMaxLength overrides the title display cap.
func WithTitleMaxLength(n int) Option {
	return func(c *Classifier) {
		if n > 3 {
			c.titleMax = n
		}
	}
}

// New creates a classifier with the built-in rule chains.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		severityRules: builtinSeverityRules(),
		categoryRules: builtinCategoryRules(),
		titleMax:      DefaultTitleMaxLength,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify builds a full record from a failure and its detection context.
// The record carries no ID; the store assigns one on Add.
func (c *Classifier) Classify(f Failure, d Detection) *record.Record {
	component := d.Component
	if component == "" {
		component = "unknown"
	}

	ctx := &record.Context{Environment: CaptureEnvironment()}
	if len(d.Fields) > 0 {
		ctx.Fields = make(map[string]string, len(d.Fields))
		for k, v := range d.Fields {
			ctx.Fields[k] = v
		}
	}

	return &record.Record{
		Timestamp:    time.Now(),
		Status:       record.StatusDetected,
		Severity:     c.Severity(f.Message),
		Category:     c.Category(f.Message),
		Component:    component,
		Title:        c.Title(f.Message),
		ErrorMessage: f.Message,
		ErrorCode:    c.Code(f),
		StackTrace:   f.StackTrace,
		Tags:         c.Tags(f, d),
		Context:      ctx,
	}
}

// Severity evaluates the severity chain against the message. Unmatched
// messages are LOW.
func (c *Classifier) Severity(message string) record.Severity {
	lower := strings.ToLower(message)
	for _, rule := range c.severityRules {
		if matchesAny(lower, rule.Keywords) {
			return rule.Severity
		}
	}
	return record.SeverityLow
}

// Category evaluates the category chain against the message. Unmatched
// messages fall back to GENERAL_ERROR.
func (c *Classifier) Category(message string) record.Category {
	lower := strings.ToLower(message)
	for _, rule := range c.categoryRules {
		if matchesAny(lower, rule.Keywords) {
			return rule.Category
		}
	}
	return record.CategoryGeneral
}

// Title returns the message verbatim when it fits the display cap, otherwise
// truncated with a trailing ellipsis so the result still fits the cap.
func (c *Classifier) Title(message string) string {
	runes := []rune(message)
	if len(runes) <= c.titleMax {
		return message
	}
	return string(runes[:c.titleMax-3]) + "..."
}

// Code returns the explicit code or name when present, otherwise a code
// synthesized from the first three whitespace-separated message tokens,
// upper-cased, stripped of non-alphanumerics, and underscore-joined.
func (c *Classifier) Code(f Failure) string {
	if f.Code != "" {
		return f.Code
	}
	if f.Name != "" {
		return f.Name
	}

	words := strings.Fields(f.Message)
	if len(words) > 3 {
		words = words[:3]
	}
	parts := make([]string, 0, len(words))
	for _, w := range words {
		parts = append(parts, stripNonAlnum(strings.ToUpper(w)))
	}
	return strings.Join(parts, "_")
}

// keywordTags maps message keywords to topic tags. "authentication" is
// deliberately longer than the category chain's "auth" so that generic
// mentions of auth do not tag every record.
var keywordTags = []struct {
	keyword string
	tag     string
}{
	{"websocket", "websocket"},
	{"memory", "memory"},
	{"timeout", "timeout"},
	{"connection", "connection"},
	{"authentication", "auth"},
}

// Tags accumulates the component tag, keyword-derived topic tags, and the
// declared environment tag. Tags are not deduplicated at this layer.
func (c *Classifier) Tags(f Failure, d Detection) []string {
	var tags []string
	if d.Component != "" {
		tags = append(tags, d.Component)
	}

	lower := strings.ToLower(f.Message)
	for _, kt := range keywordTags {
		if strings.Contains(lower, kt.keyword) {
			tags = append(tags, kt.tag)
		}
	}

	switch d.Environment {
	case "production":
		tags = append(tags, "production")
	case "development":
		tags = append(tags, "development")
	}
	return tags
}

// stripNonAlnum removes everything outside A-Z and 0-9.
func stripNonAlnum(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
