package classify

import (
	"strings"
	"testing"

	"github.com/fyrsmithlabs/errbank/internal/record"
)

func TestClassifier_Severity(t *testing.T) {
	c := New()

	tests := []struct {
		name    string
		message string
		want    record.Severity
	}{
		{"critical keyword", "CRITICAL: disk failure on node 3", record.SeverityCritical},
		{"fatal keyword", "fatal error: stack overflow", record.SeverityCritical},
		{"connection refused", "Connection refused: timeout", record.SeverityHigh},
		{"timeout", "request timeout after 30s", record.SeverityHigh},
		{"warning", "Warning: approaching quota", record.SeverityMedium},
		{"deprecated", "call to deprecated endpoint /v1/users", record.SeverityMedium},
		{"no match", "something odd happened", record.SeverityLow},
		// Rules are mutually exclusive by priority, not keyword disjointness:
		// "critical" outranks "timeout" even when both appear.
		{"critical beats timeout", "critical timeout in scheduler", record.SeverityCritical},
		{"case insensitive", "FATAL: OUT OF MEMORY", record.SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Severity(tt.message); got != tt.want {
				t.Errorf("Severity(%q) = %s, want %s", tt.message, got, tt.want)
			}
		})
	}
}

func TestClassifier_Category(t *testing.T) {
	c := New()

	tests := []struct {
		name    string
		message string
		want    record.Category
	}{
		{"websocket", "websocket handshake failed", record.CategoryConnection},
		{"connection", "Connection refused: timeout", record.CategoryConnection},
		{"memory", "out of memory in worker", record.CategoryProcess},
		{"process", "child process exited unexpectedly", record.CategoryProcess},
		{"auth", "authorization header missing", record.CategoryAuth},
		{"token", "token expired", record.CategoryAuth},
		{"database", "database connection pool exhausted", record.CategoryConnection}, // "connection" matches first
		{"sql", "sql syntax error near SELECT", record.CategoryData},
		{"render", "failed to render settings panel", record.CategoryUI},
		{"security", "security policy violation", record.CategorySecurity},
		{"xss", "blocked reflected xss attempt", record.CategorySecurity},
		{"fallback", "something odd happened", record.CategoryGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Category(tt.message); got != tt.want {
				t.Errorf("Category(%q) = %s, want %s", tt.message, got, tt.want)
			}
		})
	}
}

func TestClassifier_Title(t *testing.T) {
	c := New()

	short := "short message"
	if got := c.Title(short); got != short {
		t.Errorf("Title(%q) = %q, want verbatim", short, got)
	}

	long := strings.Repeat("x", 150)
	got := c.Title(long)
	if len(got) != DefaultTitleMaxLength {
		t.Errorf("len(Title(long)) = %d, want %d", len(got), DefaultTitleMaxLength)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("Title(long) = %q, want trailing ellipsis", got)
	}

	custom := New(WithTitleMaxLength(20))
	if got := custom.Title(long); len(got) != 20 {
		t.Errorf("custom cap: len = %d, want 20", len(got))
	}
}

func TestClassifier_Code(t *testing.T) {
	c := New()

	tests := []struct {
		name    string
		failure Failure
		want    string
	}{
		{"explicit code wins", Failure{Message: "boom", Code: "ECONNREFUSED", Name: "Error"}, "ECONNREFUSED"},
		{"name fallback", Failure{Message: "boom", Name: "TypeError"}, "TypeError"},
		{"synthesized from message", Failure{Message: "Connection refused: timeout"}, "CONNECTION_REFUSED_TIMEOUT"},
		{"only first three tokens", Failure{Message: "failed to connect to upstream"}, "FAILED_TO_CONNECT"},
		{"short message", Failure{Message: "boom"}, "BOOM"},
		{"strips punctuation", Failure{Message: "read: i/o timeout!"}, "READ_IO_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Code(tt.failure); got != tt.want {
				t.Errorf("Code(%+v) = %q, want %q", tt.failure, got, tt.want)
			}
		})
	}
}

func TestClassifier_Tags(t *testing.T) {
	c := New()

	got := c.Tags(
		Failure{Message: "websocket connection timeout during authentication"},
		Detection{Component: "gateway", Environment: "production"},
	)
	want := []string{"gateway", "websocket", "timeout", "connection", "auth", "production"}
	if len(got) != len(want) {
		t.Fatalf("Tags = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Tags[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestClassifier_TagsNotDeduplicated(t *testing.T) {
	c := New()

	// Component "timeout" plus the timeout keyword yields the tag twice;
	// accumulation is the contract, callers tolerate multisets.
	got := c.Tags(Failure{Message: "timeout"}, Detection{Component: "timeout"})
	count := 0
	for _, tag := range got {
		if tag == "timeout" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("expected duplicated tag, got %v", got)
	}
}

func TestClassifier_CustomRulesTakePriority(t *testing.T) {
	c := New(
		WithSeverityRules(SeverityRule{Keywords: []string{"oom"}, Severity: record.SeverityCritical}),
		WithCategoryRules(CategoryRule{Keywords: []string{"kafka"}, Category: record.Category("BROKER_ERROR")}),
	)

	if got := c.Severity("oom killed"); got != record.SeverityCritical {
		t.Errorf("custom severity rule: got %s", got)
	}
	// Custom rules are evaluated before built-ins: "kafka connection lost"
	// would otherwise be CONNECTION_ERROR.
	if got := c.Category("kafka connection lost"); got != record.Category("BROKER_ERROR") {
		t.Errorf("custom category rule: got %s", got)
	}
	// Built-ins still apply when no custom rule matches.
	if got := c.Severity("fatal crash"); got != record.SeverityCritical {
		t.Errorf("built-in severity rule: got %s", got)
	}
}

func TestClassifier_Classify(t *testing.T) {
	c := New()

	rec := c.Classify(
		Failure{Message: "Connection refused: timeout", StackTrace: "at dial..."},
		Detection{Component: "gateway", Environment: "production", Fields: map[string]string{"build": "nightly"}},
	)

	if rec.ID != "" {
		t.Errorf("classifier must not assign IDs, got %q", rec.ID)
	}
	if rec.Severity != record.SeverityHigh {
		t.Errorf("Severity = %s, want HIGH", rec.Severity)
	}
	if rec.Category != record.CategoryConnection {
		t.Errorf("Category = %s, want CONNECTION_ERROR", rec.Category)
	}
	if rec.Component != "gateway" {
		t.Errorf("Component = %q", rec.Component)
	}
	if rec.ErrorCode != "CONNECTION_REFUSED_TIMEOUT" {
		t.Errorf("ErrorCode = %q", rec.ErrorCode)
	}
	if rec.Status != record.StatusDetected {
		t.Errorf("Status = %s", rec.Status)
	}
	if rec.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
	if rec.StackTrace == "" {
		t.Error("StackTrace not carried over")
	}
	if rec.Context == nil || rec.Context.Environment == nil {
		t.Fatal("environment snapshot missing")
	}
	if rec.Context.Environment.PID <= 0 {
		t.Errorf("PID = %d", rec.Context.Environment.PID)
	}
	if rec.Context.Fields["build"] != "nightly" {
		t.Errorf("context fields not copied: %v", rec.Context.Fields)
	}
}

func TestClassifier_ClassifyDefaultsComponent(t *testing.T) {
	c := New()

	rec := c.Classify(Failure{Message: "boom"}, Detection{})
	if rec.Component != "unknown" {
		t.Errorf("Component = %q, want unknown", rec.Component)
	}
	if len(rec.Tags) != 0 {
		t.Errorf("Tags = %v, want none", rec.Tags)
	}
}
