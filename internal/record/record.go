package record

import (
	"time"
)

// Severity is a classifier-assigned urgency label.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Category is a classifier-assigned error class. The set below is what the
// built-in rules produce; the type is open for domain extension.
type Category string

const (
	CategoryConnection Category = "CONNECTION_ERROR"
	CategoryProcess    Category = "PROCESS_ERROR"
	CategoryAuth       Category = "AUTH_ERROR"
	CategoryData       Category = "DATA_ERROR"
	CategoryUI         Category = "UI_ERROR"
	CategorySecurity   Category = "SECURITY_ERROR"
	CategoryGeneral    Category = "GENERAL_ERROR"
)

// Status tracks the lifecycle of a record. Additional statuses may be set
// through updates; these two are the ones the engine itself assigns.
type Status string

const (
	// StatusDetected is the initial status of every new record.
	StatusDetected Status = "DETECTED"

	// StatusResolved is set when a resolution is attached.
	StatusResolved Status = "RESOLVED"
)

// Investigation captures findings attached to a record after creation.
type Investigation struct {
	Summary        string   `json:"summary"`
	Findings       []string `json:"findings,omitempty"`
	InvestigatedBy string   `json:"investigated_by,omitempty"`
}

// Resolution captures how a record was fixed. ResolutionTime feeds the
// aggregate resolution-time metrics when present.
type Resolution struct {
	Summary        string        `json:"summary"`
	FixedBy        string        `json:"fixed_by,omitempty"`
	ResolutionTime time.Duration `json:"resolution_time,omitempty"`
}

// Prevention captures follow-up actions that keep the error from recurring.
type Prevention struct {
	Summary string   `json:"summary"`
	Actions []string `json:"actions,omitempty"`
}

// Environment is a snapshot of host facts taken at detection time.
type Environment struct {
	Hostname       string `json:"hostname,omitempty"`
	Platform       string `json:"platform"`
	Arch           string `json:"arch"`
	RuntimeVersion string `json:"runtime_version"`
	MemoryUsed     uint64 `json:"memory_used_bytes"`
	UptimeSeconds  uint64 `json:"uptime_seconds"`
	PID            int    `json:"pid"`
}

// Context is arbitrary metadata captured when the failure was observed.
type Context struct {
	// EventID is a unique detection event identifier assigned by the service.
	EventID string `json:"event_id,omitempty"`

	// Environment is the host snapshot taken at detection time.
	Environment *Environment `json:"environment,omitempty"`

	// Fields holds caller-supplied key/value metadata.
	Fields map[string]string `json:"fields,omitempty"`
}

// Record is a single persisted error observation.
//
// IDs follow the form ERR-<year>-<zero-padded-sequence> and are assigned by
// the store, monotonically per store instance, never reused across reloads.
type Record struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status"`
	Severity  Severity  `json:"severity"`
	Category  Category  `json:"category"`

	// Component is the free-text origin label; "unknown" when not supplied.
	Component string `json:"component"`

	// Title is a human summary, truncated by the classifier when the source
	// message exceeds the display cap.
	Title string `json:"title"`

	ErrorMessage string `json:"error_message"`
	ErrorCode    string `json:"error_code"`
	StackTrace   string `json:"stack_trace,omitempty"`

	// Tags are accumulated labels. Duplicates may appear when multiple
	// classifier rules match; consumers treat them as a multiset-tolerant set.
	Tags []string `json:"tags,omitempty"`

	Investigation *Investigation `json:"investigation,omitempty"`
	Resolution    *Resolution    `json:"resolution,omitempty"`
	Prevention    *Prevention    `json:"prevention,omitempty"`

	// ResolvedAt is set by the store when a resolution is attached.
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`

	Context *Context `json:"context,omitempty"`
}

// Clone returns a deep copy of the record. The store hands out clones so
// callers can never mutate the canonical map through a returned pointer.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	if r.Tags != nil {
		cp.Tags = append([]string(nil), r.Tags...)
	}
	if r.Investigation != nil {
		inv := *r.Investigation
		inv.Findings = append([]string(nil), r.Investigation.Findings...)
		cp.Investigation = &inv
	}
	if r.Resolution != nil {
		res := *r.Resolution
		cp.Resolution = &res
	}
	if r.Prevention != nil {
		prev := *r.Prevention
		prev.Actions = append([]string(nil), r.Prevention.Actions...)
		cp.Prevention = &prev
	}
	if r.ResolvedAt != nil {
		t := *r.ResolvedAt
		cp.ResolvedAt = &t
	}
	if r.Context != nil {
		ctx := *r.Context
		if r.Context.Environment != nil {
			env := *r.Context.Environment
			ctx.Environment = &env
		}
		if r.Context.Fields != nil {
			ctx.Fields = make(map[string]string, len(r.Context.Fields))
			for k, v := range r.Context.Fields {
				ctx.Fields[k] = v
			}
		}
		cp.Context = &ctx
	}
	return &cp
}

// Resolved reports whether the record carries a resolved status.
func (r *Record) Resolved() bool {
	return r.Status == StatusResolved
}
