package domain

import (
	"fmt"
	"time"
)

// CheckResult is created fresh for every check invocation.
type CheckResult struct {
	Host      string    `json:"host"`
	Type      CheckType `json:"type"`
	Outcome   Outcome   `json:"outcome"`
	Details   string    `json:"details,omitempty"`
	LatencyMS float64   `json:"latency_ms,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

func (r CheckResult) OK() bool { return r.Outcome == OK }

// Message is the log line text for the result.
func (r CheckResult) Message() string {
	switch r.Outcome {
	case OK:
		return fmt.Sprintf("%s test %s OK", r.Type.Label(), r.Host)
	case Bad:
		return fmt.Sprintf("%s test %s BAD: %s", r.Type.Label(), r.Host, r.Details)
	default:
		return fmt.Sprintf("%s test %s FAILED: %s", r.Type.Label(), r.Host, r.Details)
	}
}

// Subject is the short one-line form used as a mail subject.
func (r CheckResult) Subject() string {
	return fmt.Sprintf("%s %s %s", r.Host, r.Type, r.Outcome)
}
