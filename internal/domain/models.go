package domain

import "strings"

// CheckType selects the protocol and success criterion of a check.
type CheckType string

const (
	Ping  CheckType = "PING"
	HTTP  CheckType = "HTTP"
	HTTPS CheckType = "HTTPS"
)

// Label is the word used in log lines, e.g. "Ping test example.com OK".
func (t CheckType) Label() string {
	if t == Ping {
		return "Ping"
	}
	return string(t)
}

// Outcome of a single check.
type Outcome string

const (
	OK   Outcome = "OK"
	Bad  Outcome = "BAD"
	Fail Outcome = "FAIL"
)

// Level is the log severity attached to a result. Mail gating compares
// against these names, so they follow the config file spelling.
type Level string

const (
	LevelDebug   Level = "DEBUG"
	LevelInfo    Level = "INFO"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

// ParseLevel upper-cases s. WARN is accepted for WARNING.
func ParseLevel(s string) Level {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	if l == "WARN" {
		return LevelWarning
	}
	return l
}

// Severity maps an outcome to the level it is logged at.
func (o Outcome) Severity() Level {
	switch o {
	case OK:
		return LevelInfo
	case Bad:
		return LevelWarning
	default:
		return LevelError
	}
}

// Target is one host/check-type pair scheduled in a cycle.
type Target struct {
	Host string    `json:"host"`
	Type CheckType `json:"type"`
}
