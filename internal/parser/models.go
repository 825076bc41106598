package parser

import "time"

// MessageRecord is one parsed chat message. Records are immutable once
// emitted: continuation lines are folded into Text before the record is
// appended to the output, never after.
type MessageRecord struct {
	Timestamp  time.Time
	Sender     string
	Text       string
	SourceFile string
	IsSelf     bool // Sender equals the configured self name (exact, case-sensitive)
	IsMeta     bool // system notice, not authored by a participant
}

// Warning records a per-line anomaly that was recovered locally instead
// of failing the parse (orphan continuation, demoted timestamp).
type Warning struct {
	SourceFile string
	Line       int
	Reason     string
}

// ParseError is raised only for unrecoverable structural failures:
// empty input or a read error. Per-line anomalies become Warnings.
type ParseError struct {
	SourceFile string
	Err        error
}

func (e *ParseError) Error() string {
	return "parse " + e.SourceFile + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }
