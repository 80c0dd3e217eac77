package model

import "time"

// Failure is one human-readable problem reported by a run.
type Failure struct {
	Kind      FailureKind `json:"kind"`
	MessageID string      `json:"message_id,omitempty"`
	Cause     string      `json:"cause"`
}

// MessageOutcome records where a single message ended up.
type MessageOutcome struct {
	Handle   string       `json:"handle"`
	Sender   string       `json:"sender"`
	Subject  string       `json:"subject"`
	Category Category     `json:"category"`
	Model    string       `json:"model,omitempty"`
	Replied  bool         `json:"replied"`
	State    MessageState `json:"state"`
}

// RunSummary is returned by every pipeline run.
type RunSummary struct {
	RunID      string           `json:"run_id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Fetched    int              `json:"fetched"`
	Replied    int              `json:"replied"`
	Logged     int              `json:"logged"`
	Failed     int              `json:"failed"`
	Aborted    bool             `json:"aborted"`
	Failures   []Failure        `json:"failures"`
	Messages   []MessageOutcome `json:"messages"`
}

// AddFailure appends a failure entry.
func (s *RunSummary) AddFailure(kind FailureKind, messageID, cause string) {
	s.Failures = append(s.Failures, Failure{Kind: kind, MessageID: messageID, Cause: cause})
}

// FailuresOf counts failures of the given kind.
func (s *RunSummary) FailuresOf(kind FailureKind) int {
	n := 0
	for _, f := range s.Failures {
		if f.Kind == kind {
			n++
		}
	}
	return n
}

// Duration returns how long the run took.
func (s *RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
