// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// JobState is the lifecycle state of a merge job.
type JobState string

const (
	JobIdle      JobState = "idle"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobAborted   JobState = "aborted"
)

// Terminal reports whether no further transitions can happen from s.
func (s JobState) Terminal() bool {
	return s == JobCompleted || s == JobAborted
}

// EventType identifies the kind of message a running job sends back to the
// interaction loop.
type EventType string

const (
	EventProgress   EventType = "progress"
	EventFinalizing EventType = "finalizing"
	EventCompleted  EventType = "completed"
	EventAborted    EventType = "aborted"
)

// Event is a typed message from the merge worker to the interaction loop.
// Progress events carry Index (1-based), Total and Name. Terminal events carry
// either Result or Err.
type Event struct {
	JobID  string     `json:"job_id"`
	Type   EventType  `json:"type"`
	Index  int        `json:"index,omitempty"`
	Total  int        `json:"total,omitempty"`
	Name   string     `json:"name,omitempty"`
	Result *JobResult `json:"result,omitempty"`
	Err    error      `json:"-"`
}

// SkippedFile records an input left out of the output with the reason.
type SkippedFile struct {
	Path   string `json:"path" yaml:"path"`
	Reason string `json:"reason" yaml:"reason"`
}

// JobResult summarizes a completed merge job.
type JobResult struct {
	// JobID is the unique identifier of the job.
	JobID string `json:"job_id" yaml:"job_id"`

	// Output is the path of the written PDF.
	Output string `json:"output" yaml:"output"`

	// Pages is the page count of the written PDF.
	Pages int `json:"pages" yaml:"pages"`

	// Included lists the inputs that contributed pages, in output order.
	Included []string `json:"included" yaml:"included"`

	// Skipped lists inputs that contributed nothing: unsupported extensions
	// and images that failed to convert.
	Skipped []SkippedFile `json:"skipped,omitempty" yaml:"skipped,omitempty"`

	// Elapsed is the wall time of the job.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`

	// RemoteKey is the object key when the output was published to storage.
	RemoteKey string `json:"remote_key,omitempty" yaml:"remote_key,omitempty"`
}

// JobRecord is the history entry written when a job reaches a terminal state.
type JobRecord struct {
	ID        string        `json:"id" yaml:"id"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Output    string        `json:"output" yaml:"output"`
	State     JobState      `json:"state" yaml:"state"`
	Pages     int           `json:"pages" yaml:"pages"`
	Inputs    []string      `json:"inputs" yaml:"inputs"`
	Skipped   []SkippedFile `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`
	RemoteKey string        `json:"remote_key,omitempty" yaml:"remote_key,omitempty"`
}
