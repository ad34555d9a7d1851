// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import "github.com/pdiddy/docmerge/pkg/types"

// Level classifies a notification.
type Level string

const (
	// LevelWarning reports an input error; no job was started.
	LevelWarning Level = "warning"

	// LevelFatal reports a job aborted by a document or web file that could
	// not be converted. Path names the file.
	LevelFatal Level = "fatal"

	// LevelError reports any other aborted job.
	LevelError Level = "error"

	// LevelSuccess reports a completed job. Path is the output file.
	LevelSuccess Level = "success"
)

// Notification is a user-facing message published by the session.
type Notification struct {
	Level   Level            `json:"level"`
	JobID   string           `json:"job_id,omitempty"`
	Message string           `json:"message"`
	Path    string           `json:"path,omitempty"`
	Result  *types.JobResult `json:"result,omitempty"`
}
