// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session is the interaction core shared by every frontend. One event
// loop goroutine owns the file registry and the job status. Frontend calls are
// executed as closures on that loop, and the single merge worker reports back
// over a typed event channel, so nothing outside the loop touches its state.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/docmerge/internal/merge"
	"github.com/pdiddy/docmerge/internal/registry"
	"github.com/pdiddy/docmerge/pkg/types"
)

// ErrClosed is returned by calls made after the event loop has stopped.
var ErrClosed = errors.New("session closed")

const (
	eventBuffer        = 64
	notificationBuffer = 32
)

// Runner executes one merge job. *merge.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, files []types.FileEntry, output string, progress func(types.Event)) (*types.JobResult, error)
}

// Status is the frontend-visible state of the session.
type Status struct {
	State        types.JobState   `json:"state"`
	JobID        string           `json:"job_id,omitempty"`
	Index        int              `json:"index,omitempty"`
	Total        int              `json:"total,omitempty"`
	Name         string           `json:"name,omitempty"`
	Finalizing   bool             `json:"finalizing,omitempty"`
	MergeEnabled bool             `json:"merge_enabled"`
	Files        int              `json:"files"`
	Last         *types.JobResult `json:"last,omitempty"`
	LastError    string           `json:"last_error,omitempty"`
}

// Session is the interaction loop. Create it with New and start it with Run.
type Session struct {
	runner Runner
	log    logrus.FieldLogger

	ops     chan func()
	events  chan types.Event
	notes   chan Notification
	stopped chan struct{}

	// Owned by the loop goroutine.
	reg     *registry.Registry
	status  Status
	running bool
	ctx     context.Context
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. The default discards output.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Session) { s.log = log }
}

// WithRegistry starts the session with an existing registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(s *Session) { s.reg = reg }
}

// New returns a session that runs merges with runner.
func New(runner Runner, opts ...Option) *Session {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	s := &Session{
		runner:  runner,
		log:     quiet,
		ops:     make(chan func()),
		events:  make(chan types.Event, eventBuffer),
		notes:   make(chan Notification, notificationBuffer),
		stopped: make(chan struct{}),
		reg:     registry.New(),
		status:  Status{State: types.JobIdle, MergeEnabled: true},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run is the event loop. It returns when ctx is done. A job still running at
// that point is left to finish on its own; its events are discarded.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.stopped)
	s.ctx = context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case op := <-s.ops:
			op()
		case ev := <-s.events:
			s.handle(ev)
		}
	}
}

// Notifications delivers user-facing messages. Messages are dropped when the
// buffer is full.
func (s *Session) Notifications() <-chan Notification {
	return s.notes
}

// do runs fn on the loop goroutine and waits for it.
func (s *Session) do(fn func()) error {
	done := make(chan struct{})
	select {
	case s.ops <- func() { fn(); close(done) }:
	case <-s.stopped:
		return ErrClosed
	}
	<-done
	return nil
}

// Add admits one path. It returns false when the path is not an existing
// regular file or is already listed.
func (s *Session) Add(path string) (added bool, err error) {
	err = s.do(func() { added = s.reg.Add(path) })
	return added, err
}

// Drop parses a drop payload and admits every existing file in it.
func (s *Session) Drop(payload string) (added []string, err error) {
	err = s.do(func() { added = s.reg.Drop(payload) })
	return added, err
}

// Remove deletes entries by 0-based index and returns how many were removed.
func (s *Session) Remove(indices ...int) (n int, err error) {
	err = s.do(func() { n = s.reg.Remove(indices...) })
	return n, err
}

// Clear empties the file list.
func (s *Session) Clear() error {
	return s.do(func() { s.reg.Clear() })
}

// Files returns a snapshot of the file list.
func (s *Session) Files() (files []types.FileEntry, err error) {
	err = s.do(func() { files = s.reg.Entries() })
	return files, err
}

// Status returns a snapshot of the session status.
func (s *Session) Status() (st Status, err error) {
	err = s.do(func() {
		st = s.status
		st.Files = s.reg.Len()
	})
	return st, err
}

// SaveManifest writes the file list to a YAML manifest.
func (s *Session) SaveManifest(path string) (err error) {
	if derr := s.do(func() { err = s.reg.SaveManifest(path) }); derr != nil {
		return derr
	}
	return err
}

// LoadManifest appends the files listed in a YAML manifest.
func (s *Session) LoadManifest(path string) (added []string, err error) {
	if derr := s.do(func() { added, err = s.reg.LoadManifest(path) }); derr != nil {
		return nil, derr
	}
	return added, err
}

// Merge starts a job over a snapshot of the file list. While a job is running
// the trigger is inert: Merge returns false with no error and no
// notification. Input errors produce a warning notification and are returned.
func (s *Session) Merge(output string) (started bool, err error) {
	if derr := s.do(func() { started, err = s.startMerge(output) }); derr != nil {
		return false, derr
	}
	return started, err
}

func (s *Session) startMerge(output string) (bool, error) {
	if s.running {
		return false, nil
	}
	if s.reg.Len() == 0 {
		s.notify(Notification{Level: LevelWarning, Message: "No files selected. Add files before merging."})
		return false, merge.ErrNoFiles
	}
	if output == "" {
		s.notify(Notification{Level: LevelWarning, Message: "No output file chosen."})
		return false, merge.ErrNoOutput
	}

	files := s.reg.Entries()
	s.running = true
	s.status = Status{State: types.JobRunning, Total: len(files), Last: s.status.Last}
	s.log.WithFields(logrus.Fields{"files": len(files), "output": output}).Debug("launching merge worker")

	go s.work(files, output)
	return true, nil
}

// work runs on the worker goroutine. It only talks to the loop through the
// event channel.
func (s *Session) work(files []types.FileEntry, output string) {
	var terminal bool
	send := func(ev types.Event) {
		if ev.Type == types.EventCompleted || ev.Type == types.EventAborted {
			terminal = true
		}
		select {
		case s.events <- ev:
		case <-s.stopped:
		}
	}

	res, err := s.runner.Run(s.ctx, files, output, send)
	if !terminal {
		ev := types.Event{Type: types.EventCompleted, Result: res}
		if err != nil {
			ev = types.Event{Type: types.EventAborted, Err: err}
		}
		send(ev)
	}
}

// handle applies one worker event on the loop goroutine.
func (s *Session) handle(ev types.Event) {
	switch ev.Type {
	case types.EventProgress:
		s.status.JobID = ev.JobID
		s.status.Index = ev.Index
		s.status.Total = ev.Total
		s.status.Name = ev.Name

	case types.EventFinalizing:
		s.status.JobID = ev.JobID
		s.status.Finalizing = true

	case types.EventCompleted:
		s.running = false
		s.status = Status{State: types.JobCompleted, JobID: ev.JobID, MergeEnabled: true, Last: ev.Result}
		s.notify(successNotification(ev))

	case types.EventAborted:
		s.running = false
		s.status = Status{State: types.JobAborted, JobID: ev.JobID, MergeEnabled: true, Last: s.status.Last}
		if ev.Err != nil {
			s.status.LastError = ev.Err.Error()
		}
		s.notify(failureNotification(ev))

	default:
		s.log.WithField("type", ev.Type).Warn("ignoring unknown job event")
	}
}

func (s *Session) notify(n Notification) {
	select {
	case s.notes <- n:
	default:
		s.log.WithField("message", n.Message).Warn("notification dropped, nobody is listening")
	}
}

func successNotification(ev types.Event) Notification {
	n := Notification{Level: LevelSuccess, JobID: ev.JobID, Result: ev.Result}
	if ev.Result == nil {
		n.Message = "Merge completed."
		return n
	}
	n.Path = ev.Result.Output
	n.Message = fmt.Sprintf("PDF merged successfully: %s", ev.Result.Output)
	return n
}

func failureNotification(ev types.Event) Notification {
	if path, ok := merge.FatalFile(ev.Err); ok {
		return Notification{Level: LevelFatal, JobID: ev.JobID, Path: path, Message: ev.Err.Error()}
	}
	msg := "unknown failure"
	if ev.Err != nil {
		msg = ev.Err.Error()
	}
	return Notification{Level: LevelError, JobID: ev.JobID, Message: "An error occurred while merging: " + msg}
}
