// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scratch implements the per-job temporary artifact store: a
// uniquely named directory holding intermediate PDFs, removed when the job
// ends.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const dirPrefix = "docmerge-"

// removeAll is swapped in tests to simulate undeletable directories.
var removeAll = os.RemoveAll

// Store is a scratch directory owned by one merge job.
type Store struct {
	dir  string
	log  logrus.FieldLogger
	once sync.Once
}

// New creates a fresh scratch directory under base. An empty base means
// os.TempDir().
func New(base string, log logrus.FieldLogger) (*Store, error) {
	if base == "" {
		base = os.TempDir()
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("creating scratch base %s: %w", base, err)
	}
	dir := filepath.Join(base, dirPrefix+uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	return &Store{dir: dir, log: log}, nil
}

// Dir returns the scratch directory path.
func (s *Store) Dir() string { return s.dir }

// Path returns the path of name inside the scratch directory.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Artifact returns the path of the intermediate PDF for the input at index.
func (s *Store) Artifact(index int) string {
	return s.Path(fmt.Sprintf("temp_%d.pdf", index))
}

// Cleanup removes the scratch directory and everything in it. It is safe to
// call more than once. A failed removal is logged at warn level and
// otherwise ignored; stale directories are left for the OS to reap.
func (s *Store) Cleanup() {
	s.once.Do(func() {
		if err := removeAll(s.dir); err != nil {
			s.log.WithError(err).WithField("dir", s.dir).Warn("scratch cleanup failed")
			return
		}
		s.log.WithField("dir", s.dir).Debug("scratch removed")
	})
}
