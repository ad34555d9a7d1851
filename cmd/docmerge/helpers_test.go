// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docmerge/internal/session"
	"github.com/pdiddy/docmerge/pkg/types"
)

// runnerFunc adapts a function to session.Runner.
type runnerFunc func(ctx context.Context, files []types.FileEntry, output string, progress func(types.Event)) (*types.JobResult, error)

func (f runnerFunc) Run(ctx context.Context, files []types.FileEntry, output string, progress func(types.Event)) (*types.JobResult, error) {
	return f(ctx, files, output, progress)
}

// countingRunner completes every job with one page per input.
func countingRunner() runnerFunc {
	return func(_ context.Context, files []types.FileEntry, output string, progress func(types.Event)) (*types.JobResult, error) {
		res := &types.JobResult{JobID: "job-1", Output: output, Pages: len(files)}
		for i, f := range files {
			progress(types.Event{JobID: "job-1", Type: types.EventProgress, Index: i + 1, Total: len(files), Name: f.Name()})
			res.Included = append(res.Included, f.Path)
		}
		progress(types.Event{JobID: "job-1", Type: types.EventCompleted, Result: res})
		return res, nil
	}
}

func startSession(t *testing.T, runner session.Runner) (*session.Session, context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	s := session.New(runner)
	done := make(chan struct{})
	go func() {
		_ = s.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return s, ctx
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	return p
}
