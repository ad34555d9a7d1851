// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scratch

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreatesUniqueDirs(t *testing.T) {
	base := t.TempDir()
	log, _ := test.NewNullLogger()

	a, err := New(base, log)
	require.NoError(t, err)
	b, err := New(base, log)
	require.NoError(t, err)

	assert.NotEqual(t, a.Dir(), b.Dir())
	assert.True(t, strings.HasPrefix(filepath.Base(a.Dir()), dirPrefix))
	assert.DirExists(t, a.Dir())
	assert.DirExists(t, b.Dir())
	assert.Equal(t, filepath.Join(a.Dir(), "temp_3.pdf"), a.Artifact(3))
}

func TestNewCreatesMissingBase(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "scratch")
	log, _ := test.NewNullLogger()

	s, err := New(base, log)
	require.NoError(t, err)
	assert.Equal(t, base, filepath.Dir(s.Dir()))
}

func TestCleanupRemovesContents(t *testing.T) {
	log, _ := test.NewNullLogger()
	s, err := New(t.TempDir(), log)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(s.Artifact(0), []byte("%PDF"), 0o644))
	require.NoError(t, os.Mkdir(s.Path("nested"), 0o755))

	s.Cleanup()
	assert.NoDirExists(t, s.Dir())

	// Second call is a no-op.
	s.Cleanup()
}

func TestCleanupFailureIsLoggedNotReturned(t *testing.T) {
	log, hook := test.NewNullLogger()
	s, err := New(t.TempDir(), log)
	require.NoError(t, err)

	orig := removeAll
	removeAll = func(string) error { return errors.New("device busy") }
	t.Cleanup(func() { removeAll = orig })

	s.Cleanup()

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "scratch cleanup failed", entry.Message)
	assert.Equal(t, s.Dir(), entry.Data["dir"])
	assert.DirExists(t, s.Dir())
}
