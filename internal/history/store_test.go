// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/docmerge/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(types.HistoryConfig{Path: filepath.Join(t.TempDir(), "data", "history.db")})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func record(id string, started time.Time, state types.JobState) types.JobRecord {
	return types.JobRecord{
		ID:        id,
		StartedAt: started,
		Output:    "/out/" + id + ".pdf",
		State:     state,
		Pages:     4,
		Inputs:    []string{"/in/a.pdf", "/in/b.png", "/in/notes.txt"},
		Skipped:   []types.SkippedFile{{Path: "/in/notes.txt", Reason: "unsupported file type"}},
		Elapsed:   1500 * time.Millisecond,
	}
}

// --- tests ---

func TestNewStoreCreatesDBFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := NewStore(types.HistoryConfig{Path: path})
	require.NoError(t, err)
	defer store.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)

	var count int
	require.NoError(t, store.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'jobs'`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestNewStoreRejectsEmptyPath(t *testing.T) {
	_, err := NewStore(types.HistoryConfig{})
	assert.Error(t, err)
}

func TestRecordRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

	rec := record("job-1", started, types.JobCompleted)
	rec.RemoteKey = "merged/job-1.pdf"
	require.NoError(t, store.Record(ctx, rec))

	got, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestRecordAborted(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	rec := types.JobRecord{
		ID:        "job-2",
		StartedAt: time.Now().UTC(),
		Output:    "/out/x.pdf",
		State:     types.JobAborted,
		Inputs:    []string{"/in/letter.docx"},
		Error:     "cannot convert Word file letter.docx",
	}
	require.NoError(t, store.Record(ctx, rec))

	got, err := store.Get(ctx, "job-2")
	require.NoError(t, err)
	assert.Equal(t, types.JobAborted, got.State)
	assert.Equal(t, rec.Error, got.Error)
	assert.Empty(t, got.Skipped)
	assert.Zero(t, got.Pages)
}

func TestRecordReplacesSameID(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	started := time.Now().UTC()

	require.NoError(t, store.Record(ctx, record("job-1", started, types.JobRunning)))
	require.NoError(t, store.Record(ctx, record("job-1", started, types.JobCompleted)))

	records, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, types.JobCompleted, records[0].State)
}

func TestListNewestFirstWithLimit(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, store.Record(ctx, record(id, base.Add(time.Duration(i)*time.Hour), types.JobCompleted)))
	}

	tests := []struct {
		limit int
		want  []string
	}{
		{limit: 2, want: []string{"d", "c"}},
		{limit: 10, want: []string{"d", "c", "b", "a"}},
		{limit: 0, want: []string{"d", "c", "b", "a"}},
	}
	for _, tt := range tests {
		records, err := store.List(ctx, tt.limit)
		require.NoError(t, err)
		ids := make([]string, len(records))
		for i, r := range records {
			ids[i] = r.ID
		}
		assert.Equal(t, tt.want, ids, "limit %d", tt.limit)
	}
}

func TestGetMissing(t *testing.T) {
	store := testStore(t)
	_, err := store.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestExport(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	require.NoError(t, store.Record(ctx, record("job-1", time.Now().UTC(), types.JobCompleted)))

	var yamlBuf bytes.Buffer
	require.NoError(t, store.ExportYAML(ctx, &yamlBuf))
	var fromYAML []types.JobRecord
	require.NoError(t, yaml.Unmarshal(yamlBuf.Bytes(), &fromYAML))
	require.Len(t, fromYAML, 1)
	assert.Equal(t, "job-1", fromYAML[0].ID)

	var jsonBuf bytes.Buffer
	require.NoError(t, store.ExportJSON(ctx, &jsonBuf))
	var fromJSON []types.JobRecord
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &fromJSON))
	require.Len(t, fromJSON, 1)
	assert.Equal(t, 4, fromJSON[0].Pages)
}
