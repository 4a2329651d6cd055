package filestore_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouBoom/M-server-node-003/internal/domain"
	filestore "github.com/zhouBoom/M-server-node-003/internal/infra/persistence/file"
	"github.com/zhouBoom/M-server-node-003/internal/repository"
)

func entry(id, projectID string) domain.MergeLogEntry {
	return domain.MergeLogEntry{
		ID:         id,
		ProjectID:  projectID,
		UserA:      "alice",
		UserB:      "bob",
		LineRange:  "0-3",
		ResolvedBy: "bob",
		Resolution: domain.ResolutionAuto,
		Timestamp:  time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestMergeLogStore_MissingFileIsEmpty(t *testing.T) {
	store, err := filestore.NewMergeLogStore(filepath.Join(t.TempDir(), "merge_log.json"))
	require.NoError(t, err)

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMergeLogStore_AppendPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merge_log.json")
	ctx := context.Background()

	store, err := filestore.NewMergeLogStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, entry("m1", "p1")))
	require.NoError(t, store.Append(ctx, entry("m2", "p2")))

	// 每次追加后立即落盘，重开后完整恢复
	reopened, err := filestore.NewMergeLogStore(path)
	require.NoError(t, err)
	entries, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "m1", entries[0].ID)
	assert.Equal(t, "m2", entries[1].ID)
}

func TestMergeLogStore_ListByProject(t *testing.T) {
	store, err := filestore.NewMergeLogStore(filepath.Join(t.TempDir(), "merge_log.json"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, entry("m1", "p1")))
	require.NoError(t, store.Append(ctx, entry("m2", "p2")))
	require.NoError(t, store.Append(ctx, entry("m3", "p1")))

	entries, err := store.ListByProject(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "m1", entries[0].ID)
	assert.Equal(t, "m3", entries[1].ID)
}

func TestMergeLogStore_CapTruncatesOldest(t *testing.T) {
	store, err := filestore.NewMergeLogStore(filepath.Join(t.TempDir(), "merge_log.json"))
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < repository.MergeLogCap+3; i++ {
		require.NoError(t, store.Append(ctx, entry(fmt.Sprintf("m%04d", i), "p1")))
	}

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, repository.MergeLogCap, "超出上限时丢弃最旧的条目")
	assert.Equal(t, "m0003", entries[0].ID)
	assert.Equal(t, fmt.Sprintf("m%04d", repository.MergeLogCap+2), entries[len(entries)-1].ID)
}
