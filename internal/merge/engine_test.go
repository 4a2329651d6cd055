package merge_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zhouBoom/M-server-node-003/internal/domain"
	"github.com/zhouBoom/M-server-node-003/internal/merge"
	"github.com/zhouBoom/M-server-node-003/internal/repository/mocks"
)

func newEngine(t *testing.T) (*merge.Engine, *mocks.MergeLogRepository) {
	t.Helper()
	logRepo := new(mocks.MergeLogRepository)
	return merge.NewEngine(logRepo), logRepo
}

func TestEngine_FirstEditCreatesDocument(t *testing.T) {
	engine, _ := newEngine(t)
	ts := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	result, err := engine.ProcessEdit(context.Background(), merge.Edit{
		ProjectID: "p1",
		UserID:    "alice",
		Content:   "hello",
		Timestamp: ts,
	})

	require.NoError(t, err)
	assert.False(t, result.Merged, "首次编辑不走合并路径")
	assert.Equal(t, uint(1), result.Document.Version)
	assert.Equal(t, "hello", result.Document.Content)
	assert.Equal(t, "alice", result.Document.LastModifiedBy)

	doc, ok := engine.Document("p1")
	require.True(t, ok)
	assert.Equal(t, uint(1), doc.Version)
}

func TestEngine_RejectsInvalidEdit(t *testing.T) {
	engine, logRepo := newEngine(t)
	ts := time.Now().UTC()

	cases := []merge.Edit{
		{UserID: "u", Content: "c", Timestamp: ts},                  // 缺 ProjectID
		{ProjectID: "p", Content: "c", Timestamp: ts},               // 缺 UserID
		{ProjectID: "p", UserID: "u", Timestamp: ts},                // 缺 Content
		{ProjectID: "p", UserID: "u", Content: "c"},                 // 缺 Timestamp
	}
	for _, edit := range cases {
		_, err := engine.ProcessEdit(context.Background(), edit)
		require.ErrorIs(t, err, merge.ErrInvalidEdit)
	}

	// 非法载荷不产生任何状态变更
	_, ok := engine.Document("p")
	assert.False(t, ok)
	assert.Empty(t, engine.Activity("p"))
	logRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestEngine_SameUserEditIsSequential(t *testing.T) {
	engine, logRepo := newEngine(t)
	ts := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	_, err := engine.ProcessEdit(context.Background(), merge.Edit{
		ProjectID: "p1", UserID: "alice", Content: "v1", Timestamp: ts,
	})
	require.NoError(t, err)

	// 同一作者的后续编辑：时间戳不同也按顺序写入处理
	result, err := engine.ProcessEdit(context.Background(), merge.Edit{
		ProjectID: "p1", UserID: "alice", Content: "v2", Timestamp: ts.Add(time.Minute),
	})

	require.NoError(t, err)
	assert.False(t, result.Merged)
	assert.Equal(t, uint(2), result.Document.Version)
	assert.Equal(t, "v2", result.Document.Content, "顺序写入整体替换内容")
	logRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestEngine_SameTimestampIsSequential(t *testing.T) {
	engine, logRepo := newEngine(t)
	ts := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	_, err := engine.ProcessEdit(context.Background(), merge.Edit{
		ProjectID: "p1", UserID: "alice", Content: "v1", Timestamp: ts,
	})
	require.NoError(t, err)

	// 作者不同但时间戳与上次写入相同：不算冲突
	result, err := engine.ProcessEdit(context.Background(), merge.Edit{
		ProjectID: "p1", UserID: "bob", Content: "v2", Timestamp: ts,
	})

	require.NoError(t, err)
	assert.False(t, result.Merged)
	assert.Equal(t, "bob", result.Document.LastModifiedBy)
	logRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestEngine_ConflictMergesByLine(t *testing.T) {
	engine, logRepo := newEngine(t)
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	_, err := engine.ProcessEdit(context.Background(), merge.Edit{
		ProjectID: "p1", UserID: "alice", Content: "line1\nline2\nline3", Timestamp: base,
	})
	require.NoError(t, err)

	logRepo.On("Append", mock.Anything, mock.MatchedBy(func(entry domain.MergeLogEntry) bool {
		assert.Equal(t, "p1", entry.ProjectID)
		assert.Equal(t, "alice", entry.UserA)
		assert.Equal(t, "bob", entry.UserB)
		assert.Equal(t, "bob", entry.ResolvedBy)
		assert.Equal(t, domain.ResolutionAuto, entry.Resolution)
		assert.Equal(t, "0-3", entry.LineRange)
		return true
	})).Return(nil).Once()

	// 时间戳和作者都不同：触发按行合并，后写入的一方胜出
	result, err := engine.ProcessEdit(context.Background(), merge.Edit{
		ProjectID: "p1", UserID: "bob", Content: "line1\nCHANGED\nline3", Timestamp: base.Add(time.Second),
	})

	require.NoError(t, err)
	assert.True(t, result.Merged, "冲突路径要求全局广播")
	require.NotNil(t, result.Entry)
	assert.Equal(t, uint(2), result.Document.Version)
	assert.Equal(t, "line1\nCHANGED\nline3", result.Document.Content)
	assert.Equal(t, "bob", result.Document.LastModifiedBy)

	logRepo.AssertExpectations(t)
}

func TestEngine_ConflictMergeAppendsExtraLines(t *testing.T) {
	engine, logRepo := newEngine(t)
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	_, err := engine.ProcessEdit(context.Background(), merge.Edit{
		ProjectID: "p1", UserID: "alice", Content: "line1", Timestamp: base,
	})
	require.NoError(t, err)

	logRepo.On("Append", mock.Anything, mock.AnythingOfType("domain.MergeLogEntry")).Return(nil).Once()

	result, err := engine.ProcessEdit(context.Background(), merge.Edit{
		ProjectID: "p1", UserID: "bob", Content: "line1\nline2\nline3", Timestamp: base.Add(time.Second),
	})

	require.NoError(t, err)
	assert.True(t, result.Merged)
	assert.Equal(t, "line1\nline2\nline3", result.Document.Content, "超出基底长度的行应被追加")
	assert.Equal(t, "0-3", result.Entry.LineRange)
}

func TestEngine_MergeLogFailureDoesNotFailEdit(t *testing.T) {
	engine, logRepo := newEngine(t)
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	_, err := engine.ProcessEdit(context.Background(), merge.Edit{
		ProjectID: "p1", UserID: "alice", Content: "a", Timestamp: base,
	})
	require.NoError(t, err)

	logRepo.On("Append", mock.Anything, mock.AnythingOfType("domain.MergeLogEntry")).
		Return(errors.New("disk full")).
		Once()

	// 日志落盘失败只降级，合并结果照常生效
	result, err := engine.ProcessEdit(context.Background(), merge.Edit{
		ProjectID: "p1", UserID: "bob", Content: "b", Timestamp: base.Add(time.Second),
	})

	require.NoError(t, err)
	assert.True(t, result.Merged)
	assert.Equal(t, uint(2), result.Document.Version)
}

func TestEngine_VersionMonotonicPerProject(t *testing.T) {
	engine, _ := newEngine(t)
	ts := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		result, err := engine.ProcessEdit(context.Background(), merge.Edit{
			ProjectID: "p1", UserID: "alice", Content: fmt.Sprintf("rev %d", i),
			Timestamp: ts.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
		assert.Equal(t, uint(i+1), result.Document.Version)
	}

	// 不同项目的版本计数互不影响
	result, err := engine.ProcessEdit(context.Background(), merge.Edit{
		ProjectID: "p2", UserID: "alice", Content: "other", Timestamp: ts,
	})
	require.NoError(t, err)
	assert.Equal(t, uint(1), result.Document.Version)
}

func TestEngine_ActivityRingCapped(t *testing.T) {
	engine, _ := newEngine(t)
	ts := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < merge.ActivityCap+5; i++ {
		_, err := engine.ProcessEdit(context.Background(), merge.Edit{
			ProjectID: "p1", UserID: "alice", Content: fmt.Sprintf("rev %d", i),
			Timestamp: ts.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	ring := engine.Activity("p1")
	require.Len(t, ring, merge.ActivityCap, "活动环超出容量时丢弃最旧的")
	// 最旧的在前，保留的是最近 ActivityCap 条
	assert.Equal(t, uint(6), ring[0].Version)
	assert.Equal(t, uint(merge.ActivityCap+5), ring[len(ring)-1].Version)
}

func TestEngine_DocumentUnknownProject(t *testing.T) {
	engine, _ := newEngine(t)
	_, ok := engine.Document("nope")
	assert.False(t, ok)
	assert.Empty(t, engine.Activity("nope"))
}
