package merge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/zhouBoom/M-server-node-003/internal/domain"
	"github.com/zhouBoom/M-server-node-003/internal/repository"
)

// ActivityCap 是每个项目活动环保留的编辑事件数，先进先出。
const ActivityCap = 20

// ErrInvalidEdit 表示编辑载荷缺少必要字段，引擎在任何状态变更前拒绝。
var ErrInvalidEdit = errors.New("merge: invalid edit payload")

// Edit 是一次文档编辑提交。Timestamp 是编辑方声明的时间戳，
// 冲突判定比较的就是这个值，不是服务器接收时间。
type Edit struct {
	ProjectID string
	UserID    string
	Content   string
	Timestamp time.Time
}

// Result 是引擎处理一次编辑的结果。
// Merged 为 true 时走了冲突合并路径，必须向所有连接广播 document-merged；
// 非冲突路径不要求广播。
type Result struct {
	Document domain.Document
	Merged   bool
	Entry    *domain.MergeLogEntry // 仅冲突路径产生
}

// Engine 维护按项目划分的文档状态、版本计数和活动环 (Document Merge Engine)。
// 写入只来自事件循环；REST 协作方并发读取，因此用读写锁保护。
type Engine struct {
	mu        sync.RWMutex
	documents map[string]*domain.Document
	activity  map[string][]domain.ActivityEntry
	logRepo   repository.MergeLogRepository
}

// NewEngine 创建合并引擎实例。
func NewEngine(logRepo repository.MergeLogRepository) *Engine {
	if logRepo == nil {
		panic("MergeLogRepository cannot be nil for Engine")
	}
	return &Engine{
		documents: make(map[string]*domain.Document),
		activity:  make(map[string][]domain.ActivityEntry),
		logRepo:   logRepo,
	}
}

// ProcessEdit 处理一次文档编辑。
// 状态机：文档不存在 → 版本 1 创建；存在且无冲突 → 内容替换、版本 +1；
// 检测到冲突 → 按行合并、版本 +1、记录合并日志并要求全局广播。
// 冲突判定：声明时间戳与 lastModified 不同 且 作者与 lastModifiedBy 不同。
// 同作者或同时间戳的编辑按顺序写入处理，不触发合并。
func (e *Engine) ProcessEdit(ctx context.Context, edit Edit) (*Result, error) {
	logCtx := logrus.WithFields(logrus.Fields{
		"project_id": edit.ProjectID,
		"user_id":    edit.UserID,
	})

	// 1. 载荷校验，任何字段缺失都在状态变更前拒绝
	if edit.ProjectID == "" || edit.UserID == "" || edit.Content == "" || edit.Timestamp.IsZero() {
		logCtx.Warn("Rejected document edit with missing fields")
		return nil, ErrInvalidEdit
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	doc, exists := e.documents[edit.ProjectID]

	// 2. 首次编辑：惰性创建版本 1
	if !exists {
		doc = &domain.Document{
			ProjectID:      edit.ProjectID,
			Content:        edit.Content,
			Version:        1,
			LastModifiedBy: edit.UserID,
			LastModified:   edit.Timestamp,
		}
		e.documents[edit.ProjectID] = doc
		e.recordActivity(edit.ProjectID, edit.UserID, doc.Version, edit.Timestamp)
		logCtx.WithField("version", doc.Version).Info("Document created")
		return &Result{Document: *doc}, nil
	}

	// 3. 冲突判定：时间戳和作者都与上次写入不同才算冲突
	conflict := !edit.Timestamp.Equal(doc.LastModified) && edit.UserID != doc.LastModifiedBy

	if !conflict {
		// 顺序写入：内容整体替换，版本 +1，不要求广播
		doc.Content = edit.Content
		doc.Version++
		doc.LastModifiedBy = edit.UserID
		doc.LastModified = edit.Timestamp
		e.recordActivity(edit.ProjectID, edit.UserID, doc.Version, edit.Timestamp)
		logCtx.WithField("version", doc.Version).Debug("Document updated sequentially")
		return &Result{Document: *doc}, nil
	}

	// 4. 冲突路径：按行三方合并，行粒度 last-write-wins
	previousAuthor := doc.LastModifiedBy
	previousContent := doc.Content
	merged, lineRange := mergeLines(doc.Content, edit.Content, doc.LastModified)

	now := time.Now().UTC()
	doc.Content = merged
	doc.Version++
	doc.LastModifiedBy = edit.UserID
	doc.LastModified = now
	e.recordActivity(edit.ProjectID, edit.UserID, doc.Version, now)

	entry := domain.MergeLogEntry{
		ID:         uuid.NewString(),
		ProjectID:  edit.ProjectID,
		UserA:      previousAuthor,
		UserB:      edit.UserID,
		LineRange:  lineRange,
		ResolvedBy: edit.UserID,
		Resolution: domain.ResolutionAuto,
		ContentA:   previousContent,
		ContentB:   edit.Content,
		Merged:     merged,
		Timestamp:  now,
	}

	// 每次追加后同步持久化；写入失败只降级为日志，不回滚合并结果
	if err := e.logRepo.Append(ctx, entry); err != nil {
		logCtx.WithError(err).Error("Failed to persist merge log entry")
	}

	logCtx.WithFields(logrus.Fields{
		"version":    doc.Version,
		"user_a":     entry.UserA,
		"user_b":     entry.UserB,
		"line_range": entry.LineRange,
	}).Info("Document conflict merged")

	return &Result{Document: *doc, Merged: true, Entry: &entry}, nil
}

// mergeLines 以存量行为基底逐行合并传入内容。
// 超出基底长度的行追加；不同的行按“更新者胜出”替换——这里比较的是
// 存量文档的修改时间与当前挂钟时间，因此后写入的一方总是胜出。
// 这是有意保留的启发式行为，不是因果正确的合并。
func mergeLines(base, incoming string, baseModified time.Time) (string, string) {
	baseLines := strings.Split(base, "\n")
	incomingLines := strings.Split(incoming, "\n")

	merged := make([]string, len(baseLines))
	copy(merged, baseLines)

	for i, line := range incomingLines {
		if i >= len(merged) {
			merged = append(merged, line)
			continue
		}
		if line != merged[i] && time.Now().UTC().After(baseModified) {
			merged[i] = line
		}
	}

	span := len(baseLines)
	if len(incomingLines) > span {
		span = len(incomingLines)
	}
	return strings.Join(merged, "\n"), fmt.Sprintf("0-%d", span)
}

// recordActivity 在项目活动环中追加一条编辑事件，超出容量时丢弃最旧的。
// 调用方必须已持有写锁。
func (e *Engine) recordActivity(projectID, userID string, version uint, ts time.Time) {
	ring := append(e.activity[projectID], domain.ActivityEntry{
		ProjectID: projectID,
		UserID:    userID,
		Version:   version,
		Timestamp: ts,
	})
	if len(ring) > ActivityCap {
		ring = ring[len(ring)-ActivityCap:]
	}
	e.activity[projectID] = ring
}

// Document 返回项目文档的副本，供 REST 协作方读取。
func (e *Engine) Document(projectID string) (domain.Document, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	doc, ok := e.documents[projectID]
	if !ok {
		return domain.Document{}, false
	}
	return *doc, true
}

// Activity 返回项目活动环的副本，最旧的在前。
func (e *Engine) Activity(projectID string) []domain.ActivityEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ring := e.activity[projectID]
	out := make([]domain.ActivityEntry, len(ring))
	copy(out, ring)
	return out
}
