package domain

import "time"

// ResolutionAuto 是目前唯一的合并裁决方式：自动按行合并。
const ResolutionAuto = "auto"

// Document 表示某个项目的当前文档状态。
// 首次编辑时惰性创建，进程生命周期内常驻。
type Document struct {
	ProjectID      string    `json:"projectId"`
	Content        string    `json:"content"`
	Version        uint      `json:"version"` // 从 1 开始，每次处理编辑严格递增
	LastModifiedBy string    `json:"lastModifiedBy"`
	LastModified   time.Time `json:"lastModified"`
}

// MergeLogEntry 是一次自动文档合并的审计记录。
// 只追加不修改；持久化存储仅保留最近 1000 条。
type MergeLogEntry struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"projectId"`
	UserA      string    `json:"userA"`      // 先到编辑（存量文档）的作者
	UserB      string    `json:"userB"`      // 后到编辑（触发冲突）的作者
	LineRange  string    `json:"lineRange"`  // 参与冲突裁决的行区间，如 "0-41"
	ResolvedBy string    `json:"resolvedBy"` // 裁决者会话 ID（自动合并时为后到作者）
	Resolution string    `json:"resolution"` // 目前恒为 ResolutionAuto
	ContentA   string    `json:"contentA"`   // 双方完整内容快照
	ContentB   string    `json:"contentB"`
	Merged     string    `json:"merged"`
	Timestamp  time.Time `json:"timestamp"`
}

// ActivityEntry 是项目活动环中的一条编辑事件，用于审计/回放展示。
// 每个项目只保留最近 20 条，先进先出。
type ActivityEntry struct {
	ProjectID string    `json:"projectId"`
	UserID    string    `json:"userId"`
	Version   uint      `json:"version"` // 该编辑处理完成后的文档版本
	Timestamp time.Time `json:"timestamp"`
}
