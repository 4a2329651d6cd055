package domain

import "time"

// 画板操作类型。lock/unlock 也会作为历史记录保留，便于回放时恢复锁状态。
const (
	ActionDraw   = "draw"
	ActionErase  = "erase"
	ActionMove   = "move"
	ActionResize = "resize"
	ActionLock   = "lock"
	ActionUnlock = "unlock"
)

// DrawingAction 表示用户在房间画板上执行的一次操作记录。
// 追加进房间历史后不可变；同一结构体也用于 GORM 归档表。
type DrawingAction struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	RoomID     string    `json:"roomId" gorm:"index;size:36;not null"`
	UserID     string    `json:"userId" gorm:"index;size:36;not null"`
	UserName   string    `json:"userName" gorm:"size:100"`           // 操作发生时的显示名快照
	ActionType string    `json:"type" gorm:"size:20;not null"`       // draw / erase / move / resize / lock / unlock
	ElementID  string    `json:"elementId,omitempty" gorm:"size:64"` // 操作目标元素 ID，可为空（自由绘制）
	Element    string    `json:"element,omitempty" gorm:"type:text"` // 不透明的元素负载（客户端定义的 JSON 字符串）
	Timestamp  time.Time `json:"timestamp" gorm:"index;not null"`
	CreatedAt  time.Time `json:"-" gorm:"autoCreateTime"` // 归档入库时间 (GORM 自动填充)
}

// IsMutating 报告该操作类型是否会修改画板元素。
// 对已锁定元素的前置检查只针对这类操作。
func IsMutating(actionType string) bool {
	switch actionType {
	case ActionDraw, ActionErase, ActionMove, ActionResize:
		return true
	}
	return false
}
