package state

import "errors"

// 房间/会话状态层的业务错误。
// Dispatcher 依据这些错误决定回复 error 事件还是静默忽略。
var (
	ErrRoomNotFound     = errors.New("state: room not found")
	ErrRoomFull         = errors.New("state: room is full")
	ErrSessionNotFound  = errors.New("state: session not found")
	ErrNotInRoom        = errors.New("state: session not in a room")
	ErrElementLocked    = errors.New("state: element already locked")
	ErrElementNotLocked = errors.New("state: element not locked")
	ErrNotLockHolder    = errors.New("state: lock held by another session")
)
