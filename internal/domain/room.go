package domain

import "time"

// Room 表示一个协作房间：成员集合、元素锁表和有界的画板操作历史。
// 仅存在于内存中，由事件循环独占修改；成员数归零时同步销毁。
type Room struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Members 按会话 ID 索引当前成员，插入顺序无关紧要。
	// 不变式：成员集合永远是当前已连接会话的子集。
	Members map[string]*Session

	// History 保留最近的画板操作，最旧的在前。
	// 超出上限时从头部截断，保留的前缀与被丢弃的后缀在时间上连续。
	History []DrawingAction

	// Locks 把元素 ID 映射到唯一持有者的会话 ID。
	// 不变式：每个元素至多一个持有者；键不存在即未锁定。
	Locks map[string]string
}

// MemberCount 返回房间当前成员数。
func (r *Room) MemberCount() int {
	return len(r.Members)
}

// RoomSummary 是房间列表 (get-rooms / room-list) 中单个房间的条目。
type RoomSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserCount int       `json:"userCount"`
	CreatedAt time.Time `json:"createdAt"`
}

// LockedElement 是房间快照 (room-state) 中锁表的一项。
type LockedElement struct {
	ElementID string `json:"elementId"`
	UserID    string `json:"userId"`
}

// RoomMember 是房间快照中成员列表的一项。
type RoomMember struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
