package domain

import "time"

// Session 表示一条已建立的长连接对应的用户会话。
// 由 Session Registry 负责创建（连接建立时）和销毁（连接断开时）。
type Session struct {
	ID       string    // 会话唯一标识 (UUID)，连接建立时分配，对客户端不透明
	Name     string    // 显示名称，连接时生成默认访客名，加入房间时可被覆盖
	RoomID   string    // 当前所在房间 ID，空字符串表示未加入任何房间
	LastSeen time.Time // 最近一次成功收发消息的时间戳，用于活跃度判断
}

// InRoom 报告该会话当前是否已加入某个房间。
func (s *Session) InRoom() bool {
	return s.RoomID != ""
}
