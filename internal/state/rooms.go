package state

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/zhouBoom/M-server-node-003/internal/domain"
)

const (
	// MaxRoomMembers 是单个房间的成员上限，第 21 个加入请求被拒绝。
	MaxRoomMembers = 20

	// MaxHistory 是房间画板历史的保留上限，超出时从头部截断。
	MaxHistory = 1000
)

// Store 拥有全部房间的生命周期：成员关系、元素锁表和有界历史 (Room Store)。
// 与 Registry 一样只能从事件循环访问，不需要内部加锁。
type Store struct {
	rooms map[string]*domain.Room
}

// NewStore 创建一个空的房间存储。
func NewStore() *Store {
	return &Store{rooms: make(map[string]*domain.Room)}
}

// CreateRoom 分配唯一房间 ID 并初始化空的成员集合、历史和锁表。
func (s *Store) CreateRoom(name string) *domain.Room {
	now := time.Now().UTC()
	room := &domain.Room{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Members:   make(map[string]*domain.Session),
		Locks:     make(map[string]string),
	}
	s.rooms[room.ID] = room
	logrus.WithFields(logrus.Fields{
		"room_id":   room.ID,
		"room_name": room.Name,
	}).Info("Room created")
	return room
}

// GetRoom 按 ID 查找房间。
func (s *Store) GetRoom(id string) (*domain.Room, bool) {
	room, ok := s.rooms[id]
	return room, ok
}

// DeleteRoom 删除房间，幂等。
func (s *Store) DeleteRoom(id string) {
	if _, ok := s.rooms[id]; !ok {
		return
	}
	delete(s.rooms, id)
	logrus.WithField("room_id", id).Info("Room deleted")
}

// ListRooms 返回房间列表快照，按创建时间排序保证输出稳定。
func (s *Store) ListRooms() []domain.RoomSummary {
	summaries := make([]domain.RoomSummary, 0, len(s.rooms))
	for _, room := range s.rooms {
		summaries = append(summaries, domain.RoomSummary{
			ID:        room.ID,
			Name:      room.Name,
			UserCount: room.MemberCount(),
			CreatedAt: room.CreatedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].ID < summaries[j].ID
		}
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	return summaries
}

// JoinRoom 把会话加入房间。失败返回 ErrRoomNotFound 或 ErrRoomFull，
// 不修改任何状态；成功时更新会话的显示名和房间指针，并刷新房间更新时间。
func (s *Store) JoinRoom(roomID string, sess *domain.Session, displayName string) (*domain.Room, error) {
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if room.MemberCount() >= MaxRoomMembers {
		return nil, fmt.Errorf("%w: %d members", ErrRoomFull, room.MemberCount())
	}
	if displayName != "" {
		sess.Name = displayName
	}
	sess.RoomID = room.ID
	room.Members[sess.ID] = sess
	room.UpdatedAt = time.Now().UTC()
	logrus.WithFields(logrus.Fields{
		"room_id":    room.ID,
		"session_id": sess.ID,
		"user_name":  sess.Name,
		"user_count": room.MemberCount(),
	}).Info("Session joined room")
	return room, nil
}

// LeaveRoom 把会话移出其所在房间。会话未加入任何房间时返回
// ErrNotInRoom；房间变空时在同一步内同步删除（无宽限期）。
// 返回离开前所在的房间和房间是否已被删除。
func (s *Store) LeaveRoom(sess *domain.Session) (*domain.Room, bool, error) {
	if sess == nil || !sess.InRoom() {
		return nil, false, ErrNotInRoom
	}
	room, ok := s.rooms[sess.RoomID]
	if !ok {
		// 会话还指向一个已删除的房间，修正指针后按未加入处理
		sess.RoomID = ""
		return nil, false, ErrRoomNotFound
	}
	delete(room.Members, sess.ID)
	sess.RoomID = ""
	room.UpdatedAt = time.Now().UTC()
	logrus.WithFields(logrus.Fields{
		"room_id":    room.ID,
		"session_id": sess.ID,
		"user_count": room.MemberCount(),
	}).Info("Session left room")

	deleted := false
	if room.MemberCount() == 0 {
		s.DeleteRoom(room.ID)
		deleted = true
	}
	return room, deleted, nil
}

// AppendAction 把一条操作追加进房间历史并刷新房间更新时间。
// 历史超过 MaxHistory 时丢弃最旧的条目，保留的部分保持原有相对顺序。
func (s *Store) AppendAction(roomID string, action domain.DrawingAction) error {
	room, ok := s.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	room.History = append(room.History, action)
	if overflow := len(room.History) - MaxHistory; overflow > 0 {
		room.History = append(room.History[:0:0], room.History[overflow:]...)
	}
	room.UpdatedAt = time.Now().UTC()
	return nil
}

// Lock 把元素锁授予请求方。元素已有持有者时失败——锁是排他且
// 不可重入的，持有者自己重复加锁同样被拒绝。
func (s *Store) Lock(roomID, elementID, sessionID string) error {
	room, ok := s.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	if holder, locked := room.Locks[elementID]; locked {
		return fmt.Errorf("%w: held by %s", ErrElementLocked, holder)
	}
	room.Locks[elementID] = sessionID
	return nil
}

// Unlock 释放元素锁。房间不存在、元素未锁定或请求方不是持有者时
// 失败且锁保持不变；不允许第三方强制解锁。
func (s *Store) Unlock(roomID, elementID, sessionID string) error {
	room, ok := s.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	holder, locked := room.Locks[elementID]
	if !locked {
		return ErrElementNotLocked
	}
	if holder != sessionID {
		return fmt.Errorf("%w: held by %s", ErrNotLockHolder, holder)
	}
	delete(room.Locks, elementID)
	return nil
}

// LockHolder 返回元素当前的持有者会话 ID，未锁定时第二个返回值为 false。
func (s *Store) LockHolder(roomID, elementID string) (string, bool) {
	room, ok := s.rooms[roomID]
	if !ok {
		return "", false
	}
	holder, locked := room.Locks[elementID]
	return holder, locked
}

// Members 返回房间成员列表快照，按会话 ID 排序保证输出稳定。
func Members(room *domain.Room) []domain.RoomMember {
	members := make([]domain.RoomMember, 0, len(room.Members))
	for _, sess := range room.Members {
		members = append(members, domain.RoomMember{ID: sess.ID, Name: sess.Name})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members
}

// LockedElements 返回房间锁表快照，按元素 ID 排序。
func LockedElements(room *domain.Room) []domain.LockedElement {
	locks := make([]domain.LockedElement, 0, len(room.Locks))
	for elementID, holder := range room.Locks {
		locks = append(locks, domain.LockedElement{ElementID: elementID, UserID: holder})
	}
	sort.Slice(locks, func(i, j int) bool { return locks[i].ElementID < locks[j].ElementID })
	return locks
}

// HistorySnapshot 返回房间历史的副本，避免调用方持有内部切片。
func HistorySnapshot(room *domain.Room) []domain.DrawingAction {
	history := make([]domain.DrawingAction, len(room.History))
	copy(history, room.History)
	return history
}
