package hub

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/zhouBoom/M-server-node-003/internal/domain"
	"github.com/zhouBoom/M-server-node-003/internal/dto"
	"github.com/zhouBoom/M-server-node-003/internal/merge"
	"github.com/zhouBoom/M-server-node-003/internal/state"
)

// dispatch 是入站事件的唯一入口：校验、按消息类型路由到对应处理器，
// 并在处理结束后检查顾问性截止时间。状态变更先于截止检查完成，
// 超时消息被放弃但已生效的变更不回滚。
func (h *Hub) dispatch(client *Client, raw []byte) {
	if client == nil || client.session == nil {
		logrus.Warn("Dispatch: inbound message from unregistered client, dropping")
		return
	}
	start := time.Now()
	sess := client.session
	logCtx := logrus.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"user_name":  sess.Name,
	})

	msg, err := dto.Parse(raw)
	if err != nil {
		// 空载荷、超限、无法解析、缺少 type：记录后静默丢弃
		logCtx.WithError(err).WithField("size", len(raw)).Warn("Dropping invalid inbound payload")
		return
	}
	h.registry.Touch(sess.ID)

	switch m := msg.(type) {
	case dto.CreateRoom:
		h.handleCreateRoom(client, m)
	case dto.JoinRoom:
		h.handleJoinRoom(client, m)
	case dto.LeaveRoom:
		h.handleLeaveRoom(client)
	case dto.GetRooms:
		h.sendEvent(client, dto.NewRoomList(h.rooms.ListRooms()))
	case dto.DrawingOp:
		h.handleDrawingOp(client, m)
	case dto.LockElement:
		h.handleLockElement(client, m)
	case dto.UnlockElement:
		h.handleUnlockElement(client, m)
	case dto.GetDrawingHistory:
		h.handleGetHistory(client)
	case dto.DocumentEdit:
		h.handleDocumentEdit(client, m)
	case dto.Unrecognized:
		h.sendEvent(client, dto.NewError(fmt.Sprintf("Unknown message type: %s", m.Type)))
	}

	if elapsed := time.Since(start); elapsed > processingDeadline {
		// 顾问性截止：该消息视为处理失败被放弃，已完成的部分变更保留
		logCtx.WithField("elapsed", elapsed.String()).Error("Message handling exceeded processing deadline, abandoned")
	}
}

func (h *Hub) handleCreateRoom(client *Client, m dto.CreateRoom) {
	room := h.rooms.CreateRoom(m.RoomName)
	h.sendEvent(client, dto.NewRoomCreated(room.ID, room.Name))
}

func (h *Hub) handleJoinRoom(client *Client, m dto.JoinRoom) {
	sess := client.session

	// 已在别的房间时先隐式退出，保证会话至多属于一个房间
	if sess.InRoom() && sess.RoomID != m.RoomID {
		h.leaveCurrentRoom(client)
	}

	room, err := h.rooms.JoinRoom(m.RoomID, sess, m.UserName)
	if err != nil {
		reason := "Room not found"
		if errors.Is(err, state.ErrRoomFull) {
			reason = "Room is full"
		}
		h.sendEvent(client, dto.NewRoomJoinFailed(m.RoomID, reason))
		return
	}

	h.sendEvent(client, dto.NewRoomJoined(room.ID, sess.Name))
	h.broadcastRoom(room, dto.NewUserJoined(sess.ID, sess.Name, room.MemberCount()), nil)

	// 完整房间快照单播给新成员：成员列表、画板历史、当前锁表
	h.sendEvent(client, dto.RoomStateEvent{
		Type:           "room-state",
		RoomID:         room.ID,
		RoomName:       room.Name,
		Users:          state.Members(room),
		DrawingHistory: state.HistorySnapshot(room),
		LockedElements: state.LockedElements(room),
	})
}

func (h *Hub) handleLeaveRoom(client *Client) {
	if !client.session.InRoom() {
		// 未加入任何房间时静默失败
		return
	}
	h.leaveCurrentRoom(client)
}

// leaveCurrentRoom 执行退出房间的共用路径：移除成员、向余下成员
// 广播 user-left；房间变空时已被存储层同步删除，无人可收广播。
func (h *Hub) leaveCurrentRoom(client *Client) {
	sess := client.session
	room, deleted, err := h.rooms.LeaveRoom(sess)
	if err != nil {
		logrus.WithError(err).WithField("session_id", sess.ID).Debug("Leave room was a no-op")
		return
	}
	if !deleted {
		h.broadcastRoom(room, dto.NewUserLeft(sess.ID, sess.Name, room.MemberCount()), nil)
	}
}

func (h *Hub) handleDrawingOp(client *Client, m dto.DrawingOp) {
	sess := client.session
	if !sess.InRoom() {
		h.sendEvent(client, dto.NewError("You must join a room first"))
		return
	}

	// 锁检查先于历史追加和广播：元素一旦被锁定，任何人的变更操作
	// 都被拒绝，包括持有者本人
	if m.ElementID != "" {
		if holder, locked := h.rooms.LockHolder(sess.RoomID, m.ElementID); locked {
			h.sendEvent(client, dto.NewError(fmt.Sprintf("Element %s is locked by %s", m.ElementID, holder)))
			return
		}
	}

	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	action := domain.DrawingAction{
		ID:         uuid.NewString(),
		RoomID:     sess.RoomID,
		UserID:     sess.ID,
		UserName:   sess.Name,
		ActionType: m.Kind,
		ElementID:  m.ElementID,
		Element:    m.Element,
		Timestamp:  ts,
	}

	if err := h.rooms.AppendAction(sess.RoomID, action); err != nil {
		logrus.WithError(err).WithField("room_id", sess.RoomID).Error("Failed to append drawing action")
		return
	}
	h.archiveAction(action)

	if room, ok := h.rooms.GetRoom(sess.RoomID); ok {
		h.broadcastRoom(room, dto.NewActionEvent(action), client)
	}
}

func (h *Hub) handleLockElement(client *Client, m dto.LockElement) {
	sess := client.session
	if !sess.InRoom() {
		h.sendEvent(client, dto.NewError("You must join a room first"))
		return
	}
	if err := h.rooms.Lock(sess.RoomID, m.ElementID, sess.ID); err != nil {
		// 锁是排他且不可重入的：已有持有者（包括请求方自己）一律失败
		h.sendEvent(client, dto.NewError(fmt.Sprintf("Cannot lock element %s: %s", m.ElementID, lockFailureReason(err))))
		return
	}

	h.recordLockAction(sess, domain.ActionLock, m.ElementID)
	if room, ok := h.rooms.GetRoom(sess.RoomID); ok {
		h.broadcastRoom(room, dto.NewElementLocked(m.ElementID, sess.ID), nil)
	}
}

func (h *Hub) handleUnlockElement(client *Client, m dto.UnlockElement) {
	sess := client.session
	if !sess.InRoom() {
		h.sendEvent(client, dto.NewError("You must join a room first"))
		return
	}
	if err := h.rooms.Unlock(sess.RoomID, m.ElementID, sess.ID); err != nil {
		h.sendEvent(client, dto.NewError(fmt.Sprintf("Cannot unlock element %s: %s", m.ElementID, lockFailureReason(err))))
		return
	}

	h.recordLockAction(sess, domain.ActionUnlock, m.ElementID)
	if room, ok := h.rooms.GetRoom(sess.RoomID); ok {
		h.broadcastRoom(room, dto.NewElementUnlocked(m.ElementID, sess.ID), nil)
	}
}

// recordLockAction 把 lock/unlock 也写进历史，回放时可恢复锁状态。
func (h *Hub) recordLockAction(sess *domain.Session, kind, elementID string) {
	action := domain.DrawingAction{
		ID:         uuid.NewString(),
		RoomID:     sess.RoomID,
		UserID:     sess.ID,
		UserName:   sess.Name,
		ActionType: kind,
		ElementID:  elementID,
		Timestamp:  time.Now().UTC(),
	}
	if err := h.rooms.AppendAction(sess.RoomID, action); err != nil {
		logrus.WithError(err).WithField("room_id", sess.RoomID).Error("Failed to append lock action")
		return
	}
	h.archiveAction(action)
}

func (h *Hub) handleGetHistory(client *Client) {
	sess := client.session
	if !sess.InRoom() {
		h.sendEvent(client, dto.NewError("You must join a room first"))
		return
	}
	room, ok := h.rooms.GetRoom(sess.RoomID)
	if !ok {
		h.sendEvent(client, dto.NewError("Room not found"))
		return
	}
	h.sendEvent(client, dto.NewDrawingHistory(state.HistorySnapshot(room)))
}

func (h *Hub) handleDocumentEdit(client *Client, m dto.DocumentEdit) {
	// 作者缺省为发起会话；编辑方也可以显式声明（离线补交场景）
	userID := m.UserID
	if userID == "" {
		userID = client.session.ID
	}

	result, err := h.engine.ProcessEdit(context.Background(), merge.Edit{
		ProjectID: m.ProjectID,
		UserID:    userID,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	})
	if err != nil {
		// 载荷非法：已由引擎记录，无任何状态变更，不回复
		return
	}

	// 冲突合并结果广播给所有连接，不限房间；顺序写入无需广播
	if result.Merged {
		h.broadcastAll(dto.NewDocumentMerged(result.Document, result.Document.LastModifiedBy, result.Document.LastModified))
	}
}

// archiveAction 把操作排入后台归档队列，失败只降级为日志。
func (h *Hub) archiveAction(action domain.DrawingAction) {
	if err := h.archiver.EnqueueAction(action); err != nil {
		logrus.WithError(err).WithField("action_id", action.ID).Warn("Failed to enqueue action for archival")
	}
}

// lockFailureReason 把状态层的锁错误翻译成回复给客户端的原因。
func lockFailureReason(err error) string {
	switch {
	case errors.Is(err, state.ErrRoomNotFound):
		return "room not found"
	case errors.Is(err, state.ErrElementLocked):
		return "element already locked"
	case errors.Is(err, state.ErrElementNotLocked):
		return "element is not locked"
	case errors.Is(err, state.ErrNotLockHolder):
		return "lock held by another session"
	}
	return "operation failed"
}
