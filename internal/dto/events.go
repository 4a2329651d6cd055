package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/zhouBoom/M-server-node-003/internal/domain"
)

// 出站事件（服务器 → 客户端）的载荷结构。
// 每个事件序列化一次后扇出，字段集合与协议约定一一对应。

// WelcomeEvent 在连接建立后单播给新会话。
type WelcomeEvent struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	ClientID string `json:"clientId"`
	UserName string `json:"userName"`
}

// RoomCreatedEvent 回复 create-room 请求。
type RoomCreatedEvent struct {
	Type     string `json:"type"`
	RoomID   string `json:"roomId"`
	RoomName string `json:"roomName"`
}

// RoomListEvent 回复 get-rooms 请求。
type RoomListEvent struct {
	Type  string               `json:"type"`
	Rooms []domain.RoomSummary `json:"rooms"`
}

// RoomJoinedEvent 单播给成功加入房间的会话。
type RoomJoinedEvent struct {
	Type     string `json:"type"`
	RoomID   string `json:"roomId"`
	UserName string `json:"userName"`
}

// RoomJoinFailedEvent 单播给加入失败的会话，携带失败原因。
type RoomJoinFailedEvent struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
	Error  string `json:"error"`
}

// RoomStateEvent 是加入成功后单播的完整房间快照。
type RoomStateEvent struct {
	Type           string                 `json:"type"`
	RoomID         string                 `json:"roomId"`
	RoomName       string                 `json:"roomName"`
	Users          []domain.RoomMember    `json:"users"`
	DrawingHistory []domain.DrawingAction `json:"drawingHistory"`
	LockedElements []domain.LockedElement `json:"lockedElements"`
}

// PresenceEvent 覆盖 user-joined / user-left 两种成员变动广播。
type PresenceEvent struct {
	Type      string `json:"type"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	UserCount int    `json:"userCount"`
}

// ActionEvent 把一次画板操作广播给房间内的其他成员。
// 事件的 type 与操作类型相同 (draw / erase / move / resize)。
type ActionEvent struct {
	Type   string               `json:"type"`
	Action domain.DrawingAction `json:"action"`
}

// ElementLockedEvent 广播一次成功的元素锁定。
type ElementLockedEvent struct {
	Type      string `json:"type"`
	ElementID string `json:"elementId"`
	LockedBy  string `json:"lockedBy"`
}

// ElementUnlockedEvent 广播一次成功的元素解锁。
type ElementUnlockedEvent struct {
	Type       string `json:"type"`
	ElementID  string `json:"elementId"`
	UnlockedBy string `json:"unlockedBy"`
}

// DrawingHistoryEvent 回复 get-drawing-history 请求。
type DrawingHistoryEvent struct {
	Type    string                 `json:"type"`
	History []domain.DrawingAction `json:"history"`
}

// DocumentMergedEvent 在冲突合并后广播给所有连接（不限房间）。
type DocumentMergedEvent struct {
	Type           string    `json:"type"`
	ProjectID      string    `json:"projectId"`
	Content        string    `json:"content"`
	Version        uint      `json:"version"`
	MergedBy       string    `json:"mergedBy"`
	MergeTimestamp time.Time `json:"mergeTimestamp"`
}

// ErrorEvent 单播给触发错误的会话。
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewWelcome(clientID, userName string) WelcomeEvent {
	return WelcomeEvent{
		Type:     "welcome",
		Message:  "Connected to collaboration server",
		ClientID: clientID,
		UserName: userName,
	}
}

func NewRoomCreated(roomID, roomName string) RoomCreatedEvent {
	return RoomCreatedEvent{Type: "room-created", RoomID: roomID, RoomName: roomName}
}

func NewRoomList(rooms []domain.RoomSummary) RoomListEvent {
	return RoomListEvent{Type: "room-list", Rooms: rooms}
}

func NewRoomJoined(roomID, userName string) RoomJoinedEvent {
	return RoomJoinedEvent{Type: "room-joined", RoomID: roomID, UserName: userName}
}

func NewRoomJoinFailed(roomID, reason string) RoomJoinFailedEvent {
	return RoomJoinFailedEvent{Type: "room-join-failed", RoomID: roomID, Error: reason}
}

func NewUserJoined(userID, userName string, count int) PresenceEvent {
	return PresenceEvent{Type: "user-joined", UserID: userID, UserName: userName, UserCount: count}
}

func NewUserLeft(userID, userName string, count int) PresenceEvent {
	return PresenceEvent{Type: "user-left", UserID: userID, UserName: userName, UserCount: count}
}

func NewActionEvent(action domain.DrawingAction) ActionEvent {
	return ActionEvent{Type: action.ActionType, Action: action}
}

func NewElementLocked(elementID, lockedBy string) ElementLockedEvent {
	return ElementLockedEvent{Type: "element-locked", ElementID: elementID, LockedBy: lockedBy}
}

func NewElementUnlocked(elementID, unlockedBy string) ElementUnlockedEvent {
	return ElementUnlockedEvent{Type: "element-unlocked", ElementID: elementID, UnlockedBy: unlockedBy}
}

func NewDrawingHistory(history []domain.DrawingAction) DrawingHistoryEvent {
	return DrawingHistoryEvent{Type: "drawing-history", History: history}
}

func NewDocumentMerged(doc domain.Document, mergedBy string, ts time.Time) DocumentMergedEvent {
	return DocumentMergedEvent{
		Type:           "document-merged",
		ProjectID:      doc.ProjectID,
		Content:        doc.Content,
		Version:        doc.Version,
		MergedBy:       mergedBy,
		MergeTimestamp: ts,
	}
}

func NewError(message string) ErrorEvent {
	return ErrorEvent{Type: "error", Message: message}
}

// Encode 把一个出站事件序列化为单条消息，并强制 1 MiB 上限。
// 超限时返回 ErrPayloadTooLarge，消息不会被部分发送。
func Encode(event interface{}) ([]byte, error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("dto: failed to marshal outbound event: %w", err)
	}
	if len(raw) > MaxMessageBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(raw))
	}
	return raw, nil
}
