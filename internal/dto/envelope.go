package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zhouBoom/M-server-node-003/internal/domain"
)

// MaxMessageBytes 是单条入站/出站消息的上限 (1 MiB)。
// 超限的入站消息在解析前丢弃，超限的出站消息不会被部分发送。
const MaxMessageBytes = 1 << 20

// 入站消息的解析错误。调用方据此决定是静默丢弃还是回复 error 事件。
var (
	ErrEmptyPayload     = errors.New("dto: empty payload")
	ErrPayloadTooLarge  = errors.New("dto: payload exceeds size limit")
	ErrMalformedPayload = errors.New("dto: malformed payload")
	ErrMissingType      = errors.New("dto: missing type discriminator")
)

// Message 是入站消息的封闭变体集合。
// 每种消息类型在 Dispatcher 边界解析一次，未知的 type 变成 Unrecognized
// 变体，而不是无类型的 map。
type Message interface {
	isMessage()
}

// CreateRoom 请求创建一个新房间。
type CreateRoom struct {
	RoomName string
}

// JoinRoom 请求加入已有房间，可携带期望的显示名。
type JoinRoom struct {
	RoomID   string
	UserName string
}

// LeaveRoom 请求离开当前房间。
type LeaveRoom struct{}

// GetRooms 请求当前房间列表快照。
type GetRooms struct{}

// DrawingOp 是 draw / erase / move / resize 四种画板操作的统一变体。
type DrawingOp struct {
	Kind      string // domain.ActionDraw 等
	ElementID string
	Element   string // 不透明元素负载，原样转发
	Timestamp time.Time
}

// LockElement 请求锁定一个元素。
type LockElement struct {
	ElementID string
}

// UnlockElement 请求释放一个元素锁。
type UnlockElement struct {
	ElementID string
}

// GetDrawingHistory 请求当前房间保留的完整操作历史。
type GetDrawingHistory struct{}

// DocumentEdit 是一次文档编辑提交，与房间无关，按项目 ID 路由。
type DocumentEdit struct {
	ProjectID string
	UserID    string // 编辑方声明的作者（通常即会话 ID）
	Content   string
	Timestamp time.Time
}

// Unrecognized 表示 type 不在已知集合内的消息，原样携带判别串。
type Unrecognized struct {
	Type string
}

func (CreateRoom) isMessage()        {}
func (JoinRoom) isMessage()          {}
func (LeaveRoom) isMessage()         {}
func (GetRooms) isMessage()          {}
func (DrawingOp) isMessage()         {}
func (LockElement) isMessage()       {}
func (UnlockElement) isMessage()     {}
func (GetDrawingHistory) isMessage() {}
func (DocumentEdit) isMessage()      {}
func (Unrecognized) isMessage()      {}

// envelope 是入站 JSON 的原始形态，包含所有消息类型的字段并集。
// 客户端时间戳为 epoch 毫秒（与浏览器 Date.now() 对齐）。
type envelope struct {
	Type      string `json:"type"`
	RoomName  string `json:"roomName"`
	RoomID    string `json:"roomId"`
	UserName  string `json:"userName"`
	ElementID string `json:"elementId"`
	Element   string `json:"element"`
	ProjectID string `json:"projectId"`
	UserID    string `json:"userId"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// tsOrZero 把 epoch 毫秒转换为 time.Time，0 表示客户端未声明。
func tsOrZero(millis int64) time.Time {
	if millis == 0 {
		return time.Time{}
	}
	return time.UnixMilli(millis).UTC()
}

// Parse 校验并把一条原始入站消息解析为具体变体。
// 校验顺序：非空 → 大小上限 → JSON 可解析 → type 判别串存在。
func Parse(raw []byte) (Message, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyPayload
	}
	if len(raw) > MaxMessageBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(raw))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if env.Type == "" {
		return nil, ErrMissingType
	}

	switch env.Type {
	case "create-room":
		return CreateRoom{RoomName: env.RoomName}, nil
	case "join-room":
		return JoinRoom{RoomID: env.RoomID, UserName: env.UserName}, nil
	case "leave-room":
		return LeaveRoom{}, nil
	case "get-rooms":
		return GetRooms{}, nil
	case domain.ActionDraw, domain.ActionErase, domain.ActionMove, domain.ActionResize:
		return DrawingOp{
			Kind:      env.Type,
			ElementID: env.ElementID,
			Element:   env.Element,
			Timestamp: tsOrZero(env.Timestamp),
		}, nil
	case "lock-element":
		return LockElement{ElementID: env.ElementID}, nil
	case "unlock-element":
		return UnlockElement{ElementID: env.ElementID}, nil
	case "get-drawing-history":
		return GetDrawingHistory{}, nil
	case "document-edit":
		return DocumentEdit{
			ProjectID: env.ProjectID,
			UserID:    env.UserID,
			Content:   env.Content,
			Timestamp: tsOrZero(env.Timestamp),
		}, nil
	default:
		return Unrecognized{Type: env.Type}, nil
	}
}
