package hub

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zhouBoom/M-server-node-003/internal/domain"
	"github.com/zhouBoom/M-server-node-003/internal/dto"
	"github.com/zhouBoom/M-server-node-003/internal/merge"
	"github.com/zhouBoom/M-server-node-003/internal/state"
)

// 包级别的 WebSocket 常量，供 hub 和 client 使用
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// 协议层的消息上限 (1 MiB)，在 dispatch 中执行“丢弃并告警”；
	// 传输层读限制放宽到两倍，保证超限消息能到达 dispatch 被统计。
	maxMessageSize = dto.MaxMessageBytes

	// processingDeadline 是单条消息处理的顾问性截止时间。
	// 超时只记录（该消息视为被放弃），不中断已完成的状态变更。
	processingDeadline = 10 * time.Second
)

// Archiver 把画板操作交给后台归档。入队失败只降级为日志。
type Archiver interface {
	EnqueueAction(action domain.DrawingAction) error
}

// hubMessage 是 Hub 内部通道传递的消息。
type hubMessage struct {
	kind    string // "register" / "unregister" / "inbound"
	client  *Client
	rawData []byte // 仅 inbound 使用
}

// Hub 是全部协作状态的唯一持有者：会话注册表、房间存储和合并引擎
// 都只在 Run 这一个 goroutine 中被修改。一条入站消息从校验、变更到
// 广播完整处理结束后才开始下一条，房间和文档的变更因此天然串行。
type Hub struct {
	messageChan chan hubMessage

	// clients 按会话 ID 索引当前打开的连接
	clients map[string]*Client

	registry *state.Registry
	rooms    *state.Store
	engine   *merge.Engine
	archiver Archiver
}

// NewHub 创建 Hub 实例。
func NewHub(registry *state.Registry, rooms *state.Store, engine *merge.Engine, archiver Archiver) *Hub {
	if registry == nil || rooms == nil || engine == nil {
		panic("registry, room store and merge engine must be non-nil for Hub")
	}
	if archiver == nil {
		panic("Archiver cannot be nil for Hub")
	}
	return &Hub{
		messageChan: make(chan hubMessage, 512),
		clients:     make(map[string]*Client),
		registry:    registry,
		rooms:       rooms,
		engine:      engine,
		archiver:    archiver,
	}
}

// Run 启动 Hub 的主事件循环，应在单独的 goroutine 中运行。
// messageChan 关闭时循环退出。
func (h *Hub) Run() {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running...")

	for msg := range h.messageChan {
		switch msg.kind {
		case "register":
			h.registerClient(msg.client)
		case "unregister":
			h.unregisterClient(msg.client)
		case "inbound":
			// 严格顺序处理：同一进程状态上一条消息完整结束才开始下一条
			h.dispatch(msg.client, msg.rawData)
		default:
			log.Warnf("Hub: Received unknown internal message kind: %s", msg.kind)
		}
	}
	log.Info("Hub is shutting down...")
}

// Stop 关闭 Hub 的消息通道，使 Run 退出。
func (h *Hub) Stop() {
	close(h.messageChan)
}

// QueueMessage 把消息放入 Hub 的处理队列（非阻塞）。
// 返回 false 表示队列已满，消息被丢弃。
func (h *Hub) QueueMessage(msg hubMessage) bool {
	select {
	case h.messageChan <- msg:
		return true
	default:
		logrus.WithField("message_kind", msg.kind).Warn("Hub message channel full, dropping message")
		return false
	}
}

// Register 请求把一条新连接注册进 Hub。
func (h *Hub) Register(client *Client) bool {
	return h.QueueMessage(hubMessage{kind: "register", client: client})
}

// registerClient 为连接分配会话并发送 welcome 事件。
func (h *Hub) registerClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to register a nil client")
		return
	}
	sess := h.registry.Register()
	client.session = sess
	h.clients[sess.ID] = client

	h.sendEvent(client, dto.NewWelcome(sess.ID, sess.Name))
}

// unregisterClient 执行断连清理：退出房间（可能触发房间删除）、
// 注销会话、关闭发送通道。清理同步完成，之后不会再处理该连接的消息。
func (h *Hub) unregisterClient(client *Client) {
	if client == nil || client.session == nil {
		return
	}
	sess := client.session
	logCtx := logrus.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"user_name":  sess.Name,
	})

	if sess.InRoom() {
		h.leaveCurrentRoom(client)
	}
	h.registry.Unregister(sess.ID)
	delete(h.clients, sess.ID)

	// 防止重复关闭发送通道
	select {
	case <-client.send:
		logCtx.Warn("Client send channel already closed or has data during unregister")
	default:
		close(client.send)
	}
	logCtx.Info("Client unregistered from Hub")
}

// sendEvent 序列化并单播一个事件。出站超限时丢弃并告警，绝不部分发送。
func (h *Hub) sendEvent(client *Client, event interface{}) {
	raw, err := dto.Encode(event)
	if err != nil {
		logrus.WithError(err).Warn("Dropping outbound event")
		return
	}
	h.deliver(client, raw)
}

// deliver 非阻塞地把一条已序列化的消息放入客户端发送队列。
// 单个接收方失败（队列满、连接将死）只记录，不影响其他接收方。
func (h *Hub) deliver(client *Client, raw []byte) {
	select {
	case client.send <- raw:
		if client.session != nil {
			h.registry.Touch(client.session.ID)
		}
	default:
		sid := ""
		if client.session != nil {
			sid = client.session.ID
		}
		logrus.WithField("session_id", sid).Warn("Client send channel full, skipping this client")
	}
}

// broadcastRoom 把事件序列化一次后扇出给房间的所有成员，可排除发送者。
func (h *Hub) broadcastRoom(room *domain.Room, event interface{}, exclude *Client) {
	raw, err := dto.Encode(event)
	if err != nil {
		logrus.WithError(err).WithField("room_id", room.ID).Warn("Dropping oversized room broadcast")
		return
	}
	for sessionID := range room.Members {
		client, ok := h.clients[sessionID]
		if !ok || client == exclude {
			continue
		}
		h.deliver(client, raw)
	}
}

// broadcastAll 把事件扇出给所有打开的连接（不限房间）。
func (h *Hub) broadcastAll(event interface{}) {
	raw, err := dto.Encode(event)
	if err != nil {
		logrus.WithError(err).Warn("Dropping oversized global broadcast")
		return
	}
	for _, client := range h.clients {
		h.deliver(client, raw)
	}
}
