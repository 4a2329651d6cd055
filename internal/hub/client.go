package hub

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/zhouBoom/M-server-node-003/internal/domain"
)

// Client 代表一条连接到 Hub 的 WebSocket 连接。
// session 在 Hub 处理完 register 消息后填充；同一连接的消息按接收
// 顺序进入 Hub 通道，因此注册总是先于该连接的任何入站事件被处理。
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	session *domain.Session
	send    chan []byte // Hub 向此连接投递出站消息的缓冲通道
}

// NewClient 创建一个新的 Client 实例。
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// Run 启动客户端的读写 goroutine。
func (c *Client) Run() {
	go c.WritePump()
	go c.ReadPump()
}

// SessionID 返回该连接的会话 ID，注册完成前为空。
func (c *Client) SessionID() string {
	if c.session == nil {
		return ""
	}
	return c.session.ID
}

// CloseConn 关闭底层 WebSocket 连接。
func (c *Client) CloseConn() {
	c.conn.Close()
}

// ReadPump 把入站消息从 WebSocket 连接泵送到 Hub 的处理通道。
// 连接关闭或读错误触发注销清理。
func (c *Client) ReadPump() {
	defer func() {
		// 清理：请求 Hub 注销此连接；Hub 可能已停止，带超时避免阻塞
		select {
		case c.hub.messageChan <- hubMessage{kind: "unregister", client: c}:
		case <-time.After(1 * time.Second):
			logrus.WithField("session_id", c.SessionID()).Warn("Timeout sending unregister message to Hub channel")
		}
		c.conn.Close()
		logrus.WithField("session_id", c.SessionID()).Info("readPump exited, unregistered client")
	}()

	// 传输层读限制放宽到协议上限的两倍：超限消息仍能到达 dispatch，
	// 在那里按协议“丢弃并告警”，而不是直接断开连接
	c.conn.SetReadLimit(maxMessageSize * 2)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			logCtx := logrus.WithField("session_id", c.SessionID())
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				logCtx.Debug("WebSocket connection closed normally or read error")
			}
			break
		}

		if messageType != websocket.TextMessage {
			logrus.WithField("session_id", c.SessionID()).Debugf("Ignoring non-text message type: %d", messageType)
			continue
		}

		// 非阻塞发送到 Hub，队列满则丢弃该消息
		select {
		case c.hub.messageChan <- hubMessage{kind: "inbound", client: c, rawData: message}:
		default:
			logrus.WithField("session_id", c.SessionID()).Warn("Hub message channel full, dropping client message")
		}
	}
}

// WritePump 把出站消息从 send 通道泵送到 WebSocket 连接，
// 并定期发送 Ping 保活。
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		logrus.WithField("session_id", c.SessionID()).Info("writePump exited")
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// send 通道被 Hub 关闭（注销时）
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logrus.WithField("session_id", c.SessionID()).WithError(err).Warn("Failed to write message to websocket")
				return
			}
			_ = c.conn.SetWriteDeadline(time.Time{})

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logrus.WithField("session_id", c.SessionID()).WithError(err).Warn("Failed to send ping message")
				return
			}
			_ = c.conn.SetWriteDeadline(time.Time{})
		}
	}
}
