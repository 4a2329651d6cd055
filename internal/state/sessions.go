package state

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/zhouBoom/M-server-node-003/internal/domain"
)

// Registry 维护连接身份到会话状态的映射 (Session Registry)。
// 只能从事件循环这一个 goroutine 访问，因此不需要内部加锁。
type Registry struct {
	sessions map[string]*domain.Session
}

// NewRegistry 创建一个空的会话注册表。
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*domain.Session)}
}

// Register 为一条新连接分配全局唯一的会话 ID 和默认访客名。
func (r *Registry) Register() *domain.Session {
	id := uuid.NewString()
	sess := &domain.Session{
		ID:       id,
		Name:     "Guest-" + id[:8],
		LastSeen: time.Now().UTC(),
	}
	r.sessions[id] = sess
	logrus.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"user_name":  sess.Name,
	}).Info("Session registered")
	return sess
}

// Unregister 移除会话并返回被移除的对象；不存在时返回 nil。
// 调用方必须容忍断连与在途广播之间的竞争，所以未找到不是错误。
func (r *Registry) Unregister(id string) *domain.Session {
	sess, ok := r.sessions[id]
	if !ok {
		return nil
	}
	delete(r.sessions, id)
	logrus.WithField("session_id", id).Info("Session unregistered")
	return sess
}

// Touch 在每次成功收发后刷新会话的活跃时间戳。未找到时是 no-op。
func (r *Registry) Touch(id string) {
	if sess, ok := r.sessions[id]; ok {
		sess.LastSeen = time.Now().UTC()
	}
}

// Get 按 ID 查找会话。
func (r *Registry) Get(id string) (*domain.Session, bool) {
	sess, ok := r.sessions[id]
	return sess, ok
}

// Count 返回当前已注册的会话数。
func (r *Registry) Count() int {
	return len(r.sessions)
}
