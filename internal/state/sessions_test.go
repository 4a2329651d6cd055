package state_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouBoom/M-server-node-003/internal/state"
)

func TestRegistry_RegisterAssignsGuestIdentity(t *testing.T) {
	registry := state.NewRegistry()

	sess := registry.Register()

	require.NotNil(t, sess)
	assert.NotEmpty(t, sess.ID)
	assert.True(t, strings.HasPrefix(sess.Name, "Guest-"), "新会话应获得访客名")
	assert.False(t, sess.LastSeen.IsZero())
	assert.False(t, sess.InRoom())
	assert.Equal(t, 1, registry.Count())
}

func TestRegistry_RegisterUniqueIDs(t *testing.T) {
	registry := state.NewRegistry()

	a := registry.Register()
	b := registry.Register()

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, registry.Count())
}

func TestRegistry_Unregister(t *testing.T) {
	registry := state.NewRegistry()
	sess := registry.Register()

	removed := registry.Unregister(sess.ID)
	require.NotNil(t, removed)
	assert.Equal(t, sess.ID, removed.ID)
	assert.Equal(t, 0, registry.Count())

	// 重复注销不是错误
	assert.Nil(t, registry.Unregister(sess.ID))
}

func TestRegistry_Touch(t *testing.T) {
	registry := state.NewRegistry()
	sess := registry.Register()
	before := sess.LastSeen

	time.Sleep(5 * time.Millisecond)
	registry.Touch(sess.ID)

	assert.True(t, sess.LastSeen.After(before), "Touch 应刷新活跃时间戳")

	// 未知会话的 Touch 是 no-op
	registry.Touch("no-such-session")
}
