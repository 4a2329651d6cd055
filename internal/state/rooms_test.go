package state_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouBoom/M-server-node-003/internal/domain"
	"github.com/zhouBoom/M-server-node-003/internal/state"
)

func newSession(id string) *domain.Session {
	return &domain.Session{ID: id, Name: "Guest-" + id, LastSeen: time.Now()}
}

func TestStore_CreateAndListRooms(t *testing.T) {
	store := state.NewStore()

	roomA := store.CreateRoom("Design Review")
	roomB := store.CreateRoom("Standup")

	assert.NotEmpty(t, roomA.ID)
	assert.NotEqual(t, roomA.ID, roomB.ID, "房间 ID 必须唯一")

	summaries := store.ListRooms()
	require.Len(t, summaries, 2)
	assert.Equal(t, 0, summaries[0].UserCount)
}

func TestStore_JoinRoom_Success(t *testing.T) {
	store := state.NewStore()
	room := store.CreateRoom("room")
	sess := newSession("s1")

	joined, err := store.JoinRoom(room.ID, sess, "Alice")

	require.NoError(t, err)
	assert.Equal(t, room.ID, joined.ID)
	assert.Equal(t, "Alice", sess.Name, "加入时声明的显示名应覆盖访客名")
	assert.Equal(t, room.ID, sess.RoomID)
	assert.Equal(t, 1, room.MemberCount())
}

func TestStore_JoinRoom_NotFound(t *testing.T) {
	store := state.NewStore()
	sess := newSession("s1")

	_, err := store.JoinRoom("no-such-room", sess, "Alice")

	require.ErrorIs(t, err, state.ErrRoomNotFound)
	assert.False(t, sess.InRoom(), "失败的加入不应修改会话状态")
}

func TestStore_JoinRoom_Full(t *testing.T) {
	store := state.NewStore()
	room := store.CreateRoom("crowded")

	for i := 0; i < state.MaxRoomMembers; i++ {
		_, err := store.JoinRoom(room.ID, newSession(fmt.Sprintf("s%02d", i)), "")
		require.NoError(t, err)
	}

	// 第 21 个加入请求被拒绝，房间状态不变
	overflow := newSession("s-overflow")
	_, err := store.JoinRoom(room.ID, overflow, "Latecomer")
	require.ErrorIs(t, err, state.ErrRoomFull)
	assert.Equal(t, state.MaxRoomMembers, room.MemberCount())
	assert.False(t, overflow.InRoom())
}

func TestStore_LeaveRoom_DeletesEmptyRoom(t *testing.T) {
	store := state.NewStore()
	room := store.CreateRoom("ephemeral")
	sess := newSession("s1")
	_, err := store.JoinRoom(room.ID, sess, "")
	require.NoError(t, err)

	left, deleted, err := store.LeaveRoom(sess)

	require.NoError(t, err)
	assert.True(t, deleted, "最后一个成员离开时房间应被同步删除")
	assert.Equal(t, room.ID, left.ID)
	_, ok := store.GetRoom(room.ID)
	assert.False(t, ok)
	assert.False(t, sess.InRoom())
}

func TestStore_LeaveRoom_KeepsNonEmptyRoom(t *testing.T) {
	store := state.NewStore()
	room := store.CreateRoom("busy")
	s1 := newSession("s1")
	s2 := newSession("s2")
	_, _ = store.JoinRoom(room.ID, s1, "")
	_, _ = store.JoinRoom(room.ID, s2, "")

	_, deleted, err := store.LeaveRoom(s1)

	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, 1, room.MemberCount())
}

func TestStore_LeaveRoom_NotInRoom(t *testing.T) {
	store := state.NewStore()
	_, _, err := store.LeaveRoom(newSession("loner"))
	require.ErrorIs(t, err, state.ErrNotInRoom)
}

func TestStore_AppendAction_TruncatesHistory(t *testing.T) {
	store := state.NewStore()
	room := store.CreateRoom("drawing")

	for i := 0; i < state.MaxHistory+10; i++ {
		err := store.AppendAction(room.ID, domain.DrawingAction{
			ID:         fmt.Sprintf("a%04d", i),
			ActionType: domain.ActionDraw,
		})
		require.NoError(t, err)
	}

	history := state.HistorySnapshot(room)
	require.Len(t, history, state.MaxHistory, "历史超过上限时应截断")
	// 丢弃的是最旧的条目，保留部分维持原有顺序
	assert.Equal(t, "a0010", history[0].ID)
	assert.Equal(t, fmt.Sprintf("a%04d", state.MaxHistory+9), history[len(history)-1].ID)
}

func TestStore_Locks_ExclusiveAndNonReentrant(t *testing.T) {
	store := state.NewStore()
	room := store.CreateRoom("locks")

	require.NoError(t, store.Lock(room.ID, "elem-1", "s1"))

	// 他人加锁失败
	err := store.Lock(room.ID, "elem-1", "s2")
	require.ErrorIs(t, err, state.ErrElementLocked)

	// 持有者自己重复加锁同样失败
	err = store.Lock(room.ID, "elem-1", "s1")
	require.ErrorIs(t, err, state.ErrElementLocked)

	holder, locked := store.LockHolder(room.ID, "elem-1")
	assert.True(t, locked)
	assert.Equal(t, "s1", holder)
}

func TestStore_Unlock_HolderOnly(t *testing.T) {
	store := state.NewStore()
	room := store.CreateRoom("locks")
	require.NoError(t, store.Lock(room.ID, "elem-1", "s1"))

	// 非持有者不能解锁
	err := store.Unlock(room.ID, "elem-1", "s2")
	require.ErrorIs(t, err, state.ErrNotLockHolder)
	_, locked := store.LockHolder(room.ID, "elem-1")
	assert.True(t, locked, "失败的解锁不应改变锁状态")

	// 未锁定的元素解锁失败
	err = store.Unlock(room.ID, "elem-2", "s1")
	require.ErrorIs(t, err, state.ErrElementNotLocked)

	// 持有者解锁成功
	require.NoError(t, store.Unlock(room.ID, "elem-1", "s1"))
	_, locked = store.LockHolder(room.ID, "elem-1")
	assert.False(t, locked)
}

func TestMembers_SortedSnapshot(t *testing.T) {
	store := state.NewStore()
	room := store.CreateRoom("room")
	_, _ = store.JoinRoom(room.ID, newSession("b"), "Bob")
	_, _ = store.JoinRoom(room.ID, newSession("a"), "Alice")

	members := state.Members(room)
	require.Len(t, members, 2)
	assert.Equal(t, "a", members[0].ID)
	assert.Equal(t, "b", members[1].ID)
}
