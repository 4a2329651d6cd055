package dto_test

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouBoom/M-server-node-003/internal/dto"
)

func TestParse_EmptyPayload(t *testing.T) {
	_, err := dto.Parse(nil)
	require.ErrorIs(t, err, dto.ErrEmptyPayload)

	_, err = dto.Parse([]byte{})
	require.ErrorIs(t, err, dto.ErrEmptyPayload)
}

func TestParse_OversizedPayload(t *testing.T) {
	// 构造一条刚好超过 1 MiB 的合法 JSON：大小检查先于解析
	padding := bytes.Repeat([]byte("x"), dto.MaxMessageBytes)
	raw := []byte(fmt.Sprintf(`{"type":"document-edit","content":"%s"}`, padding))

	_, err := dto.Parse(raw)
	require.ErrorIs(t, err, dto.ErrPayloadTooLarge)
}

func TestParse_MalformedJSON(t *testing.T) {
	_, err := dto.Parse([]byte(`{"type":`))
	require.ErrorIs(t, err, dto.ErrMalformedPayload)
}

func TestParse_MissingType(t *testing.T) {
	_, err := dto.Parse([]byte(`{"roomName":"untyped"}`))
	require.ErrorIs(t, err, dto.ErrMissingType)
}

func TestParse_KnownVariants(t *testing.T) {
	msg, err := dto.Parse([]byte(`{"type":"create-room","roomName":"Design"}`))
	require.NoError(t, err)
	assert.Equal(t, dto.CreateRoom{RoomName: "Design"}, msg)

	msg, err = dto.Parse([]byte(`{"type":"join-room","roomId":"r1","userName":"Alice"}`))
	require.NoError(t, err)
	assert.Equal(t, dto.JoinRoom{RoomID: "r1", UserName: "Alice"}, msg)

	msg, err = dto.Parse([]byte(`{"type":"leave-room"}`))
	require.NoError(t, err)
	assert.Equal(t, dto.LeaveRoom{}, msg)

	msg, err = dto.Parse([]byte(`{"type":"lock-element","elementId":"e1"}`))
	require.NoError(t, err)
	assert.Equal(t, dto.LockElement{ElementID: "e1"}, msg)

	msg, err = dto.Parse([]byte(`{"type":"get-drawing-history"}`))
	require.NoError(t, err)
	assert.Equal(t, dto.GetDrawingHistory{}, msg)
}

func TestParse_DrawingOpTimestampMillis(t *testing.T) {
	// 客户端时间戳是 epoch 毫秒
	msg, err := dto.Parse([]byte(`{"type":"draw","elementId":"e1","element":"{}","timestamp":1700000000000}`))
	require.NoError(t, err)

	op, ok := msg.(dto.DrawingOp)
	require.True(t, ok)
	assert.Equal(t, "draw", op.Kind)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), op.Timestamp)
}

func TestParse_DrawingOpMissingTimestamp(t *testing.T) {
	msg, err := dto.Parse([]byte(`{"type":"erase","elementId":"e1"}`))
	require.NoError(t, err)

	op := msg.(dto.DrawingOp)
	assert.True(t, op.Timestamp.IsZero(), "未声明时间戳应解析为零值")
}

func TestParse_DocumentEdit(t *testing.T) {
	msg, err := dto.Parse([]byte(`{"type":"document-edit","projectId":"p1","userId":"u1","content":"hello","timestamp":1700000000000}`))
	require.NoError(t, err)

	edit, ok := msg.(dto.DocumentEdit)
	require.True(t, ok)
	assert.Equal(t, "p1", edit.ProjectID)
	assert.Equal(t, "u1", edit.UserID)
	assert.Equal(t, "hello", edit.Content)
	assert.False(t, edit.Timestamp.IsZero())
}

func TestParse_UnknownTypeBecomesUnrecognized(t *testing.T) {
	msg, err := dto.Parse([]byte(`{"type":"teleport"}`))
	require.NoError(t, err)
	assert.Equal(t, dto.Unrecognized{Type: "teleport"}, msg)
}

func TestEncode_EnforcesSizeCeiling(t *testing.T) {
	raw, err := dto.Encode(dto.NewError("small"))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(raw), dto.MaxMessageBytes)

	// 超限的出站事件整条拒绝，不部分发送
	huge := dto.NewError(string(bytes.Repeat([]byte("y"), dto.MaxMessageBytes)))
	_, err = dto.Encode(huge)
	require.Error(t, err)
}
