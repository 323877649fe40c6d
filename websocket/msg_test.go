package websocket

import (
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestMsg(t *testing.T) {
	t.Run("encodes data", func(t *testing.T) {
		msg, err := NewMsg(MsgTypeEntityMove, 3, EntityMove{
			EntityID: 7,
			Bounds:   box(0, 0, 0, 1, 2, 3),
		})
		require.NoError(t, err)
		require.Equal(t, MsgTypeEntityMove, msg.Type)
		require.Equal(t, uint32(3), msg.RequestID)
		require.JSONEq(t, `{"entity_id":7,"bounds":{"min":[0,0,0],"max":[1,2,3]}}`, string(msg.Data))

		var move EntityMove
		require.NoError(t, msg.DataTo(&move))
		require.Equal(t, uint32(7), move.EntityID)
		require.Equal(t, box(0, 0, 0, 1, 2, 3), move.Bounds)
	})

	t.Run("message without data", func(t *testing.T) {
		msg, err := NewMsg(MsgTypePingRequest, 1, nil)
		require.NoError(t, err)
		require.Empty(t, msg.Data)

		req := SessionJoinRequest{SessionID: "untouched"}
		require.NoError(t, msg.DataTo(&req))
		require.Equal(t, "untouched", req.SessionID)
	})

	t.Run("invalid data is a bad request", func(t *testing.T) {
		msg := Msg{Type: MsgTypeEntityAddRequest, Data: []byte(`{"bounds":"nope"}`)}

		var req EntityAddRequest
		err := msg.DataTo(&req)
		require.Error(t, err)
		require.Equal(t, ErrTypeBadRequest, errors.Type(err))
	})
}
