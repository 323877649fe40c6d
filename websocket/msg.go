package websocket

import (
	"github.com/aukilabs/dagaz/geom"
	"github.com/aukilabs/dagaz/models"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

const (
	MsgTypePingRequest          = "ping_request"
	MsgTypePingResponse         = "ping_response"
	MsgTypeSessionJoinRequest   = "session_join_request"
	MsgTypeSessionJoinResponse  = "session_join_response"
	MsgTypeEntityAddRequest     = "entity_add_request"
	MsgTypeEntityAddResponse    = "entity_add_response"
	MsgTypeEntityMove           = "entity_move"
	MsgTypeEntityDeleteRequest  = "entity_delete_request"
	MsgTypeEntityDeleteResponse = "entity_delete_response"
	MsgTypeRegionQueryRequest   = "region_query_request"
	MsgTypeRegionQueryResponse  = "region_query_response"
	MsgTypeErrorResponse        = "error_response"
)

const (
	ErrTypeSessionNotJoined = "session_not_joined"
	ErrTypeBadRequest       = "bad_request"
)

// Error codes sent in error responses.
const (
	ErrCodeBadRequest           = "bad_request"
	ErrCodeUnknownMsgType       = "unknown_msg_type"
	ErrCodeSessionNotFound      = "session_not_found"
	ErrCodeSessionAlreadyJoined = "session_already_joined"
	ErrCodeEntityNotFound       = models.ErrTypeEntityNotFound
	ErrCodeEntityNotOwned       = models.ErrTypeEntityNotOwned
	ErrCodeInternal             = "internal_server_error"
)

// Msg is the envelope of every message exchanged with a client.
type Msg struct {
	Type      string          `json:"type"`
	RequestID uint32          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMsg returns a message carrying data encoded as JSON.
func NewMsg(msgType string, requestID uint32, data any) (Msg, error) {
	msg := Msg{
		Type:      msgType,
		RequestID: requestID,
	}
	if data == nil {
		return msg, nil
	}

	b, err := json.Marshal(data)
	if err != nil {
		return Msg{}, errors.New("encoding message data failed").
			WithTag("msg_type", msgType).
			Wrap(err)
	}
	msg.Data = b
	return msg, nil
}

// DataTo decodes the message data into v. Messages without data leave v
// untouched.
func (m Msg) DataTo(v any) error {
	if len(m.Data) == 0 {
		return nil
	}

	if err := json.Unmarshal(m.Data, v); err != nil {
		return errors.New("decoding message data failed").
			WithType(ErrTypeBadRequest).
			WithTag("msg_type", m.Type).
			Wrap(err)
	}
	return nil
}

// Receiver receives a message and returns the number of bytes read.
type Receiver func() (Msg, int, error)

// Sender sends a message and returns the number of bytes written.
type Sender func(Msg) (int, error)

// ResponseSender queues messages to the connected client.
type ResponseSender interface {
	// Encodes and sends a message.
	Send(msgType string, requestID uint32, data any)

	// Sends an already encoded message.
	SendMsg(Msg)
}

// Receive reads a JSON message from the connection.
func Receive(conn *websocket.Conn) (Msg, int, error) {
	var b []byte
	if err := websocket.Message.Receive(conn, &b); err != nil {
		return Msg{}, 0, err
	}

	var msg Msg
	if err := json.Unmarshal(b, &msg); err != nil {
		return Msg{}, len(b), errors.New("decoding message failed").
			WithType(ErrTypeBadRequest).
			Wrap(err)
	}
	return msg, len(b), nil
}

// Send writes msg as a JSON text frame.
func Send(conn *websocket.Conn, msg Msg) (int, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return 0, errors.New("encoding message failed").
			WithTag("msg_type", msg.Type).
			Wrap(err)
	}

	if err := websocket.Message.Send(conn, string(b)); err != nil {
		return 0, err
	}
	return len(b), nil
}

type SessionJoinRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

type SessionJoinResponse struct {
	SessionID     string            `json:"session_id"`
	SessionUUID   string            `json:"session_uuid"`
	ParticipantID uint32            `json:"participant_id"`
	Grid          models.GridConfig `json:"grid"`
}

type EntityAddRequest struct {
	Bounds geom.Bounds3 `json:"bounds"`
}

type EntityAddResponse struct {
	EntityID uint32 `json:"entity_id"`
}

type EntityMove struct {
	EntityID uint32       `json:"entity_id"`
	Bounds   geom.Bounds3 `json:"bounds"`
}

type EntityDeleteRequest struct {
	EntityID uint32 `json:"entity_id"`
}

type RegionQueryRequest struct {
	Bounds geom.Bounds3 `json:"bounds"`
}

type RegionQueryResponse struct {
	EntityIDs []uint32 `json:"entity_ids"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}
