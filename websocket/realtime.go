package websocket

import (
	"context"
	"time"

	"github.com/aukilabs/dagaz/featureflag"
	"github.com/aukilabs/dagaz/geom"
	"github.com/aukilabs/dagaz/models"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/google/uuid"
	"golang.org/x/net/websocket"
)

// HeaderClientID is the HTTP header identifying a client across
// connections.
const HeaderClientID = "X-Dagaz-Client-Id"

// RealtimeHandler represents a service that manages a client connection and
// applies its entity changes to the joined session.
type RealtimeHandler struct {
	// The time a client is idle before being disconnected.
	ClientIdleTimeout time.Duration

	// The store that contains all the server sessions.
	Sessions *models.SessionStore

	// The spatial grid of sessions created by this handler.
	Grid models.GridConfig

	FeatureFlags featureflag.FeatureFlag

	conn               *websocket.Conn
	currentSession     *models.Session
	currentParticipant *models.Participant

	clientID string
}

func (h *RealtimeHandler) HandleConnect(conn *websocket.Conn) {
	h.clientID = conn.Request().Header.Get(HeaderClientID)
	if h.clientID == "" {
		h.clientID = uuid.NewString()
	}

	h.conn = conn
}

func (h *RealtimeHandler) HandlePing(ctx context.Context, respond ResponseSender, msg Msg) error {
	respond.Send(MsgTypePingResponse, msg.RequestID, nil)
	return nil
}

func (h *RealtimeHandler) HandleSessionJoin(ctx context.Context, respond ResponseSender, msg Msg) error {
	var req SessionJoinRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if h.currentSession != nil && h.Sessions.GlobalSessionID(h.currentSession.ID) == req.SessionID {
		respondError(respond, msg, ErrCodeSessionAlreadyJoined, "session already joined")
		return nil
	}

	session, ok := h.Sessions.GetByGlobalID(req.SessionID)
	if !ok && req.SessionID != "" {
		respondError(respond, msg, ErrCodeSessionNotFound, "session not found")
		return nil
	}

	if h.currentParticipant != nil {
		h.leaveSession()
	}

	if !ok {
		var err error
		if session, err = models.NewSession(h.Sessions.NewID(), h.Grid); err != nil {
			logs.WithClientID(h.clientID).Error(errors.New("creating session failed").Wrap(err))
			respondError(respond, msg, ErrCodeInternal, "creating session failed")
			return nil
		}

		session.SetIncrementalUpdates(h.FeatureFlags.IsSet(featureflag.FlagIncrementalBinUpdate))
		h.Sessions.Add(session)
	}

	participant := &models.Participant{
		ID:       session.NewParticipantID(),
		ClientID: h.clientID,
	}
	if err := session.AddParticipant(participant); err != nil {
		logs.WithClientID(h.clientID).Debug(err)
		respondError(respond, msg, ErrCodeSessionNotFound, "session not found")
		return nil
	}

	respond.Send(MsgTypeSessionJoinResponse, msg.RequestID, SessionJoinResponse{
		SessionID:     h.Sessions.GlobalSessionID(session.ID),
		SessionUUID:   session.SessionUUID,
		ParticipantID: participant.ID,
		Grid:          session.Grid,
	})

	h.currentSession = session
	h.currentParticipant = participant
	return nil
}

func (h *RealtimeHandler) HandleDisconnect(_ error) {
	if h.currentParticipant != nil {
		h.leaveSession()
	}
}

func (h *RealtimeHandler) HandleEntityAdd(ctx context.Context, respond ResponseSender, msg Msg) error {
	var req EntityAddRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	session, participant, err := h.joined(msg)
	if err != nil {
		return err
	}

	if !validBounds(respond, msg, req.Bounds) {
		return nil
	}

	entity := session.AddEntity(participant.ID, req.Bounds)
	respond.Send(MsgTypeEntityAddResponse, msg.RequestID, EntityAddResponse{
		EntityID: entity.ID,
	})
	return nil
}

func (h *RealtimeHandler) HandleEntityMove(ctx context.Context, respond ResponseSender, msg Msg) error {
	var req EntityMove
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	session, participant, err := h.joined(msg)
	if err != nil {
		return err
	}

	if !validBounds(respond, msg, req.Bounds) {
		return nil
	}

	if err := session.MoveEntity(participant.ID, req.EntityID, req.Bounds); err != nil {
		respondEntityError(respond, msg, err)
	}
	return nil
}

func (h *RealtimeHandler) HandleEntityDelete(ctx context.Context, respond ResponseSender, msg Msg) error {
	var req EntityDeleteRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	session, participant, err := h.joined(msg)
	if err != nil {
		return err
	}

	if err := session.RemoveEntity(participant.ID, req.EntityID); err != nil {
		respondEntityError(respond, msg, err)
		return nil
	}

	respond.Send(MsgTypeEntityDeleteResponse, msg.RequestID, nil)
	return nil
}

func (h *RealtimeHandler) HandleRegionQuery(ctx context.Context, respond ResponseSender, msg Msg) error {
	var req RegionQueryRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	session, _, err := h.joined(msg)
	if err != nil {
		return err
	}

	if !validBounds(respond, msg, req.Bounds) {
		return nil
	}

	narrowPhase := !h.FeatureFlags.IsSet(featureflag.FlagDisableNarrowPhase)
	respond.Send(MsgTypeRegionQueryResponse, msg.RequestID, RegionQueryResponse{
		EntityIDs: session.QueryRegion(req.Bounds, narrowPhase),
	})
	return nil
}

func (h *RealtimeHandler) HandleUnknown(ctx context.Context, respond ResponseSender, msg Msg) error {
	respondError(respond, msg, ErrCodeUnknownMsgType, "unknown message type: "+msg.Type)
	return nil
}

func (h *RealtimeHandler) Receiver() Receiver {
	return func() (Msg, int, error) {
		return Receive(h.conn)
	}
}

func (h *RealtimeHandler) Sender() Sender {
	return func(msg Msg) (int, error) {
		return Send(h.conn, msg)
	}
}

func (h *RealtimeHandler) Close() {
}

func (h *RealtimeHandler) IdleTimeout() time.Duration {
	return h.ClientIdleTimeout
}

func (h *RealtimeHandler) GetSessions() *models.SessionStore {
	return h.Sessions
}

func (h *RealtimeHandler) CurrentSession() *models.Session {
	return h.currentSession
}

func (h *RealtimeHandler) CurrentParticipant() *models.Participant {
	return h.currentParticipant
}

func (h *RealtimeHandler) GetClientID() string {
	return h.clientID
}

func (h *RealtimeHandler) joined(msg Msg) (*models.Session, *models.Participant, error) {
	if h.currentSession == nil || h.currentParticipant == nil {
		return nil, nil, errors.New("session not joined").
			WithType(ErrTypeSessionNotJoined).
			WithTag("msg_type", msg.Type)
	}
	return h.currentSession, h.currentParticipant, nil
}

func (h *RealtimeHandler) leaveSession() {
	session := h.currentSession
	participant := h.currentParticipant

	if participant == nil || session == nil {
		return
	}

	session.RemoveParticipantEntities(participant.ID)
	session.RemoveParticipant(participant)

	h.Sessions.RemoveIfEmpty(session)

	h.currentParticipant = nil
	h.currentSession = nil
}

func validBounds(respond ResponseSender, msg Msg, b geom.Bounds3) bool {
	if b.IsValid() {
		return true
	}

	respondError(respond, msg, ErrCodeBadRequest, "bounds min must not exceed max")
	return false
}

func respondEntityError(respond ResponseSender, msg Msg, err error) {
	switch errors.Type(err) {
	case models.ErrTypeEntityNotFound:
		respondError(respond, msg, ErrCodeEntityNotFound, "entity not found")

	case models.ErrTypeEntityNotOwned:
		respondError(respond, msg, ErrCodeEntityNotOwned, "entity is owned by another participant")

	default:
		respondError(respond, msg, ErrCodeInternal, err.Error())
	}
}

func respondError(respond ResponseSender, msg Msg, code, message string) {
	respond.Send(MsgTypeErrorResponse, msg.RequestID, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
