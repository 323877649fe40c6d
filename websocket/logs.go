package websocket

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"golang.org/x/net/websocket"
)

const (
	sessionIDTag     = "session_id"
	participantIDTag = "participant_id"
)

func HandlerWithLogs(h Handler, summaryInterval time.Duration) Handler {
	ctx, cancel := context.WithCancel(context.Background())

	handler := &handlerWithLogs{
		Handler:            h,
		summaryInterval:    summaryInterval,
		closeSummaryWorker: cancel,
		counter:            make(map[string]int),
	}

	go handler.startSummaryWorker(ctx)
	return handler
}

type handlerWithLogs struct {
	Handler

	originalRequest *http.Request

	summaryInterval    time.Duration
	closeSummaryWorker func()
	counterMutex       sync.Mutex
	counter            map[string]int

	sessionID     string
	sessionUUID   string
	participantID uint32
}

func (h *handlerWithLogs) HandleConnect(conn *websocket.Conn) {
	h.Handler.HandleConnect(conn)
	h.originalRequest = conn.Request()

	logs.WithClientID(h.GetClientID()).Info("new client is connected")
}

func (h *handlerWithLogs) HandleSessionJoin(ctx context.Context, respond ResponseSender, msg Msg) error {
	if err := h.Handler.HandleSessionJoin(ctx, respond, msg); err != nil {
		return err
	}

	entry := logs.WithClientID(h.GetClientID()).
		WithTag("request_id", msg.RequestID).
		WithTag("http_headers", h.httpHeaders())

	if h.CurrentParticipant() == nil {
		var req SessionJoinRequest
		// The request was already decoded by the wrapped handler.
		msg.DataTo(&req)

		entry.WithTag(sessionIDTag, req.SessionID).
			Info("participant failed to join a session")
		return nil
	}

	h.sessionID = h.GetSessions().GlobalSessionID(h.CurrentSession().ID)
	h.sessionUUID = h.CurrentSession().SessionUUID
	h.participantID = h.CurrentParticipant().ID

	entry.WithTag(sessionIDTag, h.sessionID).
		WithTag("session_uuid", h.sessionUUID).
		WithTag(participantIDTag, h.participantID).
		Info("participant joined a session")
	return nil
}

func (h *handlerWithLogs) HandleDisconnect(err error) {
	h.Handler.HandleDisconnect(err)

	entry := logs.WithClientID(h.GetClientID()).
		WithTag(sessionIDTag, h.sessionID).
		WithTag(participantIDTag, h.participantID)

	if errors.IsType(err, ErrTypeSessionNotJoined) || errors.IsType(err, ErrTypeBadRequest) {
		entry.Warn(errors.New("client disconnected").Wrap(err))
		return
	}
	entry.Info("client disconnected")
}

func (h *handlerWithLogs) Receiver() Receiver {
	receive := h.Handler.Receiver()

	return func() (Msg, int, error) {
		msg, n, err := receive()
		if err != nil && !stderrors.Is(err, io.EOF) && !stderrors.Is(err, net.ErrClosed) {
			h.entry().Error(errors.New("receiving message failed").Wrap(err))
		} else if err == nil {
			h.entry().
				WithTag("msg_type", msg.Type).
				Debug("message received")
			h.incCounter(msg.Type)
		}
		return msg, n, err
	}
}

func (h *handlerWithLogs) Sender() Sender {
	sender := h.Handler.Sender()

	return func(msg Msg) (int, error) {
		n, err := sender(msg)
		if err != nil && !stderrors.Is(err, net.ErrClosed) {
			h.entry().
				WithTag("msg_type", msg.Type).
				Error(errors.New("sending message failed").Wrap(err))
		} else if err == nil {
			h.entry().
				WithTag("msg_type", msg.Type).
				Debug("message sent")
		}
		return n, err
	}
}

func (h *handlerWithLogs) Close() {
	h.Handler.Close()
	h.closeSummaryWorker()
	h.logSummary()
}

func (h *handlerWithLogs) entry() logs.Entry {
	return logs.WithClientID(h.GetClientID()).
		WithTag(sessionIDTag, h.sessionID).
		WithTag("session_uuid", h.sessionUUID).
		WithTag(participantIDTag, h.participantID)
}

func (h *handlerWithLogs) httpHeaders() any {
	if h.originalRequest == nil {
		return nil
	}

	return struct {
		UserAgent     string `json:"user_agent,omitempty"`
		XForwardedFor string `json:"x_forwarded_for,omitempty"`
	}{
		UserAgent:     h.originalRequest.UserAgent(),
		XForwardedFor: h.originalRequest.Header.Get("X-Forwarded-For"),
	}
}

func (h *handlerWithLogs) startSummaryWorker(ctx context.Context) {
	ticker := time.NewTicker(h.summaryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			h.logSummary()
		}
	}
}

func (h *handlerWithLogs) incCounter(msgType string) {
	h.counterMutex.Lock()
	defer h.counterMutex.Unlock()

	h.counter[msgType]++
}

func (h *handlerWithLogs) logSummary() {
	h.counterMutex.Lock()
	defer h.counterMutex.Unlock()

	if len(h.counter) == 0 {
		return
	}

	entry := h.entry().WithTag("time_interval", h.summaryInterval)

	for k, v := range h.counter {
		entry = entry.WithTag(k, v)
		delete(h.counter, k)
	}

	entry.Info("inbound message summary")
}
