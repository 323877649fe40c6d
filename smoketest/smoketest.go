package smoketest

import (
	"context"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/aukilabs/dagaz/geom"
	dwebsocket "github.com/aukilabs/dagaz/websocket"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"

	defaultTimeout = time.Second * 10
)

// Request is the body of a smoke test request.
type Request struct {
	Endpoint string        `json:"endpoint"`
	Timeout  time.Duration `json:"timeout"`
}

// Results describes the outcome of a smoke test.
type Results struct {
	FromEndpoint    string  `json:"from_endpoint"`
	ToEndpoint      string  `json:"to_endpoint"`
	Status          string  `json:"status"`
	LatencyMilliSec float64 `json:"latency_ms"`
	Error           string  `json:"error,omitempty"`
}

type Options struct {
	Endpoint   string
	UserAgent  string
	SendResult func(context.Context, Results) error
}

type testCtxKey string

var testCtxKeyValue testCtxKey = "test-context"

type testContext struct {
	context.Context
	Cancel func()
}

// HandleSmokeTest starts a smoke test against the endpoint given in the
// request body. Results are reported with opts.SendResult.
func HandleSmokeTest(ctx context.Context, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			logs.Warn(errors.New("reading body failed").Wrap(err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		var req Request
		if err := json.Unmarshal(b, &req); err != nil || req.Endpoint == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		go func() {
			defer func() {
				// if context is of testContext
				// cancel context on exit to signal function exited
				// this is used for testing
				if tctx := ctx.Value(testCtxKeyValue); tctx != nil {
					testCtx := tctx.(testContext)
					if testCtx.Cancel != nil {
						testCtx.Cancel()
					}
				}
			}()

			res, err := Run(ctx, RunOptions{
				FromEndpoint: opts.Endpoint,
				ToEndpoint:   req.Endpoint,
				UserAgent:    opts.UserAgent,
				Timeout:      req.Timeout,
			})
			if err != nil {
				logs.Warn(err)
			}

			if err := opts.SendResult(ctx, res); err != nil {
				logs.WithTag("from_endpoint", opts.Endpoint).
					WithTag("to_endpoint", req.Endpoint).
					Warn(errors.New("sending smoke test result failed").Wrap(err))
			}
		}()

		w.WriteHeader(http.StatusOK)
	}
}

type RunOptions struct {
	FromEndpoint string
	ToEndpoint   string
	UserAgent    string
	Timeout      time.Duration
}

// Run connects to a Dagaz server, creates a session then adds, queries and
// deletes an entity.
func Run(ctx context.Context, opts RunOptions) (Results, error) {
	res := Results{
		FromEndpoint: opts.FromEndpoint,
		ToEndpoint:   opts.ToEndpoint,
		Status:       StatusFailed,
	}

	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	start := time.Now()
	if err := run(ctx, opts); err != nil {
		err = errors.New("smoke test failed").
			WithTag("from_endpoint", opts.FromEndpoint).
			WithTag("to_endpoint", opts.ToEndpoint).
			Wrap(err)
		res.Error = err.Error()
		return res, err
	}

	res.Status = StatusSuccess
	res.LatencyMilliSec = float64(time.Since(start).Microseconds()) / 1000
	return res, nil
}

func run(ctx context.Context, opts RunOptions) error {
	endpoint := opts.ToEndpoint
	endpoint = strings.Replace(endpoint, "http://", "ws://", 1)
	endpoint = strings.Replace(endpoint, "https://", "wss://", 1)

	config, err := websocket.NewConfig(endpoint, opts.FromEndpoint)
	if err != nil {
		return errors.New("creating websocket config failed").Wrap(err)
	}
	if opts.UserAgent != "" {
		config.Header.Set("User-Agent", opts.UserAgent)
	}

	conn, err := config.DialContext(ctx)
	if err != nil {
		return errors.New("dialing endpoint failed").Wrap(err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	var join dwebsocket.SessionJoinResponse
	if err := request(conn, dwebsocket.MsgTypeSessionJoinRequest, 1, dwebsocket.SessionJoinRequest{}, dwebsocket.MsgTypeSessionJoinResponse, &join); err != nil {
		return err
	}

	bounds := geom.NewBounds3(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{
		join.Grid.CellWidth / 2,
		join.Grid.CellHeight / 2,
		join.Grid.CellDepth / 2,
	})

	var add dwebsocket.EntityAddResponse
	if err := request(conn, dwebsocket.MsgTypeEntityAddRequest, 2, dwebsocket.EntityAddRequest{Bounds: bounds}, dwebsocket.MsgTypeEntityAddResponse, &add); err != nil {
		return err
	}

	var query dwebsocket.RegionQueryResponse
	if err := request(conn, dwebsocket.MsgTypeRegionQueryRequest, 3, dwebsocket.RegionQueryRequest{Bounds: bounds}, dwebsocket.MsgTypeRegionQueryResponse, &query); err != nil {
		return err
	}
	if !slices.Contains(query.EntityIDs, add.EntityID) {
		return errors.New("added entity not found by region query").
			WithTag("entity_id", add.EntityID).
			WithTag("entity_ids", query.EntityIDs)
	}

	return request(conn, dwebsocket.MsgTypeEntityDeleteRequest, 4, dwebsocket.EntityDeleteRequest{EntityID: add.EntityID}, dwebsocket.MsgTypeEntityDeleteResponse, nil)
}

func request(conn *websocket.Conn, msgType string, requestID uint32, data any, resType string, res any) error {
	msg, err := dwebsocket.NewMsg(msgType, requestID, data)
	if err != nil {
		return err
	}

	if _, err := dwebsocket.Send(conn, msg); err != nil {
		return errors.New("sending message failed").
			WithTag("msg_type", msgType).
			Wrap(err)
	}

	for {
		msg, _, err := dwebsocket.Receive(conn)
		if err != nil {
			return errors.New("receiving message failed").
				WithTag("msg_type", resType).
				Wrap(err)
		}

		if msg.RequestID != requestID {
			continue
		}

		switch msg.Type {
		case resType:
			if res == nil {
				return nil
			}
			return msg.DataTo(res)

		case dwebsocket.MsgTypeErrorResponse:
			var errRes dwebsocket.ErrorResponse
			msg.DataTo(&errRes)

			return errors.New("request failed").
				WithType(errRes.Code).
				WithTag("msg_type", msgType).
				WithTag("message", errRes.Message)
		}
	}
}
