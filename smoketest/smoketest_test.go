package smoketest

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aukilabs/dagaz/models"
	dwebsocket "github.com/aukilabs/dagaz/websocket"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func newDagazServer(t *testing.T) *httptest.Server {
	newHandler := dwebsocket.NewTestHandler(&models.SessionStore{})

	server := httptest.NewServer(websocket.Server{
		Handler: func(conn *websocket.Conn) {
			defer conn.Close()

			h := newHandler()
			defer h.Close()

			dwebsocket.Handle(context.Background(), conn, h)
		},
	})
	t.Cleanup(server.Close)
	return server
}

func TestRun(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := newDagazServer(t)

		res, err := Run(context.Background(), RunOptions{
			FromEndpoint: "http://localdagaz",
			ToEndpoint:   server.URL,
			Timeout:      time.Second,
		})
		require.NoError(t, err)
		require.Equal(t, StatusSuccess, res.Status)
		require.Equal(t, server.URL, res.ToEndpoint)
		require.Greater(t, res.LatencyMilliSec, float64(0))
		require.Empty(t, res.Error)
	})

	t.Run("offline", func(t *testing.T) {
		res, err := Run(context.Background(), RunOptions{
			FromEndpoint: "http://localdagaz",
			ToEndpoint:   "http://127.0.0.1:1",
			Timeout:      time.Second,
		})
		require.Error(t, err)
		require.Equal(t, StatusFailed, res.Status)
		require.Zero(t, res.LatencyMilliSec)
		require.NotEmpty(t, res.Error)
	})
}

func TestHandleSmokeTest(t *testing.T) {
	t.Run("smoke test success", func(t *testing.T) {
		server := newDagazServer(t)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		ctx = context.WithValue(ctx, testCtxKeyValue, testContext{
			Context: ctx,
			Cancel:  cancel,
		})

		results := make(chan Results, 1)
		smokeTest := HandleSmokeTest(ctx, Options{
			Endpoint: "http://localdagaz",
			SendResult: func(_ context.Context, res Results) error {
				results <- res
				return nil
			},
		})

		body, err := json.Marshal(Request{
			Endpoint: server.URL,
			Timeout:  time.Second,
		})
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "http://localdagaz/smoke-test", bytes.NewBuffer(body))
		smokeTest.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		<-ctx.Done()

		res := <-results
		require.Equal(t, "http://localdagaz", res.FromEndpoint)
		require.Equal(t, server.URL, res.ToEndpoint)
		require.Equal(t, StatusSuccess, res.Status)
	})

	t.Run("bad request", func(t *testing.T) {
		smokeTest := HandleSmokeTest(context.Background(), Options{
			SendResult: func(context.Context, Results) error {
				t.Error("unexpected smoke test run")
				return nil
			},
		})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "http://localdagaz/smoke-test", bytes.NewBufferString("{"))
		smokeTest.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
