package http

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

func ListenAndServe(ctx context.Context, servers ...*http.Server) {
	go func() {
		<-ctx.Done()

		for _, s := range servers {
			if err := s.Shutdown(context.Background()); err != nil {
				logs.Warn(errors.Newf("shutting down the server failed").
					WithTag("addr", s.Addr).
					Wrap(err))
			}
		}
	}()

	var wg sync.WaitGroup

	for _, s := range servers {
		wg.Add(1)

		go func(s *http.Server) {
			defer wg.Done()

			logs.WithTag("addr", s.Addr).Info("starting server")

			switch err := s.ListenAndServe(); err {
			case nil, http.ErrServerClosed, context.Canceled:
				logs.WithTag("addr", s.Addr).Info("stopping server")

			default:
				logs.Warn(errors.Newf("server stopped").
					WithTag("addr", s.Addr).
					Wrap(err))
			}
		}(s)
	}

	wg.Wait()
}

// SessionDebugPath is the route pattern of the session debug endpoint.
const SessionDebugPath = "/sessions/{id}/debug"

// MetricsPathFormatter returns the path label of a request metric. Paths
// holding a session id are collapsed into their route pattern so that labels
// stay bounded. Requests answered with 301, 400, 404 or 405 are not labeled.
func MetricsPathFormatter(statusCode int, path string) string {
	if statusCode == http.StatusMovedPermanently ||
		statusCode == http.StatusBadRequest ||
		statusCode == http.StatusNotFound ||
		statusCode == http.StatusMethodNotAllowed {
		return ""
	}

	if isSessionDebugPath(path) {
		return SessionDebugPath
	}
	return path
}

func isSessionDebugPath(path string) bool {
	id, ok := strings.CutPrefix(path, "/sessions/")
	if !ok {
		return false
	}

	id, ok = strings.CutSuffix(id, "/debug")
	return ok && id != "" && !strings.Contains(id, "/")
}
