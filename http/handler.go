package http

import (
	"net/http"

	"github.com/aukilabs/dagaz/bin"
	"github.com/aukilabs/dagaz/models"
	"github.com/aukilabs/dagaz/pool"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"
)

func HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func HandleReadyCheck(readinessCheck func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !readinessCheck() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func HandleVersion(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(version))
	}
}

// HandleWithCORS allows cross-origin requests to the given handler.
func HandleWithCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// HandleSessionDebug serves the bin occupancy of the session whose global id
// is given by the "id" path value.
func HandleSessionDebug(sessions *models.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessions.GetByGlobalID(r.PathValue("id"))
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		b, err := json.Marshal(struct {
			SessionID   string        `json:"session_id"`
			SessionUUID string        `json:"session_uuid"`
			Entities    int           `json:"entities"`
			Bin         bin.DebugInfo `json:"bin"`
		}{
			SessionID:   sessions.GlobalSessionID(session.ID),
			SessionUUID: session.SessionUUID,
			Entities:    session.EntityCount(),
			Bin:         session.DebugInfo(),
		})
		if err != nil {
			logs.Warn(errors.New("encoding session debug info failed").Wrap(err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(b)
	}
}

// HandlePoolStats serves the counters of the pools returned by stats.
func HandlePoolStats(stats func() []pool.Stats) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := json.Marshal(stats())
		if err != nil {
			logs.Warn(errors.New("encoding pool stats failed").Wrap(err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(b)
	}
}
