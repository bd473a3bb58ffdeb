// =============================================================================
// CSV Reconciler - HTTP Middleware
// =============================================================================
//
// This module wraps every request with a request id and an access log line.
//
// REQUEST ID:
//   An incoming X-Request-ID header is reused, otherwise a UUID is minted.
//   The id is echoed in the response and attached to the request logger.
//
// =============================================================================

package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/csv-reconciler/internal/logging"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestID tags every request with an id, stores a logger carrying it in the
// request context and logs the request once it completes. A client-supplied
// id is reused.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(HeaderRequestID, id)

		log := s.logger.With().Str("request_id", id).Logger()
		ctx := logging.WithLogger(r.Context(), log)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Handled request")
	})
}
