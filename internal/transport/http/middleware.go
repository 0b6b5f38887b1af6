package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"job-ledger/internal/entity"
)

// SenderHeader carries the caller identity. Authenticating it is the job of
// whatever sits in front of this service.
const SenderHeader = "X-Sender"

type ctxKey int

const senderKey ctxKey = iota

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w}
		start := time.Now()

		// chi middleware.RequestID puts the id in the context
		reqID := middleware.GetReqID(r.Context())

		next.ServeHTTP(sw, r)

		log.WithFields(log.Fields{
			"req_id":      reqID,
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      sw.status,
			"bytes":       sw.bytes,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("[http] request")
	})
}

// RequireSender rejects requests without a well-formed sender header.
func RequireSender(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sender := r.Header.Get(SenderHeader)
		if err := entity.ValidateAddr(sender); err != nil {
			writeJSON(w, http.StatusUnauthorized, apiError{Message: SenderHeader + ": " + err.Error()})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), senderKey, sender)))
	})
}

func senderFrom(ctx context.Context) string {
	s, _ := ctx.Value(senderKey).(string)
	return s
}
