package middlewares

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/jake-scott/hass-ajax/internal/pkg/logging"
)

// statusWriter captures the response status and size for the audit log.
type statusWriter struct {
	http.ResponseWriter

	statusCode int
	size       int
}

func (w *statusWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	size, err := w.ResponseWriter.Write(b)
	w.size += size

	return size, err
}

type LoggingMw struct {
	next http.Handler
}

func NewLoggingMw() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return &LoggingMw{next: next}
	}
}

// ServeHTTP tags each request with a transaction ID, carries it through
// the request context and emits one audit entry per request.
func (mw *LoggingMw) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	txnID := uuid.New().String()
	startTime := time.Now()

	// Set the header before anything writes a response body
	rw.Header().Set("X-Txn-ID", txnID)
	r = r.WithContext(logging.WithTxnID(r.Context(), txnID))

	sw := statusWriter{ResponseWriter: rw, statusCode: http.StatusOK}
	mw.next.ServeHTTP(&sw, r)

	logrus.WithFields(logrus.Fields{
		"entrytype": "audit",
		"status":    sw.statusCode,
		"method":    r.Method,
		"proto":     r.Proto,
		"host":      r.Host,
		"remote":    r.RemoteAddr,
		"start":     startTime.Format(time.RFC3339Nano),
		"duration":  time.Since(startTime),
		"path":      r.URL.String(),
		"txnid":     txnID,
		"size":      sw.size,
	}).Info(http.StatusText(sw.statusCode))
}
