// Package middleware provides HTTP middleware for the seogov API.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Strob0t/seogov/internal/logger"
)

const headerRequestID = "X-Request-ID"

// maxRequestIDLen bounds client-supplied IDs before they reach logs and
// message headers.
const maxRequestIDLen = 128

// RequestID is HTTP middleware that takes X-Request-ID from the request or
// generates one. The ID is stored in the context, where the logger and the
// message queue pick it up, and echoed on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}

		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}
