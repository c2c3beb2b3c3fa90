package v1

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestID tags every request with an id for log correlation. An inbound
// X-Request-ID is trusted and echoed; otherwise one is generated.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}
