package middleware

import (
	"net/http"

	"github.com/frahmantamala/rbac-admin/pkg/logger"
	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"
)

const TraceHeader = "X-Trace-ID"

// TraceID accepts an inbound X-Trace-ID or mints one, echoes it on the
// response and binds it to the request logger. chi's request id, when
// present, rides along as request_id.
func TraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceHeader)
		if traceID == "" || len(traceID) > 128 {
			traceID = uuid.NewString()
		}

		args := []any{"trace_id", traceID}
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			args = append(args, "request_id", reqID)
		}
		ctx := logger.With(r.Context(), args...)

		w.Header().Set(TraceHeader, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
