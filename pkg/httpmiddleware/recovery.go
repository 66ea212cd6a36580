package httpmiddleware

import (
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Recovery returns a middleware that converts a handler panic into a 500
// response with the API's JSON error envelope. The panic value and stack are
// logged together with the request line; the connection is closed since the
// handler may have died mid-write.
func Recovery() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				zctx.From(r.Context()).Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Stack("stack"),
				)
				w.Header().Set("Connection", "close")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"code":    http.StatusInternalServerError,
					"message": "internal server error",
				})
			}()
			next.ServeHTTP(w, r)
		})
	}
}
