// Package api carries middleware shared by the mock services' routers.
package api

import (
	"net/http"

	"github.com/konstin/vws-python-mock/pkg/logger"
	"github.com/konstin/vws-python-mock/pkg/wire"
)

// Recoverer converts panics into the canned 500 HTML page. Programming
// failures are logged; domain failures never reach this path.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Errorw("panic while handling request",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
				)
				wire.WriteInternalError(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
